package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/pkg/charid"
	filecopy "github.com/walteh/toonsync/pkg/copy"
	"github.com/walteh/toonsync/pkg/log"
	"github.com/walteh/toonsync/pkg/scan"
)

// NewCopyCmd creates a new copy command
func NewCopyCmd(factory OptsFactory) *cobra.Command {
	var (
		fromID string
		toIDs  []string
		toAll  bool
	)

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy one character's settings onto others",
		Long: `Copy replicates the source character's settings file onto the chosen
destinations. Each destination is replaced atomically; a failed destination
is left exactly as it was. Close the game first: it rewrites settings files
on exit and will race with the copy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "copy").Logger().WithContext(ctx)

			if !toAll && len(toIDs) == 0 {
				return errors.New("pick destinations with --to or --all")
			}

			o, err := factory(ctx)
			if err != nil {
				return err
			}

			ctx = log.NewContext(ctx, o.Console)

			dir, err := settingsDir(ctx, o)
			if err != nil {
				return err
			}

			files, err := scanSorted(ctx, dir)
			if err != nil {
				return errors.Errorf("scanning %s: %w", dir, err)
			}
			byID := make(map[charid.CharacterID]scan.SettingsFile, len(files))
			for _, f := range files {
				byID[f.ID] = f
			}

			source, err := pickFile(byID, fromID)
			if err != nil {
				return err
			}

			var dests []scan.SettingsFile
			if toAll {
				for _, f := range files {
					if f.ID != source.ID {
						dests = append(dests, f)
					}
				}
			} else {
				for _, raw := range toIDs {
					dest, err := pickFile(byID, raw)
					if err != nil {
						return err
					}
					dests = append(dests, dest)
				}
			}
			if len(dests) == 0 {
				return errors.New("no destinations to copy to")
			}

			allIDs := append(ids(dests), source.ID)
			labels := o.Resolver.ResolveAll(ctx, allIDs)

			console := log.FromContext(ctx)
			console.Header("copying settings from " + labels[source.ID])
			outcomes, err := o.Engine.Copy(ctx, filecopy.Request{Source: source, Destinations: dests})
			if err != nil {
				return errors.Errorf("copying settings: %w", err)
			}

			copied, failed := 0, 0
			for _, outcome := range outcomes {
				switch {
				case outcome.Success():
					copied++
				case outcome.Status == filecopy.StatusSameFile:
					// Skipped, not a failure.
				default:
					failed++
				}
				console.LogCopyRow(ctx, log.CopyRow{
					Label:   labels[outcome.DestinationID],
					Status:  outcome.Status.String(),
					OK:      outcome.Success(),
					Skipped: outcome.Status == filecopy.StatusSameFile,
				})
			}
			console.LogNewline()

			if failed > 0 {
				console.Warningf("copied settings to %d character(s), %d failed", copied, failed)
				return nil
			}
			pterm.Success.Printfln("copied settings to %d character(s)", copied)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromID, "from", "", "source character id")
	cmd.Flags().StringSliceVar(&toIDs, "to", nil, "destination character ids")
	cmd.Flags().BoolVar(&toAll, "all", false, "copy to every other character in the profile")
	cmd.MarkFlagRequired("from")

	return cmd
}

// pickFile resolves a raw id argument to a scanned settings file.
func pickFile(byID map[charid.CharacterID]scan.SettingsFile, raw string) (scan.SettingsFile, error) {
	n, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return scan.SettingsFile{}, errors.Errorf("invalid character id %q", raw)
	}
	f, ok := byID[charid.CharacterID(n)]
	if !ok {
		return scan.SettingsFile{}, errors.Errorf("no settings file for character %s in this profile", raw)
	}
	return f, nil
}
