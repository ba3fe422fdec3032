package commands

import (
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/pkg/identity"
	"github.com/walteh/toonsync/pkg/log"
)

// NewListCmd creates a new list command
func NewListCmd(factory OptsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List character settings files with resolved names",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "list").Logger().WithContext(ctx)

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
			if len(files) == 0 {
				pterm.Info.Printfln("no character settings files in %s", dir)
				return nil
			}

			labels := o.Resolver.ResolveAll(ctx, ids(files))

			console := log.FromContext(ctx)
			console.Header("characters in " + filepath.Base(dir))
			unresolved := 0
			for _, f := range files {
				rec, _ := o.Cache.Get(f.ID)
				resolved := rec.State == identity.StateResolved
				if !resolved {
					unresolved++
				}
				console.LogCharacterRow(ctx, log.CharacterRow{
					Label:    labels[f.ID],
					Filename: filepath.Base(f.Path),
					Size:     f.Size,
					Resolved: resolved,
				})
			}
			console.LogNewline()

			if unresolved > 0 {
				console.Warningf("%d of %d names could not be resolved; showing character ids instead", unresolved, len(files))
			}
			return nil
		},
	}
}
