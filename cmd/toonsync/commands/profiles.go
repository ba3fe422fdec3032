package commands

import (
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/pkg/scan"
)

// NewProfilesCmd creates a new profiles command
func NewProfilesCmd(factory OptsFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List settings profile directories under the EVE install",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "profiles").Logger().WithContext(ctx)

			o, err := factory(ctx)
			if err != nil {
				return err
			}

			root := o.Config.InstallRoot
			if root == "" {
				root = scan.DefaultInstallDir()
			}
			if root == "" {
				return errors.New("no EVE install found; set install_root in the config")
			}

			profiles, err := scan.DiscoverProfiles(ctx, root)
			if err != nil {
				return errors.Errorf("discovering profiles: %w", err)
			}
			if len(profiles) == 0 {
				pterm.Info.Printfln("no settings profiles under %s", root)
				return nil
			}

			for _, p := range profiles {
				pterm.Println(p)
			}
			return nil
		},
	}
}
