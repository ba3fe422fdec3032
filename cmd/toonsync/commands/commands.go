// Package commands holds the toonsync subcommands: list, copy, profiles.
package commands

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/cmd/toonsync/opts"
	"github.com/walteh/toonsync/pkg/charid"
	"github.com/walteh/toonsync/pkg/scan"
)

// OptsFactory builds the shared command dependencies after flags are parsed.
type OptsFactory func(ctx context.Context) (*opts.RootOpts, error)

// settingsDir picks the profile directory to operate on: the --dir flag,
// then the config file, then discovery under the configured (or default)
// install root when it finds exactly one profile.
func settingsDir(ctx context.Context, o *opts.RootOpts) (string, error) {
	if o.SettingsDir != "" {
		return o.SettingsDir, nil
	}
	if o.Config.SettingsDir != "" {
		return o.Config.SettingsDir, nil
	}

	root := o.Config.InstallRoot
	if root == "" {
		root = scan.DefaultInstallDir()
	}
	if root == "" {
		return "", errors.New("no settings directory configured and no EVE install found; pass --dir")
	}

	profiles, err := scan.DiscoverProfiles(ctx, root)
	if err != nil {
		return "", errors.Errorf("discovering profiles: %w", err)
	}
	switch len(profiles) {
	case 0:
		return "", errors.Errorf("no settings profiles under %s; pass --dir", root)
	case 1:
		zerolog.Ctx(ctx).Debug().Str("dir", profiles[0]).Msg("using discovered profile")
		return profiles[0], nil
	default:
		return "", errors.Errorf("%d settings profiles under %s; pick one with --dir (see `toonsync profiles`)", len(profiles), root)
	}
}

// scanSorted scans dir and returns the files in id order, the order the
// original tool presented them in.
func scanSorted(ctx context.Context, dir string) ([]scan.SettingsFile, error) {
	files, err := scan.Scan(ctx, dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

func ids(files []scan.SettingsFile) []charid.CharacterID {
	out := make([]charid.CharacterID, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}
