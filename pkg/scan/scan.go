// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scan discovers character settings files on disk.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/pkg/charid"
)

// ErrDirectoryUnavailable is returned when the settings directory does not
// exist or cannot be read. This is a configuration problem, not a transient
// one, so callers surface it instead of retrying.
var ErrDirectoryUnavailable = errors.New("settings directory unavailable")

// TempPattern matches the temporary files the copy engine writes before its
// atomic rename. Leftovers from an interrupted copy are harmless and are
// swept up on the next scan.
const TempPattern = ".toonsync-*.tmp"

// SettingsFile is one discovered character settings file. A fresh set is
// produced by every scan; records are never updated in place.
type SettingsFile struct {
	ID         charid.CharacterID
	Path       string // absolute
	Size       int64
	ModifiedAt time.Time
}

// Scan lists the direct children of dir and returns a record for every
// character settings file found. Non-matching names are skipped silently:
// account-level files, backups and stray temp files are not this tool's
// concern. The returned order is unspecified; callers sort for presentation.
func Scan(ctx context.Context, dir string) ([]SettingsFile, error) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", dir, ErrDirectoryUnavailable)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", dir, ErrDirectoryUnavailable)
	}

	var files []SettingsFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		if ok, _ := doublestar.Match(TempPattern, name); ok {
			sweepOrphan(logger, filepath.Join(absDir, name))
			continue
		}

		id, err := charid.ParseFilename(name)
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Deleted between ReadDir and stat. The next scan will not see it.
			logger.Debug().Str("file", name).Err(err).Msg("skipping unstattable file")
			continue
		}

		files = append(files, SettingsFile{
			ID:         id,
			Path:       filepath.Join(absDir, name),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	logger.Debug().Str("dir", absDir).Int("files", len(files)).Msg("scan complete")
	return files, nil
}

// sweepOrphan removes a temp file left behind by an interrupted copy.
// Failure to remove it is not worth surfacing.
func sweepOrphan(logger *zerolog.Logger, path string) {
	if err := os.Remove(path); err != nil {
		logger.Debug().Str("path", path).Err(err).Msg("could not remove orphaned temp file")
		return
	}
	logger.Debug().Str("path", path).Msg("removed orphaned temp file")
}

// DiscoverProfiles finds settings profile directories under an EVE install
// root. The game keeps one <server>/settings_<profile> tree per server and
// profile; each settings_* directory is an independent set of character
// files. Results are absolute paths, sorted.
func DiscoverProfiles(ctx context.Context, root string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(root); err != nil {
		return nil, errors.Errorf("reading %s: %w", root, ErrDirectoryUnavailable)
	}

	matches, err := doublestar.Glob(os.DirFS(root), "*/settings_*")
	if err != nil {
		return nil, errors.Errorf("globbing %s: %w", root, err)
	}

	var profiles []string
	for _, m := range matches {
		abs := filepath.Join(root, filepath.FromSlash(m))
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		profiles = append(profiles, abs)
	}
	sort.Strings(profiles)

	logger.Debug().Str("root", root).Int("profiles", len(profiles)).Msg("profile discovery complete")
	return profiles, nil
}

// steamInstallSuffix is where the Steam/Proton build of the game keeps its
// settings tree, relative to the user's home directory.
const steamInstallSuffix = ".steam/steam/steamapps/compatdata/8500/pfx/drive_c/users/steamuser/AppData/Local/CCP/EVE"

// DefaultInstallDir returns the conventional EVE settings root for this user,
// or empty when none exists on disk.
func DefaultInstallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, filepath.FromSlash(steamInstallSuffix))
	if _, err := os.Stat(dir); err != nil {
		return ""
	}
	return dir
}
