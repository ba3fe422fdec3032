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

// Package charid parses character identifiers out of EVE settings filenames
// and builds those filenames back from identifiers.
package charid

import (
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Character settings files follow a fixed naming convention:
// core_char_<decimal id>.dat. Anything else (core_user_*, backups,
// directories) is not our concern.
const (
	FilePrefix = "core_char_"
	FileExt    = ".dat"
)

// ErrNotSettingsFile is returned for filenames that do not follow the
// character settings naming convention.
var ErrNotSettingsFile = errors.New("not a character settings file")

// CharacterID identifies one in-game character. Ids are assigned by the
// game backend and fit in [0, 2^63).
type CharacterID uint64

// String renders the id in its canonical decimal form, which doubles as the
// fallback display label when name resolution is unavailable.
func (id CharacterID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Filename returns the settings filename for this id. It is the exact
// inverse of ParseFilename for every valid id.
func (id CharacterID) Filename() string {
	return FilePrefix + id.String() + FileExt
}

// ParseFilename extracts the character id from a settings filename.
// Only the canonical form is accepted: a filename with leading zeros in the
// numeric run (or a number that does not fit the id range) is rejected, so
// ParseFilename and Filename round-trip losslessly in both directions.
func ParseFilename(name string) (CharacterID, error) {
	digits, ok := strings.CutPrefix(name, FilePrefix)
	if !ok {
		return 0, errors.Errorf("%q: %w", name, ErrNotSettingsFile)
	}
	digits, ok = strings.CutSuffix(digits, FileExt)
	if !ok {
		return 0, errors.Errorf("%q: %w", name, ErrNotSettingsFile)
	}
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return 0, errors.Errorf("%q: %w", name, ErrNotSettingsFile)
	}

	// 63-bit parse keeps the id inside [0, 2^63).
	id, err := strconv.ParseUint(digits, 10, 63)
	if err != nil {
		return 0, errors.Errorf("%q: %w", name, ErrNotSettingsFile)
	}
	return CharacterID(id), nil
}
