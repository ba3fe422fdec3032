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

// Package copy replicates one character's settings file onto others.
// Destinations are written independently and atomically: each one ends up
// fully old or fully new, and one destination's failure never blocks or
// rolls back the others.
package copy

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/toonsync/pkg/charid"
	"github.com/walteh/toonsync/pkg/scan"
)

var (
	// ErrSourceUnreadable aborts a whole request before any destination is
	// touched; no outcomes are produced.
	ErrSourceUnreadable = errors.New("source file unreadable")

	// ErrNoDestinations rejects an empty request.
	ErrNoDestinations = errors.New("no destinations")

	// ErrSameFile marks a destination that is the source itself.
	ErrSameFile = errors.New("destination is the source file")
)

// Status classifies a per-destination outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusSameFile
	StatusPermissionDenied
	StatusUnreachable
	StatusWriteFailed
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSameFile:
		return "same file"
	case StatusPermissionDenied:
		return "permission denied"
	case StatusUnreachable:
		return "destination unreachable"
	default:
		return "write failed"
	}
}

// Request is one replication job: a source and an ordered, non-empty set of
// destinations.
type Request struct {
	Source       scan.SettingsFile
	Destinations []scan.SettingsFile
}

// Outcome is the result for one destination. Outcomes come back in the
// request's destination order, one per destination.
type Outcome struct {
	DestinationID charid.CharacterID
	Status        Status
	Err           error
}

// Success reports whether this destination was written.
func (o Outcome) Success() bool {
	return o.Status == StatusSuccess
}

// Engine performs copy requests.
type Engine struct {
	fanOut int
}

// EngineOptions tunes an Engine. Zero values take defaults.
type EngineOptions struct {
	// FanOut bounds how many destinations are written concurrently.
	FanOut int
}

const defaultFanOut = 4

// NewEngine creates a copy engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.FanOut <= 0 {
		opts.FanOut = defaultFanOut
	}
	return &Engine{fanOut: opts.FanOut}
}

// Copy reads the source once and writes that snapshot to every destination.
// An unreadable source fails the whole request with no outcomes; anything
// after that is reported per destination, never returned as an error.
func (e *Engine) Copy(ctx context.Context, req Request) ([]Outcome, error) {
	logger := zerolog.Ctx(ctx)

	if len(req.Destinations) == 0 {
		return nil, ErrNoDestinations
	}

	// One read shared by all destinations. If the game rewrites the source
	// mid-operation, every destination still gets the same snapshot.
	content, err := os.ReadFile(req.Source.Path)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", req.Source.Path, ErrSourceUnreadable)
	}
	srcInfo, _ := os.Stat(req.Source.Path)

	logger.Debug().
		Str("source", req.Source.Path).
		Int("destinations", len(req.Destinations)).
		Int("bytes", len(content)).
		Msg("starting copy")

	outcomes := make([]Outcome, len(req.Destinations))

	eg := &errgroup.Group{}
	eg.SetLimit(e.fanOut)
	for i, dest := range req.Destinations {
		i, dest := i, dest
		eg.Go(func() error {
			outcomes[i] = e.copyOne(ctx, content, req.Source.Path, srcInfo, dest)
			return nil
		})
	}
	// Workers report through their outcome slot, never an error.
	_ = eg.Wait()

	return outcomes, nil
}

// copyOne writes the snapshot to a single destination: temp file in the
// destination's directory, then an atomic rename over the target. On any
// failure the original destination file is left untouched.
func (e *Engine) copyOne(ctx context.Context, content []byte, srcPath string, srcInfo os.FileInfo, dest scan.SettingsFile) Outcome {
	logger := zerolog.Ctx(ctx)

	if isSameFile(srcPath, srcInfo, dest.Path) {
		return Outcome{DestinationID: dest.ID, Status: StatusSameFile, Err: ErrSameFile}
	}

	// Temp files follow scan.TempPattern so an interrupted copy's leftovers
	// are swept up by the next scan.
	tmp, err := os.CreateTemp(filepath.Dir(dest.Path), scan.TempPattern)
	if err != nil {
		return failure(dest.ID, errors.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return failure(dest.ID, errors.Errorf("writing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return failure(dest.ID, errors.Errorf("closing temp file: %w", err))
	}

	// CreateTemp opens 0600; carry over the destination's mode when it
	// exists so the replacement keeps its permissions.
	mode := fs.FileMode(0644)
	if destInfo, err := os.Stat(dest.Path); err == nil {
		mode = destInfo.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return failure(dest.ID, errors.Errorf("setting temp file mode: %w", err))
	}

	// Same-directory rename: the destination flips from old to new in one
	// step, never observable half-written.
	if err := os.Rename(tmpPath, dest.Path); err != nil {
		os.Remove(tmpPath)
		return failure(dest.ID, errors.Errorf("replacing destination: %w", err))
	}

	logger.Debug().Str("destination", dest.Path).Msg("destination written")
	return Outcome{DestinationID: dest.ID, Status: StatusSuccess}
}

// failure classifies an error into a per-destination outcome.
func failure(id charid.CharacterID, err error) Outcome {
	status := StatusWriteFailed
	switch {
	case errors.Is(err, fs.ErrPermission):
		status = StatusPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		status = StatusUnreachable
	}
	return Outcome{DestinationID: id, Status: status, Err: err}
}

// isSameFile guards against copying a file onto itself, including through
// hard links or differently spelled paths to the same inode.
func isSameFile(srcPath string, srcInfo os.FileInfo, destPath string) bool {
	if filepath.Clean(srcPath) == filepath.Clean(destPath) {
		return true
	}
	if srcInfo == nil {
		return false
	}
	destInfo, err := os.Stat(destPath)
	if err != nil {
		return false
	}
	return os.SameFile(srcInfo, destInfo)
}
