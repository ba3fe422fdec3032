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

// Package log renders toonsync's console output: character listings and
// per-destination copy results, mirrored into structured zerolog records.
package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	rowIndent   = 4  // spaces to indent rows
	labelWidth  = 30 // base width for character labels
	fileWidth   = 30 // width for filenames
	statusWidth = 20 // width for status text
)

// 🎯 CharacterRow is one scanned character for listing
type CharacterRow struct {
	Label    string // Display label (name or numeric fallback)
	Filename string // Settings filename
	Size     int64  // File size in bytes
	Resolved bool   // Whether the label is a resolved name
}

// 📋 CopyRow is one per-destination copy result
type CopyRow struct {
	Label   string // Destination display label
	Status  string // Outcome status text
	OK      bool   // Whether the destination was written
	Skipped bool   // Whether the destination was skipped (self-copy)
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 LogCharacterRow logs one scanned character
func (l *Logger) LogCharacterRow(ctx context.Context, row CharacterRow) {
	l.mu.Lock()
	defer l.mu.Unlock()

	labelColor := color.FgCyan
	if !row.Resolved {
		labelColor = color.FgYellow
	}

	fmt.Fprintf(l.console, "%s%s %s %s\n",
		fmt.Sprintf("%*s", rowIndent, ""),
		color.New(labelColor).Sprint(fmt.Sprintf("%-*s", labelWidth, row.Label)),
		fmt.Sprintf("%-*s", fileWidth, row.Filename),
		formatSize(row.Size))

	l.zlog.Info().
		Str("label", row.Label).
		Str("file", row.Filename).
		Int64("size", row.Size).
		Bool("resolved", row.Resolved).
		Msg("character")
}

// 📝 LogCopyRow logs one per-destination copy result
func (l *Logger) LogCopyRow(ctx context.Context, row CopyRow) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var symbol rune
	var symbolColor color.Attribute
	switch {
	case row.OK:
		symbol = '✓'
		symbolColor = color.FgGreen
	case row.Skipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '✗'
		symbolColor = color.FgRed
	}

	fmt.Fprintf(l.console, "%s%s %s %s\n",
		fmt.Sprintf("%*s", rowIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", labelWidth, row.Label),
		fmt.Sprintf("%-*s", statusWidth, row.Status))

	l.zlog.Info().
		Str("destination", row.Label).
		Str("status", row.Status).
		Bool("ok", row.OK).
		Bool("skipped", row.Skipped).
		Msg("copy result")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("toonsync")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// formatSize renders a byte count for column display
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
