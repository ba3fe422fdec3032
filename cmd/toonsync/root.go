package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/toonsync/cmd/toonsync/opts"
	"github.com/walteh/toonsync/pkg/config"
	filecopy "github.com/walteh/toonsync/pkg/copy"
	"github.com/walteh/toonsync/pkg/identity"
	"github.com/walteh/toonsync/pkg/log"
)

var (
	// Flags
	configFile  string
	settingsDir string
	debug       bool
)

// newRootOpts creates a new RootOpts with initialized dependencies
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	cfg, err := config.LoadConfigOrDefault(configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	cache := identity.NewCache()
	resolver := identity.NewResolver(cache, identity.NewESIClient(identity.ESIOptions{
		BaseURL:    cfg.ESI.BaseURL,
		Datasource: cfg.ESI.Datasource,
		Timeout:    cfg.ESI.Timeout(),
		BatchLimit: cfg.ESI.BatchLimit,
	}), identity.ResolverOptions{
		MaxAge:       cfg.Cache.MaxAge(),
		FailureRetry: cfg.Cache.FailureRetry(),
		FanOut:       cfg.ESI.FanOut,
	})

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &opts.RootOpts{
		Config:      cfg,
		Cache:       cache,
		Resolver:    resolver,
		Engine:      filecopy.NewEngine(filecopy.EngineOptions{FanOut: cfg.ESI.FanOut}),
		Console:     log.New(os.Stdout, level),
		SettingsDir: settingsDir,
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".toonsync", "config file path")
	cmd.PersistentFlags().StringVarP(&settingsDir, "dir", "D", "", "settings profile directory (overrides config and discovery)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}
