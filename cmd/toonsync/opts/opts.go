package opts

import (
	"github.com/walteh/toonsync/pkg/config"
	"github.com/walteh/toonsync/pkg/copy"
	"github.com/walteh/toonsync/pkg/identity"
	"github.com/walteh/toonsync/pkg/log"
)

// RootOpts contains shared dependencies used by all commands
type RootOpts struct {
	Config   *config.Config
	Cache    *identity.Cache
	Resolver *identity.Resolver
	Engine   *copy.Engine
	Console  *log.Logger

	// SettingsDir is the --dir override; empty means use config/discovery.
	SettingsDir string
}
