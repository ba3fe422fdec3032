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

// toonsync replicates one EVE character's settings file onto others.
// The game itself should be closed while copying: it rewrites settings
// files on exit and will race with us.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/walteh/toonsync/cmd/toonsync/commands"
)

func main() {
	root := &cobra.Command{
		Use:          "toonsync",
		Short:        "Copy EVE character settings between characters",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	addRootFlags(root)

	// Dependency construction is deferred until a command runs, so flag
	// values are in effect.
	root.AddCommand(
		commands.NewListCmd(newRootOpts),
		commands.NewCopyCmd(newRootOpts),
		commands.NewProfilesCmd(newRootOpts),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
