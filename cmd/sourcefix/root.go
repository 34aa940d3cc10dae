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

package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walteh/sourcefix/cmd/sourcefix/commands"
	"github.com/walteh/sourcefix/cmd/sourcefix/opts"
	"github.com/walteh/sourcefix/pkg/log"
)

// newRootCmd builds the command tree. The root command itself lints.
func newRootCmd() *cobra.Command {
	flags := &opts.Flags{}
	o := &opts.RootOpts{Flags: flags}

	rootCmd := &cobra.Command{
		Use:   "sourcefix [files|dirs|globs...]",
		Short: "Find and fix structural patterns in JavaScript and TypeScript",
		Long: `sourcefix matches source files against rule templates and reports every
match. With --fix it rewrites matches until nothing is left to fix or the
fix count is reached. JavaScript and TypeScript code blocks inside
Markdown files are processed too.

Files named in SOURCEFIX_FILES (comma separated) are added to the
arguments.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd, flags.Debug)
			mirror := zerolog.Disabled
			if flags.Debug {
				mirror = zerolog.DebugLevel
			}
			o.Logger = log.New(cmd.OutOrStdout(), mirror)
			return o.Init(ctx)
		},
		RunE: commands.RunLint(o),
	}

	addRootFlags(rootCmd, flags)
	commands.AddLintFlags(rootCmd, flags)

	rootCmd.AddCommand(
		commands.NewRulesCmd(o),
		commands.NewCacheCmd(o),
		newVersionCmd(),
	)
	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, f *opts.Flags) {
	cmd.PersistentFlags().StringVarP(&f.ConfigFile, "config", "c", "", "config file path (default .sourcefix.{json,yaml,yml,hcl})")
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&f.RulesDir, "rulesdir", "", "directory of sourcefix-plugin-<name> rule files")
	cmd.PersistentFlags().StringSliceVar(&f.Plugins, "plugins", nil, "additional rules to load")
}

// setupLogging configures zerolog based on flags and returns the command
// context carrying the logger
func setupLogging(cmd *cobra.Command, debug bool) context.Context {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)
	return ctx
}
