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

package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/cmd/sourcefix/opts"
	"github.com/walteh/sourcefix/pkg/cache"
	"github.com/walteh/sourcefix/pkg/operation"
	"github.com/walteh/sourcefix/pkg/ruler"
	"github.com/walteh/sourcefix/pkg/status"
)

// ExitError carries a non-zero exit status without an error message
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// AddLintFlags adds the flags of the lint run to cmd
func AddLintFlags(cmd *cobra.Command, f *opts.Flags) {
	cmd.Flags().BoolVar(&f.Fix, "fix", false, "apply fixes")
	cmd.Flags().IntVar(&f.FixCount, "fix-count", 0, "maximum fix rounds per file (default from config, 10)")
	cmd.Flags().BoolVar(&f.Cache, "cache", true, "use the cache")
	cmd.Flags().BoolVar(&f.Fresh, "fresh", false, "ignore the cache for this run")
	cmd.Flags().StringVar(&f.Enable, "enable", "", "enable a rule in the config and exit")
	cmd.Flags().StringVar(&f.Disable, "disable", "", "disable a rule in the config and exit")
	cmd.Flags().BoolVar(&f.EnableAll, "enable-all", false, "enable every reported rule in the config")
	cmd.Flags().BoolVar(&f.DisableAll, "disable-all", false, "disable every reported rule in the config")
}

// 🔍 RunLint lints, and optionally fixes, the files named by args
func RunLint(o *opts.RootOpts) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := zerolog.Ctx(ctx)

		registry, err := o.Registry(ctx)
		if err != nil {
			return errors.Errorf("loading rules: %w", err)
		}

		rulerOpts := ruler.Options{
			Enable:     o.Flags.Enable,
			Disable:    o.Flags.Disable,
			EnableAll:  o.Flags.EnableAll,
			DisableAll: o.Flags.DisableAll,
		}

		var files []string
		if !rulerOpts.Single() {
			if files, err = ExpandFiles(ctx, o.Dir, args); err != nil {
				return err
			}
		}

		store, err := cache.NewStore(ctx, o.Config.Cache, o.Dir)
		if err != nil {
			return errors.Errorf("opening cache store: %w", err)
		}
		fc, err := cache.Open(ctx, cache.Options{
			Enabled: o.Flags.Cache,
			Fresh:   o.Flags.Fresh,
			Store:   store,
		})
		if err != nil {
			return errors.Errorf("opening cache: %w", err)
		}
		defer func() {
			if err := fc.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing cache")
			}
		}()

		mgr := status.New(o.Dir, logger)
		runner, err := operation.New(operation.Options{
			Config:   o.Config,
			Registry: registry,
			Cache:    fc,
			Status:   mgr,
			Logger:   o.Logger,
			Fix:      o.Flags.Fix,
			FixCount: o.Config.FixCount,
			Ruler:    rulerOpts,
		})
		if err != nil {
			return errors.Errorf("creating runner: %w", err)
		}

		summary, err := runner.Run(ctx, files)
		if err != nil {
			return err
		}

		if rulerOpts.Single() {
			return nil
		}

		printSummary(len(summary.Files), mgr.TotalPlaces(), mgr.Counts())
		if rulerOpts.Bulk() {
			return nil
		}
		if code := summary.ExitCode(); code != 0 {
			return &ExitError{Code: code}
		}
		return nil
	}
}
