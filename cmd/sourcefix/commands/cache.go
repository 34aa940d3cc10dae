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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/cmd/sourcefix/opts"
	"github.com/walteh/sourcefix/pkg/cache"
)

// 🗃️ NewCacheCmd groups cache maintenance commands
func NewCacheCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}
	cmd.AddCommand(newCacheCleanCmd(o))
	return cmd
}

func newCacheCleanCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every cached result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := cache.NewStore(ctx, o.Config.Cache, o.Dir)
			if err != nil {
				return errors.Errorf("opening cache store: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					zerolog.Ctx(ctx).Warn().Err(err).Msg("closing cache store")
				}
			}()

			if err := store.Clear(ctx); err != nil {
				return errors.Errorf("clearing cache: %w", err)
			}
			o.Logger.Successf("cache cleared: %s", store.String())
			return nil
		},
	}
}
