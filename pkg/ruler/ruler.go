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

// Package ruler turns reported places into rule configuration edits, so a
// codebase can be frozen against everything currently reported in one go.
package ruler

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/place"
)

// ⚙️ Options selects what to toggle
type Options struct {
	Enable     string
	Disable    string
	EnableAll  bool
	DisableAll bool
}

// Single reports whether a single named rule is toggled
func (o Options) Single() bool {
	return o.Enable != "" || o.Disable != ""
}

// Bulk reports whether every reported rule is toggled
func (o Options) Bulk() bool {
	return o.EnableAll || o.DisableAll
}

// Active reports whether any toggle was requested
func (o Options) Active() bool {
	return o.Single() || o.Bulk()
}

// Edit maps rule names to "on" or "off"
type Edit map[string]string

// 🎚️ Apply computes the edit. Single toggles write one entry each; bulk
// toggles write one entry per distinct rule name in places. Parser crashes
// are not rules and never get an entry. Disabling wins over enabling.
func Apply(opts Options, places []place.Place) Edit {
	edit := Edit{}

	if opts.EnableAll || opts.DisableAll {
		state := config.On
		if opts.DisableAll {
			state = config.Off
		}
		for _, name := range place.RuleNames(places) {
			if name == place.CrashParser {
				continue
			}
			edit[name] = state
		}
	}

	if opts.Enable != "" {
		edit[opts.Enable] = config.On
	}
	if opts.Disable != "" {
		edit[opts.Disable] = config.Off
	}

	return edit
}

// ✍️ Write stores edit in the config file at configPath, or in a new
// config file in dir when configPath is empty. It returns the file written.
func Write(ctx context.Context, configPath, dir string, edit Edit) (string, error) {
	if len(edit) == 0 {
		return configPath, nil
	}
	if configPath == "" {
		configPath = filepath.Join(dir, config.DefaultWriteName)
	}

	if err := config.UpdateRules(ctx, configPath, edit); err != nil {
		return "", errors.Errorf("writing rule edits: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("config", configPath).Int("rules", len(edit)).Msg("rule edits written")
	return configPath, nil
}
