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

package opts

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/log"
	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/plugins"
	"github.com/walteh/sourcefix/pkg/provider"
)

// patternCacheSize bounds the compiled templates kept for one process
const patternCacheSize = 512

// 🚩 Flags holds every command line flag
type Flags struct {
	ConfigFile string
	Debug      bool
	RulesDir   string
	Plugins    []string

	Fix        bool
	FixCount   int
	Cache      bool
	Fresh      bool
	Enable     string
	Disable    string
	EnableAll  bool
	DisableAll bool
}

// 🎯 RootOpts is shared by every command. It is filled once flags are parsed.
type RootOpts struct {
	Flags  *Flags
	Dir    string
	Config *config.Config
	Logger *log.Logger

	registry *plugin.Registry
}

// 🔧 Init resolves the working directory and loads the configuration
func (o *RootOpts) Init(ctx context.Context) error {
	dir, err := os.Getwd()
	if err != nil {
		return errors.Errorf("getting working directory: %w", err)
	}
	o.Dir = dir

	path := o.Flags.ConfigFile
	if path == "" {
		path = config.Find(dir)
	}

	if path == "" {
		zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file, using defaults")
		o.Config = config.Default(dir)
	} else {
		cfg, err := config.Load(ctx, path)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		o.Config = cfg
	}

	if o.Flags.RulesDir != "" {
		rulesDir, err := filepath.Abs(o.Flags.RulesDir)
		if err != nil {
			return errors.Errorf("resolving rulesdir: %w", err)
		}
		o.Config.RulesDir = rulesDir
	}
	if o.Flags.FixCount > 0 {
		o.Config.FixCount = o.Flags.FixCount
	}
	return nil
}

// PluginNames returns the rules to load: the configured ones plus --plugins,
// or every builtin rule when neither names any
func (o *RootOpts) PluginNames() []string {
	names := append(append([]string{}, o.Config.Plugins...), o.Flags.Plugins...)
	if len(names) == 0 {
		return plugins.Defaults()
	}
	return names
}

// 🗂️ Registry resolves and compiles the rules once per process
func (o *RootOpts) Registry(ctx context.Context) (*plugin.Registry, error) {
	if o.registry != nil {
		return o.registry, nil
	}

	compiler, err := pattern.NewCompiler(patternCacheSize)
	if err != nil {
		return nil, err
	}

	resolvers := []plugin.Resolver{plugin.BuiltinResolver{}}
	if o.Config.RulesDir != "" {
		resolvers = append(resolvers, plugin.DirResolver{Dir: o.Config.RulesDir})
	}
	if o.Config.Remote != nil {
		p, err := provider.New(ctx, "github")
		if err != nil {
			return nil, errors.Errorf("creating rule provider: %w", err)
		}
		resolvers = append(resolvers, plugin.RemoteResolver{Provider: p, Args: *o.Config.Remote})
	}

	reg := plugin.NewRegistry(compiler, resolvers...)
	if err := reg.Load(ctx, o.PluginNames(), o.Config.Rules); err != nil {
		return nil, err
	}
	o.registry = reg
	return reg, nil
}
