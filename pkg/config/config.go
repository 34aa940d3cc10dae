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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultFileNames are searched, in order, when no config path is given
var DefaultFileNames = []string{
	".sourcefix.json",
	".sourcefix.yaml",
	".sourcefix.yml",
	".sourcefix.hcl",
}

// DefaultFixCount is the number of fix rounds used when none is configured
const DefaultFixCount = 10

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🧭 Overlay is one path-scoped entry of the `match` section
type Overlay struct {
	Glob  string
	Off   bool
	Rules map[string]any
}

// 📦 RemoteArgs locates a GitHub-hosted rule pack. Repo is owner/name or
// github.com/owner/name.
type RemoteArgs struct {
	Repo string `json:"repo" yaml:"repo" hcl:"repo"`
	Ref  string `json:"ref,omitempty" yaml:"ref,omitempty" hcl:"ref,optional"`
	Path string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`
}

// 💾 CacheArgs selects the cache store: "file" (default) or "badger"
type CacheArgs struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" hcl:"backend,optional"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty" hcl:"path,optional"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Plugins  []string
	Rules    map[string]any
	Match    []Overlay
	Ignore   []string
	FixCount int
	RulesDir string
	Remote   *RemoteArgs
	Cache    *CacheArgs

	// Dir is the directory the config was loaded from; overlay and ignore
	// globs are matched relative to it
	Dir string

	location string
}

// Default returns the configuration used when no config file exists
func Default(dir string) *Config {
	cfg := &Config{Dir: dir}
	_ = cfg.Validate()
	return cfg
}

// Location returns the file the config was loaded from, or ""
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔎 Find returns the first default config file present in dir, or ""
func Find(dir string) string {
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving config path: %w", err)
	}
	cfg.location = abs
	cfg.Dir = filepath.Dir(abs)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and applies defaults
func (cfg *Config) Validate() error {
	if cfg.FixCount < 0 {
		return errors.Errorf("fixCount must not be negative, got %d", cfg.FixCount)
	}
	if cfg.FixCount == 0 {
		cfg.FixCount = DefaultFixCount
	}

	if cfg.Rules == nil {
		cfg.Rules = map[string]any{}
	}
	for name, value := range cfg.Rules {
		if _, err := ParseRuleState(value); err != nil {
			return errors.Errorf("rules.%s: %w", name, err)
		}
	}

	for i, o := range cfg.Match {
		if strings.TrimSpace(o.Glob) == "" {
			return errors.Errorf("match[%d]: glob is required", i)
		}
		for name, value := range o.Rules {
			if _, err := ParseRuleState(value); err != nil {
				return errors.Errorf("match[%q].%s: %w", o.Glob, name, err)
			}
		}
	}

	if cfg.Remote != nil {
		if cfg.Remote.Repo == "" {
			return errors.Errorf("remote.repo is required")
		}
		if cfg.Remote.Ref == "" {
			cfg.Remote.Ref = "main"
		}
		cfg.Remote.Path = filepath.ToSlash(filepath.Clean("/" + cfg.Remote.Path))[1:]
	}

	if cfg.Cache != nil {
		switch cfg.Cache.Backend {
		case "", "file", "badger":
		default:
			return errors.Errorf("cache.backend must be file or badger, got %q", cfg.Cache.Backend)
		}
	}

	if cfg.RulesDir != "" && cfg.Dir != "" && !filepath.IsAbs(cfg.RulesDir) {
		cfg.RulesDir = filepath.Join(cfg.Dir, cfg.RulesDir)
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	loc := cfg.location
	if loc == "" {
		loc = "<default>"
	}
	return fmt.Sprintf("%s: %d plugins, %d rules, %d overlays", loc, len(cfg.Plugins), len(cfg.Rules), len(cfg.Match))
}
