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
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

const (
	// On is the literal enabled rule value
	On = "on"
	// Off is the literal disabled rule value, and the overlay sentinel that
	// switches every rule off for matching files
	Off = "off"
)

// ⚙️ RuleState is the parsed value of one `rules` entry
type RuleState struct {
	Enabled bool
	Options map[string]any
}

// ParseRuleState accepts true/false, "on"/"off", an options map, or a
// two-element [state, options] list
func ParseRuleState(value any) (RuleState, error) {
	switch v := value.(type) {
	case nil:
		return RuleState{Enabled: true}, nil
	case bool:
		return RuleState{Enabled: v}, nil
	case string:
		switch strings.ToLower(v) {
		case On:
			return RuleState{Enabled: true}, nil
		case Off:
			return RuleState{Enabled: false}, nil
		}
		return RuleState{}, errors.Errorf("invalid rule state %q, expected \"on\" or \"off\"", v)
	case map[string]any:
		return RuleState{Enabled: true, Options: v}, nil
	case []any:
		if len(v) == 0 || len(v) > 2 {
			return RuleState{}, errors.Errorf("rule state list must have one or two elements, got %d", len(v))
		}
		st, err := ParseRuleState(v[0])
		if err != nil {
			return RuleState{}, err
		}
		if len(v) == 2 {
			opts, ok := v[1].(map[string]any)
			if !ok {
				return RuleState{}, errors.Errorf("rule options must be a map, got %T", v[1])
			}
			st.Options = opts
		}
		return st, nil
	}
	return RuleState{}, errors.Errorf("invalid rule state of type %T", value)
}

// IsDisabled reports whether value is the literal disabled value
func IsDisabled(value any) bool {
	switch v := value.(type) {
	case bool:
		return !v
	case string:
		return strings.EqualFold(v, Off)
	}
	return false
}

// 📋 RuleSet is the effective rule state for one file
type RuleSet struct {
	// AllOff is set once an "off" overlay matched; only rules switched back
	// on afterwards stay enabled
	AllOff bool
	States map[string]RuleState
}

// Enabled reports whether rule name runs for the file
func (rs RuleSet) Enabled(name string) bool {
	if st, ok := rs.States[name]; ok {
		return st.Enabled
	}
	return !rs.AllOff
}

// Options returns the configured options of rule name
func (rs RuleSet) Options(name string) map[string]any {
	return rs.States[name].Options
}

// Names returns the explicitly configured rule names, sorted
func (rs RuleSet) Names() []string {
	names := make([]string, 0, len(rs.States))
	for name := range rs.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🗺️ ForFile merges the global rules with every overlay matching path, in
// declaration order
func (cfg *Config) ForFile(path string) (RuleSet, error) {
	rs := RuleSet{States: make(map[string]RuleState, len(cfg.Rules))}
	if err := rs.merge(cfg.Rules); err != nil {
		return RuleSet{}, err
	}

	rel := cfg.relative(path)
	for _, o := range cfg.Match {
		ok, err := doublestar.Match(o.Glob, rel)
		if err != nil {
			return RuleSet{}, errors.Errorf("matching overlay %q: %w", o.Glob, err)
		}
		if !ok {
			continue
		}
		if o.Off {
			rs.AllOff = true
			rs.States = make(map[string]RuleState)
			continue
		}
		if err := rs.merge(o.Rules); err != nil {
			return RuleSet{}, errors.Errorf("overlay %q: %w", o.Glob, err)
		}
	}
	return rs, nil
}

func (rs *RuleSet) merge(rules map[string]any) error {
	for name, value := range rules {
		st, err := ParseRuleState(value)
		if err != nil {
			return errors.Errorf("rule %s: %w", name, err)
		}
		rs.States[name] = st
	}
	return nil
}

// 🙈 Ignored reports whether path matches one of the ignore globs
func (cfg *Config) Ignored(path string) (bool, error) {
	rel := cfg.relative(path)
	for _, g := range cfg.Ignore {
		ok, err := doublestar.Match(g, rel)
		if err != nil {
			return false, errors.Errorf("matching ignore pattern %q: %w", g, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (cfg *Config) relative(path string) string {
	if cfg.Dir != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(cfg.Dir, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
