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
	"bytes"
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(&YAMLParser{})
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

type yamlConfig struct {
	Plugins  []string       `yaml:"plugins"`
	Rules    map[string]any `yaml:"rules"`
	Match    yaml.Node      `yaml:"match"`
	Ignore   []string       `yaml:"ignore"`
	FixCount int            `yaml:"fixCount"`
	RulesDir string         `yaml:"rulesdir"`
	Remote   *RemoteArgs    `yaml:"remote"`
	Cache    *CacheArgs     `yaml:"cache"`
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

// 📝 Parse parses the config from YAML
func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var raw yamlConfig
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	}

	overlays, err := decodeYAMLOverlays(&raw.Match)
	if err != nil {
		return nil, errors.Errorf("parsing YAML match: %w", err)
	}

	return &Config{
		Plugins:  raw.Plugins,
		Rules:    raw.Rules,
		Match:    overlays,
		Ignore:   raw.Ignore,
		FixCount: raw.FixCount,
		RulesDir: raw.RulesDir,
		Remote:   raw.Remote,
		Cache:    raw.Cache,
	}, nil
}

// decodeYAMLOverlays reads the match mapping pair by pair to keep
// declaration order
func decodeYAMLOverlays(node *yaml.Node) ([]Overlay, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: match must be a mapping", node.Line)
	}

	overlays := make([]Overlay, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var value any
		if err := val.Decode(&value); err != nil {
			return nil, errors.Errorf("line %d: decoding match[%q]: %w", val.Line, key.Value, err)
		}

		o, err := newOverlay(key.Value, value)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, o)
	}
	return overlays, nil
}
