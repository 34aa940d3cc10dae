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
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

type jsonConfig struct {
	Plugins  []string        `json:"plugins"`
	Rules    map[string]any  `json:"rules"`
	Match    json.RawMessage `json:"match"`
	Ignore   []string        `json:"ignore"`
	FixCount int             `json:"fixCount"`
	RulesDir string          `json:"rulesdir"`
	Remote   *RemoteArgs     `json:"remote"`
	Cache    *CacheArgs      `json:"cache"`
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".json")
}

// 📝 Parse parses the config from JSON bytes
func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var raw jsonConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}

	overlays, err := decodeJSONOverlays(raw.Match)
	if err != nil {
		return nil, errors.Errorf("parsing JSON match: %w", err)
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

// decodeJSONOverlays walks the match object token by token so overlays keep
// their declaration order
func decodeJSONOverlays(raw json.RawMessage) ([]Overlay, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Errorf("reading match: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Errorf("match must be an object")
	}

	var overlays []Overlay
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.Errorf("reading match key: %w", err)
		}
		glob, ok := keyTok.(string)
		if !ok {
			return nil, errors.Errorf("match key must be a string")
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Errorf("reading match[%q]: %w", glob, err)
		}

		o, err := newOverlay(glob, value)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, o)
	}
	return overlays, nil
}

func newOverlay(glob string, value any) (Overlay, error) {
	switch v := value.(type) {
	case nil:
		return Overlay{Glob: glob}, nil
	case string:
		if strings.EqualFold(v, Off) {
			return Overlay{Glob: glob, Off: true}, nil
		}
		return Overlay{}, errors.Errorf("match[%q]: expected \"off\" or a map of rules, got %q", glob, v)
	case map[string]any:
		return Overlay{Glob: glob, Rules: v}, nil
	}
	return Overlay{}, errors.Errorf("match[%q]: expected \"off\" or a map of rules, got %T", glob, value)
}
