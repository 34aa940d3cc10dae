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
	"encoding/json"
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/status"
)

type fingerprintRule struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

type fingerprintInput struct {
	Rules    []fingerprintRule `json:"rules"`
	FixCount int               `json:"fixCount"`
	Fix      bool              `json:"fix"`
}

// 🔏 OptionsFingerprint hashes everything that can change the places
// computed for a file: the rules enabled for it and their options, the fix
// round budget and fix mode
func OptionsFingerprint(rs RuleSet, loaded []string, fixCount int, fix bool) (string, error) {
	names := append([]string(nil), loaded...)
	sort.Strings(names)

	in := fingerprintInput{FixCount: fixCount, Fix: fix, Rules: []fingerprintRule{}}
	for _, name := range names {
		if !rs.Enabled(name) {
			continue
		}
		in.Rules = append(in.Rules, fingerprintRule{Name: name, Options: rs.Options(name)})
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", errors.Errorf("encoding options: %w", err)
	}
	return status.Checksum(data), nil
}
