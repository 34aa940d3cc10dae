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

// Package place holds the violation type that crosses every boundary of
// sourcefix: the engine, the cache, the external linter and the ruler.
package place

import (
	"fmt"
	"sort"
)

// 🔥 CrashParser is the rule name used for files that fail to parse
const CrashParser = "crash/parser"

// 📍 Position is a location inside a document
type Position struct {
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 0-based
}

// 🎯 Place is one reported (and possibly fixed) location
type Place struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Position Position `json:"position"`
}

// String returns the place in path-less "line:col rule message" form
func (p Place) String() string {
	return fmt.Sprintf("%d:%d %s %s", p.Position.Line, p.Position.Column, p.Rule, p.Message)
}

// IsCrash reports whether the place was produced by a parse failure
func (p Place) IsCrash() bool {
	return p.Rule == CrashParser
}

// 📐 Shift moves every place down by offset lines
func Shift(places []Place, offset int) []Place {
	shifted := make([]Place, 0, len(places))
	for _, p := range places {
		p.Position.Line += offset
		shifted = append(shifted, p)
	}
	return shifted
}

// HasCrash reports whether any place came from a parse failure
func HasCrash(places []Place) bool {
	for _, p := range places {
		if p.IsCrash() {
			return true
		}
	}
	return false
}

// 🔀 Merge flattens per-file place lists into one list, keeping order
func Merge(lists ...[]Place) []Place {
	var merged []Place
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return merged
}

// 🏷️ RuleNames returns the distinct rule names found in places, sorted
func RuleNames(places []Place) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, p := range places {
		if _, ok := seen[p.Rule]; ok {
			continue
		}
		seen[p.Rule] = struct{}{}
		names = append(names, p.Rule)
	}
	sort.Strings(names)
	return names
}
