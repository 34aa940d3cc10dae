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

package plugin

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/rewrite"
)

// 📜 Declarative is a rule written as data instead of code.
//
//	report: use strict equality
//	match:
//	  - "__a == __b"
//	replace:
//	  "__a == __b": "__a === __b"
//	types:
//	  __a: identifier
//
// A template listed under replace is matched implicitly. An empty
// replacement deletes the matched node. types restricts captures to a node
// type.
type Declarative struct {
	Message  string            `json:"report" yaml:"report" hcl:"report"`
	Matches  []string          `json:"match,omitempty" yaml:"match,omitempty" hcl:"match,optional"`
	Replaces map[string]string `json:"replace,omitempty" yaml:"replace,omitempty" hcl:"replace,optional"`
	Types    map[string]string `json:"types,omitempty" yaml:"types,omitempty" hcl:"types,optional"`

	// Origin is the file or link the rule was read from
	Origin string `json:"-" yaml:"-"`
}

var (
	_ Plugin   = (*Declarative)(nil)
	_ Matcher  = (*Declarative)(nil)
	_ Replacer = (*Declarative)(nil)
)

// ParseDeclarative decodes a rule file, picking the format from filename
func ParseDeclarative(filename string, data []byte) (*Declarative, error) {
	d := &Declarative{}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(d); err != nil {
			return nil, errors.Errorf("decoding %s: %w", filename, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(d); err != nil {
			return nil, errors.Errorf("decoding %s: %w", filename, err)
		}
	case ".hcl":
		file, diags := hclparse.NewParser().ParseHCL(data, filename)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing %s: %s", filename, diags.Error())
		}
		if diags := gohcl.DecodeBody(file.Body, nil, d); diags.HasErrors() {
			return nil, errors.Errorf("decoding %s: %s", filename, diags.Error())
		}
	default:
		return nil, errors.Errorf("unsupported rule file %s", filename)
	}

	d.Origin = filename
	if err := d.Validate(); err != nil {
		return nil, errors.Errorf("%s: %w", filename, err)
	}
	return d, nil
}

// Validate checks the declarative rule is usable
func (d *Declarative) Validate() error {
	if strings.TrimSpace(d.Message) == "" {
		return errors.New("report is required")
	}
	if len(d.Matches) == 0 && len(d.Replaces) == 0 {
		return errors.New("at least one match or replace template is required")
	}
	for name := range d.Types {
		if !pattern.IsPlaceholder(name) {
			return errors.Errorf("types: %q is not a capture name", name)
		}
	}
	return nil
}

func (d *Declarative) Report() string {
	return d.Message
}

func (d *Declarative) Match() map[string]GuardFunc {
	guard := d.guard()
	out := make(map[string]GuardFunc, len(d.Matches)+len(d.Replaces))
	for _, t := range d.Matches {
		out[t] = guard
	}
	for t := range d.Replaces {
		out[t] = guard
	}
	return out
}

func (d *Declarative) Replace() map[string]ReplaceFunc {
	out := make(map[string]ReplaceFunc, len(d.Replaces))
	for t, repl := range d.Replaces {
		if strings.TrimSpace(repl) == "" {
			out[t] = func(pattern.Bindings, *rewrite.Path) (rewrite.Replacement, error) {
				return rewrite.Delete(), nil
			}
			continue
		}
		r := rewrite.WithTemplate(repl)
		out[t] = func(pattern.Bindings, *rewrite.Path) (rewrite.Replacement, error) {
			return r, nil
		}
	}
	return out
}

func (d *Declarative) guard() GuardFunc {
	if len(d.Types) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Types))
	for name := range d.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(b pattern.Bindings, _ *rewrite.Path) (bool, error) {
		for _, name := range names {
			for _, n := range b.Nodes(name) {
				if n.Type() != d.Types[name] {
					return false, nil
				}
			}
		}
		return true, nil
	}
}
