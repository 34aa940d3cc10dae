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

// Package removedebugger removes debugger statements. It is written against
// the find/fix contract rather than templates.
package removedebugger

import (
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/rewrite"
)

// Name is the rule name used in configuration and places
const Name = "remove-debugger"

func init() {
	plugin.RegisterBuiltin(Name, New)
}

// Rule implements the plugin contract
type Rule struct{}

// New returns the rule
func New() plugin.Plugin {
	return Rule{}
}

func (Rule) Report() string {
	return "Unexpected \"debugger\" statement"
}

func (Rule) Find(p *rewrite.Path) (bool, error) {
	return p.Type() == "debugger_statement", nil
}

func (Rule) Fix(p *rewrite.Path) error {
	p.Remove()
	return nil
}
