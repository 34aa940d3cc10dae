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

// Package applydestructuring turns a property read into a destructuring
// declaration.
//
//	const name = user.name;   ->   const {name} = user;
package applydestructuring

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/rewrite"
	"github.com/walteh/sourcefix/pkg/syntax"
)

// Name is the rule name used in configuration and places
const Name = "apply-destructuring"

var templates = []string{
	"const __a = __b.__a",
	"let __a = __b.__a",
}

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
	return "Use destructuring"
}

func (Rule) Match() map[string]plugin.GuardFunc {
	out := make(map[string]plugin.GuardFunc, len(templates))
	for _, t := range templates {
		out[t] = guard
	}
	return out
}

func (Rule) Replace() map[string]plugin.ReplaceFunc {
	out := make(map[string]plugin.ReplaceFunc, len(templates))
	for _, t := range templates {
		out[t] = replace
	}
	return out
}

// the object must not mention the declared name: `const a = a.b` has no
// destructuring equivalent
func guard(b pattern.Bindings, _ *rewrite.Path) (bool, error) {
	id := b.Node("__a")
	if id == nil || id.Type() != "identifier" {
		return false, nil
	}

	name := b.Text("__a")
	src := b.Source()
	clean := true
	syntax.Walk(b.Node("__b"), func(n *sitter.Node) bool {
		if n.Type() == "identifier" && syntax.Text(n, src) == name {
			clean = false
		}
		return clean
	})
	return clean, nil
}

func replace(b pattern.Bindings, p *rewrite.Path) (rewrite.Replacement, error) {
	var declarator *sitter.Node
	for _, c := range syntax.NamedChildren(p.Node) {
		if c.Type() == "variable_declarator" {
			declarator = c
			break
		}
	}
	if declarator == nil {
		return rewrite.InPlace(), nil
	}

	p.At(declarator.ChildByFieldName("name")).ReplaceWithText("{" + b.Text("__a") + "}")
	p.At(declarator.ChildByFieldName("value")).ReplaceWith(b.Node("__b"))

	return rewrite.InPlace(), nil
}
