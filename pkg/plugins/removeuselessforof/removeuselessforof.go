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

// Package removeuselessforof drops for-of loops over an array literal with
// at most one element.
//
//	for (const item of [x]) console.log(item);   ->   console.log(x);
//	for (const item of []) { doThing(); }        ->   { doThing(); }
package removeuselessforof

import (
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/rewrite"
	"github.com/walteh/sourcefix/pkg/syntax"
)

// Name is the rule name used in configuration and places
const Name = "remove-useless-for-of"

const template = "for (const __a of __array) __c"

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
	return "Avoid useless for-of"
}

func (Rule) Match() map[string]plugin.GuardFunc {
	return map[string]plugin.GuardFunc{template: guard}
}

func (Rule) Replace() map[string]plugin.ReplaceFunc {
	return map[string]plugin.ReplaceFunc{template: replace}
}

func guard(b pattern.Bindings, p *rewrite.Path) (bool, error) {
	array := b.Node("__array")
	if array == nil || array.Type() != "array" {
		return false, nil
	}

	elements := syntax.NamedChildren(array)
	if len(elements) >= 2 {
		return false, nil
	}
	if len(elements) == 1 && elements[0].Type() == "spread_element" {
		return false, nil
	}

	id := b.Node("__a")
	if id == nil || id.Type() != "identifier" {
		return false, nil
	}

	binding := p.Binding(b.Text("__a"))
	if binding == nil {
		return false, nil
	}

	return binding.Referenced() < 2, nil
}

func replace(b pattern.Bindings, p *rewrite.Path) (rewrite.Replacement, error) {
	name := b.Text("__a")
	binding := p.Binding(name)
	if binding == nil {
		return rewrite.Replacement{}, errors.Errorf("no binding for %s", name)
	}

	body := b.Node("__c")
	if binding.Referenced() == 0 {
		return rewrite.WithNode(body), nil
	}

	elements := syntax.NamedChildren(b.Node("__array"))
	if len(elements) == 0 {
		return rewrite.Delete(), nil
	}

	el := elements[0]
	ref := binding.References[0]
	if ref.Type() == "shorthand_property_identifier" {
		p.At(ref).ReplaceWithText(name + ": " + p.File().Text(el))
	} else {
		p.At(ref).ReplaceWith(el)
	}
	p.ReplaceWith(body)

	return rewrite.InPlace(), nil
}
