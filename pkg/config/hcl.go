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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

type hclMatch struct {
	Glob  string         `hcl:"glob,label"`
	Off   bool           `hcl:"off,optional"`
	Rules hcl.Expression `hcl:"rules,optional"`
}

type hclConfig struct {
	Plugins  []string       `hcl:"plugins,optional"`
	Rules    hcl.Expression `hcl:"rules,optional"`
	Ignore   []string       `hcl:"ignore,optional"`
	FixCount int            `hcl:"fix_count,optional"`
	RulesDir string         `hcl:"rulesdir,optional"`
	Match    []hclMatch     `hcl:"match,block"`
	Remote   *RemoteArgs    `hcl:"remote,block"`
	Cache    *CacheArgs     `hcl:"cache,block"`
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	rules, err := ruleMapFromExpr(raw.Rules, evalCtx)
	if err != nil {
		return nil, errors.Errorf("decoding HCL rules: %w", err)
	}

	cfg := &Config{
		Plugins:  raw.Plugins,
		Rules:    rules,
		Ignore:   raw.Ignore,
		FixCount: raw.FixCount,
		RulesDir: raw.RulesDir,
		Remote:   raw.Remote,
		Cache:    raw.Cache,
	}

	for _, m := range raw.Match {
		o := Overlay{Glob: m.Glob, Off: m.Off}
		if !m.Off {
			o.Rules, err = ruleMapFromExpr(m.Rules, evalCtx)
			if err != nil {
				return nil, errors.Errorf("decoding HCL match %q: %w", m.Glob, err)
			}
		}
		cfg.Match = append(cfg.Match, o)
	}

	return cfg, nil
}

func ruleMapFromExpr(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, errors.Errorf("evaluating expression: %s", diags.Error())
	}
	out, err := CtyToGo(val)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, errors.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}
	return m, nil
}

// 🔄 CtyToGo converts a cty value into the plain Go shapes the JSON and YAML
// decoders produce. Numbers become float64.
func CtyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, errors.Errorf("value is not known")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			gv, err := CtyToGo(v)
			if err != nil {
				return nil, errors.Errorf("%s: %w", k.AsString(), err)
			}
			out[k.AsString()] = gv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			gv, err := CtyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported value type %s", ty.FriendlyName())
}
