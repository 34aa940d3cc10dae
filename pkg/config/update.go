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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/sourcefix/pkg/status"
)

// DefaultWriteName is the config file created when a rule edit has no file
// to go to
const DefaultWriteName = ".sourcefix.yaml"

// ✍️ UpdateRules sets rule states in the `rules` section of the config file
// at path, creating the file when it does not exist. Everything else in the
// file is kept.
func UpdateRules(ctx context.Context, path string, edits map[string]string) error {
	logger := zerolog.Ctx(ctx)
	if len(edits) == 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Errorf("reading config file: %w", err)
	}

	var out []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		out, err = updateJSONRules(data, edits)
	case ".yaml", ".yml":
		out, err = updateYAMLRules(data, edits)
	case ".hcl":
		out, err = updateHCLRules(data, edits)
	default:
		return errors.Errorf("no writer for config file: %s", path)
	}
	if err != nil {
		return errors.Errorf("updating %s: %w", path, err)
	}

	if err := status.WriteFileAtomic(path, out); err != nil {
		return errors.Errorf("writing config file: %w", err)
	}

	logger.Debug().Str("path", path).Int("rules", len(edits)).Msg("updated rule configuration")
	return nil
}

func updateJSONRules(data []byte, edits map[string]string) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Errorf("parsing JSON: %w", err)
		}
	}

	rules := map[string]any{}
	if raw, ok := doc["rules"]; ok {
		if err := json.Unmarshal(raw, &rules); err != nil {
			return nil, errors.Errorf("parsing JSON rules: %w", err)
		}
	}
	for name, value := range edits {
		rules[name] = value
	}

	raw, err := json.Marshal(rules)
	if err != nil {
		return nil, errors.Errorf("encoding rules: %w", err)
	}
	doc["rules"] = raw

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Errorf("encoding JSON: %w", err)
	}
	return append(out, '\n'), nil
}

func updateYAMLRules(data []byte, edits map[string]string) ([]byte, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: config root must be a mapping", root.Line)
	}

	rules := mappingValue(root, "rules")
	if rules == nil {
		rules = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content, scalar("rules"), rules)
	}
	if rules.Kind != yaml.MappingNode {
		// `rules:` with no value decodes as a null scalar
		*rules = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	for _, name := range sortedKeys(edits) {
		if v := mappingValue(rules, name); v != nil {
			*v = *scalar(edits[name])
			continue
		}
		rules.Content = append(rules.Content, scalar(name), scalar(edits[name]))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, errors.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func updateHCLRules(data []byte, edits map[string]string) ([]byte, error) {
	rules := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		parsed, diags := hclparse.NewParser().ParseHCL(data, "config.hcl")
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}
		content, _, diags := parsed.Body.PartialContent(&hcl.BodySchema{
			Attributes: []hcl.AttributeSchema{{Name: "rules"}},
		})
		if diags.HasErrors() {
			return nil, errors.Errorf("reading HCL rules: %s", diags.Error())
		}
		if attr, ok := content.Attributes["rules"]; ok {
			existing, err := ruleMapFromExpr(attr.Expr, &hcl.EvalContext{})
			if err != nil {
				return nil, err
			}
			for k, v := range existing {
				rules[k] = v
			}
		}
	}

	for name, value := range edits {
		rules[name] = value
	}

	f, diags := hclwrite.ParseConfig(data, "config.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	val, err := GoToCty(rules)
	if err != nil {
		return nil, errors.Errorf("converting rules: %w", err)
	}
	f.Body().SetAttributeValue("rules", val)

	return hclwrite.Format(f.Bytes()), nil
}

// 🔄 GoToCty converts the plain Go shapes produced by the config decoders
// into a cty value
func GoToCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, item := range x {
			cv, err := GoToCty(item)
			if err != nil {
				return cty.NilVal, errors.Errorf("%s: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, 0, len(x))
		for _, item := range x {
			cv, err := GoToCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			items = append(items, cv)
		}
		return cty.TupleVal(items), nil
	}
	return cty.NilVal, errors.Errorf("unsupported value of type %T", v)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
