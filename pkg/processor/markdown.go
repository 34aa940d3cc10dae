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

package processor

import (
	"bytes"
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tree_sitter_markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/syntax"
)

const (
	markdownNodeFencedCodeBlock  = "fenced_code_block"
	markdownNodeInfoString       = "info_string"
	markdownNodeLanguage         = "language"
	markdownNodeCodeFenceContent = "code_fence_content"
	markdownNodeBlockQuote       = "block_quote"
	markdownNodeListItem         = "list_item"
)

// MarkdownLanguages maps the info-string tags of code blocks that are
// processed to the grammar used for them. Any other tag is left alone.
var MarkdownLanguages = map[string]syntax.Language{
	"js":         syntax.JavaScript,
	"javascript": syntax.JavaScript,
	"typescript": syntax.TypeScript,
}

func init() {
	Register(Markdown{})
}

// 📝 Markdown processes the fenced code blocks of markdown documents
type Markdown struct{}

func (Markdown) Name() string {
	return "markdown"
}

func (Markdown) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract returns one segment per fenced code block tagged with an allowed
// language, in document order. Blocks inside block quotes or list items have
// the container prefix stripped from every line.
func (Markdown) Extract(ctx context.Context, _ string, src []byte) ([]Segment, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tree_sitter_markdown.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Errorf("tree-sitter markdown parse failed: %w", err)
	}
	defer tree.Close()

	var segments []Segment
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == markdownNodeFencedCodeBlock {
			if seg, ok := codeBlock(n, src); ok {
				segments = append(segments, seg)
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(tree.RootNode())

	return segments, nil
}

func codeBlock(n *sitter.Node, src []byte) (Segment, bool) {
	var lang string
	var content *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case markdownNodeInfoString:
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if l := c.NamedChild(j); l.Type() == markdownNodeLanguage {
					lang = strings.ToLower(l.Content(src))
				}
			}
		case markdownNodeCodeFenceContent:
			content = c
		}
	}

	language, ok := MarkdownLanguages[lang]
	if !ok || content == nil {
		return Segment{}, false
	}

	start, end := int(content.StartByte()), int(content.EndByte())
	if !nested(n) {
		return Segment{
			Source:    src[start:end],
			Language:  language,
			StartLine: int(content.StartPoint().Row) + 1,
			Start:     start,
			End:       end,
		}, true
	}

	if start < end && src[start] == '\n' {
		start++
	}
	start = lineStart(src, start)
	if end > start && src[end-1] != '\n' {
		if ls := lineStart(src, end); ls >= start && isPrefix(src[ls:end]) {
			end = ls
		}
	}
	region := src[start:end]
	if len(region) > 0 && region[len(region)-1] != '\n' {
		return Segment{}, false
	}

	prefix := commonPrefix(region)
	opening := src[lineStart(src, int(n.StartByte())):n.StartByte()]
	if bytes.IndexByte(opening, '>') >= 0 && !strings.Contains(prefix, ">") {
		return Segment{}, false
	}

	return Segment{
		Source:    stripPrefix(region, prefix),
		Language:  language,
		StartLine: bytes.Count(src[:start], []byte("\n")) + 1,
		Start:     start,
		End:       end,
		Prefix:    prefix,
	}, true
}

func nested(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case markdownNodeBlockQuote, markdownNodeListItem:
			return true
		}
	}
	return false
}

func lineStart(src []byte, i int) int {
	return bytes.LastIndexByte(src[:i], '\n') + 1
}

// isPrefix reports whether b holds only container markers
func isPrefix(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '>' {
			return false
		}
	}
	return true
}

func leadingPrefix(line []byte) []byte {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '>') {
		i++
	}
	return line[:i]
}

// commonPrefix is the longest run of container markers every non-blank line
// of region starts with
func commonPrefix(region []byte) string {
	var prefix []byte
	first := true
	for _, line := range bytes.SplitAfter(region, []byte("\n")) {
		body := bytes.TrimSuffix(line, []byte("\n"))
		if isPrefix(body) {
			continue
		}
		lead := leadingPrefix(body)
		if first {
			prefix, first = lead, false
			continue
		}
		i := 0
		for i < len(prefix) && i < len(lead) && prefix[i] == lead[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return string(prefix)
}

func stripPrefix(region []byte, prefix string) []byte {
	var out []byte
	for _, line := range bytes.SplitAfter(region, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		body := bytes.TrimSuffix(line, []byte("\n"))
		if isPrefix(body) {
			out = append(out, line[len(body):]...)
			continue
		}
		out = append(out, line[len(prefix):]...)
	}
	return out
}

// addPrefix puts the container prefix back in front of every line. Blank
// lines keep only the markers.
func addPrefix(code []byte, prefix string) []byte {
	blank := strings.TrimRight(prefix, " ")
	var out []byte
	for _, line := range bytes.SplitAfter(code, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if line[0] == '\n' {
			out = append(out, blank...)
		} else {
			out = append(out, prefix...)
		}
		out = append(out, line...)
	}
	return out
}

func (Markdown) Reinsert(src []byte, segments []Segment, rewritten [][]byte) ([]byte, error) {
	if len(segments) != len(rewritten) {
		return splice(src, segments, rewritten)
	}
	out := make([][]byte, len(rewritten))
	for i, seg := range segments {
		switch {
		case seg.Prefix == "":
			out[i] = rewritten[i]
		case bytes.Equal(rewritten[i], seg.Source):
			out[i] = src[seg.Start:seg.End]
		default:
			out[i] = addPrefix(rewritten[i], seg.Prefix)
		}
	}
	return splice(src, segments, out)
}
