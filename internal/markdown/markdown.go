// Package markdown renders document content for the terminal and extracts
// the heading outline used as a table of contents.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// Heading is one entry of a document outline.
type Heading struct {
	Level int
	Text  string
}

// RenderHTML converts Markdown to HTML. Input that fails to convert comes
// back escaped.
func RenderHTML(markdownText string) string {
	src := strings.TrimSpace(markdownText)
	if src == "" {
		return ""
	}
	var out bytes.Buffer
	if err := engine.Convert([]byte(src), &out); err != nil {
		return template.HTMLEscapeString(src)
	}
	return out.String()
}

// Outline lists the headings of a document in order.
func Outline(markdownText string) []Heading {
	src := []byte(markdownText)
	doc := engine.Parser().Parse(text.NewReader(src))
	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		headings = append(headings, Heading{Level: h.Level, Text: nodeText(h, src)})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// Title returns the first level-one heading, or "" when there is none.
func Title(markdownText string) string {
	for _, h := range Outline(markdownText) {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// FormatOutline renders headings as an indented list.
func FormatOutline(headings []Heading) string {
	var b strings.Builder
	for _, h := range headings {
		fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", max(h.Level-1, 0)), h.Text)
	}
	return b.String()
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(nodeText(c, src))
		}
	}
	return strings.TrimSpace(b.String())
}
