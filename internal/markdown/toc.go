package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// TOCMarker is the paragraph text replaced by a table of contents.
const TOCMarker = "[TOC]"

// KindTOC is the node kind of a rendered table of contents.
var KindTOC = gmast.NewNodeKind("TOC")

type tocItem struct {
	level int
	id    string
	text  string
}

type tocNode struct {
	gmast.BaseBlock
	items []tocItem
}

func (n *tocNode) Kind() gmast.NodeKind { return KindTOC }

func (n *tocNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, nil, nil)
}

// TOC replaces every paragraph consisting solely of "[TOC]" with a nested list
// linking to the document's headings. Headings get generated ids.
var TOC goldmark.Extender = tocExtension{}

type tocExtension struct{}

func (tocExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(util.Prioritized(tocTransformer{}, 100)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(tocRenderer{}, 100)))
}

type tocTransformer struct{}

func (tocTransformer) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()

	var markers []*gmast.Paragraph
	var items []tocItem
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			item := tocItem{level: node.Level, text: plainText(node, src)}
			if id, ok := node.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok {
					item.id = string(b)
				}
			}
			items = append(items, item)
			return gmast.WalkSkipChildren, nil
		case *gmast.Paragraph:
			if isTOCMarker(node, src) {
				markers = append(markers, node)
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	for _, p := range markers {
		parent := p.Parent()
		parent.ReplaceChild(parent, p, &tocNode{items: items})
	}
}

func isTOCMarker(p *gmast.Paragraph, src []byte) bool {
	lines := p.Lines()
	if lines.Len() != 1 {
		return false
	}
	seg := lines.At(0)
	return strings.TrimSpace(string(seg.Value(src))) == TOCMarker
}

type tocRenderer struct{}

func (r tocRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTOC, r.render)
}

func (tocRenderer) render(w util.BufWriter, _ []byte, n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	node, ok := n.(*tocNode)
	if !ok {
		return gmast.WalkContinue, nil
	}

	_, _ = w.WriteString("<div class=\"toc\">\n")
	// Levels of the currently open <ul> elements, outermost first.
	var open []int
	for _, item := range node.items {
		switch {
		case len(open) == 0:
			_, _ = w.WriteString("<ul>\n")
			open = append(open, item.level)
		case item.level > open[len(open)-1]:
			_, _ = w.WriteString("\n<ul>\n")
			open = append(open, item.level)
		default:
			_, _ = w.WriteString("</li>\n")
			for len(open) > 1 && item.level < open[len(open)-1] {
				_, _ = w.WriteString("</ul>\n</li>\n")
				open = open[:len(open)-1]
			}
		}
		_, _ = w.WriteString("<li><a href=\"#")
		_, _ = w.Write(util.EscapeHTML([]byte(item.id)))
		_, _ = w.WriteString("\">")
		_, _ = w.Write(util.EscapeHTML([]byte(item.text)))
		_, _ = w.WriteString("</a>")
	}
	if len(open) > 0 {
		_, _ = w.WriteString("</li>\n")
		for len(open) > 1 {
			_, _ = w.WriteString("</ul>\n</li>\n")
			open = open[:len(open)-1]
		}
		_, _ = w.WriteString("</ul>\n")
	}
	_, _ = w.WriteString("</div>\n")
	return gmast.WalkSkipChildren, nil
}

// plainText concatenates the literal text beneath n.
func plainText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		case *gmast.AutoLink:
			b.Write(t.Label(src))
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
