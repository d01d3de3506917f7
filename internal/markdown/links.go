package markdown

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// mdLink matches `[text](target.md)` where target has no ")" and ends in ".md"
// right before the closing parenthesis.
var mdLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\.md\)`)

// RewriteLinks rewrites inline links to Markdown documents so they point at the
// generated HTML pages: `[text](path/page.md)` becomes `[text](path/page.html)`.
//
// The rewrite is textual and runs before Markdown parsing. A link carrying an
// anchor or query after ".md" (e.g. `page.md#section`) is not rewritten.
func RewriteLinks(body []byte) []byte {
	return mdLink.ReplaceAll(body, []byte("[${1}](${2}.html)"))
}

// ExtractLinks parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte) ([]Link, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return links, nil
}

// UnrewrittenLinks returns the inline link destinations in body that point at a
// Markdown document but carry a fragment or query, which RewriteLinks leaves alone.
func UnrewrittenLinks(body []byte) []string {
	links, err := ExtractLinks(body)
	if err != nil {
		return nil
	}

	var out []string
	for _, l := range links {
		if l.Kind != LinkKindInline {
			continue
		}
		if strings.Contains(l.Destination, "://") {
			continue
		}
		target, _, _ := strings.Cut(l.Destination, "#")
		target, _, _ = strings.Cut(target, "?")
		if target != l.Destination && strings.HasSuffix(target, ".md") {
			out = append(out, l.Destination)
		}
	}
	return out
}
