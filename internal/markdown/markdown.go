// Package markdown converts a Markdown source into an HTML fragment and a
// page title.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// Options controls how documents are transformed.
type Options struct {
	// TitleFromHeading uses the first level-1 heading as the title when the
	// frontmatter does not declare one.
	TitleFromHeading bool
	Logger           *slog.Logger
}

// Document is the result of transforming one Markdown source.
type Document struct {
	HTML  string
	Title string
}

// Converter turns Markdown sources into HTML fragments. It is safe to reuse
// across documents.
type Converter struct {
	md     goldmark.Markdown
	opts   Options
	logger *slog.Logger
}

// NewConverter builds a converter with tables, fenced code, generated heading
// ids, the [TOC] marker and raw HTML passthrough.
func NewConverter(opts Options) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, TOC),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Converter{md: md, opts: opts, logger: logger}
}

// Transform strips frontmatter, resolves the title, rewrites .md links and
// converts the remaining body to HTML.
//
// The title is the frontmatter `title:` value, else (with TitleFromHeading) the
// first level-1 heading, else fallbackTitle. Frontmatter without a closing
// delimiter is left in place and treated as ordinary text.
func (c *Converter) Transform(src []byte, fallbackTitle string) (Document, error) {
	fm, body, had, err := frontmatter.Split(src)
	if err != nil {
		if !errors.Is(err, frontmatter.ErrMissingClosingDelimiter) {
			return Document{}, err
		}
		c.logger.Debug("Unterminated frontmatter treated as content")
		body = src
	}

	title, ok := "", false
	if had {
		title, ok = frontmatter.Title(fm)
	}

	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, dest := range UnrewrittenLinks(body) {
			c.logger.Debug("Link with fragment or query not rewritten", logfields.URL(dest))
		}
	}

	body = RewriteLinks(body)
	root := c.md.Parser().Parse(text.NewReader(body))

	if !ok && c.opts.TitleFromHeading {
		title, ok = headingTitle(root, body)
	}
	if !ok {
		title = fallbackTitle
	}

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, body, root); err != nil {
		return Document{}, fmt.Errorf("render markdown: %w", err)
	}
	return Document{HTML: buf.String(), Title: title}, nil
}

// attributeList matches a trailing `{#id .class}` block on a heading line.
var attributeList = regexp.MustCompile(`\s*\{[^}]*\}\s*$`)

func headingTitle(root gmast.Node, src []byte) (string, bool) {
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			if h.Level == 1 {
				title = attributeList.ReplaceAllString(plainText(h, src), "")
				return gmast.WalkStop, nil
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return title, title != ""
}
