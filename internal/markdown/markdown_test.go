package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransform_FrontmatterTitle(t *testing.T) {
	c := NewConverter(Options{})

	doc, err := c.Transform([]byte("---\ntitle: \"Hello World\"\n---\nBody text"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "Hello World", doc.Title)
	require.Contains(t, doc.HTML, "<p>Body text</p>")
	require.NotContains(t, doc.HTML, "---")
	require.NotContains(t, doc.HTML, "<hr")
}

func TestTransform_FallbackTitle(t *testing.T) {
	c := NewConverter(Options{})

	doc, err := c.Transform([]byte("# Heading\n\nText\n"), "my-page")
	require.NoError(t, err)
	require.Equal(t, "my-page", doc.Title)
}

func TestTransform_FrontmatterWithoutTitleUsesFallback(t *testing.T) {
	c := NewConverter(Options{})

	doc, err := c.Transform([]byte("---\nauthor: me\n---\nText\n"), "my-page")
	require.NoError(t, err)
	require.Equal(t, "my-page", doc.Title)
	require.NotContains(t, doc.HTML, "author")
}

func TestTransform_UnterminatedFrontmatterKeptAsContent(t *testing.T) {
	c := NewConverter(Options{})

	doc, err := c.Transform([]byte("---\ntitle: Nope\n\nStill here\n"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", doc.Title)
	require.Contains(t, doc.HTML, "Still here")
	require.Contains(t, doc.HTML, "title: Nope")
}

func TestTransform_TitleFromHeading(t *testing.T) {
	c := NewConverter(Options{TitleFromHeading: true})

	doc, err := c.Transform([]byte("Intro\n\n## Sub\n\n# Real *Title* {#custom}\n"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "Real Title", doc.Title)

	doc, err = c.Transform([]byte("---\ntitle: Declared\n---\n# Heading\n"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "Declared", doc.Title)

	doc, err = c.Transform([]byte("No headings here.\n"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", doc.Title)
}

func TestTransform_RewritesMarkdownLinks(t *testing.T) {
	c := NewConverter(Options{})

	doc, err := c.Transform([]byte("[See more](other.md) and [Section](other.md#section)\n"), "x")
	require.NoError(t, err)
	require.Contains(t, doc.HTML, `<a href="other.html">See more</a>`)
	require.Contains(t, doc.HTML, `<a href="other.md#section">Section</a>`)
}

func TestTransform_Extensions(t *testing.T) {
	c := NewConverter(Options{})
	src := strings.Join([]string{
		"# Getting Started",
		"",
		"| a | b |",
		"|---|---|",
		"| 1 | 2 |",
		"",
		"```go",
		"fmt.Println(\"hi\")",
		"```",
		"",
		"<div class=\"note\">raw</div>",
		"",
	}, "\n")

	doc, err := c.Transform([]byte(src), "x")
	require.NoError(t, err)
	require.Contains(t, doc.HTML, `<h1 id="getting-started">Getting Started</h1>`)
	require.Contains(t, doc.HTML, "<table>")
	require.Contains(t, doc.HTML, "<td>1</td>")
	require.Contains(t, doc.HTML, `<code class="language-go">`)
	require.Contains(t, doc.HTML, `<div class="note">raw</div>`)
}

func TestTransform_FirstLevelOneHeadingTitle(t *testing.T) {
	c := NewConverter(Options{TitleFromHeading: true})

	doc, err := c.Transform([]byte("text\n\n# First `code` Heading\n\n# Second\n"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "First code Heading", doc.Title)

	doc, err = c.Transform([]byte("## Only level two\n"), "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", doc.Title)
}
