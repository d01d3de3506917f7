// Package templates renders generated pages and the auto-index through
// html/template, and ships the site's static assets.
//
// The page and index templates are embedded; a directory holding files with
// the same names overrides them.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// Template names.
const (
	PageTemplate  = "page.html"
	IndexTemplate = "index.html"
)

// StaticFiles lists the shipped assets copied to <output>/static/.
var StaticFiles = []string{"style.css", "script.js"}

var (
	// ErrTemplateNotFound indicates a template name that was never loaded.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateParse indicates a default or override template failed to parse.
	ErrTemplateParse = errors.New("template parse failed")
)

//go:embed defaults/*.html defaults/static/*
var embedded embed.FS

// PageInfo is one entry in the auto-generated index.
type PageInfo struct {
	Title        string
	RelativePath string // output-relative, forward slashes
}

// Source describes where a loaded template came from.
type Source struct {
	Kind string `json:"source"` // embedded | file
	Path string `json:"path,omitempty"`
}

// Renderer renders named templates. It is not safe for concurrent use with
// SetClock.
type Renderer struct {
	templates map[string]*template.Template
	sources   map[string]Source
	now       func() time.Time
}

// New loads the page and index templates. A file named page.html or index.html
// in overrideDir (when non-empty) replaces the embedded default.
func New(overrideDir string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		sources:   make(map[string]Source),
		now:       time.Now,
	}

	for _, name := range []string{PageTemplate, IndexTemplate} {
		raw, src, err := loadTemplate(overrideDir, name)
		if err != nil {
			return nil, err
		}
		tpl, err := template.New(name).Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplateParse, name, err)
		}
		r.templates[name] = tpl
		r.sources[name] = src
	}

	return r, nil
}

func loadTemplate(overrideDir, name string) (string, Source, error) {
	if overrideDir != "" {
		p := filepath.Join(overrideDir, name)
		// #nosec G304 -- p is a fixed template name under the configured directory
		b, err := os.ReadFile(p)
		switch {
		case err == nil && strings.TrimSpace(string(b)) != "":
			slog.Debug("Loaded template override", logfields.Template(name), logfields.Path(p))
			return string(b), Source{Kind: "file", Path: p}, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", Source{}, fmt.Errorf("read template override %s: %w", p, err)
		}
	}

	b, err := embedded.ReadFile("defaults/" + name)
	if err != nil {
		return "", Source{}, fmt.Errorf("%w: embedded %s: %w", ErrTemplateNotFound, name, err)
	}
	return string(b), Source{Kind: "embedded"}, nil
}

// SetClock replaces the clock used for the rendered year.
func (r *Renderer) SetClock(now func() time.Time) {
	r.now = now
}

// Source reports where the named template was loaded from.
func (r *Renderer) Source(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Render executes the named template with data.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderPage renders one converted document. content is trusted HTML.
func (r *Renderer) RenderPage(content, title, siteTitle, baseURL string) (string, error) {
	return r.Render(PageTemplate, map[string]any{
		// #nosec G203 -- content is the converter's own HTML output
		"content":    template.HTML(content),
		"title":      title,
		"site_title": siteTitle,
		"base_url":   baseURL,
		"year":       r.now().Year(),
	})
}

// RenderIndex renders the listing of generated pages.
func (r *Renderer) RenderIndex(pages []PageInfo, siteTitle, baseURL string) (string, error) {
	return r.Render(IndexTemplate, map[string]any{
		"pages":      pages,
		"title":      "Index",
		"site_title": siteTitle,
		"base_url":   baseURL,
		"year":       r.now().Year(),
	})
}

// StaticFS returns the shipped static assets, rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(embedded, "defaults/static")
	if err != nil {
		panic(fmt.Sprintf("embedded static assets missing: %v", err))
	}
	return sub
}
