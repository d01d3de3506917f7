// Package config builds the immutable site configuration from defaults, the
// optional .site.yml in the input root and patterns derived from .gitignore.
package config

import (
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/pagesmith/internal/util/sets"
)

// FileName is the optional configuration file looked up in the input root.
const FileName = ".site.yml"

// Default values applied before any configuration file is read.
const (
	DefaultOutputDir = "site"
	DefaultSiteTitle = "Site"
	DefaultBaseURL   = "/"
)

// SiteConfig is the resolved configuration for one generation run.
//
// Values are built once through Defaults, WithFile and WithDerivedExcludes;
// each step returns a new value and never mutates its receiver.
type SiteConfig struct {
	OutputDir        string
	Exclude          []string // ordered, no duplicates
	SiteTitle        string
	BaseURL          string
	RespectGitignore bool
	TemplatesDir     string // optional directory overriding page.html / index.html
	TitleFromHeading bool   // use the first level-1 heading when frontmatter has no title
}

// Defaults returns the configuration used when no file overrides anything.
func Defaults() SiteConfig {
	return SiteConfig{
		OutputDir:        DefaultOutputDir,
		Exclude:          []string{},
		SiteTitle:        DefaultSiteTitle,
		BaseURL:          DefaultBaseURL,
		RespectGitignore: true,
	}
}

// WithExclude returns a copy whose exclude list is patterns, deduplicated in order.
func (c SiteConfig) WithExclude(patterns []string) SiteConfig {
	c.Exclude = sets.NewOrdered(patterns...).Values()
	return c
}

// WithDerivedExcludes returns a copy with patterns appended after the existing
// exclude entries. Patterns already present are not repeated.
func (c SiteConfig) WithDerivedExcludes(patterns []string) SiteConfig {
	merged := sets.NewOrdered(c.Exclude...)
	merged.Extend(patterns...)
	c.Exclude = merged.Values()
	return c
}

// ResolveOutputDir returns the absolute output directory for inputRoot.
// An absolute OutputDir is used as-is.
func (c SiteConfig) ResolveOutputDir(inputRoot string) (string, error) {
	out := c.OutputDir
	if !filepath.IsAbs(out) {
		out = filepath.Join(inputRoot, out)
	}
	return filepath.Abs(out)
}

// WithTemplatesDirFrom returns a copy of c whose relative TemplatesDir is
// resolved against inputRoot. An empty TemplatesDir stays empty.
func (c SiteConfig) WithTemplatesDirFrom(inputRoot string) SiteConfig {
	if c.TemplatesDir != "" && !filepath.IsAbs(c.TemplatesDir) {
		c.TemplatesDir = filepath.Join(inputRoot, c.TemplatesDir)
	}
	return c.Clone()
}

// Clone returns a deep copy.
func (c SiteConfig) Clone() SiteConfig {
	c.Exclude = slices.Clone(c.Exclude)
	return c
}
