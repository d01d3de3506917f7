package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/textio"
)

// Load builds the configuration for inputDir: defaults, then overrides from
// inputDir/.site.yml, then (when respect_gitignore is on) patterns derived from
// inputDir/.gitignore appended after the explicit exclude entries.
//
// Problems with either file never fail the load. They are returned as warnings
// (classified config errors with warning severity) and the affected fields keep
// their defaults.
func Load(inputDir string) (SiteConfig, []error) {
	cfg := Defaults()
	var warnings []error

	raw, err := readFile(filepath.Join(inputDir, FileName))
	if err != nil {
		warnings = append(warnings, err)
	} else if raw != nil {
		var fieldWarnings []error
		cfg, fieldWarnings = cfg.WithFile(raw)
		warnings = append(warnings, fieldWarnings...)
	}

	if out, err := cfg.ResolveOutputDir(inputDir); err == nil && containsRoot(out, inputDir) {
		warnings = append(warnings, ferrors.ConfigWarning(fmt.Sprintf("invalid 'output_dir' in %s (must not contain the input directory), using default", FileName)).
			WithContext("field", "output_dir").
			WithContext("value", cfg.OutputDir).
			Build())
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.RespectGitignore {
		patterns, err := LoadGitignorePatterns(inputDir)
		if err != nil {
			warnings = append(warnings, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read .gitignore, ignoring it").
				Warning().
				WithContext("path", filepath.Join(inputDir, GitignoreFileName)).
				Build())
		}
		cfg = cfg.WithDerivedExcludes(patterns)
	}

	return cfg, warnings
}

// containsRoot reports whether the absolute output directory out is inputDir
// or one of its ancestors.
func containsRoot(out, inputDir string) bool {
	root, err := filepath.Abs(inputDir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(out, root)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// readFile returns the decoded top-level mapping of the configuration file,
// nil when the file is absent or empty, or a warning when it cannot be used.
func readFile(path string) (map[string]any, error) {
	text, err := textio.ReadText(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "error reading "+FileName+", using default configuration").
			Warning().
			WithContext("path", path).
			Build()
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse "+FileName+", using default configuration").
			Warning().
			WithContext("path", path).
			Build()
	}
	return raw, nil
}

// WithFile returns a copy of c with recognized fields from raw applied.
// Unknown keys are ignored; a recognized key holding the wrong type leaves that
// field unchanged and produces a warning.
func (c SiteConfig) WithFile(raw map[string]any) (SiteConfig, []error) {
	out := c.Clone()
	var warnings []error
	warn := func(field, want string, got any) {
		warnings = append(warnings, ferrors.ConfigWarning(fmt.Sprintf("invalid '%s' in %s (must be %s), using default", field, FileName, want)).
			WithContext("field", field).
			WithContext("value", got).
			Build())
	}

	if v, ok := raw["output_dir"]; ok {
		if s, ok := v.(string); ok && s != "" && filepath.Clean(s) != "." {
			out.OutputDir = s
		} else {
			warn("output_dir", "a non-empty path other than the input directory", v)
		}
	}

	if v, ok := raw["exclude"]; ok {
		if patterns, ok := stringList(v); ok {
			out = out.WithExclude(patterns)
		} else {
			warn("exclude", "a list of strings", v)
		}
	}

	if v, ok := raw["respect_gitignore"]; ok {
		if b, ok := v.(bool); ok {
			out.RespectGitignore = b
		} else {
			warn("respect_gitignore", "a boolean", v)
		}
	}

	if v, ok := raw["site"]; ok {
		site, isMap := v.(map[string]any)
		if !isMap {
			warn("site", "a mapping", v)
		}
		if t, ok := site["title"]; ok {
			if s, ok := t.(string); ok {
				out.SiteTitle = s
			} else {
				warn("site.title", "a string", t)
			}
		}
		if u, ok := site["base_url"]; ok {
			if s, ok := u.(string); ok {
				out.BaseURL = s
			} else {
				warn("site.base_url", "a string", u)
			}
		}
	}

	if v, ok := raw["templates_dir"]; ok {
		if s, ok := v.(string); ok {
			out.TemplatesDir = s
		} else {
			warn("templates_dir", "a string", v)
		}
	}

	if v, ok := raw["title_from_heading"]; ok {
		if b, ok := v.(bool); ok {
			out.TitleFromHeading = b
		} else {
			warn("title_from_heading", "a boolean", v)
		}
	}

	return out, warnings
}

func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// fileConfig is the on-disk shape of .site.yml, used to write the example file.
type fileConfig struct {
	OutputDir        string   `yaml:"output_dir"`
	Exclude          []string `yaml:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	Site             struct {
		Title   string `yaml:"title"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"site"`
	TemplatesDir     string `yaml:"templates_dir,omitempty"`
	TitleFromHeading bool   `yaml:"title_from_heading"`
}

// WriteExample writes an example .site.yml into dir.
func WriteExample(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := fileConfig{
		OutputDir:        DefaultOutputDir,
		Exclude:          []string{"drafts/**", "README.md"},
		RespectGitignore: true,
	}
	example.Site.Title = "My Documentation"
	example.Site.BaseURL = DefaultBaseURL

	data, err := yaml.Marshal(&example)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := textio.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
