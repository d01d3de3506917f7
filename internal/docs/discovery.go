// Package docs finds the Markdown sources and assets under an input root.
package docs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/pagesmith/internal/docs/errors"
	"git.home.luguber.info/inful/pagesmith/internal/exclude"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/textio"
)

// DocFile represents a discovered Markdown source or asset
type DocFile struct {
	Path         string // Absolute path to the file
	RelativePath string // Forward-slash path relative to the input root
	Name         string // File name without extension
	Extension    string // File extension as found on disk
	IsAsset      bool   // True for images and other non-markdown files
}

// Discovery lists the sources and assets under an input root.
type Discovery struct {
	root      string
	outputDir string
	patterns  []string
}

// NewDiscovery creates a discovery for root. Files matching any of patterns
// (relative to root) and anything inside outputDir are skipped. Both paths are
// made absolute so containment checks do not depend on the working directory.
func NewDiscovery(root, outputDir string, patterns []string) (*Discovery, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrInvalidRelativePath, root, err)
	}
	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrInvalidRelativePath, outputDir, err)
	}
	return &Discovery{root: absRoot, outputDir: absOut, patterns: patterns}, nil
}

// Root returns the absolute input root.
func (d *Discovery) Root() string { return d.root }

// Documents finds all Markdown sources.
func (d *Discovery) Documents() ([]DocFile, error) {
	files, err := d.walk(isMarkdownFile, false)
	if err != nil {
		return nil, err
	}
	slog.Debug("Markdown sources discovered", logfields.Path(d.root), logfields.Count(len(files)))
	return files, nil
}

// Assets finds all image and PDF assets.
func (d *Discovery) Assets() ([]DocFile, error) {
	files, err := d.walk(isAsset, true)
	if err != nil {
		return nil, err
	}
	slog.Debug("Assets discovered", logfields.Path(d.root), logfields.Count(len(files)))
	return files, nil
}

func (d *Discovery) walk(keep func(name string) bool, asset bool) ([]DocFile, error) {
	var files []DocFile

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root {
				return err
			}
			// Unreadable subtrees are skipped; the rest of the root is still walked.
			slog.Warn("Skipping unreadable path", logfields.Path(path), logfields.Error(err))
			if entry != nil && !entry.IsDir() {
				return nil
			}
			return filepath.SkipDir
		}

		if entry.IsDir() {
			// Never descend into previously generated output.
			if path != d.root && IsWithin(path, d.outputDir) {
				slog.Debug("Skipping output directory", logfields.Path(path))
				return filepath.SkipDir
			}
			return nil
		}

		if !keep(entry.Name()) {
			return nil
		}
		if IsWithin(path, d.outputDir) {
			return nil
		}

		relPath, err := filepath.Rel(d.root, path)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}
		relPath = filepath.ToSlash(relPath)

		if exclude.Matches(relPath, d.patterns) {
			slog.Debug("Excluded by pattern", logfields.File(relPath))
			return nil
		}

		ext := filepath.Ext(entry.Name())
		files = append(files, DocFile{
			Path:         path,
			RelativePath: relPath,
			Name:         strings.TrimSuffix(entry.Name(), ext),
			Extension:    ext,
			IsAsset:      asset,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDirWalkFailed, d.root, err)
	}

	return files, nil
}

// LoadText reads and decodes the file content.
func (df *DocFile) LoadText() (string, error) {
	text, err := textio.ReadText(df.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, df.Path, err)
	}
	return text, nil
}

// IsWithin reports whether child is parent or lies beneath it. Both arguments
// should be cleaned absolute paths; the check is purely lexical.
func IsWithin(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".md")
}

var assetExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".svg":  {},
	".pdf":  {},
}

// isAsset checks if a file is a copied asset (image or PDF)
func isAsset(filename string) bool {
	_, ok := assetExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}
