// Package linkverify checks the links in a generated site against the files
// that were actually written to the output directory.
//
// Only internal targets are checked, and only on the local filesystem; no
// network requests are made.
package linkverify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

var (
	errOutsideBase = errors.New("path outside base URL")
	errEscapesSite = errors.New("path escapes the site")
)

// BrokenLink describes an internal link whose target does not exist.
type BrokenLink struct {
	Page   string `json:"page"` // output-relative path of the page holding the link
	URL    string `json:"url"`
	Tag    string `json:"tag"`
	Target string `json:"target,omitempty"` // output-relative path that was looked up
	Reason string `json:"reason"`
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s: <%s> %s: %s", b.Page, b.Tag, b.URL, b.Reason)
}

// Report summarizes one verification pass.
type Report struct {
	Pages   int
	Checked int
	Broken  []BrokenLink
}

// Verifier checks the pages under one output directory.
type Verifier struct {
	outputDir string
	base      *url.URL
	baseURL   string
	logger    *slog.Logger
}

// NewVerifier creates a verifier for the site in outputDir. baseURL is the
// configured site base URL; root-relative links are resolved below its path.
func NewVerifier(outputDir, baseURL string, logger *slog.Logger) (*Verifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Verifier{outputDir: abs, base: base, baseURL: baseURL, logger: logger}, nil
}

// VerifySite checks every .html page in the output directory. Cancellation is
// honored between pages.
func (v *Verifier) VerifySite(ctx context.Context) (*Report, error) {
	var pages []string
	err := filepath.WalkDir(v.outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".html") {
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk output directory: %w", err)
	}
	sort.Strings(pages)

	report := &Report{}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := v.verifyPage(page, report); err != nil {
			v.logger.Warn("Failed to extract links from page", logfields.Path(page), logfields.Error(err))
			continue
		}
		report.Pages++
	}

	v.logger.Debug("Link verification completed",
		slog.Int("pages", report.Pages),
		slog.Int("checked", report.Checked),
		slog.Int("broken", len(report.Broken)))
	return report, nil
}

func (v *Verifier) verifyPage(pagePath string, report *Report) error {
	links, err := ExtractLinks(pagePath, v.baseURL)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(v.outputDir, pagePath)
	if err != nil {
		return err
	}
	pageRel := filepath.ToSlash(rel)

	for _, link := range FilterLinks(links, true, false) {
		if !ShouldVerifyLink(link) {
			continue
		}
		report.Checked++
		if broken, ok := v.checkLink(pageRel, link); !ok {
			report.Broken = append(report.Broken, broken)
		}
	}
	return nil
}

// checkLink resolves an internal link to a file in the output directory.
func (v *Verifier) checkLink(pageRel string, link *Link) (BrokenLink, bool) {
	broken := BrokenLink{Page: pageRel, URL: link.URL, Tag: link.Tag}

	target, err := v.localTarget(pageRel, link.URL)
	if err != nil {
		broken.Reason = err.Error()
		return broken, false
	}
	broken.Target = target

	full := filepath.Join(v.outputDir, filepath.FromSlash(target))
	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		target = path.Join(target, "index.html")
		broken.Target = target
		info, err = os.Stat(filepath.Join(full, "index.html"))
	}
	if err != nil {
		broken.Reason = "target not found"
		return broken, false
	}
	if info.IsDir() {
		broken.Reason = "target is a directory"
		return broken, false
	}
	return broken, true
}

// localTarget maps a link URL found on pageRel to an output-relative path.
func (v *Verifier) localTarget(pageRel, linkURL string) (string, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return "", fmt.Errorf("unparseable URL: %w", err)
	}

	p := u.Path
	if p == "" {
		// Query or fragment only; the page itself is the target.
		return pageRel, nil
	}

	var resolved string
	if strings.HasPrefix(p, "/") {
		basePath := v.base.Path
		if !strings.HasSuffix(basePath, "/") {
			basePath += "/"
		}
		switch {
		case p+"/" == basePath:
			resolved = "."
		case strings.HasPrefix(p, basePath):
			resolved = path.Clean(strings.TrimPrefix(p, basePath))
		default:
			return "", fmt.Errorf("%w: %s", errOutsideBase, basePath)
		}
	} else {
		resolved = path.Join(path.Dir(pageRel), p)
	}

	if resolved == "." || resolved == "" {
		return "index.html", nil
	}
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", errEscapesSite
	}
	if strings.HasSuffix(p, "/") {
		return path.Join(resolved, "index.html"), nil
	}
	return resolved, nil
}
