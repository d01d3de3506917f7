package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/textio"
	"git.home.luguber.info/inful/pagesmith/internal/util/sets"
)

// GitignoreFileName is the ignore file read from the input root.
const GitignoreFileName = ".gitignore"

// TranslateGitignore converts gitignore lines into glob exclusion patterns.
//
// Comments and blank lines are skipped. Negated lines ("!pattern") are not
// supported and are dropped. A leading "/" is removed; a trailing "/" turns the
// line into "<name>/**". A bare name without "/", "*", "?" or "[" yields both
// "<name>" and "<name>/**". Anything else is kept as written. The result has no
// duplicates and keeps first-appearance order.
func TranslateGitignore(lines []string) []string {
	out := sets.NewOrdered[string]()

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			slog.Debug("Skipping negated gitignore pattern", logfields.Pattern(line))
			continue
		}

		line = strings.TrimPrefix(line, "/")
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, "/") {
			name := strings.TrimRight(line, "/")
			if name == "" {
				continue
			}
			line = name + "/**"
		}

		if !strings.ContainsAny(line, "/*?[") {
			out.Add(line)
			out.Add(line + "/**")
			continue
		}
		out.Add(line)
	}

	return out.Values()
}

// LoadGitignorePatterns reads dir/.gitignore and translates it.
// A missing file yields no patterns and no error.
func LoadGitignorePatterns(dir string) ([]string, error) {
	path := filepath.Join(dir, GitignoreFileName)
	text, err := textio.ReadText(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", GitignoreFileName, err)
	}
	return TranslateGitignore(textio.SplitLines(text)), nil
}
