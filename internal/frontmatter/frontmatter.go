package frontmatter

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
)

const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates `---` delimited frontmatter from the Markdown body.
//
// The opening delimiter must be the first line; the block ends at the next line
// consisting solely of `---`. Trailing spaces or tabs after a delimiter are
// allowed and both LF and CRLF line endings are accepted. The closing delimiter
// may be the last line of the input without a newline.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input. If it does but never closes, ErrMissingClosingDelimiter is
// returned together with the full input as body.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	first, rest, ok := cutLine(content)
	if !ok || !isDelimiter(first) {
		return nil, content, false, nil
	}

	start := len(content) - len(rest)
	pos := start
	for pos < len(content) {
		line, next, _ := cutLine(content[pos:])
		if isDelimiter(line) {
			return content[start:pos], next, true, nil
		}
		pos = len(content) - len(next)
	}

	return nil, content, false, ErrMissingClosingDelimiter
}

// cutLine returns the first line of b without its terminator and the remainder
// after it. ok is false only when the first line is not newline terminated.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, b[len(b):], false
	}
	return b[:i], b[i+1:], true
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == delimiter
}

var titleLine = regexp.MustCompile(`^title:[ \t]*(.*?)[ \t]*$`)

// Title returns the value of the first `title:` line in a frontmatter block.
// Matching single or double quotes around the value are removed. ok is false
// when there is no title line or its value is empty.
func Title(frontmatter []byte) (title string, ok bool) {
	for _, line := range strings.Split(string(frontmatter), "\n") {
		m := titleLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		value := unquote(m[1])
		return value, value != ""
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
