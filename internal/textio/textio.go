// Package textio holds the blocking file primitives the generator builds on:
// decoding UTF-8 sources, atomic writes and file copies.
package textio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrInvalidUTF8 is returned for UTF-8 content holding undecodable bytes.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
)

// Decode converts raw file bytes into text. A byte order mark is honored and
// removed (UTF-8 or UTF-16); content without one is treated as UTF-8.
// Invalid UTF-8 is an error, never replaced.
func Decode(data []byte) (string, error) {
	if !bytes.HasPrefix(data, utf16BEBOM) && !bytes.HasPrefix(data, utf16LEBOM) {
		body := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(body) {
			return "", fmt.Errorf("decode text: %w", ErrInvalidUTF8)
		}
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// ReadText reads and decodes a text file.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return Decode(data)
}

// SplitLines splits text on LF, CRLF or a lone CR.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// EnsureDir creates path and any missing parents. An existing directory is not an error.
func EnsureDir(path string) error {
	return os.MkdirAll(path, dirPerm)
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename, so a failed write never leaves a partial file
// at path. Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// CopyFile copies src to dst, creating dst's parent directories and
// preserving the source permission bits.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}
	return CopyReader(srcFile, dst, info.Mode().Perm())
}

// CopyReader writes everything from r to dst with the given permissions.
func CopyReader(r io.Reader, dst string, perm os.FileMode) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	dstFile, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, r); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}
