package site

import (
	"path"
	"strings"
)

const indexFile = "index.html"

// OutputPath maps a source path relative to the input root (forward slashes)
// to its output path: the extension becomes ".html", and any spelling of
// "index.html" is normalized to lowercase in the same directory.
func OutputPath(rel string) string {
	dir, base := path.Split(rel)
	name := strings.TrimSuffix(base, path.Ext(base)) + ".html"
	if isIndex(name) {
		name = indexFile
	}
	return dir + name
}

func isIndex(name string) bool {
	return strings.EqualFold(path.Base(name), indexFile)
}
