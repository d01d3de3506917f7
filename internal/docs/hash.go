package docs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Manifest records the sources that went into a build.
type Manifest struct {
	Files []ManifestEntry `json:"files"`
	Hash  string          `json:"hash"`
}

// ManifestEntry represents a single source file in the manifest.
type ManifestEntry struct {
	RelativePath string `json:"relative_path"`
	ContentHash  string `json:"content_hash"`
}

// ManifestBuilder accumulates source content as it is read.
// The zero value is ready to use.
type ManifestBuilder struct {
	entries []ManifestEntry
}

// Add records the content read for relPath.
func (b *ManifestBuilder) Add(relPath string, content []byte) {
	h := sha256.Sum256(content)
	b.entries = append(b.entries, ManifestEntry{RelativePath: relPath, ContentHash: hex.EncodeToString(h[:])})
}

// Build returns the manifest with entries sorted by path and a hash over all of
// them. The hash does not depend on the order sources were added in.
func (b *ManifestBuilder) Build() Manifest {
	entries := make([]ManifestEntry, len(b.entries))
	copy(entries, b.entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})
	return Manifest{Files: entries, Hash: ComputeHash(entries)}
}

// ComputeHash computes a deterministic hash for a sorted set of entries.
func ComputeHash(entries []ManifestEntry) string {
	if len(entries) == 0 {
		// Empty set has a known hash
		h := sha256.Sum256([]byte("empty-docs-set"))
		return hex.EncodeToString(h[:])
	}

	h := sha256.New()
	for _, entry := range entries {
		_, _ = fmt.Fprintf(h, "%s|%s\n", entry.RelativePath, entry.ContentHash)
	}
	return hex.EncodeToString(h.Sum(nil))
}
