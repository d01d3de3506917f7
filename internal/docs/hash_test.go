package docs

import (
	"testing"
)

func TestManifestHashConsistency(t *testing.T) {
	var b ManifestBuilder
	b.Add("readme.md", []byte("# Documentation"))
	b.Add("guide.md", []byte("# Guide"))

	m1 := b.Build()
	m2 := b.Build()

	if m1.Hash != m2.Hash {
		t.Errorf("Hash not consistent: %s != %s", m1.Hash, m2.Hash)
	}
	if len(m1.Hash) != 64 {
		t.Errorf("Expected 64-char SHA256 hash, got %d chars", len(m1.Hash))
	}
	if m1.Files[0].RelativePath != "guide.md" {
		t.Errorf("Expected entries sorted by path, got %s first", m1.Files[0].RelativePath)
	}
}

func TestManifestHashOrderIndependent(t *testing.T) {
	var a, b ManifestBuilder
	a.Add("a.md", []byte("Content A"))
	a.Add("b.md", []byte("Content B"))
	b.Add("b.md", []byte("Content B"))
	b.Add("a.md", []byte("Content A"))

	if a.Build().Hash != b.Build().Hash {
		t.Error("Hash should be order-independent")
	}
}

func TestManifestHashChangesWithContent(t *testing.T) {
	var a, b ManifestBuilder
	a.Add("a.md", []byte("Original"))
	b.Add("a.md", []byte("Modified"))

	if a.Build().Hash == b.Build().Hash {
		t.Error("Hash should change when content changes")
	}
}

func TestManifestHashEmptySet(t *testing.T) {
	var a, b ManifestBuilder

	h1 := a.Build().Hash
	if h1 == "" {
		t.Error("Empty set should have a hash")
	}
	if h1 != b.Build().Hash {
		t.Error("Empty set hash should be consistent")
	}
}
