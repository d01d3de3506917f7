package site

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/templates"
	"git.home.luguber.info/inful/pagesmith/internal/textio"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "site", filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return string(data)
}

func fixedNow() time.Time {
	return time.Date(2031, time.March, 4, 12, 0, 0, 0, time.UTC)
}

func quietGenerator(cfg config.SiteConfig, opts ...Option) *Generator {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(fixedNow),
	}
	return NewGenerator(cfg, append(base, opts...)...)
}

func TestGenerate_WritesPagesIndexAndAssets(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"intro.md":          "---\ntitle: \"Getting Started\"\n---\nSee [setup](guides/setup.md).\n",
		"guides/setup.md":   "# Setup\n\nInstall it.\n",
		"img/logo.png":      "png-bytes",
		"guides/manual.pdf": "pdf-bytes",
		"notes.txt":         "ignored",
	})

	cfg := config.Defaults()
	cfg.SiteTitle = "Handbook"
	res, err := quietGenerator(cfg).Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, filepath.Join(root, "site"), res.OutputDir)

	intro := readOutput(t, root, "intro.html")
	assert.Contains(t, intro, "<title>Getting Started | Handbook</title>")
	assert.Contains(t, intro, `<a href="guides/setup.html">setup</a>`)
	assert.Contains(t, intro, "2031")
	assert.NotContains(t, intro, "title: ")

	setup := readOutput(t, root, "guides/setup.html")
	assert.Contains(t, setup, "<title>setup | Handbook</title>")

	index := readOutput(t, root, "index.html")
	assert.Contains(t, index, `<a href="guides/setup.html">setup</a>`)
	assert.Contains(t, index, `<a href="intro.html">Getting Started</a>`)
	assert.Less(t, strings.Index(index, "guides/setup.html"), strings.Index(index, "intro.html"))

	for _, name := range templates.StaticFiles {
		assert.FileExists(t, filepath.Join(root, "site", "static", name))
	}
	assert.Equal(t, "png-bytes", readOutput(t, root, "img/logo.png"))
	assert.Equal(t, "pdf-bytes", readOutput(t, root, "guides/manual.pdf"))
	assert.NoFileExists(t, filepath.Join(root, "site", "notes.txt"))
}

func TestGenerate_IndexSpellingsShareOneOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"INDEX.MD": "upper",
		"Index.md": "mixed",
		"index.md": "lower",
		"other.md": "other page",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)
	assert.Equal(t, 4, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)

	entries, err := os.ReadDir(filepath.Join(root, "site"))
	require.NoError(t, err)
	var htmlFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".html") {
			htmlFiles = append(htmlFiles, e.Name())
		}
	}
	assert.ElementsMatch(t, []string{"index.html", "other.html"}, htmlFiles)

	// The last source in discovery order wins and no listing is generated.
	index := readOutput(t, root, "index.html")
	assert.Contains(t, index, "lower")
	assert.NotContains(t, index, `href="other.html"`)
}

func TestGenerate_NestedIndexSuppressesAutoIndex(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"guides/index.md": "# Guides",
		"a.md":            "A",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.FileExists(t, filepath.Join(root, "site", "guides", "index.html"))
	assert.NoFileExists(t, filepath.Join(root, "site", "index.html"))
}

func TestGenerate_UnreadableDocumentIsIsolated(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.md": "# A",
		"c.md": "# C",
	})
	broken := filepath.Join(root, "b.md")
	require.NoError(t, os.Symlink(filepath.Join(root, "missing-target.md"), broken))

	reg := prom.NewRegistry()
	res, err := quietGenerator(config.Defaults(), WithRecorder(metrics.NewPrometheusRecorder(reg))).Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, broken, res.Errors[0].Path)
	assert.ErrorIs(t, res.Errors[0], os.ErrNotExist)

	assert.FileExists(t, filepath.Join(root, "site", "a.html"))
	assert.FileExists(t, filepath.Join(root, "site", "c.html"))
	assert.NoFileExists(t, filepath.Join(root, "site", "b.html"))

	index := readOutput(t, root, "index.html")
	assert.Contains(t, index, `href="a.html"`)
	assert.NotContains(t, index, `href="b.html"`)

	expected := `
# HELP pagesmith_document_results_total Per-document conversion results
# TYPE pagesmith_document_results_total counter
pagesmith_document_results_total{result="failure"} 1
pagesmith_document_results_total{result="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pagesmith_document_results_total"))
	assert.Equal(t, metrics.OutcomeFailed, res.Report.Outcome)
}

func TestGenerate_UndecodableDocumentIsCounted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.md": "# A",
		"b.md": "bad \xff\xfe\xfa bytes",
		"c.md": "# C",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, filepath.Join(root, "b.md"), res.Errors[0].Path)
	assert.ErrorIs(t, res.Errors[0], textio.ErrInvalidUTF8)
	assert.NoFileExists(t, filepath.Join(root, "site", "b.html"))
	assert.NotContains(t, readOutput(t, root, "index.html"), `href="b.html"`)
}

func TestGenerate_PageWriteFailureIsCountedWithoutPartialFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.md": "# Ok",
		"x.md":  "# X",
	})
	blocker := filepath.Join(root, "site", "x.html")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "inside"), 0o755))

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, filepath.Join(root, "x.md"), res.Errors[0].Path)
	assert.DirExists(t, blocker)

	entries, err := os.ReadDir(filepath.Join(root, "site"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "leftover temporary file %s", e.Name())
	}

	index := readOutput(t, root, "index.html")
	assert.Contains(t, index, `href="ok.html"`)
	assert.NotContains(t, index, `href="x.html"`)
}

func TestGenerate_ImageCopyFailureIsNotCounted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"page.md":      "# Page",
		"img/logo.png": "png",
		// A file where the image directory belongs makes the copy fail.
		"site/img": "not a directory",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ImageAssetsErrorLabel, res.Errors[0].Path)
	assert.Equal(t, metrics.OutcomeWarning, res.Report.Outcome)
	assert.FileExists(t, filepath.Join(root, "site", "page.html"))
	assert.FileExists(t, filepath.Join(root, "site", "static", "style.css"))
}

func TestGenerate_EmptyInputCreatesNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.txt":   "not markdown",
		"img/logo.png": "png",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	assert.Empty(t, res.Errors)
	assert.NoDirExists(t, filepath.Join(root, "site"))
	assert.Equal(t, metrics.OutcomeEmpty, res.Report.Outcome)
}

func TestGenerate_ExcludedDocumentsAreSkipped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.md":          "keep",
		"drafts/wip.md":    "wip",
		".venv/lib/foo.md": "vendored",
	})

	cfg := config.Defaults().WithExclude([]string{"drafts/**", ".venv", ".venv/**"})
	res, err := quietGenerator(cfg).Generate(root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.NoFileExists(t, filepath.Join(root, "site", "drafts", "wip.html"))
	assert.NoDirExists(t, filepath.Join(root, "site", ".venv"))
}

func TestGenerate_StaticAssetFailureIsNotCounted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"page.md": "# Page"})

	partial := fstest.MapFS{"style.css": &fstest.MapFile{Data: []byte("body{}")}}
	res, err := quietGenerator(config.Defaults(), WithStaticFS(partial)).Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, StaticAssetsErrorLabel, res.Errors[0].Path)
	assert.Equal(t, metrics.OutcomeWarning, res.Report.Outcome)
	assert.FileExists(t, filepath.Join(root, "site", "page.html"))
}

func TestGenerate_IndexWriteFailureIsCounted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"page.md": "# Page"})
	// A directory where the index file should go makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "site", "index.html", "blocker"), 0o755))

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, IndexErrorLabel, res.Errors[0].Path)
	assert.FileExists(t, filepath.Join(root, "site", "page.html"))
}

func TestGenerate_DoesNotRecopyPreviousOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"page.md":        "# Page",
		"site/stale.png": "old output",
		"site/stale.md":  "old output",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.NoDirExists(t, filepath.Join(root, "site", "site"))
	assert.NoFileExists(t, filepath.Join(root, "site", "stale.html"))
}

func TestGenerate_RerunOverwritesOutputs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"page.md": "first"})
	gen := quietGenerator(config.Defaults())

	_, err := gen.Generate(root)
	require.NoError(t, err)
	writeTree(t, root, map[string]string{"page.md": "second"})
	res, err := gen.Generate(root)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	page := readOutput(t, root, "page.html")
	assert.Contains(t, page, "second")
	assert.NotContains(t, page, "first")
}

func TestGenerate_TemplateOverrideAndFailure(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"page.md": "# Page"})

	tplDir := t.TempDir()
	writeTree(t, tplDir, map[string]string{templates.PageTemplate: "<main>{{ .title }}</main>"})
	cfg := config.Defaults()
	cfg.TemplatesDir = tplDir
	cfg.TitleFromHeading = true

	res, err := quietGenerator(cfg).Generate(root)
	require.NoError(t, err)
	assert.Equal(t, "<main>Page</main>", readOutput(t, root, "page.html"))
	assert.Equal(t, "file", res.Report.Templates[templates.PageTemplate].Kind)

	badDir := t.TempDir()
	writeTree(t, badDir, map[string]string{templates.IndexTemplate: "{{ range .pages }"})
	cfg.TemplatesDir = badDir
	other := t.TempDir()
	writeTree(t, other, map[string]string{"page.md": "# Page"})

	res, err = quietGenerator(cfg).Generate(other)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
	assert.NoDirExists(t, filepath.Join(other, "site"))
}

func TestGenerate_MissingRootIsFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "gone")

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, ferrors.HasSeverity(err, ferrors.SeverityFatal))
}

func TestReport_PersistJSON(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.md": "# A",
		"b.md": "# B",
	})

	res, err := quietGenerator(config.Defaults()).Generate(root)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.NotEmpty(t, res.Report.BuildID)
	assert.NotEmpty(t, res.Report.SourceHash)
	assert.Contains(t, res.Report.Summary(), "succeeded=2")

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, res.Report.Persist(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded ReportSerializable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.SchemaVersion)
	assert.Equal(t, res.Report.BuildID, decoded.BuildID)
	assert.Equal(t, 2, decoded.Documents)
	assert.Equal(t, 2, decoded.Succeeded)
	assert.Equal(t, string(metrics.OutcomeSuccess), decoded.Outcome)
	assert.NotNil(t, decoded.Issues)
	assert.Empty(t, decoded.Issues)
	assert.Equal(t, "embedded", decoded.Templates[templates.IndexTemplate].Kind)
	assert.Contains(t, decoded.StageDurationsMS, StageConvert)
}

func TestOutputPath(t *testing.T) {
	cases := map[string]string{
		"page.md":         "page.html",
		"guides/setup.md": "guides/setup.html",
		"Index.md":        "index.html",
		"INDEX.MD":        "index.html",
		"docs/Index.md":   "docs/index.html",
		"reindex.md":      "reindex.html",
		"a.b.md":          "a.b.html",
	}
	for in, want := range cases {
		assert.Equal(t, want, OutputPath(in), in)
	}
}
