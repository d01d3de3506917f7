// Package site turns a directory of Markdown sources into a static HTML site.
//
// Generation is single-threaded. Each document is read, converted, rendered
// and written on its own; a failure is recorded against that document and the
// run continues. Only a discovery failure or a template environment that cannot
// be built aborts the run.
package site

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/docs"
	"git.home.luguber.info/inful/pagesmith/internal/foundation"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/markdown"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/templates"
	"git.home.luguber.info/inful/pagesmith/internal/textio"
)

// Generator builds a site from one configuration.
type Generator struct {
	config   config.SiteConfig
	logger   *slog.Logger
	renderer *templates.Renderer
	staticFS fs.FS
	recorder metrics.Recorder
	now      func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for the run.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithRenderer injects a template renderer instead of building one from the
// configuration on first use.
func WithRenderer(r *templates.Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithStaticFS replaces the shipped static assets.
func WithStaticFS(fsys fs.FS) Option {
	return func(g *Generator) { g.staticFS = fsys }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithClock sets the clock used for timings and the rendered year.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg config.SiteConfig, opts ...Option) *Generator {
	g := &Generator{
		config:   cfg.Clone(),
		logger:   slog.Default(),
		staticFS: templates.StaticFS(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate converts every Markdown source under inputRoot into the output
// directory and returns the aggregate result.
//
// When no sources are found the result is empty and nothing is written. The
// returned error is non-nil only for conditions that abort the whole run.
func (g *Generator) Generate(inputRoot string) (*Result, error) {
	buildID := uuid.NewString()
	log := g.logger.With(logfields.BuildID(buildID))
	report := newReport(buildID, inputRoot, g.now())

	outputDir, err := g.config.ResolveOutputDir(inputRoot)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to resolve output directory").
			WithCause(err).
			Fatal().
			WithContext("path", g.config.OutputDir).
			Build()
	}
	report.OutputDir = outputDir
	result := &Result{OutputDir: outputDir, Report: report}

	discovery, err := docs.NewDiscovery(inputRoot, outputDir, g.config.Exclude)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to resolve input directory").
			WithCause(err).
			Fatal().
			WithContext("path", inputRoot).
			Build()
	}

	stageStart := g.now()
	docFiles, err := discovery.Documents()
	report.StageDurations[StageDiscover] = g.now().Sub(stageStart)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDocs, "failed to discover Markdown files").
			Fatal().
			WithContext("path", inputRoot).
			Build()
	}
	report.Documents = len(docFiles)
	g.recorder.SetDocumentsDiscovered(len(docFiles))
	log.Info("Markdown sources discovered", logfields.Path(inputRoot), logfields.Count(len(docFiles)))

	if len(docFiles) == 0 {
		g.finish(log, report)
		return result, nil
	}

	renderer, err := g.ensureRenderer()
	if err != nil {
		return nil, ferrors.TemplateError("failed to initialize template environment").
			WithCause(err).
			Build()
	}
	for _, name := range []string{templates.PageTemplate, templates.IndexTemplate} {
		if src, ok := renderer.Source(name); ok {
			report.Templates[name] = src
		}
	}

	converter := markdown.NewConverter(markdown.Options{
		TitleFromHeading: g.config.TitleFromHeading,
		Logger:           log,
	})

	var (
		pages        []templates.PageInfo
		hasUserIndex bool
		manifest     docs.ManifestBuilder
	)

	stageStart = g.now()
	for i := range docFiles {
		doc := &docFiles[i]
		g.processDocument(doc, outputDir, renderer, converter, &manifest).Match(
			func(page templates.PageInfo) {
				if isIndex(page.RelativePath) {
					hasUserIndex = true
				} else {
					pages = append(pages, page)
				}
				result.recordSuccess()
				g.recorder.IncDocumentResult(metrics.ResultSuccess)
				log.Debug("Converted document", logfields.File(doc.RelativePath), logfields.Output(page.RelativePath))
			},
			func(err error) {
				result.recordFailure(doc.Path, err)
				report.addIssue(doc.Path, err, true)
				g.recorder.IncDocumentResult(metrics.ResultFailure)
				log.Error("Failed to convert document", logfields.File(doc.RelativePath), logfields.Error(err))
			},
		)
	}
	report.StageDurations[StageConvert] = g.now().Sub(stageStart)
	report.SourceHash = manifest.Build().Hash

	// Processing order follows discovery; the index lists pages by output path.
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].RelativePath < pages[j].RelativePath
	})

	if len(pages) > 0 && !hasUserIndex {
		stageStart = g.now()
		if err := g.writeIndex(renderer, pages, outputDir); err != nil {
			result.recordFailure(IndexErrorLabel, err)
			report.addIssue(IndexErrorLabel, err, true)
			log.Error("Failed to generate index page", logfields.Error(err))
		} else {
			log.Debug("Generated index page", logfields.Count(len(pages)))
		}
		report.StageDurations[StageIndex] = g.now().Sub(stageStart)
	}

	stageStart = g.now()
	if err := g.copyStaticAssets(outputDir); err != nil {
		result.recordAuxiliary(StaticAssetsErrorLabel, err)
		report.addIssue(StaticAssetsErrorLabel, err, false)
		g.recorder.IncAuxiliaryFailure(StaticAssetsErrorLabel)
		log.Warn("Failed to copy static assets", logfields.Error(err))
	}
	report.StageDurations[StageStatic] = g.now().Sub(stageStart)

	stageStart = g.now()
	if err := g.copyImageAssets(discovery, outputDir); err != nil {
		result.recordAuxiliary(ImageAssetsErrorLabel, err)
		report.addIssue(ImageAssetsErrorLabel, err, false)
		g.recorder.IncAuxiliaryFailure(ImageAssetsErrorLabel)
		log.Warn("Failed to copy image assets", logfields.Error(err))
	}
	report.StageDurations[StageImages] = g.now().Sub(stageStart)

	report.Succeeded = result.SuccessCount
	report.Failed = result.FailureCount
	g.finish(log, report)
	return result, nil
}

func (g *Generator) finish(log *slog.Logger, report *Report) {
	report.finish(g.now())
	for stage, d := range report.StageDurations {
		g.recorder.ObserveStageDuration(stage, d)
	}
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(report.Outcome)
	log.Info("Generation finished",
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
		slog.String("outcome", string(report.Outcome)))
}

func (g *Generator) ensureRenderer() (*templates.Renderer, error) {
	if g.renderer != nil {
		return g.renderer, nil
	}
	r, err := templates.New(g.config.TemplatesDir)
	if err != nil {
		return nil, err
	}
	r.SetClock(g.now)
	g.renderer = r
	return r, nil
}

// processDocument reads, converts, renders and writes one source. Nothing it
// does can fail the run; every problem comes back in the Result.
func (g *Generator) processDocument(doc *docs.DocFile, outputDir string, renderer *templates.Renderer, converter *markdown.Converter, manifest *docs.ManifestBuilder) foundation.Result[templates.PageInfo] {
	text, err := doc.LoadText()
	if err != nil {
		return foundation.Err[templates.PageInfo](err)
	}
	manifest.Add(doc.RelativePath, []byte(text))

	rel := OutputPath(doc.RelativePath)

	converted, err := converter.Transform([]byte(text), doc.Name)
	if err != nil {
		return foundation.Err[templates.PageInfo](fmt.Errorf("convert: %w", err))
	}

	rendered, err := renderer.RenderPage(converted.HTML, converted.Title, g.config.SiteTitle, g.config.BaseURL)
	if err != nil {
		return foundation.Err[templates.PageInfo](err)
	}

	outPath := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := textio.WriteFileAtomic(outPath, []byte(rendered)); err != nil {
		return foundation.Err[templates.PageInfo](fmt.Errorf("write %s: %w", outPath, err))
	}

	return foundation.Ok(templates.PageInfo{Title: converted.Title, RelativePath: rel})
}

func (g *Generator) writeIndex(renderer *templates.Renderer, pages []templates.PageInfo, outputDir string) error {
	rendered, err := renderer.RenderIndex(pages, g.config.SiteTitle, g.config.BaseURL)
	if err != nil {
		return err
	}
	return textio.WriteFileAtomic(filepath.Join(outputDir, indexFile), []byte(rendered))
}

// copyStaticAssets copies the shipped stylesheet and script into
// <outputDir>/static. A missing shipped file is an error.
func (g *Generator) copyStaticAssets(outputDir string) error {
	staticDir := filepath.Join(outputDir, "static")
	if err := textio.EnsureDir(staticDir); err != nil {
		return err
	}
	for _, name := range templates.StaticFiles {
		if err := copyFromFS(g.staticFS, name, filepath.Join(staticDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func copyFromFS(fsys fs.FS, name, dst string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open static asset %s: %w", name, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return textio.CopyReader(f, dst, 0o644)
}

// copyImageAssets mirrors discovered images and PDFs into outputDir, stopping
// at the first failure.
func (g *Generator) copyImageAssets(discovery *docs.Discovery, outputDir string) error {
	assets, err := discovery.Assets()
	if err != nil {
		return err
	}
	for _, asset := range assets {
		dst := filepath.Join(outputDir, filepath.FromSlash(asset.RelativePath))
		if err := textio.CopyFile(asset.Path, dst); err != nil {
			return fmt.Errorf("copy %s: %w", asset.RelativePath, err)
		}
	}
	return nil
}
