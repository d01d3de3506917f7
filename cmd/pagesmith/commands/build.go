package commands

import (
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/linkverify"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	InputDir    string `arg:"" name:"input-dir" help:"Input directory containing Markdown files" type:"path"`
	Templates   string `name:"templates" help:"Directory with page.html / index.html overrides" env:"PAGESMITH_TEMPLATES" type:"path"`
	CheckLinks  bool   `name:"check-links" help:"Check internal links in the generated site" env:"PAGESMITH_CHECK_LINKS"`
	Report      string `name:"report" help:"Write a JSON build report to this file" env:"PAGESMITH_REPORT" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile collector format" env:"PAGESMITH_METRICS_FILE" type:"path"`
}

func (b *BuildCmd) Run(g *Global, _ *CLI) error {
	if err := validateInputDir(b.InputDir); err != nil {
		return err
	}

	reg := prom.NewRegistry()
	res, cfg, err := buildSite(g, b.InputDir, b.Templates, reg)
	if err != nil {
		return err
	}

	if b.Report != "" {
		if err := res.Report.Persist(b.Report); err != nil {
			g.Logger.Warn("Failed to write build report", logfields.Path(b.Report), logfields.Error(err))
		}
	}
	if b.MetricsFile != "" {
		if err := metrics.WriteTextfile(reg, b.MetricsFile); err != nil {
			g.Logger.Warn("Failed to write metrics file", logfields.Path(b.MetricsFile), logfields.Error(err))
		}
	}

	if res.Empty() {
		_, _ = fmt.Fprintln(g.Stdout, "Warning: No Markdown files found to convert.")
		return nil
	}

	printSummary(g, res)

	if b.CheckLinks {
		checkLinks(g, res.OutputDir, cfg.BaseURL)
	}

	if res.FailureCount > 0 {
		return exitError{code: 1}
	}
	return nil
}

// buildSite loads the configuration for inputDir and generates the site,
// recording metrics into reg.
func buildSite(g *Global, inputDir, templatesDir string, reg *prom.Registry) (*site.Result, config.SiteConfig, error) {
	cfg, warnings := config.Load(inputDir)
	logConfigWarnings(g.Logger, warnings)
	if templatesDir != "" {
		cfg.TemplatesDir = templatesDir
	}
	cfg = cfg.WithTemplatesDirFrom(inputDir)

	g.Logger.Info("Starting site generation",
		logfields.Path(inputDir),
		logfields.Output(cfg.OutputDir),
		logfields.Count(len(cfg.Exclude)))

	gen := site.NewGenerator(cfg,
		site.WithLogger(g.Logger),
		site.WithRecorder(metrics.NewPrometheusRecorder(reg)),
	)
	res, err := gen.Generate(inputDir)
	if err != nil {
		return nil, cfg, err
	}
	g.Logger.Info("Site generation finished", slog.String("summary", res.Report.Summary()))
	return res, cfg, nil
}

func printSummary(g *Global, res *site.Result) {
	_, _ = fmt.Fprintf(g.Stdout, "Conversion completed: %d success, %d failures\n", res.SuccessCount, res.FailureCount)
	if len(res.Errors) == 0 {
		return
	}
	_, _ = fmt.Fprintln(g.Stderr, "\nErrors encountered:")
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(g.Stderr, "  %s\n", e.Error())
	}
}

// checkLinks logs broken internal links. It never changes the exit status.
func checkLinks(g *Global, outputDir, baseURL string) {
	v, err := linkverify.NewVerifier(outputDir, baseURL, g.Logger)
	if err != nil {
		g.Logger.Warn("Link check skipped", logfields.Error(err))
		return
	}
	report, err := v.VerifySite(g.Context)
	if err != nil {
		g.Logger.Warn("Link check failed", logfields.Error(err))
		return
	}
	for _, b := range report.Broken {
		g.Logger.Warn("Broken link",
			logfields.File(b.Page),
			logfields.URL(b.URL),
			slog.String("tag", b.Tag),
			slog.String("reason", b.Reason))
	}
	g.Logger.Info("Link check completed",
		slog.Int("pages", report.Pages),
		slog.Int("checked", report.Checked),
		slog.Int("broken", len(report.Broken)))
}
