package commands

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	InputDir string `arg:"" name:"input-dir" help:"Input directory whose generated site is served" type:"path"`
	Addr     string `name:"addr" help:"Listen address" default:":8000" env:"PAGESMITH_ADDR"`
	Build    bool   `name:"build" help:"Generate the site before serving"`
}

func (s *ServeCmd) Run(g *Global, _ *CLI) error {
	if err := validateInputDir(s.InputDir); err != nil {
		return err
	}

	reg := prom.NewRegistry()
	var outputDir string
	if s.Build {
		res, _, err := buildSite(g, s.InputDir, "", reg)
		if err != nil {
			return err
		}
		printSummary(g, res)
		outputDir = res.OutputDir
	} else {
		cfg, warnings := config.Load(s.InputDir)
		logConfigWarnings(g.Logger, warnings)
		dir, err := cfg.ResolveOutputDir(s.InputDir)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve output directory").Build()
		}
		outputDir = dir
	}

	srv, err := preview.NewServer(s.Addr, outputDir, preview.WithMetricsHandler(metrics.HTTPHandler(reg)))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotFound, "no generated site to serve, run build first").
			WithContext("path", outputDir).
			Build()
	}
	if err := srv.ListenAndServe(g.Context); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "preview server failed").Build()
	}
	return nil
}
