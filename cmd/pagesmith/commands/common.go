// Package commands implements the pagesmith command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/version"
)

// EnvFile is loaded from the working directory before flags are parsed.
// Variables already set in the environment win.
const EnvFile = ".env"

// Global context passed to subcommands.
type Global struct {
	Context context.Context
	Logger  *slog.Logger
	Stdout  io.Writer
	Stderr  io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging" env:"PAGESMITH_VERBOSE"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Convert a directory of Markdown files into a static site (default command)"`
	Init  InitCmd  `cmd:"" help:"Write an example .site.yml into a directory"`
	Serve ServeCmd `cmd:"" help:"Serve a generated site over HTTP"`

	logOut io.Writer
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	out := c.logOut
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// exitError carries an exit status for an outcome already reported to the user.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute parses args, runs the selected command and returns the process exit
// code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	envErr := loadEnvFile()

	cli := &CLI{logOut: stderr}
	exitCode := -1
	parser, err := kong.New(cli,
		kong.Name("pagesmith"),
		kong.Description("Convert a directory tree of Markdown documents into a static HTML site."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
	)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(false, nil).WithOutput(stderr).
			Report(ferrors.InternalError("failed to build command line parser").WithCause(err).Build())
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return ferrors.ExitUsage
	}

	if envErr != nil {
		slog.Warn("Failed to load environment file", logfields.Path(EnvFile), logfields.Error(envErr))
	}

	global := &Global{
		Context: ctx,
		Logger:  slog.Default(),
		Stdout:  stdout,
		Stderr:  stderr,
	}

	err = kctx.Run(global, cli)
	if err == nil {
		return ferrors.ExitOK
	}

	var exit exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	return ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).WithOutput(stderr).Report(err)
}

// loadEnvFile loads EnvFile when present. A missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// validateInputDir distinguishes a missing input directory from a path that is
// not a directory.
func validateInputDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ferrors.NewError(ferrors.CategoryNotFound, "input directory not found").
			WithContext("path", dir).
			Build()
	case err != nil:
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot access input directory").
			WithContext("path", dir).
			Build()
	case !info.IsDir():
		return ferrors.ValidationError("input path is not a directory").
			WithContext("path", dir).
			Build()
	}
	return nil
}

func logConfigWarnings(logger *slog.Logger, warnings []error) {
	for _, w := range warnings {
		logger.Warn("Configuration warning", logfields.Error(w))
	}
}
