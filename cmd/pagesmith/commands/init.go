package commands

import (
	"fmt"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" name:"dir" help:"Input directory to place .site.yml in" default:"." type:"path"`
	Force bool   `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	if err := validateInputDir(i.Dir); err != nil {
		return err
	}
	path, err := config.WriteExample(i.Dir, i.Force)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "initialization failed").
			WithContext("path", i.Dir).
			Build()
	}
	_, _ = fmt.Fprintf(g.Stdout, "Wrote example configuration to %s\n", path)
	return nil
}
