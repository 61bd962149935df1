package commands

import (
	"path/filepath"

	"git.home.luguber.info/inful/docweave/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated config file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if i.Output != "" {
		return RunInit(g, filepath.Join(i.Output, config.DefaultFile), i.Force)
	}
	return RunInit(g, root.Config, i.Force)
}

// RunInit writes the example configuration to configPath.
func RunInit(g *Global, configPath string, force bool) error {
	g.printf("Initializing docweave project\n")
	g.printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		g.printf("Initialization failed\n")
		return err
	}
	g.printf("initialized successfully\n")
	return nil
}
