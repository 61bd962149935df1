package commands

import (
	"context"

	"git.home.luguber.info/inful/docweave/internal/pipeline"
)

// SidebarCmd implements the 'sidebar' command. Module badges come from the metadata file
// written by an earlier run.
type SidebarCmd struct{}

func (s *SidebarCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runPipeline(ctx, g, root, pipeline.StageSidebar)
}
