package commands

import (
	"context"

	"git.home.luguber.info/inful/docweave/internal/pipeline"
)

// MetadataCmd implements the 'metadata' command.
type MetadataCmd struct{}

func (m *MetadataCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	return runPipeline(ctx, g, root, pipeline.StageMetadata)
}
