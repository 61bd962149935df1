package commands

import (
	"context"

	"git.home.luguber.info/inful/docweave/internal/pipeline"
)

// CollectCmd implements the 'collect' command: fragments are materialized but no
// navigation or index files are regenerated.
type CollectCmd struct {
	SkipAuxiliary bool `name:"skip-auxiliary" help:"Do not copy auxiliary top-level documents"`
}

func (c *CollectCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	stages := []pipeline.StageName{pipeline.StageCollect}
	if !c.SkipAuxiliary {
		stages = append(stages, pipeline.StageAuxiliary)
	}
	return runPipeline(ctx, g, root, stages...)
}
