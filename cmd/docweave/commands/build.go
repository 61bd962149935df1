package commands

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/docweave/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Stages []string `name:"stage" sep:"," help:"Run only these stages and their prerequisites (fetch, collect, auxiliary, metadata, index, sidebar, docs_index, sitemap)"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	stages := make([]pipeline.StageName, 0, len(b.Stages))
	for _, s := range b.Stages {
		if s = strings.TrimSpace(s); s != "" {
			stages = append(stages, pipeline.StageName(s))
		}
	}
	g.printf("Starting docweave build\n")
	return runPipeline(ctx, g, root, stages...)
}
