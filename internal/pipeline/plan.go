package pipeline

import (
	"fmt"
	"slices"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageFetch     StageName = "fetch"
	StageCollect   StageName = "collect"
	StageAuxiliary StageName = "auxiliary"
	StageMetadata  StageName = "metadata"
	StageIndex     StageName = "index"
	StageSidebar   StageName = "sidebar"
	StageDocsIndex StageName = "docs_index"
	StageSitemap   StageName = "sitemap"
)

// AllStages lists every stage in execution order.
func AllStages() []StageName {
	return []StageName{
		StageFetch, StageCollect, StageAuxiliary, StageMetadata,
		StageIndex, StageSidebar, StageDocsIndex, StageSitemap,
	}
}

// dependencies are stages whose results a stage consumes within the same run. The sidebar
// reads the metadata file when the metadata stage is not planned.
var dependencies = map[StageName][]StageName{
	StageCollect:   {StageFetch},
	StageAuxiliary: {StageFetch},
	StageMetadata:  {StageFetch},
	StageSidebar:   {StageIndex},
	StageDocsIndex: {StageIndex},
	StageSitemap:   {StageIndex},
}

// Plan is an ordered, dependency-closed set of stages.
type Plan struct {
	Stages []StageName
}

// NewPlan resolves the requested stages and their dependencies into execution order. No
// stages means all of them.
func NewPlan(requested ...StageName) (Plan, error) {
	if len(requested) == 0 {
		return Plan{Stages: AllStages()}, nil
	}
	order := AllStages()
	want := make(map[StageName]bool, len(order))
	var add func(StageName) error
	add = func(s StageName) error {
		if !slices.Contains(order, s) {
			return fmt.Errorf("unknown stage %q", s)
		}
		if want[s] {
			return nil
		}
		want[s] = true
		for _, dep := range dependencies[s] {
			if err := add(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, s := range requested {
		if err := add(s); err != nil {
			return Plan{}, err
		}
	}
	p := Plan{}
	for _, s := range order {
		if want[s] {
			p.Stages = append(p.Stages, s)
		}
	}
	return p, nil
}

// Has reports whether the plan runs s.
func (p Plan) Has(s StageName) bool { return slices.Contains(p.Stages, s) }
