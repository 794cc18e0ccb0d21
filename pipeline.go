package tripflow

import (
	"fmt"
	"strings"
)

// Pipeline declares a fixed, linear order of stages. Every run visits every
// stage exactly once, in order, regardless of individual stage outcomes. A
// complete audit trail is preferred over short-circuiting: an early failure
// does not prevent later, independent stages from attempting their work.
type Pipeline struct {
	stages []Stage
	index  map[Stage]int
}

// NewPipeline returns a pipeline that runs the given stages in order.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}
	index := make(map[Stage]int, len(stages))
	for i, stage := range stages {
		if stage == "" {
			return nil, fmt.Errorf("stage name required")
		}
		if _, ok := index[stage]; ok {
			return nil, fmt.Errorf("duplicate stage %q", stage)
		}
		index[stage] = i
	}
	return &Pipeline{stages: stages, index: index}, nil
}

// DefaultPipeline returns the standard trip planning pipeline:
// weather, route, events, budget, itinerary, flights, trains,
// calendar, summary.
func DefaultPipeline() *Pipeline {
	p, err := NewPipeline(Stages()...)
	if err != nil {
		panic(err)
	}
	return p
}

// Stages returns the pipeline's stages in execution order.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// First returns the entry stage.
func (p *Pipeline) First() Stage {
	return p.stages[0]
}

// Terminal returns the final stage.
func (p *Pipeline) Terminal() Stage {
	return p.stages[len(p.stages)-1]
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Contains reports whether the pipeline includes the given stage.
func (p *Pipeline) Contains(stage Stage) bool {
	_, ok := p.index[stage]
	return ok
}

// Next returns the stage that follows the given one. The second return is
// false for the terminal stage and for stages not in the pipeline.
func (p *Pipeline) Next(stage Stage) (Stage, bool) {
	i, ok := p.index[stage]
	if !ok || i+1 >= len(p.stages) {
		return "", false
	}
	return p.stages[i+1], true
}

// Remaining returns the stages not yet attempted given a current_step token
// such as "route_completed" or "route_error". An empty or unrecognized token
// means no stage has been attempted, so all stages remain.
func (p *Pipeline) Remaining(currentStep string) []Stage {
	stage, ok := p.stageFromStep(currentStep)
	if !ok {
		return p.Stages()
	}
	i := p.index[stage]
	out := make([]Stage, len(p.stages)-i-1)
	copy(out, p.stages[i+1:])
	return out
}

// stageFromStep extracts the stage name from a current_step token.
func (p *Pipeline) stageFromStep(step string) (Stage, bool) {
	var name string
	switch {
	case strings.HasSuffix(step, "_completed"):
		name = strings.TrimSuffix(step, "_completed")
	case strings.HasSuffix(step, "_error"):
		name = strings.TrimSuffix(step, "_error")
	default:
		return "", false
	}
	stage := Stage(name)
	if _, ok := p.index[stage]; !ok {
		return "", false
	}
	return stage, true
}
