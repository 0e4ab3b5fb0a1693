package pipeline

import (
	"fmt"
)

// Validate checks the pipeline definition: names must be unique and
// non-empty, every job needs a command, `needs` edges must reference
// defined jobs, and the graph must be acyclic.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(p.Jobs) == 0 {
		return fmt.Errorf("pipeline %q has no jobs", p.Name)
	}

	byName := make(map[string]Job, len(p.Jobs))
	for _, j := range p.Jobs {
		if j.Name == "" {
			return fmt.Errorf("pipeline %q: job with empty name", p.Name)
		}
		if _, dup := byName[j.Name]; dup {
			return fmt.Errorf("duplicate job name %q", j.Name)
		}
		if j.Run == "" {
			return fmt.Errorf("job %q: run command is required", j.Name)
		}
		byName[j.Name] = j
	}

	for _, j := range p.Jobs {
		for _, need := range j.Needs {
			if need == j.Name {
				return fmt.Errorf("job %q needs itself", j.Name)
			}
			if _, ok := byName[need]; !ok {
				return fmt.Errorf("job %q needs unknown job %q", j.Name, need)
			}
		}
	}

	return p.checkAcyclic(byName)
}

// checkAcyclic runs a three-color DFS over the needs graph.
func (p *Pipeline) checkAcyclic(byName map[string]Job) error {
	const (
		white = iota // unvisited
		grey         // on the current DFS path
		black        // fully explored
	)
	color := make(map[string]int, len(byName))

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case grey:
			return fmt.Errorf("dependency cycle involving job %q", name)
		case black:
			return nil
		}
		color[name] = grey
		for _, need := range byName[name].Needs {
			if err := visit(need); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, j := range p.Jobs {
		if err := visit(j.Name); err != nil {
			return err
		}
	}
	return nil
}
