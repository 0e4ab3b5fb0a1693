// Package pipeline defines the YAML pipeline format and its validation.
//
// A pipeline is a set of named jobs forming a dependency graph via `needs`
// edges. Jobs gate the overall run unless marked `required: false`
// (informational jobs, e.g. an advisory security scan).
package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline is a full pipeline definition.
type Pipeline struct {
	Name string `yaml:"name"`
	Jobs []Job  `yaml:"jobs"`
}

// Job is a unit of work in the pipeline graph.
type Job struct {
	Name string `yaml:"name"`
	// Run is the shell command, executed as `sh -c`.
	Run string `yaml:"run"`
	// Image, when set, runs the command in a container instead of a
	// host process.
	Image string            `yaml:"image,omitempty"`
	Env   map[string]string `yaml:"env,omitempty"`
	// Needs lists jobs that must succeed before this one starts.
	Needs []string `yaml:"needs,omitempty"`
	// Required defaults to true. Informational jobs set it to false;
	// their result is reported but never gates the run.
	Required *bool    `yaml:"required,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty"`
}

// IsRequired reports whether the job gates the overall outcome.
func (j Job) IsRequired() bool {
	return j.Required == nil || *j.Required
}

// Duration wraps time.Duration so timeouts can be written as "5m" or "90s"
// in pipeline files.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Parse parses YAML content into a validated Pipeline.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads and parses a pipeline file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	return Parse(data)
}

// JobNames returns job names in definition order.
func (p *Pipeline) JobNames() []string {
	names := make([]string, len(p.Jobs))
	for i, j := range p.Jobs {
		names[i] = j.Name
	}
	return names
}

// RequiredNames returns the names of gating jobs in definition order.
func (p *Pipeline) RequiredNames() []string {
	var names []string
	for _, j := range p.Jobs {
		if j.IsRequired() {
			names = append(names, j.Name)
		}
	}
	return names
}
