package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the root of a pipeline definition file. It maps job names to
// job specs and workflow names to the job sets a push should trigger.
type Config struct {
	Version   int                 `yaml:"version"`
	Jobs      map[string]Job      `yaml:"jobs"`
	Workflows map[string]Workflow `yaml:"workflows"`
}

// Job is an isolated execution unit: a container image, a working
// directory and an ordered list of steps.
type Job struct {
	Docker           []DockerImage `yaml:"docker"`
	WorkingDirectory string        `yaml:"working_directory"`
	Steps            []Step        `yaml:"steps"`
}

// DockerImage names the container a job runs inside.
type DockerImage struct {
	Image string `yaml:"image"`
}

// Step is either a bare checkout or a named run command.
type Step struct {
	Checkout bool
	Name     string
	Command  string
}

// UnmarshalYAML accepts the two step forms used by job specs:
//
//   - checkout
//   - run:
//     name: Create env
//     command: conda env create -f environment.yml
//
// A run step may also be given as a plain scalar command.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "checkout" {
			return fmt.Errorf("line %d: unknown step %q (only checkout may be bare)", node.Line, node.Value)
		}
		s.Checkout = true
		return nil

	case yaml.MappingNode:
		var wrapper struct {
			Run yaml.Node `yaml:"run"`
		}
		if err := node.Decode(&wrapper); err != nil {
			return err
		}
		switch wrapper.Run.Kind {
		case yaml.ScalarNode:
			s.Command = wrapper.Run.Value
			return nil
		case yaml.MappingNode:
			var run struct {
				Name    string `yaml:"name"`
				Command string `yaml:"command"`
			}
			if err := wrapper.Run.Decode(&run); err != nil {
				return err
			}
			s.Name = run.Name
			s.Command = run.Command
			return nil
		}
		return fmt.Errorf("line %d: run step must be a command or a name/command mapping", node.Line)
	}
	return fmt.Errorf("line %d: step must be a scalar or a mapping", node.Line)
}

// Label returns the step's display name for logs and ledger records.
func (s Step) Label() string {
	if s.Checkout {
		return "checkout"
	}
	if s.Name != "" {
		return s.Name
	}
	return s.Command
}

// Workflow lists the jobs a trigger should run, with optional ordering
// constraints between them.
type Workflow struct {
	Jobs []WorkflowJob `yaml:"jobs"`
}

// WorkflowJob is one entry in a workflow's job list. Requires names the
// jobs that must finish before this one starts; an empty list means the
// job is free to run as soon as the workflow does.
type WorkflowJob struct {
	Name     string
	Requires []string
}

// UnmarshalYAML accepts a bare job name or a mapping with requires:
//
//   - test-ratefit
//   - name: test-ratefit
//     requires: [build-extensions]
func (w *WorkflowJob) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		w.Name = node.Value
		return nil
	case yaml.MappingNode:
		var m struct {
			Name     string   `yaml:"name"`
			Requires []string `yaml:"requires"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Name == "" {
			return fmt.Errorf("line %d: workflow job entry is missing a name", node.Line)
		}
		w.Name = m.Name
		w.Requires = m.Requires
		return nil
	}
	return fmt.Errorf("line %d: workflow job must be a name or a mapping", node.Line)
}
