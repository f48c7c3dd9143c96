package config

import (
	"fmt"
	"sort"
)

// Validate lints a parsed pipeline definition. It checks the properties
// a config file must satisfy before a runner may accept it: every
// workflow entry resolves to a defined job, jobs have runnable steps,
// and requires edges between a workflow's jobs form no cycle.
func (c *Config) Validate() error {
	if len(c.Jobs) == 0 {
		return fmt.Errorf("config defines no jobs")
	}
	if len(c.Workflows) == 0 {
		return fmt.Errorf("config defines no workflows")
	}

	for name, job := range c.Jobs {
		if err := validateJob(name, job); err != nil {
			return err
		}
	}

	// Stable iteration keeps error messages deterministic.
	wfNames := make([]string, 0, len(c.Workflows))
	for name := range c.Workflows {
		wfNames = append(wfNames, name)
	}
	sort.Strings(wfNames)

	for _, name := range wfNames {
		if err := c.validateWorkflow(name, c.Workflows[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateJob(name string, job Job) error {
	if len(job.Steps) == 0 {
		return fmt.Errorf("job %q has no steps", name)
	}
	for i, img := range job.Docker {
		if img.Image == "" {
			return fmt.Errorf("job %q: docker entry %d has an empty image", name, i)
		}
	}
	for i, step := range job.Steps {
		if step.Checkout {
			continue
		}
		if step.Command == "" {
			return fmt.Errorf("job %q: step %d has an empty command", name, i)
		}
	}
	return nil
}

func (c *Config) validateWorkflow(name string, wf Workflow) error {
	if len(wf.Jobs) == 0 {
		return fmt.Errorf("workflow %q lists no jobs", name)
	}

	members := make(map[string]WorkflowJob, len(wf.Jobs))
	for _, entry := range wf.Jobs {
		if _, ok := c.Jobs[entry.Name]; !ok {
			return fmt.Errorf("workflow %q references unknown job %q", name, entry.Name)
		}
		if _, dup := members[entry.Name]; dup {
			return fmt.Errorf("workflow %q lists job %q more than once", name, entry.Name)
		}
		members[entry.Name] = entry
	}

	for _, entry := range wf.Jobs {
		for _, req := range entry.Requires {
			if _, ok := members[req]; !ok {
				return fmt.Errorf("workflow %q: job %q requires %q, which is not in the workflow", name, entry.Name, req)
			}
			if req == entry.Name {
				return fmt.Errorf("workflow %q: job %q requires itself", name, entry.Name)
			}
		}
	}

	if cycle := findCycle(wf.Jobs); cycle != nil {
		return fmt.Errorf("workflow %q has a requires cycle: %v", name, cycle)
	}
	return nil
}

// findCycle runs Kahn's algorithm over the workflow's requires edges.
// It returns the names left unordered when a cycle exists, sorted for a
// stable error message, or nil when the graph is acyclic.
func findCycle(jobs []WorkflowJob) []string {
	indeg := make(map[string]int, len(jobs))
	dependents := make(map[string][]string, len(jobs))
	for _, j := range jobs {
		if _, ok := indeg[j.Name]; !ok {
			indeg[j.Name] = 0
		}
		for _, req := range j.Requires {
			indeg[j.Name]++
			dependents[req] = append(dependents[req], j.Name)
		}
	}

	queue := make([]string, 0, len(jobs))
	for name, d := range indeg {
		if d == 0 {
			queue = append(queue, name)
		}
	}

	ordered := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered++
		for _, dep := range dependents[name] {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if ordered == len(jobs) {
		return nil
	}

	var stuck []string
	for name, d := range indeg {
		if d > 0 {
			stuck = append(stuck, name)
		}
	}
	sort.Strings(stuck)
	return stuck
}
