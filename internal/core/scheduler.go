package core

import (
	"fmt"
	"sort"

	"mechci/internal/config"
)

// Scheduler decides the execution order of a workflow's jobs.
type Scheduler struct{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Levels groups a workflow's jobs into dependency levels. Jobs in the
// same level have no ordering constraints between them and may run in
// parallel; a level only starts once every earlier level finished.
// The workflow must already have passed Config.Validate.
func (s *Scheduler) Levels(wf config.Workflow) ([][]string, error) {
	depth := make(map[string]int, len(wf.Jobs))
	requires := make(map[string][]string, len(wf.Jobs))
	for _, j := range wf.Jobs {
		depth[j.Name] = 0
		requires[j.Name] = j.Requires
	}

	// Relax depths; with an acyclic graph this settles in at most
	// len(jobs) passes.
	for i := 0; i < len(wf.Jobs); i++ {
		changed := false
		for name, reqs := range requires {
			for _, req := range reqs {
				if _, ok := depth[req]; !ok {
					return nil, fmt.Errorf("job %q requires unknown job %q", name, req)
				}
				if depth[req]+1 > depth[name] {
					depth[name] = depth[req] + 1
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for name, d := range depth {
		levels[d] = append(levels[d], name)
	}
	for _, level := range levels {
		sort.Strings(level)
	}
	return levels, nil
}
