package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Version: 2,
		Jobs: map[string]Job{
			"test-ratefit": {
				Docker: []DockerImage{{Image: "continuumio/miniconda3"}},
				Steps: []Step{
					{Checkout: true},
					{Name: "Test ratefit", Command: "pytest -v --cov=ratefit"},
				},
			},
			"test-mechanalyzer": {
				Docker: []DockerImage{{Image: "continuumio/miniconda3"}},
				Steps: []Step{
					{Checkout: true},
					{Command: "pytest -v --cov=mechanalyzer"},
				},
			},
		},
		Workflows: map[string]Workflow{
			"all-tests": {Jobs: []WorkflowJob{
				{Name: "test-ratefit"},
				{Name: "test-mechanalyzer"},
			}},
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidateUnknownWorkflowJob(t *testing.T) {
	cfg := validConfig()
	cfg.Workflows["all-tests"] = Workflow{Jobs: []WorkflowJob{{Name: "missing-job"}}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown workflow job")
	}
	if !strings.Contains(err.Error(), "missing-job") {
		t.Errorf("error should name the missing job: %v", err)
	}
}

func TestValidateEmptyCommand(t *testing.T) {
	cfg := validConfig()
	job := cfg.Jobs["test-ratefit"]
	job.Steps = append(job.Steps, Step{Name: "broken"})
	cfg.Jobs["test-ratefit"] = job

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for run step with empty command")
	}
}

func TestValidateEmptyDockerImage(t *testing.T) {
	cfg := validConfig()
	job := cfg.Jobs["test-ratefit"]
	job.Docker = append(job.Docker, DockerImage{})
	cfg.Jobs["test-ratefit"] = job

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for docker entry with empty image")
	}
	if !strings.Contains(err.Error(), "image") {
		t.Errorf("error should mention the image: %v", err)
	}
}

func TestValidateJobWithNoSteps(t *testing.T) {
	cfg := validConfig()
	cfg.Jobs["empty"] = Job{}
	cfg.Workflows["all-tests"] = Workflow{Jobs: []WorkflowJob{{Name: "empty"}}}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for job with no steps")
	}
}

func TestValidateDuplicateWorkflowEntry(t *testing.T) {
	cfg := validConfig()
	cfg.Workflows["all-tests"] = Workflow{Jobs: []WorkflowJob{
		{Name: "test-ratefit"},
		{Name: "test-ratefit"},
	}}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for duplicate workflow entry")
	}
}

func TestValidateRequiresOutsideWorkflow(t *testing.T) {
	cfg := validConfig()
	cfg.Workflows["all-tests"] = Workflow{Jobs: []WorkflowJob{
		{Name: "test-ratefit", Requires: []string{"test-mechanalyzer"}},
	}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when requires names a job outside the workflow")
	}
}

func TestValidateRequiresCycle(t *testing.T) {
	cfg := validConfig()
	cfg.Workflows["all-tests"] = Workflow{Jobs: []WorkflowJob{
		{Name: "test-ratefit", Requires: []string{"test-mechanalyzer"}},
		{Name: "test-mechanalyzer", Requires: []string{"test-ratefit"}},
	}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for requires cycle")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error should mention the cycle: %v", err)
	}
}

func TestValidateSelfRequire(t *testing.T) {
	cfg := validConfig()
	cfg.Workflows["all-tests"] = Workflow{Jobs: []WorkflowJob{
		{Name: "test-ratefit", Requires: []string{"test-ratefit"}},
	}}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for self-requiring job")
	}
}
