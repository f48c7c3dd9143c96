package core

import (
	"reflect"
	"testing"

	"mechci/internal/config"
)

func TestLevelsIndependentJobs(t *testing.T) {
	wf := config.Workflow{Jobs: []config.WorkflowJob{
		{Name: "test-ratefit"},
		{Name: "test-mechanalyzer"},
	}}

	levels, err := NewScheduler().Levels(wf)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	want := [][]string{{"test-mechanalyzer", "test-ratefit"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels: got %v, want %v", levels, want)
	}
}

func TestLevelsChain(t *testing.T) {
	wf := config.Workflow{Jobs: []config.WorkflowJob{
		{Name: "build-dsarrfit"},
		{Name: "build-troefit"},
		{Name: "test-ratefit", Requires: []string{"build-dsarrfit", "build-troefit"}},
		{Name: "report", Requires: []string{"test-ratefit"}},
	}}

	levels, err := NewScheduler().Levels(wf)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	want := [][]string{
		{"build-dsarrfit", "build-troefit"},
		{"test-ratefit"},
		{"report"},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels: got %v, want %v", levels, want)
	}
}

func TestLevelsUnknownRequire(t *testing.T) {
	wf := config.Workflow{Jobs: []config.WorkflowJob{
		{Name: "test-ratefit", Requires: []string{"ghost"}},
	}}
	if _, err := NewScheduler().Levels(wf); err == nil {
		t.Error("expected error for unknown required job")
	}
}
