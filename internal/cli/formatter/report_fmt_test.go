package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arborsched/arbor/internal/app"
)

func TestFormatScheduleResult_RendersTasksResourcesAndDiagnostics(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	result := &app.ScheduleResult{
		ScenarioName: "Baseline",
		State:        "scheduled",
		Tasks: []app.TaskView{
			{
				DotPath: "design.wireframes", Name: "wireframes",
				Start: &start, End: &end,
				Assignments:     []app.ResourceAssignment{{Resource: "alice", EfficiencyShare: 1}},
				CompletePercent: 50, Cost: 400, Status: "on-track",
			},
			{DotPath: "design.review", Name: "review", Status: "behind"},
		},
		Resources: []app.ResourceView{
			{Name: "alice", UtilisationPercent: 75, Assignments: []app.BookedSlot{{Task: "design.wireframes", Start: start, End: end}}},
		},
		Diagnostics: []app.DiagnosticView{
			{Severity: "warning", Kind: "resource_overallocated", Message: "alice overbooked", Refs: []string{"alice"}},
		},
	}

	out := FormatScheduleResult(result)
	assert.Contains(t, out, "Baseline")
	assert.Contains(t, out, "design.wireframes")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "overbooked")
}

func TestFormatDiagnostics_EmptyShowsNoDiagnostics(t *testing.T) {
	out := FormatDiagnostics(nil)
	assert.Contains(t, out, "no diagnostics")
}

func TestFormatTaskTree_NestsChildrenUnderContainers(t *testing.T) {
	tasks := []app.TaskView{
		{DotPath: "design", Status: "on-track"},
		{DotPath: "design.wireframes", Status: "complete"},
		{DotPath: "design.review", Status: "behind"},
		{DotPath: "build", Status: "on-track"},
	}
	out := FormatTaskTree(tasks)
	assert.Contains(t, out, "design")
	assert.Contains(t, out, "wireframes")
	assert.Contains(t, out, "review")
	assert.Contains(t, out, "build")
}
