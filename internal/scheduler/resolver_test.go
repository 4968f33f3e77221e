package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborsched/arbor/internal/ingest"
)

func strPtr(s string) *string { return &s }

// TestResolveBounds_DependencyGapPropagatesIntoSuccessorES verifies invariant
// 1: a successor's earliest start is pushed out by its predecessor's
// estimated end plus the declared gap.
func TestResolveBounds_DependencyGapPropagatesIntoSuccessorES(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-03-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "a", Kind: "effort", Effort: 8},
			{Name: "b", Kind: "effort", Effort: 8, Depends: []ingest.DependencyDoc{{Target: "a", GapDuration: "24h"}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	ctx := newRunContext(t, graph, scenarioID, graph.Project.Start)

	bounds, err := ResolveBounds(ctx)
	require.NoError(t, err)

	aID := taskIDByPath(t, graph, "a")
	bID := taskIDByPath(t, graph, "b")

	assert.EqualValues(t, 0, bounds[aID].ES)
	// a's minimum span is ceil(8/1.0) = 8 slots, plus the 24h (24-slot) gap.
	assert.EqualValues(t, 32, bounds[bID].ES)
}

// TestResolveBounds_MaxStartViolationForcesInfeasibleBounds is the
// regression test for the maxStart/minEnd wiring: a fixed start beyond
// maxStart must fold into ES > LF so the driver's single infeasibility
// check catches it.
func TestResolveBounds_MaxStartViolationForcesInfeasibleBounds(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-03-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 8, Start: strPtr("2024-02-01T00:00:00Z"), MaxStart: strPtr("2024-01-15T00:00:00Z")},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	ctx := newRunContext(t, graph, scenarioID, graph.Project.Start)

	bounds, err := ResolveBounds(ctx)
	require.NoError(t, err)

	id := taskIDByPath(t, graph, "t")
	assert.Greater(t, bounds[id].ES, bounds[id].LF, "a start past maxStart must force ES > LF")
}

// TestResolveBounds_MinEndViolationForcesInfeasibleBounds mirrors the
// maxStart case for the symmetric minEnd bound.
func TestResolveBounds_MinEndViolationForcesInfeasibleBounds(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-03-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 8, End: strPtr("2024-01-05T00:00:00Z"), MinEnd: strPtr("2024-01-20T00:00:00Z")},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	ctx := newRunContext(t, graph, scenarioID, graph.Project.Start)

	bounds, err := ResolveBounds(ctx)
	require.NoError(t, err)

	id := taskIDByPath(t, graph, "t")
	assert.Greater(t, bounds[id].ES, bounds[id].LF, "a fixed end before minEnd must force ES > LF")
}

// TestResolveBounds_CycleOfThree_NamesAllThreeTasks covers the cycle
// boundary behaviour: Kahn's algorithm stalls on every member of the
// cycle, and describeCycle must name all of them.
func TestResolveBounds_CycleOfThree_NamesAllThreeTasks(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-03-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "a", Kind: "milestone", Depends: []ingest.DependencyDoc{{Target: "b"}}},
			{Name: "b", Kind: "milestone", Depends: []ingest.DependencyDoc{{Target: "c"}}},
			{Name: "c", Kind: "milestone", Depends: []ingest.DependencyDoc{{Target: "a"}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	ctx := newRunContext(t, graph, scenarioID, graph.Project.Start)

	_, err := ResolveBounds(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "c")
}
