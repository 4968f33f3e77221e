package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/ingest"
	"github.com/arborsched/arbor/internal/propstore"
	"github.com/arborsched/arbor/internal/timegrid"
)

// stdWeekdayCalendar is the fixture calendar most tests hang their project
// off: Monday-Friday 09:00-17:00, every other hour non-working.
func stdWeekdayCalendar() ingest.CalendarDoc {
	rng := []ingest.TimeRangeDoc{{Start: "09:00", End: "17:00"}}
	return ingest.CalendarDoc{
		Name: "std",
		WorkingTemplateDoc: ingest.WorkingTemplateDoc{
			Weekly: map[string][]ingest.TimeRangeDoc{
				"monday":    rng,
				"tuesday":   rng,
				"wednesday": rng,
				"thursday":  rng,
				"friday":    rng,
			},
		},
	}
}

// buildGraph ingests doc and fails the test on any structural error.
func buildGraph(t *testing.T, doc *ingest.Document) *domain.Graph {
	t.Helper()
	graph, err := ingest.Build(doc)
	require.NoError(t, err)
	return graph
}

// scenarioIDByName resolves a declared scenario's id by its name.
func scenarioIDByName(t *testing.T, graph *domain.Graph, name string) domain.ScenarioID {
	t.Helper()
	for id, s := range graph.Scenarios {
		if s.Name == name {
			return id
		}
	}
	t.Fatalf("no scenario named %q", name)
	return domain.NoScenario
}

// taskIDByPath resolves a task's id by its dot path.
func taskIDByPath(t *testing.T, graph *domain.Graph, path string) domain.EntityID {
	t.Helper()
	for id, tk := range graph.Tasks {
		if tk.DotPath == path {
			return id
		}
	}
	t.Fatalf("no task at path %q", path)
	return domain.NoEntity
}

// resourceIDByName resolves a resource's id by its declared name.
func resourceIDByName(t *testing.T, graph *domain.Graph, name string) domain.EntityID {
	t.Helper()
	for id, r := range graph.Resources {
		if r.Name == name {
			return id
		}
	}
	t.Fatalf("no resource named %q", name)
	return domain.NoEntity
}

// newRunContext assembles the same grid/registry/store/collector/load set
// driver.Schedule wires up internally, for tests that drive a lower-level
// scheduler entrypoint (ResolveBounds, the allocator) directly rather than
// going through Schedule.
func newRunContext(t *testing.T, graph *domain.Graph, scenarioID domain.ScenarioID, now time.Time) *RunContext {
	t.Helper()
	grid, err := timegrid.NewGrid(graph.Project)
	require.NoError(t, err)
	cal := timegrid.NewRegistry(grid, graph)
	store := propstore.New(graph)
	return &RunContext{
		Graph:       graph,
		Grid:        grid,
		Cal:         cal,
		Store:       store,
		ScenarioID:  scenarioID,
		Now:         grid.SlotAt(now),
		Diagnostics: NewCollector(),
		Load:        NewResourceLoad(),
	}
}
