package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborsched/arbor/internal/ingest"
	"github.com/arborsched/arbor/internal/testutil"
)

func buildTestGraph(t *testing.T) *ingest.Document {
	t.Helper()
	return &ingest.Document{
		Project: ingest.ProjectDoc{
			Name: "Launch", Start: "2026-01-01T00:00:00Z", End: "2026-12-31T00:00:00Z",
			TimeZone: "UTC", SlotSeconds: 3600, CurrencyPrecision: 2,
		},
		Calendars: []ingest.CalendarDoc{
			{Name: "standard", WorkingTemplateDoc: ingest.WorkingTemplateDoc{
				Weekly: map[string][]ingest.TimeRangeDoc{"monday": {{Start: "09:00", End: "17:00"}}},
			}},
		},
		Resources: []ingest.ResourceDoc{
			{Name: "alice", Efficiency: 1.0, Calendar: "standard"},
		},
		Accounts: []ingest.AccountDoc{{Name: "engineering"}},
		Tasks: []ingest.TaskDoc{
			{
				Name: "design", Kind: "effort",
				Children: []ingest.TaskDoc{
					{
						Name: "wireframes", Kind: "effort", Effort: 8,
						Allocations: []ingest.AllocationDoc{{Resources: []string{"alice"}, Policy: "order"}},
						Charges:     []ingest.ChargeDoc{{Account: "engineering", Amount: 500, Kind: "cost", Timing: "onend"}},
					},
				},
			},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
}

func TestGraphRepository_SaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)

	doc := buildTestGraph(t)
	g, err := ingest.Build(doc)
	require.NoError(t, err)

	repo := NewGraphRepository(database)
	require.NoError(t, repo.SaveGraph(ctx, "proj-1", g))

	loaded, err := repo.LoadGraph(ctx, "proj-1")
	require.NoError(t, err)
	require.True(t, loaded.Frozen())
	require.Equal(t, g.Project.Name, loaded.Project.Name)
	require.Equal(t, len(g.Tasks), len(loaded.Tasks))
	require.Equal(t, len(g.Resources), len(loaded.Resources))
	require.Equal(t, len(g.Calendars), len(loaded.Calendars))

	for _, id := range loaded.TaskOrder {
		task := loaded.Tasks[id]
		if task.DotPath == "design.wireframes" {
			require.Equal(t, 8.0, task.Effort)
			require.Len(t, task.Allocations, 1)
			require.Len(t, task.Charges, 1)
		}
	}
}

func TestGraphRepository_SaveGraphIsIdempotentPerProject(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewTestDB(t)

	doc := buildTestGraph(t)
	g, err := ingest.Build(doc)
	require.NoError(t, err)

	repo := NewGraphRepository(database)
	require.NoError(t, repo.SaveGraph(ctx, "proj-1", g))
	require.NoError(t, repo.SaveGraph(ctx, "proj-1", g))

	loaded, err := repo.LoadGraph(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, len(g.Tasks), len(loaded.Tasks))
}
