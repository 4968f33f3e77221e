package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

func docWithScenario() *Document {
	doc := minimalDoc()
	doc.Scenarios = []ScenarioDoc{{Name: "Baseline"}}
	return doc
}

func TestExportBookings_AddressesByPathAndResourceName(t *testing.T) {
	doc := docWithScenario()
	g, err := Build(doc)
	require.NoError(t, err)

	var scenarioID domain.ScenarioID
	for id, s := range g.Scenarios {
		if s.Name == "Baseline" {
			scenarioID = id
		}
	}
	require.NotZero(t, scenarioID)

	wireframes := taskByPath(g, "design.wireframes")
	require.NotNil(t, wireframes)
	var alice domain.EntityID
	for id, r := range g.Resources {
		if r.Name == "alice" {
			alice = id
		}
	}
	require.NotZero(t, alice)

	store := propstore.New(g)
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	booking := []domain.Booking{{ResourceID: alice, Start: start, End: end, EfficiencyShare: 1}}
	require.NoError(t, store.SetDerived(wireframes.ID, scenarioID, propstore.AttrBookings, booking))

	export, err := ExportBookings(g, store, scenarioID)
	require.NoError(t, err)
	require.Equal(t, "Baseline", export.ScenarioName)
	require.Len(t, export.Bookings, 1)
	eb := export.Bookings[0]
	require.Equal(t, "design.wireframes", eb.TaskPath)
	require.Equal(t, "alice", eb.Resource)
	require.Equal(t, start.Format(time.RFC3339), eb.Start)
}

func TestApplyBookings_FoldsIntoDocumentForReingestion(t *testing.T) {
	doc := docWithScenario()
	g, err := Build(doc)
	require.NoError(t, err)

	var scenarioID domain.ScenarioID
	for id := range g.Scenarios {
		scenarioID = id
	}
	wireframes := taskByPath(g, "design.wireframes")
	var alice domain.EntityID
	for id, r := range g.Resources {
		if r.Name == "alice" {
			alice = id
		}
	}
	store := propstore.New(g)
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	require.NoError(t, store.SetDerived(wireframes.ID, scenarioID, propstore.AttrBookings,
		[]domain.Booking{{ResourceID: alice, Start: start, End: end, EfficiencyShare: 1}}))

	export, err := ExportBookings(g, store, scenarioID)
	require.NoError(t, err)

	reDoc := docWithScenario()
	require.NoError(t, ApplyBookings(reDoc, export))

	g2, err := Build(reDoc)
	require.NoError(t, err)
	wireframes2 := taskByPath(g2, "design.wireframes")
	require.Len(t, wireframes2.BookingsInput, 1)
	require.Equal(t, start, wireframes2.BookingsInput[0].Start.UTC())
}

func TestApplyBookings_UnknownTaskPathFails(t *testing.T) {
	export := BookingExport{
		ScenarioName: "Baseline",
		Bookings:     []ExportedBooking{{TaskPath: "does.not.exist", Start: "2026-01-01T00:00:00Z", End: "2026-01-01T01:00:00Z"}},
	}
	doc := docWithScenario()
	require.Error(t, ApplyBookings(doc, export))
}
