package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/ingest"
	"github.com/arborsched/arbor/internal/propstore"
)

func mustUTC(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}

// TestSchedule_EffortTaskSingleResource_PlacesExactSlots is concrete
// scenario 1: an 8-hour effort task with a single full-time resource,
// against a Monday-Friday 09:00-17:00 calendar, books exactly one working
// day.
func TestSchedule_EffortTaskSingleResource_PlacesExactSlots(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 8, Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}, Policy: "order"}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, domain.ScenarioScheduled, result.State)

	id := taskIDByPath(t, graph, "t")
	start, ok := taskStart(&RunContext{Store: store, ScenarioID: scenarioID}, id)
	require.True(t, ok)
	end, ok := taskEnd(&RunContext{Store: store, ScenarioID: scenarioID}, id)
	require.True(t, ok)

	wantStart := mustUTC(t, "2024-01-01T09:00:00Z")
	wantEnd := mustUTC(t, "2024-01-01T17:00:00Z")

	// Translate slots back to wall-clock via the same grid math Schedule used.
	slotDur := time.Hour
	gotStart := graph.Project.Start.Add(time.Duration(start) * slotDur)
	gotEnd := graph.Project.Start.Add(time.Duration(end) * slotDur)
	assert.True(t, gotStart.Equal(wantStart), "start: got %s want %s", gotStart, wantStart)
	assert.True(t, gotEnd.Equal(wantEnd), "end: got %s want %s", gotEnd, wantEnd)

	bookings, _ := propstore.GetTyped[[]domain.Booking](store, id, scenarioID, propstore.AttrBookings)
	require.Len(t, bookings, 8)
	var totalEffort float64
	for _, bk := range bookings {
		totalEffort += bk.EfficiencyShare
	}
	assert.InDelta(t, 8.0, totalEffort, 1e-9, "booked effort must match declared effort (invariant 4)")
}

// TestSchedule_EffortTaskExactlyOneSlot_FinishesInThatSlot is the boundary
// behaviour: an effort task requiring exactly one slot's worth of work
// finishes within that single slot.
func TestSchedule_EffortTaskExactlyOneSlot_FinishesInThatSlot(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 1, Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	id := taskIDByPath(t, graph, "t")
	start, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrStart)
	end, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrEnd)
	assert.EqualValues(t, end-start, 1, "a 1-slot effort task must finish exactly one slot after it starts")

	bookings, _ := propstore.GetTyped[[]domain.Booking](store, id, scenarioID, propstore.AttrBookings)
	require.Len(t, bookings, 1)
}

// TestSchedule_BackwardDurationTask_EndsAtDeclaredMaxEnd is the boundary
// behaviour for a backward-direction task constrained only by maxEnd: it
// must end exactly at maxEnd, regardless of calendar (duration tasks are
// wall-clock, not working-slot, spans).
func TestSchedule_BackwardDurationTask_EndsAtDeclaredMaxEnd(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "duration", Direction: "backward", DurationSlots: 3, MaxEnd: strPtr("2024-01-15T17:00:00Z")},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	id := taskIDByPath(t, graph, "t")
	end, ok := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrEnd)
	require.True(t, ok)
	gotEnd := graph.Project.Start.Add(time.Duration(end) * time.Hour)
	assert.True(t, gotEnd.Equal(mustUTC(t, "2024-01-15T17:00:00Z")), "got %s", gotEnd)
}

// TestSchedule_MilestoneESExceedsLF_ProducesExactlyOneInfeasibleDiagnostic
// is the regression test for review comment (b): when propagation alone
// (a minStart past a maxEnd, with no maxStart/minEnd involved) makes ES >
// LF, the task-machine must never re-derive the same violation.
func TestSchedule_MilestoneESExceedsLF_ProducesExactlyOneInfeasibleDiagnostic(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "m", Kind: "milestone", MinStart: strPtr("2024-01-10T00:00:00Z"), MaxEnd: strPtr("2024-01-05T00:00:00Z")},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)

	require.Len(t, result.Diagnostics, 1, "ES > LF must produce exactly one diagnostic, not one per advance* path")
	assert.Equal(t, KindInfeasibleBounds, result.Diagnostics[0].Kind)

	id := taskIDByPath(t, graph, "m")
	st, _ := propstore.GetTyped[domain.TaskState](store, id, scenarioID, propstore.AttrState)
	assert.Equal(t, domain.StateInfeasible, st)
	_, hasStart := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrStart)
	assert.False(t, hasStart, "an infeasible milestone must not be assigned a start")
}

// TestSchedule_MaxStartViolation_ProducesExactlyOneConstraintDiagnostic is
// concrete scenario 6 and the regression test for review comment (a): a
// fixed start beyond maxStart must be caught as a single constraint
// diagnostic, with the task left infeasible and unscheduled.
func TestSchedule_MaxStartViolation_ProducesExactlyOneConstraintDiagnostic(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-03-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{
				Name: "t", Kind: "effort", Effort: 8,
				Start: strPtr("2024-02-01T00:00:00Z"), MaxStart: strPtr("2024-01-15T00:00:00Z"),
				Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}},
			},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, KindInfeasibleBounds, result.Diagnostics[0].Kind)

	id := taskIDByPath(t, graph, "t")
	st, _ := propstore.GetTyped[domain.TaskState](store, id, scenarioID, propstore.AttrState)
	assert.Equal(t, domain.StateInfeasible, st)
	bookings, _ := propstore.GetTyped[[]domain.Booking](store, id, scenarioID, propstore.AttrBookings)
	assert.Empty(t, bookings, "a maxStart violation must produce no assignments")
}

// TestSchedule_ContainerHull_MatchesMinStartMaxEndOfChildren is concrete
// scenario 5 and invariant 3: a container's resolved interval is the hull
// (min start, max end) of its scheduled children.
func TestSchedule_ContainerHull_MatchesMinStartMaxEndOfChildren(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r1", Efficiency: 1.0}, {Name: "r2", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{
				Name: "phase", Kind: "milestone",
				Children: []ingest.TaskDoc{
					{Name: "a", Kind: "effort", Effort: 8, Allocations: []ingest.AllocationDoc{{Resources: []string{"r1"}}}},
					{
						Name: "b", Kind: "effort", Effort: 8, MinStart: strPtr("2024-01-02T00:00:00Z"),
						Allocations: []ingest.AllocationDoc{{Resources: []string{"r2"}}},
					},
				},
			},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	phaseID := taskIDByPath(t, graph, "phase")
	aID := taskIDByPath(t, graph, "phase.a")
	bID := taskIDByPath(t, graph, "phase.b")

	phaseStart, _ := propstore.GetTyped[domain.Slot](store, phaseID, scenarioID, propstore.AttrStart)
	phaseEnd, _ := propstore.GetTyped[domain.Slot](store, phaseID, scenarioID, propstore.AttrEnd)
	aStart, _ := propstore.GetTyped[domain.Slot](store, aID, scenarioID, propstore.AttrStart)
	bStart, _ := propstore.GetTyped[domain.Slot](store, bID, scenarioID, propstore.AttrStart)
	bEnd, _ := propstore.GetTyped[domain.Slot](store, bID, scenarioID, propstore.AttrEnd)

	assert.Equal(t, aStart, phaseStart, "container start must equal the min of its children's starts")
	assert.Equal(t, bEnd, phaseEnd, "container end must equal the max of its children's ends")

	gotStart := graph.Project.Start.Add(time.Duration(phaseStart) * time.Hour)
	gotEnd := graph.Project.Start.Add(time.Duration(phaseEnd) * time.Hour)
	assert.True(t, gotStart.Equal(mustUTC(t, "2024-01-01T09:00:00Z")))
	assert.True(t, gotEnd.Equal(mustUTC(t, "2024-01-02T17:00:00Z")))
	_ = bStart
}

// TestSchedule_DependencyGap_SuccessorStartsNoEarlierThanGapAfterPredecessor
// is concrete scenario 2 and invariant 1: a dependent task never starts
// before its predecessor's actual end plus the declared gap.
func TestSchedule_DependencyGap_SuccessorStartsNoEarlierThanGapAfterPredecessor(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{Name: "a", Kind: "effort", Effort: 8, Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}}},
			{
				Name: "b", Kind: "effort", Effort: 8,
				Depends:     []ingest.DependencyDoc{{Target: "a", GapDuration: "24h"}},
				Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}},
			},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	aID := taskIDByPath(t, graph, "a")
	bID := taskIDByPath(t, graph, "b")
	aEnd, _ := propstore.GetTyped[domain.Slot](store, aID, scenarioID, propstore.AttrEnd)
	bStart, _ := propstore.GetTyped[domain.Slot](store, bID, scenarioID, propstore.AttrStart)

	gotAEnd := graph.Project.Start.Add(time.Duration(aEnd) * time.Hour)
	gotBStart := graph.Project.Start.Add(time.Duration(bStart) * time.Hour)
	assert.True(t, !gotBStart.Before(gotAEnd.Add(24*time.Hour)), "b (%s) must start no earlier than a's end (%s) plus the 24h gap", gotBStart, gotAEnd)
}

// TestSchedule_MandatoryAllocationBlockedByVacation_MarksInfeasible covers
// concrete scenario 3's failure mode: a mandatory candidate set that can
// never be satisfied (its only resource is on vacation through the task's
// whole feasible window) is diagnosed and the task is left infeasible.
func TestSchedule_MandatoryAllocationBlockedByVacation_MarksInfeasible(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-01-08T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{
			Name: "r", Efficiency: 1.0,
			Vacations: []ingest.DateIntervalDoc{{Start: "2024-01-01T00:00:00Z", End: "2024-01-08T00:00:00Z"}},
		}},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 8, Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}, Mandatory: true}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)

	var sawMandatoryFailure bool
	for _, d := range result.Diagnostics {
		if d.Kind == KindMandatoryAllocationFailed {
			sawMandatoryFailure = true
		}
	}
	assert.True(t, sawMandatoryFailure, "an unsatisfiable mandatory allocation must be diagnosed")

	id := taskIDByPath(t, graph, "t")
	st, _ := propstore.GetTyped[domain.TaskState](store, id, scenarioID, propstore.AttrState)
	assert.Equal(t, domain.StateInfeasible, st)
}

// TestSchedule_ProjectionWithPriorBookings_CompletesRemainingEffort is
// concrete scenario 4: a task with explicit input bookings treats them as
// ground truth and schedules only the remaining, unbooked effort.
func TestSchedule_ProjectionWithPriorBookings_CompletesRemainingEffort(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{
				Name: "t", Kind: "effort", Effort: 8,
				Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}},
				BookingsInput: []ingest.BookingDoc{
					{Resource: "r", Start: "2024-01-01T09:00:00Z", End: "2024-01-01T13:00:00Z", EfficiencyShare: 1.0},
				},
			},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	id := taskIDByPath(t, graph, "t")
	start, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrStart)
	end, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrEnd)
	gotStart := graph.Project.Start.Add(time.Duration(start) * time.Hour)
	gotEnd := graph.Project.Start.Add(time.Duration(end) * time.Hour)
	assert.True(t, gotStart.Equal(mustUTC(t, "2024-01-01T09:00:00Z")))
	assert.True(t, gotEnd.Equal(mustUTC(t, "2024-01-01T17:00:00Z")))

	bookings, _ := propstore.GetTyped[[]domain.Booking](store, id, scenarioID, propstore.AttrBookings)
	require.Len(t, bookings, 8, "4 booked input hours plus 4 scheduler-placed hours")
}

// TestSchedule_ProjectionSloppyBooking_AcceptsNonWorkingSlotWithAdvisory
// covers the sloppy-bookings path of §4.G: a booking that falls outside
// the working calendar is accepted under sloppy level 2, with an advisory
// diagnostic rather than an error.
func TestSchedule_ProjectionSloppyBooking_AcceptsNonWorkingSlotWithAdvisory(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{
				Name: "t", Kind: "effort", Effort: 1, ActualScheduled: true,
				Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}},
				BookingsInput: []ingest.BookingDoc{
					{Resource: "r", Start: "2024-01-01T07:00:00Z", End: "2024-01-01T08:00:00Z", EfficiencyShare: 1.0, Sloppy: 2},
				},
			},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	result, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)

	var sawAdvisory bool
	for _, d := range result.Diagnostics {
		if d.Kind == KindBookingRoundedSloppy {
			require.Equal(t, SeverityAdvisory, d.Severity)
			sawAdvisory = true
		}
	}
	assert.True(t, sawAdvisory, "a non-working booking under sloppy level 2 must be an advisory, not an error")
}

// TestSchedule_Idempotent_SecondRunProducesNoNewDiagnostics is the
// idempotence round-trip property: scheduling a feasible scenario twice
// back-to-back yields the same result and no diagnostics the second time.
func TestSchedule_Idempotent_SecondRunProducesNoNewDiagnostics(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 8, Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	first, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	require.Empty(t, first.Diagnostics)

	id := taskIDByPath(t, graph, "t")
	start1, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrStart)
	end1, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrEnd)
	bookings1, _ := propstore.GetTyped[[]domain.Booking](store, id, scenarioID, propstore.AttrBookings)

	second, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, second.Diagnostics, "re-scheduling an already-scheduled scenario must not produce new diagnostics")

	start2, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrStart)
	end2, _ := propstore.GetTyped[domain.Slot](store, id, scenarioID, propstore.AttrEnd)
	bookings2, _ := propstore.GetTyped[[]domain.Booking](store, id, scenarioID, propstore.AttrBookings)

	assert.Equal(t, start1, start2)
	assert.Equal(t, end1, end2)
	assert.Equal(t, bookings1, bookings2, "bookings must not be duplicated by a second scheduling pass")
}

// TestSchedule_ScenarioIsolation_SchedulingOneScenarioDoesNotAffectAnother
// is the scenario-isolation round-trip property: writes to one scenario's
// derived state are invisible to a sibling scenario sharing the same store.
func TestSchedule_ScenarioIsolation_SchedulingOneScenarioDoesNotAffectAnother(t *testing.T) {
	doc := &ingest.Document{
		Project:   ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z", Calendar: "std"},
		Calendars: []ingest.CalendarDoc{stdWeekdayCalendar()},
		Resources: []ingest.ResourceDoc{{Name: "r", Efficiency: 1.0}},
		Tasks: []ingest.TaskDoc{
			{Name: "t", Kind: "effort", Effort: 8, Allocations: []ingest.AllocationDoc{{Resources: []string{"r"}}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "A"}, {Name: "B"}},
	}
	graph := buildGraph(t, doc)
	aID := scenarioIDByName(t, graph, "A")
	bID := scenarioIDByName(t, graph, "B")
	store := propstore.New(graph)

	_, err := Schedule(graph, store, aID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)

	resultB, err := Schedule(graph, store, bID, RunOptions{Now: graph.Project.Start})
	require.NoError(t, err)
	assert.Empty(t, resultB.Diagnostics)

	// Schedule B alone, from scratch, in a fresh graph+store, and compare.
	graph2 := buildGraph(t, doc)
	bID2 := scenarioIDByName(t, graph2, "B")
	store2 := propstore.New(graph2)
	_, err = Schedule(graph2, store2, bID2, RunOptions{Now: graph2.Project.Start})
	require.NoError(t, err)

	taskID := taskIDByPath(t, graph, "t")
	taskID2 := taskIDByPath(t, graph2, "t")

	bStart, _ := propstore.GetTyped[domain.Slot](store, taskID, bID, propstore.AttrStart)
	bStart2, _ := propstore.GetTyped[domain.Slot](store2, taskID2, bID2, propstore.AttrStart)
	assert.Equal(t, bStart2, bStart, "B's result must not depend on whether A was scheduled first in the same store")
}

// TestSchedule_CycleOfThreeTasks_ReturnsErrorNamingAllThree is the cycle
// boundary behaviour, exercised through the full Schedule entrypoint.
func TestSchedule_CycleOfThreeTasks_ReturnsErrorNamingAllThree(t *testing.T) {
	doc := &ingest.Document{
		Project: ingest.ProjectDoc{Name: "p", Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z"},
		Tasks: []ingest.TaskDoc{
			{Name: "a", Kind: "milestone", Depends: []ingest.DependencyDoc{{Target: "b"}}},
			{Name: "b", Kind: "milestone", Depends: []ingest.DependencyDoc{{Target: "c"}}},
			{Name: "c", Kind: "milestone", Depends: []ingest.DependencyDoc{{Target: "a"}}},
		},
		Scenarios: []ingest.ScenarioDoc{{Name: "Baseline"}},
	}
	graph := buildGraph(t, doc)
	scenarioID := scenarioIDByName(t, graph, "Baseline")
	store := propstore.New(graph)

	_, err := Schedule(graph, store, scenarioID, RunOptions{Now: graph.Project.Start})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "c")
}
