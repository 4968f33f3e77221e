package scheduler

import (
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

// ApplyProjection runs §4.G once before the driver's main loop: for every
// task carrying explicit bookings, it pre-populates the scenario's derived
// state from them — cursor past the last booking, remaining effort reduced
// by what was already booked, and (if `actual:scheduled` was declared)
// marks the task scheduled outright regardless of remaining effort.
//
// It also registers each booking's resource-slots against ctx.Load so the
// allocator never re-offers an already-booked slot to another task, and
// relaxes the calendar check for a booking under a declared sloppy level
// per the scenario's projection flag.
func ApplyProjection(ctx *RunContext) {
	scenario := ctx.Graph.Scenarios[ctx.ScenarioID]
	for _, id := range ctx.Graph.TaskOrder {
		t := ctx.Graph.Tasks[id]
		if len(t.BookingsInput) == 0 {
			continue
		}
		applyTaskBookings(ctx, scenario, id, t)
	}
}

func applyTaskBookings(ctx *RunContext, scenario *domain.Scenario, id domain.EntityID, t *domain.Task) {
	var (
		bookedEffort float64
		lastSlot     domain.Slot = domain.NoSlot
		firstSlot    domain.Slot = domain.NoSlot
		bookings     []domain.Booking
	)

	for _, bk := range t.BookingsInput {
		relaxed := validateBookingPlacement(ctx, id, bk)
		startSlot := ctx.Grid.SlotAt(bk.Start)
		endSlot := ctx.Grid.SlotAt(bk.End)
		for s := startSlot; s < endSlot; s++ {
			if relaxed && bk.Sloppy >= domain.SloppyNonWorking {
				// A slot accepted under sloppy relaxation adds its share
				// to the resource's load but no total effort; it still
				// counts toward the resource's daily/weekly/monthly caps.
				ctx.Load.Commit(ctx.Grid, bk.ResourceID, id, s, bk.EfficiencyShare, 0)
			} else {
				ctx.Load.Commit(ctx.Grid, bk.ResourceID, id, s, bk.EfficiencyShare, bk.EfficiencyShare)
			}
			bookedEffort += bk.EfficiencyShare
			if firstSlot == domain.NoSlot || s < firstSlot {
				firstSlot = s
			}
			if s > lastSlot {
				lastSlot = s
			}
			slotBk := bk
			slotBk.Start = ctx.Grid.TimeAt(s)
			slotBk.End = ctx.Grid.SlotEnd(s)
			bookings = append(bookings, slotBk)
		}
	}

	appendBookings(ctx, id, bookings)
	remaining := t.Effort - bookedEffort
	if remaining < 0 {
		remaining = checkStrictBookings(ctx, scenario, id, t, remaining)
	}

	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, remaining)
	if lastSlot != domain.NoSlot {
		storeCursor(ctx, id, lastSlot+1)
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStart, firstSlot)
	}

	if t.ActualScheduled {
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrEnd, lastSlot+1)
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, 0.0)
		setTaskState(ctx, id, domain.StateScheduled)
	}
}

// checkStrictBookings implements §9 open question 2: a booking beyond
// declared effort is an error under `strict-bookings`, unless
// `actual:scheduled` is also set, in which case it is only an advisory.
func checkStrictBookings(ctx *RunContext, scenario *domain.Scenario, id domain.EntityID, t *domain.Task, remaining float64) float64 {
	strict := scenario.StrictBookings || t.StrictBookings
	if !strict {
		return remaining
	}
	severity := SeverityError
	if t.ActualScheduled {
		severity = SeverityAdvisory
	}
	ctx.Diagnostics.Add(Diagnostic{Severity: severity, Kind: KindBookingExceedsEffort, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Message: "booked resource-slots exceed declared effort"})
	return 0
}

// validateBookingPlacement checks a booking's interval against the task's
// and resource's calendars, honouring the declared sloppy level (§4.G): 0
// permits same-slot partial overlap, 1 and above additionally permit
// non-working hours. A resource's vacation is not checked here, so a
// booking inside one is accepted at every level. It returns whether any
// relaxation was actually needed.
func validateBookingPlacement(ctx *RunContext, id domain.EntityID, bk domain.Booking) bool {
	taskCal := ctx.Cal.ForTask(id)
	resCal := ctx.Cal.ForResource(bk.ResourceID)
	startSlot := ctx.Grid.SlotAt(bk.Start)
	endSlot := ctx.Grid.SlotAt(bk.End)
	relaxed := false
	for s := startSlot; s < endSlot; s++ {
		taskOK := taskCal.Working(s)
		resOK := resCal.Working(s)
		if taskOK && resOK {
			continue
		}
		if bk.Sloppy >= domain.SloppyNonWorking {
			relaxed = true
			ctx.Diagnostics.Add(Diagnostic{Severity: SeverityAdvisory, Kind: KindBookingRoundedSloppy, Refs: []domain.EntityID{id, bk.ResourceID}, ScenarioID: ctx.ScenarioID, Slot: s, Message: "booking accepted outside working calendar under sloppy relaxation"})
			continue
		}
		ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id, bk.ResourceID}, ScenarioID: ctx.ScenarioID, Slot: s, Message: "booking falls outside working calendar"})
	}
	return relaxed
}
