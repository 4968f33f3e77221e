package scheduler

import (
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

func taskState(ctx *RunContext, id domain.EntityID) domain.TaskState {
	if v, ok := propstore.GetTyped[domain.TaskState](ctx.Store, id, ctx.ScenarioID, propstore.AttrState); ok {
		return v
	}
	return domain.StateInit
}

func setTaskState(ctx *RunContext, id domain.EntityID, st domain.TaskState) {
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrState, st)
}

func taskStart(ctx *RunContext, id domain.EntityID) (domain.Slot, bool) {
	return propstore.GetTyped[domain.Slot](ctx.Store, id, ctx.ScenarioID, propstore.AttrStart)
}

func taskEnd(ctx *RunContext, id domain.EntityID) (domain.Slot, bool) {
	return propstore.GetTyped[domain.Slot](ctx.Store, id, ctx.ScenarioID, propstore.AttrEnd)
}

// predecessorsReady reports whether every predecessor of id (via `depends`,
// and via `precedes` declared on the other end) has already reached
// `scheduled`. A leaf task may not book any slot until this holds: the
// resolver's ES is only an estimate (§9 design note on propagation vs.
// actual placement), so the task scheduler re-checks against the real
// predecessor end once known.
func predecessorsReady(ctx *RunContext, id domain.EntityID) bool {
	t := ctx.Graph.Tasks[id]
	for _, d := range t.Depends {
		if taskState(ctx, d.TargetID) != domain.StateScheduled {
			return false
		}
	}
	for _, other := range ctx.Graph.TaskOrder {
		ot := ctx.Graph.Tasks[other]
		for _, d := range ot.Precedes {
			if d.TargetID == id && taskState(ctx, other) != domain.StateScheduled {
				return false
			}
		}
	}
	return true
}

// actualEarliestStart tightens bounds[id].ES using predecessors' actual
// (now known) end/start slots, falling back to the resolver's static
// estimate when a predecessor has none (shouldn't happen once
// predecessorsReady is true, but keeps this total).
func actualEarliestStart(ctx *RunContext, id domain.EntityID, resolved domain.Slot) domain.Slot {
	t := ctx.Graph.Tasks[id]
	es := resolved
	consider := func(predID domain.EntityID, anchor domain.DependencyAnchor, gap domain.Slot) {
		var base domain.Slot
		var ok bool
		if anchor == domain.AnchorOnStart {
			base, ok = taskStart(ctx, predID)
		} else {
			base, ok = taskEnd(ctx, predID)
		}
		if !ok {
			return
		}
		if c := base + gap; c > es {
			es = c
		}
	}
	for _, d := range t.Depends {
		consider(d.TargetID, d.Anchor, gapSlots(ctx, depEdge{from: d.TargetID, to: id, gapDur: int64(d.GapDuration), gapLen: d.GapLength, anchor: d.Anchor}))
	}
	for _, other := range ctx.Graph.TaskOrder {
		ot := ctx.Graph.Tasks[other]
		for _, d := range ot.Precedes {
			if d.TargetID != id {
				continue
			}
			consider(other, d.Anchor, gapSlots(ctx, depEdge{from: other, to: id, gapDur: int64(d.GapDuration), gapLen: d.GapLength, anchor: d.Anchor}))
		}
	}
	return es
}

// AdvanceLeaf drives one leaf task forward per §4.E. It returns advanced=true
// if the task placed any new slot or changed state this call; the driver
// uses that to detect a quiescent pass.
func AdvanceLeaf(ctx *RunContext, alloc *Allocator, bounds map[domain.EntityID]Bounds, id domain.EntityID) bool {
	st := taskState(ctx, id)
	if st == domain.StateScheduled || st == domain.StateInfeasible || st == domain.StateAborted {
		return false
	}
	if !predecessorsReady(ctx, id) {
		setTaskState(ctx, id, domain.StateBlocked)
		return false
	}

	b := bounds[id]
	t := ctx.Graph.Tasks[id]
	setTaskState(ctx, id, domain.StateRunning)

	switch t.Kind {
	case domain.KindMilestone:
		return advanceMilestone(ctx, id, b)
	case domain.KindDuration:
		return advanceDuration(ctx, id, b)
	case domain.KindLength:
		return advanceLength(ctx, alloc, id, b)
	case domain.KindEffort:
		return advanceEffort(ctx, alloc, id, b)
	}
	return false
}

func advanceMilestone(ctx *RunContext, id domain.EntityID, b Bounds) bool {
	es := actualEarliestStart(ctx, id, b.ES)
	if t := ctx.Graph.Tasks[id]; t.Direction == domain.Backward {
		es = b.LF
	}
	if es > b.LF {
		ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Slot: es, Message: "milestone ES exceeds LF"})
		setTaskState(ctx, id, domain.StateInfeasible)
		return true
	}
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStart, es)
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrEnd, es)
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, 0.0)
	setTaskState(ctx, id, domain.StateScheduled)
	return true
}

func advanceDuration(ctx *RunContext, id domain.EntityID, b Bounds) bool {
	t := ctx.Graph.Tasks[id]
	n := domain.Slot(t.DurationSlots)
	var start, end domain.Slot
	if t.Direction == domain.Backward {
		end = b.LF + 1
		start = end - n
	} else {
		start = actualEarliestStart(ctx, id, b.ES)
		end = start + n
	}
	if start < b.ES || end-1 > b.LF {
		ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Slot: start, Message: "duration task does not fit between ES and LF"})
		setTaskState(ctx, id, domain.StateInfeasible)
		return true
	}
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStart, start)
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrEnd, end)
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, 0.0)
	setTaskState(ctx, id, domain.StateScheduled)
	return true
}

// advanceLength places a length-kind task: N working slots, counted on the
// task's own calendar; an allocator pass runs only for mandatory candidate
// sets, which can gate (but not otherwise affect) which slots count.
func advanceLength(ctx *RunContext, alloc *Allocator, id domain.EntityID, b Bounds) bool {
	t := ctx.Graph.Tasks[id]
	cal := ctx.Cal.ForTask(id)
	cursor := loadCursor(ctx, id, b)
	placed := loadPlacedCount(ctx, id)
	target := t.LengthSlots
	advanced := false
	var bookings []domain.Booking
	startSlot, haveStart := taskStart(ctx, id)

	for placed < target {
		if cursor > b.LF {
			break
		}
		if !cal.Working(cursor) {
			cursor++
			continue
		}
		ok := runAllocationsAt(ctx, alloc, id, cursor, false, &bookings)
		if !ok {
			break
		}
		if !haveStart {
			startSlot = cursor
			haveStart = true
		}
		placed++
		advanced = true
		cursor++
	}

	storeCursor(ctx, id, cursor)
	storePlacedCount(ctx, id, placed)
	if len(bookings) > 0 {
		appendBookings(ctx, id, bookings)
	}

	if placed >= target {
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStart, startSlot)
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrEnd, cursor)
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, 0.0)
		setTaskState(ctx, id, domain.StateScheduled)
		return true
	}
	if cursor > b.LF {
		ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Message: "length task could not place all working slots before LF"})
		setTaskState(ctx, id, domain.StateInfeasible)
		return true
	}
	if !advanced {
		setTaskState(ctx, id, domain.StateBlocked)
	}
	return advanced
}

// advanceEffort places an effort-kind task: consumes resource-slots of
// work until remaining effort reaches zero or the bound LF is exceeded.
func advanceEffort(ctx *RunContext, alloc *Allocator, id domain.EntityID, b Bounds) bool {
	cal := ctx.Cal.ForTask(id)
	cursor := loadCursor(ctx, id, b)
	remaining := loadRemainingEffort(ctx, id)
	advanced := false
	var bookings []domain.Booking
	startSlot, haveStart := taskStart(ctx, id)

	for remaining > 1e-9 {
		if cursor > b.LF {
			break
		}
		if !cal.Working(cursor) {
			cursor++
			continue
		}
		before := len(bookings)
		ok := runAllocationsAt(ctx, alloc, id, cursor, false, &bookings)
		if !ok {
			break
		}
		if !haveStart {
			startSlot = cursor
			haveStart = true
		}
		for _, bk := range bookings[before:] {
			remaining -= bk.EfficiencyShare
		}
		advanced = true
		cursor++
	}

	storeCursor(ctx, id, cursor)
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, remaining)
	if len(bookings) > 0 {
		appendBookings(ctx, id, bookings)
	}

	if remaining <= 1e-9 {
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStart, startSlot)
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrEnd, cursor)
		setTaskState(ctx, id, domain.StateScheduled)
		return true
	}
	if cursor > b.LF {
		ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Message: "effort task could not be fully booked before LF"})
		setTaskState(ctx, id, domain.StateInfeasible)
		return true
	}
	if !advanced {
		setTaskState(ctx, id, domain.StateBlocked)
	}
	return advanced
}

// runAllocationsAt attempts every declared candidate set of id at slot,
// appending successful bookings to *out. It returns false only when a
// mandatory set failed, per §4.D: "the whole allocation attempt at s
// fails."
func runAllocationsAt(ctx *RunContext, alloc *Allocator, id domain.EntityID, slot domain.Slot, relax bool, out *[]domain.Booking) bool {
	t := ctx.Graph.Tasks[id]
	if len(t.Allocations) == 0 {
		*out = append(*out, domain.Booking{ResourceID: domain.NoEntity, Start: ctx.Grid.TimeAt(slot), End: ctx.Grid.SlotEnd(slot), EfficiencyShare: 1.0})
		return true
	}
	var attempt []domain.Booking
	for i, set := range t.Allocations {
		res := alloc.Allocate(id, i, set, slot, relax)
		if !res.Found {
			if set.Mandatory {
				ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindMandatoryAllocationFailed, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Slot: slot, Message: "mandatory allocation unsatisfiable"})
				return false
			}
			continue
		}
		attempt = append(attempt, domain.Booking{
			ResourceID:      res.Resource,
			Start:           ctx.Grid.TimeAt(slot),
			End:             ctx.Grid.SlotEnd(slot),
			EfficiencyShare: res.EfficiencyShare,
		})
	}
	for _, bk := range attempt {
		ctx.Load.Commit(ctx.Grid, bk.ResourceID, id, slot, bk.EfficiencyShare, bk.EfficiencyShare)
	}
	*out = append(*out, attempt...)
	return true
}

func loadCursor(ctx *RunContext, id domain.EntityID, b Bounds) domain.Slot {
	if v, ok := propstore.GetTyped[domain.Slot](ctx.Store, id, ctx.ScenarioID, propstore.AttrCursor); ok {
		return v
	}
	t := ctx.Graph.Tasks[id]
	if t.Direction == domain.Backward {
		return b.LF
	}
	return actualEarliestStart(ctx, id, b.ES)
}

func storeCursor(ctx *RunContext, id domain.EntityID, cursor domain.Slot) {
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrCursor, cursor)
}

func loadPlacedCount(ctx *RunContext, id domain.EntityID) int {
	v, ok := propstore.GetTyped[int](ctx.Store, id, ctx.ScenarioID, propstore.AttrPlaced)
	if !ok {
		return 0
	}
	return v
}

func storePlacedCount(ctx *RunContext, id domain.EntityID, placed int) {
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrPlaced, placed)
}

func loadRemainingEffort(ctx *RunContext, id domain.EntityID) float64 {
	if v, ok := propstore.GetTyped[float64](ctx.Store, id, ctx.ScenarioID, propstore.AttrRemainingEffort); ok {
		return v
	}
	return effectiveEffort(ctx, id)
}

func appendBookings(ctx *RunContext, id domain.EntityID, bookings []domain.Booking) {
	existing, _ := propstore.GetTyped[[]domain.Booking](ctx.Store, id, ctx.ScenarioID, propstore.AttrBookings)
	existing = append(existing, bookings...)
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrBookings, existing)

	assigned, _ := propstore.GetTyped[map[domain.EntityID]bool](ctx.Store, id, ctx.ScenarioID, propstore.AttrAssignedResources)
	if assigned == nil {
		assigned = make(map[domain.EntityID]bool)
	}
	for _, bk := range bookings {
		if bk.ResourceID != domain.NoEntity {
			assigned[bk.ResourceID] = true
		}
	}
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrAssignedResources, assigned)
}
