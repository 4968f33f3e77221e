package scheduler

import (
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

// Validate runs §4.I's post-schedule checks: container hull, resource
// oversubscription per slot, mandatory allocation coverage (already
// diagnosed as it happened, during §4.E), and negative remaining effort
// beyond one slot's tolerance. Every violation becomes a structured
// Diagnostic on ctx.Diagnostics; this function never returns an error.
func Validate(ctx *RunContext) {
	validateContainerHull(ctx)
	validateOversubscription(ctx)
	validateRemainingEffort(ctx)
}

func validateContainerHull(ctx *RunContext) {
	for _, id := range ctx.Graph.TaskOrder {
		t := ctx.Graph.Tasks[id]
		if !t.IsContainer() || taskState(ctx, id) != domain.StateScheduled {
			continue
		}
		start, _ := taskStart(ctx, id)
		end, _ := taskEnd(ctx, id)
		var wantStart, wantEnd domain.Slot
		first := true
		for _, cid := range t.ChildIDs {
			if taskState(ctx, cid) != domain.StateScheduled {
				continue
			}
			cs, _ := taskStart(ctx, cid)
			ce, _ := taskEnd(ctx, cid)
			if first || cs < wantStart {
				wantStart = cs
			}
			if first || ce > wantEnd {
				wantEnd = ce
			}
			first = false
		}
		if !first && (start != wantStart || end != wantEnd) {
			ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindContainerHullViolation, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Message: "container interval does not match the hull of its children"})
		}
	}
}

// validateOversubscription re-derives §3 invariant 4 directly from booked
// shares, independent of ResourceLoad's own bookkeeping, as a defense
// against a bug in any one allocator path.
func validateOversubscription(ctx *RunContext) {
	committed := make(map[domain.EntityID]map[domain.Slot]float64)
	for _, id := range ctx.Graph.TaskOrder {
		bookings, _ := propstore.GetTyped[[]domain.Booking](ctx.Store, id, ctx.ScenarioID, propstore.AttrBookings)
		for _, bk := range bookings {
			if bk.ResourceID == domain.NoEntity {
				continue
			}
			s := ctx.Grid.SlotAt(bk.Start)
			if committed[bk.ResourceID] == nil {
				committed[bk.ResourceID] = make(map[domain.Slot]float64)
			}
			committed[bk.ResourceID][s] += bk.EfficiencyShare
		}
	}
	for rid, bySlot := range committed {
		res := ctx.Graph.Resources[rid]
		if res == nil {
			continue
		}
		for slot, share := range bySlot {
			if share > res.EffectiveEfficiency()+1e-9 {
				ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindOversubscription, Refs: []domain.EntityID{rid}, ScenarioID: ctx.ScenarioID, Slot: slot, Message: "resource booked beyond its effective efficiency"})
			}
		}
	}
}

func validateRemainingEffort(ctx *RunContext) {
	for _, id := range ctx.Graph.TaskOrder {
		t := ctx.Graph.Tasks[id]
		if t.Kind != domain.KindEffort || t.ActualScheduled {
			continue
		}
		remaining, ok := propstore.GetTyped[float64](ctx.Store, id, ctx.ScenarioID, propstore.AttrRemainingEffort)
		if !ok {
			continue
		}
		if remaining < -1.0-1e-9 {
			ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindNegativeRemainingEffort, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Message: "remaining effort went negative beyond one slot's tolerance"})
		}
	}
}
