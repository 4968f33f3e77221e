package scheduler

import (
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

// DeriveStatus computes each task's reporting-facing Status from its
// terminal TaskState and, for scheduled tasks, whether its end slot has
// already slipped past the task's own maxEnd bound (behind) or it is
// fully booked (complete): a state + deadline-proximity derivation into
// a reporting label, driven by the scheduler's own completion signal
// rather than logged time.
func DeriveStatus(ctx *RunContext) {
	derive := func(id domain.EntityID) {
		t := ctx.Graph.Tasks[id]
		st := taskState(ctx, id)

		var status domain.Status
		switch st {
		case domain.StateInfeasible, domain.StateAborted:
			status = domain.StatusInfeasible
		case domain.StateScheduled:
			status = deriveScheduledStatus(ctx, id, t)
		default:
			status = domain.StatusBehind
		}
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStatus, status)
	}

	// Leaves first, then containers in reverse declaration order: a
	// pre-order declared forest guarantees every descendant of a container
	// appears before it once the list is reversed, so a container's
	// allChildrenComplete check always sees up-to-date child status.
	for _, id := range ctx.Graph.TaskOrder {
		if !ctx.Graph.Tasks[id].IsContainer() {
			derive(id)
		}
	}
	for i := len(ctx.Graph.TaskOrder) - 1; i >= 0; i-- {
		id := ctx.Graph.TaskOrder[i]
		if ctx.Graph.Tasks[id].IsContainer() {
			derive(id)
		}
	}
}

func deriveScheduledStatus(ctx *RunContext, id domain.EntityID, t *domain.Task) domain.Status {
	complete, _ := propstore.GetTyped[float64](ctx.Store, id, ctx.ScenarioID, propstore.AttrComplete)
	if t.IsContainer() {
		if allChildrenComplete(ctx, t) {
			return domain.StatusComplete
		}
	} else if complete >= 100 {
		return domain.StatusComplete
	}

	if me := effectiveMaxEnd(ctx, id); me != nil {
		if end, ok := taskEnd(ctx, id); ok {
			if end > ctx.Grid.SlotAt(*me) {
				return domain.StatusBehind
			}
		}
	}
	return domain.StatusOnTrack
}

func allChildrenComplete(ctx *RunContext, t *domain.Task) bool {
	for _, cid := range t.ChildIDs {
		st, _ := propstore.GetTyped[domain.Status](ctx.Store, cid, ctx.ScenarioID, propstore.AttrStatus)
		if st != domain.StatusComplete {
			return false
		}
	}
	return len(t.ChildIDs) > 0
}
