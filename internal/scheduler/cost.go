package scheduler

import (
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

// accountTotals accumulates per-account cost/revenue for one scenario's
// run; folded into a propstore-derived value per account once complete.
type accountTotals struct {
	cost    map[domain.EntityID]float64
	revenue map[domain.EntityID]float64
}

// FoldCostAndRevenue runs §4.H after the driver's main loop: it walks every
// scheduled leaf's bookings to accrue resource-rate cost into the task and
// its linked account, applies declared charge/revenue events at their
// matching timing, and recomputes `complete`.
func FoldCostAndRevenue(ctx *RunContext) {
	totals := accountTotals{cost: make(map[domain.EntityID]float64), revenue: make(map[domain.EntityID]float64)}

	for _, id := range ctx.Graph.TaskOrder {
		t := ctx.Graph.Tasks[id]
		if t.IsContainer() {
			continue
		}
		if taskState(ctx, id) != domain.StateScheduled {
			continue
		}
		taskCost := accrueBookingCost(ctx, id)
		taskCost += applyCharges(ctx, &totals, id, t, domain.ChargeKindCost)
		taskRevenue := applyCharges(ctx, &totals, id, t, domain.ChargeKindRevenue)

		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrAccruedCost, taskCost)
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrAccruedRevenue, taskRevenue)

		if t.AccountID != domain.NoEntity {
			totals.cost[t.AccountID] += taskCost
			totals.revenue[t.AccountID] += taskRevenue
		}

		computeComplete(ctx, id, t)
	}

	for acc, v := range totals.cost {
		_ = ctx.Store.SetDerived(acc, ctx.ScenarioID, propstore.AttrAccruedCost, v)
	}
	for acc, v := range totals.revenue {
		_ = ctx.Store.SetDerived(acc, ctx.ScenarioID, propstore.AttrAccruedRevenue, v)
	}
}

func accrueBookingCost(ctx *RunContext, id domain.EntityID) float64 {
	bookings, _ := propstore.GetTyped[[]domain.Booking](ctx.Store, id, ctx.ScenarioID, propstore.AttrBookings)
	var cost float64
	for _, bk := range bookings {
		res := ctx.Graph.Resources[bk.ResourceID]
		if res == nil {
			continue
		}
		cost += res.RatePerSlot(bk.Start) * bk.EfficiencyShare
	}
	return cost
}

func applyCharges(ctx *RunContext, totals *accountTotals, id domain.EntityID, t *domain.Task, kind domain.ChargeKind) float64 {
	start, _ := taskStart(ctx, id)
	end, _ := taskEnd(ctx, id)
	var sum float64
	for _, ch := range t.Charges {
		if ch.Kind != kind {
			continue
		}
		var amount float64
		switch ch.Timing {
		case domain.ChargeOnStart:
			amount = ch.Amount
		case domain.ChargeOnEnd:
			amount = ch.Amount
		case domain.ChargePerSlot:
			span := end - start
			if span < 0 {
				span = 0
			}
			amount = ch.Amount * float64(span)
		default:
			amount = ch.Amount
		}
		sum += amount
		if ch.AccountID != domain.NoEntity {
			if kind == domain.ChargeKindCost {
				totals.cost[ch.AccountID] += amount
			} else {
				totals.revenue[ch.AccountID] += amount
			}
		}
	}
	return sum
}

// computeComplete recomputes §4.H's `complete`: effort consumed before
// `now` divided by total effort, clamped to [0, 100]. A user-supplied
// `complete` is retained only when the task has no bookings.
func computeComplete(ctx *RunContext, id domain.EntityID, t *domain.Task) {
	bookings, _ := propstore.GetTyped[[]domain.Booking](ctx.Store, id, ctx.ScenarioID, propstore.AttrBookings)
	if len(bookings) == 0 {
		if t.CompleteUser != nil {
			_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrComplete, *t.CompleteUser)
			return
		}
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrComplete, 0.0)
		return
	}
	if t.Effort <= 0 {
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrComplete, 100.0)
		return
	}
	var consumed float64
	for _, bk := range bookings {
		if ctx.Grid.SlotAt(bk.Start) <= ctx.Now {
			consumed += bk.EfficiencyShare
		}
	}
	pct := consumed / t.Effort * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrComplete, pct)
}
