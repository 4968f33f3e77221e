package scheduler

import (
	"time"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

// The effective* helpers resolve a bound or override for an entity under
// the running scenario: a per-scenario override recorded in the property
// store wins over the task's own declared default (§4.B inheritance walk,
// with the "documented default" step supplied here by the caller).

func effectiveMinStart(ctx *RunContext, id domain.EntityID) *time.Time {
	if v, ok := propstore.GetTyped[time.Time](ctx.Store, id, ctx.ScenarioID, propstore.AttrMinStart); ok {
		return &v
	}
	return ctx.Graph.Tasks[id].MinStart
}

func effectiveMaxStart(ctx *RunContext, id domain.EntityID) *time.Time {
	if v, ok := propstore.GetTyped[time.Time](ctx.Store, id, ctx.ScenarioID, propstore.AttrMaxStart); ok {
		return &v
	}
	return ctx.Graph.Tasks[id].MaxStart
}

func effectiveMinEnd(ctx *RunContext, id domain.EntityID) *time.Time {
	if v, ok := propstore.GetTyped[time.Time](ctx.Store, id, ctx.ScenarioID, propstore.AttrMinEnd); ok {
		return &v
	}
	return ctx.Graph.Tasks[id].MinEnd
}

func effectiveMaxEnd(ctx *RunContext, id domain.EntityID) *time.Time {
	if v, ok := propstore.GetTyped[time.Time](ctx.Store, id, ctx.ScenarioID, propstore.AttrMaxEnd); ok {
		return &v
	}
	return ctx.Graph.Tasks[id].MaxEnd
}

// effectiveFixedStart returns the task's declared fixed start, if any. A
// fixed start/end is not independently scenario-overridable; it tightens
// both ES and LF, per §4.C.
func effectiveFixedStart(ctx *RunContext, id domain.EntityID) *time.Time {
	return ctx.Graph.Tasks[id].Start
}

func effectiveFixedEnd(ctx *RunContext, id domain.EntityID) *time.Time {
	return ctx.Graph.Tasks[id].End
}

// effectiveEffort returns the task's remaining/declared effort, honouring a
// per-scenario effort override (used by re-estimation/replanning flows).
func effectiveEffort(ctx *RunContext, id domain.EntityID) float64 {
	if v, ok := propstore.GetTyped[float64](ctx.Store, id, ctx.ScenarioID, propstore.AttrEffort); ok {
		return v
	}
	return ctx.Graph.Tasks[id].Effort
}
