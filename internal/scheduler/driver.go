package scheduler

import (
	"fmt"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
	"github.com/arborsched/arbor/internal/timegrid"
)

// Result is schedule(...)'s return value per §6: the computed state
// alongside the full diagnostic list, even when the scenario only
// partially completed.
type Result struct {
	ScenarioID  domain.ScenarioID
	State       domain.ScenarioState
	Diagnostics []Diagnostic
}

// Schedule runs one scenario to completion per §4.F:
//  1. copy-on-write is implicit: propstore reads fall through to the
//     parent scenario until this scenario writes its own value;
//  2. apply projection (§4.G);
//  3. resolve ES/LF bounds (§4.C);
//  4. loop calling the task scheduler in dependency order until quiescent;
//  5. mark remaining tasks infeasible if a pass makes no progress;
//  6. run cost/revenue folding and validation (§4.H, §4.I).
func Schedule(graph *domain.Graph, store *propstore.Store, scenarioID domain.ScenarioID, opts RunOptions) (Result, error) {
	if !graph.Frozen() {
		return Result{}, fmt.Errorf("scheduler: graph must be frozen before scheduling")
	}
	scenario := graph.Scenarios[scenarioID]
	if scenario == nil {
		return Result{}, fmt.Errorf("scheduler: unknown scenario %s", scenarioID)
	}
	if scenario.Disabled {
		return Result{ScenarioID: scenarioID, State: domain.ScenarioPending}, nil
	}

	grid, err := timegrid.NewGrid(graph.Project)
	if err != nil {
		return Result{}, err
	}
	cal := timegrid.NewRegistry(grid, graph)

	ctx := &RunContext{
		Graph:       graph,
		Grid:        grid,
		Cal:         cal,
		Store:       store,
		ScenarioID:  scenarioID,
		Now:         grid.SlotAt(opts.Now),
		Diagnostics: NewCollector(),
		Load:        NewResourceLoad(),
		Options:     opts,
	}

	ApplyProjection(ctx)

	bounds, err := ResolveBounds(ctx)
	if err != nil {
		return Result{}, err
	}
	// A task whose propagated bounds are already infeasible (including a
	// maxStart/minEnd violation ResolveBounds folds into ES > LF) is marked
	// infeasible here, once, and never reaches AdvanceLeaf: the state check
	// at the top of AdvanceLeaf short-circuits it, so the task-machine never
	// re-derives or re-reports the same violation.
	for id, b := range bounds {
		_ = store.SetDerived(id, scenarioID, propstore.AttrES, b.ES)
		_ = store.SetDerived(id, scenarioID, propstore.AttrLF, b.LF)
		if b.ES > b.LF {
			ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id}, ScenarioID: scenarioID, Message: "task bounds are infeasible after propagation (ES exceeds LF)"})
			setTaskState(ctx, id, domain.StateInfeasible)
		}
	}

	alloc := NewAllocator(ctx)
	order := CanonicalTaskOrder(graph)

	for {
		if ctx.Options.Cancelled() {
			store.Clear(scenarioID)
			ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindCancelled, ScenarioID: scenarioID, Message: "scenario cancelled"})
			return Result{ScenarioID: scenarioID, State: domain.ScenarioAborted, Diagnostics: ctx.Diagnostics.Items()}, nil
		}

		advancedAny := false
		for _, id := range order {
			t := graph.Tasks[id]
			if t.IsContainer() {
				continue
			}
			if AdvanceLeaf(ctx, alloc, bounds, id) {
				advancedAny = true
			}
		}
		if settleContainers(ctx, order) {
			advancedAny = true
		}

		if allSettled(ctx, order) {
			break
		}
		if !advancedAny {
			markUnsettledInfeasible(ctx, order)
			break
		}
	}

	FoldCostAndRevenue(ctx)
	DeriveStatus(ctx)
	Validate(ctx)

	state := domain.ScenarioScheduled
	if ctx.Diagnostics.HasFatal() {
		state = domain.ScenarioAborted
	}
	return Result{ScenarioID: scenarioID, State: state, Diagnostics: ctx.Diagnostics.Items()}, nil
}

// settleContainers marks a container `scheduled` once every child has
// reached a terminal state, and derives its hull per §3 invariant 3; a
// container with an infeasible child is marked `infeasible` instead. It
// returns whether any container's state changed this pass.
func settleContainers(ctx *RunContext, order []domain.EntityID) bool {
	changed := false
	for _, id := range order {
		t := ctx.Graph.Tasks[id]
		if !t.IsContainer() {
			continue
		}
		if taskState(ctx, id) == domain.StateScheduled || taskState(ctx, id) == domain.StateInfeasible {
			continue
		}
		allDone := true
		anyInfeasible := false
		var minStart, maxEnd domain.Slot
		first := true
		for _, cid := range t.ChildIDs {
			cst := taskState(ctx, cid)
			if cst != domain.StateScheduled && cst != domain.StateInfeasible {
				allDone = false
				break
			}
			if cst == domain.StateInfeasible {
				anyInfeasible = true
				continue
			}
			cs, _ := taskStart(ctx, cid)
			ce, _ := taskEnd(ctx, cid)
			if first || cs < minStart {
				minStart = cs
			}
			if first || ce > maxEnd {
				maxEnd = ce
			}
			first = false
		}
		if !allDone {
			setTaskState(ctx, id, domain.StatePendingChildren)
			continue
		}
		if anyInfeasible {
			ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindInfeasibleBounds, Refs: []domain.EntityID{id}, ScenarioID: ctx.ScenarioID, Message: "container has an infeasible child"})
			setTaskState(ctx, id, domain.StateInfeasible)
			changed = true
			continue
		}
		if !first {
			_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrStart, minStart)
			_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrEnd, maxEnd)
		}
		_ = ctx.Store.SetDerived(id, ctx.ScenarioID, propstore.AttrRemainingEffort, 0.0)
		setTaskState(ctx, id, domain.StateScheduled)
		changed = true
	}
	return changed
}

func allSettled(ctx *RunContext, order []domain.EntityID) bool {
	for _, id := range order {
		st := taskState(ctx, id)
		if st != domain.StateScheduled && st != domain.StateInfeasible && st != domain.StateAborted {
			return false
		}
	}
	return true
}

// markUnsettledInfeasible handles §4.F step 5: a quiescent pass with
// unscheduled tasks remaining marks them infeasible. Each diagnostic's
// Refs holds the task followed by its unscheduled predecessors (from both
// `depends` and `precedes`); saturated resources are not named.
func markUnsettledInfeasible(ctx *RunContext, order []domain.EntityID) {
	for _, id := range order {
		st := taskState(ctx, id)
		if st == domain.StateScheduled || st == domain.StateInfeasible || st == domain.StateAborted {
			continue
		}
		refs := []domain.EntityID{id}
		for _, d := range ctx.Graph.Tasks[id].Depends {
			if taskState(ctx, d.TargetID) != domain.StateScheduled {
				refs = append(refs, d.TargetID)
			}
		}
		for _, other := range ctx.Graph.TaskOrder {
			for _, d := range ctx.Graph.Tasks[other].Precedes {
				if d.TargetID == id && taskState(ctx, other) != domain.StateScheduled {
					refs = append(refs, other)
				}
			}
		}
		msg := "task made no progress in a quiescent pass"
		if !predecessorsReady(ctx, id) {
			msg = "task is blocked on an unscheduled predecessor"
		}
		ctx.Diagnostics.Add(Diagnostic{Severity: SeverityError, Kind: KindBlocked, Refs: refs, ScenarioID: ctx.ScenarioID, Message: msg})
		setTaskState(ctx, id, domain.StateInfeasible)
	}
}
