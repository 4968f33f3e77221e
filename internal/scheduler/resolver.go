package scheduler

import (
	"fmt"
	"strings"

	"github.com/arborsched/arbor/internal/domain"
)

// Bounds is the (ES, LF) pair the resolver computes for a task: earliest
// permissible start slot and latest permissible finish slot (§4.C).
type Bounds struct {
	ES domain.Slot
	LF domain.Slot
}

type depEdge struct {
	from   domain.EntityID // predecessor
	to     domain.EntityID // successor
	gapDur int64           // nanoseconds
	gapLen int
	anchor domain.DependencyAnchor
}

// ResolveBounds runs the two-sweep ES/LF propagation of §4.C for every task
// in the graph, against the given scenario's overridden attributes. It
// returns the computed bounds keyed by task id, or an error naming a
// dependency cycle (a structural, fatal condition per §7 — it aborts
// scheduling of all scenarios, so it is a plain error, not a Diagnostic).
func ResolveBounds(ctx *RunContext) (map[domain.EntityID]Bounds, error) {
	edges := collectEdges(ctx.Graph)
	order, err := topoOrder(ctx.Graph, edges)
	if err != nil {
		return nil, err
	}

	bounds := make(map[domain.EntityID]Bounds, len(ctx.Graph.Tasks))
	incoming := make(map[domain.EntityID][]depEdge)
	outgoing := make(map[domain.EntityID][]depEdge)
	for _, e := range edges {
		incoming[e.to] = append(incoming[e.to], e)
		outgoing[e.from] = append(outgoing[e.from], e)
	}

	total := ctx.Grid.TotalSlots()

	// Forward sweep: ES(t) = max(project.start, minStart(t), containerES,
	// max over predecessors p of estimatedEnd(p) + gap(p,t)).
	for _, id := range order {
		t := ctx.Graph.Tasks[id]
		es := domain.Slot(0)
		if ms := effectiveMinStart(ctx, id); ms != nil {
			if s := ctx.Grid.SlotAt(*ms); s > es {
				es = s
			}
		}
		if t.ParentID != domain.NoEntity {
			if pb, ok := bounds[t.ParentID]; ok && pb.ES > es {
				es = pb.ES
			}
		}
		for _, e := range incoming[id] {
			predB, ok := bounds[e.from]
			if !ok {
				continue
			}
			predEnd := predB.ES + minSpanSlots(ctx, e.from)
			gap := gapSlots(ctx, e)
			candidate := predEnd + gap
			if e.anchor == domain.AnchorOnStart {
				candidate = predB.ES + gap
			}
			if candidate > es {
				es = candidate
			}
		}
		if fs := effectiveFixedStart(ctx, id); fs != nil {
			s := ctx.Grid.SlotAt(*fs)
			if s > es {
				es = s
			}
		}
		bounds[id] = Bounds{ES: es, LF: total - 1}
	}

	// Backward sweep: LF(t) = min(project.end, maxEnd(t), containerLF,
	// min over successors s of estimatedStart(s) - gap(t,s)).
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		t := ctx.Graph.Tasks[id]
		lf := total - 1
		if me := effectiveMaxEnd(ctx, id); me != nil {
			if s := ctx.Grid.SlotAt(*me) - 1; s < lf {
				lf = s
			}
		}
		if t.ParentID != domain.NoEntity {
			if pb, ok := bounds[t.ParentID]; ok && pb.LF < lf {
				lf = pb.LF
			}
		}
		for _, e := range outgoing[id] {
			succB, ok := bounds[e.to]
			if !ok {
				continue
			}
			succStart := succB.LF - minSpanSlots(ctx, e.to)
			gap := gapSlots(ctx, e)
			candidate := succStart - gap
			if e.anchor == domain.AnchorOnStart {
				candidate = succB.LF - gap
			}
			if candidate < lf {
				lf = candidate
			}
		}
		if fe := effectiveFixedEnd(ctx, id); fe != nil {
			s := ctx.Grid.SlotAt(*fe) - 1
			if s < lf {
				lf = s
			}
		}
		b := bounds[id]
		b.LF = lf
		bounds[id] = b
	}

	// Container hull over bounds: ES = min(children ES), LF = max(children LF).
	for _, id := range order {
		t := ctx.Graph.Tasks[id]
		if !t.IsContainer() {
			continue
		}
		var minES, maxLF domain.Slot
		first := true
		for _, cid := range t.ChildIDs {
			cb := bounds[cid]
			if first || cb.ES < minES {
				minES = cb.ES
			}
			if first || cb.LF > maxLF {
				maxLF = cb.LF
			}
			first = false
		}
		if !first {
			bounds[id] = Bounds{ES: minES, LF: maxLF}
		}
	}

	// maxStart/minEnd are not propagated through dependencies; each only
	// constrains its own task. A violation is folded into ES > LF so the
	// driver's single bounds-infeasibility check (and the diagnostic it
	// emits) handles this the same way as any other propagation conflict,
	// instead of a second, parallel infeasibility path.
	for _, id := range order {
		b := bounds[id]
		if b.ES > b.LF {
			continue
		}
		violated := false
		if ms := effectiveMaxStart(ctx, id); ms != nil && b.ES > ctx.Grid.SlotAt(*ms) {
			violated = true
		}
		if me := effectiveMinEnd(ctx, id); me != nil && b.LF < ctx.Grid.SlotAt(*me)-1 {
			violated = true
		}
		if violated {
			b.LF = b.ES - 1
			bounds[id] = b
		}
	}

	return bounds, nil
}

func collectEdges(g *domain.Graph) []depEdge {
	var edges []depEdge
	for _, id := range g.TaskOrder {
		t := g.Tasks[id]
		for _, d := range t.Depends {
			edges = append(edges, depEdge{from: d.TargetID, to: id, gapDur: int64(d.GapDuration), gapLen: d.GapLength, anchor: d.Anchor})
		}
		for _, d := range t.Precedes {
			edges = append(edges, depEdge{from: id, to: d.TargetID, gapDur: int64(d.GapDuration), gapLen: d.GapLength, anchor: d.Anchor})
		}
	}
	return edges
}

// topoOrder computes a topological order over the dependency DAG augmented
// with implicit container->child edges (§4.C), using Kahn's algorithm for
// a deterministic, cycle-detecting sort. Ties are broken by declaration
// order (TaskOrder).
func topoOrder(g *domain.Graph, edges []depEdge) ([]domain.EntityID, error) {
	indegree := make(map[domain.EntityID]int)
	adj := make(map[domain.EntityID][]domain.EntityID)
	for _, id := range g.TaskOrder {
		indegree[id] = 0
	}
	addEdge := func(from, to domain.EntityID) {
		adj[from] = append(adj[from], to)
		indegree[to]++
	}
	for _, e := range edges {
		addEdge(e.from, e.to)
	}
	for _, id := range g.TaskOrder {
		t := g.Tasks[id]
		if t.ParentID != domain.NoEntity {
			addEdge(t.ParentID, id)
		}
	}

	declIndex := make(map[domain.EntityID]int, len(g.TaskOrder))
	for i, id := range g.TaskOrder {
		declIndex[id] = i
	}

	var ready []domain.EntityID
	for _, id := range g.TaskOrder {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var order []domain.EntityID
	for len(ready) > 0 {
		// Deterministic: always take the lowest-declaration-index ready node.
		bestIdx := 0
		for i := 1; i < len(ready); i++ {
			if declIndex[ready[i]] < declIndex[ready[bestIdx]] {
				bestIdx = i
			}
		}
		id := ready[bestIdx]
		ready = append(ready[:bestIdx], ready[bestIdx+1:]...)
		order = append(order, id)
		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(g.TaskOrder) {
		return nil, fmt.Errorf("dependency cycle detected among tasks: %s", describeCycle(g, indegree))
	}
	return order, nil
}

// describeCycle names the tasks still blocked after Kahn's algorithm
// stalls: the members of the remaining cycle(s) together with every task
// that depends on them, directly or transitively.
func describeCycle(g *domain.Graph, indegree map[domain.EntityID]int) string {
	var names []string
	for _, id := range g.TaskOrder {
		if indegree[id] > 0 {
			names = append(names, g.Tasks[id].DotPath)
		}
	}
	return strings.Join(names, ", ")
}

// minSpanSlots estimates a task's minimum possible elapsed span, used as a
// conservative lower bound when propagating ES/LF through a dependency
// whose predecessor/successor has not been scheduled yet. It is a floor,
// not an exact duration: component E (task scheduler) may place the task
// later if resources are unavailable, which is consistent with spec's
// "propagation itself does not fail" (§4.C).
func minSpanSlots(ctx *RunContext, id domain.EntityID) domain.Slot {
	t := ctx.Graph.Tasks[id]
	switch t.Kind {
	case domain.KindMilestone:
		return 0
	case domain.KindDuration:
		return domain.Slot(t.DurationSlots)
	case domain.KindLength:
		return domain.Slot(t.LengthSlots)
	case domain.KindEffort:
		effort := effectiveEffort(ctx, id)
		bestEff := bestCaseEfficiency(ctx, t)
		if bestEff <= 0 {
			bestEff = 1
		}
		slots := effort / bestEff
		return domain.Slot(slots + 0.999999) // ceil without importing math for one call
	}
	return 0
}

func bestCaseEfficiency(ctx *RunContext, t *domain.Task) float64 {
	best := 0.0
	for _, alloc := range t.Allocations {
		for _, rid := range alloc.Resources {
			for _, leaf := range ctx.Graph.ResourceLeaves(rid) {
				if r := ctx.Graph.Resources[leaf]; r != nil && r.EffectiveEfficiency() > best {
					best = r.EffectiveEfficiency()
				}
			}
		}
	}
	return best
}

func gapSlots(ctx *RunContext, e depEdge) domain.Slot {
	dur := domain.Slot(int64(e.gapDur) / int64(ctx.Grid.SlotDuration()))
	if e.gapLen <= 0 {
		return dur
	}
	// Approximate the working-slot gap as a slot count on the successor's
	// calendar; exact calendar-aware placement happens in the task
	// scheduler itself, which re-validates against the real calendar.
	cg := ctx.Cal.ForTask(e.to)
	count := 0
	s := domain.Slot(0)
	for count < e.gapLen && ctx.Grid.InWindow(s) {
		if cg.Working(s) {
			count++
		}
		s++
	}
	if s > dur {
		return s
	}
	return dur
}
