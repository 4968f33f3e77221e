package domain

import (
	"fmt"
	"sort"
)

// Graph is the immutable, frozen structural graph of entities addressed by
// stable integer ids (§9 design note). It is built once by the ingestion
// package and never mutated afterwards; per-scenario derived state lives
// entirely outside it, in propstore overlays keyed by (EntityID, ScenarioID).
type Graph struct {
	Project *Project

	Tasks     map[EntityID]*Task
	Resources map[EntityID]*Resource
	Calendars map[EntityID]*Calendar
	Shifts    map[EntityID]*Shift
	Accounts  map[EntityID]*Account
	Scenarios map[ScenarioID]*Scenario

	// TaskOrder and ScenarioOrder preserve declaration order, the tie-break
	// basis for the `order` allocation policy and for CanonicalTaskOrder.
	TaskOrder     []EntityID
	ScenarioOrder []ScenarioID

	frozen bool
}

// NewGraph returns an empty, mutable Graph ready for ingestion to populate.
func NewGraph() *Graph {
	return &Graph{
		Tasks:     make(map[EntityID]*Task),
		Resources: make(map[EntityID]*Resource),
		Calendars: make(map[EntityID]*Calendar),
		Shifts:    make(map[EntityID]*Shift),
		Accounts:  make(map[EntityID]*Account),
		Scenarios: make(map[ScenarioID]*Scenario),
	}
}

// RootTasks returns tasks with no parent, in declaration order.
func (g *Graph) RootTasks() []*Task {
	var out []*Task
	for _, id := range g.TaskOrder {
		t := g.Tasks[id]
		if t.ParentID == NoEntity {
			out = append(out, t)
		}
	}
	return out
}

// Children returns a task's children in declaration order.
func (g *Graph) Children(id EntityID) []*Task {
	t := g.Tasks[id]
	if t == nil {
		return nil
	}
	out := make([]*Task, 0, len(t.ChildIDs))
	for _, cid := range t.ChildIDs {
		out = append(out, g.Tasks[cid])
	}
	return out
}

// Ancestors returns id's ancestor chain, nearest first, not including id.
func (g *Graph) Ancestors(id EntityID) []EntityID {
	var out []EntityID
	cur := g.Tasks[id]
	for cur != nil && cur.ParentID != NoEntity {
		out = append(out, cur.ParentID)
		cur = g.Tasks[cur.ParentID]
	}
	return out
}

// ScenarioChain returns id's ancestor chain, nearest first, including id
// itself first, per §4.B's "scenario's parent" lookup step.
func (g *Graph) ScenarioChain(id ScenarioID) []ScenarioID {
	chain := []ScenarioID{id}
	cur := g.Scenarios[id]
	for cur != nil && cur.ParentID != NoScenario {
		chain = append(chain, cur.ParentID)
		cur = g.Scenarios[cur.ParentID]
	}
	return chain
}

// ResourceLeaves expands a resource id to its leaf member ids, in
// declaration order. A leaf resource expands to itself.
func (g *Graph) ResourceLeaves(id EntityID) []EntityID {
	r := g.Resources[id]
	if r == nil {
		return nil
	}
	if !r.IsGroup {
		return []EntityID{id}
	}
	var out []EntityID
	seen := make(map[EntityID]bool)
	var expand func(EntityID)
	expand = func(rid EntityID) {
		member := g.Resources[rid]
		if member == nil || seen[rid] {
			return
		}
		seen[rid] = true
		if !member.IsGroup {
			out = append(out, rid)
			return
		}
		for _, mid := range member.MemberIDs {
			expand(mid)
		}
	}
	expand(id)
	return out
}

// Freeze performs the structural validation required before scheduling can
// start (§4.A project window, §7 "structural" errors: unknown reference,
// type mismatch). Structural errors abort scheduling of all scenarios, so
// Freeze returns a plain error rather than a diagnostic.
func (g *Graph) Freeze() error {
	if g.Project == nil {
		return fmt.Errorf("graph has no project")
	}
	if err := g.Project.ValidateWindow(); err != nil {
		return err
	}
	if g.Project.CalendarID != NoEntity {
		if _, ok := g.Calendars[g.Project.CalendarID]; !ok {
			return fmt.Errorf("project references unknown calendar %s", g.Project.CalendarID)
		}
	}
	for _, id := range g.TaskOrder {
		t := g.Tasks[id]
		if t.ParentID != NoEntity {
			if _, ok := g.Tasks[t.ParentID]; !ok {
				return fmt.Errorf("task %s references unknown parent %s", t.DotPath, t.ParentID)
			}
		}
		if !ValidTaskKinds[t.Kind] {
			return fmt.Errorf("task %s has unknown kind %q", t.DotPath, t.Kind)
		}
		if t.IsContainer() && (t.Effort != 0 || len(t.Allocations) != 0 || len(t.BookingsInput) != 0) {
			return fmt.Errorf("container task %s declares own effort, allocations, or bookings", t.DotPath)
		}
		for _, d := range t.Depends {
			if _, ok := g.Tasks[d.TargetID]; !ok {
				return fmt.Errorf("task %s depends on unknown task %s", t.DotPath, d.TargetID)
			}
		}
		for _, d := range t.Precedes {
			if _, ok := g.Tasks[d.TargetID]; !ok {
				return fmt.Errorf("task %s precedes unknown task %s", t.DotPath, d.TargetID)
			}
		}
		for _, alloc := range t.Allocations {
			if !ValidAllocationPolicies[alloc.Policy] {
				return fmt.Errorf("task %s has unknown allocation policy %q", t.DotPath, alloc.Policy)
			}
			for _, rid := range alloc.Resources {
				if _, ok := g.Resources[rid]; !ok {
					return fmt.Errorf("task %s allocates unknown resource %s", t.DotPath, rid)
				}
			}
		}
		for _, b := range t.BookingsInput {
			if _, ok := g.Resources[b.ResourceID]; !ok {
				return fmt.Errorf("task %s books unknown resource %s", t.DotPath, b.ResourceID)
			}
		}
	}
	for _, r := range g.Resources {
		for _, mid := range r.MemberIDs {
			if _, ok := g.Resources[mid]; !ok {
				return fmt.Errorf("resource group %s references unknown member %s", r.Name, mid)
			}
		}
	}
	for _, s := range g.Scenarios {
		if s.ParentID != NoScenario {
			if _, ok := g.Scenarios[s.ParentID]; !ok {
				return fmt.Errorf("scenario %s references unknown parent scenario %d", s.Name, s.ParentID)
			}
		}
	}
	sort.Slice(g.ScenarioOrder, func(i, j int) bool { return g.ScenarioOrder[i] < g.ScenarioOrder[j] })
	g.frozen = true
	return nil
}

// Frozen reports whether Freeze has succeeded on this graph.
func (g *Graph) Frozen() bool {
	return g.frozen
}
