package scheduler

import (
	"github.com/arborsched/arbor/internal/domain"
)

// AllocationResult is one candidate set's outcome at a slot: either a
// chosen leaf resource and its efficiency share, or NoEntity when nothing
// eligible was found (§4.D output).
type AllocationResult struct {
	Resource        domain.EntityID
	EfficiencyShare float64
	Found           bool
}

// stickyKey remembers, per (task, allocation-index), the resource last
// bound so that a `persistent` candidate set reuses it across slots.
type stickyKey struct {
	Task  domain.EntityID
	Index int
}

// Allocator runs §4.D's selection procedure against a scenario's shared
// ResourceLoad. One Allocator serves exactly one RunContext (one scenario),
// matching §5's "strictly sequential, single-threaded" allocation model.
type Allocator struct {
	ctx    *RunContext
	sticky map[stickyKey]domain.EntityID
}

// NewAllocator returns an Allocator bound to ctx.
func NewAllocator(ctx *RunContext) *Allocator {
	return &Allocator{ctx: ctx, sticky: make(map[stickyKey]domain.EntityID)}
}

// Allocate runs the selection procedure for allocIndex's candidate set on
// task at slot, honouring sloppy-relaxed calendar checks when relax is
// true (projection mode, §4.G).
func (a *Allocator) Allocate(task domain.EntityID, allocIndex int, set domain.AllocationCandidateSet, slot domain.Slot, relax bool) AllocationResult {
	eligible := a.eligible(task, set, slot, relax)
	if len(eligible) == 0 {
		return AllocationResult{}
	}

	key := stickyKey{Task: task, Index: allocIndex}
	if set.Persistent {
		if prev, ok := a.sticky[key]; ok {
			for _, r := range eligible {
				if r == prev {
					return a.commit(task, prev, slot)
				}
			}
		}
	}

	var chosen domain.EntityID
	switch set.Policy {
	case domain.PolicyOrder, "":
		chosen = eligible[0]
	case domain.PolicyMinLoaded, domain.PolicyMaxLoaded, domain.PolicyMinAllocated:
		chosen = RankCandidates(a.ctx, task, eligible, set.Policy)[0]
	case domain.PolicyRandom:
		seed := a.ctx.Graph.Project.Seed
		if set.RandomSeed != nil {
			seed = *set.RandomSeed
		}
		chosen = eligible[deterministicPick(seed, task, slot, len(eligible))]
	default:
		chosen = eligible[0]
	}

	if set.Persistent {
		a.sticky[key] = chosen
	}
	return a.commit(task, chosen, slot)
}

func (a *Allocator) commit(task, resource domain.EntityID, slot domain.Slot) AllocationResult {
	res := a.ctx.Graph.Resources[resource]
	share := res.EffectiveEfficiency() - a.ctx.Load.CommittedShare(resource, slot)
	if share <= 0 {
		return AllocationResult{}
	}
	return AllocationResult{Resource: resource, EfficiencyShare: share, Found: true}
}

// eligible expands set.Resources to leaves in declaration order and drops
// any leaf that is on vacation, outside its working calendar/shift, already
// saturated at slot, or over a daily/weekly/monthly cap (§4.D step 1).
func (a *Allocator) eligible(task domain.EntityID, set domain.AllocationCandidateSet, slot domain.Slot, relax bool) []domain.EntityID {
	var out []domain.EntityID
	t := a.ctx.Grid.TimeAt(slot)
	for _, rid := range set.Resources {
		for _, leaf := range a.ctx.Graph.ResourceLeaves(rid) {
			res := a.ctx.Graph.Resources[leaf]
			if res == nil {
				continue
			}
			if !relax && res.OnVacation(t) {
				continue
			}
			if !relax && !a.ctx.Cal.ForResource(leaf).Working(slot) {
				continue
			}
			if a.ctx.Load.CommittedShare(leaf, slot) >= res.EffectiveEfficiency() {
				continue
			}
			if !a.ctx.Load.CapsOK(a.ctx.Grid, res, slot) {
				continue
			}
			out = append(out, leaf)
		}
	}
	return out
}
