package scheduler

import (
	"sort"

	"github.com/arborsched/arbor/internal/domain"
)

// loadPriority returns a sort priority (lower = preferred first) for a
// resource under policy, given its current load in the scenario.
func loadPriority(ctx *RunContext, policy domain.AllocationPolicy, task domain.EntityID, res domain.EntityID) float64 {
	switch policy {
	case domain.PolicyMinLoaded:
		return ctx.Load.TotalEffort(res)
	case domain.PolicyMaxLoaded:
		return -ctx.Load.TotalEffort(res)
	case domain.PolicyMinAllocated:
		return float64(ctx.Load.TaskSlotCount(res, task))
	default:
		return 0
	}
}

// RankCandidates orders the leaf resources of one allocation candidate set
// for task under policy (§4.D step 2):
//  1. priority per the policy's load metric (order/random are flat: every
//     candidate ranks equal and declaration order decides)
//  2. declaration order, as the stable tie-break so results never depend on
//     Go's map iteration order.
//
// `order` and `random` policies are handled by their callers directly
// (random needs the deterministic PRNG pick, not a sort); this function
// serves minloaded/maxloaded/minallocated.
func RankCandidates(ctx *RunContext, task domain.EntityID, leaves []domain.EntityID, policy domain.AllocationPolicy) []domain.EntityID {
	out := make([]domain.EntityID, len(leaves))
	copy(out, leaves)
	declIndex := make(map[domain.EntityID]int, len(leaves))
	for i, id := range leaves {
		declIndex[id] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi := loadPriority(ctx, policy, task, out[i])
		pj := loadPriority(ctx, policy, task, out[j])
		if pi != pj {
			return pi < pj
		}
		return declIndex[out[i]] < declIndex[out[j]]
	})
	return out
}

// CanonicalTaskOrder returns the graph's tasks in declaration order, the
// tie-break basis used throughout the scheduler whenever an operation must
// visit every task in a stable, reproducible sequence (diagnostics
// emission, validation, DTO export).
func CanonicalTaskOrder(g *domain.Graph) []domain.EntityID {
	out := make([]domain.EntityID, len(g.TaskOrder))
	copy(out, g.TaskOrder)
	return out
}
