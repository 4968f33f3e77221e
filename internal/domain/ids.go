package domain

import "fmt"

// EntityID addresses a node in the frozen structural graph. Ids are stable
// for the lifetime of a Graph: nothing is renumbered once Freeze succeeds.
type EntityID int32

// NoEntity is the zero value, used where a reference is optional.
const NoEntity EntityID = 0

func (id EntityID) String() string {
	return fmt.Sprintf("#%d", int32(id))
}

// ScenarioID addresses a Scenario. Scenario 0 is never valid; every
// schedule run names a concrete scenario.
type ScenarioID int32

func (id ScenarioID) String() string {
	return fmt.Sprintf("scn#%d", int32(id))
}

// idAllocator hands out sequential EntityIDs during graph construction.
type idAllocator struct {
	next int32
}

func (a *idAllocator) Alloc() EntityID {
	a.next++
	return EntityID(a.next)
}
