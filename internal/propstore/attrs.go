// Package propstore implements the per-(entity, scenario) attribute table
// described in spec §4.B: a dense table with documented inheritance.
// Reads resolve explicit (entity,scenario) -> scenario's parent ->
// container entity's table under the same scenario -> documented default.
// Writes are only ever issued by the scheduler, onto the scenario it is
// currently scheduling, and only for attributes declared derived.
package propstore

// AttrID names one overridable or derived attribute. The catalogue here is
// the attribute catalogue §6 refers to as the scheduler/parser contract.
type AttrID string

const (
	// Derived attributes: written only by the scheduler of the scenario
	// currently being scheduled (§4.B); read-only for reporters once the
	// scenario is marked scheduled (§3 Lifecycle).
	AttrStart           AttrID = "start"
	AttrEnd             AttrID = "end"
	AttrBookings        AttrID = "bookings"
	AttrComplete        AttrID = "complete"
	AttrAssignedResources AttrID = "assignedResources"
	AttrAccruedCost     AttrID = "accruedCost"
	AttrAccruedRevenue  AttrID = "accruedRevenue"
	AttrRemainingEffort AttrID = "remainingEffort"
	AttrState           AttrID = "state"
	AttrStatus          AttrID = "status"
	AttrES              AttrID = "es" // earliest start slot, scratch state for §4.C/E
	AttrLF              AttrID = "lf" // latest finish slot
	AttrCursor          AttrID = "cursor"
	AttrPlaced          AttrID = "placed" // working slots placed so far, length-kind tasks only

	// User-overridable input attributes: settable per-scenario at
	// ingestion time, frozen (read-only) for the scheduler thereafter.
	AttrMinStart AttrID = "minStart"
	AttrMaxStart AttrID = "maxStart"
	AttrMinEnd   AttrID = "minEnd"
	AttrMaxEnd   AttrID = "maxEnd"
	AttrEffort   AttrID = "effortOverride"
)

// DerivedAttrs is the set writable only by the scheduler (§4.B, §3
// Lifecycle). Ingestion code must never call SetInput with one of these;
// Store enforces this by only exposing SetDerived for them.
var DerivedAttrs = map[AttrID]bool{
	AttrStart: true, AttrEnd: true, AttrBookings: true, AttrComplete: true,
	AttrAssignedResources: true, AttrAccruedCost: true, AttrAccruedRevenue: true,
	AttrRemainingEffort: true, AttrState: true, AttrStatus: true,
	AttrES: true, AttrLF: true, AttrCursor: true, AttrPlaced: true,
}
