package domain

// TaskKind selects which of the four scheduling shapes a leaf task uses.
// Container-ness is tracked separately (Task.IsContainer), not as a fifth kind.
type TaskKind string

const (
	KindEffort    TaskKind = "effort"
	KindDuration  TaskKind = "duration"
	KindLength    TaskKind = "length"
	KindMilestone TaskKind = "milestone"
)

// Direction controls whether a task is placed ASAP from its earliest start
// or ALAP from its latest finish.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// TaskState is the per-(task,scenario) state machine position, per spec §4.E.
type TaskState string

const (
	StateInit             TaskState = "init"
	StateReady            TaskState = "ready"
	StateRunning          TaskState = "running"
	StatePendingChildren  TaskState = "pending-children"
	StateScheduled        TaskState = "scheduled"
	StateBlocked          TaskState = "blocked"
	StateInfeasible       TaskState = "infeasible"
	StateAborted          TaskState = "aborted"
)

// ScenarioState tracks the overall progress of a scenario's scheduling run.
type ScenarioState string

const (
	ScenarioPending   ScenarioState = "pending"
	ScenarioRunning   ScenarioState = "running"
	ScenarioScheduled ScenarioState = "scheduled"
	ScenarioAborted   ScenarioState = "aborted"
)

// Status is the reporting-facing derived status: "on-track/behind/complete".
// Unlike TaskState (a scheduler-internal machine position) Status is meant
// for the reporter and answers "is this task/project in trouble", not "has
// it been placed yet".
type Status string

const (
	StatusOnTrack    Status = "on-track"
	StatusBehind     Status = "behind"
	StatusComplete   Status = "complete"
	StatusInfeasible Status = "infeasible"
)

// AllocationPolicy is the tie-break/selection rule applied within one
// candidate set at a slot, per spec §4.D.
type AllocationPolicy string

const (
	PolicyOrder        AllocationPolicy = "order"
	PolicyMinLoaded     AllocationPolicy = "minloaded"
	PolicyMaxLoaded     AllocationPolicy = "maxloaded"
	PolicyMinAllocated AllocationPolicy = "minallocated"
	PolicyRandom        AllocationPolicy = "random"
)

// DependencyAnchor controls which end of the predecessor/successor a gap is
// measured from.
type DependencyAnchor string

const (
	AnchorOnEnd   DependencyAnchor = "onend"   // default: predecessor end -> successor start
	AnchorOnStart DependencyAnchor = "onstart"
)

// ChargeTiming selects when a charge/revenue event fires.
type ChargeTiming string

const (
	ChargeOnStart ChargeTiming = "onstart"
	ChargeOnEnd   ChargeTiming = "onend"
	ChargePerSlot ChargeTiming = "perslot"
)

// SloppyLevel relaxes booking-interval validation during projection, per
// spec §4.G.
type SloppyLevel int

const (
	SloppyNone          SloppyLevel = 0 // same-slot partial spillover only
	SloppyPartialSlot    SloppyLevel = 0 // level 0 already allows a same-slot partial
	SloppyNonWorking     SloppyLevel = 1 // also allow non-working hours
)

// ChargeKind distinguishes a cost debit from a revenue credit.
type ChargeKind string

const (
	ChargeKindCost    ChargeKind = "cost"
	ChargeKindRevenue ChargeKind = "revenue"
)

// ValidTaskKinds is the canonical accepted set, used by ingestion validation.
var ValidTaskKinds = map[TaskKind]bool{
	KindEffort: true, KindDuration: true, KindLength: true, KindMilestone: true,
}

// ValidAllocationPolicies is the canonical accepted set.
var ValidAllocationPolicies = map[AllocationPolicy]bool{
	PolicyOrder: true, PolicyMinLoaded: true, PolicyMaxLoaded: true,
	PolicyMinAllocated: true, PolicyRandom: true,
}
