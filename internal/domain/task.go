package domain

import "time"

// DependencyLink is one edge of a `depends`/`precedes` declaration
// (§3, §4.C). GapDuration is a wall-clock gap; GapLength is a working-slot
// gap measured against the dependent task's own calendar. Declaring both is
// legal; the resolver adds whichever produces the later bound.
type DependencyLink struct {
	TargetID    EntityID
	GapDuration time.Duration
	GapLength   int
	Anchor      DependencyAnchor
}

// Booking is an explicit (resource, interval) assertion, either supplied by
// the user as input (projection ground truth) or produced by the scheduler
// as output (§3 ScheduleSlot rolled up into a booking span, see Glossary).
type Booking struct {
	ResourceID      EntityID
	Start           time.Time
	End             time.Time
	OverheadMin     int
	Sloppy          SloppyLevel
	EfficiencyShare float64 // share of the resource's effective efficiency booked
}

// AllocationCandidateSet is one entry of a task's ordered allocation list
// (§3, §4.D).
type AllocationCandidateSet struct {
	Resources    []EntityID // declaration order; may include group ids
	Policy       AllocationPolicy
	RandomSeed   *int64
	Persistent   bool
	Mandatory    bool
}

// ChargeEvent is one charge/revenue rule attached to a task (§3, §4.H).
type ChargeEvent struct {
	AccountID EntityID
	Amount    float64
	Kind      ChargeKind
	Timing    ChargeTiming
}

// Task is a node in the ordered forest described in §3. Structural fields
// (ID, ParentID, ChildIDs, Kind) are frozen once the graph is built;
// everything below is the user-declared default, subject to per-scenario
// override and to the scheduler's derived-attribute overlay in propstore.
type Task struct {
	ID       EntityID
	ParentID EntityID // NoEntity for a root task
	ChildIDs []EntityID
	Seq      int    // project-scoped sequential id, assigned at ingestion
	DotPath  string // hierarchical identifier, e.g. "foo.bar"
	Name     string

	Kind      TaskKind
	Direction Direction

	Start    *time.Time
	End      *time.Time
	MinStart *time.Time
	MaxStart *time.Time
	MinEnd   *time.Time
	MaxEnd   *time.Time

	Effort       float64 // resource-slots required, for KindEffort
	DurationSlots int     // wall-clock slot count, for KindDuration
	LengthSlots   int     // working-slot count, for KindLength

	CompleteUser *float64 // user-supplied completion percentage, reporting-only

	Depends  []DependencyLink
	Precedes []DependencyLink

	Allocations   []AllocationCandidateSet
	BookingsInput []Booking

	Charges   []ChargeEvent
	AccountID EntityID

	CalendarID EntityID // 0 => inherit project calendar
	Shifts     []ShiftAssignment

	// ActualScheduled mirrors the `actual:scheduled` declaration: once
	// bookings are applied in projection mode, the task is considered
	// scheduled regardless of remaining effort (§4.G, §9 open question 2).
	ActualScheduled bool

	// StrictBookings mirrors a task-level override of the scenario's
	// strict-bookings flag: a booking beyond declared effort is an error
	// rather than an advisory, unless ActualScheduled also applies.
	StrictBookings bool
}

// IsContainer reports whether the task has children. Containers carry no
// own effort, bookings, or allocations (§3 invariant 3).
func (t *Task) IsContainer() bool {
	return len(t.ChildIDs) > 0
}

// IsMilestone reports whether the task is a zero-duration event.
func (t *Task) IsMilestone() bool {
	return t.Kind == KindMilestone
}
