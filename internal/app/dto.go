// Package app holds the scheduling engine's outward-facing ports and
// DTOs: the ScheduleService interface cmd/arbor's CLI drives, and the
// reporter-facing ScheduleResult shape, following a typical
// ports-and-DTOs split between an app layer and its service
// implementation.
package app

import "time"

// ResourceAssignment is one resource's booked share of a task.
type ResourceAssignment struct {
	Resource        string
	EfficiencyShare float64
}

// TaskView is one task's reporting-facing projection: start, end,
// assignments, bookedEffort, remainingEffort, completePercent, cost,
// revenue, state, plus a derived Status.
type TaskView struct {
	DotPath string
	Name    string

	Start *time.Time
	End   *time.Time

	Assignments     []ResourceAssignment
	BookedEffort    float64
	RemainingEffort float64
	CompletePercent float64
	Cost            float64
	Revenue         float64

	State  string // domain.TaskState
	Status string // domain.Status
}

// BookedSlot is one occupied slot on a resource's assignment timeline.
type BookedSlot struct {
	Task  string
	Start time.Time
	End   time.Time
}

// ResourceView is one resource's reporting-facing projection: its assigned
// slot timeline and a utilisation percentage over the project window.
type ResourceView struct {
	Name               string
	Assignments        []BookedSlot
	UtilisationPercent float64
}

// DiagnosticView is the reporter-facing projection of one
// scheduler.Diagnostic: entity ids resolved to dot paths/resource names.
type DiagnosticView struct {
	Severity string
	Kind     string
	Message  string
	Refs     []string
	Slot     *int64
}

// ScheduleResult is the full per-scenario outcome handed back to the CLI
// and TUI: the computed task/resource views alongside the ordered
// diagnostic list, even when the scenario only partially completed.
type ScheduleResult struct {
	ScenarioName string
	State        string // domain.ScenarioState
	Tasks        []TaskView
	Resources    []ResourceView
	Diagnostics  []DiagnosticView
}
