// Package ingest converts the typed property tree that forms the
// scheduler's contract into a frozen domain.Graph. A surface parser that
// would produce this tree from free-form project description text is out
// of scope; ingest instead accepts the tree pre-structured as JSON or
// YAML.
package ingest

// Document is the top-level typed tree: one project, its calendars,
// shifts, resources, accounts, the task forest, and the scenario set.
type Document struct {
	Project   ProjectDoc    `json:"project" yaml:"project"`
	Calendars []CalendarDoc `json:"calendars,omitempty" yaml:"calendars,omitempty"`
	Shifts    []ShiftDoc    `json:"shifts,omitempty" yaml:"shifts,omitempty"`
	Resources []ResourceDoc `json:"resources,omitempty" yaml:"resources,omitempty"`
	Accounts  []AccountDoc  `json:"accounts,omitempty" yaml:"accounts,omitempty"`
	Tasks     []TaskDoc     `json:"tasks" yaml:"tasks"`
	Scenarios []ScenarioDoc `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

type ProjectDoc struct {
	Name              string `json:"name" yaml:"name"`
	Start             string `json:"start" yaml:"start"`
	End               string `json:"end" yaml:"end"`
	TimeZone          string `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
	SlotSeconds       int    `json:"slotSeconds,omitempty" yaml:"slotSeconds,omitempty"`
	Calendar          string `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	CurrencyPrecision int    `json:"currencyPrecision,omitempty" yaml:"currencyPrecision,omitempty"`
	Seed              int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
}

type TimeRangeDoc struct {
	Start string `json:"start" yaml:"start"` // "HH:MM"
	End   string `json:"end" yaml:"end"`
}

type DateIntervalDoc struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type WorkingTemplateDoc struct {
	Weekly                 map[string][]TimeRangeDoc  `json:"weekly,omitempty" yaml:"weekly,omitempty"`
	DateExceptions         map[string][]TimeRangeDoc  `json:"dateExceptions,omitempty" yaml:"dateExceptions,omitempty"`
	Holidays               []DateIntervalDoc          `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	ProductivityMultiplier float64                    `json:"productivityMultiplier,omitempty" yaml:"productivityMultiplier,omitempty"`
}

type CalendarDoc struct {
	Name string `json:"name" yaml:"name"`
	WorkingTemplateDoc `yaml:",inline"`
}

type ShiftDoc struct {
	Name string `json:"name" yaml:"name"`
	WorkingTemplateDoc `yaml:",inline"`
}

type ShiftAssignmentDoc struct {
	Shift string `json:"shift" yaml:"shift"`
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

type RateDoc struct {
	EffectiveFrom string  `json:"effectiveFrom" yaml:"effectiveFrom"`
	PerSlot       float64 `json:"perSlot" yaml:"perSlot"`
}

type LimitsDoc struct {
	PerDaySlots   int `json:"perDaySlots,omitempty" yaml:"perDaySlots,omitempty"`
	PerWeekSlots  int `json:"perWeekSlots,omitempty" yaml:"perWeekSlots,omitempty"`
	PerMonthSlots int `json:"perMonthSlots,omitempty" yaml:"perMonthSlots,omitempty"`
}

type ResourceDoc struct {
	Name       string               `json:"name" yaml:"name"`
	IsGroup    bool                 `json:"isGroup,omitempty" yaml:"isGroup,omitempty"`
	Members    []string             `json:"members,omitempty" yaml:"members,omitempty"`
	Efficiency float64              `json:"efficiency,omitempty" yaml:"efficiency,omitempty"`
	Calendar   string               `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	Shifts     []ShiftAssignmentDoc `json:"shifts,omitempty" yaml:"shifts,omitempty"`
	Vacations  []DateIntervalDoc    `json:"vacations,omitempty" yaml:"vacations,omitempty"`
	Limits     LimitsDoc            `json:"limits,omitempty" yaml:"limits,omitempty"`
	Rates      []RateDoc            `json:"rates,omitempty" yaml:"rates,omitempty"`
}

type AccountDoc struct {
	Name   string `json:"name" yaml:"name"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

type DependencyDoc struct {
	// Target is a dot-path. A leading "!" resolves against the declaring
	// task's own parent (sibling scope); a leading "!!" resolves against
	// the grandparent (parent scope); otherwise Target is absolute.
	Target      string `json:"target" yaml:"target"`
	GapDuration string `json:"gapDuration,omitempty" yaml:"gapDuration,omitempty"`
	GapLength   int    `json:"gapLength,omitempty" yaml:"gapLength,omitempty"`
	Anchor      string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

type AllocationDoc struct {
	Resources  []string `json:"resources" yaml:"resources"`
	Policy     string   `json:"policy,omitempty" yaml:"policy,omitempty"`
	RandomSeed *int64   `json:"randomSeed,omitempty" yaml:"randomSeed,omitempty"`
	Persistent bool     `json:"persistent,omitempty" yaml:"persistent,omitempty"`
	Mandatory  bool     `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
}

type BookingDoc struct {
	Resource        string  `json:"resource,omitempty" yaml:"resource,omitempty"`
	Start           string  `json:"start" yaml:"start"`
	End             string  `json:"end" yaml:"end"`
	OverheadMin     int     `json:"overheadMin,omitempty" yaml:"overheadMin,omitempty"`
	Sloppy          int     `json:"sloppy,omitempty" yaml:"sloppy,omitempty"`
	EfficiencyShare float64 `json:"efficiencyShare,omitempty" yaml:"efficiencyShare,omitempty"`
}

type ChargeDoc struct {
	Account string  `json:"account,omitempty" yaml:"account,omitempty"`
	Amount  float64 `json:"amount" yaml:"amount"`
	Kind    string  `json:"kind" yaml:"kind"`
	Timing  string  `json:"timing" yaml:"timing"`
}

// TaskDoc is one node of the declared forest. Name is a single path
// segment; the full dot path is derived at build time from nesting.
type TaskDoc struct {
	Name string `json:"name" yaml:"name"`

	Kind      string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`

	Start    *string `json:"start,omitempty" yaml:"start,omitempty"`
	End      *string `json:"end,omitempty" yaml:"end,omitempty"`
	MinStart *string `json:"minStart,omitempty" yaml:"minStart,omitempty"`
	MaxStart *string `json:"maxStart,omitempty" yaml:"maxStart,omitempty"`
	MinEnd   *string `json:"minEnd,omitempty" yaml:"minEnd,omitempty"`
	MaxEnd   *string `json:"maxEnd,omitempty" yaml:"maxEnd,omitempty"`

	Effort        float64  `json:"effort,omitempty" yaml:"effort,omitempty"`
	DurationSlots int      `json:"durationSlots,omitempty" yaml:"durationSlots,omitempty"`
	LengthSlots   int      `json:"lengthSlots,omitempty" yaml:"lengthSlots,omitempty"`
	CompleteUser  *float64 `json:"completeUser,omitempty" yaml:"completeUser,omitempty"`

	Depends  []DependencyDoc `json:"depends,omitempty" yaml:"depends,omitempty"`
	Precedes []DependencyDoc `json:"precedes,omitempty" yaml:"precedes,omitempty"`

	Allocations   []AllocationDoc `json:"allocations,omitempty" yaml:"allocations,omitempty"`
	BookingsInput []BookingDoc    `json:"bookings,omitempty" yaml:"bookings,omitempty"`

	Charges []ChargeDoc `json:"charges,omitempty" yaml:"charges,omitempty"`
	Account string      `json:"account,omitempty" yaml:"account,omitempty"`

	Calendar string               `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	Shifts   []ShiftAssignmentDoc `json:"shifts,omitempty" yaml:"shifts,omitempty"`

	ActualScheduled bool `json:"actualScheduled,omitempty" yaml:"actualScheduled,omitempty"`
	StrictBookings  bool `json:"strictBookings,omitempty" yaml:"strictBookings,omitempty"`

	Children []TaskDoc `json:"children,omitempty" yaml:"children,omitempty"`
}

type ScenarioDoc struct {
	Name           string `json:"name" yaml:"name"`
	Parent         string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Projection     bool   `json:"projection,omitempty" yaml:"projection,omitempty"`
	StrictBookings bool   `json:"strictBookings,omitempty" yaml:"strictBookings,omitempty"`
	Disabled       bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// BookingExport is the deterministic persisted-artefact format for a
// scenario's bookings: one (task, resource, interval, sloppy) triple per
// line item, addressed by dot path and resource name so it can be
// re-ingested against a re-parsed Document without depending on
// EntityIDs from a prior run.
type BookingExport struct {
	ScenarioName string              `json:"scenarioName" yaml:"scenarioName"`
	Bookings     []ExportedBooking   `json:"bookings" yaml:"bookings"`
}

type ExportedBooking struct {
	TaskPath        string  `json:"taskPath" yaml:"taskPath"`
	Resource        string  `json:"resource,omitempty" yaml:"resource,omitempty"`
	Start           string  `json:"start" yaml:"start"`
	End             string  `json:"end" yaml:"end"`
	OverheadMin     int     `json:"overheadMin,omitempty" yaml:"overheadMin,omitempty"`
	Sloppy          int     `json:"sloppy,omitempty" yaml:"sloppy,omitempty"`
	EfficiencyShare float64 `json:"efficiencyShare,omitempty" yaml:"efficiencyShare,omitempty"`
}
