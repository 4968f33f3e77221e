// Package timegrid implements the discrete slot index and calendar
// bitmaps described in spec §4.A: wall-clock <-> slot conversion honouring
// the project's time zone and DST, and an O(1) working?(slot) predicate
// backed by a lazily-built bitmap per calendar.
package timegrid

import (
	"time"

	"github.com/arborsched/arbor/internal/domain"
)

// Grid converts between wall-clock time and the project's slot index.
type Grid struct {
	project *domain.Project
	tz      *time.Location
	slotDur time.Duration
	total   domain.Slot
}

// NewGrid builds a Grid for p, validating the window/slot-size
// preconditions of §4.A.
func NewGrid(p *domain.Project) (*Grid, error) {
	if err := p.ValidateWindow(); err != nil {
		return nil, err
	}
	tz := p.TimeZone
	if tz == nil {
		tz = time.UTC
	}
	slotDur := time.Duration(p.EffectiveSlotSeconds()) * time.Second
	total := domain.Slot(p.End.Sub(p.Start) / slotDur)
	return &Grid{project: p, tz: tz, slotDur: slotDur, total: total}, nil
}

// SlotAt returns the slot index containing t. Slot indices are absolute
// elapsed-duration offsets from Project.Start, so they are unaffected by
// DST transitions; Local converts a slot's instant into the project's wall
// clock for calendar-predicate evaluation.
func (g *Grid) SlotAt(t time.Time) domain.Slot {
	return domain.Slot(t.Sub(g.project.Start) / g.slotDur)
}

// TimeAt returns the instant at which slot s begins.
func (g *Grid) TimeAt(s domain.Slot) time.Time {
	return g.project.Start.Add(time.Duration(s) * g.slotDur)
}

// SlotEnd returns the instant at which slot s ends (== start of s+1).
func (g *Grid) SlotEnd(s domain.Slot) time.Time {
	return g.TimeAt(s + 1)
}

// Local converts an instant into the project's configured time zone.
func (g *Grid) Local(t time.Time) time.Time {
	return t.In(g.tz)
}

// TotalSlots returns the number of slots spanning [Project.Start, Project.End).
func (g *Grid) TotalSlots() domain.Slot {
	return g.total
}

// InWindow reports whether s falls within [0, TotalSlots).
func (g *Grid) InWindow(s domain.Slot) bool {
	return s >= 0 && s < g.total
}

// SlotDuration returns the configured slot width.
func (g *Grid) SlotDuration() time.Duration {
	return g.slotDur
}

// Clamp returns s clamped into [0, TotalSlots).
func (g *Grid) Clamp(s domain.Slot) domain.Slot {
	if s < 0 {
		return 0
	}
	if s >= g.total {
		return g.total - 1
	}
	return s
}
