package timegrid

import (
	"math/bits"
	"sync"
	"time"

	"github.com/arborsched/arbor/internal/domain"
)

// Predicate answers whether an instant is a working instant. Calendars and
// shift-overridden calendars are both reduced to a Predicate before being
// baked into a bitmap.
type Predicate func(t time.Time) bool

// ComposePredicate builds the working?(t) predicate for a calendar,
// overridden by any shift active at t (§4.A: "a per-resource or per-task
// shift overrides the project calendar during its interval"). Shifts are
// checked in declaration order; the first one whose interval contains t
// wins.
func ComposePredicate(grid *Grid, base *domain.WorkingTemplate, shifts []domain.ShiftAssignment, shiftDefs map[domain.EntityID]*domain.Shift) Predicate {
	return func(t time.Time) bool {
		for _, sa := range shifts {
			if !t.Before(sa.Start) && t.Before(sa.End) {
				if sh := shiftDefs[sa.ShiftID]; sh != nil {
					return sh.WorkingTemplate.IsWorking(grid.Local(t))
				}
			}
		}
		return base.IsWorking(grid.Local(t))
	}
}

// CalendarGrid is a lazily-built bitmap over [0, grid.TotalSlots()) that
// answers Working(slot) in O(1) and CountWorking(range) in O(slots/word),
// per §4.A.
type CalendarGrid struct {
	grid      *Grid
	predicate Predicate

	mu    sync.Mutex
	bits  []uint64
	built bool
}

// NewCalendarGrid returns a CalendarGrid that will lazily evaluate
// predicate over grid's slots on first use.
func NewCalendarGrid(grid *Grid, predicate Predicate) *CalendarGrid {
	return &CalendarGrid{grid: grid, predicate: predicate}
}

func (c *CalendarGrid) ensureBuilt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return
	}
	total := int(c.grid.TotalSlots())
	words := (total + 63) / 64
	bitset := make([]uint64, words)
	for s := 0; s < total; s++ {
		if c.predicate(c.grid.TimeAt(domain.Slot(s))) {
			bitset[s/64] |= 1 << uint(s%64)
		}
	}
	c.bits = bitset
	c.built = true
}

// Working reports whether slot s is a working slot. Out-of-window slots
// are never working.
func (c *CalendarGrid) Working(s domain.Slot) bool {
	if !c.grid.InWindow(s) {
		return false
	}
	c.ensureBuilt()
	return c.bits[int(s)/64]&(1<<uint(int(s)%64)) != 0
}

// CountWorking returns the number of working slots in [start, end),
// clamped to the grid window.
func (c *CalendarGrid) CountWorking(start, end domain.Slot) int {
	if end <= start {
		return 0
	}
	c.ensureBuilt()
	if start < 0 {
		start = 0
	}
	if end > c.grid.TotalSlots() {
		end = c.grid.TotalSlots()
	}
	if end <= start {
		return 0
	}
	count := 0
	s := int(start)
	e := int(end)
	for s < e {
		wordIdx := s / 64
		wordStart := s % 64
		wordEnd := 64
		if wordIdx == e/64 {
			wordEnd = e % 64
		}
		word := c.bits[wordIdx]
		mask := uint64(0)
		if wordEnd > wordStart {
			mask = (^uint64(0) >> uint(64-(wordEnd-wordStart))) << uint(wordStart)
		}
		count += bits.OnesCount64(word & mask)
		s += wordEnd - wordStart
	}
	return count
}

// NextWorking returns the first working slot >= from, or -1 if none remain
// in the window.
func (c *CalendarGrid) NextWorking(from domain.Slot) domain.Slot {
	c.ensureBuilt()
	for s := from; c.grid.InWindow(s); s++ {
		if c.Working(s) {
			return s
		}
	}
	return domain.NoSlot
}

// PrevWorking returns the last working slot <= from, or -1 if none remain.
func (c *CalendarGrid) PrevWorking(from domain.Slot) domain.Slot {
	c.ensureBuilt()
	for s := from; s >= 0; s-- {
		if c.Working(s) {
			return s
		}
	}
	return domain.NoSlot
}
