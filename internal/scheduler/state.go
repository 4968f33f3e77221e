package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
	"github.com/arborsched/arbor/internal/timegrid"
)

// resTaskKey composite-keys per-(resource,task) counters.
type resTaskKey struct {
	Resource domain.EntityID
	Task     domain.EntityID
}

// resDayKey composite-keys per-(resource, calendar-period) counters used
// for the daily/weekly/monthly cap checks of §4.D step 1.
type resDayKey struct {
	Resource domain.EntityID
	Period   string
}

// ResourceLoad is the shared per-scenario assignment map §5 describes as
// the allocator's main consistency invariant: within one scenario,
// scheduling is strictly sequential, so a plain map guarded by a mutex
// (rather than per-slot locking) is sufficient and keeps iteration order
// reproducible.
type ResourceLoad struct {
	mu sync.Mutex

	bySlot        map[domain.EntityID]map[domain.Slot]float64
	totalEffort   map[domain.EntityID]float64
	taskSlotCount map[resTaskKey]int
	dayCount      map[resDayKey]int
	weekCount     map[resDayKey]int
	monthCount    map[resDayKey]int
}

// NewResourceLoad returns an empty load map for one scenario's run.
func NewResourceLoad() *ResourceLoad {
	return &ResourceLoad{
		bySlot:        make(map[domain.EntityID]map[domain.Slot]float64),
		totalEffort:   make(map[domain.EntityID]float64),
		taskSlotCount: make(map[resTaskKey]int),
		dayCount:      make(map[resDayKey]int),
		weekCount:     make(map[resDayKey]int),
		monthCount:    make(map[resDayKey]int),
	}
}

// CommittedShare returns the total efficiency share already committed to
// resource at slot, across all tasks in this scenario.
func (l *ResourceLoad) CommittedShare(resource domain.EntityID, slot domain.Slot) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bySlot[resource][slot]
}

// TotalEffort returns the resource's cumulative booked effort across the
// whole scenario, the basis for the minloaded/maxloaded policies.
func (l *ResourceLoad) TotalEffort(resource domain.EntityID) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalEffort[resource]
}

// TaskSlotCount returns how many slots resource has already booked on
// task, the basis for the minallocated policy.
func (l *ResourceLoad) TaskSlotCount(resource, task domain.EntityID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taskSlotCount[resTaskKey{resource, task}]
}

func periodKeys(grid *timegrid.Grid, slot domain.Slot) (day, week, month string) {
	t := grid.Local(grid.TimeAt(slot))
	y, w := t.ISOWeek()
	day = t.Format("2006-01-02")
	week = fmt.Sprintf("%04d-W%02d", y, w)
	month = t.Format("2006-01")
	return
}

// CapsOK reports whether booking one more slot for resource at slot would
// stay within its declared daily/weekly/monthly caps.
func (l *ResourceLoad) CapsOK(grid *timegrid.Grid, res *domain.Resource, slot domain.Slot) bool {
	if res.Limits.PerDaySlots == 0 && res.Limits.PerWeekSlots == 0 && res.Limits.PerMonthSlots == 0 {
		return true
	}
	day, week, month := periodKeys(grid, slot)
	l.mu.Lock()
	defer l.mu.Unlock()
	if res.Limits.PerDaySlots > 0 && l.dayCount[resDayKey{res.ID, day}] >= res.Limits.PerDaySlots {
		return false
	}
	if res.Limits.PerWeekSlots > 0 && l.weekCount[resDayKey{res.ID, week}] >= res.Limits.PerWeekSlots {
		return false
	}
	if res.Limits.PerMonthSlots > 0 && l.monthCount[resDayKey{res.ID, month}] >= res.Limits.PerMonthSlots {
		return false
	}
	return true
}

// Commit records a booking of resource on task at slot for the given
// efficiency share and effort amount, updating every counter the
// allocator's policies and cap checks rely on.
func (l *ResourceLoad) Commit(grid *timegrid.Grid, resource, task domain.EntityID, slot domain.Slot, share, effortAmount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.bySlot[resource] == nil {
		l.bySlot[resource] = make(map[domain.Slot]float64)
	}
	l.bySlot[resource][slot] += share
	l.totalEffort[resource] += effortAmount
	l.taskSlotCount[resTaskKey{resource, task}]++

	day, week, month := periodKeys(grid, slot)
	l.dayCount[resDayKey{resource, day}]++
	l.weekCount[resDayKey{resource, week}]++
	l.monthCount[resDayKey{resource, month}]++
}

// RunOptions carries the cancellation/deadline inputs of §6's
// schedule(...) entrypoint.
type RunOptions struct {
	Now      time.Time
	Cancel   <-chan struct{}
	Deadline time.Time
}

// Cancelled reports whether the run should stop: either the caller closed
// Cancel, or Deadline has passed. Both are treated identically per §5
// ("Timeouts are implemented identically [to cancellation]").
func (o RunOptions) Cancelled() bool {
	select {
	case <-o.Cancel:
		return true
	default:
	}
	if !o.Deadline.IsZero() && time.Now().After(o.Deadline) {
		return true
	}
	return false
}

// RunContext bundles everything one scenario's scheduling pass needs: the
// frozen graph, the time grid and its calendar registry, the property
// store overlay, the diagnostics collector, and the shared resource load
// map. Exactly one RunContext exists per scenario per run, so scenarios
// scheduled in parallel never share a Load or Collector (§5).
type RunContext struct {
	Graph       *domain.Graph
	Grid        *timegrid.Grid
	Cal         *timegrid.Registry
	Store       *propstore.Store
	ScenarioID  domain.ScenarioID
	Now         domain.Slot
	Diagnostics *Collector
	Load        *ResourceLoad
	Options     RunOptions
}
