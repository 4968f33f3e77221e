package timegrid

import (
	"fmt"
	"sync"

	"github.com/arborsched/arbor/internal/domain"
)

// Registry caches the CalendarGrid built for each resource, task, and the
// project itself, so repeated allocator/scheduler lookups during a pass
// don't rebuild bitmaps.
type Registry struct {
	grid  *Grid
	graph *domain.Graph

	mu    sync.Mutex
	cache map[string]*CalendarGrid
}

// NewRegistry returns a Registry bound to grid and graph.
func NewRegistry(grid *Grid, graph *domain.Graph) *Registry {
	return &Registry{grid: grid, graph: graph, cache: make(map[string]*CalendarGrid)}
}

func (r *Registry) baseTemplate(calendarID domain.EntityID) *domain.WorkingTemplate {
	if calendarID != domain.NoEntity {
		if cal := r.graph.Calendars[calendarID]; cal != nil {
			return &cal.WorkingTemplate
		}
	}
	if r.graph.Project.CalendarID != domain.NoEntity {
		if cal := r.graph.Calendars[r.graph.Project.CalendarID]; cal != nil {
			return &cal.WorkingTemplate
		}
	}
	return &domain.WorkingTemplate{}
}

func (r *Registry) getOrBuild(cacheKey string, build func() Predicate) *CalendarGrid {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cg, ok := r.cache[cacheKey]; ok {
		return cg
	}
	cg := NewCalendarGrid(r.grid, build())
	r.cache[cacheKey] = cg
	return cg
}

// Project returns the project's own calendar grid.
func (r *Registry) Project() *CalendarGrid {
	return r.getOrBuild("project", func() Predicate {
		tmpl := r.baseTemplate(domain.NoEntity)
		return ComposePredicate(r.grid, tmpl, nil, nil)
	})
}

// ForResource returns the effective calendar grid for a resource, composing
// its base calendar (or the project's, if unset) with its shift
// assignments.
func (r *Registry) ForResource(id domain.EntityID) *CalendarGrid {
	return r.getOrBuild(fmt.Sprintf("res:%s", id), func() Predicate {
		res := r.graph.Resources[id]
		if res == nil {
			return ComposePredicate(r.grid, &domain.WorkingTemplate{}, nil, nil)
		}
		tmpl := r.baseTemplate(res.CalendarID)
		return ComposePredicate(r.grid, tmpl, res.Shifts, r.graph.Shifts)
	})
}

// ForTask returns the effective calendar grid for a task, composing its
// base calendar (or the project's, if unset) with its shift assignments.
func (r *Registry) ForTask(id domain.EntityID) *CalendarGrid {
	return r.getOrBuild(fmt.Sprintf("task:%s", id), func() Predicate {
		t := r.graph.Tasks[id]
		if t == nil {
			return ComposePredicate(r.grid, &domain.WorkingTemplate{}, nil, nil)
		}
		tmpl := r.baseTemplate(t.CalendarID)
		return ComposePredicate(r.grid, tmpl, t.Shifts, r.graph.Shifts)
	})
}
