package propstore

import (
	"fmt"
	"sync"

	"github.com/arborsched/arbor/internal/domain"
)

type key struct {
	Entity   domain.EntityID
	Scenario domain.ScenarioID
	Attr     AttrID
}

// Store is the dense (entity, scenario, attribute) table of §4.B. It holds
// both the scenario-override layer over a task's declared input attributes
// and the scheduler's derived-attribute overlay. The Graph it wraps is
// read-only reference data used only to walk the inheritance chain.
type Store struct {
	mu     sync.RWMutex
	graph  *domain.Graph
	values map[key]any
}

// New returns a Store bound to graph's structural relationships.
func New(graph *domain.Graph) *Store {
	return &Store{graph: graph, values: make(map[key]any)}
}

// SetDerived records a scheduler-computed value. It is only legal for
// attributes declared derived (§4.B); ingestion code must use SetInput.
func (s *Store) SetDerived(entity domain.EntityID, scenario domain.ScenarioID, attr AttrID, val any) error {
	if !DerivedAttrs[attr] {
		return fmt.Errorf("propstore: %q is not a derived attribute", attr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key{entity, scenario, attr}] = val
	return nil
}

// SetInput records a per-scenario override of a user-declared attribute.
// It is only legal for attributes NOT declared derived.
func (s *Store) SetInput(entity domain.EntityID, scenario domain.ScenarioID, attr AttrID, val any) error {
	if DerivedAttrs[attr] {
		return fmt.Errorf("propstore: %q is a derived attribute, use SetDerived", attr)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key{entity, scenario, attr}] = val
	return nil
}

// Get resolves attr for (entity, scenario) by walking, in order: the
// entity's own (entity,scenario) and scenario-ancestor slots, then the same
// walk on each container ancestor, per §4.B. It does not apply the
// "documented default" step — callers supply that from the domain.Task
// struct itself when Get reports !ok.
func (s *Store) Get(entity domain.EntityID, scenario domain.ScenarioID, attr AttrID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := entity
	for {
		for _, scn := range s.graph.ScenarioChain(scenario) {
			if v, ok := s.values[key{cur, scn, attr}]; ok {
				return v, true
			}
		}
		t := s.graph.Tasks[cur]
		if t == nil || t.ParentID == domain.NoEntity {
			return nil, false
		}
		cur = t.ParentID
	}
}

// Clear removes every value recorded for scenario across all entities. Used
// when a scenario's partial scheduling state must be discarded on
// cancellation or deadline (§5, §7 runtime errors).
func (s *Store) Clear(scenario domain.ScenarioID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.values {
		if k.Scenario == scenario {
			delete(s.values, k)
		}
	}
}

// GetTyped resolves attr and asserts it to T, returning ok=false on a type
// mismatch or miss.
func GetTyped[T any](s *Store, entity domain.EntityID, scenario domain.ScenarioID, attr AttrID) (T, bool) {
	v, ok := s.Get(entity, scenario, attr)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
