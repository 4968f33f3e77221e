// Package service implements the app.ScheduleService port: the
// orchestration layer between ingestion, the scheduler driver, and
// persistence. Concrete implementations of internal/app's ports live
// here, mirroring the ports/impls split internal/app and internal/service
// carry throughout this module.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/ingest"
	"github.com/arborsched/arbor/internal/obslog"
	"github.com/arborsched/arbor/internal/propstore"
	"github.com/arborsched/arbor/internal/scheduler"
	"github.com/arborsched/arbor/internal/timegrid"
)

// ScheduleService implements app.ScheduleService. It keeps the property
// store produced by the most recent Schedule call per graph so a later
// ExportBookings call can roll up the same run's bookings without
// re-scheduling; callers that need durable results should persist them
// through internal/repository instead of holding onto a ScheduleService.
type ScheduleService struct {
	log obslog.Logger

	mu     sync.Mutex
	stores map[*domain.Graph]*propstore.Store
}

// NewScheduleService returns a ScheduleService. A nil logger defaults to
// obslog.Noop.
func NewScheduleService(log obslog.Logger) *ScheduleService {
	if log == nil {
		log = obslog.Noop{}
	}
	return &ScheduleService{log: log, stores: make(map[*domain.Graph]*propstore.Store)}
}

var _ app.ScheduleService = (*ScheduleService)(nil)

// Schedule runs graph's scenarioID to completion and projects the result
// into the reporter-facing app.ScheduleResult shape.
func (s *ScheduleService) Schedule(ctx context.Context, graph *domain.Graph, scenarioID domain.ScenarioID, opts app.Options) (*app.ScheduleResult, error) {
	if err := s.Validate(ctx, graph); err != nil {
		return nil, err
	}

	store := propstore.New(graph)
	s.log.Infof("scheduling scenario %s", scenarioID)

	result, err := scheduler.Schedule(graph, store, scenarioID, scheduler.RunOptions{
		Now: opts.Now, Cancel: opts.CancelToken, Deadline: opts.Deadline,
	})
	if err != nil {
		return nil, fmt.Errorf("service: scheduling scenario %s: %w", scenarioID, err)
	}

	s.mu.Lock()
	s.stores[graph] = store
	s.mu.Unlock()

	grid, err := timegrid.NewGrid(graph.Project)
	if err != nil {
		return nil, fmt.Errorf("service: building time grid for report: %w", err)
	}

	return buildScheduleResult(graph, store, grid, result), nil
}

// Validate freezes graph's structural relationships without scheduling
// any scenario, surfacing the same fatal/structural error Schedule would
// abort on.
func (s *ScheduleService) Validate(ctx context.Context, graph *domain.Graph) error {
	if graph.Frozen() {
		return nil
	}
	if err := graph.Freeze(); err != nil {
		return fmt.Errorf("service: graph failed validation: %w", err)
	}
	return nil
}

// ExportBookings rolls up the bookings from graph's most recent Schedule
// run for scenarioID into the re-ingestable artefact.
func (s *ScheduleService) ExportBookings(ctx context.Context, graph *domain.Graph, scenarioID domain.ScenarioID) (ingest.BookingExport, error) {
	s.mu.Lock()
	store, ok := s.stores[graph]
	s.mu.Unlock()
	if !ok {
		return ingest.BookingExport{}, fmt.Errorf("service: scenario %s has not been scheduled in this session", scenarioID)
	}
	return ingest.ExportBookings(graph, store, scenarioID)
}

// ImportBookings folds export back into doc's task forest as input
// bookings, ahead of a fresh ingest.Build/Schedule cycle.
func (s *ScheduleService) ImportBookings(ctx context.Context, doc *ingest.Document, export ingest.BookingExport) error {
	return ingest.ApplyBookings(doc, export)
}
