package app

import (
	"context"
	"time"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/ingest"
)

// Options carries the cancellation/deadline inputs the schedule
// entrypoint takes, translated into the Go calling convention: a Now
// timestamp, a cooperative cancel channel, and an optional deadline,
// matching scheduler.RunOptions one level up.
type Options struct {
	Now         time.Time
	CancelToken <-chan struct{}
	Deadline    time.Time
}

// ScheduleService is the scheduling engine's driver entrypoint, plus the
// validate/export/import operations the CLI and TUI drive it through.
// cmd/arbor wraps this port the way a typical cobra-based CLI wraps its
// service-layer ports.
type ScheduleService interface {
	// Schedule runs one scenario to completion and returns its
	// reporter-facing result.
	Schedule(ctx context.Context, graph *domain.Graph, scenarioID domain.ScenarioID, opts Options) (*ScheduleResult, error)

	// Validate freezes graph and reports any structural error, without
	// running a scenario.
	Validate(ctx context.Context, graph *domain.Graph) error

	// ExportBookings produces the re-ingestable booking artefact for a
	// scenario that has already been scheduled.
	ExportBookings(ctx context.Context, graph *domain.Graph, scenarioID domain.ScenarioID) (ingest.BookingExport, error)

	// ImportBookings folds a previously exported artefact back into doc as
	// input bookings, in preparation for re-ingestion and re-scheduling.
	ImportBookings(ctx context.Context, doc *ingest.Document, export ingest.BookingExport) error
}
