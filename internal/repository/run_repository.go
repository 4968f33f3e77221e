package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arborsched/arbor/internal/db"
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
	"github.com/arborsched/arbor/internal/scheduler"
)

// RunRepository persists one scenario's scheduling outcome: the
// schedule_runs header, its diagnostics, and the scheduled bookings rolled
// up from the property store's per-task AttrBookings overlay.
type RunRepository struct {
	db db.DBTX
}

// NewRunRepository returns a RunRepository bound to tx.
func NewRunRepository(tx db.DBTX) *RunRepository {
	return &RunRepository{db: tx}
}

// SaveRun persists result and the scheduled bookings store holds for
// result.ScenarioID, returning the generated run id.
func (r *RunRepository) SaveRun(ctx context.Context, projectID string, graph *domain.Graph, store *propstore.Store, result scheduler.Result) (string, error) {
	runID := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO schedule_runs (id, project_id, scenario_id, state, ran_at) VALUES (?, ?, ?, ?, ?)`,
		runID, projectID, int32(result.ScenarioID), string(result.State), nowUTC(),
	); err != nil {
		return "", fmt.Errorf("repository: saving schedule run: %w", err)
	}

	for _, d := range result.Diagnostics {
		refsJSON, err := marshalJSON(entityIDsToInt32(d.Refs))
		if err != nil {
			return "", err
		}
		var slot any
		if d.Slot != domain.NoSlot {
			slot = int64(d.Slot)
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, severity, kind, refs_json, scenario_id, slot, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, string(d.Severity), string(d.Kind), orDefault(refsJSON, "[]"), int32(d.ScenarioID), slot, d.Message,
		); err != nil {
			return "", fmt.Errorf("repository: saving diagnostic: %w", err)
		}
	}

	gr := &GraphRepository{db: r.db}
	for _, taskID := range graph.TaskOrder {
		bookings, _ := propstore.GetTyped[[]domain.Booking](store, taskID, result.ScenarioID, propstore.AttrBookings)
		if err := gr.saveBookings(ctx, projectID, taskID, result.ScenarioID, "scheduled", bookings); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// LoadDiagnostics returns every diagnostic recorded for runID, in
// insertion order.
func (r *RunRepository) LoadDiagnostics(ctx context.Context, runID string) ([]scheduler.Diagnostic, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT severity, kind, refs_json, scenario_id, slot, message FROM diagnostics WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("repository: loading diagnostics: %w", err)
	}
	defer rows.Close()

	var out []scheduler.Diagnostic
	for rows.Next() {
		var severity, kind, refsJSON, message string
		var scenarioID int32
		var slot *int64
		if err := rows.Scan(&severity, &kind, &refsJSON, &scenarioID, &slot, &message); err != nil {
			return nil, err
		}
		refIDs, err := unmarshalJSON[[]int32](refsJSON)
		if err != nil {
			return nil, err
		}
		d := scheduler.Diagnostic{
			Severity: scheduler.Severity(severity), Kind: scheduler.Kind(kind),
			Refs: int32sToEntityIDs(refIDs), ScenarioID: domain.ScenarioID(scenarioID),
			Slot: domain.NoSlot, Message: message,
		}
		if slot != nil {
			d.Slot = domain.Slot(*slot)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
