package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arborsched/arbor/internal/db"
	"github.com/arborsched/arbor/internal/domain"
)

// GraphRepository persists and reloads the frozen structural graph one
// project owns: its project row, calendars, shifts, accounts, resources,
// resource groups, scenarios, and task forest (dependencies, allocations,
// charges included). It collapses what would otherwise be per-entity
// repositories into one type because every table here shares the same
// (project_id, id) key space and is only ever written or read as one
// unit: a whole Graph.
type GraphRepository struct {
	db db.DBTX
}

// NewGraphRepository returns a GraphRepository bound to tx (a *sql.DB or a
// *sql.Tx, so callers can compose saves across a db.UnitOfWork boundary).
func NewGraphRepository(tx db.DBTX) *GraphRepository {
	return &GraphRepository{db: tx}
}

// SaveGraph replaces everything persisted for projectID with g's current
// contents. Callers needing atomicity across multiple projects should run
// this inside a db.UnitOfWork.WithinTx callback.
func (r *GraphRepository) SaveGraph(ctx context.Context, projectID string, g *domain.Graph) error {
	if err := r.deleteProjectRows(ctx, projectID); err != nil {
		return err
	}
	if err := r.saveProject(ctx, projectID, g.Project); err != nil {
		return fmt.Errorf("repository: saving project: %w", err)
	}
	if err := r.saveCalendars(ctx, projectID, g.Calendars); err != nil {
		return err
	}
	if err := r.saveShifts(ctx, projectID, g.Shifts); err != nil {
		return err
	}
	if err := r.saveAccounts(ctx, projectID, g.Accounts); err != nil {
		return err
	}
	if err := r.saveResources(ctx, projectID, g.Resources); err != nil {
		return err
	}
	if err := r.saveScenarios(ctx, projectID, g.Scenarios, g.ScenarioOrder); err != nil {
		return err
	}
	if err := r.saveTasks(ctx, projectID, g.Tasks, g.TaskOrder); err != nil {
		return err
	}
	return nil
}

// deleteProjectRows clears every row for projectID across the graph
// tables, including the project row itself. task_dependencies,
// task_allocations, task_charges and resource_members are deleted
// explicitly first; deleting the project row then removes the rest through
// the ON DELETE CASCADE on each table's project_id foreign key.
func (r *GraphRepository) deleteProjectRows(ctx context.Context, projectID string) error {
	stmts := []string{
		`DELETE FROM task_dependencies WHERE project_id = ?`,
		`DELETE FROM task_allocations WHERE project_id = ?`,
		`DELETE FROM task_charges WHERE project_id = ?`,
		`DELETE FROM resource_members WHERE project_id = ?`,
		`DELETE FROM projects WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt, projectID); err != nil {
			return fmt.Errorf("repository: clearing prior graph: %w", err)
		}
	}
	return nil
}

func (r *GraphRepository) saveProject(ctx context.Context, projectID string, p *domain.Project) error {
	tz := "UTC"
	if p.TimeZone != nil {
		tz = p.TimeZone.String()
	}
	now := nowUTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, start_at, end_at, time_zone, slot_seconds, calendar_id, currency_precision, seed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, p.Name, p.Start.UTC().Format(time.RFC3339), p.End.UTC().Format(time.RFC3339),
		tz, p.EffectiveSlotSeconds(), int32(p.CalendarID), p.CurrencyPrecision, p.Seed, now, now,
	)
	return err
}

func (r *GraphRepository) saveCalendars(ctx context.Context, projectID string, calendars map[domain.EntityID]*domain.Calendar) error {
	for id, c := range calendars {
		weekly, exceptions, holidays, err := encodeWorkingTemplate(c.WorkingTemplate)
		if err != nil {
			return fmt.Errorf("repository: calendar %s: %w", c.Name, err)
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO calendars (project_id, id, name, weekly_json, date_exceptions_json, holidays_json, productivity_multiplier)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(id), c.Name, orDefault(weekly, "{}"), orDefault(exceptions, "{}"), orDefault(holidays, "[]"), c.EffectiveMultiplier(),
		); err != nil {
			return fmt.Errorf("repository: saving calendar %s: %w", c.Name, err)
		}
	}
	return nil
}

func (r *GraphRepository) saveShifts(ctx context.Context, projectID string, shifts map[domain.EntityID]*domain.Shift) error {
	for id, s := range shifts {
		weekly, exceptions, holidays, err := encodeWorkingTemplate(s.WorkingTemplate)
		if err != nil {
			return fmt.Errorf("repository: shift %s: %w", s.Name, err)
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO shifts (project_id, id, name, weekly_json, date_exceptions_json, holidays_json, productivity_multiplier)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(id), s.Name, orDefault(weekly, "{}"), orDefault(exceptions, "{}"), orDefault(holidays, "[]"), s.EffectiveMultiplier(),
		); err != nil {
			return fmt.Errorf("repository: saving shift %s: %w", s.Name, err)
		}
	}
	return nil
}

func (r *GraphRepository) saveAccounts(ctx context.Context, projectID string, accounts map[domain.EntityID]*domain.Account) error {
	for id, a := range accounts {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO accounts (project_id, id, parent_id, name) VALUES (?, ?, ?, ?)`,
			projectID, int32(id), int32(a.ParentID), a.Name,
		); err != nil {
			return fmt.Errorf("repository: saving account %s: %w", a.Name, err)
		}
	}
	return nil
}

func (r *GraphRepository) saveResources(ctx context.Context, projectID string, resources map[domain.EntityID]*domain.Resource) error {
	for id, res := range resources {
		vacations, err := encodeIntervals(res.Vacations)
		if err != nil {
			return err
		}
		rates, err := encodeRates(res.Rates)
		if err != nil {
			return err
		}
		shiftsJSON, err := encodeShiftAssignments(res.Shifts)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO resources (project_id, id, name, is_group, efficiency, calendar_id, vacations_json, per_day_slots, per_week_slots, per_month_slots, rates_json, shifts_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(id), res.Name, boolToInt(res.IsGroup), res.EffectiveEfficiency(), int32(res.CalendarID),
			orDefault(vacations, "[]"), res.Limits.PerDaySlots, res.Limits.PerWeekSlots, res.Limits.PerMonthSlots,
			orDefault(rates, "[]"), orDefault(shiftsJSON, "[]"),
		); err != nil {
			return fmt.Errorf("repository: saving resource %s: %w", res.Name, err)
		}
		for idx, mid := range res.MemberIDs {
			if _, err := r.db.ExecContext(ctx, `
				INSERT INTO resource_members (project_id, group_id, member_id, order_index) VALUES (?, ?, ?, ?)`,
				projectID, int32(id), int32(mid), idx,
			); err != nil {
				return fmt.Errorf("repository: saving resource group %s member: %w", res.Name, err)
			}
		}
	}
	return nil
}

func (r *GraphRepository) saveScenarios(ctx context.Context, projectID string, scenarios map[domain.ScenarioID]*domain.Scenario, order []domain.ScenarioID) error {
	for idx, id := range order {
		s := scenarios[id]
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO scenarios (project_id, id, parent_id, name, projection, strict_bookings, disabled, order_index)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(id), int32(s.ParentID), s.Name, boolToInt(s.Projection), boolToInt(s.StrictBookings), boolToInt(s.Disabled), idx,
		); err != nil {
			return fmt.Errorf("repository: saving scenario %s: %w", s.Name, err)
		}
	}
	return nil
}

func (r *GraphRepository) saveTasks(ctx context.Context, projectID string, tasks map[domain.EntityID]*domain.Task, order []domain.EntityID) error {
	for _, id := range order {
		t := tasks[id]
		shiftsJSON, err := encodeShiftAssignments(t.Shifts)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO tasks (project_id, id, parent_id, seq, dot_path, name, kind, direction,
				start_at, end_at, min_start_at, max_start_at, min_end_at, max_end_at,
				effort, duration_slots, length_slots, complete_user, account_id, calendar_id,
				shifts_json, actual_scheduled, strict_bookings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(id), int32(t.ParentID), t.Seq, t.DotPath, t.Name, string(t.Kind), string(t.Direction),
			nullableTimeToString(t.Start), nullableTimeToString(t.End), nullableTimeToString(t.MinStart), nullableTimeToString(t.MaxStart),
			nullableTimeToString(t.MinEnd), nullableTimeToString(t.MaxEnd),
			t.Effort, t.DurationSlots, t.LengthSlots, nullableFloat(t.CompleteUser), int32(t.AccountID), int32(t.CalendarID),
			orDefault(shiftsJSON, "[]"), boolToInt(t.ActualScheduled), boolToInt(t.StrictBookings),
		); err != nil {
			return fmt.Errorf("repository: saving task %s: %w", t.DotPath, err)
		}

		if err := r.saveDependencies(ctx, projectID, id, "depends", t.Depends); err != nil {
			return err
		}
		if err := r.saveDependencies(ctx, projectID, id, "precedes", t.Precedes); err != nil {
			return err
		}
		if err := r.saveAllocations(ctx, projectID, id, t.Allocations); err != nil {
			return err
		}
		if err := r.saveCharges(ctx, projectID, id, t.Charges); err != nil {
			return err
		}
		if err := r.saveBookings(ctx, projectID, id, domain.NoScenario, "input", t.BookingsInput); err != nil {
			return err
		}
	}
	return nil
}

func (r *GraphRepository) saveDependencies(ctx context.Context, projectID string, taskID domain.EntityID, relation string, links []domain.DependencyLink) error {
	for _, l := range links {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO task_dependencies (project_id, task_id, target_id, relation, gap_duration_s, gap_length, anchor)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(taskID), int32(l.TargetID), relation, int64(l.GapDuration.Seconds()), l.GapLength, string(l.Anchor),
		); err != nil {
			return fmt.Errorf("repository: saving %s dependency for task #%d: %w", relation, taskID, err)
		}
	}
	return nil
}

func (r *GraphRepository) saveAllocations(ctx context.Context, projectID string, taskID domain.EntityID, sets []domain.AllocationCandidateSet) error {
	for idx, set := range sets {
		resourcesJSON, err := marshalJSON(entityIDsToInt32(set.Resources))
		if err != nil {
			return err
		}
		var seed sql.NullInt64
		if set.RandomSeed != nil {
			seed = sql.NullInt64{Int64: *set.RandomSeed, Valid: true}
		}
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO task_allocations (project_id, task_id, alloc_index, policy, random_seed, persistent, mandatory, resources_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(taskID), idx, string(set.Policy), seed, boolToInt(set.Persistent), boolToInt(set.Mandatory), resourcesJSON,
		); err != nil {
			return fmt.Errorf("repository: saving allocation for task #%d: %w", taskID, err)
		}
	}
	return nil
}

func (r *GraphRepository) saveCharges(ctx context.Context, projectID string, taskID domain.EntityID, charges []domain.ChargeEvent) error {
	for idx, c := range charges {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO task_charges (project_id, task_id, charge_index, account_id, amount, kind, timing)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(taskID), idx, int32(c.AccountID), c.Amount, string(c.Kind), string(c.Timing),
		); err != nil {
			return fmt.Errorf("repository: saving charge for task #%d: %w", taskID, err)
		}
	}
	return nil
}

// saveBookings persists a task's bookings for one scenario (NoScenario for
// declared input bookings) tagged with source so scheduled output and
// user-declared ground truth never collide on re-save.
func (r *GraphRepository) saveBookings(ctx context.Context, projectID string, taskID domain.EntityID, scenarioID domain.ScenarioID, source string, bookings []domain.Booking) error {
	for _, b := range bookings {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO task_bookings (project_id, task_id, scenario_id, resource_id, start_at, end_at, overhead_min, sloppy, efficiency_share, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, int32(taskID), int32(scenarioID), int32(b.ResourceID),
			b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339),
			b.OverheadMin, int(b.Sloppy), b.EfficiencyShare, source,
		); err != nil {
			return fmt.Errorf("repository: saving booking for task #%d: %w", taskID, err)
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func entityIDsToInt32(ids []domain.EntityID) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}
