package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arborsched/arbor/internal/domain"
)

// LoadGraph reconstructs and freezes the graph persisted for projectID.
func (r *GraphRepository) LoadGraph(ctx context.Context, projectID string) (*domain.Graph, error) {
	g := domain.NewGraph()

	project, err := r.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	g.Project = project

	if err := r.loadCalendars(ctx, projectID, g); err != nil {
		return nil, err
	}
	if err := r.loadShifts(ctx, projectID, g); err != nil {
		return nil, err
	}
	if err := r.loadAccounts(ctx, projectID, g); err != nil {
		return nil, err
	}
	if err := r.loadResources(ctx, projectID, g); err != nil {
		return nil, err
	}
	if err := r.loadScenarios(ctx, projectID, g); err != nil {
		return nil, err
	}
	if err := r.loadTasks(ctx, projectID, g); err != nil {
		return nil, err
	}

	if err := g.Freeze(); err != nil {
		return nil, fmt.Errorf("repository: loaded graph failed to freeze: %w", err)
	}
	return g, nil
}

func (r *GraphRepository) loadProject(ctx context.Context, projectID string) (*domain.Project, error) {
	var (
		name, startAt, endAt, tz string
		slotSeconds, calendarID, currencyPrecision int
		seed int64
	)
	row := r.db.QueryRowContext(ctx, `
		SELECT name, start_at, end_at, time_zone, slot_seconds, calendar_id, currency_precision, seed
		FROM projects WHERE id = ?`, projectID)
	if err := row.Scan(&name, &startAt, &endAt, &tz, &slotSeconds, &calendarID, &currencyPrecision, &seed); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("repository: no project %q", projectID)
		}
		return nil, fmt.Errorf("repository: loading project %q: %w", projectID, err)
	}
	start, err := parseTime(startAt)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(endAt)
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &domain.Project{
		Name: name, Start: start, End: end, TimeZone: loc,
		SlotSeconds: slotSeconds, CalendarID: domain.EntityID(calendarID),
		CurrencyPrecision: currencyPrecision, Seed: seed,
	}, nil
}

func (r *GraphRepository) loadCalendars(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, weekly_json, date_exceptions_json, holidays_json, productivity_multiplier FROM calendars WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading calendars: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int32
		var name, weekly, exceptions, holidays string
		var multiplier float64
		if err := rows.Scan(&id, &name, &weekly, &exceptions, &holidays, &multiplier); err != nil {
			return err
		}
		wt, err := decodeWorkingTemplate(weekly, exceptions, holidays, multiplier)
		if err != nil {
			return fmt.Errorf("repository: calendar %q: %w", name, err)
		}
		g.Calendars[domain.EntityID(id)] = &domain.Calendar{ID: domain.EntityID(id), Name: name, WorkingTemplate: wt}
	}
	return rows.Err()
}

func (r *GraphRepository) loadShifts(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, weekly_json, date_exceptions_json, holidays_json, productivity_multiplier FROM shifts WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading shifts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int32
		var name, weekly, exceptions, holidays string
		var multiplier float64
		if err := rows.Scan(&id, &name, &weekly, &exceptions, &holidays, &multiplier); err != nil {
			return err
		}
		wt, err := decodeWorkingTemplate(weekly, exceptions, holidays, multiplier)
		if err != nil {
			return fmt.Errorf("repository: shift %q: %w", name, err)
		}
		g.Shifts[domain.EntityID(id)] = &domain.Shift{ID: domain.EntityID(id), Name: name, WorkingTemplate: wt}
	}
	return rows.Err()
}

func (r *GraphRepository) loadAccounts(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, parent_id, name FROM accounts WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, parentID int32
		var name string
		if err := rows.Scan(&id, &parentID, &name); err != nil {
			return err
		}
		g.Accounts[domain.EntityID(id)] = &domain.Account{ID: domain.EntityID(id), ParentID: domain.EntityID(parentID), Name: name}
	}
	return rows.Err()
}

func (r *GraphRepository) loadResources(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_group, efficiency, calendar_id, vacations_json, per_day_slots, per_week_slots, per_month_slots, rates_json, shifts_json
		FROM resources WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading resources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, calendarID int32
		var name, vacationsJSON, ratesJSON, shiftsJSON string
		var isGroup int
		var efficiency float64
		var perDay, perWeek, perMonth int
		if err := rows.Scan(&id, &name, &isGroup, &efficiency, &calendarID, &vacationsJSON, &perDay, &perWeek, &perMonth, &ratesJSON, &shiftsJSON); err != nil {
			return err
		}
		vacations, err := decodeIntervals(vacationsJSON)
		if err != nil {
			return fmt.Errorf("repository: resource %q: %w", name, err)
		}
		rates, err := decodeRates(ratesJSON)
		if err != nil {
			return fmt.Errorf("repository: resource %q: %w", name, err)
		}
		shifts, err := decodeShiftAssignments(shiftsJSON)
		if err != nil {
			return fmt.Errorf("repository: resource %q: %w", name, err)
		}
		g.Resources[domain.EntityID(id)] = &domain.Resource{
			ID: domain.EntityID(id), Name: name, IsGroup: intToBool(isGroup),
			Efficiency: efficiency, CalendarID: domain.EntityID(calendarID),
			Shifts: shifts, Vacations: vacations,
			Limits: domain.ResourceLimits{PerDaySlots: perDay, PerWeekSlots: perWeek, PerMonthSlots: perMonth},
			Rates:  rates,
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	memberRows, err := r.db.QueryContext(ctx, `SELECT group_id, member_id FROM resource_members WHERE project_id = ? ORDER BY group_id, order_index`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading resource members: %w", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var groupID, memberID int32
		if err := memberRows.Scan(&groupID, &memberID); err != nil {
			return err
		}
		group := g.Resources[domain.EntityID(groupID)]
		if group == nil {
			return fmt.Errorf("repository: resource member references unknown group #%d", groupID)
		}
		group.MemberIDs = append(group.MemberIDs, domain.EntityID(memberID))
	}
	return memberRows.Err()
}

func (r *GraphRepository) loadScenarios(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, name, projection, strict_bookings, disabled
		FROM scenarios WHERE project_id = ? ORDER BY order_index`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading scenarios: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, parentID int32
		var name string
		var projection, strict, disabled int
		if err := rows.Scan(&id, &parentID, &name, &projection, &strict, &disabled); err != nil {
			return err
		}
		sid := domain.ScenarioID(id)
		g.Scenarios[sid] = &domain.Scenario{
			ID: sid, ParentID: domain.ScenarioID(parentID), Name: name,
			Projection: intToBool(projection), StrictBookings: intToBool(strict), Disabled: intToBool(disabled),
		}
		g.ScenarioOrder = append(g.ScenarioOrder, sid)
	}
	return rows.Err()
}

func (r *GraphRepository) loadTasks(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, seq, dot_path, name, kind, direction,
			start_at, end_at, min_start_at, max_start_at, min_end_at, max_end_at,
			effort, duration_slots, length_slots, complete_user, account_id, calendar_id,
			shifts_json, actual_scheduled, strict_bookings
		FROM tasks WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, parentID, accountID, calendarID int32
		var seq, durationSlots, lengthSlots int
		var dotPath, name, kind, direction, shiftsJSON string
		var startAt, endAt, minStartAt, maxStartAt, minEndAt, maxEndAt sql.NullString
		var effort float64
		var completeUser sql.NullFloat64
		var actualScheduled, strictBookings int

		if err := rows.Scan(&id, &parentID, &seq, &dotPath, &name, &kind, &direction,
			&startAt, &endAt, &minStartAt, &maxStartAt, &minEndAt, &maxEndAt,
			&effort, &durationSlots, &lengthSlots, &completeUser, &accountID, &calendarID,
			&shiftsJSON, &actualScheduled, &strictBookings); err != nil {
			return err
		}

		start, err := parseNullableTime(startAt)
		if err != nil {
			return err
		}
		end, err := parseNullableTime(endAt)
		if err != nil {
			return err
		}
		minStart, err := parseNullableTime(minStartAt)
		if err != nil {
			return err
		}
		maxStart, err := parseNullableTime(maxStartAt)
		if err != nil {
			return err
		}
		minEnd, err := parseNullableTime(minEndAt)
		if err != nil {
			return err
		}
		maxEnd, err := parseNullableTime(maxEndAt)
		if err != nil {
			return err
		}
		shifts, err := decodeShiftAssignments(shiftsJSON)
		if err != nil {
			return fmt.Errorf("repository: task %q: %w", dotPath, err)
		}

		t := &domain.Task{
			ID: domain.EntityID(id), ParentID: domain.EntityID(parentID), Seq: seq, DotPath: dotPath, Name: name,
			Kind: domain.TaskKind(kind), Direction: domain.Direction(direction),
			Start: start, End: end, MinStart: minStart, MaxStart: maxStart, MinEnd: minEnd, MaxEnd: maxEnd,
			Effort: effort, DurationSlots: durationSlots, LengthSlots: lengthSlots,
			AccountID: domain.EntityID(accountID), CalendarID: domain.EntityID(calendarID), Shifts: shifts,
			ActualScheduled: intToBool(actualScheduled), StrictBookings: intToBool(strictBookings),
		}
		if completeUser.Valid {
			v := completeUser.Float64
			t.CompleteUser = &v
		}
		g.Tasks[t.ID] = t
		g.TaskOrder = append(g.TaskOrder, t.ID)
		if t.ParentID != domain.NoEntity {
			if parent := g.Tasks[t.ParentID]; parent != nil {
				parent.ChildIDs = append(parent.ChildIDs, t.ID)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := r.loadDependencies(ctx, projectID, g); err != nil {
		return err
	}
	if err := r.loadAllocations(ctx, projectID, g); err != nil {
		return err
	}
	if err := r.loadCharges(ctx, projectID, g); err != nil {
		return err
	}
	return r.loadInputBookings(ctx, projectID, g)
}

func (r *GraphRepository) loadDependencies(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `SELECT task_id, target_id, relation, gap_duration_s, gap_length, anchor FROM task_dependencies WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading dependencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var taskID, targetID int32
		var relation, anchor string
		var gapDurationS, gapLength int64
		if err := rows.Scan(&taskID, &targetID, &relation, &gapDurationS, &gapLength, &anchor); err != nil {
			return err
		}
		task := g.Tasks[domain.EntityID(taskID)]
		if task == nil {
			return fmt.Errorf("repository: dependency references unknown task #%d", taskID)
		}
		link := domain.DependencyLink{
			TargetID: domain.EntityID(targetID), GapDuration: secondsToDuration(gapDurationS),
			GapLength: int(gapLength), Anchor: domain.DependencyAnchor(anchor),
		}
		switch relation {
		case "depends":
			task.Depends = append(task.Depends, link)
		case "precedes":
			task.Precedes = append(task.Precedes, link)
		default:
			return fmt.Errorf("repository: unknown dependency relation %q", relation)
		}
	}
	return rows.Err()
}

func (r *GraphRepository) loadAllocations(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id, policy, random_seed, persistent, mandatory, resources_json
		FROM task_allocations WHERE project_id = ? ORDER BY task_id, alloc_index`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var taskID int32
		var policy, resourcesJSON string
		var randomSeed sql.NullInt64
		var persistent, mandatory int
		if err := rows.Scan(&taskID, &policy, &randomSeed, &persistent, &mandatory, &resourcesJSON); err != nil {
			return err
		}
		task := g.Tasks[domain.EntityID(taskID)]
		if task == nil {
			return fmt.Errorf("repository: allocation references unknown task #%d", taskID)
		}
		ids, err := unmarshalJSON[[]int32](resourcesJSON)
		if err != nil {
			return err
		}
		set := domain.AllocationCandidateSet{
			Resources: int32sToEntityIDs(ids), Policy: domain.AllocationPolicy(policy),
			Persistent: intToBool(persistent), Mandatory: intToBool(mandatory),
		}
		if randomSeed.Valid {
			v := randomSeed.Int64
			set.RandomSeed = &v
		}
		task.Allocations = append(task.Allocations, set)
	}
	return rows.Err()
}

func (r *GraphRepository) loadCharges(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id, account_id, amount, kind, timing
		FROM task_charges WHERE project_id = ? ORDER BY task_id, charge_index`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading charges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var taskID, accountID int32
		var amount float64
		var kind, timing string
		if err := rows.Scan(&taskID, &accountID, &amount, &kind, &timing); err != nil {
			return err
		}
		task := g.Tasks[domain.EntityID(taskID)]
		if task == nil {
			return fmt.Errorf("repository: charge references unknown task #%d", taskID)
		}
		task.Charges = append(task.Charges, domain.ChargeEvent{
			AccountID: domain.EntityID(accountID), Amount: amount, Kind: domain.ChargeKind(kind), Timing: domain.ChargeTiming(timing),
		})
	}
	return rows.Err()
}

func (r *GraphRepository) loadInputBookings(ctx context.Context, projectID string, g *domain.Graph) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id, resource_id, start_at, end_at, overhead_min, sloppy, efficiency_share
		FROM task_bookings WHERE project_id = ? AND source = 'input'`, projectID)
	if err != nil {
		return fmt.Errorf("repository: loading input bookings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var taskID, resourceID int32
		var startAt, endAt string
		var overheadMin, sloppy int
		var efficiencyShare float64
		if err := rows.Scan(&taskID, &resourceID, &startAt, &endAt, &overheadMin, &sloppy, &efficiencyShare); err != nil {
			return err
		}
		task := g.Tasks[domain.EntityID(taskID)]
		if task == nil {
			return fmt.Errorf("repository: booking references unknown task #%d", taskID)
		}
		start, err := parseTime(startAt)
		if err != nil {
			return err
		}
		end, err := parseTime(endAt)
		if err != nil {
			return err
		}
		task.BookingsInput = append(task.BookingsInput, domain.Booking{
			ResourceID: domain.EntityID(resourceID), Start: start, End: end,
			OverheadMin: overheadMin, Sloppy: domain.SloppyLevel(sloppy), EfficiencyShare: efficiencyShare,
		})
	}
	return rows.Err()
}

func int32sToEntityIDs(ids []int32) []domain.EntityID {
	out := make([]domain.EntityID, len(ids))
	for i, id := range ids {
		out[i] = domain.EntityID(id)
	}
	return out
}
