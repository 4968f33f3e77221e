package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations for the scheduling engine's persisted
// artefacts: the frozen structural graph (projects, calendars, resources,
// tasks, accounts, scenarios) and the outputs of a schedule run (bookings,
// diagnostics). Entity and scenario ids are the same int32s domain.EntityID
// and domain.ScenarioID carry in memory; they are only unique within a
// project, so every graph table keys on (project_id, id).
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		start_at           TEXT NOT NULL,
		end_at             TEXT NOT NULL,
		time_zone          TEXT NOT NULL DEFAULT 'UTC',
		slot_seconds       INTEGER NOT NULL DEFAULT 3600,
		calendar_id        INTEGER NOT NULL DEFAULT 0,
		currency_precision INTEGER NOT NULL DEFAULT 2,
		seed               INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS calendars (
		project_id              TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id                      INTEGER NOT NULL,
		name                    TEXT NOT NULL,
		weekly_json             TEXT NOT NULL DEFAULT '{}',
		date_exceptions_json    TEXT NOT NULL DEFAULT '{}',
		holidays_json           TEXT NOT NULL DEFAULT '[]',
		productivity_multiplier REAL NOT NULL DEFAULT 1.0,
		PRIMARY KEY (project_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS shifts (
		project_id              TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id                      INTEGER NOT NULL,
		name                    TEXT NOT NULL,
		weekly_json             TEXT NOT NULL DEFAULT '{}',
		date_exceptions_json    TEXT NOT NULL DEFAULT '{}',
		holidays_json           TEXT NOT NULL DEFAULT '[]',
		productivity_multiplier REAL NOT NULL DEFAULT 1.0,
		PRIMARY KEY (project_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id         INTEGER NOT NULL,
		parent_id  INTEGER NOT NULL DEFAULT 0,
		name       TEXT NOT NULL,
		PRIMARY KEY (project_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS resources (
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id              INTEGER NOT NULL,
		name            TEXT NOT NULL,
		is_group        INTEGER NOT NULL DEFAULT 0,
		efficiency      REAL NOT NULL DEFAULT 1.0,
		calendar_id     INTEGER NOT NULL DEFAULT 0,
		vacations_json  TEXT NOT NULL DEFAULT '[]',
		per_day_slots   INTEGER NOT NULL DEFAULT 0,
		per_week_slots  INTEGER NOT NULL DEFAULT 0,
		per_month_slots INTEGER NOT NULL DEFAULT 0,
		rates_json      TEXT NOT NULL DEFAULT '[]',
		shifts_json     TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (project_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS resource_members (
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		group_id    INTEGER NOT NULL,
		member_id   INTEGER NOT NULL,
		order_index INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, group_id, member_id)
	)`,

	`CREATE TABLE IF NOT EXISTS scenarios (
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id              INTEGER NOT NULL,
		parent_id       INTEGER NOT NULL DEFAULT 0,
		name            TEXT NOT NULL,
		projection      INTEGER NOT NULL DEFAULT 0,
		strict_bookings INTEGER NOT NULL DEFAULT 0,
		disabled        INTEGER NOT NULL DEFAULT 0,
		order_index     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, id)
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id               INTEGER NOT NULL,
		parent_id        INTEGER NOT NULL DEFAULT 0,
		seq              INTEGER NOT NULL DEFAULT 0,
		dot_path         TEXT NOT NULL,
		name             TEXT NOT NULL,
		kind             TEXT NOT NULL CHECK(kind IN ('effort','duration','length','milestone')),
		direction        TEXT NOT NULL DEFAULT 'forward' CHECK(direction IN ('forward','backward')),
		start_at         TEXT,
		end_at           TEXT,
		min_start_at     TEXT,
		max_start_at     TEXT,
		min_end_at       TEXT,
		max_end_at       TEXT,
		effort           REAL NOT NULL DEFAULT 0,
		duration_slots   INTEGER NOT NULL DEFAULT 0,
		length_slots     INTEGER NOT NULL DEFAULT 0,
		complete_user    REAL,
		account_id       INTEGER NOT NULL DEFAULT 0,
		calendar_id      INTEGER NOT NULL DEFAULT 0,
		shifts_json      TEXT NOT NULL DEFAULT '[]',
		actual_scheduled INTEGER NOT NULL DEFAULT 0,
		strict_bookings  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(project_id, parent_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_dotpath ON tasks(project_id, dot_path)`,

	`CREATE TABLE IF NOT EXISTS task_dependencies (
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_id        INTEGER NOT NULL,
		target_id      INTEGER NOT NULL,
		relation       TEXT NOT NULL CHECK(relation IN ('depends','precedes')),
		gap_duration_s INTEGER NOT NULL DEFAULT 0,
		gap_length     INTEGER NOT NULL DEFAULT 0,
		anchor         TEXT NOT NULL DEFAULT 'onend' CHECK(anchor IN ('onstart','onend'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_deps_task ON task_dependencies(project_id, task_id)`,

	`CREATE TABLE IF NOT EXISTS task_allocations (
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_id     INTEGER NOT NULL,
		alloc_index INTEGER NOT NULL,
		policy      TEXT NOT NULL DEFAULT 'order' CHECK(policy IN ('order','minloaded','maxloaded','minallocated','random')),
		random_seed INTEGER,
		persistent  INTEGER NOT NULL DEFAULT 0,
		mandatory   INTEGER NOT NULL DEFAULT 0,
		resources_json TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (project_id, task_id, alloc_index)
	)`,

	`CREATE TABLE IF NOT EXISTS task_bookings (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_id          INTEGER NOT NULL,
		scenario_id      INTEGER NOT NULL,
		resource_id      INTEGER NOT NULL DEFAULT 0,
		start_at         TEXT NOT NULL,
		end_at           TEXT NOT NULL,
		overhead_min     INTEGER NOT NULL DEFAULT 0,
		sloppy           INTEGER NOT NULL DEFAULT 0,
		efficiency_share REAL NOT NULL DEFAULT 1.0,
		source           TEXT NOT NULL DEFAULT 'scheduled' CHECK(source IN ('input','scheduled'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_bookings_task_scenario ON task_bookings(project_id, task_id, scenario_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_bookings_resource ON task_bookings(project_id, resource_id)`,

	`CREATE TABLE IF NOT EXISTS task_charges (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_id    INTEGER NOT NULL,
		charge_index INTEGER NOT NULL,
		account_id INTEGER NOT NULL DEFAULT 0,
		amount     REAL NOT NULL DEFAULT 0,
		kind       TEXT NOT NULL CHECK(kind IN ('cost','revenue')),
		timing     TEXT NOT NULL CHECK(timing IN ('onstart','onend','perslot')),
		PRIMARY KEY (project_id, task_id, charge_index)
	)`,

	`CREATE TABLE IF NOT EXISTS schedule_runs (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		scenario_id INTEGER NOT NULL,
		state       TEXT NOT NULL CHECK(state IN ('pending','running','scheduled','aborted')),
		ran_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_runs_scenario ON schedule_runs(project_id, scenario_id)`,

	`CREATE TABLE IF NOT EXISTS diagnostics (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES schedule_runs(id) ON DELETE CASCADE,
		severity    TEXT NOT NULL CHECK(severity IN ('fatal','error','advisory')),
		kind        TEXT NOT NULL,
		refs_json   TEXT NOT NULL DEFAULT '[]',
		scenario_id INTEGER,
		slot        INTEGER,
		message     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id)`,
}
