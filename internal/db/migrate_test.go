package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	err := Migrate(db)
	require.NoError(t, err)

	err = Migrate(db)
	require.NoError(t, err)
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"projects", "calendars", "shifts", "accounts", "resources",
		"resource_members", "scenarios", "tasks",
		"task_dependencies", "task_allocations",
		"task_bookings", "task_charges",
		"schedule_runs", "diagnostics",
	}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_tasks_parent",
		"idx_tasks_dotpath",
		"idx_task_deps_task",
		"idx_task_bookings_task_scenario",
		"idx_task_bookings_resource",
		"idx_schedule_runs_scenario",
		"idx_diagnostics_run",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign keys should be enabled")
}

func TestMigrate_WALModeRequested(t *testing.T) {
	// In-memory SQLite uses "memory" journal mode; WAL only applies to file DBs.
	db := openTestDB(t)

	var mode string
	err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
}

func TestMigrate_TasksKindCheckConstraint(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db, "p1")

	_, err := db.Exec(`INSERT INTO tasks (project_id, id, seq, dot_path, name, kind)
		VALUES ('p1', 1, 1, 'root', 'Task 1', 'bogus')`)
	assert.Error(t, err, "invalid kind should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO tasks (project_id, id, seq, dot_path, name, kind)
		VALUES ('p1', 1, 1, 'root', 'Task 1', 'effort')`)
	assert.NoError(t, err)
}

func TestMigrate_TaskDependenciesRelationCheckConstraint(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db, "p1")
	seedTask(t, db, "p1", 1, "root.a")
	seedTask(t, db, "p1", 2, "root.b")

	_, err := db.Exec(`INSERT INTO task_dependencies (project_id, task_id, target_id, relation) VALUES ('p1', 2, 1, 'bogus')`)
	assert.Error(t, err, "invalid relation should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO task_dependencies (project_id, task_id, target_id, relation) VALUES ('p1', 2, 1, 'depends')`)
	assert.NoError(t, err)
}

func TestMigrate_TasksDotPathUniquePerProject(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db, "p1")
	seedTask(t, db, "p1", 1, "root.a")

	_, err := db.Exec(`INSERT INTO tasks (project_id, id, seq, dot_path, name, kind)
		VALUES ('p1', 2, 2, 'root.a', 'Duplicate', 'milestone')`)
	assert.Error(t, err, "duplicate dot_path within a project should violate unique index")
}

func TestMigrate_TaskBookingsSourceCheckConstraint(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db, "p1")
	seedTask(t, db, "p1", 1, "root.a")
	seedScenario(t, db, "p1", 1)

	_, err := db.Exec(`INSERT INTO task_bookings (project_id, task_id, scenario_id, start_at, end_at, source)
		VALUES ('p1', 1, 1, '2026-01-01T00:00:00Z', '2026-01-01T01:00:00Z', 'bogus')`)
	assert.Error(t, err, "invalid booking source should be rejected by CHECK constraint")

	_, err = db.Exec(`INSERT INTO task_bookings (project_id, task_id, scenario_id, start_at, end_at, source)
		VALUES ('p1', 1, 1, '2026-01-01T00:00:00Z', '2026-01-01T01:00:00Z', 'input')`)
	assert.NoError(t, err)
}

func TestMigrate_DiagnosticsCascadeOnRunDelete(t *testing.T) {
	db := openTestDB(t)
	seedProject(t, db, "p1")
	seedScenario(t, db, "p1", 1)

	_, err := db.Exec(`INSERT INTO schedule_runs (id, project_id, scenario_id, state, ran_at)
		VALUES ('r1', 'p1', 1, 'scheduled', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO diagnostics (run_id, severity, kind, message) VALUES ('r1', 'advisory', 'test', 'hello')`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM schedule_runs WHERE id = 'r1'`)
	require.NoError(t, err)

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM diagnostics WHERE run_id = 'r1'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "diagnostics should cascade-delete with their run")
}

func seedProject(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO projects (id, name, start_at, end_at, created_at, updated_at)
		VALUES (?, 'Test Project', '2026-01-01T00:00:00Z', '2026-06-01T00:00:00Z', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`, id)
	require.NoError(t, err)
}

func seedTask(t *testing.T, db *sql.DB, projectID string, id int, dotPath string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO tasks (project_id, id, seq, dot_path, name, kind)
		VALUES (?, ?, 1, ?, 'Task', 'effort')`, projectID, id, dotPath)
	require.NoError(t, err)
}

func seedScenario(t *testing.T, db *sql.DB, projectID string, id int) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO scenarios (project_id, id, name) VALUES (?, ?, 'Baseline')`, projectID, id)
	require.NoError(t, err)
}
