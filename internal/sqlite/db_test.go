package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"state_meta",
		"projects",
		"project_history",
		"conflicts",
		"activity_log",
		"projects_fts",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsAreIdempotent verifies the schema can be applied on every start
func TestMigrationsAreIdempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestProjectsTableConstraints verifies score and enum checks
func TestProjectsTableConstraints(t *testing.T) {
	db := NewTestDB(t)

	insert := `INSERT INTO projects (id, position, name, ceo_priority, stakeholder_urgency, stakeholder_sentiment, status, last_updated)
		VALUES (?, 0, 'Atlas', ?, 5, ?, 'active', '2026-01-01T00:00:00Z')`

	_, err := db.Exec(insert, "p1", 5, "calm")
	require.NoError(t, err)

	_, err = db.Exec(insert, "p2", 11, "calm")
	require.Error(t, err, "should reject priority above 10")

	_, err = db.Exec(insert, "p3", 5, "livid")
	require.Error(t, err, "should reject unknown sentiment")

	_, err = db.Exec(`INSERT INTO conflicts (id, position, project_id, timestamp, conflict_type)
		VALUES ('c1', 0, 'missing', '2026-01-01T00:00:00Z', 'urgency_spike')`)
	require.Error(t, err, "should fail with invalid project_id")
	require.True(t, isForeignKeyViolation(err))
}
