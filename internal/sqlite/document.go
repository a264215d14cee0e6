package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/nexus/internal/domain/conflict"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/repository"
	"github.com/rpggio/nexus/internal/state"
)

// DocumentRepository implements state.Repository for SQLite. The document is
// spread over normalized tables and replaced wholesale on save.
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Load reads the whole document. It returns repository.ErrNotFound if no
// document has been saved.
func (r *DocumentRepository) Load(ctx context.Context) (*state.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	doc := &state.Document{}
	var lastIngestion sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT version, last_ingestion, total_files_processed, quality_score
		FROM state_meta WHERE id = 1
	`).Scan(&doc.Version, &lastIngestion, &doc.Metadata.TotalFilesProcessed, &doc.Metadata.QualityScore)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state metadata: %w", err)
	}
	if doc.Metadata.LastIngestion, err = parseNullTime(lastIngestion); err != nil {
		return nil, fmt.Errorf("failed to parse last_ingestion: %w", err)
	}

	if doc.Projects, err = loadProjects(ctx, tx); err != nil {
		return nil, err
	}
	if err := loadHistory(ctx, tx, doc.Projects); err != nil {
		return nil, err
	}
	if doc.Conflicts, err = loadConflicts(ctx, tx); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save replaces the stored document with doc in one transaction.
func (r *DocumentRepository) Save(ctx context.Context, doc *state.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM conflicts",
		"DELETE FROM project_history",
		"DELETE FROM projects",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear state: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO state_meta (id, version, last_ingestion, total_files_processed, quality_score)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			last_ingestion = excluded.last_ingestion,
			total_files_processed = excluded.total_files_processed,
			quality_score = excluded.quality_score
	`, doc.Version, formatNullTime(doc.Metadata.LastIngestion), doc.Metadata.TotalFilesProcessed, doc.Metadata.QualityScore)
	if err != nil {
		return fmt.Errorf("failed to save state metadata: %w", err)
	}

	for i, p := range doc.Projects {
		if err := insertProject(ctx, tx, i, p); err != nil {
			return err
		}
	}
	for i, a := range doc.Conflicts {
		if err := insertConflict(ctx, tx, i, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

func insertProject(ctx context.Context, tx *sql.Tx, position int, p *project.Project) error {
	risks, err := json.Marshal(nonNil(p.Risks))
	if err != nil {
		return fmt.Errorf("failed to encode risks: %w", err)
	}
	deps, err := json.Marshal(nonNil(p.Dependencies))
	if err != nil {
		return fmt.Errorf("failed to encode dependencies: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (
			id, position, name, description, ceo_priority, stakeholder_urgency,
			stakeholder_sentiment, status, deadline, notes, key_risks, dependencies,
			source_file, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, position, p.Name, p.Description, p.Priority, p.Urgency,
		p.Sentiment, p.Status, formatNullTime(p.Deadline), p.Notes, string(risks), string(deps),
		nullString(p.SourceFile), formatTime(p.LastUpdated),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %s: %w", p.ID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
	}

	for seq, h := range p.History {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_history (project_id, seq, timestamp, change, capture_method)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, seq, formatTime(h.Timestamp), h.Change, h.CaptureMethod)
		if err != nil {
			return fmt.Errorf("failed to insert history for project %s: %w", p.ID, err)
		}
	}
	return nil
}

func insertConflict(ctx context.Context, tx *sql.Tx, position int, a conflict.Alert) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO conflicts (
			id, position, project_id, project_name, timestamp, conflict_type,
			previous_value, new_value, ai_analysis, resolved
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, position, a.ProjectID, a.ProjectName, formatTime(a.Timestamp), a.ConflictType,
		a.PreviousValue, a.NewValue, a.Analysis, a.Resolved,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("conflict %s references unknown project %s: %w", a.ID, a.ProjectID, repository.ErrForeignKeyViolation)
		}
		return fmt.Errorf("failed to insert conflict %s: %w", a.ID, err)
	}
	return nil
}

func loadProjects(ctx context.Context, tx *sql.Tx) ([]*project.Project, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, description, ceo_priority, stakeholder_urgency,
			stakeholder_sentiment, status, deadline, notes, key_risks, dependencies,
			source_file, last_updated
		FROM projects
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []*project.Project{}
	for rows.Next() {
		p := &project.Project{History: []project.HistoryEntry{}}
		var deadline, sourceFile sql.NullString
		var risks, deps, lastUpdated string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Priority, &p.Urgency,
			&p.Sentiment, &p.Status, &deadline, &p.Notes, &risks, &deps,
			&sourceFile, &lastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if err := json.Unmarshal([]byte(risks), &p.Risks); err != nil {
			return nil, fmt.Errorf("failed to decode risks for project %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(deps), &p.Dependencies); err != nil {
			return nil, fmt.Errorf("failed to decode dependencies for project %s: %w", p.ID, err)
		}
		if p.Deadline, err = parseNullTime(deadline); err != nil {
			return nil, fmt.Errorf("failed to parse deadline for project %s: %w", p.ID, err)
		}
		if p.LastUpdated, err = parseTime(lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to parse last_updated for project %s: %w", p.ID, err)
		}
		p.SourceFile = sourceFile.String
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

func loadHistory(ctx context.Context, tx *sql.Tx, projects []*project.Project) error {
	byID := make(map[string]*project.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT project_id, timestamp, change, capture_method
		FROM project_history
		ORDER BY project_id, seq
	`)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID, ts string
		var h project.HistoryEntry
		if err := rows.Scan(&projectID, &ts, &h.Change, &h.CaptureMethod); err != nil {
			return fmt.Errorf("failed to scan history: %w", err)
		}
		if h.Timestamp, err = parseTime(ts); err != nil {
			return fmt.Errorf("failed to parse history timestamp for project %s: %w", projectID, err)
		}
		if p, ok := byID[projectID]; ok {
			p.History = append(p.History, h)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating history rows: %w", err)
	}
	return nil
}

func loadConflicts(ctx context.Context, tx *sql.Tx) ([]conflict.Alert, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, project_id, project_name, timestamp, conflict_type,
			previous_value, new_value, ai_analysis, resolved
		FROM conflicts
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()

	alerts := []conflict.Alert{}
	for rows.Next() {
		var a conflict.Alert
		var ts string
		if err := rows.Scan(
			&a.ID, &a.ProjectID, &a.ProjectName, &ts, &a.ConflictType,
			&a.PreviousValue, &a.NewValue, &a.Analysis, &a.Resolved,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		if a.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("failed to parse conflict timestamp %s: %w", a.ID, err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conflict rows: %w", err)
	}
	return alerts, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ state.Repository = (*DocumentRepository)(nil)
