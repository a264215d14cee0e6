package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/rpggio/nexus/internal/domain/project"
)

// SearchRepository implements project.SearchRepository over the projects_fts
// index.
type SearchRepository struct {
	db *DB
}

// NewSearchRepository creates a new SearchRepository
func NewSearchRepository(db *DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Search performs a full-text search over project names, descriptions, notes
// and risks. Every word in query must match, as a prefix.
func (r *SearchRepository) Search(ctx context.Context, query string, opts project.SearchOptions) ([]project.SearchResult, error) {
	match := matchExpression(query)
	if match == "" {
		return []project.SearchResult{}, nil
	}

	baseQuery := `
		SELECT
			p.id, p.name, p.ceo_priority, p.stakeholder_urgency,
			p.stakeholder_sentiment, p.status, p.deadline,
			json_array_length(p.key_risks) AS risk_count,
			(SELECT COUNT(*) FROM project_history h WHERE h.project_id = p.id) AS history_count,
			p.last_updated,
			bm25(projects_fts) AS rank,
			snippet(projects_fts, -1, '[', ']', '...', 10) AS snippet
		FROM projects_fts
		JOIN projects p ON p.rowid = projects_fts.rowid
		WHERE projects_fts MATCH ?
	`

	args := []any{match}
	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		baseQuery += fmt.Sprintf(" AND p.status IN (%s)", strings.Join(placeholders, ","))
	}

	baseQuery += " ORDER BY rank, p.position"

	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		baseQuery += " LIMIT ? OFFSET ?"
		args = append(args, limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}
	defer rows.Close()

	results := []project.SearchResult{}
	for rows.Next() {
		var result project.SearchResult
		var deadline sql.NullString
		var lastUpdated string
		s := &result.Project
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Priority,
			&s.Urgency,
			&s.Sentiment,
			&s.Status,
			&deadline,
			&s.RiskCount,
			&s.HistoryCount,
			&lastUpdated,
			&result.Rank,
			&result.Snippet,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if s.Deadline, err = parseNullTime(deadline); err != nil {
			return nil, fmt.Errorf("failed to parse deadline for project %s: %w", s.ID, err)
		}
		if s.LastUpdated, err = parseTime(lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to parse last_updated for project %s: %w", s.ID, err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// matchExpression turns free text into an FTS5 query of quoted prefix terms,
// so punctuation in user input never reaches the query parser.
func matchExpression(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+w+`"*`)
	}
	return strings.Join(terms, " ")
}
