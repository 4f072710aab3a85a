package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/recall-agent/recall/internal/core"
)

// ProceduralRepo is the append-only tool-usage log backed by sqlite.
type ProceduralRepo struct {
	db *sql.DB
}

func NewProceduralRepo(db *sql.DB) *ProceduralRepo {
	return &ProceduralRepo{db: db}
}

func (r *ProceduralRepo) Append(ctx context.Context, userID string, rec core.ProceduralRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO procedural (user_id, tool, arguments, result_summary, error, success, query_context, pattern_type, successful_pattern)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, rec.Tool, rec.Arguments, rec.ResultSummary, rec.Error,
		rec.Success, rec.QueryContext, rec.PatternType, rec.SuccessfulPattern,
	)
	if err != nil {
		return fmt.Errorf("append procedural record: %w", err)
	}
	return nil
}

func (r *ProceduralRepo) Query(ctx context.Context, userID string, filter core.ProceduralFilter, limit int) ([]core.ProceduralRecord, error) {
	query := `SELECT id, tool, arguments, result_summary, error, success, query_context, pattern_type, successful_pattern, created_at
		FROM procedural WHERE user_id = ?`
	args := []any{userID}

	// Filter clauses are OR-combined: any match qualifies the record.
	var clauses []string
	if filter.ContextMatch != "" {
		clauses = append(clauses, `query_context LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.ContextMatch)+"%")
	}
	if filter.HasTool {
		clauses = append(clauses, `tool != ''`)
	}
	if filter.HasPattern {
		clauses = append(clauses, `successful_pattern != ''`)
	}
	if len(clauses) > 0 {
		query += " AND ("
		for i, c := range clauses {
			if i > 0 {
				query += " OR "
			}
			query += c
		}
		query += ")"
	}

	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query procedural: %w", err)
	}
	defer rows.Close()

	var records []core.ProceduralRecord
	for rows.Next() {
		var rec core.ProceduralRecord
		var id int64
		if err := rows.Scan(&id, &rec.Tool, &rec.Arguments, &rec.ResultSummary, &rec.Error,
			&rec.Success, &rec.QueryContext, &rec.PatternType, &rec.SuccessfulPattern, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.UserID = userID
		records = append(records, rec)
	}
	return records, rows.Err()
}
