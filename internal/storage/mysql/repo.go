package mysql

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"

	"flexliving_reviews/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// detail column is VARCHAR(512)
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func valTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// Repo is the MySQL-backed approval audit trail.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) RecordApproval(ctx context.Context, e domain.ApprovalEvent) error {
	_, err := r.db.ExecContext(ctx, insertApprovalSQL,
		e.ReviewID,
		e.Approved,
		e.Outcome,
		valStr(truncate(e.Detail, 512)),
		valTime(e.RecordedAt), // NULL -> CURRENT_TIMESTAMP(3)
	)
	return err
}

func (r *Repo) ListApprovals(ctx context.Context, reviewID string, limit int) ([]domain.ApprovalEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listApprovalsSQL, reviewID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ApprovalEvent, 0)
	for rows.Next() {
		var (
			e      domain.ApprovalEvent
			detail sql.NullString
		)
		if err := rows.Scan(&e.ReviewID, &e.Approved, &e.Outcome, &detail, &e.RecordedAt); err != nil {
			return nil, err
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
