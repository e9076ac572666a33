package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type reportRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// SaveReport stores rep and fills in its ID, Sequence and CreatedAt.
func (r *reportRepo) SaveReport(ctx context.Context, rep *Report) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}

	query, args := builder.Insert(tableReports).
		Columns("sequence", "session_id", "title", "body", "created_at").
		Values(seqNum, rep.SessionID, rep.Title, string(rep.Body), rep.CreatedAt.UnixMilli()).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("report id: %w", err)
	}
	rep.ID = int(id)
	rep.Sequence = seqNum
	return nil
}

var reportColumns = []string{"id", "sequence", "session_id", "title", "body", "created_at"}

func (r *reportRepo) GetReport(ctx context.Context, id int) (*Report, error) {
	query, args := builder.Select(reportColumns...).
		From(entsql.Table(tableReports)).
		Where(entsql.EQ("id", id)).
		Query()

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return rep, nil
}

func (r *reportRepo) ListReports(ctx context.Context, limit int) ([]Report, error) {
	sel := builder.Select(reportColumns...).
		From(entsql.Table(tableReports)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *rep)
	}
	return out, rows.Err()
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		rep     Report
		body    string
		created int64
	)
	if err := row.Scan(&rep.ID, &rep.Sequence, &rep.SessionID, &rep.Title, &body, &created); err != nil {
		return nil, err
	}
	rep.Body = []byte(body)
	rep.CreatedAt = time.UnixMilli(created)
	return &rep, nil
}
