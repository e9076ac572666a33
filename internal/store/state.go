package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type stateRepo struct {
	db *sql.DB
}

func (r *stateRepo) PutState(ctx context.Context, key string, value []byte) error {
	query, args := builder.Insert(tableState).
		Columns("key", "value", "updated_at").
		Values(key, string(value), time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put state %q: %w", key, err)
	}
	return nil
}

func (r *stateRepo) GetState(ctx context.Context, key string) ([]byte, error) {
	query, args := builder.Select("value").
		From(entsql.Table(tableState)).
		Where(entsql.EQ("key", key)).
		Query()

	var value string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state %q: %w", key, err)
	}
	return []byte(value), nil
}
