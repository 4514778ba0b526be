package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore keeps every collection in one append-ordered jsonb table. Each call
// is a single statement and nothing runs inside a transaction, matching the
// guarantees (and non-guarantees) of the record store contract.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			pos        bigserial,
			collection text NOT NULL,
			record_id  text NOT NULL,
			data       jsonb NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure records table: %w", err)
	}
	return nil
}

func (s *PgStore) ListAll(ctx context.Context, collection string) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data
		FROM records
		WHERE collection = $1
		ORDER BY pos
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	return result, nil
}

func (s *PgStore) FindByID(ctx context.Context, collection, id string) (Row, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT data
		FROM records
		WHERE collection = $1 AND record_id = $2
		ORDER BY pos DESC
		LIMIT 1
	`, collection, id)

	r, err := scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}

	return r, nil
}

func (s *PgStore) Append(ctx context.Context, collection string, row Row) error {
	idLabel, err := IDLabel(collection)
	if err != nil {
		return err
	}

	id := row[idLabel]
	if id == "" {
		return fmt.Errorf("append to %s: row has no %q", collection, idLabel)
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("append to %s: %w", collection, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO records (collection, record_id, data)
		VALUES ($1, $2, $3)
	`, collection, id, data)
	if err != nil {
		return fmt.Errorf("append to %s: %w", collection, err)
	}

	return nil
}

func (s *PgStore) UpdateByID(ctx context.Context, collection, id string, partial Row) error {
	data, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE records
		SET data = data || $3::jsonb
		WHERE collection = $1 AND record_id = $2
	`, collection, id, data)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanRow(row pgx.Row) (Row, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, err
	}

	var r Row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}
