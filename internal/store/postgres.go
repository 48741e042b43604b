package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxPool is the part of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const schema = `
	CREATE TABLE IF NOT EXISTS applications (
		key      TEXT PRIMARY KEY,
		job_id   TEXT NOT NULL,
		status   TEXT NOT NULL,
		record   JSONB NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL
	)`

type PostgresStore struct {
	pool pgxPool
}

func ConnectPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	// Transaction-mode poolers reject prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create applications table: %w", err)
	}
	return nil
}

// Save inserts the record or replaces the one stored under key.
func (s *PostgresStore) Save(ctx context.Context, key string, rec Record) error {
	if err := validKey(key); err != nil {
		return err
	}
	rec.Key = key
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO applications (key, job_id, status, record, saved_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key)
		DO UPDATE SET job_id = EXCLUDED.job_id, status = EXCLUDED.status, record = EXCLUDED.record, saved_at = EXCLUDED.saved_at`
	if _, err := s.pool.Exec(ctx, query, key, rec.JobID, string(rec.Status), data, rec.SavedAt); err != nil {
		return fmt.Errorf("failed to save application %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) (Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT record FROM applications WHERE key = $1", key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to load application %s: %w", key, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode application %s: %w", key, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, status Status) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT record FROM applications WHERE ($1 = '' OR status = $1) ORDER BY saved_at DESC",
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode application: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM applications WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete application %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
