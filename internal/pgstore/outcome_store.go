// Package pgstore provides the Postgres-backed word outcome ledger.
package pgstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dictbatch/internal/dict"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for outcome rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// OutcomeStore records per-word lookup outcomes in Postgres. Rows from
// earlier runs let a new run skip words that already succeeded.
type OutcomeStore struct {
	pool  querier
	table string
}

// New creates a Postgres-backed OutcomeStore using the provided config.
func New(ctx context.Context, cfg Config) (*OutcomeStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "word_outcomes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &OutcomeStore{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier, table string) (*OutcomeStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "word_outcomes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &OutcomeStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *OutcomeStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Record inserts an outcome row for the word.
func (s *OutcomeStore) Record(ctx context.Context, runID string, outcome dict.Outcome) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("outcome store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if outcome.Word == "" {
		return fmt.Errorf("word is required")
	}

	errText := ""
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	word,
	found,
	attempts,
	duration_ms,
	snapshot_uri,
	error,
	fetched_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.table)

	args := []any{
		runID,
		outcome.Word,
		outcome.Found(),
		outcome.Attempts,
		outcome.Duration.Milliseconds(),
		outcome.SnapshotURI,
		errText,
		outcome.FetchedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Fetched reports whether any earlier run recorded a successful lookup
// for the word.
func (s *OutcomeStore) Fetched(ctx context.Context, word string) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("outcome store is not configured")
	}
	if word == "" {
		return false, fmt.Errorf("word is required")
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE word = $1 AND found)`, s.table)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, word).Scan(&exists); err != nil {
		return false, fmt.Errorf("query outcome: %w", err)
	}
	return exists, nil
}
