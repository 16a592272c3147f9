package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the leaderboard in PostgreSQL so several servers can share it
type PostgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresStore connects to dsn and creates the table if needed
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	s := &PostgresStore{db: pool, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("leaderboard: migrate postgres: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS leaderboard_entries (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		move_count INTEGER NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		puzzle_id TEXT NOT NULL DEFAULT '',
		grid_size INTEGER NOT NULL DEFAULT 0,
		recorded_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

// RecordScore inserts the entry and deletes everything outside the top MaxEntries
func (s *PostgresStore) RecordScore(ctx context.Context, entry Entry) error {
	entry, err := Prepare(entry, s.now())
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO leaderboard_entries (id, name, elapsed_seconds, move_count, image, puzzle_id, grid_size, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Name, entry.ElapsedSeconds, entry.MoveCount,
		entry.Image, entry.PuzzleID, entry.GridSize, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("leaderboard: insert: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM leaderboard_entries WHERE seq NOT IN (
			SELECT seq FROM leaderboard_entries ORDER BY elapsed_seconds ASC, seq ASC LIMIT $1
		)`, MaxEntries)
	if err != nil {
		return fmt.Errorf("leaderboard: trim: %w", err)
	}

	return tx.Commit(ctx)
}

// LoadScores returns the kept entries, fastest first
func (s *PostgresStore) LoadScores(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, elapsed_seconds, move_count, image, puzzle_id, grid_size, recorded_at
		 FROM leaderboard_entries ORDER BY elapsed_seconds ASC, seq ASC LIMIT $1`, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.Name, &e.ElapsedSeconds, &e.MoveCount,
			&e.Image, &e.PuzzleID, &e.GridSize, &e.RecordedAt)
		e.RecordedAt = e.RecordedAt.UTC()
		return e, err
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// ClearScores deletes every entry
func (s *PostgresStore) ClearScores(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return fmt.Errorf("leaderboard: clear: %w", err)
	}
	return nil
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
