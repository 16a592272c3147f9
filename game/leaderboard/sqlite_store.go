package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteStore keeps the leaderboard in a SQLite database
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at dbPath and runs migrations
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("leaderboard: migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			move_count INTEGER NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			puzzle_id TEXT NOT NULL DEFAULT '',
			grid_size INTEGER NOT NULL DEFAULT 0,
			recorded_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard_entries(elapsed_seconds, seq);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordScore inserts the entry and deletes everything outside the top MaxEntries
func (s *SQLiteStore) RecordScore(ctx context.Context, entry Entry) error {
	entry, err := Prepare(entry, s.now())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO leaderboard_entries (id, name, elapsed_seconds, move_count, image, puzzle_id, grid_size, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Name, entry.ElapsedSeconds, entry.MoveCount,
		entry.Image, entry.PuzzleID, entry.GridSize, entry.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("leaderboard: insert: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM leaderboard_entries WHERE seq NOT IN (
			SELECT seq FROM leaderboard_entries ORDER BY elapsed_seconds ASC, seq ASC LIMIT ?
		)`, MaxEntries)
	if err != nil {
		return fmt.Errorf("leaderboard: trim: %w", err)
	}

	return tx.Commit()
}

// LoadScores returns the kept entries, fastest first
func (s *SQLiteStore) LoadScores(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, elapsed_seconds, move_count, image, puzzle_id, grid_size, recorded_at
		 FROM leaderboard_entries ORDER BY elapsed_seconds ASC, seq ASC LIMIT ?`, MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var recordedAt int64
		if err := rows.Scan(&e.ID, &e.Name, &e.ElapsedSeconds, &e.MoveCount,
			&e.Image, &e.PuzzleID, &e.GridSize, &recordedAt); err != nil {
			return nil, err
		}
		e.RecordedAt = time.UnixMilli(recordedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearScores deletes every entry
func (s *SQLiteStore) ClearScores(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return fmt.Errorf("leaderboard: clear: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error { return s.db.Close() }
