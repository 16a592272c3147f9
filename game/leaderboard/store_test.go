package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// runStoreSuite exercises the behaviour every backend must share
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty store loads empty list", func(t *testing.T) {
		s := open(t)
		entries, err := s.LoadScores(ctx)
		if err != nil {
			t.Fatalf("LoadScores failed: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("Expected empty non-nil list, got %#v", entries)
		}
	})

	t.Run("keeps top entries sorted", func(t *testing.T) {
		s := open(t)
		for i := 12; i > 0; i-- {
			err := s.RecordScore(ctx, Entry{Name: fmt.Sprintf("player%d", i), ElapsedSeconds: i, MoveCount: i * 3})
			if err != nil {
				t.Fatalf("RecordScore failed: %v", err)
			}
		}

		entries, err := s.LoadScores(ctx)
		if err != nil {
			t.Fatalf("LoadScores failed: %v", err)
		}
		if len(entries) != MaxEntries {
			t.Fatalf("Expected %d entries, got %d", MaxEntries, len(entries))
		}
		for i, e := range entries {
			if e.ElapsedSeconds != i+1 {
				t.Errorf("position %d: expected %d seconds, got %d", i, i+1, e.ElapsedSeconds)
			}
			if e.ID == "" || e.RecordedAt.IsZero() {
				t.Errorf("position %d: expected ID and timestamp to be set", i)
			}
		}
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		s := open(t)
		s.RecordScore(ctx, Entry{Name: "early", ElapsedSeconds: 42})
		s.RecordScore(ctx, Entry{Name: "late", ElapsedSeconds: 42})

		entries, _ := s.LoadScores(ctx)
		if len(entries) != 2 || entries[0].Name != "early" || entries[1].Name != "late" {
			t.Errorf("Expected early before late, got %+v", entries)
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		s := open(t)
		if err := s.RecordScore(ctx, Entry{Name: " ", ElapsedSeconds: 1}); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("Expected ErrInvalidEntry, got %v", err)
		}
		entries, _ := s.LoadScores(ctx)
		if len(entries) != 0 {
			t.Errorf("Expected nothing recorded, got %d entries", len(entries))
		}
	})

	t.Run("clear erases everything", func(t *testing.T) {
		s := open(t)
		s.RecordScore(ctx, Entry{Name: "a", ElapsedSeconds: 5, Image: "Forest Path", PuzzleID: "forest", GridSize: 3})
		if err := s.ClearScores(ctx); err != nil {
			t.Fatalf("ClearScores failed: %v", err)
		}
		entries, _ := s.LoadScores(ctx)
		if len(entries) != 0 {
			t.Errorf("Expected empty list after clear, got %d", len(entries))
		}
		if err := s.ClearScores(ctx); err != nil {
			t.Errorf("Expected clearing an empty store to succeed, got %v", err)
		}
	})

	t.Run("round trips fields", func(t *testing.T) {
		s := open(t)
		s.RecordScore(ctx, Entry{ID: "abc", Name: "Mina", ElapsedSeconds: 77, MoveCount: 120, Image: "Ocean Waves", PuzzleID: "ocean-waves", GridSize: 4})

		entries, _ := s.LoadScores(ctx)
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		e := entries[0]
		if e.ID != "abc" || e.Name != "Mina" || e.MoveCount != 120 || e.Image != "Ocean Waves" || e.PuzzleID != "ocean-waves" || e.GridSize != 4 {
			t.Errorf("Unexpected entry %+v", e)
		}
	})
}

func TestFileStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "scores", "leaderboard.json"))
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		return s
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leaderboard.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("LEADERBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEADERBOARD_TEST_POSTGRES_DSN not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewPostgresStore(context.Background(), dsn)
		if err != nil {
			t.Fatalf("NewPostgresStore failed: %v", err)
		}
		if err := s.ClearScores(context.Background()); err != nil {
			t.Fatalf("ClearScores failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestFileStoreMalformedData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, _ := NewFileStore(path)
	entries, err := s.LoadScores(ctx)
	if err != nil {
		t.Fatalf("Expected malformed data to load without error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty list, got %d", len(entries))
	}

	if err := s.RecordScore(ctx, Entry{Name: "recover", ElapsedSeconds: 3}); err != nil {
		t.Fatalf("Expected record to overwrite malformed data, got %v", err)
	}
	entries, _ = s.LoadScores(ctx)
	if len(entries) != 1 || entries[0].Name != "recover" {
		t.Errorf("Expected recovered entry, got %+v", entries)
	}
}

func TestFileStoreReadsBrowserFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	data := `[{"name":"B","time":90,"moves":100,"image":"City Lights","date":"2025-01-02T03:04:05Z"},
	          {"name":"A","time":60,"moves":80,"image":"Ocean Waves","date":"2025-01-01T00:00:00Z"}]`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, _ := NewFileStore(path)
	entries, _ := s.LoadScores(context.Background())
	if len(entries) != 2 || entries[0].Name != "A" || entries[1].ElapsedSeconds != 90 {
		t.Errorf("Expected sorted browser entries, got %+v", entries)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leaderboard.db")

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	first.RecordScore(ctx, Entry{Name: "persist", ElapsedSeconds: 12})
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	entries, _ := second.LoadScores(ctx)
	if len(entries) != 1 || entries[0].Name != "persist" {
		t.Errorf("Expected persisted entry, got %+v", entries)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		dsn      string
		expected string
	}{
		{"sqlite:" + filepath.Join(dir, "a.db"), "*leaderboard.SQLiteStore"},
		{filepath.Join(dir, "a.json"), "*leaderboard.FileStore"},
		{"file:" + filepath.Join(dir, "b.json"), "*leaderboard.FileStore"},
	}

	for _, test := range tests {
		s, err := Open(ctx, test.dsn)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", test.dsn, err)
		}
		if got := fmt.Sprintf("%T", s); got != test.expected {
			t.Errorf("Open(%q): expected %s, got %s", test.dsn, test.expected, got)
		}
		s.Close()
	}

	if _, err := Open(ctx, ""); err == nil {
		t.Error("Expected error for empty DSN")
	}
}
