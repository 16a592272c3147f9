package leaderboard

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPrepare(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	entry, err := Prepare(Entry{Name: "  Mina  ", ElapsedSeconds: 30, MoveCount: 40}, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entry.Name != "Mina" {
		t.Errorf("Expected trimmed name, got %q", entry.Name)
	}
	if entry.ID == "" {
		t.Error("Expected generated ID")
	}
	if !entry.RecordedAt.Equal(now) {
		t.Errorf("Expected RecordedAt %v, got %v", now, entry.RecordedAt)
	}

	kept, _ := Prepare(Entry{ID: "fixed", Name: "A", RecordedAt: now.Add(-time.Hour)}, now)
	if kept.ID != "fixed" || !kept.RecordedAt.Equal(now.Add(-time.Hour)) {
		t.Errorf("Expected explicit ID and timestamp to be kept, got %+v", kept)
	}

	invalid := []Entry{
		{Name: ""},
		{Name: "   "},
		{Name: "A", ElapsedSeconds: -1},
		{Name: "A", MoveCount: -1},
	}
	for _, e := range invalid {
		if _, err := Prepare(e, now); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("Prepare(%+v): expected ErrInvalidEntry, got %v", e, err)
		}
	}
}

func TestRank(t *testing.T) {
	var entries []Entry
	for i := MaxEntries + 2; i > 0; i-- {
		entries = Rank(entries, Entry{Name: "p", ElapsedSeconds: i * 10})
	}

	if len(entries) != MaxEntries {
		t.Fatalf("Expected %d entries, got %d", MaxEntries, len(entries))
	}
	for i, e := range entries {
		if e.ElapsedSeconds != (i+1)*10 {
			t.Errorf("position %d: expected %d seconds, got %d", i, (i+1)*10, e.ElapsedSeconds)
		}
	}

	slow := Rank(entries, Entry{Name: "slow", ElapsedSeconds: 9999})
	for _, e := range slow {
		if e.Name == "slow" {
			t.Error("Expected entry slower than the full board to be dropped")
		}
	}
}

func TestRankTiesKeepEarlierEntriesFirst(t *testing.T) {
	entries := Rank(nil, Entry{Name: "first", ElapsedSeconds: 50})
	entries = Rank(entries, Entry{Name: "second", ElapsedSeconds: 50})
	entries = Rank(entries, Entry{Name: "fast", ElapsedSeconds: 10})

	names := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	expected := []string{"fast", "first", "second"}
	for i := range names {
		if names[i] != expected[i] {
			t.Errorf("Expected order %v, got %v", expected, names)
			break
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	original := []Entry{{Name: "b", ElapsedSeconds: 20}, {Name: "c", ElapsedSeconds: 30}}
	Rank(original, Entry{Name: "a", ElapsedSeconds: 5})

	if original[0].Name != "b" || original[1].Name != "c" {
		t.Errorf("Expected input slice untouched, got %+v", original)
	}
}

func TestFormatEntries(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := FormatEntries(nil, now); !strings.Contains(got, "No scores yet") {
		t.Errorf("Expected empty message, got %q", got)
	}

	out := FormatEntries([]Entry{
		{Name: "Mina", ElapsedSeconds: 95, MoveCount: 140, Image: "Ocean Waves", GridSize: 4, RecordedAt: now.Add(-3 * time.Minute)},
		{Name: "Jun", ElapsedSeconds: 130, MoveCount: 88, Image: "City Lights", RecordedAt: now.Add(-2 * time.Hour)},
	}, now)

	for _, want := range []string{"#1", "Mina", "01:35", "Ocean Waves (4x4)", "3 minutes ago", "#2", "02:10", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
