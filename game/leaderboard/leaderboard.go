package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxEntries is the number of scores a leaderboard keeps
const MaxEntries = 10

// ErrInvalidEntry is returned when an entry cannot be recorded
var ErrInvalidEntry = errors.New("invalid leaderboard entry")

// Entry is one completed game. JSON keys keep the browser leaderboard format.
type Entry struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ElapsedSeconds int       `json:"time"`
	MoveCount      int       `json:"moves"`
	Image          string    `json:"image"`
	PuzzleID       string    `json:"puzzle_id,omitempty"`
	GridSize       int       `json:"grid_size,omitempty"`
	RecordedAt     time.Time `json:"date"`
}

// Store persists the top scores
type Store interface {
	// RecordScore inserts the entry, keeps the best MaxEntries and persists them
	RecordScore(ctx context.Context, entry Entry) error
	// LoadScores returns the kept entries, fastest first. Missing data is an empty list.
	LoadScores(ctx context.Context) ([]Entry, error)
	// ClearScores erases every entry
	ClearScores(ctx context.Context) error
	Close() error
}

// Prepare validates an entry and fills in its ID and timestamp
func Prepare(entry Entry, now time.Time) (Entry, error) {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return Entry{}, fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	if entry.ElapsedSeconds < 0 || entry.MoveCount < 0 {
		return Entry{}, fmt.Errorf("%w: time and moves must not be negative", ErrInvalidEntry)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = now
	}
	entry.RecordedAt = entry.RecordedAt.UTC()
	return entry, nil
}

// Rank inserts entry into entries, sorts ascending by elapsed time and keeps
// the first MaxEntries. Ties keep earlier entries ahead of the new one.
func Rank(entries []Entry, entry Entry) []Entry {
	ranked := make([]Entry, 0, len(entries)+1)
	ranked = append(ranked, entries...)
	ranked = append(ranked, entry)
	return normalize(ranked)
}

// normalize sorts entries by elapsed time and truncates to MaxEntries
func normalize(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ElapsedSeconds < entries[j].ElapsedSeconds
	})
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries
}
