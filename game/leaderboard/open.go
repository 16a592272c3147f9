package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// Open selects a backend from dsn:
//
//	sqlite:<path>                      SQLite database
//	postgres://... or postgresql://... PostgreSQL
//	anything else                      JSON file path
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("leaderboard: empty DSN")
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLiteStore(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	default:
		return NewFileStore(strings.TrimPrefix(dsn, "file:"))
	}
}

// FormatEntries renders entries as a ranked text table with relative dates
func FormatEntries(entries []Entry, now time.Time) string {
	if len(entries) == 0 {
		return "No scores yet. Be the first to play!\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-20s %-6s %-6s %-20s %s\n", "RANK", "NAME", "TIME", "MOVES", "PUZZLE", "WHEN")
	for i, e := range entries {
		puzzle := e.Image
		if e.GridSize > 0 {
			puzzle = fmt.Sprintf("%s (%dx%d)", puzzle, e.GridSize, e.GridSize)
		}
		fmt.Fprintf(&b, "#%-3d %-20s %-6s %-6d %-20s %s\n",
			i+1, e.Name, engine.FormatElapsed(e.ElapsedSeconds), e.MoveCount,
			puzzle, humanize.RelTime(e.RecordedAt, now, "ago", "from now"))
	}
	return b.String()
}
