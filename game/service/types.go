package service

import (
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
)

// CreateSessionOptions selects the puzzle and board for a new session
type CreateSessionOptions struct {
	PuzzleID    string `json:"puzzle_id,omitempty"`
	GridSize    int    `json:"grid_size,omitempty"`    // zero uses the puzzle default
	ShowNumbers *bool  `json:"show_numbers,omitempty"` // nil uses the puzzle default
}

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string               `json:"id"`
	PuzzleID       string               `json:"puzzle_id"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	Snapshot       *controller.Snapshot `json:"snapshot"`
	Puzzle         *engine.PuzzleConfig `json:"puzzle,omitempty"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Applied  bool                 `json:"applied"`
	Won      bool                 `json:"won"`
	Index    int                  `json:"index"`
	Message  string               `json:"message"`
	Snapshot *controller.Snapshot `json:"snapshot"`
	Events   []GameEvent          `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "win"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
}

// TilesResponse is the renderer view of a session
type TilesResponse struct {
	GridSize    int               `json:"grid_size"`
	Canvas      int               `json:"canvas"`
	ShowNumbers bool              `json:"show_numbers"`
	Image       string            `json:"image,omitempty"`
	Pattern     string            `json:"pattern,omitempty"`
	Tiles       []engine.TileView `json:"tiles"`
	Board       string            `json:"board"`
}

// ScoreResult is returned after a score is submitted
type ScoreResult struct {
	Entry       leaderboard.Entry   `json:"entry"`
	Rank        int                 `json:"rank"` // 1-based, 0 when outside the top entries
	Leaderboard []leaderboard.Entry `json:"leaderboard"`
}

// PuzzleInfo provides information about a catalogue puzzle
type PuzzleInfo struct {
	Filename    string `json:"filename,omitempty"`
	PuzzleID    string `json:"puzzle_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Generated   bool   `json:"generated"`
	Pattern     string `json:"pattern,omitempty"`
	GridSize    int    `json:"grid_size"`
}
