package controller

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
)

// State is the lifecycle phase of a puzzle session
type State string

const (
	StateIdle      State = "idle"
	StateShuffling State = "shuffling"
	StatePlaying   State = "playing"
	StateWon       State = "won"
)

var (
	ErrNotWon               = errors.New("puzzle is not solved yet")
	ErrNameRequired         = errors.New("player name is required")
	ErrScoreAlreadyRecorded = errors.New("score already recorded for this game")
	ErrNoRecorder           = errors.New("no leaderboard configured")
)

// PuzzleRef identifies the selected puzzle image
type PuzzleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Settings are per-session display and board options
type Settings struct {
	ShowNumbers bool `json:"show_numbers"`
	GridSize    int  `json:"grid_size"`
}

// Snapshot is a read-only copy of a session for rendering
type Snapshot struct {
	State          State              `json:"state"`
	Puzzle         PuzzleRef          `json:"puzzle"`
	GridSize       int                `json:"grid_size"`
	Arrangement    engine.Arrangement `json:"arrangement"`
	EmptyPosition  engine.Position    `json:"empty_position"`
	ValidMoves     []int              `json:"valid_moves"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	ElapsedDisplay string             `json:"elapsed_display"`
	MoveCount      int                `json:"move_count"`
	Started        bool               `json:"started"`
	Finished       bool               `json:"finished"`
	ShowNumbers    bool               `json:"show_numbers"`
	ScoreRecorded  bool               `json:"score_recorded"`
}

// Summary describes a finished game
type Summary struct {
	Puzzle         PuzzleRef `json:"puzzle"`
	GridSize       int       `json:"grid_size"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	MoveCount      int       `json:"move_count"`
	FinishedAt     time.Time `json:"finished_at"`
}

// MoveOutcome reports what a move request did
type MoveOutcome struct {
	Applied  bool     `json:"applied"`
	Won      bool     `json:"won"`
	Index    int      `json:"index"`
	Snapshot Snapshot `json:"snapshot"`
}

// ScoreRecorder persists completed games. leaderboard.Store satisfies it.
type ScoreRecorder interface {
	RecordScore(ctx context.Context, entry leaderboard.Entry) error
}

// TickerFunc starts a ticker and returns its channel and a stop function
type TickerFunc func(interval time.Duration) (<-chan time.Time, func())

// PersistedState is the serialisable form of a controller
type PersistedState struct {
	Puzzle         PuzzleRef          `json:"puzzle"`
	Settings       Settings           `json:"settings"`
	State          State              `json:"state"`
	Arrangement    engine.Arrangement `json:"arrangement"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	MoveCount      int                `json:"move_count"`
	Started        bool               `json:"started"`
	Finished       bool               `json:"finished"`
	ScoreRecorded  bool               `json:"score_recorded"`
	FinishedAt     time.Time          `json:"finished_at,omitempty"`
}
