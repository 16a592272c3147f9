package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
)

var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrPuzzleNotFound         = errors.New("puzzle not found")
	ErrLeaderboardUnavailable = errors.New("leaderboard is not configured")
)

// GameService defines all puzzle-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	StartGame(ctx context.Context, sessionID string) (*controller.Snapshot, error)
	Move(ctx context.Context, sessionID string, index int) (*MoveResult, error)
	KeyMove(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	ChangeGridSize(ctx context.Context, sessionID string, size int) (*controller.Snapshot, error)
	SelectPuzzle(ctx context.Context, sessionID, puzzleID string) (*controller.Snapshot, error)
	SetShowNumbers(ctx context.Context, sessionID string, show bool) (*controller.Snapshot, error)

	// Game State
	GetSnapshot(ctx context.Context, sessionID string) (*controller.Snapshot, error)
	GetTiles(ctx context.Context, sessionID string, canvas int) (*TilesResponse, error)

	// Scores
	SubmitScore(ctx context.Context, sessionID, name string) (*ScoreResult, error)
	GetLeaderboard(ctx context.Context) ([]leaderboard.Entry, error)
	ClearLeaderboard(ctx context.Context) error

	// Puzzle catalogue
	ListPuzzles(ctx context.Context) ([]*PuzzleInfo, error)
	LoadPuzzle(ctx context.Context, puzzleID string) (*engine.PuzzleConfig, error)
	SavePuzzle(ctx context.Context, puzzle *engine.PuzzleConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, puzzle *engine.PuzzleConfig, settings controller.Settings) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, puzzle *engine.PuzzleConfig, settings controller.Settings) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	AccessTimes(id string) (createdAt, lastAccessedAt time.Time, err error)
	Save(id string) error
}

// ConfigManager handles puzzle catalogue loading
type ConfigManager interface {
	LoadPuzzle(id string) (*engine.PuzzleConfig, error)
	ListPuzzles() ([]*PuzzleInfo, error)
	GetDefault() *engine.PuzzleConfig
	SavePuzzle(id string, puzzle *engine.PuzzleConfig) error
}

// Session represents an active puzzle session
type Session struct {
	ID             string
	Controller     *controller.Controller
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
