package session

import (
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(data *PersistedSessionData) error

	// Load retrieves a session from storage by ID
	Load(id string) (*PersistedSessionData, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions
type PersistedSessionData struct {
	ID             string                    `json:"id"`
	PuzzleID       string                    `json:"puzzle_id"`
	CreatedAt      time.Time                 `json:"created_at"`
	LastAccessedAt time.Time                 `json:"last_accessed_at"`
	State          controller.PersistedState `json:"state"`
}

func snapshotOf(session *service.Session) *PersistedSessionData {
	state := session.Controller.Export()
	return &PersistedSessionData{
		ID:             session.ID,
		PuzzleID:       state.Puzzle.ID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		State:          state,
	}
}
