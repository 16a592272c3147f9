package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles puzzle session lifecycle
type Manager struct {
	sessions       map[string]*service.Session
	persistence    SessionPersistence
	controllerOpts []controller.Option
	mu             sync.RWMutex
}

// NewManager creates a new in-memory session manager. opts are applied to
// every controller the manager creates or restores.
func NewManager(opts ...controller.Option) *Manager {
	return &Manager{
		sessions:       make(map[string]*service.Session),
		controllerOpts: opts,
	}
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...controller.Option) *Manager {
	return &Manager{
		sessions:       make(map[string]*service.Session),
		persistence:    persistence,
		controllerOpts: opts,
	}
}

// Create creates a new Idle session for the given puzzle
func (m *Manager) Create(id string, puzzle *engine.PuzzleConfig, settings controller.Settings) (*service.Session, error) {
	if puzzle == nil {
		return nil, fmt.Errorf("%w: puzzle is required", engine.ErrInvalidConfiguration)
	}
	if !validSessionID(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
		for m.sessionExists(id) {
			id = m.generateSessionID()
		}
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	ctrl, err := controller.NewController(
		controller.PuzzleRef{ID: puzzle.ID, Name: puzzle.Name},
		settings,
		m.controllerOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Controller:     ctrl,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.sessions[strings.ToLower(id)] = session

	// Auto-save if persistence is enabled
	if m.persistence != nil {
		if err := m.persistence.Save(snapshotOf(session)); err != nil {
			// Log error but don't fail the creation
			fmt.Printf("Warning: Failed to persist session %s: %v\n", id, err)
		}
	}

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		data, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}
		session, err := m.restore(data)
		if err != nil {
			return nil, fmt.Errorf("failed to restore persisted session: %w", err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		// another caller may have restored it first
		if existing, ok := m.sessions[strings.ToLower(id)]; ok {
			session.Controller.Close()
			return existing, nil
		}
		m.sessions[strings.ToLower(id)] = session
		return session, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, puzzle *engine.PuzzleConfig, settings controller.Settings) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, puzzle, settings)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session from memory and storage, releasing its timer
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	inMemory := false

	if session, exists := m.sessions[lowerID]; exists {
		session.Controller.Close()
		delete(m.sessions, lowerID)
		inMemory = true
	}

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if !exists {
		return ErrSessionNotFound
	}

	session.Controller.Close()
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return nil
}

// AccessTimes returns the creation and last access times of a session. The
// access time is written under m.mu, so readers outside the manager use this.
func (m *Manager) AccessTimes(id string) (createdAt, lastAccessedAt time.Time, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return time.Time{}, time.Time{}, ErrSessionNotFound
	}
	return session.CreatedAt, session.LastAccessedAt, nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		m.mu.RUnlock()
		return ErrSessionNotFound
	}
	data := snapshotOf(session)
	m.mu.RUnlock()

	return m.persistence.Save(data)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration. Each one is saved first so ticks since its last mutation
// survive a later reload, then its timer is released.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			if m.persistence != nil {
				if err := m.persistence.Save(snapshotOf(session)); err != nil {
					fmt.Printf("Warning: Failed to persist expired session %s: %v\n", session.ID, err)
				}
			}
			session.Controller.Close()
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close releases every session timer. Sessions stay listed.
func (m *Manager) Close() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.sessions {
		session.Controller.Close()
	}
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}

// validSessionID rejects IDs that cannot be used as file names
func validSessionID(id string) bool {
	if len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (m *Manager) restore(data *PersistedSessionData) (*service.Session, error) {
	ctrl, err := controller.Restore(data.State, m.controllerOpts...)
	if err != nil {
		return nil, err
	}
	return &service.Session{
		ID:             data.ID,
		Controller:     ctrl,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// LoadPersistedSessions loads persisted sessions into memory. With a positive
// maxAge, stored sessions not accessed within it are deleted instead of loaded.
func (m *Manager) LoadPersistedSessions(maxAge time.Duration) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	loadedCount, expiredCount := 0, 0
	for _, id := range sessionIDs {
		// Skip if already loaded in memory
		if _, exists := m.sessions[strings.ToLower(id)]; exists {
			continue
		}

		data, err := m.persistence.Load(id)
		if err != nil {
			fmt.Printf("Warning: Failed to load persisted session %s: %v\n", id, err)
			continue
		}
		if maxAge > 0 && data.LastAccessedAt.Before(cutoff) {
			if err := m.persistence.Delete(id); err != nil {
				fmt.Printf("Warning: Failed to delete expired session %s: %v\n", id, err)
			}
			expiredCount++
			continue
		}
		session, err := m.restore(data)
		if err != nil {
			fmt.Printf("Warning: Failed to restore persisted session %s: %v\n", id, err)
			continue
		}

		m.sessions[strings.ToLower(id)] = session
		loadedCount++
	}

	if loadedCount > 0 {
		fmt.Printf("Loaded %d persisted sessions from storage\n", loadedCount)
	}
	if expiredCount > 0 {
		fmt.Printf("Removed %d expired sessions from storage\n", expiredCount)
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	all := make([]*PersistedSessionData, 0, len(m.sessions))
	for _, session := range m.sessions {
		all = append(all, snapshotOf(session))
	}
	m.mu.RUnlock()

	errorCount := 0
	for _, data := range all {
		if err := m.persistence.Save(data); err != nil {
			fmt.Printf("Warning: Failed to save session %s: %v\n", data.ID, err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}
