package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the leaderboard in a single JSON file
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a file-backed store. The parent directory is created if needed.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create leaderboard directory: %w", err)
		}
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// RecordScore ranks the entry into the stored list and rewrites the file
func (s *FileStore) RecordScore(ctx context.Context, entry Entry) error {
	entry, err := Prepare(entry, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := Rank(s.read(), entry)
	return s.write(entries)
}

// LoadScores returns the stored entries. Absent or malformed files yield an empty list.
func (s *FileStore) LoadScores(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(), nil
}

// ClearScores removes the backing file
func (s *FileStore) ClearScores(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	return nil
}

// Close is a no-op for file stores
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read leaderboard %s: %v", s.path, err)
		}
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("Warning: ignoring malformed leaderboard %s: %v", s.path, err)
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return normalize(entries)
}

func (s *FileStore) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write leaderboard: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace leaderboard: %w", err)
	}
	return nil
}
