package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   leaderboard.Store
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. scores may be nil, in
// which case leaderboard operations return ErrLeaderboardUnavailable.
func NewGameService(sessions SessionManager, configs ConfigManager, scores leaderboard.Store) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		scores:   scores,
	}
}

// CreateSession creates a new puzzle session in the Idle state
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	puzzle, err := s.resolvePuzzle(opts.PuzzleID)
	if err != nil {
		return nil, err
	}

	settings := controller.Settings{
		GridSize:    puzzle.EffectiveGridSize(),
		ShowNumbers: puzzle.ShowNumbers,
	}
	if opts.GridSize != 0 {
		if err := engine.ValidateGridSize(opts.GridSize); err != nil {
			return nil, err
		}
		settings.GridSize = opts.GridSize
	}
	if opts.ShowNumbers != nil {
		settings.ShowNumbers = *opts.ShowNumbers
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", puzzle, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(session), nil
}

// resolvePuzzle loads a catalogue entry, or the default when id is empty
func (s *gameServiceImpl) resolvePuzzle(id string) (*engine.PuzzleConfig, error) {
	if id == "" {
		return s.configs.GetDefault(), nil
	}

	puzzle, err := s.configs.LoadPuzzle(id)
	if err != nil {
		if errors.Is(err, ErrPuzzleNotFound) {
			available, listErr := s.configs.ListPuzzles()
			if listErr == nil && len(available) > 0 {
				var ids []string
				for _, p := range available {
					ids = append(ids, p.PuzzleID)
				}
				return nil, fmt.Errorf("%w: '%s'. Available puzzles: %v", ErrPuzzleNotFound, id, ids)
			}
		}
		return nil, fmt.Errorf("failed to load puzzle %s: %w", id, err)
	}
	return puzzle, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// StartGame shuffles the board and starts the clock
func (s *gameServiceImpl) StartGame(ctx context.Context, sessionID string) (*controller.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := sess.Controller.StartGame()
	log.Printf("[START] session=%s puzzle=%s grid=%d", sess.ID, snapshot.Puzzle.ID, snapshot.GridSize)

	s.autoSave(sessionID, "start")
	return &snapshot, nil
}

// Move slides the tile at index into the empty slot
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, index int) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	prevEmpty := sess.Controller.CurrentSnapshot().EmptyPosition
	outcome := sess.Controller.MoveRequested(index)
	return s.moveResult(sess, prevEmpty, outcome), nil
}

// KeyMove handles an arrow-key style request
func (s *gameServiceImpl) KeyMove(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	prevEmpty := sess.Controller.CurrentSnapshot().EmptyPosition
	outcome := sess.Controller.KeyPressed(dir)
	return s.moveResult(sess, prevEmpty, outcome), nil
}

func (s *gameServiceImpl) moveResult(sess *Session, prevEmpty engine.Position, outcome controller.MoveOutcome) *MoveResult {
	snapshot := outcome.Snapshot
	result := &MoveResult{
		Applied:  outcome.Applied,
		Won:      outcome.Won,
		Index:    outcome.Index,
		Snapshot: &snapshot,
		Events:   []GameEvent{},
	}

	switch {
	case outcome.Applied:
		now := time.Now()
		tile := snapshot.Arrangement[s.indexOf(snapshot, prevEmpty)]
		result.Message = fmt.Sprintf("Moved tile %d", tile+1)
		result.Events = append(result.Events, GameEvent{
			Type:      "move",
			Message:   result.Message,
			Timestamp: now,
			Position:  prevEmpty,
		})
		if outcome.Won {
			result.Message = fmt.Sprintf("Puzzle solved in %s with %d moves! Submit your name to save the score.",
				snapshot.ElapsedDisplay, snapshot.MoveCount)
			result.Events = append(result.Events, GameEvent{
				Type:      "win",
				Message:   result.Message,
				Timestamp: now,
				Position:  snapshot.EmptyPosition,
			})
			log.Printf("[WIN] session=%s time=%s moves=%d", sess.ID, snapshot.ElapsedDisplay, snapshot.MoveCount)
		}
		s.autoSave(sess.ID, "move")
	case snapshot.State != controller.StatePlaying:
		result.Message = fmt.Sprintf("Move ignored: game is %s", snapshot.State)
	default:
		result.Message = "Move ignored: tile is not next to the empty slot"
	}

	return result
}

func (s *gameServiceImpl) indexOf(snapshot controller.Snapshot, p engine.Position) int {
	return p.Row*snapshot.GridSize + p.Col
}

// ChangeGridSize switches between 3x3 and 4x4 and returns to Idle
func (s *gameServiceImpl) ChangeGridSize(ctx context.Context, sessionID string, size int) (*controller.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Controller.ChangeGridSize(size); err != nil {
		return nil, err
	}

	s.autoSave(sessionID, "grid size change")
	snapshot := sess.Controller.CurrentSnapshot()
	return &snapshot, nil
}

// SelectPuzzle switches the puzzle image and returns to Idle
func (s *gameServiceImpl) SelectPuzzle(ctx context.Context, sessionID, puzzleID string) (*controller.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	puzzle, err := s.resolvePuzzle(puzzleID)
	if err != nil {
		return nil, err
	}

	sess.Controller.SelectPuzzleImage(controller.PuzzleRef{ID: puzzle.ID, Name: puzzle.Name})

	s.autoSave(sessionID, "puzzle change")
	snapshot := sess.Controller.CurrentSnapshot()
	return &snapshot, nil
}

// SetShowNumbers toggles tile labels
func (s *gameServiceImpl) SetShowNumbers(ctx context.Context, sessionID string, show bool) (*controller.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Controller.SetShowNumbers(show)

	s.autoSave(sessionID, "settings change")
	snapshot := sess.Controller.CurrentSnapshot()
	return &snapshot, nil
}

// GetSnapshot returns the current session snapshot
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*controller.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := sess.Controller.CurrentSnapshot()
	return &snapshot, nil
}

// GetTiles maps the current arrangement to image regions for a canvas size
func (s *gameServiceImpl) GetTiles(ctx context.Context, sessionID string, canvas int) (*TilesResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if canvas <= 0 {
		canvas = engine.DefaultCanvasSize
	}

	snapshot := sess.Controller.CurrentSnapshot()
	grid := engine.Grid{Size: snapshot.GridSize}
	resp := &TilesResponse{
		GridSize:    snapshot.GridSize,
		Canvas:      canvas,
		ShowNumbers: snapshot.ShowNumbers,
		Tiles:       engine.BuildTileViews(snapshot.Arrangement, grid, canvas, snapshot.ShowNumbers),
		Board:       engine.FormatBoard(snapshot.Arrangement, grid),
	}
	if puzzle, err := s.configs.LoadPuzzle(snapshot.Puzzle.ID); err == nil {
		resp.Image = puzzle.Image
		resp.Pattern = puzzle.Pattern
	}
	return resp, nil
}

// SubmitScore records the finished game on the leaderboard
func (s *gameServiceImpl) SubmitScore(ctx context.Context, sessionID, name string) (*ScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scores == nil {
		return nil, ErrLeaderboardUnavailable
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	entry, err := sess.Controller.SubmitScore(ctx, s.scores, name)
	if err != nil {
		return nil, err
	}
	log.Printf("[SCORE] session=%s name=%q time=%s moves=%d",
		sess.ID, entry.Name, engine.FormatElapsed(entry.ElapsedSeconds), entry.MoveCount)

	s.autoSave(sessionID, "score")

	entries, err := s.scores.LoadScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	result := &ScoreResult{Entry: entry, Leaderboard: entries}
	for i, e := range entries {
		if e.ID == entry.ID {
			result.Rank = i + 1
			break
		}
	}
	return result, nil
}

// GetLeaderboard returns the top scores, fastest first
func (s *gameServiceImpl) GetLeaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	if s.scores == nil {
		return nil, ErrLeaderboardUnavailable
	}
	return s.scores.LoadScores(ctx)
}

// ClearLeaderboard erases every score
func (s *gameServiceImpl) ClearLeaderboard(ctx context.Context) error {
	if s.scores == nil {
		return ErrLeaderboardUnavailable
	}
	if err := s.scores.ClearScores(ctx); err != nil {
		return err
	}
	log.Printf("[LEADERBOARD] cleared")
	return nil
}

// ListPuzzles returns all available puzzles
func (s *gameServiceImpl) ListPuzzles(ctx context.Context) ([]*PuzzleInfo, error) {
	return s.configs.ListPuzzles()
}

// LoadPuzzle loads a specific puzzle
func (s *gameServiceImpl) LoadPuzzle(ctx context.Context, puzzleID string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadPuzzle(puzzleID)
}

// SavePuzzle adds or replaces a catalogue entry
func (s *gameServiceImpl) SavePuzzle(ctx context.Context, puzzle *engine.PuzzleConfig) error {
	if puzzle == nil {
		return fmt.Errorf("%w: puzzle is required", engine.ErrInvalidConfiguration)
	}
	if err := s.configs.SavePuzzle(puzzle.ID, puzzle); err != nil {
		return err
	}
	log.Printf("[PUZZLE] saved id=%s name=%q", puzzle.ID, puzzle.Name)
	return nil
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	snapshot := sess.Controller.CurrentSnapshot()
	info := &SessionInfo{
		ID:        sess.ID,
		PuzzleID:  snapshot.Puzzle.ID,
		CreatedAt: sess.CreatedAt,
		Snapshot:  &snapshot,
	}
	// concurrent requests touch LastAccessedAt; read it through the manager
	if created, accessed, err := s.sessions.AccessTimes(sess.ID); err == nil {
		info.CreatedAt, info.LastAccessedAt = created, accessed
	}
	if puzzle, err := s.configs.LoadPuzzle(snapshot.Puzzle.ID); err == nil {
		info.Puzzle = puzzle
	}
	return info
}

// autoSave persists the session after a mutation; failures are logged only
func (s *gameServiceImpl) autoSave(sessionID, action string) {
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after %s: %v\n", sessionID, action, err)
	}
}
