package controller

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
)

// fakeTicker hands out manually driven tick channels and counts acquire/release
type fakeTicker struct {
	mu       sync.Mutex
	channels []chan time.Time
	starts   int32
	stops    int32
}

func (f *fakeTicker) factory(interval time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	f.mu.Lock()
	f.channels = append(f.channels, ch)
	f.mu.Unlock()
	atomic.AddInt32(&f.starts, 1)

	var once sync.Once
	return ch, func() {
		once.Do(func() { atomic.AddInt32(&f.stops, 1) })
	}
}

func (f *fakeTicker) fire(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	ch := f.channels[len(f.channels)-1]
	f.mu.Unlock()

	select {
	case ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick was not received")
	}
}

func (f *fakeTicker) Starts() int { return int(atomic.LoadInt32(&f.starts)) }
func (f *fakeTicker) Stops() int  { return int(atomic.LoadInt32(&f.stops)) }

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordScore(ctx context.Context, entry leaderboard.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

var testPuzzle = PuzzleRef{ID: "ocean-waves", Name: "Ocean Waves"}

func newTestController(t *testing.T, size int, opts ...Option) (*Controller, *fakeTicker) {
	t.Helper()
	ticker := &fakeTicker{}
	base := []Option{
		WithTicker(ticker.factory),
		WithRand(rand.New(rand.NewSource(1))),
		WithShuffleIterations(1),
	}
	c, err := NewController(testPuzzle, Settings{GridSize: size, ShowNumbers: true}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c, ticker
}

// winningIndex returns the move that undoes a single-step shuffle
func winningIndex(s Snapshot) int {
	return s.GridSize*s.GridSize - 1
}

func TestNewController(t *testing.T) {
	c, ticker := newTestController(t, 3)
	s := c.CurrentSnapshot()

	if s.State != StateIdle {
		t.Errorf("Expected idle, got %s", s.State)
	}
	if !s.Arrangement.IsSolved() {
		t.Error("Expected solved arrangement before start")
	}
	if s.Started || s.Finished || s.MoveCount != 0 || s.ElapsedSeconds != 0 {
		t.Errorf("Expected fresh counters, got %+v", s)
	}
	if len(s.ValidMoves) != 0 {
		t.Errorf("Expected no valid moves while idle, got %v", s.ValidMoves)
	}
	if ticker.Starts() != 0 || c.TimerRunning() {
		t.Error("Expected no timer before the game starts")
	}

	defaulted, err := NewController(testPuzzle, Settings{})
	if err != nil {
		t.Fatalf("Expected default grid size, got %v", err)
	}
	if defaulted.Grid().Size != engine.DefaultGridSize {
		t.Errorf("Expected default grid size %d, got %d", engine.DefaultGridSize, defaulted.Grid().Size)
	}

	if _, err := NewController(testPuzzle, Settings{GridSize: 7}); !errors.Is(err, engine.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestStartGame(t *testing.T) {
	c, ticker := newTestController(t, 4)

	s := c.StartGame()
	if s.State != StatePlaying {
		t.Fatalf("Expected playing, got %s", s.State)
	}
	if !s.Started || s.Finished {
		t.Errorf("Expected started and not finished, got %+v", s)
	}
	if s.Arrangement.IsSolved() {
		t.Error("Expected a one-step shuffle to leave the board unsolved")
	}
	if err := s.Arrangement.Validate(engine.Grid{Size: 4}); err != nil {
		t.Errorf("Expected permutation, got %v", err)
	}
	if len(s.ValidMoves) == 0 {
		t.Error("Expected valid moves while playing")
	}
	if ticker.Starts() != 1 || !c.TimerRunning() {
		t.Errorf("Expected one running timer, got %d starts", ticker.Starts())
	}
}

func TestStartGameFullShuffleResetsCounters(t *testing.T) {
	c, _ := newTestController(t, 4, WithShuffleIterations(engine.DefaultShuffleIterations))

	first := c.StartGame()
	if first.MoveCount != 0 || first.ElapsedSeconds != 0 {
		t.Errorf("Expected zero counters after a full shuffle, got moves=%d elapsed=%d", first.MoveCount, first.ElapsedSeconds)
	}

	if out := c.MoveRequested(first.ValidMoves[0]); !out.Applied || out.Snapshot.MoveCount != 1 {
		t.Fatalf("Expected one applied move, got %+v", out)
	}

	again := c.StartGame()
	if again.MoveCount != 0 {
		t.Errorf("Expected restart to reset moves to 0, got %d", again.MoveCount)
	}
	if again.Arrangement.IsSolved() {
		t.Error("Expected a 1000-step shuffle to leave the board unsolved")
	}
}

func TestMoveIgnoredBeforeStart(t *testing.T) {
	c, _ := newTestController(t, 3)

	out := c.MoveRequested(5)
	if out.Applied {
		t.Error("Expected move while idle to be ignored")
	}
	if !c.CurrentSnapshot().Arrangement.IsSolved() || c.CurrentSnapshot().MoveCount != 0 {
		t.Error("Expected board and counters untouched")
	}
}

func TestIllegalMoveIsNoop(t *testing.T) {
	c, _ := newTestController(t, 3)
	before := c.StartGame()

	out := c.MoveRequested(0)
	if out.Applied || out.Won {
		t.Errorf("Expected rejected move, got %+v", out)
	}
	if out.Snapshot.MoveCount != 0 {
		t.Errorf("Expected move count 0, got %d", out.Snapshot.MoveCount)
	}
	if !out.Snapshot.Arrangement.Equal(before.Arrangement) {
		t.Error("Expected arrangement unchanged")
	}
	if out.Snapshot.State != StatePlaying {
		t.Errorf("Expected still playing, got %s", out.Snapshot.State)
	}
}

func TestWinningMove(t *testing.T) {
	c, ticker := newTestController(t, 3)
	start := c.StartGame()

	out := c.MoveRequested(winningIndex(start))
	if !out.Applied || !out.Won {
		t.Fatalf("Expected winning move, got %+v", out)
	}
	s := out.Snapshot
	if s.State != StateWon || !s.Finished || s.MoveCount != 1 {
		t.Errorf("Unexpected snapshot after win: %+v", s)
	}
	if c.TimerRunning() {
		t.Error("Expected timer released after win")
	}
	eventually(t, func() bool { return ticker.Stops() == ticker.Starts() }, "timer goroutine did not stop")

	summary, ok := c.Summary()
	if !ok || summary.MoveCount != 1 || summary.Puzzle != testPuzzle || summary.GridSize != 3 {
		t.Errorf("Unexpected summary %+v (ok=%v)", summary, ok)
	}
	if summary.FinishedAt.IsZero() {
		t.Error("Expected finish time")
	}

	// further moves are ignored once won
	for _, index := range []int{5, 7} {
		if c.MoveRequested(index).Applied {
			t.Errorf("Expected move %d after win to be ignored", index)
		}
	}
	if c.CurrentSnapshot().MoveCount != 1 {
		t.Error("Expected move count to stay 1")
	}
}

func TestKeyPressed(t *testing.T) {
	c, _ := newTestController(t, 3)
	start := c.StartGame()

	// the empty slot is directly above or left of the bottom-right corner
	direction := engine.Up
	if start.EmptyPosition == (engine.Position{Row: 2, Col: 1}) {
		direction = engine.Left
	}

	out := c.KeyPressed(direction)
	if !out.Applied || !out.Won {
		t.Fatalf("Expected %s to solve the board, got %+v", direction, out)
	}
	if out.Index != 8 {
		t.Errorf("Expected target index 8, got %d", out.Index)
	}

	if c.KeyPressed(engine.Down).Applied {
		t.Error("Expected key press after win to be ignored")
	}
}

func TestKeyPressedOutOfBounds(t *testing.T) {
	c, _ := newTestController(t, 3, WithShuffleIterations(2))
	c.StartGame()

	// two random steps can return to solved; force a known board instead
	c.mu.Lock()
	c.engine.Reset()
	c.mu.Unlock()

	if out := c.KeyPressed(engine.Up); out.Applied {
		t.Error("Expected up with empty on bottom row to be ignored")
	}
	if out := c.KeyPressed(engine.Left); out.Applied {
		t.Error("Expected left with empty on right column to be ignored")
	}
	if c.CurrentSnapshot().MoveCount != 0 {
		t.Error("Expected no moves counted")
	}
}

func TestTimerTicks(t *testing.T) {
	c, ticker := newTestController(t, 3)
	c.StartGame()

	ticker.fire(t)
	ticker.fire(t)
	eventually(t, func() bool { return c.CurrentSnapshot().ElapsedSeconds == 2 }, "expected two seconds elapsed")

	if got := c.CurrentSnapshot().ElapsedDisplay; got != "00:02" {
		t.Errorf("Expected 00:02, got %s", got)
	}
}

func TestTickOnlyCountsWhilePlaying(t *testing.T) {
	c, _ := newTestController(t, 3)

	c.Tick()
	if c.CurrentSnapshot().ElapsedSeconds != 0 {
		t.Error("Expected idle tick to be ignored")
	}

	start := c.StartGame()
	c.Tick()
	c.MoveRequested(winningIndex(start))
	c.Tick()

	if got := c.CurrentSnapshot().ElapsedSeconds; got != 1 {
		t.Errorf("Expected 1 second counted, got %d", got)
	}
}

func TestStaleTickIgnored(t *testing.T) {
	c, _ := newTestController(t, 3)
	c.StartGame()

	c.mu.Lock()
	stale := c.timerGen
	c.mu.Unlock()

	c.StartGame()
	c.tick(stale)
	if c.CurrentSnapshot().ElapsedSeconds != 0 {
		t.Error("Expected tick from a released timer to be dropped")
	}

	c.mu.Lock()
	current := c.timerGen
	c.mu.Unlock()
	c.Close()
	c.tick(current)
	if c.CurrentSnapshot().ElapsedSeconds != 0 {
		t.Error("Expected tick after close to be dropped")
	}
}

func TestTimerReleasedOnEveryExit(t *testing.T) {
	tests := []struct {
		name string
		exit func(c *Controller, start Snapshot)
	}{
		{"restart", func(c *Controller, _ Snapshot) { c.StartGame(); c.Close() }},
		{"win", func(c *Controller, s Snapshot) { c.MoveRequested(winningIndex(s)) }},
		{"grid size change", func(c *Controller, _ Snapshot) { c.ChangeGridSize(4) }},
		{"puzzle change", func(c *Controller, _ Snapshot) {
			c.SelectPuzzleImage(PuzzleRef{ID: "city", Name: "City Lights"})
		}},
		{"close", func(c *Controller, _ Snapshot) { c.Close() }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, ticker := newTestController(t, 3)
			start := c.StartGame()

			test.exit(c, start)

			if c.TimerRunning() {
				t.Error("Expected no timer handle after exit")
			}
			eventually(t, func() bool { return ticker.Stops() == ticker.Starts() },
				"expected every acquired timer to be released")

			c.Close()
			time.Sleep(10 * time.Millisecond)
			if ticker.Stops() != ticker.Starts() {
				t.Errorf("Expected releases to match acquisitions, got %d/%d", ticker.Stops(), ticker.Starts())
			}
		})
	}
}

func TestChangeGridSize(t *testing.T) {
	c, _ := newTestController(t, 3)
	c.StartGame()

	if err := c.ChangeGridSize(2); !errors.Is(err, engine.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
	if c.State() != StatePlaying {
		t.Error("Expected failed grid change to leave the game running")
	}

	if err := c.ChangeGridSize(4); err != nil {
		t.Fatalf("ChangeGridSize failed: %v", err)
	}
	s := c.CurrentSnapshot()
	if s.State != StateIdle || s.GridSize != 4 || len(s.Arrangement) != 16 || !s.Arrangement.IsSolved() {
		t.Errorf("Unexpected snapshot after grid change: %+v", s)
	}
	if s.Started || s.MoveCount != 0 {
		t.Error("Expected counters reset")
	}
	if c.Settings().GridSize != 4 {
		t.Error("Expected settings to follow the grid size")
	}
}

func TestSelectPuzzleImage(t *testing.T) {
	c, _ := newTestController(t, 3)
	start := c.StartGame()
	c.MoveRequested(winningIndex(start))

	next := PuzzleRef{ID: "forest-path", Name: "Forest Path"}
	c.SelectPuzzleImage(next)

	s := c.CurrentSnapshot()
	if s.State != StateIdle || s.Puzzle != next || s.Finished || s.MoveCount != 0 {
		t.Errorf("Unexpected snapshot after selecting puzzle: %+v", s)
	}
	if c.Puzzle() != next {
		t.Error("Expected puzzle accessor to follow selection")
	}
}

func TestSetShowNumbers(t *testing.T) {
	c, _ := newTestController(t, 3)
	c.SetShowNumbers(false)
	if c.CurrentSnapshot().ShowNumbers {
		t.Error("Expected numbers hidden")
	}
}

func TestSubmitScore(t *testing.T) {
	now := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	rec := &mockRecorder{}
	c, _ := newTestController(t, 3, WithClock(func() time.Time { return now }))

	if _, err := c.SubmitScore(context.Background(), rec, "Mina"); !errors.Is(err, ErrNotWon) {
		t.Errorf("Expected ErrNotWon before playing, got %v", err)
	}

	start := c.StartGame()
	c.Tick()
	c.MoveRequested(winningIndex(start))

	if _, err := c.SubmitScore(context.Background(), rec, "   "); !errors.Is(err, ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
	if c.State() != StateWon {
		t.Error("Expected state to remain won after validation error")
	}

	rec.On("RecordScore", mock.Anything, mock.MatchedBy(func(e leaderboard.Entry) bool {
		return e.Name == "Mina" && e.ElapsedSeconds == 1 && e.MoveCount == 1 &&
			e.Image == "Ocean Waves" && e.PuzzleID == "ocean-waves" && e.GridSize == 3 &&
			e.RecordedAt.Equal(now) && e.ID != ""
	})).Return(nil).Once()

	entry, err := c.SubmitScore(context.Background(), rec, " Mina ")
	if err != nil {
		t.Fatalf("SubmitScore failed: %v", err)
	}
	if entry.Name != "Mina" {
		t.Errorf("Expected trimmed name, got %q", entry.Name)
	}
	if !c.CurrentSnapshot().ScoreRecorded {
		t.Error("Expected snapshot to show the score as recorded")
	}

	if _, err := c.SubmitScore(context.Background(), rec, "Mina"); !errors.Is(err, ErrScoreAlreadyRecorded) {
		t.Errorf("Expected ErrScoreAlreadyRecorded, got %v", err)
	}

	rec.AssertExpectations(t)
}

func TestSubmitScoreRecorderFailure(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("RecordScore", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	rec.On("RecordScore", mock.Anything, mock.Anything).Return(nil).Once()

	c, _ := newTestController(t, 3)
	start := c.StartGame()
	c.MoveRequested(winningIndex(start))

	if _, err := c.SubmitScore(context.Background(), rec, "Jun"); err == nil {
		t.Fatal("Expected recorder error")
	}
	if c.CurrentSnapshot().ScoreRecorded {
		t.Error("Expected failed submission not to mark the score recorded")
	}
	if _, err := c.SubmitScore(context.Background(), rec, "Jun"); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
	rec.AssertExpectations(t)
}

func TestSubmitScoreWithoutRecorder(t *testing.T) {
	c, _ := newTestController(t, 3)
	start := c.StartGame()
	c.MoveRequested(winningIndex(start))

	if _, err := c.SubmitScore(context.Background(), nil, "Mina"); !errors.Is(err, ErrNoRecorder) {
		t.Errorf("Expected ErrNoRecorder, got %v", err)
	}
}

func TestRestartAfterWinResetsCounters(t *testing.T) {
	c, _ := newTestController(t, 3)
	start := c.StartGame()
	c.Tick()
	c.MoveRequested(winningIndex(start))

	s := c.StartGame()
	if s.State != StatePlaying || s.MoveCount != 0 || s.ElapsedSeconds != 0 || s.Finished || s.ScoreRecorded {
		t.Errorf("Expected fresh game, got %+v", s)
	}
}
