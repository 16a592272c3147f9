package controller

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
)

// Controller drives one puzzle session through Idle, Shuffling, Playing and Won.
// All methods are safe for concurrent use; the timer goroutine is the only
// caller besides the owner.
type Controller struct {
	mu sync.Mutex

	puzzle   PuzzleRef
	settings Settings
	engine   *engine.PuzzleEngine
	state    State

	elapsed       int
	moves         int
	started       bool
	finished      bool
	scoreRecorded bool
	finishedAt    time.Time

	shuffleIterations int
	rng               *rand.Rand
	newTicker         TickerFunc
	now               func() time.Time

	// timer handle, held only while Playing
	timerCancel context.CancelFunc
	timerGen    uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithTicker replaces the one-second ticker, mainly for tests
func WithTicker(fn TickerFunc) Option {
	return func(c *Controller) { c.newTicker = fn }
}

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithShuffleIterations overrides the number of random moves per shuffle
func WithShuffleIterations(n int) Option {
	return func(c *Controller) { c.shuffleIterations = n }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates an Idle session showing the solved puzzle
func NewController(puzzle PuzzleRef, settings Settings, opts ...Option) (*Controller, error) {
	if settings.GridSize == 0 {
		settings.GridSize = engine.DefaultGridSize
	}

	c := &Controller{
		puzzle:            puzzle,
		settings:          settings,
		state:             StateIdle,
		shuffleIterations: engine.DefaultShuffleIterations,
		newTicker:         defaultTicker,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	eng, err := engine.NewEngine(settings.GridSize, engine.WithRand(c.rng))
	if err != nil {
		return nil, err
	}
	c.engine = eng
	return c, nil
}

// StartGame shuffles and starts play from any state. A running timer is
// released and counters start from zero.
func (c *Controller) StartGame() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transition(StateShuffling)
	c.resetCounters()
	c.engine.Shuffle(c.shuffleIterations)
	c.started = true
	c.transition(StatePlaying)

	return c.snapshot()
}

// MoveRequested slides the tile at index into the empty slot. Requests outside
// Playing and illegal moves are ignored.
func (c *Controller) MoveRequested(index int) MoveOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.move(index)
}

// KeyPressed moves the tile opposite the key direction into the empty slot
func (c *Controller) KeyPressed(direction engine.Direction) MoveOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return MoveOutcome{Index: -1, Snapshot: c.snapshot()}
	}
	index, ok := c.engine.TargetFor(direction)
	if !ok {
		return MoveOutcome{Index: -1, Snapshot: c.snapshot()}
	}
	return c.move(index)
}

func (c *Controller) move(index int) MoveOutcome {
	outcome := MoveOutcome{Index: index}
	if c.state != StatePlaying || c.finished {
		outcome.Snapshot = c.snapshot()
		return outcome
	}

	if _, applied := c.engine.ApplyMove(index); applied {
		outcome.Applied = true
		c.moves++
		if c.engine.CheckWin() {
			c.finished = true
			c.finishedAt = c.now()
			c.transition(StateWon)
			outcome.Won = true
		}
	}

	outcome.Snapshot = c.snapshot()
	return outcome
}

// ChangeGridSize rebuilds the board at the new size and returns to Idle
func (c *Controller) ChangeGridSize(size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	eng, err := engine.NewEngine(size, engine.WithRand(c.rng))
	if err != nil {
		return err
	}

	c.transition(StateIdle)
	c.engine = eng
	c.settings.GridSize = size
	c.resetCounters()
	c.started = false
	return nil
}

// SelectPuzzleImage switches the picture, resets the board and returns to Idle
func (c *Controller) SelectPuzzleImage(puzzle PuzzleRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transition(StateIdle)
	c.puzzle = puzzle
	c.engine.Reset()
	c.resetCounters()
	c.started = false
}

// SetShowNumbers toggles tile number labels
func (c *Controller) SetShowNumbers(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings.ShowNumbers = show
}

// Tick advances the clock by one second while Playing
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePlaying {
		c.elapsed++
	}
}

// CurrentSnapshot returns a copy of the session for rendering
func (c *Controller) CurrentSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// State returns the current lifecycle phase
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Puzzle returns the selected puzzle
func (c *Controller) Puzzle() PuzzleRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.puzzle
}

// Settings returns the display and board options
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.settings
}

// Grid returns the current board dimensions
func (c *Controller) Grid() engine.Grid {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.engine.Grid()
}

// Summary returns the result of a won game
func (c *Controller) Summary() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateWon {
		return Summary{}, false
	}
	return c.summary(), true
}

// SubmitScore records the finished game under name. The state stays Won
// whether or not the submission succeeds.
func (c *Controller) SubmitScore(ctx context.Context, recorder ScoreRecorder, name string) (leaderboard.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateWon {
		return leaderboard.Entry{}, ErrNotWon
	}
	if c.scoreRecorded {
		return leaderboard.Entry{}, ErrScoreAlreadyRecorded
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return leaderboard.Entry{}, ErrNameRequired
	}
	if recorder == nil {
		return leaderboard.Entry{}, ErrNoRecorder
	}

	summary := c.summary()
	entry, err := leaderboard.Prepare(leaderboard.Entry{
		Name:           name,
		ElapsedSeconds: summary.ElapsedSeconds,
		MoveCount:      summary.MoveCount,
		Image:          summary.Puzzle.Name,
		PuzzleID:       summary.Puzzle.ID,
		GridSize:       summary.GridSize,
		RecordedAt:     c.now(),
	}, c.now())
	if err != nil {
		return leaderboard.Entry{}, err
	}

	if err := recorder.RecordScore(ctx, entry); err != nil {
		return leaderboard.Entry{}, fmt.Errorf("failed to record score: %w", err)
	}
	c.scoreRecorded = true
	return entry, nil
}

// Close releases the timer. The controller stays readable.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimer()
}

// transition is the only place the state changes. Leaving Playing releases
// the timer and entering Playing acquires a fresh one.
func (c *Controller) transition(next State) {
	if c.state == StatePlaying && next != StatePlaying {
		c.stopTimer()
	}
	c.state = next
	if next == StatePlaying {
		c.startTimer()
	}
}

func (c *Controller) resetCounters() {
	c.elapsed = 0
	c.moves = 0
	c.finished = false
	c.scoreRecorded = false
	c.finishedAt = time.Time{}
}

func (c *Controller) summary() Summary {
	return Summary{
		Puzzle:         c.puzzle,
		GridSize:       c.settings.GridSize,
		ElapsedSeconds: c.elapsed,
		MoveCount:      c.moves,
		FinishedAt:     c.finishedAt,
	}
}

func (c *Controller) snapshot() Snapshot {
	valid := []int{}
	if c.state == StatePlaying {
		valid = c.engine.ValidMoves()
	}
	return Snapshot{
		State:          c.state,
		Puzzle:         c.puzzle,
		GridSize:       c.settings.GridSize,
		Arrangement:    c.engine.Arrangement(),
		EmptyPosition:  c.engine.EmptyPosition(),
		ValidMoves:     valid,
		ElapsedSeconds: c.elapsed,
		ElapsedDisplay: engine.FormatElapsed(c.elapsed),
		MoveCount:      c.moves,
		Started:        c.started,
		Finished:       c.finished,
		ShowNumbers:    c.settings.ShowNumbers,
		ScoreRecorded:  c.scoreRecorded,
	}
}
