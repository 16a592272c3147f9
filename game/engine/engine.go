package engine

import (
	"math/rand"
	"time"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Board state
	Grid() Grid
	Arrangement() Arrangement
	EmptyPosition() Position
	EmptyIndex() int
	Reset() Arrangement
	Restore(arrangement Arrangement) error

	// Movement operations
	IsLegalMove(index int) bool
	ApplyMove(index int) (Arrangement, bool)
	ValidMoves() []int
	TargetFor(direction Direction) (int, bool)

	// Shuffling and completion
	Shuffle(iterations int) Arrangement
	CheckWin() bool
}

// PuzzleEngine implements the Engine interface.
//
// tiles is the single source of truth; empty caches the index holding
// grid.EmptyValue() and is only ever changed by applyTransposition or by
// recomputing it from tiles.
type PuzzleEngine struct {
	grid  Grid
	tiles Arrangement
	empty int
	rng   *rand.Rand
}

// Option configures a PuzzleEngine
type Option func(*PuzzleEngine)

// WithRand sets the random source used by Shuffle
func WithRand(rng *rand.Rand) Option {
	return func(e *PuzzleEngine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// NewEngine creates a solved puzzle of the given size
func NewEngine(size int, opts ...Option) (*PuzzleEngine, error) {
	grid, err := NewGrid(size)
	if err != nil {
		return nil, err
	}

	e := &PuzzleEngine{grid: grid}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.Reset()
	return e, nil
}

// Grid returns the board dimensions
func (e *PuzzleEngine) Grid() Grid {
	return e.grid
}

// Arrangement returns a copy of the current arrangement
func (e *PuzzleEngine) Arrangement() Arrangement {
	return e.tiles.Clone()
}

// EmptyIndex returns the index of the empty slot
func (e *PuzzleEngine) EmptyIndex() int {
	return e.empty
}

// EmptyPosition returns the position of the empty slot
func (e *PuzzleEngine) EmptyPosition() Position {
	return e.grid.PositionOf(e.empty)
}

// Reset puts the board back into the solved arrangement
func (e *PuzzleEngine) Reset() Arrangement {
	e.tiles = e.grid.Solved()
	e.empty = e.grid.EmptyValue()
	return e.Arrangement()
}

// Restore replaces the arrangement (used for persistence loading)
func (e *PuzzleEngine) Restore(arrangement Arrangement) error {
	if err := arrangement.Validate(e.grid); err != nil {
		return err
	}
	e.tiles = arrangement.Clone()
	e.empty = e.tiles.IndexOfValue(e.grid.EmptyValue())
	return nil
}

// Shuffle applies random legal moves starting from the current arrangement.
// A non-positive count uses DefaultShuffleIterations. The result may be solved.
func (e *PuzzleEngine) Shuffle(iterations int) Arrangement {
	if iterations <= 0 {
		iterations = DefaultShuffleIterations
	}

	for i := 0; i < iterations; i++ {
		moves := e.ValidMoves()
		if len(moves) == 0 {
			break
		}
		e.applyTransposition(moves[e.rng.Intn(len(moves))])
	}

	return e.Arrangement()
}

// CheckWin reports whether the arrangement is solved
func (e *PuzzleEngine) CheckWin() bool {
	return e.tiles.IsSolved()
}
