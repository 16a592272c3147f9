package engine

import (
	"errors"
	"fmt"
)

// Direction represents an arrow-key style input
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	MinGridSize     = 3
	MaxGridSize     = 4
	DefaultGridSize = 4

	// DefaultShuffleIterations is the number of random legal moves applied by Shuffle
	// when no explicit count is requested.
	DefaultShuffleIterations = 1000

	DefaultCanvasSize   = 400
	WebSocketBufferSize = 256
)

var (
	// ErrInvalidConfiguration is returned when a grid size or arrangement is not playable
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidDirection     = errors.New("invalid direction")
)

// Directions lists every direction in the canonical up, down, left, right order
var Directions = []Direction{Up, Down, Left, Right}

// Position represents row,col coordinates on the grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid describes a square puzzle board
type Grid struct {
	Size int `json:"size"`
}

// NewGrid validates the size and returns the grid
func NewGrid(size int) (Grid, error) {
	if err := ValidateGridSize(size); err != nil {
		return Grid{}, err
	}
	return Grid{Size: size}, nil
}

// ValidateGridSize checks that size is one of the supported board sizes
func ValidateGridSize(size int) error {
	if size < MinGridSize || size > MaxGridSize {
		return fmt.Errorf("%w: grid size must be between %d and %d, got %d",
			ErrInvalidConfiguration, MinGridSize, MaxGridSize, size)
	}
	return nil
}

// TotalTiles returns the number of slots on the board, including the empty one
func (g Grid) TotalTiles() int {
	return g.Size * g.Size
}

// EmptyValue returns the tile value that represents the empty slot
func (g Grid) EmptyValue() int {
	return g.TotalTiles() - 1
}

// InBounds reports whether p lies on the board
func (g Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.Size && p.Col >= 0 && p.Col < g.Size
}

// IndexOf converts a position to a linear index
func (g Grid) IndexOf(p Position) int {
	return p.Row*g.Size + p.Col
}

// PositionOf converts a linear index to a position
func (g Grid) PositionOf(index int) Position {
	return Position{Row: index / g.Size, Col: index % g.Size}
}

// Solved returns the solved arrangement for the grid
func (g Grid) Solved() Arrangement {
	a := make(Arrangement, g.TotalTiles())
	for i := range a {
		a[i] = i
	}
	return a
}

// Arrangement maps each position index to the tile value it holds
type Arrangement []int

// Clone returns an independent copy
func (a Arrangement) Clone() Arrangement {
	if a == nil {
		return nil
	}
	out := make(Arrangement, len(a))
	copy(out, a)
	return out
}

// Equal reports whether both arrangements hold the same values in the same order
func (a Arrangement) Equal(other Arrangement) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i] != other[i] {
			return false
		}
	}
	return true
}

// IsSolved reports whether every position holds its own index
func (a Arrangement) IsSolved() bool {
	for i, v := range a {
		if v != i {
			return false
		}
	}
	return true
}

// IndexOfValue returns the position index holding value, or -1
func (a Arrangement) IndexOfValue(value int) int {
	for i, v := range a {
		if v == value {
			return i
		}
	}
	return -1
}

// Validate checks that a is a permutation of 0..TotalTiles-1 for the grid
func (a Arrangement) Validate(g Grid) error {
	if len(a) != g.TotalTiles() {
		return fmt.Errorf("%w: arrangement must have %d tiles, got %d",
			ErrInvalidConfiguration, g.TotalTiles(), len(a))
	}
	seen := make([]bool, len(a))
	for i, v := range a {
		if v < 0 || v >= len(a) {
			return fmt.Errorf("%w: tile value %d at index %d out of range", ErrInvalidConfiguration, v, i)
		}
		if seen[v] {
			return fmt.Errorf("%w: tile value %d appears more than once", ErrInvalidConfiguration, v)
		}
		seen[v] = true
	}
	return nil
}
