package engine

import (
	"errors"
	"math/rand"
	"testing"
)

func newTestEngine(t *testing.T, size int) *PuzzleEngine {
	t.Helper()
	e, err := NewEngine(size, WithRand(rand.New(rand.NewSource(42))))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		size          int
		expectedEmpty Position
		expectedTiles int
	}{
		{3, Position{Row: 2, Col: 2}, 9},
		{4, Position{Row: 3, Col: 3}, 16},
	}

	for _, test := range tests {
		e := newTestEngine(t, test.size)

		if !e.CheckWin() {
			t.Errorf("size %d: expected new engine to be solved", test.size)
		}
		if len(e.Arrangement()) != test.expectedTiles {
			t.Errorf("size %d: expected %d tiles, got %d", test.size, test.expectedTiles, len(e.Arrangement()))
		}
		if e.EmptyPosition() != test.expectedEmpty {
			t.Errorf("size %d: expected empty at %+v, got %+v", test.size, test.expectedEmpty, e.EmptyPosition())
		}
		if e.EmptyIndex() != test.expectedTiles-1 {
			t.Errorf("size %d: expected empty index %d, got %d", test.size, test.expectedTiles-1, e.EmptyIndex())
		}
	}
}

func TestNewEngineInvalidSize(t *testing.T) {
	for _, size := range []int{0, 1, 2, 5, 8, -4} {
		e, err := NewEngine(size)
		if err == nil {
			t.Errorf("size %d: expected error", size)
			continue
		}
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("size %d: expected ErrInvalidConfiguration, got %v", size, err)
		}
		if e != nil {
			t.Errorf("size %d: expected nil engine", size)
		}
	}
}

func TestArrangementIsCopy(t *testing.T) {
	e := newTestEngine(t, 3)

	a := e.Arrangement()
	a[0] = 99

	if e.Arrangement()[0] != 0 {
		t.Error("Expected engine arrangement to be unaffected by caller mutation")
	}
}

func TestShuffle(t *testing.T) {
	for _, size := range []int{3, 4} {
		e := newTestEngine(t, size)
		shuffled := e.Shuffle(DefaultShuffleIterations)

		if err := shuffled.Validate(e.Grid()); err != nil {
			t.Errorf("size %d: shuffled arrangement is not a permutation: %v", size, err)
		}
		if shuffled[e.EmptyIndex()] != e.Grid().EmptyValue() {
			t.Errorf("size %d: cached empty index %d does not hold the empty value", size, e.EmptyIndex())
		}
	}
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	first, _ := NewEngine(4, WithRand(rand.New(rand.NewSource(7))))
	second, _ := NewEngine(4, WithRand(rand.New(rand.NewSource(7))))

	if !first.Shuffle(200).Equal(second.Shuffle(200)) {
		t.Error("Expected equal seeds to produce equal shuffles")
	}
}

func TestShuffleDefaultIterations(t *testing.T) {
	seeded := func() *PuzzleEngine {
		e, _ := NewEngine(4, WithRand(rand.New(rand.NewSource(3))))
		return e
	}

	explicit := seeded().Shuffle(DefaultShuffleIterations)
	for _, n := range []int{0, -1} {
		if got := seeded().Shuffle(n); !got.Equal(explicit) {
			t.Errorf("Shuffle(%d): expected default iteration count to be used", n)
		}
	}
}

func TestShuffleMovesPieces(t *testing.T) {
	e := newTestEngine(t, 4)
	e.Shuffle(DefaultShuffleIterations)

	if MisplacedTiles(e.Arrangement(), e.Grid()) == 0 && e.CheckWin() {
		t.Log("shuffle landed on the solved arrangement; accepted but unlikely")
	}
	if TotalManhattanDistance(e.Arrangement(), e.Grid()) == 0 && !e.CheckWin() {
		t.Error("Expected zero distance only for a solved board")
	}
}

func TestReset(t *testing.T) {
	e := newTestEngine(t, 4)
	e.Shuffle(50)

	solved := e.Reset()
	if !solved.IsSolved() || !e.CheckWin() {
		t.Error("Expected Reset to return the solved arrangement")
	}
	if e.EmptyIndex() != 15 {
		t.Errorf("Expected empty index 15 after reset, got %d", e.EmptyIndex())
	}
}

func TestRestore(t *testing.T) {
	e := newTestEngine(t, 3)

	valid := Arrangement{0, 1, 2, 3, 8, 5, 6, 7, 4}
	if err := e.Restore(valid); err != nil {
		t.Fatalf("Expected valid restore, got %v", err)
	}
	if e.EmptyIndex() != 4 {
		t.Errorf("Expected empty index recomputed to 4, got %d", e.EmptyIndex())
	}
	if e.EmptyPosition() != (Position{Row: 1, Col: 1}) {
		t.Errorf("Expected empty at (1,1), got %+v", e.EmptyPosition())
	}

	valid[0] = 5
	if e.Arrangement()[0] != 0 {
		t.Error("Expected Restore to copy the arrangement")
	}

	invalid := []Arrangement{
		{0, 1, 2},
		{0, 1, 2, 3, 4, 5, 6, 7, 7},
		{0, 1, 2, 3, 4, 5, 6, 7, 9},
		{-1, 1, 2, 3, 4, 5, 6, 7, 8},
	}
	for _, a := range invalid {
		err := e.Restore(a)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Restore(%v): expected ErrInvalidConfiguration, got %v", a, err)
		}
	}
	if e.EmptyIndex() != 4 {
		t.Error("Expected failed restore to leave the board untouched")
	}
}

func TestCheckWin(t *testing.T) {
	e := newTestEngine(t, 3)

	if !e.CheckWin() {
		t.Error("Expected solved board to be a win")
	}

	e.ApplyMove(5)
	if e.CheckWin() {
		t.Error("Expected moved board not to be a win")
	}

	e.ApplyMove(8)
	if !e.CheckWin() {
		t.Error("Expected reversing the move to restore the win")
	}
}

func TestEngineInterface(t *testing.T) {
	var _ Engine = (*PuzzleEngine)(nil)
}
