package engine

import (
	"fmt"
	"strings"
)

// IsLegalMove checks if the tile at index is orthogonally adjacent to the empty slot
func (e *PuzzleEngine) IsLegalMove(index int) bool {
	if index < 0 || index >= e.grid.TotalTiles() {
		return false
	}
	return ManhattanDistance(e.grid.PositionOf(index), e.EmptyPosition()) == 1
}

// ApplyMove slides the tile at index into the empty slot. Illegal requests leave
// the board untouched and return false.
func (e *PuzzleEngine) ApplyMove(index int) (Arrangement, bool) {
	if !e.IsLegalMove(index) {
		return e.Arrangement(), false
	}
	e.applyTransposition(index)
	return e.Arrangement(), true
}

// ValidMoves returns the indices adjacent to the empty slot in up, down, left, right order
func (e *PuzzleEngine) ValidMoves() []int {
	empty := e.EmptyPosition()
	moves := make([]int, 0, 4)
	for _, dir := range Directions {
		p := neighbor(empty, dir)
		if e.grid.InBounds(p) {
			moves = append(moves, e.grid.IndexOf(p))
		}
	}
	return moves
}

// TargetFor returns the index of the tile that a direction key slides into the
// empty slot. The tile comes from the side opposite the key: "up" pulls the tile
// below the empty slot upward.
func (e *PuzzleEngine) TargetFor(direction Direction) (int, bool) {
	opposite, ok := direction.Opposite()
	if !ok {
		return 0, false
	}
	p := neighbor(e.EmptyPosition(), opposite)
	if !e.grid.InBounds(p) {
		return 0, false
	}
	return e.grid.IndexOf(p), true
}

// applyTransposition swaps the tile at index with the empty slot and updates
// the cached empty index. All board mutations go through here.
func (e *PuzzleEngine) applyTransposition(index int) {
	e.tiles[index], e.tiles[e.empty] = e.tiles[e.empty], e.tiles[index]
	e.empty = index
}

// neighbor returns the position one step from p in the given direction
func neighbor(p Position, dir Direction) Position {
	switch dir {
	case Up:
		p.Row--
	case Down:
		p.Row++
	case Left:
		p.Col--
	case Right:
		p.Col++
	}
	return p
}

// Opposite returns the reverse direction
func (d Direction) Opposite() (Direction, bool) {
	switch d {
	case Up:
		return Down, true
	case Down:
		return Up, true
	case Left:
		return Right, true
	case Right:
		return Left, true
	}
	return "", false
}

// ParseDirection accepts direction names, browser arrow key names and WASD
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "arrowup", "w":
		return Up, nil
	case "down", "arrowdown", "s":
		return Down, nil
	case "left", "arrowleft", "a":
		return Left, nil
	case "right", "arrowright", "d":
		return Right, nil
	}
	return "", fmt.Errorf("%w %q: must be one of up, down, left, right", ErrInvalidDirection, s)
}
