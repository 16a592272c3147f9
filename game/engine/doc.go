// Package engine provides the core puzzle logic for the Sliding Puzzle server.
//
// The engine package implements the puzzle mechanics including:
//   - Square grids of size 3 or 4 with one empty slot
//   - Legal move detection and tile transposition
//   - Random shuffling by legal moves, which keeps every board solvable
//   - Arrow-key targeting relative to the empty slot
//   - Tile to image region mapping for renderers
//
// Core Types:
//
// The Engine interface defines the main contract for puzzle operations,
// implemented by PuzzleEngine. Arrangement is the board itself: index i holds
// the value of the tile shown there, and the value Grid.EmptyValue() marks the
// empty slot. PuzzleConfig describes a selectable puzzle image loaded from JSON.
//
// Usage:
//
//	puzzle, err := engine.NewEngine(4)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle.Shuffle(engine.DefaultShuffleIterations)
//	for _, index := range puzzle.ValidMoves() {
//		fmt.Println("can slide", index)
//	}
//
//	if _, moved := puzzle.ApplyMove(11); moved && puzzle.CheckWin() {
//		fmt.Println("solved")
//	}
//
// Rules:
//
// A tile may move only when it is orthogonally adjacent to the empty slot.
// Moving it swaps it with the slot. The puzzle is solved when every index
// holds its own value.
package engine
