package main

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

var (
	ErrUnsolvable  = errors.New("arrangement is not solvable")
	ErrSearchLimit = errors.New("search node limit reached")
)

const defaultMaxNodes = 2_000_000

// Solver plans the tile presses that take an arrangement to the solved board.
// It runs weighted A* on the summed Manhattan distance. A weight of 1 gives
// shortest solutions; larger weights trade length for speed on 4x4 boards.
type Solver struct {
	grid     engine.Grid
	weight   int
	maxNodes int
	expanded int
}

type SolverOption func(*Solver)

// WithWeight sets the heuristic weight; values below 1 pick one from the grid size
func WithWeight(w int) SolverOption {
	return func(s *Solver) {
		if w >= 1 {
			s.weight = w
		}
	}
}

// WithMaxNodes caps how many states a single search may expand
func WithMaxNodes(n int) SolverOption {
	return func(s *Solver) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

func NewSolver(size int, opts ...SolverOption) (*Solver, error) {
	grid, err := engine.NewGrid(size)
	if err != nil {
		return nil, err
	}

	s := &Solver{grid: grid, weight: 1, maxNodes: defaultMaxNodes}
	if size > engine.MinGridSize {
		s.weight = 4
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Expanded returns the number of states the last search expanded
func (s *Solver) Expanded() int {
	return s.expanded
}

type searchNode struct {
	tiles  []byte
	empty  int
	g      int
	h      int
	press  int // position pressed to reach this node, -1 at the root
	parent *searchNode
	index  int
}

type openQueue struct {
	nodes  []*searchNode
	weight int
}

func (q *openQueue) f(n *searchNode) int { return n.g + q.weight*n.h }

func (q *openQueue) Len() int { return len(q.nodes) }

func (q *openQueue) Less(i, j int) bool {
	a, b := q.nodes[i], q.nodes[j]
	if fa, fb := q.f(a), q.f(b); fa != fb {
		return fa < fb
	}
	return a.h < b.h
}

func (q *openQueue) Swap(i, j int) {
	q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i]
	q.nodes[i].index = i
	q.nodes[j].index = j
}

func (q *openQueue) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(q.nodes)
	q.nodes = append(q.nodes, n)
}

func (q *openQueue) Pop() interface{} {
	old := q.nodes
	n := old[len(old)-1]
	old[len(old)-1] = nil
	q.nodes = old[:len(old)-1]
	return n
}

// Solve returns the position indexes to press, in order. A solved
// arrangement yields an empty plan.
func (s *Solver) Solve(start engine.Arrangement) ([]int, error) {
	s.expanded = 0
	if err := start.Validate(s.grid); err != nil {
		return nil, err
	}
	if !IsSolvable(start, s.grid) {
		return nil, ErrUnsolvable
	}
	if start.IsSolved() {
		return []int{}, nil
	}

	root := &searchNode{
		tiles: make([]byte, len(start)),
		empty: start.IndexOfValue(s.grid.EmptyValue()),
		h:     engine.TotalManhattanDistance(start, s.grid),
		press: -1,
	}
	for i, v := range start {
		root.tiles[i] = byte(v)
	}

	open := &openQueue{weight: s.weight}
	heap.Push(open, root)
	best := map[string]int{string(root.tiles): 0}

	for open.Len() > 0 {
		n := heap.Pop(open).(*searchNode)
		if g, ok := best[string(n.tiles)]; ok && g < n.g {
			continue
		}
		if n.h == 0 {
			return plan(n), nil
		}

		s.expanded++
		if s.expanded > s.maxNodes {
			return nil, fmt.Errorf("%w: %d states expanded", ErrSearchLimit, s.maxNodes)
		}

		for _, t := range s.neighbors(n.empty) {
			if n.parent != nil && t == n.parent.empty {
				continue
			}
			child := s.slide(n, t)
			key := string(child.tiles)
			if g, ok := best[key]; ok && g <= child.g {
				continue
			}
			best[key] = child.g
			heap.Push(open, child)
		}
	}
	return nil, ErrUnsolvable
}

// slide moves the tile at t into the empty slot of n
func (s *Solver) slide(n *searchNode, t int) *searchNode {
	tiles := make([]byte, len(n.tiles))
	copy(tiles, n.tiles)

	v := int(tiles[t])
	goal := s.grid.PositionOf(v)
	h := n.h - engine.ManhattanDistance(s.grid.PositionOf(t), goal) +
		engine.ManhattanDistance(s.grid.PositionOf(n.empty), goal)
	tiles[n.empty], tiles[t] = tiles[t], tiles[n.empty]

	return &searchNode{tiles: tiles, empty: t, g: n.g + 1, h: h, press: t, parent: n}
}

func (s *Solver) neighbors(index int) []int {
	p := s.grid.PositionOf(index)
	out := make([]int, 0, 4)
	for _, q := range []engine.Position{
		{Row: p.Row - 1, Col: p.Col},
		{Row: p.Row + 1, Col: p.Col},
		{Row: p.Row, Col: p.Col - 1},
		{Row: p.Row, Col: p.Col + 1},
	} {
		if s.grid.InBounds(q) {
			out = append(out, s.grid.IndexOf(q))
		}
	}
	return out
}

func plan(n *searchNode) []int {
	var presses []int
	for ; n.parent != nil; n = n.parent {
		presses = append(presses, n.press)
	}
	for i, j := 0, len(presses)-1; i < j; i, j = i+1, j-1 {
		presses[i], presses[j] = presses[j], presses[i]
	}
	return presses
}

// IsSolvable reports whether a can reach the solved board with the empty slot
// in the bottom-right corner. Odd widths need an even inversion count; even
// widths need inversions plus the empty row to match the solved parity.
func IsSolvable(a engine.Arrangement, g engine.Grid) bool {
	empty := g.EmptyValue()
	inversions := 0
	for i := 0; i < len(a); i++ {
		if a[i] == empty {
			continue
		}
		for j := i + 1; j < len(a); j++ {
			if a[j] != empty && a[j] < a[i] {
				inversions++
			}
		}
	}

	if g.Size%2 == 1 {
		return inversions%2 == 0
	}
	row := g.PositionOf(a.IndexOfValue(empty)).Row
	return (inversions+row)%2 == (g.Size-1)%2
}
