package engine

import "fmt"

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	return abs(from.Row-to.Row) + abs(from.Col-to.Col)
}

// MisplacedTiles counts non-empty tiles that are not at their solved index
func MisplacedTiles(a Arrangement, g Grid) int {
	count := 0
	for i, v := range a {
		if v != g.EmptyValue() && v != i {
			count++
		}
	}
	return count
}

// TotalManhattanDistance sums the distance of every non-empty tile from its solved position
func TotalManhattanDistance(a Arrangement, g Grid) int {
	total := 0
	for i, v := range a {
		if v == g.EmptyValue() {
			continue
		}
		total += ManhattanDistance(g.PositionOf(i), g.PositionOf(v))
	}
	return total
}

// FormatElapsed renders seconds as a zero-padded mm:ss string
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
