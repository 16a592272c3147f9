// Command analyze prints quick, human-readable statistics about how well the
// random-walk shuffle scrambles a board. For each grid size and iteration
// count it reports misplaced tiles, total Manhattan distance, how often the
// empty slot ends at home and how often the shuffle lands on a solved board.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// ShuffleStats summarizes many shuffles of one board size
type ShuffleStats struct {
	GridSize          int
	Iterations        int
	Trials            int
	AvgMisplaced      float64
	AvgManhattan      float64
	MaxManhattan      int
	EmptyHomeFraction float64
	SolvedFraction    float64
}

// analyzeShuffle resets and shuffles a board trials times
func analyzeShuffle(size, iterations, trials int, rng *rand.Rand) (ShuffleStats, error) {
	if iterations <= 0 || trials <= 0 {
		return ShuffleStats{}, fmt.Errorf("iterations and trials must be positive")
	}

	e, err := engine.NewEngine(size, engine.WithRand(rng))
	if err != nil {
		return ShuffleStats{}, err
	}

	stats := ShuffleStats{GridSize: size, Iterations: iterations, Trials: trials}
	grid := e.Grid()
	home := grid.EmptyValue()

	var misplaced, manhattan, emptyHome, solved int
	for i := 0; i < trials; i++ {
		e.Reset()
		a := e.Shuffle(iterations)

		misplaced += engine.MisplacedTiles(a, grid)
		d := engine.TotalManhattanDistance(a, grid)
		manhattan += d
		if d > stats.MaxManhattan {
			stats.MaxManhattan = d
		}
		if e.EmptyIndex() == home {
			emptyHome++
		}
		if e.CheckWin() {
			solved++
		}
	}

	n := float64(trials)
	stats.AvgMisplaced = float64(misplaced) / n
	stats.AvgManhattan = float64(manhattan) / n
	stats.EmptyHomeFraction = float64(emptyHome) / n
	stats.SolvedFraction = float64(solved) / n
	return stats, nil
}

func printReport(w io.Writer, stats ShuffleStats) {
	tiles := stats.GridSize*stats.GridSize - 1
	fmt.Fprintf(w, "\n=== %dx%d board, %s iterations, %s trials ===\n",
		stats.GridSize, stats.GridSize, humanize.Comma(int64(stats.Iterations)), humanize.Comma(int64(stats.Trials)))
	fmt.Fprintf(w, "Misplaced tiles: %.2f / %d (%.0f%%)\n", stats.AvgMisplaced, tiles, 100*stats.AvgMisplaced/float64(tiles))
	fmt.Fprintf(w, "Manhattan distance: avg %.2f, max %d\n", stats.AvgManhattan, stats.MaxManhattan)
	fmt.Fprintf(w, "Empty slot at home: %.1f%%\n", 100*stats.EmptyHomeFraction)

	if stats.SolvedFraction > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %.1f%% of shuffles ended solved\n", 100*stats.SolvedFraction)
	} else {
		fmt.Fprintf(w, "✅ No shuffle ended solved\n")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Shuffle quality statistics per grid size and iteration count",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{Name: "sizes", Value: []int{engine.MinGridSize, engine.MaxGridSize}, Usage: "Grid sizes to analyze"},
			&cli.IntSliceFlag{Name: "iterations", Value: []int{10, 100, engine.DefaultShuffleIterations}, Usage: "Shuffle iteration counts"},
			&cli.IntFlag{Name: "trials", Value: 1000, Usage: "Shuffles per combination"},
			&cli.Int64Flag{Name: "seed", Usage: "Random seed (default: current time)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			seed := cmd.Int64("seed")
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			for _, size := range cmd.IntSlice("sizes") {
				for _, iterations := range cmd.IntSlice("iterations") {
					stats, err := analyzeShuffle(size, iterations, cmd.Int("trials"), rng)
					if err != nil {
						return err
					}
					printReport(cmd.Root().Writer, stats)
				}
			}
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}
