package main

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"
)

func TestAnalyzeShuffle_SingleStep(t *testing.T) {
	stats, err := analyzeShuffle(3, 1, 50, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("analyzeShuffle failed: %v", err)
	}

	// One step from solved moves exactly one tile by one cell
	if stats.AvgMisplaced != 1 {
		t.Errorf("Expected 1 misplaced tile, got %.2f", stats.AvgMisplaced)
	}
	if stats.AvgManhattan != 1 || stats.MaxManhattan != 1 {
		t.Errorf("Expected Manhattan distance 1, got avg %.2f max %d", stats.AvgManhattan, stats.MaxManhattan)
	}
	if stats.EmptyHomeFraction != 0 || stats.SolvedFraction != 0 {
		t.Errorf("Expected empty slot away from home, got %+v", stats)
	}
}

func TestAnalyzeShuffle_TwoSteps(t *testing.T) {
	stats, err := analyzeShuffle(3, 2, 200, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("analyzeShuffle failed: %v", err)
	}

	// The second step undoes the first a third of the time
	if stats.SolvedFraction <= 0 || stats.SolvedFraction >= 1 {
		t.Errorf("Expected some but not all shuffles to end solved, got %.2f", stats.SolvedFraction)
	}
	if stats.SolvedFraction != stats.EmptyHomeFraction {
		t.Errorf("After two steps the board is solved exactly when the empty slot is home: %+v", stats)
	}
}

func TestAnalyzeShuffle_Deep(t *testing.T) {
	stats, err := analyzeShuffle(4, 1000, 20, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("analyzeShuffle failed: %v", err)
	}

	if stats.AvgMisplaced < 10 {
		t.Errorf("Expected a deep shuffle to misplace most of 15 tiles, got %.2f", stats.AvgMisplaced)
	}
	if stats.SolvedFraction != 0 {
		t.Errorf("Expected no solved boards, got %.2f", stats.SolvedFraction)
	}
}

func TestAnalyzeShuffle_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := analyzeShuffle(5, 10, 10, rng); err == nil {
		t.Error("Expected error for unsupported grid size")
	}
	if _, err := analyzeShuffle(3, 0, 10, rng); err == nil {
		t.Error("Expected error for zero iterations")
	}
	if _, err := analyzeShuffle(3, 10, 0, rng); err == nil {
		t.Error("Expected error for zero trials")
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, ShuffleStats{GridSize: 3, Iterations: 1000, Trials: 2000, AvgMisplaced: 4, AvgManhattan: 12.5, MaxManhattan: 20})

	out := buf.String()
	for _, want := range []string{"3x3 board", "1,000 iterations", "2,000 trials", "4.00 / 8 (50%)", "avg 12.50, max 20", "No shuffle ended solved"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in report:\n%s", want, out)
		}
	}

	buf.Reset()
	printReport(&buf, ShuffleStats{GridSize: 3, Iterations: 2, Trials: 4, SolvedFraction: 0.25})
	if !strings.Contains(buf.String(), "WARNING: 25.0%") {
		t.Errorf("Expected solved warning, got:\n%s", buf.String())
	}
}

func TestApp(t *testing.T) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf

	err := app.Run(context.Background(), []string{"analyze", "--sizes", "3", "--iterations", "5", "--trials", "10", "--seed", "42"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.Count(buf.String(), "===") != 2 || !strings.Contains(buf.String(), "3x3 board, 5 iterations") {
		t.Errorf("Expected one report, got:\n%s", buf.String())
	}
}
