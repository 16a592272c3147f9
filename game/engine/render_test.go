package engine

import "testing"

func TestSourceRegion(t *testing.T) {
	tests := []struct {
		value, size, canvas int
		expected            Region
	}{
		{0, 4, 400, Region{X: 0, Y: 0, Width: 100, Height: 100}},
		{5, 4, 400, Region{X: 100, Y: 100, Width: 100, Height: 100}},
		{7, 4, 400, Region{X: 300, Y: 100, Width: 100, Height: 100}},
		{14, 4, 400, Region{X: 200, Y: 300, Width: 100, Height: 100}},
		{7, 3, 300, Region{X: 100, Y: 200, Width: 100, Height: 100}},
		{5, 3, 600, Region{X: 400, Y: 200, Width: 200, Height: 200}},
	}

	for _, test := range tests {
		got := SourceRegion(test.value, test.size, test.canvas)
		if got != test.expected {
			t.Errorf("SourceRegion(%d, %d, %d) = %+v, expected %+v",
				test.value, test.size, test.canvas, got, test.expected)
		}
	}
}

func TestBuildTileViews(t *testing.T) {
	g := Grid{Size: 3}
	a := Arrangement{0, 1, 2, 3, 8, 5, 6, 7, 4}

	views := BuildTileViews(a, g, 300, true)
	if len(views) != 9 {
		t.Fatalf("Expected 9 views, got %d", len(views))
	}

	emptyCount := 0
	for i, view := range views {
		if view.Index != i || view.Value != a[i] {
			t.Errorf("view %d: unexpected index/value %+v", i, view)
		}
		if view.Empty {
			emptyCount++
			if view.Region != nil || view.Label != "" {
				t.Errorf("view %d: empty tile must have no region or label", i)
			}
			continue
		}
		if view.Region == nil {
			t.Fatalf("view %d: expected region", i)
		}
		if *view.Region != SourceRegion(view.Value, 3, 300) {
			t.Errorf("view %d: region %+v does not match value %d", i, *view.Region, view.Value)
		}
	}
	if emptyCount != 1 || !views[4].Empty {
		t.Errorf("Expected exactly position 4 to be empty, got %d empties", emptyCount)
	}
	if views[8].Label != "5" {
		t.Errorf("Expected label 5 for value 4, got %q", views[8].Label)
	}
}

func TestBuildTileViewsHiddenNumbersAndDefaultCanvas(t *testing.T) {
	g := Grid{Size: 4}
	views := BuildTileViews(g.Solved(), g, 0, false)

	for _, view := range views {
		if view.Label != "" {
			t.Errorf("Expected no labels when numbers are hidden, got %q", view.Label)
		}
	}
	if views[0].Region.Width != DefaultCanvasSize/4 {
		t.Errorf("Expected default canvas tile width %d, got %d", DefaultCanvasSize/4, views[0].Region.Width)
	}
}

func TestFormatBoard(t *testing.T) {
	g3 := Grid{Size: 3}
	expected3 := "1 2 3\n4 5 6\n7 8 .\n"
	if got := FormatBoard(g3.Solved(), g3); got != expected3 {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected3, got)
	}

	g4 := Grid{Size: 4}
	expected4 := " 1  2  3  4\n 5  6  7  8\n 9 10 11 12\n13 14 15 ..\n"
	if got := FormatBoard(g4.Solved(), g4); got != expected4 {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected4, got)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{65, "01:05"},
		{600, "10:00"},
		{3600, "60:00"},
		{-5, "00:00"},
	}

	for _, test := range tests {
		if got := FormatElapsed(test.seconds); got != test.expected {
			t.Errorf("FormatElapsed(%d) = %q, expected %q", test.seconds, got, test.expected)
		}
	}
}

func TestDistanceMetrics(t *testing.T) {
	g := Grid{Size: 3}

	if MisplacedTiles(g.Solved(), g) != 0 || TotalManhattanDistance(g.Solved(), g) != 0 {
		t.Error("Expected solved board to have zero metrics")
	}

	// empty moved to the center: tile 4 is now at index 8, distance 2
	a := Arrangement{0, 1, 2, 3, 8, 5, 6, 7, 4}
	if got := MisplacedTiles(a, g); got != 1 {
		t.Errorf("Expected 1 misplaced tile, got %d", got)
	}
	if got := TotalManhattanDistance(a, g); got != 2 {
		t.Errorf("Expected total distance 2, got %d", got)
	}

	if ManhattanDistance(Position{0, 0}, Position{2, 3}) != 5 {
		t.Error("Expected distance 5")
	}
}
