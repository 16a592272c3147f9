package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a rectangle within the source image, in canvas pixels
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TileView is everything a client needs to draw one board position
type TileView struct {
	Index    int      `json:"index"`
	Position Position `json:"position"`
	Value    int      `json:"value"`
	Label    string   `json:"label,omitempty"`
	Empty    bool     `json:"empty"`
	Region   *Region  `json:"region,omitempty"`
}

// SourceRegion returns the part of a canvas-sized image that tile value shows.
// Tile v comes from row v/size, column v%size of the solved picture.
func SourceRegion(value, size, canvas int) Region {
	tile := canvas / size
	return Region{
		X:      (value % size) * tile,
		Y:      (value / size) * tile,
		Width:  tile,
		Height: tile,
	}
}

// BuildTileViews maps an arrangement to drawable tiles. The position holding the
// empty value gets no region and no label.
func BuildTileViews(a Arrangement, g Grid, canvas int, showNumbers bool) []TileView {
	if canvas <= 0 {
		canvas = DefaultCanvasSize
	}

	views := make([]TileView, len(a))
	for i, v := range a {
		view := TileView{
			Index:    i,
			Position: g.PositionOf(i),
			Value:    v,
		}
		if v == g.EmptyValue() {
			view.Empty = true
		} else {
			region := SourceRegion(v, g.Size, canvas)
			view.Region = &region
			if showNumbers {
				view.Label = strconv.Itoa(v + 1)
			}
		}
		views[i] = view
	}
	return views
}

// FormatBoard renders the arrangement as a text grid using 1-based labels
func FormatBoard(a Arrangement, g Grid) string {
	width := len(strconv.Itoa(g.EmptyValue()))
	var b strings.Builder
	for row := 0; row < g.Size; row++ {
		for col := 0; col < g.Size; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			v := a[g.IndexOf(Position{Row: row, Col: col})]
			if v == g.EmptyValue() {
				b.WriteString(strings.Repeat(".", width))
				continue
			}
			fmt.Fprintf(&b, "%*d", width, v+1)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
