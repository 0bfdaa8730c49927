package polygon

import (
	"fmt"
	"strings"
)

// Grid is a rectangular 2D occupancy grid. Cell (x, y) covers the unit
// square [x, x+1] × [y, y+1].
type Grid struct {
	W, H  int
	cells []bool
}

// NewGrid returns an empty w×h grid.
func NewGrid(w, h int) *Grid {
	if w < 0 || h < 0 {
		panic(fmt.Sprintf("polygon: invalid grid size %dx%d", w, h))
	}
	return &Grid{W: w, H: h, cells: make([]bool, w*h)}
}

// GridFromRows builds a grid from text rows, one row per y starting at
// y = 0. Any character other than '.' or ' ' marks a filled cell. All rows
// must have the same length.
func GridFromRows(rows ...string) *Grid {
	if len(rows) == 0 {
		return NewGrid(0, 0)
	}
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.W {
			panic(fmt.Sprintf("polygon: row %d has %d cells, want %d", y, len(row), g.W))
		}
		for x := 0; x < len(row); x++ {
			g.Set(x, y, row[x] != '.' && row[x] != ' ')
		}
	}
	return g
}

// At returns the cell value; cells outside the grid are empty.
func (g *Grid) At(x, y int) bool {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return false
	}
	return g.cells[y*g.W+x]
}

// Set assigns a cell inside the grid.
func (g *Grid) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		panic(fmt.Sprintf("polygon: cell (%d,%d) outside %dx%d grid", x, y, g.W, g.H))
	}
	g.cells[y*g.W+x] = v
}

// Count returns the number of filled cells.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		if c {
			n++
		}
	}
	return n
}

// Equal reports whether both grids have the same size and cells.
func (g *Grid) Equal(o *Grid) bool {
	if g.W != o.W || g.H != o.H {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.At(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
