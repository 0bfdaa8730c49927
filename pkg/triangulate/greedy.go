package triangulate

import "github.com/chazu/voxmesh/pkg/polygon"

type rect struct {
	x0, y0, x1, y1 int
}

func (r rect) area() int { return (r.x1 - r.x0) * (r.y1 - r.y0) }

func (r rect) triangles() [2]Triangle {
	a := polygon.Point{X: r.x0, Y: r.y0}
	b := polygon.Point{X: r.x1, Y: r.y0}
	c := polygon.Point{X: r.x1, Y: r.y1}
	d := polygon.Point{X: r.x0, Y: r.y1}
	return [2]Triangle{{a, b, c}, {a, c, d}}
}

// greedy covers g with maximal rectangles seeded in row-major order. With
// both set, each seed also tries column-first growth and keeps the larger
// rectangle.
func greedy(g *polygon.Grid, both bool) []Triangle {
	used := polygon.NewGrid(g.W, g.H)
	free := func(x, y int) bool { return g.At(x, y) && !used.At(x, y) }

	var tris []Triangle
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if !free(x, y) {
				continue
			}
			r := growRows(free, x, y)
			if both {
				if c := growColumns(free, x, y); c.area() > r.area() {
					r = c
				}
			}
			for cy := r.y0; cy < r.y1; cy++ {
				for cx := r.x0; cx < r.x1; cx++ {
					used.Set(cx, cy, true)
				}
			}
			t := r.triangles()
			tris = append(tris, t[0], t[1])
		}
	}
	return tris
}

// growRows extends the seed along x first, then adds whole rows.
func growRows(free func(x, y int) bool, x, y int) rect {
	r := rect{x0: x, y0: y, x1: x + 1, y1: y + 1}
	for free(r.x1, y) {
		r.x1++
	}
	for rowFree(free, r.x0, r.x1, r.y1) {
		r.y1++
	}
	return r
}

// growColumns extends the seed along y first, then adds whole columns.
func growColumns(free func(x, y int) bool, x, y int) rect {
	r := rect{x0: x, y0: y, x1: x + 1, y1: y + 1}
	for free(x, r.y1) {
		r.y1++
	}
	for columnFree(free, r.x1, r.y0, r.y1) {
		r.x1++
	}
	return r
}

func rowFree(free func(x, y int) bool, x0, x1, y int) bool {
	for x := x0; x < x1; x++ {
		if !free(x, y) {
			return false
		}
	}
	return true
}

func columnFree(free func(x, y int) bool, x, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		if !free(x, y) {
			return false
		}
	}
	return true
}
