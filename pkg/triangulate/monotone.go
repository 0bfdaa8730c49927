package triangulate

import (
	"slices"

	"github.com/chazu/voxmesh/pkg/polygon"
)

// span is a maximal run of filled cells [x0, x1) in one row.
type span struct {
	x0, x1 int
	strip  int
	slab   int
}

func (s span) overlaps(o span) bool { return s.x0 < o.x1 && o.x0 < s.x1 }

// slab is a rectangle of identical spans stacked inside one strip.
type slab struct {
	x0, x1, y0, y1 int
	prev, next     int // neighbouring slabs of the same strip, or -1
}

// monotone decomposes g into strips: stacks of spans where each span
// overlaps exactly one span in the next row and vice versa. Each strip is
// cut into slabs and every slab is zipped between its bottom and top vertex
// chains. The chains hold the slab corners plus the corners of the adjacent
// slabs of the same strip; with save set they also hold every span end on
// the neighbouring rows, which removes all in-plane T-junctions.
func monotone(g *polygon.Grid, save bool) []Triangle {
	rows := make([][]span, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; {
			if !g.At(x, y) {
				x++
				continue
			}
			x0 := x
			for x < g.W && g.At(x, y) {
				x++
			}
			rows[y] = append(rows[y], span{x0: x0, x1: x})
		}
	}

	var slabs []slab
	strips := 0
	for y, row := range rows {
		for i := range row {
			s := &row[i]
			if y > 0 {
				if j, ok := uniquePartner(*s, rows[y-1], row); ok {
					below := rows[y-1][j]
					s.strip = below.strip
					if below.x0 == s.x0 && below.x1 == s.x1 {
						s.slab = below.slab
						slabs[s.slab].y1 = y + 1
						continue
					}
					s.slab = len(slabs)
					slabs[below.slab].next = s.slab
					slabs = append(slabs, slab{x0: s.x0, x1: s.x1, y0: y, y1: y + 1, prev: below.slab, next: -1})
					continue
				}
			}
			s.strip = strips
			strips++
			s.slab = len(slabs)
			slabs = append(slabs, slab{x0: s.x0, x1: s.x1, y0: y, y1: y + 1, prev: -1, next: -1})
		}
	}

	var tris []Triangle
	for _, sl := range slabs {
		var bottom, top []int
		if save {
			bottom = chain(sl.x0, sl.x1, spansAt(rows, sl.y0-1))
			top = chain(sl.x0, sl.x1, spansAt(rows, sl.y1))
		} else {
			bottom = chain(sl.x0, sl.x1, slabSpan(slabs, sl.prev))
			top = chain(sl.x0, sl.x1, slabSpan(slabs, sl.next))
		}
		tris = zip(tris, bottom, top, sl.y0, sl.y1)
	}
	return tris
}

// uniquePartner returns the index of the only span in below overlapping s,
// provided s is also the only span in row overlapping it.
func uniquePartner(s span, below, row []span) (int, bool) {
	j := -1
	for k, b := range below {
		if b.overlaps(s) {
			if j >= 0 {
				return 0, false
			}
			j = k
		}
	}
	if j < 0 {
		return 0, false
	}
	n := 0
	for _, r := range row {
		if r.overlaps(below[j]) {
			n++
		}
	}
	return j, n == 1
}

func spansAt(rows [][]span, y int) []span {
	if y < 0 || y >= len(rows) {
		return nil
	}
	return rows[y]
}

func slabSpan(slabs []slab, i int) []span {
	if i < 0 {
		return nil
	}
	return []span{{x0: slabs[i].x0, x1: slabs[i].x1}}
}

// chain returns the sorted x positions of a slab edge: both ends plus every
// span end strictly between them.
func chain(x0, x1 int, spans []span) []int {
	xs := []int{x0, x1}
	for _, s := range spans {
		for _, x := range [2]int{s.x0, s.x1} {
			if x > x0 && x < x1 {
				xs = append(xs, x)
			}
		}
	}
	slices.Sort(xs)
	return slices.Compact(xs)
}

// zip triangulates the rectangle between the bottom chain at y0 and the top
// chain at y1. Both chains share their end points, and every triangle has
// its base on one chain and its apex on the other.
func zip(tris []Triangle, bottom, top []int, y0, y1 int) []Triangle {
	i, j := 0, 0
	for i < len(bottom)-1 || j < len(top)-1 {
		advanceBottom := j == len(top)-1 || (i < len(bottom)-1 && bottom[i+1] <= top[j+1])
		b := polygon.Point{X: bottom[i], Y: y0}
		t := polygon.Point{X: top[j], Y: y1}
		if advanceBottom {
			tris = append(tris, Triangle{b, polygon.Point{X: bottom[i+1], Y: y0}, t})
			i++
		} else {
			tris = append(tris, Triangle{b, polygon.Point{X: top[j+1], Y: y1}, t})
			j++
		}
	}
	return tris
}
