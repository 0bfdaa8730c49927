// Package polygon converts binary occupancy grids into polygons with holes.
//
// All coordinates are exact integers. Outer loops wind counter-clockwise and
// holes clockwise, so the filled region is always on the left of every edge.
package polygon

import "fmt"

// Point is an integer 2D point.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Loop is a closed vertex loop whose last point repeats the first.
type Loop []Point

// Closed reports whether the loop has at least three distinct vertices and
// ends where it starts.
func (l Loop) Closed() bool {
	return len(l) >= 4 && l[0] == l[len(l)-1]
}

// Area2 returns twice the signed area (positive for counter-clockwise).
func (l Loop) Area2() int {
	s := 0
	for i := 0; i+1 < len(l); i++ {
		s += l[i].X*l[i+1].Y - l[i+1].X*l[i].Y
	}
	return s
}

// Reverse returns the loop with opposite winding.
func (l Loop) Reverse() Loop {
	out := make(Loop, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

// Polygon is one outer loop plus the holes it encloses.
type Polygon struct {
	Outer Loop
	Holes []Loop
}

// Loops returns the outer loop followed by the holes.
func (p Polygon) Loops() []Loop {
	out := make([]Loop, 0, 1+len(p.Holes))
	out = append(out, p.Outer)
	return append(out, p.Holes...)
}

// Area returns the enclosed area: the outer area minus the hole areas.
func (p Polygon) Area() int {
	s := p.Outer.Area2()
	for _, h := range p.Holes {
		s += h.Area2()
	}
	return s / 2
}

// Bounds returns the bounding box of the outer loop.
func (p Polygon) Bounds() (min, max Point) {
	if len(p.Outer) == 0 {
		return
	}
	min, max = p.Outer[0], p.Outer[0]
	for _, q := range p.Outer {
		if q.X < min.X {
			min.X = q.X
		}
		if q.Y < min.Y {
			min.Y = q.Y
		}
		if q.X > max.X {
			max.X = q.X
		}
		if q.Y > max.Y {
			max.Y = q.Y
		}
	}
	return min, max
}

// Inside reports whether (px, py)/scale lies inside the region bounded by
// loops under the even-odd rule. The loops are scaled by scale before the
// test, which lets callers probe rational points such as cell or triangle
// centres exactly. The point must not lie on a loop edge.
func Inside(loops []Loop, scale, px, py int) bool {
	in := false
	for _, l := range loops {
		for i := 0; i+1 < len(l); i++ {
			ax, ay := l[i].X*scale, l[i].Y*scale
			bx, by := l[i+1].X*scale, l[i+1].Y*scale
			if (ay > py) == (by > py) {
				continue
			}
			// Crossing x of the edge at py, compared without division.
			dy := by - ay
			lhs := (px - ax) * dy
			rhs := (py - ay) * (bx - ax)
			if dy > 0 {
				if lhs < rhs {
					in = !in
				}
			} else if lhs > rhs {
				in = !in
			}
		}
	}
	return in
}

// Rasterize fills every w×h cell whose centre lies inside one of the
// polygons.
func Rasterize(polys []Polygon, w, h int) *Grid {
	g := NewGrid(w, h)
	var loops []Loop
	for _, p := range polys {
		loops = append(loops, p.Loops()...)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if Inside(loops, 2, 2*x+1, 2*y+1) {
				g.Set(x, y, true)
			}
		}
	}
	return g
}
