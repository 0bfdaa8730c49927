// Package tjunction adds boundary vertices to traced loops so that planes
// triangulated at different granularity still share every vertex on their
// common edges.
package tjunction

import (
	"fmt"

	"github.com/chazu/voxmesh/pkg/polygon"
	"github.com/chazu/voxmesh/pkg/triangulate"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// Occupancy reports whether a voxel occupies a grid position. Both
// hull.Tracker and hull.Snapshot satisfy it.
type Occupancy interface {
	Occupied(x, y, z int) bool
}

// Resolve returns loop, given in the local coordinates of frame f, with an
// extra collinear vertex at every unit step of a straight edge where the four
// voxels around the corresponding 3D edge line change. Every vertex another
// plane can place on that line sits at such a step, so the resolved loop
// shares all of them. Closure and winding are preserved.
func Resolve(loop polygon.Loop, f voxel.Frame, occ Occupancy) polygon.Loop {
	if len(loop) < 2 {
		return loop
	}
	out := make(polygon.Loop, 0, len(loop))
	for i := 0; i+1 < len(loop); i++ {
		out = append(out, loop[i])
		out = appendSplits(out, loop[i], loop[i+1], f, occ)
	}
	return append(out, loop[len(loop)-1])
}

// ResolvePolygon resolves the outer loop and every hole of p.
func ResolvePolygon(p polygon.Polygon, f voxel.Frame, occ Occupancy) polygon.Polygon {
	out := polygon.Polygon{Outer: Resolve(p.Outer, f, occ)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, Resolve(h, f, occ))
	}
	return out
}

// Triangulate traces g, resolves every loop against occ and triangulates the
// result with s. Triangles from grid strategies are split wherever a resolved
// vertex lies on one of their edges. Triangles are in the local coordinates
// of f and counter-clockwise in the plane.
func Triangulate(s triangulate.Strategy, g *polygon.Grid, f voxel.Frame, occ Occupancy) []triangulate.Triangle {
	var polys []polygon.Polygon
	var pts []polygon.Point
	for _, p := range polygon.Trace(g) {
		rp := ResolvePolygon(p, f, occ)
		polys = append(polys, rp)
		for _, l := range rp.Loops() {
			pts = append(pts, l...)
		}
	}
	if len(polys) == 0 {
		return nil
	}
	tris := triangulate.Run(s, triangulate.Input{Grid: g, Polygons: polys})
	if s == triangulate.Delaunay {
		return tris
	}
	return triangulate.Refine(tris, pts)
}

func appendSplits(out polygon.Loop, p, q polygon.Point, f voxel.Frame, occ Occupancy) polygon.Loop {
	dx, dy := step(q.X-p.X), step(q.Y-p.Y)
	if dx != 0 && dy != 0 {
		panic(fmt.Sprintf("tjunction: edge %s-%s is not axis-aligned", p, q))
	}
	n := max(abs(q.X-p.X), abs(q.Y-p.Y))
	prev := around(f, occ, p, dx, dy)
	for s := 1; s < n; s++ {
		m := polygon.Point{X: p.X + s*dx, Y: p.Y + s*dy}
		cur := around(f, occ, m, dx, dy)
		if cur != prev {
			out = append(out, m)
		}
		prev = cur
	}
	return out
}

// around returns a bit mask of the four voxels surrounding the unit segment
// that starts at local point a and heads (dx, dy): two on each side of the
// plane, two on each side of the segment within the plane.
func around(f voxel.Frame, occ Occupancy, a polygon.Point, dx, dy int) uint8 {
	var us, vs [2]int
	if dy == 0 {
		us = [2]int{min(a.X, a.X+dx), min(a.X, a.X+dx)}
		vs = [2]int{a.Y - 1, a.Y}
	} else {
		us = [2]int{a.X - 1, a.X}
		vs = [2]int{min(a.Y, a.Y+dy), min(a.Y, a.Y+dy)}
	}
	axis := f.Dir.Axis()
	ua, va := voxel.PlaneAxes(axis)
	var mask uint8
	bit := 0
	for _, k := range [2]int{f.Coord - 1, f.Coord} {
		for i := 0; i < 2; i++ {
			p := voxel.Position{}.With(axis, k).With(ua, f.U0+us[i]).With(va, f.V0+vs[i])
			if occ.Occupied(p.X, p.Y, p.Z) {
				mask |= 1 << bit
			}
			bit++
		}
	}
	return mask
}

func step(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
