package triangulate

import "github.com/chazu/voxmesh/pkg/polygon"

// Refine splits every triangle whose edge passes through one of pts, until
// each point that lies on a triangle edge is a vertex of that triangle.
// Only axis-aligned edges are checked; boundary vertices of grid polygons
// always lie on them. Area and orientation are preserved.
func Refine(tris []Triangle, pts []polygon.Point) []Triangle {
	if len(pts) == 0 {
		return tris
	}
	want := make(map[polygon.Point]struct{}, len(pts))
	for _, p := range pts {
		want[p] = struct{}{}
	}

	out := make([]Triangle, 0, len(tris))
	work := append([]Triangle(nil), tris...)
	for len(work) > 0 {
		t := work[len(work)-1]
		work = work[:len(work)-1]
		a, b, ok := splitEdge(t, want)
		if !ok {
			out = append(out, t)
			continue
		}
		work = append(work, a, b)
	}
	return out
}

// splitEdge splits t at the first wanted point strictly inside one of its
// axis-aligned edges.
func splitEdge(t Triangle, want map[polygon.Point]struct{}) (Triangle, Triangle, bool) {
	v := t.Points()
	for i := 0; i < 3; i++ {
		p, q, r := v[i], v[(i+1)%3], v[(i+2)%3]
		if m, ok := pointOnEdge(p, q, want); ok {
			return Triangle{p, m, r}, Triangle{m, q, r}, true
		}
	}
	return Triangle{}, Triangle{}, false
}

func pointOnEdge(p, q polygon.Point, want map[polygon.Point]struct{}) (polygon.Point, bool) {
	switch {
	case p.Y == q.Y:
		lo, hi := min(p.X, q.X), max(p.X, q.X)
		for x := lo + 1; x < hi; x++ {
			m := polygon.Point{X: x, Y: p.Y}
			if _, ok := want[m]; ok {
				return m, true
			}
		}
	case p.X == q.X:
		lo, hi := min(p.Y, q.Y), max(p.Y, q.Y)
		for y := lo + 1; y < hi; y++ {
			m := polygon.Point{X: p.X, Y: y}
			if _, ok := want[m]; ok {
				return m, true
			}
		}
	}
	return polygon.Point{}, false
}

// TJunctions returns the vertices of tris that lie strictly inside an edge of
// another triangle.
func TJunctions(tris []Triangle) []polygon.Point {
	verts := make(map[polygon.Point]struct{})
	for _, t := range tris {
		for _, p := range t.Points() {
			verts[p] = struct{}{}
		}
	}
	seen := make(map[polygon.Point]bool)
	var out []polygon.Point
	for _, t := range tris {
		v := t.Points()
		for i := 0; i < 3; i++ {
			p, q := v[i], v[(i+1)%3]
			for m := range verts {
				if !seen[m] && strictlyBetween(p, q, m) {
					seen[m] = true
					out = append(out, m)
				}
			}
		}
	}
	return out
}

func strictlyBetween(p, q, m polygon.Point) bool {
	cross := (q.X-p.X)*(m.Y-p.Y) - (q.Y-p.Y)*(m.X-p.X)
	if cross != 0 || m == p || m == q {
		return false
	}
	return min(p.X, q.X) <= m.X && m.X <= max(p.X, q.X) &&
		min(p.Y, q.Y) <= m.Y && m.Y <= max(p.Y, q.Y)
}
