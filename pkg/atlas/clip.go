package atlas

import (
	"image"

	"github.com/chazu/voxmesh/pkg/polygon"
)

type pt struct{ x, y float64 }

// Covered returns the pixels whose overlap with tri exceeds eps, in
// row-major order. Overlap is computed by clipping the triangle against
// each pixel of its bounding box.
func Covered(tri [3]polygon.Point, eps float64) []image.Point {
	x0, y0 := tri[0].X, tri[0].Y
	x1, y1 := x0, y0
	for _, v := range tri[1:] {
		x0, y0 = min(x0, v.X), min(y0, v.Y)
		x1, y1 = max(x1, v.X), max(y1, v.Y)
	}
	poly := []pt{
		{float64(tri[0].X), float64(tri[0].Y)},
		{float64(tri[1].X), float64(tri[1].Y)},
		{float64(tri[2].X), float64(tri[2].Y)},
	}
	var out []image.Point
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if cellArea(poly, float64(x), float64(y)) > eps {
				out = append(out, image.Pt(x, y))
			}
		}
	}
	return out
}

// cellArea clips poly to the unit cell at (x, y) with Sutherland-Hodgman
// and returns the area of what remains.
func cellArea(poly []pt, x, y float64) float64 {
	cur := clipEdge(poly, func(p pt) float64 { return p.x - x })
	cur = clipEdge(cur, func(p pt) float64 { return x + 1 - p.x })
	cur = clipEdge(cur, func(p pt) float64 { return p.y - y })
	cur = clipEdge(cur, func(p pt) float64 { return y + 1 - p.y })
	if len(cur) < 3 {
		return 0
	}
	a := 0.0
	for i := range cur {
		j := (i + 1) % len(cur)
		a += cur[i].x*cur[j].y - cur[j].x*cur[i].y
	}
	if a < 0 {
		a = -a
	}
	return a / 2
}

// clipEdge keeps the part of poly where side(p) >= 0.
func clipEdge(poly []pt, side func(pt) float64) []pt {
	if len(poly) == 0 {
		return poly
	}
	out := make([]pt, 0, len(poly)+2)
	prev := poly[len(poly)-1]
	ps := side(prev)
	for _, p := range poly {
		s := side(p)
		if (s >= 0) != (ps >= 0) {
			t := ps / (ps - s)
			out = append(out, pt{prev.x + t*(p.x-prev.x), prev.y + t*(p.y-prev.y)})
		}
		if s >= 0 {
			out = append(out, p)
		}
		prev, ps = p, s
	}
	return out
}
