// Package triangulate turns traced polygons or raw occupancy grids into
// triangle lists.
//
// Every strategy returns counter-clockwise triangles in the grid's own
// integer coordinates. Their union covers exactly the filled cells and no
// triangle is degenerate; strategies differ only in triangle count and in
// where they leave T-junctions.
package triangulate

import (
	"fmt"
	"strings"

	"github.com/chazu/voxmesh/pkg/polygon"
)

// Triangle is a counter-clockwise triangle with integer vertices.
type Triangle struct {
	A, B, C polygon.Point
}

// Area2 returns twice the signed area.
func (t Triangle) Area2() int {
	return (t.B.X-t.A.X)*(t.C.Y-t.A.Y) - (t.C.X-t.A.X)*(t.B.Y-t.A.Y)
}

// Points returns the vertices in winding order.
func (t Triangle) Points() [3]polygon.Point {
	return [3]polygon.Point{t.A, t.B, t.C}
}

func (t Triangle) String() string {
	return fmt.Sprintf("[%s %s %s]", t.A, t.B, t.C)
}

// Strategy selects a triangulation algorithm.
type Strategy uint8

const (
	// Delaunay is a constrained Delaunay triangulation of the traced
	// polygons. It never leaves a T-junction on a polygon's own boundary.
	Delaunay Strategy = iota
	// GreedyRectangle merges maximal rectangles row first.
	GreedyRectangle
	// GreedyOptimal grows each rectangle both row first and column first
	// and keeps the larger one.
	GreedyOptimal
	// Monotone splits the grid into monotone strips.
	Monotone
	// MonotoneSave is Monotone with extra vertices so that no in-plane
	// T-junction remains.
	MonotoneSave

	strategyCount
)

var strategyNames = [strategyCount]string{
	Delaunay:        "delaunay",
	GreedyRectangle: "greedy",
	GreedyOptimal:   "greedy-optimal",
	Monotone:        "monotone",
	MonotoneSave:    "monotone-save",
}

// Strategies lists every strategy.
func Strategies() []Strategy {
	out := make([]Strategy, 0, strategyCount)
	for s := Strategy(0); s < strategyCount; s++ {
		out = append(out, s)
	}
	return out
}

func (s Strategy) String() string {
	if s < strategyCount {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// ParseStrategy parses the String form of a strategy.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown triangulation strategy %q, expected one of %s",
		name, strings.Join(strategyNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if s >= strategyCount {
		return nil, fmt.Errorf("invalid strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Input is what a strategy consumes. Grid strategies read Grid; Delaunay
// reads Polygons and traces Grid when Polygons is nil.
type Input struct {
	Grid     *polygon.Grid
	Polygons []polygon.Polygon
}

// Run triangulates in with strategy s. Degenerate output is a bug and
// panics.
func Run(s Strategy, in Input) []Triangle {
	var tris []Triangle
	switch s {
	case Delaunay:
		polys := in.Polygons
		if polys == nil && in.Grid != nil {
			polys = polygon.Trace(in.Grid)
		}
		for _, p := range polys {
			tris = append(tris, triangulatePolygon(p)...)
		}
	case GreedyRectangle:
		tris = greedy(needGrid(s, in), false)
	case GreedyOptimal:
		tris = greedy(needGrid(s, in), true)
	case Monotone:
		tris = monotone(needGrid(s, in), false)
	case MonotoneSave:
		tris = monotone(needGrid(s, in), true)
	default:
		panic(fmt.Sprintf("triangulate: unknown strategy %d", uint8(s)))
	}
	for _, t := range tris {
		if t.Area2() <= 0 {
			panic(fmt.Sprintf("triangulate: %s produced degenerate triangle %s", s, t))
		}
	}
	return tris
}

func needGrid(s Strategy, in Input) *polygon.Grid {
	if in.Grid == nil {
		panic(fmt.Sprintf("triangulate: %s needs a grid", s))
	}
	return in.Grid
}

// Area returns the total area of tris.
func Area(tris []Triangle) int {
	a2 := 0
	for _, t := range tris {
		a2 += t.Area2()
	}
	return a2 / 2
}
