package polygon

import "fmt"

type heading uint8

const (
	east heading = iota
	north
	west
	south
)

func (h heading) left() heading  { return (h + 1) % 4 }
func (h heading) right() heading { return (h + 3) % 4 }

// edge is a maximal straight boundary segment with the filled side on its
// left.
type edge struct {
	from, to Point
	dir      heading
}

// edgeKey finds the edge leaving a point in a given heading. A saddle point
// has two edges leaving it, told apart by their heading.
type edgeKey struct {
	at  Point
	dir heading
}

type tracer struct {
	g         *Grid
	edges     []edge
	vertical  []int // indices of vertical edges, sorted by (x, y)
	byStart   map[edgeKey]int
	loopOf    []int
	loops     []Loop
	loopStart []heading
}

// Trace converts the filled cells of g into polygons with holes. Filled
// cells are 4-connected: cells touching only at a corner belong to different
// polygons unless joined elsewhere. The summed polygon area equals g.Count().
func Trace(g *Grid) []Polygon {
	t := &tracer{g: g, byStart: make(map[edgeKey]int)}
	t.sweepHorizontal()
	t.sweepVertical()
	t.traceLoops()
	return t.assemble()
}

func (t *tracer) add(e edge) int {
	i := len(t.edges)
	t.edges = append(t.edges, e)
	t.byStart[edgeKey{at: e.from, dir: e.dir}] = i
	return i
}

// sweepHorizontal emits bottom (eastbound) and top (westbound) edges from
// runs of filled/empty transitions across every horizontal grid line.
func (t *tracer) sweepHorizontal() {
	g := t.g
	for y := 0; y <= g.H; y++ {
		for _, bottom := range []bool{true, false} {
			x := 0
			for x < g.W {
				if !t.horizontalBoundary(x, y, bottom) {
					x++
					continue
				}
				x0 := x
				for x < g.W && t.horizontalBoundary(x, y, bottom) {
					x++
				}
				if bottom {
					t.add(edge{from: Point{x0, y}, to: Point{x, y}, dir: east})
				} else {
					t.add(edge{from: Point{x, y}, to: Point{x0, y}, dir: west})
				}
			}
		}
	}
}

func (t *tracer) horizontalBoundary(x, y int, bottom bool) bool {
	above, below := t.g.At(x, y), t.g.At(x, y-1)
	if bottom {
		return above && !below
	}
	return below && !above
}

// sweepVertical emits left (southbound) and right (northbound) edges column
// by column, which leaves t.vertical ordered by x and then y.
func (t *tracer) sweepVertical() {
	g := t.g
	for x := 0; x <= g.W; x++ {
		y := 0
		for y < g.H {
			left := g.At(x, y) && !g.At(x-1, y)
			right := g.At(x-1, y) && !g.At(x, y)
			if !left && !right {
				y++
				continue
			}
			y0 := y
			for y < g.H && left == (g.At(x, y) && !g.At(x-1, y)) && right == (g.At(x-1, y) && !g.At(x, y)) {
				y++
			}
			var i int
			if left {
				i = t.add(edge{from: Point{x, y}, to: Point{x, y0}, dir: south})
			} else {
				i = t.add(edge{from: Point{x, y0}, to: Point{x, y}, dir: north})
			}
			t.vertical = append(t.vertical, i)
		}
	}
}

// next returns the edge continuing from the end of e. At a saddle the left
// turn wins, which keeps each loop on one 4-connected set of filled cells.
func (t *tracer) next(e edge) int {
	if i, ok := t.byStart[edgeKey{at: e.to, dir: e.dir.left()}]; ok {
		return i
	}
	if i, ok := t.byStart[edgeKey{at: e.to, dir: e.dir.right()}]; ok {
		return i
	}
	panic(fmt.Sprintf("polygon: boundary open at %s heading %d", e.to, e.dir))
}

func (t *tracer) traceLoops() {
	t.loopOf = make([]int, len(t.edges))
	for i := range t.loopOf {
		t.loopOf[i] = -1
	}
	for _, start := range t.vertical {
		if t.loopOf[start] >= 0 {
			continue
		}
		id := len(t.loops)
		var loop Loop
		for i := start; ; {
			if t.loopOf[i] >= 0 {
				panic(fmt.Sprintf("polygon: loop %d re-entered edge %d before closing", id, i))
			}
			t.loopOf[i] = id
			loop = append(loop, t.edges[i].from)
			i = t.next(t.edges[i])
			if i == start {
				break
			}
		}
		loop = rotateToMin(loop)
		loop = append(loop, loop[0])
		t.loops = append(t.loops, loop)
		t.loopStart = append(t.loopStart, t.edges[start].dir)
	}
	for i, l := range t.loopOf {
		if l < 0 {
			panic(fmt.Sprintf("polygon: edge %d from %s not on any loop", i, t.edges[i].from))
		}
	}
}

// assemble groups loops into polygons. A loop first met on a southbound edge
// is an outer boundary; one first met northbound is a hole. Sweeping the
// vertical edges left to right, owner[y] holds the polygon whose filled run
// currently covers row y, which is exactly the polygon enclosing a hole
// whose leftmost edge is met on that row.
func (t *tracer) assemble() []Polygon {
	var polys []Polygon
	loopPoly := make([]int, len(t.loops))
	for i := range loopPoly {
		loopPoly[i] = -1
	}
	owner := make([]int, t.g.H)
	for i := range owner {
		owner[i] = -1
	}

	for _, ei := range t.vertical {
		e := t.edges[ei]
		l := t.loopOf[ei]
		if loopPoly[l] < 0 {
			if t.loopStart[l] == south {
				loopPoly[l] = len(polys)
				polys = append(polys, Polygon{Outer: t.loops[l]})
			} else {
				row := min(e.from.Y, e.to.Y)
				p := owner[row]
				if p < 0 {
					panic(fmt.Sprintf("polygon: hole at %s has no enclosing polygon", e.from))
				}
				loopPoly[l] = p
				polys[p].Holes = append(polys[p].Holes, t.loops[l])
			}
		}
		if e.dir == south {
			for y := e.to.Y; y < e.from.Y; y++ {
				owner[y] = loopPoly[l]
			}
		}
	}
	return polys
}

// rotateToMin starts an open loop at its lowest-x, then lowest-y vertex so
// traced loops have a canonical first point.
func rotateToMin(l []Point) []Point {
	best := 0
	for i, p := range l {
		b := l[best]
		if p.X < b.X || (p.X == b.X && p.Y < b.Y) {
			best = i
		}
	}
	out := make([]Point, 0, len(l)+1)
	out = append(out, l[best:]...)
	return append(out, l[:best]...)
}
