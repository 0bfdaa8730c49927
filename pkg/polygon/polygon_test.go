package polygon

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalArea(polys []Polygon) int {
	a := 0
	for _, p := range polys {
		a += p.Area()
	}
	return a
}

func randomGrid(rng *rand.Rand, w, h int, density float64) *Grid {
	g := NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, rng.Float64() < density)
		}
	}
	return g
}

func TestTraceEmptyGrid(t *testing.T) {
	assert.Empty(t, Trace(NewGrid(4, 3)))
	assert.Empty(t, Trace(NewGrid(0, 0)))
}

func TestTraceSingleCell(t *testing.T) {
	polys := Trace(GridFromRows("...", ".#.", "..."))
	require.Len(t, polys, 1)
	assert.Equal(t, Loop{{1, 1}, {2, 1}, {2, 2}, {1, 2}, {1, 1}}, polys[0].Outer)
	assert.Empty(t, polys[0].Holes)
	assert.Equal(t, 1, polys[0].Area())
}

func TestTraceFilledSquare(t *testing.T) {
	polys := Trace(GridFromRows("##", "##"))
	require.Len(t, polys, 1)
	assert.Equal(t, Loop{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}, polys[0].Outer)
	assert.Empty(t, polys[0].Holes)
	assert.Equal(t, 4, polys[0].Area())
	assert.Positive(t, polys[0].Outer.Area2(), "outer loops are counter-clockwise")
}

func TestTraceRingHasOneHole(t *testing.T) {
	polys := Trace(GridFromRows("###", "#.#", "###"))
	require.Len(t, polys, 1)
	p := polys[0]
	require.Len(t, p.Holes, 1)
	assert.Equal(t, Loop{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}, p.Holes[0])
	assert.Equal(t, -2, p.Holes[0].Area2(), "holes are clockwise")
	assert.Equal(t, 8, p.Area())
}

func TestTraceDiagonalCellsAreSeparate(t *testing.T) {
	polys := Trace(GridFromRows("#.", ".#"))
	require.Len(t, polys, 2)
	for _, p := range polys {
		assert.Equal(t, 1, p.Area())
		assert.Empty(t, p.Holes)
	}
}

func TestTraceHolesTouchingAtCorner(t *testing.T) {
	g := GridFromRows(
		"####",
		"#.##",
		"##.#",
		"####",
	)
	polys := Trace(g)
	require.Len(t, polys, 1)
	// The two empty cells touch diagonally and form one hole boundary.
	require.Len(t, polys[0].Holes, 1)
	assert.Equal(t, 14, polys[0].Area())
	assert.True(t, g.Equal(Rasterize(polys, g.W, g.H)))
}

func TestTraceNestedIslands(t *testing.T) {
	g := GridFromRows(
		"#######",
		"#.....#",
		"#.###.#",
		"#.#.#.#",
		"#.###.#",
		"#.....#",
		"#######",
	)
	polys := Trace(g)
	require.Len(t, polys, 2)
	for _, p := range polys {
		require.Len(t, p.Holes, 1)
	}
	assert.Equal(t, g.Count(), totalArea(polys))
	assert.True(t, g.Equal(Rasterize(polys, g.W, g.H)))
}

func TestTraceAreaAndRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 300; i++ {
		w, h := 1+rng.Intn(12), 1+rng.Intn(12)
		g := randomGrid(rng, w, h, 0.3+0.5*rng.Float64())
		polys := Trace(g)

		require.Equal(t, g.Count(), totalArea(polys), "grid:\n%s", g)
		require.True(t, g.Equal(Rasterize(polys, w, h)), "round trip failed for grid:\n%s", g)
		for _, p := range polys {
			require.True(t, p.Outer.Closed())
			require.Positive(t, p.Outer.Area2())
			for _, hole := range p.Holes {
				require.True(t, hole.Closed())
				require.Negative(t, hole.Area2())
			}
		}
	}
}

func TestGridFromRowsRejectsRaggedRows(t *testing.T) {
	assert.Panics(t, func() { GridFromRows("##", "#") })
}

func TestInside(t *testing.T) {
	square := Loop{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}
	assert.True(t, Inside([]Loop{square}, 2, 1, 1))
	assert.False(t, Inside([]Loop{square}, 2, 5, 1))
	hole := Loop{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	assert.False(t, Inside([]Loop{square, hole}, 2, 1, 1))
	assert.True(t, Inside([]Loop{square, hole}, 2, 3, 3))
}

func TestBoundsAndReverse(t *testing.T) {
	p := Trace(GridFromRows("....", ".##.", ".#.."))[0]
	lo, hi := p.Bounds()
	assert.Equal(t, Point{1, 1}, lo)
	assert.Equal(t, Point{3, 3}, hi)
	assert.Equal(t, -p.Outer.Area2(), p.Outer.Reverse().Area2())
}
