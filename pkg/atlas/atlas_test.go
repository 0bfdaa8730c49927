package atlas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/voxmesh/pkg/polygon"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func tri(ax, ay, bx, by, cx, cy int) [3]polygon.Point {
	return [3]polygon.Point{{X: ax, Y: ay}, {X: bx, Y: by}, {X: cx, Y: cy}}
}

func flat(c color.RGBA) Sampler {
	return SamplerFunc(func(x, y int) color.RGBA { return c })
}

// checker colours pixels by the parity of x+y.
var checker = SamplerFunc(func(x, y int) color.RGBA {
	if (x+y)%2 == 0 {
		return red
	}
	return blue
})

func TestCoveredUsesTriangleNotBoundingBox(t *testing.T) {
	cells := Covered(tri(0, 0, 4, 0, 0, 4), DefaultEpsilon)
	// The 4×4 bounding box has 16 pixels; the ones above the diagonal are
	// untouched.
	assert.Len(t, cells, 10)
	for _, c := range cells {
		assert.Less(t, c.X+c.Y, 4, "pixel %v", c)
	}
}

func TestCoveredIgnoresGrazedPixels(t *testing.T) {
	// The hypotenuse of this triangle passes exactly through pixel corners.
	cells := Covered(tri(0, 0, 2, 0, 2, 2), DefaultEpsilon)
	assert.ElementsMatch(t, []image.Point{{0, 0}, {1, 0}, {1, 1}}, cells)
}

func TestUniformPatchesCollapse(t *testing.T) {
	p := NewPacker(Options{})
	a := p.Add(tri(0, 0, 8, 0, 8, 8), flat(red))
	b := p.Add(tri(0, 0, 8, 8, 0, 8), flat(red))
	c := p.Add(tri(0, 0, 1, 0, 1, 1), flat(blue))

	assert.Same(t, a.Entry, b.Entry)
	assert.NotSame(t, a.Entry, c.Entry)
	assert.True(t, a.Entry.Uniform)
	assert.Equal(t, image.Rect(0, 0, 1, 1), a.Entry.Image.Rect)
	assert.Equal(t, [2]float64{0.5, 0.5}, a.Local[2])

	st := p.Stats()
	assert.Equal(t, 3, st.Triangles)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 1, st.Reused)
	assert.Equal(t, 2, st.Uniform)
}

func TestIdenticalContentIsDeduplicated(t *testing.T) {
	p := NewPacker(Options{})
	// Same shape shifted by an even offset samples the same checker
	// pattern.
	a := p.Add(tri(0, 0, 3, 0, 0, 3), checker)
	b := p.Add(tri(10, 4, 13, 4, 10, 7), checker)
	c := p.Add(tri(1, 0, 4, 0, 1, 3), checker)

	require.Len(t, p.Entries(), 2)
	assert.Same(t, a.Entry, b.Entry)
	assert.NotSame(t, a.Entry, c.Entry, "odd shift inverts the pattern")
	assert.Equal(t, a.Local, b.Local)
}

func TestPatchNeverExceedsFootprint(t *testing.T) {
	p := NewPacker(Options{})
	tris := [][3]polygon.Point{
		tri(0, 0, 5, 0, 0, 3),
		tri(2, 1, 9, 4, 3, 6),
		tri(0, 0, 1, 0, 0, 1),
		tri(-4, -4, 0, -4, 0, 7),
	}
	for _, tr := range tris {
		pl := p.Add(tr, checker)
		r := pl.Entry.Image.Rect
		lo, hi := bounds(tr)
		assert.Positive(t, r.Dx())
		assert.Positive(t, r.Dy())
		assert.LessOrEqual(t, r.Dx(), hi.X-lo.X)
		assert.LessOrEqual(t, r.Dy(), hi.Y-lo.Y)
		for _, l := range pl.Local {
			assert.True(t, l[0] >= 0 && l[0] <= float64(r.Dx()))
			assert.True(t, l[1] >= 0 && l[1] <= float64(r.Dy()))
		}
	}
}

func bounds(tr [3]polygon.Point) (lo, hi polygon.Point) {
	lo, hi = tr[0], tr[0]
	for _, v := range tr[1:] {
		lo.X, lo.Y = min(lo.X, v.X), min(lo.Y, v.Y)
		hi.X, hi.Y = max(hi.X, v.X), max(hi.Y, v.Y)
	}
	return lo, hi
}

func TestPackShelvesAndUVs(t *testing.T) {
	p := NewPacker(Options{PageSize: 8, Padding: 1})
	big := p.Add(tri(0, 0, 4, 0, 0, 4), checker)
	small := p.Add(tri(0, 0, 2, 0, 0, 2), checker)
	huge := p.Add(tri(0, 0, 12, 0, 0, 3), checker)

	pages := p.Pack()
	require.Len(t, pages, 2)
	assert.Equal(t, 2, p.Stats().Pages)

	// The oversized patch gets its own page, cropped to its size.
	assert.Equal(t, 1, huge.Entry.Page)
	assert.Equal(t, image.Rect(0, 0, 12, 3), pages[1].Image.Rect)

	assert.Equal(t, 0, big.Entry.Page)
	assert.Equal(t, 0, small.Entry.Page)
	assert.Equal(t, image.Pt(0, 0), image.Pt(big.Entry.X, big.Entry.Y))
	assert.Equal(t, image.Pt(5, 0), image.Pt(small.Entry.X, small.Entry.Y))
	assert.Equal(t, image.Rect(0, 0, 7, 4), pages[0].Image.Rect)

	u, v := small.UV(0)
	assert.InDelta(t, 5.0/7.0, u, 1e-9)
	assert.InDelta(t, 0.0, v, 1e-9)

	// Every sampled pixel on the page matches the source patch.
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if x+y < 2 {
				assert.Equal(t, checker(x, y), pages[0].Image.RGBAAt(5+x, y))
			}
		}
	}
	assert.Same(t, pages[0], p.Pack()[0], "Pack is idempotent")
	assert.Panics(t, func() { p.Add(tri(0, 0, 1, 0, 0, 1), checker) })
}

func TestUVBeforePackPanics(t *testing.T) {
	p := NewPacker(Options{})
	pl := p.Add(tri(0, 0, 1, 0, 0, 1), checker)
	assert.Panics(t, func() { pl.UV(0) })
}

func TestPackersAreIndependent(t *testing.T) {
	a := NewPacker(Options{})
	b := NewPacker(Options{})
	a.Add(tri(0, 0, 1, 0, 0, 1), flat(red))
	assert.Empty(t, b.Entries())
}
