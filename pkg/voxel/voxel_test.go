package voxel

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][3]int{
		{0, 0, 0},
		{1, -1, 2},
		{MinCoord, MinCoord, MinCoord},
		{MaxCoord, MaxCoord, MaxCoord},
		{MinCoord, MaxCoord, 0},
		{-32768, 32767, -1},
	}
	for _, c := range cases {
		k := Encode(c[0], c[1], c[2])
		x, y, z := k.Decode()
		assert.Equal(t, c, [3]int{x, y, z})
		assert.GreaterOrEqual(t, int64(k), int64(0))
	}

	rng := rand.New(rand.NewSource(7))
	seen := make(map[Key][3]int)
	for i := 0; i < 10000; i++ {
		p := [3]int{rng.Intn(1 << 17), rng.Intn(1 << 17), rng.Intn(1 << 17)}
		for j := range p {
			p[j] -= 1 << 16
		}
		k := Encode(p[0], p[1], p[2])
		if prev, ok := seen[k]; ok {
			require.Equal(t, prev, p, "key collision")
		}
		seen[k] = p
		x, y, z := k.Decode()
		require.Equal(t, p, [3]int{x, y, z})
	}
}

func TestEncodeOutOfRangePanics(t *testing.T) {
	assert.Panics(t, func() { Encode(MaxCoord+1, 0, 0) })
	assert.Panics(t, func() { Encode(0, MinCoord-1, 0) })
}

func TestKeyNeighbor(t *testing.T) {
	k := Encode(3, 4, 5)
	assert.Equal(t, Encode(4, 4, 5), k.Neighbor(PosX))
	assert.Equal(t, Encode(3, 3, 5), k.Neighbor(NegY))
	assert.Equal(t, Encode(3, 4, 6), k.Neighbor(PosZ))
}

func TestDirections(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		assert.NotEqual(t, d.Positive(), d.Opposite().Positive())
		assert.Equal(t, d.Axis(), d.Opposite().Axis())
		off := d.Offset()
		assert.Equal(t, Position{}, off.Add(d.Opposite().Offset()))

		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	_, err := ParseDirection("up")
	assert.Error(t, err)
}

func TestFaceCellInverse(t *testing.T) {
	p := Position{X: -2, Y: 7, Z: 11}
	for _, d := range Directions {
		coord, u, v := FaceCell(d, p)
		assert.Equal(t, p, FaceVoxel(d, coord, u, v), "direction %s", d)
	}
	coord, u, v := FaceCell(PosX, p)
	assert.Equal(t, [3]int{-1, 7, 11}, [3]int{coord, u, v})
	coord, u, v = FaceCell(NegY, p)
	assert.Equal(t, [3]int{7, -2, 11}, [3]int{coord, u, v})
}

func TestFrameCornerAndWinding(t *testing.T) {
	f := Frame{Dir: PosZ, Coord: 4, U0: 10, V0: 20}
	assert.Equal(t, Position{X: 11, Y: 22, Z: 4}, f.Corner(1, 2))
	assert.Equal(t, Position{X: 11, Y: 22, Z: 3}, f.Voxel(1, 2))

	assert.False(t, PosX.FlipWinding())
	assert.True(t, NegX.FlipWinding())
	assert.True(t, PosY.FlipWinding())
	assert.False(t, NegY.FlipWinding())
	assert.False(t, PosZ.FlipWinding())
	assert.True(t, NegZ.FlipWinding())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, A: 0xff}, c)
	assert.Equal(t, "#ff8000", HexColor(c))

	c, err = ParseColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)
	assert.Equal(t, "#10203040", HexColor(c))

	_, err = ParseColor("#12")
	assert.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)
}

type recordingListener struct {
	added, removed, changed []Voxel
	visibility              []bool
}

func (r *recordingListener) VoxelAdded(v Voxel)   { r.added = append(r.added, v) }
func (r *recordingListener) VoxelRemoved(v Voxel) { r.removed = append(r.removed, v) }
func (r *recordingListener) VoxelChanged(v Voxel) { r.changed = append(r.changed, v) }
func (r *recordingListener) LayerVisibility(layer int, visible bool) {
	r.visibility = append(r.visibility, visible)
}

func TestStoreEvents(t *testing.T) {
	s := NewStore()
	rec := &recordingListener{}
	s.Subscribe(rec)

	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	v, err := s.Put(Voxel{Pos: Position{X: 1}, Color: red})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.ID)
	require.Len(t, rec.added, 1)

	// Same content is not an edit.
	_, err = s.Put(Voxel{Pos: Position{X: 1}, Color: red})
	require.NoError(t, err)
	assert.Len(t, rec.changed, 0)

	v2, err := s.Put(Voxel{Pos: Position{X: 1}, Color: blue})
	require.NoError(t, err)
	assert.Equal(t, v.ID, v2.ID, "recolor keeps the id")
	require.Len(t, rec.changed, 1)
	assert.Equal(t, blue, rec.changed[0].Color)

	assert.True(t, s.Remove(DefaultLayer, Position{X: 1}))
	assert.False(t, s.Remove(DefaultLayer, Position{X: 1}))
	require.Len(t, rec.removed, 1)
	assert.Equal(t, 0, s.Count())

	_, err = s.Put(Voxel{Layer: 9})
	assert.ErrorIs(t, err, ErrUnknownLayer)

	layer := s.AddLayer("details")
	require.NoError(t, s.SetVisible(layer, false))
	require.NoError(t, s.SetVisible(layer, false))
	assert.Equal(t, []bool{false}, rec.visibility)
	assert.ErrorIs(t, s.SetVisible(42, true), ErrUnknownLayer)
	assert.Equal(t, layer, s.LayerByName("details").ID)
	assert.Equal(t, []int{DefaultLayer, layer}, s.Layers())
}

func TestStoreVoxelsOrderedByID(t *testing.T) {
	s := NewStore()
	for i := 5; i > 0; i-- {
		_, err := s.Put(Voxel{Pos: Position{X: i}})
		require.NoError(t, err)
	}
	vs := s.Voxels(DefaultLayer)
	require.Len(t, vs, 5)
	for i := 1; i < len(vs); i++ {
		assert.Less(t, vs[i-1].ID, vs[i].ID)
	}
	v, ok := s.Get(DefaultLayer, Position{X: 5})
	require.True(t, ok)
	assert.Equal(t, int64(1), v.ID)
}

func TestStoreSetColor(t *testing.T) {
	s := NewStore()
	rec := &recordingListener{}
	s.Subscribe(rec)
	_, err := s.Put(Voxel{Pos: Position{Y: 2}})
	require.NoError(t, err)

	green := color.RGBA{G: 255, A: 255}
	assert.True(t, s.SetColor(DefaultLayer, Position{Y: 2}, green))
	assert.False(t, s.SetColor(DefaultLayer, Position{Y: 3}, green))
	require.Len(t, rec.changed, 1)
	v, _ := s.Get(DefaultLayer, Position{Y: 2})
	assert.Equal(t, green, v.Color)
}
