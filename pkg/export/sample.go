package export

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/chazu/voxmesh/pkg/plane"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// textures scales source textures to the export resolution on first use.
type textures struct {
	src    map[int]image.Image
	size   int
	scaled map[int]*image.RGBA
}

func newTextures(src map[int]image.Image, size int) *textures {
	return &textures{src: src, size: size, scaled: make(map[int]*image.RGBA)}
}

func (t *textures) get(id int) *image.RGBA {
	if img, ok := t.scaled[id]; ok {
		return img
	}
	src, ok := t.src[id]
	if !ok {
		t.scaled[id] = nil
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, t.size, t.size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	t.scaled[id] = dst
	return dst
}

// sliceSampler reads the colour of a plane at texel resolution. Each cell
// spans scale×scale texels; cells without a face are transparent.
type sliceSampler struct {
	sl    *plane.Slice
	scale int
	tex   *textures
}

func (s sliceSampler) At(x, y int) color.RGBA {
	u, v := floorDiv(x, s.scale), floorDiv(y, s.scale)
	vx, ok := s.sl.Voxel(u, v)
	if !ok {
		return color.RGBA{}
	}
	ref := vx.Texture(s.sl.Key.Dir)
	if ref.ID == 0 {
		return vx.Color
	}
	img := s.tex.get(ref.ID)
	if img == nil {
		return vx.Color
	}
	tx, ty := orient(x-u*s.scale, y-v*s.scale, s.scale, ref)
	return img.RGBAAt(tx, ty)
}

// orient maps a texel of a face to the texel of its texture: flips first,
// then quarter turns.
func orient(x, y, n int, ref voxel.TextureRef) (int, int) {
	if ref.FlipU {
		x = n - 1 - x
	}
	if ref.FlipV {
		y = n - 1 - y
	}
	for i := uint8(0); i < ref.Rotation%4; i++ {
		x, y = n-1-y, x
	}
	return x, y
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
