// Package voxel defines the voxel model shared by the meshing pipeline:
// positions and their integer keys, face directions, plane frames, and a
// layered voxel store that notifies listeners of edits.
package voxel

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// TextureRef selects a texture for one side of a voxel. ID 0 means the side
// is painted with the voxel color.
type TextureRef struct {
	ID       int   `json:"id"`
	Rotation uint8 `json:"rotation"` // quarter turns, 0..3
	FlipU    bool  `json:"flipU,omitempty"`
	FlipV    bool  `json:"flipV,omitempty"`
}

// Voxel is one colored unit cube. Position, ID and Layer never change after
// creation; Color and Textures may.
type Voxel struct {
	ID       int64         `json:"id"`
	Pos      Position      `json:"pos"`
	Color    color.RGBA    `json:"color"`
	Textures [6]TextureRef `json:"textures"`
	Layer    int           `json:"layer"`
}

// Key returns the position index of the voxel.
func (v Voxel) Key() Key {
	return v.Pos.Key()
}

// Texture returns the texture reference of the side facing d.
func (v Voxel) Texture(d Direction) TextureRef {
	return v.Textures[d]
}

// SameContent reports whether two voxels would render identically.
func (v Voxel) SameContent(o Voxel) bool {
	return v.Color == o.Color && v.Textures == o.Textures
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q, expected #rrggbb or #rrggbbaa", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(h) == 6 {
		n = n<<8 | 0xff
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// HexColor formats c as "#rrggbb", or "#rrggbbaa" when not opaque.
func HexColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
