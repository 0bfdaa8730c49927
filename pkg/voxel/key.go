package voxel

import "fmt"

// Each axis is stored as a biased 21-bit field, so a key uses 63 bits and is
// always non-negative.
const (
	coordBits = 21
	coordMask = 1<<coordBits - 1
	coordBias = 1 << (coordBits - 1)

	// MinCoord and MaxCoord bound every axis of an encodable position.
	MinCoord = -coordBias
	MaxCoord = coordBias - 1
)

// Key is the position index of a voxel: a bijective packing of (x, y, z)
// into one integer. It is the only key used by the spatial maps.
type Key int64

// InRange reports whether c can be encoded on any axis.
func InRange(c int) bool {
	return c >= MinCoord && c <= MaxCoord
}

// Encode packs (x, y, z) into a Key. It panics if a coordinate is outside
// [MinCoord, MaxCoord].
func Encode(x, y, z int) Key {
	if !InRange(x) || !InRange(y) || !InRange(z) {
		panic(fmt.Sprintf("voxel: position (%d,%d,%d) outside [%d,%d]", x, y, z, MinCoord, MaxCoord))
	}
	return Key(int64(x+coordBias) |
		int64(y+coordBias)<<coordBits |
		int64(z+coordBias)<<(2*coordBits))
}

// Decode is the inverse of Encode.
func (k Key) Decode() (x, y, z int) {
	v := int64(k)
	x = int(v&coordMask) - coordBias
	y = int(v>>coordBits&coordMask) - coordBias
	z = int(v>>(2*coordBits)&coordMask) - coordBias
	return x, y, z
}

// Position returns the decoded position.
func (k Key) Position() Position {
	x, y, z := k.Decode()
	return Position{X: x, Y: y, Z: z}
}

// Neighbor returns the key of the adjacent cell in direction d.
func (k Key) Neighbor(d Direction) Key {
	return k.Position().Add(d.Offset()).Key()
}

func (k Key) String() string {
	x, y, z := k.Decode()
	return fmt.Sprintf("(%d,%d,%d)", x, y, z)
}
