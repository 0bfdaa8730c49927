package voxel

import "fmt"

// Axis indices. Positions and frames index their components with these.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Position is an integer grid position. A voxel at P occupies the unit cube
// [P, P+1) on every axis.
type Position struct {
	X, Y, Z int
}

// Add returns p + q.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Key returns the position index of p.
func (p Position) Key() Key {
	return Encode(p.X, p.Y, p.Z)
}

// Get returns the component on the given axis.
func (p Position) Get(axis int) int {
	switch axis {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	case AxisZ:
		return p.Z
	}
	panic(fmt.Sprintf("voxel: invalid axis %d", axis))
}

// With returns p with the component on axis replaced by c.
func (p Position) With(axis, c int) Position {
	switch axis {
	case AxisX:
		p.X = c
	case AxisY:
		p.Y = c
	case AxisZ:
		p.Z = c
	default:
		panic(fmt.Sprintf("voxel: invalid axis %d", axis))
	}
	return p
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Direction is one of the six face directions of a voxel.
type Direction uint8

const (
	PosX Direction = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// Directions lists all six directions in index order.
var Directions = [6]Direction{PosX, NegX, PosY, NegY, PosZ, NegZ}

var directionNames = [6]string{"+x", "-x", "+y", "-y", "+z", "-z"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection parses the String form of a direction.
func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("invalid direction %q, expected one of %v", s, directionNames)
}

// Axis returns the axis the direction points along.
func (d Direction) Axis() int {
	return int(d) / 2
}

// Positive reports whether the direction points towards +axis.
func (d Direction) Positive() bool {
	return d%2 == 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Offset returns the unit step towards the neighbour in direction d.
func (d Direction) Offset() Position {
	step := 1
	if !d.Positive() {
		step = -1
	}
	return Position{}.With(d.Axis(), step)
}

// PlaneAxes returns the in-plane (u, v) axes of planes perpendicular to axis.
// X planes use (Y, Z), Y planes (X, Z) and Z planes (X, Y).
func PlaneAxes(axis int) (u, v int) {
	switch axis {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisX, AxisZ
	case AxisZ:
		return AxisX, AxisY
	}
	panic(fmt.Sprintf("voxel: invalid axis %d", axis))
}

// FlipWinding reports whether a counter-clockwise loop in the (u, v) frame of
// a plane facing d must be reversed to face outwards. The Y frame (X, Z) is
// left-handed with respect to +Y; the other two are right-handed.
func (d Direction) FlipWinding() bool {
	rightHanded := d.Axis() != AxisY
	return d.Positive() != rightHanded
}

// FaceCell returns the plane coordinate and in-plane cell of the face of the
// voxel at p that points in direction d.
func FaceCell(d Direction, p Position) (coord, u, v int) {
	axis := d.Axis()
	coord = p.Get(axis)
	if d.Positive() {
		coord++
	}
	ua, va := PlaneAxes(axis)
	return coord, p.Get(ua), p.Get(va)
}

// FaceVoxel is the inverse of FaceCell.
func FaceVoxel(d Direction, coord, u, v int) Position {
	axis := d.Axis()
	if d.Positive() {
		coord--
	}
	ua, va := PlaneAxes(axis)
	return Position{}.With(axis, coord).With(ua, u).With(va, v)
}

// Frame places a plane-local 2D grid in 3D: local point (u, v) is the grid
// corner at (U0+u, V0+v) on the plane Dir/Coord.
type Frame struct {
	Dir    Direction
	Coord  int
	U0, V0 int
}

// Corner returns the 3D grid corner for local point (u, v).
func (f Frame) Corner(u, v int) Position {
	axis := f.Dir.Axis()
	ua, va := PlaneAxes(axis)
	return Position{}.With(axis, f.Coord).With(ua, f.U0+u).With(va, f.V0+v)
}

// Voxel returns the position of the voxel owning local cell (u, v).
func (f Frame) Voxel(u, v int) Position {
	return FaceVoxel(f.Dir, f.Coord, f.U0+u, f.V0+v)
}
