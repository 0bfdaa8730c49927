package export

import "github.com/chazu/voxmesh/pkg/voxel"

// Transform maps a grid corner into the output coordinate system: Z up with
// Y and Z swapped, all three axes inverted, and one voxel spanning two
// units centred on the voxel. Every grid coordinate g becomes 1 - 2g, so
// the result is exact.
//
// The swap and the three inversions together keep handedness, so triangle
// winding carries over unchanged.
func Transform(p voxel.Position) [3]float64 {
	return [3]float64{
		float64(1 - 2*p.X),
		float64(1 - 2*p.Z),
		float64(1 - 2*p.Y),
	}
}
