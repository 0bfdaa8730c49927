package plane

import (
	"sort"

	"github.com/chazu/voxmesh/pkg/polygon"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// FaceSource lists the voxels exposing a face in each direction.
// hull.Snapshot satisfies it.
type FaceSource interface {
	Faces(d voxel.Direction) []voxel.Voxel
}

// Slice is the occupancy of one whole plane, cropped to its bounding box.
type Slice struct {
	Key   PlaneKey
	Frame voxel.Frame
	Grid  *polygon.Grid

	cells []voxel.Voxel
}

// Voxel returns the voxel owning local cell (u, v).
func (s *Slice) Voxel(u, v int) (voxel.Voxel, bool) {
	if !s.Grid.At(u, v) {
		return voxel.Voxel{}, false
	}
	return s.cells[v*s.Grid.W+u], true
}

// Slices groups the faces of src into whole planes, ordered by direction
// and then coordinate.
func Slices(src FaceSource) []*Slice {
	type cell struct {
		u, v int
		vox  voxel.Voxel
	}
	var out []*Slice
	for _, d := range voxel.Directions {
		byCoord := make(map[int][]cell)
		for _, vx := range src.Faces(d) {
			coord, u, v := voxel.FaceCell(d, vx.Pos)
			byCoord[coord] = append(byCoord[coord], cell{u, v, vx})
		}
		coords := make([]int, 0, len(byCoord))
		for c := range byCoord {
			coords = append(coords, c)
		}
		sort.Ints(coords)
		for _, c := range coords {
			cells := byCoord[c]
			u0, v0, u1, v1 := cells[0].u, cells[0].v, cells[0].u, cells[0].v
			for _, ce := range cells {
				u0, v0 = min(u0, ce.u), min(v0, ce.v)
				u1, v1 = max(u1, ce.u), max(v1, ce.v)
			}
			s := &Slice{
				Key:   PlaneKey{Dir: d, Coord: c},
				Frame: voxel.Frame{Dir: d, Coord: c, U0: u0, V0: v0},
				Grid:  polygon.NewGrid(u1-u0+1, v1-v0+1),
			}
			s.cells = make([]voxel.Voxel, s.Grid.W*s.Grid.H)
			for _, ce := range cells {
				lu, lv := ce.u-u0, ce.v-v0
				s.Grid.Set(lu, lv, true)
				s.cells[lv*s.Grid.W+lu] = ce.vox
			}
			out = append(out, s)
		}
	}
	return out
}
