package export

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// saveSTL writes triangles as a binary STL file.
func saveSTL(path string, tris [][3][3]float64) error {
	mesh := make([]*sdf.Triangle3, len(tris))
	for i, t := range tris {
		mesh[i] = &sdf.Triangle3{
			v3.Vec{X: t[0][0], Y: t[0][1], Z: t[0][2]},
			v3.Vec{X: t[1][0], Y: t[1][1], Z: t[1][2]},
			v3.Vec{X: t[2][0], Y: t[2][1], Z: t[2][2]},
		}
	}
	return render.SaveSTL(path, mesh)
}
