// Package mesh holds the flat triangle batches handed to renderers.
package mesh

import "image"

// Mesh is a triangle batch suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex,
// indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices  []float32 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32 `json:"normals"`   // [nx0,ny0,nz0, ...]
	UVs       []float32 `json:"uvs"`       // [u0,v0, u1,v1, ...]
	Indices   []uint32  `json:"indices"`   // [i0,i1,i2, ...] triangles
	Name      string    `json:"name"`      // which tile or plane this came from
	Direction string    `json:"direction"` // face direction, e.g. "+x"

	// Texture is sampled through UVs; nil means untextured.
	Texture *image.RGBA `json:"-"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Builder assembles a Mesh whose vertices all share one normal, merging
// vertices with equal position and UV.
type Builder struct {
	m      *Mesh
	normal [3]float32
	index  map[vertexKey]uint32
}

type vertexKey struct {
	p  [3]float32
	uv [2]float32
}

// NewBuilder starts a mesh with the given name and face normal.
func NewBuilder(name, direction string, normal [3]float32) *Builder {
	return &Builder{
		m:      &Mesh{Name: name, Direction: direction},
		normal: normal,
		index:  make(map[vertexKey]uint32),
	}
}

// Vertex returns the index of the vertex at p with texture coordinate uv,
// adding it if needed.
func (b *Builder) Vertex(p [3]float32, uv [2]float32) uint32 {
	k := vertexKey{p, uv}
	if i, ok := b.index[k]; ok {
		return i
	}
	i := uint32(b.m.VertexCount())
	b.m.Vertices = append(b.m.Vertices, p[0], p[1], p[2])
	b.m.Normals = append(b.m.Normals, b.normal[0], b.normal[1], b.normal[2])
	b.m.UVs = append(b.m.UVs, uv[0], uv[1])
	b.index[k] = i
	return i
}

// Triangle appends a triangle by vertex index.
func (b *Builder) Triangle(i, j, k uint32) {
	b.m.Indices = append(b.m.Indices, i, j, k)
}

// Mesh returns the assembled mesh. The builder must not be used afterwards.
func (b *Builder) Mesh() *Mesh {
	return b.m
}
