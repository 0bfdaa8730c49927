package mesh

import "testing"

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Builder tests ---

func TestBuilderMergesSharedVertices(t *testing.T) {
	b := NewBuilder("tile", "+z", [3]float32{0, 0, 1})
	p0 := b.Vertex([3]float32{0, 0, 1}, [2]float32{0, 0})
	p1 := b.Vertex([3]float32{1, 0, 1}, [2]float32{1, 0})
	p2 := b.Vertex([3]float32{1, 1, 1}, [2]float32{1, 1})
	p3 := b.Vertex([3]float32{0, 1, 1}, [2]float32{0, 1})
	b.Triangle(p0, p1, p2)
	b.Triangle(p0, b.Vertex([3]float32{1, 1, 1}, [2]float32{1, 1}), p3)

	m := b.Mesh()
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
	if got := m.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount() = %d, want 2", got)
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("len(Normals) = %d, want %d", len(m.Normals), len(m.Vertices))
	}
	if len(m.UVs) != 2*m.VertexCount() {
		t.Errorf("len(UVs) = %d, want %d", len(m.UVs), 2*m.VertexCount())
	}
	for i := 0; i < m.VertexCount(); i++ {
		if m.Normals[3*i+2] != 1 {
			t.Errorf("normal %d = %v, want +z", i, m.Normals[3*i:3*i+3])
		}
	}
	if m.Name != "tile" || m.Direction != "+z" {
		t.Errorf("Name, Direction = %q, %q", m.Name, m.Direction)
	}
}

func TestBuilderKeepsSeamVertices(t *testing.T) {
	b := NewBuilder("tile", "-x", [3]float32{-1, 0, 0})
	a := b.Vertex([3]float32{0, 0, 0}, [2]float32{0, 0})
	c := b.Vertex([3]float32{0, 0, 0}, [2]float32{0.5, 0})
	if a == c {
		t.Error("vertices with different UVs must not merge")
	}
}
