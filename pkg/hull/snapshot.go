package hull

import (
	"sort"

	"github.com/chazu/voxmesh/pkg/voxel"
)

// Snapshot is a frozen copy of a tracker's voxels and exposed faces. It
// shares nothing with the tracker, so an export worker can read it while the
// editor keeps mutating the live state.
type Snapshot struct {
	Layer int

	voxels map[voxel.Key]voxel.Voxel
	faces  [6]map[voxel.Key]voxel.Voxel
}

// Snapshot copies the current state.
func (t *Tracker) Snapshot(layer int) *Snapshot {
	s := &Snapshot{Layer: layer, voxels: make(map[voxel.Key]voxel.Voxel, len(t.voxels))}
	for k, v := range t.voxels {
		s.voxels[k] = v
	}
	for i := range t.faces {
		s.faces[i] = make(map[voxel.Key]voxel.Voxel, len(t.faces[i]))
		for k, v := range t.faces[i] {
			s.faces[i][k] = v
		}
	}
	return s
}

// SnapshotOf builds a snapshot directly from a voxel list, as supplied by a
// voxel store for one layer.
func SnapshotOf(layer int, voxels []voxel.Voxel) *Snapshot {
	t := New()
	for _, v := range voxels {
		t.Update(v)
	}
	return t.Snapshot(layer)
}

// VisibleSnapshots snapshots every visible layer of s in layer order.
func VisibleSnapshots(s *voxel.Store) []*Snapshot {
	var out []*Snapshot
	for _, id := range s.Layers() {
		if l := s.Layer(id); l.Visible {
			out = append(out, SnapshotOf(id, s.Voxels(id)))
		}
	}
	return out
}

// Occupied reports whether a voxel exists at (x, y, z).
func (s *Snapshot) Occupied(x, y, z int) bool {
	return occupied(s.voxels, x, y, z)
}

// Voxel returns the voxel at k.
func (s *Snapshot) Voxel(k voxel.Key) (voxel.Voxel, bool) {
	v, ok := s.voxels[k]
	return v, ok
}

// Exposed returns the voxel whose face in direction d at k is exposed.
func (s *Snapshot) Exposed(d voxel.Direction, k voxel.Key) (voxel.Voxel, bool) {
	v, ok := s.faces[d][k]
	return v, ok
}

// Faces returns the voxels exposing a face in direction d, ordered by key.
func (s *Snapshot) Faces(d voxel.Direction) []voxel.Voxel {
	out := make([]voxel.Voxel, 0, len(s.faces[d]))
	for _, v := range s.faces[d] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Len returns the number of exposed faces in direction d.
func (s *Snapshot) Len(d voxel.Direction) int {
	return len(s.faces[d])
}

// Count returns the number of voxels.
func (s *Snapshot) Count() int {
	return len(s.voxels)
}

// Validate checks the hull invariant, see Tracker.Validate.
func (s *Snapshot) Validate() error {
	return validate(s.voxels, s.faces)
}
