// Package hull incrementally tracks which voxel faces are exposed.
//
// A Tracker keeps, for each of the six face directions, the set of voxels
// whose face in that direction touches empty space. Every edit costs six
// neighbour lookups regardless of how many voxels exist, and the net change
// since the last drain is available per direction for the plane aggregator.
package hull

import (
	"fmt"
	"sort"

	"github.com/chazu/voxmesh/pkg/voxel"
)

type keySet map[voxel.Key]struct{}

// Tracker owns the exposed-face state of one layer. It is not safe for
// concurrent use.
type Tracker struct {
	voxels map[voxel.Key]voxel.Voxel
	faces  [6]map[voxel.Key]voxel.Voxel

	added   [6]keySet
	removed [6]keySet
	changed [6]keySet
}

// New returns an empty tracker.
func New() *Tracker {
	t := &Tracker{voxels: make(map[voxel.Key]voxel.Voxel)}
	for i := range t.faces {
		t.faces[i] = make(map[voxel.Key]voxel.Voxel)
		t.added[i] = make(keySet)
		t.removed[i] = make(keySet)
		t.changed[i] = make(keySet)
	}
	return t
}

// Update inserts v or refreshes its content. For each neighbour that exists
// the shared face pair becomes interior; every other face of v is exposed.
// Updating the same voxel again only records a content change. Inserting a
// voxel with a different id at an occupied position panics.
func (t *Tracker) Update(v voxel.Voxel) {
	k := v.Key()
	if cur, ok := t.voxels[k]; ok {
		invariant(cur.ID == v.ID, "update %s: voxel %d already occupies the position of voxel %d", k, cur.ID, v.ID)
		t.voxels[k] = v
		for _, d := range voxel.Directions {
			if _, exposed := t.faces[d][k]; !exposed {
				continue
			}
			t.faces[d][k] = v
			if !cur.SameContent(v) {
				t.markChanged(d, k)
			}
		}
		return
	}

	t.voxels[k] = v
	for _, d := range voxel.Directions {
		if nk, ok := neighbor(k, d); ok {
			if _, occupied := t.voxels[nk]; occupied {
				t.hide(d.Opposite(), nk)
				continue
			}
		}
		t.expose(d, k, v)
	}
}

// ClearPosition removes the voxel at k: its exposed faces disappear and the
// faces of existing neighbours that pointed at it are exposed again.
// Clearing an empty position is a no-op.
func (t *Tracker) ClearPosition(k voxel.Key) {
	if _, ok := t.voxels[k]; !ok {
		return
	}
	delete(t.voxels, k)
	for _, d := range voxel.Directions {
		if nk, ok := neighbor(k, d); ok {
			if nv, occupied := t.voxels[nk]; occupied {
				t.expose(d.Opposite(), nk, nv)
				continue
			}
		}
		t.hide(d, k)
	}
}

func (t *Tracker) expose(d voxel.Direction, k voxel.Key, v voxel.Voxel) {
	_, present := t.faces[d][k]
	invariant(!present, "expose %s face of %s: already exposed", d, k)
	t.faces[d][k] = v
	if _, ok := t.removed[d][k]; ok {
		// Back to its drained state, though possibly with another voxel.
		delete(t.removed[d], k)
		t.changed[d][k] = struct{}{}
		return
	}
	t.added[d][k] = struct{}{}
}

func (t *Tracker) hide(d voxel.Direction, k voxel.Key) {
	_, present := t.faces[d][k]
	invariant(present, "hide %s face of %s: face missing from hull", d, k)
	delete(t.faces[d], k)
	delete(t.changed[d], k)
	if _, ok := t.added[d][k]; ok {
		delete(t.added[d], k)
		return
	}
	t.removed[d][k] = struct{}{}
}

func (t *Tracker) markChanged(d voxel.Direction, k voxel.Key) {
	if _, ok := t.added[d][k]; ok {
		return
	}
	t.changed[d][k] = struct{}{}
}

// Additions drains the faces exposed in direction d since the previous call.
func (t *Tracker) Additions(d voxel.Direction) []voxel.Key {
	out := drain(t.added[d])
	t.added[d] = make(keySet)
	return out
}

// Removals drains the faces hidden in direction d since the previous call.
func (t *Tracker) Removals(d voxel.Direction) []voxel.Key {
	out := drain(t.removed[d])
	t.removed[d] = make(keySet)
	return out
}

// Changes drains the exposed faces in direction d whose content changed
// without a topology change since the previous call.
func (t *Tracker) Changes(d voxel.Direction) []voxel.Key {
	out := drain(t.changed[d])
	t.changed[d] = make(keySet)
	return out
}

// Pending reports whether any direction has undrained changes.
func (t *Tracker) Pending() bool {
	for i := range t.added {
		if len(t.added[i])+len(t.removed[i])+len(t.changed[i]) > 0 {
			return true
		}
	}
	return false
}

// Exposed returns the voxel whose face in direction d at k is exposed.
func (t *Tracker) Exposed(d voxel.Direction, k voxel.Key) (voxel.Voxel, bool) {
	v, ok := t.faces[d][k]
	return v, ok
}

// Voxel returns the voxel at k.
func (t *Tracker) Voxel(k voxel.Key) (voxel.Voxel, bool) {
	v, ok := t.voxels[k]
	return v, ok
}

// Occupied reports whether a voxel exists at (x, y, z).
func (t *Tracker) Occupied(x, y, z int) bool {
	return occupied(t.voxels, x, y, z)
}

// Len returns the number of exposed faces in direction d.
func (t *Tracker) Len(d voxel.Direction) int {
	return len(t.faces[d])
}

// Count returns the number of voxels.
func (t *Tracker) Count() int {
	return len(t.voxels)
}

// Validate checks the hull invariant for every voxel: a face is exposed if
// and only if no neighbour occupies the cell it points at. It is meant for
// tests and debugging; cost is linear in the voxel count.
func (t *Tracker) Validate() error {
	return validate(t.voxels, t.faces)
}

func validate(voxels map[voxel.Key]voxel.Voxel, faces [6]map[voxel.Key]voxel.Voxel) error {
	for k := range voxels {
		for _, d := range voxel.Directions {
			hasNeighbor := false
			if nk, ok := neighbor(k, d); ok {
				_, hasNeighbor = voxels[nk]
			}
			_, exposed := faces[d][k]
			if exposed == hasNeighbor {
				return fmt.Errorf("voxel %s face %s: exposed=%t neighbour=%t", k, d, exposed, hasNeighbor)
			}
		}
	}
	for _, d := range voxel.Directions {
		for k := range faces[d] {
			if _, ok := voxels[k]; !ok {
				return fmt.Errorf("orphaned %s face at %s", d, k)
			}
		}
	}
	return nil
}

func neighbor(k voxel.Key, d voxel.Direction) (voxel.Key, bool) {
	p := k.Position().Add(d.Offset())
	if !voxel.InRange(p.Get(d.Axis())) {
		return 0, false
	}
	return p.Key(), true
}

func occupied(voxels map[voxel.Key]voxel.Voxel, x, y, z int) bool {
	if !voxel.InRange(x) || !voxel.InRange(y) || !voxel.InRange(z) {
		return false
	}
	_, ok := voxels[voxel.Encode(x, y, z)]
	return ok
}

func drain(s keySet) []voxel.Key {
	out := make([]voxel.Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("hull: "+format, args...))
	}
}
