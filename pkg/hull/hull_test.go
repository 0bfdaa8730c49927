package hull

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/voxmesh/pkg/voxel"
)

func vox(id int64, x, y, z int) voxel.Voxel {
	return voxel.Voxel{ID: id, Pos: voxel.Position{X: x, Y: y, Z: z}, Color: color.RGBA{R: 200, A: 255}}
}

func totalFaces(t *Tracker) int {
	n := 0
	for _, d := range voxel.Directions {
		n += t.Len(d)
	}
	return n
}

func drainAll(t *Tracker) (added, removed, changed int) {
	for _, d := range voxel.Directions {
		added += len(t.Additions(d))
		removed += len(t.Removals(d))
		changed += len(t.Changes(d))
	}
	return
}

func TestSingleVoxelExposesSixFaces(t *testing.T) {
	tr := New()
	v := vox(1, 0, 0, 0)
	tr.Update(v)

	assert.Equal(t, 6, totalFaces(tr))
	for _, d := range voxel.Directions {
		got, ok := tr.Exposed(d, v.Key())
		require.True(t, ok, "direction %s", d)
		assert.Equal(t, v.ID, got.ID)
		assert.Equal(t, []voxel.Key{v.Key()}, tr.Additions(d))
		assert.Empty(t, tr.Additions(d), "second drain must be empty")
	}
	require.NoError(t, tr.Validate())
}

func TestAdjacentVoxelsHideSharedFaces(t *testing.T) {
	tr := New()
	a := vox(1, 0, 0, 0)
	b := vox(2, 1, 0, 0)
	tr.Update(a)
	drainAll(tr)
	tr.Update(b)

	_, aExposed := tr.Exposed(voxel.PosX, a.Key())
	_, bExposed := tr.Exposed(voxel.NegX, b.Key())
	assert.False(t, aExposed)
	assert.False(t, bExposed)
	assert.Equal(t, 10, totalFaces(tr))

	assert.Equal(t, []voxel.Key{a.Key()}, tr.Removals(voxel.PosX))
	assert.Equal(t, []voxel.Key{b.Key()}, tr.Additions(voxel.PosX))
	assert.Empty(t, tr.Additions(voxel.NegX))
	require.NoError(t, tr.Validate())

	tr.ClearPosition(b.Key())
	_, aExposed = tr.Exposed(voxel.PosX, a.Key())
	assert.True(t, aExposed)
	assert.Equal(t, 6, totalFaces(tr))
	// b's face was already drained as an addition, so clearing b reports it
	// removed while a's face comes back.
	assert.Equal(t, []voxel.Key{a.Key()}, tr.Additions(voxel.PosX))
	assert.Equal(t, []voxel.Key{b.Key()}, tr.Removals(voxel.PosX))
	require.NoError(t, tr.Validate())
}

func TestAddRemoveBeforeDrainCancels(t *testing.T) {
	tr := New()
	v := vox(1, 5, 5, 5)
	tr.Update(v)
	tr.ClearPosition(v.Key())
	added, removed, changed := drainAll(tr)
	assert.Zero(t, added)
	assert.Zero(t, removed)
	assert.Zero(t, changed)
	assert.False(t, tr.Pending())
}

func TestRecolorIsContentChangeOnly(t *testing.T) {
	tr := New()
	v := vox(1, 0, 0, 0)
	tr.Update(v)
	tr.Update(vox(2, 0, 1, 0))
	drainAll(tr)

	v.Color = color.RGBA{G: 255, A: 255}
	tr.Update(v)
	added, removed, changed := drainAll(tr)
	assert.Zero(t, added)
	assert.Zero(t, removed)
	assert.Equal(t, 5, changed, "only exposed faces change")

	got, ok := tr.Exposed(voxel.NegY, v.Key())
	require.True(t, ok)
	assert.Equal(t, v.Color, got.Color)

	// Same content: nothing to refresh.
	tr.Update(v)
	_, _, changed = drainAll(tr)
	assert.Zero(t, changed)
}

func TestDifferentVoxelAtSameKeyPanics(t *testing.T) {
	tr := New()
	tr.Update(vox(1, 0, 0, 0))
	assert.Panics(t, func() { tr.Update(vox(2, 0, 0, 0)) })
}

func TestClearEmptyPositionIsNoop(t *testing.T) {
	tr := New()
	tr.ClearPosition(voxel.Encode(1, 2, 3))
	assert.False(t, tr.Pending())
}

func TestHullInvariantRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := New()
	live := make(map[voxel.Key]bool)
	var nextID int64
	for i := 0; i < 3000; i++ {
		x, y, z := rng.Intn(8), rng.Intn(8), rng.Intn(8)
		k := voxel.Encode(x, y, z)
		if live[k] {
			tr.ClearPosition(k)
			delete(live, k)
		} else {
			nextID++
			tr.Update(vox(nextID, x, y, z))
			live[k] = true
		}
		if i%250 == 0 {
			drainAll(tr)
			require.NoError(t, tr.Validate(), "after %d edits", i)
		}
	}
	require.NoError(t, tr.Validate())
	assert.Equal(t, len(live), tr.Count())
}

func TestInsertRemoveAnyOrderRestoresEmptyHull(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tr := New()
		var keys []voxel.Key
		seen := make(map[voxel.Key]bool)
		for len(keys) < 200 {
			x, y, z := rng.Intn(7)-3, rng.Intn(7)-3, rng.Intn(7)-3
			k := voxel.Encode(x, y, z)
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
			tr.Update(vox(int64(len(keys)), x, y, z))
		}
		drainAll(tr)
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		for _, k := range keys {
			tr.ClearPosition(k)
		}
		assert.Zero(t, tr.Count())
		assert.Zero(t, totalFaces(tr), "seed %d left orphaned faces", seed)
		added, _, changed := drainAll(tr)
		assert.Zero(t, added)
		assert.Zero(t, changed)
		assert.False(t, tr.Pending())
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	tr := New()
	tr.Update(vox(1, 0, 0, 0))
	snap := tr.Snapshot(3)
	tr.Update(vox(2, 1, 0, 0))
	tr.ClearPosition(voxel.Encode(0, 0, 0))

	assert.Equal(t, 3, snap.Layer)
	assert.Equal(t, 1, snap.Count())
	assert.True(t, snap.Occupied(0, 0, 0))
	assert.False(t, snap.Occupied(1, 0, 0))
	assert.Len(t, snap.Faces(voxel.PosX), 1)
	require.NoError(t, snap.Validate())

	built := SnapshotOf(0, []voxel.Voxel{vox(1, 0, 0, 0), vox(2, 0, 0, 1)})
	assert.Equal(t, 2, built.Len(voxel.PosX))
	assert.Equal(t, 2, built.Len(voxel.NegY))
	assert.Equal(t, 1, built.Len(voxel.PosZ))
	assert.Equal(t, 1, built.Len(voxel.NegZ))
}

func TestVoxelAtCoordinateLimit(t *testing.T) {
	tr := New()
	v := vox(1, voxel.MaxCoord, 0, voxel.MinCoord)
	tr.Update(v)
	assert.Equal(t, 6, totalFaces(tr))
	tr.ClearPosition(v.Key())
	assert.Zero(t, totalFaces(tr))
}

func TestVisibleSnapshotsSkipHiddenLayers(t *testing.T) {
	s := voxel.NewStore()
	trim := s.AddLayer("trim")
	detail := s.AddLayer("detail")
	for _, v := range []voxel.Voxel{vox(0, 0, 0, 0), vox(0, 5, 0, 0)} {
		v.Layer = trim
		_, err := s.Put(v)
		require.NoError(t, err)
	}
	_, err := s.Put(vox(0, 0, 0, 0))
	require.NoError(t, err)
	require.NoError(t, s.SetVisible(detail, false))

	snaps := VisibleSnapshots(s)
	require.Len(t, snaps, 2)
	assert.Equal(t, 0, snaps[0].Layer)
	assert.Equal(t, 1, snaps[0].Count())
	assert.Equal(t, trim, snaps[1].Layer)
	assert.Equal(t, 2, snaps[1].Count())
}
