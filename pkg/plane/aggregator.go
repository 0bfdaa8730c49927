// Package plane groups exposed faces into per-plane tiles and schedules
// their re-triangulation a bounded number of tiles at a time.
package plane

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/chazu/voxmesh/pkg/polygon"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// Defaults for Options.
const (
	DefaultTileSize        = 32
	DefaultMaxTilesPerCall = 10
)

// DirtyState is how much work a tile needs.
type DirtyState uint8

const (
	// Clean tiles are up to date.
	Clean DirtyState = iota
	// Soft tiles only changed texture content; their triangulation stands.
	Soft
	// Full tiles changed topology and must be re-triangulated.
	Full
)

func (s DirtyState) String() string {
	switch s {
	case Clean:
		return "clean"
	case Soft:
		return "soft"
	case Full:
		return "full"
	}
	return fmt.Sprintf("DirtyState(%d)", uint8(s))
}

// PlaneKey identifies all faces of one direction at one coordinate.
type PlaneKey struct {
	Dir   voxel.Direction
	Coord int
}

// TileKey identifies one tile of a plane. U and V are tile indices, so the
// tile covers in-plane cells [U*size, (U+1)*size) × [V*size, (V+1)*size).
type TileKey struct {
	Plane PlaneKey
	U, V  int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s@%d[%d,%d]", k.Plane.Dir, k.Plane.Coord, k.U, k.V)
}

// Options configures an Aggregator.
type Options struct {
	TileSize        int
	MaxTilesPerCall int
}

func (o Options) withDefaults() Options {
	if o.TileSize <= 0 {
		o.TileSize = DefaultTileSize
	}
	if o.MaxTilesPerCall <= 0 {
		o.MaxTilesPerCall = DefaultMaxTilesPerCall
	}
	return o
}

// Invalidation is one tile handed out for refresh.
type Invalidation struct {
	Key   TileKey
	State DirtyState
	// Removed is set when the tile no longer holds any face; the renderer
	// drops its batch.
	Removed bool
	// Frame maps the tile's local cells to 3D; local (0, 0) is the tile
	// origin.
	Frame voxel.Frame
	// Grid is a copy of the tile occupancy, nil when Removed.
	Grid *polygon.Grid
}

type tile struct {
	bits   []uint64
	count  int
	state  DirtyState
	queued bool
}

type planeState struct {
	tiles map[[2]int]*tile
}

// DeltaSource supplies drained hull deltas. hull.Tracker satisfies it.
type DeltaSource interface {
	Additions(d voxel.Direction) []voxel.Key
	Removals(d voxel.Direction) []voxel.Key
	Changes(d voxel.Direction) []voxel.Key
}

// Aggregator owns the plane and tile bookkeeping of one layer. It reads hull
// deltas but never mutates the hull. It is not safe for concurrent use.
type Aggregator struct {
	opts   Options
	planes map[PlaneKey]*planeState
	queue  [6][]TileKey
}

// NewAggregator returns an empty aggregator.
func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{opts: opts.withDefaults(), planes: make(map[PlaneKey]*planeState)}
}

// Options returns the effective options.
func (a *Aggregator) Options() Options { return a.opts }

// AddFace records the exposed face of the voxel at k in direction d.
func (a *Aggregator) AddFace(d voxel.Direction, k voxel.Key) {
	a.toggle(d, k, true)
}

// RemoveFace forgets the face of the voxel at k in direction d.
func (a *Aggregator) RemoveFace(d voxel.Direction, k voxel.Key) {
	a.toggle(d, k, false)
}

// TouchFace marks the tile holding the face soft dirty. Faces the
// aggregator does not hold are ignored.
func (a *Aggregator) TouchFace(d voxel.Direction, k voxel.Key) {
	t, key, bit := a.lookup(d, k, false)
	if t == nil || t.bits[bit/64]&(1<<(bit%64)) == 0 {
		return
	}
	a.mark(t, key, Soft)
}

// Sync drains every direction of src and applies the deltas. It returns the
// number of faces applied.
func (a *Aggregator) Sync(src DeltaSource) int {
	n := 0
	for _, d := range voxel.Directions {
		for _, k := range src.Removals(d) {
			a.RemoveFace(d, k)
			n++
		}
		for _, k := range src.Additions(d) {
			a.AddFace(d, k)
			n++
		}
		for _, k := range src.Changes(d) {
			a.TouchFace(d, k)
			n++
		}
	}
	return n
}

func (a *Aggregator) toggle(d voxel.Direction, k voxel.Key, on bool) {
	t, key, bit := a.lookup(d, k, on)
	if t == nil {
		return
	}
	word, mask := bit/64, uint64(1)<<(bit%64)
	set := t.bits[word]&mask != 0
	if set == on {
		return
	}
	if on {
		t.bits[word] |= mask
		t.count++
	} else {
		t.bits[word] &^= mask
		t.count--
	}
	a.mark(t, key, Full)
}

// lookup finds the tile holding the face, creating plane and tile when
// create is set.
func (a *Aggregator) lookup(d voxel.Direction, k voxel.Key, create bool) (*tile, TileKey, int) {
	coord, u, v := voxel.FaceCell(d, k.Position())
	pk := PlaneKey{Dir: d, Coord: coord}
	size := a.opts.TileSize
	tu, tv := floorDiv(u, size), floorDiv(v, size)
	key := TileKey{Plane: pk, U: tu, V: tv}
	bit := (v-tv*size)*size + (u - tu*size)

	p, ok := a.planes[pk]
	if !ok {
		if !create {
			return nil, key, bit
		}
		p = &planeState{tiles: make(map[[2]int]*tile)}
		a.planes[pk] = p
	}
	t, ok := p.tiles[[2]int{tu, tv}]
	if !ok {
		if !create {
			return nil, key, bit
		}
		t = &tile{bits: make([]uint64, (size*size+63)/64)}
		p.tiles[[2]int{tu, tv}] = t
	}
	return t, key, bit
}

func (a *Aggregator) mark(t *tile, key TileKey, s DirtyState) {
	if s > t.state {
		t.state = s
	}
	if !t.queued {
		t.queued = true
		a.queue[key.Plane.Dir] = append(a.queue[key.Plane.Dir], key)
	}
}

// InvalidTiles hands out at most MaxTilesPerCall dirty tiles of direction d
// in the order they were first dirtied, and marks them clean. drained
// reports that no dirty tile of d is left.
func (a *Aggregator) InvalidTiles(d voxel.Direction) (out []Invalidation, drained bool) {
	q := a.queue[d]
	n := min(len(q), a.opts.MaxTilesPerCall)
	for _, key := range q[:n] {
		out = append(out, a.invalidate(key))
	}
	a.queue[d] = q[n:]
	if len(a.queue[d]) == 0 {
		a.queue[d] = nil
	}
	return out, len(a.queue[d]) == 0
}

func (a *Aggregator) invalidate(key TileKey) Invalidation {
	size := a.opts.TileSize
	inv := Invalidation{
		Key: key,
		Frame: voxel.Frame{
			Dir:   key.Plane.Dir,
			Coord: key.Plane.Coord,
			U0:    key.U * size,
			V0:    key.V * size,
		},
	}
	p := a.planes[key.Plane]
	t := p.tiles[[2]int{key.U, key.V}]
	inv.State = t.state
	t.state = Clean
	t.queued = false
	if t.count == 0 {
		inv.Removed = true
		delete(p.tiles, [2]int{key.U, key.V})
		if len(p.tiles) == 0 {
			delete(a.planes, key.Plane)
		}
		return inv
	}
	g := polygon.NewGrid(size, size)
	for w, word := range t.bits {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			word &^= 1 << b
			i := w*64 + b
			g.Set(i%size, i/size, true)
		}
	}
	inv.Grid = g
	return inv
}

// Pending reports whether any direction has dirty tiles.
func (a *Aggregator) Pending() bool {
	for _, q := range a.queue {
		if len(q) > 0 {
			return true
		}
	}
	return false
}

// MarkAll marks every live tile dirty with at least state s, queueing them
// in plane and tile order.
func (a *Aggregator) MarkAll(s DirtyState) {
	keys := make([]TileKey, 0, a.Tiles())
	for pk, p := range a.planes {
		for uv := range p.tiles {
			keys = append(keys, TileKey{Plane: pk, U: uv[0], V: uv[1]})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	for _, k := range keys {
		a.mark(a.planes[k.Plane].tiles[[2]int{k.U, k.V}], k, s)
	}
}

func (k TileKey) less(o TileKey) bool {
	switch {
	case k.Plane.Dir != o.Plane.Dir:
		return k.Plane.Dir < o.Plane.Dir
	case k.Plane.Coord != o.Plane.Coord:
		return k.Plane.Coord < o.Plane.Coord
	case k.V != o.V:
		return k.V < o.V
	}
	return k.U < o.U
}

// Planes returns the number of live planes.
func (a *Aggregator) Planes() int { return len(a.planes) }

// Tiles returns the number of live tiles over all planes.
func (a *Aggregator) Tiles() int {
	n := 0
	for _, p := range a.planes {
		n += len(p.tiles)
	}
	return n
}

// State returns the dirty state of a tile; unknown tiles are Clean.
func (a *Aggregator) State(key TileKey) DirtyState {
	p, ok := a.planes[key.Plane]
	if !ok {
		return Clean
	}
	if t, ok := p.tiles[[2]int{key.U, key.V}]; ok {
		return t.state
	}
	return Clean
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
