// Package mesher keeps renderer triangle batches in step with a voxel store.
//
// Each layer gets a Mesher that owns its own hull tracker and plane
// aggregator. Edits only record deltas; Refresh does the bounded work of one
// frame and hands the results to a Sink.
package mesher

import (
	"fmt"
	"image"
	"time"

	"github.com/chazu/voxmesh/pkg/hull"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/mesh"
	"github.com/chazu/voxmesh/pkg/plane"
	"github.com/chazu/voxmesh/pkg/tjunction"
	"github.com/chazu/voxmesh/pkg/triangulate"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// Options configures every Mesher of a Scene.
type Options struct {
	Strategy triangulate.Strategy
	Plane    plane.Options
}

// TileID names one renderer batch.
type TileID struct {
	Layer int
	Tile  plane.TileKey
}

func (id TileID) String() string {
	return fmt.Sprintf("L%d/%s", id.Layer, id.Tile)
}

// Sink receives batch updates. It is called on the goroutine that runs
// Refresh.
type Sink interface {
	// Replace installs or replaces the batch of a tile.
	Replace(id TileID, m *mesh.Mesh)
	// Retexture swaps only the texture of an existing batch.
	Retexture(id TileID, tex *image.RGBA)
	// Drop removes a batch. Unknown ids must be ignored.
	Drop(id TileID)
}

// Stats summarises one Refresh.
type Stats struct {
	Tiles     int
	Triangles int
	// Done reports that no dirty tile is left.
	Done bool
}

func (s *Stats) add(o Stats) {
	s.Tiles += o.Tiles
	s.Triangles += o.Triangles
}

// Mesher owns the render state of one layer. It is not safe for concurrent
// use.
type Mesher struct {
	layer   int
	opts    Options
	hull    *hull.Tracker
	agg     *plane.Aggregator
	sink    Sink
	metrics *Metrics
	visible bool
	live    map[plane.TileKey]struct{}
}

func newMesher(layer int, opts Options, sink Sink, metrics *Metrics) *Mesher {
	return &Mesher{
		layer:   layer,
		opts:    opts,
		hull:    hull.New(),
		agg:     plane.NewAggregator(opts.Plane),
		sink:    sink,
		metrics: metrics,
		visible: true,
		live:    make(map[plane.TileKey]struct{}),
	}
}

// Layer returns the layer id.
func (m *Mesher) Layer() int { return m.layer }

// Hull returns the layer's hull tracker.
func (m *Mesher) Hull() *hull.Tracker { return m.hull }

// Live returns the number of batches currently handed to the sink.
func (m *Mesher) Live() int { return len(m.live) }

// Update records an added or changed voxel.
func (m *Mesher) Update(v voxel.Voxel) { m.hull.Update(v) }

// Clear records a removed voxel.
func (m *Mesher) Clear(k voxel.Key) { m.hull.ClearPosition(k) }

// SetVisible hides or shows the layer. Hiding drops every batch at once;
// showing rebuilds them over the following refreshes.
func (m *Mesher) SetVisible(visible bool) {
	if m.visible == visible {
		return
	}
	m.visible = visible
	if !visible {
		for k := range m.live {
			m.sink.Drop(TileID{Layer: m.layer, Tile: k})
		}
		clear(m.live)
		return
	}
	m.agg.Sync(m.hull)
	m.agg.MarkAll(plane.Full)
}

// Pending reports whether a Refresh has work to do.
func (m *Mesher) Pending() bool {
	return m.hull.Pending() || (m.visible && m.agg.Pending())
}

// Refresh applies pending edits and rebuilds at most MaxTilesPerCall dirty
// tiles per direction.
func (m *Mesher) Refresh() Stats {
	start := time.Now()
	m.agg.Sync(m.hull)
	if !m.visible {
		return Stats{Done: true}
	}
	var st Stats
	for _, d := range voxel.Directions {
		invs, _ := m.agg.InvalidTiles(d)
		for _, inv := range invs {
			st.add(m.apply(inv))
		}
	}
	st.Done = !m.agg.Pending()
	m.metrics.observe(st, time.Since(start))
	return st
}

func (m *Mesher) apply(inv plane.Invalidation) Stats {
	id := TileID{Layer: m.layer, Tile: inv.Key}
	log := logging.Logger()
	switch {
	case inv.Removed:
		delete(m.live, inv.Key)
		m.sink.Drop(id)
		m.metrics.tile("removed")
		log.Debug("tile dropped", "tile", id)
		return Stats{Tiles: 1}
	case inv.State == plane.Soft:
		if _, ok := m.live[inv.Key]; ok {
			m.sink.Retexture(id, m.texture(inv))
			m.metrics.tile("soft")
			log.Debug("tile retextured", "tile", id)
			return Stats{Tiles: 1}
		}
	}
	msh := m.build(inv)
	m.live[inv.Key] = struct{}{}
	m.sink.Replace(id, msh)
	m.metrics.tile("full")
	log.Debug("tile rebuilt", "tile", id, "triangles", msh.TriangleCount())
	return Stats{Tiles: 1, Triangles: msh.TriangleCount()}
}

// build triangulates the tile and lifts it into world space.
func (m *Mesher) build(inv plane.Invalidation) *mesh.Mesh {
	f := inv.Frame
	size := float32(m.agg.Options().TileSize)
	var n [3]float32
	off := f.Dir.Offset()
	n[0], n[1], n[2] = float32(off.X), float32(off.Y), float32(off.Z)

	b := mesh.NewBuilder(TileID{Layer: m.layer, Tile: inv.Key}.String(), f.Dir.String(), n)
	flip := f.Dir.FlipWinding()
	for _, t := range tjunction.Triangulate(m.opts.Strategy, inv.Grid, f, m.hull) {
		var idx [3]uint32
		for i, p := range t.Points() {
			c := f.Corner(p.X, p.Y)
			idx[i] = b.Vertex(
				[3]float32{float32(c.X), float32(c.Y), float32(c.Z)},
				[2]float32{float32(p.X) / size, float32(p.Y) / size},
			)
		}
		if flip {
			idx[1], idx[2] = idx[2], idx[1]
		}
		b.Triangle(idx[0], idx[1], idx[2])
	}
	msh := b.Mesh()
	msh.Texture = m.texture(inv)
	return msh
}

// texture paints one pixel per cell with the color of the voxel owning the
// face. Pixel (u, v) is cell (u, v) of the tile.
func (m *Mesher) texture(inv plane.Invalidation) *image.RGBA {
	size := m.agg.Options().TileSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for v := 0; v < size; v++ {
		for u := 0; u < size; u++ {
			if !inv.Grid.At(u, v) {
				continue
			}
			vx, ok := m.hull.Exposed(inv.Frame.Dir, inv.Frame.Voxel(u, v).Key())
			if !ok {
				continue
			}
			img.SetRGBA(u, v, vx.Color)
		}
	}
	return img
}
