package mesher

import (
	"github.com/chazu/voxmesh/pkg/voxel"
)

// Scene fans store edits out to one Mesher per layer. It implements
// voxel.Listener.
type Scene struct {
	opts    Options
	sink    Sink
	metrics *Metrics
	layers  map[int]*Mesher
	order   []int
}

var _ voxel.Listener = (*Scene)(nil)

// NewScene returns an empty scene. metrics may be nil.
func NewScene(opts Options, sink Sink, metrics *Metrics) *Scene {
	return &Scene{
		opts:    opts,
		sink:    sink,
		metrics: metrics,
		layers:  make(map[int]*Mesher),
	}
}

// Attach subscribes the scene to s and records every voxel already in it.
func (sc *Scene) Attach(s *voxel.Store) {
	for _, id := range s.Layers() {
		l := s.Layer(id)
		m := sc.Layer(id)
		for _, v := range s.Voxels(id) {
			m.Update(v)
		}
		m.SetVisible(l.Visible)
	}
	s.Subscribe(sc)
}

// Layer returns the mesher of a layer, creating it on first use.
func (sc *Scene) Layer(id int) *Mesher {
	m, ok := sc.layers[id]
	if !ok {
		m = newMesher(id, sc.opts, sc.sink, sc.metrics)
		sc.layers[id] = m
		sc.order = append(sc.order, id)
	}
	return m
}

// Layers returns the meshers in creation order.
func (sc *Scene) Layers() []*Mesher {
	out := make([]*Mesher, len(sc.order))
	for i, id := range sc.order {
		out[i] = sc.layers[id]
	}
	return out
}

func (sc *Scene) VoxelAdded(v voxel.Voxel)   { sc.Layer(v.Layer).Update(v) }
func (sc *Scene) VoxelChanged(v voxel.Voxel) { sc.Layer(v.Layer).Update(v) }
func (sc *Scene) VoxelRemoved(v voxel.Voxel) { sc.Layer(v.Layer).Clear(v.Key()) }

func (sc *Scene) LayerVisibility(layer int, visible bool) {
	sc.Layer(layer).SetVisible(visible)
}

// Refresh runs one bounded refresh over every layer.
func (sc *Scene) Refresh() Stats {
	st := Stats{Done: true}
	for _, m := range sc.Layers() {
		r := m.Refresh()
		st.add(r)
		st.Done = st.Done && r.Done
	}
	return st
}

// Flush refreshes until no dirty tile is left and returns the totals.
func (sc *Scene) Flush() Stats {
	var total Stats
	for {
		st := sc.Refresh()
		total.add(st)
		if st.Done {
			total.Done = true
			return total
		}
	}
}
