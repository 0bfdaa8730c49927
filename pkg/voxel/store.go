package voxel

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
)

// ErrUnknownLayer is returned for operations on a layer id that does not exist.
var ErrUnknownLayer = errors.New("unknown layer")

// DefaultLayer is created by NewStore and always exists.
const DefaultLayer = 0

// Listener receives store edits. All calls happen synchronously on the
// goroutine that mutates the store.
type Listener interface {
	VoxelAdded(v Voxel)
	VoxelRemoved(v Voxel)
	VoxelChanged(v Voxel)
	LayerVisibility(layer int, visible bool)
}

// Layer is a named, independently visible set of voxels. Faces between
// voxels of different layers are never hidden by each other.
type Layer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`

	voxels map[Key]*Voxel
}

// Len returns the number of voxels in the layer.
func (l *Layer) Len() int {
	return len(l.voxels)
}

// Store is the layered voxel model. It is not safe for concurrent use: the
// editor owns it and mutates it from one goroutine.
type Store struct {
	layers    map[int]*Layer
	order     []int
	nextLayer int
	nextID    int64
	listeners []Listener
}

// NewStore returns a store with one visible default layer.
func NewStore() *Store {
	s := &Store{layers: make(map[int]*Layer)}
	s.AddLayer("default")
	return s
}

// Subscribe registers a listener for subsequent edits.
func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// AddLayer creates a visible layer and returns its id.
func (s *Store) AddLayer(name string) int {
	id := s.nextLayer
	s.nextLayer++
	s.layers[id] = &Layer{ID: id, Name: name, Visible: true, voxels: make(map[Key]*Voxel)}
	s.order = append(s.order, id)
	return id
}

// Layer returns the layer with the given id, or nil.
func (s *Store) Layer(id int) *Layer {
	return s.layers[id]
}

// LayerByName returns the first layer with the given name, or nil.
func (s *Store) LayerByName(name string) *Layer {
	for _, id := range s.order {
		if l := s.layers[id]; l.Name == name {
			return l
		}
	}
	return nil
}

// Layers returns all layer ids in creation order.
func (s *Store) Layers() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// SetVisible toggles a layer's visibility and notifies listeners when it
// changes.
func (s *Store) SetVisible(layer int, visible bool) error {
	l, ok := s.layers[layer]
	if !ok {
		return fmt.Errorf("set visible %d: %w", layer, ErrUnknownLayer)
	}
	if l.Visible == visible {
		return nil
	}
	l.Visible = visible
	for _, ls := range s.listeners {
		ls.LayerVisibility(layer, visible)
	}
	return nil
}

// Put inserts v into its layer. If a voxel already occupies the position, its
// color and textures are replaced and it keeps its id. New voxels receive the
// next id when v.ID is zero. The stored voxel is returned.
func (s *Store) Put(v Voxel) (Voxel, error) {
	l, ok := s.layers[v.Layer]
	if !ok {
		return Voxel{}, fmt.Errorf("put %s: layer %d: %w", v.Pos, v.Layer, ErrUnknownLayer)
	}
	if !InRange(v.Pos.X) || !InRange(v.Pos.Y) || !InRange(v.Pos.Z) {
		return Voxel{}, fmt.Errorf("put %s: position outside [%d,%d]", v.Pos, MinCoord, MaxCoord)
	}
	k := v.Key()
	if cur, ok := l.voxels[k]; ok {
		if cur.SameContent(v) {
			return *cur, nil
		}
		cur.Color = v.Color
		cur.Textures = v.Textures
		for _, ls := range s.listeners {
			ls.VoxelChanged(*cur)
		}
		return *cur, nil
	}
	if v.ID == 0 {
		s.nextID++
		v.ID = s.nextID
	} else if v.ID > s.nextID {
		s.nextID = v.ID
	}
	stored := v
	l.voxels[k] = &stored
	for _, ls := range s.listeners {
		ls.VoxelAdded(stored)
	}
	return stored, nil
}

// Remove deletes the voxel at p from the layer. It reports whether a voxel
// was removed.
func (s *Store) Remove(layer int, p Position) bool {
	l, ok := s.layers[layer]
	if !ok {
		return false
	}
	k := p.Key()
	v, ok := l.voxels[k]
	if !ok {
		return false
	}
	delete(l.voxels, k)
	for _, ls := range s.listeners {
		ls.VoxelRemoved(*v)
	}
	return true
}

// SetColor repaints the voxel at p. It reports whether a voxel was found.
func (s *Store) SetColor(layer int, p Position, c color.RGBA) bool {
	v, ok := s.Get(layer, p)
	if !ok {
		return false
	}
	v.Color = c
	_, err := s.Put(v)
	return err == nil
}

// Get returns the voxel at p in the layer.
func (s *Store) Get(layer int, p Position) (Voxel, bool) {
	l, ok := s.layers[layer]
	if !ok {
		return Voxel{}, false
	}
	v, ok := l.voxels[p.Key()]
	if !ok {
		return Voxel{}, false
	}
	return *v, true
}

// Voxels returns a copy of the layer's voxels ordered by id.
func (s *Store) Voxels(layer int) []Voxel {
	l, ok := s.layers[layer]
	if !ok {
		return nil
	}
	out := make([]Voxel, 0, len(l.voxels))
	for _, v := range l.voxels {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of voxels across all layers.
func (s *Store) Count() int {
	n := 0
	for _, l := range s.layers {
		n += len(l.voxels)
	}
	return n
}
