// Package atlas samples the source pixels under each exported triangle,
// deduplicates the resulting patches and packs them into shared pages.
//
// A Packer holds the patch table of a single export; nothing is shared
// between packers.
package atlas

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/cespare/xxhash/v2"

	"github.com/chazu/voxmesh/pkg/polygon"
)

// Defaults for Options.
const (
	DefaultPageSize = 1024
	DefaultEpsilon  = 1e-6
)

// Options configures a Packer.
type Options struct {
	// PageSize is the edge length of a page. Patches larger than a page get
	// a page of their own.
	PageSize int
	// Epsilon is the overlap area below which a pixel the triangle merely
	// grazes does not count as covered.
	Epsilon float64
	// Padding is the transparent gap between patches on a page.
	Padding int
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

// Sampler returns the colour of source pixel (x, y).
type Sampler interface {
	At(x, y int) color.RGBA
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(x, y int) color.RGBA

// At implements Sampler.
func (f SamplerFunc) At(x, y int) color.RGBA { return f(x, y) }

// Entry is one unique patch.
type Entry struct {
	ID    int
	Image *image.RGBA
	// Uniform patches are a single pixel standing in for a flat colour.
	Uniform bool
	// Page and X, Y locate the patch after Pack.
	Page int
	X, Y int

	key  uint64
	page *Page
}

// Placement maps one triangle onto its entry.
type Placement struct {
	Entry *Entry
	// Local holds the triangle vertices in patch pixel coordinates.
	Local [3][2]float64
}

// UV returns the normalised page coordinates of vertex i, with v growing
// downwards like image rows. It is only valid after Pack.
func (p Placement) UV(i int) (u, v float64) {
	e := p.Entry
	if e.page == nil {
		panic("atlas: UV before Pack")
	}
	b := e.page.Image.Bounds()
	return (float64(e.X) + p.Local[i][0]) / float64(b.Dx()),
		(float64(e.Y) + p.Local[i][1]) / float64(b.Dy())
}

// Stats summarises a packer's work.
type Stats struct {
	Triangles int
	Entries   int
	Reused    int
	Uniform   int
	Pages     int
}

// Packer builds the atlas of one export.
type Packer struct {
	opts    Options
	entries []*Entry
	byKey   map[uint64][]*Entry
	pages   []*Page
	stats   Stats
	packed  bool
}

// NewPacker returns an empty packer.
func NewPacker(opts Options) *Packer {
	return &Packer{opts: opts.withDefaults(), byKey: make(map[uint64][]*Entry)}
}

// Add samples the pixels covered by tri, given in source pixel
// coordinates, and returns where the triangle lands in the atlas.
func (p *Packer) Add(tri [3]polygon.Point, src Sampler) Placement {
	if p.packed {
		panic("atlas: Add after Pack")
	}
	p.stats.Triangles++
	cells := Covered(tri, p.opts.Epsilon)
	if len(cells) == 0 {
		panic(fmt.Sprintf("atlas: triangle %v covers no pixel", tri))
	}
	r := image.Rectangle{Min: cells[0], Max: cells[0].Add(image.Pt(1, 1))}
	for _, c := range cells[1:] {
		r = r.Union(image.Rectangle{Min: c, Max: c.Add(image.Pt(1, 1))})
	}

	first := src.At(cells[0].X, cells[0].Y)
	uniform := true
	for _, c := range cells[1:] {
		if src.At(c.X, c.Y) != first {
			uniform = false
			break
		}
	}

	var img *image.RGBA
	var pl Placement
	if uniform {
		img = image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.SetRGBA(0, 0, first)
		for i := range pl.Local {
			pl.Local[i] = [2]float64{0.5, 0.5}
		}
	} else {
		img = image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		for _, c := range cells {
			img.SetRGBA(c.X-r.Min.X, c.Y-r.Min.Y, src.At(c.X, c.Y))
		}
		for i, v := range tri {
			pl.Local[i] = [2]float64{
				clamp(float64(v.X-r.Min.X), 0, float64(r.Dx())),
				clamp(float64(v.Y-r.Min.Y), 0, float64(r.Dy())),
			}
		}
	}
	pl.Entry = p.intern(img, uniform)
	return pl
}

// intern returns the entry holding img, creating it if no entry has the
// same content.
func (p *Packer) intern(img *image.RGBA, uniform bool) *Entry {
	key := contentKey(img)
	for _, e := range p.byKey[key] {
		if e.Image.Rect.Eq(img.Rect) && bytes.Equal(e.Image.Pix, img.Pix) {
			p.stats.Reused++
			return e
		}
	}
	e := &Entry{ID: len(p.entries), Image: img, Uniform: uniform, key: key}
	p.entries = append(p.entries, e)
	p.byKey[key] = append(p.byKey[key], e)
	p.stats.Entries++
	if uniform {
		p.stats.Uniform++
	}
	return e
}

func contentKey(img *image.RGBA) uint64 {
	d := xxhash.New()
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[:4], uint32(img.Rect.Dx()))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(img.Rect.Dy()))
	_, _ = d.Write(hdr[:])
	_, _ = d.Write(img.Pix)
	return d.Sum64()
}

// Entries returns the unique patches in creation order.
func (p *Packer) Entries() []*Entry { return p.entries }

// Stats returns counters for the work done so far.
func (p *Packer) Stats() Stats { return p.stats }

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
