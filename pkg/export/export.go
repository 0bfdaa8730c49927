// Package export turns frozen hull snapshots into a mesh document with
// texture atlas pages.
//
// Every plane is traced, its loops are resolved against the neighbouring
// voxels, and the result is triangulated and sampled into one atlas shared
// by the whole export. The snapshots are only read.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/chazu/voxmesh/pkg/atlas"
	"github.com/chazu/voxmesh/pkg/hull"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/plane"
	"github.com/chazu/voxmesh/pkg/polygon"
	"github.com/chazu/voxmesh/pkg/tjunction"
	"github.com/chazu/voxmesh/pkg/triangulate"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// ErrCancelled is returned when the context ends before the export does.
var ErrCancelled = errors.New("export cancelled")

// Defaults for Options.
const (
	DefaultPrefix = "atlas"
	DefaultName   = "mesh"
)

// Options configures an Exporter.
type Options struct {
	Strategy triangulate.Strategy
	Atlas    atlas.Options
	// TexelsPerVoxel is the atlas resolution of one voxel face side.
	TexelsPerVoxel int
	// Textures maps voxel.TextureRef ids to source images.
	Textures map[int]image.Image
	// Name is the base name of the document and STL files.
	Name string
	// Prefix names atlas pages <Prefix><page id>.png.
	Prefix   string
	Compress bool
	STL      bool
}

func (o Options) withDefaults() Options {
	if o.TexelsPerVoxel <= 0 {
		o.TexelsPerVoxel = 1
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	return o
}

// Progress is told how far an export has got. Report may be called from
// several goroutines, but never concurrently.
type Progress interface {
	Report(done, total int, stage string)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(done, total int, stage string)

func (f ProgressFunc) Report(done, total int, stage string) { f(done, total, stage) }

// ErrorHandler receives recoverable failures. The file named by path is
// abandoned; the rest of the export carries on.
type ErrorHandler interface {
	HandleError(path string, err error)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(path string, err error)

func (f ErrorHandlerFunc) HandleError(path string, err error) { f(path, err) }

// Result is the outcome of an export.
type Result struct {
	Document *Document
	Pages    []*atlas.Page
	Atlas    atlas.Stats
	// Triangles are the output triangles in the output coordinate system,
	// used for STL.
	Triangles [][3][3]float64
	// Files lists the files written, Failed the ones abandoned.
	Files  []string
	Failed []string
}

// Exporter runs exports with fixed options. It holds no state between runs
// and may be shared.
type Exporter struct {
	opts     Options
	progress Progress
	errs     ErrorHandler
	mu       sync.Mutex
}

// New returns an exporter. progress and errs may be nil.
func New(opts Options, progress Progress, errs ErrorHandler) *Exporter {
	if progress == nil {
		progress = ProgressFunc(func(int, int, string) {})
	}
	if errs == nil {
		errs = ErrorHandlerFunc(func(path string, err error) {
			logging.Logger().Warn("export file failed", "path", path, "err", err)
		})
	}
	return &Exporter{opts: opts.withDefaults(), progress: progress, errs: errs}
}

// Options returns the effective options.
func (e *Exporter) Options() Options { return e.opts }

type pendingTri struct {
	corners [3]voxel.Position
	order   [3]int
	place   atlas.Placement
}

// Build triangulates and packs the snapshots without touching the file
// system. Cancellation is checked between planes.
func (e *Exporter) Build(ctx context.Context, snaps []*hull.Snapshot) (*Result, error) {
	var slices []*plane.Slice
	var owners []*hull.Snapshot
	for _, s := range snaps {
		for _, sl := range plane.Slices(s) {
			slices = append(slices, sl)
			owners = append(owners, s)
		}
	}

	packer := atlas.NewPacker(e.opts.Atlas)
	tex := newTextures(e.opts.Textures, e.opts.TexelsPerVoxel)
	scale := e.opts.TexelsPerVoxel
	var pending []pendingTri
	for i, sl := range slices {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		tris := tjunction.Triangulate(e.opts.Strategy, sl.Grid, sl.Frame, owners[i])
		smp := sliceSampler{sl: sl, scale: scale, tex: tex}
		order := [3]int{0, 1, 2}
		if sl.Frame.Dir.FlipWinding() {
			order = [3]int{0, 2, 1}
		}
		for _, t := range tris {
			pts := t.Points()
			var scaled [3]polygon.Point
			var corners [3]voxel.Position
			for j, p := range pts {
				scaled[j] = polygon.Point{X: p.X * scale, Y: p.Y * scale}
				corners[j] = sl.Frame.Corner(p.X, p.Y)
			}
			pending = append(pending, pendingTri{
				corners: corners,
				order:   order,
				place:   packer.Add(scaled, smp),
			})
		}
		e.progress.Report(i+1, len(slices), "triangulate")
	}

	pages := packer.Pack()
	res := &Result{Pages: pages, Atlas: packer.Stats()}
	res.Document, res.Triangles = e.assemble(pending, len(pages))
	logging.Logger().Debug("export built",
		"planes", len(slices),
		"triangles", len(pending),
		"entries", res.Atlas.Entries,
		"reused", res.Atlas.Reused,
		"pages", res.Atlas.Pages)
	return res, nil
}

type vertexKey struct {
	pos  voxel.Position
	u, v float64
}

func (e *Exporter) assemble(pending []pendingTri, pages int) (*Document, [][3][3]float64) {
	doc := &Document{Materials: make([]Material, pages)}
	for i := range doc.Materials {
		doc.Materials[i] = Material{ID: i, Texture: e.PageName(i)}
	}
	index := make(map[vertexKey]uint32)
	tris := make([][3][3]float64, 0, len(pending))
	for _, pt := range pending {
		var out [3][3]float64
		m := &doc.Materials[pt.place.Entry.Page]
		for k, j := range pt.order {
			u, v := pt.place.UV(j)
			key := vertexKey{pos: pt.corners[j], u: u, v: v}
			idx, ok := index[key]
			if !ok {
				idx = uint32(doc.VertexCount())
				p := Transform(pt.corners[j])
				doc.Positions = append(doc.Positions, p[0], p[1], p[2])
				doc.UVs = append(doc.UVs, u, v)
				index[key] = idx
			}
			m.Indices = append(m.Indices, idx)
			out[k] = Transform(pt.corners[j])
		}
		tris = append(tris, out)
	}
	return doc, tris
}

// PageName returns the file name of atlas page id.
func (e *Exporter) PageName(id int) string {
	return fmt.Sprintf("%s%d.png", e.opts.Prefix, id)
}

// DocumentName returns the file name of the mesh document.
func (e *Exporter) DocumentName() string {
	if e.opts.Compress {
		return e.opts.Name + ".xml.zst"
	}
	return e.opts.Name + ".xml"
}

// STLName returns the file name of the STL output.
func (e *Exporter) STLName() string {
	return e.opts.Name + ".stl"
}

func (e *Exporter) fail(res *Result, path string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res.Failed = append(res.Failed, path)
	e.errs.HandleError(path, err)
}

func (e *Exporter) wrote(res *Result, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res.Files = append(res.Files, path)
}
