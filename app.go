package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/voxmesh/pkg/config"
	"github.com/chazu/voxmesh/pkg/engine"
	"github.com/chazu/voxmesh/pkg/export"
	"github.com/chazu/voxmesh/pkg/hull"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/mesh"
	"github.com/chazu/voxmesh/pkg/mesher"
	"github.com/chazu/voxmesh/pkg/voxel"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx     context.Context
	cfg     config.Config
	engine  *engine.Engine
	metrics *mesher.Metrics

	mu      sync.Mutex
	store   *voxel.Store
	scene   *mesher.Scene
	batches *batches
	job     *export.Job
}

// MeshData is the JSON-serializable tile batch sent to the frontend.
type MeshData struct {
	ID        string    `json:"id"`
	Layer     int       `json:"layer"`
	Direction string    `json:"direction"`
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
	// Texture is a PNG data URL sampled through UVs.
	Texture string `json:"texture"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LayerData describes one voxel layer.
type LayerData struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Voxels  int    `json:"voxels"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes    []MeshData      `json:"meshes"`
	Layers    []LayerData     `json:"layers"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []EvalErrorData `json:"warnings"`
	Triangles int             `json:"triangles"`
}

// ExportResult reports a finished export.
type ExportResult struct {
	Files     []string `json:"files"`
	Failed    []string `json:"failed"`
	Triangles int      `json:"triangles"`
	Pages     int      `json:"pages"`
	Error     string   `json:"error,omitempty"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(config.Defaults(), prometheus.NewRegistry())
}

// NewAppWithConfig creates an App that registers its metrics on reg.
func NewAppWithConfig(cfg config.Config, reg prometheus.Registerer) *App {
	return &App{
		cfg:     cfg,
		engine:  engine.NewEngine(),
		metrics: mesher.NewMetrics(reg),
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Evaluate takes Lisp source and returns tile meshes + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := newEvalResult()

	// Step 1: Evaluate the Lisp source into a voxel store.
	store, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		logging.Logger().Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Mesh every visible layer from scratch.
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store = store
	a.batches = newBatches()
	a.scene = mesher.NewScene(a.cfg.Mesher.MesherOptions(), a.batches, a.metrics)
	a.scene.Attach(store)
	return a.collect(result)
}

// SetLayerVisible shows or hides a layer of the last evaluated script and
// returns the updated meshes.
func (a *App) SetLayerVisible(layer int, visible bool) EvalResult {
	result := newEvalResult()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: "nothing evaluated yet"})
		return result
	}
	if err := a.store.SetVisible(layer, visible); err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	return a.collect(result)
}

// collect flushes the scene and renders the current batches. a.mu is held.
func (a *App) collect(result EvalResult) EvalResult {
	a.scene.Flush()
	for _, id := range a.store.Layers() {
		l := a.store.Layer(id)
		result.Layers = append(result.Layers, LayerData{ID: id, Name: l.Name, Visible: l.Visible, Voxels: l.Len()})
	}
	for _, id := range a.batches.ids() {
		m := a.batches.m[id]
		data := MeshData{
			ID:        id.String(),
			Layer:     id.Layer,
			Direction: m.Direction,
			Vertices:  m.Vertices,
			Normals:   m.Normals,
			UVs:       m.UVs,
			Indices:   m.Indices,
		}
		if m.Texture != nil {
			url, err := dataURL(m.Texture)
			if err != nil {
				result.Warnings = append(result.Warnings, EvalErrorData{Message: fmt.Sprintf("%s: %v", id, err)})
			}
			data.Texture = url
		}
		result.Triangles += m.TriangleCount()
		result.Meshes = append(result.Meshes, data)
	}
	return result
}

// Export writes the visible layers of the last evaluated script into dir.
func (a *App) Export(dir string) ExportResult {
	a.mu.Lock()
	if a.store == nil {
		a.mu.Unlock()
		return ExportResult{Error: "nothing evaluated yet"}
	}
	if a.job != nil {
		a.job.Cancel()
	}
	snaps := hull.VisibleSnapshots(a.store)
	ex := export.New(a.cfg.Export.ExportOptions(), export.ProgressFunc(a.progress), nil)
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	job := ex.Start(ctx, dir, snaps)
	a.job = job
	a.mu.Unlock()

	res, err := job.Wait()

	a.mu.Lock()
	if a.job == job {
		a.job = nil
	}
	a.mu.Unlock()

	if err != nil {
		logging.Logger().Error("export failed", "job", job.ID, "err", err)
		return ExportResult{Error: err.Error()}
	}
	return ExportResult{
		Files:     res.Files,
		Failed:    res.Failed,
		Triangles: res.Document.TriangleCount(),
		Pages:     len(res.Pages),
	}
}

// CancelExport stops a running export, if any.
func (a *App) CancelExport() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.job != nil {
		a.job.Cancel()
	}
}

func (a *App) progress(done, total int, stage string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, "export:progress", map[string]any{"done": done, "total": total, "stage": stage})
}

func newEvalResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Layers:   []LayerData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

func dataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode texture: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// batches is the mesher.Sink of the app: the current batch of every live
// tile.
type batches struct {
	m map[mesher.TileID]*mesh.Mesh
}

func newBatches() *batches {
	return &batches{m: make(map[mesher.TileID]*mesh.Mesh)}
}

func (b *batches) Replace(id mesher.TileID, m *mesh.Mesh) { b.m[id] = m }

func (b *batches) Retexture(id mesher.TileID, tex *image.RGBA) {
	if m, ok := b.m[id]; ok {
		m.Texture = tex
	}
}

func (b *batches) Drop(id mesher.TileID) { delete(b.m, id) }

func (b *batches) ids() []mesher.TileID {
	out := make([]mesher.TileID, 0, len(b.m))
	for id := range b.m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
