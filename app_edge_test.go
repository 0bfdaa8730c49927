package main

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chazu/voxmesh/pkg/config"
	"github.com/chazu/voxmesh/pkg/triangulate"
)

// ---------------------------------------------------------------------------
// Empty and erroneous sources
// ---------------------------------------------------------------------------

func TestE2EEmptySource(t *testing.T) {
	app := NewApp()

	for _, src := range []string{"", "   \n\t", ";; just a comment\n; and another"} {
		result := app.Evaluate(src)
		if len(result.Errors) > 0 {
			t.Errorf("source %q: unexpected errors %v", src, result.Errors)
		}
		if len(result.Meshes) != 0 {
			t.Errorf("source %q: expected no meshes, got %d", src, len(result.Meshes))
		}
		// Slices must be non-nil so they marshal as [] for the frontend.
		if result.Meshes == nil || result.Errors == nil || result.Warnings == nil {
			t.Errorf("source %q: nil slices in result", src)
		}
	}
}

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()

	result := app.Evaluate("(voxel 0 0 0)\n(box 0 0 0")
	if len(result.Errors) == 0 {
		t.Fatal("expected a syntax error")
	}
	if result.Errors[0].Message == "" {
		t.Error("error message should not be empty")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected no meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EBuiltinErrorKeepsPreviousScene(t *testing.T) {
	app := NewApp()
	if r := app.Evaluate("(voxel 0 0 0)"); len(r.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}

	r := app.Evaluate(`(voxel 0 0 0 :color "not-a-color")`)
	if len(r.Errors) == 0 {
		t.Fatal("expected an error for a bad color")
	}

	// The last good scene is still exportable.
	res := app.Export(t.TempDir())
	if res.Error != "" {
		t.Errorf("export after failed evaluation: %s", res.Error)
	}
}

func TestE2EExportBeforeEvaluate(t *testing.T) {
	app := NewApp()
	res := app.Export(t.TempDir())
	if res.Error == "" {
		t.Error("expected an error when nothing was evaluated")
	}
	app.CancelExport()
}

// ---------------------------------------------------------------------------
// Layer visibility
// ---------------------------------------------------------------------------

func TestE2ESetLayerVisible(t *testing.T) {
	app := NewApp()
	src := `(box 0 0 0 2 2 2)
(layer "top")
(box 0 2 0 2 3 2 :color "#ff0000")`

	all := app.Evaluate(src)
	if len(all.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", all.Errors)
	}

	hidden := app.SetLayerVisible(1, false)
	if len(hidden.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", hidden.Errors)
	}
	for _, m := range hidden.Meshes {
		if m.Layer == 1 {
			t.Errorf("mesh %s of hidden layer still present", m.ID)
		}
	}
	if hidden.Layers[1].Visible {
		t.Error("layer 1 should report hidden")
	}

	shown := app.SetLayerVisible(1, true)
	if len(shown.Meshes) != len(all.Meshes) || shown.Triangles != all.Triangles {
		t.Errorf("after re-show: %d meshes / %d triangles, want %d / %d",
			len(shown.Meshes), shown.Triangles, len(all.Meshes), all.Triangles)
	}
}

func TestE2ESetLayerVisibleErrors(t *testing.T) {
	app := NewApp()
	if r := app.SetLayerVisible(0, false); len(r.Errors) == 0 {
		t.Error("expected an error before any evaluation")
	}
	app.Evaluate("(voxel 0 0 0)")
	if r := app.SetLayerVisible(7, false); len(r.Errors) == 0 {
		t.Error("expected an error for an unknown layer")
	}
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

func TestE2ESeparateVoxelsShareTiles(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(voxel 0 0 0)\n(voxel 4 0 0)")
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	// Both cubes share their ±y and ±z planes; their ±x faces lie in
	// distinct planes.
	if len(result.Meshes) != 8 {
		t.Errorf("expected 8 meshes, got %d", len(result.Meshes))
	}
	if result.Triangles != 24 {
		t.Errorf("expected 24 triangles, got %d", result.Triangles)
	}
}

func TestE2ELargeTerrainSpansTiles(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mesher.TileSize = 8
	app := NewAppWithConfig(cfg, prometheus.NewRegistry())

	result := app.Evaluate("(terrain :width 20 :depth 20 :height 6 :seed 5)")
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	seen := map[string]bool{}
	for _, m := range result.Meshes {
		if seen[m.ID] {
			t.Errorf("duplicate mesh id %s", m.ID)
		}
		seen[m.ID] = true
	}
	// The 20×20 top cannot fit a single 8×8 tile.
	up := 0
	for _, m := range result.Meshes {
		if m.Direction == "+y" {
			up++
		}
	}
	if up < 9 {
		t.Errorf("expected the top surface split over at least 9 tiles, got %d", up)
	}
}

func TestE2EStrategies(t *testing.T) {
	for _, s := range []triangulate.Strategy{triangulate.GreedyRectangle, triangulate.GreedyOptimal, triangulate.Monotone, triangulate.Delaunay} {
		t.Run(s.String(), func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Mesher.Strategy = s
			app := NewAppWithConfig(cfg, prometheus.NewRegistry())
			result := app.Evaluate("(box 0 0 0 3 1 3)\n(remove 1 0 1)")
			if len(result.Errors) > 0 {
				t.Fatalf("unexpected errors: %v", result.Errors)
			}
			if result.Triangles == 0 {
				t.Error("expected triangles")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Concurrency and metrics
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app := NewApp()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := app.Evaluate(fmt.Sprintf("(box 0 0 0 %d 1 1)", i+1))
			for _, e := range r.Errors {
				// A newer evaluation may supersede this one.
				if !strings.Contains(e.Message, "superseded") {
					t.Errorf("evaluation %d: %s", i, e.Message)
				}
			}
		}(i)
	}
	wg.Wait()

	r := app.Evaluate("(voxel 0 0 0)")
	if len(r.Errors) > 0 || len(r.Meshes) != 6 {
		t.Errorf("final evaluation: %d meshes, errors %v", len(r.Meshes), r.Errors)
	}
}

func TestE2EMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := NewAppWithConfig(config.Defaults(), reg)
	app.Evaluate("(voxel 0 0 0)")

	n, err := testutil.GatherAndCount(reg, "voxmesh_mesher_tiles_refreshed_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n == 0 {
		t.Error("expected tile metrics after an evaluation")
	}
}
