// Command voxexport evaluates a voxel script and writes its visible layers
// as a mesh document with texture atlas pages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/chazu/voxmesh/pkg/config"
	"github.com/chazu/voxmesh/pkg/engine"
	"github.com/chazu/voxmesh/pkg/export"
	"github.com/chazu/voxmesh/pkg/hull"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/triangulate"
)

func main() {
	textures := textureFlag{}
	var (
		cfgPath  = flag.String("config", "", "YAML config file (optional)")
		outDir   = flag.String("out", "out", "output directory")
		name     = flag.String("name", export.DefaultName, "base name of the document and STL files")
		strategy = flag.String("strategy", "", "triangulation strategy, overrides the config")
		compress = flag.Bool("zstd", false, "write a zstd-compressed document")
		stl      = flag.Bool("stl", false, "also write a binary STL")
		level    = flag.String("log", "", "log level, overrides the config")
	)
	flag.Var(textures, "texture", "texture image as id=path.png (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: voxexport [flags] script.vox\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	lvl, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.SetLogger(logging.NewText(os.Stderr, lvl))

	if *strategy != "" {
		if cfg.Export.Strategy, err = triangulate.ParseStrategy(*strategy); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	cfg.Export.Compress = cfg.Export.Compress || *compress
	cfg.Export.STL = cfg.Export.STL || *stl

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read script:", err)
		os.Exit(1)
	}
	store, evalErrs, err := engine.NewEngine().Evaluate(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, "evaluate:", err)
		os.Exit(1)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", flag.Arg(0), e.Error())
		}
		os.Exit(1)
	}

	opts := cfg.Export.ExportOptions()
	opts.Name = *name
	opts.Textures, err = textures.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := export.ProgressFunc(func(done, total int, stage string) {
		fmt.Fprintf(os.Stderr, "\r%-6s %d/%d", stage, done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	res, err := export.New(opts, progress, nil).Run(ctx, *outDir, hull.VisibleSnapshots(store))
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}

	fmt.Printf("%s voxels, %s triangles, %d atlas pages (%d entries, %d reused)\n",
		humanize.Comma(int64(store.Count())), humanize.Comma(int64(res.Document.TriangleCount())),
		len(res.Pages), res.Atlas.Entries, res.Atlas.Reused)
	fmt.Printf("wrote %s\n", strings.Join(res.Files, ", "))
	if len(res.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "failed: %s\n", strings.Join(res.Failed, ", "))
		os.Exit(1)
	}
}
