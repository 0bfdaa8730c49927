package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/voxmesh/pkg/config"
	"github.com/chazu/voxmesh/pkg/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg, err := config.Load(os.Getenv("VOXMESH_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	logging.SetLogger(logging.NewText(os.Stderr, level))

	app := NewAppWithConfig(cfg, prometheus.DefaultRegisterer)

	err = wails.Run(&options.App{
		Title:  "voxmesh",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
}
