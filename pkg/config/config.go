// Package config loads the voxmesh YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/voxmesh/pkg/atlas"
	"github.com/chazu/voxmesh/pkg/export"
	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/mesher"
	"github.com/chazu/voxmesh/pkg/plane"
	"github.com/chazu/voxmesh/pkg/triangulate"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the whole voxmesh configuration file.
type Config struct {
	Mesher MesherConfig `yaml:"mesher"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
}

// MesherConfig configures the render path.
type MesherConfig struct {
	Strategy        triangulate.Strategy `yaml:"strategy"`
	TileSize        int                  `yaml:"tile_size"`
	MaxTilesPerCall int                  `yaml:"max_tiles_per_call"`
}

// ExportConfig configures exports: triangulation, atlas pages and output files.
type ExportConfig struct {
	Strategy       triangulate.Strategy `yaml:"strategy"`
	PageSize       int                  `yaml:"page_size"`
	Padding        int                  `yaml:"padding"`
	Epsilon        float64              `yaml:"epsilon"`
	TexelsPerVoxel int                  `yaml:"texels_per_voxel"`
	Prefix         string               `yaml:"prefix"`
	Compress       bool                 `yaml:"compress"`
	STL            bool                 `yaml:"stl"`
}

// LogConfig sets the log level, one of debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults, then normalizes and validates.
func Parse(b []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Mesher: MesherConfig{
			Strategy:        triangulate.GreedyRectangle,
			TileSize:        plane.DefaultTileSize,
			MaxTilesPerCall: plane.DefaultMaxTilesPerCall,
		},
		Export: ExportConfig{
			Strategy:       triangulate.Delaunay,
			PageSize:       atlas.DefaultPageSize,
			Padding:        1,
			Epsilon:        atlas.DefaultEpsilon,
			TexelsPerVoxel: 1,
			Prefix:         "atlas",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Normalize fills zero values with defaults and tidies strings.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	d := Defaults()
	if c.Mesher.TileSize == 0 {
		c.Mesher.TileSize = d.Mesher.TileSize
	}
	if c.Mesher.MaxTilesPerCall == 0 {
		c.Mesher.MaxTilesPerCall = d.Mesher.MaxTilesPerCall
	}
	if c.Export.PageSize == 0 {
		c.Export.PageSize = d.Export.PageSize
	}
	if c.Export.Epsilon == 0 {
		c.Export.Epsilon = d.Export.Epsilon
	}
	if c.Export.TexelsPerVoxel == 0 {
		c.Export.TexelsPerVoxel = d.Export.TexelsPerVoxel
	}
	c.Export.Prefix = strings.TrimSpace(c.Export.Prefix)
	if c.Export.Prefix == "" {
		c.Export.Prefix = d.Export.Prefix
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.Mesher.TileSize < 1 || c.Mesher.TileSize > 1024:
		return fmt.Errorf("%w: mesher.tile_size %d not in [1,1024]", ErrInvalid, c.Mesher.TileSize)
	case c.Mesher.MaxTilesPerCall < 1:
		return fmt.Errorf("%w: mesher.max_tiles_per_call must be positive", ErrInvalid)
	case c.Export.PageSize < 1:
		return fmt.Errorf("%w: export.page_size must be positive", ErrInvalid)
	case c.Export.Padding < 0:
		return fmt.Errorf("%w: export.padding must not be negative", ErrInvalid)
	case c.Export.Epsilon < 0 || c.Export.Epsilon >= 1:
		return fmt.Errorf("%w: export.epsilon %g not in [0,1)", ErrInvalid, c.Export.Epsilon)
	case c.Export.TexelsPerVoxel < 1 || c.Export.TexelsPerVoxel > 64:
		return fmt.Errorf("%w: export.texels_per_voxel %d not in [1,64]", ErrInvalid, c.Export.TexelsPerVoxel)
	case strings.ContainsAny(c.Export.Prefix, `/\`):
		return fmt.Errorf("%w: export.prefix %q must not contain a path separator", ErrInvalid, c.Export.Prefix)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// PlaneOptions returns the aggregator options of the render path.
func (c MesherConfig) PlaneOptions() plane.Options {
	return plane.Options{TileSize: c.TileSize, MaxTilesPerCall: c.MaxTilesPerCall}
}

// AtlasOptions returns the packer options of the export path.
func (c ExportConfig) AtlasOptions() atlas.Options {
	return atlas.Options{PageSize: c.PageSize, Epsilon: c.Epsilon, Padding: c.Padding}
}

// MesherOptions returns the options of a render scene.
func (c MesherConfig) MesherOptions() mesher.Options {
	return mesher.Options{Strategy: c.Strategy, Plane: c.PlaneOptions()}
}

// ExportOptions returns exporter options. Textures are left for the caller.
func (c ExportConfig) ExportOptions() export.Options {
	return export.Options{
		Strategy:       c.Strategy,
		Atlas:          c.AtlasOptions(),
		TexelsPerVoxel: c.TexelsPerVoxel,
		Prefix:         c.Prefix,
		Compress:       c.Compress,
		STL:            c.STL,
	}
}
