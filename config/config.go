// Package config loads the navisland YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gorustyt/navisland/common/logger"
	"github.com/gorustyt/navisland/island"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

// IndexerConfig mirrors island.Options. Zero values take the indexer defaults.
type IndexerConfig struct {
	MaxTiles            int   `yaml:"max_tiles,omitempty"`
	MaxPolysPerTile     int   `yaml:"max_polys_per_tile,omitempty"`
	OpenCapacity        int   `yaml:"open_capacity,omitempty"`
	PendingCapacity     int   `yaml:"pending_capacity,omitempty"`
	FirstLabel          uint8 `yaml:"first_label,omitempty"`
	LastLabel           uint8 `yaml:"last_label,omitempty"`
	FlagShift           uint  `yaml:"flag_shift,omitempty"`
	PreserveFlags       bool  `yaml:"preserve_flags"`
	ExpandToLinkedTiles bool  `yaml:"expand_to_linked_tiles"`
	PropagateMerges     bool  `yaml:"propagate_merges"`
	// Trace logs every labeling event through a LogObserver.
	Trace bool `yaml:"trace"`
}

// MeshConfig sizes the navmesh the CLI builds from a map.
type MeshConfig struct {
	TileSize int     `yaml:"tile_size"` // cells per tile edge
	CellSize float32 `yaml:"cell_size"`
	MaxPolys int     `yaml:"max_polys,omitempty"`
}

type Config struct {
	Indexer IndexerConfig `yaml:"indexer"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Log     logger.Config `yaml:"log"`
}

func Default() Config {
	opts := island.DefaultOptions()
	return Config{
		Indexer: IndexerConfig{
			MaxTiles:            opts.MaxTiles,
			MaxPolysPerTile:     opts.MaxPolysPerTile,
			OpenCapacity:        opts.OpenCapacity,
			PendingCapacity:     opts.PendingCapacity,
			FirstLabel:          opts.FirstLabel,
			LastLabel:           opts.LastLabel,
			ExpandToLinkedTiles: opts.ExpandToLinkedTiles,
			PropagateMerges:     opts.PropagateMerges,
		},
		Mesh: MeshConfig{
			TileSize: 8,
			CellSize: 1,
		},
		Log: logger.DefaultConfig(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Mesh.TileSize <= 0 || c.Mesh.TileSize > 128 {
		return fmt.Errorf("%w: mesh tile size %d", ErrInvalid, c.Mesh.TileSize)
	}
	if c.Mesh.CellSize <= 0 {
		return fmt.Errorf("%w: mesh cell size %v", ErrInvalid, c.Mesh.CellSize)
	}
	if c.Mesh.MaxPolys < 0 {
		return fmt.Errorf("%w: mesh max polys %d", ErrInvalid, c.Mesh.MaxPolys)
	}
	if err := c.Indexer.Options(nil).Validate(); err != nil {
		return fmt.Errorf("%w: indexer: %w", ErrInvalid, err)
	}
	return nil
}

// Options converts the section to indexer options. logger may be nil.
func (c IndexerConfig) Options(logger *zap.Logger) island.Options {
	opts := island.Options{
		MaxTiles:            c.MaxTiles,
		MaxPolysPerTile:     c.MaxPolysPerTile,
		OpenCapacity:        c.OpenCapacity,
		PendingCapacity:     c.PendingCapacity,
		FirstLabel:          c.FirstLabel,
		LastLabel:           c.LastLabel,
		FlagShift:           c.FlagShift,
		PreserveFlags:       c.PreserveFlags,
		ExpandToLinkedTiles: c.ExpandToLinkedTiles,
		PropagateMerges:     c.PropagateMerges,
		Logger:              logger,
	}
	if c.Trace && logger != nil {
		opts.Observer = island.NewLogObserver(logger)
	}
	return opts.WithDefaults()
}
