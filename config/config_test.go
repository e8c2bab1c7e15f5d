package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gorustyt/navisland/island"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navisland.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
indexer:
  open_capacity: 64
  first_label: 32
  flag_shift: 4
  preserve_flags: true
  propagate_merges: false
  trace: true
mesh:
  tile_size: 16
log:
  level: debug
  file: /tmp/navisland.log
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Indexer.OpenCapacity)
	assert.Equal(t, uint8(32), cfg.Indexer.FirstLabel)
	assert.Equal(t, island.DefaultLastLabel, cfg.Indexer.LastLabel)
	assert.True(t, cfg.Indexer.PreserveFlags)
	assert.False(t, cfg.Indexer.PropagateMerges)
	assert.True(t, cfg.Indexer.ExpandToLinkedTiles, "unset keys keep their default")
	assert.Equal(t, 16, cfg.Mesh.TileSize)
	assert.Equal(t, float32(1), cfg.Mesh.CellSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)

	opts := cfg.Indexer.Options(zap.NewNop())
	assert.Equal(t, 64, opts.OpenCapacity)
	assert.Equal(t, island.DefaultFloodCapacity, opts.PendingCapacity)
	assert.Equal(t, uint(4), opts.FlagShift)
	assert.IsType(t, &island.LogObserver{}, opts.Observer)
	assert.NoError(t, opts.Validate())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "indexer: [1, 2"},
		{"tile size", "mesh:\n  tile_size: 0\n"},
		{"cell size", "mesh:\n  cell_size: -1\n"},
		{"label range", "indexer:\n  first_label: 200\n  last_label: 100\n"},
		{"reserved label", "indexer:\n  last_label: 255\n"},
		{"capacity", "indexer:\n  open_capacity: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "mesh:\n  tile_size: 0\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = Load(writeConfig(t, "indexer:\n  last_label: 255\n"))
	assert.ErrorIs(t, err, island.ErrInvalidOptions)
}

func TestOptionsWithoutTrace(t *testing.T) {
	opts := Default().Indexer.Options(nil)
	assert.Equal(t, island.NopObserver{}, opts.Observer)
	assert.NotNil(t, opts.Logger)
	assert.True(t, opts.ExpandToLinkedTiles)
	assert.True(t, opts.PropagateMerges)
}
