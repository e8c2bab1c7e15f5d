package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gorustyt/navisland/config"
	"github.com/gorustyt/navisland/detour"
	"golang.org/x/sync/errgroup"
)

func newMesh(cfg config.MeshConfig, cols, rows int) (*detour.DtNavMesh, error) {
	maxPolys := cfg.MaxPolys
	if maxPolys == 0 {
		maxPolys = cfg.TileSize * cfg.TileSize
	}
	edge := float32(cfg.TileSize) * cfg.CellSize
	mesh, status := detour.NewDtNavMeshWithParams(&detour.NavMeshParams{
		TileWidth:  edge,
		TileHeight: edge,
		MaxTiles:   int32(cols * rows),
		MaxPolys:   int32(maxPolys),
	})
	if status.DtStatusFailed() {
		return nil, fmt.Errorf("navmesh %dx%d tiles of %d polys: %s", cols, rows, maxPolys, status)
	}
	return mesh, nil
}

// buildTiles creates the tile data of coords concurrently. The result is in
// the order of coords.
func buildTiles(ctx context.Context, cfg config.MeshConfig, m *gridMap, coords []tileCoord) ([]*detour.NavMeshData, error) {
	out := make([]*detour.NavMeshData, len(coords))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, tc := range coords {
		i, tc := i, tc // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := detour.CreateGridTileData(&detour.GridTileParams{
				X:        int32(tc.x),
				Y:        int32(tc.y),
				Cols:     int32(cfg.TileSize),
				Rows:     int32(cfg.TileSize),
				CellSize: cfg.CellSize,
				Walkable: m.tileCells(tc.x, tc.y, cfg.TileSize),
			})
			if err != nil {
				return fmt.Errorf("tile %d,%d: %w", tc.x, tc.y, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// placeTiles removes whatever sits at each coord and adds the new data.
func placeTiles(mesh *detour.DtNavMesh, coords []tileCoord, data []*detour.NavMeshData) error {
	for i, tc := range coords {
		if ref := mesh.GetTileRefAt(int32(tc.x), int32(tc.y), 0); ref != 0 {
			if _, status := mesh.RemoveTile(ref); status.DtStatusFailed() {
				return fmt.Errorf("remove tile %d,%d: %s", tc.x, tc.y, status)
			}
		}
		if _, status := mesh.AddTile(data[i], 0, 0); status.DtStatusFailed() {
			return fmt.Errorf("add tile %d,%d: %s", tc.x, tc.y, status)
		}
	}
	return nil
}

func allTiles(cols, rows int) []tileCoord {
	out := make([]tileCoord, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out = append(out, tileCoord{x, y})
		}
	}
	return out
}
