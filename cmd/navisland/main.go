// Command navisland builds a tiled navmesh from a text map, labels its
// islands and optionally relabels the tiles that change while the map file
// is edited.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gorustyt/navisland/common/logger"
	"github.com/gorustyt/navisland/common/message"
	"github.com/gorustyt/navisland/config"
	"github.com/gorustyt/navisland/detour"
	"github.com/gorustyt/navisland/island"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	mapPath := flag.String("map", "", "Text map, '#' marks blocked cells")
	tileSize := flag.Int("tile-size", 0, "Cells per tile edge (overrides config)")
	cellSize := flag.Float64("cell-size", 0, "World size of a cell (overrides config)")
	watch := flag.Bool("watch", false, "Relabel changed tiles when the map file changes")
	reportPath := flag.String("report", "-", "Report destination, - for stdout, empty to skip")
	format := flag.String("format", "json", "Report format: json or proto")
	flag.Parse()

	if *mapPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: navisland -map FILE [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *format != "json" && *format != "proto" {
		fmt.Fprintf(os.Stderr, "Unknown report format %q\n", *format)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *tileSize > 0 {
		cfg.Mesh.TileSize = *tileSize
	}
	if *cellSize > 0 {
		cfg.Mesh.CellSize = float32(*cellSize)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: log, mapPath: *mapPath, reportPath: *reportPath, format: *format}
	if err := a.run(ctx, *watch); err != nil {
		log.Error("navisland failed", zap.Error(err))
		os.Exit(1)
	}
}

type app struct {
	cfg        config.Config
	logger     *zap.Logger
	mapPath    string
	reportPath string
	format     string

	mesh       *detour.DtNavMesh
	ix         *island.Indexer
	current    *gridMap
	cols, rows int
	batch      int
}

func (a *app) run(ctx context.Context, watch bool) error {
	if err := a.build(ctx); err != nil {
		return err
	}
	defer a.ix.Close()
	if err := a.writeReport(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := newMapWatcher(a.mapPath, defaultDebounce, a.logger)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-w.Changed():
				if err := a.reload(gctx); err != nil {
					// a half-written map is retried on the next event
					a.logger.Warn("reload failed", zap.Error(err))
					continue
				}
				if err := a.writeReport(); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

func (a *app) build(ctx context.Context) error {
	m, err := loadMap(a.mapPath)
	if err != nil {
		return err
	}
	size := a.cfg.Mesh.TileSize
	a.cols, a.rows = m.tileGrid(size)
	a.mesh, err = newMesh(a.cfg.Mesh, a.cols, a.rows)
	if err != nil {
		return err
	}
	coords := allTiles(a.cols, a.rows)
	data, err := buildTiles(ctx, a.cfg.Mesh, m, coords)
	if err != nil {
		return err
	}
	if err := placeTiles(a.mesh, coords, data); err != nil {
		return err
	}
	a.ix, err = island.NewIndexer(a.mesh, a.cfg.Indexer.Options(a.logger))
	if err != nil {
		return err
	}
	a.ix.OnRegenerateTiles(a.batch, a.mesh.TakeChangedTiles())
	a.current = m
	a.logger.Info("map labeled",
		zap.String("map", a.mapPath),
		zap.Int("width", m.width),
		zap.Int("height", m.height),
		zap.Int("tiles", len(coords)))
	return nil
}

// reload rebuilds the tiles whose cells changed and relabels them. Cells
// outside the tile grid of the first load are ignored.
func (a *app) reload(ctx context.Context) error {
	next, err := loadMap(a.mapPath)
	if err != nil {
		return err
	}
	if c, r := next.tileGrid(a.cfg.Mesh.TileSize); c > a.cols || r > a.rows {
		a.logger.Warn("map grew past the mesh, extra cells ignored",
			zap.Int("cols", c), zap.Int("rows", r), zap.Int("mesh_cols", a.cols), zap.Int("mesh_rows", a.rows))
	}
	coords := diffTiles(a.current, next, a.cfg.Mesh.TileSize, a.cols, a.rows)
	if len(coords) == 0 {
		a.logger.Debug("map unchanged")
		a.current = next
		return nil
	}
	data, err := buildTiles(ctx, a.cfg.Mesh, next, coords)
	if err != nil {
		return err
	}
	if err := placeTiles(a.mesh, coords, data); err != nil {
		return err
	}
	a.batch++
	changed := a.mesh.TakeChangedTiles()
	a.ix.OnRegenerateTiles(a.batch, changed)
	a.current = next
	a.logger.Info("tiles relabeled",
		zap.Int("batch", a.batch),
		zap.Int("rebuilt", len(coords)),
		zap.Ints("changed", changed),
		zap.Int("live_labels", a.ix.Report().LiveLabels))
	return nil
}

func (a *app) writeReport() error {
	if a.reportPath == "" {
		return nil
	}
	var out io.Writer = os.Stdout
	if a.reportPath != "-" {
		f, err := os.Create(a.reportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return encodeReport(out, a.ix.Report(), a.format)
}

var errUnknownFormat = errors.New("unknown report format")

func encodeReport(w io.Writer, r *island.Report, format string) error {
	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	case "proto":
		pb, perr := r.ToProto()
		if perr != nil {
			return perr
		}
		data, err = message.Encode(pb)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
