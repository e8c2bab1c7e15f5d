package island

import (
	"fmt"
	"slices"

	"github.com/gorustyt/navisland/detour"
	"go.uber.org/zap"
)

// Indexer assigns every polygon of a tiled navmesh an island label and keeps
// the labels current as tiles are regenerated. It is not safe for concurrent
// use: callers serialize mesh mutation, OnRegenerateTiles and the queries.
//
// Labels are unique across islands only while at most LastLabel-FirstLabel+1
// islands are live; past that, disjoint islands may share a label.
type Indexer struct {
	nav      NavGraph
	opts     Options
	logger   *zap.Logger
	observer Observer

	store  *labelStore
	engine *floodEngine
	stats  Stats

	pass    uint32
	initial bool
	closed  bool

	labelMask uint16
	work      []int
	relabel   []detour.DtPolyRef
	union     labelUnion
}

func NewIndexer(nav NavGraph, opts Options) (*Indexer, error) {
	if nav == nil {
		return nil, fmt.Errorf("%w: nil navigation graph", ErrInvalidOptions)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tiles := min(int(nav.GetMaxTiles()), opts.MaxTiles)
	store, err := newLabelStore(nav, tiles, opts.MaxPolysPerTile)
	if err != nil {
		return nil, err
	}
	ix := &Indexer{
		nav:       nav,
		opts:      opts,
		logger:    opts.Logger.Named("island"),
		observer:  opts.Observer,
		store:     store,
		initial:   true,
		labelMask: uint16(LabelMask) << opts.FlagShift,
	}
	ix.engine = newFloodEngine(nav, store, &ix.stats, opts)
	ix.engine.logger = ix.logger
	if int(nav.GetMaxTiles()) > tiles {
		ix.logger.Warn("navmesh has more tiles than label storage",
			zap.Int32("mesh_tiles", nav.GetMaxTiles()), zap.Int("stored_tiles", tiles))
	}
	ix.logger.Debug("indexer created",
		zap.Int("tiles", tiles),
		zap.Int("polys_per_tile", opts.MaxPolysPerTile),
		zap.Uint8("first_label", opts.FirstLabel),
		zap.Uint8("last_label", opts.LastLabel))
	return ix, nil
}

// Close releases the label storage. The indexer must not be used afterwards.
func (ix *Indexer) Close() error {
	if ix.closed {
		return ErrClosed
	}
	ix.closed = true
	ix.store.release()
	ix.work = nil
	ix.relabel = nil
	return nil
}

// OnRegenerateTiles relabels after the tiles in changedTiles were rebuilt.
// The first call labels every tile of the mesh regardless of changedTiles.
func (ix *Indexer) OnRegenerateTiles(owner any, changedTiles []int) {
	if ix.closed {
		ix.logger.Warn("OnRegenerateTiles on closed indexer", zap.Error(ErrClosed))
		return
	}
	e := ix.engine
	e.begin(owner, ix.pass, ix.initial)

	work := ix.workingSet(changedTiles)
	for _, t := range work {
		ix.prepareTile(t)
	}

	polys := 0
	for _, t := range work {
		tile := ix.nav.GetTile(t)
		if tile == nil || tile.Header == nil {
			continue
		}
		n := min(int(tile.Header.PolyCount), ix.store.polysPerTile)
		base := ix.nav.GetPolyRefBase(tile)
		// Flood every polygon the earlier floods of this batch did not reach.
		for j := 0; j < n; j++ {
			ref := base | detour.DtPolyRef(j)
			if !ix.store.Word(ref).Flooded() {
				e.at(t, j)
				e.flood(ref)
			}
			ix.commit(ref)
		}
		polys += n
	}

	// Unlabeled polygons outside the batch that a flood reached.
	for _, ref := range e.spill {
		if ix.store.Word(ref).Transient() {
			ix.commit(ref)
			ix.stats.SpilledPolys++
		}
	}

	if ix.opts.PropagateMerges && len(e.merges) > 0 {
		ix.propagateMerges()
	}

	ix.pass++
	if ix.pass == 0 {
		// never-stamped tiles hold 0
		ix.pass = 1
	}
	ix.initial = false

	ix.stats.Batches++
	ix.stats.Pass = ix.pass
	ix.stats.LastBatchTiles = len(work)
	ix.stats.LastBatchPolys = polys
	ix.logger.Debug("tiles regenerated",
		zap.Any("owner", owner),
		zap.Ints("changed", changedTiles),
		zap.Int("tiles", len(work)),
		zap.Int("polys", polys),
		zap.Int("spilled", len(e.spill)),
		zap.Int("merges", len(e.merges)),
		zap.Uint32("pass", ix.pass))
}

// workingSet returns the tiles of this batch in ascending order and stamps
// them with the current pass.
func (ix *Indexer) workingSet(changedTiles []int) []int {
	work := ix.work[:0]
	if ix.initial {
		for t := 0; t < ix.store.tiles; t++ {
			work = append(work, t)
		}
		ix.work = work
		return work
	}

	add := func(t int) {
		if ix.store.DirtyPass(t) == ix.pass {
			return
		}
		ix.store.SetDirtyPass(t, ix.pass)
		work = append(work, t)
	}
	for _, t := range changedTiles {
		if t < 0 || t >= ix.store.tiles {
			ix.stats.DroppedTiles++
			ix.logger.Warn("changed tile out of range", zap.Int("tile", t), zap.Int("tiles", ix.store.tiles))
			continue
		}
		add(t)
	}
	if ix.opts.ExpandToLinkedTiles {
		for _, t := range work[:len(work):len(work)] {
			for _, nei := range ix.store.linkedTiles(t) {
				add(nei)
			}
		}
	}
	slices.Sort(work)
	ix.work = work
	return work
}

// prepareTile drops the labels of polygons that no longer exist.
func (ix *Indexer) prepareTile(t int) {
	tile := ix.nav.GetTile(t)
	if tile == nil || tile.Header == nil {
		ix.store.clearTile(t, 0)
		ix.store.resetLinks(t)
		return
	}
	n := int(tile.Header.PolyCount)
	if n > ix.store.polysPerTile {
		ix.stats.OversizedTiles++
		ix.logger.Warn("tile has more polys than label storage",
			zap.Int("tile", t), zap.Int("polys", n), zap.Int("capacity", ix.store.polysPerTile))
	}
	ix.store.clearTile(t, n)
	ix.store.resetLinks(t)
}

// commit turns the flooded word of ref into its stable label and writes the
// label to the polygon flags.
func (ix *Indexer) commit(ref detour.DtPolyRef) {
	label := ix.store.Word(ref).Label()
	ix.store.SetState(ref, StableState(label))
	ix.writeFlags(ref, label)
	ix.observer.OnPolyFinalized(ix.engine.owner, ref, label)
}

func (ix *Indexer) writeFlags(ref detour.DtPolyRef, label uint8) {
	flags := uint16(label) << ix.opts.FlagShift
	if ix.opts.PreserveFlags {
		old, status := ix.nav.GetPolyFlags(ref)
		if status.DtStatusSucceed() {
			flags |= old &^ ix.labelMask
		}
	}
	if status := ix.nav.SetPolyFlags(ref, flags); status.DtStatusFailed() {
		ix.logger.Warn("set poly flags failed", zap.Uint64("ref", uint64(ref)), zap.Stringer("status", status))
	}
}

// Label returns the island label of ref, 0 when it has none.
func (ix *Indexer) Label(ref detour.DtPolyRef) uint8 {
	return ix.store.Word(ref).Label()
}

// SameIsland reports whether a and b carry the same non-zero label.
func (ix *Indexer) SameIsland(a, b detour.DtPolyRef) bool {
	la := ix.Label(a)
	return la != 0 && la == ix.Label(b)
}

func (ix *Indexer) Stats() Stats {
	return ix.stats
}

// Pass is the pass the next batch will stamp its tiles with.
func (ix *Indexer) Pass() uint32 {
	return ix.pass
}
