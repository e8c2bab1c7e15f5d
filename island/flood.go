package island

import (
	"github.com/gorustyt/navisland/detour"
	"go.uber.org/zap"
)

// labelMerge records that a flood which decided label to also touched a
// stable polygon seed carrying label from.
type labelMerge struct {
	from, to uint8
	seed     detour.DtPolyRef
}

type floodResult struct {
	label     uint8
	adopted   bool
	truncated bool
	visited   int
}

// floodEngine labels one connected region per flood call. It never writes
// into a labeled polygon of a tile that is not dirty in the running batch,
// it only reads the label of the first such neighbour it meets.
type floodEngine struct {
	nav      NavGraph
	store    *labelStore
	stats    *Stats
	observer Observer
	logger   *zap.Logger

	open    *boundedStack[detour.DtPolyRef]
	pending *boundedStack[detour.DtPolyRef]

	first, last uint8
	cursor      uint8

	// per batch
	owner   any
	pass    uint32
	initial bool
	spill   []detour.DtPolyRef
	merges  []labelMerge

	// driver position, polygons before it are committed
	curTile int
	curPoly int
}

func newFloodEngine(nav NavGraph, store *labelStore, stats *Stats, opts Options) *floodEngine {
	return &floodEngine{
		nav:      nav,
		store:    store,
		stats:    stats,
		observer: opts.Observer,
		logger:   opts.Logger,
		open:     newBoundedStack[detour.DtPolyRef](opts.OpenCapacity),
		pending:  newBoundedStack[detour.DtPolyRef](opts.PendingCapacity),
		first:    opts.FirstLabel,
		last:     opts.LastLabel,
	}
}

func (e *floodEngine) begin(owner any, pass uint32, initial bool) {
	e.owner = owner
	e.pass = pass
	e.initial = initial
	e.spill = e.spill[:0]
	e.merges = e.merges[:0]
	e.curTile, e.curPoly = -1, 0
}

// at moves the driver position to poly j of tile t.
func (e *floodEngine) at(t, j int) {
	e.curTile, e.curPoly = t, j
}

// committed reports whether the driver already finalized ref in this batch.
// Working tiles are walked in ascending order.
func (e *floodEngine) committed(ref detour.DtPolyRef) bool {
	_, it, ip := e.nav.DecodePolyId(ref)
	return int(it) < e.curTile || (int(it) == e.curTile && int(ip) < e.curPoly)
}

func (e *floodEngine) isDirty(tile int) bool {
	return e.initial || e.store.DirtyPass(tile) == e.pass
}

func (e *floodEngine) tileOf(ref detour.DtPolyRef) int {
	_, it, _ := e.nav.DecodePolyId(ref)
	return int(it)
}

// flood labels every polygon reachable from start without crossing into
// stable territory. On return all of them carry Flooded(label).
func (e *floodEngine) flood(start detour.DtPolyRef) floodResult {
	var res floodResult
	decided := false

	e.open.Clear()
	e.pending.Clear()
	e.open.Push(start)
	e.pending.Push(start)
	e.store.SetState(start, PendingState)
	res.visited = 1

walk:
	for !e.open.Empty() {
		ref := e.open.Pop()
		tile, poly := e.nav.GetTileAndPolyByRefUnsafe(ref)
		from := e.tileOf(ref)

		// Visit linked polygons.
		for i := poly.FirstLink; i != detour.DT_NULL_LINK; i = tile.Links[i].Next {
			nei := tile.Links[i].Ref
			// Skip invalid and polygons without storage.
			if nei == 0 || !e.store.Contains(nei) {
				continue
			}
			to := e.tileOf(nei)
			if to != from {
				e.store.recordLink(from, to)
			}

			st := e.store.State(nei)
			switch st.Kind {
			case Pending, Flooded:
				continue
			case Stable:
				if !e.isDirty(to) || e.committed(nei) {
					if !decided {
						res.label = st.Label
						res.adopted = true
						decided = true
					} else if st.Label != res.label {
						e.merges = append(e.merges, labelMerge{from: st.Label, to: res.label, seed: nei})
					}
					continue
				}
				// A dirty tile's label cannot be trusted, treat it as unvisited.
			}

			if !decided {
				if !e.pending.Push(nei) {
					res.truncated = true
					break walk
				}
				e.store.SetState(nei, PendingState)
			} else {
				e.store.SetState(nei, FloodedState(res.label))
			}
			res.visited++
			if !e.isDirty(to) {
				e.spill = append(e.spill, nei)
			}
			if !e.open.Push(nei) {
				res.truncated = true
				break walk
			}
		}
	}

	// Everything went to pending, the region needs a new island label.
	if !decided {
		res.label = e.mint()
	}
	for _, ref := range e.pending.Data() {
		e.store.SetState(ref, FloodedState(res.label))
	}

	e.stats.Floods++
	if res.adopted {
		e.stats.AdoptedLabels++
	}
	if res.truncated {
		e.stats.TruncatedFloods++
		e.logger.Warn("flood truncated",
			zap.Uint64("start", uint64(start)),
			zap.Int("visited", res.visited),
			zap.Int("open_capacity", e.open.Cap()),
			zap.Int("pending_capacity", e.pending.Cap()))
		e.observer.OnFloodTruncated(e.owner, start, res.visited)
	}
	return res
}

func (e *floodEngine) advance() {
	if e.cursor < e.first || e.cursor >= e.last {
		e.cursor = e.first
	} else {
		e.cursor++
	}
}

// mint advances the cursor to the next label no polygon carries. When every
// label of the range is live the next one is reused anyway.
func (e *floodEngine) mint() uint8 {
	n := int(e.last) - int(e.first) + 1
	for i := 0; i < n; i++ {
		e.advance()
		if !e.store.Live(e.cursor) {
			e.stats.MintedLabels++
			e.observer.OnLabelMinted(e.owner, e.cursor)
			return e.cursor
		}
	}
	e.advance()
	e.stats.MintedLabels++
	e.stats.LabelExhaustions++
	e.logger.Warn("label range exhausted", zap.Uint8("label", e.cursor),
		zap.Uint8("first", e.first), zap.Uint8("last", e.last))
	e.observer.OnLabelsExhausted(e.owner, e.cursor)
	e.observer.OnLabelMinted(e.owner, e.cursor)
	return e.cursor
}
