package island

import (
	"github.com/gorustyt/navisland/detour"
	"go.uber.org/zap"
)

// labelUnion is a union-find over the 256 label values. The label that joined
// first stays the root of its set.
type labelUnion struct {
	parent [256]uint8
	order  [256]uint32 // 0 while the label is in no set
	next   uint32
}

func (u *labelUnion) reset() {
	*u = labelUnion{}
}

func (u *labelUnion) add(l uint8) {
	if u.order[l] == 0 {
		u.next++
		u.order[l] = u.next
		u.parent[l] = l
	}
}

func (u *labelUnion) find(l uint8) uint8 {
	if u.order[l] == 0 {
		return l
	}
	for u.parent[l] != l {
		u.parent[l] = u.parent[u.parent[l]]
		l = u.parent[l]
	}
	return l
}

// join merges the sets of from and to and reports whether they were apart.
func (u *labelUnion) join(from, to uint8) bool {
	u.add(to)
	u.add(from)
	ra, rb := u.find(from), u.find(to)
	if ra == rb {
		return false
	}
	if u.order[ra] < u.order[rb] {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
	return true
}

// propagateMerges rewrites the islands a batch joined to one label. Starting
// from every stable polygon a flood saw with a second label, it walks the
// connected polygons whose labels joined the same set.
func (ix *Indexer) propagateMerges() {
	u := &ix.union
	u.reset()
	merged := 0
	for _, m := range ix.engine.merges {
		if u.join(m.from, m.to) {
			merged++
		}
	}
	if merged == 0 {
		return
	}

	st := ix.store
	queue := ix.relabel[:0]
	// FloodedBit marks visited polygons while walking.
	visit := func(ref detour.DtPolyRef) {
		st.SetWord(ref, st.Word(ref)|FloodedBit)
		queue = append(queue, ref)
	}
	for _, m := range ix.engine.merges {
		if w := st.Word(m.seed); w.Flooded() || w.Label() == 0 {
			continue
		}
		visit(m.seed)
	}
	for head := 0; head < len(queue); head++ {
		ref := queue[head]
		root := u.find(st.Word(ref).Label())
		tile, poly := ix.nav.GetTileAndPolyByRefUnsafe(ref)
		for i := poly.FirstLink; i != detour.DT_NULL_LINK; i = tile.Links[i].Next {
			nei := tile.Links[i].Ref
			if nei == 0 || !st.Contains(nei) {
				continue
			}
			w := st.Word(nei)
			if w.Flooded() || w.Label() == 0 || u.find(w.Label()) != root {
				continue
			}
			visit(nei)
		}
	}

	rewritten := 0
	for _, ref := range queue {
		label := st.Word(ref).Label()
		root := u.find(label)
		st.SetState(ref, StableState(root))
		if root != label {
			ix.writeFlags(ref, root)
			ix.observer.OnPolyFinalized(ix.engine.owner, ref, root)
			rewritten++
		}
	}
	ix.relabel = queue[:0]

	ix.stats.MergedLabels += uint64(merged)
	ix.stats.RelabeledPolys += uint64(rewritten)
	ix.logger.Debug("islands merged",
		zap.Int("labels", merged),
		zap.Int("walked", len(queue)),
		zap.Int("relabeled", rewritten))
}
