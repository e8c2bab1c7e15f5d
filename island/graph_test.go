package island

import (
	"github.com/gorustyt/navisland/detour"
)

// fakeGraph is a NavGraph over hand-built tiles so tests can wire arbitrary
// links, including links between tiles that are not grid neighbours.
// Refs are salt<<32 | tile<<16 | poly.
type fakeGraph struct {
	tiles    []*detour.DtMeshTile
	maxTiles int32
}

const fakeSalt = 1

func fakeRef(tile, poly int) detour.DtPolyRef {
	return detour.DtPolyRef(uint64(fakeSalt)<<32 | uint64(tile)<<16 | uint64(poly))
}

// newFakeGraph builds one tile per count, a negative count is a tile slot
// without a header.
func newFakeGraph(polyCounts ...int) *fakeGraph {
	g := &fakeGraph{}
	for _, n := range polyCounts {
		g.tiles = append(g.tiles, newFakeTile(n))
	}
	return g
}

func newFakeTile(n int) *detour.DtMeshTile {
	if n < 0 {
		return &detour.DtMeshTile{}
	}
	t := &detour.DtMeshTile{Header: &detour.DtMeshHeader{PolyCount: int32(n)}}
	for i := 0; i < n; i++ {
		t.Polys = append(t.Polys, &detour.DtPoly{FirstLink: detour.DT_NULL_LINK})
	}
	return t
}

func (g *fakeGraph) GetMaxTiles() int32 {
	if g.maxTiles != 0 {
		return g.maxTiles
	}
	return int32(len(g.tiles))
}

func (g *fakeGraph) GetTile(i int) *detour.DtMeshTile {
	if i >= len(g.tiles) {
		return &detour.DtMeshTile{}
	}
	return g.tiles[i]
}

func (g *fakeGraph) GetPolyRefBase(tile *detour.DtMeshTile) detour.DtPolyRef {
	for i, t := range g.tiles {
		if t == tile {
			return fakeRef(i, 0)
		}
	}
	return 0
}

func (g *fakeGraph) DecodePolyId(ref detour.DtPolyRef) (salt, it, ip uint32) {
	return uint32(ref >> 32), uint32(ref>>16) & 0xffff, uint32(ref) & 0xffff
}

func (g *fakeGraph) GetTileAndPolyByRefUnsafe(ref detour.DtPolyRef) (*detour.DtMeshTile, *detour.DtPoly) {
	_, it, ip := g.DecodePolyId(ref)
	tile := g.tiles[it]
	return tile, tile.Polys[ip]
}

func (g *fakeGraph) poly(ref detour.DtPolyRef) *detour.DtPoly {
	_, it, ip := g.DecodePolyId(ref)
	if int(it) >= len(g.tiles) || g.tiles[it].Header == nil || int(ip) >= len(g.tiles[it].Polys) {
		return nil
	}
	return g.tiles[it].Polys[ip]
}

func (g *fakeGraph) SetPolyFlags(ref detour.DtPolyRef, flags uint16) detour.DtStatus {
	p := g.poly(ref)
	if p == nil {
		return detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	p.Flags = flags
	return detour.DT_SUCCESS
}

func (g *fakeGraph) GetPolyFlags(ref detour.DtPolyRef) (uint16, detour.DtStatus) {
	p := g.poly(ref)
	if p == nil {
		return 0, detour.DT_FAILURE | detour.DT_INVALID_PARAM
	}
	return p.Flags, detour.DT_SUCCESS
}

func (g *fakeGraph) addLink(from, to detour.DtPolyRef) {
	_, it, ip := g.DecodePolyId(from)
	tile := g.tiles[it]
	poly := tile.Polys[ip]
	tile.Links = append(tile.Links, &detour.DtLink{Ref: to, Next: poly.FirstLink})
	poly.FirstLink = uint32(len(tile.Links) - 1)
}

// connect links a and b both ways.
func (g *fakeGraph) connect(a, b detour.DtPolyRef) {
	g.addLink(a, b)
	g.addLink(b, a)
}

func (g *fakeGraph) removeLinks(from detour.DtPolyRef, match func(detour.DtPolyRef) bool) {
	_, it, ip := g.DecodePolyId(from)
	tile := g.tiles[it]
	poly := tile.Polys[ip]
	prev := uint32(detour.DT_NULL_LINK)
	for i := poly.FirstLink; i != detour.DT_NULL_LINK; {
		next := tile.Links[i].Next
		if match(tile.Links[i].Ref) {
			if prev == detour.DT_NULL_LINK {
				poly.FirstLink = next
			} else {
				tile.Links[prev].Next = next
			}
		} else {
			prev = i
		}
		i = next
	}
}

// disconnect drops every link between a and b.
func (g *fakeGraph) disconnect(a, b detour.DtPolyRef) {
	g.removeLinks(a, func(r detour.DtPolyRef) bool { return r == b })
	g.removeLinks(b, func(r detour.DtPolyRef) bool { return r == a })
}

// replaceTile swaps tile i for a fresh tile of n polygons, dropping the links
// other tiles had into it. It returns the tiles whose links changed.
func (g *fakeGraph) replaceTile(i, n int) []int {
	changed := []int{i}
	for j, t := range g.tiles {
		if j == i || t.Header == nil {
			continue
		}
		for p := range t.Polys {
			touched := false
			g.removeLinks(fakeRef(j, p), func(r detour.DtPolyRef) bool {
				_, it, _ := g.DecodePolyId(r)
				if int(it) == i {
					touched = true
					return true
				}
				return false
			})
			if touched && changed[len(changed)-1] != j {
				changed = append(changed, j)
			}
		}
	}
	g.tiles[i] = newFakeTile(n)
	return changed
}

func (g *fakeGraph) refs() []detour.DtPolyRef {
	var refs []detour.DtPolyRef
	for i, t := range g.tiles {
		if t.Header == nil {
			continue
		}
		for p := range t.Polys {
			refs = append(refs, fakeRef(i, p))
		}
	}
	return refs
}

func (g *fakeGraph) neighbours(ref detour.DtPolyRef) []detour.DtPolyRef {
	tile, poly := g.GetTileAndPolyByRefUnsafe(ref)
	var out []detour.DtPolyRef
	for i := poly.FirstLink; i != detour.DT_NULL_LINK; i = tile.Links[i].Next {
		out = append(out, tile.Links[i].Ref)
	}
	return out
}

// chain links the polygons of tile in index order.
func (g *fakeGraph) chain(tile int) {
	for p := 1; p < len(g.tiles[tile].Polys); p++ {
		g.connect(fakeRef(tile, p-1), fakeRef(tile, p))
	}
}

type recordingObserver struct {
	NopObserver
	minted    []uint8
	finalized int
	truncated int
	exhausted int
}

func (o *recordingObserver) OnLabelMinted(owner any, label uint8) {
	o.minted = append(o.minted, label)
}

func (o *recordingObserver) OnPolyFinalized(owner any, ref detour.DtPolyRef, label uint8) {
	o.finalized++
}

func (o *recordingObserver) OnFloodTruncated(owner any, start detour.DtPolyRef, visited int) {
	o.truncated++
}

func (o *recordingObserver) OnLabelsExhausted(owner any, label uint8) {
	o.exhausted++
}
