package island

import (
	"fmt"

	"github.com/gorustyt/navisland/common"
	"github.com/gorustyt/navisland/detour"
)

// maxArenaWords bounds the label arena (128 MiB of words).
const maxArenaWords = 1 << 26

// labelStore keeps one LabelWord per polygon slot in a single arena indexed by
// tile*polysPerTile+poly, plus the dirty pass of every tile.
type labelStore struct {
	nav          NavGraph
	tiles        int
	polysPerTile int

	words []LabelWord
	dirty []uint32
	// usage counts the polygons carrying each label, transient or not.
	usage [256]uint32
	// links lists the tiles a tile was connected to when last flooded.
	links [][]int
}

func newLabelStore(nav NavGraph, tiles, polysPerTile int) (*labelStore, error) {
	if tiles < 0 || polysPerTile <= 0 {
		return nil, fmt.Errorf("%w: %d tiles of %d polys", ErrInvalidOptions, tiles, polysPerTile)
	}
	if int64(tiles)*int64(polysPerTile) > maxArenaWords {
		return nil, fmt.Errorf("%w: %d tiles of %d polys", ErrArenaTooLarge, tiles, polysPerTile)
	}
	return &labelStore{
		nav:          nav,
		tiles:        tiles,
		polysPerTile: polysPerTile,
		words:        make([]LabelWord, tiles*polysPerTile),
		dirty:        make([]uint32, tiles),
		links:        make([][]int, tiles),
	}, nil
}

func (s *labelStore) slot(ref detour.DtPolyRef) (int, bool) {
	_, it, ip := s.nav.DecodePolyId(ref)
	if int64(it) >= int64(s.tiles) || int64(ip) >= int64(s.polysPerTile) {
		return 0, false
	}
	return int(it)*s.polysPerTile + int(ip), true
}

// Contains reports whether ref decodes to a slot of the arena.
func (s *labelStore) Contains(ref detour.DtPolyRef) bool {
	_, ok := s.slot(ref)
	return ok
}

func (s *labelStore) Word(ref detour.DtPolyRef) LabelWord {
	i, ok := s.slot(ref)
	if !ok {
		return 0
	}
	return s.words[i]
}

func (s *labelStore) SetWord(ref detour.DtPolyRef, w LabelWord) {
	i, ok := s.slot(ref)
	if !ok {
		return
	}
	s.setSlot(i, w)
}

func (s *labelStore) setSlot(i int, w LabelWord) {
	old := s.words[i]
	if l := old.Label(); l != 0 {
		s.usage[l]--
	}
	if l := w.Label(); l != 0 {
		s.usage[l]++
	}
	s.words[i] = w
}

func (s *labelStore) State(ref detour.DtPolyRef) State {
	return s.Word(ref).State()
}

func (s *labelStore) SetState(ref detour.DtPolyRef, st State) {
	s.SetWord(ref, st.Word())
}

func (s *labelStore) DirtyPass(tile int) uint32 {
	if tile < 0 || tile >= s.tiles {
		return 0
	}
	return s.dirty[tile]
}

func (s *labelStore) SetDirtyPass(tile int, pass uint32) {
	if tile < 0 || tile >= s.tiles {
		return
	}
	s.dirty[tile] = pass
}

// Live reports whether some polygon carries label.
func (s *labelStore) Live(label uint8) bool {
	return s.usage[label] != 0
}

// clearTile zeroes the slots of tile from poly index from onwards.
func (s *labelStore) clearTile(tile, from int) {
	if tile < 0 || tile >= s.tiles {
		return
	}
	base := tile * s.polysPerTile
	for i := base + max(from, 0); i < base+s.polysPerTile; i++ {
		if s.words[i] != 0 {
			s.setSlot(i, 0)
		}
	}
}

func (s *labelStore) recordLink(a, b int) {
	if a == b || a < 0 || b < 0 || a >= s.tiles || b >= s.tiles {
		return
	}
	s.links[a] = common.AppendUnique(s.links[a], b)
	s.links[b] = common.AppendUnique(s.links[b], a)
}

func (s *labelStore) linkedTiles(tile int) []int {
	if tile < 0 || tile >= s.tiles {
		return nil
	}
	return s.links[tile]
}

func (s *labelStore) resetLinks(tile int) {
	if tile < 0 || tile >= s.tiles {
		return
	}
	s.links[tile] = s.links[tile][:0]
}

func (s *labelStore) release() {
	s.words = nil
	s.dirty = nil
	s.links = nil
	s.usage = [256]uint32{}
	s.tiles = 0
}
