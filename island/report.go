package island

import (
	"fmt"
	"slices"

	"github.com/gorustyt/navisland/detour"
	"google.golang.org/protobuf/types/known/structpb"
)

type IslandSummary struct {
	Label uint8 `json:"label"`
	Polys int   `json:"polys"`
	Tiles []int `json:"tiles"`
}

// Report is a snapshot of the labels at rest.
type Report struct {
	Stats      Stats           `json:"stats"`
	Tiles      int             `json:"tiles"`
	Polys      int             `json:"polys"`
	Unlabeled  int             `json:"unlabeled"`
	Islands    []IslandSummary `json:"islands"`
	LiveLabels int             `json:"live_labels"`
}

// Report walks every stored tile of the mesh. It must not be called while a
// batch is running.
func (ix *Indexer) Report() *Report {
	r := &Report{Stats: ix.stats}
	var byLabel [256]*IslandSummary
	for t := 0; t < ix.store.tiles; t++ {
		tile := ix.nav.GetTile(t)
		if tile == nil || tile.Header == nil {
			continue
		}
		r.Tiles++
		base := ix.nav.GetPolyRefBase(tile)
		for j := 0; j < int(tile.Header.PolyCount); j++ {
			r.Polys++
			label := ix.Label(base | detour.DtPolyRef(j))
			if label == 0 {
				r.Unlabeled++
				continue
			}
			s := byLabel[label]
			if s == nil {
				s = &IslandSummary{Label: label}
				byLabel[label] = s
			}
			s.Polys++
			if n := len(s.Tiles); n == 0 || s.Tiles[n-1] != t {
				s.Tiles = append(s.Tiles, t)
			}
		}
	}
	for _, s := range byLabel {
		if s != nil {
			r.Islands = append(r.Islands, *s)
		}
	}
	slices.SortStableFunc(r.Islands, func(a, b IslandSummary) int { return b.Polys - a.Polys })
	r.LiveLabels = len(r.Islands)
	return r
}

// Island returns the summary for label, if any polygon carries it.
func (r *Report) Island(label uint8) (IslandSummary, bool) {
	for _, s := range r.Islands {
		if s.Label == label {
			return s, true
		}
	}
	return IslandSummary{}, false
}

func (r *Report) ToProto() (*structpb.Struct, error) {
	islands := make([]any, 0, len(r.Islands))
	for _, s := range r.Islands {
		tiles := make([]any, len(s.Tiles))
		for i, t := range s.Tiles {
			tiles[i] = t
		}
		islands = append(islands, map[string]any{
			"label": int(s.Label),
			"polys": s.Polys,
			"tiles": tiles,
		})
	}
	st := r.Stats
	m := map[string]any{
		"tiles":       r.Tiles,
		"polys":       r.Polys,
		"unlabeled":   r.Unlabeled,
		"live_labels": r.LiveLabels,
		"islands":     islands,
		"stats": map[string]any{
			"pass":              st.Pass,
			"batches":           st.Batches,
			"floods":            st.Floods,
			"minted_labels":     st.MintedLabels,
			"adopted_labels":    st.AdoptedLabels,
			"truncated_floods":  st.TruncatedFloods,
			"label_exhaustions": st.LabelExhaustions,
			"oversized_tiles":   st.OversizedTiles,
			"dropped_tiles":     st.DroppedTiles,
			"spilled_polys":     st.SpilledPolys,
			"merged_labels":     st.MergedLabels,
			"relabeled_polys":   st.RelabeledPolys,
			"last_batch_tiles":  st.LastBatchTiles,
			"last_batch_polys":  st.LastBatchPolys,
		},
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("island report: %w", err)
	}
	return s, nil
}
