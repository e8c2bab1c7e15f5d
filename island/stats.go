package island

// Stats are cumulative counters since the indexer was created.
type Stats struct {
	Pass             uint32 `json:"pass"`
	Batches          uint64 `json:"batches"`
	Floods           uint64 `json:"floods"`
	MintedLabels     uint64 `json:"minted_labels"`
	AdoptedLabels    uint64 `json:"adopted_labels"`
	TruncatedFloods  uint64 `json:"truncated_floods"`
	LabelExhaustions uint64 `json:"label_exhaustions"`
	OversizedTiles   uint64 `json:"oversized_tiles"`
	DroppedTiles     uint64 `json:"dropped_tiles"`
	SpilledPolys     uint64 `json:"spilled_polys"`
	MergedLabels     uint64 `json:"merged_labels"`
	RelabeledPolys   uint64 `json:"relabeled_polys"`

	LastBatchTiles int `json:"last_batch_tiles"`
	LastBatchPolys int `json:"last_batch_polys"`
}
