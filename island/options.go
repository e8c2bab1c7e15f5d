package island

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrInvalidOptions = errors.New("island: invalid options")
	ErrArenaTooLarge  = errors.New("island: label arena too large")
	ErrClosed         = errors.New("island: indexer closed")
)

const (
	DefaultMaxTiles        = 16384
	DefaultMaxPolysPerTile = 128
	DefaultFloodCapacity   = 1024

	// Labels below DefaultFirstLabel are left to static labeling schemes.
	DefaultFirstLabel uint8 = 16
	DefaultLastLabel  uint8 = ReservedLabel - 1
)

type Options struct {
	// MaxTiles caps the number of tiles with label storage. Tiles at or above
	// min(MaxTiles, nav.GetMaxTiles()) are never labeled.
	MaxTiles int
	// MaxPolysPerTile is the storage per tile. Polygons past it stay unlabeled.
	MaxPolysPerTile int
	// OpenCapacity and PendingCapacity bound a single flood. A flood that
	// needs more stops early and is counted as truncated.
	OpenCapacity    int
	PendingCapacity int

	// Fresh labels are minted cyclically from [FirstLabel, LastLabel].
	FirstLabel uint8
	LastLabel  uint8

	// The label is written to the polygon flags shifted left by FlagShift.
	// With PreserveFlags the flag bits outside the label field are kept.
	FlagShift     uint
	PreserveFlags bool

	// ExpandToLinkedTiles adds to every batch the tiles each changed tile was
	// linked to when it was last flooded, so a tile that stops bridging two
	// neighbours splits their island.
	ExpandToLinkedTiles bool
	// PropagateMerges relabels stable islands that a batch joined so that the
	// whole island ends with a single label.
	PropagateMerges bool

	Logger   *zap.Logger
	Observer Observer
}

func DefaultOptions() Options {
	return Options{
		MaxTiles:            DefaultMaxTiles,
		MaxPolysPerTile:     DefaultMaxPolysPerTile,
		OpenCapacity:        DefaultFloodCapacity,
		PendingCapacity:     DefaultFloodCapacity,
		FirstLabel:          DefaultFirstLabel,
		LastLabel:           DefaultLastLabel,
		ExpandToLinkedTiles: true,
		PropagateMerges:     true,
	}
}

// WithDefaults fills zero numeric fields and nil collaborators. Booleans are
// taken as given.
func (o Options) WithDefaults() Options {
	if o.MaxTiles == 0 {
		o.MaxTiles = DefaultMaxTiles
	}
	if o.MaxPolysPerTile == 0 {
		o.MaxPolysPerTile = DefaultMaxPolysPerTile
	}
	if o.OpenCapacity == 0 {
		o.OpenCapacity = DefaultFloodCapacity
	}
	if o.PendingCapacity == 0 {
		o.PendingCapacity = DefaultFloodCapacity
	}
	if o.FirstLabel == 0 && o.LastLabel == 0 {
		o.FirstLabel, o.LastLabel = DefaultFirstLabel, DefaultLastLabel
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	return o
}

func (o Options) Validate() error {
	switch {
	case o.MaxTiles < 0:
		return fmt.Errorf("%w: max tiles %d", ErrInvalidOptions, o.MaxTiles)
	case o.MaxPolysPerTile <= 0:
		return fmt.Errorf("%w: max polys per tile %d", ErrInvalidOptions, o.MaxPolysPerTile)
	case o.OpenCapacity <= 0 || o.PendingCapacity <= 0:
		return fmt.Errorf("%w: flood capacity %d/%d", ErrInvalidOptions, o.OpenCapacity, o.PendingCapacity)
	case o.FirstLabel == 0 || o.LastLabel == ReservedLabel || o.FirstLabel > o.LastLabel:
		return fmt.Errorf("%w: label range [%d,%d]", ErrInvalidOptions, o.FirstLabel, o.LastLabel)
	case o.FlagShift > 8:
		return fmt.Errorf("%w: flag shift %d", ErrInvalidOptions, o.FlagShift)
	}
	return nil
}
