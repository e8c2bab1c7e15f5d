package island

import (
	"github.com/gorustyt/navisland/detour"
	"go.uber.org/zap"
)

// Observer is told about labeling progress. It is used for tracing and
// drawing only and never changes the outcome of a batch. owner is the value
// passed to OnRegenerateTiles.
type Observer interface {
	OnLabelMinted(owner any, label uint8)
	OnPolyFinalized(owner any, ref detour.DtPolyRef, label uint8)
	OnFloodTruncated(owner any, start detour.DtPolyRef, visited int)
	OnLabelsExhausted(owner any, label uint8)
}

type NopObserver struct{}

func (NopObserver) OnLabelMinted(owner any, label uint8) {}

func (NopObserver) OnPolyFinalized(owner any, ref detour.DtPolyRef, label uint8) {}

func (NopObserver) OnFloodTruncated(owner any, start detour.DtPolyRef, visited int) {}

func (NopObserver) OnLabelsExhausted(owner any, label uint8) {}

// LogObserver traces every event to a zap logger, finalized polygons at debug.
type LogObserver struct {
	Logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{Logger: logger.Named("island.trace")}
}

func (o *LogObserver) OnLabelMinted(owner any, label uint8) {
	o.Logger.Info("label minted", zap.Any("owner", owner), zap.Uint8("label", label))
}

func (o *LogObserver) OnPolyFinalized(owner any, ref detour.DtPolyRef, label uint8) {
	if ce := o.Logger.Check(zap.DebugLevel, "poly finalized"); ce != nil {
		ce.Write(zap.Any("owner", owner), zap.Uint64("ref", uint64(ref)), zap.Uint8("label", label))
	}
}

func (o *LogObserver) OnFloodTruncated(owner any, start detour.DtPolyRef, visited int) {
	o.Logger.Warn("flood truncated", zap.Any("owner", owner), zap.Uint64("start", uint64(start)), zap.Int("visited", visited))
}

func (o *LogObserver) OnLabelsExhausted(owner any, label uint8) {
	o.Logger.Warn("label range exhausted, reusing a live label", zap.Any("owner", owner), zap.Uint8("label", label))
}
