package island

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelWordStates(t *testing.T) {
	tests := []struct {
		name string
		word LabelWord
		want State
	}{
		{"zero", 0, State{}},
		{"stable", 42, StableState(42)},
		{"flooded", 42 | FloodedBit, FloodedState(42)},
		{"pending", PendingBit, PendingState},
		// a pending word never carries a decided label
		{"pending wins", PendingBit | FloodedBit | 7, PendingState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.word.State())
		})
	}
}

func TestStateWordRoundTrip(t *testing.T) {
	for _, st := range []State{{}, StableState(16), FloodedState(254), PendingState} {
		assert.Equal(t, st, st.Word().State(), st.String())
	}
	assert.Equal(t, LabelWord(0), State{Kind: Stable}.Word().Plain())
}

func TestLabelWordBits(t *testing.T) {
	w := LabelWord(200) | FloodedBit
	assert.Equal(t, uint8(200), w.Label())
	assert.True(t, w.Flooded())
	assert.False(t, w.Pending())
	assert.True(t, w.Transient())
	assert.Equal(t, LabelWord(200), w.Plain())
	assert.False(t, w.Plain().Transient())

	assert.Equal(t, uint8(0), PendingState.Word().Label())
	assert.Equal(t, "flooded(3)", FloodedState(3).String())
	assert.Equal(t, "pending", PendingState.String())
	assert.Equal(t, "StateKind(9)", StateKind(9).String())
}
