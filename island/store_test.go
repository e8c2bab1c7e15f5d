package island

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelStoreSlots(t *testing.T) {
	g := newFakeGraph(4, 4)
	s, err := newLabelStore(g, 2, 4)
	require.NoError(t, err)

	assert.True(t, s.Contains(fakeRef(1, 3)))
	assert.False(t, s.Contains(fakeRef(1, 4)), "poly past storage")
	assert.False(t, s.Contains(fakeRef(2, 0)), "tile past storage")

	s.SetState(fakeRef(1, 3), StableState(20))
	assert.Equal(t, StableState(20), s.State(fakeRef(1, 3)))
	assert.Equal(t, State{}, s.State(fakeRef(1, 2)))

	// writes outside the arena are dropped
	s.SetState(fakeRef(5, 0), StableState(20))
	assert.Equal(t, LabelWord(0), s.Word(fakeRef(5, 0)))
}

func TestLabelStoreUsage(t *testing.T) {
	g := newFakeGraph(4)
	s, err := newLabelStore(g, 1, 4)
	require.NoError(t, err)

	s.SetState(fakeRef(0, 0), StableState(17))
	s.SetState(fakeRef(0, 1), FloodedState(17))
	s.SetState(fakeRef(0, 2), PendingState)
	assert.True(t, s.Live(17))
	assert.False(t, s.Live(0), "pending words carry no label")

	s.SetState(fakeRef(0, 0), StableState(18))
	assert.True(t, s.Live(17))
	s.SetState(fakeRef(0, 1), FloodedState(18))
	assert.False(t, s.Live(17))
	assert.Equal(t, uint32(2), s.usage[18])

	s.clearTile(0, 1)
	assert.Equal(t, uint32(1), s.usage[18])
	assert.Equal(t, StableState(18), s.State(fakeRef(0, 0)))
	s.clearTile(0, 0)
	assert.False(t, s.Live(18))
}

func TestLabelStoreDirtyAndLinks(t *testing.T) {
	s, err := newLabelStore(newFakeGraph(1, 1, 1), 3, 1)
	require.NoError(t, err)

	s.SetDirtyPass(1, 7)
	assert.Equal(t, uint32(7), s.DirtyPass(1))
	assert.Equal(t, uint32(0), s.DirtyPass(-1))
	s.SetDirtyPass(3, 7)

	s.recordLink(0, 1)
	s.recordLink(1, 0)
	s.recordLink(1, 2)
	s.recordLink(1, 1)
	s.recordLink(1, 9)
	assert.Equal(t, []int{0, 2}, s.linkedTiles(1))
	assert.Equal(t, []int{1}, s.linkedTiles(0))
	s.resetLinks(1)
	assert.Empty(t, s.linkedTiles(1))
	assert.Nil(t, s.linkedTiles(3))

	s.release()
	assert.False(t, s.Contains(fakeRef(0, 0)))
}

func TestLabelStoreLimits(t *testing.T) {
	_, err := newLabelStore(newFakeGraph(), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	_, err = newLabelStore(newFakeGraph(), 1<<16, 1<<11)
	assert.ErrorIs(t, err, ErrArenaTooLarge)
}
