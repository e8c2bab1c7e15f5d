package island

import (
	"slices"
	"testing"

	"github.com/gorustyt/navisland/detour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneCells = 4

// cells returns a sceneCells x sceneCells walkability grid with the given
// columns blocked.
func cells(blockedCols ...int) []bool {
	w := make([]bool, sceneCells*sceneCells)
	for r := 0; r < sceneCells; r++ {
		for c := 0; c < sceneCells; c++ {
			w[r*sceneCells+c] = !slices.Contains(blockedCols, c)
		}
	}
	return w
}

// tileRow is a navmesh with one row of tiles along +x.
type tileRow struct {
	t    *testing.T
	mesh *detour.DtNavMesh
}

func newTileRow(t *testing.T, layouts ...[]bool) *tileRow {
	t.Helper()
	mesh, status := detour.NewDtNavMeshWithParams(&detour.NavMeshParams{
		TileWidth:  sceneCells,
		TileHeight: sceneCells,
		MaxTiles:   8,
		MaxPolys:   32,
	})
	require.True(t, status.DtStatusSucceed(), status.String())
	r := &tileRow{t: t, mesh: mesh}
	for x, walkable := range layouts {
		r.add(x, walkable)
	}
	return r
}

func (r *tileRow) add(x int, walkable []bool) {
	r.t.Helper()
	data, err := detour.CreateGridTileData(&detour.GridTileParams{
		X: int32(x), Cols: sceneCells, Rows: sceneCells, CellSize: 1, Walkable: walkable,
	})
	require.NoError(r.t, err)
	_, status := r.mesh.AddTile(data, 0, 0)
	require.True(r.t, status.DtStatusSucceed(), status.String())
}

// rebuild replaces the tile at x, it keeps its tile index.
func (r *tileRow) rebuild(x int, walkable []bool) {
	r.t.Helper()
	before := r.index(x)
	ref := r.mesh.GetTileRefAt(int32(x), 0, 0)
	require.NotZero(r.t, ref)
	_, status := r.mesh.RemoveTile(ref)
	require.True(r.t, status.DtStatusSucceed(), status.String())
	r.add(x, walkable)
	require.Equal(r.t, before, r.index(x))
}

func (r *tileRow) index(x int) int {
	tile := r.mesh.GetTileAt(int32(x), 0, 0)
	require.NotNil(r.t, tile)
	_, it, _ := r.mesh.DecodePolyId(r.mesh.GetPolyRefBase(tile))
	return int(it)
}

func (r *tileRow) polys(x int) []detour.DtPolyRef {
	tile := r.mesh.GetTileAt(int32(x), 0, 0)
	require.NotNil(r.t, tile)
	base := r.mesh.GetPolyRefBase(tile)
	refs := make([]detour.DtPolyRef, tile.Header.PolyCount)
	for j := range refs {
		refs[j] = base | detour.DtPolyRef(j)
	}
	return refs
}

func (r *tileRow) all(n int) []detour.DtPolyRef {
	var refs []detour.DtPolyRef
	for x := 0; x < n; x++ {
		refs = append(refs, r.polys(x)...)
	}
	return refs
}

func TestSceneInitialBuild(t *testing.T) {
	row := newTileRow(t, cells(), cells(1), cells())
	ix := newTestIndexer(t, row.mesh, DefaultOptions())
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())

	// column 1 of the middle tile is a wall, its column 0 stays with the left tile
	mid := row.polys(1)
	left := append(row.polys(0), mid[0], mid[3], mid[6], mid[9])
	var right []detour.DtPolyRef
	for _, ref := range mid {
		if !slices.Contains(left, ref) {
			right = append(right, ref)
		}
	}
	right = append(right, row.polys(2)...)

	l := islandLabel(t, ix, left...)
	r := islandLabel(t, ix, right...)
	assert.Equal(t, DefaultFirstLabel, l)
	assert.NotEqual(t, l, r)
	assertNoTransient(t, ix, row.all(3))

	for _, ref := range row.all(3) {
		flags, status := row.mesh.GetPolyFlags(ref)
		require.True(t, status.DtStatusSucceed())
		assert.Equal(t, uint16(ix.Label(ref)), flags)
	}
}

func TestSceneBridgeRemovedSplitsIsland(t *testing.T) {
	row := newTileRow(t, cells(), cells(), cells())
	ix := newTestIndexer(t, row.mesh, DefaultOptions())
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())
	before := islandLabel(t, ix, row.all(3)...)
	assert.Equal(t, DefaultFirstLabel, before)

	row.rebuild(1, cells(0, 3))
	row.mesh.TakeChangedTiles()
	ix.OnRegenerateTiles("bridge", []int{row.index(1)})

	a := islandLabel(t, ix, row.polys(0)...)
	b := islandLabel(t, ix, row.polys(1)...)
	c := islandLabel(t, ix, row.polys(2)...)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.NotEqual(t, a, c)
	assert.False(t, ix.SameIsland(row.polys(0)[0], row.polys(2)[0]))
	assert.Equal(t, 3, ix.Stats().LastBatchTiles)
	assertNoTransient(t, ix, row.all(3))
}

func TestSceneBridgeRemovedWithoutLinkedTiles(t *testing.T) {
	row := newTileRow(t, cells(), cells(), cells())
	opts := DefaultOptions()
	opts.ExpandToLinkedTiles = false
	opts.PropagateMerges = false
	ix := newTestIndexer(t, row.mesh, opts)
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())
	before := islandLabel(t, ix, row.all(3)...)

	row.rebuild(1, cells(0, 3))
	row.mesh.TakeChangedTiles()
	ix.OnRegenerateTiles(nil, []int{row.index(1)})

	// only the rebuilt tile is relabeled, the split stays undetected
	assert.Equal(t, before, islandLabel(t, ix, row.polys(0)...))
	assert.Equal(t, before, islandLabel(t, ix, row.polys(2)...))
	assert.NotEqual(t, before, islandLabel(t, ix, row.polys(1)...))
	assert.Equal(t, 1, ix.Stats().LastBatchTiles)
}

func TestSceneBridgeAddedMergesIslands(t *testing.T) {
	row := newTileRow(t, cells(), cells(0, 3), cells())
	ix := newTestIndexer(t, row.mesh, DefaultOptions())
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())
	lx := islandLabel(t, ix, row.polys(0)...)
	lt := islandLabel(t, ix, row.polys(1)...)
	ly := islandLabel(t, ix, row.polys(2)...)
	require.Len(t, map[uint8]bool{lx: true, lt: true, ly: true}, 3)
	minted := ix.Stats().MintedLabels

	row.rebuild(1, cells())
	row.mesh.TakeChangedTiles()
	ix.OnRegenerateTiles(nil, []int{row.index(1)})

	label := islandLabel(t, ix, row.all(3)...)
	assert.Contains(t, []uint8{lx, ly}, label)
	assert.Equal(t, minted, ix.Stats().MintedLabels, "the bridge adopts a neighbour label")
	assert.Equal(t, uint64(1), ix.Stats().MergedLabels)
	assert.Equal(t, 1, ix.Stats().LastBatchTiles)
	assert.False(t, ix.store.Live(lt))
	assertNoTransient(t, ix, row.all(3))
	for _, ref := range row.all(3) {
		flags, _ := row.mesh.GetPolyFlags(ref)
		assert.Equal(t, uint16(label), flags)
	}
}

func TestSceneBridgeAddedWithoutMergePropagation(t *testing.T) {
	row := newTileRow(t, cells(), cells(0, 3), cells())
	opts := DefaultOptions()
	opts.PropagateMerges = false
	ix := newTestIndexer(t, row.mesh, opts)
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())
	lx := islandLabel(t, ix, row.polys(0)...)
	ly := islandLabel(t, ix, row.polys(2)...)

	row.rebuild(1, cells())
	row.mesh.TakeChangedTiles()
	ix.OnRegenerateTiles(nil, []int{row.index(1)})

	// the stable sides keep their labels
	assert.Equal(t, lx, islandLabel(t, ix, row.polys(0)...))
	assert.Equal(t, ly, islandLabel(t, ix, row.polys(2)...))
	assert.Contains(t, []uint8{lx, ly}, islandLabel(t, ix, row.polys(1)...))
	assert.Zero(t, ix.Stats().MergedLabels)
}

func TestSceneChangedTilesFromMesh(t *testing.T) {
	row := newTileRow(t, cells(), cells(), cells())
	ix := newTestIndexer(t, row.mesh, DefaultOptions())
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())

	row.rebuild(1, cells(1, 2))
	changed := row.mesh.TakeChangedTiles()
	assert.ElementsMatch(t, []int{row.index(0), row.index(1), row.index(2)}, changed)
	ix.OnRegenerateTiles(nil, changed)

	// the rebuilt tile keeps both border columns, each joins its outer neighbour
	mid := row.polys(1)
	a := islandLabel(t, ix, append(row.polys(0), mid[0], mid[2], mid[4], mid[6])...)
	c := islandLabel(t, ix, append(row.polys(2), mid[1], mid[3], mid[5], mid[7])...)
	assert.NotEqual(t, a, c)

	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())
	assert.Equal(t, a, ix.Label(mid[0]))
	assert.Equal(t, c, ix.Label(mid[1]))
}

func TestSceneSmallFloodCapacity(t *testing.T) {
	row := newTileRow(t, cells())
	obs := &recordingObserver{}
	opts := DefaultOptions()
	opts.OpenCapacity = 4
	opts.PendingCapacity = 4
	opts.Observer = obs
	ix := newTestIndexer(t, row.mesh, opts)

	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())

	for _, ref := range row.all(1) {
		assert.NotZero(t, ix.Label(ref))
	}
	assertNoTransient(t, ix, row.all(1))
	assert.Positive(t, ix.Stats().TruncatedFloods)
	assert.Positive(t, obs.truncated)
	assert.GreaterOrEqual(t, obs.finalized, sceneCells*sceneCells)
}

func TestSceneRemovedTile(t *testing.T) {
	row := newTileRow(t, cells(), cells())
	ix := newTestIndexer(t, row.mesh, DefaultOptions())
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())
	gone := row.polys(1)
	idx := row.index(1)

	_, status := row.mesh.RemoveTile(row.mesh.GetTileRefAt(1, 0, 0))
	require.True(t, status.DtStatusSucceed())
	ix.OnRegenerateTiles(nil, row.mesh.TakeChangedTiles())

	islandLabel(t, ix, row.polys(0)...)
	for _, ref := range gone {
		assert.Zero(t, ix.store.Word(ref), "slot of removed tile %d", idx)
	}
}
