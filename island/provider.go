package island

import "github.com/gorustyt/navisland/detour"

// NavGraph is the part of the navigation mesh the indexer reads polygons and
// links from and writes finished labels to. Tiles are addressed by index and
// GetTile must return a non-nil tile for every index below GetMaxTiles; a tile
// without a header holds no polygons.
type NavGraph interface {
	GetMaxTiles() int32
	GetTile(i int) *detour.DtMeshTile
	GetPolyRefBase(tile *detour.DtMeshTile) detour.DtPolyRef
	DecodePolyId(ref detour.DtPolyRef) (salt, it, ip uint32)
	GetTileAndPolyByRefUnsafe(ref detour.DtPolyRef) (tile *detour.DtMeshTile, poly *detour.DtPoly)
	SetPolyFlags(ref detour.DtPolyRef, flags uint16) detour.DtStatus
	GetPolyFlags(ref detour.DtPolyRef) (uint16, detour.DtStatus)
}

var _ NavGraph = (*detour.DtNavMesh)(nil)
