package detour

import (
	"github.com/gorustyt/navisland/common"
)

/// @{
/// @name Initialization and Tile Management

// / Initializes the navigation mesh for tiled use.
// /  @param[in]	params		Initialization parameters.
// / @return The status flags for the operation.
func NewDtNavMeshWithParams(params *NavMeshParams) (mesh *DtNavMesh, status DtStatus) {
	if params == nil || params.MaxTiles <= 0 || params.MaxPolys <= 0 ||
		params.TileWidth <= 0 || params.TileHeight <= 0 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh = &DtNavMesh{}
	mesh.m_orig = params.Orig
	mesh.m_tileWidth = params.TileWidth
	mesh.m_tileHeight = params.TileHeight
	mesh.m_params = *params

	// Init ID generator values.
	mesh.m_tileBits = common.Ilog2(common.NextPow2(uint32(params.MaxTiles)))
	mesh.m_polyBits = common.Ilog2(common.NextPow2(uint32(params.MaxPolys)))
	if mesh.m_tileBits+mesh.m_polyBits+DT_MIN_SALT_BITS > 32 {
		return nil, DT_FAILURE | DT_INVALID_PARAM
	}
	mesh.m_saltBits = min(DT_MAX_SALT_BITS, 32-mesh.m_tileBits-mesh.m_polyBits)

	// Init tiles
	mesh.m_maxTiles = params.MaxTiles
	mesh.m_tileLutSize = int32(common.NextPow2(uint32(params.MaxTiles) / 4))
	if mesh.m_tileLutSize == 0 {
		mesh.m_tileLutSize = 1
	}
	mesh.m_tileLutMask = mesh.m_tileLutSize - 1
	mesh.m_posLookup = make([]*DtMeshTile, mesh.m_tileLutSize)
	mesh.m_tiles = make([]*DtMeshTile, mesh.m_maxTiles)
	mesh.m_nextFree = nil
	for i := mesh.m_maxTiles - 1; i >= 0; i-- {
		mesh.m_tiles[i] = &DtMeshTile{salt: 1, index: int(i), Next: mesh.m_nextFree}
		mesh.m_nextFree = mesh.m_tiles[i]
	}
	return mesh, DT_SUCCESS
}

// / @par
// /
// / @note The parameters are created automatically when the single tile
// / initialization is performed.
func (mesh *DtNavMesh) GetParams() *NavMeshParams {
	return &mesh.m_params
}

func allocLink(tile *DtMeshTile) uint32 {
	if tile.linksFreeList == DT_NULL_LINK {
		return DT_NULL_LINK
	}

	link := tile.linksFreeList
	tile.linksFreeList = tile.Links[link].Next
	return link
}

func freeLink(tile *DtMeshTile, link uint32) {
	tile.Links[link].Next = tile.linksFreeList
	tile.linksFreeList = link
}

// FindConnectingPolys returns the polygons of tile whose portal edges on side
// overlap the segment va-vb, with the overlapping sub-range of each.
func (mesh *DtNavMesh) FindConnectingPolys(va, vb []float32, tile *DtMeshTile, side int32, maxcon int32) (con []DtPolyRef, conarea []float32) {
	if tile == nil || tile.Header == nil {
		return nil, nil
	}

	amin, amax := calcSlabEndPoints(va, vb, side)
	apos := getSlabCoord(va, side)

	m := uint16(DT_EXT_LINK | side)
	base := mesh.GetPolyRefBase(tile)

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := tile.Polys[i]
		nv := int(poly.VertCount)
		for j := 0; j < nv; j++ {
			// Skip edges which do not point to the right side.
			if poly.Neis[j] != m {
				continue
			}

			vc := common.GetVert3(tile.Verts, poly.Verts[j])
			vd := common.GetVert3(tile.Verts, poly.Verts[(j+1)%nv])
			bpos := getSlabCoord(vc, side)

			// Segments are not close enough.
			if common.Abs(apos-bpos) > 0.01 {
				continue
			}

			// Check if the segments touch.
			bmin, bmax := calcSlabEndPoints(vc, vd, side)

			if !overlapSlabs(amin[:], amax[:], bmin[:], bmax[:], 0.01, tile.Header.WalkableClimb) {
				continue
			}

			// Add return value.
			if int32(len(con)) < maxcon {
				conarea = append(conarea, max(amin[0], bmin[0]), min(amax[0], bmax[0]))
				con = append(con, base|DtPolyRef(i))
			}
			break
		}
	}
	return con, conarea
}

func (mesh *DtNavMesh) GetPolyRefBase(tile *DtMeshTile) DtPolyRef {
	if tile == nil {
		return 0
	}
	return mesh.EncodePolyId(tile.salt, uint32(tile.index), 0)
}

// unconnectLinks drops every link of tile pointing into target and reports
// how many were removed.
func (mesh *DtNavMesh) unconnectLinks(tile *DtMeshTile, target *DtMeshTile) (removed int) {
	if tile == nil || target == nil || tile.Header == nil {
		return 0
	}

	targetNum := uint32(target.index)

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := tile.Polys[i]
		j := poly.FirstLink
		pj := uint32(DT_NULL_LINK)
		for j != DT_NULL_LINK {
			if mesh.DecodePolyIdTile(tile.Links[j].Ref) == targetNum {
				// Remove link.
				nj := tile.Links[j].Next
				if pj == DT_NULL_LINK {
					poly.FirstLink = nj
				} else {
					tile.Links[pj].Next = nj
				}

				freeLink(tile, j)
				removed++
				j = nj
			} else {
				// Advance
				pj = j
				j = tile.Links[j].Next
			}
		}
	}
	return removed
}

func (mesh *DtNavMesh) getTileIndex(tile *DtMeshTile) int {
	return tile.index
}

func (mesh *DtNavMesh) GetTileRef(tile *DtMeshTile) DtTileRef {
	if tile == nil {
		return DtTileRef(0)
	}
	return DtTileRef(mesh.EncodePolyId(tile.salt, uint32(tile.index), 0))
}

func (mesh *DtNavMesh) GetTileRefAt(x, y, layer int32) DtTileRef {
	return mesh.GetTileRef(mesh.GetTileAt(x, y, layer))
}

// connectExtLinks creates links from the portal edges of tile into target and
// reports how many were created. side -1 connects every portal direction.
func (mesh *DtNavMesh) connectExtLinks(tile *DtMeshTile, target *DtMeshTile, side int32) (created int) {
	if tile == nil || tile.Header == nil {
		return 0
	}

	// Connect border links.
	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := tile.Polys[i]

		nv := int(poly.VertCount)
		for j := 0; j < nv; j++ {
			// Skip non-portal edges.
			if (poly.Neis[j] & DT_EXT_LINK) == 0 {
				continue
			}

			dir := int32(poly.Neis[j] & 0xff)
			if side != -1 && dir != side {
				continue
			}

			// Create new links
			va := common.GetVert3(tile.Verts, poly.Verts[j])
			vb := common.GetVert3(tile.Verts, poly.Verts[(j+1)%nv])

			nei, neia := mesh.FindConnectingPolys(va, vb, target, dtOppositeTile(dir), 4)
			for k := range nei {
				idx := allocLink(tile)
				if idx == DT_NULL_LINK {
					continue
				}
				link := tile.Links[idx]
				link.Ref = nei[k]
				link.Edge = uint8(j)
				link.Side = uint8(dir)
				link.Next = poly.FirstLink
				poly.FirstLink = idx
				created++

				// Compress portal limits to a byte value.
				if dir == 0 || dir == 4 {
					link.Bmin, link.Bmax = quantizePortal(
						(neia[k*2+0]-va[2])/(vb[2]-va[2]),
						(neia[k*2+1]-va[2])/(vb[2]-va[2]))
				} else if dir == 2 || dir == 6 {
					link.Bmin, link.Bmax = quantizePortal(
						(neia[k*2+0]-va[0])/(vb[0]-va[0]),
						(neia[k*2+1]-va[0])/(vb[0]-va[0]))
				}
			}
		}
	}
	return created
}

// / @par
// /
// / The nav mesh assumes exclusive access to the data passed and will make
// / changes to the dynamic portion of the data. For that reason the data
// / should not be reused in other nav meshes until the tile has been successfully
// / removed from this nav mesh.
// /
// / @see CreateGridTileData, #removeTile
func (mesh *DtNavMesh) AddTile(data *NavMeshData, flags int32, lastRef DtTileRef) (result DtTileRef, status DtStatus) {
	if data == nil || data.Header == nil {
		return result, DT_FAILURE | DT_INVALID_PARAM
	}
	// Make sure the data is in right format.
	header := data.Header
	if header.Magic != DT_NAVMESH_MAGIC {
		return result, DT_FAILURE | DT_WRONG_MAGIC
	}

	if header.Version != DT_NAVMESH_VERSION {
		return result, DT_FAILURE | DT_WRONG_VERSION
	}

	// Do not allow adding more polygons than specified in the NavMesh's maxPolys constraint.
	// Otherwise, the poly ID cannot be represented with the given number of bits.
	if header.PolyCount < 0 || int32(len(data.NavPolys)) < header.PolyCount ||
		mesh.m_polyBits < common.Ilog2(common.NextPow2(uint32(header.PolyCount))) {
		return result, DT_FAILURE | DT_INVALID_PARAM
	}

	// Make sure the location is free.
	if mesh.GetTileAt(header.X, header.Y, header.Layer) != nil {
		return result, DT_FAILURE | DT_ALREADY_OCCUPIED
	}

	var tile *DtMeshTile
	if lastRef == 0 {
		if mesh.m_nextFree != nil {
			tile = mesh.m_nextFree
			mesh.m_nextFree = tile.Next
			tile.Next = nil
		}
	} else {
		// Try to relocate the tile to specific index with same salt.
		tileIndex := mesh.DecodePolyIdTile(DtPolyRef(lastRef))
		if int64(tileIndex) >= int64(mesh.m_maxTiles) {
			return result, DT_FAILURE | DT_OUT_OF_MEMORY
		}

		// Try to find the specific tile id from the free list.
		target := mesh.m_tiles[tileIndex]
		var prev *DtMeshTile
		tile = mesh.m_nextFree
		for tile != nil && tile != target {
			prev = tile
			tile = tile.Next
		}
		// Could not find the correct location.
		if tile != target {
			return result, DT_FAILURE | DT_OUT_OF_MEMORY
		}

		// Remove from freelist
		if prev == nil {
			mesh.m_nextFree = tile.Next
		} else {
			prev.Next = tile.Next
		}
		tile.Next = nil

		// Restore salt.
		tile.salt = mesh.DecodePolyIdSalt(DtPolyRef(lastRef))
	}

	// Make sure we could allocate a tile.
	if tile == nil {
		return result, DT_FAILURE | DT_OUT_OF_MEMORY
	}

	// Insert tile into the position lut.
	h := common.ComputeTileHash(header.X, header.Y, mesh.m_tileLutMask)
	tile.Next = mesh.m_posLookup[h]
	mesh.m_posLookup[h] = tile

	// Links are never read from the data, only their count.
	if int32(len(data.Links)) != header.MaxLinkCount {
		data.Links = make([]*DtLink, max(header.MaxLinkCount, 0))
	}
	for i := range data.Links {
		if data.Links[i] == nil {
			data.Links[i] = &DtLink{}
		}
		data.Links[i].reset()
	}

	// Patch header pointers.
	tile.Verts = data.NavVerts
	tile.Polys = data.NavPolys[:header.PolyCount]
	tile.Links = data.Links

	// Build links freelist
	tile.linksFreeList = DT_NULL_LINK
	if n := len(tile.Links); n > 0 {
		tile.linksFreeList = 0
		for i := 0; i < n-1; i++ {
			tile.Links[i].Next = uint32(i) + 1
		}
		tile.Links[n-1].Next = DT_NULL_LINK
	}

	// Init tile.
	tile.Header = header
	tile.Data = data
	tile.Flags = flags

	mesh.connectIntLinks(tile)
	mesh.markChanged(tile)

	// Create connections with neighbour tiles.
	const MAX_NEIS = int32(32)

	// Connect with layers in current tile.
	for _, nei := range mesh.GetTilesAt(header.X, header.Y, MAX_NEIS) {
		if nei == tile {
			continue
		}
		mesh.connectExtLinks(tile, nei, -1)
		if mesh.connectExtLinks(nei, tile, -1) > 0 {
			mesh.markChanged(nei)
		}
	}

	// Connect with neighbour tiles.
	for i := int32(0); i < 8; i++ {
		for _, nei := range mesh.getNeighbourTilesAt(header.X, header.Y, i, MAX_NEIS) {
			mesh.connectExtLinks(tile, nei, i)
			if mesh.connectExtLinks(nei, tile, dtOppositeTile(i)) > 0 {
				mesh.markChanged(nei)
			}
		}
	}

	result = mesh.GetTileRef(tile)

	return result, DT_SUCCESS
}

func (mesh *DtNavMesh) connectIntLinks(tile *DtMeshTile) {
	if tile == nil {
		return
	}

	base := mesh.GetPolyRefBase(tile)

	for i := int32(0); i < tile.Header.PolyCount; i++ {
		poly := tile.Polys[i]
		poly.FirstLink = DT_NULL_LINK

		if poly.GetType() == DT_POLYTYPE_OFFMESH_CONNECTION {
			continue
		}

		// Build edge links backwards so that the links will be
		// in the linked list from lowest index to highest.
		for j := int(poly.VertCount) - 1; j >= 0; j-- {
			// Skip hard and non-internal edges.
			if poly.Neis[j] == 0 || (poly.Neis[j]&DT_EXT_LINK) != 0 {
				continue
			}

			idx := allocLink(tile)
			if idx != DT_NULL_LINK {
				link := tile.Links[idx]
				link.Ref = base | DtPolyRef(poly.Neis[j]-1)
				link.Edge = uint8(j)
				link.Side = 0xff
				link.Bmin, link.Bmax = 0, 0
				// Add to linked list.
				link.Next = poly.FirstLink
				poly.FirstLink = idx
			}
		}
	}
}

func (mesh *DtNavMesh) GetTileAt(x, y, layer int32) *DtMeshTile {
	// Find tile based on hash.
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	tile := mesh.m_posLookup[h]
	for tile != nil {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y && tile.Header.Layer == layer {
			return tile
		}
		tile = tile.Next
	}
	return nil
}

// / @par
// /
// / This function returns the data for the tile so that, if desired,
// / it can be added back to the navigation mesh at a later point.
// /
// / @see #addTile
func (mesh *DtNavMesh) RemoveTile(ref DtTileRef) (data *NavMeshData, status DtStatus) {
	if ref == 0 {
		return data, DT_FAILURE | DT_INVALID_PARAM
	}

	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if int64(tileIndex) >= int64(mesh.m_maxTiles) {
		return data, DT_FAILURE | DT_INVALID_PARAM
	}

	tile := mesh.m_tiles[tileIndex]
	if tile.salt != tileSalt || tile.Header == nil {
		return data, DT_FAILURE | DT_INVALID_PARAM
	}

	// Remove tile from hash lookup.
	h := common.ComputeTileHash(tile.Header.X, tile.Header.Y, mesh.m_tileLutMask)
	var prev *DtMeshTile
	cur := mesh.m_posLookup[h]
	for cur != nil {
		if cur == tile {
			if prev != nil {
				prev.Next = cur.Next
			} else {
				mesh.m_posLookup[h] = cur.Next
			}
			break
		}
		prev = cur
		cur = cur.Next
	}

	const MAX_NEIS = int32(32)
	// Remove connections to neighbour tiles.
	// Disconnect from other layers in current tile.
	for _, nei := range mesh.GetTilesAt(tile.Header.X, tile.Header.Y, MAX_NEIS) {
		if nei == tile {
			continue
		}
		if mesh.unconnectLinks(nei, tile) > 0 {
			mesh.markChanged(nei)
		}
	}

	// Disconnect from neighbour tiles.
	for i := int32(0); i < 8; i++ {
		for _, nei := range mesh.getNeighbourTilesAt(tile.Header.X, tile.Header.Y, i, MAX_NEIS) {
			if mesh.unconnectLinks(nei, tile) > 0 {
				mesh.markChanged(nei)
			}
		}
	}
	mesh.markChanged(tile)

	// Reset tile.
	if tile.Flags&DT_TILE_FREE_DATA == 0 {
		data = tile.Data
	}
	tile.Data = nil
	tile.Header = nil
	tile.Flags = 0
	tile.linksFreeList = DT_NULL_LINK
	tile.Polys = nil
	tile.Verts = nil
	tile.Links = nil

	// Update salt, salt should never be zero.
	tile.salt = (tile.salt + 1) & ((1 << mesh.m_saltBits) - 1)
	if tile.salt == 0 {
		tile.salt++
	}

	// Add to free list.
	tile.Next = mesh.m_nextFree
	mesh.m_nextFree = tile

	return data, DT_SUCCESS
}

func (mesh *DtNavMesh) getNeighbourTilesAt(x, y, side, maxTiles int32) []*DtMeshTile {
	nx := x
	ny := y
	switch side {
	case 0:
		nx++
	case 1:
		nx++
		ny++
	case 2:
		ny++
	case 3:
		nx--
		ny++
	case 4:
		nx--
	case 5:
		nx--
		ny--
	case 6:
		ny--
	case 7:
		nx++
		ny--
	}

	return mesh.GetTilesAt(nx, ny, maxTiles)
}

// GetTilesAt returns every layer at the tile grid location (x, y), up to maxTiles.
func (mesh *DtNavMesh) GetTilesAt(x, y int32, maxTiles int32) []*DtMeshTile {
	var tiles []*DtMeshTile
	// Find tile based on hash.
	h := common.ComputeTileHash(x, y, mesh.m_tileLutMask)
	tile := mesh.m_posLookup[h]
	for tile != nil {
		if tile.Header != nil && tile.Header.X == x && tile.Header.Y == y {
			if int32(len(tiles)) < maxTiles {
				tiles = append(tiles, tile)
			}
		}
		tile = tile.Next
	}
	return tiles
}

// / @par
// /
// / @warning Only use this function if it is known that the provided polygon
// / reference is valid. This function is faster than #getTileAndPolyByRef, but
// / it does not validate the reference.
func (mesh *DtNavMesh) GetTileAndPolyByRefUnsafe(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly) {
	_, it, ip := mesh.DecodePolyId(ref)
	tile = mesh.m_tiles[it]
	poly = tile.Polys[ip]
	return
}

func (mesh *DtNavMesh) GetTileAndPolyByRef(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly, status DtStatus) {
	if ref == 0 {
		return tile, poly, DT_FAILURE
	}
	salt, it, ip := mesh.DecodePolyId(ref)
	if int64(it) >= int64(mesh.m_maxTiles) {
		return tile, poly, DT_FAILURE | DT_INVALID_PARAM
	}
	if mesh.m_tiles[it].salt != salt || mesh.m_tiles[it].Header == nil {
		return tile, poly, DT_FAILURE | DT_INVALID_PARAM
	}
	if int64(ip) >= int64(mesh.m_tiles[it].Header.PolyCount) {
		return tile, poly, DT_FAILURE | DT_INVALID_PARAM
	}
	tile = mesh.m_tiles[it]
	poly = tile.Polys[ip]
	return tile, poly, DT_SUCCESS
}

func (mesh *DtNavMesh) IsValidPolyRef(ref DtPolyRef) bool {
	_, _, status := mesh.GetTileAndPolyByRef(ref)
	return status.DtStatusSucceed()
}

func (mesh *DtNavMesh) SetPolyFlags(ref DtPolyRef, flags uint16) DtStatus {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return status
	}
	// Change flags.
	poly.Flags = flags
	return DT_SUCCESS
}

func (mesh *DtNavMesh) GetPolyFlags(ref DtPolyRef) (resultFlags uint16, status DtStatus) {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return resultFlags, status
	}
	return poly.Flags, DT_SUCCESS
}

func (mesh *DtNavMesh) SetPolyArea(ref DtPolyRef, area uint8) DtStatus {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return status
	}
	poly.SetArea(area)
	return DT_SUCCESS
}

func (mesh *DtNavMesh) GetPolyArea(ref DtPolyRef) (resultArea uint8, status DtStatus) {
	_, poly, status := mesh.GetTileAndPolyByRef(ref)
	if status.DtStatusFailed() {
		return resultArea, status
	}
	return poly.GetArea(), DT_SUCCESS
}

var _ IDtNavMesh = (*DtNavMesh)(nil)
