package detour

import (
	"github.com/gorustyt/navisland/common"
	"github.com/gorustyt/navisland/common/rw"
)

const (
	/// The maximum number of vertices per navigation polygon.
	/// @ingroup detour
	DT_VERTS_PER_POLYGON = 6
	DT_NULL_LINK         = 0xffffffff

	/// A flag that indicates that an entity links to an external entity.
	/// (E.g. A polygon edge is a portal that links to another polygon.)
	DT_EXT_LINK = 0x8000

	/// A magic number used to detect compatibility of navigation tile data.
	DT_NAVMESH_MAGIC = 'D'<<24 | 'N'<<16 | 'A'<<8 | 'V'

	/// A version number used to detect compatibility of navigation tile data.
	DT_NAVMESH_VERSION = 7

	/// The maximum number of user defined area ids.
	DT_MAX_AREAS = 64

	// Only allow 31 salt bits, since the salt mask is calculated using 32bit uint and it will overflow.
	DT_MAX_SALT_BITS = 31
	DT_MIN_SALT_BITS = 10
)

const (
	/// The polygon is a standard convex polygon that is part of the surface of the mesh.
	DT_POLYTYPE_GROUND = 0
	/// The polygon is an off-mesh connection consisting of two vertices.
	DT_POLYTYPE_OFFMESH_CONNECTION = 1
)

const (
	/// The navigation mesh owns the tile memory and is responsible for freeing it.
	DT_TILE_FREE_DATA = 0x01
)

// A polygon reference packs (salt, tile index, poly index). The split between
// the three fields is chosen per mesh from its NavMeshParams.
type DtPolyRef uint64
type DtTileRef uint64

// / Defines a polygon within a DtMeshTile object.
type DtPoly struct {
	/// Index to first link in linked list. (Or #DT_NULL_LINK if there is no link.)
	FirstLink uint32

	/// The indices of the polygon's vertices.
	/// The actual vertices are located in DtMeshTile::verts.
	Verts [DT_VERTS_PER_POLYGON]uint16

	/// Packed data representing neighbor polygons references and flags for each edge.
	Neis [DT_VERTS_PER_POLYGON]uint16

	/// The user defined polygon flags.
	Flags uint16

	/// The number of vertices in the polygon.
	VertCount uint8

	/// The bit packed area id and polygon type.
	AreaAndtype uint8
}

func (d *DtPoly) ToBin(w *rw.ReaderWriter) {
	w.WriteUInt32(d.FirstLink)
	w.WriteUInt16s(d.Verts[:])
	w.WriteUInt16s(d.Neis[:])
	w.WriteUInt16(d.Flags)
	w.WriteUInt8(d.VertCount)
	w.WriteUInt8(d.AreaAndtype)
}

func (d *DtPoly) FromBin(r *rw.ReaderWriter) *DtPoly {
	d.FirstLink = r.ReadUInt32()
	r.ReadUInt16s(d.Verts[:])
	r.ReadUInt16s(d.Neis[:])
	d.Flags = r.ReadUInt16()
	d.VertCount = r.ReadUInt8()
	d.AreaAndtype = r.ReadUInt8()
	return d
}

// / Sets the user defined area id. [Limit: < #DT_MAX_AREAS]
func (p *DtPoly) SetArea(a uint8) { p.AreaAndtype = (p.AreaAndtype & 0xc0) | (a & 0x3f) }

// / Sets the polygon type. (See: #dtPolyTypes.)
func (p *DtPoly) SetType(t uint8) { p.AreaAndtype = (p.AreaAndtype & 0x3f) | (t << 6) }

// / Gets the user defined area id.
func (p *DtPoly) GetArea() uint8 { return p.AreaAndtype & 0x3f }

// / Gets the polygon type. (See: #dtPolyTypes)
func (p *DtPoly) GetType() uint8 { return p.AreaAndtype >> 6 }

// Defines a link between polygons.
type DtLink struct {
	Ref  DtPolyRef ///< Neighbour reference. (The neighbor that is linked to.)
	Next uint32    ///< Index of the next link.
	Edge uint8     ///< Index of the polygon edge that owns this link.
	Side uint8     ///< If a boundary link, defines on which side the link is.
	Bmin uint8     ///< If a boundary link, defines the minimum sub-edge area.
	Bmax uint8     ///< If a boundary link, defines the maximum sub-edge area.
}

// Links are rebuilt by AddTile, so only the slot count travels on the wire.
func (d *DtLink) reset() {
	*d = DtLink{Next: DT_NULL_LINK}
}

// / Defines a navigation mesh tile.
type DtMeshTile struct {
	salt  uint32 ///< Counter describing modifications to the tile.
	index int    // position in DtNavMesh.m_tiles

	linksFreeList uint32        ///< Index to the next free link.
	Header        *DtMeshHeader ///< The tile header.
	Polys         []*DtPoly     ///< The tile polygons. [Size: DtMeshHeader::polyCount]
	Verts         []float32     ///< The tile vertices. [(x, y, z) * DtMeshHeader::vertCount]
	Links         []*DtLink     ///< The tile links. [Size: DtMeshHeader::maxLinkCount]
	Flags         int32         ///< Tile flags. (See: #dtTileFlags)
	Next          *DtMeshTile   ///< The next free tile, or the next tile in the spatial grid.
	Data          *NavMeshData
}

func (d *DtMeshTile) Salt() uint32 { return d.salt }

// / Provides high level information related to a DtMeshTile object.
type DtMeshHeader struct {
	Magic          int32       ///< Tile magic number. (Used to identify the data format.)
	Version        int32       ///< Tile data format version number.
	X              int32       ///< The x-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Y              int32       ///< The y-position of the tile within the DtNavMesh tile grid. (x, y, layer)
	Layer          int32       ///< The layer of the tile within the DtNavMesh tile grid. (x, y, layer)
	UserId         uint32      ///< The user defined id of the tile.
	PolyCount      int32       ///< The number of polygons in the tile.
	VertCount      int32       ///< The number of vertices in the tile.
	MaxLinkCount   int32       ///< The number of allocated links.
	WalkableHeight float32     ///< The height of the agents using the tile.
	WalkableRadius float32     ///< The radius of the agents using the tile.
	WalkableClimb  float32     ///< The maximum climb height of the agents using the tile.
	Bmin           common.Vec3 ///< The minimum bounds of the tile's AABB. [(x, y, z)]
	Bmax           common.Vec3 ///< The maximum bounds of the tile's AABB. [(x, y, z)]
}

func (d *DtMeshHeader) ToBin(w *rw.ReaderWriter) {
	w.WriteInt32(d.Magic)
	w.WriteInt32(d.Version)
	w.WriteInt32(d.X)
	w.WriteInt32(d.Y)
	w.WriteInt32(d.Layer)
	w.WriteUInt32(d.UserId)
	w.WriteInt32(d.PolyCount)
	w.WriteInt32(d.VertCount)
	w.WriteInt32(d.MaxLinkCount)
	w.WriteFloat32(d.WalkableHeight)
	w.WriteFloat32(d.WalkableRadius)
	w.WriteFloat32(d.WalkableClimb)
	w.WriteFloat32s(d.Bmin[:])
	w.WriteFloat32s(d.Bmax[:])
}

func (d *DtMeshHeader) FromBin(r *rw.ReaderWriter) *DtMeshHeader {
	d.Magic = r.ReadInt32()
	d.Version = r.ReadInt32()
	d.X = r.ReadInt32()
	d.Y = r.ReadInt32()
	d.Layer = r.ReadInt32()
	d.UserId = r.ReadUInt32()
	d.PolyCount = r.ReadInt32()
	d.VertCount = r.ReadInt32()
	d.MaxLinkCount = r.ReadInt32()
	d.WalkableHeight = r.ReadFloat32()
	d.WalkableRadius = r.ReadFloat32()
	d.WalkableClimb = r.ReadFloat32()
	r.ReadFloat32s(d.Bmin[:])
	r.ReadFloat32s(d.Bmax[:])
	return d
}

// / Configuration parameters used to define multi-tile navigation meshes.
// / The values are used to allocate space during the initialization of a navigation mesh.
type NavMeshParams struct {
	Orig       common.Vec3 ///< The world space origin of the navigation mesh's tile space. [(x, y, z)]
	TileWidth  float32     ///< The width of each tile. (Along the x-axis.)
	TileHeight float32     ///< The height of each tile. (Along the z-axis.)
	MaxTiles   int32       ///< The maximum number of tiles the navigation mesh can contain.
	MaxPolys   int32       ///< The maximum number of polygons each tile can contain.
}

type IDtNavMesh interface {
	GetParams() *NavMeshParams
	AddTile(data *NavMeshData, flags int32, lastRef DtTileRef) (result DtTileRef, status DtStatus)
	RemoveTile(ref DtTileRef) (data *NavMeshData, status DtStatus)
	CalcTileLoc(pos []float32) (tx, ty int32)
	GetTileAt(x, y, layer int32) *DtMeshTile
	GetTilesAt(x, y int32, maxTiles int32) []*DtMeshTile
	GetTileRefAt(x, y, layer int32) DtTileRef
	GetTileRef(tile *DtMeshTile) DtTileRef
	GetTileByRef(ref DtTileRef) *DtMeshTile
	/// The maximum number of tiles supported by the navigation mesh.
	GetMaxTiles() int32
	/// Gets the tile at the specified index. [Limit: 0 >= index < #getMaxTiles()]
	GetTile(i int) *DtMeshTile
	GetTileAndPolyByRef(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly, status DtStatus)
	/// Returns the tile and polygon for a known valid polygon reference.
	GetTileAndPolyByRefUnsafe(ref DtPolyRef) (tile *DtMeshTile, poly *DtPoly)
	IsValidPolyRef(ref DtPolyRef) bool
	/// Gets the polygon reference for the tile's base polygon.
	GetPolyRefBase(tile *DtMeshTile) DtPolyRef

	SetPolyFlags(ref DtPolyRef, flags uint16) DtStatus
	GetPolyFlags(ref DtPolyRef) (resultFlags uint16, status DtStatus)
	SetPolyArea(ref DtPolyRef, area uint8) DtStatus
	GetPolyArea(ref DtPolyRef) (resultArea uint8, status DtStatus)

	EncodePolyId(salt, it, ip uint32) DtPolyRef
	DecodePolyId(ref DtPolyRef) (salt, it, ip uint32)
	DecodePolyIdPoly(ref DtPolyRef) uint32
	DecodePolyIdTile(ref DtPolyRef) uint32
	DecodePolyIdSalt(ref DtPolyRef) uint32

	/// Drains the indices of tiles whose links changed since the last call.
	TakeChangedTiles() []int
}

type DtNavMesh struct {
	m_params                  NavMeshParams ///< Current initialization params.
	m_orig                    common.Vec3   ///< Origin of the tile (0,0)
	m_tileWidth, m_tileHeight float32       ///< Dimensions of each tile.
	m_maxTiles                int32         ///< Max number of tiles.
	m_tileLutSize             int32         ///< Tile hash lookup size (must be pot).
	m_tileLutMask             int32         ///< Tile hash lookup mask.
	m_posLookup               []*DtMeshTile ///< Tile hash lookup.
	m_nextFree                *DtMeshTile   ///< Freelist of tiles.
	m_tiles                   []*DtMeshTile ///< List of tiles.

	m_saltBits uint32 ///< Number of salt bits in the tile ID.
	m_tileBits uint32 ///< Number of tile bits in the tile ID.
	m_polyBits uint32 ///< Number of poly bits in the tile ID.

	m_changed []int // tiles whose links changed, in first-touched order
}

func (mesh *DtNavMesh) GetTile(i int) *DtMeshTile {
	return mesh.m_tiles[i]
}

func (mesh *DtNavMesh) GetMaxTiles() int32 {
	return mesh.m_maxTiles
}

/// @{
/// @name Encoding and Decoding
/// These functions are generally meant for internal use only.

// / Derives a standard polygon reference.
// /  @param[in]	salt	The tile's salt value.
// /  @param[in]	it		The index of the tile.
// /  @param[in]	ip		The index of the polygon within the tile.
func (mesh *DtNavMesh) EncodePolyId(salt, it, ip uint32) DtPolyRef {
	return DtPolyRef(uint64(salt)<<(mesh.m_polyBits+mesh.m_tileBits) | uint64(it)<<mesh.m_polyBits | uint64(ip))
}

// / Decodes a standard polygon reference.
func (mesh *DtNavMesh) DecodePolyId(ref DtPolyRef) (salt, it, ip uint32) {
	saltMask := uint64(1)<<mesh.m_saltBits - 1
	tileMask := uint64(1)<<mesh.m_tileBits - 1
	polyMask := uint64(1)<<mesh.m_polyBits - 1
	salt = uint32((uint64(ref) >> (mesh.m_polyBits + mesh.m_tileBits)) & saltMask)
	it = uint32((uint64(ref) >> mesh.m_polyBits) & tileMask)
	ip = uint32(uint64(ref) & polyMask)
	return
}

// / Extracts a tile's salt value from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdSalt(ref DtPolyRef) uint32 {
	saltMask := uint64(1)<<mesh.m_saltBits - 1
	return uint32((uint64(ref) >> (mesh.m_polyBits + mesh.m_tileBits)) & saltMask)
}

// / Extracts the tile's index from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdTile(ref DtPolyRef) uint32 {
	tileMask := uint64(1)<<mesh.m_tileBits - 1
	return uint32((uint64(ref) >> mesh.m_polyBits) & tileMask)
}

// / Extracts the polygon's index (within its tile) from the specified polygon reference.
func (mesh *DtNavMesh) DecodePolyIdPoly(ref DtPolyRef) uint32 {
	polyMask := uint64(1)<<mesh.m_polyBits - 1
	return uint32(uint64(ref) & polyMask)
}

/// @}

func (mesh *DtNavMesh) CalcTileLoc(pos []float32) (tx, ty int32) {
	tx = int32(floor32((pos[0] - mesh.m_orig[0]) / mesh.m_tileWidth))
	ty = int32(floor32((pos[2] - mesh.m_orig[2]) / mesh.m_tileHeight))
	return tx, ty
}

func (mesh *DtNavMesh) GetTileByRef(ref DtTileRef) *DtMeshTile {
	if ref == 0 {
		return nil
	}
	tileIndex := mesh.DecodePolyIdTile(DtPolyRef(ref))
	tileSalt := mesh.DecodePolyIdSalt(DtPolyRef(ref))
	if int64(tileIndex) >= int64(mesh.m_maxTiles) {
		return nil
	}
	tile := mesh.m_tiles[tileIndex]
	if tile.salt != tileSalt || tile.Header == nil {
		return nil
	}
	return tile
}

func (mesh *DtNavMesh) markChanged(tile *DtMeshTile) {
	if tile == nil {
		return
	}
	mesh.m_changed = common.AppendUnique(mesh.m_changed, mesh.getTileIndex(tile))
}

// TakeChangedTiles returns the indices of every tile whose link lists were
// modified by AddTile or RemoveTile since the previous call, and resets the list.
func (mesh *DtNavMesh) TakeChangedTiles() []int {
	res := mesh.m_changed
	mesh.m_changed = nil
	return res
}
