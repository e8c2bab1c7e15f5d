package detour

import (
	"errors"
	"fmt"
	"math"

	"github.com/gorustyt/navisland/common"
)

var ErrInvalidGrid = errors.New("detour: invalid grid tile params")

// GridTileParams describes one tile of a uniform walkability grid. Cells are
// row-major, row r grows along +z and column c along +x.
type GridTileParams struct {
	X, Y          int32       // tile location in the mesh tile grid
	Cols, Rows    int32       // cells per tile
	CellSize      float32     // world size of a cell edge
	Orig          common.Vec3 // world origin of tile (0,0)
	Walkable      []bool      // [Rows*Cols]
	WalkableClimb float32
	UserId        uint32
	Area          uint8
	Flags         uint16
}

// CreateGridTileData builds tile data with one quad polygon per walkable cell.
// Adjacent walkable cells are internal neighbours, cells on the tile border
// get portal edges that AddTile connects to the neighbouring tile.
func CreateGridTileData(params *GridTileParams) (*NavMeshData, error) {
	if params == nil || params.Cols <= 0 || params.Rows <= 0 || params.CellSize <= 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidGrid)
	}
	cols, rows := int(params.Cols), int(params.Rows)
	if len(params.Walkable) != cols*rows {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d tile", ErrInvalidGrid, len(params.Walkable), cols, rows)
	}
	nverts := (cols + 1) * (rows + 1)
	if nverts > math.MaxUint16 || cols*rows >= DT_EXT_LINK {
		return nil, fmt.Errorf("%w: %dx%d tile is too large", ErrInvalidGrid, cols, rows)
	}

	cs := params.CellSize
	ox := params.Orig[0] + float32(int(params.X)*cols)*cs
	oz := params.Orig[2] + float32(int(params.Y)*rows)*cs
	oy := params.Orig[1]

	verts := make([]float32, 0, nverts*3)
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			verts = append(verts, ox+float32(c)*cs, oy, oz+float32(r)*cs)
		}
	}
	vi := func(c, r int) uint16 { return uint16(r*(cols+1) + c) }

	polyIndex := make([]int, cols*rows)
	npolys := 0
	for i, w := range params.Walkable {
		polyIndex[i] = -1
		if w {
			polyIndex[i] = npolys
			npolys++
		}
	}
	nei := func(c, r int, side uint16) uint16 {
		if c < 0 || r < 0 || c >= cols || r >= rows {
			return DT_EXT_LINK | side
		}
		if p := polyIndex[r*cols+c]; p >= 0 {
			return uint16(p + 1)
		}
		return 0
	}

	polys := make([]*DtPoly, 0, npolys)
	edgeCount, portalCount := 0, 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if polyIndex[r*cols+c] < 0 {
				continue
			}
			p := &DtPoly{FirstLink: DT_NULL_LINK, VertCount: 4, Flags: params.Flags}
			p.Verts[0] = vi(c, r)
			p.Verts[1] = vi(c, r+1)
			p.Verts[2] = vi(c+1, r+1)
			p.Verts[3] = vi(c+1, r)
			p.Neis[0] = nei(c-1, r, 4)
			p.Neis[1] = nei(c, r+1, 2)
			p.Neis[2] = nei(c+1, r, 0)
			p.Neis[3] = nei(c, r-1, 6)
			p.SetArea(params.Area)
			p.SetType(DT_POLYTYPE_GROUND)
			for j := 0; j < 4; j++ {
				switch {
				case p.Neis[j]&DT_EXT_LINK != 0:
					portalCount++
				case p.Neis[j] != 0:
					edgeCount++
				}
			}
			polys = append(polys, p)
		}
	}

	header := &DtMeshHeader{
		Magic:         DT_NAVMESH_MAGIC,
		Version:       DT_NAVMESH_VERSION,
		X:             params.X,
		Y:             params.Y,
		UserId:        params.UserId,
		PolyCount:     int32(npolys),
		VertCount:     int32(nverts),
		MaxLinkCount:  int32(edgeCount + portalCount*2),
		WalkableClimb: params.WalkableClimb,
		Bmin:          common.Vec3{ox, oy, oz},
		Bmax:          common.Vec3{ox + float32(cols)*cs, oy, oz + float32(rows)*cs},
	}
	data := &NavMeshData{
		Header:   header,
		NavVerts: verts,
		NavPolys: polys,
		Links:    make([]*DtLink, header.MaxLinkCount),
	}
	for i := range data.Links {
		data.Links[i] = &DtLink{}
		data.Links[i].reset()
	}
	return data, nil
}
