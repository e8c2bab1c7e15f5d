package detour

import (
	"errors"
	"fmt"

	"github.com/gorustyt/navisland/common/rw"
)

var (
	ErrWrongMagic   = errors.New("detour: wrong tile data magic")
	ErrWrongVersion = errors.New("detour: wrong tile data version")
	ErrCorruptData  = errors.New("detour: corrupt tile data")
)

// serialized sizes, used to reject counts the buffer cannot hold
const (
	headerBinSize = 12*4 + 2*3*4
	polyBinSize   = 4 + 2*DT_VERTS_PER_POLYGON*2 + 2 + 1 + 1
)

type NavMeshData struct {
	Header   *DtMeshHeader
	NavVerts []float32
	NavPolys []*DtPoly
	Links    []*DtLink // Ignore links; just leave enough space for them. They'll be created on load.
}

func (d *NavMeshData) ToBin() (res []byte) {
	w := rw.NewNavMeshDataBinWriter()
	d.Header.ToBin(w)
	w.WriteFloat32s(d.NavVerts)
	for _, v := range d.NavPolys {
		v.ToBin(w)
	}
	return w.GetWriteBytes()
}

func (d *NavMeshData) FromBin(data []byte) error {
	r := rw.NewNavMeshDataBinReader(data)
	if r.Size() < headerBinSize {
		return fmt.Errorf("%w: %d bytes is shorter than a header", ErrCorruptData, len(data))
	}
	header := (&DtMeshHeader{}).FromBin(r)
	if header.Magic != DT_NAVMESH_MAGIC {
		return ErrWrongMagic
	}
	if header.Version != DT_NAVMESH_VERSION {
		return fmt.Errorf("%w: got %d want %d", ErrWrongVersion, header.Version, DT_NAVMESH_VERSION)
	}
	if header.VertCount < 0 || header.PolyCount < 0 || header.MaxLinkCount < 0 {
		return fmt.Errorf("%w: negative count", ErrCorruptData)
	}
	// each portal edge can link to at most four neighbours
	if int64(header.MaxLinkCount) > int64(header.PolyCount)*DT_VERTS_PER_POLYGON*4 {
		return fmt.Errorf("%w: %d links for %d polys", ErrCorruptData, header.MaxLinkCount, header.PolyCount)
	}
	need := int64(header.VertCount)*3*4 + int64(header.PolyCount)*polyBinSize
	if int64(r.Size()) < need {
		return fmt.Errorf("%w: need %d bytes after header, have %d", ErrCorruptData, need, r.Size())
	}

	verts := make([]float32, header.VertCount*3)
	r.ReadFloat32s(verts)
	polys := make([]*DtPoly, header.PolyCount)
	for i := range polys {
		polys[i] = (&DtPoly{}).FromBin(r)
		if int32(polys[i].VertCount) > DT_VERTS_PER_POLYGON {
			return fmt.Errorf("%w: poly %d has %d verts", ErrCorruptData, i, polys[i].VertCount)
		}
		for j := 0; j < int(polys[i].VertCount); j++ {
			if int32(polys[i].Verts[j]) >= header.VertCount {
				return fmt.Errorf("%w: poly %d references vertex %d", ErrCorruptData, i, polys[i].Verts[j])
			}
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	}

	d.Header = header
	d.NavVerts = verts
	d.NavPolys = polys
	d.Links = make([]*DtLink, header.MaxLinkCount)
	for i := range d.Links {
		d.Links[i] = &DtLink{}
		d.Links[i].reset()
	}
	return nil
}
