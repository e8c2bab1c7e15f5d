package detour

import (
	"math"

	"github.com/gorustyt/navisland/common"
)

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }

// / Returns the side opposite to the given tile side.
func dtOppositeTile(side int32) int32 { return (side + 4) & 0x7 }

func overlapSlabs(amin, amax, bmin, bmax []float32, px, py float32) bool {
	// Check for horizontal overlap.
	// The segment is shrunken a little so that slabs which touch
	// at end points are not connected.
	minx := max(amin[0]+px, bmin[0]+px)
	maxx := min(amax[0]-px, bmax[0]-px)
	if minx > maxx {
		return false
	}
	// Check vertical overlap.
	ad := (amax[1] - amin[1]) / (amax[0] - amin[0])
	ak := amin[1] - ad*amin[0]
	bd := (bmax[1] - bmin[1]) / (bmax[0] - bmin[0])
	bk := bmin[1] - bd*bmin[0]
	aminy := ad*minx + ak
	amaxy := ad*maxx + ak
	bminy := bd*minx + bk
	bmaxy := bd*maxx + bk
	dmin := bminy - aminy
	dmax := bmaxy - amaxy

	// Crossing segments always overlap.
	if dmin*dmax < 0 {
		return true
	}

	// Check for overlap at endpoints.
	thr := common.Sqr(py * 2)
	if dmin*dmin <= thr || dmax*dmax <= thr {
		return true
	}

	return false
}

func getSlabCoord(va []float32, side int32) float32 {
	if side == 0 || side == 4 {
		return va[0]
	} else if side == 2 || side == 6 {
		return va[2]
	}
	return 0
}

func calcSlabEndPoints(va, vb []float32, side int32) (bmin, bmax [2]float32) {
	if side == 0 || side == 4 {
		if va[2] < vb[2] {
			bmin = [2]float32{va[2], va[1]}
			bmax = [2]float32{vb[2], vb[1]}
		} else {
			bmin = [2]float32{vb[2], vb[1]}
			bmax = [2]float32{va[2], va[1]}
		}
	} else if side == 2 || side == 6 {
		if va[0] < vb[0] {
			bmin = [2]float32{va[0], va[1]}
			bmax = [2]float32{vb[0], vb[1]}
		} else {
			bmin = [2]float32{vb[0], vb[1]}
			bmax = [2]float32{va[0], va[1]}
		}
	}
	return bmin, bmax
}

// quantizePortal compresses the [tmin, tmax] sub-edge of a portal to bytes.
func quantizePortal(tmin, tmax float32) (bmin, bmax uint8) {
	if tmin > tmax {
		tmin, tmax = tmax, tmin
	}
	bmin = uint8(math.Round(float64(common.Clamp(tmin, 0.0, 1.0) * 255.0)))
	bmax = uint8(math.Round(float64(common.Clamp(tmax, 0.0, 1.0) * 255.0)))
	return bmin, bmax
}
