package common

import "github.com/go-gl/mathgl/mgl32"

type Vec3 = mgl32.Vec3

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
type IIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

// GetVert3 returns the xyz triple at index in a packed vertex array.
func GetVert3[T IT, T1 IIndex](verts []T, index T1) []T {
	return verts[index*3 : index*3+3]
}

// AppendUnique appends v unless it is already present. Meant for the short
// tile lists the indexer keeps, where a map would cost more than the scan.
func AppendUnique[T comparable](s []T, v T) []T {
	for _, e := range s {
		if e == v {
			return s
		}
	}
	return append(s, v)
}
