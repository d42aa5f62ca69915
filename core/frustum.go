package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane slots, named after the row combination that produces them.
// Only the set of six half-spaces matters for containment.
const (
	PlaneRight  = iota // row3 + row0
	PlaneLeft          // row3 - row0
	PlaneTop           // row3 + row1
	PlaneBottom        // row3 - row1
	PlaneFar           // row3 + row2
	PlaneNear          // row3 - row2
)

// Frustum holds six planes (normal.xyz, offset w) with unit-length normals,
// so Dot(normal, p)+w is a signed distance in world units.
type Frustum struct {
	Planes [6]mgl32.Vec4
}

// ExtractPlanes derives the frustum of a combined projection*view matrix.
func ExtractPlanes(vp mgl32.Mat4) Frustum {
	row0 := vp.Row(0)
	row1 := vp.Row(1)
	row2 := vp.Row(2)
	row3 := vp.Row(3)

	var f Frustum
	f.Planes[PlaneRight] = row3.Add(row0)
	f.Planes[PlaneLeft] = row3.Sub(row0)
	f.Planes[PlaneTop] = row3.Add(row1)
	f.Planes[PlaneBottom] = row3.Sub(row1)
	f.Planes[PlaneFar] = row3.Add(row2)
	f.Planes[PlaneNear] = row3.Sub(row2)

	for i := range f.Planes {
		f.Planes[i] = normalizePlane(f.Planes[i])
	}
	return f
}

func normalizePlane(p mgl32.Vec4) mgl32.Vec4 {
	length := float32(math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])))
	if length > 0 {
		return p.Mul(1.0 / length)
	}
	return p
}

// ContainsPoint is a point test; particle size is ignored, so sprites can pop
// at the boundary.
func (f *Frustum) ContainsPoint(pos mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.SignedDistance(i, pos) < 0 {
			return false
		}
	}
	return true
}

func (f *Frustum) SignedDistance(plane int, pos mgl32.Vec3) float32 {
	p := f.Planes[plane]
	return p.Vec3().Dot(pos) + p[3]
}
