// Package geom holds the ray, box and triangle primitives used for picking.
// Vectors are mgl64 values; nothing here allocates beyond the returned slices.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// Ray is a half-line starting at Origin. Dir is expected to be normalized,
// so the parameter t of a hit is also the distance from Origin.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// NewRay normalizes dir.
func NewRay(origin, dir mgl64.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyAABB returns an inverted box that any ExpandByPoint call will fix up.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

func (b AABB) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

func (b AABB) ExpandByPoint(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

func (b AABB) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the axis-aligned bounds of the box after m is applied.
func (b AABB) Transform(m mgl64.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.ExpandByPoint(mgl64.TransformCoordinate(c, m))
	}
	return out
}

// IntersectRay runs the slab test. tmin is clamped to 0 when the origin is
// inside the box.
func (b AABB) IntersectRay(r Ray) (tmin, tmax float64, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}
	tmin = math.Inf(-1)
	tmax = math.Inf(1)

	for i := 0; i < 3; i++ {
		if math.Abs(r.Dir[i]) < epsilon {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / r.Dir[i]
		t1 := (b.Min[i] - r.Origin[i]) * inv
		t2 := (b.Max[i] - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, 0, false
		}
	}

	if tmax < 0 {
		return 0, 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, tmax, true
}

// Triangle is a single face of pickable geometry.
type Triangle struct {
	A, B, C mgl64.Vec3
}

// Valid reports whether every vertex is finite.
func (tri Triangle) Valid() bool {
	for _, v := range [3]mgl64.Vec3{tri.A, tri.B, tri.C} {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}

func (tri Triangle) Transform(m mgl64.Mat4) Triangle {
	return Triangle{
		A: mgl64.TransformCoordinate(tri.A, m),
		B: mgl64.TransformCoordinate(tri.B, m),
		C: mgl64.TransformCoordinate(tri.C, m),
	}
}

// IntersectRay is Möller–Trumbore. Both faces count; hits behind the origin do not.
func (tri Triangle) IntersectRay(r Ray) (float64, bool) {
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)
	pvec := r.Dir.Cross(e2)
	det := e1.Dot(pvec)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	invDet := 1 / det

	tvec := r.Origin.Sub(tri.A)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	qvec := tvec.Cross(e1)
	v := r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(qvec) * invDet
	if t <= epsilon {
		return 0, false
	}
	return t, true
}

// BoxTriangles tessellates the faces of b into 12 triangles.
func BoxTriangles(b AABB) []Triangle {
	c := b.Corners()
	quads := [6][4]int{
		{0, 1, 3, 2}, // -z
		{4, 6, 7, 5}, // +z
		{0, 4, 5, 1}, // -y
		{2, 3, 7, 6}, // +y
		{0, 2, 6, 4}, // -x
		{1, 5, 7, 3}, // +x
	}
	out := make([]Triangle, 0, 12)
	for _, q := range quads {
		out = append(out,
			Triangle{A: c[q[0]], B: c[q[1]], C: c[q[2]]},
			Triangle{A: c[q[0]], B: c[q[2]], C: c[q[3]]},
		)
	}
	return out
}
