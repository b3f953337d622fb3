package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBox() AABB {
	return AABB{Min: mgl64.Vec3{-0.5, -0.5, -0.5}, Max: mgl64.Vec3{0.5, 0.5, 0.5}}
}

func TestRayAABBHitFromOutside(t *testing.T) {
	box := unitBox()
	r := NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1})

	tmin, tmax, ok := box.IntersectRay(r)
	require.True(t, ok)
	assert.InDelta(t, 4.5, tmin, 1e-9)
	assert.InDelta(t, 5.5, tmax, 1e-9)
}

func TestRayAABBMiss(t *testing.T) {
	box := unitBox()

	_, _, ok := box.IntersectRay(NewRay(mgl64.Vec3{2, 0, 5}, mgl64.Vec3{0, 0, -1}))
	assert.False(t, ok, "parallel ray outside the slab")

	_, _, ok = box.IntersectRay(NewRay(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 1}))
	assert.False(t, ok, "box behind the origin")
}

func TestRayAABBOriginInside(t *testing.T) {
	tmin, tmax, ok := unitBox().IntersectRay(NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}))
	require.True(t, ok)
	assert.Equal(t, 0.0, tmin)
	assert.InDelta(t, 0.5, tmax, 1e-9)
}

func TestEmptyAABB(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.IsEmpty())
	_, _, ok := b.IntersectRay(NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}))
	assert.False(t, ok)

	b = b.ExpandByPoint(mgl64.Vec3{1, 2, 3})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.Min)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.Max)
}

func TestAABBTransform(t *testing.T) {
	m := mgl64.Translate3D(0, 0, -3).Mul4(mgl64.Scale3D(2, 2, 2))
	b := unitBox().Transform(m)
	assert.True(t, b.Min.ApproxEqual(mgl64.Vec3{-1, -1, -4}), "%v", b.Min)
	assert.True(t, b.Max.ApproxEqual(mgl64.Vec3{1, 1, -2}), "%v", b.Max)

	rotated := unitBox().Transform(mgl64.HomogRotate3DY(math.Pi / 4))
	half := math.Sqrt2 / 2
	assert.InDelta(t, -half, rotated.Min[0], 1e-9)
	assert.InDelta(t, half, rotated.Max[2], 1e-9)
}

func TestTriangleIntersect(t *testing.T) {
	tri := Triangle{
		A: mgl64.Vec3{-1, -1, 0},
		B: mgl64.Vec3{1, -1, 0},
		C: mgl64.Vec3{0, 1, 0},
	}

	d, ok := tri.IntersectRay(NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1}))
	require.True(t, ok)
	assert.InDelta(t, 3.0, d, 1e-9)

	// back face counts
	d, ok = tri.IntersectRay(NewRay(mgl64.Vec3{0, 0, -2}, mgl64.Vec3{0, 0, 1}))
	require.True(t, ok)
	assert.InDelta(t, 2.0, d, 1e-9)

	_, ok = tri.IntersectRay(NewRay(mgl64.Vec3{5, 5, 3}, mgl64.Vec3{0, 0, -1}))
	assert.False(t, ok)

	_, ok = tri.IntersectRay(NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, 1}))
	assert.False(t, ok, "triangle behind origin")

	_, ok = tri.IntersectRay(NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{1, 0, 0}))
	assert.False(t, ok, "parallel ray")
}

func TestTriangleValid(t *testing.T) {
	assert.True(t, Triangle{}.Valid())
	assert.False(t, Triangle{A: mgl64.Vec3{math.NaN(), 0, 0}}.Valid())
	assert.False(t, Triangle{C: mgl64.Vec3{0, math.Inf(1), 0}}.Valid())
}

func TestBoxTrianglesMatchSlabDistance(t *testing.T) {
	box := unitBox()
	tris := BoxTriangles(box)
	require.Len(t, tris, 12)

	rays := []Ray{
		NewRay(mgl64.Vec3{0.1, 0.2, 4}, mgl64.Vec3{0, 0, -1}),
		NewRay(mgl64.Vec3{-4, 0.1, 0.3}, mgl64.Vec3{1, 0, 0}),
		NewRay(mgl64.Vec3{0.2, 3, -0.3}, mgl64.Vec3{0, -1, 0}),
		NewRay(mgl64.Vec3{0.1, 2, 3}, mgl64.Vec3{0, -0.5, -1}),
	}
	for _, r := range rays {
		tmin, _, ok := box.IntersectRay(r)
		require.True(t, ok)

		best := math.Inf(1)
		for _, tri := range tris {
			if d, hit := tri.IntersectRay(r); hit && d < best {
				best = d
			}
		}
		assert.InDelta(t, tmin, best, 1e-9)
	}
}

func TestRayAt(t *testing.T) {
	r := NewRay(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 2, 0})
	assert.True(t, r.At(3).ApproxEqual(mgl64.Vec3{1, 3, 0}))
}
