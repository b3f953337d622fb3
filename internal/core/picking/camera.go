package picking

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arview/internal/core/geom"
	"github.com/zeusync/arview/internal/core/scene"
)

// Viewport is the rendering surface's bounding rectangle in viewport pixels.
type Viewport struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v Viewport) Ready() bool {
	return v.Width > 0 && v.Height > 0
}

// NDC converts a pointer position to normalized device coordinates, y up.
func (v Viewport) NDC(px, py float64) (x, y float64) {
	x = (px-v.Left)/v.Width*2 - 1
	y = -((py-v.Top)/v.Height)*2 + 1
	return x, y
}

// Camera is a perspective camera pose reported by the front-end.
type Camera struct {
	Position scene.Vec3 `json:"position"`
	Target   scene.Vec3 `json:"target"`
	Up       scene.Vec3 `json:"up"`
	// FovY is the vertical field of view in degrees.
	FovY float64 `json:"fovY"`
	// Aspect is width/height; zero means "derive from the viewport".
	Aspect float64 `json:"aspect"`
	Near   float64 `json:"near"`
	Far    float64 `json:"far"`
}

// DefaultCamera mirrors the A-Frame default camera: 80 degree fov at the
// origin looking down -Z.
func DefaultCamera() Camera {
	return Camera{
		Target: scene.V3(0, 0, -1),
		Up:     scene.V3(0, 1, 0),
		FovY:   80,
		Near:   0.005,
		Far:    10000,
	}
}

func (c Camera) View() mgl64.Mat4 {
	up := c.Up.Vec()
	if up.Len() == 0 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(c.Position.Vec(), c.Target.Vec(), up)
}

func (c Camera) Projection(aspect float64) mgl64.Mat4 {
	if c.Aspect > 0 {
		aspect = c.Aspect
	}
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Valid rejects poses that cannot produce a ray.
func (c Camera) Valid() bool {
	return c.FovY > 0 && c.FovY < 180 &&
		c.Near > 0 && c.Far > c.Near &&
		c.Position != c.Target
}

// Ray builds a world-space ray from the camera through an NDC point.
func (c Camera) Ray(ndcX, ndcY, aspect float64) (geom.Ray, bool) {
	inv := c.Projection(aspect).Mul4(c.View()).Inv()
	if inv == (mgl64.Mat4{}) {
		return geom.Ray{}, false
	}
	far := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, 1}, inv)
	origin := c.Position.Vec()
	dir := far.Sub(origin)
	if dir.Len() == 0 {
		return geom.Ray{}, false
	}
	return geom.NewRay(origin, dir), true
}
