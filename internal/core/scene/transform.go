package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a float triple as the front-end exchanges it.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Uniform returns (s, s, s).
func Uniform(s float64) Vec3 { return Vec3{X: s, Y: s, Z: s} }

func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func FromVec(v mgl64.Vec3) Vec3 { return Vec3{X: v[0], Y: v[1], Z: v[2]} }

func (v Vec3) Mul(s float64) Vec3 { return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

// Transform places an object in world space. Rotation is Euler XYZ in degrees.
type Transform struct {
	Position Vec3 `json:"position" yaml:"position"`
	Rotation Vec3 `json:"rotation" yaml:"rotation"`
	Scale    Vec3 `json:"scale" yaml:"scale"`
}

// Identity is the transform of an object at the origin with unit scale.
func Identity() Transform {
	return Transform{Scale: Uniform(1)}
}

// UniformScale reports the X component, which is the authoritative value
// for objects that are only ever scaled uniformly.
func (t Transform) UniformScale() float64 { return t.Scale.X }

func (t Transform) WithUniformScale(s float64) Transform {
	t.Scale = Uniform(s)
	return t
}

func (t Transform) WithPosition(p Vec3) Transform {
	t.Position = p
	return t
}

func (t Transform) WithRotation(r Vec3) Transform {
	t.Rotation = r
	return t
}

// Matrix composes translation, XYZ rotation and scale the way Three.js
// builds Object3D.matrix.
func (t Transform) Matrix() mgl64.Mat4 {
	rot := mgl64.HomogRotate3DX(mgl64.DegToRad(t.Rotation.X)).
		Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(t.Rotation.Y))).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(t.Rotation.Z)))
	return mgl64.Translate3D(t.Position.X, t.Position.Y, t.Position.Z).
		Mul4(rot).
		Mul4(mgl64.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z))
}
