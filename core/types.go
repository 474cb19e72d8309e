package core

import (
	"distfield-gi/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

func (c Color) ToVec3() math.Vec3 {
	return math.Vec3{X: c.R, Y: c.G, Z: c.B}
}

type Transform struct {
	Position math.Vec3
	Rotation math.Quaternion
	Scale    math.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: math.Vec3Zero,
		Rotation: math.QuaternionIdentity(),
		Scale:    math.Vec3One,
	}
}

func (t Transform) GetMatrix() math.Mat4 {
	return math.Mat4TRS(t.Position, t.Rotation, t.Scale)
}

// GetInverseMatrix builds the world-to-local transform directly, which is
// better conditioned than inverting GetMatrix for strongly non-uniform scale.
func (t Transform) GetInverseMatrix() math.Mat4 {
	invScale := math.Vec3One
	if t.Scale.X != 0 {
		invScale.X = 1 / t.Scale.X
	}
	if t.Scale.Y != 0 {
		invScale.Y = 1 / t.Scale.Y
	}
	if t.Scale.Z != 0 {
		invScale.Z = 1 / t.Scale.Z
	}
	return math.Mat4Scale(invScale).
		Mul(t.Rotation.Conjugate().ToMat4()).
		Mul(math.Mat4Translation(t.Position.Negate()))
}
