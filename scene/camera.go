package scene

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
)

// Camera is a perspective view with one frame of matrix history, so the
// temporal reprojector can map current pixels into the previous frame.
type Camera struct {
	Position    math.Vec3
	Rotation    math.Quaternion
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix     math.Mat4
	projMatrix     math.Mat4
	viewProjMatrix math.Mat4
	dirty          bool

	// Previous frame state, rolled by BeginFrame.
	prevPosition math.Vec3
	prevViewProj math.Mat4
	hasHistory   bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:    math.Vec3Zero,
		Rotation:    math.QuaternionIdentity(),
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) SetPosition(pos math.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) SetRotation(rot math.Quaternion) {
	c.Rotation = rot
	c.dirty = true
}

func (c *Camera) Translate(delta math.Vec3) {
	c.Position = c.Position.Add(delta)
	c.dirty = true
}

func (c *Camera) LookAt(target, up math.Vec3) {
	forward := target.Sub(c.Position).Normalize()
	right := forward.Cross(up).Normalize()
	trueUp := right.Cross(forward)

	// Basis -> quaternion via the rotation matrix trace.
	m := math.Mat4{
		{right.X, right.Y, right.Z, 0},
		{trueUp.X, trueUp.Y, trueUp.Z, 0},
		{-forward.X, -forward.Y, -forward.Z, 0},
		{0, 0, 0, 1},
	}
	c.Rotation = quaternionFromBasis(m)
	c.dirty = true
}

// BeginFrame snapshots the current matrices as previous-frame state, then
// recomputes with any transform changes applied. Call once per frame before
// rendering.
func (c *Camera) BeginFrame() {
	if !c.hasHistory {
		c.updateMatrices()
		c.prevViewProj = c.viewProjMatrix
		c.prevPosition = c.Position
		c.hasHistory = true
		return
	}
	c.prevViewProj = c.ViewProjection()
	c.prevPosition = c.Position
	c.dirty = true
}

func (c *Camera) ViewMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projMatrix
}

func (c *Camera) ViewProjection() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewProjMatrix
}

func (c *Camera) PreviousViewProjection() math.Mat4 {
	return c.prevViewProj
}

func (c *Camera) PreviousPosition() math.Vec3 {
	return c.prevPosition
}

func (c *Camera) Forward() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Back)
}

func (c *Camera) Right() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Right)
}

func (c *Camera) Up() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Up)
}

func (c *Camera) updateMatrices() {
	rotation := c.Rotation.Conjugate().ToMat4()
	translation := math.Mat4Translation(c.Position.Negate())
	c.viewMatrix = rotation.Mul(translation)

	c.projMatrix = math.Mat4Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.viewProjMatrix = c.projMatrix.Mul(c.viewMatrix)
	c.dirty = false
}

func quaternionFromBasis(m math.Mat4) math.Quaternion {
	trace := m[0][0] + m[1][1] + m[2][2]
	var q math.Quaternion
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q = math.Quaternion{
			X: (m[1][2] - m[2][1]) / s,
			Y: (m[2][0] - m[0][2]) / s,
			Z: (m[0][1] - m[1][0]) / s,
			W: s / 4,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math32.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		q = math.Quaternion{
			X: s / 4,
			Y: (m[1][0] + m[0][1]) / s,
			Z: (m[2][0] + m[0][2]) / s,
			W: (m[1][2] - m[2][1]) / s,
		}
	case m[1][1] > m[2][2]:
		s := math32.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		q = math.Quaternion{
			X: (m[1][0] + m[0][1]) / s,
			Y: s / 4,
			Z: (m[2][1] + m[1][2]) / s,
			W: (m[2][0] - m[0][2]) / s,
		}
	default:
		s := math32.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		q = math.Quaternion{
			X: (m[2][0] + m[0][2]) / s,
			Y: (m[2][1] + m[1][2]) / s,
			Z: s / 4,
			W: (m[0][1] - m[1][0]) / s,
		}
	}
	return q.Normalize()
}
