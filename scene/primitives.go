package scene

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
)

// Analytic signed distance functions used to bake primitive volumes.
// Conventions follow the usual GLSL forms (negative inside).

func sphereDistance(p math.Vec3, radius float32) float32 {
	return p.Length() - radius
}

func boxDistance(p math.Vec3, half math.Vec3) float32 {
	q := p.Abs().Sub(half)
	outside := q.Max(math.Vec3Zero).Length()
	inside := math32.Min(q.MaxComponent(), 0)
	return outside + inside
}

func torusDistance(p math.Vec3, major, minor float32) float32 {
	qx := math32.Hypot(p.X, p.Z) - major
	return math32.Hypot(qx, p.Y) - minor
}

func cylinderDistance(p math.Vec3, radius, halfHeight float32) float32 {
	dxz := math32.Hypot(p.X, p.Z) - radius
	dy := math32.Abs(p.Y) - halfHeight
	outside := math32.Hypot(math32.Max(dxz, 0), math32.Max(dy, 0))
	inside := math32.Min(math32.Max(dxz, dy), 0)
	return outside + inside
}

// volumeMargin pads the baked box so the zero crossing never touches the
// border voxels, where clamped sampling flattens the gradient.
const volumeMargin = 1.25

// NewSphereObject bakes a sphere of the given radius at the given resolution.
func NewSphereObject(name string, radius float32, res int) *Object {
	res = clampRes(res)
	half := math.Vec3One.Mul(radius * volumeMargin)
	vol, _ := VolumeFromFunc(res, res, res, half, func(p math.Vec3) float32 {
		return sphereDistance(p, radius)
	})
	return NewObject(name, vol, half)
}

// clampRes keeps baked volumes above the 2-voxel floor VolumeFromFunc needs,
// so the primitive builders never have to surface an error.
func clampRes(res int) int {
	if res < 4 {
		return 4
	}
	return res
}

// NewBoxObject bakes an axis-aligned box with the given half extent.
func NewBoxObject(name string, halfExtent math.Vec3, res int) *Object {
	res = clampRes(res)
	half := halfExtent.Mul(volumeMargin)
	vol, _ := VolumeFromFunc(res, res, res, half, func(p math.Vec3) float32 {
		return boxDistance(p, halfExtent)
	})
	return NewObject(name, vol, half)
}

// NewTorusObject bakes a torus lying in the XZ plane.
func NewTorusObject(name string, major, minor float32, res int) *Object {
	res = clampRes(res)
	half := math.Vec3{
		X: (major + minor) * volumeMargin,
		Y: minor * volumeMargin,
		Z: (major + minor) * volumeMargin,
	}
	vol, _ := VolumeFromFunc(res, res/2+2, res, half, func(p math.Vec3) float32 {
		return torusDistance(p, major, minor)
	})
	return NewObject(name, vol, half)
}

// NewCylinderObject bakes a Y-axis cylinder.
func NewCylinderObject(name string, radius, halfHeight float32, res int) *Object {
	res = clampRes(res)
	half := math.Vec3{
		X: radius * volumeMargin,
		Y: halfHeight * volumeMargin,
		Z: radius * volumeMargin,
	}
	vol, _ := VolumeFromFunc(res, res, res, half, func(p math.Vec3) float32 {
		return cylinderDistance(p, radius, halfHeight)
	})
	return NewObject(name, vol, half)
}

// NewGroundObject bakes a large thin slab usable as a ground plane. Real
// heightfields arrive through the G-buffer flags instead, but a slab is
// enough for demo scenes and tests.
func NewGroundObject(name string, halfSize, thickness float32, res int) *Object {
	o := NewBoxObject(name, math.Vec3{X: halfSize, Y: thickness, Z: halfSize}, res)
	o.Heightfield = true
	return o
}
