package scene

import (
	"github.com/chewxy/math32"

	"distfield-gi/core"
	"distfield-gi/math"
)

// Object is one distance-field primitive in the scene. The volume covers the
// local-space box [-LocalExtent, LocalExtent]; Transform places it in the
// world. Bounds* cache a world-space sphere enclosing the whole box, used by
// the tile culler.
type Object struct {
	Name string

	Volume      *Volume
	LocalExtent math.Vec3 // half extent of the covered local box

	Transform     core.Transform
	prevTransform core.Transform
	hasPrev       bool

	// Volume addressing: uvw = local * UVScale + UVAdd.
	UVScale math.Vec3
	UVAdd   math.Vec3

	// InvertSign flips the stored convention for volumes authored with
	// positive distances inside the surface.
	InvertSign bool

	// HasDistanceField is false for objects whose volume is only a rough
	// proxy; such objects still rasterize into the G-buffer but are skipped
	// by occluder culling, and their pixels take the scalar-AO combine path.
	HasDistanceField bool

	// Heightfield marks ground-slab style geometry.
	Heightfield bool

	Albedo core.Color

	// Cached world-space data, refreshed by UpdateBounds.
	BoundsCenter  math.Vec3
	BoundsRadius  float32
	WorldToLocal  math.Mat4
	LocalToWorld  math.Mat4
	worldDistance float32 // local->world factor for sampled distances
}

// NewObject wraps a volume covering [-halfExtent, halfExtent] local units.
func NewObject(name string, vol *Volume, halfExtent math.Vec3) *Object {
	o := &Object{
		Name:        name,
		Volume:      vol,
		LocalExtent: halfExtent,
		Transform:   core.NewTransform(),
		UVScale: math.Vec3{
			X: 0.5 / halfExtent.X,
			Y: 0.5 / halfExtent.Y,
			Z: 0.5 / halfExtent.Z,
		},
		UVAdd:            math.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
		HasDistanceField: true,
		Albedo:           core.Color{R: 0.7, G: 0.7, B: 0.7, A: 1},
	}
	o.UpdateBounds()
	return o
}

// UpdateBounds refreshes the cached world sphere and transform matrices.
// Call after mutating Transform and before rendering a frame.
func (o *Object) UpdateBounds() {
	o.LocalToWorld = o.Transform.GetMatrix()
	o.WorldToLocal = o.Transform.GetInverseMatrix()
	o.BoundsCenter = o.LocalToWorld.MulPoint(math.Vec3Zero)

	maxScale := o.Transform.Scale.Abs().MaxComponent()
	o.BoundsRadius = o.LocalExtent.Length() * maxScale

	// Conservative distance conversion: scale by the smallest axis so a
	// sampled distance never overestimates the true world distance.
	minScale := math32.Min(math32.Abs(o.Transform.Scale.X),
		math32.Min(math32.Abs(o.Transform.Scale.Y), math32.Abs(o.Transform.Scale.Z)))
	o.worldDistance = o.Volume.Normalization * minScale
}

// BeginFrame snapshots the current transform as the previous-frame transform
// used for motion vectors, then refreshes bounds.
func (o *Object) BeginFrame() {
	if !o.hasPrev {
		o.prevTransform = o.Transform
		o.hasPrev = true
	}
	o.UpdateBounds()
}

// EndFrame rolls the transform forward; next frame's motion vectors measure
// against the state at this call.
func (o *Object) EndFrame() {
	o.prevTransform = o.Transform
}

// Moved reports whether the object's transform changed since the previous
// frame. Static objects let the G-buffer emit the "camera motion only"
// velocity sentinel.
func (o *Object) Moved() bool {
	return o.hasPrev && o.prevTransform != o.Transform
}

// PrevWorldPoint maps a current-frame world position on this object to its
// previous-frame world position.
func (o *Object) PrevWorldPoint(world math.Vec3) math.Vec3 {
	local := o.WorldToLocal.MulPoint(world)
	return o.prevTransform.GetMatrix().MulPoint(local)
}

// SampleLocal returns the signed world-space distance at a local point.
// Points outside the covered box add the box exterior distance so sphere
// tracing can still take useful steps from afar.
func (o *Object) SampleLocal(local math.Vec3) float32 {
	uvw := local.MulVec(o.UVScale).Add(o.UVAdd)
	d := o.Volume.Sample(uvw) * o.worldDistance
	if o.InvertSign {
		d = -d
	}

	// Distance from the sample point to the covered box, zero inside.
	q := local.Abs().Sub(o.LocalExtent)
	outside := q.Max(math.Vec3Zero).Length()
	if outside > 0 {
		minScale := math32.Min(math32.Abs(o.Transform.Scale.X),
			math32.Min(math32.Abs(o.Transform.Scale.Y), math32.Abs(o.Transform.Scale.Z)))
		d = math32.Max(d, 0) + outside*minScale
	}
	return d
}

// DistanceAt returns the signed world-space distance at a world point.
func (o *Object) DistanceAt(world math.Vec3) float32 {
	return o.SampleLocal(o.WorldToLocal.MulPoint(world))
}
