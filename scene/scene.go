package scene

import (
	"distfield-gi/core"
	"distfield-gi/math"
)

// Scene holds the distance-field object set plus the lighting environment
// used by the irradiance gather.
type Scene struct {
	Objects []*Object

	SkyColor     core.Color
	SunDirection math.Vec3 // unit vector toward the sun
	SunColor     core.Color
}

func NewScene() *Scene {
	return &Scene{
		SkyColor:     core.Color{R: 0.45, G: 0.55, B: 0.7, A: 1},
		SunDirection: math.Vec3{X: 0.3, Y: 0.8, Z: 0.5}.Normalize(),
		SunColor:     core.Color{R: 1, G: 0.95, B: 0.85, A: 1},
	}
}

func (s *Scene) AddObject(o *Object) {
	s.Objects = append(s.Objects, o)
}

// BeginFrame refreshes every object's cached bounds and motion baseline.
func (s *Scene) BeginFrame() {
	for _, o := range s.Objects {
		o.BeginFrame()
	}
}

// EndFrame rolls motion baselines forward after the frame is rendered.
func (s *Scene) EndFrame() {
	for _, o := range s.Objects {
		o.EndFrame()
	}
}

// DistanceAt returns the scene's global distance at a world point together
// with the closest object, or nil when no object volume is near.
func (s *Scene) DistanceAt(world math.Vec3) (float32, *Object) {
	const farDistance = 1e9
	best := float32(farDistance)
	var bestObj *Object
	for _, o := range s.Objects {
		// Sphere bound lower-binds the object's field; skip when it
		// cannot beat the current best.
		lower := world.Distance(o.BoundsCenter) - o.BoundsRadius
		if lower >= best {
			continue
		}
		d := o.DistanceAt(world)
		if d < best {
			best = d
			bestObj = o
		}
	}
	return best, bestObj
}

// NormalAt estimates the surface normal by central differences of the global
// field. eps should be on the order of a voxel.
func (s *Scene) NormalAt(world math.Vec3, eps float32) math.Vec3 {
	dx1, _ := s.DistanceAt(world.Add(math.Vec3{X: eps}))
	dx0, _ := s.DistanceAt(world.Sub(math.Vec3{X: eps}))
	dy1, _ := s.DistanceAt(world.Add(math.Vec3{Y: eps}))
	dy0, _ := s.DistanceAt(world.Sub(math.Vec3{Y: eps}))
	dz1, _ := s.DistanceAt(world.Add(math.Vec3{Z: eps}))
	dz0, _ := s.DistanceAt(world.Sub(math.Vec3{Z: eps}))

	n := math.Vec3{X: dx1 - dx0, Y: dy1 - dy0, Z: dz1 - dz0}
	if n.LengthSqr() == 0 {
		return math.Vec3Up
	}
	return n.Normalize()
}
