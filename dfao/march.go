package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// RayMarchResult reports a sphere-trace outcome. Hit is true when the ray
// reached a surface within the interval; Inconclusive is true when the step
// budget ran out while the distance was still small, which callers treat as
// occluded.
type RayMarchResult struct {
	Hit          bool
	Inconclusive bool
	HitTime      float32
	Steps        int
}

// raySphere clips a ray against a sphere, returning the entry/exit
// parameters. ok is false when the ray misses entirely.
func raySphere(origin, dir, center math.Vec3, radius float32) (t0, t1 float32, ok bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, 0, false
	}
	s := math32.Sqrt(disc)
	return -b - s, -b + s, true
}

// MarchObject sphere-traces one object's distance field over [minT, maxT].
// The interval is first clipped to the object's bounding sphere so rays that
// pass nowhere near it cost a single sphere test.
func MarchObject(obj *scene.Object, origin, dir math.Vec3, minT, maxT float32, maxSteps int) RayMarchResult {
	t0, t1, ok := raySphere(origin, dir, obj.BoundsCenter, obj.BoundsRadius)
	if !ok || t1 < minT || t0 > maxT {
		return RayMarchResult{}
	}
	t := math32.Max(t0, minT)
	end := math32.Min(t1, maxT)

	// Transform once; the field is sampled in local space.
	localOrigin := obj.WorldToLocal.MulPoint(origin)
	localEnd := obj.WorldToLocal.MulPoint(origin.Add(dir))
	localDir := localEnd.Sub(localOrigin)

	minStep := (end - t) / float32(maxSteps)
	res := RayMarchResult{}
	for ; res.Steps < maxSteps; res.Steps++ {
		p := localOrigin.Add(localDir.Mul(t))
		d := obj.SampleLocal(p)
		if d < surfaceThreshold(t) {
			res.Hit = true
			res.HitTime = t
			return res
		}
		t += math32.Max(d, minStep)
		if t > end {
			return res
		}
	}
	// Budget exhausted while still near a surface.
	res.Inconclusive = true
	res.HitTime = t
	return res
}

func surfaceThreshold(t float32) float32 {
	return 0.001*t + 0.001
}

// MarchObjects traces a set of objects and keeps the nearest hit. An
// inconclusive march on any object makes the whole result inconclusive
// unless a closer definite hit exists.
func MarchObjects(objects []*scene.Object, origin, dir math.Vec3, minT, maxT float32, maxSteps int) RayMarchResult {
	best := RayMarchResult{HitTime: maxT}
	hit := false
	for _, obj := range objects {
		r := MarchObject(obj, origin, dir, minT, maxT, maxSteps)
		best.Steps += r.Steps
		if r.Hit && (!hit || r.HitTime < best.HitTime) {
			hit = true
			best.Hit = true
			best.Inconclusive = false
			best.HitTime = r.HitTime
		} else if r.Inconclusive && !hit {
			best.Inconclusive = true
			if r.HitTime < best.HitTime {
				best.HitTime = r.HitTime
			}
		}
	}
	if !hit && !best.Inconclusive {
		best.HitTime = 0
	}
	return best
}
