package dfao

import (
	"distfield-gi/scene"
)

// RenderVisualization sphere-traces every pixel directly against the
// distance fields and records the step count and outcome, the debug view
// for inspecting field quality and march cost. Each pixel intersects the
// object bounding spheres first and keeps at most MaxVisualizationObjects
// candidates; the overflow is dropped nearest-first so close objects win.
func RenderVisualization(ctx *FrameContext, sc *scene.Scene, gb *scene.GBuffer, vis *VisualizationBuffer) {
	cfg := &ctx.Config
	maxT := cfg.MaxViewDistance

	parallelFor(vis.Height, func(y int) {
		objs := make([]*scene.Object, 0, cfg.MaxVisualizationObjects)
		entry := make([]float32, 0, cfg.MaxVisualizationObjects)
		for x := 0; x < vis.Width; x++ {
			i := gb.Index(x, y)
			dir := gb.RayDir[i]
			origin := gb.CameraPos

			objs = objs[:0]
			entry = entry[:0]
			for _, obj := range sc.Objects {
				if !obj.HasDistanceField {
					continue
				}
				t0, t1, ok := raySphere(origin, dir, obj.BoundsCenter, obj.BoundsRadius)
				if !ok || t1 < 0 || t0 > maxT {
					continue
				}
				// Insert sorted by entry distance, capped.
				pos := len(objs)
				for pos > 0 && entry[pos-1] > t0 {
					pos--
				}
				if pos >= cfg.MaxVisualizationObjects {
					continue
				}
				objs = append(objs, nil)
				entry = append(entry, 0)
				copy(objs[pos+1:], objs[pos:])
				copy(entry[pos+1:], entry[pos:])
				objs[pos] = obj
				entry[pos] = t0
				if len(objs) > cfg.MaxVisualizationObjects {
					objs = objs[:cfg.MaxVisualizationObjects]
					entry = entry[:cfg.MaxVisualizationObjects]
				}
			}

			r := MarchObjects(objs, origin, dir, 0, maxT, cfg.MaxRayMarchSteps)
			steps := r.Steps
			if steps > 0xffff {
				steps = 0xffff
			}
			vis.Steps[i] = uint16(steps)
			switch {
			case r.Hit:
				vis.Hits[i] = VisHit
			case r.Inconclusive:
				vis.Hits[i] = VisInconclusive
			default:
				vis.Hits[i] = VisMiss
			}
		}
	})
}
