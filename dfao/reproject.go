package dfao

import (
	"distfield-gi/math"
	"distfield-gi/scene"
)

// Reproject blends the current frame's cache with last frame's history.
// Each pixel looks up where it was on screen last frame, using the G-buffer
// velocity when the object moved and pure camera reprojection otherwise.
// History is rejected when the previous UV falls off screen or when the
// reconstructed previous world position disagrees with the current one by
// more than the reject threshold, which catches teleports and disocclusion.
// Accepted pixels come out with positive depth, rejected ones negative.
func Reproject(ctx *FrameContext, gb *scene.GBuffer, current, history, out *CacheBuffer) {
	cfg := &ctx.Config
	htx := 0.5 / float32(out.Width)
	hty := 0.5 / float32(out.Height)

	parallelFor(out.Height, func(y int) {
		for x := 0; x < out.Width; x++ {
			i := out.Index(x, y)
			depth := gb.Depth[i]
			out.BentNormal[i] = current.BentNormal[i]
			out.Depth[i] = current.Depth[i]
			if out.Irradiance != nil {
				out.Irradiance[i] = current.Irradiance[i]
			}
			if depth >= gb.FarDepth || !current.Valid(i) {
				continue
			}

			worldPos := gb.WorldPosition(i)
			var prevUV math.Vec2
			if scene.IsVelocityNone(gb.Velocity[i]) {
				uv, ok := cameraReprojectUV(&ctx.View, worldPos)
				if !ok {
					out.Depth[i] = -depth
					continue
				}
				prevUV = uv
			} else {
				prevUV = gb.UVAt(x, y).Sub(gb.Velocity[i])
			}

			if prevUV.X < htx || prevUV.X > 1-htx || prevUV.Y < hty || prevUV.Y > 1-hty {
				out.Depth[i] = -depth
				continue
			}

			px := int(prevUV.X * float32(history.Width))
			py := int(prevUV.Y * float32(history.Height))
			hi := history.Index(px, py)
			if !history.Valid(hi) {
				out.Depth[i] = -depth
				continue
			}

			prevWorld := previousWorldPosition(ctx, history, prevUV, history.AbsDepth(hi))
			if prevWorld.Sub(worldPos).Length() > cfg.PositionRejectThreshold {
				out.Depth[i] = -depth
				continue
			}

			w := cfg.HistoryWeight
			out.BentNormal[i] = current.BentNormal[i].Lerp(history.BentNormal[hi], w)
			if out.Irradiance != nil && history.Irradiance != nil {
				out.Irradiance[i] = current.Irradiance[i].Lerp(history.Irradiance[hi], w)
			}
			out.Depth[i] = depth
		}
	})
}

// cameraReprojectUV maps a world position through the camera motion matrix:
// project to current NDC, then carry the NDC point into previous-frame clip
// space. ok is false when either frame puts the point behind the camera.
func cameraReprojectUV(view *View, world math.Vec3) (math.Vec2, bool) {
	clip := view.ViewProjection.MulVec(world.ToVec4(1))
	if clip.W <= 0 {
		return math.Vec2{}, false
	}
	prev := view.CameraMotion.MulVec(clip.ToVec3DivW().ToVec4(1))
	if prev.W <= 0 {
		return math.Vec2{}, false
	}
	inv := 1 / prev.W
	return math.Vec2{
		X: prev.X*inv*0.5 + 0.5,
		Y: 0.5 - prev.Y*inv*0.5,
	}, true
}

// previousWorldPosition reconstructs the world position a history texel
// described: the previous camera's ray through that UV, extended by the
// stored depth.
func previousWorldPosition(ctx *FrameContext, history *CacheBuffer, uv math.Vec2, depth float32) math.Vec3 {
	ndc := math.NewVec3(uv.X*2-1, 1-uv.Y*2, -1)
	near := ctx.View.PrevInvViewProj.MulPoint(ndc)
	dir := near.Sub(ctx.View.PrevCameraPos).Normalize()
	return ctx.View.PrevCameraPos.Add(dir.Mul(depth))
}
