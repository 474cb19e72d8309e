package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// SplatRadius returns the screen-reconstruction radius of a record. Nearby
// small records are shrunk toward InterpolationRadiusScale so detail
// survives; distant or large records keep their full footprint.
func SplatRadius(cfg *Config, radius, depth float32) float32 {
	t := math.Saturate(math32.Max(radius/cfg.OcclusionDistance, depth/cfg.MaxViewDistance))
	return radius * math.Lerp(cfg.InterpolationRadiusScale, 1, t)
}

// splatWeight scores how well a record describes a receiving pixel: distance
// falloff inside the splat radius, normal agreement, and a penalty for
// pixels behind the record's tangent plane.
func splatWeight(cfg *Config, rec *Record, pixelPos, pixelNormal math.Vec3, effRadius float32) float32 {
	delta := pixelPos.Sub(rec.WorldPos)
	distErr := delta.Length() / effRadius
	if distErr >= 1 {
		return 0
	}
	normalWeight := math.Saturate(pixelNormal.Dot(rec.Normal))
	planeDist := delta.Dot(rec.Normal)
	behindWeight := math.Saturate(1 + planeDist/(cfg.BehindPlaneScale*rec.Radius))
	return (1 - distErr) * normalWeight * behindWeight
}

// splatFootprint is the projected splat radius in pixels, by similar
// triangles at the virtual center's depth rather than the record's.
func splatFootprint(ctx *FrameContext, effRadius, depth float32) float32 {
	virtual := math32.Max(depth+effRadius*ctx.Config.SplatOffsetSign, 0.001)
	return effRadius / ctx.PixelWorldRadius(virtual)
}

// SplatRecords scatters every record onto the accumulation buffer. Each
// record rasterizes the screen bounds of its splat sphere, offset along the
// view direction so the footprint covers the pixels the record shades, and
// adds its weighted bent normal and irradiance to every covered pixel.
func SplatRecords(ctx *FrameContext, gb *scene.GBuffer, records []Record, accum *AccumulationBuffer) {
	cfg := &ctx.Config
	if !cfg.Features.Has(FeatureInterpolation) {
		// Point mode: each record shades only the pixel it was placed on.
		parallelFor(len(records), func(ri int) {
			rec := &records[ri]
			i := gb.Index(rec.PixelX, rec.PixelY)
			if gb.Depth[i] >= gb.FarDepth {
				return
			}
			accum.Splat(i, rec.BentNormal, rec.Irradiance, 1)
		})
		return
	}
	parallelFor(len(records), func(ri int) {
		rec := &records[ri]
		effRadius := SplatRadius(cfg, rec.Radius, rec.Depth)

		viewDir := rec.WorldPos.Sub(ctx.View.CameraPos).Normalize()
		virtualPos := rec.WorldPos.Add(viewDir.Mul(effRadius * cfg.SplatOffsetSign))
		uv, ok := scene.ProjectUV(ctx.View.ViewProjection, virtualPos)
		if !ok {
			return
		}

		cx := uv.X * float32(gb.Width)
		cy := uv.Y * float32(gb.Height)
		pixels := splatFootprint(ctx, effRadius, rec.Depth)
		x0 := max(int(cx-pixels), 0)
		x1 := min(int(cx+pixels)+1, gb.Width-1)
		y0 := max(int(cy-pixels), 0)
		y1 := min(int(cy+pixels)+1, gb.Height-1)

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				i := gb.Index(x, y)
				if gb.Depth[i] >= gb.FarDepth {
					continue
				}
				w := splatWeight(cfg, rec, gb.WorldPosition(i), gb.Normal[i], effRadius)
				if w <= 0 {
					continue
				}
				accum.Splat(i, rec.BentNormal, rec.Irradiance, w)
			}
		}
	})
}
