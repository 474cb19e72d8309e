package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// Combine normalizes the splat accumulation into a cache buffer. Pixels
// that received weight become valid (positive depth); scene pixels that no
// splat reached and sky pixels come out invalid (negative depth) for the
// gap-fill pass to handle. Pixels over geometry with no field
// representation keep their own normal, scaled by the scalar occlusion the
// surrounding splats carry. Occlusion fades out over the tail of the view
// distance so the effect cuts off smoothly.
func Combine(ctx *FrameContext, gb *scene.GBuffer, accum *AccumulationBuffer, out *CacheBuffer) {
	cfg := ctx.Config
	fadeStart := cfg.MaxViewDistance * (1 - cfg.FadeFraction)
	fadeLen := cfg.MaxViewDistance * cfg.FadeFraction

	parallelFor(gb.Height, func(y int) {
		for x := 0; x < gb.Width; x++ {
			i := gb.Index(x, y)
			depth := gb.Depth[i]
			if depth >= gb.FarDepth {
				out.BentNormal[i] = math.Vec3{}
				out.Depth[i] = -gb.FarDepth
				if out.Irradiance != nil {
					out.Irradiance[i] = math.Vec3{}
				}
				continue
			}
			if depth > cfg.MaxViewDistance {
				// Past the cutoff: fully unoccluded, no fill needed.
				out.BentNormal[i] = gb.Normal[i]
				out.Depth[i] = depth
				if out.Irradiance != nil {
					out.Irradiance[i] = math.Vec3{}
				}
				continue
			}

			d := accum.Data[i]
			if gb.Flags[i]&(scene.FlagHasDistanceField|scene.FlagHeightfield) == 0 {
				// Proxy geometry: substitute scalar AO along the
				// pixel's own normal.
				ao := float32(1)
				if d.W > 0 {
					inv := 1 / d.W
					ao = math.Saturate(math.NewVec3(d.X*inv, d.Y*inv, d.Z*inv).FiniteOrZero().Length())
				}
				out.BentNormal[i] = gb.Normal[i].Mul(ao)
				out.Depth[i] = depth
				if out.Irradiance != nil {
					out.Irradiance[i] = math.Vec3{}
				}
				continue
			}
			if d.W <= 0 {
				out.BentNormal[i] = gb.Normal[i]
				out.Depth[i] = -depth
				if out.Irradiance != nil {
					out.Irradiance[i] = math.Vec3{}
				}
				continue
			}

			inv := 1 / d.W
			bent := math.NewVec3(d.X*inv, d.Y*inv, d.Z*inv).FiniteOrZero()
			if l := bent.Length(); l > 1 {
				bent = bent.Mul(1 / l)
			}
			if depth > fadeStart {
				fade := math.Saturate((depth - fadeStart) / fadeLen)
				bent = bent.Lerp(gb.Normal[i], fade)
			}
			out.BentNormal[i] = bent
			out.Depth[i] = depth
			if out.Irradiance != nil {
				ir := accum.Irradiance[i]
				out.Irradiance[i] = ir.Mul(inv).FiniteOrZero()
			}
		}
	})
}

// GapFill fills invalid scene pixels from valid neighbors in a 5x5 window,
// weighted by screen proximity and depth similarity. It writes only invalid
// pixels and reads only
// valid ones, so running it in place is safe. Pixels with no usable
// neighbor stay invalid and unoccluded.
func GapFill(ctx *FrameContext, gb *scene.GBuffer, buf *CacheBuffer) {
	cfg := ctx.Config
	type fill struct {
		index      int
		bent       math.Vec3
		irradiance math.Vec3
		depth      float32
	}

	fills := make([][]fill, buf.Height)
	parallelFor(buf.Height, func(y int) {
		var row []fill
		for x := 0; x < buf.Width; x++ {
			i := buf.Index(x, y)
			if buf.Valid(i) {
				continue
			}
			depth := gb.Depth[i]
			if depth >= gb.FarDepth {
				continue
			}

			var bent, irr math.Vec3
			var total float32
			for dy := -2; dy <= 2; dy++ {
				ny := y + dy
				if ny < 0 || ny >= buf.Height {
					continue
				}
				for dx := -2; dx <= 2; dx++ {
					nx := x + dx
					if nx < 0 || nx >= buf.Width {
						continue
					}
					ni := buf.Index(nx, ny)
					if !buf.Valid(ni) {
						continue
					}
					nd := buf.Depth[ni]
					spatial := 1 / (1 + float32(dx*dx+dy*dy))
					w := spatial / (0.01 + cfg.GapFillDepthFalloff*math32.Abs(nd-depth)/math32.Max(depth, 0.001))
					bent = bent.Add(buf.BentNormal[ni].Mul(w))
					if buf.Irradiance != nil {
						irr = irr.Add(buf.Irradiance[ni].Mul(w))
					}
					total += w
				}
			}
			if total <= 0 {
				continue
			}
			inv := 1 / total
			row = append(row, fill{
				index:      i,
				bent:       bent.Mul(inv),
				irradiance: irr.Mul(inv),
				depth:      depth,
			})
		}
		fills[y] = row
	})

	// Filled pixels become valid only after the whole read pass, so fills
	// never feed each other within a frame.
	for _, row := range fills {
		for _, f := range row {
			buf.BentNormal[f.index] = f.bent
			buf.Depth[f.index] = f.depth
			if buf.Irradiance != nil {
				buf.Irradiance[f.index] = f.irradiance
			}
		}
	}
}
