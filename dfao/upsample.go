package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
)

// Upsample expands the low-resolution cache to full resolution with a
// depth-aware bilinear filter. Each output pixel blends the four nearest
// low-res texels, their bilinear weights reweighted by how closely the
// texel's depth matches the full-res depth, so occlusion does not bleed
// across silhouettes. fullDepth holds the full-resolution view depth with
// farDepth marking sky.
func Upsample(low *CacheBuffer, fullDepth []float32, farDepth float32, out *OutputBuffer) {
	scaleX := float32(low.Width) / float32(out.Width)
	scaleY := float32(low.Height) / float32(out.Height)

	parallelFor(out.Height, func(y int) {
		for x := 0; x < out.Width; x++ {
			oi := y*out.Width + x
			depth := fullDepth[oi]
			if depth >= farDepth {
				out.BentNormal[oi] = math.Vec3{}
				out.Occlusion[oi] = 1
				if out.Irradiance != nil {
					out.Irradiance[oi] = math.Vec3{}
				}
				continue
			}

			// Low-res sample position in texel space.
			fx := (float32(x)+0.5)*scaleX - 0.5
			fy := (float32(y)+0.5)*scaleY - 0.5
			x0 := int(math32.Floor(fx))
			y0 := int(math32.Floor(fy))
			tx := fx - float32(x0)
			ty := fy - float32(y0)

			var bent, irr math.Vec3
			var total float32
			for sy := 0; sy < 2; sy++ {
				ly := math.ClampInt(y0+sy, 0, low.Height-1)
				by := ty
				if sy == 0 {
					by = 1 - ty
				}
				for sx := 0; sx < 2; sx++ {
					lx := math.ClampInt(x0+sx, 0, low.Width-1)
					bx := tx
					if sx == 0 {
						bx = 1 - tx
					}
					li := low.Index(lx, ly)
					if !low.Valid(li) {
						continue
					}
					w := bx * by / (0.01 + math32.Abs(low.AbsDepth(li)-depth)/math32.Max(depth, 0.001))
					bent = bent.Add(low.BentNormal[li].Mul(w))
					if low.Irradiance != nil {
						irr = irr.Add(low.Irradiance[li].Mul(w))
					}
					total += w
				}
			}
			if total <= 0 {
				// No usable sample, assume unoccluded.
				out.BentNormal[oi] = math.Vec3{}
				out.Occlusion[oi] = 1
				if out.Irradiance != nil {
					out.Irradiance[oi] = math.Vec3{}
				}
				continue
			}
			inv := 1 / total
			bn := bent.Mul(inv)
			out.BentNormal[oi] = bn
			out.Occlusion[oi] = math.Saturate(bn.Length())
			if out.Irradiance != nil {
				out.Irradiance[oi] = irr.Mul(inv)
			}
		}
	})
}
