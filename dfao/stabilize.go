package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// Stabilize repairs pixels whose history was rejected by reprojection. Each
// rejected pixel blends toward a spatial refill from the current frame's
// combined buffer, searched over a 5x5 window with a much tighter depth
// falloff than gap fill, which hides the single-frame flash a rejection
// would otherwise cause. Afterwards every
// scene pixel's depth sign is cleared so the buffer can serve as next
// frame's history.
func Stabilize(ctx *FrameContext, gb *scene.GBuffer, current, buf *CacheBuffer) {
	cfg := &ctx.Config
	parallelFor(buf.Height, func(y int) {
		for x := 0; x < buf.Width; x++ {
			i := buf.Index(x, y)
			depth := gb.Depth[i]
			if depth >= gb.FarDepth {
				continue
			}
			if buf.Valid(i) {
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
					if !current.Valid(ni) {
						continue
					}
					nd := current.Depth[ni]
					spatial := 1 / (1 + float32(dx*dx+dy*dy))
					w := spatial / (0.01 + cfg.StabilizerDepthFalloff*math32.Abs(nd-depth)/math32.Max(depth, 0.001))
					bent = bent.Add(current.BentNormal[ni].Mul(w))
					if current.Irradiance != nil {
						irr = irr.Add(current.Irradiance[ni].Mul(w))
					}
					total += w
				}
			}
			if total > 0 {
				inv := 1 / total
				buf.BentNormal[i] = buf.BentNormal[i].Lerp(bent.Mul(inv), cfg.HistoryWeight)
				if buf.Irradiance != nil {
					buf.Irradiance[i] = buf.Irradiance[i].Lerp(irr.Mul(inv), cfg.HistoryWeight)
				}
			}
			// Accepted or not, the pixel becomes valid history.
			buf.Depth[i] = depth
		}
	})
}
