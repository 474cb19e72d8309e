package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// Record is one shading sample of the irradiance cache: a world position
// with a radius of validity, the occlusion result expressed as a bent
// normal whose length is the unoccluded fraction, and the gathered
// irradiance.
type Record struct {
	WorldPos   math.Vec3
	Normal     math.Vec3
	BentNormal math.Vec3
	Irradiance math.Vec3
	Depth      float32
	Radius     float32
	Phase      int
	PixelX     int
	PixelY     int
}

// frameJitter offsets the record grid per frame so the temporal filter sees
// fresh sample positions. The pattern cycles through every cell of the
// spacing grid.
func frameJitter(frame, spacing int) (int, int) {
	if spacing <= 1 {
		return 0, 0
	}
	n := frame % (spacing * spacing)
	// Coprime stride walks all cells before repeating.
	n = (n * 5) % (spacing * spacing)
	return n % spacing, n / spacing
}

// coneDirections returns sampling directions on the hemisphere around the
// normal, the pattern rotated by the frame index so consecutive frames probe
// different directions.
func coneDirections(normal math.Vec3, count, frame int) []math.Vec3 {
	// Build a tangent basis.
	var tangent math.Vec3
	if math32.Abs(normal.X) < 0.7 {
		tangent = math.NewVec3(1, 0, 0)
	} else {
		tangent = math.NewVec3(0, 1, 0)
	}
	tangent = tangent.Sub(normal.Mul(tangent.Dot(normal))).Normalize()
	bitangent := normal.Cross(tangent)

	const goldenAngle = 2.39996323
	spin := float32(frame) * 1.61803398 * math32.Pi
	dirs := make([]math.Vec3, count)
	for i := 0; i < count; i++ {
		// Fibonacci spiral over the hemisphere, biased toward the normal.
		cosTheta := 1 - (float32(i)+0.5)/float32(count)*0.9
		sinTheta := math32.Sqrt(1 - cosTheta*cosTheta)
		phi := float32(i)*goldenAngle + spin
		sp, cp := math32.Sincos(phi)
		dirs[i] = tangent.Mul(cp * sinTheta).
			Add(bitangent.Mul(sp * sinTheta)).
			Add(normal.Mul(cosTheta))
	}
	return dirs
}

// GenerateRecords places cache records on a jittered screen-space grid and
// shades each by cone-tracing the culled object lists. Sky pixels, pixels
// past the view distance cutoff, and pixels over geometry with no field
// representation produce no record.
func GenerateRecords(ctx *FrameContext, sc *scene.Scene, gb *scene.GBuffer, grid *TileGrid, lists *CulledLists) []Record {
	cfg := ctx.Config
	spacing := cfg.RecordSpacing
	jx, jy := 0, 0
	if cfg.Features.Has(FeatureTemporalFilter) {
		jx, jy = frameJitter(ctx.FrameIndex, spacing)
	}

	cols := (gb.Width - jx + spacing - 1) / spacing
	rows := (gb.Height - jy + spacing - 1) / spacing
	records := make([]Record, cols*rows)
	valid := make([]bool, cols*rows)

	parallelFor(rows, func(ry int) {
		objs := make([]*scene.Object, 0, cfg.MaxObjectsPerTile)
		y := jy + ry*spacing
		for rx := 0; rx < cols; rx++ {
			x := jx + rx*spacing
			i := gb.Index(x, y)
			depth := gb.Depth[i]
			if depth >= gb.FarDepth || depth > cfg.MaxViewDistance {
				continue
			}
			// Proxy geometry gets the scalar-AO substitution instead of
			// its own records.
			if gb.Flags[i]&(scene.FlagHasDistanceField|scene.FlagHeightfield) == 0 {
				continue
			}
			normal := gb.Normal[i]
			worldPos := gb.WorldPosition(i)

			radius := ctx.PixelWorldRadius(depth) * float32(spacing)
			if cfg.OccluderRadiusOverride > 0 && radius > cfg.OccluderRadiusOverride {
				radius = cfg.OccluderRadiusOverride
			}
			radius = math.Clamp(radius, 0.01, cfg.OcclusionDistance)
			phase := ctx.PhaseForRecordRadius(radius)

			tile := grid.TileForPixel(x, y)
			objs = objs[:0]
			for _, oi := range lists.Objects(tile, phase) {
				objs = append(objs, sc.Objects[oi])
			}

			rec := Record{
				WorldPos: worldPos,
				Normal:   normal,
				Depth:    depth,
				Radius:   radius,
				Phase:    phase,
				PixelX:   x,
				PixelY:   y,
			}
			shadeRecord(ctx, sc, objs, &rec)
			records[ry*cols+rx] = rec
			valid[ry*cols+rx] = true
		}
	})

	out := records[:0]
	for i, ok := range valid {
		if ok {
			out = append(out, records[i])
		}
	}
	return out
}

// shadeRecord cone-traces the hemisphere above the record and accumulates
// the bent normal and, when enabled, one-bounce irradiance.
func shadeRecord(ctx *FrameContext, sc *scene.Scene, objs []*scene.Object, rec *Record) {
	cfg := ctx.Config
	maxT := ctx.PhaseMaxSampleRadius(rec.Phase)
	minT := rec.Radius * 0.5
	dirs := coneDirections(rec.Normal, cfg.NumConeDirections, ctx.FrameIndex)
	wantIrradiance := cfg.Features.Has(FeatureIrradiance)

	var bent math.Vec3
	var irradiance math.Vec3
	for _, d := range dirs {
		// Start slightly off the surface to avoid self-occlusion.
		origin := rec.WorldPos.Add(rec.Normal.Mul(minT * 0.5))
		r := MarchObjects(objs, origin, d, minT, maxT, cfg.MaxRayMarchSteps)

		vis := float32(1)
		if r.Hit || r.Inconclusive {
			vis = math.Saturate(r.HitTime / maxT)
			vis *= vis
		}
		bent = bent.Add(d.Mul(vis))

		if wantIrradiance {
			sky := sc.SkyColor.ToVec3().Mul(vis)
			irradiance = irradiance.Add(sky)
			if (r.Hit || r.Inconclusive) && vis < 1 {
				hitPos := origin.Add(d.Mul(r.HitTime))
				_, hitObj := sc.DistanceAt(hitPos)
				if hitObj != nil {
					hitNormal := sc.NormalAt(hitPos, 0.01*r.HitTime+0.01)
					nl := math.Saturate(hitNormal.Dot(sc.SunDirection))
					bounce := hitObj.Albedo.ToVec3().MulVec(sc.SunColor.ToVec3()).Mul(nl * (1 - vis))
					irradiance = irradiance.Add(bounce)
				}
			}
		}
	}

	n := float32(len(dirs))
	rec.BentNormal = bent.Mul(1 / n)
	if wantIrradiance {
		rec.Irradiance = irradiance.Mul(1 / n)
	}
}
