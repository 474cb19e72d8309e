package dfao

import (
	"testing"

	"github.com/chewxy/math32"

	vmath "distfield-gi/math"
	"distfield-gi/scene"
)

func TestCombineValidity(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	accum := NewAccumulationBuffer(g.Width, g.Height, false)
	ground := g.Index(8, 8)
	accum.Splat(ground, vmath.Vec3{Y: 0.6}, vmath.Vec3Zero, 2)

	out := NewCacheBuffer(g.Width, g.Height, false)
	Combine(ctx, g, accum, out)

	if !out.Valid(ground) {
		t.Error("pixel with splat weight should be valid")
	}
	if math32.Abs(out.BentNormal[ground].Y-0.6) > 1e-5 {
		t.Errorf("bent normal: expected weight-normalized 0.6, got %v", out.BentNormal[ground].Y)
	}
	if math32.Abs(out.Depth[ground]-g.Depth[ground]) > 1e-5 {
		t.Errorf("depth: expected %v, got %v", g.Depth[ground], out.Depth[ground])
	}

	empty := g.Index(9, 8)
	if out.Valid(empty) {
		t.Error("scene pixel without weight should be invalid")
	}
	if math32.Abs(out.Depth[empty]+g.Depth[empty]) > 1e-5 {
		t.Errorf("invalid depth should carry the negated scene depth, got %v", out.Depth[empty])
	}

}

func TestCombineSkyPixels(t *testing.T) {
	cfg := DefaultConfig()
	s := scene.NewScene()
	s.AddObject(scene.NewSphereObject("sphere", 1, 33))
	s.BeginFrame()
	cam := testCamera(32, 32)
	g := scene.RenderGBuffer(s, cam, 32, 32, 1)
	ctx := NewFrameContext(cfg, cam, g, 0)

	accum := NewAccumulationBuffer(g.Width, g.Height, false)
	out := NewCacheBuffer(g.Width, g.Height, false)
	Combine(ctx, g, accum, out)

	sky := g.Index(0, 0)
	if g.Depth[sky] < g.FarDepth {
		t.Fatalf("corner pixel expected to be sky, depth %v", g.Depth[sky])
	}
	if out.Valid(sky) {
		t.Error("sky pixel should be invalid")
	}

	GapFill(ctx, g, out)
	if out.Valid(sky) {
		t.Error("gap fill should never touch sky pixels")
	}
}

func TestCombineSubstitutesProxyGeometry(t *testing.T) {
	cfg := DefaultConfig()
	s := scene.NewScene()
	sphere := scene.NewSphereObject("sphere", 1, 33)
	sphere.Transform.Position = vmath.Vec3{Y: 1.6}
	sphere.HasDistanceField = false
	s.AddObject(sphere)
	s.BeginFrame()
	cam := testCamera(32, 32)
	g := scene.RenderGBuffer(s, cam, 32, 32, 1)
	ctx := NewFrameContext(cfg, cam, g, 0)

	center := g.Index(16, 16)
	if g.Depth[center] >= g.FarDepth {
		t.Fatal("center pixel expected on the sphere")
	}
	if g.Flags[center]&(scene.FlagHasDistanceField|scene.FlagHeightfield) != 0 {
		t.Fatal("proxy object should not set representation flags")
	}

	// A splat from a represented neighbor still reaches the pixel; its
	// scalar occlusion survives along the pixel's own normal.
	covered := g.Index(17, 16)
	accum := NewAccumulationBuffer(g.Width, g.Height, false)
	accum.Splat(covered, g.Normal[covered].Mul(0.5), vmath.Vec3Zero, 1)

	out := NewCacheBuffer(g.Width, g.Height, false)
	Combine(ctx, g, accum, out)

	if !out.Valid(center) {
		t.Fatal("uncovered proxy pixel should be valid, not a gap-fill candidate")
	}
	if got := out.BentNormal[center].Length(); math32.Abs(got-1) > 1e-4 {
		t.Errorf("uncovered proxy pixel: expected unoccluded length 1, got %v", got)
	}

	if !out.Valid(covered) {
		t.Fatal("covered proxy pixel should be valid")
	}
	if got := out.BentNormal[covered].Length(); math32.Abs(got-0.5) > 1e-3 {
		t.Errorf("covered proxy pixel: expected scalar AO 0.5, got %v", got)
	}
	if dot := out.BentNormal[covered].Normalize().Dot(g.Normal[covered]); dot < 0.999 {
		t.Errorf("substituted bent normal should follow the surface normal, dot=%v", dot)
	}
}

func TestCombineDiscardsNonFiniteAccumulation(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	nan := math32.NaN()
	accum := NewAccumulationBuffer(g.Width, g.Height, false)
	i := g.Index(8, 8)
	accum.Splat(i, vmath.Vec3{X: nan, Y: nan, Z: nan}, vmath.Vec3Zero, 1)

	out := NewCacheBuffer(g.Width, g.Height, false)
	Combine(ctx, g, accum, out)

	if !out.BentNormal[i].IsFinite() {
		t.Errorf("non-finite accumulation must not propagate, got %v", out.BentNormal[i])
	}
	if out.BentNormal[i] != (vmath.Vec3{}) {
		t.Errorf("non-finite components substitute zero, got %v", out.BentNormal[i])
	}
}

func TestGapFillFromNeighbors(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	accum := NewAccumulationBuffer(g.Width, g.Height, false)
	// Splat a neighborhood around (8,8) but leave the center empty.
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			accum.Splat(g.Index(8+dx, 8+dy), vmath.Vec3{Y: 0.4}, vmath.Vec3Zero, 1)
		}
	}

	out := NewCacheBuffer(g.Width, g.Height, false)
	Combine(ctx, g, accum, out)

	hole := g.Index(8, 8)
	if out.Valid(hole) {
		t.Fatal("hole should start invalid")
	}
	GapFill(ctx, g, out)
	if !out.Valid(hole) {
		t.Fatal("hole should be filled from its valid neighbors")
	}
	if math32.Abs(out.BentNormal[hole].Y-0.4) > 0.01 {
		t.Errorf("filled bent normal: expected ~0.4, got %v", out.BentNormal[hole].Y)
	}
}

func TestGapFillLeavesValidPixelsAlone(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	accum := NewAccumulationBuffer(g.Width, g.Height, false)
	for y := 6; y <= 10; y++ {
		for x := 6; x <= 10; x++ {
			accum.Splat(g.Index(x, y), vmath.Vec3{Y: 0.3 + 0.01*float32(x)}, vmath.Vec3Zero, 1)
		}
	}

	out := NewCacheBuffer(g.Width, g.Height, false)
	Combine(ctx, g, accum, out)

	before := make([]vmath.Vec3, len(out.BentNormal))
	copy(before, out.BentNormal)

	GapFill(ctx, g, out)
	for y := 6; y <= 10; y++ {
		for x := 6; x <= 10; x++ {
			i := g.Index(x, y)
			if out.BentNormal[i] != before[i] {
				t.Fatalf("valid pixel (%d,%d) changed from %v to %v", x, y, before[i], out.BentNormal[i])
			}
		}
	}
}
