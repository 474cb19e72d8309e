package dfao

import (
	"testing"

	"github.com/chewxy/math32"

	vmath "distfield-gi/math"
	"distfield-gi/scene"
)

// cacheFromGBuffer builds a fully valid cache whose bent normals are the
// G-buffer normals scaled to a known length.
func cacheFromGBuffer(g *scene.GBuffer, scale float32) *CacheBuffer {
	c := NewCacheBuffer(g.Width, g.Height, false)
	for i := range c.Depth {
		if g.Depth[i] >= g.FarDepth {
			c.Depth[i] = -g.FarDepth
			continue
		}
		c.Depth[i] = g.Depth[i]
		c.BentNormal[i] = g.Normal[i].Mul(scale)
	}
	return c
}

func TestReprojectStaticCameraBlends(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	current := cacheFromGBuffer(g, 1)
	history := cacheFromGBuffer(g, 0.5)
	out := NewCacheBuffer(g.Width, g.Height, false)
	Reproject(ctx, g, current, history, out)

	i := g.Index(8, 8)
	if !out.Valid(i) {
		t.Fatal("static camera must accept history")
	}
	want := vmath.Lerp(1, 0.5, cfg.HistoryWeight)
	got := out.BentNormal[i].Length()
	if math32.Abs(got-want) > 0.01 {
		t.Errorf("blended length: expected %v, got %v", want, got)
	}
}

func TestReprojectWorldDeltaThreshold(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	current := cacheFromGBuffer(g, 1)
	out := NewCacheBuffer(g.Width, g.Height, false)

	i := g.Index(8, 8)

	// History whose stored depth puts the previous surface just inside the
	// reject threshold.
	near := cacheFromGBuffer(g, 0.5)
	near.Depth[i] = g.Depth[i] + cfg.PositionRejectThreshold - 1
	Reproject(ctx, g, current, near, out)
	if !out.Valid(i) {
		t.Error("world delta below the threshold should be accepted")
	}

	far := cacheFromGBuffer(g, 0.5)
	far.Depth[i] = g.Depth[i] + cfg.PositionRejectThreshold + 1
	Reproject(ctx, g, current, far, out)
	if out.Valid(i) {
		t.Error("world delta above the threshold should be rejected")
	}
	if out.BentNormal[i] != current.BentNormal[i] {
		t.Error("rejected pixel should fall back to the current frame")
	}
}

func TestReprojectRejectsOffscreenHistory(t *testing.T) {
	cfg := DefaultConfig()
	s := testScene()
	cam := testCamera(64, 64)

	// Second frame after a sideways jump: pixels at the leading edge have
	// no on-screen history.
	cam.BeginFrame()
	cam.Translate(vmath.Vec3{X: 3})
	g := scene.RenderGBuffer(s, cam, 64, 64, 1)
	ctx := NewFrameContext(cfg, cam, g, 1)

	current := cacheFromGBuffer(g, 1)
	history := cacheFromGBuffer(g, 0.5)
	out := NewCacheBuffer(g.Width, g.Height, false)
	Reproject(ctx, g, current, history, out)

	edge := g.Index(g.Width-1, g.Height/2)
	if out.Valid(edge) {
		t.Error("leading-edge pixel should reject offscreen history")
	}

	center := g.Index(g.Width/2, g.Height/2)
	if g.Depth[center] < g.FarDepth && !out.Valid(center) {
		t.Error("interior pixel should still find history")
	}
}

func TestCameraReprojectUVMatchesPreviousProjection(t *testing.T) {
	cfg := DefaultConfig()
	s := testScene()
	cam := testCamera(64, 64)

	cam.BeginFrame()
	cam.Translate(vmath.Vec3{X: 1, Z: 0.5})
	g := scene.RenderGBuffer(s, cam, 64, 64, 1)
	ctx := NewFrameContext(cfg, cam, g, 1)

	for _, world := range []vmath.Vec3{
		{Y: 0.5},
		{X: 2, Y: 1.6, Z: -1},
		{X: -3, Y: 0.5, Z: 2},
	} {
		got, ok := cameraReprojectUV(&ctx.View, world)
		want, wantOK := scene.ProjectUV(ctx.View.PrevViewProjection, world)
		if ok != wantOK {
			t.Fatalf("point %v: visibility %v, expected %v", world, ok, wantOK)
		}
		if !ok {
			continue
		}
		if math32.Abs(got.X-want.X) > 1e-3 || math32.Abs(got.Y-want.Y) > 1e-3 {
			t.Errorf("point %v: motion-matrix UV %v, direct projection %v", world, got, want)
		}
	}
}

func TestReprojectUVMarginBoundary(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	current := cacheFromGBuffer(g, 1)
	history := cacheFromGBuffer(g, 0.5)
	out := NewCacheBuffer(g.Width, g.Height, false)

	x, y := 8, 8
	i := g.Index(x, y)
	htx := 0.5 / float32(g.Width)
	uv := g.UVAt(x, y)

	// Velocity steering the previous UV exactly onto the filtering margin.
	g.Velocity[i] = uv.Sub(vmath.Vec2{X: htx, Y: 0.5})
	Reproject(ctx, g, current, history, out)
	if !out.Valid(i) {
		t.Error("previous UV on the half-texel margin should be accepted")
	}

	// Half a texel further out, inside the border texel's filter region.
	g.Velocity[i] = uv.Sub(vmath.Vec2{X: htx * 0.5, Y: 0.5})
	Reproject(ctx, g, current, history, out)
	if out.Valid(i) {
		t.Error("previous UV outside the margin should be rejected")
	}
}

func TestReprojectTeleportRejectsOneFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PositionRejectThreshold = 0.5

	s := scene.NewScene()
	sphere := scene.NewSphereObject("sphere", 1, 33)
	sphere.Transform.Position = vmath.Vec3{Y: 1.6}
	s.AddObject(sphere)
	s.AddObject(scene.NewGroundObject("ground", 20, 0.5, 33))
	cam := testCamera(64, 64)

	// First frame establishes history with the sphere at the origin.
	s.BeginFrame()
	g0 := scene.RenderGBuffer(s, cam, 64, 64, 1)
	history := cacheFromGBuffer(g0, 0.5)
	s.EndFrame()

	// The sphere teleports sideways.
	sphere.Transform.Position = vmath.Vec3{X: 3, Y: 1.6}
	s.BeginFrame()
	cam.BeginFrame()
	g1 := scene.RenderGBuffer(s, cam, 64, 64, 1)
	ctx := NewFrameContext(cfg, cam, g1, 1)
	current := cacheFromGBuffer(g1, 1)
	out := NewCacheBuffer(g1.Width, g1.Height, false)
	Reproject(ctx, g1, current, history, out)

	oldLoc := groundPixel(t, cam, g1, vmath.Vec3{Y: 2.6})
	newLoc := groundPixel(t, cam, g1, vmath.Vec3{X: 3, Y: 2.6})
	if out.Valid(oldLoc) {
		t.Error("vacated pixel should reject its sphere history")
	}
	if out.Valid(newLoc) {
		t.Error("pixel at the teleport target should reject history")
	}

	// The stabilizer turns the rejections into fresh history.
	Stabilize(ctx, g1, current, out)
	s.EndFrame()

	// Next frame nothing moves; both locations reaccept.
	s.BeginFrame()
	cam.BeginFrame()
	g2 := scene.RenderGBuffer(s, cam, 64, 64, 1)
	ctx2 := NewFrameContext(cfg, cam, g2, 2)
	current2 := cacheFromGBuffer(g2, 1)
	out2 := NewCacheBuffer(g2.Width, g2.Height, false)
	Reproject(ctx2, g2, current2, out, out2)

	if !out2.Valid(oldLoc) {
		t.Error("vacated pixel should reaccept after one frame")
	}
	if !out2.Valid(newLoc) {
		t.Error("teleport target should reaccept after one frame")
	}
}

func TestStabilizeRepairsRejections(t *testing.T) {
	cfg := DefaultConfig()
	ctx, _, g := testFrame(t, cfg, 64, 64)

	combined := cacheFromGBuffer(g, 0.7)
	buf := cacheFromGBuffer(g, 0.7)

	// Mark one pixel as a rejected reprojection; rejection leaves the
	// current-frame value in place with a negated depth.
	i := g.Index(8, 8)
	buf.Depth[i] = -buf.Depth[i]

	Stabilize(ctx, g, combined, buf)

	if !buf.Valid(i) {
		t.Fatal("stabilizer must clear the rejection sign")
	}
	if math32.Abs(buf.BentNormal[i].Length()-0.7) > 0.05 {
		t.Errorf("refilled bent length: expected ~0.7, got %v", buf.BentNormal[i].Length())
	}

	// Every scene pixel leaves with a positive depth, ready to be history.
	for j := range buf.Depth {
		if g.Depth[j] < g.FarDepth && !buf.Valid(j) {
			t.Fatalf("pixel %d still invalid after stabilize", j)
		}
	}
}
