package dfao

import (
	"testing"

	vmath "distfield-gi/math"
	"distfield-gi/scene"
)

func runFrames(t *testing.T, p *Pipeline, s *scene.Scene, cam *scene.Camera, w, h, frames int) (*CacheBuffer, *scene.GBuffer) {
	t.Helper()
	var out *CacheBuffer
	var g *scene.GBuffer
	for f := 0; f < frames; f++ {
		s.BeginFrame()
		cam.BeginFrame()
		g = scene.RenderGBuffer(s, cam, w, h, 1)
		out = p.RenderFrame(s, cam, g)
		s.EndFrame()
	}
	return out, g
}

func groundPixel(t *testing.T, cam *scene.Camera, g *scene.GBuffer, world vmath.Vec3) int {
	t.Helper()
	uv, ok := scene.ProjectUV(cam.ViewProjection(), world)
	if !ok {
		t.Fatalf("world point %v behind the camera", world)
	}
	x := int(uv.X * float32(g.Width))
	y := int(uv.Y * float32(g.Height))
	i := g.Index(x, y)
	if g.Depth[i] >= g.FarDepth {
		t.Fatalf("expected a scene pixel at %v", world)
	}
	return i
}

func TestPipelineDarkensUnderSphere(t *testing.T) {
	s := testScene()
	cam := testCamera(64, 64)
	p := NewPipeline(DefaultConfig())

	out, g := runFrames(t, p, s, cam, 64, 64, 3)

	if p.Timings.NumRecords == 0 {
		t.Fatal("pipeline generated no records")
	}

	near := groundPixel(t, cam, g, vmath.Vec3{X: 1.5, Y: 0.5})
	far := groundPixel(t, cam, g, vmath.Vec3{X: 4.5, Y: 0.5})
	if !out.Valid(near) || !out.Valid(far) {
		t.Fatal("ground pixels should be valid after a full frame")
	}

	nearOcc := out.Occlusion(near)
	farOcc := out.Occlusion(far)
	if nearOcc >= farOcc-0.05 {
		t.Errorf("ground beside the sphere should be darker: near=%v far=%v", nearOcc, farOcc)
	}
}

func TestPipelineResultRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features |= FeatureIrradiance
	s := testScene()
	cam := testCamera(64, 64)
	p := NewPipeline(cfg)

	out, g := runFrames(t, p, s, cam, 64, 64, 2)

	if out.Irradiance == nil {
		t.Fatal("irradiance buffer missing with the feature enabled")
	}
	for i := range out.Depth {
		if g.Depth[i] >= g.FarDepth {
			if out.Valid(i) {
				t.Fatalf("sky pixel %d marked valid", i)
			}
			continue
		}
		if !out.Valid(i) {
			t.Fatalf("scene pixel %d invalid after stabilize", i)
		}
		occ := out.Occlusion(i)
		if occ < 0 || occ > 1 {
			t.Fatalf("pixel %d occlusion out of range: %v", i, occ)
		}
		if !out.BentNormal[i].IsFinite() || !out.Irradiance[i].IsFinite() {
			t.Fatalf("pixel %d has non-finite output", i)
		}
	}

	open := groundPixel(t, cam, g, vmath.Vec3{X: 4.5, Y: 0.5})
	if out.Irradiance[open].Y <= 0 {
		t.Errorf("open ground should gather sky light, got %v", out.Irradiance[open])
	}
}

func TestPipelineTemporalSmoothing(t *testing.T) {
	s := testScene()
	cam := testCamera(64, 64)
	p := NewPipeline(DefaultConfig())

	// Let history build up, then compare consecutive static frames. The
	// blend should keep them close even though record jitter moves.
	var prev float32 = -1
	var i int
	for f := 0; f < 6; f++ {
		out, g := runFrames(t, p, s, cam, 64, 64, 1)
		if f == 0 {
			i = groundPixel(t, cam, g, vmath.Vec3{X: 1.5, Y: 0.5})
		}
		occ := out.Occlusion(i)
		if f >= 4 {
			if diff := occ - prev; diff > 0.15 || diff < -0.15 {
				t.Errorf("frame %d: static occlusion jumped from %v to %v", f, prev, occ)
			}
		}
		prev = occ
	}
}

func TestPipelineResetHistory(t *testing.T) {
	s := testScene()
	cam := testCamera(64, 64)
	p := NewPipeline(DefaultConfig())

	runFrames(t, p, s, cam, 64, 64, 2)
	p.ResetHistory()
	out, g := runFrames(t, p, s, cam, 64, 64, 1)

	// The frame after a reset still produces a fully valid buffer.
	center := groundPixel(t, cam, g, vmath.Vec3{X: 4.5, Y: 0.5})
	if !out.Valid(center) {
		t.Error("frame after history reset should be valid")
	}
}

func TestPipelineVisualizationFeature(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features |= FeatureVisualization
	s := testScene()
	cam := testCamera(32, 32)
	p := NewPipeline(cfg)

	runFrames(t, p, s, cam, 32, 32, 1)
	vis := p.Visualization()
	if vis == nil {
		t.Fatal("visualization buffer missing with the feature enabled")
	}
	center := vis.Width/2*vis.Width + vis.Width/2
	if vis.Hits[center] != VisHit {
		t.Errorf("center pixel should hit the sphere, got %d", vis.Hits[center])
	}
}

func TestPipelineUpsample(t *testing.T) {
	s := testScene()
	cam := testCamera(64, 64)
	p := NewPipeline(DefaultConfig())

	low, _ := runFrames(t, p, s, cam, 64, 64, 2)

	// Full-resolution depth from an undownsampled G-buffer.
	full := scene.RenderGBuffer(s, cam, 128, 128, 1)
	out := NewOutputBuffer(full.Width, full.Height, false)
	p.Upsample(low, full.Depth, full.FarDepth, out)

	i := full.Index(full.Width/2, full.Height/2)
	if out.Occlusion[i] < 0 || out.Occlusion[i] > 1 {
		t.Errorf("upsampled occlusion out of range: %v", out.Occlusion[i])
	}
}
