package dfao

import (
	"testing"

	"distfield-gi/scene"
)

func TestRenderVisualization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features |= FeatureVisualization

	s := scene.NewScene()
	s.AddObject(scene.NewSphereObject("sphere", 1, 33))
	s.BeginFrame()
	cam := testCamera(32, 32)
	g := scene.RenderGBuffer(s, cam, 32, 32, 1)
	ctx := NewFrameContext(cfg, cam, g, 0)

	vis := NewVisualizationBuffer(g.Width, g.Height)
	RenderVisualization(ctx, s, g, vis)

	center := g.Index(g.Width/2, g.Height/2)
	if vis.Hits[center] != VisHit {
		t.Errorf("center pixel should hit the sphere, got %d", vis.Hits[center])
	}
	if vis.Steps[center] == 0 {
		t.Error("hit pixel should record march steps")
	}

	corner := g.Index(0, 0)
	if vis.Hits[corner] != VisMiss {
		t.Errorf("sky corner should miss, got %d", vis.Hits[corner])
	}
}

func TestVisualizationObjectCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features |= FeatureVisualization
	cfg.MaxVisualizationObjects = 2

	s := scene.NewScene()
	// A stack of spheres along the view ray; the cap keeps the nearest.
	for i := 0; i < 6; i++ {
		o := scene.NewSphereObject("s", 0.4, 17)
		o.Transform.Position.Y = float32(-2 * i)
		s.AddObject(o)
	}
	s.BeginFrame()
	cam := testCamera(16, 16)
	g := scene.RenderGBuffer(s, cam, 16, 16, 1)
	ctx := NewFrameContext(cfg, cam, g, 0)

	vis := NewVisualizationBuffer(g.Width, g.Height)
	RenderVisualization(ctx, s, g, vis)

	center := g.Index(g.Width/2, g.Height/2)
	if vis.Hits[center] != VisHit {
		t.Errorf("center pixel should still hit the nearest sphere, got %d", vis.Hits[center])
	}
}
