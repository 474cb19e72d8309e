package dfao

import (
	"math"
	"sync"
	"testing"

	"github.com/chewxy/math32"

	vmath "distfield-gi/math"
	"distfield-gi/scene"
)

func testScene() *scene.Scene {
	s := scene.NewScene()
	sphere := scene.NewSphereObject("sphere", 1, 33)
	sphere.Transform.Position = vmath.Vec3{Y: 1.6}
	s.AddObject(sphere)
	s.AddObject(scene.NewGroundObject("ground", 20, 0.5, 33))
	s.BeginFrame()
	return s
}

func testCamera(w, h int) *scene.Camera {
	cam := scene.NewCamera(math.Pi/3, float32(w)/float32(h), 0.1, 100)
	cam.SetPosition(vmath.Vec3{Y: 10})
	cam.LookAt(vmath.Vec3Zero, vmath.Vec3Front)
	cam.BeginFrame()
	return cam
}

func testFrame(t *testing.T, cfg Config, w, h int) (*FrameContext, *scene.Scene, *scene.GBuffer) {
	t.Helper()
	s := testScene()
	cam := testCamera(w, h)
	g := scene.RenderGBuffer(s, cam, w, h, 1)
	return NewFrameContext(cfg, cam, g, 0), s, g
}

func TestCulledListsCapacity(t *testing.T) {
	lists := NewCulledLists(2, 2, 4)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lists.Append(1, 1, i)
		}(i)
	}
	wg.Wait()

	if got := lists.Count(1, 1); got != 4 {
		t.Errorf("count: expected capacity clamp to 4, got %v", got)
	}
	if got := len(lists.Objects(1, 1)); got != 4 {
		t.Errorf("objects: expected 4 entries, got %v", got)
	}
	if got := lists.Count(0, 0); got != 0 {
		t.Errorf("untouched list: expected 0, got %v", got)
	}

	lists.Reset()
	if got := lists.Count(1, 1); got != 0 {
		t.Errorf("after reset: expected 0, got %v", got)
	}
}

func TestConeIntersectsSphere(t *testing.T) {
	halfAngle := float32(math.Pi / 6)
	cone := TileCone{
		Axis:     vmath.Vec3{Z: -1},
		CosAngle: math32.Cos(halfAngle),
		SinAngle: math32.Sin(halfAngle),
		MinDepth: 1,
		MaxDepth: 10,
	}

	if !coneIntersectsSphere(cone, vmath.Vec3{Z: -5}, 0.5) {
		t.Error("sphere on the axis inside the depth range should intersect")
	}
	if coneIntersectsSphere(cone, vmath.Vec3{X: 20, Z: -5}, 0.5) {
		t.Error("sphere far off axis should be rejected")
	}
	if coneIntersectsSphere(cone, vmath.Vec3{Z: 5}, 0.5) {
		t.Error("sphere behind the apex should be rejected")
	}
	if coneIntersectsSphere(cone, vmath.Vec3{Z: -20}, 0.5) {
		t.Error("sphere past the depth range should be rejected")
	}
	// Just outside the cone surface but within its radius of it.
	edge := vmath.Vec3{X: 5 * math32.Tan(halfAngle) * 1.1, Z: -5}
	if !coneIntersectsSphere(cone, edge, 2) {
		t.Error("sphere overlapping the cone surface should intersect")
	}
}

func TestCullObjectsFillsCenterTile(t *testing.T) {
	cfg := DefaultConfig()
	ctx, s, g := testFrame(t, cfg, 64, 64)

	grid := NewTileGrid(g.Width, g.Height, cfg.TileSize)
	grid.Build(g)
	lists := NewCulledLists(grid.NumTiles(), cfg.NumRadiusPhases, cfg.MaxObjectsPerTile)
	CullObjects(ctx, s, grid, lists)

	center := grid.TileForPixel(g.Width/2, g.Height/2)
	for phase := 0; phase < cfg.NumRadiusPhases; phase++ {
		if lists.Count(center, phase) == 0 {
			t.Errorf("phase %d: center tile should contain the sphere", phase)
		}
	}
}
