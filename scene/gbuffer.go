package scene

import (
	"runtime"
	"sync"

	"distfield-gi/math"
)

// PixelFlags describe what kind of geometry a G-buffer pixel landed on.
type PixelFlags uint8

const (
	// FlagHasDistanceField marks pixels covered by an object with a usable
	// distance-field representation.
	FlagHasDistanceField PixelFlags = 1 << 0
	// FlagHeightfield marks heightfield-style geometry (ground slabs).
	FlagHeightfield PixelFlags = 1 << 1
)

// velocitySentinel is far outside any reachable UV delta; it encodes
// "no per-object velocity, reproject with camera motion only".
const velocitySentinel = -64.0

// VelocityNone is the per-pixel velocity sentinel value.
var VelocityNone = math.Vec2{X: velocitySentinel, Y: velocitySentinel}

// IsVelocityNone reports whether v is the sentinel.
func IsVelocityNone(v math.Vec2) bool {
	return v.X == velocitySentinel
}

// GBuffer is the downsampled geometric input the occlusion pipeline reads:
// per-pixel ray depth, world normal, coverage flags, and screen velocity.
type GBuffer struct {
	Width, Height int
	Downsample    int // full-res pixels per G-buffer pixel, per axis

	CameraPos math.Vec3
	FarDepth  float32 // depth stored for sky pixels

	Depth    []float32   // distance along the view ray, FarDepth = miss
	RayDir   []math.Vec3 // unit view ray per pixel
	Normal   []math.Vec3
	Flags    []PixelFlags
	Velocity []math.Vec2 // UV delta current->previous, or VelocityNone
}

func NewGBuffer(width, height, downsample int) *GBuffer {
	n := width * height
	return &GBuffer{
		Width:      width,
		Height:     height,
		Downsample: downsample,
		Depth:      make([]float32, n),
		RayDir:     make([]math.Vec3, n),
		Normal:     make([]math.Vec3, n),
		Flags:      make([]PixelFlags, n),
		Velocity:   make([]math.Vec2, n),
	}
}

func (g *GBuffer) Index(x, y int) int {
	return y*g.Width + x
}

// UVAt returns the pixel-center UV, v increasing downward.
func (g *GBuffer) UVAt(x, y int) math.Vec2 {
	return math.Vec2{
		X: (float32(x) + 0.5) / float32(g.Width),
		Y: (float32(y) + 0.5) / float32(g.Height),
	}
}

// WorldPosition reconstructs the world position of a pixel from its stored
// ray and depth.
func (g *GBuffer) WorldPosition(i int) math.Vec3 {
	return g.CameraPos.Add(g.RayDir[i].Mul(g.Depth[i]))
}

// ProjectUV projects a world position with a view-projection matrix and
// returns the screen UV (v down). ok is false behind the camera.
func ProjectUV(vp math.Mat4, world math.Vec3) (math.Vec2, bool) {
	clip := vp.MulVec(world.ToVec4(1))
	if clip.W <= 0 {
		return math.Vec2{}, false
	}
	inv := 1 / clip.W
	return math.Vec2{
		X: clip.X*inv*0.5 + 0.5,
		Y: 0.5 - clip.Y*inv*0.5,
	}, true
}

// RenderGBuffer sphere-traces the scene at full resolution divided by the
// downsample factor.
func RenderGBuffer(s *Scene, cam *Camera, fullWidth, fullHeight, downsample int) *GBuffer {
	if downsample < 1 {
		downsample = 1
	}
	g := NewGBuffer(fullWidth/downsample, fullHeight/downsample, downsample)
	g.CameraPos = cam.Position
	g.FarDepth = cam.FarPlane

	invVP := cam.ViewProjection().Inverse()
	vp := cam.ViewProjection()
	prevVP := cam.PreviousViewProjection()

	workers := runtime.GOMAXPROCS(0)
	rows := make(chan int, g.Height)
	for y := 0; y < g.Height; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for y := range rows {
				g.renderRow(s, cam, invVP, vp, prevVP, y)
			}
		}()
	}
	wg.Wait()
	return g
}

func (g *GBuffer) renderRow(s *Scene, cam *Camera, invVP, vp, prevVP math.Mat4, y int) {
	for x := 0; x < g.Width; x++ {
		i := g.Index(x, y)
		uv := g.UVAt(x, y)
		ndc := math.Vec3{X: uv.X*2 - 1, Y: 1 - uv.Y*2, Z: -1}
		near := invVP.MulPoint(ndc)
		dir := near.Sub(cam.Position).Normalize()
		g.RayDir[i] = dir

		t, obj := traceScene(s, cam.Position, dir, cam.FarPlane)
		if obj == nil {
			g.Depth[i] = g.FarDepth
			g.Normal[i] = dir.Negate()
			g.Flags[i] = 0
			g.Velocity[i] = VelocityNone
			continue
		}

		hit := cam.Position.Add(dir.Mul(t))
		g.Depth[i] = t
		g.Normal[i] = s.NormalAt(hit, normalEpsilon(obj))

		var flags PixelFlags
		if obj.HasDistanceField {
			flags |= FlagHasDistanceField
		}
		if obj.Heightfield {
			flags |= FlagHeightfield
		}
		g.Flags[i] = flags

		if obj.Moved() {
			prevWorld := obj.PrevWorldPoint(hit)
			prevUV, okPrev := ProjectUV(prevVP, prevWorld)
			currUV, okCurr := ProjectUV(vp, hit)
			if okPrev && okCurr {
				g.Velocity[i] = currUV.Sub(prevUV)
			} else {
				g.Velocity[i] = VelocityNone
			}
		} else {
			g.Velocity[i] = VelocityNone
		}
	}
}

// traceScene sphere-traces the global field from origin along dir.
func traceScene(s *Scene, origin, dir math.Vec3, maxT float32) (float32, *Object) {
	const maxSteps = 128
	t := float32(0)
	for step := 0; step < maxSteps && t < maxT; step++ {
		p := origin.Add(dir.Mul(t))
		d, obj := s.DistanceAt(p)
		if d < surfaceEpsilon(t) {
			return t, obj
		}
		// Minimum step keeps grazing rays from stalling.
		advance := d
		if minStep := t*0.002 + 0.001; advance < minStep {
			advance = minStep
		}
		t += advance
	}
	return maxT, nil
}

func surfaceEpsilon(t float32) float32 {
	return 0.001*t + 0.0005
}

func normalEpsilon(o *Object) float32 {
	// About one voxel of the hit object's volume.
	n := o.Volume.Nx
	if o.Volume.Ny > n {
		n = o.Volume.Ny
	}
	if o.Volume.Nz > n {
		n = o.Volume.Nz
	}
	return 2 * o.LocalExtent.MaxComponent() / float32(n)
}
