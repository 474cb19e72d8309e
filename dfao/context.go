package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// View is the immutable camera state for one frame: current and previous
// matrices plus the derived quantities the passes keep reusing.
type View struct {
	ViewProjection     math.Mat4
	InvViewProjection  math.Mat4
	PrevViewProjection math.Mat4
	PrevInvViewProj    math.Mat4

	CameraPos     math.Vec3
	PrevCameraPos math.Vec3

	// CameraMotion maps current-frame NDC to previous-frame clip space for
	// pixels with no per-object velocity.
	CameraMotion math.Mat4

	TanHalfFOV float32
	Aspect     float32
	FarPlane   float32
}

// FrameContext bundles everything a pass invocation may read. It is built
// once per frame and passed by pointer; passes never mutate it.
type FrameContext struct {
	Config Config
	View   View

	// Low-res occlusion buffer dimensions (the G-buffer's).
	Width, Height int

	FrameIndex int
}

// NewFrameContext snapshots camera state for the frame. The camera's
// BeginFrame must already have run so its previous-frame matrices are valid.
func NewFrameContext(cfg Config, cam *scene.Camera, g *scene.GBuffer, frame int) *FrameContext {
	vp := cam.ViewProjection()
	prevVP := cam.PreviousViewProjection()
	invVP := vp.Inverse()

	return &FrameContext{
		Config: cfg,
		View: View{
			ViewProjection:     vp,
			InvViewProjection:  invVP,
			PrevViewProjection: prevVP,
			PrevInvViewProj:    prevVP.Inverse(),
			CameraPos:          cam.Position,
			PrevCameraPos:      cam.PreviousPosition(),
			CameraMotion:       prevVP.Mul(invVP),
			TanHalfFOV:         math32.Tan(cam.FOV / 2),
			Aspect:             cam.AspectRatio,
			FarPlane:           cam.FarPlane,
		},
		Width:      g.Width,
		Height:     g.Height,
		FrameIndex: frame,
	}
}

// PixelWorldRadius returns the world-space radius covered by one low-res
// pixel at the given view depth.
func (ctx *FrameContext) PixelWorldRadius(depth float32) float32 {
	return depth * 2 * ctx.View.TanHalfFOV / float32(ctx.Height)
}

// PhaseMaxSampleRadius is how far rays travel for records in a phase tier.
// Phase 0 is the shortest reach; the last phase reaches the full occlusion
// distance.
func (ctx *FrameContext) PhaseMaxSampleRadius(phase int) float32 {
	n := ctx.Config.NumRadiusPhases
	return ctx.Config.OcclusionDistance * float32(phase+1) / float32(n)
}

// PhaseForRecordRadius maps a record radius to its sampling tier.
func (ctx *FrameContext) PhaseForRecordRadius(radius float32) int {
	n := ctx.Config.NumRadiusPhases
	maxRadius := ctx.Config.OcclusionDistance
	phase := int(float32(n) * radius / maxRadius)
	if phase < 0 {
		phase = 0
	}
	if phase >= n {
		phase = n - 1
	}
	return phase
}
