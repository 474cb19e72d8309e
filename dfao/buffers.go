package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
)

// AccumulationBuffer receives additive splat contributions: xyz is the
// weighted bent-normal sum, w the accumulated weight. Irradiance rides in a
// parallel slice when the feature is on.
type AccumulationBuffer struct {
	Width, Height int
	Data          []math.Vec4
	Irradiance    []math.Vec3

	locks shardLocks
}

func NewAccumulationBuffer(width, height int, irradiance bool) *AccumulationBuffer {
	b := &AccumulationBuffer{
		Width:  width,
		Height: height,
		Data:   make([]math.Vec4, width*height),
	}
	if irradiance {
		b.Irradiance = make([]math.Vec3, width*height)
	}
	return b
}

func (b *AccumulationBuffer) Index(x, y int) int {
	return y*b.Width + x
}

// Splat adds a weighted contribution. Safe for concurrent use; overlapping
// splats sum.
func (b *AccumulationBuffer) Splat(i int, bent math.Vec3, irradiance math.Vec3, w float32) {
	b.locks.lock(i)
	d := &b.Data[i]
	d.X += bent.X * w
	d.Y += bent.Y * w
	d.Z += bent.Z * w
	d.W += w
	if b.Irradiance != nil {
		ir := &b.Irradiance[i]
		ir.X += irradiance.X * w
		ir.Y += irradiance.Y * w
		ir.Z += irradiance.Z * w
	}
	b.locks.unlock(i)
}

// CacheBuffer is the normalized per-pixel result: bent normal (length
// encodes occlusion), optional irradiance, and a signed depth channel. The
// depth's sign bit is the pipeline's validity/acceptance flag: positive
// means valid (or accepted history), negative means invalid (or rejected
// history), with the magnitude always the pixel's view depth.
type CacheBuffer struct {
	Width, Height int
	BentNormal    []math.Vec3
	Irradiance    []math.Vec3
	Depth         []float32
}

func NewCacheBuffer(width, height int, irradiance bool) *CacheBuffer {
	b := &CacheBuffer{
		Width:      width,
		Height:     height,
		BentNormal: make([]math.Vec3, width*height),
		Depth:      make([]float32, width*height),
	}
	if irradiance {
		b.Irradiance = make([]math.Vec3, width*height)
	}
	return b
}

func (b *CacheBuffer) Index(x, y int) int {
	return y*b.Width + x
}

// Valid reports the depth-sign validity flag.
func (b *CacheBuffer) Valid(i int) bool {
	return b.Depth[i] >= 0
}

// AbsDepth returns the unsigned view depth.
func (b *CacheBuffer) AbsDepth(i int) float32 {
	return math32.Abs(b.Depth[i])
}

// Occlusion returns the scalar occlusion at a pixel, the bent normal's
// length clamped to [0,1].
func (b *CacheBuffer) Occlusion(i int) float32 {
	return math.Saturate(b.BentNormal[i].Length())
}

// VisualizationBuffer records per-pixel ray-march debug data.
type VisualizationBuffer struct {
	Width, Height int
	Steps         []uint16
	Hits          []uint8 // see VisMiss / VisHit / VisInconclusive
}

const (
	VisMiss         = 0
	VisHit          = 1
	VisInconclusive = 2
)

func NewVisualizationBuffer(width, height int) *VisualizationBuffer {
	return &VisualizationBuffer{
		Width:  width,
		Height: height,
		Steps:  make([]uint16, width*height),
		Hits:   make([]uint8, width*height),
	}
}

// OutputBuffer is the full-resolution upsampled result handed to the
// compositor.
type OutputBuffer struct {
	Width, Height int
	BentNormal    []math.Vec3
	Occlusion     []float32
	Irradiance    []math.Vec3
}

func NewOutputBuffer(width, height int, irradiance bool) *OutputBuffer {
	b := &OutputBuffer{
		Width:      width,
		Height:     height,
		BentNormal: make([]math.Vec3, width*height),
		Occlusion:  make([]float32, width*height),
	}
	if irradiance {
		b.Irradiance = make([]math.Vec3, width*height)
	}
	return b
}
