package dfao

import (
	"time"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// PassTimings reports where a frame went.
type PassTimings struct {
	Tiles      time.Duration
	Cull       time.Duration
	Records    time.Duration
	Splat      time.Duration
	Combine    time.Duration
	GapFill    time.Duration
	Reproject  time.Duration
	Stabilize  time.Duration
	Visualize  time.Duration
	Total      time.Duration
	NumRecords int
}

// Pipeline owns the buffers and runs the pass sequence for every frame:
// tile build, object culling, record generation, splatting, combine, gap
// fill, then the temporal filter. The result of a frame doubles as the next
// frame's history.
type Pipeline struct {
	Config Config

	grid     *TileGrid
	lists    *CulledLists
	accum    *AccumulationBuffer
	combined *CacheBuffer
	result   *CacheBuffer
	history  *CacheBuffer
	vis      *VisualizationBuffer

	width, height int
	frame         int
	hasHistory    bool

	Timings PassTimings
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{Config: cfg}
}

func (p *Pipeline) resize(width, height int) {
	if p.width == width && p.height == height {
		return
	}
	cfg := &p.Config
	irr := cfg.Features.Has(FeatureIrradiance)
	p.grid = NewTileGrid(width, height, cfg.TileSize)
	p.lists = NewCulledLists(p.grid.NumTiles(), cfg.NumRadiusPhases, cfg.MaxObjectsPerTile)
	p.accum = NewAccumulationBuffer(width, height, irr)
	p.combined = NewCacheBuffer(width, height, irr)
	p.result = NewCacheBuffer(width, height, irr)
	p.history = NewCacheBuffer(width, height, irr)
	if cfg.Features.Has(FeatureVisualization) {
		p.vis = NewVisualizationBuffer(width, height)
	}
	p.width = width
	p.height = height
	p.hasHistory = false
}

// RenderFrame runs the full pass sequence against an already rendered
// G-buffer and returns the low-resolution cache for this frame. The
// returned buffer stays valid until the next RenderFrame call.
func (p *Pipeline) RenderFrame(sc *scene.Scene, cam *scene.Camera, gb *scene.GBuffer) *CacheBuffer {
	p.resize(gb.Width, gb.Height)
	ctx := NewFrameContext(p.Config, cam, gb, p.frame)
	p.frame++

	start := time.Now()
	mark := start

	p.grid.Build(gb)
	p.Timings.Tiles = time.Since(mark)
	mark = time.Now()

	CullObjects(ctx, sc, p.grid, p.lists)
	p.Timings.Cull = time.Since(mark)
	mark = time.Now()

	records := GenerateRecords(ctx, sc, gb, p.grid, p.lists)
	p.Timings.NumRecords = len(records)
	p.Timings.Records = time.Since(mark)
	mark = time.Now()

	clearAccum(p.accum)
	SplatRecords(ctx, gb, records, p.accum)
	p.Timings.Splat = time.Since(mark)
	mark = time.Now()

	Combine(ctx, gb, p.accum, p.combined)
	p.Timings.Combine = time.Since(mark)
	mark = time.Now()

	GapFill(ctx, gb, p.combined)
	p.Timings.GapFill = time.Since(mark)
	mark = time.Now()

	out := p.combined
	if p.Config.Features.Has(FeatureTemporalFilter) {
		if p.hasHistory {
			Reproject(ctx, gb, p.combined, p.history, p.result)
		} else {
			copyCache(p.result, p.combined)
		}
		p.Timings.Reproject = time.Since(mark)
		mark = time.Now()

		Stabilize(ctx, gb, p.combined, p.result)
		p.Timings.Stabilize = time.Since(mark)
		mark = time.Now()

		p.history, p.result = p.result, p.history
		p.hasHistory = true
		out = p.history
	}

	if p.Config.Features.Has(FeatureVisualization) {
		if p.vis == nil {
			p.vis = NewVisualizationBuffer(p.width, p.height)
		}
		RenderVisualization(ctx, sc, gb, p.vis)
		p.Timings.Visualize = time.Since(mark)
	}

	p.Timings.Total = time.Since(start)
	return out
}

// Visualization returns the debug buffer from the last frame, nil when the
// feature is off.
func (p *Pipeline) Visualization() *VisualizationBuffer {
	return p.vis
}

// ResetHistory drops temporal history, forcing the next frame to stand
// alone.
func (p *Pipeline) ResetHistory() {
	p.hasHistory = false
}

// Upsample expands a low-res frame result to full resolution against a
// full-resolution depth buffer.
func (p *Pipeline) Upsample(low *CacheBuffer, fullDepth []float32, farDepth float32, out *OutputBuffer) {
	Upsample(low, fullDepth, farDepth, out)
}

func clearAccum(b *AccumulationBuffer) {
	for i := range b.Data {
		b.Data[i] = math.Vec4{}
	}
	if b.Irradiance != nil {
		for i := range b.Irradiance {
			b.Irradiance[i] = math.Vec3{}
		}
	}
}

func copyCache(dst, src *CacheBuffer) {
	copy(dst.BentNormal, src.BentNormal)
	copy(dst.Depth, src.Depth)
	if dst.Irradiance != nil && src.Irradiance != nil {
		copy(dst.Irradiance, src.Irradiance)
	}
}
