package dfao

// Features selects optional pipeline behaviors. The zero value is plain
// occlusion with temporal filtering.
type Features uint32

const (
	// FeatureIrradiance enables the one-bounce irradiance gather and buffer.
	FeatureIrradiance Features = 1 << 0
	// FeatureVisualization produces the ray-march debug buffer.
	FeatureVisualization Features = 1 << 1
	// FeatureTemporalFilter enables history reprojection and stabilization.
	FeatureTemporalFilter Features = 1 << 2
	// FeatureInterpolation splats each record over its full screen
	// footprint; without it records land only on their own pixel and gap
	// fill spreads them.
	FeatureInterpolation Features = 1 << 3
)

func (f Features) Has(flag Features) bool {
	return f&flag != 0
}

// Config carries every tunable the pipeline reads. Weighting constants that
// only shape the visual result (not correctness) are named fields so scenes
// can tune them without touching pass code.
type Config struct {
	Features Features

	// DownsampleFactor is full-res pixels per occlusion pixel, per axis.
	DownsampleFactor int

	// TileSize is the culling tile width in low-res pixels.
	TileSize int

	// MaxObjectsPerTile caps each per-tile-per-phase culled list. Overflow
	// is silently dropped: the object goes unseen by that tile this frame.
	MaxObjectsPerTile int

	// NumRadiusPhases partitions the record sampling radius range into
	// tiers so far-reaching phases only test objects that can reach them.
	NumRadiusPhases int

	// OcclusionDistance is how far occlusion rays travel, in world units.
	OcclusionDistance float32

	// MaxViewDistance is the scene depth past which pixels receive no
	// occlusion; also the far end of the fade ramp.
	MaxViewDistance float32

	// FadeFraction of MaxViewDistance over which occlusion fades to
	// unoccluded as depth approaches MaxViewDistance.
	FadeFraction float32

	// MaxRayMarchSteps caps sphere tracing per object per ray. Hitting the
	// cap counts as an inconclusive near-miss, not an error.
	MaxRayMarchSteps int

	// RecordSpacing is the stride in low-res pixels between surface cache
	// records.
	RecordSpacing int

	// InterpolationRadiusScale in (0,1] scales record splat footprints;
	// the effective scale blends toward 1 for large records and distant
	// pixels.
	InterpolationRadiusScale float32

	// OccluderRadiusOverride caps record radii when positive.
	OccluderRadiusOverride float32

	// NumConeDirections is the hemisphere direction count per record.
	NumConeDirections int

	// HistoryWeight is the exponential-moving-average weight on accepted
	// history.
	HistoryWeight float32

	// PositionRejectThreshold is the world-space distance between a
	// pixel's current and reconstructed previous positions beyond which
	// history is rejected as disoccluded.
	PositionRejectThreshold float32

	// ConservativeCullScale inflates culling bounds to absorb cone and
	// depth-range approximations.
	ConservativeCullScale float32

	// SplatOffsetSign chooses which side of the surface the virtual splat
	// center is pushed to: +1 behind (away from the camera, avoids near
	// plane clipping), -1 in front.
	SplatOffsetSign float32

	// BehindPlaneScale, in units of record radius, controls how fast splat
	// weight dies off for pixels behind the record's surface plane.
	BehindPlaneScale float32

	// GapFillDepthFalloff scales the relative depth difference in the
	// gap-fill neighbor weighting.
	GapFillDepthFalloff float32

	// StabilizerDepthFalloff is the tighter rate used when re-seeding
	// rejected history; stricter than gap fill so foreground objects do
	// not bleed into freshly disoccluded background.
	StabilizerDepthFalloff float32

	// MaxVisualizationObjects caps the per-pixel intersection list in the
	// debug ray-march view; overflow is silently dropped.
	MaxVisualizationObjects int
}

func DefaultConfig() Config {
	return Config{
		Features:                 FeatureTemporalFilter | FeatureInterpolation,
		DownsampleFactor:         2,
		TileSize:                 16,
		MaxObjectsPerTile:        64,
		NumRadiusPhases:          3,
		OcclusionDistance:        10,
		MaxViewDistance:          80,
		FadeFraction:             0.25,
		MaxRayMarchSteps:         256,
		RecordSpacing:            4,
		InterpolationRadiusScale: 0.8,
		NumConeDirections:        9,
		HistoryWeight:            0.9,
		PositionRejectThreshold:  100,
		ConservativeCullScale:    1.2,
		SplatOffsetSign:          1,
		BehindPlaneScale:         0.1,
		GapFillDepthFalloff:      2,
		StabilizerDepthFalloff:   8,
		MaxVisualizationObjects:  32,
	}
}
