package dfao

import (
	"sync/atomic"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// CulledLists holds, for every (tile, radius phase) pair, a fixed-capacity
// list of object indices whose bounds may influence records of that phase
// inside that tile. Reservation is an atomic fetch-and-add; an object that
// lands past capacity is dropped.
type CulledLists struct {
	NumTiles  int
	NumPhases int
	Capacity  int

	counts  []atomic.Int32
	objects []int32
}

func NewCulledLists(numTiles, numPhases, capacity int) *CulledLists {
	n := numTiles * numPhases
	return &CulledLists{
		NumTiles:  numTiles,
		NumPhases: numPhases,
		Capacity:  capacity,
		counts:    make([]atomic.Int32, n),
		objects:   make([]int32, n*capacity),
	}
}

func (c *CulledLists) Reset() {
	for i := range c.counts {
		c.counts[i].Store(0)
	}
}

func (c *CulledLists) listIndex(tile, phase int) int {
	return tile*c.NumPhases + phase
}

// Append reserves a slot in the (tile, phase) list. Over-capacity appends
// are silently dropped.
func (c *CulledLists) Append(tile, phase, object int) {
	li := c.listIndex(tile, phase)
	slot := c.counts[li].Add(1) - 1
	if int(slot) >= c.Capacity {
		return
	}
	c.objects[li*c.Capacity+int(slot)] = int32(object)
}

// Count returns the number of stored entries in a list, clamped to capacity.
func (c *CulledLists) Count(tile, phase int) int {
	n := int(c.counts[c.listIndex(tile, phase)].Load())
	return min(n, c.Capacity)
}

// Objects returns the stored object indices for a (tile, phase) list.
func (c *CulledLists) Objects(tile, phase int) []int32 {
	li := c.listIndex(tile, phase)
	n := min(int(c.counts[li].Load()), c.Capacity)
	return c.objects[li*c.Capacity : li*c.Capacity+n]
}

// coneIntersectsSphere tests a view-space cone (apex at origin) against a
// sphere. The test is conservative: it may accept spheres slightly outside
// the cone but never rejects an intersecting one.
func coneIntersectsSphere(cone TileCone, center math.Vec3, radius float32) bool {
	along := center.Dot(cone.Axis)
	if along+radius < cone.MinDepth || along-radius > cone.MaxDepth {
		return false
	}
	perp := center.Sub(cone.Axis.Mul(along)).Length()
	// Signed distance from the sphere center to the cone surface.
	d := cone.CosAngle*perp - cone.SinAngle*along
	return d <= radius
}

// CullObjects fills the per-tile per-phase lists. An object's bounding
// sphere is expanded by the phase's maximum sample radius scaled
// conservatively, so every object that can influence a record of that phase
// lands in the list.
func CullObjects(ctx *FrameContext, sc *scene.Scene, grid *TileGrid, lists *CulledLists) {
	lists.Reset()
	cfg := ctx.Config
	parallelFor(len(sc.Objects), func(oi int) {
		obj := sc.Objects[oi]
		if !obj.HasDistanceField {
			return
		}
		center := obj.BoundsCenter.Sub(ctx.View.CameraPos)
		for tile := 0; tile < grid.NumTiles(); tile++ {
			cone := grid.Cones[tile]
			if cone.Empty() {
				continue
			}
			for phase := 0; phase < cfg.NumRadiusPhases; phase++ {
				expand := ctx.PhaseMaxSampleRadius(phase) * cfg.ConservativeCullScale
				if coneIntersectsSphere(cone, center, obj.BoundsRadius+expand) {
					lists.Append(tile, phase, oi)
				}
			}
		}
	})
}
