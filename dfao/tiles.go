package dfao

import (
	"github.com/chewxy/math32"

	"distfield-gi/math"
	"distfield-gi/scene"
)

// TileCone bounds the geometry seen through one screen tile: a view-space
// cone around Axis with half-angle (stored as cos/sin) plus the tile's
// depth range along the axis. Empty tiles (all sky) have MinDepth > MaxDepth.
type TileCone struct {
	Axis     math.Vec3
	CosAngle float32
	SinAngle float32
	MinDepth float32
	MaxDepth float32
}

// Empty reports a tile with no scene pixels.
func (t TileCone) Empty() bool {
	return t.MinDepth > t.MaxDepth
}

// TileGrid partitions the downsampled frame into square tiles and holds the
// per-tile bounding cones used by culling.
type TileGrid struct {
	TileSize       int
	TilesX, TilesY int
	Cones          []TileCone
}

func NewTileGrid(width, height, tileSize int) *TileGrid {
	tx := (width + tileSize - 1) / tileSize
	ty := (height + tileSize - 1) / tileSize
	return &TileGrid{
		TileSize: tileSize,
		TilesX:   tx,
		TilesY:   ty,
		Cones:    make([]TileCone, tx*ty),
	}
}

func (g *TileGrid) NumTiles() int {
	return g.TilesX * g.TilesY
}

func (g *TileGrid) TileForPixel(x, y int) int {
	return (y/g.TileSize)*g.TilesX + x/g.TileSize
}

// Build computes each tile's bounding cone from the G-buffer. The cone axis
// is the mean ray direction of the tile's scene pixels, the half-angle the
// widest deviation of any pixel ray from that axis, and the depth range the
// min/max pixel depth projected onto the axis.
func (g *TileGrid) Build(gb *scene.GBuffer) {
	parallelFor(g.NumTiles(), func(tile int) {
		tx := tile % g.TilesX
		ty := tile / g.TilesX
		x0 := tx * g.TileSize
		y0 := ty * g.TileSize
		x1 := min(x0+g.TileSize, gb.Width)
		y1 := min(y0+g.TileSize, gb.Height)

		var axis math.Vec3
		count := 0
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				i := gb.Index(x, y)
				if gb.Depth[i] >= gb.FarDepth {
					continue
				}
				axis = axis.Add(gb.RayDir[i])
				count++
			}
		}
		if count == 0 {
			g.Cones[tile] = TileCone{MinDepth: 1, MaxDepth: 0}
			return
		}
		axis = axis.Normalize()

		minCos := float32(1)
		minDepth := float32(math32.MaxFloat32)
		maxDepth := float32(0)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				i := gb.Index(x, y)
				if gb.Depth[i] >= gb.FarDepth {
					continue
				}
				c := gb.RayDir[i].Dot(axis)
				if c < minCos {
					minCos = c
				}
				// Depth along the ray, projected onto the axis.
				d := gb.Depth[i] * c
				if d < minDepth {
					minDepth = d
				}
				if d > maxDepth {
					maxDepth = d
				}
			}
		}
		minCos = math.Clamp(minCos, -1, 1)
		g.Cones[tile] = TileCone{
			Axis:     axis,
			CosAngle: minCos,
			SinAngle: math32.Sqrt(1 - minCos*minCos),
			MinDepth: minDepth,
			MaxDepth: maxDepth,
		}
	})
}
