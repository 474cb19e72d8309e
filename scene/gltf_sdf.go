package scene

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"distfield-gi/math"
)

// LoadGLTFObject reads every triangle mesh in a .glb/.gltf file and bakes the
// union into one signed distance volume. The object's local space is the mesh
// bounding-box center.
func LoadGLTFObject(path string, res int) (*Object, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	var positions []math.Vec3
	var indices []uint32
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			attr, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			pos, err := modeler.ReadPosition(doc, doc.Accessors[attr], nil)
			if err != nil {
				return nil, fmt.Errorf("gltf %q positions: %w", path, err)
			}
			base := uint32(len(positions))
			for _, p := range pos {
				positions = append(positions, math.Vec3{X: p[0], Y: p[1], Z: p[2]})
			}
			if prim.Indices != nil {
				idx, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
				if err != nil {
					return nil, fmt.Errorf("gltf %q indices: %w", path, err)
				}
				for _, i := range idx {
					indices = append(indices, base+i)
				}
			} else {
				for i := range pos {
					indices = append(indices, base+uint32(i))
				}
			}
		}
	}
	if len(indices) < 3 {
		return nil, fmt.Errorf("gltf %q contains no triangles", path)
	}

	vol, half, center, err := VoxelizeTriangles(positions, indices, res)
	if err != nil {
		return nil, fmt.Errorf("voxelize %q: %w", path, err)
	}

	name := path
	if doc.Scenes != nil && len(doc.Scenes) > 0 && doc.Scenes[0].Name != "" {
		name = doc.Scenes[0].Name
	}
	obj := NewObject(name, vol, half)
	// Keep the authored pivot: local origin is the bbox center, so nudge the
	// object so its world placement matches the mesh.
	obj.Transform.Position = center
	obj.UpdateBounds()
	return obj, nil
}

// VoxelizeTriangles bakes an indexed triangle soup into a signed distance
// volume. Magnitude is exact point-to-triangle distance; sign comes from
// +X ray crossing parity, which wants a closed mesh but tolerates small holes.
// Returns the volume, the covered half extent, and the bbox center the
// vertices were recentered around.
func VoxelizeTriangles(positions []math.Vec3, indices []uint32, res int) (*Volume, math.Vec3, math.Vec3, error) {
	if len(indices)%3 != 0 {
		return nil, math.Vec3{}, math.Vec3{}, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}
	if res < 8 {
		res = 8
	}

	lo := positions[0]
	hi := positions[0]
	for _, p := range positions {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	center := lo.Add(hi).Mul(0.5)
	half := hi.Sub(lo).Mul(0.5 * volumeMargin)
	// Degenerate flat meshes still need a sliver of thickness.
	minHalf := half.MaxComponent() * 0.02
	half = half.Max(math.Vec3{X: minHalf, Y: minHalf, Z: minHalf})

	local := make([]math.Vec3, len(positions))
	for i, p := range positions {
		local[i] = p.Sub(center)
	}

	norm := half.MaxComponent()
	vol := NewVolume(res, res, res, norm)

	workers := runtime.GOMAXPROCS(0)
	slabs := make(chan int, res)
	for z := 0; z < res; z++ {
		slabs <- z
	}
	close(slabs)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for z := range slabs {
				voxelizeSlab(vol, local, indices, half, z)
			}
		}()
	}
	wg.Wait()

	return vol, half, center, nil
}

func voxelizeSlab(vol *Volume, verts []math.Vec3, indices []uint32, half math.Vec3, z int) {
	pz := math.Lerp(-half.Z, half.Z, float32(z)/float32(vol.Nz-1))
	for y := 0; y < vol.Ny; y++ {
		py := math.Lerp(-half.Y, half.Y, float32(y)/float32(vol.Ny-1))
		for x := 0; x < vol.Nx; x++ {
			px := math.Lerp(-half.X, half.X, float32(x)/float32(vol.Nx-1))
			p := math.Vec3{X: px, Y: py, Z: pz}

			best := float32(math32.MaxFloat32)
			crossings := 0
			for t := 0; t < len(indices); t += 3 {
				a := verts[indices[t]]
				b := verts[indices[t+1]]
				c := verts[indices[t+2]]
				d := pointTriangleDistance(p, a, b, c)
				if d < best {
					best = d
				}
				if rayCrossesTriangle(p, a, b, c) {
					crossings++
				}
			}
			if crossings%2 == 1 {
				best = -best
			}
			vol.Set(x, y, z, math32.Max(-1, math32.Min(1, best/vol.Normalization)))
		}
	}
}

// pointTriangleDistance is the Ericson closest-point construction.
func pointTriangleDistance(p, a, b, c math.Vec3) float32 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return p.Distance(a)
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return p.Distance(b)
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return p.Distance(a.Add(ab.Mul(v)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return p.Distance(c)
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return p.Distance(a.Add(ac.Mul(w)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return p.Distance(b.Add(c.Sub(b).Mul(w)))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return p.Distance(a.Add(ab.Mul(v)).Add(ac.Mul(w)))
}

// rayCrossesTriangle tests a +X ray from p (Moller-Trumbore).
func rayCrossesTriangle(p, a, b, c math.Vec3) bool {
	const eps = 1e-7
	dir := math.Vec3Right

	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if det > -eps && det < eps {
		return false
	}
	inv := 1 / det
	s := p.Sub(a)
	u := s.Dot(h) * inv
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	t := e2.Dot(q) * inv
	return t > eps
}
