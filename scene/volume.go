package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"distfield-gi/math"
)

// Volume is a dense 3D grid of signed distances. Distances are stored
// normalized: a stored value of ±1 corresponds to ±Normalization local-space
// units. Negative is inside the surface.
type Volume struct {
	Nx, Ny, Nz int
	Data       []float32

	// Normalization is the local-space distance represented by a stored
	// value of 1.0 (the max component of the half extent the volume covers).
	Normalization float32
}

func NewVolume(nx, ny, nz int, normalization float32) *Volume {
	return &Volume{
		Nx:            nx,
		Ny:            ny,
		Nz:            nz,
		Data:          make([]float32, nx*ny*nz),
		Normalization: normalization,
	}
}

func (v *Volume) index(x, y, z int) int {
	return (z*v.Ny+y)*v.Nx + x
}

func (v *Volume) At(x, y, z int) float32 {
	return v.Data[v.index(x, y, z)]
}

func (v *Volume) Set(x, y, z int, d float32) {
	v.Data[v.index(x, y, z)] = d
}

// Sample returns the trilinearly interpolated normalized distance at a UVW
// coordinate in [0,1]^3. Coordinates outside the volume clamp to the border,
// which keeps marching rays from reading garbage when they graze the box.
func (v *Volume) Sample(uvw math.Vec3) float32 {
	// Voxel-center addressing: uvw 0..1 spans centers of first..last voxel.
	fx := math.Clamp(uvw.X*float32(v.Nx-1), 0, float32(v.Nx-1))
	fy := math.Clamp(uvw.Y*float32(v.Ny-1), 0, float32(v.Ny-1))
	fz := math.Clamp(uvw.Z*float32(v.Nz-1), 0, float32(v.Nz-1))

	x0 := int(fx)
	y0 := int(fy)
	z0 := int(fz)
	x1 := min(x0+1, v.Nx-1)
	y1 := min(y0+1, v.Ny-1)
	z1 := min(z0+1, v.Nz-1)

	tx := fx - float32(x0)
	ty := fy - float32(y0)
	tz := fz - float32(z0)

	c000 := v.At(x0, y0, z0)
	c100 := v.At(x1, y0, z0)
	c010 := v.At(x0, y1, z0)
	c110 := v.At(x1, y1, z0)
	c001 := v.At(x0, y0, z1)
	c101 := v.At(x1, y0, z1)
	c011 := v.At(x0, y1, z1)
	c111 := v.At(x1, y1, z1)

	c00 := math.Lerp(c000, c100, tx)
	c10 := math.Lerp(c010, c110, tx)
	c01 := math.Lerp(c001, c101, tx)
	c11 := math.Lerp(c011, c111, tx)

	return math.Lerp(math.Lerp(c00, c10, ty), math.Lerp(c01, c11, ty), tz)
}

// VolumeFromFunc bakes an analytic local-space distance function into a
// volume covering the box [-halfExtent, halfExtent]. Distances are divided by
// the normalization and clamped to [-1, 1].
func VolumeFromFunc(nx, ny, nz int, halfExtent math.Vec3, dist func(p math.Vec3) float32) (*Volume, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, fmt.Errorf("volume resolution %dx%dx%d too small (need >= 2 per axis)", nx, ny, nz)
	}

	norm := halfExtent.MaxComponent()
	vol := NewVolume(nx, ny, nz, norm)
	for z := 0; z < nz; z++ {
		pz := math.Lerp(-halfExtent.Z, halfExtent.Z, float32(z)/float32(nz-1))
		for y := 0; y < ny; y++ {
			py := math.Lerp(-halfExtent.Y, halfExtent.Y, float32(y)/float32(ny-1))
			for x := 0; x < nx; x++ {
				px := math.Lerp(-halfExtent.X, halfExtent.X, float32(x)/float32(nx-1))
				d := dist(math.Vec3{X: px, Y: py, Z: pz}) / norm
				vol.Set(x, y, z, math32.Max(-1, math32.Min(1, d)))
			}
		}
	}
	return vol, nil
}
