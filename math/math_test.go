package math

import (
	"math"
	"testing"
)

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	result := v1.Add(v2)
	expected := NewVec3(5, 7, 9)
	if result != expected {
		t.Errorf("Add: expected %v, got %v", expected, result)
	}

	result = v2.Sub(v1)
	expected = NewVec3(3, 3, 3)
	if result != expected {
		t.Errorf("Sub: expected %v, got %v", expected, result)
	}

	result = v1.Mul(2)
	expected = NewVec3(2, 4, 6)
	if result != expected {
		t.Errorf("Mul: expected %v, got %v", expected, result)
	}

	dot := v1.Dot(v2)
	expectedDot := float32(32) // 1*4 + 2*5 + 3*6
	if dot != expectedDot {
		t.Errorf("Dot: expected %v, got %v", expectedDot, dot)
	}

	// Right x Up = Front in a right-handed system
	cross := Vec3Right.Cross(Vec3Up)
	if cross != Vec3Front {
		t.Errorf("Cross: expected %v, got %v", Vec3Front, cross)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 0, 0)
	normalized := v.Normalize()
	expected := NewVec3(1, 0, 0)

	if normalized != expected {
		t.Errorf("Normalize: expected %v, got %v", expected, normalized)
	}

	length := normalized.Length()
	if math.Abs(float64(length-1)) > 0.0001 {
		t.Errorf("Normalize: expected length 1, got %v", length)
	}
}

func TestVec3ClampAndFinite(t *testing.T) {
	v := NewVec3(-2, 0.5, 9)
	clamped := v.Clamp(Vec3Zero, Vec3One)
	if clamped != NewVec3(0, 0.5, 1) {
		t.Errorf("Clamp: got %v", clamped)
	}

	if !v.IsFinite() {
		t.Error("IsFinite: finite vector reported non-finite")
	}
	nan := NewVec3(float32(math.NaN()), 0, 0)
	if nan.IsFinite() {
		t.Error("IsFinite: NaN vector reported finite")
	}
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if m[i][j] != expected {
				t.Errorf("Identity: expected [%d][%d] = %v, got %v", i, j, expected, m[i][j])
			}
		}
	}
}

func TestMat4MulComposition(t *testing.T) {
	a := Mat4Translation(NewVec3(1, 2, 3))
	b := Mat4RotationY(0.7)
	v := NewVec3(0.3, -1, 2)

	// a.Mul(b) applied to v must equal applying b then a
	got := a.Mul(b).MulPoint(v)
	want := a.MulPoint(b.MulPoint(v))
	if got.Distance(want) > 1e-5 {
		t.Errorf("Mul composition: expected %v, got %v", want, got)
	}
}

func TestMat4Translation(t *testing.T) {
	m := Mat4Translation(NewVec3(1, 2, 3))
	p := m.MulPoint(NewVec3(1, 1, 1))
	if p.Distance(NewVec3(2, 3, 4)) > 1e-6 {
		t.Errorf("Translation: expected (2,3,4), got %v", p)
	}

	d := m.MulDir(NewVec3(1, 0, 0))
	if d != NewVec3(1, 0, 0) {
		t.Errorf("Translation must not affect directions, got %v", d)
	}
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4Translation(NewVec3(1, 2, 3)).Mul(Mat4RotationY(0.7)).Mul(Mat4Scale(NewVec3(2, 2, 2)))
	id := m.Mul(m.Inverse())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if math.Abs(float64(id[i][j]-expected)) > 1e-4 {
				t.Errorf("Inverse: [%d][%d] expected %v, got %v", i, j, expected, id[i][j])
			}
		}
	}
}

func TestMat4LookAt(t *testing.T) {
	view := Mat4LookAt(NewVec3(0, 0, 5), Vec3Zero, Vec3Up)

	// The origin should land 5 units down the -Z view axis
	p := view.MulPoint(Vec3Zero)
	if p.Distance(NewVec3(0, 0, -5)) > 1e-5 {
		t.Errorf("LookAt: expected (0,0,-5), got %v", p)
	}
}

func TestMat4Perspective(t *testing.T) {
	proj := Mat4Perspective(math.Pi/2, 1, 1, 100)

	near := proj.MulPoint(NewVec3(0, 0, -1))
	if math.Abs(float64(near.Z+1)) > 1e-4 {
		t.Errorf("Perspective: near plane should map to NDC z=-1, got %v", near.Z)
	}

	far := proj.MulPoint(NewVec3(0, 0, -100))
	if math.Abs(float64(far.Z-1)) > 1e-3 {
		t.Errorf("Perspective: far plane should map to NDC z=1, got %v", far.Z)
	}
}

func TestViewProjectionRoundTrip(t *testing.T) {
	view := Mat4LookAt(NewVec3(3, 4, 5), Vec3Zero, Vec3Up)
	proj := Mat4Perspective(1.2, 16.0/9.0, 0.1, 500)
	vp := proj.Mul(view)
	inv := vp.Inverse()

	world := NewVec3(1, -2, 0.5)
	ndc := vp.MulPoint(world)
	back := inv.MulPoint(ndc)
	if back.Distance(world) > 1e-2 {
		t.Errorf("round trip: expected %v, got %v", world, back)
	}
}

func TestQuaternionRotateVector(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3Up, math.Pi/2)
	rotated := q.RotateVector(Vec3Right)

	// 90 degrees about +Y takes +X to -Z
	if rotated.Distance(Vec3Back) > 1e-5 {
		t.Errorf("RotateVector: expected %v, got %v", Vec3Back, rotated)
	}

	// Matrix form agrees with direct rotation
	viaMat := q.ToMat4().MulDir(Vec3Right)
	if viaMat.Distance(rotated) > 1e-5 {
		t.Errorf("ToMat4: expected %v, got %v", rotated, viaMat)
	}
}

func TestScalarHelpers(t *testing.T) {
	if Saturate(1.5) != 1 || Saturate(-0.5) != 0 {
		t.Error("Saturate: out-of-range values not clamped")
	}
	if Lerp(2, 4, 0.5) != 3 {
		t.Errorf("Lerp: expected 3, got %v", Lerp(2, 4, 0.5))
	}
	if Smoothstep(0, 1, -1) != 0 || Smoothstep(0, 1, 2) != 1 {
		t.Error("Smoothstep: edges not clamped")
	}
	if FiniteOrZero(float32(math.Inf(1))) != 0 || FiniteOrZero(3) != 3 {
		t.Error("FiniteOrZero: wrong substitution")
	}
}
