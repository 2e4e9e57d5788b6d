package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	if math.Abs(float64(n.Length()-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", n.Length())
	}
}

func TestQuatToMat4(t *testing.T) {
	m := QuatIdentity().ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatFromMat3RoundTrip(t *testing.T) {
	axes := []Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 1},
		{-0.3, 0.8, 0.1},
	}
	angles := []float32{0.1, 1, 2.5, math.Pi, -2}

	for _, axis := range axes {
		for _, angle := range angles {
			q := QuatFromAxisAngle(axis.Normalize(), angle)
			got := QuatFromMat3(q.ToMat3())
			if d := math.Abs(float64(got.Dot(q))); math.Abs(d-1) > 1e-5 {
				t.Errorf("axis %v angle %v: got %v, want %v", axis, angle, got, q)
			}
		}
	}
}

func TestQuatMulOrder(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, float32(math.Pi/2))
	b := QuatFromAxisAngle(Vec3{X: 1, Y: 0, Z: 0}, float32(math.Pi/2))

	// a*b applies b first: (0,1,0) -> (0,0,1) -> (0,0,1)
	v := a.Mul(b).Rotate(Vec3{X: 0, Y: 1, Z: 0})
	if math.Abs(float64(v.X)) > 1e-5 || math.Abs(float64(v.Y)) > 1e-5 || math.Abs(float64(v.Z-1)) > 1e-5 {
		t.Errorf("Mul order: got %v, want (0, 0, 1)", v)
	}

	// b*a applies a first: (0,1,0) -> (-1,0,0) -> (-1,0,0)
	v = b.Mul(a).Rotate(Vec3{X: 0, Y: 1, Z: 0})
	if math.Abs(float64(v.X+1)) > 1e-5 || math.Abs(float64(v.Y)) > 1e-5 || math.Abs(float64(v.Z)) > 1e-5 {
		t.Errorf("Mul order: got %v, want (-1, 0, 0)", v)
	}
}
