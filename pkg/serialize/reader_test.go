package serialize

import (
	stdmath "math"
	"testing"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/splat"
)

func TestDefaultValue(t *testing.T) {
	if got := DefaultValue(splat.PropRot0); got != 1 {
		t.Errorf("rot_0 default = %v, want 1", got)
	}
	for _, name := range []string{splat.PropX, splat.PropRot1, splat.PropScale0, splat.PropOpacity, "f_rest_3"} {
		if got := DefaultValue(name); got != 0 {
			t.Errorf("%s default = %v, want 0", name, got)
		}
	}
}

func TestTransformCacheMemoizes(t *testing.T) {
	cloud := splat.NewCloud(0)
	cloud.Transforms = splat.Palette{math.Identity(), math.Translate(1, 0, 0), math.Scale(2, 3, 4)}

	tc := NewTransformCache(cloud, false)
	if tc.Len() != 0 {
		t.Fatalf("Len = %d before use", tc.Len())
	}

	m := tc.Mat(1)
	tc.Mat(1)
	tc.Rotation(1)
	if tc.Len() != 1 {
		t.Errorf("Len = %d after repeated index, want 1", tc.Len())
	}
	if p := m.TransformPoint([3]float32{0, 0, 0}); p != [3]float32{-1, 0, 0} {
		t.Errorf("palette 1 maps origin to %v, want [-1 0 0]", p)
	}

	s := tc.Scale(2)
	if !near(s.X, 2, 1e-6) || !near(s.Y, 3, 1e-6) || !near(s.Z, 4, 1e-6) {
		t.Errorf("Scale(2) = %v", s)
	}
	if tc.SHRotation(2) != tc.SHRotation(2) {
		t.Errorf("SH rotation rebuilt")
	}
	if tc.Len() != 2 {
		t.Errorf("Len = %d, want 2", tc.Len())
	}

	// Unknown indices resolve to identity.
	if p := tc.Mat(7).TransformPoint([3]float32{1, 2, 3}); p != [3]float32{-1, -2, 3} {
		t.Errorf("unknown index maps to %v", p)
	}
}

func TestTransformCacheKeepWorld(t *testing.T) {
	cloud := splat.NewCloud(0)
	cloud.World = math.Translate(5, 5, 5)

	tc := NewTransformCache(cloud, true)
	if tc.Mat(0) != math.Identity() {
		t.Errorf("keepWorld Mat(0) = %v, want identity", tc.Mat(0))
	}

	tc = NewTransformCache(cloud, false)
	if p := tc.Mat(0).TransformPoint([3]float32{0, 0, 0}); p != [3]float32{-5, -5, 5} {
		t.Errorf("Mat(0) maps origin to %v, want [-5 -5 5]", p)
	}
}

func TestReaderDefaults(t *testing.T) {
	cloud := splat.NewCloud(1)
	for _, name := range positionNames {
		if err := cloud.AddFloat(name, []float32{1}); err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(AllFields(1), ReaderOptions{KeepWorldTransform: true})
	var s Splat
	r.Read(0, cloud, 0, &s)

	if s.Position != [3]float32{1, 1, 1} {
		t.Errorf("position = %v", s.Position)
	}
	if s.Rotation != [4]float32{1, 0, 0, 0} {
		t.Errorf("rotation = %v, want identity", s.Rotation)
	}
	if s.Scale != [3]float32{} || s.Color != [3]float32{} || s.Opacity != 0 {
		t.Errorf("scale %v colour %v opacity %v, want zeros", s.Scale, s.Color, s.Opacity)
	}
	for ch := 0; ch < 3; ch++ {
		for k := 0; k < r.Coeffs(); k++ {
			if s.SH[ch][k] != 0 {
				t.Errorf("sh[%d][%d] = %v, want 0", ch, k, s.SH[ch][k])
			}
		}
	}
}

func TestReaderRotationMatchesPosition(t *testing.T) {
	cloud := buildCloud(t, []testSplat{identitySplat(1, 0, 0)}, 0)
	cloud.World = math.RotateZ(stdmath.Pi / 2).Mul(math.RotateX(0.4))

	r := NewReader(AllFields(0), ReaderOptions{})
	var s Splat
	r.Read(0, cloud, 0, &s)

	dir := s.Quat().Rotate(math.Vec3{X: 1})
	if !near(dir.X, s.Position[0], 1e-5) || !near(dir.Y, s.Position[1], 1e-5) || !near(dir.Z, s.Position[2], 1e-5) {
		t.Errorf("rotated axis %v, want baked position %v", dir, s.Position)
	}
}

func TestReaderSHRotationPreservesEnergy(t *testing.T) {
	cloud := buildCloud(t, []testSplat{identitySplat(0, 0, 0)}, 3)
	cloud.World = math.RotateY(0.8).Mul(math.RotateX(-1.3))

	plain := NewReader(AllFields(3), ReaderOptions{KeepWorldTransform: true})
	rotated := NewReader(AllFields(3), ReaderOptions{})
	var a, b Splat
	plain.Read(0, cloud, 0, &a)
	rotated.Read(0, cloud, 0, &b)

	for ch := 0; ch < 3; ch++ {
		offset := 0
		for _, size := range []int{3, 5, 7} {
			var ea, eb float32
			for k := offset; k < offset+size; k++ {
				ea += a.SH[ch][k] * a.SH[ch][k]
				eb += b.SH[ch][k] * b.SH[ch][k]
			}
			if !near(ea, eb, 1e-4*max(1, ea)) {
				t.Errorf("channel %d band size %d energy %v, want %v", ch, size, eb, ea)
			}
			offset += size
		}
	}
}

func TestReaderSwitchesCollections(t *testing.T) {
	a := buildCloud(t, []testSplat{identitySplat(1, 0, 0)}, 0)
	b := buildCloud(t, []testSplat{identitySplat(2, 0, 0)}, 0)
	b.World = math.Translate(0, 10, 0)

	r := NewReader(AllFields(0), ReaderOptions{KeepWorldTransform: true})
	var s Splat
	for _, tt := range []struct {
		ci   int
		c    splat.Collection
		want [3]float32
	}{
		{0, a, [3]float32{1, 0, 0}},
		{1, b, [3]float32{2, 0, 0}},
		{0, a, [3]float32{1, 0, 0}},
	} {
		r.Read(tt.ci, tt.c, 0, &s)
		if s.Position != tt.want {
			t.Errorf("collection %d position = %v, want %v", tt.ci, s.Position, tt.want)
		}
	}

	r = NewReader(AllFields(0), ReaderOptions{})
	r.Read(1, b, 0, &s)
	if !near(s.Position[1], -10, 1e-5) {
		t.Errorf("world translation not applied: %v", s.Position)
	}
}

func TestReaderTemperatureAndSaturation(t *testing.T) {
	splats := []testSplat{identitySplat(0, 0, 0)}
	splats[0].dc = [3]float32{0.5, 0, -0.5}
	cloud := buildCloud(t, splats, 0)
	cloud.Adjust.Saturation = 0

	r := NewReader(AllFields(0), ReaderOptions{KeepWorldTransform: true})
	var s Splat
	r.Read(0, cloud, 0, &s)
	if !near(s.Color[0], s.Color[1], 1e-5) || !near(s.Color[1], s.Color[2], 1e-5) {
		t.Errorf("zero saturation left colour %v", s.Color)
	}

	cloud.Adjust.Saturation = 1
	cloud.Adjust.Temperature = 0.5
	r = NewReader(AllFields(0), ReaderOptions{KeepWorldTransform: true})
	r.Read(0, cloud, 0, &s)
	// Warmer scales red up and blue down in linear space.
	if s.Color[0] <= 0.5 || s.Color[2] >= -0.5 {
		t.Errorf("temperature gave %v", s.Color)
	}
}
