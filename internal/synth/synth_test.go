package synth

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/serialize"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
)

func generate(t *testing.T, p Params) *splat.Cloud {
	t.Helper()
	c, err := Generate(p)
	if err != nil {
		t.Fatalf("Generate(%+v): %v", p, err)
	}
	return c
}

func TestGenerateDeterministic(t *testing.T) {
	p := DefaultParams()
	p.Splats = 64
	p.Transforms = 3

	a := generate(t, p)
	b := generate(t, p)
	if !reflect.DeepEqual(a.Properties(), b.Properties()) {
		t.Error("same seed produced different properties")
	}
	if !reflect.DeepEqual(a.Transforms, b.Transforms) {
		t.Error("same seed produced different palettes")
	}

	p.Seed = 2
	c := generate(t, p)
	if reflect.DeepEqual(a.Property(splat.PropX).Floats, c.Property(splat.PropX).Floats) {
		t.Error("different seeds produced identical positions")
	}
}

func TestGenerateLayout(t *testing.T) {
	tests := []struct {
		bands int
		want  int
	}{
		{0, 15},
		{1, 15 + 9},
		{3, 15 + 45},
	}
	for _, tt := range tests {
		p := DefaultParams()
		p.Splats = 10
		p.Bands = tt.bands
		c := generate(t, p)

		if got := len(c.Properties()); got != tt.want {
			t.Errorf("bands %d: %d properties, want %d", tt.bands, got, tt.want)
		}
		if got := splat.Bands(c); got != tt.bands {
			t.Errorf("bands %d: cloud reports %d", tt.bands, got)
		}
		if c.Property(splat.PropTransform) != nil {
			t.Errorf("bands %d: unexpected transform property", tt.bands)
		}
		for _, prop := range c.Properties() {
			if prop.Len() != 10 {
				t.Errorf("%s has %d values", prop.Name, prop.Len())
			}
		}
	}
}

func TestGenerateValues(t *testing.T) {
	p := DefaultParams()
	p.Splats = 200
	p.Radius = 3
	c := generate(t, p)

	for i := 0; i < p.Splats; i++ {
		v := math.Vec3{
			X: c.Property(splat.PropX).Floats[i],
			Y: c.Property(splat.PropY).Floats[i],
			Z: c.Property(splat.PropZ).Floats[i],
		}
		if v.Length() > p.Radius+1e-4 {
			t.Fatalf("splat %d at %v outside radius", i, v)
		}

		q := math.Quat{
			W: c.Property(splat.PropRot0).Floats[i],
			X: c.Property(splat.PropRot1).Floats[i],
			Y: c.Property(splat.PropRot2).Floats[i],
			Z: c.Property(splat.PropRot3).Floats[i],
		}
		if l := q.Length(); l < 0.999 || l > 1.001 {
			t.Fatalf("splat %d rotation length %v", i, l)
		}

		alpha := splat.Sigmoid(c.Property(splat.PropOpacity).Floats[i])
		if alpha < 0.049 || alpha > 0.991 {
			t.Fatalf("splat %d opacity %v", i, alpha)
		}

		col := sh.DCToLinear(c.Property(splat.PropDC0).Floats[i])
		if col < -1e-4 || col > 1+1e-4 {
			t.Fatalf("splat %d colour %v", i, col)
		}
	}
}

func TestGenerateStates(t *testing.T) {
	p := DefaultParams()
	p.Splats = 50
	p.DeletedPct = 100
	c := generate(t, p)
	if n := serialize.CountSplats([]splat.Collection{c}, serialize.DefaultOptions()); n != 0 {
		t.Errorf("%d survivors with every splat deleted", n)
	}

	p.DeletedPct = 0
	p.SelectedPct = 100
	c = generate(t, p)
	opts := serialize.DefaultOptions()
	opts.Selected = true
	if n := serialize.CountSplats([]splat.Collection{c}, opts); n != 50 {
		t.Errorf("%d selected survivors, want 50", n)
	}

	p.SelectedPct = 0
	c = generate(t, p)
	for i, s := range c.Property(splat.PropState).Bytes {
		if s != 0 {
			t.Fatalf("splat %d state %d, want 0", i, s)
		}
	}
}

func TestGeneratePalette(t *testing.T) {
	p := DefaultParams()
	p.Splats = 100
	p.Transforms = 4
	c := generate(t, p)

	if len(c.Transforms) != 4 {
		t.Fatalf("palette size %d, want 4", len(c.Transforms))
	}
	if c.Transforms[0] != math.Identity() {
		t.Error("palette entry 0 is not identity")
	}
	for i, idx := range c.Property(splat.PropTransform).Bytes {
		if int(idx) >= p.Transforms {
			t.Fatalf("splat %d transform index %d", i, idx)
		}
	}
}

func TestGenerateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{"negative splats", func(p *Params) { p.Splats = -1 }},
		{"bands", func(p *Params) { p.Bands = 4 }},
		{"transforms", func(p *Params) { p.Transforms = 300 }},
		{"percentages", func(p *Params) { p.DeletedPct = 70; p.SelectedPct = 40 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			if _, err := Generate(p); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Generate() error = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestGenerateZeroWorld(t *testing.T) {
	p := DefaultParams()
	p.Splats = 1
	p.World = math.Mat4{}
	c := generate(t, p)
	if c.World != math.Identity() {
		t.Error("zero world transform not replaced by identity")
	}
}

func TestGenerateExports(t *testing.T) {
	p := DefaultParams()
	p.Splats = 300
	p.Transforms = 2
	p.DeletedPct = 10
	c := generate(t, p)
	cols := []splat.Collection{c}

	for _, f := range []serialize.Format{serialize.FormatPLY, serialize.FormatCompressedPLY, serialize.FormatSplat} {
		var buf sink.Buffer
		if err := serialize.Export(&buf, f, cols, serialize.DefaultOptions()); err != nil {
			t.Fatalf("%s export: %v", f, err)
		}
		if !buf.Final() || len(buf.Bytes()) == 0 {
			t.Errorf("%s export produced %d bytes, final=%v", f, len(buf.Bytes()), buf.Final())
		}
	}
}
