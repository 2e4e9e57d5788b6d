// Package synth generates deterministic splat clouds for the CLI and tests.
package synth

import (
	"errors"
	"fmt"
	stdmath "math"
	"math/rand"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// ErrInvalidParams is returned by Generate for out-of-range parameters.
var ErrInvalidParams = errors.New("invalid synth parameters")

// maxTransforms is the palette size addressable by the uchar transform property.
const maxTransforms = 256

// restSigma is the spread of the generated higher-order SH coefficients.
const restSigma = 0.1

// Params describes a generated cloud.
type Params struct {
	Splats int
	Seed   int64
	Bands  int
	// Radius of the ball positions are drawn from.
	Radius float32
	// Transforms is the palette size. Values above 1 add a transform
	// property and a palette of translated and rotated copies.
	Transforms int

	// Percentages of splats flagged deleted and selected.
	DeletedPct  float32
	SelectedPct float32

	World  math.Mat4
	Adjust splat.ColorAdjustment
}

// DefaultParams returns a small cloud with identity transforms.
func DefaultParams() Params {
	return Params{
		Splats:     1000,
		Seed:       1,
		Bands:      sh.MaxBands,
		Radius:     1,
		Transforms: 1,
		World:      math.Identity(),
		Adjust:     splat.DefaultAdjustment(),
	}
}

func (p Params) validate() error {
	switch {
	case p.Splats < 0:
		return fmt.Errorf("%w: %d splats", ErrInvalidParams, p.Splats)
	case p.Bands < 0 || p.Bands > sh.MaxBands:
		return fmt.Errorf("%w: %d bands", ErrInvalidParams, p.Bands)
	case p.Transforms > maxTransforms:
		return fmt.Errorf("%w: %d transforms exceeds %d", ErrInvalidParams, p.Transforms, maxTransforms)
	case p.DeletedPct < 0 || p.SelectedPct < 0 || p.DeletedPct+p.SelectedPct > 100:
		return fmt.Errorf("%w: state percentages %v/%v", ErrInvalidParams, p.DeletedPct, p.SelectedPct)
	}
	return nil
}

// Generate builds a cloud from p. The same parameters always produce the
// same cloud.
func Generate(p Params) (*splat.Cloud, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.World == (math.Mat4{}) {
		p.World = math.Identity()
	}

	rng := rand.New(rand.NewSource(p.Seed))
	n := p.Splats
	c := splat.NewCloud(n)
	c.World = p.World
	c.Adjust = p.Adjust

	g := &generator{rng: rng, radius: p.Radius}

	pos := [3][]float32{make([]float32, n), make([]float32, n), make([]float32, n)}
	rot := [4][]float32{make([]float32, n), make([]float32, n), make([]float32, n), make([]float32, n)}
	scale := [3][]float32{make([]float32, n), make([]float32, n), make([]float32, n)}
	dc := [3][]float32{make([]float32, n), make([]float32, n), make([]float32, n)}
	opacity := make([]float32, n)

	for i := 0; i < n; i++ {
		v := g.position()
		pos[0][i], pos[1][i], pos[2][i] = v.X, v.Y, v.Z

		q := g.rotation()
		rot[0][i], rot[1][i], rot[2][i], rot[3][i] = q.W, q.X, q.Y, q.Z

		for k := 0; k < 3; k++ {
			scale[k][i] = g.logScale()
			dc[k][i] = sh.LinearToDC(rng.Float32())
		}
		opacity[i] = splat.Logit(0.05 + 0.94*rng.Float32())
	}

	props := []struct {
		name   string
		values []float32
	}{
		{splat.PropX, pos[0]}, {splat.PropY, pos[1]}, {splat.PropZ, pos[2]},
		{splat.PropRot0, rot[0]}, {splat.PropRot1, rot[1]}, {splat.PropRot2, rot[2]}, {splat.PropRot3, rot[3]},
		{splat.PropScale0, scale[0]}, {splat.PropScale1, scale[1]}, {splat.PropScale2, scale[2]},
		{splat.PropDC0, dc[0]}, {splat.PropDC1, dc[1]}, {splat.PropDC2, dc[2]},
		{splat.PropOpacity, opacity},
	}
	for _, prop := range props {
		if err := c.AddFloat(prop.name, prop.values); err != nil {
			return nil, err
		}
	}

	for _, name := range sh.RestNames(p.Bands) {
		values := make([]float32, n)
		for i := range values {
			values[i] = float32(rng.NormFloat64() * restSigma)
		}
		if err := c.AddFloat(name, values); err != nil {
			return nil, err
		}
	}

	if err := c.AddBytes(splat.PropState, g.states(n, p.DeletedPct, p.SelectedPct)); err != nil {
		return nil, err
	}

	if p.Transforms > 1 {
		c.Transforms = g.palette(p.Transforms)
		indices := make([]uint8, n)
		for i := range indices {
			indices[i] = uint8(rng.Intn(p.Transforms))
		}
		if err := c.AddBytes(splat.PropTransform, indices); err != nil {
			return nil, err
		}
	}

	return c, nil
}

type generator struct {
	rng    *rand.Rand
	radius float32
}

// position samples the ball uniformly.
func (g *generator) position() math.Vec3 {
	d := g.direction()
	r := g.radius * float32(stdmath.Cbrt(g.rng.Float64()))
	return d.Scale(r)
}

// direction returns a unit vector on the sphere (Marsaglia).
func (g *generator) direction() math.Vec3 {
	for {
		u := 2*g.rng.Float64() - 1
		v := 2*g.rng.Float64() - 1
		s := u*u + v*v
		if s > 0 && s < 1 {
			f := 2 * stdmath.Sqrt(1-s)
			return math.Vec3{X: float32(u * f), Y: float32(v * f), Z: float32(1 - 2*s)}
		}
	}
}

// rotation returns a uniformly distributed unit quaternion.
func (g *generator) rotation() math.Quat {
	for {
		q := math.Quat{
			X: float32(g.rng.NormFloat64()),
			Y: float32(g.rng.NormFloat64()),
			Z: float32(g.rng.NormFloat64()),
			W: float32(g.rng.NormFloat64()),
		}
		if q.Length() > 1e-6 {
			return q.Normalize()
		}
	}
}

// logScale draws a per-axis extent between 0.5% and 5% of the radius.
func (g *generator) logScale() float32 {
	extent := float64(g.radius) * (0.005 + 0.045*g.rng.Float64())
	return float32(stdmath.Log(extent))
}

func (g *generator) states(n int, deletedPct, selectedPct float32) []uint8 {
	states := make([]uint8, n)
	deleted := float64(deletedPct) / 100
	selected := deleted + float64(selectedPct)/100
	for i := range states {
		switch u := g.rng.Float64(); {
		case u < deleted:
			states[i] = splat.StateDeleted
		case u < selected:
			states[i] = splat.StateSelected
		}
	}
	return states
}

// palette builds count entries. Entry 0 stays identity, the rest rotate
// about Y and shift along X.
func (g *generator) palette(count int) splat.Palette {
	p := make(splat.Palette, count)
	p[0] = math.Identity()
	for i := 1; i < count; i++ {
		angle := float32(2 * stdmath.Pi * g.rng.Float64())
		offset := math.Vec3{X: 2 * g.radius * float32(i)}
		rot := math.QuatFromAxisAngle(math.Vec3{Y: 1}, angle)
		p[i] = math.TRS(offset, rot, math.Vec3{X: 1, Y: 1, Z: 1})
	}
	return p
}
