package serialize

import (
	stdmath "math"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// Splat is one splat after transform baking and colour adjustment.
type Splat struct {
	Position [3]float32
	// Rotation is rot_0..rot_3 with rot_0 the scalar part.
	Rotation [4]float32
	// Scale is the natural log of the per-axis extent.
	Scale   [3]float32
	Color   [3]float32
	Opacity float32
	// SH holds higher-order coefficients per channel.
	SH    [3][sh.MaxCoeffs]float32
	State uint8
	Extra []float32
}

// Quat returns the rotation as a quaternion.
func (s *Splat) Quat() math.Quat {
	return math.Quat{X: s.Rotation[1], Y: s.Rotation[2], Z: s.Rotation[3], W: s.Rotation[0]}
}

// SetQuat stores q into Rotation.
func (s *Splat) SetQuat(q math.Quat) {
	s.Rotation = [4]float32{q.W, q.X, q.Y, q.Z}
}

// Fields selects the attribute groups a Reader extracts.
type Fields struct {
	Position bool
	Rotation bool
	Scale    bool
	Color    bool
	Opacity  bool
	State    bool
	// Bands is the number of SH bands to extract. Bands a collection does
	// not store are filled with DefaultValue.
	Bands int
	// Extra lists pass-through float properties copied into Splat.Extra.
	Extra []string
}

// AllFields returns the core attribute groups with the given SH bands.
func AllFields(bands int) Fields {
	return Fields{
		Position: true,
		Rotation: true,
		Scale:    true,
		Color:    true,
		Opacity:  true,
		Bands:    bands,
	}
}

// ReaderOptions controls transform and colour baking.
type ReaderOptions struct {
	KeepWorldTransform bool
	KeepColorTint      bool
}

// defaultValues are used for attributes a collection does not store.
// Every other attribute defaults to zero.
var defaultValues = map[string]float32{
	splat.PropRot0: 1,
}

// DefaultValue returns the value synthesized for a missing attribute.
func DefaultValue(name string) float32 {
	return defaultValues[name]
}

var (
	positionNames = [3]string{splat.PropX, splat.PropY, splat.PropZ}
	rotationNames = [4]string{splat.PropRot0, splat.PropRot1, splat.PropRot2, splat.PropRot3}
	scaleNames    = [3]string{splat.PropScale0, splat.PropScale1, splat.PropScale2}
	colorNames    = [3]string{splat.PropDC0, splat.PropDC1, splat.PropDC2}
)

// source caches the per-collection lookups of a Reader.
type source struct {
	transforms *TransformCache

	position  [3]*splat.Property
	rotation  [4]*splat.Property
	scale     [3]*splat.Property
	color     [3]*splat.Property
	opacity   *splat.Property
	state     *splat.Property
	transform *splat.Property
	rest      []*splat.Property
	srcCoeffs int
	extra     []*splat.Property

	adjust          splat.ColorAdjustment
	hasTint         bool
	hasTransparency bool
}

// Reader extracts normalised Splat records from collections. Its caches
// are keyed by the collection's index in the export's input list and are
// meant for a single export call.
type Reader struct {
	fields  Fields
	opts    ReaderOptions
	coeffs  int
	sources map[int]*source

	lastIndex  int
	lastSource *source
}

// NewReader creates a reader for the given fields.
func NewReader(fields Fields, opts ReaderOptions) *Reader {
	fields.Bands = max(0, min(fields.Bands, sh.MaxBands))
	return &Reader{
		fields:    fields,
		opts:      opts,
		coeffs:    sh.Coeffs(fields.Bands),
		sources:   make(map[int]*source),
		lastIndex: -1,
	}
}

// Coeffs returns the per-channel SH coefficient count being extracted.
func (r *Reader) Coeffs() int {
	return r.coeffs
}

func (r *Reader) source(ci int, c splat.Collection) *source {
	if ci == r.lastIndex {
		return r.lastSource
	}
	src, ok := r.sources[ci]
	if !ok {
		src = r.newSource(c)
		r.sources[ci] = src
	}
	r.lastIndex, r.lastSource = ci, src
	return src
}

func (r *Reader) newSource(c splat.Collection) *source {
	lookup := func(name string) *splat.Property {
		if p := c.Property(name); p.HasStorage() {
			return p
		}
		return nil
	}

	src := &source{
		transforms: NewTransformCache(c, r.opts.KeepWorldTransform),
		opacity:    lookup(splat.PropOpacity),
		state:      lookup(splat.PropState),
		transform:  lookup(splat.PropTransform),
		adjust:     c.Adjustment(),
	}
	for i, name := range positionNames {
		src.position[i] = lookup(name)
	}
	for i, name := range rotationNames {
		src.rotation[i] = lookup(name)
	}
	for i, name := range scaleNames {
		src.scale[i] = lookup(name)
	}
	for i, name := range colorNames {
		src.color[i] = lookup(name)
	}

	if r.coeffs > 0 {
		src.srcCoeffs = sh.Coeffs(splat.Bands(c))
		src.rest = make([]*splat.Property, src.srcCoeffs*3)
		for i := range src.rest {
			src.rest[i] = lookup(sh.RestName(i))
		}
	}

	for _, name := range r.fields.Extra {
		src.extra = append(src.extra, lookup(name))
	}

	src.hasTint = src.adjust.HasTint()
	src.hasTransparency = src.adjust.HasTransparency()
	return src
}

func valueOr(p *splat.Property, i int, def float32) float32 {
	if p == nil {
		return def
	}
	return p.Value(i)
}

// Read extracts splat i of collection c (at index ci of the input list)
// into out, applying the baked transform and colour adjustment.
func (r *Reader) Read(ci int, c splat.Collection, i int, out *Splat) {
	src := r.source(ci, c)
	f := &r.fields

	index := int(valueOr(src.transform, i, 0))

	if f.Position {
		var p [3]float32
		for k, prop := range src.position {
			p[k] = valueOr(prop, i, DefaultValue(positionNames[k]))
		}
		out.Position = src.transforms.Mat(index).TransformPoint(p)
	}

	if f.Rotation {
		for k, prop := range src.rotation {
			out.Rotation[k] = valueOr(prop, i, DefaultValue(rotationNames[k]))
		}
		out.SetQuat(src.transforms.Rotation(index).Mul(out.Quat()))
	}

	if f.Scale {
		s := src.transforms.Scale(index).Array()
		for k, prop := range src.scale {
			v := valueOr(prop, i, DefaultValue(scaleNames[k]))
			out.Scale[k] = float32(stdmath.Log(stdmath.Exp(float64(v)) * float64(s[k])))
		}
	}

	if f.Color {
		for k, prop := range src.color {
			out.Color[k] = valueOr(prop, i, DefaultValue(colorNames[k]))
		}
	}

	if f.Opacity {
		out.Opacity = valueOr(src.opacity, i, DefaultValue(splat.PropOpacity))
	}

	if f.State {
		out.State = uint8(valueOr(src.state, i, 0))
	}

	if r.coeffs > 0 {
		for ch := 0; ch < 3; ch++ {
			for k := 0; k < r.coeffs; k++ {
				var v float32
				if k < src.srcCoeffs {
					v = valueOr(src.rest[ch*src.srcCoeffs+k], i, 0)
				}
				out.SH[ch][k] = v
			}
		}
		shRot := src.transforms.SHRotation(index)
		for ch := 0; ch < 3; ch++ {
			shRot.Apply(out.SH[ch][:r.coeffs])
		}
	}

	if len(src.extra) > 0 {
		out.Extra = out.Extra[:0]
		for k, prop := range src.extra {
			out.Extra = append(out.Extra, valueOr(prop, i, DefaultValue(f.Extra[k])))
		}
	}

	if !r.opts.KeepColorTint {
		if src.hasTint {
			r.applyTint(src, out)
		}
		if src.hasTransparency && f.Opacity {
			out.Opacity = splat.Logit(splat.Sigmoid(out.Opacity) * src.adjust.Transparency)
		}
	}
}

// applyTint maps the base colour and SH terms through the collection's
// levels, tint, temperature and saturation.
func (r *Reader) applyTint(src *source, out *Splat) {
	a := src.adjust
	offset := a.Brightness - a.BlackPoint
	scale := 1 / (a.WhitePoint - a.BlackPoint)
	tint := [3]float32{
		scale * a.Tint[0] * (1 + a.Temperature),
		scale * a.Tint[1],
		scale * a.Tint[2] * (1 - a.Temperature),
	}

	if r.fields.Color {
		var c [3]float32
		for ch := range c {
			c[ch] = (sh.DCToLinear(out.Color[ch]) + offset) * tint[ch]
		}
		saturate(&c, a.Saturation)
		for ch := range c {
			out.Color[ch] = sh.LinearToDC(c[ch])
		}
	}

	for k := 0; k < r.coeffs; k++ {
		c := [3]float32{out.SH[0][k] * tint[0], out.SH[1][k] * tint[1], out.SH[2][k] * tint[2]}
		saturate(&c, a.Saturation)
		for ch := range c {
			out.SH[ch][k] = c[ch]
		}
	}
}

// saturate blends c towards its luma grey.
func saturate(c *[3]float32, saturation float32) {
	if saturation == 1 {
		return
	}
	grey := c[0]*0.299 + c[1]*0.587 + c[2]*0.114
	for ch := range c {
		c[ch] = grey + (c[ch]-grey)*saturation
	}
}
