package serialize

import (
	stdmath "math"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// ChunkSize is the number of splats sharing one set of quantization bounds.
const ChunkSize = 256

// ChunkBoundsLen is the number of floats describing one chunk's bounds.
const ChunkBoundsLen = 18

// scaleLimit bounds log-scale values before quantization.
const scaleLimit = 20

// Chunk quantizes up to ChunkSize splats against their shared bounds.
type Chunk struct {
	n int

	position [3][ChunkSize]float32
	scale    [3][ChunkSize]float32
	color    [3][ChunkSize]float32
	opacity  [ChunkSize]float32
	rotation [ChunkSize]math.Quat

	// Bounds holds min/max for position, scale and colour:
	// min xyz, max xyz, min scale xyz, max scale xyz, min rgb, max rgb.
	Bounds [ChunkBoundsLen]float32

	Position [ChunkSize]uint32
	Rotation [ChunkSize]uint32
	Scale    [ChunkSize]uint32
	Color    [ChunkSize]uint32
}

// Reset empties the chunk.
func (c *Chunk) Reset() {
	c.n = 0
}

// Len returns the number of real splats in the chunk.
func (c *Chunk) Len() int {
	return c.n
}

// Full reports whether the chunk holds ChunkSize splats.
func (c *Chunk) Full() bool {
	return c.n == ChunkSize
}

// Add appends an already transformed splat.
func (c *Chunk) Add(s *Splat) {
	i := c.n
	for k := 0; k < 3; k++ {
		c.position[k][i] = s.Position[k]
		c.scale[k][i] = clamp(s.Scale[k], -scaleLimit, scaleLimit)
		c.color[k][i] = sh.DCToLinear(s.Color[k])
	}
	c.opacity[i] = s.Opacity
	c.rotation[i] = s.Quat()
	c.n++
}

// Pack computes the bounds and the packed words of the chunk. A short
// chunk is padded by repeating its last splat so padding never widens the
// bounds.
func (c *Chunk) Pack() {
	if c.n == 0 {
		return
	}
	c.pad()

	posMin, posMax := bounds(&c.position)
	scaleMin, scaleMax := bounds(&c.scale)
	colorMin, colorMax := bounds(&c.color)

	for k := 0; k < 3; k++ {
		c.Bounds[k] = posMin[k]
		c.Bounds[3+k] = posMax[k]
		c.Bounds[6+k] = scaleMin[k]
		c.Bounds[9+k] = scaleMax[k]
		c.Bounds[12+k] = colorMin[k]
		c.Bounds[15+k] = colorMax[k]
	}

	for i := 0; i < ChunkSize; i++ {
		c.Position[i] = Pack111011(
			normalize(c.position[0][i], posMin[0], posMax[0]),
			normalize(c.position[1][i], posMin[1], posMax[1]),
			normalize(c.position[2][i], posMin[2], posMax[2]),
		)
		c.Scale[i] = Pack111011(
			normalize(c.scale[0][i], scaleMin[0], scaleMax[0]),
			normalize(c.scale[1][i], scaleMin[1], scaleMax[1]),
			normalize(c.scale[2][i], scaleMin[2], scaleMax[2]),
		)
		c.Color[i] = Pack8888(
			normalize(c.color[0][i], colorMin[0], colorMax[0]),
			normalize(c.color[1][i], colorMin[1], colorMax[1]),
			normalize(c.color[2][i], colorMin[2], colorMax[2]),
			splat.Sigmoid(c.opacity[i]),
		)
		c.Rotation[i] = PackRotation(c.rotation[i])
	}
}

func (c *Chunk) pad() {
	last := c.n - 1
	for i := c.n; i < ChunkSize; i++ {
		for k := 0; k < 3; k++ {
			c.position[k][i] = c.position[k][last]
			c.scale[k][i] = c.scale[k][last]
			c.color[k][i] = c.color[k][last]
		}
		c.opacity[i] = c.opacity[last]
		c.rotation[i] = c.rotation[last]
	}
}

func bounds(v *[3][ChunkSize]float32) (lo, hi [3]float32) {
	for k := 0; k < 3; k++ {
		lo[k], hi[k] = v[k][0], v[k][0]
		for _, x := range v[k][1:] {
			lo[k] = min(lo[k], x)
			hi[k] = max(hi[k], x)
		}
	}
	return lo, hi
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}

// normalize maps v from [lo, hi] to [0, 1]. A degenerate range maps to 0.
func normalize(v, lo, hi float32) float32 {
	if hi-lo < 0.00001 {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// PackUnorm quantizes v in [0,1] to an unsigned integer of the given width.
func PackUnorm(v float32, bits uint) uint32 {
	t := float64(uint32(1)<<bits - 1)
	q := stdmath.Floor(float64(v)*t + 0.5)
	return uint32(max(0, min(t, q)))
}

// Pack111011 packs three unit values into 11, 10 and 11 bits.
func Pack111011(x, y, z float32) uint32 {
	return PackUnorm(x, 11)<<21 | PackUnorm(y, 10)<<11 | PackUnorm(z, 11)
}

// Pack8888 packs four unit values into one byte each, x in the top byte.
func Pack8888(x, y, z, w float32) uint32 {
	return PackUnorm(x, 8)<<24 | PackUnorm(y, 8)<<16 | PackUnorm(z, 8)<<8 | PackUnorm(w, 8)
}

// PackRotation stores a quaternion as the index of its largest component
// (2 bits) followed by the other three components at 10 bits each.
func PackRotation(q math.Quat) uint32 {
	q = q.Normalize()
	a := [4]float32{q.X, q.Y, q.Z, q.W}

	largest := 0
	for i := 1; i < 4; i++ {
		if stdmath.Abs(float64(a[i])) > stdmath.Abs(float64(a[largest])) {
			largest = i
		}
	}
	if a[largest] < 0 {
		for i := range a {
			a[i] = -a[i]
		}
	}

	const norm = stdmath.Sqrt2 * 0.5
	result := uint32(largest)
	for i := 0; i < 4; i++ {
		if i != largest {
			result = result<<10 | PackUnorm(a[i]*norm+0.5, 10)
		}
	}
	return result
}

// QuantizeSH maps an SH coefficient to a byte.
func QuantizeSH(v float32) uint8 {
	q := stdmath.Round((float64(v)/8 + 0.5) * 256)
	return uint8(max(0, min(255, q)))
}
