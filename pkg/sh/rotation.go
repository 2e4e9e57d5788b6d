package sh

import (
	stdmath "math"

	"github.com/Faultbox/splatpack/pkg/math"
)

// bandMatrix is a (2l+1)x(2l+1) rotation block indexed by m, n in [-l, l].
type bandMatrix struct {
	l int
	v [][]float64
}

func newBandMatrix(l int) *bandMatrix {
	v := make([][]float64, 2*l+1)
	for i := range v {
		v[i] = make([]float64, 2*l+1)
	}
	return &bandMatrix{l: l, v: v}
}

func (b *bandMatrix) at(m, n int) float64 {
	return b.v[m+b.l][n+b.l]
}

func (b *bandMatrix) set(m, n int, value float64) {
	b.v[m+b.l][n+b.l] = value
}

// Rotation rotates per-channel coefficient vectors by a fixed 3D rotation.
// Bands are stored in f_rest order: band 1 (m=-1..1), band 2, band 3.
type Rotation struct {
	bands []*bandMatrix
}

// NewRotation builds the band rotation blocks for a pure rotation matrix.
// Band 1 is the rotation expressed in the (-y, z, -x) basis; higher bands
// follow the Ivanic-Ruedenberg recurrence.
func NewRotation(m math.Mat3) *Rotation {
	r := func(row, col int) float64 { return float64(m.At(row, col)) }

	r1 := newBandMatrix(1)
	r1.v = [][]float64{
		{r(1, 1), -r(1, 2), r(1, 0)},
		{-r(2, 1), r(2, 2), -r(2, 0)},
		{r(0, 1), -r(0, 2), r(0, 0)},
	}

	rot := &Rotation{bands: []*bandMatrix{r1}}
	for l := 2; l <= MaxBands; l++ {
		rot.bands = append(rot.bands, bandRotation(l, r1, rot.bands[l-2]))
	}
	return rot
}

// Apply rotates one channel's coefficients in place. The slice length
// selects the band count (3, 8 or 15); shorter tails are left untouched.
func (r *Rotation) Apply(coeffs []float32) {
	var tmp [2*MaxBands + 1]float64
	offset := 0
	for _, b := range r.bands {
		size := 2*b.l + 1
		if offset+size > len(coeffs) {
			return
		}
		src := coeffs[offset : offset+size]
		for i := 0; i < size; i++ {
			var sum float64
			for j := 0; j < size; j++ {
				sum += b.v[i][j] * float64(src[j])
			}
			tmp[i] = sum
		}
		for i := 0; i < size; i++ {
			src[i] = float32(tmp[i])
		}
		offset += size
	}
}

func bandRotation(l int, r1, prev *bandMatrix) *bandMatrix {
	out := newBandMatrix(l)
	for m := -l; m <= l; m++ {
		for n := -l; n <= l; n++ {
			u, v, w := uvwCoeff(m, n, l)
			var value float64
			if u != 0 {
				value += u * termU(m, n, l, r1, prev)
			}
			if v != 0 {
				value += v * termV(m, n, l, r1, prev)
			}
			if w != 0 {
				value += w * termW(m, n, l, r1, prev)
			}
			out.set(m, n, value)
		}
	}
	return out
}

func kronecker(a, b int) float64 {
	if a == b {
		return 1
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func uvwCoeff(m, n, l int) (u, v, w float64) {
	d := kronecker(m, 0)
	fl, fm, am := float64(l), float64(m), float64(absInt(m))

	var denom float64
	if absInt(n) == l {
		denom = 2 * fl * (2*fl - 1)
	} else {
		fn := float64(n)
		denom = (fl + fn) * (fl - fn)
	}

	u = stdmath.Sqrt((fl + fm) * (fl - fm) / denom)
	v = 0.5 * stdmath.Sqrt((1+d)*(fl+am-1)*(fl+am)/denom) * (1 - 2*d)
	w = -0.5 * stdmath.Sqrt(stdmath.Max(0, (fl-am-1)*(fl-am))/denom) * (1 - d)
	return u, v, w
}

func termP(i, a, b, l int, r1, prev *bandMatrix) float64 {
	ri1 := r1.at(i, 1)
	rim1 := r1.at(i, -1)
	switch b {
	case l:
		return ri1*prev.at(a, l-1) - rim1*prev.at(a, -l+1)
	case -l:
		return ri1*prev.at(a, -l+1) + rim1*prev.at(a, l-1)
	default:
		return r1.at(i, 0) * prev.at(a, b)
	}
}

func termU(m, n, l int, r1, prev *bandMatrix) float64 {
	return termP(0, m, n, l, r1, prev)
}

func termV(m, n, l int, r1, prev *bandMatrix) float64 {
	switch {
	case m == 0:
		return termP(1, 1, n, l, r1, prev) + termP(-1, -1, n, l, r1, prev)
	case m > 0:
		d := kronecker(m, 1)
		v := termP(1, m-1, n, l, r1, prev) * stdmath.Sqrt(1+d)
		if d == 0 {
			v -= termP(-1, -m+1, n, l, r1, prev)
		}
		return v
	default:
		d := kronecker(m, -1)
		v := termP(-1, -m-1, n, l, r1, prev) * stdmath.Sqrt(1+d)
		if d == 0 {
			v += termP(1, m+1, n, l, r1, prev)
		}
		return v
	}
}

func termW(m, n, l int, r1, prev *bandMatrix) float64 {
	switch {
	case m > 0:
		return termP(1, m+1, n, l, r1, prev) + termP(-1, -m-1, n, l, r1, prev)
	case m < 0:
		return termP(1, m-1, n, l, r1, prev) - termP(-1, -m+1, n, l, r1, prev)
	default:
		return 0
	}
}
