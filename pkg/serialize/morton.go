package serialize

import (
	"cmp"
	stdmath "math"
	"slices"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// mortonGrid is the number of cells per axis.
const mortonGrid = 1024

// Ref addresses one splat of the export input list.
type Ref struct {
	Collection int
	Index      int
}

// part1By2 spreads the low 10 bits of x so two zero bits separate each bit.
func part1By2(x uint32) uint32 {
	x &= 0x000003ff
	x = (x ^ (x << 16)) & 0xff0000ff
	x = (x ^ (x << 8)) & 0x0300f00f
	x = (x ^ (x << 4)) & 0x030c30c3
	x = (x ^ (x << 2)) & 0x09249249
	return x
}

// EncodeMorton3 interleaves three 10-bit cell coordinates.
func EncodeMorton3(x, y, z uint32) uint32 {
	return part1By2(z)<<2 | part1By2(y)<<1 | part1By2(x)
}

func cell(v, lo, extent float32) uint32 {
	if extent <= 0 {
		return 0
	}
	c := stdmath.Floor(float64(mortonGrid * (v - lo) / extent))
	return uint32(max(0, min(mortonGrid-1, c)))
}

// SortMorton stably reorders refs by the Morton code of their world-space
// sort centers, discretized over the bounding box of refs.
func SortMorton(refs []Ref, cols []splat.Collection) {
	if len(refs) < 2 {
		return
	}

	centers := make([][]math.Vec3, len(cols))
	for i, c := range cols {
		centers[i] = c.SortCenters()
	}
	center := func(r Ref) math.Vec3 {
		return centers[r.Collection][r.Index]
	}

	lo := center(refs[0])
	hi := lo
	for _, r := range refs[1:] {
		p := center(r)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	extent := hi.Sub(lo)

	type keyed struct {
		code uint32
		ref  Ref
	}
	keys := make([]keyed, len(refs))
	for i, r := range refs {
		p := center(r)
		keys[i] = keyed{
			code: EncodeMorton3(
				cell(p.X, lo.X, extent.X),
				cell(p.Y, lo.Y, extent.Y),
				cell(p.Z, lo.Z, extent.Z),
			),
			ref: r,
		}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		return cmp.Compare(a.code, b.code)
	})

	for i, k := range keys {
		refs[i] = k.ref
	}
}
