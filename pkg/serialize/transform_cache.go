package serialize

import (
	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// axisCorrection is a 180 degree rotation about Z.
var axisCorrection = math.Scale(-1, -1, 1)

// bakedTransform holds the lazily derived values for one palette index.
type bakedTransform struct {
	mat   math.Mat4
	rot   math.Quat
	scale math.Vec3
	shRot *sh.Rotation

	hasRot   bool
	hasScale bool
}

// TransformCache bakes the combined transform of each palette index of one
// collection on first use. It lives for a single export call.
type TransformCache struct {
	base    math.Mat4
	palette splat.Palette
	entries map[int]*bakedTransform
}

// NewTransformCache creates a cache for c. With keepWorld the world
// transform and axis correction are skipped and only palette entries apply.
func NewTransformCache(c splat.Collection, keepWorld bool) *TransformCache {
	base := math.Identity()
	if !keepWorld {
		base = axisCorrection.Mul(c.WorldTransform())
	}
	return &TransformCache{
		base:    base,
		palette: c.Palette(),
		entries: make(map[int]*bakedTransform),
	}
}

func (tc *TransformCache) entry(index int) *bakedTransform {
	e, ok := tc.entries[index]
	if !ok {
		e = &bakedTransform{mat: tc.base.Mul(tc.palette.Transform(index))}
		tc.entries[index] = e
	}
	return e
}

// Mat returns the combined matrix for a palette index.
func (tc *TransformCache) Mat(index int) math.Mat4 {
	return tc.entry(index).mat
}

// Rotation returns the unit rotation of the combined matrix.
func (tc *TransformCache) Rotation(index int) math.Quat {
	e := tc.entry(index)
	if !e.hasRot {
		e.rot = e.mat.GetRotation()
		e.hasRot = true
	}
	return e.rot
}

// Scale returns the per-axis scale of the combined matrix.
func (tc *TransformCache) Scale(index int) math.Vec3 {
	e := tc.entry(index)
	if !e.hasScale {
		e.scale = e.mat.GetScale()
		e.hasScale = true
	}
	return e.scale
}

// SHRotation returns the coefficient rotation for the combined matrix.
func (tc *TransformCache) SHRotation(index int) *sh.Rotation {
	e := tc.entry(index)
	if e.shRot == nil {
		e.shRot = sh.NewRotation(tc.Rotation(index).ToMat3())
	}
	return e.shRot
}

// Len returns the number of palette indices baked so far.
func (tc *TransformCache) Len() int {
	return len(tc.entries)
}
