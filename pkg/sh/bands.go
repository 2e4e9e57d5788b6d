// Package sh handles spherical-harmonic colour detail: band tiers, the
// f_rest_* property naming and rotation of coefficient vectors.
package sh

import "fmt"

// MaxBands is the highest supported band.
const MaxBands = 3

// MaxCoeffs is the per-channel coefficient count for MaxBands.
const MaxCoeffs = 15

// C0 is the normalisation constant of the band-0 basis function.
const C0 = 0.28209479177387814

// coeffsPerBand maps a band count to its per-channel coefficient count.
var coeffsPerBand = [MaxBands + 1]int{0, 3, 8, 15}

// Coeffs returns the per-channel coefficient count for the given band count.
func Coeffs(bands int) int {
	if bands <= 0 {
		return 0
	}
	if bands > MaxBands {
		bands = MaxBands
	}
	return coeffsPerBand[bands]
}

// BandsForCount returns the band count implied by the total number of
// f_rest values present (all three channels).
func BandsForCount(n int) int {
	switch {
	case n >= 45:
		return 3
	case n >= 24:
		return 2
	case n >= 9:
		return 1
	default:
		return 0
	}
}

// RestName returns the property name of the i-th higher-order coefficient.
func RestName(i int) string {
	return fmt.Sprintf("f_rest_%d", i)
}

// RestNames returns the f_rest_* names for the given band count.
func RestNames(bands int) []string {
	n := Coeffs(bands) * 3
	names := make([]string, n)
	for i := range names {
		names[i] = RestName(i)
	}
	return names
}

// DCToLinear converts a band-0 coefficient to a [0,1] colour value.
func DCToLinear(dc float32) float32 {
	return dc*C0 + 0.5
}

// LinearToDC converts a [0,1] colour value to a band-0 coefficient.
func LinearToDC(c float32) float32 {
	return (c - 0.5) / C0
}
