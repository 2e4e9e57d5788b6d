package splat

import "math"

// logitLimit is returned by Logit at the edges of its domain.
const logitLimit = 400

// Sigmoid maps a logit-space opacity to [0,1].
func Sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

// Logit is the inverse of Sigmoid, saturating to ±400 at 0 and 1.
func Logit(v float32) float32 {
	if v <= 0 {
		return -logitLimit
	}
	if v >= 1 {
		return logitLimit
	}
	return float32(-math.Log(1/float64(v) - 1))
}
