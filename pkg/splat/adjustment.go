package splat

// ColorAdjustment holds a collection's colour grading parameters.
type ColorAdjustment struct {
	Tint         [3]float32 `yaml:"tint" json:"tint"`
	Temperature  float32    `yaml:"temperature" json:"temperature"`
	Saturation   float32    `yaml:"saturation" json:"saturation"`
	Brightness   float32    `yaml:"brightness" json:"brightness"`
	BlackPoint   float32    `yaml:"black_point" json:"blackPoint"`
	WhitePoint   float32    `yaml:"white_point" json:"whitePoint"`
	Transparency float32    `yaml:"transparency" json:"transparency"`
}

// DefaultAdjustment returns the identity adjustment.
func DefaultAdjustment() ColorAdjustment {
	return ColorAdjustment{
		Tint:         [3]float32{1, 1, 1},
		Saturation:   1,
		WhitePoint:   1,
		Transparency: 1,
	}
}

// HasTint reports whether any colour parameter differs from identity.
func (a ColorAdjustment) HasTint() bool {
	return a.Tint != [3]float32{1, 1, 1} ||
		a.Temperature != 0 ||
		a.Saturation != 1 ||
		a.Brightness != 0 ||
		a.BlackPoint != 0 ||
		a.WhitePoint != 1
}

// HasTransparency reports whether opacity is rescaled.
func (a ColorAdjustment) HasTransparency() bool {
	return a.Transparency != 1
}
