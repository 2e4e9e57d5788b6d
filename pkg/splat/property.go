// Package splat describes Gaussian-splat collections as the serializer
// consumes them: parallel per-splat attribute arrays, a world transform,
// a transform palette and colour adjustment state.
package splat

// PropertyType is the declared element type of a vertex property.
type PropertyType uint8

// Supported property element types.
const (
	TypeFloat PropertyType = iota
	TypeUchar
)

// String returns the PLY type name.
func (t PropertyType) String() string {
	switch t {
	case TypeUchar:
		return "uchar"
	default:
		return "float"
	}
}

// Size returns the encoded size in bytes.
func (t PropertyType) Size() int {
	if t == TypeUchar {
		return 1
	}
	return 4
}

// Well-known property names.
const (
	PropX         = "x"
	PropY         = "y"
	PropZ         = "z"
	PropRot0      = "rot_0"
	PropRot1      = "rot_1"
	PropRot2      = "rot_2"
	PropRot3      = "rot_3"
	PropScale0    = "scale_0"
	PropScale1    = "scale_1"
	PropScale2    = "scale_2"
	PropDC0       = "f_dc_0"
	PropDC1       = "f_dc_1"
	PropDC2       = "f_dc_2"
	PropOpacity   = "opacity"
	PropState     = "state"
	PropTransform = "transform"
)

// TypeOf returns the element type a property name is stored with.
func TypeOf(name string) PropertyType {
	if name == PropState || name == PropTransform {
		return TypeUchar
	}
	return TypeFloat
}

// Property is one named per-splat attribute. Exactly one of Floats or
// Bytes carries the storage, according to Type. A property without
// storage is declared but not backed by data.
type Property struct {
	Name   string
	Type   PropertyType
	Floats []float32
	Bytes  []uint8
}

// HasStorage reports whether the property is backed by data.
func (p *Property) HasStorage() bool {
	if p == nil {
		return false
	}
	if p.Type == TypeUchar {
		return p.Bytes != nil
	}
	return p.Floats != nil
}

// Len returns the number of stored values.
func (p *Property) Len() int {
	if p.Type == TypeUchar {
		return len(p.Bytes)
	}
	return len(p.Floats)
}

// Value returns the i-th value as float32.
func (p *Property) Value(i int) float32 {
	if p.Type == TypeUchar {
		return float32(p.Bytes[i])
	}
	return p.Floats[i]
}
