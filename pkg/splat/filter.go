package splat

import "math"

// FilterOptions selects which splats take part in an export.
type FilterOptions struct {
	SelectedOnly  bool
	MinOpacity    float32
	RemoveInvalid bool
}

// Filter decides per-splat inclusion for one bound collection at a time.
type Filter struct {
	opts    FilterOptions
	state   *Property
	opacity *Property
	props   []*Property
}

// NewFilter creates a filter with the given policy.
func NewFilter(opts FilterOptions) *Filter {
	return &Filter{opts: opts}
}

// Bind points the filter at a collection's storage.
func (f *Filter) Bind(c Collection) {
	f.state = storageOrNil(c.Property(PropState))
	f.opacity = storageOrNil(c.Property(PropOpacity))

	f.props = f.props[:0]
	if f.opts.RemoveInvalid {
		for _, p := range c.Properties() {
			if p.HasStorage() && p.Type == TypeFloat {
				f.props = append(f.props, p)
			}
		}
	}
}

// Test reports whether splat i of the bound collection is exported.
func (f *Filter) Test(i int) bool {
	var state uint8
	if f.state != nil {
		state = uint8(f.state.Value(i))
	}

	if IsDeleted(state) {
		return false
	}

	if f.opts.SelectedOnly && state != StateSelected {
		return false
	}

	if f.opts.MinOpacity > 0 && f.opacity != nil {
		if Sigmoid(f.opacity.Value(i)) < f.opts.MinOpacity {
			return false
		}
	}

	if f.opts.RemoveInvalid {
		for _, p := range f.props {
			v := float64(p.Floats[i])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// Count binds c and returns how many of its splats pass.
func (f *Filter) Count(c Collection) int {
	f.Bind(c)
	n := 0
	for i := 0; i < c.NumSplats(); i++ {
		if f.Test(i) {
			n++
		}
	}
	return n
}

func storageOrNil(p *Property) *Property {
	if p.HasStorage() {
		return p
	}
	return nil
}
