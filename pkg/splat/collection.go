package splat

import (
	"errors"
	"fmt"

	"github.com/Faultbox/splatpack/pkg/math"
)

// Collection errors.
var (
	ErrLengthMismatch    = errors.New("property length does not match splat count")
	ErrDuplicateProperty = errors.New("duplicate property")
)

// Collection is a read-only view of one splat collection. Implementations
// must not be mutated while an export is reading them.
type Collection interface {
	// NumSplats returns N, the length of every attribute array.
	NumSplats() int
	// Properties returns the declared vertex properties in order.
	Properties() []*Property
	// Property returns the named property or nil.
	Property(name string) *Property
	// WorldTransform returns the collection's model-to-world matrix.
	WorldTransform() math.Mat4
	// Palette returns the per-splat sub-transform palette.
	Palette() Palette
	// SortCenters returns world-space centers, one per splat.
	SortCenters() []math.Vec3
	// Adjustment returns the colour grading state.
	Adjustment() ColorAdjustment
}

// Palette is an ordered list of sub-transforms. Index 0 is identity.
type Palette []math.Mat4

// Transform returns the i-th palette entry. Index 0 and unknown indices
// resolve to identity.
func (p Palette) Transform(i int) math.Mat4 {
	if i <= 0 || i >= len(p) {
		return math.Identity()
	}
	return p[i]
}

// Cloud is an in-memory Collection.
type Cloud struct {
	n       int
	props   []*Property
	byName  map[string]*Property
	centers []math.Vec3

	World      math.Mat4
	Transforms Palette
	Adjust     ColorAdjustment
}

// NewCloud creates an empty cloud of n splats with identity transforms.
func NewCloud(n int) *Cloud {
	return &Cloud{
		n:      n,
		byName: make(map[string]*Property),
		World:  math.Identity(),
		Adjust: DefaultAdjustment(),
	}
}

// AddFloat adds a float property.
func (c *Cloud) AddFloat(name string, values []float32) error {
	return c.add(&Property{Name: name, Type: TypeFloat, Floats: values})
}

// AddBytes adds a uchar property.
func (c *Cloud) AddBytes(name string, values []uint8) error {
	return c.add(&Property{Name: name, Type: TypeUchar, Bytes: values})
}

// Declare adds a property without storage.
func (c *Cloud) Declare(name string, t PropertyType) error {
	return c.add(&Property{Name: name, Type: t})
}

func (c *Cloud) add(p *Property) error {
	if _, ok := c.byName[p.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProperty, p.Name)
	}
	if p.HasStorage() && p.Len() != c.n {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrLengthMismatch, p.Name, p.Len(), c.n)
	}
	c.props = append(c.props, p)
	c.byName[p.Name] = p
	return nil
}

// SetSortCenters overrides the world-space centers.
func (c *Cloud) SetSortCenters(centers []math.Vec3) error {
	if len(centers) != c.n {
		return fmt.Errorf("%w: %d centers, want %d", ErrLengthMismatch, len(centers), c.n)
	}
	c.centers = centers
	return nil
}

// NumSplats implements Collection.
func (c *Cloud) NumSplats() int { return c.n }

// Properties implements Collection.
func (c *Cloud) Properties() []*Property { return c.props }

// Property implements Collection.
func (c *Cloud) Property(name string) *Property { return c.byName[name] }

// WorldTransform implements Collection.
func (c *Cloud) WorldTransform() math.Mat4 { return c.World }

// Palette implements Collection.
func (c *Cloud) Palette() Palette { return c.Transforms }

// Adjustment implements Collection.
func (c *Cloud) Adjustment() ColorAdjustment { return c.Adjust }

// SortCenters implements Collection. Without explicit centers the
// positions are taken through the world transform on every call.
func (c *Cloud) SortCenters() []math.Vec3 {
	if c.centers != nil {
		return c.centers
	}
	centers := make([]math.Vec3, c.n)
	x, y, z := c.byName[PropX], c.byName[PropY], c.byName[PropZ]
	if x.HasStorage() && y.HasStorage() && z.HasStorage() {
		for i := range centers {
			centers[i] = c.World.TransformVec3(math.Vec3{X: x.Value(i), Y: y.Value(i), Z: z.Value(i)})
		}
	}
	return centers
}
