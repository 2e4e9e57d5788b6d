package serialize

import (
	"slices"
	"testing"

	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/splat"
)

func TestEncodeMorton3(t *testing.T) {
	tests := []struct {
		x, y, z uint32
		want    uint32
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 1, 0, 2},
		{0, 0, 1, 4},
		{3, 0, 0, 9},
		{1023, 1023, 1023, 1<<30 - 1},
	}
	for _, tt := range tests {
		if got := EncodeMorton3(tt.x, tt.y, tt.z); got != tt.want {
			t.Errorf("EncodeMorton3(%d, %d, %d) = %d, want %d", tt.x, tt.y, tt.z, got, tt.want)
		}
	}
}

func centerCloud(t *testing.T, centers ...math.Vec3) *splat.Cloud {
	t.Helper()
	c := splat.NewCloud(len(centers))
	if err := c.SetSortCenters(centers); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSortMorton(t *testing.T) {
	cloud := centerCloud(t,
		math.Vec3{X: 1, Y: 1, Z: 1},
		math.Vec3{X: 0, Y: 0, Z: 0},
		math.Vec3{X: 1, Y: 0, Z: 0},
		math.Vec3{X: 0, Y: 1, Z: 0},
	)
	refs := []Ref{{0, 0}, {0, 1}, {0, 2}, {0, 3}}
	SortMorton(refs, []splat.Collection{cloud})

	want := []Ref{{0, 1}, {0, 2}, {0, 3}, {0, 0}}
	if !slices.Equal(refs, want) {
		t.Errorf("order = %v, want %v", refs, want)
	}
}

func TestSortMortonStable(t *testing.T) {
	a := centerCloud(t, math.Vec3{X: 5}, math.Vec3{X: 5})
	b := centerCloud(t, math.Vec3{X: 5}, math.Vec3{X: 0})
	refs := []Ref{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	SortMorton(refs, []splat.Collection{a, b})

	want := []Ref{{1, 1}, {0, 0}, {0, 1}, {1, 0}}
	if !slices.Equal(refs, want) {
		t.Errorf("order = %v, want %v", refs, want)
	}
}

func TestSortMortonDegenerate(t *testing.T) {
	cloud := centerCloud(t, math.Vec3{X: 1, Y: 1, Z: 1}, math.Vec3{X: 1, Y: 1, Z: 1})
	refs := []Ref{{0, 1}, {0, 0}}
	SortMorton(refs, []splat.Collection{cloud})
	if !slices.Equal(refs, []Ref{{0, 1}, {0, 0}}) {
		t.Errorf("identical centers reordered: %v", refs)
	}
}

func TestCell(t *testing.T) {
	if got := cell(1, 0, 1); got != mortonGrid-1 {
		t.Errorf("cell at max = %d, want %d", got, mortonGrid-1)
	}
	if got := cell(0.5, 0, 1); got != 512 {
		t.Errorf("cell at middle = %d, want 512", got)
	}
	if got := cell(3, 3, 0); got != 0 {
		t.Errorf("cell over empty extent = %d, want 0", got)
	}
}
