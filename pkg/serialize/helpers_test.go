package serialize

import (
	"bytes"
	"encoding/binary"
	stdmath "math"
	"strconv"
	"strings"
	"testing"

	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// testSplat describes one splat of a synthetic cloud.
type testSplat struct {
	pos     [3]float32
	rot     [4]float32
	scale   [3]float32
	dc      [3]float32
	opacity float32
	state   uint8
}

func identitySplat(x, y, z float32) testSplat {
	return testSplat{pos: [3]float32{x, y, z}, rot: [4]float32{1, 0, 0, 0}}
}

// buildCloud creates a cloud holding the core properties, state and the
// requested number of SH bands (coefficient k of channel ch = ch + k/100).
func buildCloud(t *testing.T, splats []testSplat, bands int) *splat.Cloud {
	t.Helper()
	n := len(splats)
	c := splat.NewCloud(n)

	add := func(name string, get func(s testSplat) float32) {
		values := make([]float32, n)
		for i, s := range splats {
			values[i] = get(s)
		}
		if err := c.AddFloat(name, values); err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
	}

	for k, name := range positionNames {
		add(name, func(s testSplat) float32 { return s.pos[k] })
	}
	for k, name := range rotationNames {
		add(name, func(s testSplat) float32 { return s.rot[k] })
	}
	for k, name := range scaleNames {
		add(name, func(s testSplat) float32 { return s.scale[k] })
	}
	for k, name := range colorNames {
		add(name, func(s testSplat) float32 { return s.dc[k] })
	}
	add(splat.PropOpacity, func(s testSplat) float32 { return s.opacity })

	coeffs := sh.Coeffs(bands)
	for i := 0; i < coeffs*3; i++ {
		ch, k := i/coeffs, i%coeffs
		add(sh.RestName(i), func(testSplat) float32 { return float32(ch) + float32(k)/100 })
	}

	states := make([]uint8, n)
	for i, s := range splats {
		states[i] = s.state
	}
	if err := c.AddBytes(splat.PropState, states); err != nil {
		t.Fatalf("adding state: %v", err)
	}
	return c
}

// parsedPLY is a split PLY file.
type parsedPLY struct {
	elements map[string]int
	props    map[string][]string
	types    map[string][]string
	order    []string
	body     []byte
}

func parsePLY(t *testing.T, data []byte) parsedPLY {
	t.Helper()
	end := bytes.Index(data, []byte("end_header\n"))
	if end < 0 {
		t.Fatalf("no end_header in output")
	}
	p := parsedPLY{
		elements: make(map[string]int),
		props:    make(map[string][]string),
		types:    make(map[string][]string),
		body:     data[end+len("end_header\n"):],
	}

	lines := strings.Split(string(data[:end]), "\n")
	if lines[0] != "ply" || lines[1] != "format binary_little_endian 1.0" {
		t.Fatalf("unexpected preamble: %q", lines[:2])
	}
	current := ""
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "element":
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				t.Fatalf("bad element line %q", line)
			}
			current = fields[1]
			p.elements[current] = n
			p.order = append(p.order, current)
		case "property":
			p.types[current] = append(p.types[current], fields[1])
			p.props[current] = append(p.props[current], fields[2])
		}
	}
	return p
}

func (p parsedPLY) rowSize(element string) int {
	size := 0
	for _, typ := range p.types[element] {
		switch typ {
		case "uchar":
			size++
		default:
			size += 4
		}
	}
	return size
}

func readFloat(b []byte) float32 {
	return stdmath.Float32frombits(binary.LittleEndian.Uint32(b))
}

func export(t *testing.T, f Format, cols []splat.Collection, opts Options) []byte {
	t.Helper()
	var out sink.Buffer
	if err := Export(&out, f, cols, opts); err != nil {
		t.Fatalf("export %s: %v", f, err)
	}
	return out.Bytes()
}

func unpackUnorm(v uint32, bits uint) float32 {
	return float32(v) / float32(uint32(1)<<bits-1)
}

func unpack111011(v uint32) [3]float32 {
	return [3]float32{
		unpackUnorm(v>>21, 11),
		unpackUnorm((v>>11)&0x3ff, 10),
		unpackUnorm(v&0x7ff, 11),
	}
}

func unpack8888(v uint32) [4]float32 {
	return [4]float32{
		unpackUnorm(v>>24, 8),
		unpackUnorm((v>>16)&0xff, 8),
		unpackUnorm((v>>8)&0xff, 8),
		unpackUnorm(v&0xff, 8),
	}
}

// unpackRotation returns x, y, z, w.
func unpackRotation(v uint32) [4]float32 {
	largest := int(v >> 30)
	parts := [3]float32{
		unpackUnorm((v>>20)&0x3ff, 10),
		unpackUnorm((v>>10)&0x3ff, 10),
		unpackUnorm(v&0x3ff, 10),
	}
	var q [4]float32
	var sum float32
	p := 0
	for i := 0; i < 4; i++ {
		if i == largest {
			continue
		}
		q[i] = (parts[p] - 0.5) * stdmath.Sqrt2
		sum += q[i] * q[i]
		p++
	}
	q[largest] = float32(stdmath.Sqrt(float64(max(0, 1-sum))))
	return q
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func near(a, b, eps float32) bool {
	return stdmath.Abs(float64(a-b)) <= float64(eps)
}
