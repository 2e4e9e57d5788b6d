// Package viewer assembles self-contained viewer packages around a
// compressed PLY export.
package viewer

import (
	"errors"
	"fmt"
	stdmath "math"
	"slices"

	"go.uber.org/multierr"
)

// ErrInvalidSettings is returned when a settings document fails validation.
var ErrInvalidSettings = errors.New("invalid viewer settings")

// Camera start modes.
const (
	StartAnimNone  = "none"
	StartAnimOrbit = "orbit"
	StartAnimTrack = "animTrack"
)

// Animation track loop modes.
const (
	LoopNone     = "none"
	LoopRepeat   = "repeat"
	LoopPingPong = "pingpong"
)

// Keyframe interpolation modes.
const (
	InterpolationStep   = "step"
	InterpolationSpline = "spline"
)

// TargetCamera is the only animated target kind.
const TargetCamera = "camera"

// Settings is the document shipped next to the scene as settings.json.
type Settings struct {
	Camera     CameraSettings     `json:"camera" yaml:"camera"`
	Background BackgroundSettings `json:"background" yaml:"background"`
	AnimTracks []AnimTrack        `json:"animTracks" yaml:"anim_tracks"`
}

// CameraSettings positions the initial camera.
type CameraSettings struct {
	FOV       float32    `json:"fov" yaml:"fov"`
	Position  [3]float32 `json:"position" yaml:"position"`
	Target    [3]float32 `json:"target" yaml:"target"`
	StartAnim string     `json:"startAnim" yaml:"start_anim"`
	AnimTrack string     `json:"animTrack" yaml:"anim_track"`
}

// BackgroundSettings holds the clear colour.
type BackgroundSettings struct {
	Color [3]float32 `json:"color" yaml:"color"`
}

// AnimTrack is a named camera animation.
type AnimTrack struct {
	Name          string    `json:"name" yaml:"name"`
	Duration      float32   `json:"duration" yaml:"duration"`
	FrameRate     float32   `json:"frameRate" yaml:"frame_rate"`
	Target        string    `json:"target" yaml:"target"`
	LoopMode      string    `json:"loopMode" yaml:"loop_mode"`
	Interpolation string    `json:"interpolation" yaml:"interpolation"`
	Keyframes     Keyframes `json:"keyframes" yaml:"keyframes"`
}

// Keyframes stores key times and flattened xyz values, three per key.
type Keyframes struct {
	Times  []float32      `json:"times" yaml:"times"`
	Values KeyframeValues `json:"values" yaml:"values"`
}

// KeyframeValues holds the animated camera position and look-at target.
type KeyframeValues struct {
	Position []float32 `json:"position" yaml:"position"`
	Target   []float32 `json:"target" yaml:"target"`
}

// DefaultSettings returns a static camera looking at the origin.
func DefaultSettings() Settings {
	return Settings{
		Camera: CameraSettings{
			FOV:       50,
			Position:  [3]float32{2, 2, -2},
			StartAnim: StartAnimNone,
		},
		Background: BackgroundSettings{
			Color: [3]float32{0.4, 0.4, 0.4},
		},
	}
}

// Track returns the animation track with the given name.
func (s *Settings) Track(name string) (*AnimTrack, bool) {
	for i := range s.AnimTracks {
		if s.AnimTracks[i].Name == name {
			return &s.AnimTracks[i], true
		}
	}
	return nil, false
}

// Validate checks the document and reports every problem found.
func (s *Settings) Validate() error {
	var err error

	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		err = multierr.Append(err, fmt.Errorf("camera fov %v out of range (0, 180)", s.Camera.FOV))
	}

	switch s.Camera.StartAnim {
	case StartAnimNone, StartAnimOrbit:
	case StartAnimTrack:
		if _, ok := s.Track(s.Camera.AnimTrack); !ok {
			err = multierr.Append(err, fmt.Errorf("camera anim track %q not defined", s.Camera.AnimTrack))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown start anim %q", s.Camera.StartAnim))
	}

	for k, c := range s.Background.Color {
		if c < 0 || c > 1 {
			err = multierr.Append(err, fmt.Errorf("background color[%d] = %v out of range [0, 1]", k, c))
		}
	}

	names := make(map[string]bool, len(s.AnimTracks))
	for i := range s.AnimTracks {
		t := &s.AnimTracks[i]
		if names[t.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate anim track %q", t.Name))
		}
		names[t.Name] = true
		err = multierr.Append(err, t.validate())
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

func (t *AnimTrack) validate() error {
	var err error
	fail := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("track %q: "+format, append([]any{t.Name}, args...)...))
	}

	if t.Name == "" {
		fail("empty name")
	}
	if t.Duration <= 0 {
		fail("duration %v must be positive", t.Duration)
	}
	if t.FrameRate <= 0 {
		fail("frame rate %v must be positive", t.FrameRate)
	}
	if t.Target != TargetCamera {
		fail("unknown target %q", t.Target)
	}
	if !slices.Contains([]string{LoopNone, LoopRepeat, LoopPingPong}, t.LoopMode) {
		fail("unknown loop mode %q", t.LoopMode)
	}
	if !slices.Contains([]string{InterpolationStep, InterpolationSpline}, t.Interpolation) {
		fail("unknown interpolation %q", t.Interpolation)
	}

	times := t.Keyframes.Times
	if len(times) == 0 {
		fail("no keyframes")
	}
	for i, v := range times {
		if v < 0 || v > t.Duration {
			fail("keyframe %d time %v outside [0, %v]", i, v, t.Duration)
		}
		if i > 0 && v < times[i-1] {
			fail("keyframe times not ascending at %d", i)
		}
	}
	if n := len(t.Keyframes.Values.Position); n != 3*len(times) {
		fail("%d position values for %d keyframes", n, len(times))
	}
	if n := len(t.Keyframes.Values.Target); n != 3*len(times) {
		fail("%d target values for %d keyframes", n, len(times))
	}
	return err
}

// OrbitTrack builds a looping camera track that circles the camera target
// at the camera's horizontal distance and height, with keys keyframes
// spread evenly over duration.
func OrbitTrack(name string, cam CameraSettings, duration float32, keys int) AnimTrack {
	keys = max(keys, 2)
	dx := float64(cam.Position[0] - cam.Target[0])
	dz := float64(cam.Position[2] - cam.Target[2])
	radius := stdmath.Hypot(dx, dz)
	start := stdmath.Atan2(dz, dx)

	t := AnimTrack{
		Name:          name,
		Duration:      duration,
		FrameRate:     30,
		Target:        TargetCamera,
		LoopMode:      LoopRepeat,
		Interpolation: InterpolationSpline,
	}
	for i := 0; i < keys; i++ {
		frac := float64(i) / float64(keys-1)
		angle := start + 2*stdmath.Pi*frac
		t.Keyframes.Times = append(t.Keyframes.Times, duration*float32(frac))
		t.Keyframes.Values.Position = append(t.Keyframes.Values.Position,
			cam.Target[0]+float32(radius*stdmath.Cos(angle)),
			cam.Position[1],
			cam.Target[2]+float32(radius*stdmath.Sin(angle)),
		)
		t.Keyframes.Values.Target = append(t.Keyframes.Values.Target, cam.Target[:]...)
	}
	return t
}
