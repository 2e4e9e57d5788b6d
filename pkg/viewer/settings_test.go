package viewer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestSettingsJSONNames(t *testing.T) {
	s := DefaultSettings()
	s.AnimTracks = []AnimTrack{OrbitTrack("orbit", s.Camera, 10, 4)}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"fov":50`, `"startAnim":"none"`, `"animTrack":""`, `"animTracks":[`, `"frameRate":30`, `"loopMode":"repeat"`, `"keyframes":{"times":[`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("settings JSON missing %s: %s", key, data)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := func() Settings {
		s := DefaultSettings()
		s.AnimTracks = []AnimTrack{OrbitTrack("orbit", s.Camera, 10, 8)}
		s.Camera.StartAnim = StartAnimTrack
		s.Camera.AnimTrack = "orbit"
		return s
	}

	tests := []struct {
		name   string
		modify func(s *Settings)
		want   string
	}{
		{"fov zero", func(s *Settings) { s.Camera.FOV = 0 }, "fov"},
		{"fov too wide", func(s *Settings) { s.Camera.FOV = 180 }, "fov"},
		{"start anim", func(s *Settings) { s.Camera.StartAnim = "spin" }, "start anim"},
		{"missing track", func(s *Settings) { s.Camera.AnimTrack = "fly" }, `"fly" not defined`},
		{"background", func(s *Settings) { s.Background.Color[1] = 2 }, "background"},
		{"duplicate track", func(s *Settings) { s.AnimTracks = append(s.AnimTracks, s.AnimTracks[0]) }, "duplicate"},
		{"duration", func(s *Settings) { s.AnimTracks[0].Duration = 0 }, "duration"},
		{"frame rate", func(s *Settings) { s.AnimTracks[0].FrameRate = -1 }, "frame rate"},
		{"target", func(s *Settings) { s.AnimTracks[0].Target = "light" }, "target"},
		{"loop mode", func(s *Settings) { s.AnimTracks[0].LoopMode = "bounce" }, "loop mode"},
		{"interpolation", func(s *Settings) { s.AnimTracks[0].Interpolation = "cubic" }, "interpolation"},
		{"no keyframes", func(s *Settings) { s.AnimTracks[0].Keyframes = Keyframes{} }, "no keyframes"},
		{"descending", func(s *Settings) { s.AnimTracks[0].Keyframes.Times[2] = 0 }, "ascending"},
		{"short positions", func(s *Settings) {
			k := &s.AnimTracks[0].Keyframes.Values
			k.Position = k.Position[:len(k.Position)-1]
		}, "position values"},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("base settings invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.modify(&s)
			err := s.Validate()
			if !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("Validate() = %v, want ErrInvalidSettings", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSettingsValidateReportsAll(t *testing.T) {
	s := DefaultSettings()
	s.Camera.FOV = -1
	s.Camera.StartAnim = "spin"
	err := s.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := err.Error(); !strings.Contains(msg, "fov") || !strings.Contains(msg, "spin") {
		t.Errorf("Validate() = %v, want both problems", err)
	}
}

func TestOrbitTrack(t *testing.T) {
	cam := CameraSettings{FOV: 60, Position: [3]float32{3, 1, 0}, Target: [3]float32{0, 0, 0}}
	track := OrbitTrack("orbit", cam, 12, 5)

	if len(track.Keyframes.Times) != 5 {
		t.Fatalf("keyframes = %d, want 5", len(track.Keyframes.Times))
	}
	if track.Keyframes.Times[0] != 0 || track.Keyframes.Times[4] != 12 {
		t.Errorf("times = %v", track.Keyframes.Times)
	}

	pos := track.Keyframes.Values.Position
	for k := 0; k < 5; k++ {
		x, y, z := pos[k*3], pos[k*3+1], pos[k*3+2]
		if y != 1 {
			t.Errorf("key %d height = %v, want 1", k, y)
		}
		if r := x*x + z*z; r < 8.99 || r > 9.01 {
			t.Errorf("key %d radius^2 = %v, want 9", k, r)
		}
	}
	// The loop closes on the start position.
	if d := pos[0] - pos[12]; d > 1e-4 || d < -1e-4 {
		t.Errorf("first x %v, last x %v", pos[0], pos[12])
	}
	if d := pos[0] - 3; d > 1e-4 || d < -1e-4 {
		t.Errorf("orbit starts at x %v, want 3", pos[0])
	}

	s := DefaultSettings()
	s.AnimTracks = []AnimTrack{track}
	if err := s.Validate(); err != nil {
		t.Errorf("orbit track invalid: %v", err)
	}
}
