package audio

import (
	"math"
	"testing"

	"github.com/lixenwraith/resonance/vmath"
)

const volEpsilon = 1e-6

func TestVolumeFalloffBoundaries(t *testing.T) {
	e := NewSpatialEngine()

	if got := e.Volume(500, 1.0, 500, 1.0); got != 0 {
		t.Errorf("volume at max distance = %v, want 0", got)
	}
	if got := e.Volume(600, 1.0, 500, 1.0); got != 0 {
		t.Errorf("volume beyond max distance = %v, want 0", got)
	}
	if got := e.Volume(0, 0.8, 500, 1.0); math.Abs(got-0.8) > volEpsilon {
		t.Errorf("volume at distance 0 = %v, want base 0.8", got)
	}
}

func TestVolumeRolloff(t *testing.T) {
	e := NewSpatialEngine()

	tests := []struct {
		name     string
		distance float32
		rolloff  float32
		want     float64
	}{
		{"linear midpoint", 250, 1.0, 0.5},
		{"steep midpoint", 250, 2.0, 0.25},
		{"linear quarter", 125, 1.0, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Volume(tt.distance, 1.0, 500, tt.rolloff)
			if math.Abs(got-tt.want) > 1e-4 {
				t.Errorf("Volume(%v, rolloff %v) = %v, want %v", tt.distance, tt.rolloff, got, tt.want)
			}
		})
	}
}

func TestPanGains(t *testing.T) {
	e := NewSpatialEngine()
	e.SetPanRange(100)

	tests := []struct {
		name      string
		sourceX   float32
		strength  float32
		wantLeft  float64
		wantRight float64
	}{
		{"center", 0, 1.0, 1, 1},
		{"full right", 100, 1.0, 0, 1},
		{"full left", -100, 1.0, 1, 0},
		{"half right", 50, 1.0, 0.5, 1},
		{"right at half strength", 100, 0.5, 0.5, 1},
		{"beyond range clamps", 400, 1.0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := e.Pan(tt.sourceX, tt.strength)
			if math.Abs(l-tt.wantLeft) > volEpsilon || math.Abs(r-tt.wantRight) > volEpsilon {
				t.Errorf("Pan(%v, %v) = (%v, %v), want (%v, %v)",
					tt.sourceX, tt.strength, l, r, tt.wantLeft, tt.wantRight)
			}
		})
	}
}

func TestPanFollowsListener(t *testing.T) {
	e := NewSpatialEngine()
	e.SetPanRange(100)
	e.SetListener(vmath.Vec3{X: 100}, vmath.Vec3{})

	// Source at the listener's position is centered
	l, r := e.Pan(100, 1.0)
	if l != 1 || r != 1 {
		t.Errorf("pan at listener position = (%v, %v), want (1, 1)", l, r)
	}
}

func TestDoppler(t *testing.T) {
	e := NewSpatialEngine()

	pos := vmath.Vec3{X: 100}

	// Stationary source
	if got := e.Doppler(pos, vmath.Vec3{}, 1.0); math.Abs(got-1.0) > volEpsilon {
		t.Errorf("stationary doppler = %v, want 1.0", got)
	}

	// Approaching source raises pitch
	approach := e.Doppler(pos, vmath.Vec3{X: -34.3}, 1.0)
	if approach <= 1.0 {
		t.Errorf("approaching doppler = %v, want > 1.0", approach)
	}

	// Receding source lowers pitch
	recede := e.Doppler(pos, vmath.Vec3{X: 34.3}, 1.0)
	if recede >= 1.0 {
		t.Errorf("receding doppler = %v, want < 1.0", recede)
	}

	// Factor 0 disables the shift
	if got := e.Doppler(pos, vmath.Vec3{X: -34.3}, 0); got != 1.0 {
		t.Errorf("doppler with factor 0 = %v, want 1.0", got)
	}

	// Extreme approach clamps rather than screeching
	if got := e.Doppler(pos, vmath.Vec3{X: -340}, 1.0); got != dopplerMaxRatio {
		t.Errorf("extreme approach doppler = %v, want clamp %v", got, dopplerMaxRatio)
	}

	// Source on top of the listener is neutral
	if got := e.Doppler(vmath.Vec3{}, vmath.Vec3{X: 50}, 1.0); got != 1.0 {
		t.Errorf("coincident source doppler = %v, want 1.0", got)
	}
}

func TestDopplerBlend(t *testing.T) {
	e := NewSpatialEngine()
	pos := vmath.Vec3{X: 100}

	full := e.Doppler(pos, vmath.Vec3{X: -34.3}, 1.0)
	half := e.Doppler(pos, vmath.Vec3{X: -34.3}, 0.5)

	wantHalf := 1.0 + (full-1.0)*0.5
	if math.Abs(half-wantHalf) > volEpsilon {
		t.Errorf("half-blend doppler = %v, want %v", half, wantHalf)
	}
}
