package audio

import (
	"github.com/chewxy/math32"

	"github.com/lixenwraith/resonance/vmath"
)

// speedOfSound in world units per second, used for doppler shift
const speedOfSound = 343.0

// dopplerMinRatio/dopplerMaxRatio clamp the pitch shift to avoid extreme
// artifacts on fast-moving sources
const (
	dopplerMinRatio = 0.5
	dopplerMaxRatio = 2.0
)

// defaultPanRange is the horizontal offset that maps to full pan
const defaultPanRange = 400.0

// SpatialEngine computes distance attenuation, stereo panning and doppler
// shift for positional sounds. The listener pose is the only state; all
// derivations are O(1) arithmetic recomputed per trigger.
type SpatialEngine struct {
	listenerPos vmath.Vec3
	listenerVel vmath.Vec3
	panRange    float32
}

// NewSpatialEngine creates a spatial engine with the listener at origin
func NewSpatialEngine() *SpatialEngine {
	return &SpatialEngine{
		panRange: defaultPanRange,
	}
}

// SetListener updates the listener position and velocity
func (e *SpatialEngine) SetListener(pos, vel vmath.Vec3) {
	e.listenerPos = pos
	e.listenerVel = vel
}

// ListenerPosition returns the current listener position
func (e *SpatialEngine) ListenerPosition() vmath.Vec3 {
	return e.listenerPos
}

// SetPanRange sets the horizontal offset mapped to full left/right pan
func (e *SpatialEngine) SetPanRange(r float32) {
	if r > 0 {
		e.panRange = r
	}
}

// Volume attenuates base by distance. Returns 0 at or beyond maxDistance,
// base at distance 0. Rolloff 1 is linear falloff; higher values steepen
// attenuation toward the edge.
func (e *SpatialEngine) Volume(distance float32, base float64, maxDistance, rolloff float32) float64 {
	if maxDistance <= 0 || distance >= maxDistance {
		return 0
	}
	if distance < 0 {
		distance = 0
	}
	att := math32.Pow(1.0-distance/maxDistance, rolloff)
	return base * float64(att)
}

// Pan maps the horizontal offset of sourceX from the listener into left
// and right gain multipliers in [0,1]. Center is (1,1), full left (1,0),
// full right (0,1). Strength scales how hard sources pan at range edges.
func (e *SpatialEngine) Pan(sourceX float32, strength float32) (left, right float64) {
	offset := (sourceX - e.listenerPos.X) / e.panRange
	pan := vmath.Clamp(-1, offset, 1) * strength
	left = float64(vmath.Clamp(0, 1-pan, 1))
	right = float64(vmath.Clamp(0, 1+pan, 1))
	return left, right
}

// Doppler returns the pitch ratio for a moving source. The classic
// relative-velocity ratio along the source-listener line is blended toward
// 1.0 by factor and clamped to [0.5, 2.0].
func (e *SpatialEngine) Doppler(sourcePos, sourceVel vmath.Vec3, factor float64) float64 {
	if factor <= 0 {
		return 1.0
	}

	dir := vmath.Sub(sourcePos, e.listenerPos)
	if vmath.LengthSq(dir) == 0 {
		return 1.0
	}
	dir = vmath.Normalize(dir)

	// Radial speed along the connecting line; positive = receding
	relVel := vmath.Sub(sourceVel, e.listenerVel)
	radial := vmath.Dot(relVel, dir)

	ratio := speedOfSound / (speedOfSound + float64(radial))
	ratio = 1.0 + (ratio-1.0)*factor
	if ratio < dopplerMinRatio {
		ratio = dopplerMinRatio
	} else if ratio > dopplerMaxRatio {
		ratio = dopplerMaxRatio
	}
	return ratio
}
