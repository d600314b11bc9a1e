package audio

import (
	"errors"
	"time"

	"github.com/lixenwraith/resonance/vmath"
)

// Priority orders sounds for channel allocation and preemption
type Priority int

const (
	PriorityAmbient Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// priorityLevels in descending order, for saturating resolution
var priorityLevels = [...]Priority{
	PriorityCritical,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
	PriorityAmbient,
}

func (p Priority) String() string {
	switch p {
	case PriorityAmbient:
		return "ambient"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// resolvePriority maps an adjusted numeric priority back onto the enum.
// Scans levels in descending order and picks the first whose value is <= v.
// Values below every level saturate to PriorityCritical; callers rely on
// the saturating behavior, so it stays.
func resolvePriority(v float64) Priority {
	for _, p := range priorityLevels {
		if float64(p) <= v {
			return p
		}
	}
	return PriorityCritical
}

// Category partitions the channel pool
type Category int

const (
	CategoryUI Category = iota
	CategoryPlayer
	CategoryEnvironment
	CategoryMusic
	CategoryAmbient
	CategoryVoice
	categoryCount
)

func (c Category) String() string {
	switch c {
	case CategoryUI:
		return "ui"
	case CategoryPlayer:
		return "player"
	case CategoryEnvironment:
		return "environment"
	case CategoryMusic:
		return "music"
	case CategoryAmbient:
		return "ambient"
	case CategoryVoice:
		return "voice"
	}
	return "unknown"
}

// CategoryFromName resolves a config/JSON category name
func CategoryFromName(name string) (Category, bool) {
	for c := Category(0); c < categoryCount; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// Valid reports whether c is a defined category
func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

// Channel pool partition, fixed at manager construction
const (
	totalChannels    = 32
	overflowChannels = 6
)

// categorySlices is the per-category channel allotment; sums with the
// overflow pool to totalChannels
var categorySlices = [categoryCount]int{
	CategoryUI:          4,
	CategoryPlayer:      6,
	CategoryEnvironment: 8,
	CategoryMusic:       2,
	CategoryAmbient:     4,
	CategoryVoice:       2,
}

// SpatialProps describes a positional sound source for one trigger.
// Transient; recomputed every call, never persisted.
type SpatialProps struct {
	Position    vmath.Vec3
	Velocity    vmath.Vec3
	MaxDistance float32
	Rolloff     float32
	Doppler     bool
	MinVolume   float64
	MaxVolume   float64
	PanStrength float32
}

// DefaultSpatialProps returns sane spatial parameters for a source at pos
func DefaultSpatialProps(pos vmath.Vec3) SpatialProps {
	return SpatialProps{
		Position:    pos,
		MaxDistance: defaultMaxDistance,
		Rolloff:     1.0,
		MinVolume:   0.0,
		MaxVolume:   1.0,
		PanStrength: 1.0,
	}
}

const (
	defaultMaxDistance = 800.0
	defaultCacheSize   = 50
	defaultFrameCap    = 8
)

// Sentinel errors
var (
	ErrAudioDisabled    = errors.New("audio device unavailable")
	ErrUnknownEvent     = errors.New("unknown sound event")
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

// agePriorityRate gives playing sounds resistance to preemption as they
// age: effective priority = base + min(age*rate, cap)
const (
	agePriorityRate = 0.1
	agePriorityCap  = 0.5
)

// expectedDurationUnknown marks sounds without a declared length
const expectedDurationUnknown = time.Duration(0)
