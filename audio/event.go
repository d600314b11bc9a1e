package audio

import (
	"log"
	"math/rand"
	"time"

	"github.com/lixenwraith/resonance/vmath"
)

// EventConfig declares how a symbolic event name plays. Immutable after
// registration; looked up by exact string key.
type EventConfig struct {
	Sound    string
	Category Category
	Priority Priority

	// Volume is the fixed/base volume. When VolumeMax > 0 the final
	// volume is drawn uniformly from [VolumeMin, VolumeMax] and scaled
	// by Volume. An explicit context override wins outright.
	Volume    float64
	VolumeMin float64
	VolumeMax float64

	// PitchMin/PitchMax draw a resample ratio; zero disables variation
	PitchMin float64
	PitchMax float64

	Spatial     bool
	MaxDistance float32
	Rolloff     float32

	Variations []string

	Cooldown     time.Duration
	MaxInstances int

	FadeIn  time.Duration
	FadeOut time.Duration
}

// EventContext carries per-trigger parameters from the caller
type EventContext struct {
	Position *vmath.Vec3
	Velocity vmath.Vec3
	Volume   *float64 // override, wins over config volume outright
	Loops    int
}

// EventHandler can claim an event before default playback. The first
// registered handler to return true wins and short-circuits dispatch.
type EventHandler func(name string, ctx EventContext) bool

// dispatchFunc performs the actual playback for a resolved trigger
type dispatchFunc func(cfg EventConfig, sound string, volume, pitch float64, ctx EventContext) bool

// EventManager maps symbolic event names ("player.jump") to declarative
// playback configs and resolves triggers into concrete playback calls.
// Cooldown state is keyed globally by event name, not per category or
// position.
type EventManager struct {
	configs     map[string]EventConfig
	handlers    map[string][]EventHandler
	lastTrigger map[string]time.Time
	instances   map[string]int
	clock       TimeProvider
	dispatch    dispatchFunc
}

func newEventManager(clock TimeProvider, dispatch dispatchFunc) *EventManager {
	return &EventManager{
		configs:     make(map[string]EventConfig),
		handlers:    make(map[string][]EventHandler),
		lastTrigger: make(map[string]time.Time),
		instances:   make(map[string]int),
		clock:       clock,
		dispatch:    dispatch,
	}
}

// Register binds an event name to a playback config. Zero volume is
// normalized to full scale so sparse literals behave.
func (em *EventManager) Register(name string, cfg EventConfig) {
	if cfg.Volume == 0 {
		cfg.Volume = 1.0
	}
	if cfg.MaxDistance == 0 {
		cfg.MaxDistance = defaultMaxDistance
	}
	if cfg.Rolloff == 0 {
		cfg.Rolloff = 1.0
	}
	em.configs[name] = cfg
}

// Lookup returns the config for an event name. Callers that want to
// treat unknown names as errors use this instead of Trigger's warning.
func (em *EventManager) Lookup(name string) (EventConfig, bool) {
	cfg, ok := em.configs[name]
	return cfg, ok
}

// RegisterHandler appends a custom handler for the event name
func (em *EventManager) RegisterHandler(name string, h EventHandler) {
	em.handlers[name] = append(em.handlers[name], h)
}

// Trigger resolves an event name into playback. Unknown names warn and
// return false; cooldown and instance-limit rejections are silent.
func (em *EventManager) Trigger(name string, ctx EventContext) bool {
	cfg, ok := em.configs[name]
	if !ok {
		log.Printf("audio: unknown sound event %q", name)
		return false
	}

	now := em.clock.Now()
	if cfg.Cooldown > 0 {
		if last, seen := em.lastTrigger[name]; seen && now.Sub(last) < cfg.Cooldown {
			return false
		}
	}
	if cfg.MaxInstances > 0 && em.instances[name] >= cfg.MaxInstances {
		return false
	}

	for _, h := range em.handlers[name] {
		if h(name, ctx) {
			em.lastTrigger[name] = now
			return true
		}
	}

	sound := em.pickSound(cfg)
	volume := em.resolveVolume(cfg, ctx)
	pitch := em.resolvePitch(cfg)

	if !em.dispatch(cfg, sound, volume, pitch, ctx) {
		return false
	}

	em.lastTrigger[name] = now
	// Instance counts grow until explicitly reset; there is no completion
	// callback decrementing them. Callers reset via ResetInstances.
	em.instances[name]++
	return true
}

// pickSound draws uniformly from the base sound plus variations
func (em *EventManager) pickSound(cfg EventConfig) string {
	if len(cfg.Variations) == 0 {
		return cfg.Sound
	}
	i := rand.Intn(len(cfg.Variations) + 1)
	if i == 0 {
		return cfg.Sound
	}
	return cfg.Variations[i-1]
}

func (em *EventManager) resolveVolume(cfg EventConfig, ctx EventContext) float64 {
	if ctx.Volume != nil {
		return *ctx.Volume
	}
	if cfg.VolumeMax > 0 {
		v := cfg.VolumeMin + rand.Float64()*(cfg.VolumeMax-cfg.VolumeMin)
		return v * cfg.Volume
	}
	return cfg.Volume
}

func (em *EventManager) resolvePitch(cfg EventConfig) float64 {
	if cfg.PitchMax <= 0 {
		return 1.0
	}
	return cfg.PitchMin + rand.Float64()*(cfg.PitchMax-cfg.PitchMin)
}

// InstanceCount returns the tracked instance count for an event name
func (em *EventManager) InstanceCount(name string) int {
	return em.instances[name]
}

// ResetInstances clears the instance count for one event name
func (em *EventManager) ResetInstances(name string) {
	delete(em.instances, name)
}

// ResetAllInstances clears every tracked instance count
func (em *EventManager) ResetAllInstances() {
	em.instances = make(map[string]int)
}
