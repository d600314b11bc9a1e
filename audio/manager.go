package audio

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep"

	"github.com/lixenwraith/resonance/vmath"
)

// Handle refers to one playback started through the manager. Handles stay
// valid after the underlying channel is preempted and rebound; operations
// on a stale handle are no-ops. Handles are game-loop state: call their
// methods from the host's main loop, like every play and trigger call.
type Handle struct {
	channel *Channel
	token   uuid.UUID
	SoundID string
}

// Active reports whether this playback is still bound and audible
func (h *Handle) Active() bool {
	return h != nil && h.channel.Busy() && h.channel.token == h.token
}

// Stop halts this playback if it is still the one bound to the channel
func (h *Handle) Stop() bool {
	if h == nil {
		return false
	}
	return h.channel.stopIfToken(h.token)
}

// playParams are per-call playback adjustments
type playParams struct {
	volume float64
	loops  int
	pitch  float64
	fadeIn time.Duration
}

// PlayOption adjusts a single playback call
type PlayOption func(*playParams)

// WithVolume scales the sound's base volume (default 1.0)
func WithVolume(v float64) PlayOption {
	return func(p *playParams) { p.volume = v }
}

// WithLoops repeats the sound; negative loops forever
func WithLoops(n int) PlayOption {
	return func(p *playParams) { p.loops = n }
}

// WithPitch shifts playback speed/pitch by a ratio (default 1.0)
func WithPitch(r float64) PlayOption {
	return func(p *playParams) { p.pitch = r }
}

// WithFadeIn ramps the sound in over d
func WithFadeIn(d time.Duration) PlayOption {
	return func(p *playParams) { p.fadeIn = d }
}

// Manager is the façade composing channel allocation, event triggers,
// spatial math, the sound cache, music playback and performance
// monitoring. Construct one explicitly and pass it through the host's
// composition root; there is no package-level instance.
//
// Allocation and trigger state is frame-driven and single-goroutine: all
// play/trigger/update calls belong on the host's main loop. Volume
// setters take a lock and may be called from anywhere.
type Manager struct {
	clock    TimeProvider
	out      output
	channels *ChannelManager
	events   *EventManager
	spatial  *SpatialEngine
	monitor  *PerformanceMonitor
	cache    *soundCache
	music    *musicPlayer

	config     *Config
	configPath string

	disabled atomic.Bool

	mu              sync.RWMutex
	masterVolume    float64
	musicVolume     float64
	sfxVolume       float64
	categoryVolumes [categoryCount]float64

	soundsThisFrame int
	frameCap        int
}

// Option configures a Manager at construction
type Option func(*Manager)

// WithClock substitutes the time source (deterministic tests)
func WithClock(clock TimeProvider) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithConfig supplies a prebuilt configuration
func WithConfig(cfg *Config) Option {
	return func(m *Manager) { m.config = cfg }
}

// WithConfigPath loads configuration from the given JSON file, writing
// defaults when it does not exist
func WithConfigPath(path string) Option {
	return func(m *Manager) {
		m.configPath = path
		m.config = LoadConfig(path)
	}
}

// withOutput substitutes the device seam; tests use a stub
func withOutput(out output) Option {
	return func(m *Manager) { m.out = out }
}

// New builds a manager. Device initialization failure disables audio:
// every subsequent call is a safe no-op and the host keeps running.
func New(opts ...Option) *Manager {
	m := &Manager{
		clock:  NewMonotonicTimeProvider(),
		out:    &speakerOutput{},
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.cache = newSoundCache(m.config.Performance.CacheSize, m.clock, loadSound)
	m.channels = NewChannelManager(m.clock)
	m.spatial = NewSpatialEngine()
	m.monitor = newPerformanceMonitor(m.clock)
	m.events = newEventManager(m.clock, m.dispatchEvent)
	m.music = newMusicPlayer(m.out, m.cache, m.clock, m.musicGain)

	m.applyConfig(m.config)

	if err := m.out.init(); err != nil {
		log.Printf("audio: device init failed, audio disabled: %v", err)
		m.disabled.Store(true)
	}
	return m
}

// applyConfig pushes config values into the live subsystems
func (m *Manager) applyConfig(cfg *Config) {
	m.mu.Lock()
	m.masterVolume = clampUnit(cfg.MasterVolume)
	m.musicVolume = clampUnit(cfg.MusicVolume)
	m.sfxVolume = clampUnit(cfg.SFXVolume)
	for c := Category(0); c < categoryCount; c++ {
		m.categoryVolumes[c] = clampUnit(cfg.Categories[c].Volume)
	}
	m.mu.Unlock()

	for c := Category(0); c < categoryCount; c++ {
		m.channels.SetMaxConcurrent(c, cfg.Categories[c].MaxConcurrent)
		m.channels.SetPriorityBoost(c, cfg.Categories[c].PriorityBoost)
	}
	m.cache.setMaxSize(cfg.Performance.CacheSize)
	m.frameCap = cfg.Performance.MaxConcurrentSounds
	if m.frameCap <= 0 {
		m.frameCap = defaultFrameCap
	}
	m.music.refreshGain()
}

// Enabled reports whether the audio device initialized
func (m *Manager) Enabled() bool {
	return !m.disabled.Load()
}

// PlaySFX plays a cached sound on the category's channel slice.
// Returns nil when the sound was dropped (throttled, missing asset, or
// no allocatable channel); dropped sounds are never an error.
func (m *Manager) PlaySFX(path string, cat Category, prio Priority, opts ...PlayOption) *Handle {
	p := playParams{volume: 1.0, pitch: 1.0}
	for _, opt := range opts {
		opt(&p)
	}
	return m.playInternal(path, cat, prio, p, 1.0, 1.0)
}

// PlaySpatial plays a sound positioned in the world. Inaudible sources
// (at or beyond max distance) are dropped without touching a channel.
func (m *Manager) PlaySpatial(path string, props SpatialProps, cat Category, prio Priority, opts ...PlayOption) *Handle {
	p := playParams{volume: 1.0, pitch: 1.0}
	for _, opt := range opts {
		opt(&p)
	}

	distance := vmath.Distance(props.Position, m.spatial.ListenerPosition())
	vol := m.spatial.Volume(distance, 1.0, props.MaxDistance, props.Rolloff)
	if vol <= 0 {
		return nil
	}
	if props.MaxVolume > 0 {
		if vol > props.MaxVolume {
			vol = props.MaxVolume
		}
		if vol < props.MinVolume {
			vol = props.MinVolume
		}
	}
	p.volume *= vol

	left, right := m.spatial.Pan(props.Position.X, props.PanStrength)
	if m.config.Accessibility.MonoAudio {
		c := (left + right) / 2
		left, right = c, c
	}

	if props.Doppler {
		p.pitch *= m.spatial.Doppler(props.Position, props.Velocity, 1.0)
	}

	return m.playInternal(path, cat, prio, p, left, right)
}

// playInternal runs the shared path: throttle, cache, allocate, bind.
// Final gain is the strict multiplicative chain
// base * categoryVolume * sfxVolume * masterVolume.
func (m *Manager) playInternal(path string, cat Category, prio Priority, p playParams, panL, panR float64) *Handle {
	if m.disabled.Load() {
		return nil
	}
	if !cat.Valid() {
		log.Printf("audio: invalid category %d for %s", cat, path)
		return nil
	}
	if m.soundsThisFrame >= m.frameCap {
		return nil
	}

	start := m.clock.Now()

	buf, format, ok := m.cache.get(path)
	if !ok {
		return nil
	}

	expected := format.SampleRate.D(buf.Len())
	s := m.channels.Allocate(cat, prio, path, expected)
	if s == nil {
		return nil
	}

	m.mu.RLock()
	gain := p.volume * m.categoryVolumes[cat] * m.sfxVolume * m.masterVolume
	m.mu.RUnlock()

	count := p.loops + 1
	if p.loops < 0 {
		count = -1
	}
	var source beep.Streamer = beep.Loop(count, buf.Streamer(0, buf.Len()))
	if format.SampleRate != mixerSampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, mixerSampleRate, source)
	}
	if p.pitch != 1.0 {
		source = beep.ResampleRatio(resampleQuality, p.pitch, source)
	}

	ch := s.channel
	binding := s.binding
	pb := newPlayback(source, gain*panL, gain*panR, func() {
		ch.release(binding)
	})
	if p.fadeIn > 0 {
		pb.startFade(0, 1, p.fadeIn, mixerSampleRate, nil)
	}
	ch.play(pb, m.out)

	m.soundsThisFrame++
	m.monitor.RecordSound()
	m.monitor.RecordLatency(m.clock.Now().Sub(start))

	return &Handle{channel: ch, token: s.token, SoundID: path}
}

// dispatchEvent is the EventManager's playback callback
func (m *Manager) dispatchEvent(cfg EventConfig, sound string, volume, pitch float64, ctx EventContext) bool {
	opts := []PlayOption{WithVolume(volume), WithPitch(pitch), WithLoops(ctx.Loops)}
	if cfg.FadeIn > 0 {
		opts = append(opts, WithFadeIn(cfg.FadeIn))
	}

	if cfg.Spatial && ctx.Position != nil {
		props := DefaultSpatialProps(*ctx.Position)
		props.Velocity = ctx.Velocity
		props.MaxDistance = cfg.MaxDistance
		props.Rolloff = cfg.Rolloff
		props.Doppler = ctx.Velocity != (vmath.Vec3{})
		return m.PlaySpatial(sound, props, cfg.Category, cfg.Priority, opts...) != nil
	}

	return m.PlaySFX(sound, cfg.Category, cfg.Priority, opts...) != nil
}

// RegisterEvent binds a symbolic event name to a playback config
func (m *Manager) RegisterEvent(name string, cfg EventConfig) {
	m.events.Register(name, cfg)
}

// RegisterEventHandler installs a custom handler; the first handler to
// claim an event wins over default playback
func (m *Manager) RegisterEventHandler(name string, h EventHandler) {
	m.events.RegisterHandler(name, h)
}

// LookupEvent returns the registered config for an event name
func (m *Manager) LookupEvent(name string) (EventConfig, bool) {
	return m.events.Lookup(name)
}

// TriggerEvent resolves a symbolic event into playback. Unknown names
// warn and return false.
func (m *Manager) TriggerEvent(name string, ctx EventContext) bool {
	if m.disabled.Load() {
		return false
	}
	return m.events.Trigger(name, ctx)
}

// StopEventSounds stops everything playing under an event's sound paths
// and resets its instance count. Events registered with a fade-out ramp
// down instead of cutting.
func (m *Manager) StopEventSounds(name string) {
	cfg, ok := m.events.Lookup(name)
	if !ok {
		log.Printf("audio: unknown sound event %q", name)
		return
	}
	stop := m.channels.StopByID
	if cfg.FadeOut > 0 {
		stop = func(id string) int { return m.channels.fadeOutByID(id, cfg.FadeOut) }
	}
	stop(cfg.Sound)
	for _, v := range cfg.Variations {
		stop(v)
	}
	m.events.ResetInstances(name)
}

// ResetInstanceCounts clears all event instance counters
func (m *Manager) ResetInstanceCounts() {
	m.events.ResetAllInstances()
}

// SetListener updates the spatial listener pose
func (m *Manager) SetListener(pos, vel vmath.Vec3) {
	m.spatial.SetListener(pos, vel)
}

// PlayMusic starts a music track. loops < 0 repeats forever. With
// enqueue set and a track active, the request joins the FIFO queue.
func (m *Manager) PlayMusic(path string, loops int, fade time.Duration, enqueue bool) bool {
	if m.disabled.Load() {
		return false
	}
	return m.music.play(path, loops, fade, enqueue)
}

// CrossfadeMusic fades the current track out over d, then loads the next
func (m *Manager) CrossfadeMusic(path string, d time.Duration) bool {
	if m.disabled.Load() {
		return false
	}
	return m.music.crossfade(path, d)
}

// StopMusic halts music, fading out over fade when positive
func (m *Manager) StopMusic(fade time.Duration) {
	if m.disabled.Load() {
		return
	}
	m.music.stop(fade)
}

// PauseMusic suspends the active track in place
func (m *Manager) PauseMusic() { m.music.pause() }

// UnpauseMusic resumes a paused track
func (m *Manager) UnpauseMusic() { m.music.unpause() }

// CurrentMusic returns the active track path, or ""
func (m *Manager) CurrentMusic() string { return m.music.playingPath() }

// musicGain is the music volume chain
func (m *Manager) musicGain() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.musicVolume * m.masterVolume
}

// SetMasterVolume sets the global volume scale (clamped to 0..1)
func (m *Manager) SetMasterVolume(v float64) {
	m.mu.Lock()
	m.masterVolume = clampUnit(v)
	m.config.MasterVolume = m.masterVolume
	m.mu.Unlock()
	m.music.refreshGain()
}

// SetMusicVolume sets the music volume scale
func (m *Manager) SetMusicVolume(v float64) {
	m.mu.Lock()
	m.musicVolume = clampUnit(v)
	m.config.MusicVolume = m.musicVolume
	m.mu.Unlock()
	m.music.refreshGain()
}

// SetSFXVolume sets the effect volume scale
func (m *Manager) SetSFXVolume(v float64) {
	m.mu.Lock()
	m.sfxVolume = clampUnit(v)
	m.config.SFXVolume = m.sfxVolume
	m.mu.Unlock()
}

// SetCategoryVolume sets one category's volume scale
func (m *Manager) SetCategoryVolume(cat Category, v float64) {
	if !cat.Valid() {
		log.Printf("audio: invalid category %d", cat)
		return
	}
	m.mu.Lock()
	m.categoryVolumes[cat] = clampUnit(v)
	m.config.Categories[cat].Volume = m.categoryVolumes[cat]
	m.mu.Unlock()
}

// MasterVolume returns the global volume scale
func (m *Manager) MasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// StopCategory silences a category's channel slice
func (m *Manager) StopCategory(cat Category) {
	if !cat.Valid() {
		log.Printf("audio: invalid category %d", cat)
		return
	}
	m.channels.StopCategory(cat)
}

// StopByID stops every sound playing under the given sound id
func (m *Manager) StopByID(soundID string) int {
	return m.channels.StopByID(soundID)
}

// StopAll silences effects and music
func (m *Manager) StopAll() {
	m.channels.StopAll()
	m.music.stop(0)
}

// Preload warms the sound cache
func (m *Manager) Preload(paths []string) {
	if m.disabled.Load() {
		return
	}
	m.cache.preload(paths)
}

// ClearCache drops all cached sound data
func (m *Manager) ClearCache() {
	m.cache.clear()
}

// ApplyPreset overlays a named config preset onto the current state
func (m *Manager) ApplyPreset(name string) bool {
	if !m.config.ApplyPreset(name) {
		return false
	}
	m.applyConfig(m.config)
	return true
}

// SaveConfig persists the current configuration when a path was given
func (m *Manager) SaveConfig() error {
	if m.configPath == "" {
		return nil
	}
	return m.config.Save(m.configPath)
}

// Suspend pauses the device, e.g. when the host window loses focus
func (m *Manager) Suspend() { m.out.suspend() }

// Resume reactivates the device
func (m *Manager) Resume() { m.out.resume() }

// Close stops everything and releases the device
func (m *Manager) Close() {
	m.StopAll()
	m.out.clear()
	m.out.suspend()
}

// Update must be called exactly once per frame by the host loop. It
// resets the per-frame throttle, purges idle channel records, runs the
// cache management pass, advances music scheduling and records monitor
// samples.
func (m *Manager) Update(dt float64) {
	if m.disabled.Load() {
		return
	}
	m.soundsThisFrame = 0
	m.channels.Cleanup()
	m.cache.manage()
	m.music.update()

	hits, misses := m.cache.stats()
	m.monitor.SetCacheStats(hits, misses)
	m.monitor.Update(dt, float64(m.cache.memoryEstimate()), m.channels.Utilization())
}

// PerformanceInfo is a snapshot for debug overlays and tuning
type PerformanceInfo struct {
	CacheSize        int
	CacheMemoryBytes int
	CacheHitRate     float64
	CategoryActive   [categoryCount]int
	OverflowActive   int
	Utilization      float64
	Monitor          MonitorStats
	Suggestions      []string
}

// GetPerformanceInfo reports cache, channel and monitor state
func (m *Manager) GetPerformanceInfo() PerformanceInfo {
	info := PerformanceInfo{
		CacheSize:        m.cache.size(),
		CacheMemoryBytes: m.cache.memoryEstimate(),
		CacheHitRate:     m.monitor.CacheHitRate(),
		OverflowActive:   m.channels.OverflowActive(),
		Utilization:      m.channels.Utilization(),
		Monitor:          m.monitor.Stats(),
		Suggestions:      m.monitor.Suggestions(),
	}
	for c := Category(0); c < categoryCount; c++ {
		info.CategoryActive[c] = m.channels.ActiveCount(c)
	}
	return info
}

// ActiveCount returns live sounds for one category
func (m *Manager) ActiveCount(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	return m.channels.ActiveCount(cat)
}
