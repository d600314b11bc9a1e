package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	mixerSampleRate = beep.SampleRate(48000)
	speakerBufferMs = 100
	resampleQuality = 4
)

// output is the seam between the manager and the actual audio device.
// The speaker implementation is the only one used in production; tests
// substitute a stub so playback state can be driven deterministically.
type output interface {
	init() error
	play(s beep.Streamer)
	clear()
	suspend()
	resume()
}

// speakerOutput drives the beep speaker
type speakerOutput struct {
	initialized bool
}

func (o *speakerOutput) init() error {
	err := speaker.Init(mixerSampleRate, mixerSampleRate.N(time.Millisecond*speakerBufferMs))
	if err != nil {
		return err
	}
	o.initialized = true
	return nil
}

func (o *speakerOutput) play(s beep.Streamer) {
	if o.initialized {
		speaker.Play(s)
	}
}

func (o *speakerOutput) clear() {
	if o.initialized {
		speaker.Clear()
	}
}

func (o *speakerOutput) suspend() {
	if o.initialized {
		speaker.Suspend()
	}
}

func (o *speakerOutput) resume() {
	if o.initialized {
		speaker.Resume()
	}
}

// fadeEnvelope ramps the playback gain linearly over a sample count.
// onComplete fires once when the ramp lands.
type fadeEnvelope struct {
	from, to   float64
	pos, total int
	onComplete func()
}

// playback binds a streamer to a channel with per-ear gain, optional fade
// envelope and pause/stop flags. Stream is pulled by the speaker goroutine;
// control fields are atomics or guarded by mu so the game loop can adjust
// them without holding the speaker lock.
type playback struct {
	source beep.Streamer

	mu    sync.Mutex
	left  float64
	right float64
	env   *fadeEnvelope

	paused   atomic.Bool
	stopped  atomic.Bool
	finished atomic.Bool

	onDone func()
}

func newPlayback(source beep.Streamer, left, right float64, onDone func()) *playback {
	return &playback{
		source: source,
		left:   left,
		right:  right,
		onDone: onDone,
	}
}

// setGain replaces the per-ear gain, preserving any running envelope
func (p *playback) setGain(left, right float64) {
	p.mu.Lock()
	p.left = left
	p.right = right
	p.mu.Unlock()
}

// startFade begins a linear envelope ramp from from to to over d.
// onComplete fires once from the speaker goroutine when the ramp lands;
// it must only touch atomics.
func (p *playback) startFade(from, to float64, d time.Duration, sr beep.SampleRate, onComplete func()) {
	total := sr.N(d)
	if total < 1 {
		total = 1
	}
	p.mu.Lock()
	p.env = &fadeEnvelope{from: from, to: to, total: total, onComplete: onComplete}
	p.mu.Unlock()
}

// fadeTo ramps from the current envelope value (1 when no fade ran)
func (p *playback) fadeTo(target float64, d time.Duration, sr beep.SampleRate, onComplete func()) {
	from := 1.0
	p.mu.Lock()
	if p.env != nil {
		from = p.env.value()
	}
	p.mu.Unlock()
	p.startFade(from, target, d, sr, onComplete)
}

func (f *fadeEnvelope) value() float64 {
	if f.pos >= f.total {
		return f.to
	}
	t := float64(f.pos) / float64(f.total)
	return f.from + (f.to-f.from)*t
}

// stop silently terminates the playback. The channel is released
// immediately; the speaker drops the streamer on its next pull.
func (p *playback) stop() {
	if p.stopped.CompareAndSwap(false, true) {
		p.markDone()
	}
}

func (p *playback) pause()   { p.paused.Store(true) }
func (p *playback) unpause() { p.paused.Store(false) }

func (p *playback) markDone() {
	if p.finished.CompareAndSwap(false, true) && p.onDone != nil {
		p.onDone()
	}
}

// Stream implements beep.Streamer. Per-sample gain multiplication follows
// the multiplicative chain computed at play time; no additive mixing.
func (p *playback) Stream(samples [][2]float64) (int, bool) {
	if p.stopped.Load() {
		return 0, false
	}
	if p.paused.Load() {
		clear(samples)
		return len(samples), true
	}

	n, ok := p.source.Stream(samples)

	p.mu.Lock()
	left, right := p.left, p.right
	env := p.env
	var completed func()
	for i := range samples[:n] {
		g := 1.0
		if env != nil {
			g = env.value()
			env.pos++
			if env.pos == env.total && env.onComplete != nil {
				completed = env.onComplete
				env.onComplete = nil
			}
		}
		samples[i][0] *= left * g
		samples[i][1] *= right * g
	}
	p.mu.Unlock()

	if completed != nil {
		completed()
	}
	if !ok {
		p.markDone()
	}
	return n, ok
}

func (p *playback) Err() error {
	return nil
}
