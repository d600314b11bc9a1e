package audio

import (
	"time"

	"github.com/gopxl/beep"
)

// queuedMusic is one pending track request
type queuedMusic struct {
	path  string
	loops int
	fade  time.Duration
}

// musicPlayer owns the single active music track, its FIFO queue and the
// crossfade scheduler. The queue is consulted once per update and only
// when no track is active. Crossfade fades the current track out and
// schedules the next load at fade completion rather than overlapping the
// two tracks; the deferred switch is checked in update.
type musicPlayer struct {
	out   output
	cache *soundCache
	clock TimeProvider
	gain  func() float64

	current     *playback
	currentPath string

	queue []queuedMusic

	pending   *queuedMusic
	pendingAt time.Time
}

func newMusicPlayer(out output, cache *soundCache, clock TimeProvider, gain func() float64) *musicPlayer {
	return &musicPlayer{
		out:   out,
		cache: cache,
		clock: clock,
		gain:  gain,
	}
}

// play starts a track, replacing the current one. loops < 0 repeats
// forever; otherwise the track plays loops+1 times. When enqueue is set
// and a track is active the request joins the FIFO queue instead.
func (mp *musicPlayer) play(path string, loops int, fade time.Duration, enqueue bool) bool {
	if enqueue && mp.active() {
		mp.queue = append(mp.queue, queuedMusic{path: path, loops: loops, fade: fade})
		return true
	}
	if mp.current != nil {
		mp.current.stop()
		mp.current = nil
	}
	return mp.start(path, loops, fade)
}

func (mp *musicPlayer) start(path string, loops int, fade time.Duration) bool {
	buf, format, ok := mp.cache.get(path)
	if !ok {
		return false
	}

	count := loops + 1
	if loops < 0 {
		count = -1
	}
	var source beep.Streamer = beep.Loop(count, buf.Streamer(0, buf.Len()))
	if format.SampleRate != mixerSampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, mixerSampleRate, source)
	}

	g := mp.gain()
	pb := newPlayback(source, g, g, nil)
	if fade > 0 {
		pb.startFade(0, 1, fade, mixerSampleRate, nil)
	}
	mp.current = pb
	mp.currentPath = path
	mp.out.play(pb)
	return true
}

// crossfade fades the current track out over d and schedules the next
// track to load when the fade lands. With no active track the next track
// simply fades in.
func (mp *musicPlayer) crossfade(path string, d time.Duration) bool {
	if !mp.active() {
		return mp.start(path, -1, d)
	}

	pb := mp.current
	pb.fadeTo(0, d, mixerSampleRate, pb.stop)
	mp.current = nil
	mp.currentPath = ""

	mp.pending = &queuedMusic{path: path, loops: -1, fade: d}
	mp.pendingAt = mp.clock.Now().Add(d)
	return true
}

// stop halts music, optionally fading out first
func (mp *musicPlayer) stop(fade time.Duration) {
	mp.pending = nil
	mp.queue = nil
	if mp.current == nil {
		return
	}
	pb := mp.current
	mp.current = nil
	mp.currentPath = ""
	if fade > 0 {
		pb.fadeTo(0, fade, mixerSampleRate, pb.stop)
	} else {
		pb.stop()
	}
}

func (mp *musicPlayer) pause() {
	if mp.current != nil {
		mp.current.pause()
	}
}

func (mp *musicPlayer) unpause() {
	if mp.current != nil {
		mp.current.unpause()
	}
}

// refreshGain reapplies the volume chain to the active track
func (mp *musicPlayer) refreshGain() {
	if mp.current != nil {
		g := mp.gain()
		mp.current.setGain(g, g)
	}
}

func (mp *musicPlayer) active() bool {
	return mp.current != nil && !mp.current.finished.Load()
}

func (mp *musicPlayer) playingPath() string {
	if !mp.active() {
		return ""
	}
	return mp.currentPath
}

// update advances the crossfade schedule and, when idle, the queue.
// Called once per frame by the manager.
func (mp *musicPlayer) update() {
	now := mp.clock.Now()

	if mp.pending != nil && !now.Before(mp.pendingAt) {
		next := *mp.pending
		mp.pending = nil
		mp.start(next.path, next.loops, next.fade)
		return
	}

	if !mp.active() && mp.pending == nil && len(mp.queue) > 0 {
		next := mp.queue[0]
		mp.queue = mp.queue[1:]
		mp.start(next.path, next.loops, next.fade)
	}
}
