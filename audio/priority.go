package audio

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// playingSound tracks one allocated channel binding. The sound id is a
// string key, not unique per instance; several channels may share one id.
// Records are purged lazily once the channel reports idle.
type playingSound struct {
	channel          *Channel
	priority         Priority
	soundID          string
	token            uuid.UUID
	binding          uint64
	startTime        time.Time
	expectedDuration time.Duration
}

// effectivePriority is the base priority value plus an age-protection
// term: sounds that have played longer resist preemption, up to half a
// priority level.
func (s *playingSound) effectivePriority(now time.Time) float64 {
	age := now.Sub(s.startTime).Seconds()
	if age < 0 {
		age = 0
	}
	return float64(s.priority) + math.Min(age*agePriorityRate, agePriorityCap)
}

// prioritySystem allocates from a flat pool of channels with
// priority-ordered preemption. One instance serves each category slice
// and one the overflow tail.
type prioritySystem struct {
	channels      []*Channel
	maxConcurrent int
	playing       map[int]*playingSound // keyed by channel index
	clock         TimeProvider
}

func newPrioritySystem(channels []*Channel, maxConcurrent int, clock TimeProvider) *prioritySystem {
	return &prioritySystem{
		channels:      channels,
		maxConcurrent: maxConcurrent,
		playing:       make(map[int]*playingSound),
		clock:         clock,
	}
}

// cleanup purges records whose channel went idle. Runs before every
// allocation or preemption decision so stale entries never block them.
func (ps *prioritySystem) cleanup() {
	for idx, s := range ps.playing {
		if !s.channel.Busy() {
			delete(ps.playing, idx)
		}
	}
}

// allocate returns a bound record, preempting the lowest effective-
// priority sound strictly below the incoming priority when the pool is
// saturated. Ties between preemption candidates break on first-found in
// map iteration order, which is implementation-defined. Returns nil when
// the sound must be dropped.
func (ps *prioritySystem) allocate(prio Priority, soundID string, expected time.Duration) *playingSound {
	ps.cleanup()

	if len(ps.playing) < ps.maxConcurrent {
		for _, ch := range ps.channels {
			if !ch.Busy() {
				return ps.bind(ch, prio, soundID, expected)
			}
		}
	}

	// Preemption scan
	now := ps.clock.Now()
	lowest := float64(prio)
	var victim *playingSound
	for _, s := range ps.playing {
		if eff := s.effectivePriority(now); eff < lowest {
			lowest = eff
			victim = s
		}
	}
	if victim == nil {
		return nil
	}

	ch := victim.channel
	ch.stop()
	delete(ps.playing, ch.index)
	return ps.bind(ch, prio, soundID, expected)
}

// allocateIdle scans for an idle channel without preemption; the overflow
// pool uses this path
func (ps *prioritySystem) allocateIdle(prio Priority, soundID string, expected time.Duration) *playingSound {
	ps.cleanup()

	if len(ps.playing) >= ps.maxConcurrent {
		return nil
	}
	for _, ch := range ps.channels {
		if !ch.Busy() {
			return ps.bind(ch, prio, soundID, expected)
		}
	}
	return nil
}

func (ps *prioritySystem) bind(ch *Channel, prio Priority, soundID string, expected time.Duration) *playingSound {
	s := &playingSound{
		channel:          ch,
		priority:         prio,
		soundID:          soundID,
		token:            uuid.New(),
		startTime:        ps.clock.Now(),
		expectedDuration: expected,
	}
	s.binding = ch.reserve(s.token)
	ps.playing[ch.index] = s
	return s
}

func (ps *prioritySystem) stopAll() {
	for idx, s := range ps.playing {
		s.channel.stop()
		delete(ps.playing, idx)
	}
}

func (ps *prioritySystem) stopByID(soundID string) int {
	n := 0
	for idx, s := range ps.playing {
		if s.soundID == soundID {
			s.channel.stop()
			delete(ps.playing, idx)
			n++
		}
	}
	return n
}

// fadeOutByID ramps matching sounds to silence over d instead of cutting
// them. The channel frees itself when the fade lands.
func (ps *prioritySystem) fadeOutByID(soundID string, d time.Duration) int {
	n := 0
	for idx, s := range ps.playing {
		if s.soundID != soundID {
			continue
		}
		if pb := s.channel.current; pb != nil {
			pb.fadeTo(0, d, mixerSampleRate, pb.stop)
		} else {
			s.channel.stop()
		}
		delete(ps.playing, idx)
		n++
	}
	return n
}

func (ps *prioritySystem) stopBelow(threshold Priority) int {
	n := 0
	for idx, s := range ps.playing {
		if s.priority < threshold {
			s.channel.stop()
			delete(ps.playing, idx)
			n++
		}
	}
	return n
}
