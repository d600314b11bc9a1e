package audio

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Channel is one concurrent playback slot. Every channel belongs to
// exactly one category group or the overflow pool, fixed at construction;
// there is no dynamic reassignment. The binding generation is the only
// field shared with the speaker goroutine; token and current are game-loop
// state.
type Channel struct {
	index    int
	category Category // -1 for overflow channels
	binding  atomic.Uint64
	current  *playback
	token    uuid.UUID
}

// bindingCounter issues channel binding generations; zero means idle
var bindingCounter atomic.Uint64

const overflowCategory = Category(-1)

func newChannel(index int, category Category) *Channel {
	return &Channel{index: index, category: category}
}

// Index returns the channel's position in the global pool
func (ch *Channel) Index() int {
	return ch.index
}

// Category returns the owning category, or -1 for overflow channels
func (ch *Channel) Category() Category {
	return ch.category
}

// Busy reports whether a sound is bound and not yet finished
func (ch *Channel) Busy() bool {
	return ch.binding.Load() != 0
}

// reserve marks the channel busy under a fresh binding generation before
// the streamer is attached, so a second allocation in the same frame
// cannot grab it. Returns the generation for the completion callback.
func (ch *Channel) reserve(token uuid.UUID) uint64 {
	ch.token = token
	b := bindingCounter.Add(1)
	ch.binding.Store(b)
	return b
}

// release frees the channel only while the binding generation still
// matches. A completion callback firing late on the speaker goroutine,
// after the channel was preempted and rebound, compares against the new
// generation and leaves the replacement sound alone.
func (ch *Channel) release(binding uint64) {
	ch.binding.CompareAndSwap(binding, 0)
}

// play binds a playback to the channel and hands it to the device
func (ch *Channel) play(p *playback, out output) {
	ch.current = p
	out.play(p)
}

// stop terminates the current playback and frees the channel immediately
func (ch *Channel) stop() {
	if ch.current != nil {
		ch.current.stop()
	}
	ch.binding.Store(0)
}

// stopIfToken stops only when the handle's token still matches, guarding
// against stale handles after the channel was preempted and rebound
func (ch *Channel) stopIfToken(token uuid.UUID) bool {
	if ch.token != token || !ch.Busy() {
		return false
	}
	ch.stop()
	return true
}

// ChannelManager partitions the fixed channel pool into per-category
// groups with independent concurrency caps and priority-boost biasing,
// plus a shared overflow tail. Allocation policy: category pool first
// (idle scan, then preemption), then the overflow pool for every
// category; overflow channels are plain idle-scan, never preempted.
type ChannelManager struct {
	groups   [categoryCount]*categoryGroup
	overflow *prioritySystem
	channels []*Channel
	clock    TimeProvider
}

type categoryGroup struct {
	category Category
	pool     *prioritySystem
	boost    float64
}

// NewChannelManager builds the static channel partition
func NewChannelManager(clock TimeProvider) *ChannelManager {
	cm := &ChannelManager{
		channels: make([]*Channel, 0, totalChannels),
		clock:    clock,
	}

	idx := 0
	for c := Category(0); c < categoryCount; c++ {
		size := categorySlices[c]
		chans := make([]*Channel, size)
		for i := range chans {
			chans[i] = newChannel(idx, c)
			cm.channels = append(cm.channels, chans[i])
			idx++
		}
		cm.groups[c] = &categoryGroup{
			category: c,
			pool:     newPrioritySystem(chans, size, clock),
		}
	}

	tail := make([]*Channel, overflowChannels)
	for i := range tail {
		tail[i] = newChannel(idx, overflowCategory)
		cm.channels = append(cm.channels, tail[i])
		idx++
	}
	cm.overflow = newPrioritySystem(tail, overflowChannels, clock)

	return cm
}

// Allocate finds a channel for the given sound, preempting a lower
// effective-priority sound in the category when the slice is saturated
// and falling back to the overflow pool otherwise. Returns nil when the
// sound must be dropped; callers never treat that as an error.
func (cm *ChannelManager) Allocate(cat Category, prio Priority, soundID string, expected time.Duration) *playingSound {
	if !cat.Valid() {
		return nil
	}
	g := cm.groups[cat]
	boosted := resolvePriority(float64(prio) + g.boost)

	if s := g.pool.allocate(boosted, soundID, expected); s != nil {
		return s
	}
	return cm.overflow.allocateIdle(boosted, soundID, expected)
}

// Cleanup lazily purges tracking records for channels that went idle
func (cm *ChannelManager) Cleanup() {
	for _, g := range cm.groups {
		g.pool.cleanup()
	}
	cm.overflow.cleanup()
}

// StopCategory stops every sound in the category's own slice. Overflow
// channels playing sounds for the category are stopped by sound id only.
func (cm *ChannelManager) StopCategory(cat Category) {
	if !cat.Valid() {
		return
	}
	cm.groups[cat].pool.stopAll()
}

// StopByID stops every playing sound bound under the given sound id
func (cm *ChannelManager) StopByID(soundID string) int {
	n := 0
	for _, g := range cm.groups {
		n += g.pool.stopByID(soundID)
	}
	n += cm.overflow.stopByID(soundID)
	return n
}

// fadeOutByID fades every playing sound bound under the given sound id
// to silence over d; channels free themselves when the fades land
func (cm *ChannelManager) fadeOutByID(soundID string, d time.Duration) int {
	n := 0
	for _, g := range cm.groups {
		n += g.pool.fadeOutByID(soundID, d)
	}
	n += cm.overflow.fadeOutByID(soundID, d)
	return n
}

// StopBelowPriority stops sounds in the category whose base priority is
// strictly below the threshold
func (cm *ChannelManager) StopBelowPriority(cat Category, threshold Priority) int {
	if !cat.Valid() {
		return 0
	}
	return cm.groups[cat].pool.stopBelow(threshold)
}

// StopAll silences the entire pool
func (cm *ChannelManager) StopAll() {
	for _, g := range cm.groups {
		g.pool.stopAll()
	}
	cm.overflow.stopAll()
}

// SetMaxConcurrent caps live sounds for a category. The cap may sit below
// the physical slice size; that is intentional throttling.
func (cm *ChannelManager) SetMaxConcurrent(cat Category, n int) {
	if !cat.Valid() || n < 0 {
		return
	}
	cm.groups[cat].pool.maxConcurrent = n
}

// SetPriorityBoost sets the category's static priority bias
func (cm *ChannelManager) SetPriorityBoost(cat Category, boost float64) {
	if !cat.Valid() {
		return
	}
	cm.groups[cat].boost = boost
}

// ActiveCount returns live sounds tracked for a category slice
func (cm *ChannelManager) ActiveCount(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	cm.groups[cat].pool.cleanup()
	return len(cm.groups[cat].pool.playing)
}

// OverflowActive returns live sounds on the overflow tail
func (cm *ChannelManager) OverflowActive() int {
	cm.overflow.cleanup()
	return len(cm.overflow.playing)
}

// Utilization returns the busy fraction of the whole pool
func (cm *ChannelManager) Utilization() float64 {
	busy := 0
	for _, ch := range cm.channels {
		if ch.Busy() {
			busy++
		}
	}
	return float64(busy) / float64(len(cm.channels))
}
