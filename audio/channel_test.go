package audio

import (
	"testing"
	"time"
)

func newTestChannelManager() (*ChannelManager, *MockTimeProvider) {
	clock := NewMockTimeProvider(time.Unix(1000, 0))
	return NewChannelManager(clock), clock
}

func TestPartitionLayout(t *testing.T) {
	cm, _ := newTestChannelManager()

	if len(cm.channels) != totalChannels {
		t.Fatalf("pool size = %d, want %d", len(cm.channels), totalChannels)
	}

	counts := make(map[Category]int)
	for _, ch := range cm.channels {
		counts[ch.Category()]++
	}
	for c := Category(0); c < categoryCount; c++ {
		if counts[c] != categorySlices[c] {
			t.Errorf("category %v owns %d channels, want %d", c, counts[c], categorySlices[c])
		}
	}
	if counts[overflowCategory] != overflowChannels {
		t.Errorf("overflow pool owns %d channels, want %d", counts[overflowCategory], overflowChannels)
	}

	// Indices are globally unique
	seen := make(map[int]bool)
	for _, ch := range cm.channels {
		if seen[ch.Index()] {
			t.Errorf("channel index %d assigned twice", ch.Index())
		}
		seen[ch.Index()] = true
	}
}

func TestAllocateWithinCategory(t *testing.T) {
	cm, _ := newTestChannelManager()

	s := cm.Allocate(CategoryPlayer, PriorityMedium, "jump", 0)
	if s == nil {
		t.Fatal("allocation failed with a fully idle pool")
	}
	if s.channel.Category() != CategoryPlayer {
		t.Errorf("allocated channel category = %v, want player", s.channel.Category())
	}
	if cm.ActiveCount(CategoryPlayer) != 1 {
		t.Errorf("active count = %d, want 1", cm.ActiveCount(CategoryPlayer))
	}
}

func TestInvalidCategoryAllocation(t *testing.T) {
	cm, _ := newTestChannelManager()

	if s := cm.Allocate(Category(99), PriorityMedium, "x", 0); s != nil {
		t.Error("allocation succeeded for an invalid category")
	}
}

// Saturated category with no preemption candidate falls through to the
// shared overflow tail; the overflow pool itself is idle-scan only.
func TestOverflowFallback(t *testing.T) {
	cm, _ := newTestChannelManager()

	for i := 0; i < categorySlices[CategoryUI]; i++ {
		if s := cm.Allocate(CategoryUI, PriorityHigh, "click", 0); s == nil {
			t.Fatalf("UI allocation %d failed", i)
		}
	}

	// MEDIUM cannot preempt the HIGH sounds, so it lands on overflow
	s := cm.Allocate(CategoryUI, PriorityMedium, "hover", 0)
	if s == nil {
		t.Fatal("saturated category did not fall back to overflow")
	}
	if s.channel.Category() != overflowCategory {
		t.Errorf("fallback channel category = %v, want overflow", s.channel.Category())
	}

	// Exhaust the remaining overflow channels
	for i := 0; i < overflowChannels-1; i++ {
		if s := cm.Allocate(CategoryUI, PriorityMedium, "hover", 0); s == nil {
			t.Fatalf("overflow allocation %d failed", i)
		}
	}

	// Everything saturated: the sound is dropped, not an error
	if s := cm.Allocate(CategoryUI, PriorityMedium, "hover", 0); s != nil {
		t.Error("allocation succeeded with category and overflow both saturated")
	}

	// The HIGH sounds were never preempted
	if got := cm.ActiveCount(CategoryUI); got != categorySlices[CategoryUI] {
		t.Errorf("UI active count = %d, want %d", got, categorySlices[CategoryUI])
	}
}

func TestOverflowNoPreemption(t *testing.T) {
	cm, _ := newTestChannelManager()

	// Fill voice slice (2) plus all overflow with ambient sounds
	cm.Allocate(CategoryVoice, PriorityAmbient, "mumble", 0)
	cm.Allocate(CategoryVoice, PriorityAmbient, "mumble", 0)
	for i := 0; i < overflowChannels; i++ {
		cm.Allocate(CategoryVoice, PriorityAmbient, "mumble", 0)
	}
	if cm.OverflowActive() != overflowChannels {
		t.Fatalf("overflow active = %d, want %d", cm.OverflowActive(), overflowChannels)
	}

	// Critical preempts inside the voice slice, never on overflow
	s := cm.Allocate(CategoryVoice, PriorityCritical, "line", 0)
	if s == nil {
		t.Fatal("critical allocation dropped")
	}
	if s.channel.Category() != CategoryVoice {
		t.Errorf("critical sound landed on %v, want voice slice", s.channel.Category())
	}
}

func TestPriorityBoostStored(t *testing.T) {
	cm, _ := newTestChannelManager()
	cm.SetPriorityBoost(CategoryUI, 1.0)

	s := cm.Allocate(CategoryUI, PriorityMedium, "click", 0)
	if s == nil {
		t.Fatal("allocation failed")
	}
	if s.priority != PriorityHigh {
		t.Errorf("boosted priority = %v, want high", s.priority)
	}
}

func TestPriorityBoostSaturatesAtCritical(t *testing.T) {
	cm, _ := newTestChannelManager()
	cm.SetPriorityBoost(CategoryVoice, 3.0)

	s := cm.Allocate(CategoryVoice, PriorityHigh, "line", 0)
	if s == nil {
		t.Fatal("allocation failed")
	}
	if s.priority != PriorityCritical {
		t.Errorf("boosted priority = %v, want critical (saturated)", s.priority)
	}
}

func TestFractionalBoostRoundsDown(t *testing.T) {
	cm, _ := newTestChannelManager()
	cm.SetPriorityBoost(CategoryUI, 0.5)

	s := cm.Allocate(CategoryUI, PriorityMedium, "click", 0)
	if s == nil {
		t.Fatal("allocation failed")
	}
	// 2.0 + 0.5 resolves to the nearest level at or below: medium
	if s.priority != PriorityMedium {
		t.Errorf("boosted priority = %v, want medium", s.priority)
	}
}

func TestStopCategory(t *testing.T) {
	cm, _ := newTestChannelManager()

	cm.Allocate(CategoryAmbient, PriorityAmbient, "wind", 0)
	cm.Allocate(CategoryAmbient, PriorityAmbient, "rain", 0)
	cm.Allocate(CategoryPlayer, PriorityMedium, "jump", 0)

	cm.StopCategory(CategoryAmbient)

	if got := cm.ActiveCount(CategoryAmbient); got != 0 {
		t.Errorf("ambient active after stop = %d, want 0", got)
	}
	if got := cm.ActiveCount(CategoryPlayer); got != 1 {
		t.Errorf("player active = %d, want 1 (unaffected)", got)
	}
}

func TestStopByIDAcrossPools(t *testing.T) {
	cm, _ := newTestChannelManager()

	// Two in the music slice, the third lands on overflow
	cm.Allocate(CategoryMusic, PriorityMedium, "theme", 0)
	cm.Allocate(CategoryMusic, PriorityMedium, "theme", 0)
	cm.Allocate(CategoryMusic, PriorityMedium, "theme", 0)

	if n := cm.StopByID("theme"); n != 3 {
		t.Errorf("StopByID stopped %d, want 3", n)
	}
}

func TestSetMaxConcurrentThrottles(t *testing.T) {
	cm, _ := newTestChannelManager()
	cm.SetMaxConcurrent(CategoryEnvironment, 2)

	cm.Allocate(CategoryEnvironment, PriorityMedium, "a", 0)
	cm.Allocate(CategoryEnvironment, PriorityMedium, "b", 0)

	// Cap below slice size keeps the category at 2 live sounds; the
	// third request drops to overflow
	s := cm.Allocate(CategoryEnvironment, PriorityMedium, "c", 0)
	if s == nil {
		t.Fatal("allocation dropped entirely")
	}
	if s.channel.Category() != overflowCategory {
		t.Errorf("throttled allocation landed on %v, want overflow", s.channel.Category())
	}
	if got := cm.ActiveCount(CategoryEnvironment); got != 2 {
		t.Errorf("environment active = %d, want 2", got)
	}
}

func TestUtilization(t *testing.T) {
	cm, _ := newTestChannelManager()

	if u := cm.Utilization(); u != 0 {
		t.Errorf("idle pool utilization = %v, want 0", u)
	}

	for i := 0; i < 8; i++ {
		cm.Allocate(CategoryEnvironment, PriorityMedium, "x", 0)
	}
	want := 8.0 / float64(totalChannels)
	if u := cm.Utilization(); u != want {
		t.Errorf("utilization = %v, want %v", u, want)
	}
}
