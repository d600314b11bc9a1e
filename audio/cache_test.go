package audio

import (
	"testing"
	"time"
)

func newTestCache(maxSize int) (*soundCache, *MockTimeProvider) {
	clock := NewMockTimeProvider(time.Unix(1000, 0))
	return newSoundCache(maxSize, clock, testLoad), clock
}

func TestCacheHitAndMiss(t *testing.T) {
	c, _ := newTestCache(10)

	if _, _, ok := c.get("sounds/a.wav"); !ok {
		t.Fatal("initial load failed")
	}
	if _, _, ok := c.get("sounds/a.wav"); !ok {
		t.Fatal("cached load failed")
	}

	hits, misses := c.stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", hits, misses)
	}
	if c.size() != 1 {
		t.Errorf("cache size = %d, want 1", c.size())
	}
}

func TestCacheLoadFailure(t *testing.T) {
	c, _ := newTestCache(10)

	if _, _, ok := c.get("sounds/missing.wav"); ok {
		t.Error("load of a missing asset reported success")
	}
	if c.size() != 0 {
		t.Errorf("cache size = %d after failed load, want 0", c.size())
	}
	_, misses := c.stats()
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}

// Fill beyond capacity, refresh one old entry, add another: the
// refreshed entry survives the next management pass, the stale one dies.
func TestCacheLRUEviction(t *testing.T) {
	c, clock := newTestCache(3)

	c.get("a.wav")
	clock.Advance(time.Second)
	c.get("b.wav")
	clock.Advance(time.Second)
	c.get("c.wav")
	clock.Advance(time.Second)

	// Refresh a: now b is the oldest access
	c.get("a.wav")
	clock.Advance(time.Second)

	c.get("d.wav")
	c.manage()

	if c.size() != 3 {
		t.Fatalf("cache size after manage = %d, want 3", c.size())
	}
	if _, ok := c.entries["a.wav"]; !ok {
		t.Error("recently accessed entry a.wav was evicted")
	}
	if _, ok := c.entries["b.wav"]; ok {
		t.Error("least recently accessed entry b.wav survived")
	}
}

func TestCacheBatchEviction(t *testing.T) {
	c, clock := newTestCache(2)

	for _, p := range []string{"a.wav", "b.wav", "c.wav", "d.wav", "e.wav"} {
		c.get(p)
		clock.Advance(time.Second)
	}
	if c.size() != 5 {
		t.Fatalf("pre-manage size = %d, want 5 (eviction is batched)", c.size())
	}

	c.manage()
	if c.size() != 2 {
		t.Errorf("post-manage size = %d, want 2", c.size())
	}
	for _, p := range []string{"d.wav", "e.wav"} {
		if _, ok := c.entries[p]; !ok {
			t.Errorf("newest entry %s was evicted", p)
		}
	}
}

func TestCachePreloadAndClear(t *testing.T) {
	c, _ := newTestCache(10)

	c.preload([]string{"a.wav", "b.wav", "c.wav"})
	if c.size() != 3 {
		t.Errorf("size after preload = %d, want 3", c.size())
	}

	c.clear()
	if c.size() != 0 {
		t.Errorf("size after clear = %d, want 0", c.size())
	}
}

func TestCacheMemoryEstimate(t *testing.T) {
	c, _ := newTestCache(10)
	c.get("a.wav")

	// testLoad buffers are stereo 16-bit: 4 bytes per frame
	want := testSoundFrames * 4
	if got := c.memoryEstimate(); got != want {
		t.Errorf("memory estimate = %d, want %d", got, want)
	}
}
