package audio

import (
	"log"
	"time"

	"github.com/gopxl/beep"
)

// cacheEntry holds fully buffered sound data keyed by file path
type cacheEntry struct {
	buffer     *beep.Buffer
	format     beep.Format
	lastAccess time.Time
}

// loadFunc decodes a sound file into a buffer; swapped in tests
type loadFunc func(path string) (*beep.Buffer, beep.Format, error)

// soundCache is a bounded path-keyed store with strict LRU eviction by
// last-access time. Eviction is a batch pass (manage), run once per
// manager update, not incremental.
type soundCache struct {
	entries map[string]*cacheEntry
	maxSize int
	hits    uint64
	misses  uint64
	clock   TimeProvider
	load    loadFunc
}

func newSoundCache(maxSize int, clock TimeProvider, load loadFunc) *soundCache {
	if maxSize < 1 {
		maxSize = defaultCacheSize
	}
	return &soundCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		clock:   clock,
		load:    load,
	}
}

// get returns the buffered sound for path, loading it on a miss. A load
// failure logs a warning and returns ok=false; missing assets are never
// fatal.
func (c *soundCache) get(path string) (*beep.Buffer, beep.Format, bool) {
	if e, ok := c.entries[path]; ok {
		c.hits++
		e.lastAccess = c.clock.Now()
		return e.buffer, e.format, true
	}

	c.misses++
	buf, format, err := c.load(path)
	if err != nil {
		log.Printf("audio: failed to load %s: %v", path, err)
		return nil, beep.Format{}, false
	}
	c.entries[path] = &cacheEntry{
		buffer:     buf,
		format:     format,
		lastAccess: c.clock.Now(),
	}
	return buf, format, true
}

// preload warms the cache for a set of paths
func (c *soundCache) preload(paths []string) {
	for _, p := range paths {
		c.get(p)
	}
}

// manage evicts oldest-accessed entries until the cache is back under
// capacity. After a pass the size never exceeds the configured maximum.
func (c *soundCache) manage() {
	for len(c.entries) > c.maxSize {
		var oldestPath string
		var oldest time.Time
		first := true
		for path, e := range c.entries {
			if first || e.lastAccess.Before(oldest) {
				oldest = e.lastAccess
				oldestPath = path
				first = false
			}
		}
		delete(c.entries, oldestPath)
	}
}

func (c *soundCache) clear() {
	c.entries = make(map[string]*cacheEntry)
}

func (c *soundCache) size() int {
	return len(c.entries)
}

func (c *soundCache) setMaxSize(n int) {
	if n > 0 {
		c.maxSize = n
	}
}

// memoryEstimate sums buffered frame bytes across entries
func (c *soundCache) memoryEstimate() int {
	total := 0
	for _, e := range c.entries {
		total += e.buffer.Len() * e.format.Width()
	}
	return total
}

func (c *soundCache) stats() (hits, misses uint64) {
	return c.hits, c.misses
}
