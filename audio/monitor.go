package audio

import (
	"fmt"
	"time"
)

const monitorHistorySize = 300 // ~5s of samples at 60Hz

// PerformanceThresholds are the static limits feeding the reduce-quality
// advisory
type PerformanceThresholds struct {
	MaxSoundsPerSec float64
	MaxMemoryBytes  float64
	MaxUtilization  float64
	MaxLatencyMs    float64
}

// DefaultPerformanceThresholds returns the stock advisory limits
func DefaultPerformanceThresholds() PerformanceThresholds {
	return PerformanceThresholds{
		MaxSoundsPerSec: 60,
		MaxMemoryBytes:  64 << 20,
		MaxUtilization:  0.9,
		MaxLatencyMs:    10,
	}
}

// MonitorStats is a snapshot of current monitor readings
type MonitorStats struct {
	SoundsPerSec  float64
	MemoryBytes   float64
	Utilization   float64
	LatencyMs     float64
	CacheHitRate  float64
	TotalSounds   uint64
	ReduceQuality bool
}

// PerformanceMonitor keeps fixed-length rolling histories of audio load
// and derives a multi-signal quality advisory. The per-second sound rate
// rolls over wall-clock second boundaries, not frame boundaries.
type PerformanceMonitor struct {
	clock      TimeProvider
	thresholds PerformanceThresholds

	soundRateHistory   []float64
	memoryHistory      []float64
	utilizationHistory []float64
	latencyHistory     []float64

	soundsThisSecond int
	currentRate      float64
	lastSecond       time.Time

	lastLatencyMs float64
	lastMemory    float64
	lastUtil      float64

	cacheHits   uint64
	cacheMisses uint64
	totalSounds uint64
}

func newPerformanceMonitor(clock TimeProvider) *PerformanceMonitor {
	return &PerformanceMonitor{
		clock:      clock,
		thresholds: DefaultPerformanceThresholds(),
		lastSecond: clock.Now(),
	}
}

// SetThresholds replaces the advisory limits
func (pm *PerformanceMonitor) SetThresholds(t PerformanceThresholds) {
	pm.thresholds = t
}

// RecordSound counts one triggered sound toward the per-second rate
func (pm *PerformanceMonitor) RecordSound() {
	pm.soundsThisSecond++
	pm.totalSounds++
}

// RecordLatency notes how long one playback call took
func (pm *PerformanceMonitor) RecordLatency(d time.Duration) {
	pm.lastLatencyMs = float64(d) / float64(time.Millisecond)
}

// SetCacheStats feeds cumulative cache counters
func (pm *PerformanceMonitor) SetCacheStats(hits, misses uint64) {
	pm.cacheHits = hits
	pm.cacheMisses = misses
}

// Update rolls the per-second counter on second boundaries and appends
// current readings to the rolling histories. Called once per frame.
func (pm *PerformanceMonitor) Update(dt float64, memoryBytes float64, utilization float64) {
	now := pm.clock.Now()
	if now.Sub(pm.lastSecond) >= time.Second {
		pm.currentRate = float64(pm.soundsThisSecond)
		pm.soundsThisSecond = 0
		pm.lastSecond = now
	}

	pm.lastMemory = memoryBytes
	pm.lastUtil = utilization

	pm.soundRateHistory = appendRolling(pm.soundRateHistory, pm.currentRate)
	pm.memoryHistory = appendRolling(pm.memoryHistory, memoryBytes)
	pm.utilizationHistory = appendRolling(pm.utilizationHistory, utilization)
	pm.latencyHistory = appendRolling(pm.latencyHistory, pm.lastLatencyMs)
}

func appendRolling(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > monitorHistorySize {
		h = h[len(h)-monitorHistorySize:]
	}
	return h
}

// CacheHitRate is cumulative hits/(hits+misses), not windowed
func (pm *PerformanceMonitor) CacheHitRate() float64 {
	total := pm.cacheHits + pm.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(pm.cacheHits) / float64(total)
}

// exceededSignals counts how many thresholds are over their limit
func (pm *PerformanceMonitor) exceededSignals() int {
	n := 0
	if pm.currentRate > pm.thresholds.MaxSoundsPerSec {
		n++
	}
	if pm.lastMemory > pm.thresholds.MaxMemoryBytes {
		n++
	}
	if pm.lastUtil > pm.thresholds.MaxUtilization {
		n++
	}
	if pm.lastLatencyMs > pm.thresholds.MaxLatencyMs {
		n++
	}
	return n
}

// ShouldReduceQuality is true only when at least two signals exceed
// their thresholds simultaneously, so momentary single-signal spikes do
// not flap the advisory.
func (pm *PerformanceMonitor) ShouldReduceQuality() bool {
	return pm.exceededSignals() >= 2
}

// Suggestions returns textual advisories for the current readings
func (pm *PerformanceMonitor) Suggestions() []string {
	var out []string
	if pm.currentRate > pm.thresholds.MaxSoundsPerSec {
		out = append(out, fmt.Sprintf("sound rate %.0f/s exceeds %.0f/s; raise event cooldowns or lower per-frame cap", pm.currentRate, pm.thresholds.MaxSoundsPerSec))
	}
	if pm.lastMemory > pm.thresholds.MaxMemoryBytes {
		out = append(out, fmt.Sprintf("sound cache using %.1f MiB; reduce cache size", pm.lastMemory/(1<<20)))
	}
	if pm.lastUtil > pm.thresholds.MaxUtilization {
		out = append(out, fmt.Sprintf("channel utilization %.0f%%; lower category concurrency caps", pm.lastUtil*100))
	}
	if pm.lastLatencyMs > pm.thresholds.MaxLatencyMs {
		out = append(out, fmt.Sprintf("playback latency %.1fms; preload frequent sounds", pm.lastLatencyMs))
	}
	if hitRate := pm.CacheHitRate(); pm.cacheHits+pm.cacheMisses > 50 && hitRate < 0.5 {
		out = append(out, fmt.Sprintf("cache hit rate %.0f%%; preload frequent sounds or raise cache size", hitRate*100))
	}
	return out
}

// Stats returns a snapshot of the current readings
func (pm *PerformanceMonitor) Stats() MonitorStats {
	return MonitorStats{
		SoundsPerSec:  pm.currentRate,
		MemoryBytes:   pm.lastMemory,
		Utilization:   pm.lastUtil,
		LatencyMs:     pm.lastLatencyMs,
		CacheHitRate:  pm.CacheHitRate(),
		TotalSounds:   pm.totalSounds,
		ReduceQuality: pm.ShouldReduceQuality(),
	}
}

// History returns copies of the rolling histories for display tooling
func (pm *PerformanceMonitor) History() (rate, memory, utilization, latency []float64) {
	c := func(h []float64) []float64 {
		out := make([]float64, len(h))
		copy(out, h)
		return out
	}
	return c(pm.soundRateHistory), c(pm.memoryHistory), c(pm.utilizationHistory), c(pm.latencyHistory)
}
