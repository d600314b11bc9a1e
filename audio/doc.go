// Package audio provides a layered sound manager for games: a fixed pool
// of playback channels partitioned into categories with priority-based
// preemption, a declarative event trigger system with cooldowns and
// instance limits, positional audio (distance attenuation, stereo
// panning, doppler), an LRU sound cache, music playback with queueing
// and crossfade, and a rolling performance monitor.
//
// All allocation and trigger state is frame-driven and single-goroutine:
// call the Manager from the host's main loop and invoke Update once per
// frame. Every failure degrades to "no sound" — a missing device, a
// missing asset or an exhausted channel pool never propagates an error
// into the host.
package audio
