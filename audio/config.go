package audio

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const configVersion = 1

// EQSettings are three-band gain offsets per category
type EQSettings struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// CategoryConfig tunes one channel category
type CategoryConfig struct {
	Volume        float64    `json:"volume"`
	MaxConcurrent int        `json:"max_concurrent"`
	PriorityBoost float64    `json:"priority_boost"`
	Compression   bool       `json:"compression"`
	EQSettings    EQSettings `json:"eq_settings"`
}

// AccessibilityConfig holds accessibility flags persisted with the rest
// of the audio settings
type AccessibilityConfig struct {
	VisualCues       bool `json:"visual_cues"`
	MonoAudio        bool `json:"mono_audio"`
	ReducePitchRange bool `json:"reduce_pitch_range"`
	SubtitleCues     bool `json:"subtitle_cues"`
}

// PerformanceConfig bounds resource use
type PerformanceConfig struct {
	MaxConcurrentSounds int    `json:"max_concurrent_sounds"`
	CacheSize           int    `json:"cache_size"`
	Quality             string `json:"quality"`
}

// Config is the serializable audio configuration. Categories are held in
// an enum-indexed array in memory and marshaled as a name-keyed object.
type Config struct {
	MasterVolume float64
	MusicVolume  float64
	SFXVolume    float64

	Categories [categoryCount]CategoryConfig

	Accessibility AccessibilityConfig
	Performance   PerformanceConfig
	Version       int
}

// configJSON is the wire form of Config
type configJSON struct {
	MasterVolume  float64                   `json:"master_volume"`
	MusicVolume   float64                   `json:"music_volume"`
	SFXVolume     float64                   `json:"sfx_volume"`
	Categories    map[string]CategoryConfig `json:"categories"`
	Accessibility AccessibilityConfig       `json:"accessibility"`
	Performance   PerformanceConfig         `json:"performance"`
	Version       int                       `json:"version"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *Config {
	cfg := &Config{
		MasterVolume: 1.0,
		MusicVolume:  0.7,
		SFXVolume:    1.0,
		Performance: PerformanceConfig{
			MaxConcurrentSounds: defaultFrameCap,
			CacheSize:           defaultCacheSize,
			Quality:             "high",
		},
		Version: configVersion,
	}
	for c := Category(0); c < categoryCount; c++ {
		cfg.Categories[c] = CategoryConfig{
			Volume:        1.0,
			MaxConcurrent: categorySlices[c],
		}
	}
	// UI feedback should win ties against world noise
	cfg.Categories[CategoryUI].PriorityBoost = 0.5
	cfg.Categories[CategoryVoice].PriorityBoost = 1.0
	return cfg
}

// MarshalJSON writes the name-keyed wire form
func (c *Config) MarshalJSON() ([]byte, error) {
	w := configJSON{
		MasterVolume:  c.MasterVolume,
		MusicVolume:   c.MusicVolume,
		SFXVolume:     c.SFXVolume,
		Categories:    make(map[string]CategoryConfig, int(categoryCount)),
		Accessibility: c.Accessibility,
		Performance:   c.Performance,
		Version:       c.Version,
	}
	for cat := Category(0); cat < categoryCount; cat++ {
		w.Categories[cat.String()] = c.Categories[cat]
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the wire form; unknown category names are ignored
func (c *Config) UnmarshalJSON(data []byte) error {
	var w configJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = *DefaultConfig()
	c.MasterVolume = clampUnit(w.MasterVolume)
	c.MusicVolume = clampUnit(w.MusicVolume)
	c.SFXVolume = clampUnit(w.SFXVolume)
	c.Accessibility = w.Accessibility
	if w.Performance.CacheSize > 0 {
		c.Performance = w.Performance
	}
	c.Version = w.Version
	for name, cc := range w.Categories {
		if cat, ok := CategoryFromName(name); ok {
			c.Categories[cat] = cc
		}
	}
	return nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LoadConfig reads the configuration file. A missing file writes and
// returns defaults; a malformed file logs a warning and returns defaults.
// Configuration trouble never crashes the host.
func LoadConfig(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := cfg.Save(path); err != nil {
				log.Printf("audio: could not write default config: %v", err)
			}
			return cfg
		}
		log.Printf("audio: could not read config %s: %v", path, err)
		return DefaultConfig()
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("audio: malformed config %s: %v", path, err)
		return DefaultConfig()
	}
	return cfg
}

// Save writes the configuration as JSON
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal audio config")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create config dir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write audio config %s", path)
	}
	return nil
}

// ApplyPreset overlays a named preset onto the current state. Presets
// adjust, they do not reset; unknown names return false.
func (c *Config) ApplyPreset(name string) bool {
	switch name {
	case "default":
		d := DefaultConfig()
		c.MasterVolume = d.MasterVolume
		c.MusicVolume = d.MusicVolume
		c.SFXVolume = d.SFXVolume
	case "quiet":
		c.MasterVolume = 0.3
		c.MusicVolume = 0.2
		c.SFXVolume = 0.4
	case "loud":
		c.MasterVolume = 1.0
		c.MusicVolume = 0.9
		c.SFXVolume = 1.0
	case "performance":
		c.Performance.MaxConcurrentSounds = 4
		c.Performance.CacheSize = 20
		c.Performance.Quality = "low"
		for i := range c.Categories {
			if c.Categories[i].MaxConcurrent > 2 {
				c.Categories[i].MaxConcurrent = 2
			}
		}
	case "accessibility":
		c.Accessibility.VisualCues = true
		c.Accessibility.MonoAudio = true
		c.Accessibility.SubtitleCues = true
		c.Accessibility.ReducePitchRange = true
	default:
		return false
	}
	return true
}
