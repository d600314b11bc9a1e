// Interactive soundboard for exercising the audio manager: key-bound
// events, live channel utilization and the performance readout on a
// terminal grid. Runs fine without an audio device; playback is silently
// disabled and the board still shows allocation behavior.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/resonance/audio"
	"github.com/lixenwraith/resonance/vmath"
)

const frameInterval = 16 * time.Millisecond

// binding maps one key to a registered sound event
type binding struct {
	key   rune
	event string
	label string
}

var bindings = []binding{
	{'1', "ui.click", "UI click"},
	{'2', "ui.error", "UI error"},
	{'3', "player.step", "footstep"},
	{'4', "player.shoot", "shoot"},
	{'5', "world.explosion", "explosion (spatial)"},
	{'6', "world.thunder", "thunder (far)"},
	{'7', "ambient.wind", "wind loop"},
	{'8', "voice.callout", "voice callout"},
}

type app struct {
	screen        tcell.Screen
	width, height int

	mgr *audio.Manager

	// Spatial sources orbit the listener to show pan and rolloff
	sourceX  float32
	sourceDX float32

	lastTrigger string
	musicOn     bool
}

func newApp() (*app, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	a := &app{
		screen:   screen,
		mgr:      audio.New(audio.WithConfigPath(configPath())),
		sourceX:  -400,
		sourceDX: 120,
	}
	a.width, a.height = screen.Size()
	a.registerEvents()
	return a, nil
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "soundboard.json"
	}
	return dir + "/soundboard/audio.json"
}

func (a *app) registerEvents() {
	a.mgr.RegisterEvent("ui.click", audio.EventConfig{
		Sound:    "assets/ui_click.wav",
		Category: audio.CategoryUI,
		Priority: audio.PriorityHigh,
		Cooldown: 30 * time.Millisecond,
	})
	a.mgr.RegisterEvent("ui.error", audio.EventConfig{
		Sound:    "assets/ui_error.wav",
		Category: audio.CategoryUI,
		Priority: audio.PriorityHigh,
	})
	a.mgr.RegisterEvent("player.step", audio.EventConfig{
		Sound:      "assets/step.wav",
		Variations: []string{"assets/step2.wav", "assets/step3.wav"},
		Category:   audio.CategoryPlayer,
		Priority:   audio.PriorityMedium,
		PitchMin:   0.9,
		PitchMax:   1.1,
		Cooldown:   120 * time.Millisecond,
	})
	a.mgr.RegisterEvent("player.shoot", audio.EventConfig{
		Sound:     "assets/shoot.wav",
		Category:  audio.CategoryPlayer,
		Priority:  audio.PriorityHigh,
		VolumeMin: 0.8,
		VolumeMax: 1.0,
		Cooldown:  60 * time.Millisecond,
	})
	a.mgr.RegisterEvent("world.explosion", audio.EventConfig{
		Sound:       "assets/explosion.wav",
		Category:    audio.CategoryEnvironment,
		Priority:    audio.PriorityCritical,
		Spatial:     true,
		MaxDistance: 800,
		Rolloff:     1.5,
	})
	a.mgr.RegisterEvent("world.thunder", audio.EventConfig{
		Sound:       "assets/thunder.wav",
		Category:    audio.CategoryEnvironment,
		Priority:    audio.PriorityLow,
		Spatial:     true,
		MaxDistance: 2000,
		Rolloff:     0.7,
	})
	a.mgr.RegisterEvent("ambient.wind", audio.EventConfig{
		Sound:        "assets/wind.wav",
		Category:     audio.CategoryAmbient,
		Priority:     audio.PriorityAmbient,
		MaxInstances: 1,
		FadeIn:       2 * time.Second,
	})
	a.mgr.RegisterEvent("voice.callout", audio.EventConfig{
		Sound:    "assets/callout.wav",
		Category: audio.CategoryVoice,
		Priority: audio.PriorityHigh,
	})
}

func (a *app) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		r := ev.Rune()

		for _, b := range bindings {
			if b.key != r {
				continue
			}
			ctx := audio.EventContext{}
			if cfg, ok := a.mgr.LookupEvent(b.event); ok && cfg.Spatial {
				pos := vmath.Vec3{X: a.sourceX}
				ctx.Position = &pos
				ctx.Velocity = vmath.Vec3{X: a.sourceDX}
			}
			if a.mgr.TriggerEvent(b.event, ctx) {
				a.lastTrigger = b.label
			} else {
				a.lastTrigger = b.label + " (dropped)"
			}
			return true
		}

		switch r {
		case 'q':
			return false
		case 'm':
			if a.musicOn {
				a.mgr.StopMusic(time.Second)
			} else {
				a.mgr.PlayMusic("assets/theme.ogg", -1, time.Second, false)
			}
			a.musicOn = !a.musicOn
		case 'c':
			a.mgr.CrossfadeMusic("assets/battle.ogg", 2*time.Second)
			a.musicOn = true
		case '+', '=':
			a.mgr.SetMasterVolume(a.mgr.MasterVolume() + 0.1)
		case '-':
			a.mgr.SetMasterVolume(a.mgr.MasterVolume() - 0.1)
		case 's':
			a.mgr.StopAll()
			a.musicOn = false
		case 'p':
			a.mgr.ApplyPreset("performance")
		}

	case *tcell.EventResize:
		a.width, a.height = a.screen.Size()
	}
	return true
}

// update advances the orbiting spatial source and the manager's frame work
func (a *app) update(dt float64) {
	a.sourceX += a.sourceDX * float32(dt)
	if a.sourceX > 600 || a.sourceX < -600 {
		a.sourceDX = -a.sourceDX
	}
	a.mgr.SetListener(vmath.Vec3{}, vmath.Vec3{})
	a.mgr.Update(dt)
}

func (a *app) draw() {
	a.screen.Clear()
	base := tcell.StyleDefault
	dim := base.Foreground(tcell.ColorGray)
	accent := base.Foreground(tcell.ColorAqua)
	warn := base.Foreground(tcell.ColorYellow)

	y := 0
	a.text(0, y, "SOUNDBOARD", accent.Bold(true))
	if !a.mgr.Enabled() {
		a.text(12, y, "[no audio device: silent mode]", warn)
	}
	y += 2

	for i, b := range bindings {
		a.text(0, y+i, fmt.Sprintf("%c  %s", b.key, b.label), base)
	}
	y += len(bindings) + 1

	a.text(0, y, "m music  c crossfade  +/- volume  s stop all  p perf preset  q quit", dim)
	y += 2

	info := a.mgr.GetPerformanceInfo()
	a.text(0, y, fmt.Sprintf("master %.1f  music %q  source x=%+.0f", a.mgr.MasterVolume(), a.mgr.CurrentMusic(), a.sourceX), base)
	y++
	if a.lastTrigger != "" {
		a.text(0, y, "last: "+a.lastTrigger, accent)
	}
	y += 2

	categories := []audio.Category{
		audio.CategoryUI, audio.CategoryPlayer, audio.CategoryEnvironment,
		audio.CategoryMusic, audio.CategoryAmbient, audio.CategoryVoice,
	}
	for _, c := range categories {
		active := info.CategoryActive[c]
		a.text(0, y, fmt.Sprintf("%-12s", c.String()), dim)
		a.bar(13, y, 20, active, accent)
		a.text(35, y, fmt.Sprintf("%d", active), base)
		y++
	}
	a.text(0, y, fmt.Sprintf("%-12s", "overflow"), dim)
	a.bar(13, y, 20, info.OverflowActive, warn)
	y += 2

	a.text(0, y, fmt.Sprintf("util %.0f%%  cache %d sounds / %.1f KiB  hit %.0f%%  rate %.0f/s",
		info.Utilization*100, info.CacheSize, float64(info.CacheMemoryBytes)/1024,
		info.CacheHitRate*100, info.Monitor.SoundsPerSec), base)
	y++
	for _, s := range info.Suggestions {
		a.text(0, y, "! "+s, warn)
		y++
	}

	a.screen.Show()
}

func (a *app) text(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		if x+i >= a.width {
			return
		}
		a.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (a *app) bar(x, y, width, value int, style tcell.Style) {
	for i := 0; i < width; i++ {
		r := '·'
		if i < value*2 {
			r = '█'
		}
		a.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (a *app) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- a.screen.PollEvent()
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !a.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			a.update(now.Sub(last).Seconds())
			last = now
			a.draw()
		}
	}
}

func main() {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "soundboard: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		a.screen.Fini()
		a.mgr.Close()
		if err := a.mgr.SaveConfig(); err != nil {
			log.Printf("soundboard: save config: %v", err)
		}
	}()

	a.run()
}
