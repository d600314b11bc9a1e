package audio

import (
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/pkg/errors"
)

// stubOutput records played streamers instead of touching a device
type stubOutput struct {
	initErr error
	played  []beep.Streamer
}

func (o *stubOutput) init() error          { return o.initErr }
func (o *stubOutput) play(s beep.Streamer) { o.played = append(o.played, s) }
func (o *stubOutput) clear()               { o.played = nil }
func (o *stubOutput) suspend()             {}
func (o *stubOutput) resume()              {}

func (o *stubOutput) last() *playback {
	if len(o.played) == 0 {
		return nil
	}
	return o.played[len(o.played)-1].(*playback)
}

// toneStreamer produces a fixed number of constant frames
type toneStreamer struct {
	remaining int
}

func (t *toneStreamer) Stream(samples [][2]float64) (int, bool) {
	if t.remaining <= 0 {
		return 0, false
	}
	n := len(samples)
	if n > t.remaining {
		n = t.remaining
	}
	for i := 0; i < n; i++ {
		samples[i][0] = 0.5
		samples[i][1] = 0.5
	}
	t.remaining -= n
	return n, true
}

func (t *toneStreamer) Err() error { return nil }

const testSoundFrames = 480 // 10ms at the mixer rate

// testLoad synthesizes sound buffers so tests never touch the
// filesystem; paths containing "missing" simulate a load failure
func testLoad(path string) (*beep.Buffer, beep.Format, error) {
	if strings.Contains(path, "missing") {
		return nil, beep.Format{}, errors.Errorf("open sound %s: no such file", path)
	}
	format := beep.Format{SampleRate: mixerSampleRate, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(format)
	buf.Append(&toneStreamer{remaining: testSoundFrames})
	return buf, format, nil
}

// drain pulls a streamer to completion, standing in for the speaker
func drain(s beep.Streamer) {
	buf := make([][2]float64, 512)
	for i := 0; i < 100000; i++ {
		if _, ok := s.Stream(buf); !ok {
			return
		}
	}
}

func newTestManager(opts ...Option) (*Manager, *stubOutput, *MockTimeProvider) {
	clock := NewMockTimeProvider(time.Unix(1000, 0))
	out := &stubOutput{}
	all := append([]Option{WithClock(clock), withOutput(out)}, opts...)
	m := New(all...)
	m.cache.load = testLoad
	return m, out, clock
}

// newTestPool builds a standalone priority pool of n channels
func newTestPool(n int, clock TimeProvider) *prioritySystem {
	chans := make([]*Channel, n)
	for i := range chans {
		chans[i] = newChannel(i, CategoryUI)
	}
	return newPrioritySystem(chans, n, clock)
}
