// ABOUTME: Oto-based live playback sink
// ABOUTME: Mixes spatialized mono voices down to stereo PCM
package sink

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/limitless-audio/laf-go/internal/devqueue"
	"github.com/limitless-audio/laf-go/pkg/audio"
	"github.com/limitless-audio/laf-go/pkg/audio/resample"
)

// oto allows one context per process.
var (
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
	otoOnce sync.Once
)

// Oto is a Sink backed by the oto library. Voices are mixed to stereo
// int16 with constant-power panning from each voice's position; the
// device pulls mixed PCM on its own real-time goroutine. Device calls
// are marshaled onto a single handler goroutine via devqueue.
type Oto struct {
	dev *devqueue.Queue

	// renderMu is held by the mixer for each rendered block; Suspend
	// takes it so multi-voice updates apply between blocks.
	renderMu sync.Mutex

	// stateMu guards voice lists and per-voice playback state.
	stateMu sync.Mutex

	cfg    Config
	voices []*otoVoice
	player *oto.Player
	rs     *resample.Stereo
	opened bool
	volume float64
}

// NewOto creates an unopened oto sink.
func NewOto() *Oto {
	return &Oto{dev: devqueue.New(), volume: 1.0}
}

// Open initializes the shared oto context and starts the mix stream.
func (o *Oto) Open(cfg Config) error {
	return o.dev.Do(func() error {
		otoOnce.Do(func() {
			op := &oto.NewContextOptions{
				SampleRate:   cfg.SampleRate,
				ChannelCount: 2,
				Format:       oto.FormatSignedInt16LE,
			}
			var ready chan struct{}
			otoCtx, ready, otoErr = oto.NewContext(op)
			if otoErr == nil {
				otoRate = cfg.SampleRate
				<-ready
			}
		})
		if otoErr != nil {
			return fmt.Errorf("failed to create oto context: %w", otoErr)
		}
		o.stateMu.Lock()
		o.cfg = cfg
		o.opened = true
		// oto doesn't support reinitialization, so streams at another
		// rate are resampled into the existing context.
		o.rs = nil
		if otoRate != cfg.SampleRate {
			log.Printf("Resampling %dHz stream to the %dHz device", cfg.SampleRate, otoRate)
			o.rs = resample.New(cfg.SampleRate, otoRate)
		}
		o.stateMu.Unlock()

		if o.player == nil {
			o.player = otoCtx.NewPlayer(&mixer{snk: o})
			o.player.Play()
		}
		return nil
	})
}

// Reset discards all voices, keeping the device open.
func (o *Oto) Reset() error {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.voices = nil
	return nil
}

// NewVoice allocates a mono voice.
func (o *Oto) NewVoice() (Voice, error) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if !o.opened {
		return nil, fmt.Errorf("sink: not open")
	}
	v := &otoVoice{snk: o, gain: 1}
	v.panL, v.panR = audio.PanGains(0)
	o.voices = append(o.voices, v)
	return v, nil
}

// Start begins playback of the given voices in sync: the mixer cannot
// render between the individual state flips.
func (o *Oto) Start(voices ...Voice) error {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	for _, v := range voices {
		ov, ok := v.(*otoVoice)
		if !ok || ov.snk != o {
			return fmt.Errorf("sink: foreign voice")
		}
		ov.state = StatePlaying
	}
	return nil
}

// Stop halts the given voices, keeping their queued data.
func (o *Oto) Stop(voices ...Voice) error {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	for _, v := range voices {
		if ov, ok := v.(*otoVoice); ok {
			ov.state = StateStopped
		}
	}
	return nil
}

// Suspend keeps the mixer from rendering until Resume.
func (o *Oto) Suspend() { o.renderMu.Lock() }

// Resume lets the mixer render again.
func (o *Oto) Resume() { o.renderMu.Unlock() }

// SetVolume sets the master volume (0-100).
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.stateMu.Lock()
	o.volume = float64(volume) / 100.0
	o.stateMu.Unlock()
}

// Close stops the mix stream and the device-call handler.
func (o *Oto) Close() error {
	err := o.dev.Do(func() error {
		if o.player != nil {
			if err := o.player.Close(); err != nil {
				return fmt.Errorf("closing oto player: %w", err)
			}
			o.player = nil
		}
		return nil
	})
	o.dev.Close()
	o.stateMu.Lock()
	o.opened = false
	o.stateMu.Unlock()
	return err
}

// mixer adapts the voice set to the io.Reader oto pulls from.
type mixer struct {
	snk *Oto
}

func (mx *mixer) Read(p []byte) (int, error) {
	o := mx.snk
	o.renderMu.Lock()
	defer o.renderMu.Unlock()
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	mix := func() (float32, float32) {
		var left, right float32
		for _, v := range o.voices {
			s := v.renderFrame() * v.gain
			left += s * v.panL
			right += s * v.panR
		}
		return left, right
	}

	frames := len(p) / 4 // stereo int16
	for f := 0; f < frames; f++ {
		var left, right float32
		if o.rs != nil {
			left, right = o.rs.Next(mix)
		} else {
			left, right = mix()
		}
		left *= float32(o.volume)
		right *= float32(o.volume)
		binary.LittleEndian.PutUint16(p[f*4:], uint16(audio.ToInt16(left)))
		binary.LittleEndian.PutUint16(p[f*4+2:], uint16(audio.ToInt16(right)))
	}
	return frames * 4, nil
}

// otoVoice is one mono channel in the mix.
type otoVoice struct {
	snk *Oto

	state     State
	queue     [][]byte
	processed int
	offset    uint32

	gain       float32
	panL, panR float32
}

// renderFrame produces the voice's next sample. Caller holds stateMu.
func (v *otoVoice) renderFrame() float32 {
	if v.state != StatePlaying {
		return 0
	}

	format := v.snk.cfg.Format
	rel := int(v.offset)
	idx := 0
	for idx < len(v.queue) {
		n := format.FrameCount(v.queue[idx])
		if rel < n {
			break
		}
		rel -= n
		idx++
	}
	if idx >= len(v.queue) {
		// Ran dry: hardware underrun.
		v.state = StateStopped
		return 0
	}

	s := format.SampleAt(v.queue[idx], rel)
	v.offset++
	if rel+1 == format.FrameCount(v.queue[idx]) {
		v.processed++
	}
	return s
}

func (v *otoVoice) Queue(pcm []byte) error {
	v.snk.stateMu.Lock()
	defer v.snk.stateMu.Unlock()
	if v.processed > 0 {
		reclaimed := uint32(v.snk.cfg.Format.FrameCount(v.queue[0]))
		v.queue = v.queue[1:]
		v.processed--
		if v.offset >= reclaimed {
			v.offset -= reclaimed
		} else {
			v.offset = 0
		}
	}
	v.queue = append(v.queue, append([]byte(nil), pcm...))
	return nil
}

func (v *otoVoice) Status() Status {
	v.snk.stateMu.Lock()
	defer v.snk.stateMu.Unlock()
	return Status{Processed: v.processed, Offset: v.offset, State: v.state}
}

func (v *otoVoice) SetPosition(x, y, z float32) {
	v.snk.stateMu.Lock()
	defer v.snk.stateMu.Unlock()
	v.panL, v.panR = audio.PanGains(x)
}

func (v *otoVoice) SetGain(gain float32) {
	v.snk.stateMu.Lock()
	defer v.snk.stateMu.Unlock()
	v.gain = gain
}
