// ABOUTME: Double-buffered playback scheduler
// ABOUTME: Primes, refills and monitors sink voices in time with playback offset
package player

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/limitless-audio/laf-go/pkg/audio"
	"github.com/limitless-audio/laf-go/pkg/audio/sink"
	"github.com/limitless-audio/laf-go/pkg/laf"
)

// DefaultIdleDelay is how long the scheduler sleeps when no sink
// buffer has been freed.
const DefaultIdleDelay = 10 * time.Millisecond

// Options configures a Scheduler.
type Options struct {
	// Device is passed through to the sink's Open.
	Device string

	// IdleDelay overrides DefaultIdleDelay when positive.
	IdleDelay time.Duration

	// OnProgress, when set, is called after every tick with the played
	// frame count and the reference voice's state. It runs on the
	// scheduling goroutine and must not block.
	OnProgress func(played uint64, state sink.State)
}

// Stats counts scheduler activity.
type Stats struct {
	ChunksRead int64
	Underruns  int64
}

// FormatForQuality maps a stream quality onto a sink PCM format.
// 24-bit streams are rejected here, before any chunk is decoded.
func FormatForQuality(q laf.Quality) (audio.Format, error) {
	switch q {
	case laf.QualityInt8:
		return audio.FormatMono8, nil
	case laf.QualityInt16:
		return audio.FormatMono16, nil
	case laf.QualityFloat32:
		return audio.FormatMonoFloat32, nil
	}
	return 0, laf.ErrUnsupported24Bit
}

// Scheduler drives one stream's playback: it keeps every audio
// track's voice double-buffered with one-second chunks and applies
// decoded spatial positions in step with the sink-reported offset.
//
// A Scheduler owns its stream and voices and must be used from a
// single goroutine.
type Scheduler struct {
	stream  *laf.Stream
	snk     sink.Sink
	voices  []sink.Voice
	windows []*laf.PositionWindow

	// queued holds the frame counts of outstanding buffers, oldest
	// first; identical across voices since submission is in lockstep.
	queued    []uint32
	reclaimed uint64

	idleDelay  time.Duration
	onProgress func(uint64, sink.State)
	draining   bool
	idle       bool

	stats Stats
}

// New opens the sink for the stream's format and allocates one voice
// per audio track. Channels-mode placement and LFE silencing are
// applied here, so voices are ready to be primed.
func New(stream *laf.Stream, snk sink.Sink, opts Options) (*Scheduler, error) {
	format, err := FormatForQuality(stream.Info().Quality)
	if err != nil {
		return nil, err
	}

	cfg := sink.Config{
		Device:     opts.Device,
		SampleRate: int(stream.Info().SampleRate),
		Format:     format,
	}
	if err := snk.Open(cfg); err != nil {
		return nil, fmt.Errorf("opening sink: %w", err)
	}

	s := &Scheduler{
		stream:     stream,
		snk:        snk,
		idleDelay:  opts.IdleDelay,
		onProgress: opts.OnProgress,
	}
	if s.idleDelay <= 0 {
		s.idleDelay = DefaultIdleDelay
	}

	for _, ch := range stream.Channels() {
		v, err := snk.NewVoice()
		if err != nil {
			return nil, fmt.Errorf("allocating voice: %w", err)
		}

		// Static placement from the track metadata. Positive azimuth
		// moves right of center, positive elevation above head level.
		az, el := float64(ch.Azimuth), float64(ch.Elevation)
		x := float32(math.Sin(az) * math.Cos(el))
		y := float32(math.Sin(el))
		z := float32(-math.Cos(az) * math.Cos(el))
		v.SetPosition(x, y, z)

		// LFE signals may expect subwoofer filtering; don't play them
		// raw.
		if ch.IsLFE {
			v.SetGain(0)
		}

		s.voices = append(s.voices, v)
	}

	for i := 0; i < stream.NumPositionTracks(); i++ {
		s.windows = append(s.windows, laf.NewPositionWindow(stream.Info().SampleRate))
	}

	return s, nil
}

// Stats returns scheduler counters.
func (s *Scheduler) Stats() Stats { return s.stats }

// Progress reports the played frame count and the reference voice's
// state.
func (s *Scheduler) Progress() (uint64, sink.State) {
	st := s.reference().Status()
	return s.reclaimed + uint64(st.Offset), st.State
}

// reference returns the voice polled for scheduling decisions: the
// last channel, since it lags most when an update runs late and so
// detects underruns first.
func (s *Scheduler) reference() sink.Voice {
	return s.voices[len(s.voices)-1]
}

// Run drives Step until the stream has fully played, the context is
// canceled, or a fatal error occurs. The bounded idle sleep between
// ticks is the only suspension point.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		done, err := s.Step()
		if err != nil {
			return err
		}
		if s.onProgress != nil {
			played, st := s.Progress()
			s.onProgress(played, st)
		}
		if done {
			return nil
		}
		if s.idle {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.idleDelay):
			}
		}
	}
}

// Step executes one scheduling tick and reports whether playback has
// finished. It never sleeps; Run adds the idle delay when a tick had
// nothing to do.
func (s *Scheduler) Step() (bool, error) {
	s.idle = false

	if s.draining || s.stream.AtEnd() {
		s.draining = true
		return s.drainStep()
	}

	st := s.reference().Status()
	switch st.State {
	case sink.StateInitial:
		return false, s.prime()

	case sink.StatePlaying, sink.StatePaused:
		// Positions track the offset every tick; they move faster
		// than buffers are consumed.
		s.applyPositions(st.Offset)
		if st.Processed > 0 {
			return false, s.refill()
		}
		s.idle = true
		return false, nil

	case sink.StateStopped:
		// All queued buffers drained before we refilled: underrun.
		// Restart the still-queued voices without reloading anything.
		s.stats.Underruns++
		if err := s.snk.Start(s.voices...); err != nil {
			return false, fmt.Errorf("restarting after underrun: %w", err)
		}
		return false, nil

	default:
		return false, fmt.Errorf("voice in unexpected state %v", st.State)
	}
}

// prime loads the first two seconds into the double buffers, decodes
// the initial position windows, and starts all voices in sync.
func (s *Scheduler) prime() error {
	for slot := 0; slot < 2; slot++ {
		frames, err := s.stream.ReadChunk()
		if err != nil {
			return err
		}
		if frames == 0 {
			// Stream shorter than the double buffer; leave the second
			// slot empty.
			break
		}
		s.stats.ChunksRead++
		s.queued = append(s.queued, frames)

		for i, v := range s.voices {
			pcm, err := s.stream.PrepareTrack(i, frames)
			if err != nil {
				return err
			}
			if err := v.Queue(pcm); err != nil {
				return fmt.Errorf("queueing buffer: %w", err)
			}
		}
		for i, w := range s.windows {
			half := w.FirstHalf()
			if slot == 1 {
				half = w.SecondHalf()
			}
			if err := s.decodePositions(i, frames, half); err != nil {
				return err
			}
		}
	}

	// Initial spatial attributes come from the first decoded second.
	if len(s.windows) > 0 {
		s.applyPositions(0)
	}

	if err := s.snk.Start(s.voices...); err != nil {
		return fmt.Errorf("starting voices: %w", err)
	}
	return nil
}

// refill reads one chunk and requeues every voice's freed buffer
// slot, then slides each position window forward one second.
func (s *Scheduler) refill() error {
	frames, err := s.stream.ReadChunk()
	if err != nil {
		return err
	}
	if frames == 0 {
		return nil
	}
	s.stats.ChunksRead++

	s.reclaimed += uint64(s.queued[0])
	s.queued = append(s.queued[:0], s.queued[1:]...)
	s.queued = append(s.queued, frames)

	for i, v := range s.voices {
		pcm, err := s.stream.PrepareTrack(i, frames)
		if err != nil {
			return err
		}
		if err := v.Queue(pcm); err != nil {
			return fmt.Errorf("queueing buffer: %w", err)
		}
	}
	for i, w := range s.windows {
		w.Shift()
		if err := s.decodePositions(i, frames, w.SecondHalf()); err != nil {
			return err
		}
	}
	return nil
}

// decodePositions demultiplexes position track i from the current
// chunk and decodes it into dst.
func (s *Scheduler) decodePositions(i int, frames uint32, dst []float32) error {
	raw, err := s.stream.PrepareTrack(s.stream.NumChannels()+i, frames)
	if err != nil {
		return err
	}
	return s.stream.ConvertPositions(dst, raw)
}

// applyPositions pushes each channel's coordinates for the given
// playback offset, bracketed so the sink can't render a half-updated
// set. The stored positions are left-handed; negate Z to match the
// sink's right-handed space.
func (s *Scheduler) applyPositions(offset uint32) {
	if len(s.windows) == 0 {
		return
	}
	s.snk.Suspend()
	for i, v := range s.voices {
		w := s.windows[i>>4]
		x, y, z := w.At(offset, i&15)
		v.SetPosition(x, y, -z)
	}
	s.snk.Resume()
}

// drainStep polls for position updates and sink state after the chunk
// source is exhausted, with no further submission, until the
// reference voice leaves the playing state.
func (s *Scheduler) drainStep() (bool, error) {
	st := s.reference().Status()
	if st.State != sink.StatePlaying {
		return true, nil
	}
	s.applyPositions(st.Offset)
	s.idle = true
	return false, nil
}
