// ABOUTME: In-memory sink for tests and offline scripting
// ABOUTME: Simulates voice playback with caller-driven clock advance
package sink

import (
	"fmt"
	"sync"
)

// Mock is a Sink that plays nothing: playback time only advances when
// the caller invokes Advance. It records every submission and position
// update, which makes scheduler behavior fully observable in tests.
type Mock struct {
	mu      sync.Mutex
	opened  bool
	cfg     Config
	voices  []*MockVoice
	suspend int
	volume  int

	// SuspendCalls counts completed Suspend/Resume brackets.
	SuspendCalls int
}

// NewMock creates an unopened mock sink.
func NewMock() *Mock {
	return &Mock{}
}

// Open records the stream configuration.
func (m *Mock) Open(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("sink: invalid sample rate %d", cfg.SampleRate)
	}
	m.opened = true
	m.cfg = cfg
	return nil
}

// Reset discards all voices.
func (m *Mock) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = nil
	return nil
}

// NewVoice allocates a recording voice.
func (m *Mock) NewVoice() (Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened {
		return nil, fmt.Errorf("sink: not open")
	}
	v := &MockVoice{snk: m, gain: 1}
	m.voices = append(m.voices, v)
	return v, nil
}

// Start moves all given voices to StatePlaying at once.
func (m *Mock) Start(voices ...Voice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range voices {
		mv, ok := v.(*MockVoice)
		if !ok || mv.snk != m {
			return fmt.Errorf("sink: foreign voice")
		}
		mv.state = StatePlaying
	}
	return nil
}

// Stop moves all given voices to StateStopped.
func (m *Mock) Stop(voices ...Voice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range voices {
		if mv, ok := v.(*MockVoice); ok {
			mv.state = StateStopped
		}
	}
	return nil
}

// Suspend begins an atomic update bracket.
func (m *Mock) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspend++
}

// Resume ends an atomic update bracket.
func (m *Mock) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suspend > 0 {
		m.suspend--
		m.SuspendCalls++
	}
}

// SetVolume records the master volume (0-100).
func (m *Mock) SetVolume(volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
}

// Volume returns the last master volume set.
func (m *Mock) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Close marks the sink closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	return nil
}

// Advance simulates frames of playback on every playing voice. A
// voice that runs out of queued data stops, mirroring a hardware
// underrun.
func (m *Mock) Advance(frames uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.voices {
		if v.state != StatePlaying {
			continue
		}
		v.offset += frames
		total := v.queuedFrames()
		if v.offset >= total {
			v.offset = total
			v.state = StateStopped
		}
		v.reprocess()
	}
}

// Voices returns the allocated voices in creation order.
func (m *Mock) Voices() []*MockVoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockVoice(nil), m.voices...)
}

// MockVoice records everything submitted to it.
type MockVoice struct {
	snk *Mock

	state     State
	queue     [][]byte // queued buffers, oldest first
	processed int
	offset    uint32

	gain        float32
	submissions [][]byte
	positions   [][3]float32
}

func (v *MockVoice) queuedFrames() uint32 {
	var total uint32
	for _, b := range v.queue {
		total += uint32(v.snk.cfg.Format.FrameCount(b))
	}
	return total
}

// reprocess recomputes how many whole queued buffers lie behind the
// playback offset.
func (v *MockVoice) reprocess() {
	v.processed = 0
	var passed uint32
	for _, b := range v.queue {
		passed += uint32(v.snk.cfg.Format.FrameCount(b))
		if v.offset >= passed {
			v.processed++
		}
	}
}

// Queue submits a buffer, reclaiming a processed one if present.
func (v *MockVoice) Queue(pcm []byte) error {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
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
	buf := append([]byte(nil), pcm...)
	v.queue = append(v.queue, buf)
	v.submissions = append(v.submissions, buf)
	return nil
}

// Status reports the simulated playback position.
func (v *MockVoice) Status() Status {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
	return Status{Processed: v.processed, Offset: v.offset, State: v.state}
}

// SetPosition records the update.
func (v *MockVoice) SetPosition(x, y, z float32) {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
	v.positions = append(v.positions, [3]float32{x, y, z})
}

// SetGain records the gain.
func (v *MockVoice) SetGain(gain float32) {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
	v.gain = gain
}

// Submissions returns every buffer ever queued, in order.
func (v *MockVoice) Submissions() [][]byte {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
	return append([][]byte(nil), v.submissions...)
}

// Positions returns every position update, in order.
func (v *MockVoice) Positions() [][3]float32 {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
	return append([][3]float32(nil), v.positions...)
}

// Gain returns the last gain set on the voice.
func (v *MockVoice) Gain() float32 {
	v.snk.mu.Lock()
	defer v.snk.mu.Unlock()
	return v.gain
}
