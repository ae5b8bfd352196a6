// ABOUTME: Abstract playback sink interface
// ABOUTME: Voice-based PCM submission with offset and state reporting
package sink

import "github.com/limitless-audio/laf-go/pkg/audio"

// State is the playback state a voice reports.
type State int

const (
	StateInitial State = iota // created, never started
	StatePlaying
	StatePaused
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return "<unknown>"
}

// Status is a voice's playback position snapshot.
type Status struct {
	// Processed counts buffers that finished playing and have not
	// been reclaimed by a Queue call yet.
	Processed int

	// Offset is the playback position in frames, measured from the
	// start of the oldest buffer still queued (reclaimed or not).
	Offset uint32

	State State
}

// Config describes the stream a sink is opened for.
type Config struct {
	// Device is a backend-specific device name; empty means default.
	Device string

	SampleRate int
	Format     audio.Format
}

// Voice is one logical mono channel of a sink. Buffers play back in
// the order they are queued.
type Voice interface {
	// Queue submits one buffer of PCM in the sink's configured
	// format. If a processed buffer is pending, it is reclaimed by
	// this call, freeing its slot.
	Queue(pcm []byte) error

	// Status reports the voice's processed-buffer count, playback
	// offset and state.
	Status() Status

	// SetPosition updates the voice's spatial position. Callers that
	// update several voices for the same playback offset bracket the
	// updates in Suspend/Resume on the sink.
	SetPosition(x, y, z float32)

	// SetGain scales the voice's output; 0 silences it.
	SetGain(gain float32)
}

// Sink is an audio playback device that mixes a set of spatialized
// mono voices. Implementations may run playback on their own
// real-time thread; all methods are safe for use from one scheduling
// goroutine.
type Sink interface {
	// Open prepares the device for a stream with the given format.
	Open(cfg Config) error

	// Reset discards all voices and any queued data, keeping the
	// device open.
	Reset() error

	// NewVoice allocates a voice. Voices start in StateInitial.
	NewVoice() (Voice, error)

	// Start begins synchronized playback of the given voices: none of
	// them renders a frame before all of them are started.
	Start(voices ...Voice) error

	// Stop halts the given voices without discarding queued data.
	Stop(voices ...Voice) error

	// Suspend blocks the device from rendering until Resume, so a
	// multi-voice position update is applied atomically.
	Suspend()
	Resume()

	// Close releases the device.
	Close() error
}
