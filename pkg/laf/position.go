// ABOUTME: Position track decoding and sliding position window
// ABOUTME: Converts raw position samples to floats indexed by playback offset
package laf

import (
	"encoding/binary"
	"math"
)

// ConvertPositions decodes one second of a position track's raw
// samples, as returned by PrepareTrack, into normalized floats.
// Integer samples map onto [-1, 1]; float samples pass through.
func (s *Stream) ConvertPositions(dst []float32, src []byte) error {
	switch s.info.Quality {
	case QualityInt8:
		for i, b := range src {
			dst[i] = float32(int8(b)) / 127.0
		}
	case QualityInt16:
		for i := 0; i < len(src)/2; i++ {
			v := int16(binary.LittleEndian.Uint16(src[i*2:]))
			dst[i] = float32(v) / 32767.0
		}
	case QualityFloat32:
		for i := 0; i < len(src)/4; i++ {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case QualityInt24:
		return ErrUnsupported24Bit
	}
	return nil
}

// PositionWindow is a two-second sliding window of decoded position
// samples for one position track. Under double buffering the sink
// offset ranges over both queued seconds, so lookups index the whole
// window. The window stores raw coordinate samples; every 48 frames
// of playback carry one (x,y,z) triple for each of 16 channels.
type PositionWindow struct {
	data []float32
	rate uint32
}

// NewPositionWindow creates a window covering 2*sampleRate samples,
// initially all zero.
func NewPositionWindow(sampleRate uint32) *PositionWindow {
	return &PositionWindow{
		data: make([]float32, 2*sampleRate),
		rate: sampleRate,
	}
}

// FirstHalf returns the window's first second as a decode destination.
func (w *PositionWindow) FirstHalf() []float32 { return w.data[:w.rate] }

// SecondHalf returns the window's second second as a decode destination.
func (w *PositionWindow) SecondHalf() []float32 { return w.data[w.rate:] }

// Shift discards the consumed first second, moving the second second
// down so a fresh second can be decoded into SecondHalf.
func (w *PositionWindow) Shift() {
	copy(w.data, w.data[w.rate:])
}

// At returns the coordinate triple for the channel at channelInGroup
// (0..15) at the given playback offset in frames from the head of the
// queued buffers.
func (w *PositionWindow) At(offset uint32, channelInGroup int) (x, y, z float32) {
	pos := (int(offset)/FramesPerPosition*ChannelsPerPositionTrack + channelInGroup) * 3
	// offset == 2*rate is reachable for one tick as the queue drains.
	if pos+3 > len(w.data) {
		pos = len(w.data) - 3
	}
	return w.data[pos], w.data[pos+1], w.data[pos+2]
}
