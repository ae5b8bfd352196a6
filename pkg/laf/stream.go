// ABOUTME: Chunk reader and track demultiplexer
// ABOUTME: Reads one-second interleaved chunks and extracts per-track samples
package laf

import (
	"fmt"
	"io"
	"math/bits"
)

// Stream reads chunked sample data from a parsed LAF container. The
// underlying reader is consumed strictly sequentially; a Stream is not
// safe for concurrent use.
type Stream struct {
	r io.Reader

	info     StreamInfo
	channels []TrackMeta // audio tracks only, in track order

	numPosTracks int

	// Per-chunk state, rebuilt by every ReadChunk call.
	enabled    [MaxTracks / 8]byte
	numEnabled int

	consumed uint64

	chunk []byte // interleaved samples for the current chunk
	line  []byte // scratch for one deinterleaved track
}

// Info returns the immutable stream descriptor.
func (s *Stream) Info() StreamInfo { return s.info }

// Channels returns the metadata of the audio tracks, in track order.
// The returned slice must not be modified.
func (s *Stream) Channels() []TrackMeta { return s.channels }

// NumChannels returns the number of audio tracks.
func (s *Stream) NumChannels() int { return len(s.channels) }

// NumPositionTracks returns the number of trailing position tracks.
func (s *Stream) NumPositionTracks() int { return s.numPosTracks }

// AtEnd reports whether every declared sample has been consumed.
func (s *Stream) AtEnd() bool { return s.consumed >= s.info.SampleCount }

// ReadChunk reads the next one-second chunk: the enabled-track bitmap
// followed by the interleaved samples of every enabled track. It
// returns the number of valid frames in the chunk, which is less than
// the sample rate only for the final chunk. At end of stream it
// returns 0 without touching the source.
func (s *Stream) ReadChunk() (uint32, error) {
	if s.AtEnd() {
		return 0, nil
	}

	bitmapLen := (int(s.info.NumTracks) + 7) >> 3
	clear(s.enabled[:])
	if _, err := io.ReadFull(s.r, s.enabled[:bitmapLen]); err != nil {
		return 0, formatErrorf("short bitmap read: %v", err)
	}
	if rem := s.info.NumTracks & 7; rem != 0 && s.enabled[bitmapLen-1] >= 1<<rem {
		return 0, formatErrorf("enabled bitmap has bits beyond track %d", s.info.NumTracks-1)
	}

	s.numEnabled = 0
	for _, b := range s.enabled[:bitmapLen] {
		s.numEnabled += bits.OnesCount8(b)
	}

	frames := uint32(min(uint64(s.info.SampleRate), s.info.SampleCount-s.consumed))

	// Each chunk holds exactly one second of samples, interleaved
	// across the enabled tracks. The final chunk may be stored short:
	// only the declared frames have to be present.
	bps := s.info.Quality.BytesPerSample()
	toread := int(s.info.SampleRate) * bps * s.numEnabled
	need := int(frames) * bps * s.numEnabled
	n, err := io.ReadFull(s.r, s.chunk[:toread])
	if err != nil {
		short := err == io.EOF || err == io.ErrUnexpectedEOF
		if !short || n < need || frames == s.info.SampleRate {
			return 0, formatErrorf("short chunk read: got %d of %d bytes: %v", n, toread, err)
		}
	}

	s.consumed += uint64(frames)
	return frames, nil
}

// PrepareTrack deinterleaves the given track out of the current chunk,
// or synthesizes silence if the track is disabled in the chunk's
// bitmap. The result is valid until the next PrepareTrack or ReadChunk
// call and holds min(sampleRate, frames) samples in the stream's
// native representation.
func (s *Stream) PrepareTrack(track int, frames uint32) ([]byte, error) {
	if track < 0 || track >= int(s.info.NumTracks) {
		return nil, fmt.Errorf("laf: track %d out of range", track)
	}
	if s.info.Quality == QualityInt24 {
		return nil, ErrUnsupported24Bit
	}

	todo := int(min(s.info.SampleRate, frames))
	bps := s.info.Quality.BytesPerSample()

	if s.enabled[track>>3]&(1<<(track&7)) == 0 {
		fill := s.info.Quality.SilenceByte()
		for i := range s.line[:todo*bps] {
			s.line[i] = fill
		}
		return s.line[:todo*bps], nil
	}

	// The track's position among the enabled tracks is the number of
	// set bits before it in the bitmap.
	idx := bits.OnesCount8(s.enabled[track>>3] & (1<<(track&7) - 1))
	for _, b := range s.enabled[:track>>3] {
		idx += bits.OnesCount8(b)
	}

	// Strided gather: every numEnabled-th sample, starting at idx.
	step := s.numEnabled
	for i := 0; i < todo; i++ {
		copy(s.line[i*bps:(i+1)*bps], s.chunk[(i*step+idx)*bps:])
	}
	return s.line[:todo*bps], nil
}
