// ABOUTME: LAF header/footer parser
// ABOUTME: Validates magic, track metadata and structural invariants
package laf

import (
	"encoding/binary"
	"io"
	"math"
)

var (
	magic      = []byte("LIMITLESS")
	sectionTag = []byte("HEAD")
)

// NewStream parses the container header from r and returns a Stream
// positioned at the first chunk. The reader is consumed sequentially;
// no chunk data is read here.
//
// Any structural problem, including a short read, yields *FormatError.
func NewStream(r io.Reader) (*Stream, error) {
	var marker [9]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return nil, formatErrorf("short magic read: %v", err)
	}
	if string(marker[:]) != string(magic) {
		return nil, formatErrorf("bad magic %q", marker[:])
	}

	// The format gives no section sizes, so the HEAD tag must follow
	// the magic immediately.
	var header [10]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, formatErrorf("short header read: %v", err)
	}
	if string(header[:4]) != string(sectionTag) {
		return nil, formatErrorf("bad section tag %q", header[:4])
	}

	s := &Stream{r: r}

	switch q := header[4]; q {
	case 0, 1, 2, 3:
		s.info.Quality = Quality(q)
	default:
		return nil, formatErrorf("invalid quality type: %d", q)
	}

	switch m := header[5]; m {
	case 0, 1:
		s.info.Mode = Mode(m)
	default:
		return nil, formatErrorf("invalid mode: %d", m)
	}

	s.info.NumTracks = binary.LittleEndian.Uint32(header[6:10])
	if s.info.NumTracks > MaxTracks {
		return nil, formatErrorf("too many tracks: %d", s.info.NumTracks)
	}
	if s.info.NumTracks == 0 {
		return nil, formatErrorf("no tracks")
	}

	trackData := make([]byte, s.info.NumTracks*9)
	if _, err := io.ReadFull(r, trackData); err != nil {
		return nil, formatErrorf("short track metadata read: %v", err)
	}

	s.channels = make([]TrackMeta, 0, s.info.NumTracks)
	for i := uint32(0); i < s.info.NumTracks; i++ {
		rec := trackData[i*9 : i*9+9]
		elevation := math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4]))
		azimuth := math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8]))
		lfe := rec[8]

		if elevation != elevation && azimuth == 0.0 {
			// Position-track sentinel: NaN elevation, zero azimuth.
			if s.info.Mode != ModeObjects {
				return nil, formatErrorf("track %d: position track in channels mode", i)
			}
			if i == 0 {
				return nil, formatErrorf("track 0 must be an audio track")
			}
			s.numPosTracks++
		} else {
			if s.numPosTracks != 0 {
				return nil, formatErrorf("track %d: audio track after position tracks", i)
			}
			if !isFinite(elevation) || !isFinite(azimuth) {
				return nil, formatErrorf("track %d: non-finite position (E=%v, A=%v)",
					i, elevation, azimuth)
			}
			s.channels = append(s.channels, TrackMeta{
				Elevation: elevation,
				Azimuth:   azimuth,
				IsLFE:     lfe != 0,
			})
		}
	}

	// Objects mode needs one position track per group of 16 audio
	// channels.
	if s.info.Mode == ModeObjects {
		want := (len(s.channels) + ChannelsPerPositionTrack - 1) / ChannelsPerPositionTrack
		if s.numPosTracks != want {
			return nil, formatErrorf("have %d position tracks for %d channels, want %d",
				s.numPosTracks, len(s.channels), want)
		}
	}

	var footer [12]byte
	if _, err := io.ReadFull(r, footer[:]); err != nil {
		return nil, formatErrorf("short footer read: %v", err)
	}
	s.info.SampleRate = binary.LittleEndian.Uint32(footer[0:4])
	s.info.SampleCount = binary.LittleEndian.Uint64(footer[4:12])

	if s.info.SampleRate == 0 {
		return nil, formatErrorf("zero sample rate")
	}

	// Positions would get split across chunks if the rate isn't a
	// multiple of 48: each chunk is exactly one second, and a full set
	// of positions takes 48 sample frames. Splitting would desync the
	// playback offset from the position lookup offset, so reject it.
	if s.info.Mode == ModeObjects && s.info.SampleRate%FramesPerPosition != 0 {
		return nil, formatErrorf("objects mode sample rate %d not a multiple of %d",
			s.info.SampleRate, FramesPerPosition)
	}

	bps := s.info.Quality.BytesPerSample()
	s.chunk = make([]byte, int(s.info.SampleRate)*bps*int(s.info.NumTracks))
	s.line = make([]byte, int(s.info.SampleRate)*bps)

	return s, nil
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
