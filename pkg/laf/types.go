// ABOUTME: LAF container type definitions
// ABOUTME: Defines quality, mode, stream info and per-track metadata
package laf

// Quality identifies the sample representation used by every track in
// a stream.
type Quality uint8

const (
	QualityInt8 Quality = iota
	QualityInt16
	QualityFloat32
	QualityInt24 // parsed but not decodable
)

// Name returns a human-readable quality name.
func (q Quality) Name() string {
	switch q {
	case QualityInt8:
		return "8-bit int"
	case QualityInt16:
		return "16-bit int"
	case QualityFloat32:
		return "32-bit float"
	case QualityInt24:
		return "24-bit int"
	}
	return "<unknown>"
}

// BytesPerSample returns the on-disk size of one sample.
func (q Quality) BytesPerSample() int {
	switch q {
	case QualityInt8:
		return 1
	case QualityInt16:
		return 2
	case QualityFloat32:
		return 4
	case QualityInt24:
		return 3
	}
	return 4
}

// SilenceByte returns the byte pattern that encodes digital silence.
// 8-bit samples are biased so 0x80 represents zero.
func (q Quality) SilenceByte() byte {
	if q == QualityInt8 {
		return 0x80
	}
	return 0
}

// Mode distinguishes fixed-position channel streams from streams that
// carry per-object position tracks.
type Mode uint8

const (
	ModeChannels Mode = iota
	ModeObjects
)

// Name returns a human-readable mode name.
func (m Mode) Name() string {
	switch m {
	case ModeChannels:
		return "channels"
	case ModeObjects:
		return "objects"
	}
	return "<unknown>"
}

const (
	// MaxTracks is the highest track count a stream may declare.
	MaxTracks = 256

	// FramesPerPosition is the number of sample frames a position
	// track needs for one full set of coordinates: 3 samples per
	// channel for a group of 16 channels.
	FramesPerPosition = 48

	// ChannelsPerPositionTrack is the number of audio channels served
	// by a single position track.
	ChannelsPerPositionTrack = 16
)

// StreamInfo describes a parsed stream. It is immutable after parse.
type StreamInfo struct {
	Quality     Quality
	Mode        Mode
	SampleRate  uint32
	SampleCount uint64
	NumTracks   uint32 // audio tracks plus position tracks
}

// Duration returns the stream length in seconds.
func (si StreamInfo) Duration() float64 {
	return float64(si.SampleCount) / float64(si.SampleRate)
}

// TrackMeta holds the spatial metadata of one audio track. Position
// tracks carry no metadata of their own.
type TrackMeta struct {
	Elevation float32
	Azimuth   float32
	IsLFE     bool
}
