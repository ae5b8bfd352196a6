// ABOUTME: Audio type definitions
// ABOUTME: Defines mono PCM formats and sample conversion helpers
package audio

import (
	"encoding/binary"
	"math"
)

// Format describes the mono PCM representation of a voice's buffers.
type Format int

const (
	FormatMono8 Format = iota // unsigned 8-bit, 0x80 is silence
	FormatMono16
	FormatMonoFloat32
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatMono8:
		return "mono8"
	case FormatMono16:
		return "mono16"
	case FormatMonoFloat32:
		return "mono-float32"
	}
	return "<unknown>"
}

// BytesPerSample returns the size of one sample.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatMono8:
		return 1
	case FormatMono16:
		return 2
	case FormatMonoFloat32:
		return 4
	}
	return 0
}

// FrameCount returns the number of whole samples in pcm.
func (f Format) FrameCount(pcm []byte) int {
	return len(pcm) / f.BytesPerSample()
}

// SampleAt decodes sample i of pcm into a float in [-1, 1].
func (f Format) SampleAt(pcm []byte, i int) float32 {
	switch f {
	case FormatMono8:
		return float32(int(pcm[i])-128) / 128.0
	case FormatMono16:
		return float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	case FormatMonoFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(pcm[i*4:]))
	}
	return 0
}

// ToInt16 converts a float sample in [-1, 1] to int16 with clamping.
func ToInt16(v float32) int16 {
	scaled := v * 32767
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

// PanGains returns constant-power stereo gains for a source at
// horizontal position x in [-1, 1], -1 being hard left.
func PanGains(x float32) (left, right float32) {
	if x < -1 {
		x = -1
	} else if x > 1 {
		x = 1
	}
	left = float32(math.Sqrt(float64(1-x) / 2))
	right = float32(math.Sqrt(float64(1+x) / 2))
	return left, right
}
