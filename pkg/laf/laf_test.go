// ABOUTME: Shared test helpers for building synthetic LAF containers
// ABOUTME: Encodes headers, track metadata and chunks into byte buffers
package laf

import (
	"bytes"
	"encoding/binary"
	"math"
)

type testTrack struct {
	elev, azim float32
	lfe        byte
}

func positionTrack() testTrack {
	return testTrack{elev: float32(math.NaN()), azim: 0}
}

// writeHeader emits magic, HEAD section, track records and footer.
func writeHeader(buf *bytes.Buffer, quality, mode byte, tracks []testTrack, rate uint32, count uint64) {
	buf.WriteString("LIMITLESS")
	buf.WriteString("HEAD")
	buf.WriteByte(quality)
	buf.WriteByte(mode)
	binary.Write(buf, binary.LittleEndian, uint32(len(tracks)))
	for _, tr := range tracks {
		binary.Write(buf, binary.LittleEndian, math.Float32bits(tr.elev))
		binary.Write(buf, binary.LittleEndian, math.Float32bits(tr.azim))
		buf.WriteByte(tr.lfe)
	}
	binary.Write(buf, binary.LittleEndian, rate)
	binary.Write(buf, binary.LittleEndian, count)
}

// writeChunk emits an enabled bitmap for numTracks tracks followed by
// the given interleaved sample bytes.
func writeChunk(buf *bytes.Buffer, numTracks int, enabled []int, samples []byte) {
	bitmap := make([]byte, (numTracks+7)/8)
	for _, t := range enabled {
		bitmap[t>>3] |= 1 << (t & 7)
	}
	buf.Write(bitmap)
	buf.Write(samples)
}

// interleaveInt16 interleaves the given per-track sequences frame by
// frame, little-endian.
func interleaveInt16(tracks ...[]int16) []byte {
	if len(tracks) == 0 {
		return nil
	}
	frames := len(tracks[0])
	out := make([]byte, 0, frames*len(tracks)*2)
	var tmp [2]byte
	for f := 0; f < frames; f++ {
		for _, tr := range tracks {
			binary.LittleEndian.PutUint16(tmp[:], uint16(tr[f]))
			out = append(out, tmp[:]...)
		}
	}
	return out
}

// rampInt16 returns n samples counting up from start.
func rampInt16(start int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = start + int16(i)
	}
	return out
}
