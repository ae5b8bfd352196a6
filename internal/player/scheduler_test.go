// ABOUTME: Tests for the playback scheduler state machine
// ABOUTME: End-to-end priming, refill, underrun recovery and positions
package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/limitless-audio/laf-go/pkg/audio/sink"
	"github.com/limitless-audio/laf-go/pkg/laf"
)

// buildFile assembles a little LAF container for scheduler tests.
type trackRec struct {
	elev, azim float32
	lfe        byte
}

func buildHeader(buf *bytes.Buffer, quality, mode byte, tracks []trackRec, rate uint32, count uint64) {
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

func writeAllEnabledChunk(buf *bytes.Buffer, numTracks int, samples []byte) {
	bitmap := make([]byte, (numTracks+7)/8)
	for t := 0; t < numTracks; t++ {
		bitmap[t>>3] |= 1 << (t & 7)
	}
	buf.Write(bitmap)
	buf.Write(samples)
}

func int16Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func ramp(start int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = start + int16(i)
	}
	return out
}

// stepUntilDone drives the scheduler with simulated playback between
// ticks, failing the test if it doesn't finish within maxTicks.
func stepUntilDone(t *testing.T, s *Scheduler, m *sink.Mock, advance uint32, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		done, err := s.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if done {
			return
		}
		m.Advance(advance)
	}
	t.Fatal("scheduler did not finish")
}

func TestSingleChunkPlayback(t *testing.T) {
	rampData := ramp(0, 8000)
	var buf bytes.Buffer
	buildHeader(&buf, 1, 0, []trackRec{{}}, 8000, 8000)
	writeAllEnabledChunk(&buf, 1, int16Bytes(rampData))

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	m := sink.NewMock()
	s, err := New(stream, m, Options{})
	if err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}

	stepUntilDone(t, s, m, 4000, 20)

	voices := m.Voices()
	if len(voices) != 1 {
		t.Fatalf("expected 1 voice, got %d", len(voices))
	}
	subs := voices[0].Submissions()
	if len(subs) != 1 {
		t.Fatalf("expected exactly 1 submission, got %d", len(subs))
	}
	if !bytes.Equal(subs[0], int16Bytes(rampData)) {
		t.Error("submitted buffer does not match the source ramp")
	}
	if s.Stats().Underruns != 0 {
		t.Errorf("expected no underruns, got %d", s.Stats().Underruns)
	}
}

func TestTwoChunksSubmittedInOrder(t *testing.T) {
	first := ramp(0, 8000)
	second := ramp(8000, 8000)
	var buf bytes.Buffer
	buildHeader(&buf, 1, 0, []trackRec{{}}, 8000, 16000)
	writeAllEnabledChunk(&buf, 1, int16Bytes(first))
	writeAllEnabledChunk(&buf, 1, int16Bytes(second))

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	m := sink.NewMock()
	s, err := New(stream, m, Options{})
	if err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}

	stepUntilDone(t, s, m, 8000, 20)

	subs := m.Voices()[0].Submissions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if !bytes.Equal(subs[0], int16Bytes(first)) || !bytes.Equal(subs[1], int16Bytes(second)) {
		t.Error("submissions out of order or corrupted")
	}
	if s.Stats().Underruns != 0 {
		t.Errorf("expected the stopped-recovery path untouched, got %d underruns", s.Stats().Underruns)
	}
}

func TestRefillKeepsVoicesBuffered(t *testing.T) {
	// Three seconds at 100 Hz forces one refill beyond the prime.
	var buf bytes.Buffer
	buildHeader(&buf, 1, 0, []trackRec{{}, {}}, 100, 300)
	for c := 0; c < 3; c++ {
		chunk := make([]int16, 200) // 2 tracks interleaved
		for f := 0; f < 100; f++ {
			chunk[f*2] = int16(c*100 + f)
			chunk[f*2+1] = int16(-(c*100 + f))
		}
		writeAllEnabledChunk(&buf, 2, int16Bytes(chunk))
	}

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	m := sink.NewMock()
	s, err := New(stream, m, Options{})
	if err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}

	stepUntilDone(t, s, m, 50, 40)

	if got := s.Stats().ChunksRead; got != 3 {
		t.Errorf("expected 3 chunks read, got %d", got)
	}
	for vi, v := range m.Voices() {
		subs := v.Submissions()
		if len(subs) != 3 {
			t.Fatalf("voice %d: expected 3 submissions, got %d", vi, len(subs))
		}
		// First sample of each buffer identifies the chunk.
		for c, sub := range subs {
			want := int16(c * 100)
			if vi == 1 {
				want = -want
			}
			if got := int16(binary.LittleEndian.Uint16(sub)); got != want {
				t.Errorf("voice %d chunk %d: expected first sample %d, got %d", vi, c, want, got)
			}
		}
	}
	if played, _ := s.Progress(); played != 300 {
		t.Errorf("expected 300 frames played, got %d", played)
	}
}

func TestUnderrunRestartsWithoutReload(t *testing.T) {
	var buf bytes.Buffer
	buildHeader(&buf, 1, 0, []trackRec{{}}, 100, 300)
	for c := 0; c < 3; c++ {
		writeAllEnabledChunk(&buf, 1, int16Bytes(ramp(int16(c*100), 100)))
	}

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	m := sink.NewMock()
	s, err := New(stream, m, Options{})
	if err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}

	// Prime, then drain both queued seconds before the next tick.
	if _, err := s.Step(); err != nil {
		t.Fatalf("prime: %v", err)
	}
	m.Advance(250)

	if st := m.Voices()[0].Status(); st.State != sink.StateStopped {
		t.Fatalf("expected underrun stop, got %v", st.State)
	}

	// One tick restarts the still-queued voices without reloading.
	if _, err := s.Step(); err != nil {
		t.Fatalf("restart tick: %v", err)
	}
	if st := m.Voices()[0].Status(); st.State != sink.StatePlaying {
		t.Fatalf("expected playing after restart, got %v", st.State)
	}

	// The next tick refills the freed slot with the remaining chunk.
	if _, err := s.Step(); err != nil {
		t.Fatalf("refill tick: %v", err)
	}

	stepUntilDone(t, s, m, 50, 40)

	if got := s.Stats().Underruns; got != 1 {
		t.Errorf("expected exactly 1 underrun, got %d", got)
	}
	subs := m.Voices()[0].Submissions()
	if len(subs) != 3 {
		t.Fatalf("expected all 3 chunks submitted exactly once, got %d", len(subs))
	}
}

func TestObjectsModePositionUpdates(t *testing.T) {
	// One audio channel plus one position track at rate 48: one
	// coordinate set per second. Float quality keeps values exact.
	var buf bytes.Buffer
	buildHeader(&buf, 2, 1, []trackRec{{}, {elev: float32(math.NaN())}}, 48, 96)

	makeChunk := func(x, y, z float32) []byte {
		samples := make([]float32, 96) // 48 frames x 2 tracks
		samples[1] = x                 // position track triple for channel 0
		samples[3] = y
		samples[5] = z
		out := make([]byte, len(samples)*4)
		for i, v := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out
	}
	writeAllEnabledChunk(&buf, 2, makeChunk(0.1, 0.2, 0.3))
	writeAllEnabledChunk(&buf, 2, makeChunk(0.4, 0.5, 0.6))

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if stream.NumPositionTracks() != 1 {
		t.Fatalf("expected 1 position track, got %d", stream.NumPositionTracks())
	}

	m := sink.NewMock()
	s, err := New(stream, m, Options{})
	if err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}

	// Prime applies the first second's coordinates.
	if _, err := s.Step(); err != nil {
		t.Fatalf("prime: %v", err)
	}
	positions := m.Voices()[0].Positions()
	last := positions[len(positions)-1]
	if last != [3]float32{0.1, 0.2, -0.3} {
		t.Fatalf("initial position: expected (0.1, 0.2, -0.3), got %v", last)
	}

	// Play into the second queued second; the drain tick must look up
	// the second window half, with Z negated to right-handed.
	m.Advance(48)
	if done, err := s.Step(); err != nil || done {
		t.Fatalf("drain tick: done=%v err=%v", done, err)
	}
	positions = m.Voices()[0].Positions()
	last = positions[len(positions)-1]
	if last != [3]float32{0.4, 0.5, -0.6} {
		t.Fatalf("offset 48 position: expected (0.4, 0.5, -0.6), got %v", last)
	}

	if m.SuspendCalls == 0 {
		t.Error("expected position updates to be bracketed in suspend/resume")
	}

	m.Advance(48)
	if done, err := s.Step(); err != nil || !done {
		t.Fatalf("expected clean finish, got done=%v err=%v", done, err)
	}
}

func TestInt24RejectedBeforeDecode(t *testing.T) {
	var buf bytes.Buffer
	buildHeader(&buf, 3, 0, []trackRec{{}}, 8000, 8000)
	writeAllEnabledChunk(&buf, 1, make([]byte, 8000*3))

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	m := sink.NewMock()
	if _, err := New(stream, m, Options{}); !errors.Is(err, laf.ErrUnsupported24Bit) {
		t.Fatalf("expected ErrUnsupported24Bit, got %v", err)
	}
	if len(m.Voices()) != 0 {
		t.Error("expected no voices to be allocated")
	}
}

func TestLFEChannelSilenced(t *testing.T) {
	var buf bytes.Buffer
	buildHeader(&buf, 1, 0, []trackRec{{}, {lfe: 1}}, 100, 100)
	writeAllEnabledChunk(&buf, 2, make([]byte, 100*2*2))

	stream, err := laf.NewStream(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	m := sink.NewMock()
	if _, err := New(stream, m, Options{}); err != nil {
		t.Fatalf("scheduler setup failed: %v", err)
	}
	voices := m.Voices()
	if g := voices[0].Gain(); g != 1 {
		t.Errorf("normal channel gain: expected 1, got %v", g)
	}
	if g := voices[1].Gain(); g != 0 {
		t.Errorf("LFE channel gain: expected 0, got %v", g)
	}
}
