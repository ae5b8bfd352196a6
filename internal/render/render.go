// ABOUTME: Offline LAF-to-WAV renderer
// ABOUTME: Mixes all tracks to stereo 16-bit PCM faster than realtime
package render

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/limitless-audio/laf-go/internal/player"
	"github.com/limitless-audio/laf-go/pkg/audio"
	"github.com/limitless-audio/laf-go/pkg/laf"
)

// WAV decodes the whole stream and writes it as a stereo 16-bit WAV
// file, applying the same constant-power panning the live sink uses.
// Objects-mode position data steers the pan per 48-frame block. It
// returns the number of frames written.
func WAV(stream *laf.Stream, w io.WriteSeeker) (uint64, error) {
	info := stream.Info()
	format, err := player.FormatForQuality(info.Quality)
	if err != nil {
		return 0, err
	}

	enc := wav.NewEncoder(w, int(info.SampleRate), 16, 2, 1)

	numChans := stream.NumChannels()
	chans := make([][]byte, numChans)
	windows := make([]*laf.PositionWindow, stream.NumPositionTracks())
	for i := range windows {
		windows[i] = laf.NewPositionWindow(info.SampleRate)
	}

	// Static placement; objects-mode positions override per block.
	panL := make([]float32, numChans)
	panR := make([]float32, numChans)
	gain := make([]float32, numChans)
	for i, ch := range stream.Channels() {
		x := float32(math.Sin(float64(ch.Azimuth)) * math.Cos(float64(ch.Elevation)))
		panL[i], panR[i] = audio.PanGains(x)
		gain[i] = 1
		if ch.IsLFE {
			gain[i] = 0
		}
	}

	var written uint64
	data := make([]int, 0, int(info.SampleRate)*2)
	for !stream.AtEnd() {
		frames, err := stream.ReadChunk()
		if err != nil {
			return written, err
		}
		if frames == 0 {
			break
		}

		for i := 0; i < numChans; i++ {
			pcm, err := stream.PrepareTrack(i, frames)
			if err != nil {
				return written, err
			}
			// PrepareTrack reuses its scratch line between calls.
			chans[i] = append(chans[i][:0], pcm...)
		}
		for i, w := range windows {
			raw, err := stream.PrepareTrack(numChans+i, frames)
			if err != nil {
				return written, err
			}
			if err := stream.ConvertPositions(w.FirstHalf(), raw); err != nil {
				return written, err
			}
		}

		data = data[:0]
		for f := 0; f < int(frames); f++ {
			if len(windows) > 0 && f%laf.FramesPerPosition == 0 {
				for i := 0; i < numChans; i++ {
					x, _, _ := windows[i>>4].At(uint32(f), i&15)
					panL[i], panR[i] = audio.PanGains(x)
				}
			}

			var left, right float32
			for i := 0; i < numChans; i++ {
				s := format.SampleAt(chans[i], f) * gain[i]
				left += s * panL[i]
				right += s * panR[i]
			}
			data = append(data, int(audio.ToInt16(left)), int(audio.ToInt16(right)))
		}

		buf := &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: int(info.SampleRate)},
			Data:           data,
			SourceBitDepth: 16,
		}
		if err := enc.Write(buf); err != nil {
			return written, fmt.Errorf("writing wav data: %w", err)
		}
		written += uint64(frames)
	}

	if err := enc.Close(); err != nil {
		return written, fmt.Errorf("finalizing wav: %w", err)
	}
	return written, nil
}
