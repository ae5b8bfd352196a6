// ABOUTME: Linear-interpolation resampler for stereo float frames
// ABOUTME: Pulls source frames on demand to convert between sample rates
package resample

// Stereo converts a stream of stereo frames from one sample rate to
// another with linear interpolation. Source frames are pulled on
// demand, so the converter can sit directly in a playback callback.
type Stereo struct {
	ratio  float64 // source frames consumed per output frame
	pos    float64 // fractional position between prev and next
	prev   [2]float32
	next   [2]float32
	primed bool
}

// New creates a converter from inputRate to outputRate.
func New(inputRate, outputRate int) *Stereo {
	return &Stereo{
		ratio: float64(inputRate) / float64(outputRate),
	}
}

// Next produces one output frame, calling pull for as many source
// frames as the rate ratio requires (possibly zero when upsampling).
func (s *Stereo) Next(pull func() (left, right float32)) (left, right float32) {
	if !s.primed {
		s.prev[0], s.prev[1] = pull()
		s.next[0], s.next[1] = pull()
		s.primed = true
	}
	for s.pos >= 1 {
		s.prev = s.next
		s.next[0], s.next[1] = pull()
		s.pos--
	}

	t := float32(s.pos)
	left = s.prev[0] + (s.next[0]-s.prev[0])*t
	right = s.prev[1] + (s.next[1]-s.prev[1])*t
	s.pos += s.ratio
	return left, right
}
