package audioio

import (
	"fmt"

	"github.com/tphakala/go-mdct/internal/simdops"
)

// Signal is a decoded multi-channel signal.
type Signal struct {
	// Channels holds one slice per channel, all of the same length.
	Channels [][]float64

	// Rate is the sample rate in Hz.
	Rate int
}

// NewMono wraps a single channel.
func NewMono(samples []float64, rate int) *Signal {
	return &Signal{Channels: [][]float64{samples}, Rate: rate}
}

// NumChannels returns the channel count.
func (s *Signal) NumChannels() int {
	return len(s.Channels)
}

// Len returns the number of samples per channel.
func (s *Signal) Len() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s.Rate <= 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.Rate)
}

// Validate checks the channel layout and sample rate.
func (s *Signal) Validate() error {
	if s == nil || len(s.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidSignal)
	}
	if s.Rate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidSignal, s.Rate)
	}
	n := len(s.Channels[0])
	for ch, c := range s.Channels {
		if len(c) != n {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrInvalidSignal, ch, len(c), n)
		}
	}
	return nil
}

// Mono returns the average of all channels. A mono signal returns its only
// channel without copying.
func (s *Signal) Mono() []float64 {
	switch len(s.Channels) {
	case 0:
		return nil
	case 1:
		return s.Channels[0]
	}

	out := make([]float64, s.Len())
	for _, c := range s.Channels {
		for i, v := range c {
			out[i] += v
		}
	}
	inv := 1 / float64(len(s.Channels))
	simdops.Float64Ops().Scale(out, out, inv)
	return out
}

// Interleaved returns the samples frame by frame: L0 R0 L1 R1 ...
func (s *Signal) Interleaved() []float64 {
	n := s.Len()
	chans := len(s.Channels)
	out := make([]float64, n*chans)

	switch chans {
	case 0:
		return out
	case 1:
		copy(out, s.Channels[0])
	case 2:
		simdops.Float64Ops().Interleave2(out, s.Channels[0], s.Channels[1])
	default:
		for i := range n {
			for ch := range chans {
				out[i*chans+ch] = s.Channels[ch][i]
			}
		}
	}
	return out
}

// deinterleave splits frame-ordered float32 samples into float64 channels.
func deinterleave(data []float32, chans int) [][]float64 {
	frames := len(data) / chans
	out := make([][]float64, chans)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}
	for i := range frames {
		for ch := range chans {
			out[ch][i] = float64(data[i*chans+ch])
		}
	}
	return out
}
