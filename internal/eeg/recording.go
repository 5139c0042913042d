package eeg

import (
	"fmt"
	"time"
)

// Quality describes the reliability of a channel's signal.
type Quality int

const (
	QualityGood Quality = iota
	QualityBad
	QualityInterpolated
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityBad:
		return "bad"
	case QualityInterpolated:
		return "interpolated"
	default:
		return "unknown"
	}
}

// Position is a 3-D sensor location on the unit sphere (x right, y front, z up).
type Position struct {
	X, Y, Z float64
}

// Channel is one labeled time series of a recording. Position is nil until a
// montage assigns one; unpositioned channels only degrade interpolation
// quality, they are not an error.
type Channel struct {
	Label    string
	Samples  []float64
	Quality  Quality
	Position *Position
}

// Recording is an ordered collection of channels sharing one sample rate and
// sample count. It is mutated in place by the pipeline stages and owned by a
// single batch iteration at a time.
type Recording struct {
	ID         string
	SampleRate float64
	StartTime  time.Time
	Channels   []*Channel
}

// SampleCount returns the per-channel sample count, 0 for an empty recording.
func (r *Recording) SampleCount() int {
	if len(r.Channels) == 0 {
		return 0
	}
	return len(r.Channels[0].Samples)
}

// Duration returns the recording length derived from sample count and rate.
func (r *Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	secs := float64(r.SampleCount()) / r.SampleRate
	return time.Duration(secs * float64(time.Second))
}

// Channel returns the channel with the given label, or nil.
func (r *Recording) Channel(label string) *Channel {
	for _, ch := range r.Channels {
		if ch.Label == label {
			return ch
		}
	}
	return nil
}

// Labels returns the channel labels in recording order.
func (r *Recording) Labels() []string {
	labels := make([]string, len(r.Channels))
	for i, ch := range r.Channels {
		labels[i] = ch.Label
	}
	return labels
}

// Validate checks the recording invariants: a positive sample rate, at least
// one channel, unique labels, and a uniform sample count across channels.
func (r *Recording) Validate() error {
	if r.SampleRate <= 0 {
		return Validationf("recording %s: sample rate must be positive, got %g", r.ID, r.SampleRate)
	}
	if len(r.Channels) == 0 {
		return Validationf("recording %s: no channels", r.ID)
	}

	n := len(r.Channels[0].Samples)
	seen := make(map[string]bool, len(r.Channels))
	for _, ch := range r.Channels {
		if ch.Label == "" {
			return Validationf("recording %s: empty channel label", r.ID)
		}
		if seen[ch.Label] {
			return Validationf("recording %s: duplicate channel label %q", r.ID, ch.Label)
		}
		seen[ch.Label] = true
		if len(ch.Samples) != n {
			return Validationf("recording %s: channel %q has %d samples, expected %d",
				r.ID, ch.Label, len(ch.Samples), n)
		}
	}
	return nil
}

// Band is a closed frequency interval [Low, High] in Hz.
type Band struct {
	Low  float64
	High float64
}

func (b Band) String() string {
	return fmt.Sprintf("%g-%g Hz", b.Low, b.High)
}

// AlphaBand is the 8-13 Hz band used for the asymmetry computation.
func AlphaBand() Band {
	return Band{Low: 8, High: 13}
}
