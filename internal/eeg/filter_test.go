package eeg_test

import (
	"math"
	"testing"

	"github.com/neurolab/faapipe/internal/eeg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, amp, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

// rmsMiddle measures the RMS over the middle half of the buffer, away from
// the filter edge transients.
func rmsMiddle(samples []float64) float64 {
	lo, hi := len(samples)/4, 3*len(samples)/4
	var sum float64
	for _, v := range samples[lo:hi] {
		sum += v * v
	}
	return math.Sqrt(sum / float64(hi-lo))
}

func TestBandPassKeepsInBandSignal(t *testing.T) {
	const fs = 250.0
	rec := &eeg.Recording{
		ID:         "bp",
		SampleRate: fs,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: sine(10, 1, fs, 1000)},
		},
	}
	before := rmsMiddle(rec.Channels[0].Samples)

	require.NoError(t, eeg.BandPass(rec, eeg.Band{Low: 1, High: 40}))

	after := rmsMiddle(rec.Channels[0].Samples)
	assert.InDelta(t, before, after, 0.1*before)
	assert.Len(t, rec.Channels[0].Samples, 1000)
}

func TestBandPassRemovesOutOfBandSignal(t *testing.T) {
	const fs = 250.0
	rec := &eeg.Recording{
		ID:         "bp",
		SampleRate: fs,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: sine(90, 1, fs, 1000)},
		},
	}
	before := rmsMiddle(rec.Channels[0].Samples)

	require.NoError(t, eeg.BandPass(rec, eeg.Band{Low: 1, High: 40}))

	after := rmsMiddle(rec.Channels[0].Samples)
	assert.Less(t, after, 0.05*before)
}

func TestBandPassParameterValidation(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "bp",
		SampleRate: 128,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: make([]float64, 256)},
		},
	}

	cases := []struct {
		name string
		band eeg.Band
	}{
		{"zero low cutoff", eeg.Band{Low: 0, High: 40}},
		{"inverted cutoffs", eeg.Band{Low: 40, High: 1}},
		{"high at nyquist", eeg.Band{Low: 1, High: 64}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := eeg.BandPass(rec, tc.band)
			var serr *eeg.SignalProcessingError
			require.ErrorAs(t, err, &serr)
		})
	}
}

func TestNotchFilterRemovesMains(t *testing.T) {
	const fs = 250.0
	mains := sine(50, 1, fs, 1000)
	signal := sine(10, 1, fs, 1000)
	mixed := make([]float64, len(mains))
	for i := range mixed {
		mixed[i] = mains[i] + signal[i]
	}
	rec := &eeg.Recording{
		ID:         "notch",
		SampleRate: fs,
		Channels:   []*eeg.Channel{{Label: "F3", Samples: mixed}},
	}

	applied, err := eeg.NotchFilter(rec, 50, 30)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 100}, applied)

	// The 10 Hz component survives, the 50 Hz component is gone.
	residual := make([]float64, len(mixed))
	for i := range residual {
		residual[i] = rec.Channels[0].Samples[i] - signal[i]
	}
	assert.Less(t, rmsMiddle(residual), 0.1*rmsMiddle(signal))
}

func TestNotchFilterSkipsHarmonicAboveNyquist(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "notch",
		SampleRate: 160, // Nyquist 80 Hz, first harmonic 100 Hz not applicable
		Channels:   []*eeg.Channel{{Label: "F3", Samples: make([]float64, 320)}},
	}

	applied, err := eeg.NotchFilter(rec, 50, 30)
	require.NoError(t, err)
	assert.Equal(t, []float64{50}, applied)
}

func TestNotchFilterRejectsMainsAboveNyquist(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "notch",
		SampleRate: 80,
		Channels:   []*eeg.Channel{{Label: "F3", Samples: make([]float64, 160)}},
	}

	_, err := eeg.NotchFilter(rec, 50, 30)
	var serr *eeg.SignalProcessingError
	require.ErrorAs(t, err, &serr)
}
