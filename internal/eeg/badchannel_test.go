package eeg_test

import (
	"testing"

	"github.com/neurolab/faapipe/internal/eeg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBadChannelsFlagsOutlier(t *testing.T) {
	const fs = 128.0
	const n = 1024

	clean := sine(10, 1, fs, n)
	rec := &eeg.Recording{ID: "bad", SampleRate: fs}
	for _, label := range []string{"F3", "F4", "Cz", "Pz", "Oz"} {
		rec.Channels = append(rec.Channels, &eeg.Channel{
			Label:   label,
			Samples: append([]float64(nil), clean...),
		})
	}
	// T7 is saturated noise at a different frequency: an amplitude,
	// variance, and correlation outlier at once.
	rec.Channels = append(rec.Channels, &eeg.Channel{
		Label:   "T7",
		Samples: sine(25, 50, fs, n),
	})

	bad := eeg.DetectBadChannels(rec, eeg.DefaultDetectionConfig())

	assert.Equal(t, []string{"T7"}, bad)
	assert.Equal(t, eeg.QualityBad, rec.Channel("T7").Quality)
	assert.Equal(t, eeg.QualityGood, rec.Channel("F3").Quality)
}

func TestDetectBadChannelsNeedsPopulation(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "small",
		SampleRate: 128,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: make([]float64, 128)},
			{Label: "F4", Samples: sine(10, 100, 128, 128)},
		},
	}

	assert.Nil(t, eeg.DetectBadChannels(rec, eeg.DefaultDetectionConfig()))
}

func TestInterpolateInverseDistance(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "interp",
		SampleRate: 128,
		Channels: []*eeg.Channel{
			{
				Label:    "Cz",
				Samples:  []float64{99, 99, 99},
				Position: &eeg.Position{X: 0, Y: 0, Z: 1},
			},
			{
				Label:    "T8",
				Samples:  []float64{1, 1, 1},
				Position: &eeg.Position{X: 1, Y: 0, Z: 0},
			},
			{
				Label:    "T7",
				Samples:  []float64{3, 3, 3},
				Position: &eeg.Position{X: -1, Y: 0, Z: 0},
			},
			// Unpositioned channel is ignored while positioned
			// neighbors exist.
			{Label: "X1", Samples: []float64{100, 100, 100}},
		},
	}

	require.NoError(t, eeg.Interpolate(rec, []string{"Cz"}, nil))

	// T7 and T8 are equidistant from Cz, so the result is their mean.
	cz := rec.Channel("Cz")
	for _, v := range cz.Samples {
		assert.InDelta(t, 2, v, 1e-12)
	}
	assert.Equal(t, eeg.QualityInterpolated, cz.Quality)
}

func TestInterpolateFallsBackToMean(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "interp",
		SampleRate: 128,
		Channels: []*eeg.Channel{
			{Label: "X1", Samples: []float64{0, 0}},
			{Label: "X2", Samples: []float64{1, 1}},
			{Label: "X3", Samples: []float64{5, 5}},
		},
	}

	require.NoError(t, eeg.Interpolate(rec, []string{"X1"}, nil))
	for _, v := range rec.Channel("X1").Samples {
		assert.InDelta(t, 3, v, 1e-12)
	}
}

func TestInterpolateAllBad(t *testing.T) {
	rec := newRecording("F3", "F4")

	err := eeg.Interpolate(rec, []string{"F3", "F4"}, nil)
	var ierr *eeg.InterpolationError
	require.ErrorAs(t, err, &ierr)
}

func TestInterpolateRequiredWithoutPosition(t *testing.T) {
	rec := newRecording("F3", "F4", "Cz")

	err := eeg.Interpolate(rec, []string{"F3"}, []string{"F3", "F4"})
	var ierr *eeg.InterpolationError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "F3")
}

func TestInterpolateNothingToDo(t *testing.T) {
	rec := newRecording("F3")
	require.NoError(t, eeg.Interpolate(rec, nil, []string{"F3"}))
}
