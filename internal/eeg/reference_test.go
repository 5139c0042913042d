package eeg_test

import (
	"testing"

	"github.com/neurolab/faapipe/internal/eeg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageReference(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "ref",
		SampleRate: 4,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: []float64{1, 2, 3}},
			{Label: "F4", Samples: []float64{3, 4, 5}},
			{Label: "Cz", Samples: []float64{5, 6, 7}},
		},
	}

	require.NoError(t, eeg.Reference(rec, eeg.ReferenceAverage))

	// The across-channel mean at every sample is now zero.
	for i := 0; i < rec.SampleCount(); i++ {
		var sum float64
		for _, ch := range rec.Channels {
			sum += ch.Samples[i]
		}
		assert.InDelta(t, 0, sum, 1e-12)
	}
	assert.InDelta(t, -2, rec.Channels[0].Samples[0], 1e-12)
	assert.InDelta(t, 2, rec.Channels[2].Samples[0], 1e-12)
}

func TestAverageReferenceIdempotent(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "ref",
		SampleRate: 4,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: []float64{1, -2, 3.5}},
			{Label: "F4", Samples: []float64{0, 4, -1}},
			{Label: "Cz", Samples: []float64{2, 2, 2}},
		},
	}

	require.NoError(t, eeg.Reference(rec, eeg.ReferenceAverage))
	want := make([][]float64, len(rec.Channels))
	for i, ch := range rec.Channels {
		want[i] = append([]float64(nil), ch.Samples...)
	}

	require.NoError(t, eeg.Reference(rec, eeg.ReferenceAverage))
	for i, ch := range rec.Channels {
		for j := range ch.Samples {
			assert.InDelta(t, want[i][j], ch.Samples[j], 1e-12)
		}
	}
}

func TestReferenceNoneIsNoOp(t *testing.T) {
	rec := &eeg.Recording{
		ID:         "ref",
		SampleRate: 4,
		Channels: []*eeg.Channel{
			{Label: "F3", Samples: []float64{1, 2, 3}},
		},
	}

	require.NoError(t, eeg.Reference(rec, eeg.ReferenceNone))
	assert.Equal(t, []float64{1, 2, 3}, rec.Channels[0].Samples)
}

func TestReferenceUnknownScheme(t *testing.T) {
	rec := newRecording("F3")

	err := eeg.Reference(rec, "linked-ears")
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
}
