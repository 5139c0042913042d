package eeg_test

import (
	"math"
	"testing"

	"github.com/neurolab/faapipe/internal/eeg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardMontagePositions(t *testing.T) {
	m, err := eeg.StandardMontage(eeg.MontageStandard1020)
	require.NoError(t, err)

	// Every position sits on the unit sphere.
	for label, pos := range m {
		norm := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
		assert.InDelta(t, 1.0, norm, 1e-9, "label %s", label)
	}

	// The vertex is straight up, the asymmetry pair mirrors across the
	// midline.
	assert.InDelta(t, 1.0, m["Cz"].Z, 1e-9)
	f3, f4 := m["F3"], m["F4"]
	assert.InDelta(t, -f4.X, f3.X, 1e-9)
	assert.InDelta(t, f4.Y, f3.Y, 1e-9)
	assert.InDelta(t, f4.Z, f3.Z, 1e-9)

	// Legacy temporal names alias their modern equivalents.
	assert.Equal(t, m["T7"], m["T3"])
	assert.Equal(t, m["P8"], m["T6"])
}

func TestStandardMontageUnknownName(t *testing.T) {
	_, err := eeg.StandardMontage("biosemi64")
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestApplyMontage(t *testing.T) {
	m, err := eeg.StandardMontage(eeg.MontageStandard1020)
	require.NoError(t, err)

	rec := newRecording("F3", "F4", "EXG1", "Status")
	unpositioned := eeg.ApplyMontage(rec, m)

	assert.Equal(t, []string{"EXG1", "Status"}, unpositioned)
	assert.NotNil(t, rec.Channel("F3").Position)
	assert.Nil(t, rec.Channel("EXG1").Position)
}
