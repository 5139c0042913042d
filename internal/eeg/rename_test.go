package eeg_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/neurolab/faapipe/internal/eeg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRenameTableTSV(t *testing.T) {
	path := writeTable(t, "channels.tsv",
		"original\tdesired\nEEG F3~\tF3\nEEG F4~\tF4\nEEG Cz~\tCz\n")

	table, err := eeg.LoadRenameTable(path)
	require.NoError(t, err)
	require.Len(t, table.Entries, 3)
	assert.Equal(t, "EEG F3~", table.Entries[0].Original)
	assert.Equal(t, "F3", table.Entries[0].Desired)
}

func TestLoadRenameTableCSV(t *testing.T) {
	path := writeTable(t, "channels.csv", "EEG F3,F3\nEEG F4,F4\n")

	table, err := eeg.LoadRenameTable(path)
	require.NoError(t, err)
	require.Len(t, table.Entries, 2)
	assert.Equal(t, "F4", table.Entries[1].Desired)
}

func TestLoadRenameTableSkipsShortRows(t *testing.T) {
	path := writeTable(t, "channels.csv", "EEG F3,F3\n\nnote\nEEG F4,F4\n")

	table, err := eeg.LoadRenameTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Entries, 2)
}

func TestLoadRenameTableConflictingDuplicateKey(t *testing.T) {
	path := writeTable(t, "channels.csv", "EEG F3,F3\nEEG F3,F7\n")

	_, err := eeg.LoadRenameTable(path)
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "EEG F3")
}

func TestLoadRenameTableDuplicateTarget(t *testing.T) {
	path := writeTable(t, "channels.csv", "EEG F3,F3\nEEG F4,F3\n")

	_, err := eeg.LoadRenameTable(path)
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadRenameTableEmpty(t *testing.T) {
	path := writeTable(t, "channels.tsv", "\n\n")

	_, err := eeg.LoadRenameTable(path)
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
}

func newRecording(labels ...string) *eeg.Recording {
	rec := &eeg.Recording{ID: "test", SampleRate: 128}
	for _, label := range labels {
		rec.Channels = append(rec.Channels, &eeg.Channel{
			Label:   label,
			Samples: make([]float64, 128),
		})
	}
	return rec
}

func TestRename(t *testing.T) {
	rec := newRecording("EEG F3", "EEG F4", "EEG Cz")
	table := &eeg.RenameTable{Entries: []eeg.RenameEntry{
		{Original: "EEG F3", Desired: "F3"},
		{Original: "EEG F4", Desired: "F4"},
	}}

	require.NoError(t, eeg.Rename(rec, table))
	assert.Equal(t, []string{"F3", "F4", "EEG Cz"}, rec.Labels())
}

func TestRenameMatchesTildeVariant(t *testing.T) {
	// Acquisition software sometimes records 'X+' where the table says 'X~'.
	rec := newRecording("EEG F3+", "EEG F4~")
	table := &eeg.RenameTable{Entries: []eeg.RenameEntry{
		{Original: "EEG F3~", Desired: "F3"},
		{Original: "EEG F4+", Desired: "F4"},
	}}

	require.NoError(t, eeg.Rename(rec, table))
	assert.Equal(t, []string{"F3", "F4"}, rec.Labels())
}

func TestRenameTwiceFailsCleanly(t *testing.T) {
	rec := newRecording("EEG F3", "EEG F4")
	table := &eeg.RenameTable{Entries: []eeg.RenameEntry{
		{Original: "EEG F3", Desired: "F3"},
		{Original: "EEG F4", Desired: "F4"},
	}}

	require.NoError(t, eeg.Rename(rec, table))
	want := rec.Labels()

	// A second application finds no source labels and leaves the
	// recording untouched.
	err := eeg.Rename(rec, table)
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, want, rec.Labels())
}

func TestRenameIdentityMappingIsIdempotent(t *testing.T) {
	rec := newRecording("F3", "F4")
	table := &eeg.RenameTable{Entries: []eeg.RenameEntry{
		{Original: "F3", Desired: "F3"},
		{Original: "F4", Desired: "F4"},
	}}

	require.NoError(t, eeg.Rename(rec, table))
	require.NoError(t, eeg.Rename(rec, table))
	assert.Equal(t, []string{"F3", "F4"}, rec.Labels())
}

func TestRenameMissingSource(t *testing.T) {
	rec := newRecording("EEG F3")
	table := &eeg.RenameTable{Entries: []eeg.RenameEntry{
		{Original: "EEG F4", Desired: "F4"},
	}}

	err := eeg.Rename(rec, table)
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "EEG F4")
}

func TestRenameRejectsResultingDuplicates(t *testing.T) {
	rec := newRecording("EEG F3", "F3")
	table := &eeg.RenameTable{Entries: []eeg.RenameEntry{
		{Original: "EEG F3", Desired: "F3"},
	}}

	err := eeg.Rename(rec, table)
	var verr *eeg.ValidationError
	require.ErrorAs(t, err, &verr)
	// Nothing was applied.
	assert.Equal(t, []string{"EEG F3", "F3"}, rec.Labels())
}

func TestRequireChannels(t *testing.T) {
	rec := newRecording("F3", "Cz")

	require.NoError(t, eeg.RequireChannels(rec, "F3"))

	err := eeg.RequireChannels(rec, "F3", "F4", "P8")
	var missing *eeg.MissingChannelError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"F4", "P8"}, missing.Labels)
	assert.Contains(t, err.Error(), "F4")
	assert.Contains(t, err.Error(), "P8")
}
