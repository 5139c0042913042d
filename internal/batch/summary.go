package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// FAAResult is the per-recording summary row.
type FAAResult struct {
	Input       string
	Participant string
	Condition   string
	LeftLabel   string
	RightLabel  string
	LeftPower   float64
	RightPower  float64
	FAALog10    float64
}

var summaryHeader = []string{
	"input", "participant", "condition",
	"left_channel", "right_channel",
	"left_power", "right_power", "faa_log10",
}

// WriteSummary persists one FAA result as a single-row CSV. The file is
// written to a temporary name and renamed into place, so a terminated run
// leaves the output either absent or complete, never silently truncated.
func WriteSummary(path string, res FAAResult) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating summary %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	w := csv.NewWriter(f)
	row := []string{
		res.Input, res.Participant, res.Condition,
		res.LeftLabel, res.RightLabel,
		formatPower(res.LeftPower),
		formatPower(res.RightPower),
		strconv.FormatFloat(res.FAALog10, 'f', 6, 64),
	}
	if err := w.Write(summaryHeader); err != nil {
		f.Close()
		return fmt.Errorf("writing summary header: %w", err)
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("writing summary row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing summary %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func formatPower(v float64) string {
	return strconv.FormatFloat(v, 'e', 6, 64)
}
