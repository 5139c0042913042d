// Package batch orchestrates one pipeline invocation: it discovers inputs,
// enforces the single-rename-table invariant, sequences the per-file stages,
// isolates per-file failures, and manages outputs and the run log.
package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurolab/faapipe/internal/config"
	"github.com/neurolab/faapipe/internal/edfio"
	"github.com/neurolab/faapipe/internal/eeg"
	"github.com/neurolab/faapipe/internal/runlog"
)

// OutputExistsError reports a refused overwrite of a previously produced
// artifact.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output %s already exists (use --overwrite to replace it)", e.Path)
}

// FileResult records the outcome of one input recording.
type FileResult struct {
	Input string
	FAA   *FAAResult
	Err   error
}

// Summary aggregates a whole batch.
type Summary struct {
	Results []FileResult
}

// Failed counts files that did not produce both outputs.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Runner executes one batch. It owns the lifecycle of each Recording for the
// duration of that file's processing; nothing is shared across files.
type Runner struct {
	cfg *config.Config
	log *runlog.Log
}

// New creates a Runner writing to the given run log.
func New(cfg *config.Config, log *runlog.Log) *Runner {
	return &Runner{cfg: cfg, log: log}
}

// Run processes the whole batch sequentially. Batch-level problems (no
// inputs, zero or multiple rename tables) abort before any per-file work;
// per-file failures are logged and isolated. The returned error is non-nil
// when the batch-level validation failed or when any file failed, so callers
// can map it to a non-zero exit status.
func (r *Runner) Run() (*Summary, error) {
	logger := r.log.Logger()

	inputs, err := r.resolveInputs()
	if err != nil {
		logger.Error("batch aborted", "error", err)
		return nil, err
	}
	logger.Info("discovered recordings", "count", len(inputs))

	tablePath := r.cfg.Input.RenameTable
	if tablePath == "" {
		tablePath, err = FindRenameTable(r.cfg.Input.Directory)
		if err != nil {
			logger.Error("batch aborted", "error", err)
			return nil, err
		}
	}
	table, err := eeg.LoadRenameTable(tablePath)
	if err != nil {
		logger.Error("batch aborted", "error", err)
		return nil, err
	}
	logger.Info("using rename table", "path", tablePath, "entries", len(table.Entries))

	summary := &Summary{}
	for _, input := range inputs {
		result := FileResult{Input: input}
		result.FAA, result.Err = r.processFile(input, table)
		if result.Err != nil {
			r.log.ForFile(stem(input)).Error("file failed",
				"kind", errorKind(result.Err), "error", result.Err)
		}
		summary.Results = append(summary.Results, result)
	}

	if failed := summary.Failed(); failed > 0 {
		logger.Error("batch finished with failures", "failed", failed, "total", len(summary.Results))
		return summary, fmt.Errorf("%d of %d files failed", failed, len(summary.Results))
	}
	logger.Info("batch finished", "processed", len(summary.Results))
	return summary, nil
}

func (r *Runner) resolveInputs() ([]string, error) {
	if len(r.cfg.Input.Files) > 0 {
		for _, f := range r.cfg.Input.Files {
			if _, err := os.Stat(f); err != nil {
				return nil, fmt.Errorf("input file: %w", err)
			}
		}
		return r.cfg.Input.Files, nil
	}

	inputs, err := Discover(r.cfg.Input.Directory)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, eeg.Validationf("no .edf recordings found in %s", r.cfg.Input.Directory)
	}
	return inputs, nil
}

// processFile runs the full stage sequence for one recording:
// LOAD -> RENAME -> REFERENCE -> FILTER -> DETECT_BAD -> VALIDATE_CHANNELS ->
// EXTRACT -> COMPUTE_FAA -> PERSIST.
func (r *Runner) processFile(input string, table *eeg.RenameTable) (*FAAResult, error) {
	id := stem(input)
	logger := r.log.ForFile(id)
	logger.Info("processing started")

	outDir := r.cfg.OutputDirectory()
	cleanPath := filepath.Join(outDir, id+"_clean.edf")
	summaryPath := filepath.Join(outDir, id+"_faa.csv")
	if !r.cfg.Output.Overwrite {
		for _, p := range []string{cleanPath, summaryPath} {
			if _, err := os.Stat(p); err == nil {
				return nil, &OutputExistsError{Path: p}
			}
		}
	}

	rec, skipped, err := edfio.Load(input)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if len(skipped) > 0 {
		logger.Info("skipped non-signal channels", "labels", strings.Join(skipped, ", "))
	}
	logger.Info("loaded recording",
		"channels", len(rec.Channels),
		"sample_rate", rec.SampleRate,
		"duration", rec.Duration().String())

	if err := eeg.Rename(rec, table); err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}

	if r.cfg.Montage != "" {
		montage, err := eeg.StandardMontage(r.cfg.Montage)
		if err != nil {
			return nil, fmt.Errorf("montage: %w", err)
		}
		if unpositioned := eeg.ApplyMontage(rec, montage); len(unpositioned) > 0 {
			logger.Warn("channels without montage position, interpolation quality may degrade",
				"labels", strings.Join(unpositioned, ", "))
		}
	}

	if err := eeg.Reference(rec, eeg.ReferenceScheme(r.cfg.Reference)); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	band := eeg.Band{Low: r.cfg.Filter.LowHz, High: r.cfg.Filter.HighHz}
	if err := eeg.BandPass(rec, band); err != nil {
		return nil, fmt.Errorf("band-pass: %w", err)
	}
	notched, err := eeg.NotchFilter(rec, r.cfg.Filter.MainsHz, r.cfg.Filter.NotchQ)
	if err != nil {
		return nil, fmt.Errorf("notch: %w", err)
	}
	logger.Info("filtered", "band", band.String(), "notch_hz", notched)

	required := []string{r.cfg.Electrodes.Left, r.cfg.Electrodes.Right}
	if !r.cfg.BadChannels.Disabled {
		if err := r.cleanBadChannels(rec, required, logger); err != nil {
			return nil, err
		}
	}

	if err := eeg.RequireChannels(rec, required...); err != nil {
		return nil, err
	}

	if err := edfio.Save(cleanPath, rec); err != nil {
		return nil, fmt.Errorf("persisting cleaned recording: %w", err)
	}
	logger.Info("saved cleaned recording", "path", cleanPath)

	res, err := r.extractFAA(rec, id)
	if err != nil {
		return nil, err
	}
	if err := WriteSummary(summaryPath, *res); err != nil {
		return nil, fmt.Errorf("persisting summary: %w", err)
	}
	logger.Info("saved summary", "path", summaryPath, "faa_log10", res.FAALog10)
	logger.Info("processing finished")
	return res, nil
}

func (r *Runner) cleanBadChannels(rec *eeg.Recording, required []string, logger *slog.Logger) error {
	detectCfg := eeg.DefaultDetectionConfig()
	detectCfg.ZThreshold = r.cfg.BadChannels.ZThreshold

	bad := eeg.DetectBadChannels(rec, detectCfg)
	if len(bad) == 0 {
		logger.Info("no bad channels detected")
		return nil
	}
	logger.Warn("bad channels detected", "count", len(bad), "labels", strings.Join(bad, ", "))

	if err := eeg.Interpolate(rec, bad, required); err != nil {
		return fmt.Errorf("interpolation: %w", err)
	}
	logger.Info("interpolated bad channels", "labels", strings.Join(bad, ", "))
	return nil
}

func (r *Runner) extractFAA(rec *eeg.Recording, id string) (*FAAResult, error) {
	alpha := eeg.Band{Low: r.cfg.Spectral.AlphaLowHz, High: r.cfg.Spectral.AlphaHighHz}
	welch := eeg.WelchConfig{
		WindowSeconds: r.cfg.Spectral.WindowSeconds,
		Overlap:       r.cfg.Spectral.Overlap,
	}

	left := rec.Channel(r.cfg.Electrodes.Left)
	right := rec.Channel(r.cfg.Electrodes.Right)

	leftPower, err := eeg.BandPower(left.Samples, rec.SampleRate, alpha, welch)
	if err != nil {
		return nil, fmt.Errorf("band power %s: %w", left.Label, err)
	}
	rightPower, err := eeg.BandPower(right.Samples, rec.SampleRate, alpha, welch)
	if err != nil {
		return nil, fmt.Errorf("band power %s: %w", right.Label, err)
	}

	faa, err := eeg.FAA(leftPower, rightPower)
	if err != nil {
		return nil, err
	}

	participant, condition := ParseStem(id)
	return &FAAResult{
		Input:       id,
		Participant: participant,
		Condition:   condition,
		LeftLabel:   left.Label,
		RightLabel:  right.Label,
		LeftPower:   leftPower,
		RightPower:  rightPower,
		FAALog10:    faa,
	}, nil
}

// errorKind maps an error to the taxonomy name operators see in the log.
func errorKind(err error) string {
	var (
		validation    *eeg.ValidationError
		missing       *eeg.MissingChannelError
		signal        *eeg.SignalProcessingError
		interpolation *eeg.InterpolationError
		numeric       *eeg.NumericError
		exists        *OutputExistsError
	)
	switch {
	case errors.As(err, &validation):
		return "ValidationError"
	case errors.As(err, &missing):
		return "MissingChannelError"
	case errors.As(err, &signal):
		return "SignalProcessingError"
	case errors.As(err, &interpolation):
		return "InterpolationError"
	case errors.As(err, &numeric):
		return "NumericError"
	case errors.As(err, &exists):
		return "IOError"
	default:
		return "IOError"
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
