// Package edfio loads raw EDF/EDF+ recordings into the pipeline's in-memory
// model and persists cleaned recordings back to EDF.
//
// Sample decoding and all writing go through github.com/OpenPSG/edf. The
// library's Reader keeps the parsed header private, so ReadHeader re-parses
// the fixed-layout header fields needed for channel metadata.
package edfio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPSG/edf"

	"github.com/neurolab/faapipe/internal/eeg"
)

// nonSignalLabels marks EDF+ annotation, acquisition status, and
// neurofeedback training signals, which carry no EEG data and are dropped at
// load time so they never enter referencing or channel statistics.
var nonSignalLabels = map[string]bool{
	"EDF Annotations":  true,
	"Status":           true,
	"Trigger":          true,
	"TRIG":             true,
	"Marker":           true,
	"[T1] EEG Trainin": true,
	"[T2] EEG Trainin": true,
}

// ReadHeader parses the EDF header of the file at path.
func ReadHeader(path string) (*edf.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return parseHeader(f)
}

// Load reads the recording at path. EDF+ annotation signals are skipped; the
// labels of skipped signals are returned for logging. All remaining signals
// must share one sample rate.
func Load(path string) (*eeg.Recording, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	hdr, err := parseHeader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing header of %s: %w", path, err)
	}
	if hdr.DataRecords < 0 {
		return nil, nil, eeg.Validationf("%s: unknown data record count", path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("rewinding %s: %w", path, err)
	}
	reader, err := edf.Open(f)
	if err != nil {
		return nil, nil, fmt.Errorf("opening EDF %s: %w", path, err)
	}

	recordSecs := hdr.DataRecordDuration.Seconds()
	if recordSecs <= 0 {
		return nil, nil, eeg.Validationf("%s: non-positive data record duration", path)
	}

	rec := &eeg.Recording{
		ID:        stem(path),
		StartTime: hdr.StartTime,
	}

	var skipped []string
	for i, sig := range hdr.Signals {
		if nonSignalLabels[sig.Label] {
			skipped = append(skipped, sig.Label)
			continue
		}

		rate := float64(sig.SamplesPerRecord) / recordSecs
		if rec.SampleRate == 0 {
			rec.SampleRate = rate
		} else if math.Abs(rate-rec.SampleRate) > 1e-9 {
			return nil, nil, eeg.Validationf("%s: signal %q sampled at %g Hz, expected %g Hz",
				path, sig.Label, rate, rec.SampleRate)
		}

		sr, err := reader.Signal(i)
		if err != nil {
			return nil, nil, fmt.Errorf("selecting signal %d of %s: %w", i, path, err)
		}

		samples := make([]float64, hdr.DataRecords*sig.SamplesPerRecord)
		if _, err := sr.Read(samples); err != nil && err != io.EOF {
			return nil, nil, fmt.Errorf("reading signal %q of %s: %w", sig.Label, path, err)
		}

		rec.Channels = append(rec.Channels, &eeg.Channel{
			Label:   sig.Label,
			Samples: samples,
		})
	}

	if err := rec.Validate(); err != nil {
		return nil, nil, err
	}
	return rec, skipped, nil
}

// Save persists the recording as an EDF file at path, using 1-second data
// records. The file is written to a temporary name and renamed into place so
// an interrupted run leaves no trusted-looking partial output. The final
// partial second is zero-padded; all original samples are preserved.
func Save(path string, rec *eeg.Recording) error {
	samplesPerRecord := int(math.Round(rec.SampleRate))
	if samplesPerRecord <= 0 {
		return eeg.Validationf("recording %s: sample rate %g rounds to zero samples per record",
			rec.ID, rec.SampleRate)
	}

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X X X X",
		RecordingID:        "Startdate X " + rec.ID,
		StartTime:          rec.StartTime,
		DataRecordDuration: time.Second,
		SignalCount:        len(rec.Channels),
	}
	for _, ch := range rec.Channels {
		physMin, physMax := physicalRange(ch.Samples)
		hdr.Signals = append(hdr.Signals, edf.Signal{
			Label:             ch.Label,
			PhysicalDimension: "uV",
			PhysicalMin:       physMin,
			PhysicalMax:       physMax,
			DigitalMin:        -32768,
			DigitalMax:        32767,
			Prefiltering:      "cleaned",
			SamplesPerRecord:  samplesPerRecord,
		})
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	writer, err := edf.Create(f, hdr)
	if err != nil {
		f.Close()
		return fmt.Errorf("writing EDF header: %w", err)
	}

	total := rec.SampleCount()
	records := (total + samplesPerRecord - 1) / samplesPerRecord
	buf := make([][]float64, len(rec.Channels))
	for r := 0; r < records; r++ {
		start := r * samplesPerRecord
		end := start + samplesPerRecord
		for i, ch := range rec.Channels {
			if end <= total {
				buf[i] = ch.Samples[start:end]
				continue
			}
			padded := make([]float64, samplesPerRecord)
			copy(padded, ch.Samples[start:total])
			buf[i] = padded
		}
		if err := writer.WriteRecord(buf); err != nil {
			f.Close()
			return fmt.Errorf("writing record %d: %w", r, err)
		}
	}

	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing EDF: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// physicalRange widens the sample range slightly so quantization never clips,
// and degenerates to ±1 around a flat signal.
func physicalRange(samples []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range samples {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(samples) == 0 || lo > hi {
		return -1, 1
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	margin := (hi - lo) * 1e-3
	return lo - margin, hi + margin
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseHeader reads the fixed-layout EDF header. Field offsets follow the
// EDF/EDF+ specification.
func parseHeader(r io.Reader) (*edf.Header, error) {
	b := make([]byte, 256)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	hdr := &edf.Header{}
	hdr.Version = edf.Version(field(b[0:8]))
	hdr.PatientID = field(b[8:88])
	hdr.RecordingID = field(b[88:168])

	startDate, err := time.Parse("02.01.06", field(b[168:176]))
	if err != nil {
		return nil, fmt.Errorf("parsing start date: %w", err)
	}
	startClock, err := time.Parse("15.04.05", field(b[176:184]))
	if err != nil {
		return nil, fmt.Errorf("parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startClock.Hour(), startClock.Minute(), startClock.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(field(b[184:192])); err != nil {
		return nil, fmt.Errorf("parsing header size: %w", err)
	}
	if hdr.DataRecords, err = strconv.Atoi(field(b[236:244])); err != nil {
		return nil, fmt.Errorf("parsing data record count: %w", err)
	}
	if hdr.DataRecordDuration, err = time.ParseDuration(field(b[244:252]) + "s"); err != nil {
		return nil, fmt.Errorf("parsing data record duration: %w", err)
	}
	if hdr.SignalCount, err = strconv.Atoi(field(b[252:256])); err != nil {
		return nil, fmt.Errorf("parsing signal count: %w", err)
	}

	hdr.Signals = make([]edf.Signal, hdr.SignalCount)
	readColumn := func(width int, assign func(i int, s string) error) error {
		col := make([]byte, width)
		for i := 0; i < hdr.SignalCount; i++ {
			if _, err := io.ReadFull(r, col); err != nil {
				return fmt.Errorf("reading signal headers: %w", err)
			}
			if err := assign(i, field(col)); err != nil {
				return err
			}
		}
		return nil
	}

	steps := []struct {
		width  int
		assign func(i int, s string) error
	}{
		{16, func(i int, s string) error { hdr.Signals[i].Label = s; return nil }},
		{80, func(i int, s string) error { hdr.Signals[i].TransducerType = s; return nil }},
		{8, func(i int, s string) error { hdr.Signals[i].PhysicalDimension = s; return nil }},
		{8, func(i int, s string) error {
			v, err := strconv.ParseFloat(s, 64)
			hdr.Signals[i].PhysicalMin = v
			return errOrNil("physical min", err)
		}},
		{8, func(i int, s string) error {
			v, err := strconv.ParseFloat(s, 64)
			hdr.Signals[i].PhysicalMax = v
			return errOrNil("physical max", err)
		}},
		{8, func(i int, s string) error {
			v, err := strconv.Atoi(s)
			hdr.Signals[i].DigitalMin = v
			return errOrNil("digital min", err)
		}},
		{8, func(i int, s string) error {
			v, err := strconv.Atoi(s)
			hdr.Signals[i].DigitalMax = v
			return errOrNil("digital max", err)
		}},
		{80, func(i int, s string) error { hdr.Signals[i].Prefiltering = s; return nil }},
		{8, func(i int, s string) error {
			v, err := strconv.Atoi(s)
			hdr.Signals[i].SamplesPerRecord = v
			return errOrNil("samples per record", err)
		}},
		{32, func(i int, s string) error { hdr.Signals[i].Reserved = s; return nil }},
	}
	for _, step := range steps {
		if err := readColumn(step.width, step.assign); err != nil {
			return nil, err
		}
	}

	return hdr, nil
}

func field(b []byte) string {
	return strings.TrimSpace(string(b))
}

func errOrNil(what string, err error) error {
	if err != nil {
		return fmt.Errorf("parsing %s: %w", what, err)
	}
	return nil
}
