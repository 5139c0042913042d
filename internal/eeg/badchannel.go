package eeg

import (
	"math"
	"sort"

	timestats "github.com/cwbudde/algo-dsp/stats/time"
)

// DetectionConfig tunes the bad-channel detector. The exact statistic and
// threshold are study-dependent, so the threshold is configurable rather than
// a fixed constant.
type DetectionConfig struct {
	// ZThreshold is the robust z-score beyond which a channel statistic
	// marks the channel bad.
	ZThreshold float64

	// MaxSamples caps the number of samples used for the amplitude and
	// correlation statistics; longer recordings are decimated.
	MaxSamples int
}

// DefaultDetectionConfig mirrors the PREP-style defaults.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{ZThreshold: 5.0, MaxSamples: 20000}
}

// DetectBadChannels flags channels whose statistics are outliers relative to
// the channel population. Three criteria are combined, each scored with a
// robust (median/MAD) z-score:
//
//   - log10 peak-to-peak amplitude (saturated or disconnected electrodes),
//   - 1-|r| correlation against the median of the other channels,
//   - log10 variance (flat channels).
//
// A channel exceeding the threshold on any criterion is returned, sorted by
// label. Quality flags on the recording are updated.
func DetectBadChannels(rec *Recording, cfg DetectionConfig) []string {
	if cfg.ZThreshold <= 0 {
		cfg.ZThreshold = 5.0
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 20000
	}
	if len(rec.Channels) < 3 {
		// Population statistics are meaningless for one or two channels.
		return nil
	}

	data := decimate(rec, cfg.MaxSamples)
	nch := len(data)

	amp := make([]float64, nch)
	variance := make([]float64, nch)
	uncorr := make([]float64, nch)

	for i, samples := range data {
		amp[i] = math.Log10(peakToPeak(samples) + math.SmallestNonzeroFloat64)
		_, v, _, _ := timestats.Moments(samples)
		variance[i] = math.Log10(v + math.SmallestNonzeroFloat64)
		uncorr[i] = 1 - math.Abs(correlationWithMedian(data, i))
	}

	zAmp := robustZScores(amp)
	zVar := robustZScores(variance)
	zCorr := robustZScores(uncorr)

	badSet := make(map[string]bool)
	for i, ch := range rec.Channels {
		if math.Abs(zAmp[i]) > cfg.ZThreshold ||
			math.Abs(zVar[i]) > cfg.ZThreshold ||
			zCorr[i] > cfg.ZThreshold {
			badSet[ch.Label] = true
			ch.Quality = QualityBad
		}
	}

	bad := make([]string, 0, len(badSet))
	for label := range badSet {
		bad = append(bad, label)
	}
	sort.Strings(bad)
	return bad
}

// Interpolate reconstructs each bad channel from the good ones. Positioned
// channels use inverse-distance-squared weighting over positioned good
// channels; a bad channel without usable neighbors falls back to the
// unweighted mean of all good channels. It fails when every channel is bad,
// or when a channel required for later analysis is bad but has no position.
func Interpolate(rec *Recording, bad []string, required []string) error {
	if len(bad) == 0 {
		return nil
	}

	badSet := make(map[string]bool, len(bad))
	for _, label := range bad {
		badSet[label] = true
	}

	var good []*Channel
	for _, ch := range rec.Channels {
		if !badSet[ch.Label] {
			good = append(good, ch)
		}
	}
	if len(good) == 0 {
		return Interpolationf("recording %s: all %d channels are bad, nothing to interpolate from",
			rec.ID, len(rec.Channels))
	}

	requiredSet := make(map[string]bool, len(required))
	for _, label := range required {
		requiredSet[label] = true
	}

	for _, label := range bad {
		ch := rec.Channel(label)
		if ch == nil {
			return Interpolationf("recording %s: bad channel %q not found", rec.ID, label)
		}
		if ch.Position == nil && requiredSet[label] {
			return Interpolationf("recording %s: required channel %q is bad and has no montage position",
				rec.ID, label)
		}
		interpolateChannel(ch, good)
		ch.Quality = QualityInterpolated
	}
	return nil
}

func interpolateChannel(ch *Channel, good []*Channel) {
	type neighbor struct {
		samples []float64
		weight  float64
	}

	var neighbors []neighbor
	if ch.Position != nil {
		for _, g := range good {
			if g.Position == nil {
				continue
			}
			d2 := distSquared(*ch.Position, *g.Position)
			if d2 < 1e-12 {
				// Co-located channel: copy it outright.
				copy(ch.Samples, g.Samples)
				return
			}
			neighbors = append(neighbors, neighbor{samples: g.Samples, weight: 1 / d2})
		}
	}
	if len(neighbors) == 0 {
		// No positioned neighbors: average every good channel equally.
		for _, g := range good {
			neighbors = append(neighbors, neighbor{samples: g.Samples, weight: 1})
		}
	}

	var total float64
	for _, nb := range neighbors {
		total += nb.weight
	}

	for i := range ch.Samples {
		var acc float64
		for _, nb := range neighbors {
			acc += nb.weight * nb.samples[i]
		}
		ch.Samples[i] = acc / total
	}
}

func distSquared(a, b Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

func decimate(rec *Recording, maxSamples int) [][]float64 {
	n := rec.SampleCount()
	step := 1
	if n > maxSamples {
		step = (n + maxSamples - 1) / maxSamples
	}

	data := make([][]float64, len(rec.Channels))
	for i, ch := range rec.Channels {
		out := make([]float64, 0, n/step+1)
		for j := 0; j < n; j += step {
			out = append(out, ch.Samples[j])
		}
		data[i] = out
	}
	return data
}

func peakToPeak(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	lo, hi := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// correlationWithMedian returns Pearson's r between channel idx and the
// per-sample median of the remaining channels. NaN (e.g. a flat channel)
// counts as fully uncorrelated.
func correlationWithMedian(data [][]float64, idx int) float64 {
	n := len(data[idx])
	med := make([]float64, n)
	others := make([]float64, 0, len(data)-1)
	for i := 0; i < n; i++ {
		others = others[:0]
		for j, samples := range data {
			if j != idx {
				others = append(others, samples[i])
			}
		}
		med[i] = median(others)
	}

	r := pearson(data[idx], med)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	return cov / math.Sqrt(vx*vy)
}

func median(values []float64) float64 {
	tmp := append([]float64(nil), values...)
	sort.Float64s(tmp)
	n := len(tmp)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return tmp[n/2]
	}
	return (tmp[n/2-1] + tmp[n/2]) / 2
}

// robustZScores scores values with (v - median) / (1.4826 * MAD).
func robustZScores(values []float64) []float64 {
	med := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - med)
	}
	mad := median(dev)
	if mad == 0 {
		mad = 1e-12
	}

	z := make([]float64, len(values))
	for i, v := range values {
		z[i] = (v - med) / (1.4826 * mad)
	}
	return z
}
