package eeg

import (
	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// WelchConfig holds the spectral-averaging parameters. The same segment
// length and overlap must be used for both asymmetry electrodes so the power
// ratio stays numerically comparable.
type WelchConfig struct {
	// WindowSeconds is the analysis segment length.
	WindowSeconds float64
	// Overlap is the fractional segment overlap in [0, 1).
	Overlap float64
}

// DefaultWelchConfig gives 2-second Hann segments with 50% overlap, a 0.5 Hz
// resolution at typical EEG rates.
func DefaultWelchConfig() WelchConfig {
	return WelchConfig{WindowSeconds: 2.0, Overlap: 0.5}
}

// BandPower estimates the power spectral density of samples with Welch's
// method and integrates it over band, returning a single scalar band power.
// It fails when the signal is shorter than one analysis segment or when the
// band holds fewer than two spectral bins.
func BandPower(samples []float64, sampleRate float64, band Band, cfg WelchConfig) (float64, error) {
	if sampleRate <= 0 {
		return 0, SignalProcessingf("sample rate must be positive, got %g", sampleRate)
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 2.0
	}
	if cfg.Overlap < 0 || cfg.Overlap >= 1 {
		cfg.Overlap = 0.5
	}

	segLen := int(cfg.WindowSeconds * sampleRate)
	if segLen < 8 {
		return 0, SignalProcessingf("analysis window of %gs at %g Hz is too short", cfg.WindowSeconds, sampleRate)
	}
	if len(samples) < segLen {
		return 0, SignalProcessingf("signal of %d samples shorter than the %d-sample analysis window",
			len(samples), segLen)
	}

	psd, freqStep, err := welchPSD(samples, sampleRate, segLen, cfg.Overlap)
	if err != nil {
		return 0, err
	}

	return integrateBand(psd, freqStep, band)
}

// welchPSD returns the one-sided PSD (bins 0..fftSize/2) and the bin spacing
// in Hz.
func welchPSD(samples []float64, sampleRate float64, segLen int, overlap float64) ([]float64, float64, error) {
	fftSize := nextPowerOfTwo(segLen)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, 0, SignalProcessingf("creating FFT plan: %v", err)
	}

	win := window.Generate(window.TypeHann, segLen)
	var winPower float64
	for _, w := range win {
		winPower += w * w
	}

	hop := int(float64(segLen) * (1 - overlap))
	if hop < 1 {
		hop = 1
	}

	binCount := fftSize/2 + 1
	psd := make([]float64, binCount)
	segIn := make([]complex128, fftSize)
	segOut := make([]complex128, fftSize)

	segments := 0
	for start := 0; start+segLen <= len(samples); start += hop {
		seg := samples[start : start+segLen]

		var mean float64
		for _, v := range seg {
			mean += v
		}
		mean /= float64(segLen)

		for i := range segIn {
			segIn[i] = 0
		}
		for i, v := range seg {
			segIn[i] = complex((v-mean)*win[i], 0)
		}

		if err := plan.Forward(segOut, segIn); err != nil {
			return nil, 0, SignalProcessingf("forward FFT failed: %v", err)
		}

		power := spectrum.Power(segOut[:binCount])
		for k, p := range power {
			psd[k] += p
		}
		segments++
	}

	// One-sided scaling: interior bins carry the mirrored half of the
	// spectrum, DC and Nyquist do not.
	scale := 1 / (sampleRate * winPower * float64(segments))
	for k := range psd {
		psd[k] *= scale
		if k != 0 && k != binCount-1 {
			psd[k] *= 2
		}
	}

	return psd, sampleRate / float64(fftSize), nil
}

// integrateBand applies the trapezoidal rule over the PSD bins falling inside
// the closed band.
func integrateBand(psd []float64, freqStep float64, band Band) (float64, error) {
	if band.Low < 0 || band.Low >= band.High {
		return 0, SignalProcessingf("invalid integration band %s", band)
	}

	lo := -1
	hi := -1
	for k := range psd {
		f := float64(k) * freqStep
		if f >= band.Low && lo < 0 {
			lo = k
		}
		if f <= band.High {
			hi = k
		}
	}
	if lo < 0 || hi-lo < 1 {
		return 0, SignalProcessingf("band %s covers fewer than two spectral bins (resolution %g Hz)",
			band, freqStep)
	}

	var power float64
	for k := lo; k < hi; k++ {
		power += (psd[k] + psd[k+1]) / 2 * freqStep
	}
	return power, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
