package eeg

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"
)

const (
	// bandPassOrder is the Butterworth order used for each edge of the
	// pass band. Applied forward-backward, the effective order doubles.
	bandPassOrder = 4

	// notchQ gives roughly a 1.7 Hz wide notch at 50 Hz.
	defaultNotchQ = 30.0
)

// BandPass applies a zero-phase Butterworth band-pass to every channel:
// a high-pass at band.Low cascaded with a low-pass at band.High, run forward
// and backward so no phase distortion is introduced. Sample rate, channel
// count and sample count are unchanged; edge transients at the record
// boundaries are expected and not truncated.
func BandPass(rec *Recording, band Band) error {
	nyquist := rec.SampleRate / 2
	if band.Low <= 0 {
		return SignalProcessingf("band-pass low cutoff must be positive, got %g Hz", band.Low)
	}
	if band.Low >= band.High {
		return SignalProcessingf("band-pass cutoffs inverted: low %g Hz >= high %g Hz", band.Low, band.High)
	}
	if band.High >= nyquist {
		return SignalProcessingf("band-pass high cutoff %g Hz >= Nyquist %g Hz", band.High, nyquist)
	}

	coeffs := pass.ButterworthHP(band.Low, bandPassOrder, rec.SampleRate)
	coeffs = append(coeffs, pass.ButterworthLP(band.High, bandPassOrder, rec.SampleRate)...)

	for _, ch := range rec.Channels {
		zeroPhase(coeffs, ch.Samples)
	}
	return nil
}

// NotchFilter applies a zero-phase notch at the mains frequency and its first
// harmonic. A harmonic at or above Nyquist is skipped; the applied
// frequencies are returned so the caller can log what was actually removed.
func NotchFilter(rec *Recording, mainsHz float64, q float64) ([]float64, error) {
	nyquist := rec.SampleRate / 2
	if mainsHz <= 0 {
		return nil, SignalProcessingf("mains frequency must be positive, got %g Hz", mainsHz)
	}
	if mainsHz >= nyquist {
		return nil, SignalProcessingf("mains frequency %g Hz >= Nyquist %g Hz", mainsHz, nyquist)
	}
	if q <= 0 {
		q = defaultNotchQ
	}

	applied := []float64{mainsHz}
	if harmonic := 2 * mainsHz; harmonic < nyquist {
		applied = append(applied, harmonic)
	}

	coeffs := make([]biquad.Coefficients, 0, len(applied))
	for _, freq := range applied {
		coeffs = append(coeffs, design.Notch(freq, q, rec.SampleRate))
	}

	for _, ch := range rec.Channels {
		zeroPhase(coeffs, ch.Samples)
	}
	return applied, nil
}

// zeroPhase runs the cascade forward over buf, then backward with reset
// state, cancelling the cascade's phase response.
func zeroPhase(coeffs []biquad.Coefficients, buf []float64) {
	chain := biquad.NewChain(coeffs)
	chain.ProcessBlock(buf)
	reverse(buf)
	chain.Reset()
	chain.ProcessBlock(buf)
	reverse(buf)
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
