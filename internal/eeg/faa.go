package eeg

import (
	"fmt"
	"math"
)

// FAA computes the frontal alpha asymmetry index
//
//	faa = log10(rightPower) - log10(leftPower)
//
// from the alpha-band powers of the two designated electrodes. Physical power
// spectra are strictly positive; a zero or negative input indicates an
// upstream defect and is rejected with a NumericError.
func FAA(leftPower, rightPower float64) (float64, error) {
	if leftPower <= 0 {
		return 0, &NumericError{Msg: fmt.Sprintf("left band power must be positive, got %g", leftPower)}
	}
	if rightPower <= 0 {
		return 0, &NumericError{Msg: fmt.Sprintf("right band power must be positive, got %g", rightPower)}
	}
	return math.Log10(rightPower) - math.Log10(leftPower), nil
}
