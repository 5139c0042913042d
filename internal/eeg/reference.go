package eeg

// ReferenceScheme selects how channels are re-referenced.
type ReferenceScheme string

const (
	// ReferenceAverage subtracts the across-channel mean at every sample.
	ReferenceAverage ReferenceScheme = "average"
	// ReferenceNone leaves the recording as acquired.
	ReferenceNone ReferenceScheme = "none"
)

// Reference re-references every channel of the recording according to the
// scheme. Average referencing is linear and idempotent: re-applying it to an
// already referenced recording is a no-op within floating-point tolerance.
func Reference(rec *Recording, scheme ReferenceScheme) error {
	switch scheme {
	case ReferenceNone:
		return nil
	case ReferenceAverage:
		return averageReference(rec)
	default:
		return Validationf("unknown reference scheme %q", scheme)
	}
}

func averageReference(rec *Recording) error {
	if len(rec.Channels) == 0 {
		return Validationf("recording %s: cannot re-reference without channels", rec.ID)
	}

	n := rec.SampleCount()
	inv := 1.0 / float64(len(rec.Channels))
	for i := 0; i < n; i++ {
		var sum float64
		for _, ch := range rec.Channels {
			sum += ch.Samples[i]
		}
		mean := sum * inv
		for _, ch := range rec.Channels {
			ch.Samples[i] -= mean
		}
	}
	return nil
}
