package eeg

import (
	"math"
	"sort"
)

// Montage assigns unit-sphere positions to a fixed set of standard labels.
type Montage map[string]Position

// MontageStandard1020 is the only built-in layout: the international 10-20
// system with its common 10-10 aliases.
const MontageStandard1020 = "standard_1020"

// standard1020Angles lists (inclination from vertex, azimuth from the right
// ear toward the nasion) in degrees for the classic 10-20 sites.
var standard1020Angles = map[string][2]float64{
	"Cz":  {0, 0},
	"Fz":  {45, 90},
	"Pz":  {45, -90},
	"Fpz": {90, 90},
	"Oz":  {90, -90},
	"C3":  {45, 180},
	"C4":  {45, 0},
	"T7":  {90, 180},
	"T8":  {90, 0},
	"F3":  {60, 129},
	"F4":  {60, 51},
	"F7":  {90, 144},
	"F8":  {90, 36},
	"P3":  {60, -129},
	"P4":  {60, -51},
	"P7":  {90, -144},
	"P8":  {90, -36},
	"Fp1": {90, 108},
	"Fp2": {90, 72},
	"O1":  {90, -108},
	"O2":  {90, -72},
	"AFz": {68, 90},
	"FCz": {23, 90},
	"CPz": {23, -90},
	"POz": {68, -90},
}

// standard1020Aliases maps the older T3/T4/T5/T6 names onto their modern
// equivalents.
var standard1020Aliases = map[string]string{
	"T3": "T7",
	"T4": "T8",
	"T5": "P7",
	"T6": "P8",
}

// StandardMontage returns the named built-in montage. Only
// MontageStandard1020 is known.
func StandardMontage(name string) (Montage, error) {
	if name != MontageStandard1020 {
		return nil, Validationf("unknown montage %q (known: %s)", name, MontageStandard1020)
	}

	m := make(Montage, len(standard1020Angles)+len(standard1020Aliases))
	for label, angles := range standard1020Angles {
		m[label] = sphericalPosition(angles[0], angles[1])
	}
	for alias, target := range standard1020Aliases {
		m[alias] = m[target]
	}
	return m, nil
}

func sphericalPosition(inclinationDeg, azimuthDeg float64) Position {
	theta := inclinationDeg * math.Pi / 180
	phi := azimuthDeg * math.Pi / 180
	return Position{
		X: math.Sin(theta) * math.Cos(phi),
		Y: math.Sin(theta) * math.Sin(phi),
		Z: math.Cos(theta),
	}
}

// ApplyMontage assigns positions to every channel whose label appears in the
// montage. Unmatched channels keep a nil position; their sorted labels are
// returned so the caller can log the data-quality warning.
func ApplyMontage(rec *Recording, m Montage) (unpositioned []string) {
	for _, ch := range rec.Channels {
		if pos, ok := m[ch.Label]; ok {
			p := pos
			ch.Position = &p
		} else {
			unpositioned = append(unpositioned, ch.Label)
		}
	}
	sort.Strings(unpositioned)
	return unpositioned
}
