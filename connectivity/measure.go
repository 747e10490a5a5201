// SPDX-License-Identifier: MIT

package connectivity

import "fmt"

// Measure enumerates the supported connectivity measures. The zero value is
// Coefficients.
type Measure int

const (
	Coefficients     Measure = iota // A: spectral representation of the VAR coefficients
	Transfer                         // H: transfer function A⁻¹
	CrossSpectrum                    // S: cross-spectral density H C Hᴴ
	LogSpectrum                      // logS: natural log of |S|
	AbsSpectrum                      // absS: |S|
	InverseSpectrum                  // G: inverse cross-spectral density Aᴴ C⁻¹ A
	Phase                            // PHI: angle of S
	Coherence                        // COH
	PartialCoherence                 // pCOH
	PDC                              // partial directed coherence
	FFPDC                            // full-frequency PDC
	PDCF                             // PDC factor
	GPDC                             // generalized PDC
	DTF                              // directed transfer function
	FFDTF                            // full-frequency DTF
	DDTF                             // direct DTF
	GDTF                             // generalized DTF

	measureCount
)

var measureNames = [measureCount]string{
	Coefficients:     "A",
	Transfer:         "H",
	CrossSpectrum:    "S",
	LogSpectrum:      "logS",
	AbsSpectrum:      "absS",
	InverseSpectrum:  "G",
	Phase:            "PHI",
	Coherence:        "COH",
	PartialCoherence: "pCOH",
	PDC:              "PDC",
	FFPDC:            "ffPDC",
	PDCF:             "PDCF",
	GPDC:             "GPDC",
	DTF:              "DTF",
	FFDTF:            "ffDTF",
	DDTF:             "dDTF",
	GDTF:             "GDTF",
}

// String returns the short measure name ("PDC", "ffDTF", ...).
func (m Measure) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Measure(%d)", int(m))
	}

	return measureNames[m]
}

// Valid reports whether m is one of the enumerated measures.
func (m Measure) Valid() bool { return m >= 0 && m < measureCount }

// ParseMeasure maps a short name onto its Measure. Names are case-sensitive.
func ParseMeasure(name string) (Measure, error) {
	for i, n := range measureNames {
		if n == name {
			return Measure(i), nil
		}
	}

	return 0, fmt.Errorf("%q: %w", name, ErrUnknownMeasure)
}

// Measures returns every supported measure in enumeration order.
func Measures() []Measure {
	out := make([]Measure, measureCount)
	for i := range out {
		out[i] = Measure(i)
	}

	return out
}
