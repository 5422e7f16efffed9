// Package core provides the spectrum and annotation models shared by the
// rendering engine, the readers and the retrieval layer.
package core

import (
	"fmt"
	"math"
	"strings"
)

// Attribute is a key/value metadata entry attached to a spectrum (PROXI style).
type Attribute struct {
	Accession string `json:"accession"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

// Spectrum is an ordered list of m/z and intensity pairs.
// MZs and Intensities always have equal length. A loaded spectrum is treated
// as read-only; replacing it means building a new value.
type Spectrum struct {
	MZs         []float64   `json:"mzs"`
	Intensities []float64   `json:"intensities"`
	Attributes  []Attribute `json:"attributes"`
}

// Len returns the number of peaks.
func (s *Spectrum) Len() int {
	if s == nil {
		return 0
	}
	return len(s.MZs)
}

// Empty reports whether the spectrum has no peaks.
func (s *Spectrum) Empty() bool {
	return s.Len() == 0 || len(s.Intensities) == 0
}

// Attribute returns the value of the first attribute with the given name or accession.
func (s *Spectrum) Attribute(key string) (string, bool) {
	for _, a := range s.Attributes {
		if a.Name == key || a.Accession == key {
			return a.Value, true
		}
	}
	return "", false
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum can be handed to the rendering engine.
// An empty spectrum is valid; the engine falls back to a default range.
func (s *Spectrum) Validate() error {
	var errs []string

	if len(s.MZs) != len(s.Intensities) {
		errs = append(errs, fmt.Sprintf("mzs and intensities differ in length (%d != %d)", len(s.MZs), len(s.Intensities)))
	}

	for i, mz := range s.MZs {
		if math.IsNaN(mz) || math.IsInf(mz, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
	}
	for i, intensity := range s.Intensities {
		if math.IsNaN(intensity) || math.IsInf(intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		} else if intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// IonType names a fragment ion series ("b", "y", "a-H2O", ...).
type IonType string

const (
	IonB IonType = "b"
	IonY IonType = "y"
)

// MatchedIon is a peak correlated with a theoretical peptide fragment.
// It is produced by an annotator and consumed read-only by the renderer.
type MatchedIon struct {
	PeakIndex     int     `json:"peak_index"`
	PeakMZ        float64 `json:"peak_mz"`
	PeakIntensity float64 `json:"peak_intensity"`
	TheoMZ        float64 `json:"theo_mz"`
	MZError       float64 `json:"mz_error"`
	Charge        int     `json:"charge"`
	IonType       IonType `json:"ion_type"`
	FragIndex     int     `json:"frag_index"`
	AAPosition    int     `json:"aa_position"` // 1-based position in the sequence
}

// Label returns the annotation text shown next to a matched peak, e.g. "y3++".
// y ions are numbered from the C-terminus, so the position is reversed
// against the length of the (stripped) peptide sequence.
func (m MatchedIon) Label(seqLen int) string {
	pos := m.AAPosition
	if m.IonType == IonY && seqLen > 0 {
		pos = seqLen - pos + 1
	}
	charge := m.Charge
	if charge < 0 {
		charge = 0
	}
	return fmt.Sprintf("%s%d%s", m.IonType, pos, strings.Repeat("+", charge))
}
