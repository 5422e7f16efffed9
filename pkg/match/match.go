// Package match provides m/z error units, tolerance windows and pairing of
// peaks between a spectrum and its mirror.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

// ErrorType is the unit m/z errors are expressed in.
type ErrorType string

const (
	PPM ErrorType = "ppm"
	Da  ErrorType = "da"
	MMU ErrorType = "mmu"
)

// ParseErrorType accepts "ppm", "da" or "mmu" in any case.
func ParseErrorType(s string) (ErrorType, error) {
	switch t := ErrorType(strings.ToLower(strings.TrimSpace(s))); t {
	case PPM, Da, MMU:
		return t, nil
	default:
		return "", fmt.Errorf("unknown m/z error type %q (want ppm, da or mmu)", s)
	}
}

// Label returns the axis label for errors in this unit.
func (e ErrorType) Label() string {
	switch e {
	case PPM:
		return "Error (ppm)"
	case Da:
		return "Error (Da)"
	case MMU:
		return "Error (mmu)"
	default:
		return "Error"
	}
}

// Transform converts an absolute m/z error (in Da) measured at referenceMZ
// into this unit.
func (e ErrorType) Transform(referenceMZ, mzError float64) float64 {
	switch e {
	case PPM:
		return mzError / referenceMZ * 1e6
	case MMU:
		return mzError / referenceMZ * 1e3
	default:
		return mzError
	}
}

// Errors returns the transformed error of every ion, using its peak m/z as
// the reference.
func Errors(ions []core.MatchedIon, unit ErrorType) []float64 {
	out := make([]float64, len(ions))
	for i, ion := range ions {
		out[i] = unit.Transform(ion.PeakMZ, ion.MZError)
	}
	return out
}

// Tolerance is an asymmetric matching window around a reference m/z.
// Lo and Hi are non-negative widths below and above the reference.
type Tolerance struct {
	Lo   float64   `yaml:"lo" json:"lo"`
	Hi   float64   `yaml:"hi" json:"hi"`
	Type ErrorType `yaml:"type" json:"type"`
}

// Window returns the absolute m/z bounds around ref.
func (t Tolerance) Window(ref float64) (lo, hi float64) {
	var scale float64
	switch t.Type {
	case PPM:
		scale = ref * 1e-6
	case MMU:
		scale = 1e-3
	default:
		scale = 1
	}
	return ref - t.Lo*scale, ref + t.Hi*scale
}

// Contains reports whether mz falls inside the window around ref.
func (t Tolerance) Contains(mz, ref float64) bool {
	lo, hi := t.Window(ref)
	return mz >= lo && mz <= hi
}

// Pair links a query peak index to a reference peak index.
type Pair [2]int

// Query returns the query-side peak index.
func (p Pair) Query() int { return p[0] }

// Reference returns the reference-side peak index.
func (p Pair) Reference() int { return p[1] }

// MatchPeaks pairs peaks of query and reference whose m/z agree within tol.
// Each peak proposes its most intense partner inside the window. When two
// proposals share a peak, the one with the larger summed intensity is kept.
// The result is ordered by query index.
func MatchPeaks(query, reference *core.Spectrum, tol Tolerance) []Pair {
	candidates := make(map[Pair]struct{})

	for i, q := range query.MZs {
		best := -1
		for j, r := range reference.MZs {
			if !tol.Contains(q, r) {
				continue
			}
			if best < 0 || reference.Intensities[j] > reference.Intensities[best] {
				best = j
			}
		}
		if best >= 0 {
			candidates[Pair{i, best}] = struct{}{}
		}
	}

	for j, r := range reference.MZs {
		best := -1
		for i, q := range query.MZs {
			if !tol.Contains(q, r) {
				continue
			}
			if best < 0 || query.Intensities[i] > query.Intensities[best] {
				best = i
			}
		}
		if best >= 0 {
			candidates[Pair{best, j}] = struct{}{}
		}
	}

	sum := func(p Pair) float64 {
		return query.Intensities[p[0]] + reference.Intensities[p[1]]
	}
	ordered := make([]Pair, 0, len(candidates))
	for p := range candidates {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(a, b int) bool {
		sa, sb := sum(ordered[a]), sum(ordered[b])
		if sa != sb {
			return sa > sb
		}
		if ordered[a][0] != ordered[b][0] {
			return ordered[a][0] < ordered[b][0]
		}
		return ordered[a][1] < ordered[b][1]
	})

	usedQ := make(map[int]bool)
	usedR := make(map[int]bool)
	var out []Pair
	for _, p := range ordered {
		if usedQ[p[0]] || usedR[p[1]] {
			continue
		}
		usedQ[p[0]], usedR[p[1]] = true, true
		out = append(out, p)
	}

	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}
