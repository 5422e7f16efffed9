// Package filter decides which peaks are hidden during rendering and
// prepares intensities for display.
//
// Filters never remove peaks from a spectrum: peak positions must stay
// stable because matched ions refer to them. They produce an IndexSet of
// positions the renderer skips instead.
package filter

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/match"
	"github.com/ChrisMcGann/SpecView/pkg/peaks"
)

// IndexSet is a set of peak positions.
type IndexSet map[int]struct{}

// NewIndexSet returns a set holding indices.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Has reports whether i is in the set. A nil set is empty.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Add inserts every index of o into s.
func (s IndexSet) Add(o IndexSet) {
	for i := range o {
		s[i] = struct{}{}
	}
}

// Sorted returns the members in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Config holds filtering configuration
type Config struct {
	TopN            int            // Show only the N most intense peaks (0 = no limit)
	IntensityCutoff float64        // Show only peaks at or above this % of base peak (0 = no cutoff)
	IonTypes        []core.IonType // Show only peaks matched to these series (nil = all)
	HideZero        bool           // Hide peaks with zero intensity
}

// Hidden returns the peaks of spec hidden by the configured filters.
// idx supplies the matched ions for ion type and unmatched filtering.
func (c *Config) Hidden(spec *core.Spectrum, idx *peaks.Index) IndexSet {
	hidden := make(IndexSet)
	n := spec.Len()

	// Filter by ion type
	if len(c.IonTypes) > 0 {
		for i := 0; i < n; i++ {
			ion, ok := idx.Get(i)
			if !ok || !matchesIonType(ion.IonType, c.IonTypes) {
				hidden[i] = struct{}{}
			}
		}
	}

	if c.HideZero {
		for i, intensity := range spec.Intensities {
			if intensity <= 0 {
				hidden[i] = struct{}{}
			}
		}
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		hidden.Add(belowCutoff(spec.Intensities, c.IntensityCutoff))
	}

	// Apply top-N filter
	if c.TopN > 0 {
		hidden.Add(outsideTopN(spec.Intensities, c.TopN))
	}

	return hidden
}

// matchesIonType checks if a series matches any of the allowed ion types
func matchesIonType(ion core.IonType, ionTypes []core.IonType) bool {
	for _, allowed := range ionTypes {
		// "y" also admits neutral-loss variants such as "y-H2O"
		if strings.HasPrefix(string(ion), string(allowed)) {
			return true
		}
	}
	return false
}

// belowCutoff returns peaks below the intensity cutoff percentage
func belowCutoff(intensities []float64, cutoff float64) IndexSet {
	out := make(IndexSet)
	if len(intensities) == 0 {
		return out
	}

	threshold := (cutoff / 100.0) * floats.Max(intensities)
	for i, intensity := range intensities {
		if intensity < threshold {
			out[i] = struct{}{}
		}
	}
	return out
}

// outsideTopN returns every peak that is not among the N most intense
func outsideTopN(intensities []float64, n int) IndexSet {
	out := make(IndexSet)
	if len(intensities) <= n {
		return out
	}

	order := make([]int, len(intensities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return intensities[order[a]] > intensities[order[b]]
	})

	for _, i := range order[n:] {
		out[i] = struct{}{}
	}
	return out
}

// HideUnmatched returns every position in [0, n) that idx does not match.
func HideUnmatched(n int, idx *peaks.Index) IndexSet {
	out := make(IndexSet)
	for i := 0; i < n; i++ {
		if !idx.Matched(i) {
			out[i] = struct{}{}
		}
	}
	return out
}

// Side selects which member of a peak pair refers to a spectrum.
type Side int

const (
	Query     Side = 0
	Reference Side = 1
)

// HideUnpaired returns every position in [0, n) that appears on side of no pair.
func HideUnpaired(n int, pairs []match.Pair, side Side) IndexSet {
	paired := make(map[int]bool, len(pairs))
	for _, p := range pairs {
		paired[p[side]] = true
	}
	out := make(IndexSet)
	for i := 0; i < n; i++ {
		if !paired[i] {
			out[i] = struct{}{}
		}
	}
	return out
}

// NormalizeIntensities divides intensities by their maximum. The input is
// not modified. When the maximum is not positive the values are copied as-is.
func NormalizeIntensities(intensities []float64) []float64 {
	out := make([]float64, len(intensities))
	copy(out, intensities)
	if len(out) == 0 {
		return out
	}
	if base := floats.Max(out); base > 0 {
		floats.Scale(1/base, out)
	}
	return out
}
