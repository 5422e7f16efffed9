// Package annotate matches spectrum peaks against theoretical peptide
// fragments.
package annotate

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/match"
)

// Annotator produces matched-ion records for a spectrum of a peptide.
type Annotator interface {
	Annotate(peptide string, spec *core.Spectrum) ([]core.MatchedIon, error)
}

// DefaultCharges are the fragment charge states considered by NewFragment.
var DefaultCharges = []int{1, 2, 3, 4}

// Fragment annotates b and y fragment ions.
type Fragment struct {
	Series    []core.IonType
	Charges   []int
	Tolerance match.Tolerance
	Mods      *core.ModDatabase
}

// NewFragment returns a b/y annotator for charges 1 to 4.
func NewFragment(tol match.Tolerance) *Fragment {
	return &Fragment{
		Series:    []core.IonType{core.IonB, core.IonY},
		Charges:   DefaultCharges,
		Tolerance: tol,
		Mods:      core.DefaultModDatabase(),
	}
}

type theoretical struct {
	mz         float64
	ion        core.IonType
	charge     int
	fragIndex  int
	aaPosition int
}

// Annotate matches every peak against the fragment table of peptide. A peak
// gets the closest fragment inside the tolerance window, or nothing.
// mz_error is peak m/z minus theoretical m/z.
func (f *Fragment) Annotate(peptide string, spec *core.Spectrum) ([]core.MatchedIon, error) {
	table, err := f.fragments(peptide)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 || spec.Empty() {
		return nil, nil
	}

	var ions []core.MatchedIon
	for i, mz := range spec.MZs {
		best := -1
		bestDiff := math.Inf(1)
		for k, th := range table {
			if !f.Tolerance.Contains(mz, th.mz) {
				continue
			}
			if d := math.Abs(mz - th.mz); d < bestDiff {
				best, bestDiff = k, d
			}
		}
		if best < 0 {
			continue
		}
		th := table[best]
		ions = append(ions, core.MatchedIon{
			PeakIndex:     i,
			PeakMZ:        mz,
			PeakIntensity: spec.Intensities[i],
			TheoMZ:        th.mz,
			MZError:       mz - th.mz,
			Charge:        th.charge,
			IonType:       th.ion,
			FragIndex:     th.fragIndex,
			AAPosition:    th.aaPosition,
		})
	}
	return ions, nil
}

func (f *Fragment) fragments(peptide string) ([]theoretical, error) {
	mods := f.Mods
	if mods == nil {
		mods = core.DefaultModDatabase()
	}
	bare, modList, err := mods.ParseModifiedSequence(strings.TrimSpace(peptide))
	if err != nil {
		return nil, fmt.Errorf("parsing peptide: %w", err)
	}
	seq := core.NormalizeSequence(bare)
	for _, aa := range seq {
		if _, ok := core.AminoAcidMasses[aa]; !ok {
			return nil, fmt.Errorf("unknown amino acid '%c' in %q", aa, peptide)
		}
	}

	residues := core.ResidueMasses(seq)
	if len(residues) < 2 {
		return nil, nil
	}
	for _, m := range modList {
		pos := m.Position
		if pos < 0 {
			pos = 0
		}
		if pos >= len(residues) {
			pos = len(residues) - 1
		}
		residues[pos] += m.Mass
	}

	var (
		table []theoretical
		idx   int
	)
	for _, series := range f.Series {
		for _, charge := range f.Charges {
			for n := 1; n < len(residues); n++ {
				mz, ok := core.FragmentMZ(series, residues, n, charge)
				if !ok {
					continue
				}
				pos := n
				if series == core.IonY {
					pos = len(residues) - n + 1
				}
				table = append(table, theoretical{
					mz:         mz,
					ion:        series,
					charge:     charge,
					fragIndex:  idx,
					aaPosition: pos,
				})
				idx++
			}
		}
	}
	return table, nil
}
