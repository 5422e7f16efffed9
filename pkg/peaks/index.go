// Package peaks indexes matched ions by peak position and decides how each
// peak is drawn.
package peaks

import (
	"sort"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

// Ion series colours.
var (
	ColorB       = drawing.ColorFromHex("0000ff")
	ColorY       = drawing.ColorFromHex("ff0000")
	ColorDefault = drawing.ColorFromHex("808080")
)

var ionColors = map[core.IonType]drawing.Color{
	core.IonB: ColorB,
	core.IonY: ColorY,
}

// ColorFor returns the colour of an ion series. ok is false for series
// without a colour; those peaks are drawn in ColorDefault without text.
func ColorFor(ion core.IonType) (c drawing.Color, ok bool) {
	c, ok = ionColors[ion]
	if !ok {
		return ColorDefault, false
	}
	return c, true
}

// DuplicateFunc is called when a later matched ion replaces an earlier one
// for the same peak.
type DuplicateFunc func(prev, next core.MatchedIon)

// Index maps a peak's position in its spectrum to the ion matched to it.
// It is read-only once built.
type Index struct {
	ions       map[int]core.MatchedIon
	duplicates int
	skipped    int
}

// Build indexes ions in a single pass. A later entry for the same peak
// replaces the earlier one; each replacement is counted and reported to
// onDuplicate when it is non-nil. Entries with a negative peak index are
// skipped and their peak stays unmatched.
func Build(ions []core.MatchedIon, onDuplicate DuplicateFunc) *Index {
	x := &Index{ions: make(map[int]core.MatchedIon, len(ions))}
	for _, ion := range ions {
		if ion.PeakIndex < 0 {
			x.skipped++
			continue
		}
		if prev, ok := x.ions[ion.PeakIndex]; ok {
			x.duplicates++
			if onDuplicate != nil {
				onDuplicate(prev, ion)
			}
		}
		x.ions[ion.PeakIndex] = ion
	}
	return x
}

// Get returns the ion matched to peak i.
func (x *Index) Get(i int) (core.MatchedIon, bool) {
	if x == nil {
		return core.MatchedIon{}, false
	}
	ion, ok := x.ions[i]
	return ion, ok
}

// Matched reports whether peak i has a matched ion.
func (x *Index) Matched(i int) bool {
	_, ok := x.Get(i)
	return ok
}

// Len returns the number of indexed peaks.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.ions)
}

// Keys returns the indexed peak positions in ascending order.
func (x *Index) Keys() []int {
	if x == nil {
		return nil
	}
	keys := make([]int, 0, len(x.ions))
	for k := range x.ions {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Duplicates returns how many entries were overwritten during Build.
func (x *Index) Duplicates() int {
	if x == nil {
		return 0
	}
	return x.duplicates
}

// Skipped returns how many entries were ignored as malformed.
func (x *Index) Skipped() int {
	if x == nil {
		return 0
	}
	return x.skipped
}

// Style is how a single peak is drawn.
type Style struct {
	Color   drawing.Color
	Label   string // empty when no annotation text is shown
	Matched bool
}

// StyleFor returns the style of peak i. seqLen is the length of the
// unmodified peptide, used to number y ions.
func (x *Index) StyleFor(i, seqLen int) Style {
	ion, ok := x.Get(i)
	if !ok {
		return Style{Color: ColorDefault}
	}
	c, known := ColorFor(ion.IonType)
	s := Style{Color: c, Matched: true}
	if known {
		s.Label = ion.Label(seqLen)
	}
	return s
}
