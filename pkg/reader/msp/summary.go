package msp

import (
	"github.com/ChrisMcGann/SpecView/pkg/axis"
)

// Summary aggregates a library.
type Summary struct {
	Entries   int
	Peaks     int
	Annotated int
	MZ        axis.Extent
	Charges   map[int]int
}

// AnnotatedFraction is the share of peaks carrying a matched ion.
func (s Summary) AnnotatedFraction() float64 {
	if s.Peaks == 0 {
		return 0
	}
	return float64(s.Annotated) / float64(s.Peaks)
}

// EntryReader streams library entries.
type EntryReader interface {
	Next() bool
	Entry() *Entry
	Err() error
}

// Summarize consumes r and aggregates every entry.
func Summarize(r EntryReader) (Summary, error) {
	s := Summary{MZ: axis.DefaultExtent, Charges: make(map[int]int)}
	found := false
	for r.Next() {
		e := r.Entry()
		s.Entries++
		s.Peaks += e.Spectrum.Len()
		s.Annotated += len(e.Ions)
		s.Charges[e.Charge]++

		if mz, ok := axis.ExtentOf(e.Spectrum.MZs); ok {
			if !found {
				s.MZ, found = mz, true
			} else {
				s.MZ = s.MZ.Union(mz)
			}
		}
	}
	return s, r.Err()
}
