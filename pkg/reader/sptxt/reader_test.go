package sptxt

import (
	"math"
	"strings"
	"testing"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/reader/msp"
)

const library = `### SpectraST library
### ===
Name: n[230]AAC[160]K/2
LibID: 0
MW: 812.41
PrecursorMZ: 406.2098
Status: Normal
FullName: X.n[230]AAC[160]K.X/2
Comment: Mods=2/-1,A,TMT6plex/2,C,Carbamidomethyl Parent=406.210
NumPeaks: 3
147.1128	1200	y1/0.0009	1/0 0.0
261.1594	300	?	1/0 0.0
351.1430	800	y2-18^2/0.01,b3/0.2	1/0 0.0

Name: GLK/1
Comment: Parent=317.21
NumPeaks: 1
147.1128	100	y1/0.0
`

func TestReadEntries(t *testing.T) {
	r := NewReader(strings.NewReader(library), nil)
	var entries []*msp.Entry
	for r.Next() {
		entries = append(entries, r.Entry())
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	e := entries[0]
	if e.Peptide != "AACK" || e.Charge != 2 {
		t.Errorf("peptide = %q/%d, want AACK/2", e.Peptide, e.Charge)
	}
	if math.Abs(e.PrecursorMZ-406.2098) > 1e-9 {
		t.Errorf("PrecursorMZ = %v", e.PrecursorMZ)
	}

	mods := []struct {
		pos  int
		name string
	}{
		{-1, "TMT6plex"},
		{2, "Carbamidomethyl"},
	}
	if len(e.Modifications) != len(mods) {
		t.Fatalf("Modifications = %+v", e.Modifications)
	}
	for i, want := range mods {
		got := e.Modifications[i]
		if got.Position != want.pos || got.Name != want.name {
			t.Errorf("mod %d = %+v, want %+v", i, got, want)
		}
	}

	if len(e.Ions) != 2 {
		t.Fatalf("got %d ions, want 2", len(e.Ions))
	}
	if e.Ions[0].PeakIndex != 0 || e.Ions[0].Label(len(e.Peptide)) != "y1+" {
		t.Errorf("ion 0 = %+v", e.Ions[0])
	}
	if e.Ions[1].PeakIndex != 2 || e.Ions[1].Charge != 2 || e.Ions[1].IonType != core.IonType("y-18") {
		t.Errorf("ion 1 = %+v", e.Ions[1])
	}
}

func TestParseInlineModifications(t *testing.T) {
	tests := []struct {
		in      string
		seq     string
		nMods   int
		wantErr bool
	}{
		{"PEPTIDE", "PEPTIDE", 0, false},
		{"n[43]PEPTIDE", "PEPTIDE", 1, false},
		{"PEPM[147]C[160]K", "PEPMCK", 2, false},
		{"PEPM[147.035]K", "PEPMK", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			seq, mods, err := parseInlineModifications(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if seq != tt.seq || len(mods) != tt.nMods {
				t.Errorf("parseInlineModifications(%q) = %q, %d mods", tt.in, seq, len(mods))
			}
		})
	}
}

func TestBadName(t *testing.T) {
	r := NewReader(strings.NewReader("Name: PEPTIDE\nNumPeaks: 0\n"), nil)
	if r.Next() {
		t.Fatal("Next() accepted a name without charge")
	}
	if r.Err() == nil {
		t.Error("expected error")
	}
}

func TestSummarize(t *testing.T) {
	s, err := msp.Summarize(NewReader(strings.NewReader(library), nil))
	if err != nil {
		t.Fatal(err)
	}
	if s.Entries != 2 || s.Peaks != 4 || s.Annotated != 3 {
		t.Errorf("Summarize() = %+v", s)
	}
}
