package match

import (
	"math"
	"testing"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

func TestTransform(t *testing.T) {
	tests := []struct {
		name  string
		unit  ErrorType
		mz    float64
		err   float64
		want  float64
		label string
	}{
		{"ppm", PPM, 500, 0.001, 2, "Error (ppm)"},
		{"da", Da, 500, 0.001, 0.001, "Error (Da)"},
		{"mmu", MMU, 500, 0.5, 1, "Error (mmu)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.unit.Transform(tt.mz, tt.err); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Transform() = %v, want %v", got, tt.want)
			}
			if got := tt.unit.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestParseErrorType(t *testing.T) {
	if got, err := ParseErrorType(" PPM "); err != nil || got != PPM {
		t.Errorf("ParseErrorType(PPM) = %v, %v", got, err)
	}
	if _, err := ParseErrorType("furlongs"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestErrors(t *testing.T) {
	ions := []core.MatchedIon{
		{PeakMZ: 1000, MZError: 0.01},
		{PeakMZ: 250, MZError: -0.005},
	}
	got := Errors(ions, PPM)
	want := []float64{10, -20}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Errors()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestToleranceWindow(t *testing.T) {
	tests := []struct {
		name   string
		tol    Tolerance
		ref    float64
		lo, hi float64
	}{
		{"da", Tolerance{Lo: 0.02, Hi: 0.02, Type: Da}, 500, 499.98, 500.02},
		{"ppm", Tolerance{Lo: 10, Hi: 20, Type: PPM}, 1000, 999.99, 1000.02},
		{"mmu", Tolerance{Lo: 5, Hi: 5, Type: MMU}, 300, 299.995, 300.005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.tol.Window(tt.ref)
			if math.Abs(lo-tt.lo) > 1e-9 || math.Abs(hi-tt.hi) > 1e-9 {
				t.Errorf("Window() = [%v,%v], want [%v,%v]", lo, hi, tt.lo, tt.hi)
			}
			if !tt.tol.Contains(tt.ref, tt.ref) {
				t.Error("window must contain its reference")
			}
		})
	}
}

func TestMatchPeaks(t *testing.T) {
	tol := Tolerance{Lo: 0.05, Hi: 0.05, Type: Da}

	tests := []struct {
		name      string
		query     core.Spectrum
		reference core.Spectrum
		want      []Pair
	}{
		{
			name:      "one to one",
			query:     core.Spectrum{MZs: []float64{100, 200, 300}, Intensities: []float64{1, 1, 1}},
			reference: core.Spectrum{MZs: []float64{100.01, 250, 299.98}, Intensities: []float64{1, 1, 1}},
			want:      []Pair{{0, 0}, {2, 2}},
		},
		{
			name:      "most intense partner wins",
			query:     core.Spectrum{MZs: []float64{200}, Intensities: []float64{5}},
			reference: core.Spectrum{MZs: []float64{199.98, 200.02}, Intensities: []float64{1, 9}},
			want:      []Pair{{0, 1}},
		},
		{
			name:      "conflict keeps larger intensity sum",
			query:     core.Spectrum{MZs: []float64{200, 200.03}, Intensities: []float64{2, 8}},
			reference: core.Spectrum{MZs: []float64{200.01}, Intensities: []float64{4}},
			want:      []Pair{{1, 0}},
		},
		{
			name:      "nothing in range",
			query:     core.Spectrum{MZs: []float64{100}, Intensities: []float64{1}},
			reference: core.Spectrum{MZs: []float64{500}, Intensities: []float64{1}},
			want:      nil,
		},
		{
			name:      "empty reference",
			query:     core.Spectrum{MZs: []float64{100}, Intensities: []float64{1}},
			reference: core.Spectrum{},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchPeaks(&tt.query, &tt.reference, tol)
			if len(got) != len(tt.want) {
				t.Fatalf("MatchPeaks() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("MatchPeaks() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
