package core

import (
	"errors"
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				MZs:         []float64{100.0, 200.0},
				Intensities: []float64{1000.0, 2000.0},
			},
			wantErr: false,
		},
		{
			name:    "empty spectrum",
			spec:    &Spectrum{},
			wantErr: false,
		},
		{
			name: "length mismatch",
			spec: &Spectrum{
				MZs:         []float64{100.0, 200.0},
				Intensities: []float64{1000.0},
			},
			wantErr: true,
		},
		{
			name: "negative intensity",
			spec: &Spectrum{
				MZs:         []float64{100.0},
				Intensities: []float64{-1},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				MZs:         []float64{math.NaN()},
				Intensities: []float64{1000.0},
			},
			wantErr: true,
		},
		{
			name: "infinite intensity",
			spec: &Spectrum{
				MZs:         []float64{100},
				Intensities: []float64{math.Inf(1)},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected *ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestSpectrumAttribute(t *testing.T) {
	spec := &Spectrum{
		Attributes: []Attribute{
			{Accession: "MS:1000041", Name: "charge state", Value: "2"},
		},
	}

	if v, ok := spec.Attribute("charge state"); !ok || v != "2" {
		t.Errorf("Attribute(name) = %q, %v", v, ok)
	}
	if v, ok := spec.Attribute("MS:1000041"); !ok || v != "2" {
		t.Errorf("Attribute(accession) = %q, %v", v, ok)
	}
	if _, ok := spec.Attribute("missing"); ok {
		t.Error("expected missing attribute")
	}
}

func TestMatchedIonLabel(t *testing.T) {
	tests := []struct {
		name   string
		ion    MatchedIon
		seqLen int
		want   string
	}{
		{"b ion singly charged", MatchedIon{IonType: IonB, AAPosition: 2, Charge: 1}, 7, "b2+"},
		{"y ion reversed", MatchedIon{IonType: IonY, AAPosition: 5, Charge: 2}, 7, "y3++"},
		{"y ion without sequence", MatchedIon{IonType: IonY, AAPosition: 5, Charge: 1}, 0, "y5+"},
		{"other series", MatchedIon{IonType: "a-H2O", AAPosition: 4, Charge: 1}, 7, "a-H2O4+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ion.Label(tt.seqLen); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripModifications(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PEPTIDE", "PEPTIDE"},
		{"PEPT[Phospho]IDE", "PEPTIDE"},
		{"[Acetyl]-PEPTIDE", "PEPTIDE"},
		{"PEPTIDE-[Amidated]", "PEPTIDE"},
		{"M[+15.995]PEPTIDE", "MPEPTIDE"},
	}

	for _, tt := range tests {
		if got := StripModifications(tt.in); got != tt.want {
			t.Errorf("StripModifications(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSequence(t *testing.T) {
	if got := NormalizeSequence("  ｐｅｐｔｉｄｅ "); got != "PEPTIDE" {
		t.Errorf("NormalizeSequence() = %q", got)
	}
}

func TestParseModifiedSequence(t *testing.T) {
	db := DefaultModDatabase()

	tests := []struct {
		name     string
		in       string
		wantSeq  string
		wantMods []Modification
		wantErr  bool
	}{
		{
			name:    "plain",
			in:      "PEPTIDE",
			wantSeq: "PEPTIDE",
		},
		{
			name:     "named residue modification",
			in:       "PEPT[Phospho]IDE",
			wantSeq:  "PEPTIDE",
			wantMods: []Modification{{Mass: 79.966331, Position: 3, Name: "Phospho"}},
		},
		{
			name:     "mass residue modification",
			in:       "M[+15.994915]PEPTIDE",
			wantSeq:  "MPEPTIDE",
			wantMods: []Modification{{Mass: 15.994915, Position: 0, Name: "+15.994915"}},
		},
		{
			name:     "n-terminal",
			in:       "[Acetyl]-PEPTIDE",
			wantSeq:  "PEPTIDE",
			wantMods: []Modification{{Mass: 42.010565, Position: -1, Name: "Acetyl"}},
		},
		{
			name:     "c-terminal",
			in:       "PEPTIDE-[Amidated]",
			wantSeq:  "PEPTIDE",
			wantMods: []Modification{{Mass: -0.984016, Position: 7, Name: "Amidated"}},
		},
		{
			name:    "unknown name",
			in:      "PEP[Nope]TIDE",
			wantErr: true,
		},
		{
			name:    "unterminated",
			in:      "PEP[Phospho",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, mods, err := db.ParseModifiedSequence(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModifiedSequence() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if seq != tt.wantSeq {
				t.Errorf("sequence = %q, want %q", seq, tt.wantSeq)
			}
			if len(mods) != len(tt.wantMods) {
				t.Fatalf("got %d mods, want %d", len(mods), len(tt.wantMods))
			}
			for i, m := range mods {
				w := tt.wantMods[i]
				if m.Position != w.Position || m.Name != w.Name || math.Abs(m.Mass-w.Mass) > 1e-9 {
					t.Errorf("mod %d = %+v, want %+v", i, m, w)
				}
			}
		})
	}
}
