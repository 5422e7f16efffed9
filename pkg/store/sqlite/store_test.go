package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "spectra.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name string
		usi  string
		spec *core.Spectrum
	}{
		{
			name: "with attributes",
			usi:  "mzspec:PXD000001:run:scan:1",
			spec: &core.Spectrum{
				MZs:         []float64{101.0712, 200.5, 1503.77},
				Intensities: []float64{12, 0, 3.5e6},
				Attributes:  []core.Attribute{{Accession: "MS:1000041", Name: "charge state", Value: "3"}},
			},
		},
		{
			name: "empty",
			usi:  "mzspec:PXD000001:run:scan:2",
			spec: &core.Spectrum{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Put(tt.usi, tt.spec); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, ok, err := s.Get(tt.usi)
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v", ok, err)
			}
			if got.Len() != tt.spec.Len() {
				t.Fatalf("Len() = %d, want %d", got.Len(), tt.spec.Len())
			}
			for i := range tt.spec.MZs {
				if got.MZs[i] != tt.spec.MZs[i] || got.Intensities[i] != tt.spec.Intensities[i] {
					t.Errorf("peak %d = (%v, %v), want (%v, %v)",
						i, got.MZs[i], got.Intensities[i], tt.spec.MZs[i], tt.spec.Intensities[i])
				}
			}
			if len(got.Attributes) != len(tt.spec.Attributes) {
				t.Errorf("attributes = %v, want %v", got.Attributes, tt.spec.Attributes)
			}
		})
	}

	if n, err := s.Count(); err != nil || n != 2 {
		t.Errorf("Count() = %d, %v, want 2", n, err)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)
	usi := "mzspec:PXD000001:run:scan:7"

	s.Put(usi, &core.Spectrum{MZs: []float64{1}, Intensities: []float64{1}})
	if err := s.Put(usi, &core.Spectrum{MZs: []float64{2, 3}, Intensities: []float64{4, 5}}); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.Get(usi)
	if got.Len() != 2 || got.MZs[0] != 2 {
		t.Errorf("Get() = %+v, want the second spectrum", got)
	}
	usis, err := s.USIs()
	if err != nil || len(usis) != 1 || usis[0] != usi {
		t.Errorf("USIs() = %v, %v", usis, err)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, ok, err := s.Get("mzspec:none"); ok || err != nil {
		t.Errorf("Get(missing) = %v, %v", ok, err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Put("a", &core.Spectrum{MZs: []float64{1}, Intensities: []float64{2}})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok, _ := s.Get("a"); !ok {
		t.Error("spectrum lost after reopening")
	}
	var headers int
	s.db.QueryRow(`SELECT COUNT(*) FROM HeaderTable`).Scan(&headers)
	if headers != 1 {
		t.Errorf("HeaderTable rows = %d, want 1", headers)
	}
}
