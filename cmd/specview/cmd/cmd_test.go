package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

func TestParseGesture(t *testing.T) {
	tests := []struct {
		in      string
		target  string
		dx, x   float64
		ctrl    bool
		wantErr bool
	}{
		{"primary:-300:0:true:450:120", "primary", -300, 450, true, false},
		{"mirror:0:25:false:10:10", "mirror", 0, 10, false, false},
		{"primary:1:2:true:3", "", 0, 0, false, true},
		{"primary:a:2:true:3:4", "", 0, 0, false, true},
		{"primary:1:2:maybe:3:4", "", 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, err := parseGesture(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if string(g.target) != tt.target || g.event.DeltaX != tt.dx || g.event.X != tt.x || g.event.Ctrl != tt.ctrl {
				t.Errorf("parseGesture(%q) = %+v", tt.in, g)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path, format string
		want         string
		wantErr      bool
	}{
		{"lib.msp", "", "msp", false},
		{"LIB.SPTXT", "", "sptxt", false},
		{"lib.txt", "msp", "msp", false},
		{"lib.blib", "", "", true},
		{"lib.msp", "mgf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.format, func(t *testing.T) {
			got, err := detectFormat(tt.path, tt.format)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("detectFormat() = %q, %v", got, err)
			}
		})
	}
}

func TestLoadModsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mods.csv")
	os.WriteFile(path, []byte("Name,Mass\nLabel13C6,6.020129\n\nMyMod, 42.5\n"), 0644)

	db := core.NewModDatabase()
	n, err := loadModsCSV(path, db)
	if err != nil || n != 2 {
		t.Fatalf("loadModsCSV() = %d, %v", n, err)
	}
	if m, ok := db.GetMass("MyMod"); !ok || m != 42.5 {
		t.Errorf("MyMod = %v, %v", m, ok)
	}

	os.WriteFile(path, []byte("Name,Mass\nBroken\n"), 0644)
	if _, err := loadModsCSV(path, db); err == nil {
		t.Error("expected error for a row without mass")
	}
}

func TestFindEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.msp")
	os.WriteFile(path, []byte(`Name: AAK/1
Num peaks: 1
147.11	10	"y1/0.0"

Name: GLK/2
Num peaks: 2
147.11	10	"y1/0.0"
187.11	5
`), 0644)

	tests := []struct {
		selector string
		want     string
		wantErr  bool
	}{
		{"", "AAK", false},
		{"1", "GLK", false},
		{"GLK/2", "GLK", false},
		{"GLK", "GLK", false},
		{"PEPTIDE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			e, err := findEntry(path, "", "", tt.selector)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && e.Peptide != tt.want {
				t.Errorf("findEntry(%q) = %s", tt.selector, e.Peptide)
			}
		})
	}
}
