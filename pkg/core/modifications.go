package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Modification represents a peptide modification with position and mass shift.
type Modification struct {
	Mass     float64
	Position int    // 0-based residue index; -1 for N-term, len(seq) for C-term
	Name     string // Modification name (e.g., "Carbamidomethyl", "Oxidation")
}

var modPattern = regexp.MustCompile(`-?\[.+?\]-?`)

// StripModifications removes bracketed modifications from a ProForma-like
// sequence, e.g. "[Acetyl]-PEPT[Phospho]IDE" -> "PEPTIDE".
func StripModifications(sequence string) string {
	return modPattern.ReplaceAllString(sequence, "")
}

// NormalizeSequence folds user-supplied sequences (full-width letters,
// stray whitespace, lower case) into the canonical upper-case form.
func NormalizeSequence(sequence string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(sequence)))
}

// ModDatabase stores modification definitions
type ModDatabase struct {
	mods map[string]float64 // name -> mass shift
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// ParseModifiedSequence splits a sequence with bracketed modifications into
// the bare residues and the modifications. Brackets hold either a name known
// to the database or a signed mass ("[+79.966]"). A bracket before the first
// residue followed by '-' is N-terminal, a '-' before a trailing bracket is
// C-terminal.
func (db *ModDatabase) ParseModifiedSequence(sequence string) (string, []Modification, error) {
	var (
		residues strings.Builder
		mods     []Modification
	)

	s := sequence
	cTerm := false
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, "-["):
			cTerm = residues.Len() > 0
			s = s[1:]
		case s[0] == '-':
			s = s[1:]
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return "", nil, fmt.Errorf("unterminated modification in %q", sequence)
			}
			token := s[1:end]
			s = s[end+1:]

			pos := residues.Len() - 1
			if cTerm {
				pos = residues.Len()
			}

			mass, err := db.resolve(token)
			if err != nil {
				return "", nil, err
			}
			mods = append(mods, Modification{Mass: mass, Position: pos, Name: token})
		default:
			residues.WriteByte(s[0])
			s = s[1:]
		}
	}

	return residues.String(), mods, nil
}

func (db *ModDatabase) resolve(token string) (float64, error) {
	if mass, err := strconv.ParseFloat(token, 64); err == nil {
		return mass, nil
	}
	if mass, ok := db.GetMass(token); ok {
		return mass, nil
	}
	return 0, fmt.Errorf("unknown modification '%s'", token)
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565)
	db.Add("Amidated", -0.984016)
	db.Add("Carbamidomethyl", 57.021464)
	db.Add("Carbamyl", 43.005814)
	db.Add("Deamidated", 0.984016)
	db.Add("Phospho", 79.966331)
	db.Add("Gln->pyro-Glu", -17.026549)
	db.Add("Glu->pyro-Glu", -18.010565)
	db.Add("Methyl", 14.01565)
	db.Add("Oxidation", 15.994915)
	db.Add("Dimethyl", 28.0313)
	db.Add("TMT6plex", 229.162932)
	db.Add("TMTpro", 304.207146)
	db.Add("iTRAQ4plex", 144.102063)

	return db
}
