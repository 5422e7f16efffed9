// Package msp provides a streaming reader for MSP format spectral libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
)

// Entry is one library spectrum with the matched ions read from its peak
// annotations.
type Entry struct {
	Name          string
	Peptide       string
	Charge        int
	PrecursorMZ   float64
	Modifications []core.Modification
	Spectrum      *core.Spectrum
	Ions          []core.MatchedIon
}

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner      *bufio.Scanner
	modDB        *core.ModDatabase
	lineNum      int
	currentEntry *Entry
	err          error
}

// NewReader creates a new MSP reader
func NewReader(r io.Reader, modDB *core.ModDatabase) *Reader {
	if modDB == nil {
		modDB = core.DefaultModDatabase()
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{
		scanner: s,
		modDB:   modDB,
	}
}

// Next advances to the next entry. Returns false when no more entries or error.
func (r *Reader) Next() bool {
	r.currentEntry = nil

	entry, err := r.readEntry()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentEntry = entry
	return true
}

// Entry returns the current entry
func (r *Reader) Entry() *Entry {
	return r.currentEntry
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readEntry reads a single library entry from the MSP file
func (r *Reader) readEntry() (*Entry, error) {
	entry := &Entry{Spectrum: &core.Spectrum{}}
	var annotations []string

	var numPeaks int
	inPeaks := false
	peaksRead := 0

	finish := func() *Entry {
		entry.Ions = MatchedIons(entry.Peptide, entry.Spectrum, annotations)
		return entry
	}

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines between entries
		if line == "" {
			if inPeaks {
				return finish(), nil
			}
			continue
		}

		if !inPeaks {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)

			// Parse header fields
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "name":
				if err := r.parseName(entry, value); err != nil {
					return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
				}
			case "comment":
				r.parseComment(entry, value)
			case "precursormz":
				if mz, err := strconv.ParseFloat(value, 64); err == nil {
					entry.PrecursorMZ = mz
				}
			case "num peaks", "numpeaks":
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
				}
				numPeaks = n
				inPeaks = true
				if numPeaks == 0 {
					return finish(), nil
				}
			}
		} else {
			// Parse peak line
			mz, intensity, annotation, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			entry.Spectrum.MZs = append(entry.Spectrum.MZs, mz)
			entry.Spectrum.Intensities = append(entry.Spectrum.Intensities, intensity)
			annotations = append(annotations, annotation)
			peaksRead++

			// Check if we've read all peaks
			if peaksRead >= numPeaks {
				return finish(), nil
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// If we have a partially read entry, return it
	if entry.Name != "" {
		if inPeaks && peaksRead < numPeaks {
			logging.Warnf("entry %s: expected %d peaks, found %d", entry.Name, numPeaks, peaksRead)
		}
		return finish(), nil
	}

	return nil, io.EOF
}

// parseName extracts sequence and charge from Name field (format: "SEQUENCE/CHARGE")
func (r *Reader) parseName(entry *Entry, name string) error {
	entry.Name = name
	seq, chargeStr, ok := strings.Cut(name, "/")
	if !ok {
		entry.Peptide = name
		return nil
	}

	entry.Peptide = seq
	charge, err := strconv.Atoi(chargeStr)
	if err != nil {
		return fmt.Errorf("invalid charge in name '%s': %w", name, err)
	}
	entry.Charge = charge
	return nil
}

// parseComment extracts metadata from Comment field
func (r *Reader) parseComment(entry *Entry, comment string) {
	// Comment format: key=value key=value...
	// Example: Parent=414.71 Collision_energy=35 Mods=1/4,C,Carbamidomethyl iRT=61.01
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}

		entry.Spectrum.Attributes = append(entry.Spectrum.Attributes, core.Attribute{Name: key, Value: value})

		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil && entry.PrecursorMZ == 0 {
				entry.PrecursorMZ = mz
			}
		case "Mods":
			r.parseMods(entry, value)
		}
	}
}

// parseMods parses modification information from Mods field
func (r *Reader) parseMods(entry *Entry, modsStr string) {
	// Format: count/position,AA,ModName/position,AA,ModName...
	count, rest, ok := strings.Cut(modsStr, "/")
	if !ok || count == "0" {
		return
	}
	for _, mod := range strings.Split(rest, "/") {
		parts := strings.Split(mod, ",")
		if len(parts) < 3 {
			continue
		}
		pos, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		modName := parts[2]
		mass, ok := r.modDB.GetMass(modName)
		if !ok {
			logging.Debugf("unknown modification %q in %s", modName, entry.Name)
			continue
		}
		entry.Modifications = append(entry.Modifications, core.Modification{
			Mass:     mass,
			Position: pos,
			Name:     modName,
		})
	}
}

// parsePeak parses a single peak line (format: "mz\tintensity\t\"annotation\"")
func parsePeak(line string) (mz, intensity float64, annotation string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, "", fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, "", fmt.Errorf("invalid intensity value: %w", err)
	}

	// Annotation is the rest of the line, may be quoted
	if len(fields) >= 3 {
		annotation = strings.Trim(strings.Join(fields[2:], " "), "\"")
	}
	return mz, intensity, annotation, nil
}

// Pattern: (ion type)(number)[-loss][^(charge)][/error[ppm]]
var ionPattern = regexp.MustCompile(`^([a-z])(\d+)(-[A-Za-z0-9]+)?(?:\^(\d+))?(?:/(-?[\d.]+(?:[eE]-?\d+)?)(ppm)?)?`)

// IonAnnotation is a parsed peak annotation such as "y3^2/0.01".
type IonAnnotation struct {
	IonType core.IonType
	Number  int
	Charge  int
	Error   float64 // observed minus theoretical, in Da
}

// ParseIonAnnotation parses annotations like "y3", "b2^2/0.01" or
// "y5-H2O/-1.2ppm". Only the first of several comma-separated
// interpretations is used.
func ParseIonAnnotation(annotation string, mz float64) (IonAnnotation, error) {
	first, _, _ := strings.Cut(annotation, ",")
	m := ionPattern.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return IonAnnotation{}, fmt.Errorf("invalid ion annotation format: %s", annotation)
	}

	a := IonAnnotation{
		IonType: core.IonType(m[1] + m[3]),
		Charge:  1, // default charge
	}
	a.Number, _ = strconv.Atoi(m[2])
	if m[4] != "" {
		a.Charge, _ = strconv.Atoi(m[4])
	}
	if m[5] != "" {
		e, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			return IonAnnotation{}, fmt.Errorf("invalid error in annotation %s: %w", annotation, err)
		}
		if m[6] != "" {
			e = e * mz / 1e6
		}
		a.Error = e
	}
	return a, nil
}

// MatchedIons turns per-peak annotations into matched ions. annotations[i]
// belongs to peak i. Peaks without a usable annotation stay unmatched.
func MatchedIons(peptide string, spec *core.Spectrum, annotations []string) []core.MatchedIon {
	seqLen := len(core.StripModifications(peptide))
	var ions []core.MatchedIon
	for i, ann := range annotations {
		if ann == "" || ann == "?" || i >= spec.Len() {
			continue
		}
		mz := spec.MZs[i]
		a, err := ParseIonAnnotation(ann, mz)
		if err != nil {
			continue
		}

		pos := a.Number
		if strings.HasPrefix(string(a.IonType), string(core.IonY)) && seqLen > 0 {
			pos = seqLen - a.Number + 1
		}
		ions = append(ions, core.MatchedIon{
			PeakIndex:     i,
			PeakMZ:        mz,
			PeakIntensity: spec.Intensities[i],
			TheoMZ:        mz - a.Error,
			MZError:       a.Error,
			Charge:        a.Charge,
			IonType:       a.IonType,
			FragIndex:     a.Number,
			AAPosition:    pos,
		})
	}
	return ions
}
