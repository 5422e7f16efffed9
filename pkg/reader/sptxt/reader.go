// Package sptxt reads SpectraST (.sptxt) spectral libraries into the same
// entries the MSP reader produces.
package sptxt

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/reader/msp"
)

// Reader streams library entries one block at a time.
type Reader struct {
	sc    *bufio.Scanner
	mods  *core.ModDatabase
	line  int
	entry *msp.Entry
	err   error
}

// NewReader wraps r. A nil mods uses the default modification table.
func NewReader(r io.Reader, mods *core.ModDatabase) *Reader {
	if mods == nil {
		mods = core.DefaultModDatabase()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{sc: sc, mods: mods}
}

// Next reads the next entry. It returns false at the end of input or on the
// first error, which Err then reports.
func (r *Reader) Next() bool {
	r.entry = nil
	if r.err != nil {
		return false
	}

	b, err := r.nextBlock()
	if err == nil && b == nil {
		return false
	}
	if err == nil {
		r.entry, err = r.build(b)
	}
	if err != nil {
		r.err = err
		return false
	}
	return true
}

// Entry returns the entry read by the last successful Next.
func (r *Reader) Entry() *msp.Entry { return r.entry }

// Err returns the error that stopped reading, if any.
func (r *Reader) Err() error { return r.err }

type header struct {
	line       int
	key, value string
}

// block is the raw text of one entry.
type block struct {
	headers []header
	peaks   []header // key holds the whole peak line
}

// nextBlock collects header lines up to NumPeaks and then that many peak
// lines. It returns nil, nil when the input holds no further entry.
func (r *Reader) nextBlock() (*block, error) {
	var b block
	want := -1
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "###") {
			continue
		}

		if want < 0 {
			key, value, ok := strings.Cut(text, ": ")
			if !ok {
				continue
			}
			b.headers = append(b.headers, header{line: r.line, key: key, value: value})
			if key != "NumPeaks" {
				continue
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid peak count %q", r.line, value)
			}
			want = n
		} else {
			b.peaks = append(b.peaks, header{line: r.line, key: text})
		}

		if want >= 0 && len(b.peaks) >= want {
			return &b, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	if len(b.headers) == 0 {
		return nil, nil
	}
	// Truncated final entry.
	return &b, nil
}

func (r *Reader) build(b *block) (*msp.Entry, error) {
	e := &msp.Entry{Spectrum: &core.Spectrum{}}
	var modsField string

	for _, h := range b.headers {
		switch h.key {
		case "Name":
			if err := setName(e, h.value); err != nil {
				return nil, fmt.Errorf("line %d: %w", h.line, err)
			}
		case "PrecursorMZ":
			if mz, err := strconv.ParseFloat(h.value, 64); err == nil {
				e.PrecursorMZ = mz
			}
		case "Comment":
			modsField = readComment(e, h.value)
		}
	}
	if e.Name == "" {
		return nil, fmt.Errorf("line %d: entry without Name", b.headers[0].line)
	}
	if modsField != "" {
		r.nameMods(e, modsField)
	}

	annotations := make([]string, 0, len(b.peaks))
	for _, p := range b.peaks {
		fields := strings.Fields(p.key)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: peak needs m/z and intensity", p.line)
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad m/z %q", p.line, fields[0])
		}
		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad intensity %q", p.line, fields[1])
		}
		e.Spectrum.MZs = append(e.Spectrum.MZs, mz)
		e.Spectrum.Intensities = append(e.Spectrum.Intensities, intensity)
		if len(fields) > 2 {
			annotations = append(annotations, fields[2])
		} else {
			annotations = append(annotations, "")
		}
	}

	e.Ions = msp.MatchedIons(e.Peptide, e.Spectrum, annotations)
	return e, nil
}

// setName parses "n[230]PEPC[160]K/2".
func setName(e *msp.Entry, name string) error {
	raw, z, ok := strings.Cut(name, "/")
	if !ok {
		return fmt.Errorf("name %q is not SEQUENCE/CHARGE", name)
	}
	charge, err := strconv.Atoi(z)
	if err != nil {
		return fmt.Errorf("name %q: bad charge: %w", name, err)
	}
	seq, mods, err := parseInlineModifications(raw)
	if err != nil {
		return fmt.Errorf("name %q: %w", name, err)
	}
	e.Name, e.Charge, e.Peptide, e.Modifications = name, charge, seq, mods
	return nil
}

// inlineMod matches an optional residue (or "n") followed by a bracketed mass.
var inlineMod = regexp.MustCompile(`([a-zA-Z]?)\[(\d+(?:\.\d+)?)\]`)

// parseInlineModifications strips bracketed masses from raw. Positions are
// 0-based residue indices, -1 for the N-terminus; each modification is named
// by its mass until the Mods comment names it.
func parseInlineModifications(raw string) (string, []core.Modification, error) {
	var (
		seq  strings.Builder
		mods []core.Modification
		last int
	)
	for _, m := range inlineMod.FindAllStringSubmatchIndex(raw, -1) {
		seq.WriteString(raw[last:m[0]])
		residue, massText := raw[m[2]:m[3]], raw[m[4]:m[5]]
		mass, err := strconv.ParseFloat(massText, 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad modification mass %q", massText)
		}

		pos := -1
		if residue != "" && residue != "n" {
			seq.WriteString(residue)
			pos = seq.Len() - 1
		}
		mods = append(mods, core.Modification{Name: massText, Mass: mass, Position: pos})
		last = m[1]
	}
	seq.WriteString(raw[last:])
	return seq.String(), mods, nil
}

// readComment stores every key=value pair as a spectrum attribute and
// returns the Mods value.
func readComment(e *msp.Entry, comment string) (mods string) {
	for _, field := range strings.Fields(comment) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		e.Spectrum.Attributes = append(e.Spectrum.Attributes, core.Attribute{Name: key, Value: value})
		switch key {
		case "Parent":
			if mz, err := strconv.ParseFloat(value, 64); err == nil && e.PrecursorMZ == 0 {
				e.PrecursorMZ = mz
			}
		case "Mods":
			mods = value
		}
	}
	return mods
}

// nameMods applies "count/pos,residue,name/..." to the inline
// modifications at matching positions. Known names take their exact mass.
func (r *Reader) nameMods(e *msp.Entry, field string) {
	_, rest, ok := strings.Cut(field, "/")
	if !ok {
		return
	}
	for _, item := range strings.Split(rest, "/") {
		parts := strings.SplitN(item, ",", 3)
		if len(parts) < 3 {
			continue
		}
		pos, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		for i := range e.Modifications {
			m := &e.Modifications[i]
			if m.Position != pos {
				continue
			}
			m.Name = parts[2]
			if mass, ok := r.mods.GetMass(m.Name); ok {
				m.Mass = mass
			}
		}
	}
}
