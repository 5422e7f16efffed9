package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
	"github.com/ChrisMcGann/SpecView/pkg/reader/msp"
	"github.com/ChrisMcGann/SpecView/pkg/reader/sptxt"
)

// detectFormat returns the library format from the file extension unless
// one is given.
func detectFormat(path, format string) (string, error) {
	if format == "" {
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".msp":
			format = "msp"
		case ".sptxt":
			format = "sptxt"
		default:
			return "", fmt.Errorf("cannot auto-detect format from extension '%s', please specify --from", ext)
		}
	}

	format = strings.ToLower(format)
	if format != "msp" && format != "sptxt" {
		return "", fmt.Errorf("invalid input format '%s', must be msp or sptxt", format)
	}
	return format, nil
}

// openLibrary opens a spectral library for streaming.
func openLibrary(path, format, modsCSV string) (msp.EntryReader, io.Closer, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("input file does not exist: %s", path)
	}
	format, err := detectFormat(path, format)
	if err != nil {
		return nil, nil, err
	}

	modDB := core.DefaultModDatabase()
	if modsCSV != "" {
		n, err := loadModsCSV(modsCSV, modDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load modification CSV: %w", err)
		}
		logging.Infof("Loaded %d custom modifications", n)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}

	switch format {
	case "sptxt":
		return sptxt.NewReader(f, modDB), f, nil
	default:
		return msp.NewReader(f, modDB), f, nil
	}
}

// findEntry returns the library entry whose name matches selector, or the
// entry at that 0-based index when selector is a number. An empty selector
// takes the first entry.
func findEntry(path, format, modsCSV, selector string) (*msp.Entry, error) {
	r, closer, err := openLibrary(path, format, modsCSV)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	index, indexErr := strconv.Atoi(selector)
	for i := 0; r.Next(); i++ {
		e := r.Entry()
		switch {
		case selector == "":
			return e, nil
		case indexErr == nil && i == index:
			return e, nil
		case e.Name == selector || e.Peptide == selector:
			return e, nil
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	return nil, fmt.Errorf("no entry %q in %s", selector, path)
}

// loadModsCSV reads "Name,Mass" rows into modDB and returns how many were added.
func loadModsCSV(path string, modDB *core.ModDatabase) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	count := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return 0, fmt.Errorf("line %d: expected 2 fields (Name,Mass), got %d", lineNum, len(parts))
		}

		name := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		modDB.Add(name, mass)
		count++
	}

	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading CSV: %w", err)
	}

	return count, nil
}
