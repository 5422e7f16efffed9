package cmd

import (
	"context"
	"fmt"

	"github.com/ChrisMcGann/SpecView/pkg/logging"
	"github.com/ChrisMcGann/SpecView/pkg/proxi"
	"github.com/ChrisMcGann/SpecView/pkg/store/sqlite"
	"github.com/ChrisMcGann/SpecView/pkg/view"
)

// newFetcher builds a PROXI client from the configuration. storePath
// overrides the configured store; an empty path disables it.
func newFetcher(sourceNames []string, storePath string) (*proxi.Client, func(), error) {
	if len(sourceNames) == 0 {
		sourceNames = cfg.Proxi.Sources
	}
	sources, err := proxi.SourcesByName(sourceNames)
	if err != nil {
		return nil, nil, err
	}

	opts := []proxi.Option{proxi.WithMaxBody(cfg.ProxiMaxBody())}
	cleanup := func() {}
	if storePath != "" {
		store, err := sqlite.Open(storePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open spectrum store: %w", err)
		}
		logging.Debugf("using spectrum store %s", store.Path())
		opts = append(opts, proxi.WithStore(store))
		cleanup = func() { store.Close() }
	}

	client, err := proxi.NewClient(sources, cfg.Cache.SpectraEntries, cfg.ProxiTimeout(), opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

// spectrumSource names where one side of a view comes from.
type spectrumSource struct {
	file    string
	format  string
	entry   string
	usi     string
	peptide string
}

func (s spectrumSource) empty() bool {
	return s.file == "" && s.usi == ""
}

// load reads the spectrum from a library file or retrieves it by USI.
func (s spectrumSource) load(ctx context.Context, mods string, fetch func() (*proxi.Client, error)) (view.Input, error) {
	var in view.Input
	switch {
	case s.file != "":
		e, err := findEntry(s.file, s.format, mods, s.entry)
		if err != nil {
			return in, err
		}
		in = view.Input{Spectrum: e.Spectrum, Ions: e.Ions, Peptide: e.Peptide}
	case s.usi != "":
		client, err := fetch()
		if err != nil {
			return in, err
		}
		spec, err := client.Fetch(ctx, s.usi)
		if err != nil {
			return in, err
		}
		in.Spectrum = spec
	default:
		return in, fmt.Errorf("either a library file or a USI is required")
	}

	if s.peptide != "" {
		in.Peptide = s.peptide
		in.Ions = nil
	}
	return in, nil
}
