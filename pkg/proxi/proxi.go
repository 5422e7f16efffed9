// Package proxi retrieves spectra by Universal Spectrum Identifier from
// PROXI-compatible repositories.
package proxi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
)

// Source is a PROXI spectra endpoint.
type Source struct {
	Name string
	URL  string
}

var (
	ProteomeCentral = Source{"ProteomeCentral", "https://proteomecentral.proteomexchange.org/api/proxi/v0.1/spectra"}
	PRIDE           = Source{"PRIDE", "https://www.ebi.ac.uk/pride/proxi/archive/v0.1/spectra"}
	PeptideAtlas    = Source{"PeptideAtlas", "https://peptideatlas.org/api/proxi/v0.1/spectra"}
	MassIVE         = Source{"MassIVE", "https://massive.ucsd.edu/ProteoSAFe/proxi/v0.1/spectra"}
	JPOST           = Source{"jPOST", "https://repository.jpostdb.org/proxi/spectra"}
)

// DefaultSources returns the sources in default priority order.
func DefaultSources() []Source {
	return []Source{ProteomeCentral, PRIDE, PeptideAtlas, MassIVE, JPOST}
}

// DefaultSourceNames returns the names of DefaultSources.
func DefaultSourceNames() []string {
	var names []string
	for _, s := range DefaultSources() {
		names = append(names, s.Name)
	}
	return names
}

// SourceByName looks a known source up, ignoring case.
func SourceByName(name string) (Source, bool) {
	for _, s := range DefaultSources() {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Source{}, false
}

// SourcesByName resolves names into sources, keeping their order.
func SourcesByName(names []string) ([]Source, error) {
	out := make([]Source, 0, len(names))
	for _, n := range names {
		s, ok := SourceByName(n)
		if !ok {
			return nil, fmt.Errorf("unknown PROXI source %q", n)
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchError describes a failed retrieval from one source.
type FetchError struct {
	USI    string
	Source string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s from %s: HTTP %d: %v", e.USI, e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("fetching %s from %s: %v", e.USI, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AllSourcesError is returned when no source produced the spectrum.
type AllSourcesError struct {
	USI    string
	Errors []error
}

func (e *AllSourcesError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("no source returned %s: %s", e.USI, strings.Join(msgs, "; "))
}

func (e *AllSourcesError) Unwrap() []error { return e.Errors }

// Store persists spectra between runs.
type Store interface {
	Get(usi string) (*core.Spectrum, bool, error)
	Put(usi string, spec *core.Spectrum) error
}

// DefaultMaxBody bounds a single PROXI response.
const DefaultMaxBody int64 = 32 << 20

// ErrBodyTooLarge is returned when a response exceeds the body limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Client fetches spectra, caching them in memory and optionally in a Store.
type Client struct {
	http    *http.Client
	sources []Source
	cache   *lru.Cache[string, *core.Spectrum]
	store   Store
	maxBody int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMaxBody caps the bytes read from one response. Non-positive values
// keep DefaultMaxBody.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithStore adds a persistent second-level cache.
func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

// NewClient returns a client querying sources in priority order. An empty
// list means DefaultSources.
func NewClient(sources []Source, cacheSize int, timeout time.Duration, opts ...Option) (*Client, error) {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *core.Spectrum](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create spectrum cache: %w", err)
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		sources: sources,
		cache:   cache,
		maxBody: DefaultMaxBody,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Sources returns the configured sources in priority order.
func (c *Client) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Fetch returns the spectrum identified by usi. All sources are queried at
// once; the answer of the highest-priority source that succeeded wins.
func (c *Client) Fetch(ctx context.Context, usi string) (*core.Spectrum, error) {
	if s, ok := c.cache.Get(usi); ok {
		return s, nil
	}
	if c.store != nil {
		s, ok, err := c.store.Get(usi)
		if err != nil {
			logging.Warnf("spectrum store lookup for %s failed: %v", usi, err)
		} else if ok {
			c.cache.Add(usi, s)
			return s, nil
		}
	}

	defer logging.TimeTrack(time.Now(), "retrieving "+usi)

	type result struct {
		spec *core.Spectrum
		err  error
	}
	results := make([]result, len(c.sources))
	var wg sync.WaitGroup
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			s, err := c.FetchFrom(ctx, usi, src)
			results[i] = result{s, err}
		}(i, src)
	}
	wg.Wait()

	var errs []error
	for i, r := range results {
		if r.err == nil {
			logging.Debugf("spectrum %s retrieved from %s", usi, c.sources[i].Name)
			c.remember(usi, r.spec)
			return r.spec, nil
		}
		errs = append(errs, r.err)
	}
	return nil, &AllSourcesError{USI: usi, Errors: errs}
}

func (c *Client) remember(usi string, s *core.Spectrum) {
	c.cache.Add(usi, s)
	if c.store == nil {
		return
	}
	if err := c.store.Put(usi, s); err != nil {
		logging.Warnf("failed to persist %s: %v", usi, err)
	}
}

// FetchFrom queries a single source.
func (c *Client) FetchFrom(ctx context.Context, usi string, src Source) (*core.Spectrum, error) {
	fail := func(status int, err error) error {
		return &FetchError{USI: usi, Source: src.Name, Status: status, Err: err}
	}

	q := url.Values{"usi": {usi}, "resultType": {"full"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("reading body: %w", err))
	}
	if int64(len(body)) > c.maxBody {
		return nil, fail(resp.StatusCode, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBody))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fail(resp.StatusCode, fmt.Errorf("%s", http.StatusText(resp.StatusCode)))
	}

	spec, err := decodeSpectrum(body)
	if err != nil {
		return nil, fail(resp.StatusCode, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fail(resp.StatusCode, err)
	}
	return spec, nil
}

// decodeSpectrum accepts a single spectrum object or the PROXI list form,
// in which case the first entry is used.
func decodeSpectrum(body []byte) (*core.Spectrum, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []core.Spectrum
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("parsing spectrum list: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("empty spectrum list")
		}
		return &list[0], nil
	}
	var s core.Spectrum
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("parsing spectrum: %w", err)
	}
	return &s, nil
}
