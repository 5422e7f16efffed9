// Package server exposes interactive spectrum views over HTTP.
//
// Each view is guarded by its own mutex, so the panels inside a view are
// only ever touched by one request at a time.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ChrisMcGann/SpecView/pkg/annotate"
	"github.com/ChrisMcGann/SpecView/pkg/config"
	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/view"
)

// Fetcher retrieves spectra by USI.
type Fetcher interface {
	Fetch(ctx context.Context, usi string) (*core.Spectrum, error)
}

var errViewNotFound = errors.New("view not found")

type session struct {
	mu   sync.Mutex
	view *view.View
}

// Server holds the live views and the rendered panel cache.
type Server struct {
	cfg       *config.Config
	fetcher   Fetcher
	annotator annotate.Annotator
	renders   *bigcache.BigCache

	mu     sync.Mutex
	views  map[string]*session
	nextID uint64
}

// New creates a server. fetcher may be nil, which disables USI lookups.
func New(cfg *config.Config, fetcher Fetcher) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ttl := cfg.RenderTTL()
	renders, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             64,
		LifeWindow:         ttl,
		CleanWindow:        ttl / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       256 * 1024,
		HardMaxCacheSize:   cfg.Cache.RenderSizeMB,
		Verbose:            false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	return &Server{
		cfg:       cfg,
		fetcher:   fetcher,
		annotator: annotate.NewFragment(cfg.Annotate.Tolerance),
		renders:   renders,
		views:     make(map[string]*session),
	}, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Panel-Version"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/api/spectra", s.spectrumHandler)

	r.Route("/api/views", func(r chi.Router) {
		r.Post("/", s.createViewHandler)
		r.Get("/{view}", s.viewStateHandler)
		r.Delete("/{view}", s.deleteViewHandler)

		// The panel segment carries the image extension ("primary.svg").
		// chi would split on '.', so the handler strips it.
		r.Get("/{view}/panels/{panel}", s.renderPanelHandler)
		r.Delete("/{view}/panels/{panel}", s.deletePanelHandler)
		r.Post("/{view}/panels/{panel}/wheel", s.wheelHandler)
		r.Post("/{view}/panels/{panel}/resize", s.resizeHandler)
	})

	return r
}

// Len returns the number of live views.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *Server) addView(v *view.View) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := strconv.FormatUint(s.nextID, 10)
	s.views[id] = &session{view: v}
	return id
}

func (s *Server) session(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errViewNotFound, id)
	}
	return sess, nil
}

func (s *Server) dropView(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errViewNotFound, id)
	}
	delete(s.views, id)
	return sess, nil
}

func renderKey(viewID, panelID string, version uint64, ext string) string {
	return fmt.Sprintf("render:%s/%s/%d.%s", viewID, panelID, version, ext)
}

// Close releases the render cache and every view.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, sess := range s.views {
		sess.mu.Lock()
		sess.view.Close()
		sess.mu.Unlock()
		delete(s.views, id)
	}
	s.mu.Unlock()
	return s.renders.Close()
}
