package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ChrisMcGann/SpecView/pkg/axis"
	"github.com/ChrisMcGann/SpecView/pkg/core"
	"github.com/ChrisMcGann/SpecView/pkg/filter"
	"github.com/ChrisMcGann/SpecView/pkg/link"
	"github.com/ChrisMcGann/SpecView/pkg/logging"
	"github.com/ChrisMcGann/SpecView/pkg/match"
	"github.com/ChrisMcGann/SpecView/pkg/panel"
	"github.com/ChrisMcGann/SpecView/pkg/proxi"
	"github.com/ChrisMcGann/SpecView/pkg/render"
	"github.com/ChrisMcGann/SpecView/pkg/view"
	"github.com/ChrisMcGann/SpecView/pkg/viewport"
)

// SpectrumInput is a spectrum given inline or by USI.
type SpectrumInput struct {
	Spectrum *core.Spectrum    `json:"spectrum,omitempty"`
	USI      string            `json:"usi,omitempty"`
	Peptide  string            `json:"peptide,omitempty"`
	Ions     []core.MatchedIon `json:"ions,omitempty"`
}

// CreateViewRequest is the body of POST /api/views. Unset sizes and flags
// fall back to the render configuration.
type CreateViewRequest struct {
	Primary       SpectrumInput  `json:"primary"`
	Mirror        *SpectrumInput `json:"mirror,omitempty"`
	ShowError     bool           `json:"show_error"`
	ErrorType     string         `json:"error_type,omitempty"`
	Normalize     *bool          `json:"normalize,omitempty"`
	HideUnmatched *bool          `json:"hide_unmatched,omitempty"`
	MZExtent      *axis.Extent   `json:"mz_extent,omitempty"`
	Width         float64        `json:"width,omitempty"`
	Height        float64        `json:"height,omitempty"`
	ErrorHeight   float64        `json:"error_height,omitempty"`

	TopN            int            `json:"top_n,omitempty"`
	IntensityCutoff float64        `json:"intensity_cutoff,omitempty"`
	HideZero        bool           `json:"hide_zero,omitempty"`
	IonTypes        []core.IonType `json:"ion_types,omitempty"`
}

// PanelState describes one panel of a view.
type PanelState struct {
	ID      link.ID         `json:"id"`
	Kind    string          `json:"kind"`
	State   string          `json:"state"`
	Version uint64          `json:"version"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Change  viewport.Change `json:"change"`
}

// ViewState is the body returned for a view.
type ViewState struct {
	ID     string       `json:"id"`
	Panels []PanelState `json:"panels"`
	Pairs  []match.Pair `json:"pairs,omitempty"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) createViewHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg, err := s.viewConfig(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := view.New(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	id := s.addView(v)
	logging.Debugf("created view %s with panels %v", id, v.IDs())
	writeJSON(w, http.StatusCreated, stateOf(id, v))
}

func (s *Server) viewConfig(r *http.Request, req CreateViewRequest) (view.Config, error) {
	rc := s.cfg.Render
	cfg := view.Config{
		ShowError:     req.ShowError,
		Annotator:     s.annotator,
		Normalize:     rc.Normalize,
		HideUnmatched: rc.HideUnmatched,
		PairTolerance: s.cfg.Annotate.PairTolerance,
		MZExtent:      req.MZExtent,
		Options:       rc.Options,
		Width:         orDefault(req.Width, float64(rc.Width)),
		Height:        orDefault(req.Height, float64(rc.Height)),
		ErrorHeight:   orDefault(req.ErrorHeight, float64(rc.ErrorHeight)),
		Filter: filter.Config{
			TopN:            req.TopN,
			IntensityCutoff: req.IntensityCutoff,
			HideZero:        req.HideZero,
			IonTypes:        req.IonTypes,
		},
	}
	if req.Normalize != nil {
		cfg.Normalize = *req.Normalize
	}
	if req.HideUnmatched != nil {
		cfg.HideUnmatched = *req.HideUnmatched
	}

	cfg.ErrorType = s.cfg.ErrorUnit()
	if req.ErrorType != "" {
		unit, err := match.ParseErrorType(req.ErrorType)
		if err != nil {
			return cfg, &core.ValidationError{Field: "error_type", Message: err.Error()}
		}
		cfg.ErrorType = unit
	}

	primary, err := s.resolve(r, req.Primary)
	if err != nil {
		return cfg, err
	}
	cfg.Primary = primary
	if req.Mirror != nil {
		mirror, err := s.resolve(r, *req.Mirror)
		if err != nil {
			return cfg, err
		}
		cfg.Mirror = &mirror
	}
	return cfg, nil
}

func (s *Server) resolve(r *http.Request, in SpectrumInput) (view.Input, error) {
	out := view.Input{Spectrum: in.Spectrum, Ions: in.Ions, Peptide: in.Peptide}
	if in.Spectrum != nil || in.USI == "" {
		return out, nil
	}
	if s.fetcher == nil {
		return out, errNoFetcher
	}
	spec, err := s.fetcher.Fetch(r.Context(), in.USI)
	if err != nil {
		return out, err
	}
	out.Spectrum = spec
	return out, nil
}

func (s *Server) viewStateHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "view")
	sess, err := s.session(id)
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	state := stateOf(id, sess.view)
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) deleteViewHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.dropView(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	sess.view.Close()
	sess.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) renderPanelHandler(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "view")
	panelID, format := splitExtension(chi.URLParam(r, "panel"), s.cfg.Render.Format)

	enc, err := render.EncoderFor(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := s.session(viewID)
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	p, err := sess.view.Panel(link.ID(panelID))
	if err != nil {
		sess.mu.Unlock()
		writeError(w, err)
		return
	}
	version := p.Version()
	key := renderKey(viewID, panelID, version, enc.Extension())

	data, cacheErr := s.renders.Get(key)
	if cacheErr != nil {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, p.Scene()); err != nil {
			sess.mu.Unlock()
			writeError(w, err)
			return
		}
		data = buf.Bytes()
		if err := s.renders.Set(key, data); err != nil {
			logging.Debugf("render cache: %v", err)
		}
	}
	sess.mu.Unlock()

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("X-Panel-Version", strconv.FormatUint(version, 10))
	w.Write(data)
}

func (s *Server) wheelHandler(w http.ResponseWriter, r *http.Request) {
	var e panel.WheelEvent
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := s.session(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	res, err := sess.view.Wheel(link.ID(chi.URLParam(r, "panel")), e)
	sess.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) resizeHandler(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		http.Error(w, "width and height must be positive", http.StatusBadRequest)
		return
	}
	sess, err := s.session(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, err)
		return
	}

	id := link.ID(chi.URLParam(r, "panel"))
	sess.mu.Lock()
	err = sess.view.Resize(id, req.Width, req.Height)
	var state PanelState
	if err == nil {
		p, _ := sess.view.Panel(id)
		state = panelState(id, p)
	}
	sess.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) deletePanelHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	err = sess.view.Remove(link.ID(chi.URLParam(r, "panel")))
	sess.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) spectrumHandler(w http.ResponseWriter, r *http.Request) {
	usi := strings.TrimSpace(r.URL.Query().Get("usi"))
	if usi == "" {
		http.Error(w, "missing required query param: usi", http.StatusBadRequest)
		return
	}
	if s.fetcher == nil {
		writeError(w, errNoFetcher)
		return
	}
	spec, err := s.fetcher.Fetch(r.Context(), usi)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

var errNoFetcher = errors.New("spectrum retrieval is not configured")

func stateOf(id string, v *view.View) ViewState {
	state := ViewState{ID: id, Pairs: v.Pairs()}
	for _, pid := range v.IDs() {
		p, _ := v.Panel(pid)
		state.Panels = append(state.Panels, panelState(pid, p))
	}
	return state
}

func panelState(id link.ID, p panel.Panel) PanelState {
	l := p.Layout()
	return PanelState{
		ID:      id,
		Kind:    p.Kind().String(),
		State:   p.State().String(),
		Version: p.Version(),
		Width:   l.Width,
		Height:  l.Height,
		Change:  p.Change(),
	}
}

// splitExtension turns "primary.svg" into ("primary", "svg").
func splitExtension(segment, fallback string) (string, string) {
	if i := strings.LastIndexByte(segment, '.'); i > 0 {
		return segment[:i], segment[i+1:]
	}
	return segment, fallback
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func statusOf(err error) int {
	var verr *core.ValidationError
	var allErr *proxi.AllSourcesError
	var fetchErr *proxi.FetchError
	switch {
	case errors.Is(err, errViewNotFound), errors.Is(err, view.ErrUnknownPanel):
		return http.StatusNotFound
	case errors.As(err, &allErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, errNoFetcher):
		return http.StatusServiceUnavailable
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logging.Errorf("%v", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("encoding response: %v", err)
	}
}
