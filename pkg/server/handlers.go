package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/masonry/pkg/buildinfo"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/layout"
	"github.com/matzehuels/masonry/pkg/pipeline"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

var (
	errNotFoundRoute    = errors.New(errors.ErrCodeNotFound, "no such endpoint")
	errMethodNotAllowed = errors.New(errors.ErrCodeUnsupported, "method not allowed")
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// createResponse is the answer to POST /v1/layouts.
type createResponse struct {
	Layout   *layout.Snapshot `json:"layout"`
	Cached   bool             `json:"cached"`
	Warnings []string         `json:"warnings,omitempty"`
}

// layoutSummary is one entry of GET /v1/layouts.
type layoutSummary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Width       float64   `json:"width"`
	ColumnCount int       `json:"column_count"`
	Height      float64   `json:"height"`
	Items       int       `json:"items"`
}

type listResponse struct {
	Layouts []layoutSummary `json:"layouts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode layout request"))
		return
	}
	opts.Logger = s.logger.With("request_id", RequestIDFrom(r.Context()))

	ctx := r.Context()
	snap, hit, err := s.runner.LayoutWithCacheInfo(ctx, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Cached snapshots are shared; store a copy with its own identity.
	snap = snap.Clone()
	snap.ID = ""
	snap.CreatedAt = time.Time{}
	if err := s.runner.Store.Save(ctx, snap); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "save layout"))
		return
	}

	w.Header().Set("Location", "/v1/layouts/"+snap.ID)
	w.Header().Set(CacheHeader, cacheStatus(hit))
	writeJSON(w, http.StatusCreated, createResponse{
		Layout:   snap,
		Cached:   hit,
		Warnings: warnings(opts),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	snaps, err := s.runner.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeStorage, err, "list layouts"))
		return
	}

	out := listResponse{Layouts: make([]layoutSummary, len(snaps))}
	for i, snap := range snaps {
		out.Layouts[i] = layoutSummary{
			ID:          snap.ID,
			CreatedAt:   snap.CreatedAt,
			Width:       snap.Width,
			ColumnCount: snap.ColumnCount,
			Height:      snap.Height,
			Items:       len(snap.Entries),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateLayoutID(id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.runner.Store.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, err)
		return
	}
	snap, ok := s.load(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Formats: []string{format},
		Labels:  queryFlag(q.Get("labels")),
		Guides:  queryFlag(q.Get("guides")),
		Title:   q.Get("title"),
		Logger:  s.logger.With("request_id", RequestIDFrom(r.Context())),
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), snap, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set(CacheHeader, cacheStatus(hit))
	if q.Get("download") != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, snap.ID, extension(format)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// load fetches the snapshot named by the id URL parameter, answering the
// request itself when that fails.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*layout.Snapshot, bool) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateLayoutID(id); err != nil {
		writeError(w, r, err)
		return nil, false
	}
	snap, err := s.runner.Store.Load(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return snap, true
}

func warnings(opts pipeline.Options) []string {
	var out []string
	for _, w := range opts.Warnings() {
		out = append(out, errors.UserMessage(w))
	}
	return out
}

func queryFlag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func extension(format string) string {
	if format == pipeline.FormatDOTSVG {
		return "dot.svg"
	}
	return format
}
