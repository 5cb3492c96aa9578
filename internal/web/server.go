// Package web serves the relay's read-side API: the last relayed
// nightly payload and crate search.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/huhu/rustdoc-relay/internal/search"
)

// CrateSearcher is the query side of the crate index.
type CrateSearcher interface {
	Search(ctx context.Context, query string, limit int, offset int) (search.SearchResponse, error)
}

// NightlyReader returns the last archived relay message.
type NightlyReader interface {
	ReadNightly() ([]byte, error)
}

type Server struct {
	logger  *slog.Logger
	search  CrateSearcher
	nightly NightlyReader
}

func NewServer(logger *slog.Logger, searcher CrateSearcher, nightly NightlyReader) *Server {
	return &Server{
		logger:  logger,
		search:  searcher,
		nightly: nightly,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/nightly", s.handleNightly)
	mux.HandleFunc("/api/search", s.handleSearch)
	return s.logRequests(mux)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleNightly(w http.ResponseWriter, r *http.Request) {
	payload, err := s.nightly.ReadNightly()
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "no nightly payload relayed yet")
		return
	}
	if err != nil {
		s.logger.Error("read nightly payload", "error", err)
		writeError(w, http.StatusInternalServerError, "cannot read nightly payload")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "crate index unavailable")
		return
	}

	q := r.URL.Query().Get("q")
	limit := intParam(r, "limit", 50)
	offset := intParam(r, "offset", 0)

	resp, err := s.search.Search(r.Context(), q, limit, offset)
	if err != nil {
		s.logger.Error("crate search", "query", q, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode search response", "error", err)
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
