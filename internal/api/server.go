// Package api exposes scoring, matching, org search and search history over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/profile"
	"github.com/amishk599/talentmesh/internal/ranker"
	"github.com/amishk599/talentmesh/internal/search"
)

// SearchService runs org job searches.
type SearchService interface {
	Search(ctx context.Context, req search.Request) (*search.ResultBundle, error)
}

// PeerService ranks users against one user.
type PeerService interface {
	Match(ctx context.Context, userID string, opts search.PeerOptions) ([]model.RankedMatch, error)
}

// HistoryService manages stored searches.
type HistoryService interface {
	List(ctx context.Context, orgID string, savedOnly bool) ([]model.SearchRecord, error)
	Get(ctx context.Context, orgID, id string) (model.SearchRecord, error)
	Save(ctx context.Context, orgID, id, name string) error
	Unsave(ctx context.Context, orgID, id string) error
	Delete(ctx context.Context, orgID, id string) error
	Rerun(ctx context.Context, orgID, userID, id string, limit int) (*search.ResultBundle, error)
}

// Reindexer rebuilds one owner's profile.
type Reindexer interface {
	IndexJob(ctx context.Context, job profile.Job) (profile.Outcome, error)
}

// Deps are the services the API dispatches to.
type Deps struct {
	Scorer  ranker.Scorer
	Search  SearchService
	Peers   PeerService
	History HistoryService
	Indexer Reindexer
}

// Server holds the HTTP handlers.
type Server struct {
	deps           Deps
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewServer creates the API server. requestTimeout bounds each request;
// zero means 60s.
func NewServer(deps Deps, requestTimeout time.Duration, logger *slog.Logger) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Server{deps: deps, requestTimeout: requestTimeout, logger: logger}
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Get("/users/{userID}/matches", s.handlePeerMatches)
		r.Post("/profiles/{ownerType}/{ownerID}/reindex", s.handleReindex)

		r.Route("/orgs/{orgID}/searches", func(r chi.Router) {
			r.Post("/", s.handleSearch)
			r.Get("/", s.handleListSearches)
			r.Get("/{id}", s.handleGetSearch)
			r.Patch("/{id}", s.handleUpdateSearch)
			r.Delete("/{id}", s.handleDeleteSearch)
			r.Post("/{id}/rerun", s.handleRerun)
		})
	})
	return r
}

// logRequests writes one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

const parseFailedMessage = "could not parse job description"

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps domain errors onto status codes. Internal errors are
// logged and reported with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *model.ValidationError
		pe *model.ParseError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error(), Field: ve.Field})
	case errors.As(err, &pe):
		// The wrapped chain can carry upstream response text.
		s.logger.Warn("job description parse failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: parseFailedMessage})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &model.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
	}
	return nil
}
