package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/amishk599/talentmesh/internal/keyword"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/profile"
	"github.com/amishk599/talentmesh/internal/ranker"
	"github.com/amishk599/talentmesh/internal/search"
)

type scoreRequest struct {
	KeywordsA []keyword.Legacy         `json:"keywords_a"`
	KeywordsB []keyword.Legacy         `json:"keywords_b"`
	AttrsA    *model.ProfileAttributes `json:"attrs_a,omitempty"`
	AttrsB    *model.ProfileAttributes `json:"attrs_b,omitempty"`
}

type scoreResponse struct {
	model.CompatibilityResult
	Band model.QualityBand `json:"band"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a := keyword.FromLegacy(req.KeywordsA, model.SourceManual)
	b := keyword.FromLegacy(req.KeywordsB, model.SourceManual)
	res := s.deps.Scorer.Score(a, b, req.AttrsA, req.AttrsB)
	writeJSON(w, http.StatusOK, scoreResponse{CompatibilityResult: res, Band: ranker.Band(res.Score)})
}

type matchesResponse struct {
	UserID  string              `json:"user_id"`
	Matches []model.RankedMatch `json:"matches"`
}

func (s *Server) handlePeerMatches(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit, minScore, err := limitAndMinScore(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	matches, err := s.deps.Peers.Match(r.Context(), userID, search.PeerOptions{Limit: limit, MinScore: minScore})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchesResponse{UserID: userID, Matches: matches})
}

type reindexRequest struct {
	OrgID      string                   `json:"org_id"`
	Sources    []model.SourceText       `json:"sources"`
	Attributes *model.ProfileAttributes `json:"attributes,omitempty"`
}

type reindexResponse struct {
	Owner         model.Owner `json:"owner"`
	TotalKeywords int         `json:"total_keywords"`
	FailedSources int         `json:"failed_sources"`
	Written       bool        `json:"written"`
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	owner := model.Owner{
		Type:  model.OwnerType(chi.URLParam(r, "ownerType")),
		ID:    chi.URLParam(r, "ownerID"),
		OrgID: req.OrgID,
	}
	out, err := s.deps.Indexer.IndexJob(r.Context(), profile.Job{Owner: owner, Sources: req.Sources, Attrs: req.Attributes})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse{
		Owner:         owner,
		TotalKeywords: out.Profile.TotalKeywords,
		FailedSources: out.Failed,
		Written:       out.Written,
	})
}

type searchRequest struct {
	JobDescription    string   `json:"job_description"`
	IncludeOrgPool    *bool    `json:"include_org_pool,omitempty"`
	IncludePublicPool *bool    `json:"include_public_pool,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	MinScore          *float64 `json:"min_score,omitempty"`
	Locations         []string `json:"locations,omitempty"`
	ExcludeLocations  []string `json:"exclude_locations,omitempty"`
	Save              *bool    `json:"save_to_history,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	persist := boolOr(req.Save, true)
	userID, err := currentUser(r, persist)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bundle, err := s.deps.Search.Search(r.Context(), search.Request{
		OrgID:          chi.URLParam(r, "orgID"),
		UserID:         userID,
		JobDescription: req.JobDescription,
		Options: search.Options{
			IncludeOrgPool:    boolOr(req.IncludeOrgPool, true),
			IncludePublicPool: boolOr(req.IncludePublicPool, true),
			Limit:             req.Limit,
			MinScore:          req.MinScore,
			Locations:         req.Locations,
			ExcludeLocations:  req.ExcludeLocations,
			Persist:           persist,
		},
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	savedOnly, _ := strconv.ParseBool(r.URL.Query().Get("saved"))
	recs, err := s.deps.History.List(r.Context(), chi.URLParam(r, "orgID"), savedOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": recs})
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.History.Get(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type updateSearchRequest struct {
	IsSaved *bool  `json:"is_saved"`
	Name    string `json:"name"`
}

func (s *Server) handleUpdateSearch(w http.ResponseWriter, r *http.Request) {
	var req updateSearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.IsSaved == nil {
		s.writeError(w, r, &model.ValidationError{Field: "is_saved", Reason: "is required"})
		return
	}

	orgID, id := chi.URLParam(r, "orgID"), chi.URLParam(r, "id")
	var err error
	if *req.IsSaved {
		err = s.deps.History.Save(r.Context(), orgID, id, req.Name)
	} else {
		err = s.deps.History.Unsave(r.Context(), orgID, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.deps.History.Get(r.Context(), orgID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.History.Delete(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rerunRequest struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req rerunRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	bundle, err := s.deps.History.Rerun(r.Context(), chi.URLParam(r, "orgID"), userID, chi.URLParam(r, "id"), req.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// userHeader carries the caller id set by the auth layer in front of the API.
const userHeader = "X-User-ID"

// currentUser reads the caller id from userHeader. required is set on
// requests that write a search record.
func currentUser(r *http.Request, required bool) (string, error) {
	id := strings.TrimSpace(r.Header.Get(userHeader))
	if id == "" && required {
		return "", &model.ValidationError{Field: userHeader, Reason: "is required"}
	}
	return id, nil
}

// limitAndMinScore reads the optional limit and min_score query parameters.
func limitAndMinScore(r *http.Request) (int, *float64, error) {
	q := r.URL.Query()
	var limit int
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, nil, &model.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		limit = n
	}
	var minScore *float64
	if v := strings.TrimSpace(q.Get("min_score")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, nil, &model.ValidationError{Field: "min_score", Reason: "must be a number"}
		}
		minScore = &f
	}
	return limit, minScore, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
