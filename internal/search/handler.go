package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Allegre7tto/SearchEngineDemo/pkg/logger"
)

// SearchEvaluator is the query execution contract the handler depends on.
type SearchEvaluator interface {
	Search(ctx context.Context, query string, topK int) ([]ScoredResult, error)
}

// IndexTrigger starts an indexing run over the document source. Submission
// is fire-and-forget; the trigger returns once all work has been handed to
// the segmentation workers.
type IndexTrigger interface {
	Run(ctx context.Context) error
}

// SearchResponse is the wire shape of a search call.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []ScoredResult `json:"results"`
}

// StatsResponse reports corpus aggregates and the popularity leaderboard.
type StatsResponse struct {
	TotalDocuments        int         `json:"total_documents"`
	AverageDocumentLength float64     `json:"average_document_length"`
	TopSearchTerms        []TermCount `json:"top_search_terms,omitempty"`
}

// Handler exposes the search service over HTTP.
type Handler struct {
	evaluator    SearchEvaluator
	stats        *StatsCache
	popularity   *Popularity
	trigger      IndexTrigger
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// NewHandler creates a Handler. popularity and trigger may be nil, which
// disables the corresponding endpoints.
func NewHandler(evaluator SearchEvaluator, stats *StatsCache, popularity *Popularity, trigger IndexTrigger, defaultLimit, maxResults int) *Handler {
	return &Handler{
		evaluator:    evaluator,
		stats:        stats,
		popularity:   popularity,
		trigger:      trigger,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register wires the handler's routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("POST /stats/refresh", h.RefreshStats)
	mux.HandleFunc("GET /terms/top", h.TopTerms)
	mux.HandleFunc("DELETE /terms", h.ResetTerms)
	mux.HandleFunc("POST /index/run", h.TriggerIndexing)
}

// Search handles GET /search?q=...&limit=N. A blank query is not an error;
// it returns an empty result set.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	results, err := h.evaluator.Search(ctx, query, limit)
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	h.writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.stats.TotalDocuments(ctx)
	if err != nil {
		h.logger.Error("failed to read corpus stats", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "index store unavailable")
		return
	}
	avg, err := h.stats.AverageDocumentLength(ctx)
	if err != nil {
		h.logger.Error("failed to read corpus stats", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "index store unavailable")
		return
	}

	resp := StatsResponse{TotalDocuments: total, AverageDocumentLength: avg}
	if h.popularity != nil {
		top, err := h.popularity.TopTerms(ctx, 10)
		if err != nil {
			h.logger.Error("failed to read top terms", "error", err)
		} else {
			resp.TopSearchTerms = top
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// RefreshStats handles POST /stats/refresh, invalidating the statistics
// cache so the next read refetches from the store.
func (h *Handler) RefreshStats(w http.ResponseWriter, r *http.Request) {
	h.stats.Invalidate()
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// TopTerms handles GET /terms/top?n=N.
func (h *Handler) TopTerms(w http.ResponseWriter, r *http.Request) {
	if h.popularity == nil {
		h.writeError(w, http.StatusServiceUnavailable, "popularity tracking is disabled")
		return
	}
	n := 10
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}
	top, err := h.popularity.TopTerms(r.Context(), n)
	if err != nil {
		h.logger.Error("failed to read top terms", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "popularity counter unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, top)
}

// ResetTerms handles DELETE /terms?term=x (one term) and DELETE /terms
// (all terms).
func (h *Handler) ResetTerms(w http.ResponseWriter, r *http.Request) {
	if h.popularity == nil {
		h.writeError(w, http.StatusServiceUnavailable, "popularity tracking is disabled")
		return
	}
	ctx := r.Context()
	var err error
	if term := r.URL.Query().Get("term"); term != "" {
		err = h.popularity.ResetTerm(ctx, term)
	} else {
		err = h.popularity.ResetAll(ctx)
	}
	if err != nil {
		h.logger.Error("failed to reset term counts", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "popularity counter unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// TriggerIndexing handles POST /index/run. The run proceeds in the
// background; completion of individual documents is not awaited.
func (h *Handler) TriggerIndexing(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		h.writeError(w, http.StatusServiceUnavailable, "indexing trigger is disabled")
		return
	}
	go func() {
		if err := h.trigger.Run(context.Background()); err != nil {
			h.logger.Error("indexing run failed", "error", err)
		}
	}()
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "indexing started"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
