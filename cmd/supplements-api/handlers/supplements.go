// Package handlers provides HTTP handlers for the supplements API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BrainPreserve/supplements/internal/card"
	"github.com/BrainPreserve/supplements/internal/coach"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/dataset"
	"github.com/BrainPreserve/supplements/internal/observability"
	"github.com/BrainPreserve/supplements/internal/search"
)

// Searcher is the read side of the search engine.
type Searcher interface {
	Search(q search.Query) []search.Result
	Lookup(key string) (search.Result, bool)
	Schema() *dataset.Schema
	FlagCount(col string) uint64
}

// SupplementsHandler serves search, detail and indication listings.
type SupplementsHandler struct {
	logger       *observability.Logger
	engine       Searcher
	metrics      *observability.Metrics
	coachCols    config.CoachColumns
	defaultLimit int
}

// NewSupplementsHandler creates a new supplements handler.
func NewSupplementsHandler(
	logger *observability.Logger,
	engine Searcher,
	metrics *observability.Metrics,
	coachCols config.CoachColumns,
	defaultLimit int,
) *SupplementsHandler {
	return &SupplementsHandler{
		logger:       logger,
		engine:       engine,
		metrics:      metrics,
		coachCols:    coachCols,
		defaultLimit: defaultLimit,
	}
}

// SearchResponseDTO is the response of a search.
type SearchResponseDTO struct {
	Status       string              `json:"status"`
	Count        int                 `json:"count"`
	Results      []card.Card         `json:"results"`
	GroupSummary *coach.GroupSummary `json:"groupSummary,omitempty"`
}

// DetailResponseDTO is the response for one supplement.
type DetailResponseDTO struct {
	Card    card.Card     `json:"card"`
	Summary coach.Summary `json:"summary"`
}

// IndicationDTO is one filterable flag column.
type IndicationDTO struct {
	Column string `json:"column"`
	Label  string `json:"label"`
	Count  uint64 `json:"count"`
}

// Search handles GET /supplements.
func (h *SupplementsHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := search.NewQuery(params.Get("q"), params["flag"], params.Get("evidence"), params.Get("sort"))

	limit := h.defaultLimit
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", v)
			return
		}
		limit = n
	}

	if q.IsBlank() {
		writeJSON(w, http.StatusOK, SearchResponseDTO{
			Status:  card.StatusLine(0, true),
			Results: []card.Card{},
		})
		return
	}

	start := time.Now()
	results := h.engine.Search(q)
	h.metrics.ObserveSearch(string(q.Sort), string(q.Evidence), len(results), time.Since(start))

	group := coach.Group(results, q, h.coachCols)
	count := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	h.logger.WithContext(r.Context()).Debug().
		Str("query", q.Text).
		Strs("flags", q.Flags).
		Int("count", count).
		Msg("Search served")

	writeJSON(w, http.StatusOK, SearchResponseDTO{
		Status:       card.StatusLine(count, false),
		Count:        count,
		Results:      card.BuildAll(results),
		GroupSummary: &group,
	})
}

// Get handles GET /supplements/{key}.
func (h *SupplementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	res, ok := h.engine.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "supplement not found", key)
		return
	}

	writeJSON(w, http.StatusOK, DetailResponseDTO{
		Card:    card.Build(res),
		Summary: coach.Summarize(res, h.coachCols),
	})
}

// Indications handles GET /indications.
func (h *SupplementsHandler) Indications(w http.ResponseWriter, r *http.Request) {
	out := []IndicationDTO{}
	if schema := h.engine.Schema(); schema != nil {
		for _, col := range schema.FlagCols {
			out = append(out, IndicationDTO{
				Column: col,
				Label:  card.BadgeLabel(col),
				Count:  h.engine.FlagCount(col),
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
