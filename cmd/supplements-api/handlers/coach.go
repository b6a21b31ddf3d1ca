package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BrainPreserve/supplements/internal/coach"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
)

// Generator produces coaching text.
type Generator interface {
	Generate(ctx context.Context, req coach.Request) coach.Response
}

// CoachHandler serves generated coaching text. Every outcome is a 200 with
// the coach response contract; failures carry a reason.
type CoachHandler struct {
	logger    *observability.Logger
	generator Generator
	engine    Searcher
	cfg       config.CoachConfig
}

// NewCoachHandler creates a new coach handler.
func NewCoachHandler(logger *observability.Logger, generator Generator, engine Searcher, cfg config.CoachConfig) *CoachHandler {
	return &CoachHandler{
		logger:    logger,
		generator: generator,
		engine:    engine,
		cfg:       cfg,
	}
}

// maxCoachBody caps POST /coach bodies; a record's fields are a few KB.
const maxCoachBody = 64 << 10

// CoachRequestDTO is the POST /coach body. selected_goals is kept raw so a
// non-array value counts as no goals instead of a bad request.
type CoachRequestDTO struct {
	SupplementName string          `json:"supplement_name"`
	Fields         *coach.Fields   `json:"fields"`
	SelectedGoals  json.RawMessage `json:"selected_goals"`
	Refresh        bool            `json:"refresh"`
}

func (d CoachRequestDTO) toRequest() coach.Request {
	return coach.Request{
		SupplementName: d.SupplementName,
		Fields:         d.Fields,
		SelectedGoals:  goalList(d.SelectedGoals),
		Refresh:        d.Refresh,
	}
}

// goalList keeps the string entries of a JSON array and ignores anything else.
func goalList(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	goals := make([]string, 0, len(items))
	for _, item := range items {
		if g, ok := item.(string); ok {
			goals = append(goals, g)
		}
	}
	return goals
}

// Generate handles POST /coach with a CoachRequestDTO body.
func (h *CoachHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var dto CoachRequestDTO
	body := http.MaxBytesReader(w, r.Body, maxCoachBody)
	if err := json.NewDecoder(body).Decode(&dto); err != nil {
		h.logger.WithContext(r.Context()).Debug().Err(err).Msg("Invalid coach request body")
		writeJSON(w, http.StatusOK, coach.Response{OK: false, Reason: coach.ReasonBadInput})
		return
	}

	writeJSON(w, http.StatusOK, h.generator.Generate(r.Context(), dto.toRequest()))
}

// GenerateForKey handles POST /supplements/{key}/coach. The request is built
// from the stored record; selected goals come from the flag query parameters
// and refresh=true bypasses the cache.
func (h *CoachHandler) GenerateForKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	res, ok := h.engine.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "supplement not found", key)
		return
	}

	query := r.URL.Query()
	req := coach.PayloadFromRecord(res, h.cfg.Columns, query["flag"], h.cfg.GoalKeys)
	req.Refresh, _ = strconv.ParseBool(query.Get("refresh"))
	writeJSON(w, http.StatusOK, h.generator.Generate(r.Context(), req))
}
