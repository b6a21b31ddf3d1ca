package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "supplements-api"})

	ctx := ContextWithTraceID(context.Background(), "trace-123")
	logger.WithContext(ctx).WithOperation("search").Info().Int("results", 3).Msg("ranked")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "supplements-api", line["service"])
	assert.Equal(t, "trace-123", line["trace_id"])
	assert.Equal(t, "search", line["operation"])
	assert.Equal(t, float64(3), line["results"])
	assert.Equal(t, "ranked", line["message"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_WithSupplement(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Output: &buf})

	logger.WithOperation("coach").WithSupplement("Magnesium").Warn().Msg("unavailable")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "supplements", line["service"])
	assert.Equal(t, "coach", line["operation"])
	assert.Equal(t, "Magnesium", line["supplement"])
	assert.Equal(t, "warn", line["level"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warning": zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"disabled": zerolog.Disabled,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestTraceIDFromContext_Missing(t *testing.T) {
	assert.Equal(t, "", TraceIDFromContext(context.Background()))
}

func TestMetrics_ObserveSearchAndCoach(t *testing.T) {
	m := NewMetrics()

	m.ObserveSearch("evidence", "all", 4, 2*time.Millisecond)
	m.ObserveSearch("evidence", "all", 0, time.Millisecond)
	m.ObserveCoach("ok")
	m.ObserveCoach("NO_API_KEY")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.searches.WithLabelValues("evidence", "all")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.coachRequests.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "supplements_search_requests_total")
	assert.Contains(t, rec.Body.String(), `supplements_coach_requests_total{outcome="NO_API_KEY"} 1`)
}

func TestMetrics_Reloads(t *testing.T) {
	m := NewMetrics()

	m.ObserveReload("ok")
	m.ObserveReload("error")
	m.ObserveReload("ok")
	m.SetRecords(12)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.reloads.WithLabelValues("ok")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.records))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSearch("az", "strong", 1, time.Millisecond)
		m.ObserveCoach("ok")
		m.ObserveReload("ok")
		m.SetRecords(3)
	})
}
