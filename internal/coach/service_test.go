package coach

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainPreserve/supplements/internal/cache"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
)

const longText = "Evidence for creatine is strong across many trials.\n\nIt supports cellular energy buffering.\n\nTrack training logs weekly."

// fakeCompleter records calls and returns a canned reply.
type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	users []string
	text  string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.users = append(f.users, user)
	return f.text, f.err
}

func testCoachConfig() config.CoachConfig {
	return config.DefaultConfig().Coach
}

func testRequest() Request {
	return Request{
		SupplementName: "Creatine",
		Fields: &Fields{
			SupplementKey:   "creatine",
			LevelOfEvidence: "Multiple RCTs",
		},
		SelectedGoals: []string{"metabolic"},
	}
}

func TestService_Generate(t *testing.T) {
	fc := &fakeCompleter{text: "  " + longText + "\n"}
	metrics := observability.NewMetrics()
	svc := NewService(testCoachConfig(), fc, nil, 0, metrics, nil)

	resp := svc.Generate(context.Background(), testRequest())

	assert.True(t, resp.OK)
	assert.Empty(t, resp.Reason)
	assert.Equal(t, longText, resp.Text)

	require.Len(t, fc.users, 1)
	var msg userMessage
	require.NoError(t, json.Unmarshal([]byte(fc.users[0]), &msg))
	assert.Equal(t, []string{"Metabolic"}, msg.Goals)
	assert.Equal(t, DefaultAugment["creatine"], msg.Augment)

	n, err := testutil.GatherAndCount(metrics.Registry(), "supplements_coach_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_GenerateFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer Completer
		req       Request
		want      Reason
	}{
		{
			name:      "no completer",
			completer: nil,
			req:       testRequest(),
			want:      ReasonNoAPIKey,
		},
		{
			name:      "blank name",
			completer: &fakeCompleter{text: longText},
			req:       Request{SupplementName: "  ", Fields: &Fields{}},
			want:      ReasonBadInput,
		},
		{
			name:      "missing fields",
			completer: &fakeCompleter{text: longText},
			req:       Request{SupplementName: "Creatine"},
			want:      ReasonBadInput,
		},
		{
			name:      "upstream error",
			completer: &fakeCompleter{err: errors.New("boom")},
			req:       testRequest(),
			want:      ReasonAPIError,
		},
		{
			name:      "short text",
			completer: &fakeCompleter{text: "Too short."},
			req:       testRequest(),
			want:      ReasonEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(testCoachConfig(), tt.completer, nil, 0, nil, nil)

			resp := svc.Generate(context.Background(), tt.req)

			assert.False(t, resp.OK)
			assert.Equal(t, tt.want, resp.Reason)
			assert.Empty(t, resp.Text)
		})
	}
}

func TestService_GenerateCaches(t *testing.T) {
	mem := cache.NewMemoryClient(10)
	defer mem.Close()

	fc := &fakeCompleter{text: longText}
	svc := NewService(testCoachConfig(), fc, mem, time.Minute, nil, nil)

	first := svc.Generate(context.Background(), testRequest())
	second := svc.Generate(context.Background(), testRequest())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 1, mem.Len())

	other := testRequest()
	other.SelectedGoals = []string{"sleep"}
	svc.Generate(context.Background(), other)
	assert.Equal(t, 2, fc.calls)
}

func TestService_BlankTextWithoutMinimum(t *testing.T) {
	cfg := testCoachConfig()
	cfg.MinTextLength = 0
	svc := NewService(cfg, &fakeCompleter{text: "  \n\t "}, nil, 0, nil, nil)

	resp := svc.Generate(context.Background(), testRequest())

	assert.False(t, resp.OK)
	assert.Equal(t, ReasonEmpty, resp.Reason)

	svc = NewService(cfg, &fakeCompleter{text: "Ok."}, nil, 0, nil, nil)
	assert.True(t, svc.Generate(context.Background(), testRequest()).OK)
}

func TestService_Refresh(t *testing.T) {
	mem := cache.NewMemoryClient(10)
	defer mem.Close()

	fc := &fakeCompleter{text: longText}
	svc := NewService(testCoachConfig(), fc, mem, time.Minute, nil, nil)

	svc.Generate(context.Background(), testRequest())
	fc.text = longText + " Updated."

	req := testRequest()
	req.Refresh = true
	resp := svc.Generate(context.Background(), req)
	require.True(t, resp.OK)
	assert.Equal(t, longText+" Updated.", resp.Text)
	assert.Equal(t, 2, fc.calls)

	// The regenerated text replaced the old entry.
	assert.Equal(t, resp, svc.Generate(context.Background(), testRequest()))
	assert.Equal(t, 2, fc.calls)
	assert.Equal(t, 1, mem.Len())
}

func TestService_Purge(t *testing.T) {
	mem := cache.NewMemoryClient(10)
	defer mem.Close()

	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, "search:keep", []byte("x"), 0))

	fc := &fakeCompleter{text: longText}
	svc := NewService(testCoachConfig(), fc, mem, time.Minute, nil, nil)
	svc.Generate(ctx, testRequest())
	require.Equal(t, 2, mem.Len())

	require.NoError(t, svc.Purge(ctx))
	assert.Equal(t, 1, mem.Len())
	_, err := mem.Get(ctx, "search:keep")
	assert.NoError(t, err)

	svc.Generate(ctx, testRequest())
	assert.Equal(t, 2, fc.calls)

	assert.NoError(t, NewService(testCoachConfig(), fc, nil, 0, nil, nil).Purge(ctx))
}

func TestService_FailuresAreNotCached(t *testing.T) {
	mem := cache.NewMemoryClient(10)
	defer mem.Close()

	svc := NewService(testCoachConfig(), &fakeCompleter{text: "short"}, mem, time.Minute, nil, nil)
	svc.Generate(context.Background(), testRequest())

	assert.Zero(t, mem.Len())
}

func TestService_ConfiguredAugment(t *testing.T) {
	cfg := testCoachConfig()
	cfg.Augment = map[string][]string{"Lions Mane": {"Take with food."}}
	svc := NewService(cfg, nil, nil, 0, nil, nil)

	assert.Equal(t, []string{"Take with food."}, svc.Augment("lions_mane"))
	assert.Equal(t, DefaultAugment["magnesium"], svc.Augment("Magnesium"))
	assert.Nil(t, svc.Augment("unknown"))
}

func TestService_GenerateBatch(t *testing.T) {
	fc := &fakeCompleter{text: longText}
	svc := NewService(testCoachConfig(), fc, nil, 0, nil, nil)

	reqs := []Request{testRequest(), {SupplementName: ""}, testRequest()}
	var done atomic.Int32

	out := svc.GenerateBatch(context.Background(), reqs, 2, func(int, Response) {
		done.Add(1)
	})

	require.Len(t, out, 3)
	assert.True(t, out[0].OK)
	assert.Equal(t, ReasonBadInput, out[1].Reason)
	assert.True(t, out[2].OK)
	assert.Equal(t, int32(3), done.Load())
}

func newTestLLMClient(t *testing.T, handler http.HandlerFunc) *LLMClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testCoachConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL + "/"
	cfg.MaxRetries = 2

	c := NewLLMClient(cfg, nil)
	c.retry.InitialBackoff = time.Millisecond
	c.retry.MaxBackoff = 5 * time.Millisecond
	return c
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func TestLLMClient_Complete(t *testing.T) {
	c := newTestLLMClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)

		_, _ = w.Write([]byte(chatReply("  answer  ")))
	})

	text, err := c.Complete(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestLLMClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	c := newTestLLMClient(t, func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(chatReply("ok")))
		}
	})

	text, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLLMClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
		wantErr   string
	}{
		{"bad request is not retried", http.StatusBadRequest, `{"error":"bad"}`, 1, "status 400"},
		{"retries exhausted", http.StatusServiceUnavailable, "", 3, "after 2 retries"},
		{"no choices", http.StatusOK, `{"choices":[]}`, 1, "no choices"},
		{"malformed body", http.StatusOK, `{`, 1, "decode chat response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestLLMClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Complete(context.Background(), "sys", "user")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestLLMClient_Timeout(t *testing.T) {
	c := newTestLLMClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	c.timeout = 20 * time.Millisecond
	c.retry.MaxRetries = 0

	_, err := c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 350 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, calculateBackoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, calculateBackoff(1, cfg))
	assert.Equal(t, 350*time.Millisecond, calculateBackoff(2, cfg))
}

func TestShouldRetry(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, shouldRetry(code), code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, shouldRetry(code), code)
	}
}

func TestError(t *testing.T) {
	cause := errors.New("dial tcp")
	err := newError(ReasonAPIError, "chat completion failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.HasPrefix(err.Error(), "[API_ERROR]"))
	assert.Equal(t, ReasonAPIError, ReasonOf(err))
	assert.Equal(t, ReasonBadInput, ReasonOf(newError(ReasonBadInput, "x", nil)))
	assert.Equal(t, ReasonAPIError, ReasonOf(errors.New("other")))
}
