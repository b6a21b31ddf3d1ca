package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxErrorBody   = 512
)

// Completer produces a chat completion for a system and user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChatMessage is one message of a chat-completions request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// LLMClient calls an OpenAI-compatible chat-completions endpoint.
type LLMClient struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	timeout     time.Duration
	retry       RetryConfig
	httpClient  *http.Client
	logger      *observability.Logger
}

// NewLLMClient creates a client from the coach configuration.
func NewLLMClient(cfg config.CoachConfig, logger *observability.Logger) *LLMClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &LLMClient{
		apiKey:      cfg.APIKey,
		endpoint:    strings.TrimRight(baseURL, "/") + "/chat/completions",
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		retry:       DefaultRetryConfig(cfg.MaxRetries),
		httpClient:  &http.Client{},
		logger:      logger.WithOperation("chat_completion"),
	}
}

// Model returns the model requests are sent to.
func (c *LLMClient) Model() string { return c.model }

// Complete sends one chat completion and returns the trimmed content of the
// first choice.
func (c *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	res, err := c.retryWithBackoff(ctx, func(ctx context.Context) (attemptResult, error) {
		return c.send(ctx, body)
	})
	if err != nil {
		return "", err
	}

	if res.status != http.StatusOK {
		snippet := res.body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", fmt.Errorf("chat completion returned status %d: %s", res.status, string(snippet))
	}

	var parsed chatResponse
	if err := json.Unmarshal(res.body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// send performs a single attempt bounded by the per-attempt timeout.
func (c *LLMClient) send(ctx context.Context, body []byte) (attemptResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return attemptResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptResult{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{}, fmt.Errorf("read chat response: %w", err)
	}

	return attemptResult{status: resp.StatusCode, body: data}, nil
}
