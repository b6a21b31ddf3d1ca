package coach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/BrainPreserve/supplements/internal/cache"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
)

const outcomeOK = "ok"

var cachePrefix = cache.Key("coach", "")

// Service turns coaching requests into generated text. A nil completer makes
// every request fail with ReasonNoAPIKey.
type Service struct {
	cfg       config.CoachConfig
	completer Completer
	cache     cache.Client
	ttl       time.Duration
	augment   map[string][]string
	metrics   *observability.Metrics
	logger    *observability.Logger
}

// NewService creates a coaching service. cache and metrics may be nil.
func NewService(
	cfg config.CoachConfig,
	completer Completer,
	c cache.Client,
	ttl time.Duration,
	metrics *observability.Metrics,
	logger *observability.Logger,
) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}

	augment := make(map[string][]string, len(DefaultAugment)+len(cfg.Augment))
	for k, v := range DefaultAugment {
		augment[k] = v
	}
	for k, v := range cfg.Augment {
		augment[NormalizeKey(k)] = v
	}

	return &Service{
		cfg:       cfg,
		completer: completer,
		cache:     c,
		ttl:       ttl,
		augment:   augment,
		metrics:   metrics,
		logger:    logger.WithOperation("coach"),
	}
}

// Augment returns the augmentation facts for a supplement key or name.
func (s *Service) Augment(keyOrName string) []string {
	return s.augment[NormalizeKey(keyOrName)]
}

// Generate produces coaching text. It never returns an error: failures are
// reported through Response.Reason with empty text.
func (s *Service) Generate(ctx context.Context, req Request) Response {
	if observability.TraceIDFromContext(ctx) == "" {
		ctx = observability.ContextWithTraceID(ctx, uuid.NewString())
	}
	log := s.logger.WithContext(ctx).WithSupplement(req.SupplementName)
	start := time.Now()

	text, cached, err := s.generate(ctx, req)
	if err != nil {
		reason := ReasonOf(err)
		s.metrics.ObserveCoach(string(reason))
		log.Warn().
			Str("reason", string(reason)).
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Coaching text unavailable")
		return Response{OK: false, Reason: reason, Text: ""}
	}

	s.metrics.ObserveCoach(outcomeOK)
	log.Info().
		Bool("cached", cached).
		Int("chars", utf8.RuneCountInString(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Coaching text generated")
	return Response{OK: true, Text: text}
}

func (s *Service) generate(ctx context.Context, req Request) (string, bool, error) {
	if s.completer == nil {
		return "", false, newError(ReasonNoAPIKey, "no API key configured", nil)
	}

	name := strings.TrimSpace(req.SupplementName)
	if name == "" || req.Fields == nil {
		return "", false, newError(ReasonBadInput, "supplement_name and fields are required", nil)
	}

	key := req.Fields.SupplementKey
	if key == "" {
		key = name
	}
	goals := MapGoals(req.SelectedGoals)

	msg, err := buildUserMessage(name, goals, *req.Fields, s.Augment(key))
	if err != nil {
		return "", false, newError(ReasonBadInput, "encode request", err)
	}

	cacheKey := s.cacheKey(msg)
	if req.Refresh {
		s.evict(ctx, cacheKey)
	} else if text, ok := s.cached(ctx, cacheKey); ok {
		return text, true, nil
	}

	text, err := s.completer.Complete(ctx, systemPrompt, msg)
	if err != nil {
		return "", false, newError(ReasonAPIError, "chat completion failed", err)
	}

	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) < s.cfg.MinTextLength {
		return "", false, newError(ReasonEmpty, "generated text too short", nil)
	}

	s.store(ctx, cacheKey, text)
	return text, false, nil
}

// Purge drops every cached coaching text. Entries are keyed by their inputs,
// so after a dataset reload the old ones can only go stale.
func (s *Service) Purge(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DeleteByPrefix(ctx, cachePrefix); err != nil {
		return fmt.Errorf("purge coach cache: %w", err)
	}
	s.logger.Info().Msg("Coach cache purged")
	return nil
}

// cacheKey hashes the model and the exact user message, so any change to
// the inputs or augmentation produces a new entry.
func (s *Service) cacheKey(msg string) string {
	sum := sha256.Sum256([]byte(s.cfg.Model + "\n" + msg))
	return cachePrefix + hex.EncodeToString(sum[:])
}

type cachedText struct {
	Text string `json:"text"`
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Coach cache read failed")
		}
		return "", false
	}
	var entry cachedText
	if err := json.Unmarshal(data, &entry); err != nil || entry.Text == "" {
		return "", false
	}
	return entry.Text, true
}

func (s *Service) evict(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Coach cache delete failed")
	}
}

func (s *Service) store(ctx context.Context, key, text string) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cachedText{Text: text})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Coach cache write failed")
	}
}

// GenerateBatch runs Generate for every request with at most limit calls in
// flight. Responses keep request order. progress, if set, is called once per
// finished request and may be called concurrently.
func (s *Service) GenerateBatch(ctx context.Context, reqs []Request, limit int, progress func(i int, resp Response)) []Response {
	if limit <= 0 {
		limit = s.cfg.BatchLimit
	}
	if limit <= 0 {
		limit = 1
	}

	out := make([]Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			out[i] = s.Generate(gctx, req)
			if progress != nil {
				progress(i, out[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
