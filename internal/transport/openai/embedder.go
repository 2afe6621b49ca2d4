// Package openai embeds patent text and search queries through an
// OpenAI-compatible embeddings endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
)

const defaultRetryBase = 250 * time.Millisecond

// Config holds the provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Provider   string
	// MaxRetries is the number of extra attempts after a rate limit, a 5xx or
	// a transport failure.
	MaxRetries int
	RetryBase  time.Duration
	Logger     *zap.Logger
}

// Embedder calls the provider one text at a time.
type Embedder struct {
	api       *openai.Client
	model     string
	dims      int
	provider  string
	retries   int
	retryBase time.Duration
	logger    *zap.Logger
}

// NewEmbedder builds an Embedder from cfg.
func NewEmbedder(cfg *Config) *Embedder {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	base := cfg.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		api:       openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		dims:      cfg.Dimensions,
		provider:  cfg.Provider,
		retries:   max(cfg.MaxRetries, 0),
		retryBase: base,
		logger:    logger,
	}
}

// Model returns the configured model name.
func (e *Embedder) Model() string { return e.model }

// Embed returns the vector for text. Every failure wraps
// domain.ErrEmbeddingProviderError.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.dims,
	}

	start := time.Now()
	var (
		resp openai.EmbeddingResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, err = e.api.CreateEmbeddings(ctx, req)
		if err == nil {
			break
		}
		kind, retry := classify(err)
		if !retry || attempt >= e.retries || ctx.Err() != nil {
			e.fail(kind)
			return domain.EmbeddingResult{}, describe(err)
		}
		wait := e.retryBase << attempt
		metrics.EmbeddingRetriesTotal.WithLabelValues(e.provider, e.model).Inc()
		e.logger.Debug("Retrying embedding request",
			zap.Int("attempt", attempt+1), zap.String("reason", kind), zap.Duration("wait", wait))
		select {
		case <-ctx.Done():
			e.fail("canceled")
			return domain.EmbeddingResult{}, fmt.Errorf("embedding retry: %w: %w", ctx.Err(), domain.ErrEmbeddingProviderError)
		case <-time.After(wait):
		}
	}

	if len(resp.Data) == 0 {
		e.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("provider returned no embedding: %w", domain.ErrEmbeddingProviderError)
	}
	vec := resp.Data[0].Embedding
	if e.dims > 0 && len(vec) != e.dims {
		e.fail("dimension_mismatch")
		return domain.EmbeddingResult{}, fmt.Errorf("provider returned %d dims, index expects %d: %w",
			len(vec), e.dims, domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(time.Since(start).Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, e.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, e.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (e *Embedder) fail(kind string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, kind).Inc()
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.api.ListModels(ctx); err != nil {
		return fmt.Errorf("embedding provider health: %w", err)
	}
	return nil
}

// classify names the failure for metrics and reports whether another
// attempt may succeed.
func classify(err error) (string, bool) {
	status := statusOf(err)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled", false
	case status == 0:
		return "transport", true
	case status == http.StatusTooManyRequests:
		return "rate_limited", true
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "auth", false
	case status >= 500:
		return "server", true
	default:
		return "bad_request", false
	}
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// describe keeps the provider's message and maps the error to the
// embedding provider sentinel.
func describe(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding provider %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrEmbeddingProviderError)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := detail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return fmt.Errorf("embedding provider %d: %s: %w",
			reqErr.HTTPStatusCode, msg, domain.ErrEmbeddingProviderError)
	}
	return fmt.Errorf("embedding provider unreachable: %v: %w", err, domain.ErrEmbeddingProviderError)
}

// detail reads the {"detail": "..."} body some compatible hosts return.
func detail(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &v) != nil {
		return ""
	}
	return v.Detail
}
