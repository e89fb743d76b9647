// Package llm is the narrow client the rubric scorer uses to reach a generative model.
//
// Providers translate a Request into one SDK call. Cross-cutting behavior (rate limiting,
// per-request timeouts, metrics, tracing) is layered on with Middleware.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildathon/scoring-api/internal/config"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"

	DefaultMaxTokens = 1024
)

var (
	ErrEmptyAPIKey      = errors.New("llm api key is empty")
	ErrEmptyResponse    = errors.New("llm returned an empty response")
	ErrUnknownProvider  = errors.New("unknown llm provider")
	ErrNoResponseChoice = errors.New("llm returned no choices")
)

type Request struct {
	Temperature *float64
	Prompt      string
	System      string
	MaxTokens   int
	// JSON asks the provider for a JSON-only reply where the API supports it.
	JSON bool
}

type Response struct {
	Text      string
	Model     string
	TokensIn  int64
	TokensOut int64
}

//go:generate mockgen -destination ./mock/mock.go -package mock . Completer

type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Model() string
}

type Middleware func(Completer) Completer

// Chain wraps c so that the first middleware is the outermost.
func Chain(c Completer, mws ...Middleware) Completer {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the provider named in cfg without any middleware.
func New(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropic(cfg), nil
	case ProviderOpenAI:
		return newOpenAI(cfg), nil
	case ProviderGoogle:
		return newGoogle(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// FromConfig builds the configured provider and wraps it with tracing, metrics, rate
// limiting and a per-request timeout.
func FromConfig(ctx context.Context, cfg *config.LLMConfig, recorder RequestRecorder) (Completer, error) {
	base, err := New(ctx, ProviderConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	mws := []Middleware{TracingMiddleware(cfg.Provider)}
	if recorder != nil {
		mws = append(mws, MetricsMiddleware(cfg.Provider, recorder))
	}
	if cfg.RequestsPerMinute > 0 {
		mws = append(mws, RateLimitMiddleware(cfg.RequestsPerMinute, cfg.Burst))
	}
	if cfg.RequestTimeout > 0 {
		mws = append(mws, TimeoutMiddleware(cfg.RequestTimeout))
	}
	if cfg.MaxTokens > 0 {
		mws = append(mws, DefaultMaxTokensMiddleware(cfg.MaxTokens))
	}

	return Chain(base, mws...), nil
}

// RequestRecorder receives one observation per provider call.
type RequestRecorder interface {
	LLMRequest(provider, model string, d time.Duration, err error)
	LLMTokens(provider, model string, in, out int64)
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}
