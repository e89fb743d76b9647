package llm

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/buildathon/scoring-api/internal/llm")

type completerFunc struct {
	complete func(ctx context.Context, req Request) (Response, error)
	model    func() string
}

func (f completerFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f.complete(ctx, req)
}

func (f completerFunc) Model() string { return f.model() }

// RateLimitMiddleware shares one token bucket across every request through the wrapped
// completer. Waiting honours ctx cancellation.
func RateLimitMiddleware(perMinute int, burst int) Middleware {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)

	return func(next Completer) Completer {
		return completerFunc{
			complete: func(ctx context.Context, req Request) (Response, error) {
				if err := limiter.Wait(ctx); err != nil {
					return Response{}, fmt.Errorf("rate limit: %w", err)
				}
				return next.Complete(ctx, req)
			},
			model: next.Model,
		}
	}
}

func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Completer) Completer {
		return completerFunc{
			complete: func(ctx context.Context, req Request) (Response, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				return next.Complete(ctx, req)
			},
			model: next.Model,
		}
	}
}

// DefaultMaxTokensMiddleware fills in MaxTokens when the caller left it unset.
func DefaultMaxTokensMiddleware(tokens int) Middleware {
	return func(next Completer) Completer {
		return completerFunc{
			complete: func(ctx context.Context, req Request) (Response, error) {
				if req.MaxTokens <= 0 {
					req.MaxTokens = tokens
				}
				return next.Complete(ctx, req)
			},
			model: next.Model,
		}
	}
}

func MetricsMiddleware(provider string, recorder RequestRecorder) Middleware {
	return func(next Completer) Completer {
		return completerFunc{
			complete: func(ctx context.Context, req Request) (Response, error) {
				start := time.Now()
				resp, err := next.Complete(ctx, req)
				recorder.LLMRequest(provider, next.Model(), time.Since(start), err)
				if err == nil {
					recorder.LLMTokens(provider, next.Model(), resp.TokensIn, resp.TokensOut)
				}
				return resp, err
			},
			model: next.Model,
		}
	}
}

func TracingMiddleware(provider string) Middleware {
	return func(next Completer) Completer {
		return completerFunc{
			complete: func(ctx context.Context, req Request) (Response, error) {
				ctx, span := tracer.Start(ctx, "Complete")
				defer span.End()

				span.SetAttributes(
					attribute.String("llm.provider", provider),
					attribute.String("llm.model", next.Model()),
					attribute.Int("llm.prompt_chars", len(req.Prompt)),
				)

				resp, err := next.Complete(ctx, req)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, "llm request failed")
					return resp, err
				}

				span.SetAttributes(
					attribute.Int64("llm.tokens_in", resp.TokensIn),
					attribute.Int64("llm.tokens_out", resp.TokensOut),
				)
				span.SetStatus(codes.Ok, "")
				return resp, nil
			},
			model: next.Model,
		}
	}
}
