package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/buildathon/scoring-api/internal/llm"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/metrics"
)

var tracer = otel.Tracer("github.com/buildathon/scoring-api/internal/scoring")

const (
	FallbackTag   = "[fallback]"
	FallbackModel = "heuristic/writeup-length"

	// fallback scores are discounted below an honest evaluation
	fallbackDiscount = 0.75
	fallbackRawCap   = 40.0
	fallbackRunesPer = 100.0
)

var (
	errEmptyReply = errors.New("empty reply")
	errNoJSON     = errors.New("no json object in reply")
)

const replySchema = `{
	"type": "object",
	"required": ["problem_fit", "tech_depth", "ux_flow", "impact", "rationale"],
	"properties": {
		"problem_fit": {"type": "number"},
		"tech_depth": {"type": "number"},
		"ux_flow": {"type": "number"},
		"impact": {"type": "number"},
		"rationale": {"type": "string"}
	}
}`

var replyValidator = jsonschema.MustCompileString("llm_reply.json", replySchema)

type LLMResult struct {
	Rationale string
	Model     string
	SubScores
	Score    float64
	Attempts int
	Fallback bool
}

// RetryPolicy bounds how often the model is asked. Backoff is called once per Score and
// returns the delay schedule between attempts; MaxAttempts caps it.
type RetryPolicy struct {
	Backoff     func() retry.Backoff
	MaxAttempts uint64
}

func DefaultRetryPolicy(baseDelay time.Duration, maxAttempts uint64) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func() retry.Backoff {
			return retry.NewExponential(baseDelay)
		},
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	var b retry.Backoff
	if p.Backoff != nil {
		b = p.Backoff()
	} else {
		b = retry.NewConstant(0)
	}
	return retry.WithMaxRetries(attempts-1, b)
}

// AttemptRecorder is satisfied by *metrics.Metrics.
type AttemptRecorder interface {
	LLMAttempt(outcome string)
	LLMFallback()
}

type LLMScorer struct {
	completer llm.Completer
	recorder  AttemptRecorder
	policy    RetryPolicy
}

func NewLLMScorer(completer llm.Completer, policy RetryPolicy, recorder AttemptRecorder) *LLMScorer {
	return &LLMScorer{completer: completer, policy: policy, recorder: recorder}
}

type llmReply struct {
	Rationale string `json:"rationale"`
	SubScores
}

type attemptError struct {
	err     error
	outcome string
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// Score asks the model for a rubric score and never fails: when every attempt fails, or
// ctx ends first, it returns the writeup length heuristic with Fallback set.
func (s *LLMScorer) Score(ctx context.Context, ch Challenge, a Artifacts) LLMResult {
	ctx, span := tracer.Start(ctx, "LLMScorer.Score")
	defer span.End()

	req := llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(ch, a),
		Temperature: ptr(0.0),
		JSON:        true,
	}

	var (
		attempts int
		reply    llmReply
		model    string
	)

	err := retry.Do(ctx, s.policy.backoff(), func(ctx context.Context) error {
		attempts++
		span.AddEvent("attempt", traceAttempt(attempts))

		parsed, replyModel, err := s.attempt(ctx, req)
		if err != nil {
			var ae *attemptError
			if errors.As(err, &ae) {
				s.recordAttempt(ae.outcome)
			}
			logger.Logger.WarnContext(ctx, "llm scoring attempt failed",
				"attempt", attempts, "error", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}

		s.recordAttempt(metrics.OutcomeOK)
		reply = parsed
		model = replyModel
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.AddEvent("fallback", trace.WithAttributes(attribute.Int("attempts", attempts)))
		span.SetAttributes(attribute.Bool("score.fallback", true))
		span.SetStatus(codes.Ok, "")
		logger.Logger.WarnContext(ctx, "llm scoring fell back to heuristic",
			"attempts", attempts, "error", err)
		if s.recorder != nil {
			s.recorder.LLMFallback()
		}
		return fallback(a, attempts)
	}

	sub := reply.SubScores.Clamp()
	sub = SubScores{
		ProblemFit: Round2(sub.ProblemFit),
		TechDepth:  Round2(sub.TechDepth),
		UXFlow:     Round2(sub.UXFlow),
		Impact:     Round2(sub.Impact),
	}
	if model == "" {
		model = s.completer.Model()
	}

	span.SetAttributes(attribute.Bool("score.fallback", false))
	span.SetStatus(codes.Ok, "")
	return LLMResult{
		SubScores: sub,
		Score:     clamp(Round2(sub.Total()), 0, MaxLLMScore),
		Rationale: strings.TrimSpace(reply.Rationale),
		Model:     model,
		Attempts:  attempts,
	}
}

func (s *LLMScorer) attempt(ctx context.Context, req llm.Request) (llmReply, string, error) {
	resp, err := s.completer.Complete(ctx, req)
	if err != nil {
		return llmReply{}, "", &attemptError{err: fmt.Errorf("llm call: %w", err), outcome: metrics.OutcomeCallError}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return llmReply{}, "", &attemptError{err: errEmptyReply, outcome: metrics.OutcomeEmpty}
	}

	raw := extractJSON(resp.Text)
	if raw == "" {
		return llmReply{}, "", &attemptError{err: errNoJSON, outcome: metrics.OutcomeNoJSON}
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return llmReply{}, "", &attemptError{err: fmt.Errorf("%w: %w", errNoJSON, err), outcome: metrics.OutcomeNoJSON}
	}
	if err := replyValidator.Validate(doc); err != nil {
		return llmReply{}, "", &attemptError{err: fmt.Errorf("reply schema: %w", err), outcome: metrics.OutcomeSchema}
	}

	var reply llmReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return llmReply{}, "", &attemptError{err: fmt.Errorf("decode reply: %w", err), outcome: metrics.OutcomeSchema}
	}

	return reply, resp.Model, nil
}

func (s *LLMScorer) recordAttempt(outcome string) {
	if s.recorder != nil {
		s.recorder.LLMAttempt(outcome)
	}
}

// fallback spreads a discounted writeup length score over the dimensions in proportion
// to their maxima. Each dimension is rounded down so the sum never rounds up.
func fallback(a Artifacts, attempts int) LLMResult {
	runes := utf8.RuneCountInString(strings.TrimSpace(a.WriteupMD))
	raw := math.Min(float64(runes)/fallbackRunesPer, fallbackRawCap)
	total := raw * fallbackDiscount

	sub := SubScores{
		ProblemFit: floor2(total * MaxProblemFit / MaxLLMScore),
		TechDepth:  floor2(total * MaxTechDepth / MaxLLMScore),
		UXFlow:     floor2(total * MaxUXFlow / MaxLLMScore),
		Impact:     floor2(total * MaxImpact / MaxLLMScore),
	}.Clamp()

	return LLMResult{
		SubScores: sub,
		Score:     Round2(sub.Total()),
		Rationale: fmt.Sprintf(
			"%s Model scoring unavailable after %d attempt(s); heuristic score from a %d character writeup.",
			FallbackTag, attempts, runes,
		),
		Model:    FallbackModel,
		Attempts: attempts,
		Fallback: true,
	}
}

func IsFallbackRationale(rationale string) bool {
	return strings.HasPrefix(rationale, FallbackTag)
}

func traceAttempt(n int) trace.EventOption {
	return trace.WithAttributes(attribute.Int("attempt", n))
}

func ptr[T any](v T) *T {
	return &v
}

var _ AttemptRecorder = (*metrics.Metrics)(nil)
