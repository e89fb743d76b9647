package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/buildathon/scoring-api/internal/audit"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

type Outcome struct {
	Model        string
	Status       types.SubmissionStatus
	ScoreAuto    int
	ScoreLLM     float64
	Attempts     int
	Fallback     bool
	SubmissionID uuid.UUID
}

type OrchestratorOptions struct {
	// Runner is only used by Trigger.
	Runner   Runner
	Recorder Recorder
	// LLMTimeout bounds the rubric call including retries. When it expires the
	// heuristic fallback is stored. Zero means no bound.
	LLMTimeout time.Duration
}

// Orchestrator runs both scorers for a submission and stores the result.
type Orchestrator struct {
	store    Store
	scorer   LLMScorer
	runner   Runner
	recorder Recorder
	timeout  time.Duration
	flight   singleflight.Group
}

func NewOrchestrator(store Store, scorer LLMScorer, opts OrchestratorOptions) *Orchestrator {
	return &Orchestrator{
		store:    store,
		scorer:   scorer,
		runner:   opts.Runner,
		recorder: opts.Recorder,
		timeout:  opts.LLMTimeout,
	}
}

// Score scores a submission and moves it to PROVISIONAL. Concurrent calls for the same
// submission share one run. It fails with ErrNotFound, ErrStateConflict when the
// submission is FINAL, or a *PersistenceError.
//
// The shared run is detached from every caller's cancellation and is bounded only by
// LLMTimeout. A caller whose ctx ends gets ctx.Err() while the run carries on.
func (o *Orchestrator) Score(ctx context.Context, submissionID uuid.UUID) (Outcome, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := o.flight.DoChan(submissionID.String(), func() (any, error) {
		return o.score(runCtx, submissionID)
	})

	select {
	case <-ctx.Done():
		logger.Logger.DebugContext(runCtx, "caller left in-flight scoring run", "submissionID", submissionID)
		return Outcome{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Logger.DebugContext(ctx, "joined in-flight scoring run", "submissionID", submissionID)
		}
		if res.Err != nil {
			return Outcome{}, res.Err
		}
		return res.Val.(Outcome), nil
	}
}

// Trigger starts scoring in the background and returns at once. Failures are logged.
func (o *Orchestrator) Trigger(ctx context.Context, submissionID uuid.UUID) {
	o.runner.Run(ctx, "score-submission", func(ctx context.Context) error {
		_, err := o.Score(ctx, submissionID)
		if err != nil {
			return fmt.Errorf("scoring submission %s: %w", submissionID, err)
		}
		return nil
	})
}

func (o *Orchestrator) score(ctx context.Context, submissionID uuid.UUID) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Score")
	defer span.End()

	start := time.Now()
	span.SetAttributes(attribute.String("submission.id", submissionID.String()))

	out, challengeID, err := o.run(ctx, submissionID)
	o.record(outcome(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to score submission")

		var pe *PersistenceError
		if errors.As(err, &pe) {
			audit.LogScoringFailed(audit.Context{
				SubmissionID: submissionID.String(),
				ChallengeID:  challengeID,
			}, err.Error())
		}
		return Outcome{}, err
	}

	audit.LogSubmissionScored(
		audit.Context{SubmissionID: submissionID.String(), ChallengeID: challengeID},
		out.Status, out.ScoreAuto, out.ScoreLLM, out.Model, out.Attempts, out.Fallback,
	)

	span.SetAttributes(
		attribute.Int("score.auto", out.ScoreAuto),
		attribute.Float64("score.llm", out.ScoreLLM),
		attribute.Bool("score.fallback", out.Fallback),
	)
	span.SetStatus(codes.Ok, "scored submission")
	return out, nil
}

func (o *Orchestrator) run(ctx context.Context, submissionID uuid.UUID) (Outcome, string, error) {
	submission, err := o.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Outcome{}, "", notFoundOr("load submission", "submission", err)
	}
	challengeID := submission.ChallengeID.String()

	if submission.Status == types.SubmissionStatusFinal {
		return Outcome{}, challengeID, fmt.Errorf("%w: submission is FINAL", ErrStateConflict)
	}

	challenge, err := o.store.GetChallenge(ctx, submission.ChallengeID)
	if err != nil {
		return Outcome{}, challengeID, notFoundOr("load challenge", "challenge", err)
	}

	if err := o.store.MarkScoring(ctx, submissionID); err != nil {
		return Outcome{}, challengeID, persistence("mark submission scoring", err)
	}

	artifacts := submission.Artifacts()

	var (
		autoRes scoring.AutoResult
		llmRes  scoring.LLMResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		autoRes = scoring.AutoScore(artifacts)
		return nil
	})
	g.Go(func() error {
		llmCtx := gctx
		if o.timeout > 0 {
			var cancel context.CancelFunc
			llmCtx, cancel = context.WithTimeout(gctx, o.timeout)
			defer cancel()
		}
		llmRes = o.scorer.Score(llmCtx, challenge.ForScoring(), artifacts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Outcome{}, challengeID, err
	}

	err = o.store.SaveScores(ctx,
		models.NewAutoScore(submissionID, autoRes),
		models.NewLLMScore(submissionID, llmRes),
	)
	if errors.Is(err, models.ErrSubmissionFinal) {
		return Outcome{}, challengeID, fmt.Errorf("%w: submission locked while scoring", ErrStateConflict)
	}
	if err != nil {
		return Outcome{}, challengeID, persistence("save scores", err)
	}

	return Outcome{
		SubmissionID: submissionID,
		Status:       types.SubmissionStatusProvisional,
		ScoreAuto:    autoRes.Score,
		ScoreLLM:     llmRes.Score,
		Model:        llmRes.Model,
		Attempts:     llmRes.Attempts,
		Fallback:     llmRes.Fallback,
	}, challengeID, nil
}

func (o *Orchestrator) record(result string, d time.Duration) {
	if o.recorder != nil {
		o.recorder.ScoringRun(result, d)
	}
}
