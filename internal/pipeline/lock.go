package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/internal/audit"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

type LockRequest struct {
	Notes        string
	DeltaPct     float64
	SubmissionID uuid.UUID
	JudgeID      uuid.UUID
}

type LockResult struct {
	LockedAt         time.Time
	Status           types.SubmissionStatus
	ProvisionalScore float64
	DeltaPct         float64
	FinalScore       float64
	SubmissionID     uuid.UUID
}

type LockGateOptions struct {
	Recorder Recorder
	Clock    func() time.Time
	// MinNotesChars rejects shorter notes when positive.
	MinNotesChars int
}

// LockGate finalizes a submission with a judge's bounded adjustment.
type LockGate struct {
	store    Store
	recorder Recorder
	now      func() time.Time
	minNotes int
}

func NewLockGate(store Store, opts LockGateOptions) *LockGate {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &LockGate{
		store:    store,
		recorder: opts.Recorder,
		now:      now,
		minNotes: opts.MinNotesChars,
	}
}

// Lock checks, in order, that the submission exists, that the judge is assigned to its
// challenge and that it is PROVISIONAL, then validates the request. The review and the
// FINAL status are written in one transaction that rejects any earlier locked review.
func (g *LockGate) Lock(ctx context.Context, req LockRequest) (LockResult, error) {
	ctx, span := tracer.Start(ctx, "LockGate.Lock")
	defer span.End()

	span.SetAttributes(
		attribute.String("submission.id", req.SubmissionID.String()),
		attribute.String("judge.id", req.JudgeID.String()),
		attribute.Float64("delta_pct", req.DeltaPct),
	)

	res, challengeID, err := g.lock(ctx, req)
	if g.recorder != nil {
		g.recorder.JudgeLock(outcome(err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to lock submission")
		return LockResult{}, err
	}

	judgeID := req.JudgeID.String()
	audit.LogSubmissionLocked(
		audit.Context{UserID: &judgeID, SubmissionID: req.SubmissionID.String(), ChallengeID: challengeID},
		judgeID, res.ProvisionalScore, res.DeltaPct, res.FinalScore,
	)

	span.SetAttributes(attribute.Float64("score.final", res.FinalScore))
	span.SetStatus(codes.Ok, "locked submission")
	return res, nil
}

func (g *LockGate) lock(ctx context.Context, req LockRequest) (LockResult, string, error) {
	submission, err := g.store.GetSubmission(ctx, req.SubmissionID)
	if err != nil {
		return LockResult{}, "", notFoundOr("load submission", "submission", err)
	}
	challengeID := submission.ChallengeID.String()

	assigned, err := g.store.IsAssignedJudge(ctx, req.JudgeID, submission.ChallengeID)
	if err != nil {
		return LockResult{}, challengeID, persistence("check judge assignment", err)
	}
	if !assigned {
		return LockResult{}, challengeID, fmt.Errorf("%w: judge is not assigned to this challenge", ErrForbidden)
	}

	if submission.Status != types.SubmissionStatusProvisional {
		return LockResult{}, challengeID, fmt.Errorf(
			"%w: submission is %s, must be %s",
			ErrStateConflict, submission.Status, types.SubmissionStatusProvisional,
		)
	}

	if err := g.validate(req); err != nil {
		return LockResult{}, challengeID, err
	}

	lockedAt := g.now().UTC()
	var provisional, final float64
	_, err = g.store.LockReview(ctx, req.SubmissionID, func(auto models.AutoScore, llm models.LLMScore) (*models.JudgeReview, error) {
		provisional = scoring.Provisional(auto.ScoreAuto, llm.ScoreLLM)
		final = scoring.Round2(scoring.Final(provisional, req.DeltaPct))
		return &models.JudgeReview{
			JudgeID:    req.JudgeID,
			DeltaPct:   req.DeltaPct,
			Notes:      req.Notes,
			Locked:     true,
			FinalScore: models.NewNullFromData(final),
			LockedAt:   models.NewNullFromData(lockedAt),
		}, nil
	})
	switch {
	case errors.Is(err, models.ErrStatusMismatch), errors.Is(err, models.ErrAlreadyLocked):
		return LockResult{}, challengeID, fmt.Errorf("%w: %w", ErrStateConflict, err)
	case err != nil:
		return LockResult{}, challengeID, persistence("lock review", err)
	}

	return LockResult{
		SubmissionID:     req.SubmissionID,
		Status:           types.SubmissionStatusFinal,
		ProvisionalScore: scoring.Round2(provisional),
		DeltaPct:         req.DeltaPct,
		FinalScore:       final,
		LockedAt:         lockedAt,
	}, challengeID, nil
}

func (g *LockGate) validate(req LockRequest) error {
	if !scoring.ValidDelta(req.DeltaPct) {
		return fmt.Errorf(
			"%w: delta_pct must be within [%g, %g]",
			ErrValidation, scoring.MinDeltaPct, scoring.MaxDeltaPct,
		)
	}
	if g.minNotes > 0 && utf8.RuneCountInString(req.Notes) < g.minNotes {
		return fmt.Errorf("%w: notes_md must be at least %d characters", ErrValidation, g.minNotes)
	}
	return nil
}
