// Package pipeline coordinates scoring, judge locking and the leaderboard on top of the
// persistent store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/buildathon/scoring-api/internal/metrics"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/taskrunner"
)

const name = "github.com/buildathon/scoring-api/internal/pipeline"

var tracer = otel.Tracer(name)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrStateConflict = errors.New("state conflict")
)

// PersistenceError wraps a store failure. Callers may retry the whole operation; every
// write it performs is keyed by submission id.
type PersistenceError struct {
	Err error
	Op  string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// notFoundOr maps a missing record to ErrNotFound and anything else to a PersistenceError.
func notFoundOr(op, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return persistence(op, err)
}

// Store is the subset of [models.Store] the pipeline reads and writes.
type Store interface {
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	MarkScoring(ctx context.Context, id uuid.UUID) error
	SaveScores(ctx context.Context, auto *models.AutoScore, llm *models.LLMScore) error
	IsAssignedJudge(ctx context.Context, judgeID, challengeID uuid.UUID) (bool, error)
	LockReview(ctx context.Context, submissionID uuid.UUID, build models.ReviewFunc) (*models.JudgeReview, error)
	LeaderboardRows(ctx context.Context, challengeID uuid.UUID) ([]models.LeaderboardRow, error)
}

// LLMScorer produces a rubric score. It must not fail; see [scoring.LLMScorer].
type LLMScorer interface {
	Score(ctx context.Context, ch scoring.Challenge, a scoring.Artifacts) scoring.LLMResult
}

type Runner interface {
	Run(ctx context.Context, taskName string, task taskrunner.Task)
}

type Recorder interface {
	ScoringRun(result string, d time.Duration)
	JudgeLock(result string)
}

// outcome labels an error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, ErrStateConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
