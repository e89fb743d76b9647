package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildathon/scoring-api/internal/types"
)

var (
	// ErrSubmissionFinal is returned when a write would touch a FINAL submission.
	ErrSubmissionFinal = errors.New("submission is final")
	// ErrStatusMismatch is returned when a submission is not in the status a write requires.
	ErrStatusMismatch = errors.New("submission status does not allow this transition")
	// ErrAlreadyLocked is returned when a locked judge review already exists.
	ErrAlreadyLocked = errors.New("judge review already locked")
	// ErrScoresMissing is returned when a PROVISIONAL submission has no stored scores.
	ErrScoresMissing = errors.New("stored scores missing")
)

// Store is the persistence used by the scoring pipeline. Keyed writes are upserts so a
// repeated call after a failure is safe.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return ByID[Submission](ctx, s.db, id)
}

func (s *Store) GetChallenge(ctx context.Context, id uuid.UUID) (*Challenge, error) {
	return ByID[Challenge](ctx, s.db, id)
}

func (s *Store) CreateSubmission(ctx context.Context, submission *Submission) error {
	ctx, span := tracer.Start(ctx, "Store.CreateSubmission")
	defer span.End()

	submission.Status = types.SubmissionStatusQueued
	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		return fmt.Errorf("failed to create submission: %w", err)
	}

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))
	span.SetStatus(codes.Ok, "created submission")
	return nil
}

// MarkScoring moves a QUEUED submission to SCORING. Any other status is left alone.
func (s *Store) MarkScoring(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Store.MarkScoring")
	defer span.End()

	err := s.db.WithContext(ctx).
		Model(&Submission{}).
		Where("id = ? AND status = ?", id, types.SubmissionStatusQueued).
		Update("status", types.SubmissionStatusScoring).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark submission scoring")
		return fmt.Errorf("failed to mark submission scoring: %w", err)
	}

	span.SetStatus(codes.Ok, "marked submission scoring")
	return nil
}

// SaveScores upserts both score records and moves the submission to PROVISIONAL in one
// transaction. The submission row is locked first, so a concurrent judge lock either
// sees the new scores or makes this call fail with ErrSubmissionFinal.
func (s *Store) SaveScores(ctx context.Context, auto *AutoScore, llm *LLMScore) error {
	ctx, span := tracer.Start(ctx, "Store.SaveScores")
	defer span.End()

	span.SetAttributes(attribute.String("submission.id", auto.SubmissionID.String()))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submission, err := lockSubmission(tx, auto.SubmissionID)
		if err != nil {
			return err
		}
		if !submission.Status.CanAdvanceTo(types.SubmissionStatusProvisional) {
			return ErrSubmissionFinal
		}

		span.AddEvent("upserting auto score")
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score_auto", "has_repo", "has_deck", "has_demo", "has_writeup", "updated_at",
			}),
		}).Create(auto).Error
		if err != nil {
			return fmt.Errorf("failed to upsert auto score: %w", err)
		}

		span.AddEvent("upserting llm score")
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score_llm", "problem_fit", "tech_depth", "ux_flow", "impact",
				"rationale", "model", "fallback", "attempts", "updated_at",
			}),
		}).Create(llm).Error
		if err != nil {
			return fmt.Errorf("failed to upsert llm score: %w", err)
		}

		span.AddEvent("advancing status")
		err = tx.Model(&Submission{}).
			Where("id = ? AND status <> ?", auto.SubmissionID, types.SubmissionStatusFinal).
			Update("status", types.SubmissionStatusProvisional).Error
		if err != nil {
			return fmt.Errorf("failed to set submission provisional: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save scores")
		return err
	}

	span.SetStatus(codes.Ok, "saved scores")
	return nil
}

func (s *Store) GetScores(ctx context.Context, submissionID uuid.UUID) (*AutoScore, *LLMScore, error) {
	ctx, span := tracer.Start(ctx, "Store.GetScores")
	defer span.End()

	db := s.db.WithContext(ctx)

	var auto AutoScore
	if err := db.First(&auto, "submission_id = ?", submissionID).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get auto score")
		return nil, nil, err
	}

	var llm LLMScore
	if err := db.First(&llm, "submission_id = ?", submissionID).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get llm score")
		return nil, nil, err
	}

	return &auto, &llm, nil
}

// GetReview returns the judge review for a submission, gorm.ErrRecordNotFound if none.
func (s *Store) GetReview(ctx context.Context, submissionID uuid.UUID) (*JudgeReview, error) {
	ctx, span := tracer.Start(ctx, "Store.GetReview")
	defer span.End()

	var review JudgeReview
	if err := s.db.WithContext(ctx).First(&review, "submission_id = ?", submissionID).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get judge review")
		return nil, err
	}

	span.SetStatus(codes.Ok, "got judge review")
	return &review, nil
}

func (s *Store) IsAssignedJudge(ctx context.Context, judgeID, challengeID uuid.UUID) (bool, error) {
	return Exists[JudgeAssignment](
		ctx, s.db,
		"judge_id = ? AND challenge_id = ?", judgeID, challengeID,
	)
}

// ReviewFunc builds the review from the scores read inside the lock transaction.
type ReviewFunc func(auto AutoScore, llm LLMScore) (*JudgeReview, error)

// LockReview writes a locked judge review and moves the submission to FINAL in one
// transaction. The submission must be PROVISIONAL and have no locked review.
func (s *Store) LockReview(ctx context.Context, submissionID uuid.UUID, build ReviewFunc) (*JudgeReview, error) {
	ctx, span := tracer.Start(ctx, "Store.LockReview")
	defer span.End()

	span.SetAttributes(attribute.String("submission.id", submissionID.String()))

	var review *JudgeReview
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submission, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if submission.Status != types.SubmissionStatusProvisional {
			return fmt.Errorf("%w: status is %s", ErrStatusMismatch, submission.Status)
		}

		var locked int64
		err = tx.Model(&JudgeReview{}).
			Where("submission_id = ? AND locked", submissionID).
			Count(&locked).Error
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if locked > 0 {
			return ErrAlreadyLocked
		}

		var auto AutoScore
		if err := tx.First(&auto, "submission_id = ?", submissionID).Error; err != nil {
			return fmt.Errorf("%w: auto score: %w", ErrScoresMissing, err)
		}
		var llm LLMScore
		if err := tx.First(&llm, "submission_id = ?", submissionID).Error; err != nil {
			return fmt.Errorf("%w: llm score: %w", ErrScoresMissing, err)
		}

		review, err = build(auto, llm)
		if err != nil {
			return err
		}
		review.SubmissionID = submissionID

		span.AddEvent("upserting judge review")
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"judge_id", "delta_pct", "notes", "locked", "final_score", "locked_at", "updated_at",
			}),
		}).Create(review).Error
		if err != nil {
			return fmt.Errorf("failed to upsert judge review: %w", err)
		}

		span.AddEvent("finalizing submission")
		err = tx.Model(&Submission{}).
			Where("id = ?", submissionID).
			Update("status", types.SubmissionStatusFinal).Error
		if err != nil {
			return fmt.Errorf("failed to set submission final: %w", err)
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to lock review")
		return nil, err
	}

	span.SetStatus(codes.Ok, "locked review")
	return review, nil
}

func lockSubmission(tx *gorm.DB, id uuid.UUID) (*Submission, error) {
	var submission Submission
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&submission, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

type LeaderboardRow struct {
	CreatedAt    time.Time              `gorm:"column:created_at"`
	DisplayName  *string                `gorm:"column:display_name"`
	ScoreAuto    *int                   `gorm:"column:score_auto"`
	ScoreLLM     *float64               `gorm:"column:score_llm"`
	Locked       *bool                  `gorm:"column:locked"`
	FinalScore   *float64               `gorm:"column:final_score"`
	Status       types.SubmissionStatus `gorm:"column:status"`
	SubmissionID uuid.UUID              `gorm:"column:submission_id"`
	UserID       uuid.UUID              `gorm:"column:user_id"`
}

// LeaderboardRows joins every scored submission of a challenge with its score records
// and review, oldest first.
func (s *Store) LeaderboardRows(ctx context.Context, challengeID uuid.UUID) ([]LeaderboardRow, error) {
	ctx, span := tracer.Start(ctx, "Store.LeaderboardRows")
	defer span.End()

	span.SetAttributes(attribute.String("challenge.id", challengeID.String()))

	var rows []LeaderboardRow
	err := s.db.WithContext(ctx).
		Table("submission AS s").
		Select(`s.id AS submission_id, s.user_id, p.display_name, s.status, s.created_at,
			a.score_auto, l.score_llm, r.locked, r.final_score`).
		Joins("LEFT JOIN principal p ON p.id = s.user_id").
		Joins("LEFT JOIN auto_score a ON a.submission_id = s.id").
		Joins("LEFT JOIN llm_score l ON l.submission_id = s.id").
		Joins("LEFT JOIN judge_review r ON r.submission_id = s.id").
		Where("s.challenge_id = ?", challengeID).
		Where("s.status IN ?", []types.SubmissionStatus{
			types.SubmissionStatusProvisional,
			types.SubmissionStatusFinal,
		}).
		Order("s.created_at ASC, s.id ASC").
		Scan(&rows).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read leaderboard rows")
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	span.SetStatus(codes.Ok, "read leaderboard rows")
	return rows, nil
}

// SubmissionIDs lists submissions in the given statuses, optionally for one challenge.
func (s *Store) SubmissionIDs(
	ctx context.Context,
	challengeID *uuid.UUID,
	statuses []types.SubmissionStatus,
) ([]uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "Store.SubmissionIDs")
	defer span.End()

	query := s.db.WithContext(ctx).Model(&Submission{}).Where("status IN ?", statuses)
	if challengeID != nil {
		query = query.Where("challenge_id = ?", *challengeID)
	}

	var ids []uuid.UUID
	if err := query.Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return ids, nil
}
