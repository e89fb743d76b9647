package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildathon/scoring-api/internal/scoring"
)

type Challenge struct {
	Title string
	Model
	Rubric scoring.Rubric `gorm:"type:jsonb;serializer:json"`
}

func (Challenge) TableName() string {
	return "challenge"
}

func (c Challenge) GetID() uuid.UUID {
	return c.ID
}

func (c Challenge) ForScoring() scoring.Challenge {
	return scoring.Challenge{Title: c.Title, Rubric: c.Rubric}
}

// JudgeAssignment grants a judge authority over every submission to a challenge.
type JudgeAssignment struct {
	CreatedAt   time.Time
	JudgeID     uuid.UUID `gorm:"primaryKey"`
	ChallengeID uuid.UUID `gorm:"primaryKey"`
}

func (JudgeAssignment) TableName() string {
	return "judge_assignment"
}

// AssignJudge is idempotent.
func AssignJudge(ctx context.Context, db *gorm.DB, judgeID, challengeID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "AssignJudge")
	defer span.End()

	span.SetAttributes(
		attribute.String("judge.id", judgeID.String()),
		attribute.String("challenge.id", challengeID.String()),
	)

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&JudgeAssignment{JudgeID: judgeID, ChallengeID: challengeID}).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to assign judge")
		return fmt.Errorf("failed to assign judge: %w", err)
	}

	span.SetStatus(codes.Ok, "assigned judge")
	return nil
}
