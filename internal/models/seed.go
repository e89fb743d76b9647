package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

// Seed upserts the challenges in the file and assigns their judges. Judges must already
// be loaded as principals. Existing assignments are never removed.
func Seed(ctx context.Context, db *gorm.DB, seed *types.SeedFile) error {
	ctx, span := tracer.Start(ctx, "Seed")
	defer span.End()

	challenges := make([]*Challenge, 0, len(seed.Challenges))
	var assignments []*JudgeAssignment
	for _, sc := range seed.Challenges {
		id, err := uuid.Parse(sc.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error parsing challenge id")
			return fmt.Errorf("challenge %q: %w", sc.ID, err)
		}

		challenges = append(challenges, &Challenge{
			Model: Model{ID: id},
			Title: sc.Title,
			Rubric: scoring.Rubric{
				Description: sc.Rubric.Description,
				Weights:     sc.Rubric.Weights,
			},
		})

		for _, rawJudge := range sc.Judges {
			judgeID, err := uuid.Parse(rawJudge)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "error parsing judge id")
				return fmt.Errorf("challenge %q judge %q: %w", sc.ID, rawJudge, err)
			}
			assignments = append(assignments, &JudgeAssignment{JudgeID: judgeID, ChallengeID: id})
		}
	}

	span.SetAttributes(
		attribute.Int("challenges", len(challenges)),
		attribute.Int("assignments", len(assignments)),
	)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(challenges) != 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "rubric", "updated_at"}),
			}).Create(challenges).Error
			if err != nil {
				return fmt.Errorf("failed to upsert challenges: %w", err)
			}
		}

		if len(assignments) != 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(assignments).Error
			if err != nil {
				return fmt.Errorf("failed to assign judges: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seed")
		return err
	}

	span.SetStatus(codes.Ok, "seeded challenges")
	return nil
}
