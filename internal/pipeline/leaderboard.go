package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

const (
	DefaultLeaderboardLimit = 100
	MaxLeaderboardLimit     = 500
)

type Leaderboard struct {
	store Store
}

func NewLeaderboard(store Store) *Leaderboard {
	return &Leaderboard{store: store}
}

// Top ranks the scored submissions of a challenge, computed live from the stored score
// records. A locked review's final score wins over the provisional blend. Ties fall back
// to the earlier submission, then the lower id. A zero limit means the default.
func (l *Leaderboard) Top(ctx context.Context, challengeID uuid.UUID, limit int) ([]types.LeaderboardEntry, error) {
	ctx, span := tracer.Start(ctx, "Leaderboard.Top")
	defer span.End()

	span.SetAttributes(
		attribute.String("challenge.id", challengeID.String()),
		attribute.Int("limit", limit),
	)

	if limit < 0 || limit > MaxLeaderboardLimit {
		err := fmt.Errorf("%w: limit must be within [0, %d]", ErrValidation, MaxLeaderboardLimit)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid limit")
		return nil, err
	}
	if limit == 0 {
		limit = DefaultLeaderboardLimit
	}

	rows, err := l.store.LeaderboardRows(ctx, challengeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read leaderboard rows")
		return nil, persistence("read leaderboard", err)
	}

	entries := make([]types.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row))
	}

	slices.SortStableFunc(entries, compareEntries)

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	span.SetStatus(codes.Ok, "built leaderboard")
	return entries, nil
}

func entryFromRow(row models.LeaderboardRow) types.LeaderboardEntry {
	var (
		scoreAuto int
		scoreLLM  float64
	)
	if row.ScoreAuto != nil {
		scoreAuto = *row.ScoreAuto
	}
	if row.ScoreLLM != nil {
		scoreLLM = *row.ScoreLLM
	}

	display := scoring.Provisional(scoreAuto, scoreLLM)
	if row.Locked != nil && *row.Locked && row.FinalScore != nil {
		display = *row.FinalScore
	}

	displayName := row.UserID.String()
	if row.DisplayName != nil && *row.DisplayName != "" {
		displayName = *row.DisplayName
	}

	return types.LeaderboardEntry{
		SubmissionID: row.SubmissionID.String(),
		UserID:       row.UserID.String(),
		DisplayName:  displayName,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt,
		ScoreAuto:    scoreAuto,
		ScoreLLM:     scoreLLM,
		ScoreDisplay: scoring.Round2(display),
	}
}

func compareEntries(a, b types.LeaderboardEntry) int {
	switch {
	case a.ScoreDisplay > b.ScoreDisplay:
		return -1
	case a.ScoreDisplay < b.ScoreDisplay:
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.SubmissionID, b.SubmissionID)
}
