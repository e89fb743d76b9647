package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/types"
)

func (h *Handler) Leaderboard(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Leaderboard")
	defer span.End()

	var query types.LeaderboardQuery
	if err := c.Bind(&query); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bind query")
		return response.NewError(types.ErrorCodeValidation, "malformed query")
	}

	if err := c.Validate(&query); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to validate query")
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	challengeID := uuid.MustParse(query.ChallengeID)
	span.SetAttributes(
		attribute.String("challenge.id", challengeID.String()),
		attribute.Int("limit", query.Limit),
	)

	entries, err := h.leaderboard.Top(ctx, challengeID, query.Limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build leaderboard")
		return response.FromPipelineError(ctx, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return response.OK(c, http.StatusOK, entries)
}
