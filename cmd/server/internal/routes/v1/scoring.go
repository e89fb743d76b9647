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

// TriggerScoring runs the scoring pipeline synchronously and answers with the stored scores.
func (h *Handler) TriggerScoring(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "TriggerScoring")
	defer span.End()

	var body types.ScoringTrigger
	if err := c.Bind(&body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bind request body")
		return response.NewError(types.ErrorCodeValidation, "malformed request body")
	}

	if err := c.Validate(&body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to validate request body")
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	submissionID := uuid.MustParse(body.SubmissionID)
	span.SetAttributes(attribute.String("submission.id", submissionID.String()))

	out, err := h.orchestrator.Score(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to score submission")
		return response.FromPipelineError(ctx, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "scored submission")
	return response.OK(c, http.StatusOK, types.ScoringTriggerResponse{
		SubmissionID: out.SubmissionID.String(),
		Status:       out.Status,
		ScoreAuto:    out.ScoreAuto,
		ScoreLLM:     out.ScoreLLM,
		Fallback:     out.Fallback,
	})
}
