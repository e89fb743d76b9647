package v1

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/buildathon/scoring-api/cmd/server/internal/error"
	servermiddleware "github.com/buildathon/scoring-api/cmd/server/internal/middleware"
	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/pipeline"
	"github.com/buildathon/scoring-api/internal/types"
)

// LockSubmission applies the calling judge's adjustment and finalizes the submission.
func (h *Handler) LockSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "LockSubmission")
	defer span.End()

	principal, ok := servermiddleware.CurrentPrincipal(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	var body types.JudgeLock
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
	span.SetAttributes(
		attribute.String("judge.id", principal.ID.String()),
		attribute.String("submission.id", submissionID.String()),
		attribute.Float64("delta_pct", *body.DeltaPct),
	)

	res, err := h.lockGate.Lock(ctx, pipeline.LockRequest{
		SubmissionID: submissionID,
		JudgeID:      principal.ID,
		DeltaPct:     *body.DeltaPct,
		Notes:        body.NotesMD,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to lock submission")
		return response.FromPipelineError(ctx, err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "locked submission")
	return response.OK(c, http.StatusOK, types.JudgeLockResponse{
		LockedAt:         res.LockedAt,
		SubmissionID:     res.SubmissionID.String(),
		Status:           res.Status,
		ProvisionalScore: res.ProvisionalScore,
		DeltaPct:         res.DeltaPct,
		FinalScore:       res.FinalScore,
	})
}
