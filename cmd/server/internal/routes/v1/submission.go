package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	srverr "github.com/buildathon/scoring-api/cmd/server/internal/error"
	servermiddleware "github.com/buildathon/scoring-api/cmd/server/internal/middleware"
	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/audit"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

func (h *Handler) CreateSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateSubmission")
	defer span.End()

	principal, ok := servermiddleware.CurrentPrincipal(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}
	span.SetAttributes(attribute.String("principal.id", principal.ID.String()))

	var body types.SubmissionCreate
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

	challengeID := uuid.MustParse(body.ChallengeID)
	span.SetAttributes(attribute.String("challenge.id", challengeID.String()))

	span.AddEvent("checking challenge exists")
	if _, err := h.store.GetChallenge(ctx, challengeID); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "challenge not found")
			return response.NewError(types.ErrorCodeNotFound, "challenge not found")
		}
		span.SetStatus(codes.Error, "failed to load challenge")
		return response.InternalServerError
	}

	submission := models.Submission{
		Model:       models.Model{CreatedAt: servermiddleware.RequestTime(c)},
		ChallengeID: challengeID,
		UserID:      principal.ID,
		RepoURL:     models.NewNull(body.RepoURL),
		DeckURL:     models.NewNull(body.DeckURL),
		DemoURL:     models.NewNull(body.DemoURL),
		WriteupMD:   models.NewNull(body.WriteupMD),
	}

	span.AddEvent("creating submission")
	if err := h.store.CreateSubmission(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		logger.Logger.ErrorContext(ctx, "failed to create submission", "error", err)
		return response.InternalServerError
	}

	userID := principal.ID.String()
	artifacts := submission.Artifacts()
	audit.LogSubmissionCreated(
		audit.Context{
			UserID:       &userID,
			SubmissionID: submission.ID.String(),
			ChallengeID:  challengeID.String(),
		},
		submission.Status,
		artifacts.RepoURL != "",
		artifacts.DeckURL != "",
		artifacts.DemoURL != "",
		artifacts.WriteupMD != "",
	)

	span.AddEvent("queueing scoring")
	h.orchestrator.Trigger(ctx, submission.ID)

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return response.OK(c, http.StatusOK, types.SubmissionCreateResponse{
		SubmissionID: submission.ID.String(),
		Status:       submission.Status,
	})
}

// Builders see their own submissions. Judges and admins see every submission.
func (h *Handler) GetSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetSubmission")
	defer span.End()

	principal, ok := servermiddleware.CurrentPrincipal(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	submission, ok := c.Get("submission").(*models.Submission)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("principal.id", principal.ID.String()),
		attribute.String("submission.id", submission.ID.String()),
	)

	if submission.UserID != principal.ID &&
		!principal.Permissions.Judge && !principal.Permissions.Admin {
		span.AddEvent("submission belongs to another builder")
		span.SetStatus(codes.Ok, "hidden submission")
		return response.NotFoundError
	}

	body := types.SubmissionResponse{
		SubmissionID: submission.ID.String(),
		ChallengeID:  submission.ChallengeID.String(),
		UserID:       submission.UserID.String(),
		Status:       submission.Status,
		RepoURL:      models.PtrFromNull(submission.RepoURL),
		DeckURL:      models.PtrFromNull(submission.DeckURL),
		DemoURL:      models.PtrFromNull(submission.DemoURL),
		WriteupMD:    models.PtrFromNull(submission.WriteupMD),
		CreatedAt:    submission.CreatedAt,
	}

	span.AddEvent("loading scores")
	auto, llmScore, err := h.store.GetScores(ctx, submission.ID)
	switch {
	case err == nil:
		body.Scores = scoresResponse(auto, llmScore)
	case errors.Is(err, gorm.ErrRecordNotFound):
		span.AddEvent("not scored yet")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load scores")
		logger.Logger.ErrorContext(ctx, "failed to load scores", "submissionID", submission.ID, "error", err)
		return response.InternalServerError
	}

	if submission.Status == types.SubmissionStatusFinal {
		span.AddEvent("loading review")
		review, err := h.store.GetReview(ctx, submission.ID)
		switch {
		case err == nil:
			body.Review = &types.SubmissionReview{
				JudgeID:    review.JudgeID.String(),
				NotesMD:    review.Notes,
				DeltaPct:   review.DeltaPct,
				Locked:     review.Locked,
				FinalScore: models.PtrFromNull(review.FinalScore),
				LockedAt:   models.PtrFromNull(review.LockedAt),
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			span.AddEvent("final without review")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load review")
			logger.Logger.ErrorContext(ctx, "failed to load review", "submissionID", submission.ID, "error", err)
			return response.InternalServerError
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return response.OK(c, http.StatusOK, body)
}

func scoresResponse(auto *models.AutoScore, llmScore *models.LLMScore) *types.SubmissionScores {
	return &types.SubmissionScores{
		ScoreAuto:        auto.ScoreAuto,
		ScoreLLM:         llmScore.ScoreLLM,
		ProvisionalScore: scoring.Round2(scoring.Provisional(auto.ScoreAuto, llmScore.ScoreLLM)),
		ProblemFit:       llmScore.ProblemFit,
		TechDepth:        llmScore.TechDepth,
		UXFlow:           llmScore.UXFlow,
		Impact:           llmScore.Impact,
		Rationale:        llmScore.Rationale,
		Model:            llmScore.Model,
		Attempts:         llmScore.Attempts,
		Fallback:         llmScore.Fallback,
		HasRepo:          auto.HasRepo,
		HasDeck:          auto.HasDeck,
		HasDemo:          auto.HasDemo,
		HasWriteup:       auto.HasWriteup,
	}
}
