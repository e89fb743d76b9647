package middleware

import (
	"context"
	"errors"
	"os"
	"reflect"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/models"
)

// PrincipalKey is the echo context key holding the authenticated *models.Principal.
const PrincipalKey = "principal"

// Used when doing a fake compare in the error case of BasicAuthValidator
var defaultHashForError string

const name string = "github.com/buildathon/scoring-api/server/middleware"

var tracer = otel.Tracer(name)

type Handler struct {
	DB *gorm.DB
}

func init() {
	var err error

	defaultHashForError, err = argon2id.CreateHash(
		"Wq1pZt0Xx3eJmK2bqk7Fh9r0o8y6vN4cLs5dHg1uTa2iPe3wBz9yQv==",
		argon2id.DefaultParams,
	)
	if err != nil {
		logger.Logger.Error("error creating default hash", "error", err)
		os.Exit(1)
	}
}

// Does a fake hash and compare so unknown principals cost as much as known ones.
func fakePasswordHash(ctx context.Context) {
	_, span := tracer.Start(ctx, "fakePasswordHash")
	defer span.End()

	_, err := argon2id.ComparePasswordAndHash("i am a very real password", defaultHashForError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compare fake password with default hash for error")
		return
	}

	span.AddEvent("compared fake password and default hash for error")
}

// Queries a nonexistent principal. Used when BasicAuthValidator is given an invalid UUID.
func fakeDBQuery(ctx context.Context, db *gorm.DB) {
	ctx, span := tracer.Start(ctx, "fakeDBQuery")
	defer span.End()

	_, err := models.ByID[models.Principal](ctx, db, uuid.New())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make fake db query")
		return
	}

	span.AddEvent("completed database query for fake id")
}

// Validates basic auth credentials against the principal table
func (h *Handler) BasicAuthValidator(rawID, token string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "BasicAuthValidator")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.SetAttributes(attribute.String("id.raw", rawID))

	id, err := uuid.Parse(rawID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse rawID as a uuid")
		fakeDBQuery(ctx, db)
		fakePasswordHash(ctx)
		return false, nil
	}

	span.SetAttributes(attribute.String("id.parsed", id.String()))

	span.AddEvent("getting principal by id")
	principal, err := models.ByID[models.Principal](ctx, db, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db error when searching for principal")

		fakePasswordHash(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ok because Ok > Error
			span.SetStatus(codes.Ok, "principal not found")
			return false, nil
		}

		return false, response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("display_name", principal.DisplayName),
		attribute.Bool("active.valid", principal.Active.Valid),
		attribute.Bool("active.value", principal.Active.V),
	)

	span.AddEvent("checking hash")
	comparison, oldParams, err := argon2id.CheckHash(token, principal.Token)
	// All expensive ops have been performed that may result in a forbidden
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check token")
		return false, response.InternalServerError
	}

	if !principal.Active.Valid || !principal.Active.V {
		span.AddEvent("principal is not active")
		return false, nil
	}

	if comparison && !reflect.DeepEqual(oldParams, argon2id.DefaultParams) {
		span.AddEvent("rehashing token with the current params")
		newHash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create new hash for token")
			return false, response.InternalServerError
		}

		err = db.Model(principal).Update("token", newHash).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save new hash to the database")
			return false, response.InternalServerError
		}
	}

	if comparison {
		span.AddEvent("successful login attempt")
		c.Set(PrincipalKey, principal)
	} else {
		span.AddEvent("failed login attempt")
	}

	return comparison, nil
}

// CurrentPrincipal returns the principal BasicAuthValidator stored on the context.
func CurrentPrincipal(c echo.Context) (*models.Principal, bool) {
	principal, ok := c.Get(PrincipalKey).(*models.Principal)
	return principal, ok
}
