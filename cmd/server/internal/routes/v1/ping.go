package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/buildathon/scoring-api/cmd/server/internal/error"
	servermiddleware "github.com/buildathon/scoring-api/cmd/server/internal/middleware"
	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/types"
)

func (h *Handler) Ping(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Ping")
	defer span.End()

	principal, ok := servermiddleware.CurrentPrincipal(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("principal.id", principal.ID.String()),
		attribute.String("principal.display_name", principal.DisplayName),
	)

	span.AddEvent("received ping")

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return response.OK(c, http.StatusOK, types.PingResponse{
		Status:      "ready",
		PrincipalID: principal.ID.String(),
		DisplayName: principal.DisplayName,
		Permissions: types.Permissions{
			Builder: principal.Permissions.Builder,
			Judge:   principal.Permissions.Judge,
			Admin:   principal.Permissions.Admin,
		},
	})
}
