package middleware

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/models"
)

// Checks that all `needed` permissions are present on `has`
func hasPermission(
	ctx context.Context,
	needed *models.Permissions,
	has *models.Permissions,
	l *slog.Logger,
) bool {
	ctx, span := tracer.Start(ctx, "hasPermission")
	defer span.End()

	l.DebugContext(ctx, "comparing permissions", "needed", *needed, "has", *has)

	// Reflection so a new permission field can't be silently skipped here.
	valNeeded := reflect.Indirect(reflect.ValueOf(needed))
	valHas := reflect.Indirect(reflect.ValueOf(has))

	for i := range valNeeded.NumField() {
		fieldNeeded := valNeeded.Field(i)
		fieldHas := valHas.Field(i)

		if fieldNeeded.Kind() != reflect.Bool || fieldHas.Kind() != reflect.Bool {
			l.WarnContext(ctx, "non boolean fields on permissions skipping")
			continue
		}

		if fieldNeeded.Bool() && !fieldHas.Bool() {
			l.DebugContext(ctx, "missing permission", "permission", valNeeded.Type().Field(i).Name)
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "missing permission")
			return false
		}
	}

	l.DebugContext(ctx, "granting access")
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "granting access")
	return true
}

// The authenticated principal must hold every permission set to true on `permissions`
func HasPermissions(permissions *models.Permissions) echo.MiddlewareFunc {
	l := logger.Logger.With("permissions", permissions)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "HasPermissions", trace.WithAttributes(
				attribute.String("principalKey", PrincipalKey),
			))
			defer span.End()

			principal, ok := CurrentPrincipal(c)
			if !ok {
				l.WarnContext(ctx, "failed to get principal")
				span.RecordError(nil)
				span.SetStatus(codes.Error, "failed to get principal")
				return response.UnauthorizedError
			}

			if !hasPermission(ctx, permissions, &principal.Permissions, l) {
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "forbidden")
				return response.ForbiddenError
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "checked permissions")
			return next(c)
		}
	}
}
