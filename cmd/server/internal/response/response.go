// Package response renders every reply in the {ok, data} / {ok:false, error} envelope.
package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/pipeline"
	"github.com/buildathon/scoring-api/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError(types.ErrorCodeInternal, "something went wrong"),
	)
	NotFoundError = echo.NewHTTPError(
		http.StatusNotFound,
		types.StringError(types.ErrorCodeNotFound, "not found"),
	)
	UnauthorizedError = echo.NewHTTPError(
		http.StatusUnauthorized,
		types.StringError(types.ErrorCodeUnauthorized, "Unauthorized"),
	)
	ForbiddenError = echo.NewHTTPError(
		http.StatusForbidden,
		types.StringError(types.ErrorCodeForbidden, "Forbidden"),
	)
)

var statusForCode = map[types.ErrorCode]int{
	types.ErrorCodeValidation:   http.StatusBadRequest,
	types.ErrorCodeBadRequest:   http.StatusConflict,
	types.ErrorCodeNotFound:     http.StatusNotFound,
	types.ErrorCodeForbidden:    http.StatusForbidden,
	types.ErrorCodeUnauthorized: http.StatusUnauthorized,
	types.ErrorCodeRateLimited:  http.StatusTooManyRequests,
	types.ErrorCodeInternal:     http.StatusInternalServerError,
}

// StatusForCode is the HTTP status an error code is served with.
func StatusForCode(code types.ErrorCode) int {
	if status, ok := statusForCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// codeForStatus classifies errors raised by echo itself, which carry no code.
func codeForStatus(status int) types.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return types.ErrorCodeValidation
	case http.StatusUnauthorized:
		return types.ErrorCodeUnauthorized
	case http.StatusForbidden:
		return types.ErrorCodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return types.ErrorCodeNotFound
	case http.StatusConflict:
		return types.ErrorCodeBadRequest
	case http.StatusTooManyRequests:
		return types.ErrorCodeRateLimited
	default:
		return types.ErrorCodeInternal
	}
}

func NewError(code types.ErrorCode, message string) *echo.HTTPError {
	return echo.NewHTTPError(StatusForCode(code), types.StringError(code, message))
}

// FromPipelineError maps a pipeline error onto the API error codes. Anything unmapped is
// logged and served as a generic 500.
func FromPipelineError(ctx context.Context, err error) *echo.HTTPError {
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		return NewError(types.ErrorCodeValidation, err.Error())
	case errors.Is(err, pipeline.ErrNotFound):
		return NewError(types.ErrorCodeNotFound, err.Error())
	case errors.Is(err, pipeline.ErrForbidden):
		return NewError(types.ErrorCodeForbidden, err.Error())
	case errors.Is(err, pipeline.ErrStateConflict):
		return NewError(types.ErrorCodeBadRequest, err.Error())
	default:
		logger.Logger.ErrorContext(ctx, "pipeline operation failed", "error", err)
		return InternalServerError
	}
}

func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, types.Success(data))
}

// ErrorHandler is the echo HTTPErrorHandler. Handlers return *echo.HTTPError carrying a
// types.Error; anything else is rendered as an internal error and logged.
func ErrorHandler(l *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := types.StringError(types.ErrorCodeInternal, "something went wrong")

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case types.Error:
				body = msg
			case *types.Error:
				body = *msg
			case string:
				body = types.StringError(codeForStatus(status), msg)
			default:
				body = types.StringError(codeForStatus(status), http.StatusText(status))
			}
		} else {
			l.ErrorContext(c.Request().Context(), "unhandled error", "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, types.Failure(body))
		}
		if err != nil {
			l.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
		}
	}
}
