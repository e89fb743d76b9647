package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	servermiddleware "github.com/buildathon/scoring-api/cmd/server/internal/middleware"
	"github.com/buildathon/scoring-api/cmd/server/internal/response"
	"github.com/buildathon/scoring-api/internal/validator"
)

func BuildEcho(logger *slog.Logger, gatherer prometheus.Gatherer) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate
	e.HTTPErrorHandler = response.ErrorHandler(logger)

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware("scoring-api"),
		slogecho.NewWithConfig(logger, slogecho.Config{}),
		middleware.Recover(),
		servermiddleware.Time(servermiddleware.TimeKey),
	)

	e.GET("/health/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if gatherer != nil {
		e.GET("/metrics/", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return e, nil
}
