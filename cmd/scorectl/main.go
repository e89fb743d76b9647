package main

import (
	"context"
	"os"
	"strconv"

	"github.com/buildathon/scoring-api/cmd/scorectl/cmds"
	"github.com/buildathon/scoring-api/internal/exiterr"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/otel"
)

func runApp(ctx context.Context) int {
	exporter := otel.ExporterNone
	if raw := os.Getenv("SCORINGAPI_LOGGING_USE_OTLP"); raw != "" {
		useOTLP, err := strconv.ParseBool(raw)
		if err != nil {
			logger.Logger.Warn("SCORINGAPI_LOGGING_USE_OTLP env var is invalid", "error", err)
		} else if useOTLP {
			exporter = otel.ExporterOTLP
		}
	}

	shutdown, err := otel.SetupOTelSDK(ctx, exporter, "scorectl")
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk", "error", err)
	} else {
		defer func() {
			if fail := shutdown(ctx); fail != nil {
				logger.Logger.Warn("no clean shutdown for otel", "error", fail)
			}
		}()
	}

	err = cmds.Execute(ctx)
	if err != nil {
		logger.Logger.Error("error executing subcommands", "error", err)
	}

	return exiterr.Code(err)
}

func main() {
	if err := logger.InitSlog(os.Getenv("SCORINGAPI_LOGGING_APP_LEVEL")); err != nil {
		logger.Logger.Warn("falling back to debug logging", "error", err)
	}

	os.Exit(runApp(context.Background()))
}
