package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	servermiddleware "github.com/buildathon/scoring-api/cmd/server/internal/middleware"
	"github.com/buildathon/scoring-api/cmd/server/internal/routes"
	routesv1 "github.com/buildathon/scoring-api/cmd/server/internal/routes/v1"
	"github.com/buildathon/scoring-api/internal/config"
	"github.com/buildathon/scoring-api/internal/database"
	"github.com/buildathon/scoring-api/internal/llm"
	"github.com/buildathon/scoring-api/internal/logger"
	"github.com/buildathon/scoring-api/internal/metrics"
	"github.com/buildathon/scoring-api/internal/migrations"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/otel"
	"github.com/buildathon/scoring-api/internal/pipeline"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/taskrunner"
)

const name string = "github.com/buildathon/scoring-api/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	taskRunner   *taskrunner.Client
	otelShutdown func(context.Context) error
}

// deps are the pieces of the API that tests swap out.
type deps struct {
	db        *gorm.DB
	config    *config.Config
	completer llm.Completer
	metrics   *metrics.Metrics
	runner    pipeline.Runner
	gatherer  prometheus.Gatherer
}

func buildRouter(d deps) (*echo.Echo, error) {
	store := models.NewStore(d.db)

	scorer := scoring.NewLLMScorer(
		d.completer,
		scoring.DefaultRetryPolicy(d.config.Scoring.BaseDelay, d.config.Scoring.MaxAttempts),
		d.metrics,
	)
	orchestrator := pipeline.NewOrchestrator(store, scorer, pipeline.OrchestratorOptions{
		Runner:     d.runner,
		Recorder:   d.metrics,
		LLMTimeout: d.config.Scoring.Timeout,
	})
	lockGate := pipeline.NewLockGate(store, pipeline.LockGateOptions{
		Recorder:      d.metrics,
		MinNotesChars: d.config.Judging.MinNotesChars,
	})
	leaderboard := pipeline.NewLeaderboard(store)

	e, err := routes.BuildEcho(logger.Logger, d.gatherer)
	if err != nil {
		return nil, fmt.Errorf("error building router: %w", err)
	}

	middlewareHandler := servermiddleware.Handler{DB: d.db}
	v1Handler := routesv1.NewHandler(d.db, store, orchestrator, lockGate, leaderboard, d.config)
	v1Handler.AddRoutes(e, &middlewareHandler)

	return e, nil
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, otel.ExporterFor(cfg.Logging.UseOTLP), "scoring-api")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	if err = logger.InitSlog(cfg.Logging.App.Level); err != nil {
		logger.Logger.Warn("falling back to debug logging", "error", err)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open database")
		return nil, err
	}

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to preform database migrations")
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	span.AddEvent("migrated database to latest version")

	if err = models.LoadPrincipalsFromConfig(ctx, db, cfg.Principals); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load principals from config")
		return nil, fmt.Errorf("failed to load principals from config: %w", err)
	}

	span.AddEvent("loaded principals from config")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	completer, err := llm.FromConfig(ctx, cfg.LLM, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct llm client")
		return nil, fmt.Errorf("failed to construct llm client: %w", err)
	}

	span.AddEvent("initialized llm client")

	taskRunnerClient := taskrunner.Create()

	e, err := buildRouter(deps{
		db:        db,
		config:    cfg,
		completer: completer,
		metrics:   m,
		runner:    taskRunnerClient,
		gatherer:  registry,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, err
	}

	span.AddEvent("created echo router")

	server.otelShutdown = shutdownOTel
	server.router = e
	server.db = db
	server.taskRunner = taskRunnerClient

	return server, nil
}

func (s *server) Start() error {
	logger.Logger.Info("Starting services...", "address", s.config.ListenAddress)

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests before waiting on background scoring runs.
func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if err := s.taskRunner.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to shutdown taskRunner gracefully: %w", err))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		errs = errors.Join(errs, sqlDB.Close())
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
