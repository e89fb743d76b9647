// Package database opens the postgres connection shared by the server and scorectl.
package database

import (
	"context"
	"fmt"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"github.com/buildathon/scoring-api/internal/config"
	"github.com/buildathon/scoring-api/internal/logger"
)

const name = "github.com/buildathon/scoring-api/internal/database"

var tracer = otellib.Tracer(name)

// NewGormLogger routes gorm's logging through the application slog handler.
func NewGormLogger(cfg config.GormLogConfig) gormlogger.Interface {
	opts := []sloggorm.Option{
		sloggorm.WithHandler(slog.New(logger.Handler).Handler()),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Level)),
	}
	if cfg.TraceQueries {
		opts = append(opts, sloggorm.WithTraceAll())
	}
	return sloggorm.New(opts...)
}

// Open connects to postgres with the configured pool limits and installs the otel plugin.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	_, span := tracer.Start(ctx, "Open")
	defer span.End()

	db, err := gorm.Open(
		postgres.Open(cfg.PostgresDSN()),
		&gorm.Config{Logger: NewGormLogger(cfg.Logging.Gorm), TranslateError: true},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire underlying database connection")
		return nil, fmt.Errorf("failed to acquire underlying database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnectionTTL)

	span.AddEvent("initialized database connection")

	if err := db.Use(gormtracing.NewPlugin()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add otel plugin to gorm")
		return nil, fmt.Errorf("failed to add otel plugin to gorm: %w", err)
	}

	span.AddEvent("added the otel plugin to gorm")
	span.SetStatus(codes.Ok, "opened database")
	return db, nil
}
