// Package migrations holds the goose Go migrations for the scoring schema. Versions come
// from the numeric file name prefix.
package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/buildathon/scoring-api/internal/migrations")

func Up(ctx context.Context, db *gorm.DB) error {
	ctx, span := tracer.Start(ctx, "Up")
	defer span.End()

	rawDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bring migrations up")
		return err
	}

	if err := goose.SetDialect("postgres"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set migration dialect")
		return err
	}

	err = goose.UpContext(ctx, rawDB, ".")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bring migrations up")
		return err
	}

	span.AddEvent("migrated_up")

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "brought migrations up")
	return nil
}

// Down rolls back to the given version. Zero removes every migration.
func Down(ctx context.Context, db *gorm.DB, version int64) error {
	ctx, span := tracer.Start(ctx, "Down")
	defer span.End()

	rawDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bring migrations down")
		return err
	}

	err = goose.DownToContext(ctx, rawDB, ".", version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bring migrations down")
		return err
	}

	span.SetStatus(codes.Ok, "brought migrations down")
	return nil
}

func Version(ctx context.Context, db *gorm.DB) (int64, error) {
	rawDB, err := db.DB()
	if err != nil {
		return 0, err
	}

	return goose.GetDBVersionContext(ctx, rawDB)
}

type statement struct {
	query string
	args  []any
}

func execStatements(ctx context.Context, tx *sql.Tx, statements ...statement) error {
	for _, statement := range statements {
		_, err := tx.ExecContext(ctx, statement.query, statement.args...)
		if err != nil {
			return err
		}
	}

	return nil
}
