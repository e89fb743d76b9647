package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0003, Down0003)
}

func Up0003(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
			CREATE TABLE principal (
				id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
				token TEXT NOT NULL,
				display_name TEXT NOT NULL,
				permissions JSONB NOT NULL DEFAULT '{}'::jsonb,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`})
}

func Down0003(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `DROP TABLE principal;`})
}
