package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0007, Down0007)
}

func Up0007(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
			CREATE TABLE judge_review (
				submission_id UUID PRIMARY KEY,
				FOREIGN KEY (submission_id) REFERENCES submission(id),
				judge_id UUID NOT NULL,
				FOREIGN KEY (judge_id) REFERENCES principal(id),
				delta_pct DOUBLE PRECISION NOT NULL CHECK (delta_pct >= -20 AND delta_pct <= 20),
				notes TEXT NOT NULL DEFAULT '',
				locked BOOLEAN NOT NULL DEFAULT FALSE,
				final_score DOUBLE PRECISION CHECK (final_score >= 0 AND final_score <= 100),
				locked_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`})
}

func Down0007(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `DROP TABLE judge_review;`})
}
