package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0004, Down0004)
}

func Up0004(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
			CREATE TABLE challenge (
				id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
				title TEXT NOT NULL,
				rubric JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
			CREATE TABLE judge_assignment (
				judge_id UUID NOT NULL,
				FOREIGN KEY (judge_id) REFERENCES principal(id),
				challenge_id UUID NOT NULL,
				FOREIGN KEY (challenge_id) REFERENCES challenge(id),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				PRIMARY KEY (judge_id, challenge_id)
);`})
}

func Down0004(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE judge_assignment;`},
		statement{query: `DROP TABLE challenge;`})
}
