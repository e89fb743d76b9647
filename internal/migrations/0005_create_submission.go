package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0005, Down0005)
}

func Up0005(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
			CREATE TABLE submission (
				id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
				challenge_id UUID NOT NULL,
				FOREIGN KEY (challenge_id) REFERENCES challenge(id),
				user_id UUID NOT NULL,
				FOREIGN KEY (user_id) REFERENCES principal(id),
				status TEXT NOT NULL DEFAULT 'QUEUED'
					CHECK (status IN ('QUEUED', 'SCORING', 'PROVISIONAL', 'FINAL')),
				repo_url TEXT,
				deck_url TEXT,
				demo_url TEXT,
				writeup_md TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE INDEX submission_challenge_status_idx ON submission (challenge_id, status);`})
}

func Down0005(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx, statement{query: `DROP TABLE submission;`})
}
