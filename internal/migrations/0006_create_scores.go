package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0006, Down0006)
}

func Up0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
			CREATE TABLE auto_score (
				submission_id UUID PRIMARY KEY,
				FOREIGN KEY (submission_id) REFERENCES submission(id),
				score_auto INTEGER NOT NULL CHECK (score_auto IN (0, 5, 10, 15, 20)),
				has_repo BOOLEAN NOT NULL,
				has_deck BOOLEAN NOT NULL,
				has_demo BOOLEAN NOT NULL,
				has_writeup BOOLEAN NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
			CREATE TABLE llm_score (
				submission_id UUID PRIMARY KEY,
				FOREIGN KEY (submission_id) REFERENCES submission(id),
				score_llm DOUBLE PRECISION NOT NULL CHECK (score_llm >= 0 AND score_llm <= 60),
				problem_fit DOUBLE PRECISION NOT NULL CHECK (problem_fit >= 0 AND problem_fit <= 15),
				tech_depth DOUBLE PRECISION NOT NULL CHECK (tech_depth >= 0 AND tech_depth <= 20),
				ux_flow DOUBLE PRECISION NOT NULL CHECK (ux_flow >= 0 AND ux_flow <= 15),
				impact DOUBLE PRECISION NOT NULL CHECK (impact >= 0 AND impact <= 10),
				rationale TEXT NOT NULL,
				model TEXT NOT NULL,
				fallback BOOLEAN NOT NULL DEFAULT FALSE,
				attempts INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`})
}

func Down0006(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE llm_score;`},
		statement{query: `DROP TABLE auto_score;`})
}
