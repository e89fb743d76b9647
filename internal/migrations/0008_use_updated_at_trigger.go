package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0008, Down0008)
}

var touchedTables = []string{
	"principal",
	"challenge",
	"submission",
	"auto_score",
	"llm_score",
	"judge_review",
}

func Up0008(ctx context.Context, tx *sql.Tx) error {
	for _, table := range touchedTables {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TRIGGER touch_updated_at_trigger
BEFORE UPDATE ON %s
FOR EACH ROW EXECUTE PROCEDURE touch_updated_at();`,
			table))
		if err != nil {
			return err
		}
	}

	return nil
}

func Down0008(ctx context.Context, tx *sql.Tx) error {
	tables := slices.Clone(touchedTables)
	slices.Reverse(tables)
	for _, table := range tables {
		_, err := tx.ExecContext(
			ctx,
			fmt.Sprintf(`DROP TRIGGER touch_updated_at_trigger ON %s;`, table),
		)
		if err != nil {
			return err
		}
	}

	return nil
}
