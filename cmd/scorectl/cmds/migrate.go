package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/buildathon/scoring-api/internal/migrations"
)

var migrateDownTo int64

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateUpCmd")
		defer span.End()

		_, db, err := connect(ctx)
		if err != nil {
			return err
		}

		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
		return printVersion(cmd, db)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll the schema back to a version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateDownCmd")
		defer span.End()

		_, db, err := connect(ctx)
		if err != nil {
			return err
		}

		if err := migrations.Down(ctx, db, migrateDownTo); err != nil {
			return err
		}
		return printVersion(cmd, db)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateVersionCmd")
		defer span.End()

		_, db, err := connect(ctx)
		if err != nil {
			return err
		}
		return printVersion(cmd, db)
	},
}

func printVersion(cmd *cobra.Command, db *gorm.DB) error {
	version, err := migrations.Version(cmd.Context(), db)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return err
}

func init() {
	migrateDownCmd.Flags().Int64Var(&migrateDownTo, "to", 0, "Version to roll back to, 0 removes everything")
	if err := migrateDownCmd.MarkFlagRequired("to"); err != nil {
		panic("Internal error contact a contributor [to-flag-required]")
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
