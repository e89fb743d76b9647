package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/types"
)

var (
	seedFile       string
	seedPrincipals bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load challenges and judge assignments from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "seedCmd")
		defer span.End()

		span.SetAttributes(
			attribute.String("file", seedFile),
			attribute.Bool("principals", seedPrincipals),
		)

		// parse before connecting so a bad file fails fast
		seed, err := types.ParseSeedFile(ctx, seedFile)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse seed file")
			return fmt.Errorf("failed to parse %s: %w", seedFile, err)
		}

		cfg, db, err := connect(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to connect")
			return err
		}

		if seedPrincipals {
			if err := models.LoadPrincipalsFromConfig(ctx, db, cfg.Principals); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to load principals")
				return fmt.Errorf("failed to load principals from config: %w", err)
			}
		}

		if err := models.Seed(ctx, db, seed); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to seed")
			return err
		}

		span.SetStatus(codes.Ok, "seeded")
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d challenges\n", len(seed.Challenges))
		return err
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to the seed YAML")
	seedCmd.Flags().BoolVar(&seedPrincipals, "principals", true, "Load principals from config first")
	if err := seedCmd.MarkFlagRequired("file"); err != nil {
		panic("Internal error contact a contributor [file-flag-required]")
	}
}
