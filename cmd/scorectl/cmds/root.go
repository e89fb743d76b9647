package cmds

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/buildathon/scoring-api/internal/config"
	"github.com/buildathon/scoring-api/internal/database"
)

var tracer = otel.Tracer("github.com/buildathon/scoring-api/scorectl")

var rootCmd = &cobra.Command{
	Use:           "scorectl",
	Short:         "Operator commands for the scoring API database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// connect loads the same config the server uses and opens its database.
func connect(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, rescoreCmd, leaderboardCmd)
}
