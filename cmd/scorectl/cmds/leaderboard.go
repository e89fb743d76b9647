package cmds

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/pipeline"
	"github.com/buildathon/scoring-api/internal/types"
)

var (
	leaderboardChallenge string
	leaderboardLimit     int
	leaderboardJSON      bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the ranked leaderboard for a challenge",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "leaderboardCmd")
		defer span.End()

		challengeID, err := uuid.Parse(leaderboardChallenge)
		if err != nil {
			return fmt.Errorf("invalid --challenge: %w", err)
		}
		span.SetAttributes(
			attribute.String("challenge.id", challengeID.String()),
			attribute.Int("limit", leaderboardLimit),
		)

		_, db, err := connect(ctx)
		if err != nil {
			return err
		}

		entries, err := pipeline.NewLeaderboard(models.NewStore(db)).Top(ctx, challengeID, leaderboardLimit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to build leaderboard")
			return err
		}

		span.SetStatus(codes.Ok, "built leaderboard")
		return printLeaderboard(cmd.OutOrStdout(), entries, leaderboardJSON)
	},
}

func printLeaderboard(w io.Writer, entries []types.LeaderboardEntry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []types.LeaderboardEntry{}
		}
		return enc.Encode(entries)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tSCORE\tSTATUS\tSUBMISSION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", e.Rank, e.DisplayName, e.ScoreDisplay, e.Status, e.SubmissionID)
	}
	return tw.Flush()
}

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardChallenge, "challenge", "", "Challenge to rank")
	leaderboardCmd.Flags().IntVar(&leaderboardLimit, "limit", pipeline.DefaultLeaderboardLimit, "Number of entries to print")
	leaderboardCmd.Flags().BoolVar(&leaderboardJSON, "json", false, "Print JSON instead of a table")
	if err := leaderboardCmd.MarkFlagRequired("challenge"); err != nil {
		panic("Internal error contact a contributor [challenge-flag-required]")
	}
}
