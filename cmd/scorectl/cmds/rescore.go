package cmds

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/internal/exiterr"
	"github.com/buildathon/scoring-api/internal/llm"
	"github.com/buildathon/scoring-api/internal/models"
	"github.com/buildathon/scoring-api/internal/pipeline"
	"github.com/buildathon/scoring-api/internal/scoring"
	"github.com/buildathon/scoring-api/internal/types"
)

var errPartialRescore = errors.New("some submissions failed to rescore")

var (
	rescoreChallenge   string
	rescoreStatuses    []string
	rescoreConcurrency int
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Score submissions again, skipping any that are FINAL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "rescoreCmd")
		defer span.End()

		statuses, err := parseStatuses(rescoreStatuses)
		if err != nil {
			return err
		}

		var challengeID *uuid.UUID
		if rescoreChallenge != "" {
			id, err := uuid.Parse(rescoreChallenge)
			if err != nil {
				return fmt.Errorf("invalid --challenge: %w", err)
			}
			challengeID = &id
			span.SetAttributes(attribute.String("challenge.id", id.String()))
		}

		cfg, db, err := connect(ctx)
		if err != nil {
			return err
		}

		completer, err := llm.FromConfig(ctx, cfg.LLM, nil)
		if err != nil {
			return fmt.Errorf("failed to construct llm client: %w", err)
		}

		store := models.NewStore(db)
		ids, err := store.SubmissionIDs(ctx, challengeID, statuses)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to list submissions")
			return err
		}

		scorer := scoring.NewLLMScorer(
			completer,
			scoring.DefaultRetryPolicy(cfg.Scoring.BaseDelay, cfg.Scoring.MaxAttempts),
			nil,
		)
		orchestrator := pipeline.NewOrchestrator(store, scorer, pipeline.OrchestratorOptions{
			LLMTimeout: cfg.Scoring.Timeout,
		})

		report := orchestrator.Rescore(ctx, ids, rescoreConcurrency)
		if err := printReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}

		if len(report.Failed) != 0 {
			span.SetStatus(codes.Error, "partial rescore")
			return exiterr.Wrap(exiterr.CodePartial, errPartialRescore)
		}
		span.SetStatus(codes.Ok, "rescored")
		return nil
	},
}

func parseStatuses(raw []string) ([]types.SubmissionStatus, error) {
	statuses := make([]types.SubmissionStatus, 0, len(raw))
	for _, r := range raw {
		status := types.SubmissionStatus(strings.ToUpper(strings.TrimSpace(r)))
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", r)
		}
		if status == types.SubmissionStatusFinal {
			return nil, errors.New("FINAL submissions cannot be rescored")
		}
		if !slices.Contains(statuses, status) {
			statuses = append(statuses, status)
		}
	}
	if len(statuses) == 0 {
		return nil, errors.New("at least one status is required")
	}
	return statuses, nil
}

func printReport(w io.Writer, report pipeline.RescoreReport) error {
	if _, err := fmt.Fprintf(w, "scored %d, skipped %d, failed %d\n",
		len(report.Scored), len(report.Skipped), len(report.Failed)); err != nil {
		return err
	}

	failed := make([]uuid.UUID, 0, len(report.Failed))
	for id := range report.Failed {
		failed = append(failed, id)
	}
	slices.SortFunc(failed, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })

	for _, id := range failed {
		if _, err := fmt.Fprintf(w, "failed %s: %s\n", id, report.Failed[id]); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rescoreCmd.Flags().StringVar(&rescoreChallenge, "challenge", "", "Only rescore submissions to this challenge")
	rescoreCmd.Flags().StringSliceVar(
		&rescoreStatuses,
		"status",
		[]string{
			string(types.SubmissionStatusQueued),
			string(types.SubmissionStatusScoring),
			string(types.SubmissionStatusProvisional),
		},
		"Statuses to rescore",
	)
	rescoreCmd.Flags().IntVar(&rescoreConcurrency, "concurrency", 4, "Scoring runs in flight at once")
}
