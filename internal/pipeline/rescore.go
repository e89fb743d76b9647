package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/buildathon/scoring-api/internal/logger"
)

type RescoreReport struct {
	Failed  map[uuid.UUID]error
	Scored  []Outcome
	Skipped []uuid.UUID
}

// Rescore scores every listed submission with at most concurrency runs at a time.
// Submissions that became FINAL are skipped. One failure does not stop the batch.
func (o *Orchestrator) Rescore(ctx context.Context, ids []uuid.UUID, concurrency int) RescoreReport {
	ctx, span := tracer.Start(ctx, "Orchestrator.Rescore")
	defer span.End()

	if concurrency < 1 {
		concurrency = 1
	}
	span.SetAttributes(
		attribute.Int("submissions", len(ids)),
		attribute.Int("concurrency", concurrency),
	)

	report := RescoreReport{Failed: map[uuid.UUID]error{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		g.Go(func() error {
			out, err := o.Score(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Scored = append(report.Scored, out)
			case errors.Is(err, ErrStateConflict):
				report.Skipped = append(report.Skipped, id)
			default:
				logger.Logger.WarnContext(gctx, "rescore failed", "submissionID", id, "error", err)
				report.Failed[id] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("scored", len(report.Scored)),
		attribute.Int("skipped", len(report.Skipped)),
		attribute.Int("failed", len(report.Failed)),
	)
	if len(report.Failed) != 0 {
		span.SetStatus(codes.Error, "some submissions failed to rescore")
	} else {
		span.SetStatus(codes.Ok, "rescored submissions")
	}
	return report
}
