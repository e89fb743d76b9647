// Package taskrunner runs detached background work, such as scoring triggered by a new
// submission, and lets the server wait for it on shutdown.
package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/buildathon/scoring-api/internal/logger"
)

const name = "github.com/buildathon/scoring-api/internal/taskrunner"

var tracer = otel.Tracer(name)

var ErrShutdownTimeout = errors.New("error shutting down in time")

// Task is a unit of background work. A returned error is logged and otherwise dropped.
type Task func(ctx context.Context) error

// Client wraps a [sync.WaitGroup] so tasks can be awaited, with a deadline, on shutdown.
type Client struct {
	running  sync.WaitGroup
	inFlight atomic.Int64
}

func Create() *Client {
	return &Client{}
}

// Run starts task in its own goroutine and returns immediately. The task gets a context
// carrying ctx's values but not its cancellation, so it outlives the request that started
// it. Errors and panics are logged, never returned to the caller.
func (c *Client) Run(ctx context.Context, taskName string, task Task) {
	c.running.Add(1)
	c.inFlight.Add(1)
	go func() {
		defer c.running.Done()
		defer c.inFlight.Add(-1)

		//nolint:govet // shadow: intentionally shadow ctx to avoid using the incorrect one.
		ctx, span := tracer.Start(context.WithoutCancel(ctx), "Run")
		defer span.End()

		span.SetAttributes(attribute.String("task", taskName))

		err := runRecovered(ctx, task)
		if err != nil {
			logger.Logger.ErrorContext(ctx, "background task failed", "task", taskName, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "task failed")
			return
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "ran task")
	}()
}

func runRecovered(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}

// InFlight reports how many tasks have started and not yet returned.
func (c *Client) InFlight() int64 {
	return c.inFlight.Load()
}

// Shutdown races all running tasks finishing against ctx becoming done.
func (c *Client) Shutdown(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Shutdown")
	defer span.End()

	span.SetAttributes(attribute.Int64("in_flight", c.InFlight()))

	done := make(chan struct{})
	go func() {
		c.running.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		span.AddEvent("hit_timeout")
		span.RecordError(ErrShutdownTimeout)
		span.SetStatus(codes.Error, "error shutting down in time")
		return ErrShutdownTimeout
	case <-done:
		span.AddEvent("done")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "finished shutting down")
		return nil
	}
}
