package scheduler

import (
	"context"
	"fmt"

	"zaakbrug_backend/internal/events"
	"zaakbrug_backend/internal/forwarder"
	"zaakbrug_backend/internal/submissions"
	"zaakbrug_backend/platform/config"
	"zaakbrug_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes forwarding tasks. Each task is one short-lived,
// stateless invocation of the orchestrator; asynq's retry with backoff is
// the redelivery mechanism the forwarding design relies on.
type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	orchestrator *forwarder.Orchestrator
	bus          events.Bus
	log          *logger.Logger
	maxRetry     int
}

// NewWorker creates the task worker.
func NewWorker(cfg config.QueueConfig, orchestrator *forwarder.Orchestrator, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetQueueConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	w := &Worker{
		orchestrator: orchestrator,
		bus:          bus,
		log:          log,
		maxRetry:     cfg.GetQueueMaxRetry(),
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSubmissionForward, w.handleSubmissionForward)

	w.server = server
	w.mux = mux
	return w, nil
}

func (w *Worker) handleSubmissionForward(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSubmissionForwardPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.SubmissionKey == "" {
		return fmt.Errorf("empty submission key: %w", asynq.SkipRetry)
	}

	// Unknown submitter types are rejected before any external call.
	if _, err := submissions.ParseSubmitterType(payload.SubmitterType); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.orchestrator.Forward(ctx, payload.SubmissionKey)
	if err == nil {
		return nil
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		maxRetry = w.maxRetry
	}
	if retried >= maxRetry {
		// Last delivery: the task moves to the archived set and an
		// operator has to step in.
		w.bus.Publish(ctx, events.ZaakForwardingFailed{
			BaseEvent:     events.NewBaseEvent(),
			SubmissionKey: payload.SubmissionKey,
			Error:         err.Error(),
			Exhausted:     true,
		})
	}
	return err
}

// Run starts the worker and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("forwarding worker stopped", "error", err)
	}
}
