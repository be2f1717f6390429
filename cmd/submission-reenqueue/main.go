package main

import (
	"context"
	"flag"
	"time"

	"zaakbrug_backend/internal/scheduler"
	"zaakbrug_backend/internal/submissions/repository"
	"zaakbrug_backend/platform/config"
	"zaakbrug_backend/platform/db"
	"zaakbrug_backend/platform/logger"
)

func main() {
	var age time.Duration
	var dryRun bool
	flag.DurationVar(&age, "age", time.Hour, "only re-enqueue submissions whose last attempt is older than this")
	flag.BoolVar(&dryRun, "dry-run", false, "list stuck submissions without enqueueing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting submission re-enqueue", "age", age.String(), "dryRun", dryRun)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = queueClient.Close() }()

	repo := repository.New(pool)

	cutoff := time.Now().Add(-age)
	stuck, err := repo.ListStuckSubmissions(ctx, cutoff)
	if err != nil {
		log.Error("failed to list stuck submissions", "error", err)
		panic("failed to list stuck submissions: " + err.Error())
	}

	if len(stuck) == 0 {
		log.Info("no stuck submissions found")
		return
	}

	var enqueued int
	for _, sub := range stuck {
		if dryRun {
			log.Info("stuck submission", "submission_key", sub.Key, "submitter_type", sub.SubmitterType)
			continue
		}

		err := queueClient.EnqueueSubmissionForward(ctx, scheduler.SubmissionForwardPayload{
			SubmissionKey: sub.Key,
			SubmitterID:   sub.SubmitterID,
			SubmitterType: sub.SubmitterType,
		})
		if err != nil {
			log.Error("failed to enqueue submission", "submission_key", sub.Key, "error", err)
			continue
		}
		enqueued++
	}

	log.Info("submission re-enqueue complete", "stuck", len(stuck), "enqueued", enqueued)
}
