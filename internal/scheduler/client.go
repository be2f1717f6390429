package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"zaakbrug_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues forwarding tasks.
type Client struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

// Enqueuer is the narrow interface ops surfaces use to request a forward.
type Enqueuer interface {
	EnqueueSubmissionForward(ctx context.Context, payload SubmissionForwardPayload) error
}

// NewClient creates a task queue client.
func NewClient(cfg config.QueueConfig) (*Client, error) {
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

	return &Client{
		client:   asynq.NewClient(opt),
		queue:    queue,
		maxRetry: cfg.GetQueueMaxRetry(),
	}, nil
}

// Close closes the underlying asynq client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSubmissionForward enqueues one forwarding task. A duplicate of a
// still-pending task for the same submission key is dropped.
func (c *Client) EnqueueSubmissionForward(ctx context.Context, payload SubmissionForwardPayload) error {
	task, opts, err := NewSubmissionForwardTask(payload)
	if err != nil {
		return err
	}

	opts = append(opts, asynq.Queue(c.queue))
	if c.maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(c.maxRetry))
	}
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return err
	}
	return nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
