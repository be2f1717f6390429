// Package refstore maps a submission's business key to the zaak URL that
// was created for it. It is the fast path of the idempotency check; the
// Zaken API identification lookup remains the authoritative fallback.
package refstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"zaakbrug_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// Key prefix for submission -> zaak references.
const referenceKeyPrefix = "zaakref:"

// Store is a Redis-backed reference store. References expire after the
// configured TTL (about 90 days) to bound storage growth; an expired
// reference simply makes the next retry fall back to the identification
// lookup.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient creates a Redis client from the shared Redis configuration.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig != nil {
			opt.TLSConfig.InsecureSkipVerify = true
		} else {
			opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}

	return redis.NewClient(opt), nil
}

// New creates a reference store on an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Set records the zaak URL for a submission key. Written exactly once,
// immediately after zaak creation and before any subsequent forwarding
// step; never updated afterwards.
func (s *Store) Set(ctx context.Context, submissionKey, zaakURL string) error {
	key := referenceKeyPrefix + submissionKey
	return s.client.Set(ctx, key, zaakURL, s.ttl).Err()
}

// Get returns the zaak URL for a submission key. The second return value
// is false when no reference exists (or it has expired).
func (s *Store) Get(ctx context.Context, submissionKey string) (string, bool, error) {
	key := referenceKeyPrefix + submissionKey
	zaakURL, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return zaakURL, true, nil
}
