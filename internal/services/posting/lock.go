package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"month-end-close-backend/internal/config"
)

var ErrLockNotObtained = errors.New("posting already in progress")

// Locker serializes posting attempts for one candidate across instances.
type Locker interface {
	Acquire(ctx context.Context, candidateID uuid.UUID) (release func(), err error)
}

type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewRedisLocker(client *redislock.Client, ttl time.Duration, logger logrus.FieldLogger) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, candidateID uuid.UUID) (func(), error) {
	lock, err := l.client.Obtain(ctx, lockKey(candidateID), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	} else if err != nil {
		return nil, fmt.Errorf("failed to obtain posting lock: %w", err)
	}
	return func() { l.release(lock.Release, candidateID) }, nil
}

// release logs failures; an unreleased lock still expires after ttl.
func (l *RedisLocker) release(fn func(context.Context) error, candidateID uuid.UUID) {
	if err := fn(context.Background()); err != nil {
		config.LogError(l.logger, moduleName, "Release", "failed to release posting lock", candidateID.String(), err)
	}
}

func lockKey(candidateID uuid.UUID) string {
	return fmt.Sprintf("posting:%s", candidateID)
}

// NoopLocker is used when no redis is configured; the posting record's primary key remains the guard.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}
