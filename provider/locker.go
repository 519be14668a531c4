package provider

import (
	"context"
	"fmt"
	"time"

	coreredis "github.com/Digital-Creators-Team/casino-engine/db/redis"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RedisLocker implements providers.RoundLocker with SET NX and a
// compare-and-delete release, so only the holder can unlock.
type RedisLocker struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

func NewRedisLocker(redisClient *coreredis.Client, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		redis:  redisClient,
		logger: logger.With().Str("component", "round_locker").Logger(),
	}
}

func lockKey(key string) string {
	return "game:lock:" + key
}

// TryLock returns "" without error when another holder owns key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	ok, err := l.redis.SetNX(ctx, lockKey(key), token, ttl)
	if err != nil {
		return "", fmt.Errorf("acquire round lock: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	released, err := l.redis.DeleteIfEquals(ctx, lockKey(key), token)
	if err != nil {
		return fmt.Errorf("release round lock: %w", err)
	}
	if !released {
		l.logger.Warn().Str("key", key).Msg("round lock expired before release")
	}
	return nil
}
