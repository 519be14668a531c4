package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	coreredis "github.com/Digital-Creators-Team/casino-engine/db/redis"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/rs/zerolog"
)

// RedisStateProvider implements providers.StateProvider using Redis
type RedisStateProvider struct {
	redis  *coreredis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStateProvider creates a new state provider. States expire after ttl
// of inactivity.
func NewRedisStateProvider(redisClient *coreredis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStateProvider {
	return &RedisStateProvider{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger.With().Str("component", "state_provider").Logger(),
	}
}

func stateKey(playerID string, kind game.Kind) string {
	return fmt.Sprintf("game:state:%s:%s", kind, playerID)
}

// GetPlayerState retrieves player state from Redis
func (p *RedisStateProvider) GetPlayerState(ctx context.Context, playerID string, kind game.Kind) (*game.PlayerState, error) {
	key := stateKey(playerID, kind)
	data, err := p.redis.Get(ctx, key)
	if errors.Is(err, coreredis.ErrNotFound) {
		p.logger.Debug().Str("key", key).Msg("No existing state, returning default")
		return game.NewPlayerState(playerID, kind), nil
	}
	if err != nil {
		return nil, err
	}

	state, err := game.PlayerStateFromJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, nil
}

// SavePlayerState saves player state to Redis
func (p *RedisStateProvider) SavePlayerState(ctx context.Context, state *game.PlayerState) error {
	data, err := state.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := p.redis.Set(ctx, stateKey(state.PlayerID, state.Kind), string(data), p.ttl); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// DeleteState removes player state from Redis
func (p *RedisStateProvider) DeleteState(ctx context.Context, playerID string, kind game.Kind) error {
	if err := p.redis.Delete(ctx, stateKey(playerID, kind)); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
