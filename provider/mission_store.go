package provider

import (
	"context"
	"errors"
	"time"

	coreredis "github.com/Digital-Creators-Team/casino-engine/db/redis"
	"github.com/Digital-Creators-Team/casino-engine/missions"
)

// RedisMissionStore implements missions.Store as one JSON document per player.
type RedisMissionStore struct {
	redis *coreredis.Client
	ttl   time.Duration
}

func NewRedisMissionStore(redisClient *coreredis.Client, ttl time.Duration) *RedisMissionStore {
	return &RedisMissionStore{redis: redisClient, ttl: ttl}
}

func missionKey(playerID string) string {
	return "missions:" + playerID
}

func (s *RedisMissionStore) Load(ctx context.Context, playerID string) (map[int]missions.Progress, error) {
	progress := make(map[int]missions.Progress)
	err := s.redis.GetJSON(ctx, missionKey(playerID), &progress)
	if errors.Is(err, coreredis.ErrNotFound) {
		return progress, nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func (s *RedisMissionStore) Save(ctx context.Context, playerID string, progress map[int]missions.Progress) error {
	return s.redis.SetJSON(ctx, missionKey(playerID), progress, s.ttl)
}
