package provider

import (
	"context"
	"fmt"

	coreredis "github.com/Digital-Creators-Team/casino-engine/db/redis"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	leaderboardKey   = "leaderboard:winnings"
	leaderboardNames = "leaderboard:names"
)

// RedisLeaderboard ranks players by total winnings in a sorted set; display
// names live in a side hash.
type RedisLeaderboard struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

func NewRedisLeaderboard(redisClient *coreredis.Client, logger zerolog.Logger) *RedisLeaderboard {
	return &RedisLeaderboard{
		redis:  redisClient,
		logger: logger.With().Str("component", "leaderboard").Logger(),
	}
}

func (l *RedisLeaderboard) Record(ctx context.Context, playerID, username string, winnings decimal.Decimal) error {
	if !winnings.IsPositive() {
		return nil
	}
	if _, err := l.redis.ZIncrBy(ctx, leaderboardKey, playerID, winnings.InexactFloat64()); err != nil {
		return err
	}
	if username != "" {
		if err := l.redis.HSet(ctx, leaderboardNames, playerID, username); err != nil {
			return err
		}
	}
	return nil
}

func (l *RedisLeaderboard) Top(ctx context.Context, limit int) ([]providers.LeaderboardEntry, error) {
	members, err := l.redis.ZRevRange(ctx, leaderboardKey, limit)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []providers.LeaderboardEntry{}, nil
	}
	ids := lo.Map(members, func(m coreredis.ZMember, _ int) string { return m.Member })
	names, err := l.redis.HMGet(ctx, leaderboardNames, ids...)
	if err != nil {
		return nil, fmt.Errorf("leaderboard names: %w", err)
	}
	return lo.Map(members, func(m coreredis.ZMember, i int) providers.LeaderboardEntry {
		return providers.LeaderboardEntry{
			Rank:          i + 1,
			PlayerID:      m.Member,
			Username:      names[i],
			TotalWinnings: decimal.NewFromFloat(m.Score).Round(9),
		}
	}), nil
}
