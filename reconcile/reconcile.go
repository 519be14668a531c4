// Package reconcile records won rounds whose settlement transfer failed, so
// an operator can pay them by hand.
package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("unpaid round not found")

// UnpaidRound is a won round the player was never paid for.
type UnpaidRound struct {
	RoundID     string          `json:"roundId"`
	PlayerID    string          `json:"playerId"`
	Username    string          `json:"username"`
	Address     string          `json:"address"`
	Game        game.Kind       `json:"game"`
	Stake       decimal.Decimal `json:"stake"`
	Payout      decimal.Decimal `json:"payout"`
	Reason      string          `json:"reason"`
	CreatedAt   time.Time       `json:"createdAt"`
	ResolvedAt  *time.Time      `json:"resolvedAt,omitempty"`
	ResolvedSig string          `json:"resolvedSignature,omitempty"`
}

// Filter narrows List. Zero values select everything open.
type Filter struct {
	PlayerID        string
	IncludeResolved bool
	Limit           uint64
}

type Store interface {
	RecordUnpaid(ctx context.Context, r UnpaidRound) error
	List(ctx context.Context, f Filter) ([]UnpaidRound, error)
	MarkResolved(ctx context.Context, roundID, signature string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	rounds map[string]UnpaidRound
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rounds: make(map[string]UnpaidRound)}
}

func (s *MemoryStore) RecordUnpaid(_ context.Context, r UnpaidRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[r.RoundID]; ok {
		return nil
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.rounds[r.RoundID] = r
	return nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]UnpaidRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UnpaidRound, 0, len(s.rounds))
	for _, r := range s.rounds {
		if f.PlayerID != "" && r.PlayerID != f.PlayerID {
			continue
		}
		if !f.IncludeResolved && r.ResolvedAt != nil {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && uint64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkResolved(_ context.Context, roundID, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok || r.ResolvedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	r.ResolvedAt = &now
	r.ResolvedSig = signature
	s.rounds[roundID] = r
	return nil
}
