// Package missions tracks per-player progress missions and pays each
// completed mission's reward exactly once.
package missions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RewardFailedMessage is shown when a mission completes but its reward transfer fails.
const RewardFailedMessage = "Mission completed, but reward distribution failed. Contact support."

// Event is what advances a mission.
type Event string

const (
	EventPlay Event = "play"
	EventWin  Event = "win"
)

var ErrUnknownEvent = errors.New("unknown mission event")

// Mission is one configured goal.
type Mission struct {
	ID     int             `json:"id"`
	Title  string          `json:"title"`
	Game   game.Kind       `json:"game"`
	Event  Event           `json:"event"`
	Target int             `json:"target"`
	Reward decimal.Decimal `json:"reward"`
}

// Progress is a player's standing on one mission.
type Progress struct {
	Count        int    `json:"count"`
	Completed    bool   `json:"completed"`
	Rewarded     bool   `json:"rewarded"`
	RewardFailed bool   `json:"rewardFailed,omitempty"`
	Signature    string `json:"signature,omitempty"`
}

// Status pairs a mission with the player's progress for responses.
type Status struct {
	Mission
	Progress
}

// Notice reports a mission that completed during Record.
type Notice struct {
	MissionID int    `json:"missionId"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Rewarded  bool   `json:"rewarded"`
}

// Store persists progress keyed by mission id.
type Store interface {
	Load(ctx context.Context, playerID string) (map[int]Progress, error)
	Save(ctx context.Context, playerID string, progress map[int]Progress) error
}

// FromConfig converts configured missions, rejecting unknown games and events.
func FromConfig(cfgs []config.MissionConfig) ([]Mission, error) {
	out := make([]Mission, 0, len(cfgs))
	for _, c := range cfgs {
		kind, err := game.ParseKind(c.Game)
		if err != nil {
			return nil, fmt.Errorf("mission %d: %w", c.ID, err)
		}
		ev := Event(c.Event)
		if ev != EventPlay && ev != EventWin {
			return nil, fmt.Errorf("mission %d: %w %q", c.ID, ErrUnknownEvent, c.Event)
		}
		if c.Target <= 0 {
			return nil, fmt.Errorf("mission %d: target must be positive", c.ID)
		}
		out = append(out, Mission{
			ID:     c.ID,
			Title:  c.Title,
			Game:   kind,
			Event:  ev,
			Target: c.Target,
			Reward: decimal.NewFromFloat(c.Reward),
		})
	}
	return out, nil
}

// Tracker advances missions after settled rounds.
type Tracker struct {
	missions []Mission
	store    Store
	payment  providers.PaymentProvider
	house    string
	logger   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a tracker. house is the account rewards are paid from.
func NewTracker(missions []Mission, store Store, payment providers.PaymentProvider, house string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		missions: missions,
		store:    store,
		payment:  payment,
		house:    house,
		logger:   logger.With().Str("component", "missions").Logger(),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) lock(playerID string) func() {
	t.mu.Lock()
	l, ok := t.locks[playerID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[playerID] = l
	}
	t.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Record counts one settled round. A mission that reaches its target is
// rewarded once; a failed reward is marked and never retried here.
func (t *Tracker) Record(ctx context.Context, player *game.Player, kind game.Kind, win bool) ([]Notice, error) {
	unlock := t.lock(player.ID)
	defer unlock()

	progress, err := t.store.Load(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("load missions: %w", err)
	}
	if progress == nil {
		progress = make(map[int]Progress)
	}

	var notices []Notice
	for _, m := range t.missions {
		if m.Game != kind || (m.Event == EventWin && !win) {
			continue
		}
		p := progress[m.ID]
		if p.Completed {
			continue
		}
		p.Count++
		if p.Count >= m.Target {
			p.Completed = true
			notices = append(notices, t.reward(ctx, player, m, &p))
		}
		progress[m.ID] = p
	}

	if err := t.store.Save(ctx, player.ID, progress); err != nil {
		return notices, fmt.Errorf("save missions: %w", err)
	}
	return notices, nil
}

func (t *Tracker) reward(ctx context.Context, player *game.Player, m Mission, p *Progress) Notice {
	n := Notice{MissionID: m.ID, Title: m.Title}
	sig, err := t.payment.Settle(ctx, &providers.SettleRequest{
		PlayerID: player.ID,
		To:       player.Address,
		Amount:   m.Reward,
		Purpose:  fmt.Sprintf("mission:%d", m.ID),
	})
	if err != nil {
		t.logger.Error().Err(err).Str("player_id", player.ID).Int("mission_id", m.ID).Msg("mission reward failed")
		p.RewardFailed = true
		n.Message = RewardFailedMessage
		return n
	}
	p.Rewarded = true
	p.Signature = sig
	n.Rewarded = true
	n.Message = fmt.Sprintf("Mission completed: %s! Reward: %s SOL", m.Title, m.Reward.String())
	return n
}

// Status lists every mission with the player's progress.
func (t *Tracker) Status(ctx context.Context, playerID string) ([]Status, error) {
	progress, err := t.store.Load(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load missions: %w", err)
	}
	return lo.Map(t.missions, func(m Mission, _ int) Status {
		return Status{Mission: m, Progress: progress[m.ID]}
	}), nil
}

// MemoryStore keeps progress in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[int]Progress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[int]Progress)}
}

func (s *MemoryStore) Load(_ context.Context, playerID string) (map[int]Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Assign(s.data[playerID]), nil
}

func (s *MemoryStore) Save(_ context.Context, playerID string, progress map[int]Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[playerID] = lo.Assign(progress)
	return nil
}
