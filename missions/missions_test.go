package missions

import (
	"context"
	"errors"
	"testing"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakePayment struct {
	settles []*providers.SettleRequest
	fail    error
}

func (f *fakePayment) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakePayment) Transfer(ctx context.Context, req *providers.TransferRequest) (string, error) {
	return "tx", nil
}

func (f *fakePayment) Settle(ctx context.Context, req *providers.SettleRequest) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.settles = append(f.settles, req)
	return "reward-sig", nil
}

func newTracker(t *testing.T, pay *fakePayment) *Tracker {
	t.Helper()
	ms, err := FromConfig(config.DefaultMissions())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	return NewTracker(ms, NewMemoryStore(), pay, "house", zerolog.Nop())
}

var player = &game.Player{ID: "p1", Username: "degen", Address: "addr1"}

func TestSlotMissionRewardsOnce(t *testing.T) {
	pay := &fakePayment{}
	tr := newTracker(t, pay)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		notices, err := tr.Record(ctx, player, game.KindSlots, false)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if len(notices) != 0 {
			t.Fatalf("spin %d: unexpected notices %+v", i+1, notices)
		}
	}
	notices, err := tr.Record(ctx, player, game.KindSlots, false)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(notices) != 1 || !notices[0].Rewarded || notices[0].MissionID != 1 {
		t.Fatalf("expected mission 1 rewarded, got %+v", notices)
	}
	if len(pay.settles) != 1 || !pay.settles[0].Amount.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected one 0.01 reward, got %+v", pay.settles)
	}

	if _, err := tr.Record(ctx, player, game.KindSlots, true); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(pay.settles) != 1 {
		t.Errorf("reward paid twice")
	}

	status, err := tr.Status(ctx, player.ID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status[0].Completed || status[0].Count != 5 || status[0].Signature != "reward-sig" {
		t.Errorf("unexpected status %+v", status[0])
	}
}

func TestWinMissionIgnoresLosses(t *testing.T) {
	pay := &fakePayment{}
	tr := newTracker(t, pay)
	ctx := context.Background()

	if notices, _ := tr.Record(ctx, player, game.KindCardDuel, false); len(notices) != 0 {
		t.Fatalf("loss completed a win mission: %+v", notices)
	}
	notices, err := tr.Record(ctx, player, game.KindCardDuel, true)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(notices) != 1 || notices[0].MissionID != 2 {
		t.Errorf("expected mission 2, got %+v", notices)
	}
}

func TestRewardFailure(t *testing.T) {
	pay := &fakePayment{fail: errors.New("rpc down")}
	tr := newTracker(t, pay)
	ctx := context.Background()

	var notices []Notice
	for i := 0; i < 3; i++ {
		var err error
		notices, err = tr.Record(ctx, player, game.KindWheel, false)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if len(notices) != 1 || notices[0].Rewarded || notices[0].Message != RewardFailedMessage {
		t.Fatalf("expected reward failure notice, got %+v", notices)
	}
	status, _ := tr.Status(ctx, player.ID)
	if !status[2].RewardFailed || status[2].Rewarded {
		t.Errorf("expected RewardFailed progress, got %+v", status[2])
	}
}

func TestFromConfigRejects(t *testing.T) {
	tests := []config.MissionConfig{
		{ID: 1, Game: "bingo", Event: "play", Target: 1},
		{ID: 2, Game: "slots", Event: "lose", Target: 1},
		{ID: 3, Game: "slots", Event: "play", Target: 0},
	}
	for _, tt := range tests {
		if _, err := FromConfig([]config.MissionConfig{tt}); err == nil {
			t.Errorf("mission %d: expected error", tt.ID)
		}
	}
}
