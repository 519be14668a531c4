package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/shopspring/decimal"
)

func TestMemoryStateProviderDefaultsAndRoundTrip(t *testing.T) {
	p := NewMemoryStateProvider()
	ctx := context.Background()

	st, err := p.GetPlayerState(ctx, "p1", game.KindSlots)
	if err != nil {
		t.Fatalf("GetPlayerState failed: %v", err)
	}
	if st.State != game.StateIdle || st.Kind != game.KindSlots {
		t.Fatalf("expected fresh idle slots state, got %+v", st)
	}

	st.Stats.Spins = 3
	if err := p.SavePlayerState(ctx, st); err != nil {
		t.Fatalf("SavePlayerState failed: %v", err)
	}
	again, _ := p.GetPlayerState(ctx, "p1", game.KindSlots)
	if again.Stats.Spins != 3 {
		t.Errorf("expected 3 spins, got %d", again.Stats.Spins)
	}
	other, _ := p.GetPlayerState(ctx, "p1", game.KindWheel)
	if other.Stats.Spins != 0 {
		t.Errorf("states leaked across games")
	}
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	tok, _ := l.TryLock(ctx, "k", time.Minute)
	if tok == "" {
		t.Fatal("expected first lock to succeed")
	}
	if again, _ := l.TryLock(ctx, "k", time.Minute); again != "" {
		t.Fatal("expected second lock to fail")
	}
	_ = l.Unlock(ctx, "k", "wrong-token")
	if again, _ := l.TryLock(ctx, "k", time.Minute); again != "" {
		t.Fatal("foreign token released the lock")
	}
	_ = l.Unlock(ctx, "k", tok)
	if again, _ := l.TryLock(ctx, "k", time.Minute); again == "" {
		t.Fatal("expected lock after release")
	}
}

func TestMemoryLockerExpires(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()
	if tok, _ := l.TryLock(ctx, "k", time.Millisecond); tok == "" {
		t.Fatal("expected lock")
	}
	time.Sleep(5 * time.Millisecond)
	if tok, _ := l.TryLock(ctx, "k", time.Minute); tok == "" {
		t.Fatal("expired lock still held")
	}
}

func TestMemoryLeaderboardRanks(t *testing.T) {
	lb := NewMemoryLeaderboard()
	ctx := context.Background()
	_ = lb.Record(ctx, "a", "alice", decimal.RequireFromString("0.5"))
	_ = lb.Record(ctx, "b", "bob", decimal.RequireFromString("1.2"))
	_ = lb.Record(ctx, "a", "alice", decimal.RequireFromString("0.9"))
	_ = lb.Record(ctx, "c", "carol", decimal.Zero)

	top, err := lb.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].PlayerID != "a" || !top[0].TotalWinnings.Equal(decimal.RequireFromString("1.4")) || top[0].Rank != 1 {
		t.Errorf("unexpected leader %+v", top[0])
	}
	if top[1].Username != "bob" || top[1].Rank != 2 {
		t.Errorf("unexpected second %+v", top[1])
	}
}

func TestMemoryLogHistoryPages(t *testing.T) {
	p := NewMemoryLogProvider()
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		_ = p.LogRound(ctx, &providers.RoundLog{RoundID: id, PlayerID: "p1", Game: game.KindCoinFlip, Stake: "0.1", Payout: "0"})
	}
	_ = p.LogRound(ctx, &providers.RoundLog{RoundID: "x", PlayerID: "p2", Game: game.KindCoinFlip})

	resp, err := p.GetRoundHistory(ctx, &providers.HistoryQuery{PlayerID: "p1", Game: game.KindCoinFlip, Page: 0, Limit: 2})
	if err != nil {
		t.Fatalf("GetRoundHistory failed: %v", err)
	}
	if resp.Total != 3 || len(resp.Items) != 2 || resp.Items[0].RoundID != "r3" {
		t.Errorf("unexpected page %+v", resp)
	}
	if resp.Items[0].Stake != 0.1 {
		t.Errorf("expected stake 0.1, got %v", resp.Items[0].Stake)
	}
}

func TestMemoryPaymentMovesFunds(t *testing.T) {
	p := NewMemoryPaymentProvider("house", decimal.NewFromInt(1))
	ctx := context.Background()

	if _, err := p.Transfer(ctx, &providers.TransferRequest{From: "addr", Amount: decimal.RequireFromString("0.4")}); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if _, err := p.Settle(ctx, &providers.SettleRequest{To: "addr", Amount: decimal.RequireFromString("0.8")}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	bal, _ := p.GetBalance(ctx, "addr")
	if !bal.Equal(decimal.RequireFromString("1.4")) {
		t.Errorf("expected 1.4, got %s", bal)
	}
	if _, err := p.Transfer(ctx, &providers.TransferRequest{From: "addr", Amount: decimal.NewFromInt(5)}); !errors.Is(err, ErrPaymentRejected) {
		t.Errorf("expected rejection, got %v", err)
	}
}
