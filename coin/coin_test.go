package coin

import (
	"context"
	"errors"
	"testing"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestFlip(t *testing.T) {
	tests := []struct {
		choice    Side
		houseWins bool
		want      Side
	}{
		{Heads, true, Tails},
		{Tails, true, Heads},
		{Heads, false, Heads},
		{Tails, false, Tails},
	}
	for _, tt := range tests {
		if got := Flip(tt.choice, tt.houseWins); got != tt.want {
			t.Errorf("Flip(%s, %v) = %s, want %s", tt.choice, tt.houseWins, got, tt.want)
		}
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide(" HEADS "); err != nil || s != Heads {
		t.Errorf("ParseSide = %s, %v", s, err)
	}
	if _, err := ParseSide("edge"); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestResolvePays(t *testing.T) {
	m, err := New(&config.Config{Games: config.DefaultGames()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mod := m.(*Module)
	state := game.NewPlayerState("p1", game.KindCoinFlip)
	state.Stake = decimal.RequireFromString("0.25")
	ctx := game.WithContext(context.Background(),
		game.NewModuleContext(nil, zerolog.Nop(), rng.NewSeeded(1), state))

	win, err := mod.Resolve(ctx, &game.RoundRequest{Choice: "tails"}, false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !win.Win || !win.Payout.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected 0.5 win, got %+v", win)
	}

	loss, err := mod.Resolve(ctx, &game.RoundRequest{Choice: "tails"}, true)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if loss.Win || !loss.Payout.IsZero() || loss.Detail.(Toss).Result != Heads {
		t.Errorf("expected heads loss, got %+v", loss)
	}

	if _, err := mod.Resolve(ctx, &game.RoundRequest{Choice: "side"}, false); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("expected ErrInvalidChoice, got %v", err)
	}
}
