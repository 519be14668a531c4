package wheel

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func base(t *testing.T) []Segment {
	t.Helper()
	b, err := DefaultTable().Base()
	if err != nil {
		t.Fatalf("Base failed: %v", err)
	}
	return b
}

func TestComposition(t *testing.T) {
	b := base(t)
	if len(b) != 54 {
		t.Fatalf("expected 54 segments, got %d", len(b))
	}
	counts := lo.CountValuesBy(b, func(s Segment) string { return s.Label() })
	want := map[string]int{"1": 23, "2": 15, "5": 7, "10": 4, "Coin Flip": 4, "Pachinko": 2, "Cash Hunt": 2, "Crazy Time": 1}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("segment %s: got %d, want %d", k, counts[k], n)
		}
	}

	layout := NewLayout(rng.NewSeeded(1), b)
	if got := lo.CountValuesBy(layout, func(s Segment) string { return s.Label() }); len(got) != len(want) || got["1"] != 23 {
		t.Errorf("shuffle changed the multiset: %v", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := 54
	for seed := uint64(1); seed <= 25; seed++ {
		src := rng.NewSeeded(seed)
		for i := 0; i < n; i++ {
			for _, spins := range []int{0, 5, 7, 100} {
				angle, err := Encode(src, i, n, spins)
				if err != nil {
					t.Fatalf("Encode(%d) failed: %v", i, err)
				}
				got, err := Decode(angle, n)
				if err != nil {
					t.Fatalf("Decode(%v) failed: %v", angle, err)
				}
				if got != i {
					t.Fatalf("seed %d: index %d encoded to %v decoded to %d", seed, i, angle, got)
				}
			}
		}
	}
}

func TestEncodeExtremeSamples(t *testing.T) {
	n := 54
	for _, f := range []float64{0, 0.999999999} {
		src := &rng.Fixed{Floats: []float64{f}}
		for i := 0; i < n; i++ {
			angle, _ := Encode(src, i, n, 5)
			if got, _ := Decode(angle, n); got != i {
				t.Fatalf("sample %v: index %d decoded to %d", f, i, got)
			}
		}
	}
}

func TestDecode(t *testing.T) {
	seg := SegmentAngle(54)
	tests := []struct {
		name    string
		angle   float64
		want    int
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"full turn", 360, 0, false},
		{"middle of second", seg * 1.5, 1, false},
		{"last segment", 359.9, 53, false},
		{"many turns", 3600 + seg*10.5, 10, false},
		{"nan", math.NaN(), 0, true},
		{"inf", math.Inf(1), 0, true},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.angle, 54)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAngle) {
					t.Fatalf("expected ErrInvalidAngle, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Decode(%v) = %d, %v; want %d", tt.angle, got, err, tt.want)
			}
		})
	}
}

func TestEncodeRejectsBadIndex(t *testing.T) {
	if _, err := Encode(rng.NewSeeded(1), 54, 54, 5); !errors.Is(err, ErrInvalidAngle) {
		t.Errorf("expected ErrInvalidAngle, got %v", err)
	}
}

func TestPickIndexHouseAvoidsBackedFive(t *testing.T) {
	src := rng.NewSeeded(11)
	layout := NewLayout(src, base(t))
	bets := ledger.NewBetMap()
	bets[ledger.Number(5)] = d("0.02")

	for i := 0; i < 2000; i++ {
		idx := PickIndex(src, layout, bets, true)
		if layout[idx].Key == ledger.Number(5) {
			t.Fatalf("house branch landed on 5 at iteration %d", i)
		}
	}
	for i := 0; i < 500; i++ {
		idx := PickIndex(src, layout, bets, false)
		if layout[idx].Key != ledger.Number(5) {
			t.Fatalf("player branch missed the backed segment")
		}
	}
}

func TestPickIndexFallsBackToUniform(t *testing.T) {
	src := rng.NewSeeded(5)
	layout := NewLayout(src, base(t))

	all := ledger.NewBetMap()
	for _, k := range ledger.Keys {
		all[k] = d("0.01")
	}
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		seen[PickIndex(src, layout, all, true)] = true
	}
	if len(seen) < 50 {
		t.Errorf("expected uniform fallback when every segment is backed, saw %d positions", len(seen))
	}

	idx := PickIndex(src, layout, ledger.NewBetMap(), false)
	if idx < 0 || idx >= len(layout) {
		t.Errorf("index out of range: %d", idx)
	}
}

func TestPayout(t *testing.T) {
	bets := ledger.NewBetMap()
	bets[ledger.Number(5)] = d("0.02")
	bets[ledger.BonusKey(ledger.BonusPachinko)] = d("0.1")

	five := Segment{Key: ledger.Number(5)}
	one := Segment{Key: ledger.Number(1)}
	pachinko := Segment{Key: ledger.BonusKey(ledger.BonusPachinko)}
	crazy := Segment{Key: ledger.BonusKey(ledger.BonusCrazyTime)}
	noTop := TopSlot{Key: ledger.Number(1), Multiplier: 2}

	tests := []struct {
		name    string
		seg     Segment
		top     TopSlot
		bonus   *BonusResult
		want    string
		message string
	}{
		{"number", five, noTop, nil, "0.1", "You won"},
		{"number with top slot", five, TopSlot{Key: ledger.Number(5), Multiplier: 3}, nil, "0.3", "You won"},
		{"unbacked number", one, noTop, nil, "0", "No win"},
		{"bonus", pachinko, noTop, &BonusResult{Bonus: ledger.BonusPachinko, Multiplier: 20}, "2", "You won"},
		{"bonus with top slot", pachinko, TopSlot{Key: pachinko.Key, Multiplier: 10}, &BonusResult{Bonus: ledger.BonusPachinko, Multiplier: 5}, "5", "You won"},
		{"unbacked bonus", crazy, noTop, &BonusResult{Bonus: ledger.BonusCrazyTime, Multiplier: 200}, "0", "did not bet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := Payout(tt.seg, bets, tt.top, tt.bonus)
			if !got.Equal(d(tt.want)) {
				t.Errorf("payout = %s, want %s", got, tt.want)
			}
			if !strings.Contains(msg, tt.message) {
				t.Errorf("message %q does not contain %q", msg, tt.message)
			}
		})
	}
}

func TestResolveBonusRanges(t *testing.T) {
	table := DefaultTable()
	src := rng.NewSeeded(21)
	for i := 0; i < 300; i++ {
		cf, _ := ResolveBonus(src, ledger.BonusCoinFlip, table)
		if !lo.Contains(table.CoinFlip, cf.Red) || !lo.Contains(table.CoinFlip, cf.Blue) {
			t.Fatalf("coin flip multipliers out of set: %+v", cf)
		}
		if (cf.Side == Red && cf.Multiplier != cf.Red) || (cf.Side == Blue && cf.Multiplier != cf.Blue) {
			t.Fatalf("coin flip paid the wrong side: %+v", cf)
		}

		p, _ := ResolveBonus(src, ledger.BonusPachinko, table)
		if !lo.Contains(table.Pachinko, p.Multiplier) {
			t.Fatalf("pachinko multiplier %d", p.Multiplier)
		}

		ch, _ := ResolveBonus(src, ledger.BonusCashHunt, table)
		if len(ch.Candidates) != 10 || ch.Multiplier != ch.Candidates[ch.Picked] {
			t.Fatalf("cash hunt board %+v", ch)
		}
		if lo.SomeBy(ch.Candidates, func(c int) bool { return c < 1 || c > 50 }) {
			t.Fatalf("cash hunt candidate out of range: %v", ch.Candidates)
		}

		ct, _ := ResolveBonus(src, ledger.BonusCrazyTime, table)
		if !lo.Contains(table.CrazyTime, ct.Multiplier) {
			t.Fatalf("crazy time multiplier %d", ct.Multiplier)
		}
	}
}

func TestChooseTopSlot(t *testing.T) {
	src := rng.NewSeeded(2)
	bets := ledger.NewBetMap()
	bets[ledger.Number(10)] = d("0.05")
	for i := 0; i < 100; i++ {
		top := ChooseTopSlot(src, bets, DefaultTable().TopSlot)
		if top.Key != ledger.Number(10) {
			t.Fatalf("top slot should come from backed keys, got %s", top.Key)
		}
		if !lo.Contains([]int{2, 3, 5, 10}, top.Multiplier) {
			t.Fatalf("multiplier %d", top.Multiplier)
		}
	}
}

func newWheel(t *testing.T, seed uint64) (*Module, context.Context, *game.PlayerState) {
	t.Helper()
	m, err := New(&config.Config{Games: config.DefaultGames()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	state := game.NewPlayerState("p1", game.KindWheel)
	mc := game.NewModuleContext(&game.Player{ID: "p1"}, zerolog.Nop(), rng.NewSeeded(seed), state)
	return m.(*Module), game.WithContext(context.Background(), mc), state
}

func TestModuleRoundKeepsLayout(t *testing.T) {
	m, ctx, state := newWheel(t, 77)

	if err := m.PlaceBet(ctx, "5", d("0.02")); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	stake, err := m.StakeFor(ctx, &game.RoundRequest{})
	if err != nil || !stake.Equal(d("0.02")) {
		t.Fatalf("StakeFor = %s, %v", stake, err)
	}

	var before State
	_ = state.DecodeData(&before)

	for i := 0; i < 20; i++ {
		out, err := m.Resolve(ctx, &game.RoundRequest{}, true)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		spin := out.Detail.(Spin)
		if spin.Segment.Key == ledger.Number(5) {
			t.Fatalf("house branch landed on the backed 5")
		}
		if out.Win {
			t.Fatalf("unbacked landing should not pay: %+v", out)
		}
	}

	var after State
	_ = state.DecodeData(&after)
	if len(before.Layout) != 54 || len(after.Layout) != 54 {
		t.Fatal("layout changed between rounds")
	}
	for i := range before.Layout {
		if before.Layout[i] != after.Layout[i] {
			t.Fatalf("layout position %d changed", i)
		}
	}
}

func TestModuleRepeatAfterReset(t *testing.T) {
	m, ctx, _ := newWheel(t, 3)

	_ = m.PlaceBet(ctx, "Crazy Time", d("0.1"))
	_ = m.PlaceBet(ctx, "2", d("0.05"))
	if _, err := m.Resolve(ctx, &game.RoundRequest{}, false); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := m.OnSettled(ctx); err != nil {
		t.Fatalf("OnSettled failed: %v", err)
	}
	if err := m.ResetRound(ctx); err != nil {
		t.Fatalf("ResetRound failed: %v", err)
	}
	if stake, _ := m.StakeFor(ctx, nil); !stake.IsZero() {
		t.Fatalf("reset should clear bets, stake %s", stake)
	}
	if err := m.RepeatLast(ctx); err != nil {
		t.Fatalf("RepeatLast failed: %v", err)
	}
	if stake, _ := m.StakeFor(ctx, nil); !stake.Equal(d("0.15")) {
		t.Errorf("expected repeated stake 0.15, got %s", stake)
	}
	if err := m.CancelLast(ctx); err != nil {
		t.Fatalf("CancelLast failed: %v", err)
	}
	if err := m.PlaceBet(ctx, "7", d("0.1")); !errors.Is(err, ledger.ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}
