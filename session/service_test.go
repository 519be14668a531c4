package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Digital-Creators-Team/casino-engine/cards"
	"github.com/Digital-Creators-Team/casino-engine/coin"
	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/missions"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/provider"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
	"github.com/Digital-Creators-Team/casino-engine/rng"
	"github.com/Digital-Creators-Team/casino-engine/slot"
	"github.com/Digital-Creators-Team/casino-engine/wheel"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var player = &game.Player{ID: "p1", Username: "alice", Address: "wallet-p1"}

type harness struct {
	svc     *Service
	cfg     *config.Config
	states  *provider.MemoryStateProvider
	store   *flakyStates
	pay     *provider.MemoryPaymentProvider
	logs    *provider.MemoryLogProvider
	board   *provider.MemoryLeaderboard
	unpaid  *reconcile.MemoryStore
	modules map[game.Kind]game.Module
}

func newHarness(t *testing.T, payment providers.PaymentProvider, tweak func(*config.Config)) *harness {
	t.Helper()
	cfg := &config.Config{
		Games:    config.DefaultGames(),
		Missions: config.DefaultMissions(),
		Redis:    config.RedisConfig{LockTTL: time.Minute},
	}
	if tweak != nil {
		tweak(cfg)
	}

	reg := game.NewRegistry()
	reg.Register(game.KindSlots, slot.New)
	reg.Register(game.KindCoinFlip, coin.New)
	reg.Register(game.KindWheel, wheel.New)
	reg.Register(game.KindCardDuel, cards.New)
	modules, err := reg.Build(cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	h := &harness{
		cfg:     cfg,
		states:  provider.NewMemoryStateProvider(),
		pay:     provider.NewMemoryPaymentProvider("house", d("10")),
		logs:    provider.NewMemoryLogProvider(),
		board:   provider.NewMemoryLeaderboard(),
		unpaid:  reconcile.NewMemoryStore(),
		modules: modules,
	}
	h.store = &flakyStates{MemoryStateProvider: h.states}
	if payment == nil {
		payment = h.pay
	}
	list, err := missions.FromConfig(cfg.Missions)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	tracker := missions.NewTracker(list, missions.NewMemoryStore(), payment, "house", zerolog.Nop())
	h.svc = NewService(cfg, modules, h.store, payment, provider.NewMemoryLocker(),
		h.logs, nil, h.board, tracker, h.unpaid, zerolog.Nop()).WithSource(rng.NewSeeded(42))
	return h
}

func coinRequest() *game.RoundRequest {
	return &game.RoundRequest{Stake: d("0.1"), Choice: "heads"}
}

func playerWins(cfg *config.Config) {
	for k, g := range cfg.Games {
		g.HouseChance = 0
		cfg.Games[k] = g
	}
}

// blockingPayment holds Transfer until release is closed.
type blockingPayment struct {
	*provider.MemoryPaymentProvider
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingPayment) Transfer(ctx context.Context, req *providers.TransferRequest) (string, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.MemoryPaymentProvider.Transfer(ctx, req)
}

func TestDoublePlaySingleFlight(t *testing.T) {
	pay := &blockingPayment{
		MemoryPaymentProvider: provider.NewMemoryPaymentProvider("house", d("10")),
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
	h := newHarness(t, pay, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest())
		done <- err
	}()
	<-pay.entered

	_, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest())
	if !errors.Is(err, errors.ErrRoundInProgress) {
		t.Fatalf("second play: expected ErrRoundInProgress, got %v", err)
	}

	state, _ := h.svc.State(ctx, player.ID, game.KindCoinFlip)
	if state.State != game.StateCommitting {
		t.Errorf("expected the first round committing, got %s", state.State)
	}

	close(pay.release)
	if err := <-done; err != nil {
		t.Fatalf("first play failed: %v", err)
	}
	if n := pay.TransferCount(); n != 1 {
		t.Errorf("expected exactly one transfer, got %d", n)
	}
}

func TestPersistedRoundBlocksPlay(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	st := game.NewPlayerState(player.ID, game.KindCoinFlip)
	st.State = game.StateSettling
	if err := h.states.SavePlayerState(ctx, st); err != nil {
		t.Fatal(err)
	}

	_, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest())
	if !errors.Is(err, errors.ErrRoundInProgress) {
		t.Fatalf("expected ErrRoundInProgress, got %v", err)
	}
	if h.pay.TransferCount() != 0 {
		t.Error("no stake may be taken while a round is in flight")
	}
}

func TestStakeFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"rejected", fmt.Errorf("%w: insufficient funds", provider.ErrPaymentRejected), errors.ErrStakeFailed},
		{"no response", fmt.Errorf("transfer: %w", providers.ErrNoResponse), errors.ErrPaymentTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, nil)
			h.pay.TransferErr = tt.err
			ctx := context.Background()

			_, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest())
			if !errors.Is(err, tt.code) {
				t.Fatalf("expected code %d, got %v", tt.code, err)
			}
			app, _ := errors.As(err)
			if app.Message != MsgStakeFailed {
				t.Errorf("message = %q", app.Message)
			}

			state, _ := h.svc.State(ctx, player.ID, game.KindCoinFlip)
			if state.State != game.StateIdle || state.RoundID != "" {
				t.Errorf("expected idle state after stake failure, got %s round %q", state.State, state.RoundID)
			}
			logs := h.logs.Logs()
			if len(logs) != 1 || logs[0].State != string(game.StateFailed) {
				t.Errorf("expected one failed audit entry, got %+v", logs)
			}

			// the slot is free again
			h.pay.TransferErr = nil
			if _, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest()); err != nil {
				t.Errorf("play after failure: %v", err)
			}
		})
	}
}

func TestInvalidRequestsTakeNoStake(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		kind game.Kind
		req  *game.RoundRequest
	}{
		{"bad choice", game.KindCoinFlip, &game.RoundRequest{Stake: d("0.1"), Choice: "edge"}},
		{"below minimum", game.KindCoinFlip, &game.RoundRequest{Stake: d("0.001"), Choice: "heads"}},
		{"above maximum", game.KindSlots, &game.RoundRequest{Stake: d("1.5")}},
		{"zero stake", game.KindSlots, &game.RoundRequest{}},
		{"wheel without bets", game.KindWheel, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Play(ctx, player, tt.kind, tt.req)
			if !errors.Is(err, errors.ErrInvalidBet) {
				t.Errorf("expected ErrInvalidBet, got %v", err)
			}
		})
	}
	if h.pay.TransferCount() != 0 {
		t.Errorf("expected no transfers, got %d", h.pay.TransferCount())
	}
}

type brokenModule struct{}

func (brokenModule) Kind() game.Kind { return game.KindSlots }

func (brokenModule) GetConfig(context.Context) (game.ConfigNormalizer, error) {
	return game.BaseConfig{Kind: game.KindSlots}, nil
}

func (brokenModule) Resolve(context.Context, *game.RoundRequest, bool) (*game.Outcome, error) {
	return nil, stderrors.New("grid generation failed")
}

func TestResolverErrorReturnsToIdle(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.modules[game.KindSlots] = brokenModule{}
	ctx := context.Background()

	_, err := h.svc.Play(ctx, player, game.KindSlots, &game.RoundRequest{Stake: d("0.05")})
	if !errors.Is(err, errors.ErrInvalidResult) {
		t.Fatalf("expected ErrInvalidResult, got %v", err)
	}
	state, _ := h.svc.State(ctx, player.ID, game.KindSlots)
	if state.State != game.StateIdle {
		t.Errorf("expected idle, got %s", state.State)
	}
	rounds, _ := h.unpaid.List(ctx, reconcile.Filter{})
	if len(rounds) != 1 || !rounds[0].Payout.Equal(d("0.05")) {
		t.Errorf("expected the stake recorded for reconciliation, got %+v", rounds)
	}
}

func TestWonButUnpaid(t *testing.T) {
	h := newHarness(t, nil, playerWins)
	h.pay.SettleErr = stderrors.New("house wallet offline")
	ctx := context.Background()

	res, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest())
	if err != nil {
		t.Fatalf("a settlement failure must not fail the request: %v", err)
	}
	if !res.Unpaid || res.ErrorCode != errors.ErrSettlementFailed || res.Message != MsgUnpaid {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.State != game.StateSettled || !res.Outcome.Win {
		t.Errorf("expected a settled win, got %s win=%v", res.State, res.Outcome.Win)
	}

	rounds, _ := h.unpaid.List(ctx, reconcile.Filter{PlayerID: player.ID})
	if len(rounds) != 1 {
		t.Fatalf("expected one unpaid round, got %d", len(rounds))
	}
	if rounds[0].RoundID != res.RoundID || !rounds[0].Payout.Equal(d("0.2")) {
		t.Errorf("unexpected unpaid round: %+v", rounds[0])
	}

	state, _ := h.svc.State(ctx, player.ID, game.KindCoinFlip)
	if !state.Unpaid || len(state.LastResults) != 1 || !state.LastResults[0].Unpaid {
		t.Errorf("unpaid flag not persisted: %+v", state)
	}
}

func TestWinPaysAndUpdatesBoard(t *testing.T) {
	h := newHarness(t, nil, playerWins)
	ctx := context.Background()

	res, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest())
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if res.SettleSignature == "" || res.Signature == "" {
		t.Errorf("expected stake and settle signatures, got %+v", res)
	}
	if len(h.pay.Settles) != 1 || !h.pay.Settles[0].Amount.Equal(d("0.2")) {
		t.Errorf("unexpected settles: %+v", h.pay.Settles)
	}
	top, _ := h.board.Top(ctx, 5)
	if len(top) != 1 || top[0].Username != "alice" {
		t.Errorf("unexpected leaderboard: %+v", top)
	}
}

func TestSettledRoundNeedsReset(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	if _, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest()); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if _, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest()); !errors.Is(err, errors.ErrRoundInProgress) {
		t.Fatalf("expected ErrRoundInProgress before reset, got %v", err)
	}

	state, err := h.svc.Reset(ctx, player, game.KindCoinFlip)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.State != game.StateIdle || state.Outcome != nil {
		t.Errorf("reset left round fields: %+v", state)
	}
	if state.Stats.Spins != 1 || len(state.LastResults) != 1 {
		t.Errorf("reset must keep statistics, got %+v", state.Stats)
	}

	if _, err := h.svc.Play(ctx, player, game.KindCoinFlip, coinRequest()); err != nil {
		t.Fatalf("Play after reset failed: %v", err)
	}
	stats, err := h.svc.Stats(ctx, player.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total.Spins != 2 || stats.ByGame[game.KindCoinFlip].Spins != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestWheelBetFlow(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	if _, err := h.svc.PlaceBet(ctx, player, game.KindWheel, "5", 0.001); !errors.Is(err, errors.ErrInvalidBet) {
		t.Fatalf("expected ErrInvalidBet for a tiny bet, got %v", err)
	}
	if _, err := h.svc.PlaceBet(ctx, player, game.KindWheel, "7", 0.1); !errors.Is(err, errors.ErrInvalidBet) {
		t.Fatalf("expected ErrInvalidBet for an unknown key, got %v", err)
	}
	if _, err := h.svc.PlaceBet(ctx, player, game.KindWheel, "5", 0.02); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if _, err := h.svc.PlaceBet(ctx, player, game.KindWheel, "1", 0.03); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if _, err := h.svc.CancelLast(ctx, player, game.KindWheel); err != nil {
		t.Fatalf("CancelLast failed: %v", err)
	}

	res, err := h.svc.Play(ctx, player, game.KindWheel, nil)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !res.Stake.Equal(d("0.02")) || !h.pay.Transfers[0].Amount.Equal(d("0.02")) {
		t.Errorf("expected the bet total staked, got %s", res.Stake)
	}
	if _, ok := res.Outcome.Detail.(wheel.Spin); !ok {
		t.Errorf("expected a wheel spin detail, got %T", res.Outcome.Detail)
	}

	if _, err := h.svc.PlaceBet(ctx, player, game.KindWheel, "5", 0.02); !errors.Is(err, errors.ErrRoundInProgress) {
		t.Errorf("expected ErrRoundInProgress on a settled round, got %v", err)
	}
	if _, err := h.svc.Reset(ctx, player, game.KindWheel); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := h.svc.RepeatLast(ctx, player, game.KindWheel); err != nil {
		t.Fatalf("RepeatLast failed: %v", err)
	}
	res, err = h.svc.Play(ctx, player, game.KindWheel, nil)
	if err != nil {
		t.Fatalf("repeat Play failed: %v", err)
	}
	if !res.Stake.Equal(d("0.02")) {
		t.Errorf("repeat should stake 0.02, got %s", res.Stake)
	}
}

func TestCardDuelTurns(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	if _, err := h.svc.Hit(ctx, player, game.KindCardDuel); !errors.Is(err, errors.ErrIllegalAction) {
		t.Fatalf("hit without a hand: expected ErrIllegalAction, got %v", err)
	}
	if _, err := h.svc.Play(ctx, player, game.KindCardDuel, &game.RoundRequest{Stake: d("0.1")}); !errors.Is(err, errors.ErrIllegalAction) {
		t.Fatalf("card duel is not instant: expected ErrIllegalAction, got %v", err)
	}

	res, err := h.svc.Deal(ctx, player, game.KindCardDuel, &game.RoundRequest{Stake: d("0.1")})
	if err != nil {
		t.Fatalf("Deal failed: %v", err)
	}
	if res.State != game.StatePlayerTurn || !res.Outcome.Pending {
		t.Fatalf("expected player_turn after deal, got %s", res.State)
	}
	if _, err := h.svc.Deal(ctx, player, game.KindCardDuel, &game.RoundRequest{Stake: d("0.1")}); !errors.Is(err, errors.ErrRoundInProgress) {
		t.Fatalf("second deal: expected ErrRoundInProgress, got %v", err)
	}

	res, err = h.svc.Stand(ctx, player, game.KindCardDuel)
	if err != nil {
		t.Fatalf("Stand failed: %v", err)
	}
	if res.State != game.StateSettled || res.Outcome.Pending {
		t.Errorf("expected settled after stand, got %s", res.State)
	}
	if _, err := h.svc.Hit(ctx, player, game.KindCardDuel); !errors.Is(err, errors.ErrIllegalAction) {
		t.Errorf("hit after settle: expected ErrIllegalAction, got %v", err)
	}
	if h.pay.TransferCount() != 1 {
		t.Errorf("expected one stake, got %d", h.pay.TransferCount())
	}
}

func TestSlotMissionRewardedOnFifthSpin(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := h.svc.Play(ctx, player, game.KindSlots, &game.RoundRequest{Stake: d("0.01")})
		if err != nil {
			t.Fatalf("spin %d failed: %v", i, err)
		}
		if i < 5 && len(res.Missions) != 0 {
			t.Fatalf("spin %d completed a mission early", i)
		}
		if i == 5 && (len(res.Missions) != 1 || !res.Missions[0].Rewarded) {
			t.Fatalf("expected the slot mission rewarded, got %+v", res.Missions)
		}
		if _, err := h.svc.Reset(ctx, player, game.KindSlots); err != nil {
			t.Fatal(err)
		}
	}

	status, err := h.svc.Missions(ctx, player.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !status[0].Completed || !status[0].Rewarded {
		t.Errorf("unexpected mission status: %+v", status[0])
	}
	if len(h.logs.Logs()) != 5 {
		t.Errorf("expected 5 audit entries, got %d", len(h.logs.Logs()))
	}
}

func TestUnknownGame(t *testing.T) {
	h := newHarness(t, nil, nil)
	_, err := h.svc.Play(context.Background(), player, game.KindPoker, nil)
	if !errors.Is(err, errors.ErrGameModuleNotFound) {
		t.Errorf("expected ErrGameModuleNotFound, got %v", err)
	}
}
