package pvp

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/provider"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
)

var player = &game.Player{ID: "p1", Username: "alice", Address: "wallet-p1"}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// sessionServer is a scripted stand-in for the remote poker server.
type sessionServer struct {
	*httptest.Server
	received chan Envelope
}

func newSessionServer(t *testing.T) *sessionServer {
	t.Helper()
	s := &sessionServer{received: make(chan Envelope, 16)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			s.received <- env
			var reply Envelope
			switch env.Event {
			case EventJoinGame:
				reply, _ = NewEnvelope(EventGameState, GameState{
					GameID:     "g1",
					Status:     "playing",
					PlayerBets: map[string]int64{"wallet-p1": 2_000_000},
					GamePhase:  "pre-flop",
					TimeLeft:   30,
				})
			case EventMakeMove:
				var m MakeMove
				_ = env.Decode(&m)
				if m.Move != MoveCheck {
					continue
				}
				reply, _ = NewEnvelope(EventDistributeWinnings, DistributeWinnings{WinnerAddress: "wallet-p1", Amount: 5_000_000})
			default:
				continue
			}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func testConfig(url string) Config {
	return Config{
		URL:          url,
		TurnDuration: 2 * time.Second,
		Limits:       ledger.Limits{Min: decimal.NewFromInt(1_000_000), Max: decimal.NewFromInt(1_000_000_000), Unit: "lamports"},
		Logger:       zerolog.Nop(),
	}
}

func next(t *testing.T, ch <-chan Envelope) Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return Envelope{}
}

func TestClientStakesOnlyTheDifference(t *testing.T) {
	srv := newSessionServer(t)
	pay := provider.NewMemoryPaymentProvider("house", decimal.NewFromInt(10))
	ctx := context.Background()

	c, err := Dial(ctx, testConfig(wsURL(srv.Server)), player, pay)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	if err := c.Join(ctx, 2_000_000); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	var join JoinGame
	if err := next(t, srv.received).Decode(&join); err != nil {
		t.Fatal(err)
	}
	if join.Signature == "" || join.BetAmount != 2_000_000 || join.PlayerAddress != "wallet-p1" {
		t.Errorf("unexpected joinGame: %+v", join)
	}
	if ev := next(t, c.Events()); ev.Event != EventGameState {
		t.Fatalf("expected gameState, got %s", ev.Event)
	}

	if err := c.Move(ctx, MakeMove{Move: "raise", Amount: 5_000_000}); err != nil {
		t.Fatalf("raise failed: %v", err)
	}
	var raise MakeMove
	if err := next(t, srv.received).Decode(&raise); err != nil {
		t.Fatal(err)
	}
	if raise.GameID != "g1" || raise.Signature == "" || raise.Amount != 5_000_000 {
		t.Errorf("unexpected makeMove: %+v", raise)
	}
	if len(pay.Transfers) != 2 || !pay.Transfers[1].Amount.Equal(decimal.RequireFromString("0.003")) {
		t.Errorf("raise should transfer 0.003 SOL, transfers %+v", pay.Transfers)
	}

	if err := c.Move(ctx, MakeMove{Move: MoveBet, Amount: 10}); !errors.Is(err, errors.ErrInvalidBet) {
		t.Errorf("tiny bet: expected ErrInvalidBet, got %v", err)
	}
	if err := c.Move(ctx, MakeMove{Move: "all-in"}); !errors.Is(err, errors.ErrIllegalAction) {
		t.Errorf("unknown move: expected ErrIllegalAction, got %v", err)
	}
	if pay.TransferCount() != 2 {
		t.Errorf("refused moves must not stake, got %d transfers", pay.TransferCount())
	}

	if err := c.Move(ctx, MakeMove{Move: MoveFold, Amount: 99}); err != nil {
		t.Fatalf("fold failed: %v", err)
	}
	var fold MakeMove
	_ = next(t, srv.received).Decode(&fold)
	if fold.Signature != "" || fold.Amount != 0 {
		t.Errorf("fold must carry no stake: %+v", fold)
	}
}

func TestStakeFailureIsNotForwarded(t *testing.T) {
	srv := newSessionServer(t)
	pay := provider.NewMemoryPaymentProvider("house", decimal.NewFromInt(10))
	pay.TransferErr = stderrors.New("wallet offline")

	c, err := Dial(context.Background(), testConfig(wsURL(srv.Server)), player, pay)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	err = c.Join(context.Background(), 2_000_000)
	if !errors.Is(err, errors.ErrStakeFailed) {
		t.Fatalf("expected ErrStakeFailed, got %v", err)
	}
	select {
	case env := <-srv.received:
		t.Errorf("nothing should reach the server, got %s", env.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWinningsSettlement(t *testing.T) {
	tests := []struct {
		name      string
		settleErr error
		wantError bool
	}{
		{"paid", nil, false},
		{"unpaid", stderrors.New("house wallet offline"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSessionServer(t)
			pay := provider.NewMemoryPaymentProvider("house", decimal.NewFromInt(10))
			pay.SettleErr = tt.settleErr
			unpaid := reconcile.NewMemoryStore()
			cfg := testConfig(wsURL(srv.Server))
			cfg.Unpaid = unpaid
			ctx := context.Background()

			c, err := Dial(ctx, cfg, player, pay)
			if err != nil {
				t.Fatalf("Dial failed: %v", err)
			}
			defer c.Close()

			if err := c.Join(ctx, 2_000_000); err != nil {
				t.Fatal(err)
			}
			next(t, c.Events()) // gameState
			if err := c.Move(ctx, MakeMove{Move: MoveCheck}); err != nil {
				t.Fatal(err)
			}
			if ev := next(t, c.Events()); ev.Event != EventDistributeWinnings {
				t.Fatalf("expected distributeWinnings, got %s", ev.Event)
			}

			rounds, _ := unpaid.List(ctx, reconcile.Filter{})
			if !tt.wantError {
				if len(pay.Settles) != 1 || !pay.Settles[0].Amount.Equal(decimal.RequireFromString("0.005")) {
					t.Errorf("expected a 0.005 SOL settle, got %+v", pay.Settles)
				}
				if len(rounds) != 0 {
					t.Errorf("nothing should be unpaid, got %+v", rounds)
				}
				return
			}
			ev := next(t, c.Events())
			var fail ErrorEvent
			if ev.Event != EventError || ev.Decode(&fail) != nil || fail.Code != errors.ErrSettlementFailed {
				t.Fatalf("expected a settlement error event, got %s %s", ev.Event, ev.Data)
			}
			if fail.Message != MsgWinningsOff {
				t.Errorf("message = %q", fail.Message)
			}
			if len(rounds) != 1 || rounds[0].Game != game.KindPoker {
				t.Errorf("expected one unpaid poker round, got %+v", rounds)
			}
		})
	}
}

func TestRelay(t *testing.T) {
	remote := newSessionServer(t)
	pay := provider.NewMemoryPaymentProvider("house", decimal.NewFromInt(10))

	local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		c, err := Dial(r.Context(), testConfig(wsURL(remote.Server)), player, pay)
		if err != nil {
			return
		}
		_ = Relay(context.Background(), conn, c)
	}))
	defer local.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(local), nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	join, _ := NewEnvelope(EventJoinGame, JoinGame{BetAmount: 2_000_000})
	if err := conn.WriteJSON(join); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil || env.Event != EventGameState {
		t.Fatalf("expected gameState through the relay, got %s %v", env.Event, err)
	}

	bad, _ := NewEnvelope(EventMakeMove, MakeMove{Move: MoveRaise, Amount: 5})
	if err := conn.WriteJSON(bad); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	var fail ErrorEvent
	if env.Event != EventError || env.Decode(&fail) != nil || fail.Code != errors.ErrInvalidBet {
		t.Errorf("expected an invalid bet error, got %s %s", env.Event, env.Data)
	}
	if pay.TransferCount() != 1 {
		t.Errorf("expected only the buy-in transfer, got %d", pay.TransferCount())
	}
}

func TestParseMove(t *testing.T) {
	for _, s := range []string{"fold", "CHECK", " call ", "bet", "raise"} {
		if _, err := ParseMove(s); err != nil {
			t.Errorf("ParseMove(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseMove("shove"); !stderrors.Is(err, ErrInvalidMove) {
		t.Errorf("expected ErrInvalidMove, got %v", err)
	}
}
