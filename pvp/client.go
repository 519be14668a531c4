package pvp

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
)

const (
	MsgBetFailed   = "Bet failed. Please try again."
	MsgWinningsOff = "Winnings not distributed. Contact support."

	writeWait = 10 * time.Second
)

// Config for one player's connection to the session server.
type Config struct {
	URL string
	// TurnDuration bounds a wagering move, stake transfer included.
	TurnDuration time.Duration
	Limits       ledger.Limits
	// Unpaid records winnings whose settlement failed; may be nil.
	Unpaid reconcile.Store
	Logger zerolog.Logger
}

// Client is one player's connection to the remote session server.
type Client struct {
	conn    *websocket.Conn
	player  *game.Player
	payment providers.PaymentProvider
	cfg     Config
	logger  zerolog.Logger

	writeMu sync.Mutex

	mu    sync.RWMutex
	state *GameState

	events chan Envelope
	done   chan struct{}
	once   sync.Once
}

// Dial connects to the session server and starts reading its events.
func Dial(ctx context.Context, cfg Config, player *game.Player, payment providers.PaymentProvider) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrServiceUnavailable, "pvp server is not configured")
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable, "failed to reach pvp server")
	}
	if cfg.TurnDuration <= 0 {
		cfg.TurnDuration = 30 * time.Second
	}

	c := &Client{
		conn:    conn,
		player:  player,
		payment: payment,
		cfg:     cfg,
		logger: cfg.Logger.With().
			Str("component", "pvp-client").
			Str("player_id", player.ID).
			Logger(),
		events: make(chan Envelope, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events yields server events in order. It is closed when the connection ends.
func (c *Client) Events() <-chan Envelope {
	return c.events
}

// State returns the last table snapshot, nil before the first one.
func (c *Client) State() *GameState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Msg("pvp server closed unexpectedly")
			}
			return
		}
		for _, out := range c.observe(env) {
			select {
			case c.events <- out:
			case <-c.done:
				return
			}
		}
	}
}

// observe tracks table state and pays out hands this player won. It returns
// the envelopes to forward.
func (c *Client) observe(env Envelope) []Envelope {
	switch env.Event {
	case EventGameState:
		var gs GameState
		if err := env.Decode(&gs); err != nil {
			c.logger.Warn().Err(err).Msg("bad gameState")
			return nil
		}
		c.mu.Lock()
		c.state = &gs
		c.mu.Unlock()
	case EventDistributeWinnings:
		var dw DistributeWinnings
		if err := env.Decode(&dw); err != nil {
			c.logger.Warn().Err(err).Msg("bad distributeWinnings")
			return nil
		}
		if dw.WinnerAddress == c.player.Address && dw.Amount > 0 {
			if err := c.payout(dw); err != nil {
				fail, _ := NewEnvelope(EventError, ErrorEvent{Code: errors.ErrSettlementFailed, Message: MsgWinningsOff})
				return []Envelope{env, fail}
			}
		}
	}
	return []Envelope{env}
}

func (c *Client) payout(dw DistributeWinnings) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TurnDuration)
	defer cancel()

	gameID := ""
	if st := c.State(); st != nil {
		gameID = st.GameID
	}
	amount := ToSOL(dw.Amount)
	sig, err := c.payment.Settle(ctx, &providers.SettleRequest{
		PlayerID: c.player.ID,
		To:       c.player.Address,
		Amount:   amount,
		Purpose:  "pvp:winnings",
		RoundID:  gameID,
	})
	if err != nil {
		c.logger.Error().Err(err).Int64("lamports", dw.Amount).Msg("pvp winnings not distributed")
		if c.cfg.Unpaid != nil {
			rerr := c.cfg.Unpaid.RecordUnpaid(ctx, reconcile.UnpaidRound{
				RoundID:   fmt.Sprintf("pvp:%s:%s", gameID, uuid.NewString()),
				PlayerID:  c.player.ID,
				Username:  c.player.Username,
				Address:   c.player.Address,
				Game:      game.KindPoker,
				Stake:     decimal.Zero,
				Payout:    amount,
				Reason:    "pvp settlement failed: " + err.Error(),
				CreatedAt: time.Now().UTC(),
			})
			if rerr != nil {
				c.logger.Error().Err(rerr).Msg("failed to record unpaid pvp winnings")
			}
		}
		return err
	}
	c.logger.Info().Int64("lamports", dw.Amount).Str("signature", sig).Msg("pvp winnings paid")
	return nil
}

// Join pays the buy-in and asks for a seat.
func (c *Client) Join(ctx context.Context, betAmount int64) error {
	if err := c.validate(betAmount); err != nil {
		return err
	}
	sig, err := c.stake(ctx, betAmount, "pvp:join")
	if err != nil {
		return err
	}
	return c.send(EventJoinGame, JoinGame{
		PlayerAddress: c.player.Address,
		BetAmount:     betAmount,
		Signature:     sig,
	})
}

// Move forwards a turn intent. A bet or raise first transfers the difference
// between its amount and what the player already committed this round.
func (c *Client) Move(ctx context.Context, m MakeMove) error {
	move, err := ParseMove(string(m.Move))
	if err != nil {
		return errors.Wrap(err, errors.ErrIllegalAction, err.Error())
	}
	m.Move = move
	if m.GameID == "" {
		if st := c.State(); st != nil {
			m.GameID = st.GameID
		}
	}
	if m.GameID == "" {
		return errors.New(errors.ErrIllegalAction, "No active game found!")
	}

	if move.Wagers() {
		if err := c.validate(m.Amount); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, c.cfg.TurnDuration)
		defer cancel()

		extra := m.Amount - c.State().Committed(c.player.Address)
		if extra > 0 {
			sig, err := c.stake(ctx, extra, "pvp:"+string(move))
			if err != nil {
				return err
			}
			m.Signature = sig
		}
	} else {
		m.Amount = 0
	}
	return c.send(EventMakeMove, m)
}

func (c *Client) validate(amount int64) error {
	if err := ledger.ValidateDecimal(decimal.NewFromInt(amount), c.cfg.Limits); err != nil {
		return errors.NewWithDebug(errors.ErrInvalidBet, "invalid bet", err.Error())
	}
	return nil
}

func (c *Client) stake(ctx context.Context, lamports int64, purpose string) (string, error) {
	sig, err := c.payment.Transfer(ctx, &providers.TransferRequest{
		PlayerID: c.player.ID,
		From:     c.player.Address,
		Amount:   ToSOL(lamports),
		Purpose:  purpose,
		RoundID:  uuid.NewString(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Int64("lamports", lamports).Msg("pvp stake failed")
		if stderrors.Is(err, providers.ErrNoResponse) || stderrors.Is(err, context.DeadlineExceeded) {
			return "", errors.Wrap(err, errors.ErrPaymentTimeout, MsgBetFailed)
		}
		return "", errors.Wrap(err, errors.ErrStakeFailed, MsgBetFailed)
	}
	return sig, nil
}

func (c *Client) send(event EventType, data interface{}) error {
	env, err := NewEnvelope(event, data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(env); err != nil {
		return errors.Wrap(err, errors.ErrServiceUnavailable, fmt.Sprintf("failed to send %s", event))
	}
	return nil
}

// Close ends the connection.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
