package pvp

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Digital-Creators-Team/casino-engine/errors"
)

// Relay pumps events between a player's socket and the session server until
// either side closes. Player intents go through the Client so every wager is
// staked first; refused intents come back as error events.
func Relay(ctx context.Context, player *websocket.Conn, c *Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.Close() //nolint:errcheck

	var writeMu sync.Mutex
	write := func(env Envelope) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = player.SetWriteDeadline(time.Now().Add(writeWait))
		return player.WriteJSON(env)
	}

	go func() {
		defer cancel()
		for env := range c.Events() {
			if err := write(env); err != nil {
				c.logger.Debug().Err(err).Msg("player socket write failed")
				return
			}
		}
		// server side ended; let the player know
		writeMu.Lock()
		_ = player.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session server closed"), time.Now().Add(time.Second))
		writeMu.Unlock()
	}()

	go func() {
		<-ctx.Done()
		_ = player.SetReadDeadline(time.Now())
	}()

	for {
		var env Envelope
		if err := player.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Err(err).Msg("player socket closed unexpectedly")
			}
			return nil
		}
		if err := c.handle(ctx, env); err != nil {
			if werr := write(errorEnvelope(err)); werr != nil {
				return nil
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, env Envelope) error {
	switch env.Event {
	case EventJoinGame:
		var jg JoinGame
		if err := env.Decode(&jg); err != nil {
			return errors.Wrap(err, errors.ErrInvalidRequest, "bad joinGame")
		}
		return c.Join(ctx, jg.BetAmount)
	case EventMakeMove:
		var m MakeMove
		if err := env.Decode(&m); err != nil {
			return errors.Wrap(err, errors.ErrInvalidRequest, "bad makeMove")
		}
		return c.Move(ctx, m)
	}
	return errors.New(errors.ErrInvalidRequest, "unknown event "+string(env.Event))
}

func errorEnvelope(err error) Envelope {
	ev := ErrorEvent{Code: errors.ErrInternalServerError, Message: "request failed"}
	if app, ok := errors.As(err); ok {
		ev.Code = app.Code
		ev.Message = app.Message
	}
	env, _ := NewEnvelope(EventError, ev)
	return env
}
