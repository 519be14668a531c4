package server

import (
	"net/http"

	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/ledger"
	"github.com/Digital-Creators-Team/casino-engine/pvp"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// PvPHandler relays a player's socket to the remote poker session server.
type PvPHandler struct {
	app      *App
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewPvPHandler(app *App) *PvPHandler {
	return &PvPHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "pvp").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Connect godoc
// @Summary      Join the PvP poker table
// @Description  Upgrades to a WebSocket relayed to the session server. Wagers are staked before they are forwarded.
// @Tags         pvp
// @Param        token  query  string  true  "JWT"
// @Router       /pvp/ws [get]
func (h *PvPHandler) Connect(c *gin.Context) {
	player, ok := playerFrom(c)
	if !ok {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}
	if player.Address == "" {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "a wallet address is required to play"))
		return
	}
	gcfg, err := game.GameConfigFor(h.app.config, game.KindPoker)
	if err != nil {
		HandleAppError(c, errors.Wrap(err, errors.ErrConfigError, "poker is not configured"))
		return
	}

	ctx := c.Request.Context()
	client, err := pvp.Dial(ctx, pvp.Config{
		URL:          h.app.config.PvP.URL,
		TurnDuration: h.app.config.PvP.TurnDuration,
		Limits:       ledger.LimitsFrom(gcfg),
		Unpaid:       h.app.unpaid,
		Logger:       h.logger,
	}, player, h.app.payment)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		_ = client.Close()
		return
	}
	defer conn.Close() //nolint:errcheck

	h.logger.Info().Str("player_id", player.ID).Msg("PvP relay opened")
	if err := pvp.Relay(ctx, conn, client); err != nil {
		h.logger.Warn().Err(err).Str("player_id", player.ID).Msg("PvP relay ended")
	}
}
