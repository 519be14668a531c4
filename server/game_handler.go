package server

import (
	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/middleware"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// GameHandler handles the per-game HTTP routes
//
// Flow: HTTP Request -> gameRoutes -> GameHandler -> session.Service -> game.Module
//
// Responsibilities:
// - Read the player from the JWT claims
// - Bind and shape request parameters
// - Call session.Service for round logic
// - Format and return HTTP responses
//
// Game rules live in the modules, round orchestration in session.
type GameHandler struct {
	session *session.Service
	logger  zerolog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(app *App) *GameHandler {
	return &GameHandler{
		session: app.session,
		logger:  app.logger.With().Str("handler", "game").Logger(),
	}
}

func (h *GameHandler) player(c *gin.Context) (*game.Player, bool) {
	player, ok := playerFrom(c)
	if !ok {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return nil, false
	}
	return player, true
}

// PlayRequest represents the play request body
// @Description Play request payload
type PlayRequest struct {
	// Stake in the game's unit. Ignored by the wheel, which stakes its bet map.
	Stake decimal.Decimal `json:"stake" swaggertype:"number" example:"0.05"`
	// Coin flip side: heads or tails
	Choice string `json:"choice,omitempty" example:"heads"`
}

func (r *PlayRequest) round() *game.RoundRequest {
	if r == nil {
		return &game.RoundRequest{Stake: decimal.Zero}
	}
	return &game.RoundRequest{Stake: r.Stake, Choice: r.Choice}
}

func (h *GameHandler) bindPlay(c *gin.Context) (*PlayRequest, bool) {
	var req PlayRequest
	if c.Request.ContentLength == 0 {
		return &req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse play request")
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "Invalid request payload"))
		return nil, false
	}
	return &req, true
}

// Play godoc
// @Summary      Play a round
// @Description  Stakes, resolves and settles one round of slots, coinflip or wheel
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        kind     path      string       true  "Game kind"
// @Param        request  body      PlayRequest  true  "Play request"
// @Success      200      {object}  BaseResponse{data=session.RoundResult}
// @Failure      400      {object}  BaseResponse
// @Failure      402      {object}  BaseResponse
// @Failure      409      {object}  BaseResponse
// @Failure      422      {object}  BaseResponse
// @Failure      504      {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/play [post]
func (h *GameHandler) Play(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	req, ok := h.bindPlay(c)
	if !ok {
		return
	}

	kind := kindFrom(c)
	result, err := h.session.Play(c.Request.Context(), player, kind, req.round())
	if err != nil {
		h.logger.Warn().Err(err).
			Str("player_id", player.ID).
			Str("game", kind.String()).
			Msg("Play refused")
		HandleAppError(c, err)
		return
	}
	roundOK(c, result)
}

// Deal godoc
// @Summary      Deal a card duel round
// @Description  Stakes and deals; the round waits in player_turn for hit or stand
// @Tags         game
// @Accept       json
// @Produce      json
// @Param        kind     path      string       true  "Game kind (cardduel)"
// @Param        request  body      PlayRequest  true  "Deal request"
// @Success      200      {object}  BaseResponse{data=session.RoundResult}
// @Failure      400      {object}  BaseResponse
// @Failure      402      {object}  BaseResponse
// @Failure      409      {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/deal [post]
func (h *GameHandler) Deal(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	req, ok := h.bindPlay(c)
	if !ok {
		return
	}
	result, err := h.session.Deal(c.Request.Context(), player, kindFrom(c), req.round())
	roundResponse(c, result, err)
}

// Hit godoc
// @Summary      Draw a card
// @Tags         game
// @Produce      json
// @Param        kind  path  string  true  "Game kind (cardduel)"
// @Success      200   {object}  BaseResponse{data=session.RoundResult}
// @Failure      409   {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/hit [post]
func (h *GameHandler) Hit(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	result, err := h.session.Hit(c.Request.Context(), player, kindFrom(c))
	roundResponse(c, result, err)
}

// Stand godoc
// @Summary      Stand and let the dealer play
// @Tags         game
// @Produce      json
// @Param        kind  path  string  true  "Game kind (cardduel)"
// @Success      200   {object}  BaseResponse{data=session.RoundResult}
// @Failure      409   {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/stand [post]
func (h *GameHandler) Stand(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	result, err := h.session.Stand(c.Request.Context(), player, kindFrom(c))
	roundResponse(c, result, err)
}

// roundOK tags the request log with the round id before responding.
func roundOK(c *gin.Context, result *session.RoundResult) {
	c.Set(middleware.RoundIDKey, result.RoundID)
	OK(c, result)
}

func roundResponse(c *gin.Context, result *session.RoundResult, err error) {
	if err != nil {
		HandleAppError(c, err)
		return
	}
	roundOK(c, result)
}

// Reset godoc
// @Summary      Play again
// @Description  Returns a settled or failed round to idle. Statistics and recent results are kept.
// @Tags         game
// @Produce      json
// @Param        kind  path  string  true  "Game kind"
// @Success      200   {object}  BaseResponse{data=game.PlayerState}
// @Failure      409   {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/reset [post]
func (h *GameHandler) Reset(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	state, err := h.session.Reset(c.Request.Context(), player, kindFrom(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, state)
}

// GetState godoc
// @Summary      Get player state
// @Description  Returns the current round state for the game
// @Tags         game
// @Produce      json
// @Param        kind  path  string  true  "Game kind"
// @Success      200  {object}  BaseResponse{data=game.PlayerState}
// @Failure      401  {object}  BaseResponse
// @Failure      500  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/state [get]
func (h *GameHandler) GetState(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	state, err := h.session.State(c.Request.Context(), player.ID, kindFrom(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get player state")
		HandleAppError(c, err)
		return
	}
	OK(c, state)
}

// GetConfig godoc
// @Summary      Get game configuration
// @Description  Returns the normalized game configuration (stake limits, paytable, wheel segments)
// @Tags         game
// @Produce      json
// @Param        kind  path  string  true  "Game kind"
// @Success      200  {object}  BaseResponse
// @Failure      404  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/config [get]
func (h *GameHandler) GetConfig(c *gin.Context) {
	cfg, err := h.session.Config(c.Request.Context(), kindFrom(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, cfg)
}

// BetRequest adds to one entry of a bet map
// @Description Bet placement payload
type BetRequest struct {
	// Bet key, e.g. a wheel segment or bonus name
	Key    string  `json:"key" binding:"required" example:"2"`
	Amount float64 `json:"amount" example:"0.01"`
}

// PlaceBet godoc
// @Summary      Place a bet
// @Tags         bets
// @Accept       json
// @Produce      json
// @Param        kind     path      string      true  "Game kind (wheel)"
// @Param        request  body      BetRequest  true  "Bet"
// @Success      200      {object}  BaseResponse{data=game.PlayerState}
// @Failure      400      {object}  BaseResponse
// @Failure      409      {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/bets [post]
func (h *GameHandler) PlaceBet(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	var req BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, "Invalid request payload"))
		return
	}
	state, err := h.session.PlaceBet(c.Request.Context(), player, kindFrom(c), req.Key, req.Amount)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, state)
}

// CancelLastBet godoc
// @Summary      Undo the most recent bet
// @Tags         bets
// @Produce      json
// @Param        kind  path  string  true  "Game kind (wheel)"
// @Success      200   {object}  BaseResponse{data=game.PlayerState}
// @Failure      400   {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/bets/last [delete]
func (h *GameHandler) CancelLastBet(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	state, err := h.session.CancelLast(c.Request.Context(), player, kindFrom(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, state)
}

// RepeatBets godoc
// @Summary      Repeat the previous round's bets
// @Tags         bets
// @Produce      json
// @Param        kind  path  string  true  "Game kind (wheel)"
// @Success      200   {object}  BaseResponse{data=game.PlayerState}
// @Failure      400   {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/bets/repeat [post]
func (h *GameHandler) RepeatBets(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	state, err := h.session.RepeatLast(c.Request.Context(), player, kindFrom(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, state)
}

// HistoryQueryParams represents query parameters for round history
type HistoryQueryParams struct {
	Limit int `form:"limit"`
	Page  int `form:"page"`
}

// GetHistory godoc
// @Summary      Get round history
// @Description  Returns the player's audited rounds for the game, newest first
// @Tags         history
// @Produce      json
// @Param        kind   path      string  true   "Game kind"
// @Param        limit  query     int     false  "Items per page (default 20, max 100)"
// @Param        page   query     int     false  "Page number (1-based)"
// @Success      200    {object}  BaseResponse{data=providers.HistoryResponse}
// @Failure      400    {object}  BaseResponse
// @Failure      503    {object}  BaseResponse
// @Security     BearerAuth
// @Router       /games/{kind}/history [get]
func (h *GameHandler) GetHistory(c *gin.Context) {
	player, ok := h.player(c)
	if !ok {
		return
	}
	var params HistoryQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		BadRequest(c, errors.New(errors.ErrInvalidRequest, err.Error()))
		return
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	result, err := h.session.History(c.Request.Context(), &providers.HistoryQuery{
		PlayerID: player.ID,
		Game:     kindFrom(c),
		Page:     params.Page,
		Limit:    params.Limit,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get round history")
		HandleAppError(c, err)
		return
	}
	OK(c, result)
}
