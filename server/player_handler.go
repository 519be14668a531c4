package server

import (
	"strconv"

	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
	"github.com/Digital-Creators-Team/casino-engine/session"
	"github.com/gin-gonic/gin"
)

// PlayerHandler serves cross-game player views and operator reports.
type PlayerHandler struct {
	session *session.Service
}

func NewPlayerHandler(app *App) *PlayerHandler {
	return &PlayerHandler{session: app.session}
}

// GetStats godoc
// @Summary      Get player statistics
// @Description  Spins, wins and total winnings per game and overall
// @Tags         player
// @Produce      json
// @Success      200  {object}  BaseResponse{data=session.PlayerStats}
// @Failure      401  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /players/me/stats [get]
func (h *PlayerHandler) GetStats(c *gin.Context) {
	player, ok := playerFrom(c)
	if !ok {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}
	stats, err := h.session.Stats(c.Request.Context(), player.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, stats)
}

// GetMissions godoc
// @Summary      Get mission progress
// @Tags         player
// @Produce      json
// @Success      200  {object}  BaseResponse{data=[]missions.Status}
// @Failure      401  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /players/me/missions [get]
func (h *PlayerHandler) GetMissions(c *gin.Context) {
	player, ok := playerFrom(c)
	if !ok {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return
	}
	status, err := h.session.Missions(c.Request.Context(), player.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, status)
}

// GetLeaderboard godoc
// @Summary      Top players by total winnings
// @Tags         player
// @Produce      json
// @Param        limit  query  int  false  "Entries (default 10, max 100)"
// @Success      200    {object}  BaseResponse{data=[]providers.LeaderboardEntry}
// @Security     BearerAuth
// @Router       /leaderboard [get]
func (h *PlayerHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.session.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, entries)
}

// ListUnpaid godoc
// @Summary      List won-but-unpaid rounds
// @Description  Operator view of rounds whose settlement failed, for manual payout
// @Tags         admin
// @Produce      json
// @Param        player_id  query  string  false  "Only this player"
// @Param        all        query  bool    false  "Include resolved rounds"
// @Param        limit      query  int     false  "Maximum rows"
// @Success      200  {object}  BaseResponse{data=[]reconcile.UnpaidRound}
// @Failure      403  {object}  BaseResponse
// @Security     BearerAuth
// @Router       /admin/unpaid [get]
func (h *PlayerHandler) ListUnpaid(c *gin.Context) {
	limit, _ := strconv.ParseUint(c.Query("limit"), 10, 64)
	all, _ := strconv.ParseBool(c.Query("all"))
	rounds, err := h.session.Unpaid(c.Request.Context(), reconcile.Filter{
		PlayerID:        c.Query("player_id"),
		IncludeResolved: all,
		Limit:           limit,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, rounds)
}
