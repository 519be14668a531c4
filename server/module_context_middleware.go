package server

import (
	"github.com/Digital-Creators-Team/casino-engine/auth"
	"github.com/Digital-Creators-Team/casino-engine/errors"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/gin-gonic/gin"
)

const (
	playerKey = "player"
	kindKey   = "game_kind"
)

// PlayerContextMiddleware turns the JWT claims into a *game.Player on the
// gin context. It must run after auth.JWTMiddleware.
//
// Usage:
//
//	api.Use(auth.JWTMiddleware(...))
//	api.Use(app.PlayerContextMiddleware())
func (a *App) PlayerContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.GetClaims(c)
		if !ok {
			HandleAppError(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
			c.Abort()
			return
		}
		c.Set(playerKey, claims.Player())
		c.Next()
	}
}

// GameKindMiddleware resolves the :kind route parameter. Unknown games and
// games this engine does not run end the request with 404.
func (a *App) GameKindMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := game.ParseKind(c.Param("kind"))
		if err != nil || !kind.SinglePlayer() {
			HandleAppError(c, errors.New(errors.ErrGameModuleNotFound, "Game not found"))
			c.Abort()
			return
		}
		c.Set(kindKey, kind)
		c.Next()
	}
}

func playerFrom(c *gin.Context) (*game.Player, bool) {
	v, ok := c.Get(playerKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*game.Player)
	return p, ok
}

func kindFrom(c *gin.Context) game.Kind {
	return c.MustGet(kindKey).(game.Kind)
}
