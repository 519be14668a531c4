package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// QuietPrefixes are request paths logged at debug level only: health probes
// and the long-lived feed streams.
var QuietPrefixes = []string{"/health", "/api/health", "/api/feed", "/swagger/"}

// Logging logs one line per request once the handler chain has finished.
// Game routes carry the game kind and round id so a round can be followed
// from request to audit event.
func Logging(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		case quiet(c.Request.URL.Path):
			level = zerolog.DebugLevel
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		event := logger.WithLevel(level).
			Str("trace_id", GetTraceID(c)).
			Str("method", c.Request.Method).
			Str("route", route).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("duration", time.Since(start))

		if playerID := c.GetString("player_id"); playerID != "" {
			event = event.Str("player_id", playerID)
		}
		if kind := c.Param("kind"); kind != "" {
			event = event.Str("game_kind", kind)
		}
		if roundID := c.GetString(RoundIDKey); roundID != "" {
			event = event.Str("round_id", roundID)
		}
		if len(c.Errors) > 0 {
			event = event.Strs("errors", lo.Map(c.Errors, func(e *gin.Error, _ int) string { return e.Error() }))
		}
		event.Msg("request")
	}
}

// RoundIDKey is the gin key handlers set once a round id is known.
const RoundIDKey = "round_id"

func quiet(path string) bool {
	return lo.SomeBy(QuietPrefixes, func(p string) bool { return strings.HasPrefix(path, p) })
}
