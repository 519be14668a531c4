package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Context keys for player information
const (
	PlayerIDKey = "player_id"
	ClaimsKey   = "claims"
)

// Claims represents the JWT claims structure
type Claims struct {
	PlayerID      string `json:"player_id"`
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address"`
	Admin         bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Player converts the claims into the engine's player record
func (c *Claims) Player() *game.Player {
	return &game.Player{ID: c.PlayerID, Username: c.Username, Address: c.WalletAddress}
}

// JWTConfig holds JWT middleware configuration
type JWTConfig struct {
	Secret      string
	TokenPrefix string
	// QueryParam is accepted when no header is sent (browsers cannot set
	// headers on WebSocket upgrades).
	QueryParam string
	SkipPaths  []string
}

// DefaultJWTConfig returns default JWT configuration
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:      secret,
		TokenPrefix: "Bearer",
		QueryParam:  "token",
		SkipPaths:   []string{"/health", "/api/health"},
	}
}

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string, logger zerolog.Logger) gin.HandlerFunc {
	return JWTMiddlewareWithConfig(DefaultJWTConfig(secret), logger)
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		IsSuccess:  false,
		Error: types.ErrorDetail{
			Timestamp:    time.Now().Format(time.RFC3339),
			Path:         c.Request.URL.Path,
			ErrorMessage: message,
			ErrorCode:    http.StatusUnauthorized,
		},
	})
}

// JWTMiddlewareWithConfig creates a JWT middleware with custom configuration
func JWTMiddlewareWithConfig(config JWTConfig, logger zerolog.Logger) gin.HandlerFunc {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		tokenString, msg := extractToken(c, config)
		if tokenString == "" {
			logger.Warn().Str("path", c.Request.URL.Path).Msg(msg)
			unauthorized(c, msg)
			return
		}

		claims, err := ParseToken(config.Secret, tokenString)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to parse JWT token")
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(PlayerIDKey, claims.PlayerID)
		c.Set(ClaimsKey, claims)

		logger.Debug().
			Str("player_id", claims.PlayerID).
			Str("username", claims.Username).
			Msg("JWT authentication successful")

		c.Next()
	}
}

func extractToken(c *gin.Context, config JWTConfig) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if config.QueryParam != "" {
			if tok := c.Query(config.QueryParam); tok != "" {
				return tok, ""
			}
		}
		return "", "Missing Authorization header"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != config.TokenPrefix {
		return "", "Invalid Authorization header format. Expected: Bearer <token>"
	}
	return parts[1], ""
}

// ParseToken validates an HS256 token and returns its claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.PlayerID == "" {
		return nil, errors.New("token has no player id")
	}
	return claims, nil
}

// RequireAdmin rejects tokens without the admin flag. It must run after JWTMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok || !claims.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, types.ErrorResponse{
				StatusCode: http.StatusForbidden,
				Error: types.ErrorDetail{
					Timestamp:    time.Now().Format(time.RFC3339),
					Path:         c.Request.URL.Path,
					ErrorMessage: "admin only",
					ErrorCode:    http.StatusForbidden,
				},
			})
			return
		}
		c.Next()
	}
}

// GetPlayerID extracts player ID from context
func GetPlayerID(c *gin.Context) (string, bool) {
	v, exists := c.Get(PlayerIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// GenerateToken issues a signed HS256 token for a player
func GenerateToken(secret string, player game.Player, admin bool, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		PlayerID:      player.ID,
		Username:      player.Username,
		WalletAddress: player.Address,
		Admin:         admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
