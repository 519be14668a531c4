package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowOrigins lists exact origins; empty or "*" allows any origin
	// without credentials.
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       int
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{"Authorization", "Content-Type", "Accept", "Cache-Control", TraceIDHeader}
)

// CORS allows the game front-ends in origins to call the API. The trace id
// header is exposed so clients can quote it to support.
func CORS(origins ...string) gin.HandlerFunc {
	return CORSWithConfig(CORSConfig{AllowOrigins: origins, MaxAge: 86400})
}

// CORSWithConfig creates a CORS middleware with custom configuration
func CORSWithConfig(config CORSConfig) gin.HandlerFunc {
	anyOrigin := len(config.AllowOrigins) == 0 || lo.Contains(config.AllowOrigins, "*")
	allowed := lo.SliceToMap(config.AllowOrigins, func(o string) (string, struct{}) { return o, struct{}{} })
	methods := strings.Join(lo.Ternary(len(config.AllowMethods) > 0, config.AllowMethods, corsMethods), ", ")
	headers := strings.Join(lo.Ternary(len(config.AllowHeaders) > 0, config.AllowHeaders, corsHeaders), ", ")

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case anyOrigin:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			h.Add("Vary", "Origin")
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		h.Set("Access-Control-Expose-Headers", TraceIDHeader)

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		if config.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}
