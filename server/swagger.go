package server

import (
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// RegisterSwagger serves the swagger UI at /swagger/index.html. spec is the
// generated docs.SwaggerInfo; its host and scheme follow the request so the
// "try it out" calls work behind a reverse proxy.
func (a *App) RegisterSwagger(spec *swag.Spec) {
	var mu sync.Mutex
	handler := ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.DefaultModelsExpandDepth(-1))

	a.engine.GET("/swagger/*any", func(c *gin.Context) {
		host := c.GetHeader("X-Forwarded-Host")
		if host == "" {
			host = c.Request.Host
		}
		scheme := c.GetHeader("X-Forwarded-Proto")
		if scheme == "" {
			scheme = "http"
			if c.Request.TLS != nil {
				scheme = "https"
			}
		}

		mu.Lock()
		defer mu.Unlock()
		spec.Host = host
		spec.Schemes = []string{scheme}
		handler(c)
	})

	a.logger.Info().
		Str("title", spec.Title).
		Str("version", spec.Version).
		Msg("Swagger UI registered at /swagger/index.html")
}
