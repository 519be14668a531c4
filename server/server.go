package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/auth"
	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/middleware"
	"github.com/Digital-Creators-Team/casino-engine/pkg/feed"
	"github.com/Digital-Creators-Team/casino-engine/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// App represents the casino HTTP application
type App struct {
	engine     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	session    *session.Service
	feed       *feed.Service
	payment    PaymentProvider
	unpaid     UnpaidStore
	httpServer *http.Server
	onShutdown []func()

	gameHandler   *GameHandler
	playerHandler *PlayerHandler
	feedHandler   *FeedHandler
	pvpHandler    *PvPHandler
}

// Options holds server configuration options
type Options struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Session *session.Service
	Feed    *feed.Service
	// Payment and Unpaid back the PvP relay; the session holds its own.
	Payment PaymentProvider
	Unpaid  UnpaidStore
}

// Router is an alias for gin.Engine for convenience
type Router = gin.Engine

// New creates a new application
func New(opts Options) *App {
	// Configure decimal.Decimal to marshal as JSON number instead of string
	// WARNING: This may cause precision loss for decimals with many digits when
	// unmarshaled by clients using IEEE 754 double-precision (e.g., JavaScript)
	decimal.MarshalJSONWithoutQuotes = true

	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		engine:  gin.New(),
		config:  opts.Config,
		logger:  opts.Logger,
		session: opts.Session,
		feed:    opts.Feed,
		payment: opts.Payment,
		unpaid:  opts.Unpaid,
	}

	app.gameHandler = NewGameHandler(app)
	app.playerHandler = NewPlayerHandler(app)
	app.feedHandler = NewFeedHandler(app)
	app.pvpHandler = NewPvPHandler(app)

	return app
}

// UseCommonMiddlewares adds common middlewares to the application
func (a *App) UseCommonMiddlewares() {
	// Recovery middleware (must be first)
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))

	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS(a.config.Server.CORSOrigins...))
	}
}

// UseMiddleware adds a custom middleware
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// RegisterHealthCheck adds health check endpoints
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   a.config.Environment,
		"games":     a.session.Kinds(),
	})
}

// RegisterRoutes registers the API routes
//
// Flow: HTTP Request -> gameRoutes -> GameHandler -> session.Service -> game.Module
//
// Routes registered under /api:
//   - POST   /games/{kind}/play           -> GameHandler.Play
//   - POST   /games/{kind}/deal|hit|stand -> GameHandler.Deal / Hit / Stand
//   - POST   /games/{kind}/reset          -> GameHandler.Reset
//   - GET    /games/{kind}/state|config   -> GameHandler.GetState / GetConfig
//   - POST   /games/{kind}/bets           -> GameHandler.PlaceBet
//   - DELETE /games/{kind}/bets/last      -> GameHandler.CancelLastBet
//   - POST   /games/{kind}/bets/repeat    -> GameHandler.RepeatBets
//   - GET    /games/{kind}/history        -> GameHandler.GetHistory
//   - GET    /players/me/stats|missions   -> PlayerHandler
//   - GET    /leaderboard                 -> PlayerHandler.GetLeaderboard
//   - GET    /feed, /feed/ws              -> FeedHandler (public)
//   - GET    /pvp/ws                      -> PvPHandler.Connect
//   - GET    /admin/unpaid                -> PlayerHandler.ListUnpaid (admin token)
func (a *App) RegisterRoutes() {
	api := a.engine.Group("/api")

	if a.feed != nil {
		api.GET("/feed", a.feedHandler.StreamResults)
		api.GET("/feed/ws", a.feedHandler.StreamResultsWebSocket)
	}

	authed := api.Group("")
	authed.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	authed.Use(a.PlayerContextMiddleware())
	{
		games := authed.Group("/games/:kind")
		games.Use(a.GameKindMiddleware(), a.requestTimeout())
		{
			games.POST("/play", a.gameHandler.Play)
			games.POST("/deal", a.gameHandler.Deal)
			games.POST("/hit", a.gameHandler.Hit)
			games.POST("/stand", a.gameHandler.Stand)
			games.POST("/reset", a.gameHandler.Reset)
			games.GET("/state", a.gameHandler.GetState)
			games.GET("/config", a.gameHandler.GetConfig)
			games.POST("/bets", a.gameHandler.PlaceBet)
			games.DELETE("/bets/last", a.gameHandler.CancelLastBet)
			games.POST("/bets/repeat", a.gameHandler.RepeatBets)
			games.GET("/history", a.gameHandler.GetHistory)
		}

		authed.GET("/players/me/stats", a.requestTimeout(), a.playerHandler.GetStats)
		authed.GET("/players/me/missions", a.requestTimeout(), a.playerHandler.GetMissions)
		authed.GET("/leaderboard", a.requestTimeout(), a.playerHandler.GetLeaderboard)
		authed.GET("/pvp/ws", a.pvpHandler.Connect)

		authed.GET("/admin/unpaid", auth.RequireAdmin(), a.requestTimeout(), a.playerHandler.ListUnpaid)
	}

	a.logger.Info().
		Interface("games", a.session.Kinds()).
		Msg("API routes registered: /api")
}

// requestTimeout is skipped by the streaming routes.
func (a *App) requestTimeout() gin.HandlerFunc {
	if a.config.Server.RequestTimeout <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.Timeout(a.config.Server.RequestTimeout)
}

// AuthGroup creates a route group with JWT authentication
func (a *App) AuthGroup(path string) *gin.RouterGroup {
	return a.engine.Group(path, auth.JWTMiddleware(a.config.JWT.Secret, a.logger), a.PlayerContextMiddleware())
}

// Router returns the Gin engine for custom route registration
func (a *App) Router() *gin.Engine {
	return a.engine
}

// OnShutdown registers a function to be called on shutdown
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

func (a *App) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunWithContext(ctx)
}

// RunWithContext starts the HTTP server and shuts it down when ctx ends
func (a *App) RunWithContext(ctx context.Context) error {
	a.httpServer = a.newHTTPServer()

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}
	if a.feed != nil {
		a.feed.Stop()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
