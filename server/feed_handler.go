package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/pkg/feed"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	EventTypeConnected = "connected"
	EventTypeResults   = "results"
	EventTypeHeartbeat = "heartbeat"
)

// FeedHandler bridges feed.Service to HTTP routes (SSE + WebSocket).
type FeedHandler struct {
	svc             *feed.Service
	logger          zerolog.Logger
	heartbeatPeriod time.Duration
	upgrader        websocket.Upgrader
}

// NewFeedHandler creates a feed handler.
func NewFeedHandler(app *App) *FeedHandler {
	return &FeedHandler{
		svc:             app.feed,
		logger:          app.logger.With().Str("handler", "feed").Logger(),
		heartbeatPeriod: 30 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// FeedMessage is one frame of the live results stream.
type FeedMessage struct {
	Type      string                  `json:"type"`
	Timestamp int64                   `json:"timestamp"`
	Results   []providers.ResultEvent `json:"results,omitempty"`
}

// feedFilter narrows the stream to one game when ?game= is set.
func feedFilter(c *gin.Context) func(providers.ResultEvent) bool {
	g := c.Query("game")
	return func(ev providers.ResultEvent) bool {
		return g == "" || string(ev.Game) == g
	}
}

// StreamResults godoc
// @Summary      Live results (SSE)
// @Description  Streams settled rounds. The most recent results are sent on connect.
// @Tags         feed
// @Produce      text/event-stream
// @Param        game  query  string  false  "Only this game"
// @Router       /feed [get]
func (h *FeedHandler) StreamResults(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	h.stream(c.Request.Context(), feedFilter(c), &sseSender{writer: c.Writer})
}

// StreamResultsWebSocket godoc
// @Summary      Live results (WebSocket)
// @Tags         feed
// @Param        game  query  string  false  "Only this game"
// @Router       /feed/ws [get]
func (h *FeedHandler) StreamResultsWebSocket(c *gin.Context) {
	filter := feedFilter(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close() //nolint:errcheck

	done := make(chan struct{})

	// Listeners never write; a read error means the socket is gone.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug().Err(err).Msg("WebSocket closed unexpectedly")
				}
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()

	pingTicker := time.NewTicker(h.heartbeatPeriod)
	defer pingTicker.Stop()
	sender := &wsSender{conn: conn, done: done, logger: h.logger, writeDeadline: 10 * time.Second}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				if err := sender.ping(); err != nil {
					h.logger.Debug().Err(err).Msg("Failed to send ping")
					cancel()
					return
				}
			}
		}
	}()

	h.stream(ctx, filter, sender)
}

// stream sends the recent results, then each flushed batch until ctx ends
// or a write fails.
func (h *FeedHandler) stream(ctx context.Context, keep func(providers.ResultEvent) bool, sender messageSender) {
	batches, cancel := h.svc.Listen(ctx)
	defer cancel()

	if err := sender.Send(&FeedMessage{
		Type:      EventTypeConnected,
		Timestamp: time.Now().Unix(),
		Results:   lo.Filter(h.svc.Recent(), func(ev providers.ResultEvent, _ int) bool { return keep(ev) }),
	}); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to send connected event, stopping stream")
		return
	}

	heartbeat := time.NewTicker(h.heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := sender.Send(&FeedMessage{Type: EventTypeHeartbeat, Timestamp: time.Now().Unix()}); err != nil {
				return
			}
		case batch, ok := <-batches:
			if !ok {
				return
			}
			results := lo.Filter(batch, func(ev providers.ResultEvent, _ int) bool { return keep(ev) })
			if len(results) == 0 {
				continue
			}
			if err := sender.Send(&FeedMessage{
				Type:      EventTypeResults,
				Timestamp: time.Now().Unix(),
				Results:   results,
			}); err != nil {
				h.logger.Debug().Err(err).Int("count", len(results)).Msg("Failed to send results, stopping stream")
				return
			}
		}
	}
}

// messageSender abstracts SSE and WebSocket writes.
type messageSender interface {
	Send(*FeedMessage) error
}

type sseSender struct {
	writer http.ResponseWriter
}

func (s *sseSender) Send(msg *FeedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}
	if f, ok := s.writer.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

type wsSender struct {
	conn          *websocket.Conn
	done          <-chan struct{}
	logger        zerolog.Logger
	writeDeadline time.Duration
}

func (s *wsSender) Send(msg *FeedMessage) error {
	select {
	case <-s.done:
		return io.EOF
	default:
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeDeadline)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to set write deadline")
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Debug().Err(err).Str("event_type", msg.Type).Msg("WebSocket write failed: connection closed")
		} else {
			s.logger.Warn().Err(err).Str("event_type", msg.Type).Msg("WebSocket write failed")
		}
		return err
	}
	return nil
}

func (s *wsSender) ping() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}
