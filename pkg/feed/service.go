// Package feed buffers settled round results and streams them to live listeners.
// It is transport-agnostic: the server wires SSE and WebSocket routes over Listen.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	// DefaultFlushInterval is how often buffered results are flushed to listeners
	DefaultFlushInterval = 500 * time.Millisecond

	// DefaultRecent is how many results a new listener receives on connect
	DefaultRecent = 20
)

// Config configures the feed service.
type Config struct {
	FlushInterval time.Duration
	Recent        int
	Logger        zerolog.Logger
}

// Service collects results (from Kafka or directly from the session) and
// flushes them in batches to every listener.
type Service struct {
	mu       sync.Mutex
	buffer   []providers.ResultEvent
	recent   []providers.ResultEvent
	keep     int
	broad    *Broadcaster[[]providers.ResultEvent]
	logger   zerolog.Logger
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewService creates the feed and starts its flush loop.
func NewService(cfg Config) *Service {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	keep := cfg.Recent
	if keep <= 0 {
		keep = DefaultRecent
	}
	s := &Service{
		keep:     keep,
		broad:    NewBroadcaster[[]providers.ResultEvent](16),
		logger:   cfg.Logger.With().Str("component", "feed").Logger(),
		interval: interval,
		stop:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Handle buffers one result. A round already waiting in the buffer is ignored.
func (s *Service) Handle(ev providers.ResultEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if lo.ContainsBy(s.buffer, func(b providers.ResultEvent) bool { return b.RoundID == ev.RoundID }) {
		s.logger.Debug().Str("round_id", ev.RoundID).Msg("duplicate result ignored")
		return
	}
	s.buffer = append(s.buffer, ev)
}

// PublishResult lets the feed stand in for the Kafka publisher when no
// brokers are configured.
func (s *Service) PublishResult(_ context.Context, ev *providers.ResultEvent) error {
	s.Handle(*ev)
	return nil
}

// Recent returns the latest results, newest first.
func (s *Service) Recent() []providers.ResultEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.ResultEvent(nil), s.recent...)
}

// Listen returns a channel of flushed batches plus a cancel function.
func (s *Service) Listen(ctx context.Context) (<-chan []providers.ResultEvent, context.CancelFunc) {
	return s.broad.Listen(ctx)
}

// Stop ends the flush loop. Buffered results are flushed one last time.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Service) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// Flush broadcasts buffered results and folds them into the recent list.
func (s *Service) Flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = nil
	s.recent = append(lo.Reverse(append([]providers.ResultEvent(nil), batch...)), s.recent...)
	if len(s.recent) > s.keep {
		s.recent = s.recent[:s.keep]
	}
	s.mu.Unlock()

	if dropped := s.broad.Send(batch); dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("slow feed listeners skipped a batch")
	}
	if s.logger.GetLevel() <= zerolog.DebugLevel {
		s.logger.Debug().Int("count", len(batch)).Msg("flushed results")
	}
}
