package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ResultHandler receives each decoded result event.
type ResultHandler func(ev providers.ResultEvent)

// ResultFilter decides whether a result is forwarded; nil forwards everything.
type ResultFilter func(ev providers.ResultEvent) bool

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the results topic and forwards every event to a handler
// (the live feed).
type Consumer struct {
	reader  messageReader
	handler ResultHandler
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	filter ResultFilter
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a consumer positioned at the newest offset; the feed
// only cares about results that settle while it is running.
func NewConsumer(cfg ConsumerConfig, handler ResultHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return newConsumer(reader, handler, cfg.Logger)
}

func newConsumer(r messageReader, handler ResultHandler, logger zerolog.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  logger.With().Str("component", "kafka-consumer").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetFilter installs a result filter
func (c *Consumer) SetFilter(f ResultFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

// Start begins consuming messages
func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("close reader: %w", err)
	}
	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

func (c *Consumer) consume() {
	defer c.wg.Done()
	for {
		msg, err := c.reader.FetchMessage(c.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || c.ctx.Err() != nil {
				return
			}
			c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handleMessage(msg); err != nil {
			c.logger.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Error handling message")
		}
		if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
			c.logger.Error().Err(err).Msg("Error committing message")
		}
	}
}

func (c *Consumer) handleMessage(msg kafka.Message) error {
	var ev providers.ResultEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if ev.RoundID == "" {
		return errors.New("result without round id")
	}

	c.mu.RLock()
	filter := c.filter
	c.mu.RUnlock()
	if filter != nil && !filter(ev) {
		c.logger.Debug().Str("round_id", ev.RoundID).Msg("Skipping filtered result")
		return nil
	}
	c.handler(ev)
	return nil
}
