package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	defaultWorkerNum = 4
	defaultQueueSize = 256
)

// ErrQueueFull is returned by SendMessage when the async queue is saturated.
var ErrQueueFull = errors.New("kafka: producer queue full")

// Producer publishes JSON events. SendMessage is async through a worker pool;
// a full queue is reported instead of blocking a settled round.
type Producer struct {
	writer    messageWriter
	logger    zerolog.Logger
	jobs      chan kafka.Message
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerConfig holds configuration for Kafka producer
type ProducerConfig struct {
	Brokers   []string
	Logger    zerolog.Logger
	WorkerNum int
	QueueSize int
}

// NewProducer returns nil when no brokers are configured; callers treat a
// nil producer as "audit disabled".
func NewProducer(cfg ProducerConfig) *Producer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return newProducer(writer, cfg)
}

func newProducer(w messageWriter, cfg ProducerConfig) *Producer {
	workers := cfg.WorkerNum
	if workers <= 0 {
		workers = defaultWorkerNum
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}
	p := &Producer{
		writer: w,
		logger: cfg.Logger.With().Str("component", "kafka-producer").Logger(),
		jobs:   make(chan kafka.Message, queue),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Producer) worker() {
	defer p.wg.Done()
	for msg := range p.jobs {
		p.write(msg)
	}
}

func (p *Producer) write(msg kafka.Message) {
	defer p.recover()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().
			Err(err).
			Str("topic", msg.Topic).
			Str("key", string(msg.Key)).
			Msg("Failed to send message to Kafka")
		return
	}
	p.logger.Debug().Str("topic", msg.Topic).Str("key", string(msg.Key)).Msg("Message sent to Kafka")
}

func encode(topic, key string, value interface{}) (kafka.Message, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{Topic: topic, Key: []byte(key), Value: body, Time: time.Now()}, nil
}

// SendMessage queues value for topic, keyed by key.
func (p *Producer) SendMessage(topic, key string, value interface{}) error {
	msg, err := encode(topic, key, value)
	if err != nil {
		return err
	}
	select {
	case p.jobs <- msg:
		return nil
	default:
		p.logger.Warn().Str("topic", topic).Str("key", key).Msg("Kafka queue full, event dropped")
		return ErrQueueFull
	}
}

// SendMessageSync writes value and waits for the broker's ack.
func (p *Producer) SendMessageSync(ctx context.Context, topic, key string, value interface{}) error {
	msg, err := encode(topic, key, value)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}
	return nil
}

// Close drains the queue and closes the writer.
func (p *Producer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		err = p.writer.Close()
	})
	return err
}

func (p *Producer) recover() {
	if r := recover(); r != nil {
		p.logger.Error().
			Str("operation", "send_message_kafka").
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack_trace", string(debug.Stack())).
			Msg("Panic recovered")
	}
}
