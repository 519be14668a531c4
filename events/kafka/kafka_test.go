package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	block  chan struct{}
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerWithoutBrokers(t *testing.T) {
	if p := NewProducer(ProducerConfig{}); p != nil {
		t.Error("expected nil producer without brokers")
	}
}

func TestProducerSendAndClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, ProducerConfig{Logger: zerolog.Nop(), WorkerNum: 1})

	if err := p.SendMessage("rounds", "r1", map[string]string{"roundId": "r1"}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(w.msgs) != 1 || w.msgs[0].Topic != "rounds" || string(w.msgs[0].Key) != "r1" {
		t.Errorf("unexpected messages %+v", w.msgs)
	}
	if !w.closed {
		t.Error("writer not closed")
	}
}

func TestProducerQueueFull(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	p := newProducer(w, ProducerConfig{Logger: zerolog.Nop(), WorkerNum: 1, QueueSize: 1})

	var full bool
	for i := 0; i < 5; i++ {
		if err := p.SendMessage("rounds", "k", i); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	close(w.block)
	_ = p.Close()
	if !full {
		t.Error("expected ErrQueueFull once the queue saturated")
	}
}

func TestProducerSendSync(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, ProducerConfig{Logger: zerolog.Nop()})
	defer p.Close()
	if err := p.SendMessageSync(context.Background(), "results", "r9", "x"); err != nil {
		t.Fatalf("SendMessageSync failed: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(w.msgs))
	}
}

type fakeReader struct {
	msgs      chan kafka.Message
	committed int
	mu        sync.Mutex
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed += len(msgs)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumerForwardsResults(t *testing.T) {
	r := &fakeReader{msgs: make(chan kafka.Message, 4)}
	got := make(chan providers.ResultEvent, 4)
	c := newConsumer(r, func(ev providers.ResultEvent) { got <- ev }, zerolog.Nop())
	c.SetFilter(func(ev providers.ResultEvent) bool { return ev.Game != game.KindPoker })

	for _, ev := range []providers.ResultEvent{
		{RoundID: "r1", Game: game.KindSlots},
		{RoundID: "r2", Game: game.KindPoker},
	} {
		body, _ := json.Marshal(ev)
		r.msgs <- kafka.Message{Value: body}
	}
	r.msgs <- kafka.Message{Value: []byte("not json")}

	c.Start()
	select {
	case ev := <-got:
		if ev.RoundID != "r1" {
			t.Errorf("expected r1, got %s", ev.RoundID)
		}
	case <-time.After(time.Second):
		t.Fatal("no result forwarded")
	}
	time.Sleep(50 * time.Millisecond)
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	select {
	case ev := <-got:
		t.Errorf("filtered result forwarded: %+v", ev)
	default:
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed != 3 {
		t.Errorf("expected 3 commits, got %d", r.committed)
	}
}
