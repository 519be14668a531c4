package provider

import (
	"context"

	"github.com/Digital-Creators-Team/casino-engine/events/kafka"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
)

// KafkaResultPublisher implements providers.ResultPublisher on the results topic.
type KafkaResultPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *kafka.Producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) PublishResult(_ context.Context, ev *providers.ResultEvent) error {
	return p.producer.SendMessage(p.topic, ev.RoundID, ev)
}
