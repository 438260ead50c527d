package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	gokafka "github.com/omniful/go_commons/kafka"
	logger "github.com/omniful/go_commons/log"
	"github.com/omniful/go_commons/pubsub"

	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) error
}

// KafkaPublisher sends events through the go_commons producer, keyed by
// user so one user's imports stay ordered.
type KafkaPublisher struct {
	producer messagePublisher
	client   *gokafka.ProducerClient
	topic    string
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	logger.Info(fmt.Sprintf("Initializing Kafka producer with brokers: %v", cfg.Brokers))
	producer := gokafka.NewProducer(
		gokafka.WithBrokers(cfg.Brokers),
		gokafka.WithClientID(cfg.ClientID+"-producer"),
		gokafka.WithKafkaVersion(cfg.Version),
	)
	return &KafkaPublisher{producer: producer, client: producer, topic: cfg.Topic}
}

func (k *KafkaPublisher) PublishImportCompleted(ctx context.Context, event *ImportCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	msg := &pubsub.Message{
		Topic: k.topic,
		Key:   event.UserID,
		Value: payload,
		Headers: map[string]string{
			"event_type": EventTypeImportCompleted,
			"event_id":   event.EventID,
			"collection": event.Collection,
			"saved":      strconv.Itoa(event.Saved),
			"created_at": event.CreatedAt.Format(time.RFC3339),
		},
	}
	if err := k.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish failed: %w", err)
	}
	logger.Info(fmt.Sprintf("Published %s to %s for user %s (%s)", EventTypeImportCompleted, k.topic, event.UserID, event.Collection))
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.client != nil {
		k.client.Close()
	}
	return nil
}
