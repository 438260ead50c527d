package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// ImportHandler reacts to one import-completed event.
type ImportHandler interface {
	HandleImportCompleted(ctx context.Context, event *ImportCompletedEvent) error
}

// AutoSender runs the automatic driver send for a user.
type AutoSender interface {
	AutoSendMotorista(ctx context.Context, userID string) (string, error)
}

// AutoSendHandler triggers the driver send after status imports. The send
// itself checks the user's opt-in flag.
type AutoSendHandler struct {
	Sender AutoSender
}

func (h *AutoSendHandler) HandleImportCompleted(ctx context.Context, event *ImportCompletedEvent) error {
	if event.Collection != constants.CollectionPedidosComStatus || event.Saved == 0 {
		return nil
	}
	msg, err := h.Sender.AutoSendMotorista(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("auto send for user %s: %w", event.UserID, err)
	}
	logger.Info(fmt.Sprintf("Auto send for user %s: %s", event.UserID, msg))
	return nil
}

// Consumer reads import events with a sarama consumer group.
type Consumer struct {
	group         sarama.ConsumerGroup
	topic         string
	handler       ImportHandler
	retryInterval time.Duration
}

func NewConsumer(cfg config.KafkaConfig, handler ImportHandler) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID + "-consumer"
	saramaConfig.Version = parseKafkaVersion(cfg.Version)
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer group: %w", err)
	}
	logger.Info(fmt.Sprintf("Kafka consumer group created: %s", cfg.GroupID))
	return &Consumer{
		group:         group,
		topic:         cfg.Topic,
		handler:       handler,
		retryInterval: time.Second,
	}, nil
}

func parseKafkaVersion(version string) sarama.KafkaVersion {
	v, err := sarama.ParseKafkaVersion(version)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to parse Kafka version %s, using default", version))
		return sarama.V2_8_0_0
	}
	return v
}

// Run consumes until ctx is cancelled. Session errors are logged and the
// group rejoins after a short pause.
func (c *Consumer) Run(ctx context.Context) {
	go c.logErrors()

	h := &consumerGroupHandler{ctx: ctx, handler: c.handler}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			logger.Error(fmt.Sprintf("Kafka consume error: %v", err))
		}
		if ctx.Err() != nil {
			return
		}
		time.Sleep(c.retryInterval)
	}
}

func (c *Consumer) logErrors() {
	for err := range c.group.Errors() {
		logger.Error(fmt.Sprintf("Kafka consumer error: %v", err))
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	ctx     context.Context
	handler ImportHandler
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if err := h.processMessage(message); err != nil {
				logger.Error(fmt.Sprintf("Failed to process message at %s/%d/%d: %v",
					message.Topic, message.Partition, message.Offset, err))
			}
			session.MarkMessage(message, "")
		case <-h.ctx.Done():
			return nil
		}
	}
}

// processMessage decodes and dispatches one message. Undecodable payloads
// are reported and then skipped by the caller.
func (h *consumerGroupHandler) processMessage(message *sarama.ConsumerMessage) error {
	for _, header := range message.Headers {
		if header != nil && string(header.Key) == "event_type" && string(header.Value) != EventTypeImportCompleted {
			return nil
		}
	}
	var event ImportCompletedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal import event: %w", err)
	}
	return h.handler.HandleImportCompleted(h.ctx, &event)
}
