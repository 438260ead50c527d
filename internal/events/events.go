// Package events announces completed spreadsheet imports to Kafka or SQS
// and consumes them to trigger follow-up work.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
)

const EventTypeImportCompleted = "import.completed"

// ImportCompletedEvent is emitted after rows of an upload were stored.
type ImportCompletedEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Collection string    `json:"collection"`
	ImportDate string    `json:"import_date"`
	Saved      int       `json:"saved"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewImportCompletedEvent(userID, collection, importDate string, saved int, archiveKey string) *ImportCompletedEvent {
	return &ImportCompletedEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		Collection: collection,
		ImportDate: importDate,
		Saved:      saved,
		ArchiveKey: archiveKey,
		CreatedAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	PublishImportCompleted(ctx context.Context, event *ImportCompletedEvent) error
	Close() error
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct{}

var _ Publisher = (*LogPublisher)(nil)

func (LogPublisher) PublishImportCompleted(ctx context.Context, event *ImportCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}
	logger.Info(fmt.Sprintf("[events disabled] %s: %s", EventTypeImportCompleted, payload))
	return nil
}

func (LogPublisher) Close() error {
	return nil
}

// NewPublisher builds the publisher selected by EVENTS_BACKEND.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.Events.Backend {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka), nil
	case "sqs":
		return NewSQSPublisher(cfg.SQS)
	default:
		return LogPublisher{}, nil
	}
}
