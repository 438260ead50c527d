package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// Deletion actions recorded for the phone list.
const (
	ActionDeleteAll = "delete_all"
	ActionDeleteRow = "delete_row"
)

// DeleteHistoryEntry audits a confirmed deletion.
type DeleteHistoryEntry struct {
	UserID       string    `bson:"userId"`
	UserName     string    `bson:"userName"`
	Action       string    `bson:"action"`
	CreatedAt    time.Time `bson:"createdAt"`
	DeletedCount *int64    `bson:"deletedCount,omitempty"`
	RowID        string    `bson:"rowId,omitempty"`
}

type HistoryRepository interface {
	Record(ctx context.Context, entry DeleteHistoryEntry) error
}

type historyRepository struct {
	coll *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) HistoryRepository {
	return &historyRepository{coll: db.Collection(constants.CollectionTelefonesHistory)}
}

func (r *historyRepository) Record(ctx context.Context, entry DeleteHistoryEntry) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record delete history: %w", err)
	}
	return nil
}
