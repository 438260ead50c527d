package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// DeliveryFilter selects joined records. Dates and ExcludeDates match
// importDate with $in and $nin; Marca matches the signature field exactly.
type DeliveryFilter struct {
	Dates        []string
	ExcludeDates []string
	Marca        string
}

func (f DeliveryFilter) query(userID string) bson.M {
	filter := bson.M{"userId": userID}
	dateCond := bson.M{}
	if len(f.Dates) > 0 {
		dateCond["$in"] = f.Dates
	}
	if len(f.ExcludeDates) > 0 {
		dateCond["$nin"] = f.ExcludeDates
	}
	if len(dateCond) > 0 {
		filter["importDate"] = dateCond
	}
	if f.Marca != "" {
		filter[models.FieldMarcaAssinatura] = f.Marca
	}
	return filter
}

// DeliveryRepository stores joined records of the motorista and base
// collections.
type DeliveryRepository interface {
	Collection() string
	Exists(ctx context.Context, userID, jms string) (bool, error)
	Insert(ctx context.Context, rec *models.DeliveryRecord) error
	Page(ctx context.Context, userID string, f DeliveryFilter, skip, limit int64) ([]models.DeliveryRecord, int64, error)
	FindAll(ctx context.Context, userID string, f DeliveryFilter) ([]models.DeliveryRecord, error)
	ImportDates(ctx context.Context, userID string) ([]string, error)
	JMSNumbers(ctx context.Context, userID string, dates []string) ([]string, error)
	UpdateByJMS(ctx context.Context, userID, jms string, set bson.D) (bool, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

type deliveryRepository struct {
	coll  *mongo.Collection
	name  string
	cache cache
}

func NewDeliveryRepository(db *mongo.Database, name string, redis *redis.Client) DeliveryRepository {
	return &deliveryRepository{
		coll:  db.Collection(name),
		name:  name,
		cache: cache{redis: redis},
	}
}

func (r *deliveryRepository) Collection() string {
	return r.name
}

func (r *deliveryRepository) Exists(ctx context.Context, userID, jms string) (bool, error) {
	err := r.coll.FindOne(ctx,
		bson.M{"userId": userID, models.FieldJMS: jms},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s record: %w", r.name, err)
	}
	return true, nil
}

func (r *deliveryRepository) Insert(ctx context.Context, rec *models.DeliveryRecord) error {
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert %s record: %w", r.name, err)
	}
	r.invalidateDates(ctx, rec.UserID)
	return nil
}

// Page returns records newest first with the total matching count.
func (r *deliveryRepository) Page(ctx context.Context, userID string, f DeliveryFilter, skip, limit int64) ([]models.DeliveryRecord, int64, error) {
	filter := f.query(userID)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", r.name, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	records, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindAll returns every matching record newest first.
func (r *deliveryRepository) FindAll(ctx context.Context, userID string, f DeliveryFilter) ([]models.DeliveryRecord, error) {
	return r.find(ctx, f.query(userID), options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
}

func (r *deliveryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.DeliveryRecord, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.name, err)
	}
	defer cursor.Close(ctx)

	records := []models.DeliveryRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.name, err)
	}
	return records, nil
}

func (r *deliveryRepository) ImportDates(ctx context.Context, userID string) ([]string, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyImportDates, r.name, userID)
	var dates []string
	if r.cache.get(ctx, cacheKey, &dates) {
		return dates, nil
	}

	raw, err := r.coll.Distinct(ctx, "importDate", bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s import dates: %w", r.name, err)
	}
	dates = NormalizeDates(raw)

	r.cache.set(ctx, cacheKey, dates, constants.CacheTTLImportDates)
	return dates, nil
}

// JMSNumbers returns the trimmed non-empty JMS values in storage order.
func (r *deliveryRepository) JMSNumbers(ctx context.Context, userID string, dates []string) ([]string, error) {
	filter := DeliveryFilter{Dates: dates}.query(userID)
	opts := options.Find().
		SetProjection(bson.M{models.FieldJMS: 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	records, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		if jms := strings.TrimSpace(rec.JMS); jms != "" {
			numbers = append(numbers, jms)
		}
	}
	return numbers, nil
}

// UpdateByJMS sets fields on the first record holding jms.
func (r *deliveryRepository) UpdateByJMS(ctx context.Context, userID, jms string, set bson.D) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, models.FieldJMS: jms},
		bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update %s record: %w", r.name, err)
	}
	r.invalidateDates(ctx, userID)
	return res.MatchedCount > 0, nil
}

func (r *deliveryRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", r.name, err)
	}
	r.invalidateDates(ctx, userID)
	return res.DeletedCount, nil
}

func (r *deliveryRepository) invalidateDates(ctx context.Context, userID string) {
	r.cache.del(ctx, fmt.Sprintf(constants.CacheKeyImportDates, r.name, userID))
}
