package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// RowQuery narrows reads of a row collection to one user's data.
type RowQuery struct {
	Dates     []string
	Periodo   string
	ExcludeID primitive.ObjectID
	DataOnly  bool
	Newest    bool
}

// RowWrite is one operation of a bulk upsert: an update of ID when set,
// otherwise an insert of Doc.
type RowWrite struct {
	ID  primitive.ObjectID
	Doc models.RowDocument
}

// RowRepository stores spreadsheet rows of one collection.
type RowRepository interface {
	Collection() string
	FindHeader(ctx context.Context, userID string) (*models.RowDocument, error)
	InsertHeader(ctx context.Context, userID string, values []string) (*models.RowDocument, error)
	Count(ctx context.Context, userID string, q RowQuery) (int64, error)
	ExistingKeys(ctx context.Context, userID string, keyIdx int) (map[string]struct{}, error)
	KeyIDs(ctx context.Context, userID string, keyIdx int, headerID primitive.ObjectID) (map[string]primitive.ObjectID, error)
	InsertMany(ctx context.Context, docs []models.RowDocument) (int, error)
	BulkUpsert(ctx context.Context, userID string, writes []RowWrite) error
	List(ctx context.Context, userID string, q RowQuery, skip, limit int64) ([]models.RowDocument, error)
	Scan(ctx context.Context, userID string, q RowQuery, fn func(*models.RowDocument) error) error
	FindFirst(ctx context.Context, userID string, match map[int]string, excludeID primitive.ObjectID) (*models.RowDocument, error)
	ImportDates(ctx context.Context, userID string) ([]string, error)
	UpdateValue(ctx context.Context, userID string, id primitive.ObjectID, idx int, value string) (bool, error)
	ReplaceValues(ctx context.Context, userID string, idx int, from []string, to string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	DeleteByID(ctx context.Context, userID string, id primitive.ObjectID) (bool, error)
}

type rowRepository struct {
	coll  *mongo.Collection
	name  string
	cache cache
}

func NewRowRepository(db *mongo.Database, name string, redis *redis.Client) RowRepository {
	return &rowRepository{
		coll:  db.Collection(name),
		name:  name,
		cache: cache{redis: redis},
	}
}

func (r *rowRepository) Collection() string {
	return r.name
}

func (r *rowRepository) FindHeader(ctx context.Context, userID string) (*models.RowDocument, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyHeader, r.name, userID)
	var cached models.RowDocument
	if r.cache.get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	filter := bson.M{
		"userId": userID,
		"$or": bson.A{
			bson.M{"isHeader": true},
			bson.M{"importDate": bson.M{"$exists": false}},
		},
	}
	var doc models.RowDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s header: %w", r.name, err)
	}

	r.cache.set(ctx, cacheKey, doc, constants.CacheTTLHeader)
	return &doc, nil
}

func (r *rowRepository) InsertHeader(ctx context.Context, userID string, values []string) (*models.RowDocument, error) {
	doc := models.RowDocument{UserID: userID, Values: values, IsHeader: true}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s header: %w", r.name, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	r.cache.del(ctx, fmt.Sprintf(constants.CacheKeyHeader, r.name, userID))
	return &doc, nil
}

func (q RowQuery) filter(userID string) bson.M {
	filter := bson.M{"userId": userID}
	switch {
	case len(q.Dates) > 0:
		filter["importDate"] = bson.M{"$in": q.Dates}
	case q.DataOnly:
		filter["importDate"] = bson.M{"$exists": true}
	}
	if q.Periodo != "" {
		filter["periodo"] = q.Periodo
	}
	if !q.ExcludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": q.ExcludeID}
	}
	return filter
}

func (q RowQuery) sort() bson.D {
	if q.Newest {
		return bson.D{{Key: "_id", Value: -1}}
	}
	return bson.D{{Key: "_id", Value: 1}}
}

func (r *rowRepository) Count(ctx context.Context, userID string, q RowQuery) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, q.filter(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.name, err)
	}
	return n, nil
}

type keyProjection struct {
	ID  primitive.ObjectID `bson:"_id"`
	Key interface{}        `bson:"k"`
}

func (p keyProjection) key() string {
	if p.Key == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(p.Key))
}

func (r *rowRepository) keyCursor(ctx context.Context, match bson.M, keyIdx int) (*mongo.Cursor, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$project", Value: bson.M{"_id": 1, "k": bson.M{"$arrayElemAt": bson.A{"$values", keyIdx}}}}},
	}
	return r.coll.Aggregate(ctx, pipeline)
}

// ExistingKeys returns the trimmed key column of every data document.
func (r *rowRepository) ExistingKeys(ctx context.Context, userID string, keyIdx int) (map[string]struct{}, error) {
	match := bson.M{"userId": userID, "importDate": bson.M{"$exists": true}}
	cursor, err := r.keyCursor(ctx, match, keyIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s keys: %w", r.name, err)
	}
	defer cursor.Close(ctx)

	keys := make(map[string]struct{})
	for cursor.Next(ctx) {
		var p keyProjection
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode %s key: %w", r.name, err)
		}
		if k := p.key(); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys, cursor.Err()
}

// KeyIDs maps each key to the document holding it. Later documents win.
func (r *rowRepository) KeyIDs(ctx context.Context, userID string, keyIdx int, headerID primitive.ObjectID) (map[string]primitive.ObjectID, error) {
	match := bson.M{"userId": userID, "_id": bson.M{"$ne": headerID}}
	cursor, err := r.keyCursor(ctx, match, keyIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s key ids: %w", r.name, err)
	}
	defer cursor.Close(ctx)

	ids := make(map[string]primitive.ObjectID)
	for cursor.Next(ctx) {
		var p keyProjection
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode %s key: %w", r.name, err)
		}
		if k := p.key(); k != "" {
			ids[k] = p.ID
		}
	}
	return ids, cursor.Err()
}

// InsertMany performs one ordered insert. On a write error the returned
// count is the number of documents stored before the failing one.
func (r *rowRepository) InsertMany(ctx context.Context, docs []models.RowDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}

	_, err := r.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(true))
	if err == nil {
		r.invalidateDates(ctx, docs[0].UserID)
		return len(docs), nil
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		first := bwe.WriteErrors[0]
		if first.Index > 0 {
			r.invalidateDates(ctx, docs[0].UserID)
		}
		return first.Index, &BatchError{Index: first.Index, Message: first.Message, Err: err}
	}
	return 0, fmt.Errorf("failed to insert %s batch: %w", r.name, err)
}

// BulkUpsert runs an unordered bulk write of updates and inserts.
func (r *rowRepository) BulkUpsert(ctx context.Context, userID string, writes []RowWrite) error {
	if len(writes) == 0 {
		return nil
	}
	ops := make([]mongo.WriteModel, 0, len(writes))
	for _, w := range writes {
		if w.ID.IsZero() {
			ops = append(ops, mongo.NewInsertOneModel().SetDocument(w.Doc))
			continue
		}
		set := bson.D{
			{Key: "values", Value: w.Doc.Values},
			{Key: "importDate", Value: w.Doc.ImportDate},
			{Key: "updatedAt", Value: w.Doc.UpdatedAt},
		}
		if w.Doc.Periodo != "" {
			set = append(set, bson.E{Key: "periodo", Value: w.Doc.Periodo})
		}
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": w.ID, "userId": userID}).
			SetUpdate(bson.M{"$set": set}))
	}

	_, err := r.coll.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
	r.invalidateDates(ctx, userID)
	if err == nil {
		return nil
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		msgs := make([]string, 0, 3)
		for i, we := range bwe.WriteErrors {
			if i == 3 {
				break
			}
			msgs = append(msgs, we.Message)
		}
		return &BulkError{Messages: msgs, Err: err}
	}
	return fmt.Errorf("failed to bulk write %s: %w", r.name, err)
}

func (r *rowRepository) List(ctx context.Context, userID string, q RowQuery, skip, limit int64) ([]models.RowDocument, error) {
	opts := options.Find().SetSort(q.sort()).SetSkip(skip).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, q.filter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.name, err)
	}
	defer cursor.Close(ctx)

	docs := []models.RowDocument{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.name, err)
	}
	return docs, nil
}

// Scan streams matching documents to fn, stopping at the first error.
func (r *rowRepository) Scan(ctx context.Context, userID string, q RowQuery, fn func(*models.RowDocument) error) error {
	cursor, err := r.coll.Find(ctx, q.filter(userID), options.Find().SetSort(q.sort()))
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", r.name, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc models.RowDocument
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("failed to decode %s: %w", r.name, err)
		}
		if err := fn(&doc); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// FindFirst returns the oldest data document whose cells equal match
// (column index to value), or nil when none does.
func (r *rowRepository) FindFirst(ctx context.Context, userID string, match map[int]string, excludeID primitive.ObjectID) (*models.RowDocument, error) {
	filter := bson.M{"userId": userID, "isHeader": bson.M{"$ne": true}}
	for idx, value := range match {
		filter[fmt.Sprintf("values.%d", idx)] = value
	}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	var doc models.RowDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s row: %w", r.name, err)
	}
	return &doc, nil
}

// ImportDates returns the distinct import dates, newest first.
func (r *rowRepository) ImportDates(ctx context.Context, userID string) ([]string, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyImportDates, r.name, userID)
	var dates []string
	if r.cache.get(ctx, cacheKey, &dates) {
		return dates, nil
	}

	raw, err := r.coll.Distinct(ctx, "importDate", bson.M{"userId": userID, "importDate": bson.M{"$exists": true}})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s import dates: %w", r.name, err)
	}
	dates = NormalizeDates(raw)

	r.cache.set(ctx, cacheKey, dates, constants.CacheTTLImportDates)
	return dates, nil
}

// NormalizeDates reduces distinct importDate values to sorted, unique
// YYYY-MM-DD strings, newest first.
func NormalizeDates(raw []interface{}) []string {
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		var s string
		switch x := v.(type) {
		case nil:
			continue
		case string:
			s = strings.TrimSpace(x)
		case primitive.DateTime:
			s = x.Time().UTC().Format("2006-01-02")
		case time.Time:
			s = x.UTC().Format("2006-01-02")
		default:
			s = strings.TrimSpace(fmt.Sprint(x))
		}
		if len(s) < 10 {
			continue
		}
		seen[s[:10]] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func (r *rowRepository) UpdateValue(ctx context.Context, userID string, id primitive.ObjectID, idx int, value string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{fmt.Sprintf("values.%d", idx): value}})
	if err != nil {
		return false, fmt.Errorf("failed to update %s row: %w", r.name, err)
	}
	return res.MatchedCount > 0, nil
}

// ReplaceValues sets column idx to `to` on data rows whose value is in from.
func (r *rowRepository) ReplaceValues(ctx context.Context, userID string, idx int, from []string, to string) (int64, error) {
	field := fmt.Sprintf("values.%d", idx)
	var total int64
	for _, v := range from {
		res, err := r.coll.UpdateMany(ctx,
			bson.M{"userId": userID, "isHeader": bson.M{"$ne": true}, field: v},
			bson.M{"$set": bson.M{field: to}})
		if err != nil {
			return total, fmt.Errorf("failed to update %s rows: %w", r.name, err)
		}
		total += res.ModifiedCount
	}
	return total, nil
}

func (r *rowRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", r.name, err)
	}
	r.invalidateDates(ctx, userID)
	r.cache.del(ctx, fmt.Sprintf(constants.CacheKeyHeader, r.name, userID))
	return res.DeletedCount, nil
}

func (r *rowRepository) DeleteByID(ctx context.Context, userID string, id primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s row: %w", r.name, err)
	}
	r.invalidateDates(ctx, userID)
	r.cache.del(ctx, fmt.Sprintf(constants.CacheKeyHeader, r.name, userID))
	return res.DeletedCount > 0, nil
}

func (r *rowRepository) invalidateDates(ctx context.Context, userID string) {
	r.cache.del(ctx, fmt.Sprintf(constants.CacheKeyImportDates, r.name, userID))
}
