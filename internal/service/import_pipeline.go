package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/omniful/go_commons/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/columns"
	"github.com/Afonso-Front-End/torre-de-controle/internal/events"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/rejects"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/internal/sheet"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// UploadArchiver keeps a copy of every accepted upload.
type UploadArchiver interface {
	Store(ctx context.Context, collection, userID, importDate string, data []byte) (string, error)
}

// RejectLogger records rows an import left out on purpose.
type RejectLogger interface {
	Log(ctx context.Context, records ...rejects.Record) error
}

// importPlan is what a profile derives from a parsed sheet.
type importPlan struct {
	// Header is stored when the user has no document in the collection yet.
	Header []string
	Rows   [][]string
	// KeyIdx selects the business key column. Rows whose key is already
	// stored are skipped when SkipExisting is set.
	KeyIdx       int
	SkipExisting bool
	// Exclude returns a non-empty reason for rows that must not be stored.
	Exclude  func(row []string) string
	Decorate func(doc *models.RowDocument, row []string)
}

type importProfile struct {
	repo      repository.RowRepository
	batchSize int
	echoRows  bool
	plan      func(sheet [][]string) (*importPlan, error)
}

// pipeline runs spreadsheet imports and their side effects.
type pipeline struct {
	archiver  UploadArchiver
	publisher events.Publisher
	rejects   RejectLogger
	now       func() time.Time
}

// readSheet parses the first worksheet of an upload.
func readSheet(data []byte) ([][]string, error) {
	rows, err := sheet.Read(data)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.InvalidFormat(err)
	}
	if len(rows) == 0 {
		return nil, apperr.EmptyWorkbook()
	}
	return rows, nil
}

func (p *pipeline) run(ctx context.Context, userID string, data []byte, profile importProfile) (*models.ImportResult, error) {
	rows, err := readSheet(data)
	if err != nil {
		return nil, err
	}
	plan, err := profile.plan(rows)
	if err != nil {
		return nil, err
	}

	repo := profile.repo
	now := p.now().UTC()
	importDate := now.Format("2006-01-02")

	count, err := repo.Count(ctx, userID, repository.RowQuery{})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if count == 0 {
		if _, err := repo.InsertHeader(ctx, userID, plan.Header); err != nil {
			return nil, apperr.Storage(constants.ErrDatabaseWrite, err)
		}
	}

	existing := map[string]struct{}{}
	if plan.SkipExisting && plan.KeyIdx != columns.NotFound {
		if existing, err = repo.ExistingKeys(ctx, userID, plan.KeyIdx); err != nil {
			return nil, apperr.Storage(constants.ErrDatabase, err)
		}
	}

	docs := make([]models.RowDocument, 0, len(plan.Rows))
	var rejected []rejects.Record
	for i, row := range plan.Rows {
		if plan.Exclude != nil {
			if reason := plan.Exclude(row); reason != "" {
				rejected = append(rejected, rejects.Record{
					RowNumber:  i + 2,
					Collection: repo.Collection(),
					UserID:     userID,
					Reason:     reason,
					Values:     row,
					Timestamp:  now,
				})
				continue
			}
		}
		key := columns.Cell(row, plan.KeyIdx)
		if plan.SkipExisting && key != "" {
			if _, ok := existing[key]; ok {
				continue
			}
			existing[key] = struct{}{}
		}

		createdAt := now
		doc := models.RowDocument{
			ID:         primitive.NewObjectID(),
			UserID:     userID,
			Values:     row,
			CreatedAt:  &createdAt,
			ImportDate: importDate,
		}
		if plan.Decorate != nil {
			plan.Decorate(&doc, row)
		}
		docs = append(docs, doc)
	}

	if err := p.rejects.Log(ctx, rejected...); err != nil {
		logger.Error(fmt.Sprintf("Failed to log %d rejected %s rows: %v", len(rejected), repo.Collection(), err))
	}

	saved, err := insertBatches(ctx, repo, docs, profile.batchSize)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{Saved: saved}
	if profile.echoRows {
		result.Data = make([]models.RowItem, 0, len(docs))
		for _, d := range docs {
			result.Data = append(result.Data, models.NewRowItem(d))
		}
	}
	result.ArchiveKey = p.afterImport(ctx, userID, repo.Collection(), importDate, saved, data)
	logger.Info(fmt.Sprintf("Imported %d rows into %s for user %s (%d rejected)", saved, repo.Collection(), userID, len(rejected)))
	return result, nil
}

// insertBatches stores docs in ordered batches. A failed batch aborts the
// import; earlier batches stay committed.
func insertBatches(ctx context.Context, repo repository.RowRepository, docs []models.RowDocument, size int) (int, error) {
	saved := 0
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		n, err := repo.InsertMany(ctx, docs[start:end])
		if err != nil {
			var batchErr *repository.BatchError
			if errors.As(err, &batchErr) {
				msg := fmt.Sprintf(constants.ErrBatchInsert, saved+batchErr.Index+1, batchErr.Message)
				return saved + n, apperr.Storage(msg, err)
			}
			return saved + n, apperr.Storage(constants.ErrDatabaseWrite, err)
		}
		saved += n
	}
	return saved, nil
}

// afterImport archives the upload and announces the import. Both are best
// effort.
func (p *pipeline) afterImport(ctx context.Context, userID, collection, importDate string, saved int, data []byte) string {
	key, err := p.archiver.Store(ctx, collection, userID, importDate, data)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to archive %s upload for user %s: %v", collection, userID, err))
	}

	event := events.NewImportCompletedEvent(userID, collection, importDate, saved, key)
	if err := p.publisher.PublishImportCompleted(ctx, event); err != nil {
		logger.Error(fmt.Sprintf("Failed to publish import event %s: %v", event.EventID, err))
	}
	return key
}
