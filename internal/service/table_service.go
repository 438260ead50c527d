package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// PageQuery selects one page of a listing. Page starts at 1.
type PageQuery struct {
	Page    int
	PerPage int
	Dates   []string
}

func (q PageQuery) skip() int64 {
	if q.Page < 1 {
		return 0
	}
	return int64(q.Page-1) * int64(q.PerPage)
}

// TableService serves the generic reads and deletes of one row collection.
type TableService interface {
	Page(ctx context.Context, userID string, q PageQuery) (*models.PageResult, error)
	StatusPage(ctx context.Context, userID string, q PageQuery) (*models.StatusPage, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	Total(ctx context.Context, userID string, dates []string) (int64, error)
	ProcessStatus(ctx context.Context, userID string) (int64, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	DeleteRow(ctx context.Context, userID, id string) error
}

type tableService struct {
	repo repository.RowRepository
}

func NewTableService(repo repository.RowRepository) TableService {
	return &tableService{repo: repo}
}

func (s *tableService) header(ctx context.Context, userID string) (*models.RowDocument, error) {
	header, err := s.repo.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return header, nil
}

// firstPageHeader returns the header values for page 1 and nil otherwise.
func firstPageHeader(page int, header *models.RowDocument) []string {
	if page != 1 {
		return nil
	}
	if header == nil || header.Values == nil {
		return []string{}
	}
	return header.Values
}

// Page lists data rows oldest first. The header is excluded from the rows
// and sent with the first page only.
func (s *tableService) Page(ctx context.Context, userID string, q PageQuery) (*models.PageResult, error) {
	header, err := s.header(ctx, userID)
	if err != nil {
		return nil, err
	}
	rq := repository.RowQuery{Dates: q.Dates}
	if header != nil {
		rq.ExcludeID = header.ID
	}

	total, err := s.repo.Count(ctx, userID, rq)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	result := &models.PageResult{Data: []models.RowItem{}, Total: total, Header: firstPageHeader(q.Page, header)}
	if total == 0 {
		return result, nil
	}

	docs, err := s.repo.List(ctx, userID, rq, q.skip(), int64(q.PerPage))
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	for _, d := range docs {
		result.Data = append(result.Data, models.NewRowItem(d))
	}
	return result, nil
}

// StatusPage lists pedidos_com_status rows with their tracking fields. Only
// documents carrying an import date count as data.
func (s *tableService) StatusPage(ctx context.Context, userID string, q PageQuery) (*models.StatusPage, error) {
	rq := repository.RowQuery{Dates: q.Dates, DataOnly: true}
	total, err := s.repo.Count(ctx, userID, rq)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	header, err := s.header(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := &models.StatusPage{Data: []models.StatusItem{}, Total: total, Header: firstPageHeader(q.Page, header)}
	if total == 0 {
		return result, nil
	}

	docs, err := s.repo.List(ctx, userID, rq, q.skip(), int64(q.PerPage))
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	for _, d := range docs {
		result.Data = append(result.Data, models.NewStatusItem(d))
	}
	return result, nil
}

func (s *tableService) Dates(ctx context.Context, userID string) ([]string, error) {
	dates, err := s.repo.ImportDates(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// Total counts data rows, optionally restricted to import dates.
func (s *tableService) Total(ctx context.Context, userID string, dates []string) (int64, error) {
	n, err := s.repo.Count(ctx, userID, repository.RowQuery{Dates: dates, DataOnly: true})
	if err != nil {
		return 0, apperr.Storage(constants.ErrDatabase, err)
	}
	return n, nil
}

// ProcessStatus reports how many status rows are stored, not counting the
// header. Rows are already persisted by the import.
func (s *tableService) ProcessStatus(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Count(ctx, userID, repository.RowQuery{})
	if err != nil {
		return 0, apperr.Storage(constants.ErrDatabase, err)
	}
	if n > 0 {
		n--
	}
	return n, nil
}

func (s *tableService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	return n, nil
}

func (s *tableService) DeleteRow(ctx context.Context, userID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.InvalidInput(constants.ErrInvalidID)
	}
	deleted, err := s.repo.DeleteByID(ctx, userID, oid)
	if err != nil {
		return apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	if !deleted {
		return apperr.NotFound(constants.ErrRecordNotFound)
	}
	return nil
}
