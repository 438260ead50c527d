package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/omniful/go_commons/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// Phone list header names, compared trimmed and upper-cased.
const (
	phoneColumnMotorista = "MOTORISTA"
	phoneColumnHub       = "HUB"
	phoneColumnContato   = "CONTATO"
)

type PhoneService interface {
	List(ctx context.Context, userID string, dates []string) ([]models.RowItem, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	FindContact(ctx context.Context, userID, motorista, base string) (*models.ContactResult, error)
	UpdateContact(ctx context.Context, userID, rowID, contato string) error
	RenameValues(ctx context.Context, userID string, colIndex int, from []string, to string) (int64, error)
	DeleteAll(ctx context.Context, userID, senha string) (int64, error)
	DeleteRow(ctx context.Context, userID, rowID, senha string) error
}

type phoneService struct {
	phones  repository.RowRepository
	users   repository.UserRepository
	history repository.HistoryRepository
	now     func() time.Time
}

func NewPhoneService(phones repository.RowRepository, users repository.UserRepository, history repository.HistoryRepository) PhoneService {
	return &phoneService{phones: phones, users: users, history: history, now: time.Now}
}

type phoneColumns struct {
	motorista int
	hub       int
	contato   int
}

func resolvePhoneColumns(header []string) phoneColumns {
	cols := phoneColumns{motorista: -1, hub: -1, contato: -1}
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case phoneColumnMotorista:
			cols.motorista = i
		case phoneColumnHub:
			cols.hub = i
		case phoneColumnContato:
			cols.contato = i
		}
	}
	return cols
}

// List returns the header row first, then data rows oldest first. With
// dates only rows imported on those dates follow the header.
func (s *phoneService) List(ctx context.Context, userID string, dates []string) ([]models.RowItem, error) {
	header, err := s.phones.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	items := []models.RowItem{}
	q := repository.RowQuery{Dates: dates}
	if header != nil {
		items = append(items, models.NewRowItem(*header))
		q.ExcludeID = header.ID
	}

	err = s.phones.Scan(ctx, userID, q, func(doc *models.RowDocument) error {
		items = append(items, models.NewRowItem(*doc))
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return items, nil
}

func (s *phoneService) Dates(ctx context.Context, userID string) ([]string, error) {
	dates, err := s.phones.ImportDates(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// FindContact looks up the phone of a driver at a hub. A missing list,
// column or row yields an empty contact.
func (s *phoneService) FindContact(ctx context.Context, userID, motorista, base string) (*models.ContactResult, error) {
	empty := &models.ContactResult{}
	header, err := s.phones.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if header == nil {
		return empty, nil
	}
	cols := resolvePhoneColumns(header.Values)
	if cols.motorista < 0 || cols.hub < 0 || cols.contato < 0 {
		return empty, nil
	}

	match := map[int]string{
		cols.motorista: strings.TrimSpace(motorista),
		cols.hub:       strings.TrimSpace(base),
	}
	row, err := s.phones.FindFirst(ctx, userID, match, header.ID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if row == nil {
		return empty, nil
	}
	id := row.ID.Hex()
	return &models.ContactResult{Contato: strings.TrimSpace(row.Value(cols.contato)), ID: &id}, nil
}

func (s *phoneService) UpdateContact(ctx context.Context, userID, rowID, contato string) error {
	oid, err := primitive.ObjectIDFromHex(rowID)
	if err != nil {
		return apperr.InvalidInput(constants.ErrInvalidRowID)
	}
	header, err := s.phones.FindHeader(ctx, userID)
	if err != nil {
		return apperr.Storage(constants.ErrDatabase, err)
	}
	if header == nil {
		return apperr.NotFound(constants.ErrPhoneHeaderMissing)
	}
	cols := resolvePhoneColumns(header.Values)
	if cols.contato < 0 {
		return apperr.InvalidInput(constants.ErrContactColumnMissing)
	}

	matched, err := s.phones.UpdateValue(ctx, userID, oid, cols.contato, strings.TrimSpace(contato))
	if err != nil {
		return apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	if !matched {
		return apperr.NotFound(constants.ErrRecordNotFound)
	}
	return nil
}

// RenameValues rewrites every data cell of column colIndex whose value is
// one of from.
func (s *phoneService) RenameValues(ctx context.Context, userID string, colIndex int, from []string, to string) (int64, error) {
	if colIndex < 0 {
		return 0, apperr.InvalidInput(constants.ErrInvalidColIndex)
	}
	if len(from) == 0 {
		return 0, nil
	}
	n, err := s.phones.ReplaceValues(ctx, userID, colIndex, from, to)
	if err != nil {
		return n, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	return n, nil
}

// confirmPassword loads the acting user and checks senha against it.
func (s *phoneService) confirmPassword(ctx context.Context, userID, senha string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(constants.ErrUserNotFound)
		}
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	ok, err := auth.VerifyPassword(user.SenhaHash, senha)
	if err != nil || !ok {
		return nil, apperr.Unauthorized(constants.ErrWrongPassword)
	}
	return user, nil
}

func (s *phoneService) record(ctx context.Context, entry repository.DeleteHistoryEntry) {
	entry.CreatedAt = s.now().UTC()
	if err := s.history.Record(ctx, entry); err != nil {
		logger.Error(fmt.Sprintf("Failed to record %s for user %s: %v", entry.Action, entry.UserID, err))
	}
}

func (s *phoneService) DeleteAll(ctx context.Context, userID, senha string) (int64, error) {
	user, err := s.confirmPassword(ctx, userID, senha)
	if err != nil {
		return 0, err
	}
	n, err := s.phones.DeleteAll(ctx, userID)
	if err != nil {
		return 0, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	s.record(ctx, repository.DeleteHistoryEntry{
		UserID:       userID,
		UserName:     user.Nome,
		Action:       repository.ActionDeleteAll,
		DeletedCount: &n,
	})
	return n, nil
}

func (s *phoneService) DeleteRow(ctx context.Context, userID, rowID, senha string) error {
	oid, err := primitive.ObjectIDFromHex(rowID)
	if err != nil {
		return apperr.InvalidInput(constants.ErrInvalidID)
	}
	user, err := s.confirmPassword(ctx, userID, senha)
	if err != nil {
		return err
	}
	deleted, err := s.phones.DeleteByID(ctx, userID, oid)
	if err != nil {
		return apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	if !deleted {
		return apperr.NotFound(constants.ErrRecordNotFound)
	}
	s.record(ctx, repository.DeleteHistoryEntry{
		UserID:   userID,
		UserName: user.Nome,
		Action:   repository.ActionDeleteRow,
		RowID:    rowID,
	})
	return nil
}
