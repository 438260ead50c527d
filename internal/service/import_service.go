package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/columns"
	"github.com/Afonso-Front-End/torre-de-controle/internal/dedup"
	"github.com/Afonso-Front-End/torre-de-controle/internal/events"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/rejects"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/internal/timeparse"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type ImportService interface {
	ImportPedidos(ctx context.Context, userID string, data []byte) (*models.ImportResult, error)
	ImportConsultaBipagens(ctx context.Context, userID string, data []byte) (*models.ImportResult, error)
	ImportSLA(ctx context.Context, userID string, data []byte) (*models.ImportResult, error)
	UpdateSLA(ctx context.Context, userID string, data []byte) (*models.SLAUpdateResult, error)
	ImportEntradaGalpao(ctx context.Context, userID string, data []byte) (*models.ImportResult, error)
	ImportTelefones(ctx context.Context, userID string, data []byte) (*models.ImportResult, error)
}

// ImportRepositories are the row collections fed by uploads.
type ImportRepositories struct {
	Pedidos       repository.RowRepository
	Status        repository.RowRepository
	SLA           repository.RowRepository
	EntradaGalpao repository.RowRepository
	Telefones     repository.RowRepository
}

type importService struct {
	repos ImportRepositories
	pipeline
}

type noopArchiver struct{}

func (noopArchiver) Store(context.Context, string, string, string, []byte) (string, error) {
	return "", nil
}

type noopRejects struct{}

func (noopRejects) Log(context.Context, ...rejects.Record) error {
	return nil
}

// NewImportService wires the import profiles. archiver, publisher and
// rejectLog may be nil.
func NewImportService(repos ImportRepositories, archiver UploadArchiver, publisher events.Publisher, rejectLog RejectLogger) ImportService {
	if archiver == nil {
		archiver = noopArchiver{}
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	if rejectLog == nil {
		rejectLog = noopRejects{}
	}
	return &importService{
		repos: repos,
		pipeline: pipeline{
			archiver:  archiver,
			publisher: publisher,
			rejects:   rejectLog,
			now:       time.Now,
		},
	}
}

func splitSheet(rows [][]string) ([]string, [][]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], rows[1:]
}

func findJMS(header []string) int {
	return columns.Find(header, constants.ColumnJMS)
}

func findTempo(header []string) int {
	return columns.Find(header, constants.ColumnTempoDigitalizacao)
}

func findTipoBipagem(header []string) int {
	return columns.Find(header, constants.ColumnTipoBipagem, "tipo bipagem")
}

// ImportPedidos keeps the latest scan per JMS when both columns exist and
// skips JMS numbers already stored.
func (s *importService) ImportPedidos(ctx context.Context, userID string, data []byte) (*models.ImportResult, error) {
	return s.run(ctx, userID, data, importProfile{
		repo:      s.repos.Pedidos,
		batchSize: constants.InsertBatchSize,
		plan: func(rows [][]string) (*importPlan, error) {
			header := rows[0]
			keyIdx, timeIdx := findJMS(header), findTempo(header)
			if keyIdx != columns.NotFound && timeIdx != columns.NotFound {
				rows = dedup.Rows(rows, keyIdx, timeIdx)
			}
			header, body := splitSheet(rows)
			return &importPlan{Header: header, Rows: body, KeyIdx: keyIdx, SkipExisting: true}, nil
		},
	})
}

// ImportConsultaBipagens requires the JMS and scan time columns, keeps the
// latest scan per JMS and drops signature scans.
func (s *importService) ImportConsultaBipagens(ctx context.Context, userID string, data []byte) (*models.ImportResult, error) {
	return s.run(ctx, userID, data, importProfile{
		repo:      s.repos.Status,
		batchSize: constants.InsertBatchSize,
		plan: func(rows [][]string) (*importPlan, error) {
			header := rows[0]
			keyIdx, err := columns.Require(header, constants.ColumnJMS)
			if err != nil {
				return nil, err
			}
			timeIdx, err := columns.Require(header, constants.ColumnTempoDigitalizacao)
			if err != nil {
				return nil, err
			}
			tipoIdx := findTipoBipagem(header)

			header, body := splitSheet(dedup.Rows(rows, keyIdx, timeIdx))
			return &importPlan{
				Header:       header,
				Rows:         body,
				KeyIdx:       keyIdx,
				SkipExisting: true,
				Exclude: func(row []string) string {
					if tipoIdx == columns.NotFound {
						return ""
					}
					if strings.EqualFold(columns.Cell(row, tipoIdx), constants.TipoBipagemAssinatura) {
						return "tipo de bipagem: " + constants.TipoBipagemAssinatura
					}
					return ""
				},
			}, nil
		},
	})
}

// slaPlan is shared by the SLA import and update: rows with a composite
// JMS are dropped and the rest are tagged with the departure period.
type slaPlan struct {
	jmsIdx     int
	horarioIdx int
}

func newSLAPlan(header []string) slaPlan {
	return slaPlan{
		jmsIdx:     findJMS(header),
		horarioIdx: columns.Find(header, constants.ColumnHorarioSaida),
	}
}

func (p slaPlan) exclude(row []string) string {
	if p.jmsIdx == columns.NotFound || p.jmsIdx >= len(row) {
		return ""
	}
	if strings.Contains(columns.Cell(row, p.jmsIdx), "-") {
		return "número de pedido JMS composto"
	}
	return ""
}

func (p slaPlan) periodo(row []string) string {
	if p.horarioIdx == columns.NotFound || p.horarioIdx >= len(row) {
		return ""
	}
	return timeparse.ComparePeriod(row[p.horarioIdx])
}

func (s *importService) ImportSLA(ctx context.Context, userID string, data []byte) (*models.ImportResult, error) {
	return s.run(ctx, userID, data, importProfile{
		repo:      s.repos.SLA,
		batchSize: constants.InsertBatchSize,
		plan: func(rows [][]string) (*importPlan, error) {
			header, body := splitSheet(rows)
			sp := newSLAPlan(header)
			return &importPlan{
				Header:  header,
				Rows:    body,
				KeyIdx:  sp.jmsIdx,
				Exclude: sp.exclude,
				Decorate: func(doc *models.RowDocument, row []string) {
					doc.Periodo = sp.periodo(row)
				},
			}, nil
		},
	})
}

// UpdateSLA replaces stored rows that share a JMS with the upload and
// inserts the others.
func (s *importService) UpdateSLA(ctx context.Context, userID string, data []byte) (*models.SLAUpdateResult, error) {
	rows, err := readSheet(data)
	if err != nil {
		return nil, err
	}
	fileHeader, body := splitSheet(rows)
	sp := newSLAPlan(fileHeader)
	repo := s.repos.SLA

	header, err := repo.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if header == nil {
		if header, err = repo.InsertHeader(ctx, userID, fileHeader); err != nil {
			return nil, apperr.Storage(constants.ErrDatabaseWrite, err)
		}
	}

	dbJMSIdx := findJMS(header.Values)
	if dbJMSIdx == columns.NotFound {
		dbJMSIdx = sp.jmsIdx
	}
	keyIDs := map[string]primitive.ObjectID{}
	if dbJMSIdx != columns.NotFound {
		if keyIDs, err = repo.KeyIDs(ctx, userID, dbJMSIdx, header.ID); err != nil {
			return nil, apperr.Storage(constants.ErrDatabase, err)
		}
	}

	now := s.now().UTC()
	importDate := now.Format("2006-01-02")
	result := &models.SLAUpdateResult{}
	writes := make([]repository.RowWrite, 0, len(body))
	for _, row := range body {
		if sp.exclude(row) != "" {
			continue
		}
		createdAt, updatedAt := now, now
		doc := models.RowDocument{
			UserID:     userID,
			Values:     row,
			CreatedAt:  &createdAt,
			UpdatedAt:  &updatedAt,
			ImportDate: importDate,
			Periodo:    sp.periodo(row),
		}
		var id primitive.ObjectID
		if sp.jmsIdx != columns.NotFound && sp.jmsIdx < len(row) {
			id = keyIDs[columns.Cell(row, sp.jmsIdx)]
		}
		if id.IsZero() {
			doc.UpdatedAt = nil
			result.Inserted++
		} else {
			result.Updated++
		}
		writes = append(writes, repository.RowWrite{ID: id, Doc: doc})
	}

	for start := 0; start < len(writes); start += constants.InsertBatchSize {
		end := start + constants.InsertBatchSize
		if end > len(writes) {
			end = len(writes)
		}
		if err := repo.BulkUpsert(ctx, userID, writes[start:end]); err != nil {
			var bulkErr *repository.BulkError
			if errors.As(err, &bulkErr) {
				return nil, apperr.Storage(fmt.Sprintf(constants.ErrBulkWrite, bulkErr.Error()), err)
			}
			return nil, apperr.Storage(constants.ErrDatabaseWrite, err)
		}
	}

	s.afterImport(ctx, userID, repo.Collection(), importDate, result.Updated+result.Inserted, data)
	return result, nil
}

var entradaGalpaoColumns = []string{
	"número de pedido jms",
	"tipo de bipagem",
	"tempo de digitalização",
	"base de escaneamento",
	"digitalizador",
}

// ImportEntradaGalpao stores only the five warehouse-entry columns, in a
// fixed order.
func (s *importService) ImportEntradaGalpao(ctx context.Context, userID string, data []byte) (*models.ImportResult, error) {
	return s.run(ctx, userID, data, importProfile{
		repo:      s.repos.EntradaGalpao,
		batchSize: constants.InsertBatchSize,
		plan: func(rows [][]string) (*importPlan, error) {
			header, body := splitSheet(rows)
			idx := make([]int, len(entradaGalpaoColumns))
			projected := make([]string, len(entradaGalpaoColumns))
			for i, name := range entradaGalpaoColumns {
				idx[i] = columns.FindExact(header, name)
				if idx[i] == columns.NotFound {
					return nil, apperr.MissingColumnf(constants.ErrMissingFileColumn, name)
				}
				projected[i] = header[idx[i]]
			}

			out := make([][]string, 0, len(body))
			for _, row := range body {
				values := make([]string, len(idx))
				for i, c := range idx {
					values[i] = columns.Cell(row, c)
				}
				out = append(out, values)
			}
			return &importPlan{Header: projected, Rows: out, KeyIdx: 0}, nil
		},
	})
}

// ImportTelefones stores the phone list as is and echoes the stored rows.
func (s *importService) ImportTelefones(ctx context.Context, userID string, data []byte) (*models.ImportResult, error) {
	return s.run(ctx, userID, data, importProfile{
		repo:      s.repos.Telefones,
		batchSize: constants.TelefonesBatchSize,
		echoRows:  true,
		plan: func(rows [][]string) (*importPlan, error) {
			header, body := splitSheet(rows)
			return &importPlan{Header: header, Rows: body, KeyIdx: columns.NotFound}, nil
		},
	})
}
