package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	logger "github.com/omniful/go_commons/log"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/columns"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/internal/timeparse"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// Destination collections of the joiner.
const (
	TargetMotorista = "motorista"
	TargetBase      = "base"
)

// pedidosEnrichment are the pedidos columns copied into joined records.
var pedidosEnrichment = []string{
	models.FieldBaseEntrega,
	models.FieldCEPDestino,
	models.FieldComplemento,
	models.FieldDestinatario,
	models.FieldCidadeDestino,
	models.FieldDistritoDestinatario,
	models.FieldMarcaAssinatura,
	models.FieldPDDEntrega,
}

// deliveredMarks are the signature marks that close a motorista record.
var deliveredMarks = map[string]bool{
	"recebimento com assinatura normal": true,
	"assinatura de devolução":           true,
}

// MotoristaQuery selects a page of the motorista list. With
// IncludeUndelivered, undelivered records of other dates are added to the
// selected dates.
type MotoristaQuery struct {
	PageQuery
	IncludeUndelivered bool
}

type JoinerService interface {
	Process(ctx context.Context, userID string, jms []string, target string) (*models.ProcessResult, error)
	AutoSendMotorista(ctx context.Context, userID string) (*models.ProcessResult, error)
	ListMotorista(ctx context.Context, userID string, q MotoristaQuery) (*models.DeliveryPage, error)
	MotoristaDates(ctx context.Context, userID string) ([]string, error)
	MotoristaJMS(ctx context.Context, userID string, dates []string) ([]string, error)
	UpdateMotoristaFromSheet(ctx context.Context, userID string, data []byte) (int, error)
	DeleteMotorista(ctx context.Context, userID string) (int64, error)
}

type joinerService struct {
	pedidos   repository.RowRepository
	status    repository.RowRepository
	motorista repository.DeliveryRepository
	base      repository.DeliveryRepository
	users     repository.UserRepository
	now       func() time.Time
}

func NewJoinerService(
	pedidos, status repository.RowRepository,
	motorista, base repository.DeliveryRepository,
	users repository.UserRepository,
) JoinerService {
	return &joinerService{
		pedidos:   pedidos,
		status:    status,
		motorista: motorista,
		base:      base,
		users:     users,
		now:       time.Now,
	}
}

// IsDriver decides whether a scanned order belongs to a driver. The carrier
// field governs when present; a scanner alone is checked against the
// prefixes; a carrier without scanner is rejected when requireScanner is set.
func IsDriver(digitalizador, correio string, prefixes []string, requireScanner bool) bool {
	d := strings.TrimSpace(digitalizador)
	c := strings.TrimSpace(correio)
	if len(prefixes) == 0 {
		return false
	}
	switch {
	case d != "" && c != "":
		return hasPrefix(c, prefixes)
	case d != "":
		return hasPrefix(d, prefixes)
	case c != "":
		if requireScanner {
			return false
		}
		return hasPrefix(c, prefixes)
	default:
		return false
	}
}

func hasPrefix(value string, prefixes []string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, p := range prefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}

type driverRules struct {
	prefixes       []string
	requireScanner bool
	autoSend       bool
}

type joinCounts struct {
	saved    int
	skipped  int
	rejected int
}

// statusColumns are the pedidos_com_status columns the joiner reads.
type statusColumns struct {
	jms           int
	tempo         int
	tipo          int
	correio       int
	digitalizador int
}

func resolveStatusColumns(header *models.RowDocument) statusColumns {
	return statusColumns{
		jms:           findJMS(header.Values),
		tempo:         findTempo(header.Values),
		tipo:          findTipoBipagem(header.Values),
		correio:       columns.FindExact(header.Values, constants.ColumnCorreio),
		digitalizador: columns.FindExactOrContains(header.Values, constants.ColumnDigitalizador),
	}
}

func (s *joinerService) destination(target string) repository.DeliveryRepository {
	if target == TargetBase {
		return s.base
	}
	return s.motorista
}

// join copies each JMS found in pedidos_com_status into dest, enriched
// with the pedidos row when one exists. rules is nil for the base target.
func (s *joinerService) join(ctx context.Context, userID string, numbers []string, dest repository.DeliveryRepository, rules *driverRules) (joinCounts, error) {
	var counts joinCounts

	pedidosHeader, err := s.pedidos.FindHeader(ctx, userID)
	if err != nil {
		return counts, apperr.Storage(constants.ErrDatabase, err)
	}
	pedidosJMS := columns.NotFound
	enrich := map[string]int{}
	if pedidosHeader != nil {
		pedidosJMS = findJMS(pedidosHeader.Values)
		for _, name := range pedidosEnrichment {
			if i := columns.FindExact(pedidosHeader.Values, name); i != columns.NotFound {
				enrich[name] = i
			}
		}
	}

	statusHeader, err := s.status.FindHeader(ctx, userID)
	if err != nil {
		return counts, apperr.Storage(constants.ErrDatabase, err)
	}
	if statusHeader == nil {
		return counts, nil
	}
	cols := resolveStatusColumns(statusHeader)
	if cols.jms == columns.NotFound {
		return counts, nil
	}

	now := s.now()
	importDate := timeparse.Today(now)
	for _, jms := range numbers {
		if jms == "" {
			continue
		}
		exists, err := dest.Exists(ctx, userID, jms)
		if err != nil {
			return counts, apperr.Storage(constants.ErrDatabase, err)
		}
		if exists {
			counts.skipped++
			continue
		}

		statusRow, err := s.status.FindFirst(ctx, userID, map[int]string{cols.jms: jms}, statusHeader.ID)
		if err != nil {
			return counts, apperr.Storage(constants.ErrDatabase, err)
		}
		if statusRow == nil {
			continue
		}
		var pedidoRow *models.RowDocument
		if pedidosHeader != nil && pedidosJMS != columns.NotFound {
			if pedidoRow, err = s.pedidos.FindFirst(ctx, userID, map[int]string{pedidosJMS: jms}, pedidosHeader.ID); err != nil {
				return counts, apperr.Storage(constants.ErrDatabase, err)
			}
		}

		rec := models.DeliveryRecord{UserID: userID, ImportDate: importDate}
		if pedidoRow != nil {
			for name, idx := range enrich {
				rec.Set(name, pedidoRow.Value(idx))
			}
		}
		tempo := statusRow.Value(cols.tempo)
		rec.JMS = jms
		rec.TipoBipagem = statusRow.Value(cols.tipo)
		rec.TempoDigitalizacao = tempo
		rec.Correio = statusRow.Value(cols.correio)
		if days, ok := timeparse.DaysSince(tempo, now); ok {
			rec.DiasSemMovimentacao = &days
		}

		if rules != nil {
			digitalizador := statusRow.Value(cols.digitalizador)
			if !IsDriver(digitalizador, rec.Correio, rules.prefixes, rules.requireScanner) {
				counts.rejected++
				continue
			}
			if strings.TrimSpace(rec.Correio) == "" && strings.TrimSpace(digitalizador) != "" {
				rec.Correio = strings.TrimSpace(digitalizador)
			}
		}

		if err := dest.Insert(ctx, &rec); err != nil {
			logger.Error(fmt.Sprintf("Failed to insert %s record %s: %v", dest.Collection(), jms, err))
			continue
		}
		counts.saved++
	}
	return counts, nil
}

// driverRules loads the user's carrier prefixes and stores them back so
// the defaults become explicit.
func (s *joinerService) driverRules(ctx context.Context, userID string) (*driverRules, error) {
	cfg := models.UserConfig{}
	user, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil:
		cfg = user.Config
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return &driverRules{
		prefixes:       cfg.Prefixes(),
		requireScanner: cfg.RequireScanner(),
		autoSend:       cfg.AutoSendEnabled(),
	}, nil
}

func (s *joinerService) savePrefixes(ctx context.Context, userID string, prefixes []string) {
	if len(prefixes) == 0 {
		return
	}
	err := s.users.Update(ctx, userID, bson.M{"config." + models.ConfigMotoristaPrefixos: prefixes})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error(fmt.Sprintf("Failed to save motorista prefixes for user %s: %v", userID, err))
	}
}

func joinMessage(parts []string) *string {
	if len(parts) == 0 {
		return nil
	}
	msg := strings.Join(parts, " ")
	return &msg
}

func messagePtr(msg string) *string {
	return &msg
}

// Process joins the given JMS numbers into the motorista or base
// collection. Any target other than base means motorista.
func (s *joinerService) Process(ctx context.Context, userID string, numbers []string, target string) (*models.ProcessResult, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target != TargetBase {
		target = TargetMotorista
	}
	result := &models.ProcessResult{Colecao: target}

	cleaned := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		result.Message = messagePtr(constants.MsgNoJMSSent)
		return result, nil
	}

	pedidosHeader, err := s.pedidos.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if pedidosHeader == nil {
		result.Message = messagePtr(constants.MsgPedidosEmpty)
		return result, nil
	}
	if findJMS(pedidosHeader.Values) == columns.NotFound {
		return nil, apperr.MissingColumnf(constants.MsgPedidosNoJMSColumn, constants.ColumnJMS)
	}

	var rules *driverRules
	if target == TargetMotorista {
		if rules, err = s.driverRules(ctx, userID); err != nil {
			return nil, err
		}
		s.savePrefixes(ctx, userID, rules.prefixes)
	}

	counts, err := s.join(ctx, userID, cleaned, s.destination(target), rules)
	if err != nil {
		return nil, err
	}
	result.Saved, result.Skipped, result.RejectedTipoBipagem = counts.saved, counts.skipped, counts.rejected

	var parts []string
	if counts.saved > 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgSavedCount, counts.saved))
	}
	if counts.skipped > 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgAlreadyExisted, counts.skipped))
	}
	if counts.rejected > 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgNotSentPrefix, counts.rejected))
	}
	result.Message = joinMessage(parts)
	return result, nil
}

// AutoSendMotorista sends every stored status row that passes the user's
// driver rules to the motorista collection. It does nothing unless the
// user enabled automatic sending.
func (s *joinerService) AutoSendMotorista(ctx context.Context, userID string) (*models.ProcessResult, error) {
	result := &models.ProcessResult{Colecao: TargetMotorista}

	rules, err := s.driverRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !rules.autoSend {
		result.Message = messagePtr(constants.MsgAutoSendDisabled)
		return result, nil
	}
	if len(rules.prefixes) == 0 {
		result.Message = messagePtr(constants.MsgAutoSendNoPrefixes)
		return result, nil
	}
	s.savePrefixes(ctx, userID, rules.prefixes)

	statusHeader, err := s.status.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if statusHeader == nil {
		result.Message = messagePtr(constants.MsgAutoSendNoStatus)
		return result, nil
	}
	cols := resolveStatusColumns(statusHeader)
	if cols.jms == columns.NotFound {
		result.Message = messagePtr(constants.MsgAutoSendNoJMSColumn)
		return result, nil
	}

	var candidates []string
	err = s.status.Scan(ctx, userID, repository.RowQuery{DataOnly: true}, func(doc *models.RowDocument) error {
		if !IsDriver(doc.Value(cols.digitalizador), doc.Value(cols.correio), rules.prefixes, rules.requireScanner) {
			return nil
		}
		if jms := strings.TrimSpace(doc.Value(cols.jms)); jms != "" {
			candidates = append(candidates, jms)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if len(candidates) == 0 {
		result.Message = messagePtr(constants.MsgNoDriverCandidates)
		return result, nil
	}

	counts, err := s.join(ctx, userID, candidates, s.motorista, rules)
	if err != nil {
		return nil, err
	}
	result.Saved, result.Skipped, result.RejectedTipoBipagem = counts.saved, counts.skipped, counts.rejected

	var parts []string
	if counts.saved > 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgAutoSavedCount, counts.saved))
	}
	if counts.skipped > 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgAutoAlreadyExisted, counts.skipped))
	}
	if counts.rejected > 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgAutoRejected, counts.rejected))
	}
	if counts.saved == 0 && counts.skipped == 0 {
		parts = append(parts, fmt.Sprintf(constants.MsgAutoNotRecorded, len(candidates)))
	}
	if len(parts) == 0 {
		parts = append(parts, constants.MsgAutoSendDone)
	}
	result.Message = joinMessage(parts)
	logger.Info(fmt.Sprintf("Auto-send for user %s: %d candidates, %d saved", userID, len(candidates), counts.saved))
	return result, nil
}

// withFreshDays recomputes the idle day count from the scan time.
func (s *joinerService) withFreshDays(records []models.DeliveryRecord) []models.DeliveryRecord {
	now := s.now()
	for i := range records {
		if days, ok := timeparse.DaysSince(records[i].TempoDigitalizacao, now); ok {
			records[i].DiasSemMovimentacao = &days
		}
	}
	return records
}

func (s *joinerService) ListMotorista(ctx context.Context, userID string, q MotoristaQuery) (*models.DeliveryPage, error) {
	if !q.IncludeUndelivered || len(q.Dates) == 0 {
		records, total, err := s.motorista.Page(ctx, userID, repository.DeliveryFilter{Dates: q.Dates}, q.skip(), int64(q.PerPage))
		if err != nil {
			return nil, apperr.Storage(constants.ErrDatabase, err)
		}
		return &models.DeliveryPage{Data: s.withFreshDays(records), Total: total}, nil
	}

	selected, err := s.motorista.FindAll(ctx, userID, repository.DeliveryFilter{Dates: q.Dates})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	others, err := s.motorista.FindAll(ctx, userID, repository.DeliveryFilter{
		ExcludeDates: q.Dates,
		Marca:        constants.MarcaNaoEntregue,
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}

	seen := make(map[string]struct{}, len(selected)+len(others))
	all := make([]models.DeliveryRecord, 0, len(selected)+len(others))
	for _, group := range [][]models.DeliveryRecord{selected, others} {
		for _, rec := range group {
			id := rec.ID.Hex()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, rec)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ID.Hex() > all[j].ID.Hex()
	})

	total := int64(len(all))
	start := q.skip()
	if start > total {
		start = total
	}
	end := start + int64(q.PerPage)
	if end > total {
		end = total
	}
	return &models.DeliveryPage{Data: s.withFreshDays(all[start:end]), Total: total}, nil
}

func (s *joinerService) MotoristaDates(ctx context.Context, userID string) ([]string, error) {
	dates, err := s.motorista.ImportDates(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

func (s *joinerService) MotoristaJMS(ctx context.Context, userID string, dates []string) ([]string, error) {
	numbers, err := s.motorista.JMSNumbers(ctx, userID, dates)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return numbers, nil
}

// UpdateMotoristaFromSheet applies delivered rows of an upload to the
// motorista records with the same JMS and moves them to today's date.
func (s *joinerService) UpdateMotoristaFromSheet(ctx context.Context, userID string, data []byte) (int, error) {
	rows, err := readSheet(data)
	if err != nil {
		return 0, err
	}
	header, body := splitSheet(rows)
	jmsIdx := findJMS(header)
	if jmsIdx == columns.NotFound {
		return 0, apperr.MissingColumnf(constants.MsgMissingSheetColumn, constants.ColumnJMS)
	}
	marcaIdx := columns.FindExact(header, constants.ColumnMarcaAssinatura)
	if marcaIdx == columns.NotFound {
		return 0, apperr.MissingColumnf(constants.MsgMissingSheetColumn, constants.ColumnMarcaAssinatura)
	}

	fieldIdx := make(map[string]int)
	for _, field := range models.DeliveryFieldOrder {
		if field == models.FieldDiasSemMovimentacao {
			continue
		}
		if i := columns.FindExact(header, field); i != columns.NotFound {
			fieldIdx[field] = i
		}
	}

	updated := 0
	for _, row := range body {
		if jmsIdx >= len(row) || marcaIdx >= len(row) {
			continue
		}
		jms := strings.TrimSpace(row[jmsIdx])
		marca := strings.ToLower(strings.TrimSpace(row[marcaIdx]))
		if jms == "" || !deliveredMarks[marca] {
			continue
		}

		set := bson.D{}
		for _, field := range models.DeliveryFieldOrder {
			if i, ok := fieldIdx[field]; ok && i < len(row) {
				set = append(set, bson.E{Key: field, Value: row[i]})
			}
		}
		set = append(set, bson.E{Key: "importDate", Value: s.now().UTC().Format("2006-01-02")})

		matched, err := s.motorista.UpdateByJMS(ctx, userID, jms, set)
		if err != nil {
			return updated, apperr.Storage(constants.ErrDatabaseWrite, err)
		}
		if matched {
			updated++
		}
	}
	return updated, nil
}

func (s *joinerService) DeleteMotorista(ctx context.Context, userID string) (int64, error) {
	n, err := s.motorista.DeleteAll(ctx, userID)
	if err != nil {
		return 0, apperr.Storage(constants.ErrDatabaseWrite, err)
	}
	return n, nil
}
