package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/columns"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/internal/timeparse"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

var slaIndicatorHeader = []string{
	"Motorista",
	"Base de entrega",
	"Total entregues",
	"Não entregues",
	"Total",
	"% SLA",
	"Entrada do galpao",
}

var (
	marcaNaoEntregue = columns.Normalize(constants.MarcaNaoEntregue)
	marcasEntregue   = map[string]bool{
		columns.Normalize("recebimento com assinatura normal"): true,
		columns.Normalize("assinatura de devolução"):           true,
	}
	tipoEntradaGalpao = columns.Normalize(constants.TipoBipagemEntradaGalpao)
)

// SLAFilter narrows the SLA rows an indicator or list looks at. Cities
// are matched normalized; Bases are matched as stored.
type SLAFilter struct {
	Dates   []string
	Bases   []string
	Cities  []string
	Periodo string
}

func (f SLAFilter) periodo() string {
	p := strings.ToUpper(strings.TrimSpace(f.Periodo))
	if p == "AM" || p == "PM" {
		return p
	}
	return ""
}

func (f SLAFilter) cities() map[string]bool {
	if len(f.Cities) == 0 {
		return nil
	}
	set := make(map[string]bool, len(f.Cities))
	for _, c := range f.Cities {
		if n := columns.Normalize(c); n != "" {
			set[n] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func (f SLAFilter) hasBase(base string) bool {
	if len(f.Bases) == 0 {
		return true
	}
	for _, b := range f.Bases {
		if b == base {
			return true
		}
	}
	return false
}

type SLAService interface {
	Indicators(ctx context.Context, userID string, f SLAFilter) (*models.SLAIndicators, error)
	NaoEntregues(ctx context.Context, userID, motorista, base string, f SLAFilter) (*models.RowsWithHeader, error)
	Entregues(ctx context.Context, userID, motorista, base string, f SLAFilter) (*models.RowsWithHeader, error)
	EntradaGalpao(ctx context.Context, userID, motorista, base string, f SLAFilter) (*models.RowsWithHeader, error)
}

type slaService struct {
	sla     repository.RowRepository
	entrada repository.RowRepository
}

func NewSLAService(sla, entrada repository.RowRepository) SLAService {
	return &slaService{sla: sla, entrada: entrada}
}

// slaColumns are the sla_tabela columns resolved once per header.
type slaColumns struct {
	base      int
	motorista int
	marca     int
	cidade    int
	jms       int
	saida     int
}

func resolveSLAColumns(header []string) slaColumns {
	return slaColumns{
		base:      columns.Find(header, constants.ColumnBaseEntrega),
		motorista: columns.Find(header, constants.ColumnResponsavel),
		marca:     columns.Find(header, constants.ColumnMarcaAssinatura),
		cidade:    columns.Find(header, constants.ColumnCidadeDestino),
		jms:       findJMS(header),
		saida:     columns.Find(header, constants.ColumnHorarioSaida),
	}
}

func (c slaColumns) complete() bool {
	return c.base != columns.NotFound && c.motorista != columns.NotFound && c.marca != columns.NotFound
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func slaPercent(entregues, naoEntregues int) float64 {
	total := entregues + naoEntregues
	if total == 0 {
		return 0
	}
	return math.Round(float64(entregues)/float64(total)*1000) / 10
}

// entradaColumns are the entrada_no_galpao columns.
type entradaColumns struct {
	jms   int
	tipo  int
	tempo int
}

func resolveEntradaColumns(header []string) entradaColumns {
	return entradaColumns{
		jms:   columns.FindExact(header, constants.ColumnJMS),
		tipo:  columns.FindExact(header, constants.ColumnTipoBipagem),
		tempo: columns.FindExact(header, constants.ColumnTempoDigitalizacao),
	}
}

// warehouseEntries maps each JMS with a warehouse-entry scan on the given
// dates to the time of its most recent such scan. Lookup failures yield an
// empty map.
func (s *slaService) warehouseEntries(ctx context.Context, userID string, dates []string) map[string]string {
	entries := map[string]string{}
	header, err := s.entrada.FindHeader(ctx, userID)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to read %s header for user %s: %v", s.entrada.Collection(), userID, err))
		return entries
	}
	if header == nil {
		return entries
	}
	cols := resolveEntradaColumns(header.Values)
	if cols.jms == columns.NotFound || cols.tipo == columns.NotFound {
		return entries
	}

	q := repository.RowQuery{ExcludeID: header.ID, Dates: dates, Newest: true}
	err = s.entrada.Scan(ctx, userID, q, func(doc *models.RowDocument) error {
		jms := columns.Cell(doc.Values, cols.jms)
		tipo := columns.Cell(doc.Values, cols.tipo)
		if jms == "" || tipo == "" || columns.Normalize(tipo) != tipoEntradaGalpao {
			return nil
		}
		if _, ok := entries[jms]; !ok {
			entries[jms] = columns.Cell(doc.Values, cols.tempo)
		}
		return nil
	})
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to scan %s for user %s: %v", s.entrada.Collection(), userID, err))
		return map[string]string{}
	}
	return entries
}

// heldInWarehouse reports whether a row listed in entries never left: it
// has no departure time, or the departure is not after the entry scan.
func heldInWarehouse(entries map[string]string, jms, saida string) bool {
	entrada, ok := entries[jms]
	if jms == "" || !ok {
		return false
	}
	if strings.TrimSpace(saida) == "" {
		return true
	}
	cmp, ok := timeparse.CompareTimes(saida, entrada)
	return !ok || cmp <= 0
}

func (s *slaService) header(ctx context.Context, userID string) (*models.RowDocument, error) {
	header, err := s.sla.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return header, nil
}

func (s *slaService) dataQuery(header *models.RowDocument, f SLAFilter) repository.RowQuery {
	return repository.RowQuery{ExcludeID: header.ID, Dates: f.Dates, Periodo: f.periodo()}
}

// cityFilter drops the city filter when it selects exactly every city
// present in the filtered rows.
func (s *slaService) cityFilter(ctx context.Context, userID string, q repository.RowQuery, cols slaColumns, f SLAFilter) (map[string]bool, error) {
	wanted := f.cities()
	if wanted == nil || cols.cidade == columns.NotFound {
		return nil, nil
	}
	present := map[string]bool{}
	err := s.sla.Scan(ctx, userID, q, func(doc *models.RowDocument) error {
		if !f.hasBase(orDefault(columns.Cell(doc.Values, cols.base), constants.DefaultBase)) {
			return nil
		}
		if c := columns.Normalize(columns.Cell(doc.Values, cols.cidade)); c != "" {
			present[c] = true
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if len(present) > 0 && len(present) == len(wanted) {
		all := true
		for c := range present {
			if !wanted[c] {
				all = false
				break
			}
		}
		if all {
			return nil, nil
		}
	}
	return wanted, nil
}

type driverKey struct {
	motorista string
	base      string
}

type driverStats struct {
	entregues    int
	naoEntregues int
	cidades      map[string]bool
	entradas     int
}

// Indicators aggregates delivered and undelivered counts per base and per
// (motorista, base). Rows still held in the warehouse are left out and
// counted separately.
func (s *slaService) Indicators(ctx context.Context, userID string, f SLAFilter) (*models.SLAIndicators, error) {
	empty := &models.SLAIndicators{Header: []string{}, PorBase: []models.SLAGroup{}, PorMotorista: []models.SLADriverGroup{}}

	header, err := s.header(ctx, userID)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return empty, nil
	}
	cols := resolveSLAColumns(header.Values)
	if !cols.complete() {
		return empty, nil
	}

	q := s.dataQuery(header, f)
	entries := s.warehouseEntries(ctx, userID, f.Dates)
	cities, err := s.cityFilter(ctx, userID, q, cols, f)
	if err != nil {
		return nil, err
	}

	byBase := map[string]*driverStats{}
	byDriver := map[driverKey]*driverStats{}
	err = s.sla.Scan(ctx, userID, q, func(doc *models.RowDocument) error {
		base := orDefault(columns.Cell(doc.Values, cols.base), constants.DefaultBase)
		if !f.hasBase(base) {
			return nil
		}
		cidade := columns.Cell(doc.Values, cols.cidade)
		if cities != nil && !cities[columns.Normalize(cidade)] {
			return nil
		}
		key := driverKey{motorista: orDefault(columns.Cell(doc.Values, cols.motorista), constants.DefaultMotorista), base: base}

		if heldInWarehouse(entries, columns.Cell(doc.Values, cols.jms), columns.Cell(doc.Values, cols.saida)) {
			statsFor(byDriver, key).entradas++
			return nil
		}
		if cidade != "" {
			statsFor(byDriver, key).cidades[cidade] = true
		}

		marca := columns.Normalize(columns.Cell(doc.Values, cols.marca))
		switch {
		case marca == marcaNaoEntregue:
			statsFor(byBase, base).naoEntregues++
			statsFor(byDriver, key).naoEntregues++
		case marcasEntregue[marca]:
			statsFor(byBase, base).entregues++
			statsFor(byDriver, key).entregues++
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}

	result := &models.SLAIndicators{
		Header:       slaIndicatorHeader,
		PorBase:      make([]models.SLAGroup, 0, len(byBase)),
		PorMotorista: make([]models.SLADriverGroup, 0, len(byDriver)),
	}
	for nome, st := range byBase {
		result.PorBase = append(result.PorBase, models.SLAGroup{
			Nome:           nome,
			Total:          st.entregues + st.naoEntregues,
			TotalEntregues: st.entregues,
			NaoEntregues:   st.naoEntregues,
			PercentualSLA:  slaPercent(st.entregues, st.naoEntregues),
		})
	}
	sort.Slice(result.PorBase, func(i, j int) bool {
		return result.PorBase[i].Nome < result.PorBase[j].Nome
	})

	for key, st := range byDriver {
		cidades := make([]string, 0, len(st.cidades))
		for c := range st.cidades {
			cidades = append(cidades, c)
		}
		sort.Strings(cidades)
		result.PorMotorista = append(result.PorMotorista, models.SLADriverGroup{
			Nome:           key.motorista,
			Base:           key.base,
			Total:          st.entregues + st.naoEntregues,
			TotalEntregues: st.entregues,
			NaoEntregues:   st.naoEntregues,
			PercentualSLA:  slaPercent(st.entregues, st.naoEntregues),
			Cidades:        cidades,
			EntradasGalpao: st.entradas,
		})
	}
	sort.Slice(result.PorMotorista, func(i, j int) bool {
		a, b := result.PorMotorista[i], result.PorMotorista[j]
		if a.Nome != b.Nome {
			return a.Nome < b.Nome
		}
		return a.Base < b.Base
	})
	return result, nil
}

func statsFor[K comparable](m map[K]*driverStats, key K) *driverStats {
	st := m[key]
	if st == nil {
		st = &driverStats{cidades: map[string]bool{}}
		m[key] = st
	}
	return st
}

func (s *slaService) NaoEntregues(ctx context.Context, userID, motorista, base string, f SLAFilter) (*models.RowsWithHeader, error) {
	return s.driverRows(ctx, userID, motorista, base, f, func(marca string) bool {
		return marca == marcaNaoEntregue
	})
}

func (s *slaService) Entregues(ctx context.Context, userID, motorista, base string, f SLAFilter) (*models.RowsWithHeader, error) {
	return s.driverRows(ctx, userID, motorista, base, f, func(marca string) bool {
		return marcasEntregue[marca]
	})
}

// matchesDriver compares normalized motorista and base values, treating
// blanks as the grouping defaults.
func matchesDriver(doc *models.RowDocument, cols slaColumns, motorista, base string) bool {
	rowMotorista, rowBase := driverNames(columns.Cell(doc.Values, cols.motorista), columns.Cell(doc.Values, cols.base))
	return rowMotorista == motorista && rowBase == base
}

func driverNames(motorista, base string) (string, string) {
	return columns.Normalize(orDefault(strings.TrimSpace(motorista), constants.DefaultMotorista)),
		columns.Normalize(orDefault(strings.TrimSpace(base), constants.DefaultBase))
}

// driverRows lists the SLA rows of one (motorista, base) whose normalized
// marca passes keep, leaving out rows held in the warehouse.
func (s *slaService) driverRows(ctx context.Context, userID, motorista, base string, f SLAFilter, keep func(marca string) bool) (*models.RowsWithHeader, error) {
	header, err := s.header(ctx, userID)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return &models.RowsWithHeader{Data: []models.RowItem{}, Header: []string{}}, nil
	}
	result := &models.RowsWithHeader{Data: []models.RowItem{}, Header: header.Values}
	cols := resolveSLAColumns(header.Values)
	if !cols.complete() {
		return result, nil
	}

	wantMotorista, wantBase := driverNames(motorista, base)
	cities := f.cities()
	if cols.cidade == columns.NotFound {
		cities = nil
	}
	entries := s.warehouseEntries(ctx, userID, f.Dates)

	err = s.sla.Scan(ctx, userID, s.dataQuery(header, f), func(doc *models.RowDocument) error {
		if !matchesDriver(doc, cols, wantMotorista, wantBase) {
			return nil
		}
		if !keep(columns.Normalize(columns.Cell(doc.Values, cols.marca))) {
			return nil
		}
		if cities != nil && !cities[columns.Normalize(columns.Cell(doc.Values, cols.cidade))] {
			return nil
		}
		if heldInWarehouse(entries, columns.Cell(doc.Values, cols.jms), columns.Cell(doc.Values, cols.saida)) {
			return nil
		}
		result.Data = append(result.Data, models.NewRowItem(*doc))
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return result, nil
}

// EntradaGalpao lists the warehouse-entry scans of one driver's orders
// that did not leave for delivery after the scan. Rows keep the
// entrada_no_galpao layout.
func (s *slaService) EntradaGalpao(ctx context.Context, userID, motorista, base string, f SLAFilter) (*models.RowsWithHeader, error) {
	entradaHeader, err := s.entrada.FindHeader(ctx, userID)
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	if entradaHeader == nil {
		return &models.RowsWithHeader{Data: []models.RowItem{}, Header: []string{}}, nil
	}
	result := &models.RowsWithHeader{Data: []models.RowItem{}, Header: entradaHeader.Values}
	ecols := resolveEntradaColumns(entradaHeader.Values)
	if ecols.jms == columns.NotFound || ecols.tipo == columns.NotFound {
		return result, nil
	}

	slaHeader, err := s.header(ctx, userID)
	if err != nil {
		return nil, err
	}
	if slaHeader == nil {
		return result, nil
	}
	cols := resolveSLAColumns(slaHeader.Values)
	if cols.base == columns.NotFound || cols.motorista == columns.NotFound || cols.jms == columns.NotFound {
		return result, nil
	}

	wantMotorista, wantBase := driverNames(motorista, base)
	cities := f.cities()
	if cols.cidade == columns.NotFound {
		cities = nil
	}
	departures := map[string]string{}
	err = s.sla.Scan(ctx, userID, s.dataQuery(slaHeader, f), func(doc *models.RowDocument) error {
		if !matchesDriver(doc, cols, wantMotorista, wantBase) {
			return nil
		}
		if cities != nil && !cities[columns.Normalize(columns.Cell(doc.Values, cols.cidade))] {
			return nil
		}
		if jms := columns.Cell(doc.Values, cols.jms); jms != "" {
			departures[jms] = columns.Cell(doc.Values, cols.saida)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}

	seen := map[string]bool{}
	q := repository.RowQuery{ExcludeID: entradaHeader.ID, Dates: f.Dates, Newest: true}
	err = s.entrada.Scan(ctx, userID, q, func(doc *models.RowDocument) error {
		jms := columns.Cell(doc.Values, ecols.jms)
		tipo := columns.Cell(doc.Values, ecols.tipo)
		if jms == "" || tipo == "" || columns.Normalize(tipo) != tipoEntradaGalpao {
			return nil
		}
		saida, ok := departures[jms]
		if !ok || seen[jms] {
			return nil
		}
		seen[jms] = true
		if strings.TrimSpace(saida) != "" {
			if cmp, ok := timeparse.CompareTimes(saida, columns.Cell(doc.Values, ecols.tempo)); ok && cmp > 0 {
				return nil
			}
		}
		result.Data = append(result.Data, models.NewRowItem(*doc))
		return nil
	})
	if err != nil {
		return nil, apperr.Storage(constants.ErrDatabase, err)
	}
	return result, nil
}
