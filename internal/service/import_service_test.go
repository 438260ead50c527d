package service

import (
	"context"
	"testing"
	"time"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type importFixture struct {
	repos     ImportRepositories
	publisher *recordingPublisher
	rejects   *recordingRejects
	svc       ImportService
}

func newImportFixture() *importFixture {
	fx := &importFixture{
		repos: ImportRepositories{
			Pedidos:       newFakeRows(constants.CollectionPedidos),
			Status:        newFakeRows(constants.CollectionPedidosComStatus),
			SLA:           newFakeRows(constants.CollectionSLA),
			EntradaGalpao: newFakeRows(constants.CollectionEntradaGalpao),
			Telefones:     newFakeRows(constants.CollectionListaTelefones),
		},
		publisher: &recordingPublisher{},
		rejects:   &recordingRejects{},
	}
	svc := NewImportService(fx.repos, nil, fx.publisher, fx.rejects).(*importService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	fx.svc = svc
	return fx
}

func TestImportPedidosKeepsLatestAndSkipsExisting(t *testing.T) {
	fx := newImportFixture()
	ctx := context.Background()
	data := xlsx(t,
		[]string{"Número de pedido JMS", "Tempo de digitalização", "Base de entrega"},
		[]string{"JMS1", "2026-03-09 10:00:00", "old"},
		[]string{"JMS1", "2026-03-09 12:00:00", "new"},
		[]string{"JMS2", "2026-03-09 09:00:00", "b"},
	)

	res, err := fx.svc.ImportPedidos(ctx, "u1", data)
	if err != nil {
		t.Fatalf("ImportPedidos: %v", err)
	}
	if res.Saved != 2 {
		t.Fatalf("expected 2 saved, got %d", res.Saved)
	}

	repo := fx.repos.Pedidos.(*fakeRows)
	header, _ := repo.FindHeader(ctx, "u1")
	if header == nil || header.Values[0] != "Número de pedido JMS" {
		t.Fatalf("expected header to be stored, got %+v", header)
	}
	for _, d := range repo.data() {
		if d.Values[0] == "JMS1" && d.Values[2] != "new" {
			t.Errorf("expected latest JMS1 row, got %v", d.Values)
		}
		if d.ImportDate != "2026-03-10" {
			t.Errorf("unexpected import date %q", d.ImportDate)
		}
	}

	again, err := fx.svc.ImportPedidos(ctx, "u1", data)
	if err != nil {
		t.Fatalf("second ImportPedidos: %v", err)
	}
	if again.Saved != 0 {
		t.Fatalf("re-import should save 0, got %d", again.Saved)
	}
	if len(repo.docs) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d docs", len(repo.docs))
	}
	if len(fx.publisher.events) != 2 || fx.publisher.events[0].Collection != constants.CollectionPedidos {
		t.Fatalf("expected an import event per upload, got %+v", fx.publisher.events)
	}
}

func TestImportConsultaBipagensRequiresScanTime(t *testing.T) {
	fx := newImportFixture()
	data := xlsx(t,
		[]string{"Número de pedido JMS", "Tipo de bipagem"},
		[]string{"JMS1", "x"},
	)
	_, err := fx.svc.ImportConsultaBipagens(context.Background(), "u1", data)
	if !apperr.IsKind(err, apperr.KindMissingColumn) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestImportConsultaBipagensDropsSignatureScans(t *testing.T) {
	fx := newImportFixture()
	data := xlsx(t,
		[]string{"Número de pedido JMS", "Tempo de digitalização", "Tipo de bipagem"},
		[]string{"JMS1", "2026-03-09 10:00:00", "Assinatura de encomenda"},
		[]string{"JMS2", "2026-03-09 10:00:00", "Saída para entrega"},
	)
	res, err := fx.svc.ImportConsultaBipagens(context.Background(), "u1", data)
	if err != nil {
		t.Fatalf("ImportConsultaBipagens: %v", err)
	}
	if res.Saved != 1 {
		t.Fatalf("expected 1 saved, got %d", res.Saved)
	}
	if len(fx.rejects.records) != 1 || fx.rejects.records[0].Values[0] != "JMS1" {
		t.Fatalf("expected JMS1 to be logged as rejected, got %+v", fx.rejects.records)
	}
	if fx.rejects.records[0].RowNumber != 2 {
		t.Errorf("expected sheet row 2, got %d", fx.rejects.records[0].RowNumber)
	}
}

func TestImportSLATagsPeriodAndDropsCompositeJMS(t *testing.T) {
	fx := newImportFixture()
	data := xlsx(t,
		[]string{"Número de pedido JMS", "Horário de saída para entrega"},
		[]string{"JMS1", "08:30"},
		[]string{"JMS2", "14:00"},
		[]string{"JMS3-1", "09:00"},
	)
	res, err := fx.svc.ImportSLA(context.Background(), "u1", data)
	if err != nil {
		t.Fatalf("ImportSLA: %v", err)
	}
	if res.Saved != 2 {
		t.Fatalf("expected 2 saved, got %d", res.Saved)
	}
	periods := map[string]string{}
	for _, d := range fx.repos.SLA.(*fakeRows).data() {
		periods[d.Values[0]] = d.Periodo
	}
	if periods["JMS1"] != "AM" || periods["JMS2"] != "PM" {
		t.Fatalf("unexpected periods %v", periods)
	}
}

func TestUpdateSLACountsUpdatesAndInserts(t *testing.T) {
	fx := newImportFixture()
	repo := fx.repos.SLA.(*fakeRows)
	repo.seed([]string{"Número de pedido JMS", "Marca de assinatura"}, "2026-03-01",
		[]string{"JMS1", "Não entregue"},
	)
	data := xlsx(t,
		[]string{"Número de pedido JMS", "Marca de assinatura"},
		[]string{"JMS1", "Recebimento com assinatura normal"},
		[]string{"JMS2", "Não entregue"},
		[]string{"JMS3-X", "Não entregue"},
	)
	res, err := fx.svc.UpdateSLA(context.Background(), "u1", data)
	if err != nil {
		t.Fatalf("UpdateSLA: %v", err)
	}
	if res.Updated != 1 || res.Inserted != 1 {
		t.Fatalf("expected 1 updated and 1 inserted, got %+v", res)
	}
	rows := repo.data()
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(rows))
	}
	if rows[0].Values[1] != "Recebimento com assinatura normal" || rows[0].UpdatedAt == nil {
		t.Fatalf("expected JMS1 to be replaced, got %+v", rows[0])
	}
}

func TestImportEntradaGalpaoProjectsColumns(t *testing.T) {
	fx := newImportFixture()
	data := xlsx(t,
		[]string{"Extra", "Digitalizador", "Número de pedido JMS", "Tipo de bipagem", "Tempo de digitalização", "Base de escaneamento"},
		[]string{"x", "D1", "JMS1", "Entrada no galpão de pacote não expedido", "10:00", "B1"},
	)
	if _, err := fx.svc.ImportEntradaGalpao(context.Background(), "u1", data); err != nil {
		t.Fatalf("ImportEntradaGalpao: %v", err)
	}
	rows := fx.repos.EntradaGalpao.(*fakeRows).data()
	want := []string{"JMS1", "Entrada no galpão de pacote não expedido", "10:00", "B1", "D1"}
	if len(rows) != 1 || len(rows[0].Values) != len(want) {
		t.Fatalf("unexpected rows %+v", rows)
	}
	for i := range want {
		if rows[0].Values[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, rows[0].Values[i], want[i])
		}
	}
}

func TestImportEntradaGalpaoMissingColumn(t *testing.T) {
	fx := newImportFixture()
	data := xlsx(t, []string{"Número de pedido JMS"}, []string{"JMS1"})
	_, err := fx.svc.ImportEntradaGalpao(context.Background(), "u1", data)
	if !apperr.IsKind(err, apperr.KindMissingColumn) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestImportTelefonesEchoesRows(t *testing.T) {
	fx := newImportFixture()
	data := xlsx(t,
		[]string{"MOTORISTA", "HUB", "CONTATO"},
		[]string{"Ana", "BNU", "4799"},
		[]string{"Rui", "BNU", "4798"},
	)
	res, err := fx.svc.ImportTelefones(context.Background(), "u1", data)
	if err != nil {
		t.Fatalf("ImportTelefones: %v", err)
	}
	if res.Saved != 2 || len(res.Data) != 2 || res.Data[0].Values[0] != "Ana" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	fx := newImportFixture()
	_, err := fx.svc.ImportPedidos(context.Background(), "u1", []byte("not a workbook"))
	if !apperr.IsKind(err, apperr.KindInvalidFormat) {
		t.Fatalf("expected invalid format error, got %v", err)
	}
}

func TestInsertBatchesReportsFailingRow(t *testing.T) {
	repo := &failingRows{fakeRows: newFakeRows("x"), failAt: 1}
	docs := newFakeRows("x").seed(nil, "2026-03-10", []string{"a"}, []string{"b"}, []string{"c"}).docs

	saved, err := insertBatches(context.Background(), repo, docs, 2)
	if saved != 1 {
		t.Fatalf("expected 1 saved before the failure, got %d", saved)
	}
	status, msg := apperr.Status(err)
	if status != 500 || msg != "Erro ao gravar na linha (aprox.) 2: boom" {
		t.Fatalf("unexpected error %d %q", status, msg)
	}
}

// failingRows fails the document at failAt of the first InsertMany call.
type failingRows struct {
	*fakeRows
	failAt int
}

func (f *failingRows) InsertMany(ctx context.Context, docs []models.RowDocument) (int, error) {
	n, _ := f.fakeRows.InsertMany(ctx, docs[:f.failAt])
	return n, &repository.BatchError{Index: f.failAt, Message: "boom"}
}
