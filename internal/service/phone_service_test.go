package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Afonso-Front-End/torre-de-controle/internal/apperr"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type phoneFixture struct {
	phones  *fakeRows
	history *fakeHistory
	user    *models.User
	svc     PhoneService
}

func newPhoneFixture(t *testing.T) *phoneFixture {
	fx := &phoneFixture{
		phones: newFakeRows(constants.CollectionListaTelefones).seed([]string{" Motorista ", "HUB", "contato"}, "",
			[]string{"Ana", "BNU", "4799"},
			[]string{"Rui", "BNU", "4798"},
		),
		history: &fakeHistory{},
		user:    newUserWithPassword(t, "ana", "secret123"),
	}
	fx.phones.docs[1].ImportDate = "2026-03-01"
	fx.phones.docs[2].ImportDate = "2026-03-02"
	svc := NewPhoneService(fx.phones, newFakeUsers(fx.user), fx.history).(*phoneService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	fx.svc = svc
	return fx
}

func TestPhoneListHeaderFirst(t *testing.T) {
	fx := newPhoneFixture(t)
	ctx := context.Background()

	items, err := fx.svc.List(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 || items[0].Values[1] != "HUB" || items[1].Values[0] != "Ana" {
		t.Fatalf("unexpected list %+v", items)
	}

	items, err = fx.svc.List(ctx, "u1", []string{"2026-03-02"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[1].Values[0] != "Rui" {
		t.Fatalf("unexpected filtered list %+v", items)
	}

	dates, err := fx.svc.Dates(ctx, "u1")
	if err != nil || len(dates) != 2 || dates[0] != "2026-03-02" {
		t.Fatalf("unexpected dates %v %v", dates, err)
	}
}

func TestPhoneContact(t *testing.T) {
	fx := newPhoneFixture(t)
	ctx := context.Background()

	res, err := fx.svc.FindContact(ctx, "u1", " Rui ", "BNU")
	if err != nil {
		t.Fatalf("FindContact: %v", err)
	}
	if res.Contato != "4798" || res.ID == nil {
		t.Fatalf("unexpected contact %+v", res)
	}

	if err := fx.svc.UpdateContact(ctx, "u1", *res.ID, " 4700 "); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	again, _ := fx.svc.FindContact(ctx, "u1", "Rui", "BNU")
	if again.Contato != "4700" {
		t.Fatalf("contact not updated, got %q", again.Contato)
	}

	missing, err := fx.svc.FindContact(ctx, "u1", "Leo", "BNU")
	if err != nil || missing.Contato != "" || missing.ID != nil {
		t.Fatalf("expected empty contact, got %+v %v", missing, err)
	}

	if err := fx.svc.UpdateContact(ctx, "u1", "bad", "1"); !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if err := fx.svc.UpdateContact(ctx, "u1", primitive.NewObjectID().Hex(), "1"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPhoneRenameValues(t *testing.T) {
	fx := newPhoneFixture(t)
	n, err := fx.svc.RenameValues(context.Background(), "u1", 1, []string{"BNU"}, "Blumenau")
	if err != nil {
		t.Fatalf("RenameValues: %v", err)
	}
	if n != 2 || fx.phones.docs[0].Values[1] != "HUB" {
		t.Fatalf("expected 2 data cells renamed and the header kept, got %d %v", n, fx.phones.docs[0].Values)
	}
	if _, err := fx.svc.RenameValues(context.Background(), "u1", -1, []string{"x"}, "y"); !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Fatalf("expected invalid column index, got %v", err)
	}
}

func TestPhoneDeleteRequiresPassword(t *testing.T) {
	fx := newPhoneFixture(t)
	ctx := context.Background()
	uid := fx.user.ID.Hex()
	rowID := fx.phones.docs[1].ID.Hex()

	if err := fx.svc.DeleteRow(ctx, uid, rowID, "wrong"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected wrong password, got %v", err)
	}
	if err := fx.svc.DeleteRow(ctx, uid, rowID, "secret123"); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if err := fx.svc.DeleteRow(ctx, uid, rowID, "secret123"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	n, err := fx.svc.DeleteAll(ctx, uid, "secret123")
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n != 2 || len(fx.phones.docs) != 0 {
		t.Fatalf("expected header and one row deleted, got %d", n)
	}

	if len(fx.history.entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(fx.history.entries))
	}
	row, all := fx.history.entries[0], fx.history.entries[1]
	if row.Action != repository.ActionDeleteRow || row.RowID != rowID || row.UserName != "ana" {
		t.Errorf("unexpected row entry %+v", row)
	}
	if all.Action != repository.ActionDeleteAll || all.DeletedCount == nil || *all.DeletedCount != 2 {
		t.Errorf("unexpected delete-all entry %+v", all)
	}
	if !all.CreatedAt.Equal(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", all.CreatedAt)
	}
}
