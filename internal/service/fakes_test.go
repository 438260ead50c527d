package service

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/internal/events"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/rejects"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
)

// fakeRows keeps one user's documents in insertion order, which is also
// _id order.
type fakeRows struct {
	name string
	docs []models.RowDocument
}

var _ repository.RowRepository = (*fakeRows)(nil)

func newFakeRows(name string) *fakeRows {
	return &fakeRows{name: name}
}

// seed stores a header and data rows imported on importDate.
func (f *fakeRows) seed(header []string, importDate string, rows ...[]string) *fakeRows {
	if header != nil {
		f.docs = append(f.docs, models.RowDocument{ID: primitive.NewObjectID(), Values: header, IsHeader: true})
	}
	for _, r := range rows {
		f.docs = append(f.docs, models.RowDocument{ID: primitive.NewObjectID(), Values: r, ImportDate: importDate})
	}
	return f
}

func (f *fakeRows) data() []models.RowDocument {
	var out []models.RowDocument
	for _, d := range f.docs {
		if !d.IsHeader {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeRows) matches(d models.RowDocument, q repository.RowQuery) bool {
	switch {
	case len(q.Dates) > 0:
		found := false
		for _, date := range q.Dates {
			if d.ImportDate == date {
				found = true
			}
		}
		if !found {
			return false
		}
	case q.DataOnly:
		if d.ImportDate == "" {
			return false
		}
	}
	if q.Periodo != "" && d.Periodo != q.Periodo {
		return false
	}
	return q.ExcludeID.IsZero() || d.ID != q.ExcludeID
}

func (f *fakeRows) query(q repository.RowQuery) []models.RowDocument {
	var out []models.RowDocument
	for _, d := range f.docs {
		if f.matches(d, q) {
			out = append(out, d)
		}
	}
	if q.Newest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (f *fakeRows) Collection() string { return f.name }

func (f *fakeRows) FindHeader(ctx context.Context, userID string) (*models.RowDocument, error) {
	for _, d := range f.docs {
		if d.IsHeader || d.ImportDate == "" {
			doc := d
			return &doc, nil
		}
	}
	return nil, nil
}

func (f *fakeRows) InsertHeader(ctx context.Context, userID string, values []string) (*models.RowDocument, error) {
	doc := models.RowDocument{ID: primitive.NewObjectID(), UserID: userID, Values: values, IsHeader: true}
	f.docs = append(f.docs, doc)
	return &doc, nil
}

func (f *fakeRows) Count(ctx context.Context, userID string, q repository.RowQuery) (int64, error) {
	return int64(len(f.query(q))), nil
}

func (f *fakeRows) ExistingKeys(ctx context.Context, userID string, keyIdx int) (map[string]struct{}, error) {
	keys := map[string]struct{}{}
	for _, d := range f.docs {
		if d.ImportDate == "" {
			continue
		}
		if k := strings.TrimSpace(d.Value(keyIdx)); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys, nil
}

func (f *fakeRows) KeyIDs(ctx context.Context, userID string, keyIdx int, headerID primitive.ObjectID) (map[string]primitive.ObjectID, error) {
	ids := map[string]primitive.ObjectID{}
	for _, d := range f.docs {
		if d.ID == headerID {
			continue
		}
		if k := strings.TrimSpace(d.Value(keyIdx)); k != "" {
			ids[k] = d.ID
		}
	}
	return ids, nil
}

func (f *fakeRows) InsertMany(ctx context.Context, docs []models.RowDocument) (int, error) {
	for _, d := range docs {
		if d.ID.IsZero() {
			d.ID = primitive.NewObjectID()
		}
		f.docs = append(f.docs, d)
	}
	return len(docs), nil
}

func (f *fakeRows) BulkUpsert(ctx context.Context, userID string, writes []repository.RowWrite) error {
	for _, w := range writes {
		if w.ID.IsZero() {
			doc := w.Doc
			doc.ID = primitive.NewObjectID()
			f.docs = append(f.docs, doc)
			continue
		}
		for i := range f.docs {
			if f.docs[i].ID == w.ID {
				doc := w.Doc
				doc.ID = w.ID
				f.docs[i] = doc
			}
		}
	}
	return nil
}

func (f *fakeRows) List(ctx context.Context, userID string, q repository.RowQuery, skip, limit int64) ([]models.RowDocument, error) {
	all := f.query(q)
	if skip > int64(len(all)) {
		return []models.RowDocument{}, nil
	}
	end := int64(len(all))
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return all[skip:end], nil
}

func (f *fakeRows) Scan(ctx context.Context, userID string, q repository.RowQuery, fn func(*models.RowDocument) error) error {
	for _, d := range f.query(q) {
		doc := d
		if err := fn(&doc); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRows) FindFirst(ctx context.Context, userID string, match map[int]string, excludeID primitive.ObjectID) (*models.RowDocument, error) {
	for _, d := range f.docs {
		if d.IsHeader || d.ID == excludeID {
			continue
		}
		ok := true
		for idx, v := range match {
			if idx >= len(d.Values) || d.Values[idx] != v {
				ok = false
				break
			}
		}
		if ok {
			doc := d
			return &doc, nil
		}
	}
	return nil, nil
}

func (f *fakeRows) ImportDates(ctx context.Context, userID string) ([]string, error) {
	seen := map[string]bool{}
	var dates []string
	for _, d := range f.docs {
		if d.ImportDate != "" && !seen[d.ImportDate] {
			seen[d.ImportDate] = true
			dates = append(dates, d.ImportDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (f *fakeRows) UpdateValue(ctx context.Context, userID string, id primitive.ObjectID, idx int, value string) (bool, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			for len(f.docs[i].Values) <= idx {
				f.docs[i].Values = append(f.docs[i].Values, "")
			}
			f.docs[i].Values[idx] = value
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRows) ReplaceValues(ctx context.Context, userID string, idx int, from []string, to string) (int64, error) {
	var n int64
	for _, v := range from {
		for i := range f.docs {
			d := &f.docs[i]
			if d.IsHeader || idx >= len(d.Values) || d.Values[idx] != v || v == to {
				continue
			}
			d.Values[idx] = to
			n++
		}
	}
	return n, nil
}

func (f *fakeRows) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n := int64(len(f.docs))
	f.docs = nil
	return n, nil
}

func (f *fakeRows) DeleteByID(ctx context.Context, userID string, id primitive.ObjectID) (bool, error) {
	for i, d := range f.docs {
		if d.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeDeliveries struct {
	name    string
	records []models.DeliveryRecord
}

var _ repository.DeliveryRepository = (*fakeDeliveries)(nil)

func (f *fakeDeliveries) Collection() string { return f.name }

func (f *fakeDeliveries) Exists(ctx context.Context, userID, jms string) (bool, error) {
	for _, r := range f.records {
		if r.JMS == jms {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDeliveries) Insert(ctx context.Context, rec *models.DeliveryRecord) error {
	rec.ID = primitive.NewObjectID()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeDeliveries) filter(flt repository.DeliveryFilter) []models.DeliveryRecord {
	in := func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	}
	var out []models.DeliveryRecord
	for _, r := range f.records {
		if len(flt.Dates) > 0 && !in(flt.Dates, r.ImportDate) {
			continue
		}
		if len(flt.ExcludeDates) > 0 && in(flt.ExcludeDates, r.ImportDate) {
			continue
		}
		if flt.Marca != "" && r.MarcaAssinatura != flt.Marca {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeDeliveries) Page(ctx context.Context, userID string, flt repository.DeliveryFilter, skip, limit int64) ([]models.DeliveryRecord, int64, error) {
	all := f.filter(flt)
	total := int64(len(all))
	if skip > total {
		skip = total
	}
	end := total
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return all[skip:end], total, nil
}

func (f *fakeDeliveries) FindAll(ctx context.Context, userID string, flt repository.DeliveryFilter) ([]models.DeliveryRecord, error) {
	return f.filter(flt), nil
}

func (f *fakeDeliveries) ImportDates(ctx context.Context, userID string) ([]string, error) {
	seen := map[string]bool{}
	var dates []string
	for _, r := range f.records {
		if r.ImportDate != "" && !seen[r.ImportDate] {
			seen[r.ImportDate] = true
			dates = append(dates, r.ImportDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (f *fakeDeliveries) JMSNumbers(ctx context.Context, userID string, dates []string) ([]string, error) {
	numbers := []string{}
	for _, r := range f.filter(repository.DeliveryFilter{Dates: dates}) {
		numbers = append(numbers, r.JMS)
	}
	return numbers, nil
}

func (f *fakeDeliveries) UpdateByJMS(ctx context.Context, userID, jms string, set bson.D) (bool, error) {
	matched := false
	for i := range f.records {
		if f.records[i].JMS != jms {
			continue
		}
		matched = true
		for _, e := range set {
			v, _ := e.Value.(string)
			if e.Key == "importDate" {
				f.records[i].ImportDate = v
				continue
			}
			f.records[i].Set(e.Key, v)
		}
	}
	return matched, nil
}

func (f *fakeDeliveries) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n := int64(len(f.records))
	f.records = nil
	return n, nil
}

type fakeUsers struct {
	users   map[string]*models.User
	updates []bson.M
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUsers) FindByName(ctx context.Context, nome string) (*models.User, error) {
	for _, u := range f.users {
		if u.Nome == nome {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	cp := *user
	f.users[user.ID.Hex()] = &cp
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, id string, set bson.M) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.updates = append(f.updates, set)
	for k, v := range set {
		switch k {
		case "foto":
			s := v.(string)
			u.Foto = &s
		case "tabelas":
			u.Tabelas = v.(map[string]map[string]interface{})
		case "config":
			cfg := models.UserConfig{}
			if err := cfg.Merge(v.(map[string]interface{})); err != nil {
				return err
			}
			u.Config = cfg
		case "config." + models.ConfigMotoristaPrefixos:
			u.Config.MotoristaPrefixos = v.([]string)
		}
	}
	return nil
}

type fakeHistory struct {
	entries []repository.DeleteHistoryEntry
}

func (f *fakeHistory) Record(ctx context.Context, entry repository.DeleteHistoryEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type recordingPublisher struct {
	events []*events.ImportCompletedEvent
}

func (p *recordingPublisher) PublishImportCompleted(ctx context.Context, event *events.ImportCompletedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingRejects struct {
	records []rejects.Record
}

func (r *recordingRejects) Log(ctx context.Context, records ...rejects.Record) error {
	r.records = append(r.records, records...)
	return nil
}

// xlsx builds an in-memory workbook with rows written as text.
func xlsx(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cells := make([]interface{}, len(r))
		for j, v := range r {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &cells); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func newUserWithPassword(t *testing.T, nome, senha string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(senha)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{ID: primitive.NewObjectID(), Nome: nome, SenhaHash: hash, Role: models.RoleUser}
}

func boolPtr(b bool) *bool { return &b }
