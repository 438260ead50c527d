package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RowDocument is one stored spreadsheet row. The header of a user's
// collection is stored the same way with IsHeader set.
type RowDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID     string             `bson:"userId" json:"-"`
	Values     []string           `bson:"values" json:"values"`
	IsHeader   bool               `bson:"isHeader,omitempty" json:"-"`
	CreatedAt  *time.Time         `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt  *time.Time         `bson:"updatedAt,omitempty" json:"-"`
	ImportDate string             `bson:"importDate,omitempty" json:"importDate,omitempty"`
	Periodo    string             `bson:"periodo,omitempty" json:"-"`
	Status     string             `bson:"status,omitempty" json:"-"`
	DiasParado *int               `bson:"dias_parado,omitempty" json:"-"`
}

// Value returns the cell at idx, or "" when out of range.
func (d *RowDocument) Value(idx int) string {
	if idx < 0 || idx >= len(d.Values) {
		return ""
	}
	return d.Values[idx]
}

// RowItem is the listing shape of a data document.
type RowItem struct {
	ID         string   `json:"_id"`
	Values     []string `json:"values"`
	CreatedAt  *string  `json:"createdAt"`
	ImportDate string   `json:"importDate,omitempty"`
}

// NewRowItem converts a stored document for API responses.
func NewRowItem(d RowDocument) RowItem {
	item := RowItem{ID: d.ID.Hex(), Values: d.Values, ImportDate: d.ImportDate}
	if item.Values == nil {
		item.Values = []string{}
	}
	if d.CreatedAt != nil {
		s := d.CreatedAt.UTC().Format(time.RFC3339Nano)
		item.CreatedAt = &s
	}
	return item
}

// PageResult is a page of rows plus the header, which is only sent with
// the first page.
type PageResult struct {
	Data   []RowItem `json:"data"`
	Total  int64     `json:"total"`
	Header []string  `json:"header"`
}

// RowsWithHeader is returned by the SLA detail lists.
type RowsWithHeader struct {
	Data   []RowItem `json:"data"`
	Header []string  `json:"header"`
}

// StatusItem is a pedidos_com_status row with its tracking fields.
type StatusItem struct {
	RowItem
	Status     string `json:"status"`
	DiasParado *int   `json:"dias_parado"`
}

func NewStatusItem(d RowDocument) StatusItem {
	return StatusItem{RowItem: NewRowItem(d), Status: d.Status, DiasParado: d.DiasParado}
}

// StatusPage is the pedidos-status listing.
type StatusPage struct {
	Data   []StatusItem `json:"data"`
	Total  int64        `json:"total"`
	Header []string     `json:"header"`
}

// ImportResult is returned by the spreadsheet import endpoints. Data is
// only filled by imports that echo the stored rows.
type ImportResult struct {
	Saved      int       `json:"saved"`
	Data       []RowItem `json:"data,omitempty"`
	ArchiveKey string    `json:"-"`
}

// SLAUpdateResult counts the operations of an SLA update upload.
type SLAUpdateResult struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
}

// ProcessResult is returned by the joiner endpoints. Message is null when
// nothing happened worth reporting.
type ProcessResult struct {
	Saved               int     `json:"saved"`
	Skipped             int     `json:"skipped"`
	RejectedTipoBipagem int     `json:"rejected_tipo_bipagem"`
	Colecao             string  `json:"colecao"`
	Message             *string `json:"message"`
}

// DeliveryPage is a page of the motorista listing.
type DeliveryPage struct {
	Data  []DeliveryRecord `json:"data"`
	Total int64            `json:"total"`
}

// SLAGroup is one row of the per-base indicator table.
type SLAGroup struct {
	Nome           string  `json:"nome"`
	Total          int     `json:"total"`
	TotalEntregues int     `json:"totalEntregues"`
	NaoEntregues   int     `json:"naoEntregues"`
	PercentualSLA  float64 `json:"percentualSla"`
}

// SLADriverGroup is one (motorista, base) row of the indicator table.
type SLADriverGroup struct {
	Nome           string   `json:"nome"`
	Base           string   `json:"base"`
	Total          int      `json:"total"`
	TotalEntregues int      `json:"totalEntregues"`
	NaoEntregues   int      `json:"naoEntregues"`
	PercentualSLA  float64  `json:"percentualSla"`
	Cidades        []string `json:"cidades"`
	EntradasGalpao int      `json:"entradasGalpao"`
}

type SLAIndicators struct {
	Header       []string         `json:"header"`
	PorBase      []SLAGroup       `json:"porBase"`
	PorMotorista []SLADriverGroup `json:"porMotorista"`
}

// ContactResult locates the phone list row of a driver.
type ContactResult struct {
	Contato string  `json:"contato"`
	ID      *string `json:"_id"`
}
