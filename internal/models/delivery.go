package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names of the motorista and base collections, in storage order.
const (
	FieldJMS                  = "Número de pedido JMS"
	FieldCorreio              = "Correio de coleta ou entrega"
	FieldBaseEntrega          = "Base de entrega"
	FieldTipoBipagem          = "Tipo de bipagem"
	FieldTempoDigitalizacao   = "Tempo de digitalização"
	FieldMarcaAssinatura      = "Marca de assinatura"
	FieldDiasSemMovimentacao  = "Dias sem movimentação"
	FieldCEPDestino           = "CEP destino"
	FieldComplemento          = "Complemento"
	FieldDestinatario         = "Destinatário"
	FieldCidadeDestino        = "Cidade Destino"
	FieldDistritoDestinatario = "Distrito destinatário"
	FieldPDDEntrega           = "PDD de Entrega"
	FieldStatus               = "Status"
)

// DeliveryFieldOrder is the field order of destination documents.
var DeliveryFieldOrder = []string{
	FieldJMS,
	FieldCorreio,
	FieldBaseEntrega,
	FieldTipoBipagem,
	FieldTempoDigitalizacao,
	FieldMarcaAssinatura,
	FieldDiasSemMovimentacao,
	FieldCEPDestino,
	FieldComplemento,
	FieldDestinatario,
	FieldCidadeDestino,
	FieldDistritoDestinatario,
	FieldPDDEntrega,
	FieldStatus,
}

// DeliveryRecord is a joined row in the motorista or base collection.
type DeliveryRecord struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	JMS                  string             `bson:"Número de pedido JMS" json:"Número de pedido JMS"`
	Correio              string             `bson:"Correio de coleta ou entrega" json:"Correio de coleta ou entrega"`
	BaseEntrega          string             `bson:"Base de entrega" json:"Base de entrega"`
	TipoBipagem          string             `bson:"Tipo de bipagem" json:"Tipo de bipagem"`
	TempoDigitalizacao   string             `bson:"Tempo de digitalização" json:"Tempo de digitalização"`
	MarcaAssinatura      string             `bson:"Marca de assinatura" json:"Marca de assinatura"`
	DiasSemMovimentacao  *int               `bson:"Dias sem movimentação" json:"Dias sem movimentação"`
	CEPDestino           string             `bson:"CEP destino" json:"CEP destino"`
	Complemento          string             `bson:"Complemento" json:"Complemento"`
	Destinatario         string             `bson:"Destinatário" json:"Destinatário"`
	CidadeDestino        string             `bson:"Cidade Destino" json:"Cidade Destino"`
	DistritoDestinatario string             `bson:"Distrito destinatário" json:"Distrito destinatário"`
	PDDEntrega           string             `bson:"PDD de Entrega" json:"PDD de Entrega"`
	Status               string             `bson:"Status" json:"Status"`
	UserID               string             `bson:"userId" json:"userId"`
	ImportDate           string             `bson:"importDate" json:"importDate"`
	CreatedAt            *time.Time         `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Set assigns a string field by its storage name. Unknown names and the
// derived day count are ignored.
func (r *DeliveryRecord) Set(field, value string) {
	switch field {
	case FieldJMS:
		r.JMS = value
	case FieldCorreio:
		r.Correio = value
	case FieldBaseEntrega:
		r.BaseEntrega = value
	case FieldTipoBipagem:
		r.TipoBipagem = value
	case FieldTempoDigitalizacao:
		r.TempoDigitalizacao = value
	case FieldMarcaAssinatura:
		r.MarcaAssinatura = value
	case FieldCEPDestino:
		r.CEPDestino = value
	case FieldComplemento:
		r.Complemento = value
	case FieldDestinatario:
		r.Destinatario = value
	case FieldCidadeDestino:
		r.CidadeDestino = value
	case FieldDistritoDestinatario:
		r.DistritoDestinatario = value
	case FieldPDDEntrega:
		r.PDDEntrega = value
	case FieldStatus:
		r.Status = value
	}
}
