package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest pago informado en el cierre (forma de pago + valor).
type PaymentRequest struct {
	TenderCode string          `json:"tender_code"`
	Amount     decimal.Decimal `json:"amount"`
}

// CloseSaleRequest body para POST /api/sales/:id/close.
// Gross en cero toma el bruto de la venta; Change en cero se calcula.
// RetryAttempts cuántas veces se acepta reintentar si el ECF no responde (no hay operador en HTTP).
type CloseSaleRequest struct {
	Payments      []PaymentRequest `json:"payments"`
	Gross         decimal.Decimal  `json:"gross"`
	Adjustment    decimal.Decimal  `json:"adjustment"`
	Change        decimal.Decimal  `json:"change"`
	RetryAttempts int              `json:"retry_attempts"`
}

// TenderResponse total consolidado por forma de pago.
type TenderResponse struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// CloseSaleResponse resultado del cierre.
type CloseSaleResponse struct {
	ClosingID  string           `json:"closing_id"`
	SaleID     int64            `json:"sale_id"`
	Gross      decimal.Decimal  `json:"gross"`
	Adjustment decimal.Decimal  `json:"adjustment"`
	Net        decimal.Decimal  `json:"net"`
	Tenders    []TenderResponse `json:"tenders"`
	GrandTotal string           `json:"grand_total,omitempty"`
	Attempts   int              `json:"attempts"`
	States     []string         `json:"states"`
	ClosedAt   time.Time        `json:"closed_at"`
	Warning    string           `json:"warning,omitempty"` // GT no sincronizado
}

// SaleItemResponse línea de la venta.
type SaleItemResponse struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Product    string          `json:"product"`
	Packaging  string          `json:"packaging"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cancelled  bool            `json:"cancelled"`
	GrossUnit  decimal.Decimal `json:"gross_unit"`
	Adjustment decimal.Decimal `json:"adjustment"`
	NetUnit    decimal.Decimal `json:"net_unit"`
	Total      decimal.Decimal `json:"total"`
}

// SaleResponse venta para GET /api/sales/:id.
type SaleResponse struct {
	ID         int64              `json:"id"`
	COO        int                `json:"coo"`
	Date       time.Time          `json:"date"`
	Gross      decimal.Decimal    `json:"gross"`
	Adjustment decimal.Decimal    `json:"adjustment"`
	Net        decimal.Decimal    `json:"net"`
	Closed     bool               `json:"closed"`
	Operator   string             `json:"operator"`
	Seller     string             `json:"seller,omitempty"`
	Customer   string             `json:"customer,omitempty"`
	Items      []SaleItemResponse `json:"items"`
}
