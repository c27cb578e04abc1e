package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale cabecera de una venta (cupón fiscal) abierta en la caja.
// Net = Gross + Adjustment al momento del cierre; Closed pasa de false a true una sola vez.
type Sale struct {
	ID               int64
	Date             time.Time
	COO              int             // contador de orden de operación del cupón
	Gross            decimal.Decimal // bruto
	Adjustment       decimal.Decimal // positivo = acréscimo, negativo = desconto
	Net              decimal.Decimal // líquido
	Closed           bool
	Operator         User
	Seller           *User     // vendedor opcional
	Customer         *Customer // cliente opcional
	CustomerDeclared bool      // el cliente ya se identificó en la cabecera del cupón
	Items            []SaleLineItem
	CreatedAt        time.Time
}

// SellerID devuelve el ID del vendedor o nil.
func (s *Sale) SellerID() *int64 {
	if s.Seller == nil {
		return nil
	}
	id := s.Seller.ID
	return &id
}

// CustomerID devuelve el ID del cliente o nil.
func (s *Sale) CustomerID() *int64 {
	if s.Customer == nil {
		return nil
	}
	id := s.Customer.ID
	return &id
}

// MarkClosed registra los totales del cierre en memoria (la persistencia va por el lote de intents).
func (s *Sale) MarkClosed(gross, adjustment decimal.Decimal) {
	s.Gross = gross
	s.Adjustment = adjustment
	s.Net = gross.Add(adjustment)
	s.Closed = true
}

// SaleLineItem línea del cupón. Total = NetUnit × Quantity.
type SaleLineItem struct {
	ID         int64
	SaleID     int64
	Quantity   decimal.Decimal
	Cancelled  bool
	GrossUnit  decimal.Decimal // bruto unitario
	Adjustment decimal.Decimal // rateo del acréscimo/desconto de la venta
	NetUnit    decimal.Decimal
	Total      decimal.Decimal
	Packaging  PackagingUnit // embalaje usado en la venta
	Product    Product
}
