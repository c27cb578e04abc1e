package entity

import "github.com/shopspring/decimal"

// Payment pago registrado en la venta. Varios pagos pueden compartir el código de forma de pago.
type Payment struct {
	TenderCode string
	Amount     decimal.Decimal // nunca negativo; cero permitido
}
