// Package closing contiene las reglas puras del cierre de venta: consolidación de
// pagos, rateo del acréscimo/desconto, intents de persistencia, mensaje del
// subtotal y la tabla de estados del protocolo con el ECF.
package closing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// TenderTotal total consolidado de una forma de pago.
type TenderTotal struct {
	Code   string
	Amount decimal.Decimal
}

// AggregatePayments suma los pagos por código de forma de pago.
// El orden de salida es el de la primera aparición de cada código.
func AggregatePayments(payments []entity.Payment) []TenderTotal {
	totals := make([]TenderTotal, 0, len(payments))
	index := make(map[string]int, len(payments))
	for _, p := range payments {
		if i, ok := index[p.TenderCode]; ok {
			totals[i].Amount = totals[i].Amount.Add(p.Amount)
			continue
		}
		index[p.TenderCode] = len(totals)
		totals = append(totals, TenderTotal{Code: p.TenderCode, Amount: p.Amount})
	}
	return totals
}

// SumTenders total de todas las formas de pago.
func SumTenders(totals []TenderTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Amount)
	}
	return sum
}
