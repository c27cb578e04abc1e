package closing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// Intent mutación pendiente sobre el almacén. Conjunto cerrado: UpdateSaleHeader,
// UpdateLineItem y AdjustStock.
type Intent interface {
	Kind() string
	intent()
}

// AdjustmentField columna donde se guarda el ajuste, elegida por el signo.
type AdjustmentField string

const (
	FieldSurcharge AdjustmentField = "acrescimo"
	FieldDiscount  AdjustmentField = "desconto"
)

// FieldFor devuelve acréscimo si v > 0; en otro caso desconto (cero incluido).
func FieldFor(v decimal.Decimal) AdjustmentField {
	if v.IsPositive() {
		return FieldSurcharge
	}
	return FieldDiscount
}

// UpdateSaleHeader cierra la cabecera de la venta.
type UpdateSaleHeader struct {
	SaleID     int64
	Gross      decimal.Decimal
	Field      AdjustmentField
	Amount     decimal.Decimal // valor absoluto del ajuste
	Net        decimal.Decimal
	Closed     bool
	CustomerID *int64
	SellerID   *int64
}

// UpdateLineItem guarda el rateo de una línea.
type UpdateLineItem struct {
	ItemID  int64
	Field   AdjustmentField
	Amount  decimal.Decimal // valor absoluto de la cuota
	NetUnit decimal.Decimal
	Total   decimal.Decimal
}

// AdjustStock incremento relativo del stock de un producto.
type AdjustStock struct {
	ProductID int64
	Delta     decimal.Decimal
}

func (UpdateSaleHeader) Kind() string { return "update_sale_header" }
func (UpdateLineItem) Kind() string   { return "update_line_item" }
func (AdjustStock) Kind() string      { return "adjust_stock" }

func (UpdateSaleHeader) intent() {}
func (UpdateLineItem) intent()   {}
func (AdjustStock) intent()      {}

// BuildIntents arma el lote completo del cierre: cabecera, líneas con cuota distinta
// de cero y bajas de stock de las líneas no canceladas, en ese orden.
func BuildIntents(sale *entity.Sale, gross, adjustment decimal.Decimal) []Intent {
	ap := Apportion(adjustment, sale.Items)

	intents := make([]Intent, 0, 1+len(ap.Lines)+len(ap.Deltas))
	intents = append(intents, UpdateSaleHeader{
		SaleID:     sale.ID,
		Gross:      gross,
		Field:      FieldFor(adjustment),
		Amount:     adjustment.Abs(),
		Net:        gross.Add(adjustment),
		Closed:     true,
		CustomerID: sale.CustomerID(),
		SellerID:   sale.SellerID(),
	})
	if !ap.Share.IsZero() {
		for _, l := range ap.Lines {
			intents = append(intents, UpdateLineItem{
				ItemID:  l.ItemID,
				Field:   FieldFor(l.Share),
				Amount:  l.Share.Abs(),
				NetUnit: l.NetUnit,
				Total:   l.Total,
			})
		}
	}
	for _, d := range ap.Deltas {
		intents = append(intents, AdjustStock{ProductID: d.ProductID, Delta: d.Delta})
	}
	return intents
}
