package closing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// LineShare valores recalculados de una línea tras el rateo.
type LineShare struct {
	ItemID  int64
	Share   decimal.Decimal
	NetUnit decimal.Decimal
	Total   decimal.Decimal
}

// StockDelta salida de stock de una línea, en el embalaje nativo del producto. Siempre negativo.
type StockDelta struct {
	ProductID int64
	Delta     decimal.Decimal
}

// Apportionment resultado del rateo de una venta.
type Apportionment struct {
	Share  decimal.Decimal // cuota por línea; cero si no hay líneas
	Lines  []LineShare     // todas las líneas, canceladas incluidas
	Deltas []StockDelta    // una por línea no cancelada, sin agrupar por producto
}

// Apportion reparte el ajuste de la venta en partes iguales entre todas las líneas
// (las canceladas cuentan en el divisor) y calcula la baja de stock de las líneas vigentes.
// La división usa la precisión por defecto de decimal (16 dígitos) y no se rebalancea:
// la suma de cuotas puede diferir del ajuste hasta N × 1e-16.
func Apportion(adjustment decimal.Decimal, items []entity.SaleLineItem) Apportionment {
	out := Apportionment{Share: decimal.Zero}
	if len(items) == 0 {
		return out
	}
	out.Share = adjustment.Div(decimal.NewFromInt(int64(len(items))))

	out.Lines = make([]LineShare, 0, len(items))
	for _, it := range items {
		net := it.GrossUnit.Add(out.Share)
		out.Lines = append(out.Lines, LineShare{
			ItemID:  it.ID,
			Share:   out.Share,
			NetUnit: net,
			Total:   net.Mul(it.Quantity),
		})
		if it.Cancelled {
			continue
		}
		out.Deltas = append(out.Deltas, StockDelta{
			ProductID: it.Product.ID,
			Delta:     NativeQuantity(it).Neg(),
		})
	}
	return out
}

// ApplyTo copia cuota, unitario líquido y total a las líneas de la venta, en el mismo orden
// en que se calcularon.
func (a Apportionment) ApplyTo(items []entity.SaleLineItem) {
	for i := range items {
		if i >= len(a.Lines) || items[i].ID != a.Lines[i].ItemID {
			return
		}
		items[i].Adjustment = a.Lines[i].Share
		items[i].NetUnit = a.Lines[i].NetUnit
		items[i].Total = a.Lines[i].Total
	}
}

// NativeQuantity convierte la cantidad vendida al embalaje nativo del producto:
// qty × factorVenta ÷ factorNativo cuando los embalajes difieren.
// Un factor nativo en cero deja la cantidad sin convertir.
func NativeQuantity(it entity.SaleLineItem) decimal.Decimal {
	native := it.Product.Packaging
	if it.Packaging.ID == native.ID || native.Factor.IsZero() {
		return it.Quantity
	}
	return it.Quantity.Mul(it.Packaging.Factor).Div(native.Factor)
}
