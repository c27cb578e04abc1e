// Package pdf genera los documentos de la venta cerrada: el documento RV
// (registro de venta) que va al archivo y los comprobantes de tarjeta (TEF).
//
// Layout del documento RV (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Caja + Operador     │  COO + Fecha                 │
//	│  CLIENTE / VENDEDOR                                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Emb | Producto | Bruto | Rateo | Líq | Total  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Bruto / Acréscimo-Desconto / Líquido               │
//	│  PAGOS: forma + valor, troco                                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: GT + ID del cierre + QR                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 160, Green: 20, Blue: 20}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoGenerator genera los PDF de la venta cerrada usando Maroto v2.
type MarotoGenerator struct {
	tenderNames map[string]string
}

// NewMarotoGenerator construye el generador. tenderNames traduce el código de la
// forma de pago a su descripción; los códigos sin nombre se imprimen tal cual.
func NewMarotoGenerator(tenderNames map[string]string) *MarotoGenerator {
	if tenderNames == nil {
		tenderNames = DefaultTenderNames()
	}
	return &MarotoGenerator{tenderNames: tenderNames}
}

// DefaultTenderNames formas de pago habituales del PDV.
func DefaultTenderNames() map[string]string {
	return map[string]string{
		"01": "DINHEIRO",
		"02": "CHEQUE",
		"03": "CARTAO CREDITO",
		"04": "CARTAO DEBITO",
	}
}

// GenerateSaleDocument genera el documento RV y devuelve sus bytes.
func (g *MarotoGenerator) GenerateSaleDocument(_ context.Context, doc sale.ClosedSale) ([]byte, error) {
	if doc.Sale == nil {
		return nil, fmt.Errorf("pdf: documento sin venta")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("RV COO %06d", doc.Sale.COO), true).
		WithAuthor(doc.Operator.Login, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(doc.Sale))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(doc.Sale.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc.Sale))
	m.AddRows(g.tenderRows(doc)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento RV: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: caja + operador (izq) y COO + fecha (der).
func headerRow(doc sale.ClosedSale) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(fmt.Sprintf("CAIXA %03d", doc.Register.Number), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("ECF: "+nonEmpty(doc.Register.Serial, "—")+"   |   Operador: "+doc.Operator.Login, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REGISTRO DE VENDA (RV)", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("COO %06d", doc.Sale.COO), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Data: "+doc.ClosedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// partiesRow: cliente y vendedor, si existen.
func partiesRow(s *entity.Sale) core.Row {
	customer := "CONSUMIDOR NÃO IDENTIFICADO"
	if s.Customer != nil {
		customer = fmt.Sprintf("%s   |   CPF/CNPJ: %s", nonEmpty(s.Customer.Name, "—"), s.Customer.Document)
	}
	seller := "—"
	if s.Seller != nil {
		seller = s.Seller.Login
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CLIENTE / VENDEDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer+"   |   Vendedor: "+seller, props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qtd.", 1, align.Center),
		h("Emb.", 1, align.Center),
		h("Produto", 4, align.Left),
		h("Bruto", 2, align.Right),
		h("Rateio", 1, align.Right),
		h("Líquido", 1, align.Right),
		h("Total", 2, align.Right),
	)
}

// itemRows: una fila por línea; las canceladas salen tachadas en rojo.
func itemRows(items []entity.SaleLineItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		c := props.Text{Size: 8, Top: 1}
		name := it.Product.Name
		if it.Cancelled {
			c.Color = colorRed
			name += " (CANCELADO)"
		}
		cell := func(s string, size int, a align.Type) core.Col {
			p := c
			p.Align = a
			p.Right = 1
			return col.New(size).Add(text.New(s, p))
		}
		result = append(result, row.New(7).Add(
			cell(it.Quantity.String(), 1, align.Center),
			cell(it.Packaging.Name, 1, align.Center),
			cell(name, 4, align.Left),
			cell(formatMoney(it.GrossUnit), 2, align.Right),
			cell(formatMoney(it.Adjustment), 1, align.Right),
			cell(formatMoney(it.NetUnit), 1, align.Right),
			cell(formatMoney(it.Total), 2, align.Right),
		))
	}
	return result
}

func totalsRow(s *entity.Sale) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	adjLabel := "Desconto:"
	if s.Adjustment.IsPositive() {
		adjLabel = "Acréscimo:"
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Bruto:"),
			label(adjLabel),
			text.New("LÍQUIDO:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2,
			}),
		),
		col.New(3).Add(
			value("R$ "+formatMoney(s.Gross)),
			value("R$ "+formatMoney(s.Adjustment)),
			text.New("R$ "+formatMoney(s.Net), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1,
			}),
		),
	)
}

// tenderRows: formas de pago consolidadas y el troco.
func (g *MarotoGenerator) tenderRows(doc sale.ClosedSale) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("PAGAMENTOS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
	}
	for _, t := range doc.Tenders {
		rows = append(rows, row.New(5).Add(
			col.New(9).Add(text.New(g.tenderName(t.Code), props.Text{Size: 8, Left: 2})),
			col.New(3).Add(text.New("R$ "+formatMoney(t.Amount), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	if doc.Change.IsPositive() {
		rows = append(rows, row.New(5).Add(
			col.New(9).Add(text.New("TROCO", props.Text{Style: fontstyle.Bold, Size: 8, Left: 2})),
			col.New(3).Add(text.New("R$ "+formatMoney(doc.Change), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

// footerRow: GT del equipo, ID del cierre y QR de verificación.
func footerRow(doc sale.ClosedSale) core.Row {
	gt := doc.GrandTotal
	if gt == "" {
		gt = "NÃO SINCRONIZADO"
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(verificationCode(doc), props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("GT: "+gt, props.Text{Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3}),
			text.New("Fechamento: "+doc.ClosingID, props.Text{Size: 7, Top: 12, Left: 3, Color: colorGray}),
			text.New("Documento interno sem valor fiscal. O cupom fiscal é emitido pelo ECF.", props.Text{
				Size: 6.5, Top: 22, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// verificationCode contenido del QR: COO|caja|líquido|cierre.
func verificationCode(doc sale.ClosedSale) string {
	return fmt.Sprintf("%06d|%03d|%s|%s", doc.Sale.COO, doc.Register.Number, doc.Sale.Net.StringFixed(2), doc.ClosingID)
}

func (g *MarotoGenerator) tenderName(code string) string {
	if n, ok := g.tenderNames[code]; ok {
		return code + " - " + n
	}
	return code
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea con dos decimales, coma decimal y puntos de miles.
// Ej: 1234.5 → "1.234,50", -10 → "-10,00".
func formatMoney(v decimal.Decimal) string {
	s := v.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
