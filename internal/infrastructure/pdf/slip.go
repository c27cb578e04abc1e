package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
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

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
)

// GenerateSlip genera el comprobante TEF de una forma de pago con tarjeta (vía del cliente).
func (g *MarotoGenerator) GenerateSlip(_ context.Context, doc sale.ClosedSale, tender closing.TenderTotal) ([]byte, error) {
	if doc.Sale == nil {
		return nil, fmt.Errorf("pdf: comprobante sin venta")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A6).
		WithLeftMargin(6).WithRightMargin(6).
		WithTopMargin(6).WithBottomMargin(6).
		WithDefaultFont(&props.Font{Family: "courier", Size: 8}).
		WithTitle("Comprovante TEF", true).
		Build()

	m := maroto.New(cfg)
	center := func(s string, size float64, style fontstyle.Type) core.Row {
		return row.New(6).Add(col.New(12).Add(text.New(s, props.Text{
			Size: size, Style: style, Align: align.Center, Top: 1,
		})))
	}
	pair := func(k, v string) core.Row {
		return row.New(5).Add(
			col.New(6).Add(text.New(k, props.Text{Size: 8})),
			col.New(6).Add(text.New(v, props.Text{Size: 8, Align: align.Right})),
		)
	}

	m.AddRows(
		center("COMPROVANTE DE PAGAMENTO", 10, fontstyle.Bold),
		center("VIA DO CLIENTE", 8, fontstyle.Normal),
		line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}),
		pair("CAIXA", fmt.Sprintf("%03d", doc.Register.Number)),
		pair("COO", fmt.Sprintf("%06d", doc.Sale.COO)),
		pair("DATA", doc.ClosedAt.Format("02/01/2006 15:04")),
		pair("FORMA", g.tenderName(tender.Code)),
		line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}),
		row.New(8).Add(
			col.New(6).Add(text.New("VALOR", props.Text{Style: fontstyle.Bold, Size: 10, Top: 1})),
			col.New(6).Add(text.New("R$ "+formatMoney(tender.Amount), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1,
			})),
		),
	)
	if doc.Change.IsPositive() {
		m.AddRows(pair("TROCO DA VENDA", "R$ "+formatMoney(doc.Change)))
	}
	m.AddRows(center("Fechamento "+doc.ClosingID, 6, fontstyle.Normal))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante TEF: %w", err)
	}
	return out.GetBytes(), nil
}
