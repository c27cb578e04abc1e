package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// SlipPrinter "imprime" los comprobantes TEF dejándolos en un directorio de cola
// que la impresora no fiscal consume. Solo las formas de pago con tarjeta generan comprobante.
type SlipPrinter struct {
	dir      string
	renderer Renderer
	cards    map[string]struct{}
	log      *logger.Logger
}

// NewSlipPrinter construye la impresora de comprobantes. cardTenders son los
// códigos de forma de pago que pasan por el TEF.
func NewSlipPrinter(dir string, renderer Renderer, cardTenders []string, log *logger.Logger) *SlipPrinter {
	if log == nil {
		log = logger.Nop()
	}
	cards := make(map[string]struct{}, len(cardTenders))
	for _, c := range cardTenders {
		cards[c] = struct{}{}
	}
	return &SlipPrinter{dir: dir, renderer: renderer, cards: cards, log: log}
}

// PrintSlips genera un comprobante por cada forma de pago con tarjeta.
func (p *SlipPrinter) PrintSlips(ctx context.Context, doc sale.ClosedSale) error {
	printed := 0
	for _, t := range doc.Tenders {
		if _, ok := p.cards[t.Code]; !ok {
			continue
		}
		if printed == 0 {
			if err := os.MkdirAll(p.dir, 0o750); err != nil {
				return fmt.Errorf("archive: crear directorio de comprobantes: %w", err)
			}
		}
		data, err := p.renderer.GenerateSlip(ctx, doc, t)
		if err != nil {
			return fmt.Errorf("archive: comprobante %s: %w", t.Code, err)
		}
		name := fmt.Sprintf("TEF-%06d-%s-%s.pdf", doc.Sale.COO, t.Code, doc.ClosingID)
		if err := writeFileAtomic(filepath.Join(p.dir, name), data); err != nil {
			return err
		}
		printed++
	}
	if printed > 0 {
		p.log.Info().Int("slips", printed).Int("coo", doc.Sale.COO).Msg("comprobantes TEF enviados")
	}
	return nil
}

var _ sale.SlipPrinter = (*SlipPrinter)(nil)
