package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// PaymentsFlag acumula pagos "código=valor" de un flag repetible (-pay 01=50 -pay 03=40.00).
type PaymentsFlag []entity.Payment

func (p *PaymentsFlag) String() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(*p))
	for _, pay := range *p {
		parts = append(parts, pay.TenderCode+"="+pay.Amount.StringFixed(2))
	}
	return strings.Join(parts, ",")
}

func (p *PaymentsFlag) Set(value string) error {
	code, amount, ok := strings.Cut(value, "=")
	code = strings.TrimSpace(code)
	if !ok || code == "" {
		return fmt.Errorf("pago %q: se espera código=valor", value)
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(amount), ",", "."))
	if err != nil {
		return fmt.Errorf("pago %q: valor inválido", value)
	}
	if v.IsNegative() {
		return fmt.Errorf("pago %q: valor negativo", value)
	}
	*p = append(*p, entity.Payment{TenderCode: code, Amount: v})
	return nil
}

// DecimalFlag valor decimal de un flag; acepta coma o punto como separador.
type DecimalFlag struct{ decimal.Decimal }

func (d *DecimalFlag) Set(value string) error {
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", "."))
	if err != nil {
		return fmt.Errorf("valor %q inválido", value)
	}
	d.Decimal = v
	return nil
}
