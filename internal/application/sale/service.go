package sale

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/internal/domain/repository"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

// Service entrada al cierre desde HTTP y CLI: carga la venta y el operador,
// valida los datos del cierre y arma la sesión de la caja.
type Service struct {
	sales    repository.SaleRepository
	users    repository.UserRepository
	closer   *CloseSaleUseCase
	register entity.Register
}

// NewService construye el servicio para la caja indicada.
func NewService(sales repository.SaleRepository, users repository.UserRepository, closer *CloseSaleUseCase, register entity.Register) *Service {
	return &Service{sales: sales, users: users, closer: closer, register: register}
}

// Get devuelve la venta o ErrNotFound.
func (s *Service) Get(ctx context.Context, saleID int64) (*entity.Sale, error) {
	v, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

// Close cierra la venta saleID con el operador operatorID.
// Gross en cero toma el bruto registrado en la venta; Change en cero se calcula
// como el excedente de los pagos sobre el líquido.
func (s *Service) Close(ctx context.Context, saleID, operatorID int64, in CloseSaleInput) (*CloseSaleResult, error) {
	v, err := s.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if v.Closed {
		return nil, domain.ErrSaleAlreadyClosed
	}
	op, err := s.users.GetByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, domain.ErrUserNotFound
	}
	if !op.Active {
		return nil, domain.ErrForbidden
	}

	if v.Customer != nil {
		if err := ecf.ValidateDocument(v.Customer.Document); err != nil {
			return nil, fmt.Errorf("%w: cliente de la venta: %v", domain.ErrInvalidInput, err)
		}
	}

	if in.Gross.IsZero() {
		in.Gross = v.Gross
	}
	if err := ValidateInput(in); err != nil {
		return nil, err
	}
	if in.Change.IsZero() {
		in.Change = Change(in)
	}

	return s.closer.Execute(ctx, Session{Sale: v, Operator: *op, Register: s.register}, in)
}

// ValidateInput comprueba los datos que el cierre asume válidos.
func ValidateInput(in CloseSaleInput) error {
	if len(in.Payments) == 0 {
		return fmt.Errorf("%w: al menos un pago es requerido", domain.ErrInvalidInput)
	}
	for i, p := range in.Payments {
		if strings.TrimSpace(p.TenderCode) == "" {
			return fmt.Errorf("%w: pago %d sin forma de pago", domain.ErrInvalidInput, i+1)
		}
		if p.Amount.IsNegative() {
			return fmt.Errorf("%w: pago %d con valor negativo", domain.ErrInvalidInput, i+1)
		}
	}
	if !in.Gross.IsPositive() {
		return fmt.Errorf("%w: bruto debe ser mayor que cero", domain.ErrInvalidInput)
	}
	net := in.Gross.Add(in.Adjustment)
	if net.IsNegative() {
		return fmt.Errorf("%w: el desconto supera el bruto", domain.ErrInvalidInput)
	}
	if in.Change.IsNegative() {
		return fmt.Errorf("%w: troco negativo", domain.ErrInvalidInput)
	}
	if paid := closing.SumTenders(closing.AggregatePayments(in.Payments)); paid.LessThan(net) {
		return fmt.Errorf("%w: pagos (%s) menores que el líquido (%s)", domain.ErrInvalidInput, paid.StringFixed(2), net.StringFixed(2))
	}
	return nil
}

// Change excedente de los pagos sobre el líquido; nunca negativo.
func Change(in CloseSaleInput) decimal.Decimal {
	paid := closing.SumTenders(closing.AggregatePayments(in.Payments))
	change := paid.Sub(in.Gross.Add(in.Adjustment))
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}
