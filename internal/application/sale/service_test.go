package sale_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/internal/infrastructure/memory"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service: carga de venta/operador y validación del cierre
// ─────────────────────────────────────────────────────────────────────────────

func newService(t *testing.T) (*sale.Service, *fixture, *entity.Sale, *entity.User) {
	t.Helper()
	st := memory.NewStore()
	v, err := st.SeedDemo(context.Background(), "maria", "segredo")
	require.NoError(t, err)
	op, err := st.Users().GetByLogin(context.Background(), "maria")
	require.NoError(t, err)

	f := newFixture(0)
	return sale.NewService(st.Sales(), st.Users(), f.uc, entity.Register{Number: 3}), f, v, op
}

func TestService_CierraConBrutoDeLaVentaYCalculaTroco(t *testing.T) {
	svc, f, v, op := newService(t)
	in := sale.CloseSaleInput{
		Payments:   []entity.Payment{{TenderCode: "01", Amount: dec("100")}},
		Adjustment: dec("-10"),
	}

	res, err := svc.Close(context.Background(), v.ID, op.ID, in)
	require.NoError(t, err)
	assert.True(t, res.Gross.Equal(dec("100")), "sin bruto en la entrada se usa el de la venta")
	assert.True(t, res.Net.Equal(dec("90")))
	require.Len(t, f.archiver.docs, 1)
	assert.True(t, f.archiver.docs[0].Change.Equal(dec("10")), "troco = pagos - líquido")
	assert.Equal(t, 3, f.archiver.docs[0].Register.Number)
	assert.Equal(t, "maria", f.archiver.docs[0].Operator.Login)
}

func TestService_VentaInexistente(t *testing.T) {
	svc, _, _, op := newService(t)
	_, err := svc.Close(context.Background(), 9999, op.ID, input())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_OperadorInexistente(t *testing.T) {
	svc, _, v, _ := newService(t)
	_, err := svc.Close(context.Background(), v.ID, 9999, input())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestService_EntradaInvalidaNoTocaElECF(t *testing.T) {
	svc, f, v, op := newService(t)
	in := input()
	in.Payments[0].Amount = dec("10") // 10 + 40 < 90

	_, err := svc.Close(context.Background(), v.ID, op.ID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.device.calls, "la validación ocurre antes de tomar el TEF")
	assert.Equal(t, 0, f.lock.acquires)
}

func TestService_DocumentoDelClienteInvalido(t *testing.T) {
	st := memory.NewStore()
	_, err := st.SeedDemo(context.Background(), "maria", "segredo")
	require.NoError(t, err)
	op, err := st.Users().GetByLogin(context.Background(), "maria")
	require.NoError(t, err)
	v := st.AddSale(entity.Sale{
		Gross:    dec("100"),
		Operator: *op,
		Customer: &entity.Customer{ID: 50, Document: "12345678900"},
	})
	f := newFixture(0)
	svc := sale.NewService(st.Sales(), st.Users(), f.uc, entity.Register{Number: 3})

	_, err = svc.Close(context.Background(), v.ID, op.ID, input())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.device.calls, "el cupón no se toca con un CPF inválido")
}

func TestValidateInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*sale.CloseSaleInput)
		ok     bool
	}{
		{"válido", func(*sale.CloseSaleInput) {}, true},
		{"sin pagos", func(in *sale.CloseSaleInput) { in.Payments = nil }, false},
		{"pago sin código", func(in *sale.CloseSaleInput) { in.Payments[0].TenderCode = " " }, false},
		{"pago en cero", func(in *sale.CloseSaleInput) {
			in.Payments = append(in.Payments, entity.Payment{TenderCode: "05", Amount: dec("0")})
		}, true},
		{"pago negativo", func(in *sale.CloseSaleInput) { in.Payments[0].Amount = dec("-1") }, false},
		{"bruto en cero", func(in *sale.CloseSaleInput) { in.Gross = dec("0") }, false},
		{"desconto mayor que bruto", func(in *sale.CloseSaleInput) { in.Adjustment = dec("-101") }, false},
		{"troco negativo", func(in *sale.CloseSaleInput) { in.Change = dec("-1") }, false},
		{"acréscimo cubierto", func(in *sale.CloseSaleInput) {
			in.Adjustment = dec("5")
			in.Payments = append(in.Payments, entity.Payment{TenderCode: "01", Amount: dec("15")})
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := input()
			tc.mutate(&in)
			err := sale.ValidateInput(in)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
