package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
)

type unknownIntent struct{ closing.AdjustStock }

func TestStatementFor_CabeceraUsaColumnaSegunSigno(t *testing.T) {
	sql, args, err := statementFor(closing.UpdateSaleHeader{
		SaleID: 1, Field: closing.FieldDiscount, Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "discount = $3")
	assert.NotContains(t, sql, "surcharge")
	assert.Len(t, args, 7)
	assert.Equal(t, int64(1), args[0])

	sql, _, err = statementFor(closing.UpdateLineItem{ItemID: 2, Field: closing.FieldSurcharge})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "UPDATE sale_items SET surcharge = $2"))
}

func TestStatementFor_CabeceraSoloSobreVentaAbierta(t *testing.T) {
	sql, _, err := statementFor(closing.UpdateSaleHeader{SaleID: 1, Field: closing.FieldSurcharge})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE id = $1 AND closed = false", "un segundo cierre no debe reescribir la cabecera")

	assert.ErrorIs(t, missingTarget(closing.UpdateSaleHeader{SaleID: 1}), domain.ErrSaleAlreadyClosed)
	assert.ErrorIs(t, missingTarget(closing.AdjustStock{ProductID: 1}), domain.ErrNotFound)
}

func TestStatementFor_StockEsIncrementoRelativo(t *testing.T) {
	sql, args, err := statementFor(closing.AdjustStock{ProductID: 9, Delta: decimal.NewFromInt(-3)})
	require.NoError(t, err)
	assert.Contains(t, sql, "stock = stock + $2", "nunca se sobrescribe el stock")
	assert.Equal(t, int64(9), args[0])
}

func TestStatementFor_CampoDesconocido(t *testing.T) {
	_, _, err := statementFor(closing.UpdateSaleHeader{Field: "x; DROP TABLE sales"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestStatementFor_IntentDesconocido(t *testing.T) {
	_, _, err := statementFor(unknownIntent{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
