package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
)

var _ sale.BatchExecutor = (*BatchExecutor)(nil)

// BatchExecutor aplica los intents del cierre en una sola transacción usando pgx.Batch.
// Cada sentencia filtra por ID; si no afecta ninguna fila el lote completo se revierte.
type BatchExecutor struct {
	tx *TxRunner
}

// NewBatchExecutor construye el ejecutor sobre el TxRunner.
func NewBatchExecutor(tx *TxRunner) *BatchExecutor {
	return &BatchExecutor{tx: tx}
}

// Apply ejecuta el lote completo o nada.
func (e *BatchExecutor) Apply(ctx context.Context, intents []closing.Intent) error {
	if len(intents) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, in := range intents {
		sql, args, err := statementFor(in)
		if err != nil {
			return err
		}
		b.Queue(sql, args...)
	}
	return e.tx.Run(ctx, func(q Querier) error {
		return execBatch(ctx, q, b, intents)
	})
}

func execBatch(ctx context.Context, q Querier, b *pgx.Batch, intents []closing.Intent) (err error) {
	br := q.SendBatch(ctx, b)
	defer func() {
		if cErr := br.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("cerrar batch: %w", cErr)
		}
	}()
	for i, in := range intents {
		tag, execErr := br.Exec()
		if execErr != nil {
			return fmt.Errorf("intent %d (%s): %w", i, in.Kind(), execErr)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("intent %d (%s): %w", i, in.Kind(), missingTarget(in))
		}
	}
	return nil
}

// missingTarget el encabezado solo se actualiza con la venta abierta; sin filas, ya fue cerrada
// (o no existe).
func missingTarget(in closing.Intent) error {
	if _, ok := in.(closing.UpdateSaleHeader); ok {
		return domain.ErrSaleAlreadyClosed
	}
	return domain.ErrNotFound
}

// statementFor traduce un intent a SQL. La columna del ajuste sale de una lista fija.
func statementFor(in closing.Intent) (string, []any, error) {
	switch v := in.(type) {
	case closing.UpdateSaleHeader:
		col, err := adjustmentColumn(v.Field)
		if err != nil {
			return "", nil, err
		}
		return `UPDATE sales SET gross = $2, ` + col + ` = $3, net = $4, closed = $5,
			customer_id = $6, seller_id = $7
			WHERE id = $1 AND closed = false`,
			[]any{v.SaleID, v.Gross, v.Amount, v.Net, v.Closed, v.CustomerID, v.SellerID}, nil
	case closing.UpdateLineItem:
		col, err := adjustmentColumn(v.Field)
		if err != nil {
			return "", nil, err
		}
		return `UPDATE sale_items SET ` + col + ` = $2, net_unit = $3, total = $4 WHERE id = $1`,
			[]any{v.ItemID, v.Amount, v.NetUnit, v.Total}, nil
	case closing.AdjustStock:
		// incremento relativo: nunca se sobrescribe el stock
		return `UPDATE products SET stock = stock + $2 WHERE id = $1`,
			[]any{v.ProductID, v.Delta}, nil
	default:
		return "", nil, fmt.Errorf("%w: intent desconocido %T", domain.ErrInvalidInput, in)
	}
}

func adjustmentColumn(f closing.AdjustmentField) (string, error) {
	switch f {
	case closing.FieldSurcharge:
		return "surcharge", nil
	case closing.FieldDiscount:
		return "discount", nil
	}
	return "", fmt.Errorf("%w: campo de ajuste %q", domain.ErrInvalidInput, f)
}
