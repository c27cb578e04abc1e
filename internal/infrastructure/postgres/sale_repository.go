package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo lectura y alta de ventas sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetByID carga la venta con operador, vendedor, cliente y líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	query := `
		SELECT s.id, s.sale_date, s.coo, s.gross, s.surcharge - s.discount, s.net, s.closed,
		       s.customer_declared, s.created_at,
		       o.id, o.login, o.name, o.role,
		       v.id, v.login, v.name,
		       c.id, c.document, c.name, c.address
		FROM sales s
		JOIN users o ON o.id = s.operator_id
		LEFT JOIN users v ON v.id = s.seller_id
		LEFT JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1`
	var (
		s                          entity.Sale
		sellerID, customerID       *int64
		sellerLogin, sellerName    *string
		custDoc, custName, custAdr *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Date, &s.COO, &s.Gross, &s.Adjustment, &s.Net, &s.Closed,
		&s.CustomerDeclared, &s.CreatedAt,
		&s.Operator.ID, &s.Operator.Login, &s.Operator.Name, &s.Operator.Role,
		&sellerID, &sellerLogin, &sellerName,
		&customerID, &custDoc, &custName, &custAdr,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if sellerID != nil {
		s.Seller = &entity.User{ID: *sellerID, Login: deref(sellerLogin), Name: deref(sellerName)}
	}
	if customerID != nil {
		s.Customer = &entity.Customer{
			ID:       *customerID,
			Document: deref(custDoc),
			Name:     deref(custName),
			Address:  deref(custAdr),
		}
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

func (r *SaleRepo) items(ctx context.Context, saleID int64) ([]entity.SaleLineItem, error) {
	query := `
		SELECT i.id, i.sale_id, i.quantity, i.cancelled, i.gross_unit, i.surcharge - i.discount,
		       i.net_unit, i.total,
		       pe.id, pe.name, pe.factor,
		       p.id, p.name, p.stock,
		       ne.id, ne.name, ne.factor
		FROM sale_items i
		JOIN products p ON p.id = i.product_id
		JOIN packaging_units pe ON pe.id = i.packaging_id
		JOIN packaging_units ne ON ne.id = p.packaging_id
		WHERE i.sale_id = $1
		ORDER BY i.id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	var list []entity.SaleLineItem
	for rows.Next() {
		var it entity.SaleLineItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.Quantity, &it.Cancelled, &it.GrossUnit, &it.Adjustment,
			&it.NetUnit, &it.Total,
			&it.Packaging.ID, &it.Packaging.Name, &it.Packaging.Factor,
			&it.Product.ID, &it.Product.Name, &it.Product.Stock,
			&it.Product.Packaging.ID, &it.Product.Packaging.Name, &it.Product.Packaging.Factor,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// Create inserta una venta abierta con sus líneas. Completa los IDs generados.
// Pensado para usarse dentro de TxRunner.Run.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (sale_date, coo, gross, net, operator_id, seller_id, customer_id, customer_declared)
		VALUES ($1, $2, $3, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	if err := r.q.QueryRow(ctx, query,
		s.Date, s.COO, s.Gross, s.Operator.ID, s.SellerID(), s.CustomerID(), s.CustomerDeclared,
	).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (sale_id, product_id, packaging_id, quantity, cancelled, gross_unit, net_unit, total)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		RETURNING id`
	for i := range s.Items {
		it := &s.Items[i]
		it.SaleID = s.ID
		total := it.GrossUnit.Mul(it.Quantity)
		if err := r.q.QueryRow(ctx, itemQuery,
			s.ID, it.Product.ID, it.Packaging.ID, it.Quantity, it.Cancelled, it.GrossUnit, total,
		).Scan(&it.ID); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
		it.NetUnit = it.GrossUnit
		it.Total = total
		it.Adjustment = decimal.Zero
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
