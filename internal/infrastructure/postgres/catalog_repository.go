package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// CatalogRepo embalajes, productos y clientes. Lo usa la carga inicial (cmd/seed).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// CreatePackaging inserta un embalaje y completa su ID.
func (r *CatalogRepo) CreatePackaging(ctx context.Context, p *entity.PackagingUnit) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO packaging_units (name, factor) VALUES ($1, $2) RETURNING id`,
		p.Name, p.Factor,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert packaging: %w", err)
	}
	return nil
}

// CreateProduct inserta un producto con su embalaje nativo ya creado.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *entity.Product) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO products (name, stock, packaging_id) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.Stock, p.Packaging.ID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// CreateCustomer inserta un cliente.
func (r *CatalogRepo) CreateCustomer(ctx context.Context, c *entity.Customer) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO customers (document, name, address) VALUES ($1, $2, $3) RETURNING id`,
		c.Document, c.Name, c.Address,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// Stock devuelve el stock actual de un producto.
func (r *CatalogRepo) Stock(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("get stock: %w", err)
	}
	return stock, nil
}
