package repository

import (
	"context"

	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
)

// SaleRepository lectura de la venta abierta con sus líneas, productos y embalajes.
// La escritura del cierre va por el BatchExecutor, no por este puerto.
type SaleRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
}
