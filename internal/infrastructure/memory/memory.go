// Package memory almacén en memoria para modo dev y tests: ventas, usuarios,
// stock y el ejecutor del lote de cierre.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/internal/domain/repository"
)

var (
	_ sale.BatchExecutor        = (*Store)(nil)
	_ repository.SaleRepository = (*SaleRepo)(nil)
	_ repository.UserRepository = (*UserRepo)(nil)
)

// Store estado compartido. Todas las lecturas devuelven copias.
type Store struct {
	mu       sync.RWMutex
	sales    map[int64]*entity.Sale
	products map[int64]*entity.Product
	users    map[int64]*entity.User
	nextID   int64
	applied  int // lotes aplicados
	failNext error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		sales:    map[int64]*entity.Sale{},
		products: map[int64]*entity.Product{},
		users:    map[int64]*entity.User{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddProduct registra un producto; asigna ID si viene en cero.
func (s *Store) AddProduct(p entity.Product) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	cp := p
	s.products[p.ID] = &cp
	return p
}

// AddSale registra una venta abierta; asigna IDs a la venta y a sus líneas si vienen en cero.
func (s *Store) AddSale(v entity.Sale) *entity.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.id()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	for i := range v.Items {
		if v.Items[i].ID == 0 {
			v.Items[i].ID = s.id()
		}
		v.Items[i].SaleID = v.ID
		if _, ok := s.products[v.Items[i].Product.ID]; !ok {
			p := v.Items[i].Product
			s.products[p.ID] = &p
		}
	}
	stored := copySale(&v)
	s.sales[v.ID] = stored
	return copySale(stored)
}

// Stock stock actual de un producto.
func (s *Store) Stock(productID int64) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return decimal.Zero
}

// Applied cantidad de lotes aplicados con éxito.
func (s *Store) Applied() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}

// FailNextApply hace fallar el próximo Apply (tests).
func (s *Store) FailNextApply(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Apply valida que todos los destinos existan y recién entonces aplica el lote completo.
func (s *Store) Apply(_ context.Context, intents []closing.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	for i, in := range intents {
		if err := s.check(in); err != nil {
			return fmt.Errorf("intent %d (%s): %w", i, in.Kind(), err)
		}
	}
	for _, in := range intents {
		s.apply(in)
	}
	s.applied++
	return nil
}

func (s *Store) check(in closing.Intent) error {
	switch v := in.(type) {
	case closing.UpdateSaleHeader:
		sl, ok := s.sales[v.SaleID]
		if !ok {
			return domain.ErrNotFound
		}
		if sl.Closed {
			return domain.ErrSaleAlreadyClosed
		}
	case closing.UpdateLineItem:
		if s.findItem(v.ItemID) == nil {
			return domain.ErrNotFound
		}
	case closing.AdjustStock:
		if _, ok := s.products[v.ProductID]; !ok {
			return domain.ErrNotFound
		}
	default:
		return fmt.Errorf("%w: intent desconocido %T", domain.ErrInvalidInput, in)
	}
	return nil
}

func (s *Store) apply(in closing.Intent) {
	switch v := in.(type) {
	case closing.UpdateSaleHeader:
		sl := s.sales[v.SaleID]
		sl.Gross = v.Gross
		sl.Net = v.Net
		sl.Closed = v.Closed
		sl.Adjustment = signed(v.Field, v.Amount)
	case closing.UpdateLineItem:
		it := s.findItem(v.ItemID)
		it.Adjustment = signed(v.Field, v.Amount)
		it.NetUnit = v.NetUnit
		it.Total = v.Total
	case closing.AdjustStock:
		p := s.products[v.ProductID]
		p.Stock = p.Stock.Add(v.Delta)
	}
}

func (s *Store) findItem(id int64) *entity.SaleLineItem {
	for _, sl := range s.sales {
		for i := range sl.Items {
			if sl.Items[i].ID == id {
				return &sl.Items[i]
			}
		}
	}
	return nil
}

func signed(f closing.AdjustmentField, amount decimal.Decimal) decimal.Decimal {
	if f == closing.FieldDiscount {
		return amount.Neg()
	}
	return amount
}

func copySale(v *entity.Sale) *entity.Sale {
	cp := *v
	cp.Items = append([]entity.SaleLineItem(nil), v.Items...)
	if v.Customer != nil {
		c := *v.Customer
		cp.Customer = &c
	}
	if v.Seller != nil {
		u := *v.Seller
		cp.Seller = &u
	}
	return &cp
}

// ──────────────────────────────────────────────────────────────────────────────
// Vistas de repositorio
// ──────────────────────────────────────────────────────────────────────────────

// SaleRepo vista de ventas del Store.
type SaleRepo struct{ s *Store }

// Sales devuelve la vista de ventas.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

// GetByID devuelve una copia con el stock vigente de cada producto; nil, nil si no existe.
func (r *SaleRepo) GetByID(_ context.Context, id int64) (*entity.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.sales[id]
	if !ok {
		return nil, nil
	}
	cp := copySale(v)
	for i := range cp.Items {
		if p, ok := r.s.products[cp.Items[i].Product.ID]; ok {
			cp.Items[i].Product.Stock = p.Stock
		}
	}
	return cp, nil
}

// UserRepo vista de usuarios del Store.
type UserRepo struct{ s *Store }

// Users devuelve la vista de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Login == u.Login {
			return domain.ErrLoginAlreadyExists
		}
	}
	u.ID = r.s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *UserRepo) GetByLogin(_ context.Context, login string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Login == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Datos de demostración
// ──────────────────────────────────────────────────────────────────────────────

// SeedDemo carga un operador y una venta abierta de 100,00 con dos líneas,
// una de ellas vendida en caja de 12 con stock en unidades.
func (s *Store) SeedDemo(ctx context.Context, login, password string) (*entity.Sale, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash contraseña demo: %w", err)
	}
	operator := &entity.User{Login: login, PasswordHash: string(hash), Name: "Operador demo", Role: entity.RoleOperador, Active: true}
	if err := s.Users().Create(ctx, operator); err != nil {
		return nil, err
	}

	un := entity.PackagingUnit{ID: 1, Name: "UN", Factor: decimal.NewFromInt(1)}
	cx := entity.PackagingUnit{ID: 2, Name: "CX12", Factor: decimal.NewFromInt(12)}
	cafe := s.AddProduct(entity.Product{Name: "CAFE 500G", Stock: decimal.NewFromInt(50), Packaging: un})
	agua := s.AddProduct(entity.Product{Name: "AGUA MINERAL 500ML", Stock: decimal.NewFromInt(240), Packaging: un})

	return s.AddSale(entity.Sale{
		Date:     time.Now(),
		COO:      1,
		Gross:    decimal.NewFromInt(100),
		Operator: *operator,
		Items: []entity.SaleLineItem{
			{Quantity: decimal.NewFromInt(2), GrossUnit: decimal.NewFromInt(20), Packaging: un, Product: cafe},
			{Quantity: decimal.NewFromInt(1), GrossUnit: decimal.NewFromInt(60), Packaging: cx, Product: agua},
		},
	}), nil
}
