package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

// FiscalDevice puerto hacia el driver del ECF. Cada llamada es un intercambio
// petición/respuesta bloqueante; el timeout lo impone el driver.
type FiscalDevice interface {
	Send(ctx context.Context, cmd ecf.Command, args ...string) (ecf.Response, error)
}

// TerminalLock bloqueo exclusivo del TEF. Release sin Acquire previo no debe fallar.
type TerminalLock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// SaleReader lectura de la venta por ID; nil, nil si no existe.
type SaleReader interface {
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
}

// Confirmer pregunta sí/no al operador y bloquea hasta obtener respuesta.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// AuditStore archivo auxiliar del PAF (propiedades cifradas).
// Get devuelve "" si la clave no existe; Seal cifra y persiste tras cualquier Set.
type AuditStore interface {
	Get(key string) string
	Set(key, value string) error
	Seal(ctx context.Context) error
}

// BatchExecutor aplica el lote de intents como una unidad.
type BatchExecutor interface {
	Apply(ctx context.Context, intents []closing.Intent) error
}

// DocumentArchiver guarda el documento de la venta cerrada (tipo "RV").
type DocumentArchiver interface {
	Archive(ctx context.Context, doc ClosedSale) error
}

// SlipPrinter imprime los comprobantes de tarjeta de la venta.
type SlipPrinter interface {
	PrintSlips(ctx context.Context, doc ClosedSale) error
}

// SaleScreen deja la pantalla de venta lista para la siguiente.
type SaleScreen interface {
	Reset(ctx context.Context) error
}

// WaitIndicator indicador de "aguarde" mostrado mientras dura el cierre.
type WaitIndicator interface {
	Show(message string)
	Hide()
}

// Metrics observación del cierre.
type Metrics interface {
	ClosingFinished(result string)
	RetryRequested()
	StepObserved(step string, elapsed time.Duration)
}

// Session venta en curso en la caja, con el operador y la impresora.
type Session struct {
	Sale     *entity.Sale
	Operator entity.User
	Register entity.Register
}

// ClosedSale venta cerrada entregada a los colaboradores posteriores al cierre.
type ClosedSale struct {
	ClosingID  string
	Sale       *entity.Sale
	Operator   entity.User
	Register   entity.Register
	Payments   []entity.Payment
	Tenders    []closing.TenderTotal
	Change     decimal.Decimal
	GrandTotal string
	ClosedAt   time.Time
}

type nopWait struct{}

func (nopWait) Show(string) {}
func (nopWait) Hide()       {}

type nopMetrics struct{}

func (nopMetrics) ClosingFinished(string)             {}
func (nopMetrics) RetryRequested()                    {}
func (nopMetrics) StepObserved(string, time.Duration) {}
