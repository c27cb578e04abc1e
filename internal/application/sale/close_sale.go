// Package sale coordina el cierre de una venta en la caja: bloqueo del TEF,
// protocolo con el ECF, persistencia del lote y entrega a archivo e impresión.
package sale

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// Resultados reportados a Metrics.ClosingFinished.
const (
	ResultOK             = "ok"
	ResultClosingFailed  = "closing_failed"
	ResultGrandTotalSync = "grand_total_sync"
	ResultPersistence    = "persistence"
	ResultError          = "error"
)

const waitMessage = "Aguarde, fechando a venda..."

// CloseSaleInput datos del cierre. Se asumen validados por el llamador
// (lista de pagos no vacía, montos consistentes).
type CloseSaleInput struct {
	Payments   []entity.Payment
	Gross      decimal.Decimal
	Adjustment decimal.Decimal // positivo = acréscimo, negativo = desconto
	Change     decimal.Decimal // troco
	Confirmer  Confirmer       // opcional; reemplaza al confirmador por defecto en este cierre
}

// CloseSaleResult resumen del cierre.
type CloseSaleResult struct {
	ClosingID  string
	SaleID     int64
	Gross      decimal.Decimal
	Adjustment decimal.Decimal
	Net        decimal.Decimal
	Tenders    []closing.TenderTotal
	GrandTotal string
	Attempts   int
	States     []closing.State
	Intents    int
	ClosedAt   time.Time
}

// Deps colaboradores del caso de uso. Sales, Archiver, Slips, Screen, Wait y Metrics son opcionales.
type Deps struct {
	Device     FiscalDevice
	Lock       TerminalLock
	Sales      SaleReader // relee la venta con el TEF tomado
	Confirmer  Confirmer
	Audit      AuditStore
	Batch      BatchExecutor
	Archiver   DocumentArchiver
	Slips      SlipPrinter
	Screen     SaleScreen
	Wait       WaitIndicator
	Metrics    Metrics
	Layout     closing.Layout
	MaxRetries int
	Logger     *logger.Logger
}

// CloseSaleUseCase cierra una venta de principio a fin.
type CloseSaleUseCase struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	inFlight map[int64]struct{} // ventas con un cierre en curso en este proceso
}

// NewCloseSaleUseCase construye el caso de uso completando los colaboradores opcionales.
func NewCloseSaleUseCase(deps Deps) *CloseSaleUseCase {
	if deps.Wait == nil {
		deps.Wait = nopWait{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &CloseSaleUseCase{deps: deps, now: time.Now, inFlight: map[int64]struct{}{}}
}

// Execute cierra la venta de la sesión.
//
//	TEF bloqueado → subtotal → pagos → cierre → GT → lote → archivo/comprobantes → TEF liberado
//
// El indicador de espera se oculta y el TEF se libera en toda salida. Si el GT falla
// la venta se persiste igual (el cupón ya está cerrado) y se devuelve el resultado
// junto con el error; si además falla la persistencia, se devuelven ambos errores.
func (uc *CloseSaleUseCase) Execute(ctx context.Context, session Session, in CloseSaleInput) (res *CloseSaleResult, err error) {
	closingID := uuid.NewString()
	uc.deps.Wait.Show(waitMessage)
	defer uc.deps.Wait.Hide()

	if session.Sale == nil {
		return nil, fmt.Errorf("%w: sesión sin venta", domain.ErrInvalidInput)
	}
	if session.Sale.Closed {
		return nil, domain.ErrSaleAlreadyClosed
	}
	sale := session.Sale
	log := uc.deps.Logger.Sub(map[string]any{"sale_id": sale.ID, "closing_id": closingID})
	defer func() { uc.deps.Metrics.ClosingFinished(resultOf(err)) }()

	if !uc.begin(sale.ID) {
		return nil, fmt.Errorf("%w: cierre en curso", domain.ErrSaleAlreadyClosed)
	}
	defer uc.end(sale.ID)

	// la espera por el TEF sí respeta la cancelación del llamador
	guard := newTerminalGuard(uc.deps.Lock)
	if err := guard.acquire(ctx); err != nil {
		return nil, fmt.Errorf("bloqueo del TEF: %w", err)
	}

	// sin cancelación a mitad del protocolo: el contexto solo acota cada llamada al driver
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if rErr := guard.release(ctx); rErr != nil {
			log.Error().Err(rErr).Msg("cierre: no se pudo liberar el TEF")
		}
	}()

	if err := uc.ensureOpen(ctx, sale.ID); err != nil {
		return nil, err
	}

	confirmer := uc.deps.Confirmer
	if in.Confirmer != nil {
		confirmer = in.Confirmer
	}
	proto := &fiscalProtocol{
		device:     uc.deps.Device,
		audit:      uc.deps.Audit,
		guard:      guard,
		confirmer:  confirmer,
		layout:     uc.deps.Layout,
		maxRetries: uc.deps.MaxRetries,
		metrics:    uc.deps.Metrics,
		log:        log,
	}

	tenders := closing.AggregatePayments(in.Payments)
	pres, protoErr := proto.run(ctx, protocolInput{
		session:    session,
		tenders:    tenders,
		gross:      in.Gross,
		adjustment: in.Adjustment,
	})
	if protoErr != nil && !errors.Is(protoErr, domain.ErrGrandTotalSync) {
		return nil, protoErr
	}

	// ═══════════════════════════════════════════════════════════════════════
	// Persistencia: solo después del cierre fiscal
	// ═══════════════════════════════════════════════════════════════════════
	intents := closing.BuildIntents(sale, in.Gross, in.Adjustment)
	if err := uc.deps.Batch.Apply(ctx, intents); err != nil {
		perr := domain.NewPersistenceError(err)
		log.Error().Err(err).Int("intents", len(intents)).Msg("cierre: cupón cerrado en el ECF pero la venta NO se guardó")
		if protoErr != nil {
			return nil, errors.Join(perr, protoErr)
		}
		return nil, perr
	}
	closing.Apportion(in.Adjustment, sale.Items).ApplyTo(sale.Items)
	sale.MarkClosed(in.Gross, in.Adjustment)

	closedAt := uc.now()
	res = &CloseSaleResult{
		ClosingID:  closingID,
		SaleID:     sale.ID,
		Gross:      sale.Gross,
		Adjustment: sale.Adjustment,
		Net:        sale.Net,
		Tenders:    tenders,
		GrandTotal: pres.grandTotal,
		Attempts:   pres.attempts,
		States:     pres.history,
		Intents:    len(intents),
		ClosedAt:   closedAt,
	}

	uc.handOff(ctx, log, ClosedSale{
		ClosingID:  closingID,
		Sale:       sale,
		Operator:   session.Operator,
		Register:   session.Register,
		Payments:   in.Payments,
		Tenders:    tenders,
		Change:     in.Change,
		GrandTotal: pres.grandTotal,
		ClosedAt:   closedAt,
	})

	log.Info().
		Str("net", sale.Net.StringFixed(2)).
		Int("attempts", pres.attempts).
		Str("gt", pres.grandTotal).
		Msg("venta cerrada")
	return res, protoErr
}

// handOff archiva el documento, imprime comprobantes y limpia la pantalla.
// Sus errores se registran y no se devuelven.
func (uc *CloseSaleUseCase) handOff(ctx context.Context, log *logger.Logger, doc ClosedSale) {
	if uc.deps.Archiver != nil {
		if err := uc.deps.Archiver.Archive(ctx, doc); err != nil {
			log.Error().Err(err).Msg("cierre: no se pudo archivar el documento RV")
		}
	}
	if uc.deps.Slips != nil {
		if err := uc.deps.Slips.PrintSlips(ctx, doc); err != nil {
			log.Error().Err(err).Msg("cierre: no se pudieron imprimir los comprobantes TEF")
		}
	}
	if uc.deps.Screen != nil {
		if err := uc.deps.Screen.Reset(ctx); err != nil {
			log.Warn().Err(err).Msg("cierre: no se pudo reiniciar la pantalla")
		}
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrPersistence):
		return ResultPersistence
	case errors.Is(err, domain.ErrGrandTotalSync):
		return ResultGrandTotalSync
	case errors.Is(err, domain.ErrClosingFailed):
		return ResultClosingFailed
	default:
		return ResultError
	}
}

// begin marca la venta como en cierre; false si otro cierre de la misma venta está en curso.
func (uc *CloseSaleUseCase) begin(saleID int64) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, busy := uc.inFlight[saleID]; busy {
		return false
	}
	uc.inFlight[saleID] = struct{}{}
	return true
}

func (uc *CloseSaleUseCase) end(saleID int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inFlight, saleID)
}

// ensureOpen relee la venta con el TEF tomado: otra caja pudo cerrarla mientras se esperaba el bloqueo.
func (uc *CloseSaleUseCase) ensureOpen(ctx context.Context, saleID int64) error {
	if uc.deps.Sales == nil {
		return nil
	}
	current, err := uc.deps.Sales.GetByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("releer venta: %w", err)
	}
	if current == nil {
		return domain.ErrNotFound
	}
	if current.Closed {
		return domain.ErrSaleAlreadyClosed
	}
	return nil
}
