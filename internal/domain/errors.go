package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInvalidCredentials = errors.New("login o contraseña inválidos")
	ErrLoginAlreadyExists = errors.New("el login ya está registrado")
	ErrSaleAlreadyClosed  = errors.New("la venta ya está cerrada")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
)

// Errores del cierre de venta. Se comparan con errors.Is contra un *ClosingError.
var (
	ErrDeviceCommunication = errors.New("falla de comunicación con el ECF")
	ErrClosingFailed       = errors.New("no se pudo cerrar la venta en el ECF")
	ErrGrandTotalSync      = errors.New("cupón cerrado pero el GT no se actualizó")
	ErrPersistence         = errors.New("cupón cerrado pero la venta no se guardó")
)

// ClosingKind clasifica un error del cierre.
type ClosingKind string

const (
	KindDevice         ClosingKind = "device"
	KindClosingFailed  ClosingKind = "closing_failed"
	KindGrandTotalSync ClosingKind = "grand_total_sync"
	KindPersistence    ClosingKind = "persistence"
)

// Pasos del cierre reportados en ClosingError.Step.
const (
	StepSubtotal    = "subtotal"
	StepPayment     = "payment"
	StepClose       = "close"
	StepGrandTotal  = "grand_total"
	StepPersistence = "persistence"
)

// ClosingError error tipado del cierre: tipo, paso del protocolo y causa.
type ClosingError struct {
	Kind    ClosingKind
	Step    string
	Message string // mensaje reportado por el equipo, si existe
	Err     error
}

func (e *ClosingError) Error() string {
	msg := e.sentinel().Error()
	if e.Step != "" {
		msg += " [" + e.Step + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClosingError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, domain.ErrGrandTotalSync) y similares.
func (e *ClosingError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ClosingError) sentinel() error {
	switch e.Kind {
	case KindDevice:
		return ErrDeviceCommunication
	case KindClosingFailed:
		return ErrClosingFailed
	case KindGrandTotalSync:
		return ErrGrandTotalSync
	case KindPersistence:
		return ErrPersistence
	}
	return fmt.Errorf("cierre: %s", e.Kind)
}

// NewDeviceError falla recuperable en subtotal, pago o cierre del cupón.
func NewDeviceError(step, message string, cause error) *ClosingError {
	return &ClosingError{Kind: KindDevice, Step: step, Message: message, Err: cause}
}

// NewClosingFailed falla definitiva tras rechazar el reintento.
func NewClosingFailed(cause error) *ClosingError {
	return &ClosingError{Kind: KindClosingFailed, Err: cause}
}

// NewGrandTotalSyncError el cupón se cerró pero el GT no se leyó o no se guardó.
func NewGrandTotalSyncError(message string, cause error) *ClosingError {
	return &ClosingError{Kind: KindGrandTotalSync, Step: StepGrandTotal, Message: message, Err: cause}
}

// NewPersistenceError el lote de persistencia falló después del cierre fiscal.
func NewPersistenceError(cause error) *ClosingError {
	return &ClosingError{Kind: KindPersistence, Step: StepPersistence, Err: cause}
}

// KindOf devuelve el tipo del primer *ClosingError de la cadena, o "" si no hay.
func KindOf(err error) ClosingKind {
	var ce *ClosingError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
