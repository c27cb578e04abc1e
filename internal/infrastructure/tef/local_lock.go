// Package tef bloqueo exclusivo del terminal de pagos (TEF), local al proceso
// o distribuido en Redis cuando varias cajas comparten el pinpad.
package tef

import (
	"context"
	"fmt"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
)

var _ sale.TerminalLock = (*LocalLock)(nil)

// LocalLock semáforo binario en memoria.
type LocalLock struct {
	sem chan struct{}
}

// NewLocalLock crea el bloqueo libre.
func NewLocalLock() *LocalLock {
	return &LocalLock{sem: make(chan struct{}, 1)}
}

// Acquire bloquea hasta tomar el TEF o hasta que se cancele el contexto.
func (l *LocalLock) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("esperando el TEF: %w", ctx.Err())
	}
}

// Release libera el TEF. Sin bloqueo tomado no hace nada.
func (l *LocalLock) Release(context.Context) error {
	select {
	case <-l.sem:
	default:
	}
	return nil
}

// Held indica si el TEF está tomado.
func (l *LocalLock) Held() bool {
	return len(l.sem) == 1
}
