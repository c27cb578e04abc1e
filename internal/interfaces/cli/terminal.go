package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
)

var (
	_ sale.WaitIndicator = (*WaitIndicator)(nil)
	_ sale.SaleScreen    = (*Screen)(nil)
)

// WaitIndicator muestra el aviso de espera y, al ocultarlo, cuánto duró.
type WaitIndicator struct {
	mu    sync.Mutex
	out   io.Writer
	since time.Time
	now   func() time.Time
}

// NewWaitIndicator escribe en out (normalmente stderr).
func NewWaitIndicator(out io.Writer) *WaitIndicator {
	return &WaitIndicator{out: out, now: time.Now}
}

func (w *WaitIndicator) Show(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.since = w.now()
	fmt.Fprintf(w.out, "… %s\n", message)
}

// Hide es idempotente: sin un Show pendiente no escribe nada.
func (w *WaitIndicator) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.since.IsZero() {
		return
	}
	fmt.Fprintf(w.out, "  (%s)\n", w.now().Sub(w.since).Round(10*time.Millisecond))
	w.since = time.Time{}
}

// Screen pantalla de venta de la terminal.
type Screen struct {
	out      io.Writer
	register int
}

// NewScreen construye la pantalla de la caja indicada.
func NewScreen(out io.Writer, register int) *Screen {
	return &Screen{out: out, register: register}
}

// Reset deja la caja lista para la próxima venta.
func (s *Screen) Reset(context.Context) error {
	_, err := fmt.Fprintf(s.out, "%s\nCAIXA %03d LIVRE\n", strings.Repeat("─", 40), s.register)
	return err
}
