// Package cli adaptadores de terminal para la caja: pregunta de reintento al
// operador, indicador de espera y limpieza de pantalla.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

var _ sale.Confirmer = (*TerminalConfirmer)(nil)

// ErrNoAnswer la entrada terminó sin una respuesta válida.
var ErrNoAnswer = errors.New("cli: sin respuesta del operador")

type line struct {
	text string
	err  error
}

// TerminalConfirmer pregunta SIM/NÃO en la terminal y bloquea hasta una respuesta válida.
type TerminalConfirmer struct {
	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	pending chan line // lectura en curso que sobrevivió a un contexto cancelado
}

// NewTerminalConfirmer lee respuestas de in y escribe las preguntas en out.
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm repite la pregunta hasta leer S/SIM o N/NÃO (sin distinguir mayúsculas ni acentos).
func (t *TerminalConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		fmt.Fprintf(t.out, "%s [S/N]: ", question)
		ans, err := t.readLine(ctx)
		if err != nil {
			fmt.Fprintln(t.out)
			return false, err
		}
		switch strings.ToUpper(ecf.FoldAccents(strings.TrimSpace(ans))) {
		case "S", "SIM", "Y", "YES":
			return true, nil
		case "N", "NAO", "NO":
			return false, nil
		}
		fmt.Fprintln(t.out, "Responda S (sim) ou N (não).")
	}
}

// readLine respeta la cancelación del contexto mientras espera la entrada.
// Nunca hay más de una lectura en curso sobre in.
func (t *TerminalConfirmer) readLine(ctx context.Context) (string, error) {
	ch := t.pending
	if ch == nil {
		ch = make(chan line, 1)
		go func() {
			s, err := t.in.ReadString('\n')
			if err == io.EOF && s != "" {
				err = nil
			}
			ch <- line{text: s, err: err}
		}()
	}
	select {
	case <-ctx.Done():
		t.pending = ch
		return "", ctx.Err()
	case l := <-ch:
		t.pending = nil
		if errors.Is(l.err, io.EOF) {
			return "", ErrNoAnswer
		}
		return l.text, l.err
	}
}
