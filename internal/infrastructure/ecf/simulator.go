// Package ecf adaptadores del puerto FiscalDevice: simulador para modo dev y
// cliente TCP del monitor del driver para equipos reales.
package ecf

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

var _ sale.FiscalDevice = (*Simulator)(nil)

type scripted struct {
	resp ecf.Response
	err  error
}

// Simulator ECF en memoria. Lleva el estado del cupón (subtotal, pagos, cierre),
// acumula el GT e imprime la bobina en ISO-8859-1 si se le da un writer.
// Se le pueden programar respuestas para las próximas órdenes de un comando.
type Simulator struct {
	mu      sync.Mutex
	log     *logger.Logger
	roll    io.Writer
	latency time.Duration

	script map[ecf.Command][]scripted
	calls  []ecf.Command

	gross      *decimal.Decimal
	subtotal   bool
	adjustment decimal.Decimal
	paid       decimal.Decimal
	grandTotal decimal.Decimal
	coo        int
}

// SimulatorOption configura el simulador.
type SimulatorOption func(*Simulator)

// WithRoll escribe la bobina simulada en w.
func WithRoll(w io.Writer) SimulatorOption { return func(s *Simulator) { s.roll = w } }

// WithLatency demora cada orden; respeta la cancelación del contexto.
func WithLatency(d time.Duration) SimulatorOption { return func(s *Simulator) { s.latency = d } }

// WithGrandTotal valor inicial del GT.
func WithGrandTotal(gt decimal.Decimal) SimulatorOption {
	return func(s *Simulator) { s.grandTotal = gt }
}

// NewSimulator crea el simulador.
func NewSimulator(log *logger.Logger, opts ...SimulatorOption) *Simulator {
	if log == nil {
		log = logger.Nop()
	}
	s := &Simulator{log: log, script: map[ecf.Command][]scripted{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fail programa una respuesta de error del equipo para la próxima orden cmd.
func (s *Simulator) Fail(cmd ecf.Command, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[cmd] = append(s.script[cmd], scripted{resp: ecf.Erro(message)})
}

// Disconnect programa un error de transporte para la próxima orden cmd.
func (s *Simulator) Disconnect(cmd ecf.Command, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[cmd] = append(s.script[cmd], scripted{err: err})
}

// Open abre un cupón con el bruto indicado. Sin cupón abierto el simulador
// no puede validar que los pagos cubran el líquido.
func (s *Simulator) Open(gross decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gross = &gross
	s.resetCoupon()
}

// Calls órdenes recibidas, en orden.
func (s *Simulator) Calls() []ecf.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ecf.Command(nil), s.calls...)
}

// GrandTotal GT acumulado.
func (s *Simulator) GrandTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grandTotal
}

// Send ejecuta una orden.
func (s *Simulator) Send(ctx context.Context, cmd ecf.Command, args ...string) (ecf.Response, error) {
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return ecf.Response{}, fmt.Errorf("ecf simulado %s: %w", cmd, ctx.Err())
		case <-time.After(s.latency):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cmd)
	if q := s.script[cmd]; len(q) > 0 {
		s.script[cmd] = q[1:]
		s.log.Debug().Str("cmd", string(cmd)).Msg("[ECF-SIM] respuesta programada")
		return q[0].resp, q[0].err
	}

	switch cmd {
	case ecf.CmdSubtotalizaCupom:
		return s.subtotalize(args)
	case ecf.CmdEfetuaPagamento:
		return s.pay(args)
	case ecf.CmdFechaCupom:
		return s.closeCoupon()
	case ecf.CmdGrandeTotal:
		return ecf.Ok(s.grandTotal.StringFixed(2)), nil
	}
	return ecf.Erro("comando desconhecido: " + string(cmd)), nil
}

// subtotalize acepta volver a subtotalizar: un reintento reinicia el cupón desde aquí.
func (s *Simulator) subtotalize(args []string) (ecf.Response, error) {
	if len(args) < 1 {
		return ecf.Erro("parametros invalidos"), nil
	}
	adj, err := decimal.NewFromString(args[0])
	if err != nil {
		return ecf.Erro("valor invalido: " + args[0]), nil
	}
	s.resetCoupon()
	s.subtotal = true
	s.adjustment = adj
	s.print(fmt.Sprintf("SUBTOTAL  ACRES/DESC %s", ecf.FormatAmount(adj)))
	if len(args) > 1 {
		s.print(args[1])
	}
	return ecf.Ok(""), nil
}

func (s *Simulator) pay(args []string) (ecf.Response, error) {
	if !s.subtotal {
		return ecf.Erro("cupom nao subtotalizado"), nil
	}
	if len(args) < 2 {
		return ecf.Erro("parametros invalidos"), nil
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil || amount.IsNegative() {
		return ecf.Erro("valor invalido: " + args[1]), nil
	}
	s.paid = s.paid.Add(amount)
	s.print(fmt.Sprintf("PAGAMENTO %s  %s", args[0], ecf.FormatAmount(amount)))
	return ecf.Ok(""), nil
}

func (s *Simulator) closeCoupon() (ecf.Response, error) {
	if !s.subtotal {
		return ecf.Erro("cupom nao subtotalizado"), nil
	}
	total := s.paid
	if s.gross != nil {
		net := s.gross.Add(s.adjustment)
		if s.paid.LessThan(net) {
			return ecf.Erro("pagamento insuficiente"), nil
		}
		total = net
	}
	s.grandTotal = s.grandTotal.Add(total)
	s.coo++
	s.print(fmt.Sprintf("COO: %06d  TOTAL %s", s.coo, ecf.FormatAmount(total)))
	s.gross = nil
	s.resetCoupon()
	return ecf.Ok(fmt.Sprintf("%06d", s.coo)), nil
}

func (s *Simulator) resetCoupon() {
	s.subtotal = false
	s.adjustment = decimal.Zero
	s.paid = decimal.Zero
}

func (s *Simulator) print(text string) {
	if s.roll == nil {
		return
	}
	b, err := ecf.EncodeLatin1(text + "\n")
	if err != nil {
		s.log.Warn().Err(err).Msg("[ECF-SIM] codificar bobina")
		return
	}
	_, _ = s.roll.Write(b)
}
