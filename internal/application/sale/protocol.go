package sale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/domain"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
	"github.com/jhoicas/pdv-cierre/pkg/logger"
)

// protocolInput datos de un cierre ya consolidados.
type protocolInput struct {
	session    Session
	tenders    []closing.TenderTotal
	gross      decimal.Decimal
	adjustment decimal.Decimal
}

// protocolResult lo que el ECF devolvió en el cierre.
type protocolResult struct {
	grandTotal string
	attempts   int
	history    []closing.State
}

// fiscalProtocol conduce el ECF por subtotal → pagos → cierre → GT.
// Un fallo en los tres primeros pasos libera el TEF, consulta al operador,
// vuelve a tomar el TEF y, si confirma, reinicia desde el subtotal.
type fiscalProtocol struct {
	device     FiscalDevice
	audit      AuditStore
	guard      *terminalGuard
	confirmer  Confirmer
	layout     closing.Layout
	maxRetries int // 0 = sin límite
	metrics    Metrics
	log        *logger.Logger
}

func (p *fiscalProtocol) run(ctx context.Context, in protocolInput) (protocolResult, error) {
	m := closing.NewMachine()
	res := protocolResult{}

	for {
		res.attempts++
		err := p.attempt(ctx, m, in, res.attempts)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrInvalidTransition) {
			res.history = m.History()
			return res, err
		}
		_ = m.Move(closing.StateFailed)
		p.log.Warn().Err(err).Int("attempt", res.attempts).Msg("cierre: el ECF no respondió")

		retry, promptErr := p.askRetry(ctx, res.attempts)
		if promptErr != nil || !retry {
			_ = m.Move(closing.StateAborted)
			res.history = m.History()
			if promptErr != nil {
				return res, domain.NewClosingFailed(errors.Join(err, promptErr))
			}
			return res, domain.NewClosingFailed(err)
		}
		p.metrics.RetryRequested()
		if err := m.Move(closing.StateSubtotalizing); err != nil {
			res.history = m.History()
			return res, err
		}
	}

	// ═══════════════════════════════════════════════════════════════════════
	// Grande total: solo tras un cierre exitoso, nunca se reintenta
	// ═══════════════════════════════════════════════════════════════════════
	if err := m.Move(closing.StateQueryingGrandTotal); err != nil {
		res.history = m.History()
		return res, err
	}
	gt, err := p.syncGrandTotal(ctx)
	if err != nil {
		_ = m.Move(closing.StateAborted)
		res.history = m.History()
		p.log.Error().Err(err).Msg("cierre: cupón cerrado pero el GT no se actualizó")
		return res, err
	}
	res.grandTotal = gt
	_ = m.Move(closing.StateDone)
	res.history = m.History()
	return res, nil
}

// attempt ejecuta subtotal, pagos y cierre del cupón una vez.
func (p *fiscalProtocol) attempt(ctx context.Context, m *closing.Machine, in protocolInput, n int) error {
	if m.State() == closing.StateIdle {
		if err := m.Move(closing.StateSubtotalizing); err != nil {
			return err
		}
	}

	// 1. Subtotal con acréscimo/desconto y mensaje promocional
	msg := closing.BuildSubtotalMessage(p.messageInput(in), p.layout)
	if err := p.send(ctx, domain.StepSubtotal, n, ecf.CmdSubtotalizaCupom, ecf.FormatAmount(in.adjustment), msg); err != nil {
		return err
	}

	// 2. Pagos consolidados, en orden estable
	if err := m.Move(closing.StatePayingTenders); err != nil {
		return err
	}
	for _, t := range in.tenders {
		if err := p.send(ctx, domain.StepPayment, n, ecf.CmdEfetuaPagamento, t.Code, ecf.FormatAmount(t.Amount)); err != nil {
			return err
		}
	}

	// 3. Cierre del cupón
	if err := m.Move(closing.StateClosingDocument); err != nil {
		return err
	}
	return p.send(ctx, domain.StepClose, n, ecf.CmdFechaCupom)
}

// send envía una orden y traduce error de transporte o marcador ERRO a DeviceCommunicationError.
func (p *fiscalProtocol) send(ctx context.Context, step string, attempt int, cmd ecf.Command, args ...string) error {
	start := time.Now()
	resp, err := p.device.Send(ctx, cmd, args...)
	p.metrics.StepObserved(step, time.Since(start))
	if err != nil {
		return domain.NewDeviceError(step, "", err)
	}
	if !resp.OK() {
		p.log.Error().Str("step", step).Int("attempt", attempt).Str("ecf", resp.Payload).Msg("Erro ao fechar a venda")
		return domain.NewDeviceError(step, resp.Payload, nil)
	}
	p.log.Debug().Str("step", step).Int("attempt", attempt).Msg("ECF ok")
	return nil
}

// askRetry libera el TEF, pregunta al operador y vuelve a tomar el TEF sea cual sea la respuesta.
// Con maxRetries configurado y agotado, falla sin preguntar.
func (p *fiscalProtocol) askRetry(ctx context.Context, attempt int) (bool, error) {
	if p.maxRetries > 0 && attempt > p.maxRetries {
		p.log.Warn().Int("max_retries", p.maxRetries).Msg("cierre: límite de reintentos alcanzado")
		return false, nil
	}
	if err := p.guard.release(ctx); err != nil {
		p.log.Error().Err(err).Msg("cierre: no se pudo liberar el TEF antes de preguntar")
	}
	retry, confirmErr := p.confirmer.Confirm(ctx, RetryQuestion)
	if err := p.guard.acquire(ctx); err != nil {
		return false, fmt.Errorf("retomar TEF: %w", errors.Join(err, confirmErr))
	}
	if confirmErr != nil {
		return false, fmt.Errorf("confirmación: %w", confirmErr)
	}
	return retry, nil
}

// syncGrandTotal lee el GT del ECF, lo guarda en el archivo auxiliar y lo sella.
func (p *fiscalProtocol) syncGrandTotal(ctx context.Context) (string, error) {
	start := time.Now()
	resp, err := p.device.Send(ctx, ecf.CmdGrandeTotal)
	p.metrics.StepObserved(domain.StepGrandTotal, time.Since(start))
	if err != nil {
		return "", domain.NewGrandTotalSyncError("", err)
	}
	if !resp.OK() {
		return "", domain.NewGrandTotalSyncError(resp.Payload, nil)
	}
	if err := p.audit.Set(ecf.KeyGrandTotal, resp.Payload); err != nil {
		return "", domain.NewGrandTotalSyncError("", err)
	}
	if err := p.audit.Seal(ctx); err != nil {
		return "", domain.NewGrandTotalSyncError("", err)
	}
	return resp.Payload, nil
}

func (p *fiscalProtocol) messageInput(in protocolInput) closing.MessageInput {
	sale := in.session.Sale
	mi := closing.MessageInput{
		Authenticated:    p.audit.Get(ecf.KeyAuthenticated),
		OperatorLogin:    in.session.Operator.Login,
		Customer:         sale.Customer,
		CustomerDeclared: sale.CustomerDeclared,
		MinasLegal:       strings.EqualFold(p.audit.Get(ecf.KeyMinasLegal), ecf.FlagOn),
		CupomMania:       strings.EqualFold(p.audit.Get(ecf.KeyCupomMania), ecf.FlagOn),
		CompanyCNPJ:      p.audit.Get(ecf.KeyCompanyCNPJ),
		CompanyIE:        p.audit.Get(ecf.KeyCompanyIE),
		SaleDate:         sale.Date,
		Net:              in.gross.Add(in.adjustment),
		COO:              sale.COO,
		Register:         in.session.Register.Number,
	}
	if sale.Seller != nil {
		mi.SellerLogin = sale.Seller.Login
	}
	return mi
}
