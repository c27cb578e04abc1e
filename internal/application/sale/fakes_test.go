package sale_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pdv-cierre/internal/application/sale"
	"github.com/jhoicas/pdv-cierre/internal/domain/closing"
	"github.com/jhoicas/pdv-cierre/internal/domain/entity"
	"github.com/jhoicas/pdv-cierre/pkg/ecf"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba de los puertos del cierre
// ──────────────────────────────────────────────────────────────────────────────

type deviceCall struct {
	cmd  ecf.Command
	args []string
}

type reply struct {
	resp ecf.Response
	err  error
}

// fakeDevice responde según un guion por comando; sin guion responde OK.
type fakeDevice struct {
	lock       *fakeLock
	script     map[ecf.Command][]reply
	always     map[ecf.Command]reply
	calls      []deviceCall
	unlockedTx int // envíos hechos sin el TEF tomado
}

func newFakeDevice(lock *fakeLock) *fakeDevice {
	return &fakeDevice{
		lock:   lock,
		script: map[ecf.Command][]reply{},
		always: map[ecf.Command]reply{},
	}
}

func (d *fakeDevice) then(cmd ecf.Command, r reply) *fakeDevice {
	d.script[cmd] = append(d.script[cmd], r)
	return d
}

func (d *fakeDevice) Send(_ context.Context, cmd ecf.Command, args ...string) (ecf.Response, error) {
	d.calls = append(d.calls, deviceCall{cmd: cmd, args: args})
	if d.lock != nil && !d.lock.held {
		d.unlockedTx++
	}
	if q := d.script[cmd]; len(q) > 0 {
		d.script[cmd] = q[1:]
		return q[0].resp, q[0].err
	}
	if r, ok := d.always[cmd]; ok {
		return r.resp, r.err
	}
	if cmd == ecf.CmdGrandeTotal {
		return ecf.Ok("000000012345678"), nil
	}
	return ecf.Ok(""), nil
}

func (d *fakeDevice) count(cmd ecf.Command) int {
	n := 0
	for _, c := range d.calls {
		if c.cmd == cmd {
			n++
		}
	}
	return n
}

func (d *fakeDevice) callsOf(cmd ecf.Command) []deviceCall {
	var out []deviceCall
	for _, c := range d.calls {
		if c.cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

type fakeLock struct {
	held     bool
	acquires int
	releases int
	failNext error
}

func (l *fakeLock) Acquire(context.Context) error {
	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil
		return err
	}
	l.acquires++
	l.held = true
	return nil
}

func (l *fakeLock) Release(context.Context) error {
	l.releases++
	l.held = false
	return nil
}

type fakeAudit struct {
	props   map[string]string
	sealed  int
	setErr  error
	sealErr error
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{props: map[string]string{
		ecf.KeyAuthenticated: "d41d8cd98f00b204e9800998ecf8427e",
		ecf.KeyMinasLegal:    "NAO",
		ecf.KeyCupomMania:    "NAO",
	}}
}

func (a *fakeAudit) Get(key string) string { return a.props[key] }

func (a *fakeAudit) Set(key, value string) error {
	if a.setErr != nil {
		return a.setErr
	}
	a.props[key] = value
	return nil
}

func (a *fakeAudit) Seal(context.Context) error {
	if a.sealErr != nil {
		return a.sealErr
	}
	a.sealed++
	return nil
}

type fakeBatch struct {
	batches [][]closing.Intent
	err     error
}

func (b *fakeBatch) Apply(_ context.Context, intents []closing.Intent) error {
	b.batches = append(b.batches, intents)
	return b.err
}

type fakeArchiver struct {
	docs []sale.ClosedSale
	err  error
}

func (a *fakeArchiver) Archive(_ context.Context, doc sale.ClosedSale) error {
	a.docs = append(a.docs, doc)
	return a.err
}

type fakeSlips struct{ docs []sale.ClosedSale }

func (s *fakeSlips) PrintSlips(_ context.Context, doc sale.ClosedSale) error {
	s.docs = append(s.docs, doc)
	return nil
}

type fakeWait struct{ shown, hidden int }

func (w *fakeWait) Show(string) { w.shown++ }
func (w *fakeWait) Hide()       { w.hidden++ }

type fakeMetrics struct {
	mu      sync.Mutex
	results []string
	retries int
	steps   map[string]int
}

func (m *fakeMetrics) ClosingFinished(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *fakeMetrics) RetryRequested() { m.retries++ }

func (m *fakeMetrics) StepObserved(step string, _ time.Duration) {
	if m.steps == nil {
		m.steps = map[string]int{}
	}
	m.steps[step]++
}

// answers confirmador con respuestas fijas; registra si el TEF estaba libre al preguntar.
type answers struct {
	lock       *fakeLock
	replies    []bool
	err        error
	asked      int
	lockedWhen int
}

func (a *answers) Confirm(context.Context, string) (bool, error) {
	a.asked++
	if a.lock != nil && a.lock.held {
		a.lockedWhen++
	}
	if a.err != nil {
		return false, a.err
	}
	if len(a.replies) == 0 {
		return false, nil
	}
	r := a.replies[0]
	a.replies = a.replies[1:]
	return r, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	lock     *fakeLock
	device   *fakeDevice
	audit    *fakeAudit
	batch    *fakeBatch
	archiver *fakeArchiver
	slips    *fakeSlips
	wait     *fakeWait
	metrics  *fakeMetrics
	confirm  *answers
	uc       *sale.CloseSaleUseCase
}

func newFixture(maxRetries int, replies ...bool) *fixture {
	f := &fixture{
		lock:     &fakeLock{},
		audit:    newFakeAudit(),
		batch:    &fakeBatch{},
		archiver: &fakeArchiver{},
		slips:    &fakeSlips{},
		wait:     &fakeWait{},
		metrics:  &fakeMetrics{},
	}
	f.device = newFakeDevice(f.lock)
	f.confirm = &answers{lock: f.lock, replies: replies}
	f.build(maxRetries)
	return f
}

func (f *fixture) build(maxRetries int) {
	f.uc = sale.NewCloseSaleUseCase(sale.Deps{
		Device:     f.device,
		Lock:       f.lock,
		Confirmer:  f.confirm,
		Audit:      f.audit,
		Batch:      f.batch,
		Archiver:   f.archiver,
		Slips:      f.slips,
		Wait:       f.wait,
		Metrics:    f.metrics,
		Layout:     closing.Layout{Columns: 48, LineBreak: "\n"},
		MaxRetries: maxRetries,
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var un = entity.PackagingUnit{ID: 1, Name: "UN", Factor: dec("1")}

// session venta de 100.00 con dos líneas.
func session() sale.Session {
	operator := entity.User{ID: 1, Login: "maria"}
	return sale.Session{
		Operator: operator,
		Register: entity.Register{Number: 1},
		Sale: &entity.Sale{
			ID:       42,
			COO:      1234,
			Date:     time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC),
			Operator: operator,
			Items: []entity.SaleLineItem{
				{ID: 1, SaleID: 42, Quantity: dec("1"), GrossUnit: dec("60"), Packaging: un,
					Product: entity.Product{ID: 100, Packaging: un}},
				{ID: 2, SaleID: 42, Quantity: dec("2"), GrossUnit: dec("20"), Packaging: un,
					Product: entity.Product{ID: 200, Packaging: un}},
			},
		},
	}
}

func input() sale.CloseSaleInput {
	return sale.CloseSaleInput{
		Payments: []entity.Payment{
			{TenderCode: "01", Amount: dec("50")},
			{TenderCode: "03", Amount: dec("40")},
		},
		Gross:      dec("100"),
		Adjustment: dec("-10"),
		Change:     decimal.Zero,
	}
}

var errTransport = errors.New("porta serial não responde")
