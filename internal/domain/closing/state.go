package closing

import (
	"fmt"

	"github.com/jhoicas/pdv-cierre/internal/domain"
)

// State estado del protocolo de cierre con el ECF.
type State string

const (
	StateIdle               State = "idle"
	StateSubtotalizing      State = "subtotalizing"
	StatePayingTenders      State = "paying_tenders"
	StateClosingDocument    State = "closing_document"
	StateQueryingGrandTotal State = "querying_grand_total"
	StateDone               State = "done"
	StateFailed             State = "failed"  // falla recuperable, pendiente de la decisión del operador
	StateAborted            State = "aborted" // terminal: reintento rechazado o GT no sincronizado
)

// Terminal indica si no hay transiciones de salida.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// TransitionChart transiciones permitidas por estado.
type TransitionChart map[State][]State

// Allowed indica si from → to está declarada.
func (c TransitionChart) Allowed(from, to State) bool {
	list, exists := c[from]
	if !exists {
		return false
	}
	for _, s := range list {
		if s == to {
			return true
		}
	}
	return false
}

var protocolChart = TransitionChart{
	StateIdle:               {StateSubtotalizing},
	StateSubtotalizing:      {StatePayingTenders, StateFailed},
	StatePayingTenders:      {StateClosingDocument, StateFailed},
	StateClosingDocument:    {StateQueryingGrandTotal, StateFailed},
	StateQueryingGrandTotal: {StateDone, StateAborted},
	StateFailed:             {StateSubtotalizing, StateAborted},
}

// Machine lleva el estado actual y el recorrido de un cierre.
type Machine struct {
	current State
	history []State
}

// NewMachine arranca en Idle.
func NewMachine() *Machine {
	return &Machine{current: StateIdle, history: []State{StateIdle}}
}

// State estado actual.
func (m *Machine) State() State { return m.current }

// History copia de los estados recorridos, en orden.
func (m *Machine) History() []State {
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// Move aplica una transición; si no está en la tabla devuelve ErrInvalidTransition.
func (m *Machine) Move(to State) error {
	if !protocolChart.Allowed(m.current, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, m.current, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}
