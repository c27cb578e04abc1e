package sale

import (
	"context"
	"sync"
)

// RetryQuestion pregunta hecha al operador cuando el ECF falla.
const RetryQuestion = "Impressora não responde, tentar novamente?"

// ConfirmerFunc adapta una función a Confirmer.
type ConfirmerFunc func(ctx context.Context, question string) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// PolicyConfirmer responde "sí" las primeras Attempts veces y "no" después.
// Se usa cuando no hay operador frente a la caja (API HTTP).
type PolicyConfirmer struct {
	mu       sync.Mutex
	attempts int
	asked    int
}

// NewPolicyConfirmer crea la política con el número de reintentos aceptados.
func NewPolicyConfirmer(attempts int) *PolicyConfirmer {
	if attempts < 0 {
		attempts = 0
	}
	return &PolicyConfirmer{attempts: attempts}
}

func (p *PolicyConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked++
	return p.asked <= p.attempts, nil
}

// Asked cantidad de preguntas respondidas.
func (p *PolicyConfirmer) Asked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asked
}
