package sale

import "context"

// terminalGuard envuelve el TerminalLock y recuerda si el bloqueo está tomado,
// de modo que cada Acquire efectivo tenga exactamente un Release.
type terminalGuard struct {
	lock TerminalLock
	held bool
}

func newTerminalGuard(lock TerminalLock) *terminalGuard {
	return &terminalGuard{lock: lock}
}

func (g *terminalGuard) acquire(ctx context.Context) error {
	if g.held {
		return nil
	}
	if err := g.lock.Acquire(ctx); err != nil {
		return err
	}
	g.held = true
	return nil
}

func (g *terminalGuard) release(ctx context.Context) error {
	if !g.held {
		return nil
	}
	g.held = false
	return g.lock.Release(ctx)
}
