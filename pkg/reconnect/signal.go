package reconnect

import "context"

// WakeSignal is an auto-resetting, single-slot wake flag.
//
// Set never blocks. Several Set calls before the next Wait collapse into one
// wake. Wait consumes the pending wake.
type WakeSignal struct {
	ch chan struct{}
}

// NewWakeSignal returns an unset signal.
func NewWakeSignal() *WakeSignal {
	return &WakeSignal{ch: make(chan struct{}, 1)}
}

// Set arms the signal. It is safe to call from any goroutine.
func (s *WakeSignal) Set() {
	select {
	case s.ch <- struct{}{}:
	default:
		// Already pending
	}
}

// Wait blocks until the signal is set or ctx is done.
func (s *WakeSignal) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ch:
		return nil
	}
}

// Pending reports whether a wake is armed without consuming it.
func (s *WakeSignal) Pending() bool {
	return len(s.ch) > 0
}
