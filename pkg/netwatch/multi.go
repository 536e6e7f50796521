// Package netwatch provides network status sources for the reconnection
// engine: kernel link and address events, a periodic re-check, and a
// fan-out that subscribes several sources at once.
package netwatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// ErrUnsupported is returned by sources that cannot run on this platform.
var ErrUnsupported = errors.New("netwatch: not supported on this platform")

// waiter is implemented by sources that own goroutines.
type waiter interface {
	Wait()
}

// MultiSource subscribes the same notify func to several sources.
// Sources reporting ErrUnsupported are skipped; any other error cancels the
// subscriptions made so far.
type MultiSource struct {
	sources []reconnect.StatusSource
	log     logr.Logger
}

// NewMultiSource creates a MultiSource over sources.
func NewMultiSource(log logr.Logger, sources ...reconnect.StatusSource) *MultiSource {
	return &MultiSource{sources: sources, log: log}
}

// Subscribe implements reconnect.StatusSource.
func (m *MultiSource) Subscribe(parent context.Context, notify func()) error {
	ctx, cancel := context.WithCancel(parent)
	active := 0
	for i, s := range m.sources {
		err := s.Subscribe(ctx, notify)
		switch {
		case err == nil:
			active++
		case errors.Is(err, ErrUnsupported):
			m.log.Info("Status source unavailable", "source", fmt.Sprintf("%T", s))
		default:
			cancel()
			return fmt.Errorf("source %d (%T): %w", i, s, err)
		}
	}
	if active == 0 {
		cancel()
		return errors.New("netwatch: no status source available")
	}
	// ctx is only cancelled early on a failed subscription.
	context.AfterFunc(parent, cancel)
	return nil
}

// Wait blocks until every source that owns goroutines has stopped.
func (m *MultiSource) Wait() {
	for _, s := range m.sources {
		if w, ok := s.(waiter); ok {
			w.Wait()
		}
	}
}

var _ reconnect.StatusSource = (*MultiSource)(nil)
