package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// TickerSource notifies at a fixed interval, catching changes that produced
// no event. A zero interval disables it.
type TickerSource struct {
	Interval time.Duration

	wg sync.WaitGroup
}

// Subscribe implements reconnect.StatusSource.
func (t *TickerSource) Subscribe(ctx context.Context, notify func()) error {
	if t.Interval <= 0 {
		return nil
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notify()
			}
		}
	}()
	return nil
}

// Wait blocks until the ticker goroutine has stopped.
func (t *TickerSource) Wait() {
	t.wg.Wait()
}

var _ reconnect.StatusSource = (*TickerSource)(nil)
