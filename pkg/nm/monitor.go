package nm

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// Monitor implements reconnect.StatusSource on top of "nmcli monitor".
// Every line NetworkManager prints is treated as a status change. When the
// monitor process exits it is restarted with exponential backoff.
type Monitor struct {
	run     Runner
	log     logr.Logger
	backoff reconnect.BackoffConfig

	wg sync.WaitGroup
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(log logr.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log }
}

// WithRestartBackoff sets the delays between monitor restarts.
func WithRestartBackoff(cfg reconnect.BackoffConfig) MonitorOption {
	return func(m *Monitor) { m.backoff = cfg }
}

// NewMonitor creates a Monitor that starts nmcli through run.
func NewMonitor(run Runner, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		run: run,
		log: logr.Discard(),
		backoff: reconnect.BackoffConfig{
			Initial:    reconnect.InitialBackoff,
			Max:        reconnect.MaxBackoff,
			Multiplier: reconnect.BackoffMultiplier,
			Jitter:     reconnect.JitterFactor,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe starts the monitor and returns once it is running. notify is
// called from the monitor's goroutine until ctx is cancelled.
func (m *Monitor) Subscribe(ctx context.Context, notify func()) error {
	proc, err := m.run.Stream(ctx, "monitor")
	if err != nil {
		return fmt.Errorf("start NetworkManager monitor: %w", err)
	}

	m.wg.Add(1)
	go m.watch(ctx, proc, notify)
	return nil
}

// Wait blocks until every subscription's goroutine has returned.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) watch(ctx context.Context, proc Process, notify func()) {
	defer m.wg.Done()

	b := reconnect.NewBackoffWithConfig(m.backoff)
	for {
		if proc != nil {
			lines := m.drain(proc, notify)
			err := proc.Wait()
			if ctx.Err() != nil {
				return
			}
			if lines > 0 {
				b.Reset()
			}
			m.log.Info("NetworkManager monitor exited", "error", errString(err))
		}

		delay := b.Next()
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		var err error
		proc, err = m.run.Stream(ctx, "monitor")
		if err != nil {
			m.log.Error(err, "Failed to restart NetworkManager monitor", "attempt", b.Attempts())
			proc = nil
			continue
		}
		// Changes may have happened while the monitor was down.
		notify()
	}
}

func (m *Monitor) drain(proc Process, notify func()) int {
	n := 0
	sc := bufio.NewScanner(proc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n++
		m.log.V(1).Info("NetworkManager event", "event", line)
		notify()
	}
	return n
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ reconnect.StatusSource = (*Monitor)(nil)
