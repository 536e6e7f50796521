// Package daemon runs the reconnection engine as a system service.
package daemon

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/kardianos/service"

	"github.com/wifireconnect/wifireconnect-go/pkg/log"
)

// StopTimeout bounds how long Stop waits for the loop to return.
const StopTimeout = 10 * time.Second

// Runner is the long-running loop the daemon supervises.
type Runner interface {
	Run(ctx context.Context) error
}

// Daemon adapts a Runner to service.Interface. Start does not block; Stop
// cancels the loop and waits for it.
type Daemon struct {
	runner Runner
	log    logr.Logger
	exit   func(code int)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithExit replaces os.Exit, called when the loop ends on its own.
func WithExit(exit func(code int)) Option {
	return func(d *Daemon) { d.exit = exit }
}

// New creates a Daemon supervising runner.
func New(runner Runner, logger logr.Logger, opts ...Option) *Daemon {
	d := &Daemon{
		runner: runner,
		log:    logger,
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start implements service.Interface.
func (d *Daemon) Start(s service.Service) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done != nil {
		return errors.New("daemon: already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	go d.run(ctx)
	return nil
}

func (d *Daemon) run(ctx context.Context) {
	defer close(d.done)
	defer log.LogUnhandled(d.log)

	d.log.Info("Starting WiFi reconnection service", "platform", service.Platform())
	err := d.runner.Run(ctx)

	d.mu.Lock()
	d.err = err
	d.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	// The loop only returns by itself on a fatal error.
	if err != nil {
		d.log.Error(err, "Reconnection loop ended")
		d.exit(1)
		return
	}
	d.exit(0)
}

// Stop implements service.Interface.
func (d *Daemon) Stop(s service.Service) error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if done == nil {
		return nil
	}

	d.log.Info("Stopping WiFi reconnection service")
	cancel()

	select {
	case <-done:
	case <-time.After(StopTimeout):
		return errors.New("daemon: reconnection loop did not stop in time")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Done is closed once the loop has returned.
func (d *Daemon) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

var _ service.Interface = (*Daemon)(nil)
