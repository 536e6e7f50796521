package reconnect

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Policy decides what happens when a cycle fails.
type Policy uint8

const (
	// PolicyHardened recovers errors and panics at the loop boundary and
	// re-arms the wake signal. Failed connection outcomes are retried too.
	PolicyHardened Policy = iota

	// PolicyMinimal lets errors end Run and leaves panics to the process.
	PolicyMinimal
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyHardened:
		return "hardened"
	case PolicyMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "hardened" or "minimal". The empty string is
// PolicyHardened.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "hardened":
		return PolicyHardened, nil
	case "minimal":
		return PolicyMinimal, nil
	default:
		return PolicyHardened, fmt.Errorf("unknown retry policy %q", s)
	}
}

// AdapterPolicy decides how a cycle behaves when no adapter is present.
type AdapterPolicy uint8

const (
	// AdapterPersistent re-queries with backoff until an adapter appears.
	AdapterPersistent AdapterPolicy = iota

	// AdapterStrict queries once and ends the cycle if none is found.
	AdapterStrict
)

// String returns the adapter policy name.
func (p AdapterPolicy) String() string {
	switch p {
	case AdapterPersistent:
		return "persistent"
	case AdapterStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseAdapterPolicy parses "persistent" or "strict". The empty string is
// AdapterPersistent.
func ParseAdapterPolicy(s string) (AdapterPolicy, error) {
	switch strings.ToLower(s) {
	case "", "persistent":
		return AdapterPersistent, nil
	case "strict":
		return AdapterStrict, nil
	default:
		return AdapterPersistent, fmt.Errorf("unknown adapter policy %q", s)
	}
}

// State represents what the engine is doing.
type State uint8

const (
	// StateIdle indicates Run has not been called or has returned.
	StateIdle State = iota

	// StateWaiting indicates the loop is blocked on the wake signal.
	StateWaiting

	// StateChecking indicates the connectivity level is being queried.
	StateChecking

	// StateAcquiring indicates adapters are being enumerated and scanned.
	StateAcquiring

	// StateConnecting indicates a connection attempt is in flight.
	StateConnecting
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWaiting:
		return "WAITING"
	case StateChecking:
		return "CHECKING"
	case StateAcquiring:
		return "ACQUIRING"
	case StateConnecting:
		return "CONNECTING"
	default:
		return "UNKNOWN"
	}
}

// Config is the network the engine keeps the device attached to.
type Config struct {
	SSID     string
	Password string
}

// cycleResult is how a cycle ended when it did not fail.
type cycleResult uint8

const (
	resultHealthy cycleResult = iota
	resultNoAdapter
	resultNoCandidate
	resultSucceeded
	resultFailed
)

// Engine keeps the device attached to the configured network.
type Engine struct {
	mu sync.RWMutex

	state State

	cfg  Config
	deps Deps
	log  logr.Logger

	signal *WakeSignal

	policy        Policy
	adapterPolicy AdapterPolicy
	iface         string
	checkOnStart  bool

	retry          *Backoff
	adapterBackoff BackoffConfig

	// Pending self-issued wake
	retryTimer *time.Timer

	cycles atomic.Uint64

	onStateChange func(oldState, newState State)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithPolicy sets the failure policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithAdapterPolicy sets the adapter acquisition policy.
func WithAdapterPolicy(p AdapterPolicy) Option {
	return func(e *Engine) { e.adapterPolicy = p }
}

// WithInterface pins the adapter by name. Empty selects the first adapter.
func WithInterface(name string) Option {
	return func(e *Engine) { e.iface = name }
}

// WithRetryBackoff sets the delay before a failed cycle re-arms the signal.
func WithRetryBackoff(cfg BackoffConfig) Option {
	return func(e *Engine) { e.retry = NewBackoffWithConfig(cfg) }
}

// WithAdapterBackoff sets the delay between adapter queries under AdapterPersistent.
func WithAdapterBackoff(cfg BackoffConfig) Option {
	return func(e *Engine) { e.adapterBackoff = cfg }
}

// WithCheckOnStart arms the signal once when Run starts.
func WithCheckOnStart(enabled bool) Option {
	return func(e *Engine) { e.checkOnStart = enabled }
}

// New creates an engine. All capabilities in deps are required.
func New(cfg Config, deps Deps, opts ...Option) (*Engine, error) {
	if cfg.SSID == "" {
		return nil, ErrEmptySSID
	}
	if deps.Status == nil || deps.Connectivity == nil || deps.Adapters == nil || deps.Agent == nil {
		return nil, ErrMissingDeps
	}

	e := &Engine{
		state:        StateIdle,
		cfg:          cfg,
		deps:         deps,
		log:          logr.Discard(),
		signal:       NewWakeSignal(),
		checkOnStart: true,
		retry:        NewBackoff(),
		adapterBackoff: BackoffConfig{
			Initial:    AdapterPollInitial,
			Max:        AdapterPollMax,
			Multiplier: BackoffMultiplier,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Cycles returns the number of wake cycles run so far.
func (e *Engine) Cycles() uint64 {
	return e.cycles.Load()
}

// Wake arms the wake signal, as a status change would.
func (e *Engine) Wake() {
	e.signal.Set()
}

// OnStateChange sets a callback for state changes.
func (e *Engine) OnStateChange(fn func(oldState, newState State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStateChange = fn
}

// Run subscribes to the status source and runs the wake loop until ctx is
// done. Under PolicyMinimal it also returns the first cycle error.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.deps.Status.Subscribe(ctx, e.signal.Set); err != nil {
		return fmt.Errorf("subscribe to network status: %w", err)
	}
	defer e.stopRetry()
	defer e.setState(StateIdle)

	if e.checkOnStart {
		e.signal.Set()
	}

	e.log.Info("Waiting for network status changes",
		"ssid", e.cfg.SSID,
		"policy", e.policy.String(),
		"adapter_policy", e.adapterPolicy.String())

	for {
		e.setState(StateWaiting)
		if err := e.signal.Wait(ctx); err != nil {
			e.log.Info("Stopped waiting for network status changes")
			return nil
		}
		if err := e.runCycle(ctx); err != nil {
			return err
		}
	}
}

// runCycle runs one wake cycle and applies the failure policy. It returns an
// error only under PolicyMinimal.
func (e *Engine) runCycle(ctx context.Context) error {
	e.cycles.Add(1)
	log := e.log.WithValues("cycle", uuid.NewString())
	log.V(1).Info("Woke up")

	result, err := e.guardedReconnect(ctx, log)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if e.policy == PolicyMinimal {
			log.Error(err, "Reconnection failed")
			return err
		}
		if pe := (*PanicError)(nil); errors.As(err, &pe) {
			log.Error(err, "Exception thrown", "stack", string(pe.Stack))
		} else {
			log.Error(err, "Exception thrown")
		}
		log.Info("Reconnection seems failed with exceptions, retry...")
		e.scheduleRetry(log)
		return nil
	}

	switch result {
	case resultHealthy, resultSucceeded:
		e.retry.Reset()
	case resultFailed:
		if e.policy == PolicyHardened {
			e.scheduleRetry(log)
		}
	}
	return nil
}

func (e *Engine) guardedReconnect(ctx context.Context, log logr.Logger) (result cycleResult, err error) {
	if e.policy == PolicyHardened {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
	}
	return e.reconnect(ctx, log)
}

func (e *Engine) reconnect(ctx context.Context, log logr.Logger) (cycleResult, error) {
	e.setState(StateChecking)
	level, ok, err := e.deps.Connectivity.CurrentLevel(ctx)
	if err != nil {
		return 0, fmt.Errorf("query connectivity: %w", err)
	}
	if ok && level >= LevelInternetAccess {
		log.V(1).Info("Connectivity is healthy", "level", level.String())
		return resultHealthy, nil
	}

	if ok {
		log.Info("Lost connection, start to reconnect...", "level", level.String())
	} else {
		log.Info("Lost connection, start to reconnect...", "level", "no profile")
	}

	e.setState(StateAcquiring)
	adapter, err := e.acquireAdapter(ctx, log)
	if err != nil {
		if e.adapterPolicy == AdapterStrict && (errors.Is(err, ErrNoAdapter) || errors.Is(err, ErrAdapterMissing)) {
			log.Info("No WiFi adapter found", "interface", e.iface)
			return resultNoAdapter, nil
		}
		return 0, err
	}

	report, err := adapter.ScanReport(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan on %s: %w", adapter.Name(), err)
	}
	log.V(1).Info("Scan report", "adapter", adapter.Name(), "networks", len(report))

	candidate, found := SelectCandidate(report, e.cfg.SSID)
	if !found {
		return resultNoCandidate, nil
	}

	log.Info("Reconnect to "+candidate.SSID+"...",
		"bssid", candidate.BSSID,
		"signal_dbm", candidate.SignalDBm,
		"adapter", adapter.Name())

	e.setState(StateConnecting)
	// The attempt runs to completion even when ctx is cancelled.
	outcome, err := e.deps.Agent.Connect(context.WithoutCancel(ctx), adapter, candidate, e.cfg.Password, KindAutomatic)
	if err != nil {
		return 0, fmt.Errorf("connect to %s: %w", candidate.SSID, err)
	}
	if outcome.Succeeded() {
		log.Info("Reconnection succeeded.")
		return resultSucceeded, nil
	}
	log.Info("Reconnection failed", "status", outcome.Status.String(), "reason", outcome.Reason)
	return resultFailed, nil
}

// acquireAdapter returns the adapter to scan with. Under AdapterPersistent it
// keeps polling, yielding between attempts, until one shows up or ctx is done.
func (e *Engine) acquireAdapter(ctx context.Context, log logr.Logger) (Adapter, error) {
	poll := NewBackoffWithConfig(e.adapterBackoff)
	for {
		adapters, err := e.deps.Adapters.ListAdapters(ctx)
		if err != nil {
			return nil, fmt.Errorf("list wifi adapters: %w", err)
		}
		adapter, err := e.pickAdapter(adapters)
		if err == nil {
			return adapter, nil
		}
		if e.adapterPolicy == AdapterStrict {
			return nil, err
		}

		delay := poll.Next()
		if poll.Attempts() == 1 {
			log.Info("Waiting for a WiFi adapter", "interface", e.iface)
		}
		log.V(1).Info("No WiFi adapter yet", "attempt", poll.Attempts(), "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (e *Engine) pickAdapter(adapters []Adapter) (Adapter, error) {
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	if e.iface == "" {
		return adapters[0], nil
	}
	for _, a := range adapters {
		if a.Name() == e.iface {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAdapterMissing, e.iface)
}

// scheduleRetry re-arms the wake signal after the next retry delay.
func (e *Engine) scheduleRetry(log logr.Logger) {
	delay := e.retry.Next()
	log.V(1).Info("Retry scheduled", "attempt", e.retry.Attempts(), "delay", delay)

	if delay <= 0 {
		e.signal.Set()
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.retryTimer != nil {
		e.retryTimer.Stop()
	}
	e.retryTimer = time.AfterFunc(delay, e.signal.Set)
}

func (e *Engine) stopRetry() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	old := e.state
	e.state = s
	fn := e.onStateChange
	e.mu.Unlock()

	if fn != nil && old != s {
		fn(old, s)
	}
}
