package reconnect

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/mock"
)

// stubStatus is a StatusSource whose notifications are fired by the test.
type stubStatus struct {
	mu     sync.Mutex
	notify func()
	err    error
}

func (s *stubStatus) Subscribe(_ context.Context, notify func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.notify = notify
	return nil
}

func (s *stubStatus) Fire() {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *stubStatus) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify != nil
}

type mockConnectivity struct{ mock.Mock }

func (m *mockConnectivity) CurrentLevel(ctx context.Context) (ConnectivityLevel, bool, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(ConnectivityLevel), ret.Bool(1), ret.Error(2)
}

type mockAdapters struct{ mock.Mock }

func (m *mockAdapters) ListAdapters(ctx context.Context) ([]Adapter, error) {
	ret := m.Called(ctx)
	var adapters []Adapter
	if v := ret.Get(0); v != nil {
		adapters = v.([]Adapter)
	}
	return adapters, ret.Error(1)
}

type mockAdapter struct {
	mock.Mock
	name string
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) ScanReport(ctx context.Context) ([]ScannedNetwork, error) {
	ret := m.Called(ctx)
	var report []ScannedNetwork
	if v := ret.Get(0); v != nil {
		report = v.([]ScannedNetwork)
	}
	return report, ret.Error(1)
}

type mockAgent struct{ mock.Mock }

func (m *mockAgent) Connect(ctx context.Context, adapter Adapter, network ScannedNetwork, password string, kind ReconnectionKind) (Outcome, error) {
	ret := m.Called(ctx, adapter, network, password, kind)
	return ret.Get(0).(Outcome), ret.Error(1)
}

// logCapture records every line written through its logger.
type logCapture struct {
	mu    sync.Mutex
	lines []string
}

func (c *logCapture) Logger() logr.Logger {
	return funcr.New(func(_, args string) {
		c.mu.Lock()
		c.lines = append(c.lines, args)
		c.mu.Unlock()
	}, funcr.Options{Verbosity: 1})
}

// Count returns how many lines carry the given message.
func (c *logCapture) Count(msg string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		if strings.Contains(l, `"msg"="`+msg+`"`) {
			n++
		}
	}
	return n
}

// Find returns the lines carrying the given message.
func (c *logCapture) Find(msg string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found []string
	for _, l := range c.lines {
		if strings.Contains(l, `"msg"="`+msg+`"`) {
			found = append(found, l)
		}
	}
	return found
}

// fixture bundles an engine with its fake capabilities.
type fixture struct {
	status       *stubStatus
	connectivity *mockConnectivity
	adapters     *mockAdapters
	adapter      *mockAdapter
	agent        *mockAgent
	logs         *logCapture
}

func newFixture() *fixture {
	return &fixture{
		status:       &stubStatus{},
		connectivity: &mockConnectivity{},
		adapters:     &mockAdapters{},
		adapter:      &mockAdapter{name: "wlan0"},
		agent:        &mockAgent{},
		logs:         &logCapture{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Status:       f.status,
		Connectivity: f.connectivity,
		Adapters:     f.adapters,
		Agent:        f.agent,
	}
}

// engine builds an engine for ssid "Home" with zero retry delay and no
// start-up check. Extra options are applied last.
func (f *fixture) engine(opts ...Option) *Engine {
	base := []Option{
		WithLogger(f.logs.Logger()),
		WithRetryBackoff(BackoffConfig{}),
		WithAdapterBackoff(BackoffConfig{Initial: time.Millisecond, Max: time.Millisecond}),
		WithCheckOnStart(false),
	}
	e, err := New(Config{SSID: "Home", Password: "x"}, f.deps(), append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return e
}
