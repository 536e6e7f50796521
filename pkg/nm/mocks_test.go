package nm

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
)

// mockRunner answers Output and Feed calls from testify expectations keyed
// on the argument list. Stream calls are served from the processes queue.
type mockRunner struct {
	mock.Mock

	mu        sync.Mutex
	processes []func(ctx context.Context) Process
	streams   int
}

func (m *mockRunner) Output(_ context.Context, args ...string) ([]byte, error) {
	ret := m.Called(args)
	var out []byte
	if v := ret.Get(0); v != nil {
		out = []byte(v.(string))
	}
	return out, ret.Error(1)
}

func (m *mockRunner) Feed(_ context.Context, input string, args ...string) ([]byte, error) {
	ret := m.Called(args, input)
	var out []byte
	if v := ret.Get(0); v != nil {
		out = []byte(v.(string))
	}
	return out, ret.Error(1)
}

func (m *mockRunner) Stream(ctx context.Context, args ...string) (Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams++
	if len(m.processes) == 0 {
		return nil, errors.New("no more processes")
	}
	next := m.processes[0]
	m.processes = m.processes[1:]
	return next(ctx), nil
}

func (m *mockRunner) Streams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams
}

// exitedProcess prints output and exits.
func exitedProcess(output string) func(context.Context) Process {
	return func(context.Context) Process {
		return &fakeProcess{Reader: strings.NewReader(output)}
	}
}

// runningProcess stays up until its context is cancelled. Lines written to
// the writer sent on stdin appear on its stdout.
func runningProcess(stdin chan<- *io.PipeWriter) func(context.Context) Process {
	return func(ctx context.Context) Process {
		pr, pw := io.Pipe()
		stdin <- pw
		go func() {
			<-ctx.Done()
			pw.CloseWithError(ctx.Err())
		}()
		return &fakeProcess{Reader: pr}
	}
}

type fakeProcess struct {
	io.Reader
	waitErr error
}

func (p *fakeProcess) Wait() error { return p.waitErr }
