package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"kirk/sut"
)

// mockSUT is a scriptable sut.SUT for exercising TestScheduler and
// SuiteScheduler without a real kernel. Handlers are looked up by the
// exact command line the scheduler builds (test.Cmd plus its Args).
type mockSUT struct {
	mu sync.Mutex

	taint    sut.TaintInfo
	handlers map[string]func(ctx context.Context, sink io.Writer) (sut.CommandResult, error)
	markers  []string

	setupCalls       int
	communicateCalls int
	stopCalls        int
}

func newMockSUT() *mockSUT {
	return &mockSUT{handlers: make(map[string]func(context.Context, io.Writer) (sut.CommandResult, error))}
}

func (m *mockSUT) on(cmd string, fn func(context.Context, io.Writer) (sut.CommandResult, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[cmd] = fn
}

func (m *mockSUT) setTaint(mask uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taint = sut.TaintInfo{Mask: mask}
}

func (m *mockSUT) RunCommand(ctx context.Context, cmdline string, sink io.Writer) (sut.CommandResult, error) {
	m.mu.Lock()
	fn, ok := m.handlers[cmdline]
	m.mu.Unlock()
	if !ok {
		return sut.CommandResult{ReturnCode: 0}, nil
	}
	return fn(ctx, sink)
}

func (m *mockSUT) GetTaintedInfo(ctx context.Context) (sut.TaintInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taint, nil
}

func (m *mockSUT) Setup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setupCalls++
	return nil
}

func (m *mockSUT) Communicate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.communicateCalls++
	return nil
}

func (m *mockSUT) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	return nil
}

func (m *mockSUT) WriteMarker(ctx context.Context, marker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = append(m.markers, marker)
	return nil
}

func okHandler(rc int, stdout string) func(context.Context, io.Writer) (sut.CommandResult, error) {
	return func(ctx context.Context, sink io.Writer) (sut.CommandResult, error) {
		if stdout != "" {
			fmt.Fprint(sink, stdout)
		}
		return sut.CommandResult{ReturnCode: rc, Stdout: stdout}, nil
	}
}

func sleepyHandler(d time.Duration, rc int) func(context.Context, io.Writer) (sut.CommandResult, error) {
	return func(ctx context.Context, sink io.Writer) (sut.CommandResult, error) {
		select {
		case <-time.After(d):
			return sut.CommandResult{ReturnCode: rc}, nil
		case <-ctx.Done():
			return sut.CommandResult{}, ctx.Err()
		}
	}
}

func panicHandler() func(context.Context, io.Writer) (sut.CommandResult, error) {
	return func(ctx context.Context, sink io.Writer) (sut.CommandResult, error) {
		fmt.Fprint(sink, "Kernel panic - not syncing: oops\n")
		return sut.CommandResult{ReturnCode: -1}, nil
	}
}

// taintingHandler runs cleanly but flips the mock's taint mask as a side
// effect, simulating a test that leaves the kernel tainted.
func taintingHandler(m *mockSUT, mask uint64) func(context.Context, io.Writer) (sut.CommandResult, error) {
	return func(ctx context.Context, sink io.Writer) (sut.CommandResult, error) {
		m.setTaint(mask)
		return sut.CommandResult{ReturnCode: 0}, nil
	}
}

func kernelTimeoutHandler() func(context.Context, io.Writer) (sut.CommandResult, error) {
	return func(ctx context.Context, sink io.Writer) (sut.CommandResult, error) {
		return sut.CommandResult{}, sut.ErrKernelTimeout
	}
}

func cmdlineFor(cmd string, args []string) string {
	line := cmd
	for _, a := range args {
		line += " " + a
	}
	return line
}
