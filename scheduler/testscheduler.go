// Package scheduler implements the two coordinated schedulers described
// by the kernel test-execution engine: TestScheduler dispatches a single
// batch of tests with bounded parallelism and aborts on kernel-health
// failures; SuiteScheduler wraps it to run whole suites across SUT
// reboots.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kirk/data"
	"kirk/kerrors"
	"kirk/logging"
	"kirk/sut"
)

// State is the TestScheduler's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

// ErrAlreadyRunning is returned by Schedule when called while a previous
// Schedule call on the same TestScheduler or SuiteScheduler is still in
// flight.
var ErrAlreadyRunning = errors.New("scheduler: already running")

// TestScheduler dispatches a single ordered batch of Tests against an
// SUT, with bounded parallelism, a per-test timeout, and kernel-health
// monitoring that aborts the whole batch.
type TestScheduler struct {
	sut        sut.SUT
	timeout    time.Duration
	maxWorkers int

	logger       logging.Logger
	markerPrefix string

	mu       sync.Mutex
	state    State
	results  []data.TestResult
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewTestScheduler builds a TestScheduler. timeout is the per-test
// deadline; maxWorkers bounds parallel dispatch and must be >= 1.
func NewTestScheduler(s sut.SUT, timeout time.Duration, maxWorkers int, opts ...TestSchedulerOption) *TestScheduler {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ts := &TestScheduler{
		sut:          s,
		timeout:      timeout,
		maxWorkers:   maxWorkers,
		logger:       logging.NoopLogger{},
		markerPrefix: "kirk",
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Results returns the longest contiguous prefix of completed TestResults,
// in dispatch order. It is safe to call at any time, including while
// Schedule is in flight.
func (ts *TestScheduler) Results() []data.TestResult {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]data.TestResult, len(ts.results))
	copy(out, ts.results)
	return out
}

// State returns the scheduler's current lifecycle state.
func (ts *TestScheduler) State() State {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.state
}

// Stop requests cooperative cancellation of an in-flight Schedule call.
// It blocks until that call has actually returned. It is a no-op if no
// Schedule call is currently running.
func (ts *TestScheduler) Stop(ctx context.Context) error {
	ts.mu.Lock()
	if ts.state != StateRunning {
		ts.mu.Unlock()
		return nil
	}
	cancel := ts.cancel
	done := ts.doneCh
	ts.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule runs tests in order, respecting bounded parallelism and
// test-exclusivity, and returns the TestResults built for every test that
// completed before any kernel-health abort (or all of them, on normal
// completion). It fails with a *kerrors.KernelHealthError when the kernel
// becomes tainted, panics, or the SUT transport itself times out.
func (ts *TestScheduler) Schedule(ctx context.Context, tests []data.Test) ([]data.TestResult, error) {
	ts.mu.Lock()
	if ts.state == StateRunning {
		ts.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	ts.state = StateRunning
	ts.results = nil
	runCtx, cancel := context.WithCancel(ctx)
	ts.cancel = cancel
	doneCh := make(chan struct{})
	ts.doneCh = doneCh
	ts.mu.Unlock()

	defer close(doneCh)
	defer cancel()

	slots := make([]*data.TestResult, len(tests))
	var slotMu sync.Mutex
	var poolLock sync.RWMutex
	var taintMu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, ts.maxWorkers)

	baseline, err := ts.sut.GetTaintedInfo(runCtx)
	if err != nil {
		ts.logger.Warn("failed to read baseline taint status", logging.Any("error", err.Error()))
	}

	var abortMu sync.Mutex
	var abortErr error
	stopped := false
	abort := func(err error) {
		abortMu.Lock()
		defer abortMu.Unlock()
		if abortErr == nil {
			abortErr = err
		}
		cancel()
	}

	setSlot := func(i int, res data.TestResult) {
		slotMu.Lock()
		defer slotMu.Unlock()
		slots[i] = &res
		prefix := contiguousPrefix(slots)
		ts.mu.Lock()
		ts.results = prefix
		ts.mu.Unlock()
	}

	runOne := func(i int, test data.Test) {
		ts.writeMarker(runCtx, test)

		testCtx := runCtx
		var cancelTest context.CancelFunc = func() {}
		if ts.timeout > 0 {
			testCtx, cancelTest = context.WithTimeout(runCtx, ts.timeout)
		}
		defer cancelTest()

		sink := newCaptureSink(func() {
			abort(kerrors.NewKernelPanicError("kernel panic observed in "+test.Name, nil))
		})

		cmdline := test.Cmd
		if len(test.Args) > 0 {
			cmdline += " " + strings.Join(test.Args, " ")
		}

		start := time.Now()
		res, runErr := ts.sut.RunCommand(testCtx, cmdline, sink)
		elapsed := time.Since(start)

		if sink.panicked() {
			setSlot(i, data.NewBrokenResult(test, elapsed, sink.captured()))
			return
		}

		if errors.Is(runErr, sut.ErrKernelTimeout) {
			setSlot(i, data.NewBrokenResult(test, elapsed, ""))
			abort(kerrors.NewKernelTimeoutError("sut transport timed out running "+test.Name, runErr))
			return
		}

		// A DeadlineExceeded on testCtx is our own per-test timeout only
		// if the caller's ctx (e.g. a suite-level deadline) hasn't also
		// fired; otherwise this test was simply caught by an outer
		// deadline and produced no natural result.
		if errors.Is(testCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			setSlot(i, data.NewBrokenResult(test, ts.timeout, ""))
			return
		}

		if runErr != nil {
			// Cancelled by Stop() or by another test's abort: this test
			// never produced a natural result.
			return
		}

		if res.ReturnCode == 0 {
			setSlot(i, data.NewPassedResult(test, elapsed, res.Stdout))
		} else {
			setSlot(i, data.NewFailedResult(test, res.ReturnCode, elapsed, res.Stdout))
		}

		taintMu.Lock()
		info, taintErr := ts.sut.GetTaintedInfo(runCtx)
		taintMu.Unlock()
		if taintErr == nil && info.Mask != baseline.Mask {
			abort(kerrors.NewKernelTaintedError("taint mask diverged from baseline after "+test.Name, nil))
		}
	}

dispatch:
	for i, test := range tests {
		select {
		case <-runCtx.Done():
			break dispatch
		default:
		}

		if !test.Parallelizable {
			poolLock.Lock()
			runOne(i, test)
			poolLock.Unlock()
			continue
		}

		poolLock.RLock()
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			poolLock.RUnlock()
			break dispatch
		}
		wg.Add(1)
		go func(i int, test data.Test) {
			defer wg.Done()
			defer func() { <-sem }()
			defer poolLock.RUnlock()
			runOne(i, test)
		}(i, test)
	}

	wg.Wait()

	ts.mu.Lock()
	results := contiguousPrefix(slots)
	ts.results = results
	stopped = abortErr == nil && runCtx.Err() != nil
	switch {
	case abortErr != nil:
		ts.state = StateFailed
	case stopped:
		ts.state = StateCancelled
	default:
		ts.state = StateCompleted
	}
	ts.mu.Unlock()

	if abortErr != nil {
		return results, abortErr
	}
	return results, nil
}

// writeMarker best-effort writes a kernel ring-buffer marker before a
// test launches, if the SUT implements sut.MarkerWriter. Failures are
// logged, never fatal.
func (ts *TestScheduler) writeMarker(ctx context.Context, test data.Test) {
	mw, ok := ts.sut.(sut.MarkerWriter)
	if !ok {
		return
	}
	marker := ts.markerPrefix + ":" + test.Name + ":" + uuid.NewString()
	if err := mw.WriteMarker(ctx, marker); err != nil {
		ts.logger.Debug("kernel marker write failed", logging.TestField(test.Name), logging.Any("error", err.Error()))
	}
}

// contiguousPrefix returns the longest run of non-nil slots starting at
// index 0, dereferenced into a plain slice.
func contiguousPrefix(slots []*data.TestResult) []data.TestResult {
	out := make([]data.TestResult, 0, len(slots))
	for _, s := range slots {
		if s == nil {
			break
		}
		out = append(out, *s)
	}
	return out
}
