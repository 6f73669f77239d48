package scheduler

import (
	"context"
	"sync"
	"time"

	"kirk/data"
	"kirk/kerrors"
	"kirk/logging"
	"kirk/sut"
)

// SuiteScheduler runs whole suites of tests against an SUT, reacting to
// kernel-health failures by rebooting the SUT and resuming with whatever
// tests of the current suite were not yet accounted for. A suite-wide
// deadline, once it fires, converts every test without a result of its
// own — not yet dispatched or cancelled in flight, in the current suite
// and any suite still queued — into a Skipped result rather than raising
// an error.
type SuiteScheduler struct {
	sutInst      sut.SUT
	inner        *TestScheduler
	suiteTimeout time.Duration

	logger logging.Logger

	mu       sync.Mutex
	results  []data.SuiteResult
	rebooted int
	running  bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewSuiteScheduler builds a SuiteScheduler. suiteTimeout bounds the whole
// Schedule call (0 disables it); execTimeout and maxWorkers configure the
// internal TestScheduler used to run each suite's tests.
func NewSuiteScheduler(s sut.SUT, suiteTimeout, execTimeout time.Duration, maxWorkers int, opts ...SuiteSchedulerOption) *SuiteScheduler {
	ss := &SuiteScheduler{
		sutInst:      s,
		suiteTimeout: suiteTimeout,
		logger:       logging.NoopLogger{},
	}
	for _, opt := range opts {
		opt(ss)
	}
	ss.inner = NewTestScheduler(s, execTimeout, maxWorkers, WithLogger(ss.logger))
	return ss
}

// Results returns the SuiteResults built so far, one per suite that has
// finished (run to its end or skipped), in suite order. The suite currently
// running is not included until it finishes.
func (ss *SuiteScheduler) Results() []data.SuiteResult {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]data.SuiteResult, len(ss.results))
	copy(out, ss.results)
	return out
}

// Rebooted returns the number of times the SUT was rebooted during the
// most recent (or current) Schedule call.
func (ss *SuiteScheduler) Rebooted() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.rebooted
}

// Running reports whether a Schedule call is currently in flight.
func (ss *SuiteScheduler) Running() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.running
}

// Stop requests cooperative cancellation of an in-flight Schedule call. It
// blocks until that call has returned. It is a no-op if no Schedule call
// is currently running.
func (ss *SuiteScheduler) Stop(ctx context.Context) error {
	ss.mu.Lock()
	if !ss.running {
		ss.mu.Unlock()
		return nil
	}
	cancel := ss.cancel
	done := ss.doneCh
	ss.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule runs every suite in order. It returns ErrAlreadyRunning if a
// Schedule call is already in flight, and nil otherwise: a cooperative
// Stop() or the suite-wide deadline firing both end the run gracefully,
// leaving whatever SuiteResults had accumulated (with every test that got
// no result of its own recorded as Skipped) available from Results().
func (ss *SuiteScheduler) Schedule(ctx context.Context, suites []data.Suite) error {
	ss.mu.Lock()
	if ss.running {
		ss.mu.Unlock()
		return ErrAlreadyRunning
	}
	ss.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	if ss.suiteTimeout > 0 {
		var deadlineCancel context.CancelFunc
		runCtx, deadlineCancel = context.WithTimeout(runCtx, ss.suiteTimeout)
		defer deadlineCancel()
	}

	runStart := time.Now()
	doneCh := make(chan struct{})
	ss.mu.Lock()
	ss.running = true
	ss.cancel = cancel
	ss.doneCh = doneCh
	ss.results = make([]data.SuiteResult, 0, len(suites))
	ss.rebooted = 0
	ss.mu.Unlock()

	defer close(doneCh)
	defer cancel()
	defer func() {
		ss.mu.Lock()
		ss.running = false
		ss.mu.Unlock()
	}()

	for suiteIdx, suite := range suites {
		if runCtx.Err() != nil {
			ss.skipRemaining(suites[suiteIdx:], runStart)
			break
		}

		suiteResult := ss.runSuite(runCtx, suite, runStart)

		ss.mu.Lock()
		ss.results = append(ss.results, suiteResult)
		ss.mu.Unlock()

		if runCtx.Err() != nil {
			ss.skipRemaining(suites[suiteIdx+1:], runStart)
			break
		}
	}

	return nil
}

// runSuite drives one suite to completion, rebooting the SUT and resuming
// with unaccounted-for tests each time the inner TestScheduler reports a
// kernel-health failure. Whatever tests never got a natural result — because
// the suite-wide deadline fired, Stop() was called, or a reboot attempt
// itself failed — are recorded as Skipped.
func (ss *SuiteScheduler) runSuite(ctx context.Context, suite data.Suite, runStart time.Time) data.SuiteResult {
	remaining := suite.Tests
	accumulated := make([]data.TestResult, 0, len(suite.Tests))

	for len(remaining) > 0 && ctx.Err() == nil {
		results, err := ss.inner.Schedule(ctx, remaining)
		accumulated = append(accumulated, results...)
		remaining = remaining[len(results):]

		if err == nil {
			// Either the batch finished naturally (remaining is now
			// empty) or it was cut short by ctx cancellation, in which
			// case the loop guard above ends things next iteration.
			continue
		}

		kh, ok := kerrors.AsKernelHealthError(err)
		if !ok {
			break
		}

		ss.logger.Warn("kernel health failure, rebooting sut",
			logging.SuiteField(suite.Name),
			logging.KernelEventField(kh.Type),
		)

		rebootErr := ss.reboot(ctx)

		ss.mu.Lock()
		ss.rebooted++
		rebootCount := ss.rebooted
		ss.mu.Unlock()

		if rebootErr != nil {
			ss.logger.Error("sut reboot failed", rebootErr, logging.SuiteField(suite.Name), logging.RebootField(rebootCount))
			break
		}

		if len(remaining) == 0 || ctx.Err() != nil {
			break
		}
	}

	elapsed := time.Since(runStart)
	for _, t := range remaining {
		accumulated = append(accumulated, data.NewSkippedResult(t, elapsed))
	}

	return data.SuiteResult{Suite: suite, TestsResults: accumulated}
}

// reboot stops the inner scheduler's SUT, then re-establishes it.
func (ss *SuiteScheduler) reboot(ctx context.Context) error {
	if err := ss.sutInst.Stop(ctx); err != nil {
		return err
	}
	if err := ss.sutInst.Setup(ctx); err != nil {
		return err
	}
	return ss.sutInst.Communicate(ctx)
}

// skipRemaining records a Skipped result for every test in every suite
// that never got a chance to run, because the suite-wide deadline fired
// or Stop() was called.
func (ss *SuiteScheduler) skipRemaining(suites []data.Suite, runStart time.Time) {
	elapsed := time.Since(runStart)
	for _, suite := range suites {
		ss.mu.Lock()
		already := false
		for _, r := range ss.results {
			if r.Suite.Name == suite.Name {
				already = true
				break
			}
		}
		ss.mu.Unlock()
		if already {
			continue
		}

		skipped := make([]data.TestResult, 0, len(suite.Tests))
		for _, t := range suite.Tests {
			skipped = append(skipped, data.NewSkippedResult(t, elapsed))
		}

		ss.mu.Lock()
		ss.results = append(ss.results, data.SuiteResult{Suite: suite, TestsResults: skipped})
		ss.mu.Unlock()
	}
}
