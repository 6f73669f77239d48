package scheduler

import "kirk/logging"

// TestSchedulerOption configures optional behavior of a TestScheduler.
type TestSchedulerOption func(*TestScheduler)

// WithLogger attaches a structured logger. Defaults to logging.NoopLogger.
func WithLogger(logger logging.Logger) TestSchedulerOption {
	return func(ts *TestScheduler) {
		ts.logger = logger
	}
}

// WithMarkerPrefix overrides the prefix used when composing kernel
// ring-buffer markers (default "kirk").
func WithMarkerPrefix(prefix string) TestSchedulerOption {
	return func(ts *TestScheduler) {
		ts.markerPrefix = prefix
	}
}

// SuiteSchedulerOption configures optional behavior of a SuiteScheduler.
type SuiteSchedulerOption func(*SuiteScheduler)

// WithSuiteLogger attaches a structured logger. Defaults to
// logging.NoopLogger.
func WithSuiteLogger(logger logging.Logger) SuiteSchedulerOption {
	return func(ss *SuiteScheduler) {
		ss.logger = logger
	}
}
