package data

import "time"

// NewPassedResult builds the result for a test that exited cleanly with
// return code 0.
func NewPassedResult(test Test, execTime time.Duration, stdout string) TestResult {
	return TestResult{Test: test, Passed: 1, ReturnCode: 0, ExecTime: execTime, Stdout: stdout}
}

// NewFailedResult builds the result for a test that exited with a nonzero
// return code and no kernel event.
func NewFailedResult(test Test, returnCode int, execTime time.Duration, stdout string) TestResult {
	return TestResult{Test: test, Failed: 1, ReturnCode: returnCode, ExecTime: execTime, Stdout: stdout}
}

// NewBrokenResult builds the result for a test interrupted by a per-test
// timeout, a kernel panic, or a kernel-transport timeout. Stdout is
// whatever was captured before the interruption, possibly empty.
func NewBrokenResult(test Test, execTime time.Duration, stdout string) TestResult {
	return TestResult{Test: test, Broken: 1, ReturnCode: -1, ExecTime: execTime, Stdout: stdout}
}

// NewSkippedResult builds the result for a test that produced no result of
// its own because the suite run ended first: the suite-level deadline
// fired, Stop() was called, or a reboot failed, whether the test was never
// dispatched or was cancelled in flight.
func NewSkippedResult(test Test, execTime time.Duration) TestResult {
	return TestResult{Test: test, Skipped: 1, ReturnCode: -1, ExecTime: execTime}
}
