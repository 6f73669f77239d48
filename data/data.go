// Package data holds the immutable descriptors (Test, Suite) and the
// mutable-once-built records (TestResult, SuiteResult) that flow through
// the scheduler.
package data

import "time"

// Test is an immutable descriptor of a single unit of work dispatched to
// the SUT.
type Test struct {
	// Name uniquely identifies this test within a batch.
	Name string
	// Cmd is the executable name.
	Cmd string
	// Args are the ordered argument strings appended to Cmd.
	Args []string
	// Parallelizable is false for tests that must run alone: no other
	// test may overlap with them.
	Parallelizable bool
}

// Suite is a named, ordered sequence of Tests.
type Suite struct {
	Name  string
	Tests []Test
}

// TestResult is a one-shot record built when a Test finishes, is skipped,
// or is aborted. Exactly one of Passed, Failed, Broken, Skipped is 1; the
// rest are 0. Warnings is independent of that classification.
type TestResult struct {
	Test Test

	Passed   int
	Failed   int
	Broken   int
	Skipped  int
	Warnings int

	// ExecTime is strictly positive wall-clock duration.
	ExecTime time.Duration
	// ReturnCode is -1 when the test did not produce a natural exit
	// (timeout, kernel event, cancellation).
	ReturnCode int
	// Stdout is the captured standard output.
	Stdout string
}

// SuiteResult collects the TestResults produced while running a Suite.
type SuiteResult struct {
	Suite        Suite
	TestsResults []TestResult
}
