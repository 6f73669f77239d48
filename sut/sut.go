// Package sut defines the System Under Test contract the schedulers
// consume. It is the sole external collaborator the core depends on: no
// transport, SSH, or process-execution detail lives here, only the
// interface and the types that cross it.
package sut

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrKernelTimeout is the sentinel an SUT implementation returns (wrapped
// with fmt.Errorf("%w", ...) is fine) from RunCommand when the transport
// itself determines the SUT is unresponsive. This is distinct from the
// context.DeadlineExceeded produced by the scheduler's own per-test
// timeout: that one means "this command took too long"; this one means
// "the SUT stopped talking to us".
var ErrKernelTimeout = errors.New("sut: kernel transport timeout")

// TaintInfo reports the kernel's taint status.
type TaintInfo struct {
	// Mask is 0 when the kernel is clean, nonzero otherwise.
	Mask uint64
	// Reasons enumerates human-readable causes for a nonzero Mask.
	Reasons []string
}

// Tainted reports whether the taint mask is nonzero.
func (t TaintInfo) Tainted() bool {
	return t.Mask != 0
}

// CommandResult is what a successful (or cleanly-failed, i.e.
// nonzero-exit) RunCommand call reports.
type CommandResult struct {
	ReturnCode int
	ExecTime   time.Duration
	Stdout     string
}

// SUT is the abstract System Under Test: a kernel/host that runs shell
// commands, reports its taint status, and exposes lifecycle hooks.
type SUT interface {
	// RunCommand runs cmdline on the SUT, writing each output chunk to
	// sink as it arrives. It returns ErrKernelTimeout (wrapped) if the
	// transport itself determines the SUT is unresponsive; it otherwise
	// honors ctx cancellation/deadline as a normal, scheduler-induced
	// per-test timeout.
	RunCommand(ctx context.Context, cmdline string, sink io.Writer) (CommandResult, error)
	// GetTaintedInfo queries the kernel's current taint status.
	GetTaintedInfo(ctx context.Context) (TaintInfo, error)
	// Setup prepares the SUT for use. Idempotent.
	Setup(ctx context.Context) error
	// Communicate establishes (or re-establishes) a working connection
	// to the SUT. Idempotent.
	Communicate(ctx context.Context) error
	// Stop tears down any active connection and cancels any in-flight
	// RunCommand on this SUT. Idempotent.
	Stop(ctx context.Context) error
}

// MarkerWriter is an optional capability an SUT may implement to receive
// a best-effort kernel ring-buffer marker before each test launches, to
// help operators correlate dmesg output with test runs. An SUT that does
// not implement it is a silent no-op: the marker is never required for
// correctness.
type MarkerWriter interface {
	WriteMarker(ctx context.Context, marker string) error
}
