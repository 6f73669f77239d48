package scheduler

import (
	"strings"
	"sync"
)

// panicMarker is the literal substring that, once observed anywhere in a
// test's stdout, is treated as a kernel panic.
const panicMarker = "Kernel panic"

// captureSink is a streaming stdout observer. It accumulates every chunk
// written to it and, on first occurrence of panicMarker, freezes its
// buffer and invokes onPanic exactly once. Implementations should pass it
// as the sink to sut.SUT.RunCommand so panic detection happens live,
// rather than only after the command completes.
type captureSink struct {
	mu        sync.Mutex
	buf       strings.Builder
	triggered bool
	onPanic   func()
	fired     bool
}

func newCaptureSink(onPanic func()) *captureSink {
	return &captureSink{onPanic: onPanic}
}

// Write implements io.Writer.
func (s *captureSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	if s.triggered {
		s.mu.Unlock()
		return len(p), nil
	}
	s.buf.Write(p)
	fire := false
	if strings.Contains(s.buf.String(), panicMarker) {
		s.triggered = true
		fire = !s.fired
		s.fired = true
	}
	s.mu.Unlock()

	if fire && s.onPanic != nil {
		s.onPanic()
	}
	return len(p), nil
}

// panicked reports whether the panic marker was observed.
func (s *captureSink) panicked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggered
}

// captured returns everything written so far, frozen at the point the
// panic marker was first observed if it was observed at all.
func (s *captureSink) captured() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
