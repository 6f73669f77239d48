package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirk/kerrors"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestStructuredLogger_LevelGating(t *testing.T) {
	cases := []struct {
		name     string
		min      LogLevel
		log      func(l *StructuredLogger)
		want     LogLevel
		suppress bool
	}{
		{"debug below info is suppressed", LogLevelInfo, func(l *StructuredLogger) { l.Debug("reboot skipped") }, "", true},
		{"info at info level logs", LogLevelInfo, func(l *StructuredLogger) { l.Info("suite scheduled") }, LogLevelInfo, false},
		{"warn at info level logs", LogLevelInfo, func(l *StructuredLogger) { l.Warn("kernel tainted") }, LogLevelWarn, false},
		{"debug at debug level logs", LogLevelDebug, func(l *StructuredLogger) { l.Debug("dispatching test") }, LogLevelDebug, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewStructuredLogger(tc.min, &buf)
			tc.log(logger)

			if tc.suppress {
				assert.Empty(t, buf.String())
				return
			}
			require.NotEmpty(t, buf.String())
			assert.Equal(t, tc.want, decodeEntry(t, &buf).Level)
		})
	}
}

func TestStructuredLogger_ErrorCarriesCause(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	cause := kerrors.NewKernelPanicError("oops not syncing", errors.New("exit status -1"))
	logger.Error("test run aborted", cause)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, LogLevelError, entry.Level)
	assert.Equal(t, "test run aborted", entry.Message)
	assert.Equal(t, cause.Error(), entry.Error)
}

func TestStructuredLogger_SchedulerFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	logger.Warn("kernel health failure, rebooting sut",
		SuiteField("boot-stress"),
		TestField("reboot-loop-3"),
		KernelEventField(kerrors.ErrTypeKernelTainted),
		RebootField(4))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "boot-stress", entry.Fields["suite"])
	assert.Equal(t, "reboot-loop-3", entry.Fields["test"])
	assert.Equal(t, string(kerrors.ErrTypeKernelTainted), entry.Fields["kernel_event"])
	assert.Equal(t, float64(4), entry.Fields["reboot_count"])
}

func TestStructuredLogger_With_CarriesBaseFieldsForward(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	suiteLogger := logger.With(SuiteField("smoke"))
	suiteLogger.Info("dispatching batch", TestField("ping"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "smoke", entry.Fields["suite"])
	assert.Equal(t, "ping", entry.Fields["test"])

	// The parent logger itself must not have picked up the child's fields.
	buf.Reset()
	logger.Info("unrelated message")
	entry = decodeEntry(t, &buf)
	assert.Nil(t, entry.Fields)
}

func TestStructuredLogger_DurationFieldFormatsAsGoDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	logger.Info("exec complete", Duration("exec_time", 1500000000))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "1.5s", entry.Fields["exec_time"])
}

func TestStructuredLogger_AnyFieldRoundTripsStructuredValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	logger.Info("taint observed", Any("reasons", []string{"proprietary_module", "forced_load"}))

	entry := decodeEntry(t, &buf)
	reasons, ok := entry.Fields["reasons"].([]interface{})
	require.True(t, ok)
	require.Len(t, reasons, 2)
	assert.Equal(t, "proprietary_module", reasons[0])
}

func TestStructuredLogger_NoFieldsOmitsFieldsKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	logger.Info("scheduler idle")

	entry := decodeEntry(t, &buf)
	assert.Nil(t, entry.Fields)
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":      LogLevelDebug,
		"info":       LogLevelInfo,
		"warn":       LogLevelWarn,
		"warning":    LogLevelWarn,
		"error":      LogLevelError,
		"":           LogLevelInfo,
		"nonsense":   LogLevelInfo,
		"emergency!": LogLevelInfo,
	}

	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ParseLogLevel(input))
		})
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerFromConfig(&LoggerConfig{Level: LogLevelWarn, Output: &buf})

	logger.Info("suite scheduled")
	assert.Empty(t, buf.String(), "info should be gated out below warn")

	logger.Warn("kernel tainted")
	require.NotEmpty(t, buf.String())
	assert.Equal(t, LogLevelWarn, decodeEntry(t, &buf).Level)
}

func TestNewLoggerFromConfig_NilAndEmptyFallBackToDefaults(t *testing.T) {
	assert.NotNil(t, NewLoggerFromConfig(nil))
	assert.NotNil(t, NewLoggerFromConfig(&LoggerConfig{}))
}

func TestNoopLogger_NeverWrites(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x", errors.New("boom"))
	assert.Equal(t, NoopLogger{}, l.With(SuiteField("s1")))
}

func BenchmarkStructuredLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(LogLevelInfo, &buf)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("dispatching test", SuiteField("bench"), TestField("case"), RebootField(i))
		buf.Reset()
	}
}
