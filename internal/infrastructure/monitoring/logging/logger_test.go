package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestFieldConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "n", Value: int64(7)}, Int64("n", 7))
	assert.Equal(t, Field{Key: "f", Value: 1.5}, Float64("f", 1.5))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}

func TestLogger_EmitsFields(t *testing.T) {
	t.Parallel()

	log, logs := newObservedLogger(zapcore.DebugLevel)
	log.Info("session saved",
		String("session_id", "s1"),
		Int("keywords", 42),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "session saved", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "s1", fields["session_id"])
	assert.Equal(t, int64(42), fields["keywords"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	log, logs := newObservedLogger(zapcore.WarnLevel)
	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")
	log.Error("also visible")

	assert.Equal(t, 2, logs.Len())
}

func TestLogger_WithAddsPersistentFields(t *testing.T) {
	t.Parallel()

	log, logs := newObservedLogger(zapcore.InfoLevel)
	child := log.With(String("user_id", "u1"))
	child.Info("first")
	child.Info("second")
	log.Info("parent untouched")

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "u1", logs.All()[0].ContextMap()["user_id"])
	assert.Equal(t, "u1", logs.All()[1].ContextMap()["user_id"])
	assert.NotContains(t, logs.All()[2].ContextMap(), "user_id")
}

func TestLogger_Named(t *testing.T) {
	t.Parallel()

	log, logs := newObservedLogger(zapcore.InfoLevel)
	log.Named("research").Named("enhancer").Info("x")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "research.enhancer", logs.All()[0].LoggerName)
}

func TestNewLogger_InvalidOutputPath(t *testing.T) {
	t.Parallel()

	_, err := NewLogger(Config{OutputPaths: []string{"/nonexistent-dir-xyz/out.log"}})
	assert.Error(t, err)
}

func TestNewLogger_Defaults(t *testing.T) {
	t.Parallel()

	log, err := NewLogger(Config{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("anything-else"))
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log, _ := newObservedLogger(zapcore.InfoLevel)
	SetDefault(log)
	assert.Equal(t, log, Default())

	// nil is ignored
	SetDefault(nil)
	assert.Equal(t, log, Default())
}
