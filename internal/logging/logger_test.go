package logging

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/parity/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerTo_WritesJSON(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Sampling.Enabled = false

	var buf bytes.Buffer
	logger, err := NewLoggerTo(cfg, &buf)
	require.NoError(t, err)

	logger.Info(context.Background(), "hello", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"service":"parity"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = "syslog"

	_, err := NewLogger(cfg)
	require.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(config.LoggingConfig{Level: "trace", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	_, err = FromAppConfig(config.LoggingConfig{Level: "loud"})
	require.Error(t, err)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"trace", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"Warning", zapcore.WarnLevel, false},
		{" trace ", TraceLevel, false},
		{"", zapcore.InfoLevel, false},
		{"nonsense", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := LevelFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithWorkspace(ctx, "/work")
	ctx = WithTarget(ctx, "registers/style-register.json")

	logger := NewTestLogger()
	logger.Info(ctx, "evaluated")

	logger.AssertField(t, "evaluated", "session.id", "sess-1")
	logger.AssertField(t, "evaluated", "workspace.root", "/work")
	logger.AssertField(t, "evaluated", "event.target", "registers/style-register.json")
}

func TestWithSessionID_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithSessionID(context.Background(), "bad id!") })
	assert.Panics(t, func() { WithSessionID(context.Background(), "") })
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("9b2d6c1e-0f4a-4a57-9d59-1c1f3d0b6a11"))
	assert.Error(t, ValidateID("a/b"))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)
	assert.Same(t, logger.Logger, FromContext(ctx))
}

func TestTraceOnlyWhenEnabled(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	logger.Trace(context.Background(), "too verbose")
	logger.Debug(context.Background(), "visible")

	assert.Equal(t, 0, observed.FilterMessage("too verbose").Len())
	assert.Equal(t, 1, observed.FilterMessage("visible").Len())
}

func TestSampledCore_ErrorsNeverSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Second),
		Levels:  DefaultLevelSamplingConfig(),
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 200; i++ {
		logger.Error(context.Background(), "boom")
	}
	assert.Equal(t, 200, observed.FilterMessage("boom").Len())
}

func TestSampledCore_InfoSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.InfoLevel: {Initial: 5, Thereafter: 0},
		},
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 50; i++ {
		logger.Info(context.Background(), "repeat")
	}
	assert.Equal(t, 5, observed.FilterMessage("repeat").Len())
}

func TestSampledCore_RatePerLevel(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.WarnLevel: {Initial: 2, Thereafter: 0},
		},
	})
	logger := &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}

	for i := 0; i < 20; i++ {
		logger.Warn(context.Background(), "warned")
		logger.Debug(context.Background(), "unsampled")
	}
	assert.Equal(t, 2, observed.FilterMessage("warned").Len())
	assert.Equal(t, 20, observed.FilterMessage("unsampled").Len())
}

func TestSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}
