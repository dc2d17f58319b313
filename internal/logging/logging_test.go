package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{name: "trace level", mutate: func(c *Config) { c.Level = "trace" }},
		{name: "console format", mutate: func(c *Config) { c.Format = "console" }},
		{name: "unknown level", mutate: func(c *Config) { c.Level = "verbose" }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true},
		{name: "negative caller skip", mutate: func(c *Config) { c.Caller.Skip = -1 }, wantErr: true},
		{name: "empty field key", mutate: func(c *Config) { c.Fields = map[string]string{"": "x"} }, wantErr: true},
		{name: "empty field value", mutate: func(c *Config) { c.Fields = map[string]string{"k": ""} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "trace", want: TraceLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := LevelFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := New(cfg)

	assert.Error(t, err)
}

func TestNew_LevelFiltering(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = "warn"

	logger, err := New(cfg)
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewTestLogger_RecordsEntries(t *testing.T) {
	logger, observed := NewTestLogger()

	logger.Info("pipeline started")
	logger.Debug("stage output recorded")

	assert.Equal(t, 1, observed.FilterMessage("pipeline started").Len())
	assert.Equal(t, 1, observed.FilterMessage("stage output recorded").Len())
}
