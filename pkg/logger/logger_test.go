package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		logLevel      string
		envLevel      string
		logFormat     string
		isDevelopment bool
		expectedLevel logrus.Level
		expectJSON    bool
	}{
		{
			name:          "production defaults",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
		{
			name:          "development defaults",
			isDevelopment: true,
			expectedLevel: logrus.DebugLevel,
			expectJSON:    false,
		},
		{
			name:          "development with json format",
			isDevelopment: true,
			logFormat:     "json",
			expectedLevel: logrus.DebugLevel,
			expectJSON:    true,
		},
		{
			name:          "explicit level wins over env",
			logLevel:      "error",
			envLevel:      "debug",
			expectedLevel: logrus.ErrorLevel,
			expectJSON:    true,
		},
		{
			name:          "env level used when none given",
			envLevel:      "warn",
			expectedLevel: logrus.WarnLevel,
			expectJSON:    true,
		},
		{
			name:          "invalid level defaults to info",
			logLevel:      "invalid",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
		{
			name:          "case insensitive level",
			logLevel:      "DEBUG",
			expectedLevel: logrus.DebugLevel,
			expectJSON:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envLevel)
			t.Setenv("LOG_FORMAT", tt.logFormat)

			var buf bytes.Buffer
			log := New(tt.logLevel, tt.isDevelopment, &buf)

			assert.Equal(t, tt.expectedLevel, log.GetLevel(), "log level mismatch")
			if tt.expectJSON {
				_, ok := log.Formatter.(*logrus.JSONFormatter)
				assert.True(t, ok, "expected JSON formatter")
			} else {
				_, ok := log.Formatter.(*logrus.TextFormatter)
				assert.True(t, ok, "expected text formatter")
			}
		})
	}
}

func TestStructuredFields(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	log := New("debug", false, &buf)

	WithProjectionContext(log, "proj-1", "p-23", "points").Info("projected")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "proj-1", entry["projection_id"])
	assert.Equal(t, "p-23", entry["player_id"])
	assert.Equal(t, "points", entry["stat_type"])
	assert.Equal(t, "projected", entry["msg"])
}

func TestWithTrainingContextOmitsEmptySeason(t *testing.T) {
	entry := WithTrainingContext(nil, "GENERAL", "assists", "")
	_, hasSeason := entry.Data["season"]
	assert.False(t, hasSeason)
	assert.Equal(t, "GENERAL", entry.Data["player_scope"])
	assert.Same(t, GetLogger(), entry.Logger)

	entry = WithTrainingContext(New("info", false, io.Discard), "p1", "points", "2024-25")
	assert.Equal(t, "2024-25", entry.Data["season"])
}

func TestGetLoggerReturnsInitialized(t *testing.T) {
	log := InitLogger("warn", false)
	assert.Same(t, log, GetLogger())
}
