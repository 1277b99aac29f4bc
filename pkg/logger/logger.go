package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	global *logrus.Logger
)

// InitLogger builds the process logger. An empty level falls back to LOG_LEVEL, then
// to debug in development and info otherwise. JSON output is used outside development
// or when LOG_FORMAT=json.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := New(logLevel, isDevelopment, os.Stdout)

	mu.Lock()
	global = log
	mu.Unlock()

	return log
}

// New builds a logger without touching the process-wide instance
func New(logLevel string, isDevelopment bool, out io.Writer) *logrus.Logger {
	log := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	log.SetOutput(out)
	return log
}

// GetLogger returns the process logger, initializing a production logger on first use
func GetLogger() *logrus.Logger {
	mu.RLock()
	log := global
	mu.RUnlock()
	if log != nil {
		return log
	}
	return InitLogger("", false)
}

// orGlobal falls back to the process logger when log is nil
func orGlobal(log *logrus.Logger) *logrus.Logger {
	if log == nil {
		return GetLogger()
	}
	return log
}

// WithProjectionContext scopes log to one projection request
func WithProjectionContext(log *logrus.Logger, projectionID, playerID, statType string) *logrus.Entry {
	return orGlobal(log).WithFields(logrus.Fields{
		"projection_id": projectionID,
		"player_id":     playerID,
		"stat_type":     statType,
	})
}

// WithTrainingContext scopes log to one model key; an empty season is omitted
func WithTrainingContext(log *logrus.Logger, playerScope, statType, season string) *logrus.Entry {
	fields := logrus.Fields{
		"player_scope": playerScope,
		"stat_type":    statType,
	}
	if season != "" {
		fields["season"] = season
	}
	return orGlobal(log).WithFields(fields)
}
