package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. Nil until Init succeeds.
var Logger *zap.Logger

// level is shared by every logger Init builds, so SetLevel applies after the fact
var level = zap.NewAtomicLevelAt(zapcore.DebugLevel)

var (
	fallbackOnce sync.Once
	fallback     *zap.Logger
)

// Init builds the process logger for env. "production" writes JSON at info level,
// anything else writes colored console lines at debug level. Both go to stderr:
// stdout carries the group list, the progress line and the summary table.
func Init(env string) error {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		level.SetLevel(zapcore.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level.SetLevel(zapcore.DebugLevel)
	}
	config.Level = level
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	built, err := config.Build()
	if err != nil {
		return err
	}
	Logger = built
	return nil
}

// SetLevel changes the minimum level of the logger built by Init
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level reports the current minimum level
func Level() zapcore.Level {
	return level.Level()
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the process logger, or a shared warn-level stderr logger before Init
func Get() *zap.Logger {
	if Logger != nil {
		return Logger
	}
	fallbackOnce.Do(func() {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		config.OutputPaths = []string{"stderr"}
		var err error
		if fallback, err = config.Build(); err != nil {
			fallback = zap.NewNop()
		}
	})
	return fallback
}
