// Package logger provides the process-wide structured logger. It wraps a
// zap.SugaredLogger behind a small set of level functions so callers never
// import zap directly, and behind an atomic singleton so tests can swap the
// underlying logger without a global constructor call.
package logger

import (
	"os"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(mustBuild(unstructuredLogs()).Sugar())
}

// unstructuredLogsEnv is the environment variable that switches the default
// logger between a human-readable console encoder and structured JSON.
// Unset or unparseable values default to unstructured, matching local dev
// expectations; CI and production set it to "false".
const unstructuredLogsEnv = "CAPTUREQUEUE_UNSTRUCTURED_LOGS"

func unstructuredLogs() bool {
	v := os.Getenv(unstructuredLogsEnv)
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func mustBuild(unstructured bool) *zap.Logger {
	var cfg zap.Config
	if unstructured {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Building a logger from a hardcoded, known-valid config cannot
		// realistically fail; a fallback avoids a nil singleton either way.
		return zap.NewNop()
	}
	return l
}

// Initialize rebuilds the singleton logger from the environment. Called once
// by cobra's PersistentPreRun before any subcommand runs.
func Initialize() {
	singleton.Store(mustBuild(unstructuredLogs()).Sugar())
}

// Get returns the current process-wide logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

func Debug(args ...any)                 { Get().Debug(args...) }
func Debugf(format string, args ...any) { Get().Debugf(format, args...) }
func Debugw(msg string, kv ...any)      { Get().Debugw(msg, kv...) }

func Info(args ...any)                 { Get().Info(args...) }
func Infof(format string, args ...any) { Get().Infof(format, args...) }
func Infow(msg string, kv ...any)      { Get().Infow(msg, kv...) }

func Warn(args ...any)                 { Get().Warn(args...) }
func Warnf(format string, args ...any) { Get().Warnf(format, args...) }
func Warnw(msg string, kv ...any)      { Get().Warnw(msg, kv...) }

func Error(args ...any)                 { Get().Error(args...) }
func Errorf(format string, args ...any) { Get().Errorf(format, args...) }
func Errorw(msg string, kv ...any)      { Get().Errorw(msg, kv...) }

func Panic(args ...any)                 { Get().Panic(args...) }
func Panicf(format string, args ...any) { Get().Panicf(format, args...) }
func Panicw(msg string, kv ...any)      { Get().Panicw(msg, kv...) }
