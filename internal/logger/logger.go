/**
 * @description
 * Structured logger for the Daily Pulse backend.
 * Info and warn messages go to stdout, errors to stderr, so hosted log
 * collectors don't label routine output as failures.
 *
 * @dependencies
 * - go.uber.org/zap
 */

package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.SugaredLogger

func init() {
	base = build(os.Getenv("GO_ENV") != "production", os.Stdout, os.Stderr)
}

// Configure rebuilds the package logger for the given environment.
// Development gets a console encoder, everything else JSON.
func Configure(env string) {
	base = build(env == "development" || env == "test", os.Stdout, os.Stderr)
}

func build(development bool, out, errOut io.Writer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if development {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.AddSync(out), low),
		zapcore.NewCore(enc, zapcore.AddSync(errOut), high),
	)

	return zap.New(core).Sugar()
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	base.Infof(format, v...)
}

// Warn logs a degraded-but-handled condition to stdout
func Warn(format string, v ...interface{}) {
	base.Warnf(format, v...)
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	base.Errorf(format, v...)
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	base.Fatalf(format, v...)
}

// With returns a child logger carrying structured fields, e.g. With("date", key).
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return base.With(keysAndValues...)
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = base.Sync()
}
