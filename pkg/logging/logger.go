package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of a zap core with JSON output
type ZapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewZapLogger creates a JSON logger writing to w
func NewZapLogger(w io.Writer, level Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), atom)
	return &ZapLogger{base: zap.New(core), level: atom}
}

// NewDefaultLogger creates a logger that writes to stdout at INFO level
func NewDefaultLogger() *ZapLogger {
	return NewZapLogger(os.Stdout, InfoLevel)
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// Debug logs a debug-level message
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.base.Debug(msg, toZap(fields)...)
}

// Info logs an info-level message
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.base.Info(msg, toZap(fields)...)
}

// Warn logs a warning-level message
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.base.Warn(msg, toZap(fields)...)
}

// Error logs an error-level message
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.base.Error(msg, toZap(fields)...)
}

// With creates a child logger with the given fields pre-set. The child
// shares the parent's level.
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{base: l.base.With(toZap(fields)...), level: l.level}
}

// SetLevel sets the minimum log level
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel returns the current log level
func (l *ZapLogger) GetLevel() Level {
	return fromZapLevel(l.level.Level())
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

// Zap exposes the underlying zap logger for libraries that want one
func (l *ZapLogger) Zap() *zap.Logger {
	return l.base
}

// Global default logger
var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
	once          sync.Once
)

// DefaultLogger returns the global default logger, configured from LOG_LEVEL
func DefaultLogger() Logger {
	once.Do(func() {
		level := InfoLevel
		if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewZapLogger(os.Stdout, level)
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Debug logs a debug-level message using the default logger
func Debug(msg string, fields ...Field) {
	DefaultLogger().Debug(msg, fields...)
}

// Info logs an info-level message using the default logger
func Info(msg string, fields ...Field) {
	DefaultLogger().Info(msg, fields...)
}

// Warn logs a warning-level message using the default logger
func Warn(msg string, fields ...Field) {
	DefaultLogger().Warn(msg, fields...)
}

// ErrorLog logs an error-level message using the default logger.
// Named ErrorLog to avoid conflict with the Error field constructor.
func ErrorLog(msg string, fields ...Field) {
	DefaultLogger().Error(msg, fields...)
}

// With creates a child of the default logger
func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at debug level with its duration
func (t *TimedOperation) End(fields ...Field) {
	t.logger.Debug(t.msg, t.with(fields)...)
}

// EndWithLevel logs the operation at the specified level with its duration
func (t *TimedOperation) EndWithLevel(level Level, msg string, fields ...Field) {
	all := t.with(fields)
	switch level {
	case DebugLevel:
		t.logger.Debug(msg, all...)
	case InfoLevel:
		t.logger.Info(msg, all...)
	case WarnLevel:
		t.logger.Warn(msg, all...)
	case ErrorLevel:
		t.logger.Error(msg, all...)
	}
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error, fields ...Field) {
	t.logger.Error(t.msg, append(t.with(fields), Error(err))...)
}

func (t *TimedOperation) with(fields []Field) []Field {
	all := make([]Field, 0, len(t.fields)+len(fields)+1)
	all = append(all, t.fields...)
	all = append(all, fields...)
	return append(all, Latency(time.Since(t.start)))
}
