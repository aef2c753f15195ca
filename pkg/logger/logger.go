// Package logger provides a zap-based application logger.
package logger

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity that gets written.
type Level int8

const (
	LevelDebug Level = Level(zapcore.DebugLevel)
	LevelInfo  Level = Level(zapcore.InfoLevel)
	LevelWarn  Level = Level(zapcore.WarnLevel)
	LevelError Level = Level(zapcore.ErrorLevel)
)

// ParseLevel maps a level name onto a Level, defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// TraceIDFn extracts a trace id from a context.
type TraceIDFn func(ctx context.Context) string

// Logger writes structured JSON lines tagged with the service name and,
// when available, the trace id of the request.
type Logger struct {
	sugar   *zap.SugaredLogger
	traceID TraceIDFn
}

// New constructs a Logger writing to w.
func New(w io.Writer, level Level, service string, traceID TraceIDFn) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zapcore.Level(level),
	)
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).With(zap.String("service", service))
	return &Logger{sugar: z.Sugar(), traceID: traceID}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(kv...), traceID: l.traceID}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.write(ctx, zapcore.DebugLevel, msg, kv)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.write(ctx, zapcore.InfoLevel, msg, kv)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.write(ctx, zapcore.WarnLevel, msg, kv)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.write(ctx, zapcore.ErrorLevel, msg, kv)
}

// Printf logs a formatted message at info level. It lets the logger stand in
// for libraries that expect a printf-style callback.
func (l *Logger) Printf(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Errorf logs a formatted message at error level, for libraries that report
// failures through a printf-style callback.
func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) write(ctx context.Context, lvl zapcore.Level, msg string, kv []any) {
	if l.traceID != nil && ctx != nil {
		if id := l.traceID(ctx); id != "" {
			kv = append(kv, "trace_id", id)
		}
	}
	switch lvl {
	case zapcore.DebugLevel:
		l.sugar.Debugw(msg, kv...)
	case zapcore.WarnLevel:
		l.sugar.Warnw(msg, kv...)
	case zapcore.ErrorLevel:
		l.sugar.Errorw(msg, kv...)
	default:
		l.sugar.Infow(msg, kv...)
	}
}
