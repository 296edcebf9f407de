// Package logging is the structured logging facade. Components depend on
// Logger and receive it through their constructors; only this package
// imports zap.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fields
// ─────────────────────────────────────────────────────────────────────────────

// Field is one key/value pair of a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Strings(key string, val []string) Field       { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field            { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field        { return Field{Key: key, Value: val} }

// Err records err under "error". A nil err is logged as "<nil>".
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// JobID and TenantID use the keys dashboards filter scan traffic on.
func JobID(id string) Field    { return Field{Key: "job_id", Value: id} }
func TenantID(id string) Field { return Field{Key: "tenant_id", Value: id} }

func (f Field) toZap() zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case []string:
		return zap.Strings(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case error:
		return zap.NamedError(f.Key, v)
	default:
		return zap.Any(f.Key, v)
	}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = f.toZap()
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Logger
// ─────────────────────────────────────────────────────────────────────────────

// Logger is the structured logging contract every component is built with.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	// Warn is for conditions the scan path recovered from, such as a vision
	// provider replaced by its fallback.
	Warn(msg string, fields ...Field)
	// Error is for a failed scan or request; the process keeps running.
	Error(msg string, fields ...Field)
	// Fatal exits the process. Startup only.
	Fatal(msg string, fields ...Field)

	// With returns a child that adds fields to every entry; the receiver is
	// unchanged.
	With(fields ...Field) Logger
	WithError(err error) Logger
	// Named appends name to the logger path with a dot separator.
	Named(name string) Logger
	Sync() error
}

// LogConfig is the log section of the service config.
type LogConfig struct {
	// Level is debug, info, warn or error; anything else means info.
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	// Format is json or console.
	Format           string   `mapstructure:"format" yaml:"format" json:"format"`
	OutputPaths      []string `mapstructure:"output_paths" yaml:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" yaml:"error_output_paths" json:"error_output_paths"`
	// Service, when set, is attached to every entry as "service".
	Service string `mapstructure:"service" yaml:"service" json:"service"`
	// Sampling caps repeated identical entries per second, which keeps a
	// flapping vision provider from flooding the sink.
	Sampling bool `mapstructure:"sampling" yaml:"sampling" json:"sampling"`
}

type zapLogger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, zapFields(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, zapFields(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, zapFields(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, zapFields(fields)...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, zapFields(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(zapFields(fields)...), level: l.level}
}

func (l *zapLogger) WithError(err error) Logger { return l.With(Err(err)) }

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name), level: l.level}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn, "warning":
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a zap logger from cfg. Empty outputs default to stdout
// and stderr.
func NewLogger(cfg LogConfig) (Logger, error) {
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	zc := zap.NewProductionConfig()
	zc.EncoderConfig = zap.NewProductionEncoderConfig()
	if strings.EqualFold(cfg.Format, "console") {
		zc.Development = true
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zc.OutputPaths = cfg.OutputPaths
	zc.ErrorOutputPaths = cfg.ErrorOutputPaths
	zc.Sampling = nil
	if cfg.Sampling {
		zc.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}
	if cfg.Service != "" {
		zc.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &zapLogger{z: z, level: zc.Level}, nil
}

// SetLevel changes the threshold of a logger built by NewLogger. It reports
// false for any other implementation.
func SetLevel(l Logger, level string) bool {
	zl, ok := l.(*zapLogger)
	if ok {
		zl.level.SetLevel(parseLevel(level))
	}
	return ok
}

// ─────────────────────────────────────────────────────────────────────────────
// No-op and process default
// ─────────────────────────────────────────────────────────────────────────────

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)   {}
func (nopLogger) Info(string, ...Field)    {}
func (nopLogger) Warn(string, ...Field)    {}
func (nopLogger) Error(string, ...Field)   {}
func (nopLogger) Fatal(string, ...Field)   {}
func (n nopLogger) With(...Field) Logger   { return n }
func (n nopLogger) WithError(error) Logger { return n }
func (n nopLogger) Named(string) Logger    { return n }
func (nopLogger) Sync() error              { return nil }

// NewNopLogger discards everything.
func NewNopLogger() Logger { return nopLogger{} }

type holder struct{ l Logger }

var defaultLogger atomic.Pointer[holder]

func init() { defaultLogger.Store(&holder{l: nopLogger{}}) }

// SetDefault installs the process logger. Nil is ignored.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(&holder{l: l})
	}
}

// Default returns the process logger, a no-op until SetDefault runs.
func Default() Logger { return defaultLogger.Load().l }

//Personal.AI order the ending
