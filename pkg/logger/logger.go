package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log defaults to a no-op logger so packages can log before Init (tests, tools)
	Log = zap.NewNop()
)

type options struct {
	service    string
	jsonStdout bool
}

// Option tweaks Init
type Option func(*options)

// WithService stamps every entry with a "service" field
func WithService(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

// WithFormat selects the stdout encoding: "json" for log collectors, anything
// else for the human-readable console encoder
func WithFormat(format string) Option {
	return func(o *options) {
		o.jsonStdout = format == "json"
	}
}

// Init initializes the global logger. An unknown level falls back to info.
// The optional file always receives JSON.
func Init(level string, logFile string, opts ...Option) error {
	core, err := newCore(level, logFile, os.Stdout, opts...)
	if err != nil {
		return err
	}

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

func newCore(level, logFile string, stdout zapcore.WriteSyncer, opts ...Option) (zapcore.Core, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	stdoutEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	if o.jsonStdout {
		stdoutEncoder = zapcore.NewJSONEncoder(encoderConfig)
	}
	cores := []zapcore.Core{zapcore.NewCore(stdoutEncoder, stdout, zapLevel)}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), zapLevel))
	}

	core := zapcore.NewTee(cores...)
	if o.service != "" {
		core = core.With([]zap.Field{zap.String("service", o.service)})
	}
	return core, nil
}

// InitNop resets the global logger to a no-op logger
func InitNop() {
	Log = zap.NewNop()
}

// Named returns a child logger for a component
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Info logs info message
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Debug logs debug message
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Warn logs warning message
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs error message
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// Fatal logs fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}
