package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger passed through webfunc.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	// WithContext adds the request fields stored in ctx.
	WithContext(ctx context.Context) Logger
	Sync() error
}

// Field is a structured log field.
type Field = zap.Field

// Field constructors.
var (
	String   = zap.String
	Int      = zap.Int
	Float64  = zap.Float64
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// LogConfig selects the level and encoding of a logger. Empty values mean
// info and json.
type LogConfig struct {
	Level  string
	Format string
}

// NewLogger builds a logger writing to stdout.
func NewLogger(cfg LogConfig) (Logger, error) {
	return newLogger(cfg, os.Stdout)
}

// NewLoggerWithWriter builds a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) (Logger, error) {
	return newLogger(LogConfig{Level: level, Format: FormatJSON}, w)
}

func newLogger(cfg LogConfig, w io.Writer) (Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", FormatJSON:
		encoder = zapcore.NewJSONEncoder(enc)
	case FormatConsole:
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return &zapLogger{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return &zapLogger{z: zap.NewNop()}
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }
func (l *zapLogger) Sync() error                       { return l.z.Sync() }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

func (l *zapLogger) WithContext(ctx context.Context) Logger {
	fields := requestFieldsFrom(ctx).fields()
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// requestFields identify the request a log line belongs to.
type requestFields struct {
	transactionID string
	traceID       string
	spanID        string
}

type requestFieldsKey struct{}

func requestFieldsFrom(ctx context.Context) requestFields {
	rf, _ := ctx.Value(requestFieldsKey{}).(requestFields)
	return rf
}

func withRequestFields(ctx context.Context, rf requestFields) context.Context {
	return context.WithValue(ctx, requestFieldsKey{}, rf)
}

func (rf requestFields) fields() []Field {
	var fields []Field
	if rf.transactionID != "" {
		fields = append(fields, String("transaction_id", rf.transactionID))
	}
	if rf.traceID != "" {
		fields = append(fields, String("trace_id", rf.traceID))
	}
	if rf.spanID != "" {
		fields = append(fields, String("span_id", rf.spanID))
	}
	return fields
}

// ContextWithTransactionID stores the request transaction id for loggers
// derived with WithContext.
func ContextWithTransactionID(ctx context.Context, id string) context.Context {
	rf := requestFieldsFrom(ctx)
	rf.transactionID = id
	return withRequestFields(ctx, rf)
}

// TransactionIDFromContext returns the stored transaction id, or "".
func TransactionIDFromContext(ctx context.Context) string {
	return requestFieldsFrom(ctx).transactionID
}
