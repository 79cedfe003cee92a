package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

type Logger struct {
	*zap.SugaredLogger
}

// Init is New that exits the process on failure; for main only.
func Init(serviceName, env, level string) *Logger {
	l, err := New(serviceName, env, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return l
}

// New builds a zap logger for env ("development", "debug", "production").
// A non-empty level ("debug", "info", "warn", "error") overrides the
// environment default.
func New(serviceName, env, level string) (*Logger, error) {
	cfg, withCaller := buildConfig(env)
	if level = strings.TrimSpace(level); level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	z, err := cfg.Build(zap.WithCaller(withCaller), zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("cannot init zap logger: %w", err)
	}
	return FromZap(z.Named(serviceName)), nil
}

// FromZap wraps an existing zap logger (tests pass an observer core here).
func FromZap(z *zap.Logger) *Logger {
	return &Logger{SugaredLogger: z.Sugar()}
}

func Nop() *Logger {
	return FromZap(zap.NewNop())
}

func buildConfig(env string) (zap.Config, bool) {
	var cfg zap.Config
	withCaller := false

	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	case "debug":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		withCaller = true
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableStacktrace = true
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.CallerKey = zapcore.OmitKey
	if withCaller {
		cfg.EncoderConfig.CallerKey = "caller"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}

	return cfg, withCaller
}

func (l *Logger) With(kv ...any) LoggerInterface {
	return &Logger{SugaredLogger: l.SugaredLogger.With(kv...)}
}

func (l *Logger) SafeSync() {
	if l == nil {
		return
	}
	if err := l.Desugar().Sync(); err != nil && !isIgnorableSyncError(err) {
		l.Errorw("log sync error", "error", err)
	}
}

// stdout on a terminal or pipe rejects fsync.
func isIgnorableSyncError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "invalid argument") ||
		strings.Contains(s, "inappropriate ioctl for device")
}

func (l *Logger) Debugw(m string, kv ...any) { l.SugaredLogger.Debugw(m, kv...) }
func (l *Logger) Infow(m string, kv ...any)  { l.SugaredLogger.Infow(m, kv...) }
func (l *Logger) Warnw(m string, kv ...any)  { l.SugaredLogger.Warnw(m, kv...) }
func (l *Logger) Errorw(m string, kv ...any) { l.SugaredLogger.Errorw(m, kv...) }

func (l *Logger) InfowCtx(ctx context.Context, msg string, kv ...any) {
	l.SugaredLogger.Infow(msg, appendContextFields(ctx, kv)...)
}

func (l *Logger) WarnwCtx(ctx context.Context, msg string, kv ...any) {
	l.SugaredLogger.Warnw(msg, appendContextFields(ctx, kv)...)
}

func (l *Logger) ErrorwCtx(ctx context.Context, msg string, kv ...any) {
	l.SugaredLogger.Errorw(msg, appendContextFields(ctx, kv)...)
}

func appendContextFields(ctx context.Context, kv []any) []any {
	if ctx == nil {
		return kv
	}
	if id := RequestID(ctx); id != "" {
		kv = append(kv, "request_id", id)
	}
	return kv
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}
