package logger

import "context"

// LoggerInterface is what services depend on. Only structured (key/value)
// methods are exposed.
type LoggerInterface interface {
	Debugw(msg string, kv ...any)
	Infow(msg string, kv ...any)
	Warnw(msg string, kv ...any)
	Errorw(msg string, kv ...any)

	InfowCtx(ctx context.Context, msg string, kv ...any)
	WarnwCtx(ctx context.Context, msg string, kv ...any)
	ErrorwCtx(ctx context.Context, msg string, kv ...any)

	With(kv ...any) LoggerInterface
	SafeSync()
}
