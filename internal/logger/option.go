package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// leveledCore overrides the minimum level of a wrapped core.
type leveledCore struct {
	zapcore.Core

	// level is the minimum log level for this core to process messages.
	level zapcore.Level
}

// Enabled reports whether the overriding level accepts l.
func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds the core to a checked entry if the log entry level is enabled.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *leveledCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}

	return ce
}

// With keeps the overriding level on derived cores.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{
		c.Core.With(fields),
		c.level,
	}
}

// WithLevel is an option that replaces the minimum level of an existing logger,
// in either direction.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(
		func(core zapcore.Core) zapcore.Core {
			return &leveledCore{core, lvl}
		})
}

// WithNamedLevel names the context logger and, when level is known,
// pins that component to it regardless of the global level.
// An empty level only names the logger.
func WithNamedLevel(ctx context.Context, name, level string) context.Context {
	ctx = WithName(ctx, name)
	if level == "" {
		return ctx
	}

	lvl, ok := ParseLogLevel(level)
	if !ok {
		return ctx
	}

	return ToContext(ctx, FromContext(ctx).WithOptions(WithLevel(lvl)))
}
