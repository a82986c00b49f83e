// Package logctx carries ambient structured log fields through a
// context.Context and provides the call logger used by the Lambda pipelines.
//
// Bindings are scoped to the derived context: code that receives the derived
// context sees the merged field set, while the parent context's view is
// untouched on every exit path, including panics. Sibling goroutines that
// derive from their own contexts never observe each other's bindings.
package logctx

import (
	"context"

	"github.com/sirupsen/logrus"
)

type fieldsKey struct{}

type loggerKey struct{}

// Bind returns a context whose visible field set is the parent's merged with
// fields, the new values winning on key collision. Nesting is unlimited.
func Bind(ctx context.Context, fields logrus.Fields) context.Context {
	parent := fieldsFrom(ctx)
	merged := make(logrus.Fields, len(parent)+len(fields))
	for k, v := range parent {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// Fields returns a copy of the ambient field set visible from ctx.
func Fields(ctx context.Context) logrus.Fields {
	bound := fieldsFrom(ctx)
	out := make(logrus.Fields, len(bound))
	for k, v := range bound {
		out[k] = v
	}
	return out
}

func fieldsFrom(ctx context.Context) logrus.Fields {
	if f, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
		return f
	}
	return nil
}

// WithLogger returns a context that carries logger for use by Logger.
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns an entry on the context's logger (or the standard logger)
// pre-loaded with the ambient fields visible from ctx.
func Logger(ctx context.Context) *logrus.Entry {
	base, ok := ctx.Value(loggerKey{}).(*logrus.Logger)
	if !ok {
		base = logrus.StandardLogger()
	}
	return base.WithContext(ctx).WithFields(fieldsFrom(ctx))
}

// ContextHook merges ambient fields into entries logged with WithContext,
// so code holding only a plain logger still picks up the bound context.
// Fields set explicitly on the entry win.
type ContextHook struct{}

// Levels implements logrus.Hook.
func (ContextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (ContextHook) Fire(entry *logrus.Entry) error {
	if entry.Context == nil {
		return nil
	}
	for k, v := range fieldsFrom(entry.Context) {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
