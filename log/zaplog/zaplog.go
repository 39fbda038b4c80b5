// Package zaplog adapts a zap logger to the cache.Logger interface used by
// the library packages.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/hanlinkhaing/accountd/cache"
)

// Adapter implements cache.Logger over *zap.Logger.
type Adapter struct {
	l *zap.Logger
}

// New wraps the given zap logger.
func New(l *zap.Logger) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{l: l}
}

func (a *Adapter) Debug(msg string, f cache.Fields) { a.l.Debug(msg, fields(f)...) }
func (a *Adapter) Warn(msg string, f cache.Fields)  { a.l.Warn(msg, fields(f)...) }
func (a *Adapter) Error(msg string, f cache.Fields) { a.l.Error(msg, fields(f)...) }

func fields(f cache.Fields) []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
