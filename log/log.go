// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package level loggers on top of go-ethereum's log.
package log

import (
	"context"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger is go-ethereum's logger interface.
type Logger = ethlog.Logger

// WithContext returns a logger adding ctx to every record. It resolves the root
// logger on each call, so loggers declared at package level follow SetDefault.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) inner() Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...any) Logger {
	return &lazyLogger{ctx: append(append(make([]any, 0, len(l.ctx)+len(ctx)), l.ctx...), ctx...)}
}

func (l *lazyLogger) New(ctx ...any) Logger { return l.With(ctx...) }

func (l *lazyLogger) Log(level slog.Level, msg string, ctx ...any) {
	l.inner().Log(level, msg, ctx...)
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.inner().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.inner().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.inner().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.inner().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.inner().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...any)  { l.inner().Crit(msg, ctx...) }

func (l *lazyLogger) Write(level slog.Level, msg string, attrs ...any) {
	l.inner().Write(level, msg, attrs...)
}

func (l *lazyLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return ethlog.Root().Enabled(ctx, level)
}

func (l *lazyLogger) Handler() slog.Handler { return l.inner().Handler() }
