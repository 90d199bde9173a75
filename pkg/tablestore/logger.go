package tablestore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQuery is the duration above which a statement is logged as slow
const slowQuery = 200 * time.Millisecond

// gormLogger routes gorm's logging into slog
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
}

func newGormLogger(l *slog.Logger) *gormLogger {
	return &gormLogger{log: l, level: logger.Warn}
}

// LogMode sets the log level
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, msg, "data", data)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, msg, "data", data)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, msg, "data", data)
	}
}

// Trace logs one SQL statement
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{"sql", sql, "rows", rows, "elapsed", elapsed}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		l.log.ErrorContext(ctx, "sql failed", append(attrs, "error", err)...)
	case elapsed > slowQuery && l.level >= logger.Warn:
		l.log.WarnContext(ctx, "slow sql", append(attrs, "threshold", slowQuery)...)
	case l.level >= logger.Info:
		l.log.DebugContext(ctx, "sql", attrs...)
	}
}
