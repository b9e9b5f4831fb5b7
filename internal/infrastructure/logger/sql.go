package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowSQL is used when no slow statement threshold is configured
const DefaultSlowSQL = 200 * time.Millisecond

// SQLLogger is a gorm logger writing through zap. Statements carry the request id
// from ctx, so a ledger scan can be matched to the report request that issued it.
type SQLLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration // 0 disables slow statement warnings
}

var _ gormlogger.Interface = (*SQLLogger)(nil)

// NewSQLLogger maps the application level name (silent, error, warn, info, debug) onto gorm's levels
func NewSQLLogger(log *zap.Logger, level string, slow time.Duration) *SQLLogger {
	return &SQLLogger{log: log.Named("sql"), level: SQLLevel(level), slow: slow}
}

// SQLLevel maps an application level name onto a gorm log level; unknown names map to warn
func SQLLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, args)
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, args)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, args)
}

func (l *SQLLogger) printf(ctx context.Context, min gormlogger.LogLevel, lvl zapcore.Level, msg string, args []any) {
	if l.level < min {
		return
	}
	log := l.log
	if id := GetRequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	log.Sugar().Logf(lvl, msg, args...)
}

// Trace logs a finished statement: failures at error, slow ones at warn and the rest at debug.
// A missing record is an expected outcome, not a failure.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow

	var (
		lvl zapcore.Level
		msg string
	)
	switch {
	case failed && l.level >= gormlogger.Error:
		lvl, msg = zapcore.ErrorLevel, "sql failed"
	case slow && l.level >= gormlogger.Warn:
		lvl, msg = zapcore.WarnLevel, "slow sql"
	case !failed && l.level >= gormlogger.Info:
		lvl, msg = zapcore.DebugLevel, "sql"
	default:
		return
	}

	stmt, rows := fc()
	fields := []zap.Field{zap.String("sql", stmt), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed)}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if failed {
		fields = append(fields, zap.Error(err))
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", l.slow))
	}
	l.log.Log(lvl, msg, fields...)
}
