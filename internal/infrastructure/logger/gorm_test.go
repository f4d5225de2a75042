package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func observedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func invoiceQuery() (string, int64) {
	return "SELECT * FROM invoices WHERE status = 'SENT'", 3
}

func TestNewGormLoggerDefaults(t *testing.T) {
	gl, _ := observedGormLogger(gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gl.level)
	assert.Equal(t, defaultSlowThreshold, gl.slowThreshold)
	assert.True(t, gl.skipRecordNotFound)
}

func TestGormLoggerOptions(t *testing.T) {
	gl, _ := observedGormLogger(
		gormlogger.Warn,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.skipRecordNotFound)
}

func TestGormLogger_LogModeClones(t *testing.T) {
	gl, _ := observedGormLogger(gormlogger.Info)

	clone, ok := gl.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Error, clone.level)
	assert.Equal(t, gormlogger.Info, gl.level)
}

func TestGormLogger_LevelGating(t *testing.T) {
	tests := []struct {
		name  string
		level gormlogger.LogLevel
		log   func(gl *GormLogger)
		want  int
	}{
		{"info at info", gormlogger.Info, func(gl *GormLogger) {
			gl.Info(context.Background(), "migrated %d tables", 4)
		}, 1},
		{"info suppressed at warn", gormlogger.Warn, func(gl *GormLogger) {
			gl.Info(context.Background(), "migrated %d tables", 4)
		}, 0},
		{"warn at warn", gormlogger.Warn, func(gl *GormLogger) {
			gl.Warn(context.Background(), "connection pool nearly exhausted")
		}, 1},
		{"error at error", gormlogger.Error, func(gl *GormLogger) {
			gl.Error(context.Background(), "constraint violation on %s", "payments")
		}, 1},
		{"error suppressed at silent", gormlogger.Silent, func(gl *GormLogger) {
			gl.Error(context.Background(), "constraint violation")
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := observedGormLogger(tt.level)
			tt.log(gl)
			assert.Len(t, recorded.All(), tt.want)
		})
	}
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), invoiceQuery, errors.New("pq: deadlock detected"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "SQL Error", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)

	ctx := logs[0].ContextMap()
	assert.Equal(t, "SELECT * FROM invoices WHERE status = 'SENT'", ctx["sql"])
}

func TestGormLogger_Trace_RecordNotFoundSkipped(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(true))

	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM bills WHERE id = $1", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))

	gl.Trace(context.Background(), time.Now().Add(-time.Second), invoiceQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "Slow SQL", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)

	ctx := logs[0].ContextMap()
	assert.Equal(t, time.Nanosecond, ctx["threshold"])
}

func TestGormLogger_Trace_Query(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), invoiceQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "SQL Query", logs[0].Message)
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)

	ctx := logs[0].ContextMap()
	assert.Equal(t, int64(3), ctx["rows"])
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), invoiceQuery, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_RequestID(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-7f3a")
	gl.Trace(ctx, time.Now(), invoiceQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "req-7f3a", logs[0].ContextMap()["request_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"trace", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.level))
		})
	}
}
