package slowquery

import (
	"context"
	"log/slog"
	"time"

	"github.com/startdusk/midgard/orm"
)

type MiddlewareBuilder struct {
	logger *slog.Logger
	// 存在问题, SQL参数存在敏感数据不应该被打印出来
	logFunc func(query string, args []any, duration time.Duration)

	// 慢查询阈值, 设置需要考虑公司实际情况, 如100ms
	threshold time.Duration
}

func NewMiddlewareBuilder(threshold time.Duration) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		threshold: threshold,
	}
}

func (m *MiddlewareBuilder) Logger(logger *slog.Logger) *MiddlewareBuilder {
	m.logger = logger
	return m
}

func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any, duration time.Duration)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	logger := m.logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				// 不是慢查询
				if duration <= m.threshold || qc.Query == nil {
					return
				}
				if m.logFunc != nil {
					m.logFunc(qc.Query.SQL, qc.Query.Args, duration)
					return
				}
				logger.LogAttrs(ctx, slog.LevelWarn, "orm: slow query",
					slog.String("id", qc.ID),
					slog.String("type", qc.Type),
					slog.String("table", qc.Table),
					slog.String("sql", qc.Query.SQL),
					slog.Duration("duration", duration),
				)
			}()

			// 不调用next就是dry run
			return next(ctx, qc)
		}
	}
}
