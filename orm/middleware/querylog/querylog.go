package querylog

import (
	"context"
	"log/slog"

	"github.com/startdusk/midgard/orm"
)

type MiddlewareBuilder struct {
	logger *slog.Logger
	// 存在问题, SQL参数存在敏感数据不应该被打印出来
	// 默认不打印参数, 需要时显式打开
	logArgs bool
	logFunc func(query string, args []any)
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (m *MiddlewareBuilder) Logger(logger *slog.Logger) *MiddlewareBuilder {
	m.logger = logger
	return m
}

func (m *MiddlewareBuilder) LogArgs() *MiddlewareBuilder {
	m.logArgs = true
	return m
}

// LogFunc 不用 slog, 自己处理 SQL 和参数
func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
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
			if qc.Query == nil {
				return next(ctx, qc)
			}
			if m.logFunc != nil {
				m.logFunc(qc.Query.SQL, qc.Query.Args)
				return next(ctx, qc)
			}
			attrs := []slog.Attr{
				slog.String("id", qc.ID),
				slog.String("type", qc.Type),
				slog.String("table", qc.Table),
				slog.String("sql", qc.Query.SQL),
			}
			if m.logArgs {
				attrs = append(attrs, slog.Any("args", qc.Query.Args))
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "orm: query", attrs...)
			return next(ctx, qc)
		}
	}
}
