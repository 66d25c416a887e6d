package nodelete

import (
	"context"
	"errors"
	"strings"

	"github.com/startdusk/midgard/orm"
)

var ErrDeleteForbidden = errors.New("nodelete: 禁止使用DELETE语句")

// MiddlewareBuilder 禁用 DELETE 语句, 如只允许软删除的库
type MiddlewareBuilder struct {
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if qc.Type == "DELETE" || qc.Type == "RAW" && isDelete(qc.Query) {
				return &orm.QueryResult{
					Err: ErrDeleteForbidden,
				}
			}
			return next(ctx, qc)
		}
	}
}

func isDelete(q *orm.Query) bool {
	if q == nil {
		return false
	}
	sql := strings.TrimSpace(q.SQL)
	return len(sql) >= 6 && strings.EqualFold(sql[:6], "DELETE")
}
