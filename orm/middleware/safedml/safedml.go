package safedml

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/startdusk/midgard/orm"
)

var ErrNoWhere = errors.New("safedml: 禁止执行没有 WHERE 的语句")

// MiddlewareBuilder 强制 UPDATE, DELETE 必须带 WHERE
// SELECT 要不要带自己抉择, 打开 SelectToo 之后没有 WHERE 也没有 LIMIT 的 SELECT 同样拒绝
type MiddlewareBuilder struct {
	selectToo bool
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

func (m *MiddlewareBuilder) SelectToo() *MiddlewareBuilder {
	m.selectToo = true
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if !m.check(qc) {
				return &orm.QueryResult{
					Err: fmt.Errorf("%w: %s", ErrNoWhere, qc.Type),
				}
			}
			return next(ctx, qc)
		}
	}
}

func (m *MiddlewareBuilder) check(qc *orm.QueryContext) bool {
	stmt := qc.Statement
	if stmt == nil {
		// RAW 查询只能看 SQL
		if qc.Query == nil {
			return true
		}
		sql := strings.ToUpper(strings.TrimSpace(qc.Query.SQL))
		if strings.HasPrefix(sql, "UPDATE") || strings.HasPrefix(sql, "DELETE") {
			return strings.Contains(sql, "WHERE")
		}
		return true
	}
	switch stmt.Kind {
	case orm.KindUpdate, orm.KindDelete:
		return stmt.HasWhere()
	case orm.KindSelect:
		return !m.selectToo || stmt.HasWhere() || stmt.Limit > 0
	default:
		return true
	}
}
