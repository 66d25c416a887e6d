package orm

import (
	"context"

	"github.com/startdusk/midgard/orm/internal/errs"
)

var _ QueryBuilder = &RawQuerier{}

// RawQuerier 手写的 SQL, 同样经过中间件
// ? 会换成当前方言的占位符, 切片参数展开成 ?, ?, ?
type RawQuerier struct {
	sess Session
	expr RawExpr
}

func RawQuery(sess Session, query string, args ...any) *RawQuerier {
	return &RawQuerier{
		sess: sess,
		expr: Raw(query, args...),
	}
}

func (r *RawQuerier) Build() (*Query, error) {
	if r.sess == nil {
		return nil, errs.ErrNoSession
	}
	c := r.sess.getCore()
	b := &sqlBuilder{dialect: c.dialect, cfg: c.compiler.Config()}
	b.buildRaw(r.expr)
	return &Query{
		SQL:  b.sb.String(),
		Args: b.args,
	}, nil
}

func (r *RawQuerier) All(ctx context.Context) (*ResultSet[Result], error) {
	q, err := r.Build()
	if err != nil {
		return nil, err
	}
	return query(ctx, r.sess, newQueryContext("RAW", nil, q))
}

func (r *RawQuerier) First(ctx context.Context) (Result, error) {
	rs, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := rs.First()
	if !ok {
		return nil, errs.ErrNoRows
	}
	return row, nil
}

func (r *RawQuerier) Exec(ctx context.Context) ExecResult {
	q, err := r.Build()
	if err != nil {
		return ExecResult{err: err}
	}
	return exec(ctx, r.sess, newQueryContext("RAW", nil, q))
}
