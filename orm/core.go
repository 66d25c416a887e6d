package orm

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/startdusk/midgard/orm/internal/valuer"
	"github.com/startdusk/midgard/orm/model"
)

type core struct {
	dialect  Dialect
	compiler *Compiler
	r        model.Registry
	mdls     []Middleware
	log      *queryLog

	uniqueViolations []func(err error) bool
}

func newQueryContext(typ string, stmt *Statement, q *Query) *QueryContext {
	qc := &QueryContext{
		Type:      typ,
		ID:        uuid.NewString(),
		Statement: stmt,
		Query:     q,
	}
	if stmt != nil {
		qc.Table = stmt.Table
	}
	return qc
}

func markTx(sess Session, qc *QueryContext) {
	if tx, ok := sess.(*Tx); ok {
		qc.Tx = tx
	}
}

func (c core) chain(root Handler) Handler {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root
}

// query 结果是 *ResultSet[Result]
func query(ctx context.Context, sess Session, qc *QueryContext) (*ResultSet[Result], error) {
	c := sess.getCore()
	markTx(sess, qc)
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return queryHandler(ctx, sess, c, qc)
	}
	res := c.chain(root)(ctx, qc)
	if res.Err != nil {
		return nil, res.Err
	}
	rs, ok := res.Result.(*ResultSet[Result])
	if !ok || rs == nil {
		return NewResultSet[Result](), nil
	}
	return rs, nil
}

func queryHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	start := time.Now()
	rows, err := sess.queryContext(ctx, qc.Query.SQL, qc.Query.Args...)
	c.log.record(qc.Query, start)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer func() {
		_ = rows.Close()
	}()
	data, err := valuer.ScanRows(rows)
	if err != nil {
		return &QueryResult{Err: err}
	}
	items := make([]Result, 0, len(data))
	for _, row := range data {
		items = append(items, Result(row))
	}
	return &QueryResult{Result: NewResultSet(items...)}
}

func exec(ctx context.Context, sess Session, qc *QueryContext) ExecResult {
	c := sess.getCore()
	markTx(sess, qc)
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, sess, c, qc)
	}
	res := c.chain(root)(ctx, qc)
	var sqlRes sql.Result
	if val, ok := res.Result.(sql.Result); ok {
		sqlRes = val
	}
	return ExecResult{res: sqlRes, err: res.Err}
}

func execHandler(ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	start := time.Now()
	res, err := sess.execContext(ctx, qc.Query.SQL, qc.Query.Args...)
	c.log.record(qc.Query, start)
	return &QueryResult{Result: res, Err: err}
}

func (c core) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if IsUniqueViolation(err) {
		return true
	}
	for _, fn := range c.uniqueViolations {
		if fn(err) {
			return true
		}
	}
	return false
}
