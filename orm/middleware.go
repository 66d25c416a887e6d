package orm

import (
	"context"
)

type QueryContext struct {
	// Type 声明查询类型 即 SELECT, UPDATE, DELETE, INSERT 和 RAW
	Type string
	// ID 每条语句一个, 用于串联日志和链路
	ID    string
	Table string

	// Statement 编译前的语句, RAW 查询没有
	Statement *Statement
	// Query 编译后的 SQL, 中间件可以篡改, 根节点执行的是这里的 SQL
	Query *Query
	// Tx 在事务里执行时不为 nil, 事务外的读者看不到它的写入
	Tx *Tx
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult

type QueryResult struct {
	// Result 在不同的查询里面, 类型是不同的
	// SELECT 是 *ResultSet[Result]
	// 其他情况下, 它是 sql.Result
	Result any
	Err    error
}
