package orm

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/startdusk/midgard/orm/internal/errs"
)

var _ QueryBuilder = &Builder{}

// Builder 可变的查询构造器, 链式方法都修改并返回同一个 Builder
// 终结方法每次都从当前的 Statement 重新编译, 不消耗任何状态
// 所以 Count 之后还可以接着 All
type Builder struct {
	sess Session
	stmt Statement
}

// NewBuilder sess 为 nil 时只能 Build, 使用标准方言
func NewBuilder(sess Session) *Builder {
	return &Builder{sess: sess}
}

func (b *Builder) Table(name string) *Builder {
	b.stmt.Table = name
	return b
}

// Select 不调用或者不传参数就是 SELECT *
func (b *Builder) Select(cols ...string) *Builder {
	for _, col := range cols {
		b.stmt.Columns = append(b.stmt.Columns, C(col))
	}
	return b
}

// SelectExpr 聚合函数, 原生表达式, 向量距离
func (b *Builder) SelectExpr(exprs ...Selectable) *Builder {
	b.stmt.Columns = append(b.stmt.Columns, exprs...)
	return b
}

func (b *Builder) Distinct() *Builder {
	b.stmt.Distinct = true
	return b
}

// Where("age", ">", 18), 操作符不区分大小写, != 等价于 <>
// value 为 nil 时 = 和 <> 会编译成 IS NULL 和 IS NOT NULL
func (b *Builder) Where(column string, operator string, val any) *Builder {
	return b.addWhere(BooleanAnd, b.condition(column, operator, val))
}

func (b *Builder) OrWhere(column string, operator string, val any) *Builder {
	return b.addWhere(BooleanOr, b.condition(column, operator, val))
}

// WhereExpr 多个条件之间是 AND
func (b *Builder) WhereExpr(ps ...Predicate) *Builder {
	for _, p := range ps {
		b.addWhere(BooleanAnd, p)
	}
	return b
}

func (b *Builder) OrWhereExpr(p Predicate) *Builder {
	return b.addWhere(BooleanOr, p)
}

// WhereIn vals 是切片, 为空时编译成 1 = 0
func (b *Builder) WhereIn(column string, vals any) *Builder {
	return b.addWhere(BooleanAnd, C(column).In(vals))
}

func (b *Builder) WhereNotIn(column string, vals any) *Builder {
	return b.addWhere(BooleanAnd, C(column).NotIn(vals))
}

func (b *Builder) WhereNull(column string) *Builder {
	return b.addWhere(BooleanAnd, C(column).IsNull())
}

func (b *Builder) WhereNotNull(column string) *Builder {
	return b.addWhere(BooleanAnd, C(column).IsNotNull())
}

// WhereRaw WhereRaw("age > ? AND age < ?", 18, 30)
func (b *Builder) WhereRaw(expr string, args ...any) *Builder {
	return b.addWhere(BooleanAnd, Raw(expr, args...).AsPredicate())
}

// WhereGroup 括号包起来的一组条件
//
//	WhereGroup(func(q *Builder) { q.Where("a", "=", 1).OrWhere("b", "=", 2) })
func (b *Builder) WhereGroup(fn func(q *Builder)) *Builder {
	return b.addGroup(BooleanAnd, fn)
}

func (b *Builder) OrWhereGroup(fn func(q *Builder)) *Builder {
	return b.addGroup(BooleanOr, fn)
}

func (b *Builder) addGroup(boolean string, fn func(q *Builder)) *Builder {
	sub := &Builder{sess: b.sess}
	fn(sub)
	if len(sub.stmt.Wheres) == 0 {
		return b
	}
	b.stmt.Wheres = append(b.stmt.Wheres, Clause{Boolean: boolean, Group: sub.stmt.Wheres})
	return b
}

func (b *Builder) addWhere(boolean string, p Predicate) *Builder {
	b.stmt.Wheres = append(b.stmt.Wheres, Clause{Boolean: boolean, Predicate: p})
	return b
}

func (b *Builder) condition(column string, operator string, val any) Predicate {
	return Predicate{
		left:  C(column),
		op:    parseOp(operator),
		right: valueOf(val),
	}
}

// Join Join("orders", C("orders.user_id").Eq(C("users.id")))
func (b *Builder) Join(table string, on ...Predicate) *Builder {
	return b.join("JOIN", table, on)
}

func (b *Builder) LeftJoin(table string, on ...Predicate) *Builder {
	return b.join("LEFT JOIN", table, on)
}

func (b *Builder) RightJoin(table string, on ...Predicate) *Builder {
	return b.join("RIGHT JOIN", table, on)
}

func (b *Builder) JoinUsing(table string, cols ...string) *Builder {
	b.stmt.Joins = append(b.stmt.Joins, JoinSpec{Type: "JOIN", Table: table, Using: cols})
	return b
}

func (b *Builder) join(typ string, table string, on []Predicate) *Builder {
	b.stmt.Joins = append(b.stmt.Joins, JoinSpec{Type: typ, Table: table, On: on})
	return b
}

// OrderBy 默认升序, dir 可以是 asc 或 desc
func (b *Builder) OrderBy(column string, dir ...string) *Builder {
	desc := len(dir) > 0 && strings.EqualFold(strings.TrimSpace(dir[0]), "desc")
	b.stmt.Orders = append(b.stmt.Orders, Order{Expr: C(column), Desc: desc})
	return b
}

func (b *Builder) OrderByDesc(column string) *Builder {
	return b.OrderBy(column, "desc")
}

func (b *Builder) OrderByExpr(expr Orderable, desc bool) *Builder {
	b.stmt.Orders = append(b.stmt.Orders, Order{Expr: expr, Desc: desc})
	return b
}

func (b *Builder) GroupBy(cols ...string) *Builder {
	b.stmt.Groups = append(b.stmt.Groups, cols...)
	return b
}

// Having Having(Raw("COUNT(*) > ?", 1).AsPredicate())
func (b *Builder) Having(ps ...Predicate) *Builder {
	for _, p := range ps {
		b.stmt.Having = append(b.stmt.Having, Clause{Boolean: BooleanAnd, Predicate: p})
	}
	return b
}

func (b *Builder) Limit(limit int) *Builder {
	b.stmt.Limit = limit
	return b
}

func (b *Builder) Offset(offset int) *Builder {
	b.stmt.Offset = offset
	return b
}

// Upsert 只对 Insert 生效
// assigns 里面是 Assignment 时更新成指定的值, 是 Column 时更新成本次插入的值
func (b *Builder) Upsert(conflictColumns []string, assigns ...Assignable) *Builder {
	b.stmt.Upsert = &Upsert{
		conflictColumns: conflictColumns,
		assigns:         assigns,
	}
	return b
}

// Returning 只对 Insert 生效, MySQL 不支持
func (b *Builder) Returning(cols ...string) *Builder {
	b.stmt.Returning = append(b.stmt.Returning, cols...)
	return b
}

// Clone 复制一份, 之后两个 Builder 互不影响
func (b *Builder) Clone() *Builder {
	return &Builder{
		sess: b.sess,
		stmt: b.stmt.clone(),
	}
}

// Statement 当前语句的副本
func (b *Builder) Statement() Statement {
	return b.stmt.clone()
}

func (b *Builder) compiler() *Compiler {
	if b.sess == nil {
		return NewCompiler(DialectStandard)
	}
	return b.sess.getCore().compiler
}

// Build 编译成 SELECT
func (b *Builder) Build() (*Query, error) {
	stmt := b.stmt.clone()
	stmt.Kind = KindSelect
	return b.compiler().Compile(&stmt)
}

func (b *Builder) compile(kind Kind) (*Statement, *Query, error) {
	if b.sess == nil {
		return nil, nil, errs.ErrNoSession
	}
	stmt := b.stmt.clone()
	stmt.Kind = kind
	q, err := b.compiler().Compile(&stmt)
	if err != nil {
		return nil, nil, err
	}
	return &stmt, q, nil
}

func (b *Builder) All(ctx context.Context) (*ResultSet[Result], error) {
	stmt, q, err := b.compile(KindSelect)
	if err != nil {
		return nil, err
	}
	return query(ctx, b.sess, newQueryContext(stmt.Kind.Type(), stmt, q))
}

// First 没有数据返回 ErrNoRows
func (b *Builder) First(ctx context.Context) (Result, error) {
	rs, err := b.Clone().Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := rs.First()
	if !ok {
		return nil, errs.ErrNoRows
	}
	return row, nil
}

// Count 忽略排序和分页
func (b *Builder) Count(ctx context.Context) (int64, error) {
	stmt, q, err := b.compile(KindCount)
	if err != nil {
		return 0, err
	}
	rs, err := query(ctx, b.sess, newQueryContext(stmt.Kind.Type(), stmt, q))
	if err != nil {
		return 0, err
	}
	row, ok := rs.First()
	if !ok {
		return 0, nil
	}
	// 不同驱动 COUNT(*) 的列名不一样, 只有一列, 直接取
	for _, v := range row {
		return toInt64(v)
	}
	return 0, nil
}

func (b *Builder) Exists(ctx context.Context) (bool, error) {
	sub := b.Clone()
	sub.stmt.Columns = []Selectable{Raw("1")}
	sub.stmt.Orders = nil
	sub.stmt.Offset = 0
	rs, err := sub.Limit(1).All(ctx)
	if err != nil {
		return false, err
	}
	return rs.Len() > 0, nil
}

// Insert 可以一次插入多行, 每一行的列必须一致, 列按名字排序
func (b *Builder) Insert(ctx context.Context, rows ...map[string]any) ExecResult {
	vals, err := insertValues(rows)
	if err != nil {
		return ExecResult{err: err}
	}
	ib := b.Clone()
	ib.stmt.Values = vals
	stmt, q, err := ib.compile(KindInsert)
	if err != nil {
		return ExecResult{err: err}
	}
	return exec(ctx, b.sess, newQueryContext(stmt.Kind.Type(), stmt, q))
}

// InsertGetID 插入一行并返回主键
// 支持 RETURNING 的方言直接取返回值, 否则用 LastInsertId
func (b *Builder) InsertGetID(ctx context.Context, row map[string]any, pk string) (any, error) {
	if b.sess == nil {
		return nil, errs.ErrNoSession
	}
	if !b.sess.getCore().dialect.supportsReturning() {
		id, err := b.Insert(ctx, row).LastInsertId()
		if err != nil {
			return nil, err
		}
		return id, nil
	}
	vals, err := insertValues([]map[string]any{row})
	if err != nil {
		return nil, err
	}
	ib := b.Clone()
	ib.stmt.Values = vals
	ib.stmt.Returning = []string{pk}
	stmt, q, err := ib.compile(KindInsert)
	if err != nil {
		return nil, err
	}
	rs, err := query(ctx, b.sess, newQueryContext(stmt.Kind.Type(), stmt, q))
	if err != nil {
		return nil, err
	}
	res, ok := rs.First()
	if !ok {
		return nil, errs.ErrNoRows
	}
	return res.Get(pk), nil
}

// Update 列按名字排序, 值可以是 Raw 或者 C
func (b *Builder) Update(ctx context.Context, vals map[string]any) ExecResult {
	ub := b.Clone()
	ub.stmt.Assignments = assignments(vals)
	stmt, q, err := ub.compile(KindUpdate)
	if err != nil {
		return ExecResult{err: err}
	}
	return exec(ctx, b.sess, newQueryContext(stmt.Kind.Type(), stmt, q))
}

func (b *Builder) Delete(ctx context.Context) ExecResult {
	stmt, q, err := b.compile(KindDelete)
	if err != nil {
		return ExecResult{err: err}
	}
	return exec(ctx, b.sess, newQueryContext(stmt.Kind.Type(), stmt, q))
}

func insertValues(rows []map[string]any) (*InsertValues, error) {
	if len(rows) == 0 {
		return nil, errs.ErrInsertZeroRows
	}
	cols := slices.Sorted(maps.Keys(rows[0]))
	if len(cols) == 0 {
		return nil, errs.ErrInsertZeroRows
	}
	vals := &InsertValues{
		Columns: cols,
		Rows:    make([][]any, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, errs.NewErrMissingColumns(i)
		}
		vs := make([]any, 0, len(cols))
		for _, col := range cols {
			v, ok := row[col]
			if !ok {
				return nil, errs.NewErrMissingColumns(i)
			}
			vs = append(vs, v)
		}
		vals.Rows = append(vals.Rows, vs)
	}
	return vals, nil
}

func assignments(vals map[string]any) []Assignment {
	res := make([]Assignment, 0, len(vals))
	for _, col := range slices.Sorted(maps.Keys(vals)) {
		res = append(res, Assign(col, vals[col]))
	}
	return res
}

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint64:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	case []byte:
		return strconv.ParseInt(string(val), 10, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("orm: 无法转换成整数 %T", v)
}
