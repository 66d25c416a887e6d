package orm

import (
	"reflect"
	"strings"
	"time"

	"github.com/startdusk/midgard/orm/internal/errs"
)

// CompilerConfig 编译期的配置, 跟着 Compiler 走, 没有全局变量
type CompilerConfig struct {
	// TimeFormat 非空时 time.Time 参数会先格式化成字符串
	TimeFormat string
}

type CompilerOption func(c *CompilerConfig)

func CompilerWithTimeFormat(layout string) CompilerOption {
	return func(c *CompilerConfig) {
		c.TimeFormat = layout
	}
}

// Compiler 把 Statement 编译成 SQL 和参数
// Compile 是纯函数, 同一个 Statement 编译多少次结果都一样
type Compiler struct {
	dialect Dialect
	cfg     CompilerConfig
}

func NewCompiler(dialect Dialect, opts ...CompilerOption) *Compiler {
	if dialect == nil {
		dialect = DialectStandard
	}
	c := &Compiler{dialect: dialect}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	return c
}

func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

func (c *Compiler) Config() CompilerConfig {
	return c.cfg
}

func (c *Compiler) Compile(stmt *Statement) (*Query, error) {
	if stmt == nil || stmt.Table == "" {
		return nil, errs.ErrNoTable
	}
	b := &sqlBuilder{
		dialect: c.dialect,
		cfg:     c.cfg,
	}
	var err error
	switch stmt.Kind {
	case KindSelect:
		err = b.buildSelect(stmt)
	case KindCount:
		err = b.buildCount(stmt)
	case KindInsert:
		err = b.buildInsert(stmt)
	case KindUpdate:
		err = b.buildUpdate(stmt)
	case KindDelete:
		err = b.buildDelete(stmt)
	default:
		err = errs.NewErrUnsupportedExpressionType(stmt.Kind)
	}
	if err != nil {
		return nil, err
	}
	return &Query{
		SQL:  b.sb.String(),
		Args: b.args,
	}, nil
}

// sqlBuilder 一次编译的状态
// 写占位符的同时追加参数, 保证第 N 个占位符对应第 N 个参数
type sqlBuilder struct {
	sb      strings.Builder
	args    []any
	dialect Dialect
	cfg     CompilerConfig
}

func (b *sqlBuilder) buildSelect(stmt *Statement) error {
	b.sb.WriteString("SELECT ")
	if stmt.Distinct {
		b.sb.WriteString("DISTINCT ")
	}
	if err := b.buildColumns(stmt.Columns); err != nil {
		return err
	}
	if err := b.buildFrom(stmt); err != nil {
		return err
	}
	if err := b.buildGroupHaving(stmt); err != nil {
		return err
	}
	if len(stmt.Orders) > 0 {
		b.sb.WriteString(" ORDER BY ")
		for i, o := range stmt.Orders {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			if err := b.buildOrderable(o.Expr); err != nil {
				return err
			}
			if o.Desc {
				b.sb.WriteString(" DESC")
			} else {
				b.sb.WriteString(" ASC")
			}
		}
	}
	return b.dialect.buildLimitOffset(b, stmt)
}

// COUNT 忽略排序和分页, 有 DISTINCT 或者 GROUP BY 时包一层子查询
func (b *sqlBuilder) buildCount(stmt *Statement) error {
	if stmt.Distinct || len(stmt.Groups) > 0 {
		inner := stmt.clone()
		inner.Kind = KindSelect
		inner.Orders = nil
		inner.Limit = 0
		inner.Offset = 0
		b.sb.WriteString("SELECT COUNT(*) FROM (")
		if err := b.buildSelect(&inner); err != nil {
			return err
		}
		b.sb.WriteString(") AS ")
		b.sb.WriteString(b.dialect.quoteIdent("aggregate"))
		return nil
	}
	b.sb.WriteString("SELECT COUNT(*)")
	return b.buildFrom(stmt)
}

// FROM, JOIN, WHERE
func (b *sqlBuilder) buildFrom(stmt *Statement) error {
	b.sb.WriteString(" FROM ")
	b.quoteColumn(stmt.Table)
	for _, j := range stmt.Joins {
		if err := b.buildJoin(j); err != nil {
			return err
		}
	}
	return b.buildWhere(stmt.Wheres)
}

func (b *sqlBuilder) buildWhere(wheres []Clause) error {
	if !hasClauses(wheres) {
		return nil
	}
	b.sb.WriteString(" WHERE ")
	return b.buildClauses(wheres)
}

func (b *sqlBuilder) buildGroupHaving(stmt *Statement) error {
	if len(stmt.Groups) > 0 {
		b.sb.WriteString(" GROUP BY ")
		for i, g := range stmt.Groups {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.quoteColumn(g)
		}
	}
	if hasClauses(stmt.Having) {
		b.sb.WriteString(" HAVING ")
		return b.buildClauses(stmt.Having)
	}
	return nil
}

func (b *sqlBuilder) buildJoin(j JoinSpec) error {
	b.sb.WriteByte(' ')
	b.sb.WriteString(j.Type)
	b.sb.WriteByte(' ')
	b.quoteColumn(j.Table)
	if len(j.Using) > 0 {
		b.sb.WriteString(" USING (")
		for i, col := range j.Using {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.quoteColumn(col)
		}
		b.sb.WriteByte(')')
		return nil
	}
	if len(j.On) > 0 {
		b.sb.WriteString(" ON ")
		for i, p := range j.On {
			if i > 0 {
				b.sb.WriteString(" AND ")
			}
			if err := b.buildClausePredicate(p, len(j.On) > 1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *sqlBuilder) buildInsert(stmt *Statement) error {
	vals := stmt.Values
	if vals == nil || len(vals.Rows) == 0 {
		return errs.ErrInsertZeroRows
	}
	b.sb.WriteString("INSERT INTO ")
	b.quoteColumn(stmt.Table)
	b.sb.WriteString(" (")
	for i, col := range vals.Columns {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quoteColumn(col)
	}
	b.sb.WriteByte(')')
	if err := b.dialect.buildOutput(b, stmt.Returning); err != nil {
		return err
	}
	b.sb.WriteString(" VALUES ")
	for i, row := range vals.Rows {
		if len(row) != len(vals.Columns) {
			return errs.NewErrMissingColumns(i)
		}
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteByte('(')
		for j, val := range row {
			if j > 0 {
				b.sb.WriteString(", ")
			}
			if err := b.buildAssignValue(val); err != nil {
				return err
			}
		}
		b.sb.WriteByte(')')
	}
	if stmt.Upsert != nil {
		if err := b.dialect.buildUpsert(b, stmt.Upsert); err != nil {
			return err
		}
	}
	return b.dialect.buildReturning(b, stmt.Returning)
}

func (b *sqlBuilder) buildUpdate(stmt *Statement) error {
	if len(stmt.Assignments) == 0 {
		return errs.ErrNoAssignments
	}
	b.sb.WriteString("UPDATE ")
	b.quoteColumn(stmt.Table)
	b.sb.WriteString(" SET ")
	for i, a := range stmt.Assignments {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quoteColumn(a.col)
		b.sb.WriteString(" = ")
		if err := b.buildAssignValue(a.val); err != nil {
			return err
		}
	}
	return b.buildWhere(stmt.Wheres)
}

func (b *sqlBuilder) buildDelete(stmt *Statement) error {
	b.sb.WriteString("DELETE FROM ")
	b.quoteColumn(stmt.Table)
	return b.buildWhere(stmt.Wheres)
}

func (b *sqlBuilder) buildColumns(cols []Selectable) error {
	if len(cols) == 0 {
		b.sb.WriteByte('*')
		return nil
	}
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		switch c := col.(type) {
		case Column:
			b.quoteColumn(c.name)
			b.buildAs(c.alias)
		case Aggregate:
			b.buildAggregate(c)
			b.buildAs(c.alias)
		case RawExpr:
			b.buildRaw(c)
		case VectorDistance:
			if err := b.dialect.buildVectorDistance(b, c); err != nil {
				return err
			}
			b.buildAs(c.alias)
		default:
			return errs.NewErrUnsupportedExpressionType(col)
		}
	}
	return nil
}

func (b *sqlBuilder) buildAs(alias string) {
	if alias == "" {
		return
	}
	b.sb.WriteString(" AS ")
	b.sb.WriteString(b.dialect.quoteIdent(alias))
}

func (b *sqlBuilder) buildAggregate(a Aggregate) {
	b.sb.WriteString(a.fn)
	b.sb.WriteByte('(')
	b.quoteColumn(a.arg)
	b.sb.WriteByte(')')
}

func (b *sqlBuilder) buildOrderable(o Orderable) error {
	switch e := o.(type) {
	case Column:
		b.quoteColumn(e.name)
	case Aggregate:
		b.buildAggregate(e)
	case RawExpr:
		b.buildRaw(e)
	case VectorDistance:
		return b.dialect.buildVectorDistance(b, e)
	default:
		return errs.NewErrUnsupportedExpressionType(o)
	}
	return nil
}

func hasClauses(cs []Clause) bool {
	for _, c := range cs {
		if c.Group != nil {
			if hasClauses(c.Group) {
				return true
			}
			continue
		}
		if !c.empty() {
			return true
		}
	}
	return false
}

// buildClauses 第一个条件的连接词被忽略, 空的分组直接跳过
func (b *sqlBuilder) buildClauses(cs []Clause) error {
	n := 0
	for _, c := range cs {
		if c.Group != nil && !hasClauses(c.Group) || c.Group == nil && c.empty() {
			continue
		}
		n++
	}
	first := true
	for _, c := range cs {
		if c.Group != nil {
			if !hasClauses(c.Group) {
				continue
			}
		} else if c.empty() {
			continue
		}
		if !first {
			b.sb.WriteByte(' ')
			if c.Boolean == "" {
				b.sb.WriteString(BooleanAnd)
			} else {
				b.sb.WriteString(c.Boolean)
			}
			b.sb.WriteByte(' ')
		}
		first = false
		if c.Group != nil {
			b.sb.WriteByte('(')
			if err := b.buildClauses(c.Group); err != nil {
				return err
			}
			b.sb.WriteByte(')')
			continue
		}
		if err := b.buildClausePredicate(c.Predicate, n > 1); err != nil {
			return err
		}
	}
	return nil
}

// 多个条件并列时, AND/OR 组成的条件和原生条件要加括号
func (b *sqlBuilder) buildClausePredicate(p Predicate, wrap bool) error {
	if wrap && (p.isLogical() || p.isRaw()) {
		b.sb.WriteByte('(')
		if err := b.buildPredicate(p); err != nil {
			return err
		}
		b.sb.WriteByte(')')
		return nil
	}
	return b.buildPredicate(p)
}

func (b *sqlBuilder) buildPredicate(p Predicate) error {
	switch p.op {
	case "":
		// 原生表达式转成的条件
		return b.buildExpression(p.left)
	case opNot:
		b.sb.WriteString("NOT (")
		if err := b.buildSubPredicate(p.right, false); err != nil {
			return err
		}
		b.sb.WriteByte(')')
		return nil
	case opAnd, opOr:
		if err := b.buildSubPredicate(p.left, true); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(p.op.String())
		b.sb.WriteByte(' ')
		return b.buildSubPredicate(p.right, true)
	case opIsNull, opIsNotNull:
		if err := b.buildExpression(p.left); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(p.op.String())
		return nil
	case opIn, opNotIn:
		return b.buildIn(p)
	case opBetween:
		return b.buildBetween(p)
	}
	if _, ok := comparisonOps[p.op]; !ok {
		return errs.NewErrUnsupportedOperator(p.op.String())
	}
	// = NULL 永远不成立, 改写成 IS NULL
	if v, ok := p.right.(value); ok && v.val == nil && (p.op == opEq || p.op == opNotEq) {
		if err := b.buildExpression(p.left); err != nil {
			return err
		}
		if p.op == opEq {
			b.sb.WriteString(" IS NULL")
		} else {
			b.sb.WriteString(" IS NOT NULL")
		}
		return nil
	}
	if err := b.buildExpression(p.left); err != nil {
		return err
	}
	b.sb.WriteByte(' ')
	b.sb.WriteString(p.op.String())
	b.sb.WriteByte(' ')
	return b.buildExpression(p.right)
}

// AND/OR 的子条件, 如果本身也是 AND/OR 就加括号
func (b *sqlBuilder) buildSubPredicate(e Expression, wrap bool) error {
	p, ok := e.(Predicate)
	if !ok {
		return b.buildExpression(e)
	}
	return b.buildClausePredicate(p, wrap)
}

func (b *sqlBuilder) buildIn(p Predicate) error {
	v, ok := p.right.(value)
	if !ok {
		// IN (子查询)
		if err := b.buildExpression(p.left); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(p.op.String())
		b.sb.WriteString(" (")
		if err := b.buildExpression(p.right); err != nil {
			return err
		}
		b.sb.WriteByte(')')
		return nil
	}
	vals := []any{v.val}
	if isSlice(v.val) {
		vals = sliceValues(v.val)
	}
	if len(vals) == 0 {
		// IN () 不是合法的 SQL
		if p.op == opIn {
			b.sb.WriteString("1 = 0")
		} else {
			b.sb.WriteString("1 = 1")
		}
		return nil
	}
	if err := b.buildExpression(p.left); err != nil {
		return err
	}
	b.sb.WriteByte(' ')
	b.sb.WriteString(p.op.String())
	b.sb.WriteString(" (")
	b.addArgs(vals)
	b.sb.WriteByte(')')
	return nil
}

func (b *sqlBuilder) buildBetween(p Predicate) error {
	var low, high any
	switch r := p.right.(type) {
	case betweenValue:
		low, high = r.low, r.high
	case value:
		// Where("age", "BETWEEN", []int{18, 30})
		vals := sliceValues(r.val)
		if len(vals) != 2 {
			return errs.NewErrUnsupportedExpressionType(r.val)
		}
		low, high = vals[0], vals[1]
	default:
		return errs.NewErrUnsupportedExpressionType(p.right)
	}
	if err := b.buildExpression(p.left); err != nil {
		return err
	}
	b.sb.WriteString(" BETWEEN ")
	if err := b.buildExpression(valueOf(low)); err != nil {
		return err
	}
	b.sb.WriteString(" AND ")
	return b.buildExpression(valueOf(high))
}

func (b *sqlBuilder) buildExpression(e Expression) error {
	switch exp := e.(type) {
	case nil:
		return nil
	case Column:
		b.quoteColumn(exp.name)
	case Aggregate:
		b.buildAggregate(exp)
	case RawExpr:
		b.buildRaw(exp)
	case VectorDistance:
		return b.dialect.buildVectorDistance(b, exp)
	case value:
		if isSlice(exp.val) {
			b.sb.WriteByte('(')
			b.addArgs(sliceValues(exp.val))
			b.sb.WriteByte(')')
			return nil
		}
		b.addArg(exp.val)
	case Predicate:
		b.sb.WriteByte('(')
		if err := b.buildPredicate(exp); err != nil {
			return err
		}
		b.sb.WriteByte(')')
	default:
		return errs.NewErrUnsupportedExpressionType(exp)
	}
	return nil
}

// INSERT 和 UPDATE 的值不展开切片, 表达式原样写入
func (b *sqlBuilder) buildAssignValue(val any) error {
	switch v := val.(type) {
	case RawExpr:
		b.buildRaw(v)
	case Column:
		b.quoteColumn(v.name)
	default:
		b.addArg(val)
	}
	return nil
}

// buildRaw 把 ? 换成方言的占位符, 切片参数展开成 ?, ?, ?
// 单引号里的 ? 是字面量, 和 Query.String 的规则一致
func (b *sqlBuilder) buildRaw(r RawExpr) {
	next := 0
	inQuote := false
	for i := 0; i < len(r.raw); i++ {
		ch := r.raw[i]
		if ch == '\'' {
			inQuote = !inQuote
		}
		if inQuote || ch != '?' || next >= len(r.args) {
			b.sb.WriteByte(ch)
			continue
		}
		arg := r.args[next]
		next++
		if !isSlice(arg) {
			b.addArg(arg)
			continue
		}
		vals := sliceValues(arg)
		if len(vals) == 0 {
			b.sb.WriteString("NULL")
			continue
		}
		b.addArgs(vals)
	}
}

func (b *sqlBuilder) addArgs(vals []any) {
	for i, val := range vals {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.addArg(val)
	}
}

// addArg 写占位符, 同时追加参数
func (b *sqlBuilder) addArg(val any) {
	if t, ok := val.(time.Time); ok && b.cfg.TimeFormat != "" {
		val = t.Format(b.cfg.TimeFormat)
	}
	b.args = append(b.args, val)
	b.sb.WriteString(b.dialect.placeholder(len(b.args)))
}

// quoteColumn 支持 table.column, table.*, column AS alias
func (b *sqlBuilder) quoteColumn(name string) {
	name = strings.TrimSpace(name)
	if idx := indexAs(name); idx >= 0 {
		b.quoteColumn(name[:idx])
		b.sb.WriteString(" AS ")
		b.sb.WriteString(b.dialect.quoteIdent(strings.TrimSpace(name[idx+4:])))
		return
	}
	for i, seg := range strings.Split(name, ".") {
		if i > 0 {
			b.sb.WriteByte('.')
		}
		if seg == "*" {
			b.sb.WriteByte('*')
			continue
		}
		b.sb.WriteString(b.dialect.quoteIdent(seg))
	}
}

func indexAs(name string) int {
	return strings.Index(strings.ToLower(name), " as ")
}

func isSlice(val any) bool {
	if val == nil {
		return false
	}
	if _, ok := val.([]byte); ok {
		return false
	}
	kind := reflect.TypeOf(val).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func sliceValues(val any) []any {
	if vals, ok := val.([]any); ok {
		return vals
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{val}
	}
	res := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		res = append(res, rv.Index(i).Interface())
	}
	return res
}
