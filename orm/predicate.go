package orm

import "strings"

type op string

const (
	opEq        op = "="
	opNotEq     op = "<>"
	opLt        op = "<"
	opLte       op = "<="
	opGt        op = ">"
	opGte       op = ">="
	opLike      op = "LIKE"
	opNotLike   op = "NOT LIKE"
	opIn        op = "IN"
	opNotIn     op = "NOT IN"
	opBetween   op = "BETWEEN"
	opIsNull    op = "IS NULL"
	opIsNotNull op = "IS NOT NULL"
	opNot       op = "NOT"
	opAnd       op = "AND"
	opOr        op = "OR"
)

// 允许出现在 Where(column, operator, value) 中的操作符
var comparisonOps = map[op]struct{}{
	opEq: {}, opNotEq: {}, opLt: {}, opLte: {}, opGt: {}, opGte: {},
	opLike: {}, opNotLike: {}, opIn: {}, opNotIn: {}, opBetween: {},
	opIsNull: {}, opIsNotNull: {},
}

func (o op) String() string {
	return string(o)
}

// parseOp 统一大小写和写法, 合法性留到编译的时候检查
func parseOp(operator string) op {
	o := op(strings.ToUpper(strings.Join(strings.Fields(operator), " ")))
	if o == "!=" {
		return opNotEq
	}
	return o
}

type Predicate struct {
	left  Expression
	op    op
	right Expression
}

func (p Predicate) expr() {}

func Not(p Predicate) Predicate {
	return Predicate{
		op:    opNot,
		right: p,
	}
}

// C("id").Eq(12).And(C("name").Eq("Tom")) => id = 12 AND name = "Tom"
func (left Predicate) And(right Predicate) Predicate {
	return Predicate{
		left:  left,
		op:    opAnd,
		right: right,
	}
}

// C("id").Eq(12).Or(C("name").Eq("Tom")) => id = 12 OR name = "Tom"
func (left Predicate) Or(right Predicate) Predicate {
	return Predicate{
		left:  left,
		op:    opOr,
		right: right,
	}
}

func (p Predicate) isLogical() bool {
	return p.op == opAnd || p.op == opOr
}

// isRaw 原生表达式转成的条件, 里面可能有 OR
func (p Predicate) isRaw() bool {
	return p.op == ""
}
