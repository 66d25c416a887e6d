package orm

// C 引用一列, 支持 table.column 和 table.* 的形式
func C(name string) Column {
	return Column{name: name}
}

type Column struct {
	name  string
	alias string
}

func (c Column) selectable() {}
func (c Column) expr()       {}
func (c Column) assign()     {}
func (c Column) orderable()  {}

// As 只在 SELECT 列表中生效
func (c Column) As(alias string) Column {
	return Column{
		name:  c.name,
		alias: alias,
	}
}

func (c Column) Eq(arg any) Predicate {
	return c.binary(opEq, arg)
}

func (c Column) NotEq(arg any) Predicate {
	return c.binary(opNotEq, arg)
}

func (c Column) Gt(arg any) Predicate {
	return c.binary(opGt, arg)
}

func (c Column) Gte(arg any) Predicate {
	return c.binary(opGte, arg)
}

func (c Column) Lt(arg any) Predicate {
	return c.binary(opLt, arg)
}

func (c Column) Lte(arg any) Predicate {
	return c.binary(opLte, arg)
}

func (c Column) Like(arg any) Predicate {
	return c.binary(opLike, arg)
}

func (c Column) NotLike(arg any) Predicate {
	return c.binary(opNotLike, arg)
}

// In 参数可以是多个值, 也可以是一个切片
//
//	C("id").In(1, 2, 3) / C("id").In([]int{1, 2, 3})
func (c Column) In(args ...any) Predicate {
	return c.binary(opIn, flatten(args))
}

func (c Column) NotIn(args ...any) Predicate {
	return c.binary(opNotIn, flatten(args))
}

func (c Column) Between(low, high any) Predicate {
	return Predicate{
		left:  c,
		op:    opBetween,
		right: betweenValue{low: low, high: high},
	}
}

func (c Column) IsNull() Predicate {
	return Predicate{
		left: c,
		op:   opIsNull,
	}
}

func (c Column) IsNotNull() Predicate {
	return Predicate{
		left: c,
		op:   opIsNotNull,
	}
}

func (c Column) binary(o op, arg any) Predicate {
	return Predicate{
		left:  c,
		op:    o,
		right: valueOf(arg),
	}
}

// In(1, 2, 3) 和 In([]int{1, 2, 3}) 等价
func flatten(args []any) any {
	if len(args) == 1 && isSlice(args[0]) {
		return args[0]
	}
	return args
}
