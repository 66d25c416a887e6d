package orm

// Expression 是一个标记接口, 代表表达式
type Expression interface {
	expr()
}

// RawExpr 代表的是原生表达式
// 是一种兜底方式, 由于用户的输入SQL过于复杂, 就交给用户自己手写SQL, 我们就不能帮忙构建了
// raw 中的每一个 ? 都是占位符, 参数是切片时会展开成 ?, ?, ?
type RawExpr struct {
	raw  string
	args []any
}

func Raw(expr string, args ...any) RawExpr {
	return RawExpr{
		raw:  expr,
		args: args,
	}
}

func (r RawExpr) AsPredicate() Predicate {
	return Predicate{
		left: r,
	}
}

func (r RawExpr) selectable() {}
func (r RawExpr) expr()       {}
func (r RawExpr) orderable()  {}

// value 代表参数, 编译时写占位符并加入参数列表
type value struct {
	val any
}

func (v value) expr() {}

// 参数可能本身就是表达式, 比如 C("a").Eq(C("b"))
func valueOf(arg any) Expression {
	if exp, ok := arg.(Expression); ok {
		return exp
	}
	return value{val: arg}
}

type betweenValue struct {
	low  any
	high any
}

func (b betweenValue) expr() {}
