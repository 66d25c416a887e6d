package orm

type Kind uint8

const (
	KindSelect Kind = iota
	KindCount
	KindInsert
	KindUpdate
	KindDelete
)

// Type 中间件里看到的语句类型, COUNT 也是 SELECT
func (k Kind) Type() string {
	switch k {
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "SELECT"
	}
}

const (
	BooleanAnd = "AND"
	BooleanOr  = "OR"
)

// Selectable select 指定列
type Selectable interface {
	selectable()
}

// Orderable 可以出现在 ORDER BY 里的表达式
type Orderable interface {
	orderable()
}

// Statement 一条语句的中间表示, 由 Builder 构造, 交给 Compiler 编译
// 编译不会修改 Statement
type Statement struct {
	Kind     Kind
	Table    string
	Columns  []Selectable
	Distinct bool

	Wheres []Clause
	Joins  []JoinSpec
	Orders []Order
	Groups []string
	Having []Clause

	// 0 代表不限制
	Limit  int
	Offset int

	Values      *InsertValues
	Assignments []Assignment
	Upsert      *Upsert
	Returning   []string
}

// HasWhere 有没有有效的 WHERE 条件, 空的分组不算
func (s *Statement) HasWhere() bool {
	return hasClauses(s.Wheres)
}

// Clause 一个带连接词的条件, Group 非空时代表一组用括号包起来的条件
type Clause struct {
	Boolean   string
	Predicate Predicate
	Group     []Clause
}

func (c Clause) empty() bool {
	return c.Group == nil && c.Predicate.op == "" && c.Predicate.left == nil
}

type JoinSpec struct {
	// JOIN, LEFT JOIN, RIGHT JOIN
	Type  string
	Table string
	On    []Predicate
	Using []string
}

type Order struct {
	Expr Orderable
	Desc bool
}

// InsertValues 列的顺序是固定的, 每一行的值和列一一对应
type InsertValues struct {
	Columns []string
	Rows    [][]any
}

type Upsert struct {
	assigns         []Assignable
	conflictColumns []string
}

func (s Statement) clone() Statement {
	res := s
	res.Columns = append([]Selectable(nil), s.Columns...)
	res.Wheres = append([]Clause(nil), s.Wheres...)
	res.Joins = append([]JoinSpec(nil), s.Joins...)
	res.Orders = append([]Order(nil), s.Orders...)
	res.Groups = append([]string(nil), s.Groups...)
	res.Having = append([]Clause(nil), s.Having...)
	res.Assignments = append([]Assignment(nil), s.Assignments...)
	res.Returning = append([]string(nil), s.Returning...)
	return res
}
