package orm

// Assignable 出现在 upsert 的更新列表中
// Assignment 更新成指定的值, Column 更新成本次插入的值
type Assignable interface {
	assign()
}

type Assignment struct {
	col string
	val any
}

func (a Assignment) assign() {}

func Assign(col string, val any) Assignment {
	return Assignment{
		col: col,
		val: val,
	}
}
