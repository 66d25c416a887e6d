package errs

import (
	"errors"
	"fmt"
)

var (
	ErrPointerOnly    = errors.New("orm: 只支持指向结构体的一级指针")
	ErrNoRows         = errors.New("orm: 没有数据")
	ErrInsertZeroRows = errors.New("orm: 插入0行数据")
	ErrNoTable        = errors.New("orm: 未指定表名")
	ErrNoSession      = errors.New("orm: 没有可执行的 Session")
	ErrNoPrimaryKey   = errors.New("orm: 实体没有主键值")
	ErrNoAssignments  = errors.New("orm: UPDATE 没有要更新的列")

	// ON CONFLICT DO UPDATE 必须指定冲突列
	ErrNoConflictColumns = errors.New("orm: upsert 未指定冲突列")

	ErrUnknownRelation      = errors.New("orm: 未定义的关联")
	ErrUnknownModel         = errors.New("orm: 未注册的模型")
	ErrMalformedInclude     = errors.New("orm: 非法的预加载路径")
	ErrUnsupportedOperator  = errors.New("orm: 不支持的操作符")
	ErrUnsupportedByDialect = errors.New("orm: 当前方言不支持")
	ErrUnknownDialect       = errors.New("orm: 未知方言")
	ErrMissingColumns       = errors.New("orm: 插入的多行数据列不一致")
	ErrNotManyToMany        = errors.New("orm: 关联不是多对多")
	ErrConstraintPaging     = errors.New("orm: 预加载约束不支持 Limit 和 Offset")
)

func NewErrUnsupportedExpressionType(expr any) error {
	return fmt.Errorf("orm: 不支持的表达式 %v", expr)
}

func NewErrUnknownField(name string) error {
	return fmt.Errorf("orm: 未知字段 %s", name)
}

func NewErrUnknownColumn(name string) error {
	return fmt.Errorf("orm: 未知数据库列名 %s", name)
}

func NewErrIinvalidTagContent(pair string) error {
	return fmt.Errorf("orm: 非法标签值 %s", pair)
}

func NewErrUnsupportedAssignable(expr any) error {
	return fmt.Errorf("orm: 不支持的赋值表达式类型 %v", expr)
}

func NewErrUnsupportedTable(table any) error {
	return fmt.Errorf("orm: 不支持的表类型 %v", table)
}

func NewErrUnknownRelation(model, name string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, model, name)
}

func NewErrUnknownModel(table string) error {
	return fmt.Errorf("%w: %s", ErrUnknownModel, table)
}

func NewErrMalformedInclude(path string) error {
	return fmt.Errorf("%w: %q", ErrMalformedInclude, path)
}

func NewErrUnsupportedOperator(op string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
}

// NewErrUnsupportedByDialect 方言能力不足时直接报错, 错误信息里带上构造和方言名
func NewErrUnsupportedByDialect(construct, dialect string) error {
	return fmt.Errorf("%w: %s 不支持 %s", ErrUnsupportedByDialect, dialect, construct)
}

func NewErrUnknownDialect(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownDialect, name)
}

func NewErrMissingColumns(row int) error {
	return fmt.Errorf("%w: 第 %d 行", ErrMissingColumns, row)
}

func NewErrNotManyToMany(name string) error {
	return fmt.Errorf("%w: %s", ErrNotManyToMany, name)
}

// NewErrConstraintPaging 预加载是整批查询, 分页会作用于所有父实体而不是每一个
func NewErrConstraintPaging(relation string) error {
	return fmt.Errorf("%w: %s", ErrConstraintPaging, relation)
}

func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	return fmt.Errorf("orm: 事务回滚失败, 业务错误: %w, 回滚错误: %s, 是否 panic: %t", bizErr, rbErr, panicked)
}
