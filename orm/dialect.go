package orm

import (
	"strconv"
	"strings"

	"github.com/startdusk/midgard/orm/internal/errs"
)

var (
	DialectStandard  Dialect = standardSQL{}
	DialectMySQL     Dialect = mysqlDialect{}
	DialectMariaDB   Dialect = mariadbDialect{}
	DialectPostgres  Dialect = postgresDialect{}
	DialectSQLite    Dialect = sqliteDialect{}
	DialectSQLServer Dialect = sqlserverDialect{}
)

// Dialect 方言只负责和数据库相关的那部分片段
// 引号, 占位符, 分页, upsert, 向量函数, RETURNING
// 方言不支持的构造必须直接报错, 不允许生成错误的 SQL
type Dialect interface {
	Name() string

	// quoteIdent 给单个标识符加引号, 不处理 a.b 的形式
	// MySQL 反引号 `
	// Postgres 是双引号
	// SQL Server 是方括号
	quoteIdent(ident string) string
	// placeholder index 从 1 开始
	placeholder(index int) string
	supportsReturning() bool

	buildLimitOffset(b *sqlBuilder, stmt *Statement) error
	buildUpsert(b *sqlBuilder, u *Upsert) error
	buildVectorDistance(b *sqlBuilder, v VectorDistance) error
	// buildOutput 写在 VALUES 前面, 只有 SQL Server 用得到
	buildOutput(b *sqlBuilder, cols []string) error
	buildReturning(b *sqlBuilder, cols []string) error
}

// DialectByName 配置文件里用的方言名字
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard", "generic":
		return DialectStandard, nil
	case "mysql":
		return DialectMySQL, nil
	case "mariadb":
		return DialectMariaDB, nil
	case "postgres", "postgresql", "pgx", "pq":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "sqlserver", "mssql":
		return DialectSQLServer, nil
	}
	return nil, errs.NewErrUnknownDialect(name)
}

type standardSQL struct{}

func (d standardSQL) Name() string {
	return "standard"
}

func (d standardSQL) quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d standardSQL) placeholder(int) string {
	return "?"
}

func (d standardSQL) supportsReturning() bool {
	return false
}

func (d standardSQL) buildLimitOffset(b *sqlBuilder, stmt *Statement) error {
	if stmt.Limit > 0 {
		b.sb.WriteString(" LIMIT ")
		b.addArg(stmt.Limit)
	}
	if stmt.Offset > 0 {
		b.sb.WriteString(" OFFSET ")
		b.addArg(stmt.Offset)
	}
	return nil
}

func (d standardSQL) buildUpsert(b *sqlBuilder, u *Upsert) error {
	return errs.NewErrUnsupportedByDialect("upsert", b.dialect.Name())
}

func (d standardSQL) buildVectorDistance(b *sqlBuilder, v VectorDistance) error {
	return errs.NewErrUnsupportedByDialect("vector distance", b.dialect.Name())
}

func (d standardSQL) buildOutput(*sqlBuilder, []string) error {
	return nil
}

func (d standardSQL) buildReturning(b *sqlBuilder, cols []string) error {
	if len(cols) == 0 {
		return nil
	}
	return errs.NewErrUnsupportedByDialect("RETURNING", b.dialect.Name())
}

// 公共的 RETURNING 写法, Postgres 和 SQLite 一样
func writeReturning(b *sqlBuilder, cols []string) {
	if len(cols) == 0 {
		return
	}
	b.sb.WriteString(" RETURNING ")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.quoteColumn(col)
	}
}

// ON CONFLICT ("a", "b") DO UPDATE SET "c" = EXCLUDED."c"
// Postgres 和 SQLite 只有 excluded 的大小写不一样
func writeOnConflict(b *sqlBuilder, u *Upsert, excluded string) error {
	b.sb.WriteString(" ON CONFLICT")
	if len(u.conflictColumns) > 0 {
		b.sb.WriteString(" (")
		for i, col := range u.conflictColumns {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.quoteColumn(col)
		}
		b.sb.WriteByte(')')
	}
	if len(u.assigns) == 0 {
		b.sb.WriteString(" DO NOTHING")
		return nil
	}
	if len(u.conflictColumns) == 0 {
		return errs.ErrNoConflictColumns
	}
	b.sb.WriteString(" DO UPDATE SET ")
	for idx, assign := range u.assigns {
		if idx > 0 {
			b.sb.WriteString(", ")
		}
		switch a := assign.(type) {
		case Assignment:
			b.quoteColumn(a.col)
			b.sb.WriteString(" = ")
			if err := b.buildAssignValue(a.val); err != nil {
				return err
			}
		case Column:
			b.quoteColumn(a.name)
			b.sb.WriteString(" = ")
			b.sb.WriteString(excluded)
			b.sb.WriteByte('.')
			b.quoteColumn(a.name)
		default:
			return errs.NewErrUnsupportedAssignable(assign)
		}
	}
	return nil
}

type mysqlDialect struct {
	standardSQL
}

func (d mysqlDialect) Name() string {
	return "mysql"
}

func (d mysqlDialect) quoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d mysqlDialect) buildLimitOffset(b *sqlBuilder, stmt *Statement) error {
	switch {
	case stmt.Limit > 0:
		b.sb.WriteString(" LIMIT ")
		b.addArg(stmt.Limit)
	case stmt.Offset > 0:
		// MySQL 不支持单独的 OFFSET, 用最大的无符号整数代替
		b.sb.WriteString(" LIMIT 18446744073709551615")
	}
	if stmt.Offset > 0 {
		b.sb.WriteString(" OFFSET ")
		b.addArg(stmt.Offset)
	}
	return nil
}

func (d mysqlDialect) buildUpsert(b *sqlBuilder, u *Upsert) error {
	b.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
	if len(u.assigns) == 0 {
		// 没有要更新的列, 等价于 DO NOTHING
		if len(u.conflictColumns) == 0 {
			return errs.ErrNoAssignments
		}
		b.quoteColumn(u.conflictColumns[0])
		b.sb.WriteString(" = ")
		b.quoteColumn(u.conflictColumns[0])
		return nil
	}
	for idx, assign := range u.assigns {
		if idx > 0 {
			b.sb.WriteString(", ")
		}
		switch a := assign.(type) {
		case Assignment:
			b.quoteColumn(a.col)
			b.sb.WriteString(" = ")
			if err := b.buildAssignValue(a.val); err != nil {
				return err
			}
		case Column:
			b.quoteColumn(a.name)
			b.sb.WriteString(" = VALUES(")
			b.quoteColumn(a.name)
			b.sb.WriteByte(')')
		default:
			return errs.NewErrUnsupportedAssignable(assign)
		}
	}
	return nil
}

type mariadbDialect struct {
	mysqlDialect
}

func (d mariadbDialect) Name() string {
	return "mariadb"
}

func (d mariadbDialect) buildVectorDistance(b *sqlBuilder, v VectorDistance) error {
	var fn string
	switch v.metric {
	case VectorL2:
		fn = "VEC_DISTANCE_EUCLIDEAN"
	case VectorCosine:
		fn = "VEC_DISTANCE_COSINE"
	default:
		return errs.NewErrUnsupportedByDialect("vector inner product", d.Name())
	}
	b.sb.WriteString(fn)
	b.sb.WriteByte('(')
	b.quoteColumn(v.column)
	b.sb.WriteString(", VEC_FromText(")
	b.addArg(v.literal())
	b.sb.WriteString("))")
	return nil
}

type postgresDialect struct {
	standardSQL
}

func (d postgresDialect) Name() string {
	return "postgres"
}

func (d postgresDialect) placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

func (d postgresDialect) supportsReturning() bool {
	return true
}

func (d postgresDialect) buildUpsert(b *sqlBuilder, u *Upsert) error {
	return writeOnConflict(b, u, "EXCLUDED")
}

// pgvector 的距离操作符
func (d postgresDialect) buildVectorDistance(b *sqlBuilder, v VectorDistance) error {
	var operator string
	switch v.metric {
	case VectorL2:
		operator = " <-> "
	case VectorCosine:
		operator = " <=> "
	case VectorInnerProduct:
		operator = " <#> "
	default:
		return errs.NewErrUnsupportedByDialect("vector metric "+string(v.metric), d.Name())
	}
	b.quoteColumn(v.column)
	b.sb.WriteString(operator)
	b.addArg(v.literal())
	b.sb.WriteString("::vector")
	return nil
}

func (d postgresDialect) buildReturning(b *sqlBuilder, cols []string) error {
	writeReturning(b, cols)
	return nil
}

type sqliteDialect struct {
	standardSQL
}

func (d sqliteDialect) Name() string {
	return "sqlite"
}

func (d sqliteDialect) quoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d sqliteDialect) supportsReturning() bool {
	return true
}

func (d sqliteDialect) buildLimitOffset(b *sqlBuilder, stmt *Statement) error {
	switch {
	case stmt.Limit > 0:
		b.sb.WriteString(" LIMIT ")
		b.addArg(stmt.Limit)
	case stmt.Offset > 0:
		b.sb.WriteString(" LIMIT -1")
	}
	if stmt.Offset > 0 {
		b.sb.WriteString(" OFFSET ")
		b.addArg(stmt.Offset)
	}
	return nil
}

func (d sqliteDialect) buildUpsert(b *sqlBuilder, u *Upsert) error {
	return writeOnConflict(b, u, "excluded")
}

func (d sqliteDialect) buildReturning(b *sqlBuilder, cols []string) error {
	writeReturning(b, cols)
	return nil
}

type sqlserverDialect struct {
	standardSQL
}

func (d sqlserverDialect) Name() string {
	return "sqlserver"
}

func (d sqlserverDialect) quoteIdent(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (d sqlserverDialect) placeholder(index int) string {
	return "@p" + strconv.Itoa(index)
}

func (d sqlserverDialect) supportsReturning() bool {
	return true
}

// OFFSET FETCH 必须跟在 ORDER BY 后面
func (d sqlserverDialect) buildLimitOffset(b *sqlBuilder, stmt *Statement) error {
	if stmt.Limit <= 0 && stmt.Offset <= 0 {
		return nil
	}
	if len(stmt.Orders) == 0 {
		b.sb.WriteString(" ORDER BY (SELECT NULL)")
	}
	b.sb.WriteString(" OFFSET ")
	b.addArg(stmt.Offset)
	b.sb.WriteString(" ROWS")
	if stmt.Limit > 0 {
		b.sb.WriteString(" FETCH NEXT ")
		b.addArg(stmt.Limit)
		b.sb.WriteString(" ROWS ONLY")
	}
	return nil
}

func (d sqlserverDialect) buildOutput(b *sqlBuilder, cols []string) error {
	if len(cols) == 0 {
		return nil
	}
	b.sb.WriteString(" OUTPUT ")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString("INSERTED.")
		b.quoteColumn(col)
	}
	return nil
}

// 已经在 buildOutput 里面写过了
func (d sqlserverDialect) buildReturning(*sqlBuilder, []string) error {
	return nil
}
