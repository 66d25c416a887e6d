// Package sqlite 单独一个包, 避免只用 MySQL 和 Postgres 的项目也要 cgo
package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/startdusk/midgard/orm"
)

const DriverName = "sqlite3"

// IsUniqueViolation 唯一索引或者主键冲突
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Options SQLite 方言, 并且能识别 SQLite 的唯一索引冲突
func Options() []orm.DBOption {
	return []orm.DBOption{
		orm.DBWithDialect(orm.DialectSQLite),
		orm.DBWithUniqueViolation(IsUniqueViolation),
	}
}

func Open(dsn string, opts ...orm.DBOption) (*orm.DB, error) {
	return orm.Open(DriverName, dsn, append(Options(), opts...)...)
}
