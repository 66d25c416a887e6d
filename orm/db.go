package orm

import (
	"context"
	"database/sql"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/startdusk/midgard/orm/model"
)

var (
	_ Session = &DB{}
)

type DBOption func(db *DB)

type DB struct {
	core
	db *sql.DB

	compilerOpts []CompilerOption
}

func Open(driver string, dataSourceName string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}

	return OpenDB(db, opts...)
}

func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	newDB := &DB{
		core: core{
			r:       model.NewRegistry(),
			dialect: DialectMySQL,
			log:     &queryLog{},
		},
		db: db,
	}

	for _, opt := range opts {
		opt(newDB)
	}
	newDB.compiler = NewCompiler(newDB.dialect, newDB.compilerOpts...)
	return newDB, nil
}

func MustOpenDB(db *sql.DB, opts ...DBOption) *DB {
	newDB, err := OpenDB(db, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func MustOpen(driver string, dataSourceName string, opts ...DBOption) *DB {
	newDB, err := Open(driver, dataSourceName, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = append(db.mdls, mdls...)
	}
}

func DBWithCompilerOptions(opts ...CompilerOption) DBOption {
	return func(db *DB) {
		db.compilerOpts = append(db.compilerOpts, opts...)
	}
}

// DBWithQueryLog 打开后每条语句都会记录下来, 见 DB.QueryLog
func DBWithQueryLog() DBOption {
	return func(db *DB) {
		db.log.enabled = true
	}
}

// DBWithUniqueViolation 补充判断唯一索引冲突的方法, Link 依赖它做幂等
// MySQL, Postgres 已经内置, SQLite 见 orm/sqlite
func DBWithUniqueViolation(fn func(err error) bool) DBOption {
	return func(db *DB) {
		db.uniqueViolations = append(db.uniqueViolations, fn)
	}
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) Registry() model.Registry {
	return db.r
}

// Table 开始一个查询
func (db *DB) Table(name string) *Builder {
	return NewBuilder(db).Table(name)
}

// Model 按表名取注册过的模型
func (db *DB) Model(table string) *EntityQuery {
	m, err := db.r.Get(table)
	if err != nil {
		return &EntityQuery{err: err}
	}
	return From(db, m)
}

func (db *DB) EnableQueryLog() {
	db.log.setEnabled(true)
}

func (db *DB) DisableQueryLog() {
	db.log.setEnabled(false)
}

// QueryLog 返回的是副本
func (db *DB) QueryLog() []QueryLogEntry {
	return db.log.snapshot()
}

func (db *DB) FlushQueryLog() {
	db.log.flush()
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

// DoTx fn 返回错误或者 panic 都会回滚, panic 会继续往上抛
func (db *DB) DoTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *sql.TxOptions) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil {
				err = errs.NewErrFailedToRollbackTx(err, rollbackErr, panicked)
			}
			return
		}
		err = tx.Commit()
	}()
	err = fn(ctx, tx)
	// 执行过程中没有发生panic, 则标志位置为false
	panicked = false
	return err
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) getCore() core {
	return db.core
}
