package orm

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var (
	_ Session = &Tx{}
)

// Session 代表 DB 或者 Tx, Builder 和 Hydrator 都在 Session 上执行
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Tx struct {
	tx *sql.Tx
	db *DB

	mu          sync.Mutex
	afterCommit []func()
}

func (t *Tx) getCore() core {
	return t.db.core
}

func (t *Tx) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) Table(name string) *Builder {
	return NewBuilder(t).Table(name)
}

func (t *Tx) Model(table string) *EntityQuery {
	m, err := t.db.r.Get(table)
	if err != nil {
		return &EntityQuery{err: err}
	}
	return From(t, m)
}

// AfterCommit 提交成功之后按注册顺序执行, 回滚就丢弃
func (t *Tx) AfterCommit(fn func()) {
	t.mu.Lock()
	t.afterCommit = append(t.afterCommit, fn)
	t.mu.Unlock()
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		t.discardHooks()
		return err
	}
	t.mu.Lock()
	hooks := t.afterCommit
	t.afterCommit = nil
	t.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

func (t *Tx) Rollback() error {
	t.discardHooks()
	return t.tx.Rollback()
}

func (t *Tx) discardHooks() {
	t.mu.Lock()
	t.afterCommit = nil
	t.mu.Unlock()
}

// 尝试回滚, 如果此时事务已经提交了, 或者被回滚掉了, 那么
// 就会得到sql.ErrTxDone错误, 这时候忽略这个错误就好
func (t *Tx) RollbackIfNotCommit() error {
	err := t.Rollback()
	if !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
