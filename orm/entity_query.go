package orm

import (
	"context"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/startdusk/midgard/orm/model"
)

// EntityQuery 查询结果是实体, 支持预加载
type EntityQuery struct {
	sess     Session
	model    *model.Model
	b        *Builder
	includes Includes
	// err 延迟到终结方法再返回, 如 db.Model 找不到模型
	err error
}

func From(sess Session, m *model.Model) *EntityQuery {
	b := NewBuilder(sess).Table(m.TableName)
	if len(m.Columns) > 0 {
		b.Select(m.Columns...)
	}
	return &EntityQuery{
		sess:  sess,
		model: m,
		b:     b,
	}
}

func (q *EntityQuery) Where(column string, operator string, val any) *EntityQuery {
	return q.Scope(func(b *Builder) { b.Where(column, operator, val) })
}

func (q *EntityQuery) OrWhere(column string, operator string, val any) *EntityQuery {
	return q.Scope(func(b *Builder) { b.OrWhere(column, operator, val) })
}

func (q *EntityQuery) WhereExpr(ps ...Predicate) *EntityQuery {
	return q.Scope(func(b *Builder) { b.WhereExpr(ps...) })
}

func (q *EntityQuery) WhereIn(column string, vals any) *EntityQuery {
	return q.Scope(func(b *Builder) { b.WhereIn(column, vals) })
}

func (q *EntityQuery) OrderBy(column string, dir ...string) *EntityQuery {
	return q.Scope(func(b *Builder) { b.OrderBy(column, dir...) })
}

func (q *EntityQuery) OrderByDesc(column string) *EntityQuery {
	return q.Scope(func(b *Builder) { b.OrderByDesc(column) })
}

func (q *EntityQuery) Limit(limit int) *EntityQuery {
	return q.Scope(func(b *Builder) { b.Limit(limit) })
}

func (q *EntityQuery) Offset(offset int) *EntityQuery {
	return q.Scope(func(b *Builder) { b.Offset(offset) })
}

func (q *EntityQuery) Join(table string, on ...Predicate) *EntityQuery {
	return q.Scope(func(b *Builder) { b.Join(table, on...) })
}

// Scope 直接操作底层的 Builder, 用于复用查询条件
func (q *EntityQuery) Scope(fn func(b *Builder)) *EntityQuery {
	if q.err != nil {
		return q
	}
	fn(q.b)
	return q
}

// Including Including("posts", "posts.comments")
func (q *EntityQuery) Including(paths ...string) *EntityQuery {
	q.includes = append(q.includes, Include(paths...)...)
	return q
}

func (q *EntityQuery) IncludingWith(path string, fn func(b *Builder)) *EntityQuery {
	q.includes = q.includes.With(path, fn)
	return q
}

// Builder 底层的 Builder, 可以直接拿去执行得到 Result
func (q *EntityQuery) Builder() *Builder {
	return q.b
}

func (q *EntityQuery) All(ctx context.Context) (*Collection, error) {
	if q.err != nil {
		return nil, q.err
	}
	// 先检查预加载指令, 避免白查一次
	if err := validateIncludes(q.model, q.includes); err != nil {
		return nil, err
	}
	rows, err := q.b.All(ctx)
	if err != nil {
		return nil, err
	}
	return NewHydrator(q.sess).Hydrate(ctx, q.model, rows.Items(), q.includes)
}

// First 没有数据返回 ErrNoRows
func (q *EntityQuery) First(ctx context.Context) (*Entity, error) {
	if q.err != nil {
		return nil, q.err
	}
	c, err := q.clone(func(b *Builder) { b.Limit(1) }).All(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := c.First()
	if !ok {
		return nil, errs.ErrNoRows
	}
	return e, nil
}

// Find 按主键查找
func (q *EntityQuery) Find(ctx context.Context, id any) (*Entity, error) {
	if q.err != nil {
		return nil, q.err
	}
	pk := q.model.TableName + "." + q.model.PrimaryKey
	return q.clone(func(b *Builder) { b.Where(pk, "=", id) }).First(ctx)
}

func (q *EntityQuery) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	return q.b.Count(ctx)
}

func (q *EntityQuery) clone(fn func(b *Builder)) *EntityQuery {
	b := q.b.Clone()
	fn(b)
	return &EntityQuery{
		sess:     q.sess,
		model:    q.model,
		b:        b,
		includes: append(Includes(nil), q.includes...),
	}
}
