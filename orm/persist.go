package orm

import (
	"context"
	"maps"
	"reflect"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/startdusk/midgard/orm/model"
)

// Save 新实体插入, 已存在的实体只更新脏的列
// 插入后主键取自 RETURNING 或者 LastInsertId
func Save(ctx context.Context, sess Session, e *Entity) error {
	m := e.model
	if e.exists {
		dirty := e.Dirty()
		if len(dirty) == 0 {
			return nil
		}
		key := e.original[m.PrimaryKey]
		if key == nil {
			return errs.ErrNoPrimaryKey
		}
		res := NewBuilder(sess).Table(m.TableName).Where(m.PrimaryKey, "=", key).Update(ctx, dirty)
		if err := res.Err(); err != nil {
			return err
		}
		e.syncOriginal()
		return nil
	}

	if len(e.attributes) == 0 {
		return errs.ErrInsertZeroRows
	}
	b := NewBuilder(sess).Table(m.TableName)
	if !isZeroKey(e.Key()) {
		if err := b.Insert(ctx, e.attributes).Err(); err != nil {
			return err
		}
	} else {
		// 主键是零值时交给数据库生成
		attrs := maps.Clone(e.attributes)
		delete(attrs, m.PrimaryKey)
		id, err := b.InsertGetID(ctx, attrs, m.PrimaryKey)
		if err != nil {
			return err
		}
		e.attributes[m.PrimaryKey] = id
	}
	e.exists = true
	e.syncOriginal()
	return nil
}

// Delete 按主键删除, 内存里的实体不会失效, 只是 Exists 变成 false
func Delete(ctx context.Context, sess Session, e *Entity) error {
	key := e.Key()
	if key == nil {
		return errs.ErrNoPrimaryKey
	}
	m := e.model
	res := NewBuilder(sess).Table(m.TableName).Where(m.PrimaryKey, "=", key).Delete(ctx)
	if err := res.Err(); err != nil {
		return err
	}
	e.exists = false
	return nil
}

// Link 在中间表插入关联, 已经关联过的直接跳过
// related 可以是 *Entity, 也可以直接是关联表的键
// 先查再插, 并发插入导致的唯一索引冲突也当作成功
func Link(ctx context.Context, sess Session, parent *Entity, relation string, related ...any) error {
	rel, parentKey, err := pivotOf(parent, relation)
	if err != nil {
		return err
	}
	c := sess.getCore()
	for _, r := range related {
		key, err := relatedKey(r, rel)
		if err != nil {
			return err
		}
		exists, err := NewBuilder(sess).Table(rel.PivotTable).
			Where(rel.PivotLocalKey, "=", parentKey).
			Where(rel.PivotForeignKey, "=", key).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		err = NewBuilder(sess).Table(rel.PivotTable).Insert(ctx, map[string]any{
			rel.PivotLocalKey:   parentKey,
			rel.PivotForeignKey: key,
		}).Err()
		if err != nil && !c.isUniqueViolation(err) {
			return err
		}
	}
	// 已经加载的关联过期了
	parent.unsetRelation(relation)
	return nil
}

// Unlink 删除中间表的关联, 不传 related 时删除父实体所有的关联
func Unlink(ctx context.Context, sess Session, parent *Entity, relation string, related ...any) (int64, error) {
	rel, parentKey, err := pivotOf(parent, relation)
	if err != nil {
		return 0, err
	}
	b := NewBuilder(sess).Table(rel.PivotTable).Where(rel.PivotLocalKey, "=", parentKey)
	if len(related) > 0 {
		keys := make([]any, 0, len(related))
		for _, r := range related {
			key, err := relatedKey(r, rel)
			if err != nil {
				return 0, err
			}
			keys = append(keys, key)
		}
		b.WhereIn(rel.PivotForeignKey, keys)
	}
	n, err := b.Delete(ctx).RowsAffected()
	if err != nil {
		return 0, err
	}
	parent.unsetRelation(relation)
	return n, nil
}

func pivotOf(parent *Entity, relation string) (*model.Relation, any, error) {
	rel, err := parent.model.Relation(relation)
	if err != nil {
		return nil, nil, err
	}
	if rel.Kind != model.ManyToMany {
		return nil, nil, errs.NewErrNotManyToMany(relation)
	}
	key := parent.Raw(rel.LocalKey)
	if key == nil {
		return nil, nil, errs.ErrNoPrimaryKey
	}
	return rel, key, nil
}

func relatedKey(r any, rel *model.Relation) (any, error) {
	e, ok := r.(*Entity)
	if !ok {
		if r == nil {
			return nil, errs.ErrNoPrimaryKey
		}
		return r, nil
	}
	key := e.Raw(rel.OwnerKey)
	if key == nil {
		return nil, errs.ErrNoPrimaryKey
	}
	return key, nil
}

func isZeroKey(key any) bool {
	if key == nil {
		return true
	}
	return reflect.ValueOf(key).IsZero()
}
