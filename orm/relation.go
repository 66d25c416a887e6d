package orm

import (
	"context"
	"fmt"
	"strings"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/startdusk/midgard/orm/model"
)

// relationResolver 对整个批次的父实体加载一个关联, 结果直接挂到父实体上
type relationResolver interface {
	eagerLoad(ctx context.Context, h *Hydrator, parents []*Entity, rel *model.Relation,
		constraints []func(q *Builder), forward Includes) error
}

// 关联类型 => 解析器
var resolvers = map[model.RelationKind]relationResolver{
	model.OneToOne:   hasResolver{},
	model.OneToMany:  hasResolver{many: true},
	model.BelongsTo:  belongsToResolver{},
	model.ManyToMany: manyToManyResolver{},
}

// hasResolver 一对一和一对多, 外键在关联表上
type hasResolver struct {
	many bool
}

func (r hasResolver) eagerLoad(ctx context.Context, h *Hydrator, parents []*Entity, rel *model.Relation,
	constraints []func(q *Builder), forward Includes) error {
	keys := distinctKeys(parents, rel.LocalKey)
	var children []*Entity
	if len(keys) > 0 {
		q, err := relatedQuery(h.sess, rel.Related, rel.Name, constraints)
		if err != nil {
			return err
		}
		selectDeclared(q, rel.Related)
		selectKeys(q, rel.Related, false, append([]string{rel.ForeignKey}, forwardKeys(rel.Related, forward)...))
		q.stmt.Wheres = append([]Clause{{Boolean: BooleanAnd, Predicate: C(rel.ForeignKey).In(keys)}}, q.stmt.Wheres...)
		rows, err := q.All(ctx)
		if err != nil {
			return err
		}
		children = instantiate(rel.Related, rows)
	}
	groups := groupBy(children, rel.ForeignKey)
	for _, p := range parents {
		matches := groups[keyOf(p.Raw(rel.LocalKey))]
		if r.many {
			p.setRelation(rel.Name, NewResultSet(matches...))
			continue
		}
		var one *Entity
		if len(matches) > 0 {
			one = matches[0]
		}
		p.setRelation(rel.Name, one)
	}
	return h.load(ctx, rel.Related, children, forward)
}

// belongsToResolver 外键在父实体上
type belongsToResolver struct{}

func (r belongsToResolver) eagerLoad(ctx context.Context, h *Hydrator, parents []*Entity, rel *model.Relation,
	constraints []func(q *Builder), forward Includes) error {
	keys := distinctKeys(parents, rel.ForeignKey)
	var owners []*Entity
	if len(keys) > 0 {
		q, err := relatedQuery(h.sess, rel.Related, rel.Name, constraints)
		if err != nil {
			return err
		}
		selectDeclared(q, rel.Related)
		selectKeys(q, rel.Related, false, append([]string{rel.OwnerKey}, forwardKeys(rel.Related, forward)...))
		q.stmt.Wheres = append([]Clause{{Boolean: BooleanAnd, Predicate: C(rel.OwnerKey).In(keys)}}, q.stmt.Wheres...)
		rows, err := q.All(ctx)
		if err != nil {
			return err
		}
		owners = instantiate(rel.Related, rows)
	}
	groups := groupBy(owners, rel.OwnerKey)
	for _, p := range parents {
		var owner *Entity
		if matches := groups[keyOf(p.Raw(rel.ForeignKey))]; len(matches) > 0 {
			owner = matches[0]
		}
		p.setRelation(rel.Name, owner)
	}
	return h.load(ctx, rel.Related, owners, forward)
}

// manyToManyResolver 通过中间表关联
// 中间表的列以 pivot_ 为前缀查出来, 再挪到实体的 pivot 上
type manyToManyResolver struct{}

func (r manyToManyResolver) eagerLoad(ctx context.Context, h *Hydrator, parents []*Entity, rel *model.Relation,
	constraints []func(q *Builder), forward Includes) error {
	keys := distinctKeys(parents, rel.LocalKey)
	var children []*Entity
	groups := make(map[string][]*Entity)
	if len(keys) > 0 {
		pivotLocal, pivotForeign := pivotAlias(rel.PivotLocalKey), pivotAlias(rel.PivotForeignKey)
		related := rel.Related.TableName
		q, err := relatedQuery(h.sess, rel.Related, rel.Name, constraints)
		if err != nil {
			return err
		}
		if len(q.stmt.Columns) == 0 {
			// 中间表也有列, 需要带上表名
			q.SelectExpr(qualified(rel.Related)...)
		}
		selectKeys(q, rel.Related, true, forwardKeys(rel.Related, forward))
		q.SelectExpr(
			C(rel.PivotTable+"."+rel.PivotLocalKey).As(pivotLocal),
			C(rel.PivotTable+"."+rel.PivotForeignKey).As(pivotForeign),
		)
		q.stmt.Joins = append([]JoinSpec{{
			Type:  "JOIN",
			Table: rel.PivotTable,
			On:    []Predicate{C(rel.PivotTable + "." + rel.PivotForeignKey).Eq(C(related + "." + rel.OwnerKey))},
		}}, q.stmt.Joins...)
		q.stmt.Wheres = append([]Clause{{
			Boolean:   BooleanAnd,
			Predicate: C(rel.PivotTable + "." + rel.PivotLocalKey).In(keys),
		}}, q.stmt.Wheres...)
		rows, err := q.All(ctx)
		if err != nil {
			return err
		}
		children = make([]*Entity, 0, rows.Len())
		for _, row := range rows.All() {
			attrs := map[string]any(row)
			pivot := map[string]any{
				rel.PivotLocalKey:   attrs[pivotLocal],
				rel.PivotForeignKey: attrs[pivotForeign],
			}
			delete(attrs, pivotLocal)
			delete(attrs, pivotForeign)
			child := newEntityFromRow(rel.Related, attrs)
			child.pivot = pivot
			children = append(children, child)
			k := keyOf(pivot[rel.PivotLocalKey])
			groups[k] = append(groups[k], child)
		}
	}
	for _, p := range parents {
		p.setRelation(rel.Name, NewResultSet(groups[keyOf(p.Raw(rel.LocalKey))]...))
	}
	return h.load(ctx, rel.Related, children, forward)
}

func qualified(m *model.Model) []Selectable {
	if len(m.Columns) == 0 {
		return []Selectable{C(m.TableName + ".*")}
	}
	res := make([]Selectable, 0, len(m.Columns))
	for _, col := range m.Columns {
		res = append(res, C(m.TableName+"."+col).As(col))
	}
	return res
}

func pivotAlias(col string) string {
	return "pivot_" + col
}

// relatedQuery 关联查询的基础部分
// 每个约束单独作为一组条件, 和键的条件之间是 AND
func relatedQuery(sess Session, m *model.Model, relation string, constraints []func(q *Builder)) (*Builder, error) {
	q := NewBuilder(sess).Table(m.TableName)
	for _, fn := range constraints {
		sub := NewBuilder(sess).Table(m.TableName)
		fn(sub)
		if err := mergeConstraint(q, sub, relation); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// 模型声明了列, 约束里又没有指定时, 只查声明的列
func selectDeclared(q *Builder, m *model.Model) {
	if len(q.stmt.Columns) == 0 && len(m.Columns) > 0 {
		q.Select(m.Columns...)
	}
}

// selectKeys 约束缩小了查询的列时, 补上分组和下一层关联要用的列
// 否则实体上没有这些列, 关联永远匹配不上
func selectKeys(q *Builder, m *model.Model, qualify bool, cols []string) {
	if len(q.stmt.Columns) == 0 {
		return
	}
	for _, col := range cols {
		if col == "" || selects(q.stmt.Columns, col) {
			continue
		}
		if qualify {
			q.stmt.Columns = append(q.stmt.Columns, C(m.TableName+"."+col).As(col))
			continue
		}
		q.stmt.Columns = append(q.stmt.Columns, C(col))
	}
}

// selects 查询结果里是否会有 col 这一列, 原生表达式无法判断, 当作没有
func selects(cols []Selectable, col string) bool {
	for _, s := range cols {
		c, ok := s.(Column)
		if !ok {
			continue
		}
		name, alias := strings.TrimSpace(c.name), c.alias
		if idx := indexAs(name); idx >= 0 {
			name, alias = strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+4:])
		}
		if alias != "" {
			if alias == col {
				return true
			}
			continue
		}
		if name == "*" || name == col || strings.HasSuffix(name, ".*") || strings.HasSuffix(name, "."+col) {
			return true
		}
	}
	return false
}

// forwardKeys 下一层关联在 m 这一侧用到的列
func forwardKeys(m *model.Model, forward Includes) []string {
	if len(forward) == 0 {
		return nil
	}
	nodes, err := partition(forward)
	if err != nil {
		return nil
	}
	res := make([]string, 0, len(nodes))
	for _, node := range nodes {
		rel, err := m.Relation(node.name)
		if err != nil {
			continue
		}
		if rel.Kind == model.BelongsTo {
			res = append(res, rel.ForeignKey)
			continue
		}
		res = append(res, rel.LocalKey)
	}
	return res
}

// mergeConstraint 一个关联的所有父实体共用一条查询, 分页没法落到每个父实体上, 直接拒绝
func mergeConstraint(q *Builder, sub *Builder, relation string) error {
	if sub.stmt.Limit > 0 || sub.stmt.Offset > 0 {
		return errs.NewErrConstraintPaging(relation)
	}
	if hasClauses(sub.stmt.Wheres) {
		q.stmt.Wheres = append(q.stmt.Wheres, Clause{Boolean: BooleanAnd, Group: sub.stmt.Wheres})
	}
	if len(sub.stmt.Columns) > 0 {
		q.stmt.Columns = sub.stmt.Columns
	}
	q.stmt.Joins = append(q.stmt.Joins, sub.stmt.Joins...)
	q.stmt.Orders = append(q.stmt.Orders, sub.stmt.Orders...)
	q.stmt.Groups = append(q.stmt.Groups, sub.stmt.Groups...)
	q.stmt.Having = append(q.stmt.Having, sub.stmt.Having...)
	if sub.stmt.Distinct {
		q.stmt.Distinct = true
	}
	return nil
}

func instantiate(m *model.Model, rows *ResultSet[Result]) []*Entity {
	res := make([]*Entity, 0, rows.Len())
	for _, row := range rows.All() {
		res = append(res, newEntityFromRow(m, row))
	}
	return res
}

// distinctKeys 按第一次出现的顺序去重, 忽略 NULL
func distinctKeys(entities []*Entity, col string) []any {
	seen := make(map[string]struct{}, len(entities))
	keys := make([]any, 0, len(entities))
	for _, e := range entities {
		v := e.Raw(col)
		if v == nil {
			continue
		}
		k := keyOf(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, v)
	}
	return keys
}

// groupBy 保持查询返回的顺序
func groupBy(entities []*Entity, col string) map[string][]*Entity {
	res := make(map[string][]*Entity, len(entities))
	for _, e := range entities {
		v := e.Raw(col)
		if v == nil {
			continue
		}
		k := keyOf(v)
		res[k] = append(res[k], e)
	}
	return res
}

// keyOf 驱动返回的键类型不一定一致, 如 int64 和 "1", 统一成字符串比较
func keyOf(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
