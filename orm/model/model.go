package model

import (
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/startdusk/midgard/orm/internal/errs"
)

const defaultPrimaryKey = "id"

type ModelOption func(m *Model)

// Model 是一张表的声明, 相当于实体的 "类"
// 关联和存取器都是显式声明的, 不依赖方法名反射
type Model struct {
	TableName  string
	PrimaryKey string

	// Columns 可选, 声明后 SELECT 默认只查这些列
	Columns []string

	transforms map[string]Transform

	// relations 保留声明顺序, relationMap 用于查找
	relations   []*Relation
	relationMap map[string]*Relation
}

func New(tableName string, opts ...ModelOption) *Model {
	m := &Model{
		TableName:   tableName,
		PrimaryKey:  defaultPrimaryKey,
		transforms:  make(map[string]Transform, 4),
		relationMap: make(map[string]*Relation, 4),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func ModelWithPrimaryKey(col string) ModelOption {
	return func(m *Model) {
		m.PrimaryKey = col
	}
}

func ModelWithColumns(cols ...string) ModelOption {
	return func(m *Model) {
		m.Columns = cols
	}
}

// ModelWithTransform 给列声明存取器
func ModelWithTransform(col string, t Transform) ModelOption {
	return func(m *Model) {
		m.transforms[col] = t
	}
}

// Transform 返回列的存取器, 没有声明时 ok 为 false
func (m *Model) Transform(col string) (Transform, bool) {
	t, ok := m.transforms[col]
	return t, ok
}

// Relation 按名字查找关联, 找不到属于编程错误
func (m *Model) Relation(name string) (*Relation, error) {
	rel, ok := m.relationMap[name]
	if !ok {
		return nil, errs.NewErrUnknownRelation(m.TableName, name)
	}
	return rel, nil
}

// Relations 按声明顺序返回所有关联
func (m *Model) Relations() []*Relation {
	res := make([]*Relation, len(m.relations))
	copy(res, m.relations)
	return res
}

// HasOne 一对一, 外键在关联表上
//
//	users.HasOne("profile", profiles) => profiles.user_id = users.id
func (m *Model) HasOne(name string, related *Model, opts ...RelationOption) *Model {
	return m.addRelation(&Relation{
		Name:       name,
		Kind:       OneToOne,
		ForeignKey: m.foreignKeyName(),
		LocalKey:   m.PrimaryKey,
	}, related, opts)
}

// HasMany 一对多, 外键在关联表上
//
//	users.HasMany("posts", posts) => posts.user_id = users.id
func (m *Model) HasMany(name string, related *Model, opts ...RelationOption) *Model {
	return m.addRelation(&Relation{
		Name:       name,
		Kind:       OneToMany,
		ForeignKey: m.foreignKeyName(),
		LocalKey:   m.PrimaryKey,
	}, related, opts)
}

// BelongsTo 反向的一对一, 外键在自己这张表上
//
//	posts.BelongsTo("author", users, RelationWithForeignKey("user_id")) => posts.user_id = users.id
func (m *Model) BelongsTo(name string, related *Model, opts ...RelationOption) *Model {
	return m.addRelation(&Relation{
		Name:       name,
		Kind:       BelongsTo,
		ForeignKey: related.foreignKeyName(),
		OwnerKey:   related.PrimaryKey,
	}, related, opts)
}

// ManyToMany 多对多, 通过中间表关联
//
//	users.ManyToMany("groups", groups) => group_user(user_id, group_id)
func (m *Model) ManyToMany(name string, related *Model, opts ...RelationOption) *Model {
	return m.addRelation(&Relation{
		Name:            name,
		Kind:            ManyToMany,
		LocalKey:        m.PrimaryKey,
		OwnerKey:        related.PrimaryKey,
		PivotTable:      pivotTableName(m, related),
		PivotLocalKey:   m.foreignKeyName(),
		PivotForeignKey: related.foreignKeyName(),
	}, related, opts)
}

func (m *Model) addRelation(rel *Relation, related *Model, opts []RelationOption) *Model {
	rel.Parent = m
	rel.Related = related
	for _, opt := range opts {
		opt(rel)
	}
	if _, ok := m.relationMap[rel.Name]; !ok {
		m.relations = append(m.relations, rel)
	} else {
		// 重复声明, 后声明的覆盖先声明的
		for i, r := range m.relations {
			if r.Name == rel.Name {
				m.relations[i] = rel
			}
		}
	}
	m.relationMap[rel.Name] = rel
	return m
}

// users + id => user_id
func (m *Model) foreignKeyName() string {
	return singular(m.TableName) + "_" + m.PrimaryKey
}

// 中间表默认按单数表名的字典序拼接, 如 group_user
func pivotTableName(a, b *Model) string {
	l, r := singular(a.TableName), singular(b.TableName)
	if l > r {
		l, r = r, l
	}
	return l + "_" + r
}

// app.users => user
func singular(table string) string {
	if idx := strings.LastIndexByte(table, '.'); idx >= 0 {
		table = table[idx+1:]
	}
	return inflection.Singular(table)
}
