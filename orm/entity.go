package orm

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"

	"github.com/startdusk/midgard/orm/internal/valuer"
	"github.com/startdusk/midgard/orm/model"
)

// Entity 表中的一行
// attributes 是存储形式, 读写都经过模型上声明的存取器
// relations 的值是 *Entity 或者 *Collection, 没有匹配时是 nil 或空集合
type Entity struct {
	model      *model.Model
	attributes map[string]any
	original   map[string]any
	relations  map[string]any
	pivot      map[string]any
	exists     bool
}

// NewEntity 新建一个还没保存的实体
func NewEntity(m *model.Model) *Entity {
	return &Entity{
		model:      m,
		attributes: make(map[string]any),
		original:   make(map[string]any),
		relations:  make(map[string]any),
	}
}

// 从数据库读出来的实体, exists 为 true, 并且不是脏的
func newEntityFromRow(m *model.Model, row map[string]any) *Entity {
	return &Entity{
		model:      m,
		attributes: row,
		original:   maps.Clone(row),
		relations:  make(map[string]any),
		exists:     true,
	}
}

func (e *Entity) Model() *model.Model {
	return e.model
}

// Get 经过存取器的值
func (e *Entity) Get(col string) (any, error) {
	raw := e.attributes[col]
	t, ok := e.model.Transform(col)
	if !ok || t.Get == nil {
		return raw, nil
	}
	return t.Get(raw)
}

// Raw 存储形式的值
func (e *Entity) Raw(col string) any {
	return e.attributes[col]
}

// Set 经过存取器写入, 写入后这一列就是脏的
func (e *Entity) Set(col string, val any) error {
	if t, ok := e.model.Transform(col); ok && t.Set != nil {
		v, err := t.Set(val)
		if err != nil {
			return err
		}
		val = v
	}
	e.attributes[col] = val
	return nil
}

func (e *Entity) Fill(attrs map[string]any) error {
	for _, col := range slices.Sorted(maps.Keys(attrs)) {
		if err := e.Set(col, attrs[col]); err != nil {
			return err
		}
	}
	return nil
}

// FillStruct 用结构体的字段填充, 列名规则和 Bind 一样
func (e *Entity) FillStruct(src any) error {
	attrs, err := valuer.Attributes(src)
	if err != nil {
		return err
	}
	return e.Fill(attrs)
}

// Attributes 存储形式的副本
func (e *Entity) Attributes() map[string]any {
	return maps.Clone(e.attributes)
}

// Dirty 和读出来的时候相比变化了的列
func (e *Entity) Dirty() map[string]any {
	res := make(map[string]any)
	for col, val := range e.attributes {
		orig, ok := e.original[col]
		if !ok || !reflect.DeepEqual(orig, val) {
			res[col] = val
		}
	}
	return res
}

// IsDirty 不传参数时判断整个实体
func (e *Entity) IsDirty(cols ...string) bool {
	dirty := e.Dirty()
	if len(cols) == 0 {
		return len(dirty) > 0
	}
	for _, col := range cols {
		if _, ok := dirty[col]; ok {
			return true
		}
	}
	return false
}

func (e *Entity) Exists() bool {
	return e.exists
}

// Key 主键的值
func (e *Entity) Key() any {
	return e.attributes[e.model.PrimaryKey]
}

// Relation 预加载的结果, 没有加载过时 ok 为 false
func (e *Entity) Relation(name string) (any, bool) {
	v, ok := e.relations[name]
	return v, ok
}

func (e *Entity) RelationLoaded(name string) bool {
	_, ok := e.relations[name]
	return ok
}

// One 一对一或者 BelongsTo 的关联, 没有匹配时是 nil
func (e *Entity) One(name string) *Entity {
	v, _ := e.relations[name].(*Entity)
	return v
}

// Many 一对多或者多对多的关联, 没有加载时是 nil
func (e *Entity) Many(name string) *Collection {
	v, _ := e.relations[name].(*Collection)
	return v
}

func (e *Entity) setRelation(name string, val any) {
	e.relations[name] = val
}

func (e *Entity) unsetRelation(name string) {
	delete(e.relations, name)
}

// Pivot 多对多关联读出来的实体上, 中间表的列
func (e *Entity) Pivot(col string) any {
	return e.pivot[col]
}

// ToMap 列经过存取器, 预加载的关联也会转换
func (e *Entity) ToMap() (map[string]any, error) {
	res := make(map[string]any, len(e.attributes)+len(e.relations))
	for col := range e.attributes {
		v, err := e.Get(col)
		if err != nil {
			return nil, err
		}
		res[col] = v
	}
	for name, rel := range e.relations {
		switch r := rel.(type) {
		case *Entity:
			if r == nil {
				res[name] = nil
				continue
			}
			m, err := r.ToMap()
			if err != nil {
				return nil, err
			}
			res[name] = m
		case *Collection:
			s, err := r.ToSlice()
			if err != nil {
				return nil, err
			}
			res[name] = s
		}
	}
	if len(e.pivot) > 0 {
		res["pivot"] = maps.Clone(e.pivot)
	}
	return res, nil
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	m, err := e.ToMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Bind 把经过存取器的值写入结构体
//
//	type User struct {
//		ID    int64
//		Email string `orm:"column=email_address"`
//	}
func (e *Entity) Bind(dst any) error {
	attrs := make(map[string]any, len(e.attributes))
	for col := range e.attributes {
		v, err := e.Get(col)
		if err != nil {
			return err
		}
		attrs[col] = v
	}
	return valuer.Bind(attrs, dst)
}

// BindAll 把整个集合绑定成结构体切片
func BindAll[T any](c *Collection) ([]T, error) {
	res := make([]T, 0, c.Len())
	for _, e := range c.All() {
		var t T
		if err := e.Bind(&t); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func (e *Entity) syncOriginal() {
	e.original = maps.Clone(e.attributes)
}
