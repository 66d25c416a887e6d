package orm

import (
	"database/sql"
	"encoding/json"
	"iter"
	"maps"
	"slices"
)

// Arrayable 可以转成 map, ResultSet 依赖它做 JSON 序列化
type Arrayable interface {
	ToMap() (map[string]any, error)
}

// Result 一行数据, 列名到值, 没有关联信息
type Result map[string]any

func (r Result) Get(col string) any {
	return r[col]
}

func (r Result) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// Columns 按列名排序
func (r Result) Columns() []string {
	return slices.Sorted(maps.Keys(r))
}

func (r Result) ToMap() (map[string]any, error) {
	return maps.Clone(map[string]any(r)), nil
}

// ResultSet 有序的结果集, 顺序就是查询返回的顺序
type ResultSet[T Arrayable] struct {
	items []T
}

// Collection 实体的结果集
type Collection = ResultSet[*Entity]

func NewResultSet[T Arrayable](items ...T) *ResultSet[T] {
	return &ResultSet[T]{items: items}
}

func (rs *ResultSet[T]) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.items)
}

func (rs *ResultSet[T]) At(i int) T {
	return rs.items[i]
}

// First 结果集为空时返回零值和 false
func (rs *ResultSet[T]) First() (T, bool) {
	var t T
	if rs.Len() == 0 {
		return t, false
	}
	return rs.items[0], true
}

func (rs *ResultSet[T]) Items() []T {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.items)
}

func (rs *ResultSet[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if rs == nil {
			return
		}
		for i, item := range rs.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

func (rs *ResultSet[T]) ToSlice() ([]map[string]any, error) {
	res := make([]map[string]any, 0, rs.Len())
	for _, item := range rs.All() {
		m, err := item.ToMap()
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, nil
}

// MarshalJSON 空的结果集是 [], 不是 null
func (rs *ResultSet[T]) MarshalJSON() ([]byte, error) {
	data, err := rs.ToSlice()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// ExecResult INSERT, UPDATE, DELETE 的结果
type ExecResult struct {
	err error
	res sql.Result
}

func (r ExecResult) Err() error {
	return r.err
}

func (r ExecResult) LastInsertId() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.res == nil {
		return 0, nil
	}
	return r.res.LastInsertId()
}

func (r ExecResult) RowsAffected() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.res == nil {
		return 0, nil
	}
	return r.res.RowsAffected()
}
