package model

import (
	"sync"

	"github.com/startdusk/midgard/orm/internal/errs"
)

// Registry 代表元数据的注册中心
type Registry interface {
	Get(tableName string) (*Model, error)
	Register(m *Model)
	Define(tableName string, opts ...ModelOption) *Model
}

type registry struct {
	models map[string]*Model

	// 使用严格的读写锁, 采用double check的读写锁写法就没有线程覆盖的问题
	lock sync.RWMutex
}

func NewRegistry() Registry {
	return &registry{
		// 一个项目如果超过64张表, 说明需要拆分了
		models: make(map[string]*Model, 64),
	}
}

func (r *registry) Get(tableName string) (*Model, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	m, ok := r.models[tableName]
	if !ok {
		return nil, errs.NewErrUnknownModel(tableName)
	}
	return m, nil
}

func (r *registry) Register(m *Model) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.models[m.TableName] = m
}

// Define 已经注册过的直接返回, 否则创建并注册
func (r *registry) Define(tableName string, opts ...ModelOption) *Model {
	r.lock.RLock()
	m, ok := r.models[tableName]
	r.lock.RUnlock()
	if ok {
		return m
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	// double check 写法, 保证不重复创建对象
	m, ok = r.models[tableName]
	if ok {
		return m
	}
	m = New(tableName, opts...)
	r.models[tableName] = m
	return m
}
