// Package querycache 缓存 SELECT 的结果集
//
// key 由表的版本号和 Query.String() 组成, 同一个进程里对表的写操作会让版本号加一,
// 旧的 key 不再命中, 等着过期. 别的进程写的数据只能等过期
// RAW 语句既不缓存, 也不会让版本号变化
// 事务里的查询不经过缓存, 事务里的写操作在提交之后才让版本号变化
package querycache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/startdusk/midgard/cache"
	"github.com/startdusk/midgard/orm"
)

const keyPrefix = "orm:query:"

func init() {
	// 驱动会返回 time.Time, 作为 any 编码需要注册
	gob.Register(time.Time{})
}

type MiddlewareBuilder struct {
	c          cache.Cache
	expiration time.Duration
	logger     *slog.Logger
	// 为空时缓存所有表
	tables map[string]struct{}

	g        singleflight.Group
	mu       sync.RWMutex
	versions map[string]uint64
}

func NewMiddlewareBuilder(c cache.Cache, expiration time.Duration) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		c:          c,
		expiration: expiration,
		versions:   make(map[string]uint64, 16),
	}
}

// Tables 只缓存这些表的查询, 带 JOIN 的查询要求所有表都在里面
func (m *MiddlewareBuilder) Tables(tables ...string) *MiddlewareBuilder {
	if m.tables == nil {
		m.tables = make(map[string]struct{}, len(tables))
	}
	for _, t := range tables {
		m.tables[t] = struct{}{}
	}
	return m
}

func (m *MiddlewareBuilder) Logger(logger *slog.Logger) *MiddlewareBuilder {
	m.logger = logger
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	logger := m.logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			stmt := qc.Statement
			if stmt == nil || qc.Query == nil {
				return next(ctx, qc)
			}
			switch stmt.Kind {
			case orm.KindSelect, orm.KindCount:
				// 事务里读到的可能是未提交的数据, 不读也不写缓存
				if qc.Tx != nil {
					return next(ctx, qc)
				}
			case orm.KindInsert, orm.KindUpdate, orm.KindDelete:
				res := next(ctx, qc)
				if res.Err != nil {
					return res
				}
				if qc.Tx != nil {
					// 回滚的写入不影响缓存
					table := stmt.Table
					qc.Tx.AfterCommit(func() { m.bump(table) })
					return res
				}
				m.bump(stmt.Table)
				return res
			default:
				return next(ctx, qc)
			}
			tables := tablesOf(stmt)
			if !m.cacheable(tables) {
				return next(ctx, qc)
			}

			key := m.key(tables, qc.Query)
			val, err := m.c.Get(ctx, key)
			if err == nil {
				rs, err := decode(val)
				if err == nil {
					return &orm.QueryResult{Result: rs}
				}
				logger.WarnContext(ctx, "querycache: 解码失败", slog.String("key", key), slog.Any("error", err))
			} else if !errors.Is(err, cache.ErrKeyNotFound) {
				logger.WarnContext(ctx, "querycache: 读缓存失败", slog.String("key", key), slog.Any("error", err))
			}

			v, err, shared := m.g.Do(key, func() (any, error) {
				res := next(ctx, qc)
				if res.Err != nil {
					return nil, res.Err
				}
				rs, _ := res.Result.(*orm.ResultSet[orm.Result])
				data, err := encode(rs)
				if err != nil {
					logger.WarnContext(ctx, "querycache: 编码失败", slog.String("key", key), slog.Any("error", err))
					return rs, nil
				}
				if err := m.c.Set(ctx, key, data, m.expiration); err != nil {
					logger.WarnContext(ctx, "querycache: 写缓存失败", slog.String("key", key), slog.Any("error", err))
				}
				return rs, nil
			})
			if err != nil {
				return &orm.QueryResult{Err: err}
			}
			rs, _ := v.(*orm.ResultSet[orm.Result])
			if shared {
				// 实体会直接修改行数据, 共享的结果要复制一份
				rs = clone(rs)
			}
			return &orm.QueryResult{Result: rs}
		}
	}
}

func (m *MiddlewareBuilder) cacheable(tables []string) bool {
	if m.tables == nil {
		return true
	}
	for _, t := range tables {
		if _, ok := m.tables[t]; !ok {
			return false
		}
	}
	return true
}

func (m *MiddlewareBuilder) bump(table string) {
	m.mu.Lock()
	m.versions[table]++
	m.mu.Unlock()
}

// key orm:query:users@3,posts@0:hash
func (m *MiddlewareBuilder) key(tables []string, q *orm.Query) string {
	var sb strings.Builder
	sb.WriteString(keyPrefix)
	m.mu.RLock()
	for i, t := range tables {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(t)
		sb.WriteByte('@')
		sb.WriteString(strconv.FormatUint(m.versions[t], 10))
	}
	m.mu.RUnlock()
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(xxhash.Sum64String(q.String()), 16))
	return sb.String()
}

func tablesOf(stmt *orm.Statement) []string {
	res := make([]string, 0, len(stmt.Joins)+1)
	res = append(res, stmt.Table)
	for _, j := range stmt.Joins {
		res = append(res, j.Table)
	}
	return res
}

func encode(rs *orm.ResultSet[orm.Result]) ([]byte, error) {
	rows := make([]map[string]any, 0, rs.Len())
	for _, row := range rs.All() {
		rows = append(rows, row)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode Redis 读出来的是 string
func decode(val any) (*orm.ResultSet[orm.Result], error) {
	var data []byte
	switch v := val.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, fmt.Errorf("querycache: 不支持的缓存值类型 %T", val)
	}
	var rows []map[string]any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rows); err != nil {
		return nil, err
	}
	items := make([]orm.Result, 0, len(rows))
	for _, row := range rows {
		items = append(items, orm.Result(row))
	}
	return orm.NewResultSet(items...), nil
}

func clone(rs *orm.ResultSet[orm.Result]) *orm.ResultSet[orm.Result] {
	items := make([]orm.Result, 0, rs.Len())
	for _, row := range rs.All() {
		items = append(items, maps.Clone(row))
	}
	return orm.NewResultSet(items...)
}
