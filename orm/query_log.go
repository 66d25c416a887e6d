package orm

import (
	"sync"
	"time"
)

// QueryLogEntry 一条执行过的语句
type QueryLogEntry struct {
	SQL      string
	Args     []any
	Duration time.Duration
	Time     time.Time
}

// queryLog DB 是并发共享的, 所以要加锁
type queryLog struct {
	mu      sync.Mutex
	enabled bool
	entries []QueryLogEntry
}

func (l *queryLog) record(q *Query, start time.Time) {
	if l == nil || q == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	l.entries = append(l.entries, QueryLogEntry{
		SQL:      q.SQL,
		Args:     append([]any(nil), q.Args...),
		Duration: time.Since(start),
		Time:     start,
	})
}

func (l *queryLog) setEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

func (l *queryLog) snapshot() []QueryLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]QueryLogEntry, len(l.entries))
	copy(res, l.entries)
	return res
}

func (l *queryLog) flush() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
