package orm

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QueryBuilder 只编译不执行
type QueryBuilder interface {
	Build() (*Query, error)
}

type Query struct {
	SQL  string
	Args []any
}

// String 把参数直接拼进 SQL, 只用于日志和调试, 不能拿去执行
// 支持 ?, $n, @pN 三种占位符
func (q Query) String() string {
	var sb strings.Builder
	next := 0
	inQuote := false
	s := q.SQL
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\'' {
			inQuote = !inQuote
		}
		if inQuote {
			sb.WriteByte(ch)
			continue
		}
		switch {
		case ch == '?' && next < len(q.Args):
			sb.WriteString(formatArg(q.Args[next]))
			next++
			continue
		case ch == '$':
			if n, width := leadingNumber(s[i+1:]); width > 0 && n >= 1 && n <= len(q.Args) {
				sb.WriteString(formatArg(q.Args[n-1]))
				i += width
				continue
			}
		case ch == '@' && strings.HasPrefix(s[i+1:], "p"):
			if n, width := leadingNumber(s[i+2:]); width > 0 && n >= 1 && n <= len(q.Args) {
				sb.WriteString(formatArg(q.Args[n-1]))
				i += width + 1
				continue
			}
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

func leadingNumber(s string) (int, int) {
	width := 0
	for width < len(s) && s[width] >= '0' && s[width] <= '9' {
		width++
	}
	if width == 0 {
		return 0, 0
	}
	n, err := strconv.Atoi(s[:width])
	if err != nil {
		return 0, 0
	}
	return n, width
}

func formatArg(arg any) string {
	if v, ok := arg.(driver.Valuer); ok {
		val, err := v.Value()
		if err != nil {
			return "?"
		}
		arg = val
	}
	switch v := arg.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(v)
	case []byte:
		return quoteString(string(v))
	case time.Time:
		return quoteString(v.Format("2006-01-02 15:04:05"))
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return quoteString(v.String())
	default:
		return fmt.Sprint(v)
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
