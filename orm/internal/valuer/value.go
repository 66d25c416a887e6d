package valuer

import (
	"database/sql"
)

// ScanRows 把结果集读成 列名 => 值 的切片
// 不依赖任何结构体定义, 列的顺序以 rows.Columns() 为准
// []byte 会被拷贝并转成 string, 因为 sql 包会复用底层的缓冲区
func ScanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var res []map[string]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, colName := range columns {
			// 同名列后者覆盖前者
			row[colName] = normalize(vals[i])
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

func normalize(val any) any {
	if b, ok := val.([]byte); ok {
		return string(b)
	}
	return val
}
