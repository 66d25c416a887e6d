package model

import (
	"encoding/json"
	"reflect"
)

// Transform 列的存取器
// Get 在读取时把存储形式转换成内存形式
// Set 在写入时把内存形式转换成存储形式
// 任意一个为 nil 表示原样返回
type Transform struct {
	Get func(raw any) (any, error)
	Set func(val any) (any, error)
}

// JSON 存储为 JSON 文本, 读取时解码
func JSON() Transform {
	return Transform{
		Get: func(raw any) (any, error) {
			var data []byte
			switch v := raw.(type) {
			case nil:
				return nil, nil
			case string:
				data = []byte(v)
			case []byte:
				data = v
			default:
				// 已经是解码后的值
				return raw, nil
			}
			var res any
			if err := json.Unmarshal(data, &res); err != nil {
				return nil, err
			}
			return res, nil
		},
		Set: func(val any) (any, error) {
			if isNil(val) {
				return nil, nil
			}
			data, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			return string(data), nil
		},
	}
}

// isNil 带类型的 nil 也算, 如 map[string]any(nil)
func isNil(val any) bool {
	if val == nil {
		return true
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
