package valuer

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/startdusk/midgard/orm/internal/errs"
)

const (
	tagName   = "orm"
	tagColumn = "column"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// Bind 把 列名 => 值 写进结构体
// 列名优先取 `orm:"column=xxx"`, 否则用字段名的下划线形式
// 结构体上没有对应字段的列会被忽略
func Bind(attrs map[string]any, dst any) error {
	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return errs.ErrPointerOnly
	}
	val = val.Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		fd := typ.Field(i)
		if !fd.IsExported() {
			continue
		}
		colName, err := columnName(fd)
		if err != nil {
			return err
		}
		v, ok := attrs[colName]
		if !ok {
			continue
		}
		if err := assign(val.Field(i), v); err != nil {
			return fmt.Errorf("orm: 列 %s 无法赋值给字段 %s: %w", colName, fd.Name, err)
		}
	}
	return nil
}

// Attributes 把结构体的导出字段读成 列名 => 值
func Attributes(src any) (map[string]any, error) {
	if src == nil {
		return nil, errs.ErrPointerOnly
	}
	val := reflect.ValueOf(src)
	// 反射层面上的解引用, 如 &user 直接取到 user
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, errs.ErrPointerOnly
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ := val.Type()
	res := make(map[string]any, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		fd := typ.Field(i)
		if !fd.IsExported() {
			continue
		}
		colName, err := columnName(fd)
		if err != nil {
			return nil, err
		}
		res[colName] = val.Field(i).Interface()
	}
	return res, nil
}

func assign(field reflect.Value, v any) error {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	// 来源是指针, 如 FillStruct 读出来的 *string
	if src := reflect.ValueOf(v); src.Kind() == reflect.Pointer && !src.Type().AssignableTo(field.Type()) {
		if src.IsNil() {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		return assign(field, src.Elem().Interface())
	}

	// 字段自己实现了 sql.Scanner, 交给它处理, 如 sql.NullString
	if field.CanAddr() && field.Addr().Type().Implements(scannerType) {
		return field.Addr().Interface().(sql.Scanner).Scan(v)
	}
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(field.Type()) {
		field.Set(src)
		return nil
	}
	if s, ok := v.(string); ok {
		return assignString(field, s)
	}
	// 数字转字符串会得到 rune, 不是我们想要的结果
	if field.Kind() == reflect.String && src.Kind() != reflect.String {
		field.SetString(fmt.Sprint(v))
		return nil
	}
	if src.Type().ConvertibleTo(field.Type()) {
		field.Set(src.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("类型 %T 无法转换为 %s", v, field.Type())
}

// 很多驱动把数字当文本返回
func assignString(field reflect.Value, s string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.Uint8 {
			return fmt.Errorf("类型 string 无法转换为 %s", field.Type())
		}
		field.SetBytes([]byte(s))
	default:
		return fmt.Errorf("类型 string 无法转换为 %s", field.Type())
	}
	return nil
}

func columnName(fd reflect.StructField) (string, error) {
	pair, err := parseTag(fd.Tag)
	if err != nil {
		return "", err
	}
	colName := pair[tagColumn]
	if colName == "" {
		colName = underscoreName(fd.Name)
	}
	return colName, nil
}

func parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag, ok := tag.Lookup(tagName)
	if !ok {
		return nil, nil
	}
	pairs := strings.Split(ormTag, ",")
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		segs := strings.Split(pair, "=")
		if len(segs) != 2 {
			return nil, errs.NewErrIinvalidTagContent(pair)
		}
		tags[segs[0]] = segs[1]
	}
	return tags, nil
}

// 驼峰名字符串转下划线命名
// ID => id, FirstName => first_name, UserID => user_id
func underscoreName(name string) string {
	runes := []rune(name)
	var buf []rune
	for i, v := range runes {
		if unicode.IsUpper(v) {
			if i != 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				buf = append(buf, '_')
			}
			buf = append(buf, unicode.ToLower(v))
		} else {
			buf = append(buf, v)
		}
	}
	return string(buf)
}
